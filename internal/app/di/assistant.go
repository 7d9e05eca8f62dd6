// Package di provides dependency injection factories for creating application components.
package di

import (
	"context"
	"log/slog"
	"os"
	"time"

	"stock_agent/internal/feature/assistant/adapters/gemini"
	"stock_agent/internal/feature/assistant/usecase"
	"stock_agent/internal/shared/ratelimiter"
)

// NewAdvisor creates the Gemini-backed advisor when a model API key is
// configured. It returns nil when no key is set or the client cannot be
// created; the assistant then falls back to its fixed prompt.
func NewAdvisor(ctx context.Context) usecase.Advisor {
	if os.Getenv("GEMINI_API_KEY") == "" && os.Getenv("GOOGLE_API_KEY") == "" {
		return nil
	}

	limiter := ratelimiter.NewRateLimiter(30, time.Minute)
	advisor, err := gemini.NewGeminiAdvisor(ctx, limiter)
	if err != nil {
		slog.Warn("advisor unavailable, continuing without it", "error", err)
		return nil
	}
	return advisor
}
