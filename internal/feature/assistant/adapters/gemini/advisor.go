// Package gemini はGoogle Gemini APIを使用した外部エージェントのAdvisor実装を提供します。
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"stock_agent/internal/feature/assistant/usecase"
	"stock_agent/internal/shared/ratelimiter"
)

const (
	// DefaultModel はGemini APIのデフォルトモデルです。
	DefaultModel = "gemini-2.5-flash"

	// promptTemplate は株価アシスタントとしての役割を指示するプロンプトです。
	promptTemplate = "You're a helpful financial assistant that can search stock prices. " +
		"Provide clear, concise information about stock prices and market data.\n\n" +
		"User question: %s"
)

// GeminiAdvisor はGemini APIを使用して固定エイリアス外の質問に応答します。
type GeminiAdvisor struct {
	client  *genai.Client
	model   string
	limiter ratelimiter.RateLimiterInterface
}

// GeminiAdvisorがAdvisorを実装していることをコンパイル時に検証します。
var _ usecase.Advisor = (*GeminiAdvisor)(nil)

// NewGeminiAdvisor はGeminiAdvisorの新しいインスタンスを生成します。
// 認証には環境変数 GEMINI_API_KEY（またはGOOGLE_API_KEY）を使用します。
// limiterにはnilを渡せます。
func NewGeminiAdvisor(ctx context.Context, limiter ratelimiter.RateLimiterInterface) (*GeminiAdvisor, error) {
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiAdvisor{client: client, model: DefaultModel, limiter: limiter}, nil
}

// Advise はユーザーテキストへの自由形式の回答を生成します。
func (g *GeminiAdvisor) Advise(ctx context.Context, userText string) (string, error) {
	if g.limiter != nil {
		g.limiter.WaitIfNeeded()
	}

	prompt := fmt.Sprintf(promptTemplate, userText)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini API request failed: %w", err)
	}
	return resp.Text(), nil
}
