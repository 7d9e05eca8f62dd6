package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strings"

	redisv9 "github.com/redis/go-redis/v9"

	"stock_agent/internal/app/di"
	"stock_agent/internal/app/router"
	assistanthandler "stock_agent/internal/feature/assistant/transport/handler"
	assistantusecase "stock_agent/internal/feature/assistant/usecase"
	"stock_agent/internal/feature/quotes/adapters/memory"
	infraredis "stock_agent/internal/platform/redis"
)

func main() {
	configureLogging()

	ctx := context.Background()

	// Redis（セッション記録用、任意）
	var rdb *redisv9.Client
	if tmp, err := infraredis.NewRedisClient(); err != nil {
		log.Println("[WARN] Redis unavailable. Running without session recording.")
		rdb = nil
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Println("[ERROR] Failed to close Redis client:", err)
			}
		}()
	}

	// Repository
	quoteRepo := memory.NewQuoteMemory()

	// 外部エージェント（APIキー未設定時はnil）
	advisor := di.NewAdvisor(ctx)
	if advisor == nil {
		log.Println("[WARN] GEMINI_API_KEY is not set. Questions outside the fixed symbols get a static prompt.")
	}

	// Usecase
	assistantUC := assistantusecase.NewAssistantUsecase(quoteRepo, advisor)

	// Handler
	sessions := di.NewSessionStore(rdb)
	chatH := assistanthandler.NewChatHandler(assistantUC, sessions)

	// ルータ生成
	r := router.NewRouter(chatH)

	if err := r.Run(":8080"); err != nil {
		log.Fatal(err)
	}
}

// configureLogging はLOG_LEVEL環境変数からslogの出力レベルを設定します。
func configureLogging() {
	level := slog.LevelInfo
	switch strings.ToUpper(os.Getenv("LOG_LEVEL")) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN", "WARNING":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}
