package di

import (
	"time"

	"github.com/redis/go-redis/v9"

	"stock_agent/internal/platform/session"
)

// NewSessionStore creates the chat session activity store.
// A nil Redis client yields a store that records nothing, so the service
// keeps working when Redis is unavailable.
func NewSessionStore(rdb *redis.Client) *session.SessionRedis {
	return session.NewSessionRedis(rdb, "chat", 24*time.Hour)
}
