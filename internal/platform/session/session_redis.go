// Package session provides Redis-backed recording of chat session activity.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when no activity has been recorded for a
// session ID (or the record expired).
var ErrSessionNotFound = errors.New("chat session not found")

// ChatSession captures the latest activity observed for one session ID.
type ChatSession struct {
	SessionID string    `json:"session_id"`
	LastQuery string    `json:"last_query"`
	Turns     int       `json:"turns"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionRedis records chat session activity in Redis. A nil client turns
// every operation into a no-op so the service keeps serving without Redis.
type SessionRedis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewSessionRedis creates a new SessionRedis instance.
// If prefix is empty it uses "chat". If ttl is not positive it defaults to 24h.
func NewSessionRedis(client *redis.Client, prefix string, ttl time.Duration) *SessionRedis {
	if prefix == "" {
		prefix = "chat"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionRedis{client: client, prefix: prefix, ttl: ttl}
}

// sessionKey returns the Redis key for a session.
func (r *SessionRedis) sessionKey(id string) string {
	return fmt.Sprintf("%s:%s", r.prefix, id)
}

// Touch records one observed turn for the session, creating the record on
// first contact and refreshing its TTL on every call.
func (r *SessionRedis) Touch(ctx context.Context, sessionID, userText string) error {
	if r.client == nil {
		return nil
	}

	sess, err := r.FindByID(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			return err
		}
		sess = &ChatSession{SessionID: sessionID}
	}
	sess.LastQuery = userText
	sess.Turns++
	sess.UpdatedAt = time.Now()

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return r.client.Set(ctx, r.sessionKey(sessionID), data, r.ttl).Err()
}

// FindByID retrieves recorded activity for a session ID.
func (r *SessionRedis) FindByID(ctx context.Context, id string) (*ChatSession, error) {
	if r.client == nil {
		return nil, ErrSessionNotFound
	}

	data, err := r.client.Get(ctx, r.sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	var sess ChatSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &sess, nil
}
