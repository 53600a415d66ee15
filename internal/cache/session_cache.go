package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"resto/internal/models"
)

const sessionPrefix = "session:"

// SessionCache keeps session rows in Redis keyed by their token.
type SessionCache struct {
	rdb *redis.Client
}

type sessionEntry struct {
	ID         uint      `json:"id"`
	UserID     *uint     `json:"user_id,omitempty"`
	MerchantID *uint     `json:"merchant_id,omitempty"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// New parses redisURL and pings the server.
func New(ctx context.Context, redisURL string) (*SessionCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &SessionCache{rdb: rdb}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(rdb *redis.Client) *SessionCache {
	return &SessionCache{rdb: rdb}
}

func key(token string) string {
	return sessionPrefix + token
}

// Get returns the cached session for token. A miss is reported as (nil, false, nil).
func (c *SessionCache) Get(ctx context.Context, token string) (*models.Session, bool, error) {
	val, err := c.rdb.Get(ctx, key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get session: %w", err)
	}

	var entry sessionEntry
	if err := json.Unmarshal(val, &entry); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal session data: %w", err)
	}

	return &models.Session{
		ID:         entry.ID,
		Token:      token,
		UserID:     entry.UserID,
		MerchantID: entry.MerchantID,
		ExpiresAt:  entry.ExpiresAt,
		CreatedAt:  entry.CreatedAt,
	}, true, nil
}

// Set stores session until ttl elapses. Non-positive ttls are ignored.
func (c *SessionCache) Set(ctx context.Context, session *models.Session, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(sessionEntry{
		ID:         session.ID,
		UserID:     session.UserID,
		MerchantID: session.MerchantID,
		ExpiresAt:  session.ExpiresAt,
		CreatedAt:  session.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	return c.rdb.Set(ctx, key(session.Token), data, ttl).Err()
}

// Close releases the underlying connection pool.
func (c *SessionCache) Close() error {
	return c.rdb.Close()
}
