package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/bulletin/internal/domain/session"
	"github.com/okian/bulletin/pkg/logger"
)

const pingTimeout = 5 * time.Second

// RedisProvider looks sessions up in Redis. The authentication service
// stores each session as JSON under <prefix><token>:
//
//	SET session:3f9a... '{"user_id":"42","role":"ADMIN"}' EX 86400
type RedisProvider struct {
	rdb    redis.UniversalClient
	cookie string
	prefix string
	logger logger.Logger
}

// RedisOption configures a RedisProvider.
type RedisOption func(*RedisProvider)

// WithCookieName sets the cookie that carries the session token.
func WithCookieName(name string) RedisOption {
	return func(p *RedisProvider) {
		if name != "" {
			p.cookie = name
		}
	}
}

// WithKeyPrefix sets the Redis key prefix.
func WithKeyPrefix(prefix string) RedisOption {
	return func(p *RedisProvider) {
		p.prefix = prefix
	}
}

// WithLogger sets the logger used for malformed session warnings.
func WithLogger(l logger.Logger) RedisOption {
	return func(p *RedisProvider) {
		if l != nil {
			p.logger = l
		}
	}
}

// DialRedis creates a client and verifies the connection with a PING.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// NewRedisProvider creates a provider over an existing client.
func NewRedisProvider(rdb redis.UniversalClient, opts ...RedisOption) *RedisProvider {
	p := &RedisProvider{
		rdb:    rdb,
		cookie: "session_token",
		prefix: "session:",
		logger: logger.Get().Named("sessionstore"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type storedSession struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Session resolves the request's token. A missing token, a missing key and a
// malformed payload all mean "not logged in"; only backend failures error.
func (p *RedisProvider) Session(ctx context.Context, r *http.Request) (*session.Session, error) {
	token := tokenFrom(r, p.cookie)
	if token == "" {
		return nil, nil
	}

	raw, err := p.rdb.Get(ctx, p.prefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionBackend, err)
	}

	var stored storedSession
	if err := json.Unmarshal(raw, &stored); err != nil {
		p.logger.Warn(ctx, "discarding malformed session", logger.Error(err))
		return nil, nil
	}
	role, err := session.ParseRole(stored.Role)
	if err != nil {
		p.logger.Warn(ctx, "discarding session with unknown role",
			logger.String("user_id", stored.UserID),
			logger.Error(err),
		)
		return nil, nil
	}
	return &session.Session{UserID: stored.UserID, Role: role}, nil
}

// Ping reports whether Redis is reachable.
func (p *RedisProvider) Ping(ctx context.Context) error {
	if err := p.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrSessionBackend, err)
	}
	return nil
}

// Close closes the underlying client.
func (p *RedisProvider) Close() error {
	return p.rdb.Close()
}
