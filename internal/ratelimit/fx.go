package ratelimit

import (
	"errors"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/orbitcrm/orbitcrm/internal/config"
)

// NewChatLimiter builds the per-user fixed-window limiter that fronts the
// chat endpoint.
func NewChatLimiter(cfg config.Config) (*FixedWindow, error) {
	addr := strings.TrimSpace(cfg.Redis.Addr)
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	if cfg.Chat.RateLimit <= 0 || cfg.Chat.RateWindow <= 0 {
		return nil, errors.New("chat rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.Redis.Password),
		DB:       cfg.Redis.DB,
	})

	return NewFixedWindow(client, cfg.Chat.RateLimit, cfg.Chat.RateWindow), nil
}

var Module = fx.Module("rate.limit",
	fx.Provide(NewChatLimiter),
)
