package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisFeedConfig configures RedisFeed.
type RedisFeedConfig struct {
	Addr       string
	Password   string
	DB         int
	StreamName string
	MaxLen     int64
}

// DefaultRedisFeedConfig returns sane defaults, mirroring the teacher's
// DefaultStoreConfig.
func DefaultRedisFeedConfig() RedisFeedConfig {
	return RedisFeedConfig{
		Addr:       "localhost:6379",
		StreamName: "sentinel:alerts",
		MaxLen:     10_000,
	}
}

// RedisFeed is an optional secondary Subscriber that mirrors every alert
// onto a Redis Stream for external tailing (`XREAD`), generalised from the
// teacher's events.Store Redis-backed event mirror.
type RedisFeed struct {
	client     *redis.Client
	streamName string
	maxLen     int64
	logger     *zap.Logger
}

// NewRedisFeed connects to Redis and verifies reachability with a bounded
// ping, exactly as the teacher's events.NewStore does.
func NewRedisFeed(ctx context.Context, cfg RedisFeedConfig, logger *zap.Logger) (*RedisFeed, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("alert: connect to redis: %w", err)
	}

	streamName := cfg.StreamName
	if streamName == "" {
		streamName = DefaultRedisFeedConfig().StreamName
	}

	logger.Info("connected to redis for alert mirroring",
		zap.String("addr", cfg.Addr), zap.String("stream", streamName))

	return &RedisFeed{client: client, streamName: streamName, maxLen: cfg.MaxLen, logger: logger}, nil
}

// Notify implements Subscriber: it XAdds the alert and opportunistically
// trims the stream to maxLen.
func (f *RedisFeed) Notify(ctx context.Context, a Alert) error {
	data, err := json.Marshal(a.Data)
	if err != nil {
		return fmt.Errorf("alert: marshal data: %w", err)
	}

	values := map[string]any{
		"header":      a.Header,
		"description": a.Description,
		"source":      a.Source,
		"source_type": a.SourceType,
		"timestamp":   a.Timestamp.Format(time.RFC3339Nano),
		"data":        string(data),
	}

	if _, err := f.client.XAdd(ctx, &redis.XAddArgs{Stream: f.streamName, Values: values}).Result(); err != nil {
		f.logger.Error("failed to mirror alert to redis", zap.String("source", a.Source), zap.Error(err))
		return fmt.Errorf("alert: redis xadd: %w", err)
	}

	if f.maxLen > 0 {
		if _, err := f.client.XTrimMaxLen(ctx, f.streamName, f.maxLen).Result(); err != nil {
			f.logger.Warn("failed to trim alert stream", zap.Error(err))
		}
	}
	return nil
}

// Close closes the underlying Redis client.
func (f *RedisFeed) Close() error {
	return f.client.Close()
}
