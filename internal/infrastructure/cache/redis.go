package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vitos/perp_board/internal/domain"
)

// RedisConfig configures the snapshot mirror.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
	Channel  string
	TTL      time.Duration
}

// RedisMirror stores the latest serialized snapshot under a key and
// publishes it on a channel so other processes can follow the board.
type RedisMirror struct {
	client  *redis.Client
	key     string
	channel string
	ttl     time.Duration
}

// NewRedisMirror connects and pings the server.
func NewRedisMirror(ctx context.Context, cfg RedisConfig) (*RedisMirror, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}

	return NewRedisMirrorWithClient(client, cfg.Key, cfg.Channel, cfg.TTL), nil
}

func NewRedisMirrorWithClient(client *redis.Client, key, channel string, ttl time.Duration) *RedisMirror {
	return &RedisMirror{client: client, key: key, channel: channel, ttl: ttl}
}

// Publish implements domain.SnapshotSink.
func (m *RedisMirror) Publish(ctx context.Context, _ domain.Snapshot, payload []byte) error {
	pipe := m.client.Pipeline()
	pipe.Set(ctx, m.key, payload, m.ttl)
	if m.channel != "" {
		pipe.Publish(ctx, m.channel, payload)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mirror snapshot to redis: %w", err)
	}
	return nil
}

// Latest returns the mirrored payload, or nil if the key is absent.
func (m *RedisMirror) Latest(ctx context.Context) ([]byte, error) {
	data, err := m.client.Get(ctx, m.key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get error: %w", err)
	}
	return data, nil
}

func (m *RedisMirror) Close() error {
	return m.client.Close()
}
