// Package redis publishes the generator's last-run status to Redis so
// external dashboards can watch indicator freshness without scraping
// the metrics endpoint.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

const defaultStatusTTL = 30 * time.Minute

// StatusWriterConfig configures the Redis status writer.
type StatusWriterConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
	TTL      time.Duration // default 30m
}

// Status is the JSON blob stored per indicator after each cycle.
type Status struct {
	IndicatorID string `json:"indicator_id"`
	Symbol      string `json:"symbol"`
	Timeframe   int    `json:"timeframe"`
	RunAt       string `json:"run_at"`
	Success     bool   `json:"success"`
	Points      int    `json:"points"`
	Lines       int    `json:"lines"`
	Error       string `json:"error,omitempty"`
}

// StatusWriter writes run statuses to Redis.
type StatusWriter struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewStatusWriter creates a StatusWriter and pings the server.
func NewStatusWriter(cfg StatusWriterConfig) (*StatusWriter, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = defaultStatusTTL
	}
	return &StatusWriter{client: client, ttl: ttl}, nil
}

// Publish stores the status under "signalgen:status:{indicator_id}" with a
// TTL so stale entries expire when the generator stops running.
func (w *StatusWriter) Publish(ctx context.Context, st Status) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("redis status marshal: %w", err)
	}
	key := "signalgen:status:" + st.IndicatorID
	if err := w.client.Set(ctx, key, data, w.ttl).Err(); err != nil {
		return fmt.Errorf("redis status set: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (w *StatusWriter) Close() error {
	return w.client.Close()
}
