package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vilanovax/dangi-sub000/pkg/api"
)

const keyPrefix = "dangi:summary:"

// Redis keeps one string key per project, generation and period, each with
// its own TTL. A per-project counter holds the current generation;
// invalidation is a single INCR and retired entries expire on their own.
// Counters carry no TTL so a generation is never reused.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to the server at url and verifies it answers PING.
func NewRedis(ctx context.Context, url string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Redis{client: client, ttl: ttl}, nil
}

func generationKey(projectID string) string {
	return keyPrefix + projectID + ":gen"
}

func summaryKey(projectID string, gen int64, period string) string {
	return keyPrefix + projectID + ":" + strconv.FormatInt(gen, 10) + ":" + period
}

func (r *Redis) Generation(ctx context.Context, projectID string) (int64, error) {
	gen, err := r.client.Get(ctx, generationKey(projectID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read cache generation: %w", err)
	}
	return gen, nil
}

func (r *Redis) Get(ctx context.Context, projectID string, gen int64, period string) (*api.Summary, bool, error) {
	data, err := r.client.Get(ctx, summaryKey(projectID, gen, period)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached summary: %w", err)
	}

	var summary api.Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, false, fmt.Errorf("decode cached summary: %w", err)
	}
	return &summary, true, nil
}

func (r *Redis) Set(ctx context.Context, projectID string, gen int64, period string, summary *api.Summary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := r.client.Set(ctx, summaryKey(projectID, gen, period), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("write cached summary: %w", err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context, projectID string) error {
	if err := r.client.Incr(ctx, generationKey(projectID)).Err(); err != nil {
		return fmt.Errorf("invalidate summary: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
