package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const reportKeyPrefix = "reports:"

// RedisReports implements runlog.ReportStore on a Redis instance.
// Reports are small markdown blobs keyed by filename.
type RedisReports struct {
	rdb *redis.Client
}

// NewRedisReports parses redisURL and verifies connectivity.
func NewRedisReports(ctx context.Context, redisURL string) (*RedisReports, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisReports{rdb: client}, nil
}

func (s *RedisReports) Close() error {
	return s.rdb.Close()
}

func (s *RedisReports) Download(ctx context.Context, name string) ([]byte, bool, error) {
	data, err := s.rdb.Get(ctx, reportKeyPrefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get report %s: %w", name, err)
	}

	return data, true, nil
}

func (s *RedisReports) Upsert(ctx context.Context, name string, data []byte) error {
	if err := s.rdb.Set(ctx, reportKeyPrefix+name, data, 0).Err(); err != nil {
		return fmt.Errorf("set report %s: %w", name, err)
	}

	return nil
}

func (s *RedisReports) List(ctx context.Context) ([]string, error) {
	var names []string

	iter := s.rdb.Scan(ctx, 0, reportKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		names = append(names, strings.TrimPrefix(iter.Val(), reportKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan reports: %w", err)
	}

	return names, nil
}

func (s *RedisReports) Delete(ctx context.Context, name string) error {
	if err := s.rdb.Del(ctx, reportKeyPrefix+name).Err(); err != nil {
		return fmt.Errorf("delete report %s: %w", name, err)
	}

	return nil
}
