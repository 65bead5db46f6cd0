package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/andresuchdata/restock/backend-go/internal/config"
	"github.com/andresuchdata/restock/backend-go/internal/pipeline"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	defaultDecisionTTL = 5 * time.Minute
	invalidateBatch    = 100
	pingTimeout        = 5 * time.Second
)

// redisDecisionCache stores pipeline results as JSON under
// decisionKeyPrefix, each with the same TTL.
type redisDecisionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// dialRedis connects using RedisURL when set, else host/port/password/db,
// and fails fast when the server does not answer a PING.
func dialRedis(cfg config.CacheConfig) (*redisDecisionCache, error) {
	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}

	log.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("decision cache connected")
	return newRedisDecisionCache(client, time.Duration(cfg.DecisionTTLSeconds)*time.Second), nil
}

func newRedisDecisionCache(client *redis.Client, ttl time.Duration) *redisDecisionCache {
	if ttl <= 0 {
		ttl = defaultDecisionTTL
	}
	return &redisDecisionCache{client: client, ttl: ttl}
}

func redisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opts, nil
	}

	host, port := cfg.RedisHost, cfg.RedisPort
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "6379"
	}
	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

func (c *redisDecisionCache) Get(ctx context.Context, key DecisionKey) (*pipeline.Result, bool, error) {
	payload, err := c.client.Get(ctx, key.String()).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var result pipeline.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, false, fmt.Errorf("decode decision cache: %w", err)
	}
	return &result, true, nil
}

func (c *redisDecisionCache) Set(ctx context.Context, key DecisionKey, result *pipeline.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode decision cache: %w", err)
	}
	if err := c.client.Set(ctx, key.String(), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// InvalidateAll drops every decision, batching deletes so a large keyspace
// is never loaded at once. Keys outside decisionKeyPrefix are untouched.
func (c *redisDecisionCache) InvalidateAll(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, decisionKeyPrefix+":*", invalidateBatch).Iterator()
	batch := make([]string, 0, invalidateBatch)
	deleted := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis delete failed: %w", err)
		}
		deleted += len(batch)
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == invalidateBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan failed: %w", err)
	}
	if err := flush(); err != nil {
		return err
	}

	log.Debug().Int("keys", deleted).Msg("decision cache invalidated")
	return nil
}

func (c *redisDecisionCache) Close() error {
	return c.client.Close()
}
