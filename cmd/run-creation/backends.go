package main

import (
	"context"
	"fmt"

	"github.com/XavierBriggs/fortuna/services/run-creation/internal/config"
	"github.com/XavierBriggs/fortuna/services/run-creation/internal/db"
	"github.com/XavierBriggs/fortuna/services/run-creation/internal/pipeline"
	"github.com/XavierBriggs/fortuna/services/run-creation/internal/retry"
	"github.com/redis/go-redis/v9"
)

// openRedis pings Redis with backoff until it answers
func openRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.URL,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	policy := retry.NewPolicy(cfg.ConnectAttempts, cfg.ConnectDelay)
	if err := policy.Execute(ctx, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.URL, err)
	}
	return client, nil
}

// openStore returns nil when no DSN is configured
func openStore(ctx context.Context, cfg config.PostgresConfig) (*db.Postgres, error) {
	if cfg.DSN == "" {
		return nil, nil
	}

	store, err := db.NewPostgres(cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.Migrate {
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
	}
	return store, nil
}

func pipelineInputs(cfg *config.Config) pipeline.Inputs {
	return pipeline.Inputs{
		Base:    cfg.Input.Base,
		Aliases: cfg.Input.Aliases,
		Range:   cfg.TeamRange(),
	}
}
