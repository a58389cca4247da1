package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/pkg/adapters/file"
	"github.com/aretw0/parley/pkg/adapters/llm"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/adapters/redis"
	"github.com/aretw0/parley/pkg/persistence/middleware"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/retry"
)

// CreateEngine initializes a parley engine with standard CLI conventions:
// store by kind, optional PII redaction and encryption, LLM collaborators when
// an API key is configured and rule-based ones otherwise.
func CreateEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger, extra ...parley.Option) (*parley.Engine, error) {
	opts := []parley.Option{
		parley.WithLogger(logger),
		parley.WithRetryPolicy(retryPolicy(cfg.Retry)),
		parley.WithMaxQuestions(cfg.Interview.MaxQuestions),
		parley.WithMaxInputSize(cfg.Interview.MaxInputSize),
		parley.WithMaxSteps(cfg.Interview.MaxSteps),
	}

	// 1. Persistence
	storeOpts, err := storeOptions(cfg)
	if err != nil {
		return nil, err
	}
	opts = append(opts, storeOpts...)

	// 2. Security layers. Redaction runs first so the sealed payload is already masked.
	mws, err := securityMiddlewares(cfg.Security)
	if err != nil {
		return nil, err
	}
	if len(mws) > 0 {
		opts = append(opts, parley.WithStoreMiddleware(mws...))
	}

	// 3. Collaborators
	if cfg.LLM.APIKey != "" {
		client, err := llm.New(ctx, llm.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
		}, llm.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("error initializing llm client: %w", err)
		}
		opts = append(opts, parley.WithClassifier(client), parley.WithGenerator(client))
		logger.Debug("Using LLM collaborators", "model", cfg.LLM.Model)
	} else {
		logger.Debug("No LLM key configured, using rule-based collaborators")
	}

	engine, err := parley.New(append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}

// CreateStore opens the state store selected by cfg.Store.Kind.
func CreateStore(cfg *config.Config) (ports.StateStore, error) {
	switch cfg.Store.Kind {
	case config.StoreMemory:
		return memory.NewStore(), nil
	case config.StoreFile:
		return file.New(cfg.Store.Dir), nil
	case config.StoreRedis:
		store, err := redis.New(cfg.Store.RedisURL,
			redis.WithPrefix(cfg.Store.RedisPrefix),
			redis.WithTTL(cfg.Store.RedisTTL),
		)
		if err != nil {
			return nil, fmt.Errorf("error connecting to redis: %w", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
}

func storeOptions(cfg *config.Config) ([]parley.Option, error) {
	store, err := CreateStore(cfg)
	if err != nil {
		return nil, err
	}
	opts := []parley.Option{parley.WithStore(store)}
	// A shared store means other processes may resume the same session.
	if rs, ok := store.(*redis.Store); ok {
		opts = append(opts, parley.WithLocker(redis.NewLocker(rs.Client(), rs.Prefix()), cfg.Store.LockTTL))
	}
	return opts, nil
}

func securityMiddlewares(cfg config.SecurityConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if cfg.RedactPII {
		pii, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)
		if err != nil {
			return nil, err
		}
		mws = append(mws, pii)
	}
	if cfg.EncryptionKey != "" {
		active, fallback, err := cfg.Keys()
		if err != nil {
			return nil, err
		}
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		})
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}
	return mws, nil
}

func retryPolicy(cfg config.RetryConfig) retry.Policy {
	return retry.Policy{
		Attempts:      cfg.Attempts,
		Timeout:       cfg.Timeout,
		Backoff:       cfg.Backoff,
		BackoffFactor: cfg.BackoffFactor,
		MaxBackoff:    cfg.MaxBackoff,
	}
}
