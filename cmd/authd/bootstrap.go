package main

import (
	"context"
	"fmt"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	schoolauth "github.com/vidkid7/SchoolManagementSystem-sub009"
	"github.com/vidkid7/SchoolManagementSystem-sub009/internal/audit"
	"github.com/vidkid7/SchoolManagementSystem-sub009/internal/config"
	"github.com/vidkid7/SchoolManagementSystem-sub009/internal/obs"
	"github.com/vidkid7/SchoolManagementSystem-sub009/lockout"
	"github.com/vidkid7/SchoolManagementSystem-sub009/store"
	pginfra "github.com/vidkid7/SchoolManagementSystem-sub009/userstore/postgres"
)

// sentryEvents are the audit events worth paging on.
var sentryEvents = map[string]sentry.Level{
	lockout.EventAccountLocked:   sentry.LevelWarning,
	lockout.EventUnlockedByAdmin: sentry.LevelInfo,
}

type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *pginfra.DB
	engine *schoolauth.Engine

	closers []func()
}

// Close releases resources in reverse acquisition order.
func (rt *app) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}

func (rt *app) onClose(fn func()) { rt.closers = append(rt.closers, fn) }

// loadBase reads config and builds the logger.
func loadBase(opts *options) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	l, err := obs.NewLogger(obs.LogConfig{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		App:    cfg.App.Name,
		Env:    cfg.App.Env,
		Ver:    cfg.App.Version,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	rt := &app{cfg: cfg, logger: l}
	rt.onClose(func() { _ = l.Sync() })
	return rt, nil
}

// bootstrap wires the full engine: Redis, Postgres, audit sinks.
func bootstrap(ctx context.Context, opts *options) (*app, error) {
	rt, err := loadBase(opts)
	if err != nil {
		return nil, err
	}
	if err := rt.wireEngine(ctx, opts); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *app) wireEngine(ctx context.Context, opts *options) error {
	cfg := rt.cfg

	engineCfg, err := cfg.Engine()
	if err != nil {
		return err
	}

	sinks := audit.MultiSink{audit.NewZapSink(rt.logger.Named("audit"))}
	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.App.Env,
			Release:     cfg.App.Version,
			SampleRate:  cfg.Sentry.SampleRate,
		}); err != nil {
			return fmt.Errorf("sentry init: %w", err)
		}
		rt.onClose(func() { sentry.Flush(2 * time.Second) })
		sinks = append(sinks, audit.NewSentrySink(nil, sentryEvents))
	}

	addr := cfg.Redis.Addr
	if opts.embeddedRedis {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("embedded redis: %w", err)
		}
		rt.onClose(mr.Close)
		addr = mr.Addr()
		rt.logger.Warn("using embedded redis; sessions and lockouts vanish on exit", zap.String("addr", addr))
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	rt.onClose(func() { _ = client.Close() })

	db, err := pginfra.New(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	rt.db = db
	rt.onClose(db.Close)

	engine, err := schoolauth.New().
		WithConfig(engineCfg).
		WithStore(store.NewRedis(client, store.WithKeyPrefix(cfg.Redis.KeyPrefix))).
		WithUserProvider(pginfra.NewProvider(db)).
		WithAuditSink(sinks).
		WithLogger(rt.logger).
		Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	rt.engine = engine
	rt.onClose(engine.Close)
	return nil
}
