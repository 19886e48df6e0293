package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Aryan-Gandhi/PromptGenerator/internal/cache"
	"github.com/Aryan-Gandhi/PromptGenerator/internal/config"
	"github.com/Aryan-Gandhi/PromptGenerator/internal/health"
	httpapi "github.com/Aryan-Gandhi/PromptGenerator/internal/http"
	"github.com/Aryan-Gandhi/PromptGenerator/internal/observability"
	"github.com/Aryan-Gandhi/PromptGenerator/internal/repo"
	"github.com/Aryan-Gandhi/PromptGenerator/internal/services"
	"github.com/Aryan-Gandhi/PromptGenerator/internal/sysutil"
	"github.com/Aryan-Gandhi/PromptGenerator/internal/upstream"
)

const shutdownGrace = 10 * time.Second

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP transform service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if port != "" {
				cfg.Port = port
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "override PORT")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	sysutil.SetLogLevel(cfg.LogLevel)
	sysutil.ConfigureLogger(os.Stdout, cfg.LogPretty)
	gin.SetMode(sysutil.GinMode(cfg.GinMode))

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, Version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	store, closeStore, err := openStore(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn().Err(err).Msg("cache close")
		}
	}()

	mon := health.New()
	svc := &services.TransformService{
		Store: store,
		Upstream: upstream.New(upstream.Config{
			Endpoint:       cfg.Upstream.Endpoint,
			APIKey:         cfg.Upstream.APIKey,
			Timeout:        cfg.Upstream.Timeout,
			TimeoutStep:    cfg.Upstream.TimeoutStep,
			MaxRetries:     cfg.Upstream.MaxRetries,
			InitialBackoff: cfg.Upstream.InitialBackoff,
			MaxBackoff:     cfg.Upstream.MaxBackoff,
			MaxJitter:      upstream.DefaultMaxJitter,
		}, nil),
		Health:       mon,
		MockEnabled:  cfg.MockEnabled(),
		DefaultModel: cfg.Upstream.DefaultModel,
		Deadline:     cfg.Upstream.Deadline,
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{Transform: svc, Health: mon}, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("cache", cfg.Cache.Backend).
			Bool("mock", svc.MockEnabled).
			Int("allowed_origins", len(cfg.CORS.AllowedOrigins)).
			Msg("promptgear listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	if !svc.MockEnabled && cfg.Upstream.APIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY is not set; transforms will fail")
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// openStore builds the configured cache backend. The returned close func is
// never nil.
func openStore(ctx context.Context, cfg config.CacheConfig) (cache.Store, func() error, error) {
	nop := func() error { return nil }

	switch cfg.Backend {
	case config.CacheMemory:
		return cache.NewMemory(cfg.TTL), nop, nil
	case config.CacheNone:
		return cache.None{}, nop, nil
	case config.CacheRedis:
		rc, err := cache.OpenRedis(ctx, cfg.RedisURL, cfg.TTL)
		if err != nil {
			return nil, nop, fmt.Errorf("open redis cache: %w", err)
		}
		return rc, rc.Close, nil
	case config.CacheSQLite:
		db, err := repo.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, nop, fmt.Errorf("open sqlite cache: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nop, err
		}
		if err := repo.AutoMigrate(db); err != nil {
			_ = sqlDB.Close()
			return nil, nop, fmt.Errorf("migrate sqlite cache: %w", err)
		}
		return repo.NewTransformCache(db, cfg.TTL), sqlDB.Close, nil
	default:
		return nil, nop, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
