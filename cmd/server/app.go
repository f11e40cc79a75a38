package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	handler "github.com/vncsmyrnk/ideabox/internal/adapters/handler/http"
	"github.com/vncsmyrnk/ideabox/internal/adapters/metrics"
	"github.com/vncsmyrnk/ideabox/internal/adapters/notify/local"
	natsnotify "github.com/vncsmyrnk/ideabox/internal/adapters/notify/nats"
	"github.com/vncsmyrnk/ideabox/internal/adapters/repository"
	"github.com/vncsmyrnk/ideabox/internal/config"
	"github.com/vncsmyrnk/ideabox/internal/core/ports"
	"github.com/vncsmyrnk/ideabox/internal/core/services"
)

func run(ctx context.Context, configPath, logLevel, addr string) error {
	slog.SetDefault(newLogger(logLevel))

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := repository.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	notifier, err := openNotifier(cfg.NATS)
	if err != nil {
		return err
	}
	defer notifier.Close()

	app, err := newApp(ctx, cfg, store, notifier)
	if err != nil {
		return err
	}

	server := &http.Server{Addr: cfg.Server.Addr, Handler: app.handler}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Server.Addr, "store", cfg.Store.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("gracefully shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

type app struct {
	handler http.Handler
}

// newApp wires services and HTTP handlers over an opened store and notifier.
func newApp(ctx context.Context, cfg *config.Config, store ports.Store, notifier ports.ChangeNotifier) (*app, error) {
	admins, err := cfg.AdminIDs()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.TimeLocation()
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	voteMetrics := metrics.New(registry)

	quota := services.NewQuotaService(store, services.QuotaConfig{
		VotesPerQuarter: cfg.Voting.VotesPerQuarter,
		Location:        loc,
	})
	votes := services.NewVoteService(store, quota, notifier, voteMetrics, cfg.Store.Timeout)
	ideas := services.NewIdeaService(store, votes, notifier, voteMetrics, services.IdeaConfig{
		AutoVote: cfg.Ideas.AutoVote,
		Admins:   admins,
		Timeout:  cfg.Store.Timeout,
	})
	profiles := services.NewProfileService(store, cfg.Store.Timeout, nil)

	if _, err := notifier.Subscribe(ctx, ideas.HandleChange); err != nil {
		return nil, fmt.Errorf("subscribe to changes: %w", err)
	}

	h := handler.NewHandler(handler.RouterConfig{
		Ideas:          handler.NewIdeaHandler(ideas),
		Votes:          handler.NewVoteHandler(votes),
		Users:          handler.NewUserHandler(profiles, votes, quota),
		Auth:           handler.NewAuthenticator(cfg.Auth.JWTSecret),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Health:         store.Ping,
		Metrics:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	})

	return &app{handler: h}, nil
}

func openNotifier(cfg config.NATSConfig) (ports.ChangeNotifier, error) {
	if cfg.URL == "" {
		return local.NewNotifier(), nil
	}
	notifier, err := natsnotify.Connect(cfg.URL, "ideabox-server")
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return notifier, nil
}

func newLogger(level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
