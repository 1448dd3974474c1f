package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bowerhall/rumbo/internal/api"
	"github.com/bowerhall/rumbo/internal/bot"
	"github.com/bowerhall/rumbo/internal/config"
	"github.com/bowerhall/rumbo/internal/logger"
	"github.com/bowerhall/rumbo/internal/metrics"
	"github.com/bowerhall/rumbo/internal/session"
	"github.com/bowerhall/rumbo/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and any configured chat bots",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if port != "" {
				cfg.Server.Port = port
			}
			return serve(cfg)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides PORT)")
	return cmd
}

func serve(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	if err := telemetry.Init(ctx, cfg.Telemetry); err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	a, err := build(cfg)
	if err != nil {
		return err
	}

	janitor, err := newJanitor(cfg.Session, a)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	server := api.New(a.assistant, api.Options{
		Port:        cfg.Server.Port,
		CORSOrigins: cfg.Server.CORSOrigins,
		Budget:      a.budget,
	})
	g.Go(func() error {
		return server.Run(ctx)
	})

	for _, bc := range enabledBots(cfg.Bots) {
		b, err := bot.New(bc, a.assistant)
		if err != nil {
			// a bad token should not take the HTTP API down with it
			logger.Error("failed to create bot", "provider", bc.Provider, "error", err)
			continue
		}
		g.Go(func() error {
			return ignoreCanceled(b.Start(ctx))
		})
	}

	if janitor != nil {
		g.Go(func() error {
			return janitor.Run(ctx)
		})
	}

	logger.Info("rumbo started", "port", cfg.Server.Port, "idle_ttl", cfg.Session.IdleTTL)

	err = g.Wait()
	logger.Info("rumbo stopped")
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newJanitor returns nil when idle eviction is disabled.
func newJanitor(cfg config.SessionConfig, a *app) (*session.Janitor, error) {
	if cfg.IdleTTL <= 0 {
		return nil, nil
	}

	janitor, err := session.NewJanitor(a.sessions, cfg.SweepSchedule, cfg.IdleTTL)
	if err != nil {
		return nil, err
	}
	janitor.OnSweep(func(evicted []string) {
		a.assistant.Forget(evicted...)
	})
	return janitor, nil
}

func enabledBots(bots config.MultiBot) []bot.Config {
	var out []bot.Config
	if bots.Telegram.Enabled {
		out = append(out, bot.Config{Provider: "telegram", Token: bots.Telegram.Token})
	}
	if bots.Discord.Enabled {
		out = append(out, bot.Config{Provider: "discord", Token: bots.Discord.Token})
	}
	return out
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
