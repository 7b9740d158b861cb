package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/angeloszaimis/hamster/config"
	"github.com/angeloszaimis/hamster/internal/handler"
	"github.com/angeloszaimis/hamster/internal/httpserver"
	"github.com/angeloszaimis/hamster/internal/metrics"
)

const metricsBufferSize = 1024

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the site and answer the hamster page with the poll result",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return serve(ctx, a.cfg, a.log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	collector := metrics.NewCollector(metricsBufferSize, log)
	collector.Start(ctx)

	p, err := buildPoller(cfg, log, collector)
	if err != nil {
		return err
	}

	writeTimeout := config.Duration(cfg.Server.WriteTimeout)
	pages := pagesFrom(cfg)
	site := handler.NewSiteHandler(log, p, pages,
		handler.WithCallerTTL(config.Duration(cfg.Gate.CallerTTL)),
		handler.WithGateProbe(cfg.Gate.Probe),
		handler.WithInsecureCookies(cfg.Site.InsecureCookie),
		handler.WithPollTimeout(pollBudget(writeTimeout)),
	)

	router := setupRouter(site, collector, pages, cfg.Site.BasePath, cfg.Site.Dir)

	srv, err := httpserver.New(cfg.Server.Address, withMiddleware(router, log),
		httpserver.WithWriteTimeout(writeTimeout),
		httpserver.WithBaseContext(ctx))
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		return err
	}

	log.Info("Serving site",
		slog.String("addr", cfg.Server.Address),
		slog.String("base_path", cfg.Site.BasePath),
		slog.String("dir", cfg.Site.Dir))

	if err := srv.Run(ctx); err != nil {
		log.Error("Server stopped with error", slog.Any("err", err))
		return err
	}

	log.Info("Shut down gracefully")
	return nil
}
