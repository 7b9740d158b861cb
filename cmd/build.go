package main

import (
	"log/slog"
	"time"

	"github.com/angeloszaimis/hamster/config"
	"github.com/angeloszaimis/hamster/internal/circuitbreaker"
	"github.com/angeloszaimis/hamster/internal/envsource"
	"github.com/angeloszaimis/hamster/internal/handler"
	"github.com/angeloszaimis/hamster/internal/metrics"
	"github.com/angeloszaimis/hamster/internal/poller"
	"github.com/angeloszaimis/hamster/internal/probe"
	"github.com/angeloszaimis/hamster/internal/retry"
	"github.com/angeloszaimis/hamster/internal/session"
)

func buildPolicy(cfg *config.Config) (retry.Policy, error) {
	return retry.FromType(cfg.Poller.Policy,
		config.Duration(cfg.Poller.Delay),
		config.Duration(cfg.Poller.MaxDelay),
		cfg.Poller.MaxRetries)
}

// buildSource prefers the remote env.json and falls back to the copy on disk.
func buildSource(cfg *config.Config) envsource.Source {
	if cfg.Poller.ConfigURL != "" {
		return envsource.NewHTTPSource(cfg.Poller.ConfigURL, config.Duration(cfg.Poller.ConfigTimeout))
	}
	return envsource.NewFileSource(cfg.Site.EnvFile)
}

func buildProber(cfg *config.Config, log *slog.Logger) *probe.Prober {
	opts := []probe.Option{
		probe.WithTimeout(config.Duration(cfg.Probe.Timeout)),
		probe.WithRequireOK(cfg.Probe.RequireOK),
	}
	if cfg.Probe.BypassHeader != "" {
		opts = append(opts, probe.WithBypassHeader(cfg.Probe.BypassHeader, cfg.Probe.BypassValue))
	}
	if cfg.Probe.BreakerThreshold > 0 {
		registry := circuitbreaker.NewRegistry(cfg.Probe.BreakerThreshold, config.Duration(cfg.Probe.BreakerReset))
		opts = append(opts, probe.WithBreakers(registry))
	}
	return probe.New(log, opts...)
}

func buildPoller(cfg *config.Config, log *slog.Logger, emitter metrics.Emitter) (*poller.Poller, error) {
	policy, err := buildPolicy(cfg)
	if err != nil {
		return nil, err
	}

	log.Info("Poller configured",
		slog.Any("policy", policy),
		slog.String("ttl", cfg.Poller.TTL),
		slog.Bool("require_ok", cfg.Probe.RequireOK))

	return poller.New(
		buildSource(cfg),
		buildProber(cfg, log),
		policy,
		log,
		poller.WithTTL(config.Duration(cfg.Poller.TTL)),
		poller.WithEmitter(emitter),
	), nil
}

func pagesFrom(cfg *config.Config) handler.Pages {
	return handler.Pages{
		Root:       cfg.Pages.Root,
		Hamster:    cfg.Pages.Hamster,
		Unknown:    cfg.Pages.Unknown,
		ServerDown: cfg.Pages.ServerDown,
	}
}

// openStore returns the configured session store and a release func.
func openStore(cfg *config.Config) (session.Store, func() error, error) {
	switch cfg.Session.Store {
	case config.StoreLevelDB:
		db, err := session.OpenLevelDB(cfg.Session.Path)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	default:
		return session.NewMemoryStore(), func() error { return nil }, nil
	}
}

// pollMargin is kept free at the end of the write deadline for the redirect.
const pollMargin = 2 * time.Second

// pollBudget is how long a hamster poll may run before the server would cut
// the response off.
func pollBudget(writeTimeout time.Duration) time.Duration {
	if writeTimeout <= 2*pollMargin {
		return writeTimeout / 2
	}
	return writeTimeout - pollMargin
}
