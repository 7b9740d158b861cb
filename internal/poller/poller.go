package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/angeloszaimis/hamster/internal/envsource"
	"github.com/angeloszaimis/hamster/internal/metrics"
	"github.com/angeloszaimis/hamster/internal/probe"
	"github.com/angeloszaimis/hamster/internal/retry"
	"github.com/angeloszaimis/hamster/internal/session"
)

const DefaultTTL = 3 * time.Hour

// Prober checks one URL.
type Prober interface {
	Probe(ctx context.Context, url string) (probe.Result, error)
}

type Poller struct {
	source  envsource.Source
	prober  Prober
	policy  retry.Policy
	ttl     time.Duration
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
	emitter metrics.Emitter
	logger  *slog.Logger
}

type Option func(*Poller)

// WithTTL sets how long refreshed sessions stay valid.
func WithTTL(ttl time.Duration) Option {
	return func(p *Poller) { p.ttl = ttl }
}

func WithClock(now func() time.Time) Option {
	return func(p *Poller) { p.now = now }
}

// WithSleeper replaces the delay between attempts.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Poller) { p.sleep = sleep }
}

func WithEmitter(emitter metrics.Emitter) Option {
	return func(p *Poller) { p.emitter = emitter }
}

func New(source envsource.Source, prober Prober, policy retry.Policy, logger *slog.Logger, opts ...Option) *Poller {
	p := &Poller{
		source:  source,
		prober:  prober,
		policy:  policy,
		ttl:     DefaultTTL,
		now:     time.Now,
		sleep:   retry.Sleep,
		emitter: metrics.Discard{},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RefreshSession fetches the configuration resource and writes every key it
// carries into store, valid for the poller's TTL. A non-empty override
// replaces the published state.
func (p *Poller) RefreshSession(ctx context.Context, store session.Store, override session.State) (session.Record, error) {
	rec, err := p.fetch(ctx)
	p.emitter.Emit(metrics.MetricEvent{
		Type:      metrics.EventRefresh,
		Timestamp: p.now(),
		Success:   err == nil,
	})
	if err != nil {
		return session.Record{}, err
	}

	if override != "" {
		rec.State = override
	}

	if err := store.Write(ctx, rec, p.now().Add(p.ttl)); err != nil {
		return session.Record{}, fmt.Errorf("write session: %w", err)
	}

	return rec, nil
}

func (p *Poller) fetch(ctx context.Context) (session.Record, error) {
	values, err := p.source.Fetch(ctx)
	if err != nil {
		return session.Record{}, fmt.Errorf("%w: %w", ErrConfigFetch, err)
	}

	rec := session.FromFields(values)
	if err := session.ValidateOrigin(rec.URL); err != nil {
		return session.Record{}, fmt.Errorf("%w: %w", ErrConfigFetch, err)
	}

	if rec.State == "" {
		rec.State = session.StateActive
	}
	if _, err := session.ParseState(string(rec.State)); err != nil {
		return session.Record{}, fmt.Errorf("%w: %w", ErrConfigFetch, err)
	}

	return rec, nil
}

// Probe checks url once and records the result.
func (p *Poller) Probe(ctx context.Context, url string) error {
	res, err := p.prober.Probe(ctx, url)
	p.emitter.Emit(metrics.MetricEvent{
		Type:       metrics.EventProbe,
		Timestamp:  p.now(),
		URL:        url,
		Duration:   res.Duration,
		StatusCode: res.StatusCode,
		Success:    err == nil,
	})
	return err
}

// Run loops until the session URL probes OK, the configuration cannot be
// obtained or the retry policy gives up. It only returns an error when ctx
// ends or the store fails.
func (p *Poller) Run(ctx context.Context, store session.Store) (Outcome, error) {
	log := p.logger.With(slog.String("run_id", uuid.NewString()))
	log.Info("Waiting for backend", slog.Any("policy", p.policy))

	for attempt := 0; ; attempt++ {
		if p.policy.Exhausted(attempt) {
			p.enter(log, StateGaveUp)
			log.Warn("Backend still unreachable, giving up", slog.Int("attempts", attempt))
			return p.finish(Outcome{
				Destination: DestinationServerDown,
				State:       StateGaveUp,
				Attempts:    attempt,
				Cause:       ErrRetryExhausted,
			}), nil
		}

		rec, err := store.Read(ctx)
		if err != nil && !errors.Is(err, session.ErrNotFound) {
			return Outcome{}, fmt.Errorf("read session: %w", err)
		}

		var refreshErr error
		switch {
		case !rec.HasURL():
			p.enter(log, StateNoURL)
			_, refreshErr = p.RefreshSession(ctx, store, "")

		case rec.State == session.StateExpired:
			p.enter(log, StateExpired)
			_, refreshErr = p.RefreshSession(ctx, store, "")

		default:
			p.enter(log, StateProbing)
			probeErr := p.Probe(ctx, rec.URL)
			if probeErr == nil {
				p.enter(log, StateActive)
				log.Info("Backend reachable", slog.String("url", rec.URL), slog.Int("attempts", attempt+1))
				return p.finish(Outcome{
					Destination: DestinationRoot,
					State:       StateActive,
					Attempts:    attempt + 1,
					Session:     rec,
				}), nil
			}
			if ctx.Err() != nil {
				return Outcome{}, ctx.Err()
			}

			log.Warn("Probe failed", slog.String("url", rec.URL), slog.Any("err", probeErr))
			p.enter(log, StateExpired)
			refreshErr = p.markExpired(ctx, store, rec)
		}

		if refreshErr != nil {
			if ctx.Err() != nil {
				return Outcome{}, ctx.Err()
			}
			if !errors.Is(refreshErr, ErrConfigFetch) {
				return Outcome{}, refreshErr
			}

			p.enter(log, StateUnknown)
			log.Error("Configuration unavailable", slog.Any("err", refreshErr))
			return p.finish(Outcome{
				Destination: DestinationUnknown,
				State:       StateUnknown,
				Attempts:    attempt + 1,
				Cause:       refreshErr,
			}), nil
		}

		if p.policy.Exhausted(attempt + 1) {
			continue
		}

		delay := p.policy.Delay(attempt)
		log.Debug("Retrying", slog.Int("attempt", attempt+1), slog.Duration("delay", delay))
		if err := p.sleep(ctx, delay); err != nil {
			return Outcome{}, err
		}
	}
}

// markExpired refreshes the session with state expired. If the
// configuration is gone the old record is still marked expired before the
// error is returned.
func (p *Poller) markExpired(ctx context.Context, store session.Store, rec session.Record) error {
	_, err := p.RefreshSession(ctx, store, session.StateExpired)
	if err == nil || !errors.Is(err, ErrConfigFetch) {
		return err
	}

	rec.State = session.StateExpired
	if werr := store.Write(ctx, rec, p.now().Add(p.ttl)); werr != nil {
		return fmt.Errorf("write session: %w", werr)
	}
	return err
}

func (p *Poller) enter(log *slog.Logger, state State) {
	log.Debug("State changed", slog.String("state", string(state)))
	p.emitter.Emit(metrics.MetricEvent{
		Type:      metrics.EventTransition,
		Timestamp: p.now(),
		State:     string(state),
	})
}

func (p *Poller) finish(out Outcome) Outcome {
	p.emitter.Emit(metrics.MetricEvent{
		Type:        metrics.EventOutcome,
		Timestamp:   p.now(),
		Destination: string(out.Destination),
		Attempts:    out.Attempts,
	})
	return out
}
