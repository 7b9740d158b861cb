package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/angeloszaimis/hamster/internal/circuitbreaker"
)

const (
	DefaultBypassHeader = "ngrok-skip-browser-warning"
	DefaultBypassValue  = "true"
	DefaultTimeout      = 5 * time.Second
)

var (
	ErrUnreachable = errors.New("probe: backend unreachable")
	ErrStatus      = errors.New("probe: backend answered with a non-OK status")
	ErrCircuitOpen = errors.New("probe: circuit open")
)

// Result describes one probe that reached the network.
type Result struct {
	URL        string
	StatusCode int
	Duration   time.Duration
}

// Prober sends probes. The zero value is not usable; build one with New.
type Prober struct {
	client      *http.Client
	header      string
	headerValue string
	requireOK   bool
	breakers    *circuitbreaker.Registry
	logger      *slog.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithTimeout bounds each probe.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) { p.client.Timeout = d }
}

// WithBypassHeader replaces the header sent to get past the tunnel's
// interstitial page.
func WithBypassHeader(name, value string) Option {
	return func(p *Prober) {
		p.header = name
		p.headerValue = value
	}
}

// WithRequireOK decides whether a non-2xx answer counts as a failure.
func WithRequireOK(require bool) Option {
	return func(p *Prober) { p.requireOK = require }
}

// WithBreakers makes probes fail fast while a URL's breaker is open.
func WithBreakers(registry *circuitbreaker.Registry) Option {
	return func(p *Prober) { p.breakers = registry }
}

// WithTransport swaps the HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(p *Prober) { p.client.Transport = rt }
}

// New returns a prober that requires 2xx answers and times out after
// DefaultTimeout.
func New(logger *slog.Logger, opts ...Option) *Prober {
	p := &Prober{
		client:      &http.Client{Timeout: DefaultTimeout},
		header:      DefaultBypassHeader,
		headerValue: DefaultBypassValue,
		requireOK:   true,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe issues GET url. The returned Result is filled whenever a request
// went out, even if the probe failed on status.
func (p *Prober) Probe(ctx context.Context, url string) (Result, error) {
	res := Result{URL: url}

	var cb *circuitbreaker.Breaker
	if p.breakers != nil {
		cb = p.breakers.For(url)
		if !cb.Allow() {
			p.logger.Debug("Probe skipped, circuit open", slog.String("url", url))
			return res, ErrCircuitOpen
		}
	}

	err := p.do(ctx, &res)

	if cb != nil {
		if err != nil {
			cb.RecordFailure()
		} else {
			cb.RecordSuccess()
		}
	}

	return res, err
}

func (p *Prober) do(ctx context.Context, res *Result) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, res.URL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if p.header != "" {
		req.Header.Set(p.header, p.headerValue)
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	res.StatusCode = resp.StatusCode
	if p.requireOK && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	return nil
}
