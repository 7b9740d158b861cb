package metrics

import (
	"context"
	"log/slog"
	"time"
)

type EventType string

const (
	EventRefresh    EventType = "refresh"
	EventProbe      EventType = "probe"
	EventTransition EventType = "transition"
	EventOutcome    EventType = "outcome"
)

type MetricEvent struct {
	Type       EventType
	Timestamp  time.Time
	URL        string
	Duration   time.Duration
	StatusCode int
	Success    bool
	// State is the poller state entered, for EventTransition.
	State string
	// Destination is where the visitor was sent, for EventOutcome.
	Destination string
	Attempts    int
}

// Emitter accepts metric events without blocking.
type Emitter interface {
	Emit(event MetricEvent)
}

type Collector struct {
	eventCh chan MetricEvent
	metrics *Metrics
	logger  *slog.Logger
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	return &Collector{
		eventCh: make(chan MetricEvent, bufferSize),
		metrics: NewMetrics(),
		logger:  logger,
	}
}

// Emit queues the event, dropping it if the buffer is full.
func (c *Collector) Emit(event MetricEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case c.eventCh <- event:
	default:
		c.logger.Debug("Metrics buffer full, dropping event", slog.String("type", string(event.Type)))
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventRefresh:
		c.metrics.RecordRefresh(event.Success, event.Timestamp)
	case EventProbe:
		c.metrics.RecordProbe(event.URL, event.Duration, event.StatusCode, event.Success, event.Timestamp)
	case EventTransition:
		c.metrics.RecordTransition(event.State)
	case EventOutcome:
		c.metrics.RecordOutcome(event.Destination, event.Attempts)
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot() Snapshot {
	return c.metrics.Snapshot()
}

// Discard is an Emitter that drops everything.
type Discard struct{}

func (Discard) Emit(MetricEvent) {}
