// Package metrics collects what the availability poller does: configuration
// refreshes, probes per session URL with their latency and status codes,
// state transitions and final outcomes.
//
// Events travel through a buffered channel to a collector goroutine, so the
// poll loop never waits on bookkeeping. Emit drops the event when the buffer
// is full.
//
// Example usage:
//
//	collector := metrics.NewCollector(1000, logger)
//	collector.Start(ctx)
//
//	collector.Emit(metrics.MetricEvent{
//		Type:       metrics.EventProbe,
//		URL:        "https://abc.ngrok-free.app",
//		Duration:   150 * time.Millisecond,
//		StatusCode: 200,
//		Success:    true,
//	})
//
//	snapshot := collector.Snapshot()
//
// Snapshots are safe to take concurrently and the collector drains pending
// events on shutdown.
package metrics
