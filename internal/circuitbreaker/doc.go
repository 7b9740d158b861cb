// Package circuitbreaker stops the poller from hammering a session URL that
// keeps failing its probe.
//
// Each probed URL gets a breaker with three states:
//
//   - CLOSED: probes go out
//   - OPEN: the URL failed too often, probes fail fast until the reset timeout
//   - HALF-OPEN: one trial probe is let through to see if the backend is back
//
// Usage:
//
//	registry := circuitbreaker.NewRegistry(5, 30*time.Second)
//	cb := registry.For("https://abc.ngrok-free.app")
//	if cb.Allow() {
//	    // Probe...
//	    if err != nil {
//	        cb.RecordFailure()
//	    } else {
//	        cb.RecordSuccess()
//	    }
//	}
package circuitbreaker
