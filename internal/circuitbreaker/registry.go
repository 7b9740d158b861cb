package circuitbreaker

import (
	"sync"
	"time"
)

// Registry hands out one breaker per probed URL. Concurrent hamster
// requests for the same backend share it.
type Registry struct {
	mutex     sync.RWMutex
	breakers  map[string]*Breaker
	threshold int
	timeout   time.Duration
}

func NewRegistry(threshold int, timeout time.Duration) *Registry {
	return &Registry{
		breakers:  make(map[string]*Breaker),
		threshold: threshold,
		timeout:   timeout,
	}
}

// For returns the breaker of url, creating it on first use.
func (r *Registry) For(url string) *Breaker {
	r.mutex.RLock()
	cb, exists := r.breakers[url]
	r.mutex.RUnlock()

	if exists {
		return cb
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Another goroutine may have won the race.
	if cb, exists = r.breakers[url]; exists {
		return cb
	}

	cb = New(r.threshold, r.timeout)
	r.breakers[url] = cb
	return cb
}

func (r *Registry) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.breakers = make(map[string]*Breaker)
}

// Stats returns the state of every known URL.
func (r *Registry) Stats() map[string]State {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stats := make(map[string]State, len(r.breakers))
	for url, cb := range r.breakers {
		stats[url] = cb.State()
	}
	return stats
}
