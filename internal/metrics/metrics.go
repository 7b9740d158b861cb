package metrics

import (
	"sort"
	"sync"
	"time"
)

const maxSamples = 1000

type Metrics struct {
	mutex           sync.RWMutex
	refreshes       int64
	refreshFailures int64
	lastRefresh     time.Time
	probes          map[string]*probeStats
	transitions     map[string]int64
	outcomes        map[string]int64
	attempts        []int
	startTime       time.Time
}

type probeStats struct {
	probes      int64
	failures    int64
	healthy     bool
	lastProbe   time.Time
	durations   []time.Duration
	statusCodes map[int]int64
}

type Snapshot struct {
	Uptime          time.Duration         `json:"uptime"`
	Refreshes       int64                 `json:"refreshes"`
	RefreshFailures int64                 `json:"refresh_failures"`
	LastRefresh     time.Time             `json:"last_refresh"`
	TotalProbes     int64                 `json:"total_probes"`
	Backends        map[string]URLMetrics `json:"backends"`
	Transitions     map[string]int64      `json:"transitions"`
	Outcomes        map[string]int64      `json:"outcomes"`
	AvgAttempts     float64               `json:"avg_attempts"`
}

type URLMetrics struct {
	Probes      int64         `json:"probes"`
	Failures    int64         `json:"failures"`
	Healthy     bool          `json:"healthy"`
	LastProbe   time.Time     `json:"last_probe"`
	AvgResponse time.Duration `json:"avg_response"`
	P50Response time.Duration `json:"p50_response"`
	P95Response time.Duration `json:"p95_response"`
	P99Response time.Duration `json:"p99_response"`
	StatusCodes map[int]int64 `json:"status_codes"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		probes:      make(map[string]*probeStats),
		transitions: make(map[string]int64),
		outcomes:    make(map[string]int64),
		startTime:   time.Now(),
	}
}

func (m *Metrics) RecordRefresh(success bool, at time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.refreshes++
	if !success {
		m.refreshFailures++
		return
	}
	m.lastRefresh = at
}

func (m *Metrics) RecordProbe(url string, duration time.Duration, statusCode int, success bool, at time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	ps, ok := m.probes[url]
	if !ok {
		ps = &probeStats{statusCodes: make(map[int]int64)}
		m.probes[url] = ps
	}

	ps.probes++
	ps.healthy = success
	ps.lastProbe = at
	if !success {
		ps.failures++
	}
	if statusCode != 0 {
		ps.statusCodes[statusCode]++
	}
	if duration > 0 {
		ps.durations = append(ps.durations, duration)
		if len(ps.durations) > maxSamples {
			ps.durations = ps.durations[1:]
		}
	}
}

func (m *Metrics) RecordTransition(state string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.transitions[state]++
}

func (m *Metrics) RecordOutcome(destination string, attempts int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.outcomes[destination]++
	m.attempts = append(m.attempts, attempts)
	if len(m.attempts) > maxSamples {
		m.attempts = m.attempts[1:]
	}
}

func (m *Metrics) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Uptime:          time.Since(m.startTime),
		Refreshes:       m.refreshes,
		RefreshFailures: m.refreshFailures,
		LastRefresh:     m.lastRefresh,
		Backends:        make(map[string]URLMetrics, len(m.probes)),
		Transitions:     make(map[string]int64, len(m.transitions)),
		Outcomes:        make(map[string]int64, len(m.outcomes)),
	}

	for url, ps := range m.probes {
		snap.TotalProbes += ps.probes

		um := URLMetrics{
			Probes:      ps.probes,
			Failures:    ps.failures,
			Healthy:     ps.healthy,
			LastProbe:   ps.lastProbe,
			StatusCodes: make(map[int]int64, len(ps.statusCodes)),
		}
		for code, n := range ps.statusCodes {
			um.StatusCodes[code] = n
		}

		if len(ps.durations) > 0 {
			sorted := make([]time.Duration, len(ps.durations))
			copy(sorted, ps.durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			um.AvgResponse = average(sorted)
			um.P50Response = percentile(sorted, 0.50)
			um.P95Response = percentile(sorted, 0.95)
			um.P99Response = percentile(sorted, 0.99)
		}

		snap.Backends[url] = um
	}

	for state, n := range m.transitions {
		snap.Transitions[state] = n
	}
	for dest, n := range m.outcomes {
		snap.Outcomes[dest] = n
	}

	if len(m.attempts) > 0 {
		total := 0
		for _, a := range m.attempts {
			total += a
		}
		snap.AvgAttempts = float64(total) / float64(len(m.attempts))
	}

	return snap
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
