package logging

import "sync"

// Metrics is a concurrent counter/gauge store keyed by metric name. Components
// record through the narrow telemetry interfaces; this is the shared backing
// store the app wires in.
type Metrics struct {
	mu     sync.Mutex
	values map[string]uint64
}

func NewMetrics() *Metrics {
	return &Metrics{values: make(map[string]uint64)}
}

func (m *Metrics) TelemetryAdd(key string, delta uint64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] += delta
}

func (m *Metrics) TelemetryStore(key string, value uint64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

func (m *Metrics) Value(key string) uint64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key]
}

// Snapshot copies the current values for reporting endpoints.
func (m *Metrics) Snapshot() map[string]uint64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make(map[string]uint64, len(m.values))
	for k, v := range m.values {
		copied[k] = v
	}
	return copied
}
