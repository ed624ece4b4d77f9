package http

import (
	"sync"
	"time"
)

// Metrics tracks aggregate statistics for calls to the inference service.
type Metrics interface {
	RecordRequest(operation string)
	RecordDuration(operation string, duration time.Duration)
	RecordError(operation string, errType ErrorType)
	GetStats() Stats
}

// Stats contains aggregate statistics.
type Stats struct {
	TotalRequests int
	TotalDuration time.Duration
	ErrorCount    int
	ByOperation   map[string]OperationStats
}

// OperationStats contains per-operation statistics.
type OperationStats struct {
	Requests int
	Duration time.Duration
	Errors   int
}

// DefaultMetrics provides in-memory metrics tracking.
type DefaultMetrics struct {
	mu    sync.RWMutex
	stats Stats
}

// NewDefaultMetrics creates a metrics tracker.
func NewDefaultMetrics() *DefaultMetrics {
	return &DefaultMetrics{
		stats: Stats{ByOperation: make(map[string]OperationStats)},
	}
}

// RecordRequest records one outbound request.
func (m *DefaultMetrics) RecordRequest(operation string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.TotalRequests++
	op := m.stats.ByOperation[operation]
	op.Requests++
	m.stats.ByOperation[operation] = op
}

// RecordDuration records request duration.
func (m *DefaultMetrics) RecordDuration(operation string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.TotalDuration += duration
	op := m.stats.ByOperation[operation]
	op.Duration += duration
	m.stats.ByOperation[operation] = op
}

// RecordError records an error.
func (m *DefaultMetrics) RecordError(operation string, errType ErrorType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.ErrorCount++
	op := m.stats.ByOperation[operation]
	op.Errors++
	m.stats.ByOperation[operation] = op
}

// GetStats returns a copy of the current statistics.
func (m *DefaultMetrics) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := m.stats
	out.ByOperation = make(map[string]OperationStats, len(m.stats.ByOperation))
	for k, v := range m.stats.ByOperation {
		out.ByOperation[k] = v
	}
	return out
}

// NopMetrics discards all measurements.
type NopMetrics struct{}

func (NopMetrics) RecordRequest(string)                 {}
func (NopMetrics) RecordDuration(string, time.Duration) {}
func (NopMetrics) RecordError(string, ErrorType)        {}
func (NopMetrics) GetStats() Stats                      { return Stats{} }
