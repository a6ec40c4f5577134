package observability

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Metrics records counters and durations.
type Metrics interface {
	Counter(name string, value int64, tags ...Tag)
	Timing(name string, duration time.Duration, tags ...Tag)
}

// Tag labels a metric series.
type Tag struct {
	Key   string
	Value string
}

// T creates a Tag.
func T(key, value string) Tag {
	return Tag{Key: key, Value: value}
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) Counter(string, int64, ...Tag)        {}
func (NoopMetrics) Timing(string, time.Duration, ...Tag) {}

// Summary condenses the durations of one series, in milliseconds.
type Summary struct {
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

func (s *Summary) observe(v float64) {
	if s.Count == 0 || v < s.Min {
		s.Min = v
	}
	if s.Count == 0 || v > s.Max {
		s.Max = v
	}
	s.Count++
	s.Sum += v
}

// InMemoryMetrics keeps every series in process. It backs GET /metrics.
type InMemoryMetrics struct {
	mu       sync.RWMutex
	counters map[string]int64
	timings  map[string]*Summary
}

// NewInMemoryMetrics creates an empty collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters: map[string]int64{},
		timings:  map[string]*Summary{},
	}
}

func (m *InMemoryMetrics) Counter(name string, value int64, tags ...Tag) {
	key := seriesKey(name, tags)
	m.mu.Lock()
	m.counters[key] += value
	m.mu.Unlock()
}

func (m *InMemoryMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	key := seriesKey(name, tags)
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.timings[key]
	if !ok {
		s = &Summary{}
		m.timings[key] = s
	}
	s.observe(float64(duration) / float64(time.Millisecond))
}

// GetCounter returns the value of one counter series.
func (m *InMemoryMetrics) GetCounter(name string, tags ...Tag) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[seriesKey(name, tags)]
}

// GetTiming returns the summary of one timing series.
func (m *InMemoryMetrics) GetTiming(name string, tags ...Tag) Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.timings[seriesKey(name, tags)]; ok {
		return *s
	}
	return Summary{}
}

// seriesKey renders name{k=v,...} with tags sorted by key, so tag order
// does not split a series.
func seriesKey(name string, tags []Tag) string {
	if len(tags) == 0 {
		return name
	}
	sorted := append([]Tag(nil), tags...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i, t := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t.Key)
		b.WriteByte('=')
		b.WriteString(t.Value)
	}
	b.WriteByte('}')
	return b.String()
}

// MetricsSnapshot is a copy of every series, as served by GET /metrics.
type MetricsSnapshot struct {
	Counters map[string]int64   `json:"counters"`
	Timings  map[string]Summary `json:"timings_ms"`
}

// Snapshot copies the current values.
func (m *InMemoryMetrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MetricsSnapshot{
		Counters: make(map[string]int64, len(m.counters)),
		Timings:  make(map[string]Summary, len(m.timings)),
	}
	for k, v := range m.counters {
		snap.Counters[k] = v
	}
	for k, v := range m.timings {
		snap.Timings[k] = *v
	}
	return snap
}

// Metric names.
const (
	MetricOperationTotal    = "taskboard.operation.total"
	MetricOperationDuration = "taskboard.operation.duration"
	MetricOperationErrors   = "taskboard.operation.errors"

	MetricTasksCreated       = "taskboard.tasks.created"
	MetricTasksStatusChanged = "taskboard.tasks.status_changed"
	MetricTasksDeleted       = "taskboard.tasks.deleted"

	MetricHTTPRequests = "taskboard.http.requests"
	MetricHTTPDuration = "taskboard.http.duration"

	MetricClientRequests = "taskboard.client.requests"

	MetricEventsPublished = "taskboard.events.published"
	MetricEventsConsumed  = "taskboard.events.consumed"
)
