package performance

import (
	"sync"
	"time"
)

// Tracker manages performance markers and aggregates simple statistics.
type Tracker struct {
	mu            sync.RWMutex
	stats         map[string]*OperationStats
	slowThreshold time.Duration
	started       time.Time
}

// OperationStats aggregates timing for one operation name.
type OperationStats struct {
	Count      int64         `json:"count"`
	Failures   int64         `json:"failures"`
	SlowCount  int64         `json:"slowCount"`
	TotalTime  time.Duration `json:"totalTime"`
	MaxTime    time.Duration `json:"maxTime"`
	LastSeenAt time.Time     `json:"lastSeenAt"`
}

// NewTracker creates a performance tracker. Operations slower than
// slowThreshold are counted separately.
func NewTracker(slowThreshold time.Duration) *Tracker {
	if slowThreshold <= 0 {
		slowThreshold = 500 * time.Millisecond
	}
	return &Tracker{
		stats:         make(map[string]*OperationStats),
		slowThreshold: slowThreshold,
		started:       time.Now(),
	}
}

// StartOperation creates a marker for an operation. The caller must call
// Complete (usually via defer) so the tracker records it.
func (t *Tracker) StartOperation(operation string) *Marker {
	return &Marker{
		Operation: operation,
		StartTime: time.Now(),
		Success:   true,
	}
}

// Record folds a completed marker into the aggregate stats.
func (t *Tracker) Record(m *Marker) {
	if m == nil {
		return
	}
	if !m.Completed {
		m.Complete()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.stats[m.Operation]
	if !ok {
		s = &OperationStats{}
		t.stats[m.Operation] = s
	}
	s.Count++
	if !m.Success {
		s.Failures++
	}
	if m.Duration > t.slowThreshold {
		s.SlowCount++
	}
	s.TotalTime += m.Duration
	if m.Duration > s.MaxTime {
		s.MaxTime = m.Duration
	}
	s.LastSeenAt = m.EndTime
}

// Snapshot returns a copy of the aggregated stats keyed by operation name.
func (t *Tracker) Snapshot() map[string]OperationStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]OperationStats, len(t.stats))
	for op, s := range t.stats {
		out[op] = *s
	}
	return out
}

// Uptime reports how long this tracker has been alive.
func (t *Tracker) Uptime() time.Duration {
	return time.Since(t.started)
}
