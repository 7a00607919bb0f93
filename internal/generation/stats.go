package generation

import (
	"sync"
	"time"
)

// maxRecords bounds the attempt history kept in memory.
const maxRecords = 1000

// Record is one completed generation call: which model finished the call,
// how many attempts it took, whether it succeeded, and the total wall-clock
// duration. Records are bookkeeping for operators, not part of the
// correctness contract.
type Record struct {
	Model    string
	Attempts int
	Success  bool
	Duration time.Duration
	Err      string
	At       time.Time
}

// StatsCollector is a mutex-guarded ring buffer of the most recent
// generation records. Safe for concurrent use.
type StatsCollector struct {
	mu      sync.Mutex
	records []Record
}

// NewStatsCollector returns an empty collector.
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{}
}

// Add appends a record, evicting the oldest entries beyond the buffer cap.
func (c *StatsCollector) Add(r Record) {
	if r.At.IsZero() {
		r.At = time.Now().UTC()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, r)
	if len(c.records) > maxRecords {
		c.records = c.records[len(c.records)-maxRecords:]
	}
}

// ModelStats aggregates outcomes for a single model.
type ModelStats struct {
	Total       int
	Successful  int
	AvgAttempts float64
	AvgDuration time.Duration
}

// Snapshot is a point-in-time aggregation of the collector.
type Snapshot struct {
	Total        int
	Successful   int
	ByModel      map[string]ModelStats
	RecentErrors []Record // most recent failures, newest last, capped at 10
}

// Snapshot aggregates the buffered records.
func (c *StatsCollector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{ByModel: make(map[string]ModelStats)}
	type acc struct {
		attempts int
		duration time.Duration
	}
	accs := make(map[string]acc)

	for _, r := range c.records {
		snap.Total++
		if r.Success {
			snap.Successful++
		}
		ms := snap.ByModel[r.Model]
		ms.Total++
		if r.Success {
			ms.Successful++
		}
		snap.ByModel[r.Model] = ms

		a := accs[r.Model]
		a.attempts += r.Attempts
		a.duration += r.Duration
		accs[r.Model] = a

		if !r.Success {
			snap.RecentErrors = append(snap.RecentErrors, r)
		}
	}
	for model, ms := range snap.ByModel {
		a := accs[model]
		ms.AvgAttempts = float64(a.attempts) / float64(ms.Total)
		ms.AvgDuration = a.duration / time.Duration(ms.Total)
		snap.ByModel[model] = ms
	}
	if n := len(snap.RecentErrors); n > 10 {
		snap.RecentErrors = snap.RecentErrors[n-10:]
	}
	return snap
}

// Len returns the number of buffered records.
func (c *StatsCollector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}
