package generation

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatsCollector_RingBufferBounded(t *testing.T) {
	c := NewStatsCollector()
	for i := 0; i < maxRecords+250; i++ {
		c.Add(Record{Model: "m", Attempts: 1, Success: i%2 == 0, Duration: time.Millisecond})
	}
	assert.Equal(t, maxRecords, c.Len(), "buffer must cap at %d records", maxRecords)
}

func TestStatsCollector_Snapshot(t *testing.T) {
	c := NewStatsCollector()
	c.Add(Record{Model: "a", Attempts: 1, Success: true, Duration: 2 * time.Second})
	c.Add(Record{Model: "a", Attempts: 3, Success: false, Duration: 4 * time.Second, Err: "bad json"})
	c.Add(Record{Model: "b", Attempts: 2, Success: true, Duration: time.Second})

	snap := c.Snapshot()
	assert.Equal(t, 3, snap.Total)
	assert.Equal(t, 2, snap.Successful)

	a := snap.ByModel["a"]
	assert.Equal(t, 2, a.Total)
	assert.Equal(t, 1, a.Successful)
	assert.Equal(t, 2.0, a.AvgAttempts)
	assert.Equal(t, 3*time.Second, a.AvgDuration)

	if assert.Len(t, snap.RecentErrors, 1) {
		assert.Equal(t, "bad json", snap.RecentErrors[0].Err)
	}
}

func TestStatsCollector_RecentErrorsCapped(t *testing.T) {
	c := NewStatsCollector()
	for i := 0; i < 25; i++ {
		c.Add(Record{Model: "m", Attempts: 1, Err: fmt.Sprintf("err-%d", i)})
	}
	snap := c.Snapshot()
	assert.Len(t, snap.RecentErrors, 10)
	assert.Equal(t, "err-24", snap.RecentErrors[9].Err, "newest failure last")
}

func TestStatsCollector_ConcurrentAdd(t *testing.T) {
	c := NewStatsCollector()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Add(Record{Model: "m", Attempts: 1, Success: true})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, c.Len())
}
