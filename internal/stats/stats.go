// Package stats tracks scan progress counters and reports them
// periodically while a run is in flight.
package stats

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

type CounterType int

const (
	PacketsRead CounterType = iota
	BatchesDispatched
	BatchesCompleted
	GapsFound

	numCounters
)

func (c CounterType) String() string {
	switch c {
	case PacketsRead:
		return "packets_read"
	case BatchesDispatched:
		return "batches_dispatched"
	case BatchesCompleted:
		return "batches_completed"
	case GapsFound:
		return "gaps_found"
	default:
		return "unknown"
	}
}

type counter struct {
	value atomic.Uint64

	lastReportMut   sync.Mutex
	lastReportValue uint64
	lastReportTime  time.Time
}

// Tracker holds the run's counters. Incr is safe from any goroutine; the
// hot per-batch scan only touches it once per batch.
type Tracker struct {
	counters [numCounters]counter

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewTracker() *Tracker {
	return &Tracker{}
}

func (t *Tracker) Incr(c CounterType, delta uint64) {
	t.counters[c].value.Add(delta)
}

func (t *Tracker) Value(c CounterType) uint64 {
	return t.counters[c].value.Load()
}

// Start launches the periodic progress reporter. Stop must be called to
// shut it down before the final report is rendered.
func (t *Tracker) Start(interval time.Duration, log *zap.Logger) {
	t.stop = make(chan struct{})
	ticker := time.NewTicker(interval)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-t.stop:
				return
			case now := <-ticker.C:
				t.report(now, log)
			}
		}
	}()
}

func (t *Tracker) Stop() {
	if t.stop == nil {
		return
	}
	close(t.stop)
	t.wg.Wait()
}

func (t *Tracker) report(now time.Time, log *zap.Logger) {
	fields := make([]zap.Field, 0, numCounters+1)

	for i := CounterType(0); i < numCounters; i++ {
		c := &t.counters[i]

		c.lastReportMut.Lock()
		curr := c.value.Load()
		if c.lastReportTime.IsZero() {
			// handle initialization
			c.lastReportTime = now
			c.lastReportValue = curr
			c.lastReportMut.Unlock()
			continue
		}

		delta := curr - c.lastReportValue
		dur := now.Sub(c.lastReportTime)
		c.lastReportTime = now
		c.lastReportValue = curr
		c.lastReportMut.Unlock()

		fields = append(fields, zap.Uint64(i.String(), curr))
		if i == PacketsRead && dur > 0 {
			fields = append(fields,
				zap.Float64("packets_per_sec", float64(delta)/dur.Seconds()))
		}
	}

	if len(fields) > 0 {
		log.Info("scan progress", fields...)
	}
}
