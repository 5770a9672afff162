package stats

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestTracker_Incr(t *testing.T) {
	tr := NewTracker()

	tr.Incr(PacketsRead, 100)
	tr.Incr(PacketsRead, 23)
	tr.Incr(GapsFound, 1)

	if got := tr.Value(PacketsRead); got != 123 {
		t.Errorf("expected 123 packets read, got %d", got)
	}
	if got := tr.Value(GapsFound); got != 1 {
		t.Errorf("expected 1 gap found, got %d", got)
	}
	if got := tr.Value(BatchesDispatched); got != 0 {
		t.Errorf("expected untouched counter to be 0, got %d", got)
	}
}

func TestTracker_ConcurrentIncr(t *testing.T) {
	tr := NewTracker()

	var wg sync.WaitGroup
	numGoroutines := 50
	perGoroutine := 1000

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				tr.Incr(BatchesCompleted, 1)
			}
		}()
	}
	wg.Wait()

	want := uint64(numGoroutines * perGoroutine)
	if got := tr.Value(BatchesCompleted); got != want {
		t.Errorf("expected %d, got %d", want, got)
	}
}

func TestTracker_StartStop(t *testing.T) {
	tr := NewTracker()
	tr.Start(10*time.Millisecond, zap.NewNop())

	tr.Incr(PacketsRead, 5000)
	time.Sleep(30 * time.Millisecond)

	// Stop must return promptly and be safe to call once started.
	done := make(chan struct{})
	go func() {
		tr.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestTracker_StopWithoutStart(t *testing.T) {
	tr := NewTracker()
	tr.Stop() // must not panic
}

func TestCounterType_String(t *testing.T) {
	cases := map[CounterType]string{
		PacketsRead:       "packets_read",
		BatchesDispatched: "batches_dispatched",
		BatchesCompleted:  "batches_completed",
		GapsFound:         "gaps_found",
		CounterType(99):   "unknown",
	}
	for c, want := range cases {
		if got := c.String(); got != want {
			t.Errorf("String(%d) = %q, want %q", c, got, want)
		}
	}
}
