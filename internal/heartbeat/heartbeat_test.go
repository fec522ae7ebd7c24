package heartbeat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/openeos/tvdisplay-core/internal/infrastructure/logging"
)

type countingBeater struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingBeater) Heartbeat(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.err
}

func (c *countingBeater) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestStart_BeatsImmediatelyThenOnInterval(t *testing.T) {
	api := &countingBeater{}
	s := New(api, 20*time.Millisecond, logging.Default())

	s.Start()
	defer s.Stop()

	// The first beat fires without waiting for the interval.
	deadline := time.After(time.Second)
	for api.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("no immediate beat")
		case <-time.After(time.Millisecond):
		}
	}

	time.Sleep(70 * time.Millisecond)
	if got := api.count(); got < 3 {
		t.Errorf("beats after ~70ms at 20ms interval = %d, want >= 3", got)
	}
}

func TestStop_HaltsBeats(t *testing.T) {
	api := &countingBeater{}
	s := New(api, 10*time.Millisecond, logging.Default())

	s.Start()
	time.Sleep(25 * time.Millisecond)
	s.Stop()

	if s.Running() {
		t.Error("Running() = true after Stop()")
	}

	settled := api.count()
	time.Sleep(40 * time.Millisecond)
	if got := api.count(); got != settled {
		t.Errorf("beats continued after Stop(): %d -> %d", settled, got)
	}
}

func TestStart_Idempotent(t *testing.T) {
	api := &countingBeater{}
	s := New(api, 10*time.Millisecond, logging.Default())

	s.Start()
	s.Start()
	s.Start()
	defer s.Stop()

	time.Sleep(35 * time.Millisecond)

	// One loop makes roughly 4 beats in 35ms (immediate + 3 ticks);
	// three loops would roughly triple that.
	if got := api.count(); got > 7 {
		t.Errorf("beats = %d, expected a single loop", got)
	}
}

func TestBeat_FailureIsNonFatal(t *testing.T) {
	api := &countingBeater{err: errors.New("backend unreachable")}
	s := New(api, 10*time.Millisecond, logging.Default())

	s.Start()
	defer s.Stop()

	time.Sleep(35 * time.Millisecond)
	if got := api.count(); got < 2 {
		t.Errorf("beats = %d, want loop to continue despite failures", got)
	}
}

type recordingRecorder struct {
	mu      sync.Mutex
	results []bool
}

func (r *recordingRecorder) RecordHeartbeat(_ time.Duration, ok bool) {
	r.mu.Lock()
	r.results = append(r.results, ok)
	r.mu.Unlock()
}

func TestRecorder_SeesOutcomes(t *testing.T) {
	api := &countingBeater{err: errors.New("down")}
	rec := &recordingRecorder{}
	s := New(api, 10*time.Millisecond, logging.Default())
	s.SetRecorder(rec)

	s.Start()
	time.Sleep(15 * time.Millisecond)
	s.Stop()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.results) == 0 {
		t.Fatal("recorder saw no beats")
	}
	if rec.results[0] {
		t.Error("recorder result = true, want false for failed beat")
	}
}
