package heartbeat

import (
	"context"
	"sync"
	"time"

	"github.com/openeos/tvdisplay-core/internal/infrastructure/logging"
)

// Beater sends a single heartbeat to the backend.
type Beater interface {
	Heartbeat(ctx context.Context) error
}

// Recorder receives the outcome of each beat, e.g. for telemetry.
// Optional.
type Recorder interface {
	RecordHeartbeat(latency time.Duration, ok bool)
}

// Scheduler sends periodic heartbeats while the device is verified.
//
// Start fires one beat immediately, then one per interval. Failures
// are logged and skipped; the backend treats a quiet device as offline
// after a few missed beats, so there is nothing to recover locally.
type Scheduler struct {
	api      Beater
	interval time.Duration
	logger   *logging.Logger

	recorder Recorder

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates a heartbeat scheduler.
func New(api Beater, interval time.Duration, logger *logging.Logger) *Scheduler {
	return &Scheduler{
		api:      api,
		interval: interval,
		logger:   logger,
	}
}

// SetRecorder installs an outcome recorder. Must be called before Start.
func (s *Scheduler) SetRecorder(r Recorder) {
	s.recorder = r
}

// Start launches the beat loop. Calling Start while running is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	go s.run(ctx)
}

// Stop halts the beat loop. Safe to call when not running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Running reports whether the beat loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Scheduler) run(ctx context.Context) {
	s.beat(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.beat(ctx)
		}
	}
}

func (s *Scheduler) beat(ctx context.Context) {
	start := time.Now()
	err := s.api.Heartbeat(ctx)
	latency := time.Since(start)

	if s.recorder != nil {
		s.recorder.RecordHeartbeat(latency, err == nil)
	}

	if err != nil {
		s.logger.Warn("heartbeat failed", "error", err, "latency", latency)
		return
	}
	s.logger.Debug("heartbeat sent", "latency", latency)
}
