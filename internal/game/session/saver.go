package session

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Saver periodically flushes every connected player's state through
// Manager.SaveAll. It implements the server.Service interface and runs
// outside the per-event critical path.
type Saver struct {
	manager  *Manager
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
	stop     chan struct{}
	stopped  chan struct{}
}

// NewSaver creates a Saver flushing every interval. Each flush gets
// its own timeout so a stalled database cannot wedge the loop.
//
// Precondition: manager and logger must be non-nil; interval > 0.
func NewSaver(manager *Manager, interval time.Duration, logger *zap.Logger) *Saver {
	return &Saver{
		manager:  manager,
		interval: interval,
		timeout:  30 * time.Second,
		logger:   logger,
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start runs the flush loop until Stop is called.
func (s *Saver) Start() error {
	defer close(s.stopped)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.flush()
		case <-s.stop:
			return nil
		}
	}
}

// Stop halts the loop and performs one final flush so no progression
// is lost on shutdown.
func (s *Saver) Stop() {
	close(s.stop)
	<-s.stopped
	s.flush()
}

func (s *Saver) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.manager.SaveAll(ctx); err != nil {
		s.logger.Error("periodic save failed", zap.Error(err))
		return
	}
	s.logger.Debug("periodic save complete",
		zap.Int("players", s.manager.Count()),
		zap.Duration("elapsed", time.Since(start)),
	)
}
