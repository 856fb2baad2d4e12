package poller

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// DefaultInterval is the re-poll period while a session is connected.
const DefaultInterval = 30 * time.Second

// Cycle is one poll iteration. Errors are logged and counted; the schedule
// continues.
type Cycle func(ctx context.Context) error

// Scheduler runs a Cycle on a fixed interval.
type Scheduler struct {
	interval time.Duration
	clock    clock.Clock
	logger   *zap.Logger
}

func NewScheduler(interval time.Duration, clk clock.Clock, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{interval: interval, clock: clk, logger: logger}
}

// Interval returns the configured poll period.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Handle cancels a running schedule.
type Handle struct {
	quit chan struct{}
	done chan struct{}
	once sync.Once

	mu       sync.Mutex
	cycles   int
	failures int
}

// Cancel stops the schedule and waits for the loop to exit. No cycle starts
// after Cancel returns. It is safe to call more than once.
func (h *Handle) Cancel() {
	h.once.Do(func() { close(h.quit) })
	<-h.done
}

// Done is closed once the loop has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Stats returns the number of completed and failed cycles.
func (h *Handle) Stats() (cycles, failures int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cycles, h.failures
}

// Start begins polling. The first cycle runs one interval after Start.
func (s *Scheduler) Start(ctx context.Context, cycle Cycle) *Handle {
	h := &Handle{
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	ticker := s.clock.Ticker(s.interval)

	s.logger.Info("starting poller", zap.Duration("interval", s.interval))
	go func() {
		defer close(h.done)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				// quit wins over a tick that raced with it
				select {
				case <-h.quit:
					s.logger.Info("poller stopped")
					return
				default:
				}
				s.run(ctx, h, cycle)
			case <-ctx.Done():
				s.logger.Info("poller stopped due to context cancellation")
				return
			case <-h.quit:
				s.logger.Info("poller stopped")
				return
			}
		}
	}()
	return h
}

func (s *Scheduler) run(ctx context.Context, h *Handle, cycle Cycle) {
	s.logger.Debug("executing poll cycle")
	err := cycle(ctx)

	h.mu.Lock()
	h.cycles++
	if err != nil {
		h.failures++
	}
	h.mu.Unlock()

	if err != nil {
		s.logger.Warn("poll cycle failed", zap.Error(err))
		return
	}
	s.logger.Debug("poll cycle executed successfully")
}
