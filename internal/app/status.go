package app

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"yieldLock/internal/model"
)

// DefaultStatusTTL is how long a status message stays visible.
const DefaultStatusTTL = 5 * time.Second

// statusBoard holds the single transient status message and the busy
// counter.
type statusBoard struct {
	clock clock.Clock
	ttl   time.Duration

	mu      sync.Mutex
	current *model.StatusMessage
	timer   *clock.Timer
	busy    int
}

func newStatusBoard(clk clock.Clock, ttl time.Duration) *statusBoard {
	if ttl <= 0 {
		ttl = DefaultStatusTTL
	}
	return &statusBoard{clock: clk, ttl: ttl}
}

// post replaces the message and calls expired once it times out.
func (b *statusBoard) post(text string, severity model.Severity, expired func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	msg := &model.StatusMessage{
		Text:      text,
		Severity:  severity,
		ExpiresAt: b.clock.Now().Add(b.ttl),
	}
	b.current = msg
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = b.clock.AfterFunc(b.ttl, func() {
		b.mu.Lock()
		if b.current != msg {
			b.mu.Unlock()
			return
		}
		b.current = nil
		b.mu.Unlock()
		if expired != nil {
			expired()
		}
	})
}

// message returns the live message, if any.
func (b *statusBoard) message() *model.StatusMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil || !b.clock.Now().Before(b.current.ExpiresAt) {
		return nil
	}
	out := *b.current
	return &out
}

func (b *statusBoard) setBusy(busy bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if busy {
		b.busy++
		return
	}
	if b.busy > 0 {
		b.busy--
	}
}

func (b *statusBoard) isBusy() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.busy > 0
}

func (b *statusBoard) stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}
