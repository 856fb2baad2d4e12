package metrics

import (
	"context"
	"time"
)

// pollerFunction alias is private and should be used only here
type pollerFunction = func(ctx context.Context) error

// RecordPollerDuration wraps a poll cycle with duration recording.
func (m *Metrics) RecordPollerDuration(f pollerFunction) pollerFunction {
	return func(ctx context.Context) error {
		startTime := time.Now()
		err := f(ctx)
		m.RecordPollCycle(time.Since(startTime), err)
		return err
	}
}
