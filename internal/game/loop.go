package game

import (
	"context"
	"errors"
	"time"
)

// ErrLoopStopped is returned by Do once the loop has exited.
var ErrLoopStopped = errors.New("game loop stopped")

// Loop is the single goroutine that mutates world state. Connection
// goroutines hand it closures through Do; tick callbacks run between them.
type Loop struct {
	tick    time.Duration
	jobs    chan func()
	tickers []func()
	stopped chan struct{}
}

// NewLoop builds a loop that fires tick callbacks every interval.
func NewLoop(interval time.Duration) *Loop {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Loop{
		tick:    interval,
		jobs:    make(chan func()),
		stopped: make(chan struct{}),
	}
}

// OnTick registers a callback. Register before calling Run.
func (l *Loop) OnTick(fn func()) {
	l.tickers = append(l.tickers, fn)
}

// Run processes jobs and ticks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.stopped)
	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job := <-l.jobs:
			job()
		case <-ticker.C:
			for _, fn := range l.tickers {
				fn()
			}
		}
	}
}

// Do runs fn on the loop goroutine and waits for it to finish.
func (l *Loop) Do(fn func()) error {
	done := make(chan struct{})
	job := func() {
		defer close(done)
		fn()
	}
	select {
	case l.jobs <- job:
	case <-l.stopped:
		return ErrLoopStopped
	}
	<-done
	return nil
}
