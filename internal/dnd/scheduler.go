package dnd

import (
	"sync"
	"time"
)

// Timer is a cancelable scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler creates the controller's one-shot and repeating timers.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
	Tick(d time.Duration, f func()) Timer
}

// SystemScheduler runs timers on the real clock.
type SystemScheduler struct{}

func (SystemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (SystemScheduler) Tick(d time.Duration, f func()) Timer {
	t := &ticker{ticker: time.NewTicker(d), done: make(chan struct{})}
	go func() {
		for {
			select {
			case <-t.done:
				return
			case <-t.ticker.C:
				f()
			}
		}
	}()
	return t
}

type ticker struct {
	ticker *time.Ticker
	once   sync.Once
	done   chan struct{}
}

func (t *ticker) Stop() bool {
	stopped := false
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
		stopped = true
	})
	return stopped
}
