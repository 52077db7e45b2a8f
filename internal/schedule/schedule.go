// Package schedule runs mission continuations on a single cooperative loop.
//
// All mission work is modelled as a delay followed by a continuation. Every
// continuation runs on the same goroutine, so mission state needs no locking;
// ordering is what matters. A cancelled token never runs, even when its timer
// has already fired and the continuation is waiting in the queue.
package schedule

import (
	"context"
	"sync"
	"time"
)

// Token identifies a scheduled continuation.
type Token uint64

// Scheduler defers continuations and cancels them by token.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) Token
	Cancel(t Token)
	Now() time.Time
}

// Executor runs fn on the loop goroutine and waits for it to finish.
type Executor interface {
	Do(fn func())
}

// Loop is the real-time scheduler backed by one goroutine.
type Loop struct {
	mu     sync.Mutex
	next   Token
	timers map[Token]*time.Timer
	queue  chan func()
	done   chan struct{}
	once   sync.Once
}

// NewLoop creates a loop; call Run to start processing.
func NewLoop() *Loop {
	return &Loop{
		timers: make(map[Token]*time.Timer),
		queue:  make(chan func(), 64),
		done:   make(chan struct{}),
	}
}

// Run drains the queue until ctx is done. Pending timers are stopped on exit.
func (l *Loop) Run(ctx context.Context) {
	defer l.stop()
	for {
		select {
		case fn := <-l.queue:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

func (l *Loop) stop() {
	l.once.Do(func() {
		close(l.done)
		l.mu.Lock()
		for tok, t := range l.timers {
			t.Stop()
			delete(l.timers, tok)
		}
		l.mu.Unlock()
	})
}

func (l *Loop) post(fn func()) bool {
	select {
	case l.queue <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Schedule runs fn on the loop after d.
func (l *Loop) Schedule(d time.Duration, fn func()) Token {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next++
	tok := l.next
	l.timers[tok] = time.AfterFunc(d, func() {
		l.post(func() {
			if l.take(tok) {
				fn()
			}
		})
	})
	return tok
}

// take claims tok for execution; false means it was cancelled.
func (l *Loop) take(tok Token) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.timers[tok]; !ok {
		return false
	}
	delete(l.timers, tok)
	return true
}

// Cancel stops tok. Safe to call for tokens that already ran.
func (l *Loop) Cancel(tok Token) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t, ok := l.timers[tok]; ok {
		t.Stop()
		delete(l.timers, tok)
	}
}

// Now returns wall-clock time.
func (l *Loop) Now() time.Time { return time.Now() }

// Do runs fn on the loop and waits. It must not be called from the loop itself.
func (l *Loop) Do(fn func()) {
	wait := make(chan struct{})
	if !l.post(func() {
		defer close(wait)
		fn()
	}) {
		return
	}
	select {
	case <-wait:
	case <-l.done:
	}
}

// Pending returns the number of scheduled, not yet executed continuations.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.timers)
}
