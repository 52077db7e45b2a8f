package schedule

import "time"

type entry struct {
	tok Token
	due time.Time
	fn  func()
}

// Manual is a virtual-clock scheduler. Time only moves on Advance, which makes
// every interleaving reproducible in tests.
type Manual struct {
	now     time.Time
	next    Token
	pending []entry
}

// NewManual returns a scheduler whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Schedule queues fn to run once the clock reaches now+d.
func (m *Manual) Schedule(d time.Duration, fn func()) Token {
	m.next++
	m.pending = append(m.pending, entry{tok: m.next, due: m.now.Add(d), fn: fn})
	return m.next
}

// Cancel removes tok if it has not run yet.
func (m *Manual) Cancel(tok Token) {
	for i, e := range m.pending {
		if e.tok == tok {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return
		}
	}
}

// Now returns the virtual time.
func (m *Manual) Now() time.Time { return m.now }

// Do runs fn inline.
func (m *Manual) Do(fn func()) { fn() }

// Pending returns the number of queued continuations.
func (m *Manual) Pending() int { return len(m.pending) }

// Advance moves the clock forward by d, running every continuation that falls
// due in (due, scheduling) order, including ones scheduled along the way.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)
	for {
		idx := m.earliest()
		if idx < 0 || m.pending[idx].due.After(target) {
			break
		}
		e := m.pending[idx]
		m.pending = append(m.pending[:idx], m.pending[idx+1:]...)
		m.now = e.due
		e.fn()
	}
	m.now = target
}

// RunUntilIdle fires continuations until none remain, up to limit steps.
// It returns the number of continuations run.
func (m *Manual) RunUntilIdle(limit int) int {
	ran := 0
	for ran < limit {
		idx := m.earliest()
		if idx < 0 {
			break
		}
		e := m.pending[idx]
		m.pending = append(m.pending[:idx], m.pending[idx+1:]...)
		if e.due.After(m.now) {
			m.now = e.due
		}
		e.fn()
		ran++
	}
	return ran
}

func (m *Manual) earliest() int {
	if len(m.pending) == 0 {
		return -1
	}
	idx := 0
	for i := 1; i < len(m.pending); i++ {
		e, best := m.pending[i], m.pending[idx]
		if e.due.Before(best.due) || (e.due.Equal(best.due) && e.tok < best.tok) {
			idx = i
		}
	}
	return idx
}
