// Package hovertest provides a manually advanced scheduler for testing
// debounce behaviour without sleeping.
package hovertest

import (
	"sort"
	"sync"
	"time"

	"github.com/valpere/bitext/internal/hover"
)

// Scheduler is a fake clock. Callbacks run synchronously inside Advance.
type Scheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*timer
}

type timer struct {
	s       *Scheduler
	at      time.Duration
	seq     int
	f       func()
	stopped bool
}

func (t *timer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func New() *Scheduler {
	return &Scheduler{}
}

var _ hover.Scheduler = (*Scheduler)(nil)

func (s *Scheduler) AfterFunc(d time.Duration, f func()) hover.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &timer{s: s, at: s.now + d, seq: s.seq, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves the clock forward by d and runs every timer that became
// due, in deadline order.
func (s *Scheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		sort.Slice(s.timers, func(i, j int) bool {
			if s.timers[i].at == s.timers[j].at {
				return s.timers[i].seq < s.timers[j].seq
			}
			return s.timers[i].at < s.timers[j].at
		})
		var due *timer
		for i, t := range s.timers {
			if t.stopped {
				continue
			}
			if t.at <= target {
				due = t
				s.timers = append(s.timers[:i:i], s.timers[i+1:]...)
			}
			break
		}
		if due == nil {
			s.now = target
			s.compactLocked()
			s.mu.Unlock()
			return
		}
		due.stopped = true
		s.now = due.at
		s.mu.Unlock()
		due.f()
	}
}

// Pending returns the number of live timers.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

func (s *Scheduler) compactLocked() {
	live := s.timers[:0]
	for _, t := range s.timers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	s.timers = live
}
