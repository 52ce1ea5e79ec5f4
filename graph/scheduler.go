package graph

import (
	"sort"
	"sync/atomic"
	"time"
)

// Task is a pending deferred call.
type Task interface {
	// Cancel prevents the call from running. It reports whether the task
	// was still pending.
	Cancel() bool
}

// Scheduler runs a function once after a delay.
type Scheduler interface {
	After(d time.Duration, fn func()) Task
}

// TimerScheduler schedules with time.AfterFunc. When post is set, expired
// calls are handed to it so they run on the owner's loop; otherwise they
// run on the timer goroutine.
type TimerScheduler struct {
	post func(func())
}

// NewTimerScheduler creates a wall-clock scheduler.
func NewTimerScheduler(post func(func())) *TimerScheduler {
	return &TimerScheduler{post: post}
}

func (s *TimerScheduler) After(d time.Duration, fn func()) Task {
	t := &timerTask{}
	t.timer = time.AfterFunc(d, func() {
		if s.post == nil {
			t.run(fn)
			return
		}
		s.post(func() { t.run(fn) })
	})
	return t
}

type timerTask struct {
	timer    *time.Timer
	canceled atomic.Bool
}

func (t *timerTask) run(fn func()) {
	if !t.canceled.Load() {
		fn()
	}
}

// Cancel also covers a call that already fired but is still waiting on
// the owner's loop.
func (t *timerTask) Cancel() bool {
	if t.canceled.Swap(true) {
		return false
	}
	return t.timer.Stop()
}

// ManualScheduler is a Scheduler driven by Advance instead of a clock.
type ManualScheduler struct {
	now   time.Duration
	seq   int
	tasks []*manualTask
}

type manualTask struct {
	due      time.Duration
	seq      int
	fn       func()
	canceled bool
	done     bool
}

func (t *manualTask) Cancel() bool {
	if t.done || t.canceled {
		return false
	}
	t.canceled = true
	return true
}

// NewManualScheduler creates a scheduler at time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (m *ManualScheduler) After(d time.Duration, fn func()) Task {
	m.seq++
	t := &manualTask{due: m.now + d, seq: m.seq, fn: fn}
	m.tasks = append(m.tasks, t)
	return t
}

// Advance moves time forward by d and runs every task that became due, in
// due order. Tasks scheduled by those tasks run too if they fall inside
// the window.
func (m *ManualScheduler) Advance(d time.Duration) {
	m.now += d
	for {
		t := m.next()
		if t == nil {
			return
		}
		t.done = true
		t.fn()
	}
}

func (m *ManualScheduler) next() *manualTask {
	live := m.tasks[:0]
	for _, t := range m.tasks {
		if !t.done && !t.canceled {
			live = append(live, t)
		}
	}
	m.tasks = live
	sort.Slice(live, func(i, j int) bool {
		if live[i].due != live[j].due {
			return live[i].due < live[j].due
		}
		return live[i].seq < live[j].seq
	})
	if len(live) == 0 || live[0].due > m.now {
		return nil
	}
	return live[0]
}

// Pending returns the number of tasks that have neither run nor been
// cancelled.
func (m *ManualScheduler) Pending() int {
	n := 0
	for _, t := range m.tasks {
		if !t.done && !t.canceled {
			n++
		}
	}
	return n
}
