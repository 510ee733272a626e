// Package clock даёт миллисекундное время сессии и отменяемые таймеры.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Timer — отменяемая отложенная задача.
type Timer interface {
	// Stop отменяет задачу. Возвращает false, если задача уже сработала или отменена.
	Stop() bool
}

// Clock — источник времени в миллисекундах от начала сессии и планировщик таймеров.
type Clock interface {
	Now() float64
	AfterFunc(d time.Duration, f func()) Timer
}

// System — монотонные часы процесса, отсчёт от момента создания.
type System struct{ epoch time.Time }

func NewSystem() *System { return &System{epoch: time.Now()} }

func (s *System) Now() float64 {
	return float64(time.Since(s.epoch)) / float64(time.Millisecond)
}

func (s *System) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Manual — часы с ручной перемоткой. Таймеры срабатывают синхронно внутри Advance
// в порядке своих дедлайнов.
type Manual struct {
	mu     sync.Mutex
	now    float64
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	c        *Manual
	deadline float64
	seq      int
	f        func()
	done     bool
}

func NewManual(start float64) *Manual { return &Manual{now: start} }

func (m *Manual) Now() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{c: m, deadline: m.now + ms(d), seq: m.seq, f: f}
	m.timers = append(m.timers, t)
	return t
}

// Advance перематывает время на d, запуская все таймеры с дедлайном <= нового времени.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + ms(d)
	m.mu.Unlock()
	for {
		m.mu.Lock()
		next := m.nextDueLocked(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		next.done = true
		m.now = next.deadline
		m.mu.Unlock()
		next.f()
	}
}

// Pending возвращает число активных таймеров.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.timers {
		if !t.done {
			n++
		}
	}
	return n
}

func (m *Manual) nextDueLocked(target float64) *manualTimer {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.done {
			live = append(live, t)
		}
	}
	m.timers = live
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].deadline == m.timers[j].deadline {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].deadline < m.timers[j].deadline
	})
	if len(m.timers) == 0 || m.timers[0].deadline > target {
		return nil
	}
	return m.timers[0]
}

func (t *manualTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
