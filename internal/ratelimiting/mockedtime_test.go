package ratelimiting_test

import (
	"sync"
	"testing"
	"time"
)

type mockedTime struct {
	t           *testing.T
	currentTime time.Time
	timers      []mockedTimer
	lock        sync.Mutex
}

type mockedTimer struct {
	expiresAt time.Time
	ch        chan<- time.Time
}

func newMockedTime(t *testing.T, start time.Time) *mockedTime {
	return &mockedTime{
		t:           t,
		currentTime: start,
		timers:      []mockedTimer{},
	}
}

func (m *mockedTime) Now() time.Time {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.currentTime
}

func (m *mockedTime) After(d time.Duration) <-chan time.Time {
	m.lock.Lock()
	defer m.lock.Unlock()

	ch := make(chan time.Time, 1)
	m.timers = append(m.timers, mockedTimer{
		ch:        ch,
		expiresAt: m.currentTime.Add(d),
	})

	return ch
}

func (m *mockedTime) pendingTimers() int {
	m.lock.Lock()
	defer m.lock.Unlock()

	return len(m.timers)
}

func (m *mockedTime) advance(d time.Duration) {
	m.t.Helper()

	m.lock.Lock()
	defer m.lock.Unlock()

	m.currentTime = m.currentTime.Add(d)

	var remainingTimers []mockedTimer
	for _, timer := range m.timers {
		if !m.currentTime.Before(timer.expiresAt) {
			timer.ch <- m.currentTime
			close(timer.ch)
		} else {
			remainingTimers = append(remainingTimers, timer)
		}
	}
	m.timers = remainingTimers
}

// mockedContext has a deadline in mocked time but is never done
type mockedContext struct {
	deadline time.Time
	done     chan struct{}
}

func newMockedContext(deadline time.Time) *mockedContext {
	return &mockedContext{
		deadline: deadline,
		done:     make(chan struct{}),
	}
}

func (m *mockedContext) Deadline() (time.Time, bool) {
	return m.deadline, !m.deadline.IsZero()
}

func (m *mockedContext) Done() <-chan struct{} {
	return m.done
}

func (m *mockedContext) Err() error {
	return nil
}

func (m *mockedContext) Value(key any) any {
	return nil
}
