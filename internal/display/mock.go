package display

import (
	"errors"
	"sync"

	"gocv.io/x/gocv"
)

// MockDisplay records shown frames and replays scripted keypresses for testing.
type MockDisplay struct {
	keys    []int
	shown   int
	polls   int
	closes  int
	closed  bool
	closeAt int
	showErr error
	mu      sync.Mutex
}

// NewMockDisplay creates a MockDisplay that returns keys in order from
// PollKey, then NoKey once they run out.
func NewMockDisplay(keys ...int) *MockDisplay {
	return &MockDisplay{keys: keys, closeAt: -1}
}

// CloseAfter makes IsOpen report false once n frames have been shown,
// simulating the user closing the window.
func (m *MockDisplay) CloseAfter(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeAt = n
}

// SetShowError makes Show fail with err.
func (m *MockDisplay) SetShowError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.showErr = err
}

func (m *MockDisplay) Show(frame *gocv.Mat) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.showErr != nil {
		return m.showErr
	}
	if frame == nil {
		return errors.New("nil frame")
	}
	m.shown++
	return nil
}

func (m *MockDisplay) PollKey(delayMs int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.polls++
	if len(m.keys) == 0 {
		return NoKey
	}
	key := m.keys[0]
	m.keys = m.keys[1:]
	return key
}

func (m *MockDisplay) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}
	return m.closeAt < 0 || m.shown < m.closeAt
}

func (m *MockDisplay) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closes++
	m.closed = true
	return nil
}

// Shown returns the number of frames displayed.
func (m *MockDisplay) Shown() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shown
}

// Polls returns the number of PollKey calls.
func (m *MockDisplay) Polls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.polls
}

// Closes returns the number of Close calls.
func (m *MockDisplay) Closes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}
