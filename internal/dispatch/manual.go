package dispatch

import "sync"

// Manual queues tasks until the caller runs them. Tests use it to step
// through each suspension point of a navigation deterministically.
type Manual struct {
	mu    sync.Mutex
	queue []func()
}

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Post(task func()) {
	m.mu.Lock()
	m.queue = append(m.queue, task)
	m.mu.Unlock()
}

// RunOne runs the oldest queued task. It reports false if nothing was queued.
func (m *Manual) RunOne() bool {
	m.mu.Lock()
	if len(m.queue) == 0 {
		m.mu.Unlock()
		return false
	}
	task := m.queue[0]
	m.queue = m.queue[1:]
	m.mu.Unlock()

	task()
	return true
}

// RunAll runs tasks until the queue is empty, including tasks posted while
// running, and returns how many ran.
func (m *Manual) RunAll() int {
	n := 0
	for m.RunOne() {
		n++
	}
	return n
}

// Len returns the number of queued tasks.
func (m *Manual) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}
