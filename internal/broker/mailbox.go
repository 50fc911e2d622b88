package broker

import "sync"

type envelope struct {
	topic string
	msg   any
}

// mailbox is an unbounded FIFO drained by one goroutine. Publishers never
// block on a slow subscriber.
//
// pending counts messages put but not yet marked done, including the one
// being handled.
type mailbox struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []envelope
	pending int
	closed  bool
}

func newMailbox() *mailbox {
	m := &mailbox{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

func (m *mailbox) put(e envelope) {
	m.mu.Lock()
	if !m.closed {
		m.queue = append(m.queue, e)
		m.pending++
		m.cond.Broadcast()
	}
	m.mu.Unlock()
}

// close stops accepting messages. Messages already queued are still
// returned by next.
func (m *mailbox) close() {
	m.mu.Lock()
	m.closed = true
	m.cond.Broadcast()
	m.mu.Unlock()
}

// next blocks until a message is available. ok is false once the mailbox is
// closed and empty.
func (m *mailbox) next() (e envelope, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for len(m.queue) == 0 && !m.closed {
		m.cond.Wait()
	}
	if len(m.queue) == 0 {
		return envelope{}, false
	}

	e = m.queue[0]
	m.queue[0] = envelope{}
	m.queue = m.queue[1:]
	return e, true
}

// done marks the message last returned by next as handled.
func (m *mailbox) done() {
	m.mu.Lock()
	m.pending--
	if m.pending == 0 {
		m.cond.Broadcast()
	}
	m.mu.Unlock()
}

// waitIdle blocks until every message put so far has been handled.
func (m *mailbox) waitIdle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for m.pending > 0 {
		m.cond.Wait()
	}
}
