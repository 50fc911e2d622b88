package broker

import (
	"fmt"
	"sync"
)

// Logger is the logging interface used by the Broker.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Handler receives messages published on a subscribed topic. A returned
// error is logged and does not affect delivery of later messages.
type Handler = func(topic string, msg any) error

type subscriber struct {
	topic   string
	name    string
	handler Handler
	box     *mailbox
}

// Broker is the in-process publish/subscribe hub.
//
// Every subscriber owns a FIFO mailbox drained by its own goroutine, so
// messages published on a topic reach each subscriber in publish order and
// a slow handler delays only itself. There is no ordering across topics.
//
// Thread Safety: All methods are safe for concurrent use.
type Broker struct {
	mu      sync.Mutex
	subs    map[string]map[string]*subscriber // topic -> name -> subscriber
	running bool
	stopped bool
	wg      sync.WaitGroup

	logger Logger
}

// New creates a broker. It accepts subscriptions immediately and
// publications once started.
func New() *Broker {
	return &Broker{
		subs:   make(map[string]map[string]*subscriber),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the broker.
func (b *Broker) SetLogger(logger Logger) {
	b.logger = logger
}

// Start begins accepting publications.
func (b *Broker) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return ErrStopped
	}
	b.running = true
	return nil
}

// Stop rejects further publications, delivers every message already
// accepted and waits for all subscriber goroutines to finish.
// It is safe to call without Start and more than once.
func (b *Broker) Stop() {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.running = false
	b.stopped = true
	for _, byName := range b.subs {
		for _, s := range byName {
			s.box.close()
		}
	}
	b.subs = make(map[string]map[string]*subscriber)
	b.mu.Unlock()

	b.wg.Wait()
}

// Drain rejects further publications and waits until every message already
// accepted has been handled. Subscriptions stay in place, so adapters can
// finish work that depends on each other before they are stopped. Publish
// fails with ErrNotRunning from the moment Drain is called; Start resumes
// publication.
func (b *Broker) Drain() {
	b.mu.Lock()
	b.running = false
	var boxes []*mailbox
	for _, byName := range b.subs {
		for _, s := range byName {
			boxes = append(boxes, s.box)
		}
	}
	b.mu.Unlock()

	for _, box := range boxes {
		box.waitIdle()
	}
}

// Running reports whether the broker accepts publications.
func (b *Broker) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// Publish queues msg for every current subscriber of topic and returns
// without waiting for delivery. Publishing to a topic nobody listens on is
// logged and is not an error.
func (b *Broker) Publish(topic string, msg any) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.running {
		return fmt.Errorf("%w: publish to %s", ErrNotRunning, topic)
	}

	byName := b.subs[topic]
	if len(byName) == 0 {
		b.logger.Warn("no subscribers for topic", "topic", topic)
		return nil
	}
	for _, s := range byName {
		s.box.put(envelope{topic: topic, msg: msg})
	}
	return nil
}

// Subscribe registers handler for topic under the subscriber name.
// A name may hold one subscription per topic.
func (b *Broker) Subscribe(topic, name string, handler Handler) error {
	if topic == "" || name == "" || handler == nil {
		return ErrInvalidSubscription
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return ErrStopped
	}

	byName := b.subs[topic]
	if byName == nil {
		byName = make(map[string]*subscriber)
		b.subs[topic] = byName
	}
	if _, exists := byName[name]; exists {
		return fmt.Errorf("%w: %s on %s", ErrDuplicateSubscription, name, topic)
	}

	s := &subscriber{topic: topic, name: name, handler: handler, box: newMailbox()}
	byName[name] = s

	b.wg.Add(1)
	go b.drain(s)

	b.logger.Debug("subscribed", "topic", topic, "subscriber", name)
	return nil
}

// Unsubscribe removes the named subscription. Messages already queued for
// it are still delivered. Unknown subscriptions are ignored.
func (b *Broker) Unsubscribe(topic, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	byName := b.subs[topic]
	s, ok := byName[name]
	if !ok {
		return
	}
	delete(byName, name)
	if len(byName) == 0 {
		delete(b.subs, topic)
	}
	s.box.close()
}

// SubscriberCount returns the number of subscribers on topic.
func (b *Broker) SubscriberCount(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[topic])
}

func (b *Broker) drain(s *subscriber) {
	defer b.wg.Done()
	for {
		e, ok := s.box.next()
		if !ok {
			return
		}
		b.deliver(s, e)
		s.box.done()
	}
}

// deliver calls the handler with panic recovery.
func (b *Broker) deliver(s *subscriber, e envelope) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("broker handler panic recovered",
				"topic", e.topic,
				"subscriber", s.name,
				"panic", r,
			)
		}
	}()

	if err := s.handler(e.topic, e.msg); err != nil {
		b.logger.Warn("broker handler returned error",
			"topic", e.topic,
			"subscriber", s.name,
			"error", err,
		)
	}
}
