// Package pubsub fans simulation events out to in-process listeners such as
// the SSE stream and the network broadcaster.
package pubsub

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// Topic names an event stream.
type Topic string

const (
	// TopicIteration carries one event per committed iteration.
	TopicIteration Topic = "iteration"
	// TopicState carries session state transitions.
	TopicState Topic = "state"
)

// DefaultBuffer is the per-subscription queue length.
const DefaultBuffer = 100

// ErrShutdown is returned by Subscribe after Shutdown.
var ErrShutdown = errors.New("pubsub is shut down")

// PubSub delivers each published message to every subscriber of its topic.
// Delivery never blocks the publisher: a subscriber whose queue is full
// misses the message.
type PubSub struct {
	subscribers map[Topic]map[*Subscription]bool
	mu          sync.RWMutex
	shutdown    chan struct{}
	shutdownMu  sync.Mutex
	isShutdown  bool
	buffer      int
	dropped     atomic.Int64
}

// Subscription is one listener on one topic.
type Subscription struct {
	topic     Topic
	channel   chan any
	ps        *PubSub
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewPubSub creates a PubSub whose subscriptions queue up to buffer messages.
// buffer <= 0 selects DefaultBuffer.
func NewPubSub(buffer int) *PubSub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &PubSub{
		subscribers: make(map[Topic]map[*Subscription]bool),
		shutdown:    make(chan struct{}),
		buffer:      buffer,
	}
}

// Subscribe registers a listener on topic. The subscription ends when ctx is
// cancelled, Unsubscribe is called, or the PubSub shuts down; its channel is
// closed in every case.
func (ps *PubSub) Subscribe(ctx context.Context, topic Topic) (*Subscription, error) {
	ps.shutdownMu.Lock()
	if ps.isShutdown {
		ps.shutdownMu.Unlock()
		return nil, ErrShutdown
	}
	ps.shutdownMu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		topic:   topic,
		channel: make(chan any, ps.buffer),
		ps:      ps,
		ctx:     subCtx,
		cancel:  cancel,
	}

	ps.mu.Lock()
	if ps.subscribers[topic] == nil {
		ps.subscribers[topic] = make(map[*Subscription]bool)
	}
	ps.subscribers[topic][sub] = true
	ps.mu.Unlock()

	go func() {
		select {
		case <-subCtx.Done():
			sub.Unsubscribe()
		case <-ps.shutdown:
			sub.close()
		}
	}()

	return sub, nil
}

// Publish sends message to every subscriber of topic and returns how many
// received it.
func (ps *PubSub) Publish(topic Topic, message any) int {
	ps.shutdownMu.Lock()
	if ps.isShutdown {
		ps.shutdownMu.Unlock()
		return 0
	}
	ps.shutdownMu.Unlock()

	// Copy subscribers so sends happen outside the lock.
	ps.mu.RLock()
	topicSubs := ps.subscribers[topic]
	if len(topicSubs) == 0 {
		ps.mu.RUnlock()
		return 0
	}
	subs := make([]*Subscription, 0, len(topicSubs))
	for sub := range topicSubs {
		subs = append(subs, sub)
	}
	ps.mu.RUnlock()

	delivered := 0
	for _, sub := range subs {
		if sub.send(message) {
			delivered++
		} else {
			ps.dropped.Add(1)
		}
	}
	return delivered
}

// SubscriberCount returns the number of subscribers on topic.
func (ps *PubSub) SubscriberCount(topic Topic) int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.subscribers[topic])
}

// Dropped returns how many deliveries were skipped because a queue was full.
func (ps *PubSub) Dropped() int64 {
	return ps.dropped.Load()
}

// Shutdown closes every subscription. Later publishes are ignored.
func (ps *PubSub) Shutdown() {
	ps.shutdownMu.Lock()
	if ps.isShutdown {
		ps.shutdownMu.Unlock()
		return
	}
	ps.isShutdown = true
	ps.shutdownMu.Unlock()

	close(ps.shutdown)

	ps.mu.Lock()
	for topic, subs := range ps.subscribers {
		for sub := range subs {
			sub.close()
		}
		delete(ps.subscribers, topic)
	}
	ps.mu.Unlock()
}

// Topic returns the subscribed topic.
func (s *Subscription) Topic() Topic {
	return s.topic
}

// Channel returns the subscription's message channel.
func (s *Subscription) Channel() <-chan any {
	return s.channel
}

// Unsubscribe removes the subscription and closes its channel.
func (s *Subscription) Unsubscribe() {
	s.cancel()

	s.ps.mu.Lock()
	defer s.ps.mu.Unlock()

	if subs := s.ps.subscribers[s.topic]; subs != nil {
		delete(subs, s)
		if len(subs) == 0 {
			delete(s.ps.subscribers, s.topic)
		}
	}
	s.close()
}

// send queues message without blocking. A send racing close is a miss.
func (s *Subscription) send(message any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case s.channel <- message:
		return true
	default:
		return false
	}
}

func (s *Subscription) close() {
	s.closeOnce.Do(func() {
		close(s.channel)
	})
}
