package broadcast

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pub"

	// Register all transports
	_ "go.nanomsg.org/mangos/v3/transport/all"

	"github.com/dd0wney/cluso-aco/pkg/logging"
	"github.com/dd0wney/cluso-aco/pkg/pubsub"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("broadcaster is closed")

// Recorder receives one call per frame. metrics.Registry implements it.
type Recorder interface {
	RecordBroadcast(size int, err error)
}

// Publisher owns a listening PUB socket.
type Publisher struct {
	sock     mangos.Socket
	addr     string
	logger   logging.Logger
	recorder Recorder

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) PublisherOption {
	return func(p *Publisher) { p.logger = l }
}

// WithRecorder sets the frame telemetry sink.
func WithRecorder(r Recorder) PublisherOption {
	return func(p *Publisher) { p.recorder = r }
}

// Listen opens a PUB socket on addr, e.g. "tcp://*:7600" or "inproc://aco".
func Listen(addr string, opts ...PublisherOption) (*Publisher, error) {
	sock, err := pub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}
	if err := sock.Listen(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to bind PUB socket to %s: %w", addr, err)
	}

	p := &Publisher{sock: sock, addr: addr}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.OrNop(p.logger).With(logging.Component("broadcast"), logging.String("addr", addr))
	p.logger.Info("broadcast publisher bound")
	return p, nil
}

// Addr returns the address the socket listens on.
func (p *Publisher) Addr() string {
	return p.addr
}

// Publish sends v as one frame on topic.
func (p *Publisher) Publish(topic pubsub.Topic, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	frame, err := EncodeFrame(topic, v)
	if err == nil {
		err = p.sock.Send(frame)
	}
	if p.recorder != nil {
		p.recorder.RecordBroadcast(len(frame), err)
	}
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Forward relays every iteration and state event from ps until ctx is
// cancelled or the publisher is closed. It returns immediately; the relay
// runs in the background.
func (p *Publisher) Forward(ctx context.Context, ps *pubsub.PubSub) error {
	for _, topic := range []pubsub.Topic{pubsub.TopicIteration, pubsub.TopicState} {
		sub, err := ps.Subscribe(ctx, topic)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
		p.wg.Add(1)
		go p.relay(sub)
	}
	return nil
}

func (p *Publisher) relay(sub *pubsub.Subscription) {
	defer p.wg.Done()
	for msg := range sub.Channel() {
		err := p.Publish(sub.Topic(), msg)
		if errors.Is(err, ErrClosed) {
			sub.Unsubscribe()
			return
		}
		if err != nil {
			p.logger.Warn("broadcast failed", logging.Error(err))
		}
	}
}

// Ping reports whether the publisher can still send.
func (p *Publisher) Ping() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	return nil
}

// Close closes the socket. Relays started by Forward exit once their
// subscriptions end.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	err := p.sock.Close()
	p.mu.Unlock()

	p.logger.Info("broadcast publisher closed")
	return err
}

// Wait blocks until every relay has exited.
func (p *Publisher) Wait() {
	p.wg.Wait()
}
