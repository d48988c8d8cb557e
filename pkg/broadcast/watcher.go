package broadcast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/sub"

	"github.com/dd0wney/cluso-aco/pkg/logging"
	"github.com/dd0wney/cluso-aco/pkg/pubsub"
)

// pollInterval bounds how long Next blocks in Recv before rechecking ctx.
const pollInterval = 250 * time.Millisecond

// Watcher is a SUB socket dialled to a Publisher.
type Watcher struct {
	sock   mangos.Socket
	logger logging.Logger
}

// Dial connects to a publisher at addr and subscribes to topics, or to every
// topic when none are given. The connection is retried in the background
// until the publisher appears.
func Dial(addr string, logger logging.Logger, topics ...pubsub.Topic) (*Watcher, error) {
	sock, err := sub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create SUB socket: %w", err)
	}

	if len(topics) == 0 {
		topics = []pubsub.Topic{pubsub.TopicIteration, pubsub.TopicState}
	}
	for _, topic := range topics {
		if err := sock.SetOption(mangos.OptionSubscribe, prefix(topic)); err != nil {
			sock.Close()
			return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
	}
	if err := sock.SetOption(mangos.OptionRecvDeadline, pollInterval); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to set receive deadline: %w", err)
	}
	if err := sock.DialOptions(addr, map[string]any{mangos.OptionDialAsynch: true}); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	return &Watcher{
		sock:   sock,
		logger: logging.OrNop(logger).With(logging.Component("watcher"), logging.String("addr", addr)),
	}, nil
}

// Next blocks until a frame arrives or ctx is done. Malformed frames are
// logged and skipped.
func (w *Watcher) Next(ctx context.Context) (Message, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Message{}, err
		}

		frame, err := w.sock.Recv()
		switch {
		case errors.Is(err, mangos.ErrRecvTimeout):
			continue
		case errors.Is(err, mangos.ErrClosed):
			return Message{}, ErrClosed
		case err != nil:
			return Message{}, fmt.Errorf("receive: %w", err)
		}

		msg, err := DecodeFrame(frame)
		if err != nil {
			w.logger.Warn("dropping frame", logging.Error(err), logging.Int("bytes", len(frame)))
			continue
		}
		return msg, nil
	}
}

// Watch calls fn for every message until ctx is done or the watcher closes.
func (w *Watcher) Watch(ctx context.Context, fn func(Message)) error {
	for {
		msg, err := w.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrClosed) {
				return nil
			}
			return err
		}
		fn(msg)
	}
}

// Close closes the socket.
func (w *Watcher) Close() error {
	return w.sock.Close()
}
