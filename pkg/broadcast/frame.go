// Package broadcast mirrors session events onto a mangos PUB socket so that
// observers in other processes can follow a run, and provides the matching
// SUB-side Watcher.
//
// A frame is the topic name, a colon, and the snappy-compressed JSON event.
// SUB sockets filter on the topic prefix.
package broadcast

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang/snappy"

	"github.com/dd0wney/cluso-aco/pkg/pubsub"
	"github.com/dd0wney/cluso-aco/pkg/simulation"
)

// ErrBadFrame is returned for frames without a topic prefix or with a body
// that does not decompress or decode.
var ErrBadFrame = errors.New("malformed broadcast frame")

const separator = ':'

func prefix(topic pubsub.Topic) []byte {
	return append([]byte(topic), separator)
}

// EncodeFrame builds a frame for v on topic.
func EncodeFrame(topic pubsub.Topic, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", topic, err)
	}
	return append(prefix(topic), snappy.Encode(nil, body)...), nil
}

// Message is one decoded frame. Exactly one of Iteration and State is set.
type Message struct {
	Topic     pubsub.Topic
	Iteration *simulation.IterationEvent
	State     *simulation.StateEvent
}

// DecodeFrame parses a frame produced by EncodeFrame.
func DecodeFrame(frame []byte) (Message, error) {
	i := bytes.IndexByte(frame, separator)
	if i <= 0 {
		return Message{}, fmt.Errorf("%w: no topic", ErrBadFrame)
	}
	msg := Message{Topic: pubsub.Topic(frame[:i])}

	body, err := snappy.Decode(nil, frame[i+1:])
	if err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}

	switch msg.Topic {
	case pubsub.TopicIteration:
		msg.Iteration = &simulation.IterationEvent{}
		err = json.Unmarshal(body, msg.Iteration)
	case pubsub.TopicState:
		msg.State = &simulation.StateEvent{}
		err = json.Unmarshal(body, msg.State)
	default:
		return Message{}, fmt.Errorf("%w: unknown topic %q", ErrBadFrame, msg.Topic)
	}
	if err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	return msg, nil
}
