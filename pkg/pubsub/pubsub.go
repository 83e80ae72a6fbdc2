package pubsub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event defines the payload
type Event interface {
	Marshal() (msg Message, err error)
	Unmarshal(msg Message) error
}

// Message is the payload received in a pubsub subscriber. The input for callback functions
type Message []byte

// Publisher sends topics to the pubsub
type Publisher interface {
	Publish(ctx context.Context, topic string, payload Event) error
}

// EventHandler is the type that functions that handle an Event must comply.
type EventHandler func(context.Context, Message) error

// Subscriber subscribes to the pubsub topics
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, callback EventHandler)
}

// Client is formed by the publisher and subscriber
type Client interface {
	Publisher
	Subscriber
	Close() error
}

// payload is the envelope every backend puts on the wire
type payload struct {
	ID   uuid.UUID `json:"id"`
	Time time.Time `json:"time"`
	Msg  []byte    `json:"msg"`
}

func newPayload(ev Event) (*payload, error) {
	msg, err := ev.Marshal()
	if err != nil {
		return nil, err
	}
	return &payload{ID: uuid.New(), Time: time.Now(), Msg: msg}, nil
}

// MarshalBinary implements encoding.BinaryMarshaler so redis clients accept it as an argument
func (p *payload) MarshalBinary() ([]byte, error) {
	return json.Marshal(p)
}

func (p *payload) unmarshal(data []byte) error {
	return json.Unmarshal(data, p)
}
