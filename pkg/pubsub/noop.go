package pubsub

import "context"

type noop struct{}

// NewNoop returns a client that drops every event and never delivers to subscribers
func NewNoop() Client {
	return noop{}
}

func (noop) Publish(context.Context, string, Event) error { return nil }

func (noop) Subscribe(context.Context, string, EventHandler) {}

func (noop) Close() error { return nil }
