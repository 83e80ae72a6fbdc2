package pubsub

import (
	"context"
	"sync"
)

// Published is an event recorded by Mock
type Published struct {
	Topic string
	Event Event
}

// Mock is a pubsub client for tests. It records every published event and never forgets them.
type Mock struct {
	mu        sync.Mutex
	published []Published
}

// NewMock returns a new mock pubsub client
func NewMock() *Mock {
	return &Mock{}
}

// Publish mock
func (m *Mock) Publish(_ context.Context, topic string, payload Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, Published{Topic: topic, Event: payload})
	return nil
}

// Subscribe mock
func (m *Mock) Subscribe(_ context.Context, _ string, _ EventHandler) {}

// Close mock
func (m *Mock) Close() error { return nil }

// Topics returns the topics published so far, in order
func (m *Mock) Topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	topics := make([]string, len(m.published))
	for i, p := range m.published {
		topics[i] = p.Topic
	}
	return topics
}
