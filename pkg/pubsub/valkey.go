package pubsub

import (
	"context"

	"github.com/valkey-io/valkey-go"

	"github.com/scrolluniversity/certificate-node/internal/log"
)

type valkeyClient struct {
	client valkey.Client
}

// NewValKeyClient returns a new pubsub client based on Valkey
func NewValKeyClient(client valkey.Client) Client {
	return &valkeyClient{
		client: client,
	}
}

// Publish publishes a new topic payload
func (vk *valkeyClient) Publish(ctx context.Context, topic string, event Event) error {
	p, err := newPayload(event)
	if err != nil {
		log.Error(ctx, "error marshalling event", "err", err, "topic", topic)
		return err
	}
	raw, err := p.MarshalBinary()
	if err != nil {
		log.Error(ctx, "error marshalling payload", "err", err)
		return err
	}
	return vk.client.Do(ctx, vk.client.B().Publish().Channel(topic).Message(string(raw)).Build()).Error()
}

// Subscribe adds a topic to the subscriber. Receive blocks, so it runs in its own goroutine.
func (vk *valkeyClient) Subscribe(ctx context.Context, topic string, callback EventHandler) {
	go func() {
		err := vk.client.Receive(ctx, vk.client.B().Subscribe().Channel(topic).Build(), func(msg valkey.PubSubMessage) {
			var p payload
			if err := p.unmarshal([]byte(msg.Message)); err != nil {
				log.Error(ctx, "error unmarshalling payload", "err", err)
				return
			}
			if err := safeCall(ctx, callback, p.Msg); err != nil {
				log.Error(ctx, "error processing message", "err", err)
			}
		})
		if err != nil && ctx.Err() == nil {
			log.Error(ctx, "error subscribing to topic", "err", err, "topic", topic)
		}
	}()
}

// Close closes the pubsub client
func (vk *valkeyClient) Close() error {
	vk.client.Close()
	return nil
}
