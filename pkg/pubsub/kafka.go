package pubsub

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"

	"github.com/scrolluniversity/certificate-node/internal/log"
)

// KafkaConfig holds the broker connection settings
type KafkaConfig struct {
	Brokers  []string
	User     string
	Password string
	GroupID  string
}

type kafkaClient struct {
	cfg    KafkaConfig
	writer *kafka.Writer
	dialer *kafka.Dialer
}

// NewKafka returns a pubsub client where topics are kafka topics. Topics are created on first write.
func NewKafka(cfg KafkaConfig) Client {
	transport := &kafka.Transport{}
	dialer := &kafka.Dialer{Timeout: 10 * time.Second, DualStack: true}
	if cfg.User != "" {
		mechanism := plain.Mechanism{Username: cfg.User, Password: cfg.Password}
		transport.SASL = mechanism
		dialer.SASLMechanism = mechanism
	}
	return &kafkaClient{
		cfg: cfg,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			Transport:              transport,
		},
		dialer: dialer,
	}
}

// Publish writes the event to the topic, keyed by the envelope id
func (k *kafkaClient) Publish(ctx context.Context, topic string, event Event) error {
	p, err := newPayload(event)
	if err != nil {
		log.Error(ctx, "error marshalling event", "err", err, "topic", topic)
		return err
	}
	raw, err := p.MarshalBinary()
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(p.ID.String()),
		Value: raw,
		Time:  p.Time,
	})
}

// Subscribe consumes the topic in a goroutine with the configured consumer group
func (k *kafkaClient) Subscribe(ctx context.Context, topic string, callback EventHandler) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: k.cfg.Brokers,
		GroupID: k.cfg.GroupID,
		Topic:   topic,
		Dialer:  k.dialer,
	})
	go func() {
		defer func() { _ = reader.Close() }()
		for {
			m, err := reader.ReadMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || ctx.Err() != nil {
					return
				}
				log.Error(ctx, "reading kafka message", "err", err, "topic", topic)
				continue
			}
			var p payload
			if err := p.unmarshal(m.Value); err != nil {
				log.Error(ctx, "unmarshal msg payload", "err", err)
				continue
			}
			if err := safeCall(ctx, callback, p.Msg); err != nil {
				log.Error(ctx, "executing callback function", "err", err)
			}
		}
	}()
}

// Close flushes pending writes
func (k *kafkaClient) Close() error {
	return k.writer.Close()
}
