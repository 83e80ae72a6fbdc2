package pubsub

import (
	"context"
	"fmt"

	"github.com/valkey-io/valkey-go"

	"github.com/scrolluniversity/certificate-node/internal/config"
	"github.com/scrolluniversity/certificate-node/internal/log"
	"github.com/scrolluniversity/certificate-node/internal/redis"
	"github.com/scrolluniversity/certificate-node/pkg/pubsub"
)

const kafkaGroupID = "certificate-node"

// NewPubSub - creates a new pubsub client based on the configuration
func NewPubSub(ctx context.Context, cfg config.PubSub) (pubsub.Client, error) {
	switch cfg.Provider {
	case config.PubSubProviderRedis:
		rdb, err := redis.Open(ctx, cfg.URL)
		if err != nil {
			log.Error(ctx, "cannot connect to redis", "err", err, "host", cfg.URL)
			return nil, err
		}
		return pubsub.NewRedis(rdb), nil
	case config.PubSubProviderValKey:
		client, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{cfg.URL}})
		if err != nil {
			log.Error(ctx, "cannot connect to valkey", "err", err, "host", cfg.URL)
			return nil, err
		}
		return pubsub.NewValKeyClient(client), nil
	case config.PubSubProviderKafka:
		return pubsub.NewKafka(pubsub.KafkaConfig{
			Brokers:  cfg.KafkaBrokerList(),
			User:     cfg.KafkaUser,
			Password: cfg.KafkaPassword,
			GroupID:  kafkaGroupID,
		}), nil
	case config.PubSubProviderNone:
		return pubsub.NewNoop(), nil
	}
	return nil, fmt.Errorf("unknown pubsub provider %q", cfg.Provider)
}
