package pubsub

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrolluniversity/certificate-node/internal/config"
	"github.com/scrolluniversity/certificate-node/pkg/pubsub"
)

type issuedEvent struct{}

func (issuedEvent) Marshal() (pubsub.Message, error) { return pubsub.Message(`{}`), nil }

func (*issuedEvent) Unmarshal(pubsub.Message) error { return nil }

func TestNewPubSub(t *testing.T) {
	type expected struct {
		redis bool
		err   string
	}
	type testConfig struct {
		name     string
		cfg      func(t *testing.T) config.PubSub
		expected expected
	}

	for _, tc := range []testConfig{
		{
			name: "none drops events",
			cfg:  func(*testing.T) config.PubSub { return config.PubSub{Provider: config.PubSubProviderNone} },
		},
		{
			name: "redis",
			cfg: func(t *testing.T) config.PubSub {
				return config.PubSub{Provider: config.PubSubProviderRedis, URL: "redis://" + miniredis.RunT(t).Addr()}
			},
			expected: expected{redis: true},
		},
		{
			name:     "unknown provider",
			cfg:      func(*testing.T) config.PubSub { return config.PubSub{Provider: "carrier-pigeon"} },
			expected: expected{err: `unknown pubsub provider "carrier-pigeon"`},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			client, err := NewPubSub(ctx, tc.cfg(t))
			if tc.expected.err != "" {
				assert.EqualError(t, err, tc.expected.err)
				assert.Nil(t, client)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
			_, isMock := client.(*pubsub.Mock)
			assert.False(t, isMock)
			_, isRedis := client.(*pubsub.RedisClient)
			assert.Equal(t, tc.expected.redis, isRedis)

			for i := 0; i < 100; i++ {
				require.NoError(t, client.Publish(ctx, "certificate.issued", &issuedEvent{}))
			}
			assert.NoError(t, client.Close())
		})
	}
}
