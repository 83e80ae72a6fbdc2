package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("ISSUER_SERVER_PORT", "3002")
	t.Setenv("ISSUER_ETHEREUM_CONTRACT_ADDRESS", "0x134B1BE34911E39A8397ec6289782989729807a4")
	t.Setenv("ISSUER_ETHEREUM_RECEIPT_TIMEOUT", "20s")
	t.Setenv("ISSUER_CACHE_PROVIDER", "memory")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 3002, cfg.ServerPort)
	assert.Equal(t, "0x134B1BE34911E39A8397ec6289782989729807a4", cfg.Ethereum.ContractAddress)
	assert.Equal(t, 20*time.Second, cfg.Ethereum.ReceiptTimeout)
	assert.Equal(t, CacheProviderMemory, cfg.Cache.Provider)
	assert.Equal(t, DriverEthereum, cfg.Ledger.Driver)
	assert.Equal(t, "@every 1h", cfg.Expirer.Schedule)
}

func TestLoad_EnvFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(file, []byte("ISSUER_LEDGER_DRIVER=memory\nISSUER_IPFS_DRIVER=memory\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("ISSUER_LEDGER_DRIVER")
		_ = os.Unsetenv("ISSUER_IPFS_DRIVER")
	})

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Ledger.Driver)
	assert.Equal(t, DriverMemory, cfg.IPFS.Driver)
}

func TestConfiguration_Sanitize(t *testing.T) {
	type expected struct {
		err       bool
		serverURL string
	}
	type testConfig struct {
		name     string
		cfg      Configuration
		expected expected
	}
	for _, tc := range []testConfig{
		{
			name: "valid memory drivers",
			cfg: Configuration{
				ServerUrl: "https://issuer.scrolluniversity.edu/?a=b",
				Ledger:    Ledger{Driver: DriverMemory},
				IPFS:      IPFS{Driver: DriverMemory},
			},
			expected: expected{serverURL: "https://issuer.scrolluniversity.edu"},
		},
		{
			name: "relative server url",
			cfg: Configuration{
				ServerUrl: "issuer",
				Ledger:    Ledger{Driver: DriverMemory},
				IPFS:      IPFS{Driver: DriverMemory},
			},
			expected: expected{err: true},
		},
		{
			name: "eth driver without url",
			cfg: Configuration{
				ServerUrl: "http://localhost:3001",
				Ledger:    Ledger{Driver: DriverEthereum},
				IPFS:      IPFS{Driver: DriverIPFS},
			},
			expected: expected{err: true},
		},
		{
			name: "unknown document store driver",
			cfg: Configuration{
				ServerUrl: "http://localhost:3001",
				Ledger:    Ledger{Driver: DriverMemory},
				IPFS:      IPFS{Driver: "s3"},
			},
			expected: expected{err: true},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Sanitize()
			if tc.expected.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected.serverURL, tc.cfg.ServerUrl)
		})
	}
}

func TestPubSub_KafkaBrokerList(t *testing.T) {
	p := PubSub{KafkaBrokers: "kafka-1:9092, kafka-2:9092,,"}
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, p.KafkaBrokerList())
}
