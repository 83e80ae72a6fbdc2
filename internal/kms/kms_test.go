package kms

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrolluniversity/certificate-node/internal/config"
)

const testPrivateKey = "b4ae0a1c7e31f0d8e7b3c0e9a4f6e2f1c77e2f5d9a1b8e0c3d4f5a6b7c8d9e0f"

func newFileKMS(t *testing.T) *KMS {
	t.Helper()
	keyStore, err := Open(context.Background(), config.KeyStore{
		Provider:             config.KeyStoreProviderLocalStorage,
		LocalStorageFilePath: filepath.Join(t.TempDir(), LocalStorageFileName),
	})
	require.NoError(t, err)
	return keyStore
}

func TestKMS_ImportAndSign(t *testing.T) {
	ctx := context.Background()
	keyStore := newFileKMS(t)

	keyID, err := keyStore.ImportKey(ctx, KeyTypeEthereum, "pbkey", "0x"+testPrivateKey)
	require.NoError(t, err)
	assert.Equal(t, KeyID{Type: KeyTypeEthereum, ID: "pbkey"}, keyID)

	priv, err := crypto.HexToECDSA(testPrivateKey)
	require.NoError(t, err)

	pub, err := keyStore.PublicKey(ctx, keyID)
	require.NoError(t, err)
	addr, err := EthAddress(pub)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(priv.PublicKey), addr)

	digest := crypto.Keccak256([]byte("certificate"))
	sig, err := keyStore.Sign(ctx, keyID, digest)
	require.NoError(t, err)
	require.Len(t, sig, 65)

	recovered, err := crypto.SigToPub(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, addr, crypto.PubkeyToAddress(*recovered))
}

func TestKMS_Errors(t *testing.T) {
	ctx := context.Background()
	keyStore := newFileKMS(t)

	_, err := keyStore.ImportKey(ctx, KeyTypeEthereum, "pbkey", testPrivateKey)
	require.NoError(t, err)

	type testConfig struct {
		name     string
		run      func() error
		expected error
	}
	for _, tc := range []testConfig{
		{
			name: "duplicated import",
			run: func() error {
				_, err := keyStore.ImportKey(ctx, KeyTypeEthereum, "pbkey", testPrivateKey)
				return err
			},
			expected: ErrKeyAlreadyExists,
		},
		{
			name: "unknown key path",
			run: func() error {
				_, err := keyStore.Sign(ctx, KeyID{Type: KeyTypeEthereum, ID: "missing"}, make([]byte, 32))
				return err
			},
			expected: ErrKeyNotFound,
		},
		{
			name: "unknown key type",
			run: func() error {
				_, err := keyStore.Sign(ctx, KeyID{Type: "BJJ", ID: "pbkey"}, make([]byte, 32))
				return err
			},
			expected: ErrUnknownKeyType,
		},
		{
			name: "register twice",
			run: func() error {
				return keyStore.RegisterKeyProvider(KeyTypeEthereum, NewEthKeyProvider(KeyTypeEthereum, NewFileStorageManager("")))
			},
			expected: ErrKeyTypeConflict,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.run(), tc.expected)
		})
	}
}

func TestKMS_CreateKey(t *testing.T) {
	ctx := context.Background()
	keyStore := newFileKMS(t)

	keyID, err := keyStore.CreateKey(ctx, KeyTypeEthereum, "")
	require.NoError(t, err)
	assert.Regexp(t, "^ETH:[a-f0-9]{66}$", keyID.ID)

	named, err := keyStore.CreateKey(ctx, KeyTypeEthereum, "publisher")
	require.NoError(t, err)
	assert.Equal(t, "publisher", named.ID)

	pub1, err := keyStore.PublicKey(ctx, keyID)
	require.NoError(t, err)
	pub2, err := keyStore.PublicKey(ctx, named)
	require.NoError(t, err)
	assert.NotEqual(t, pub1, pub2)
}

func TestNewStorageManager_UnknownProvider(t *testing.T) {
	_, err := NewStorageManager(context.Background(), config.KeyStore{Provider: "hsm"})
	assert.Error(t, err)
}

func TestSecretNameForKeyID(t *testing.T) {
	assert.Equal(t, "RVRIL3Bia2V5", secretNameForKeyID(KeyID{Type: KeyTypeEthereum, ID: "pbkey"}))
}
