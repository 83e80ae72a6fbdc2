package kms

import (
	"context"
	stderr "errors"
	"fmt"

	"github.com/pkg/errors"

	"github.com/scrolluniversity/certificate-node/internal/config"
	"github.com/scrolluniversity/certificate-node/internal/providers"
)

// KMSType represents the KMS interface
// revive:disable-next-line
type KMSType interface {
	RegisterKeyProvider(kt KeyType, kp KeyProvider) error
	CreateKey(ctx context.Context, kt KeyType, path string) (KeyID, error)
	ImportKey(ctx context.Context, kt KeyType, path string, privateKeyHex string) (KeyID, error)
	PublicKey(ctx context.Context, keyID KeyID) ([]byte, error)
	Sign(ctx context.Context, keyID KeyID, data []byte) ([]byte, error)
}

// KeyProvider describes the interface that key providers should match.
type KeyProvider interface {
	// New generates a random key and stores it under the given path.
	// An empty path derives the key ID from the public key.
	New(ctx context.Context, path string) (KeyID, error)
	// Import stores an existing private key under the given path.
	Import(ctx context.Context, path string, privateKeyHex string) (KeyID, error)
	// PublicKey returns byte representation of public key
	PublicKey(ctx context.Context, keyID KeyID) ([]byte, error)
	// Sign the data and return signature.
	Sign(ctx context.Context, keyID KeyID, data []byte) ([]byte, error)
}

// KMS stores keys and secrets
type KMS struct {
	registry map[KeyType]KeyProvider
}

// KeyType describes the type of Key
type KeyType string

// KeyTypeEthereum is the only key type used to sign ledger transactions
const KeyTypeEthereum KeyType = "ETH"

// ErrUnknownKeyType returns when we do not support this type of keys
var ErrUnknownKeyType = stderr.New("unknown key type")

// ErrIncorrectKeyType returns when key provider can't work with given key type
var ErrIncorrectKeyType = stderr.New("incorrect key type")

// ErrKeyTypeConflict raises when we register new key provider with key type
// that already exists
var ErrKeyTypeConflict = stderr.New("key type already registered")

// ErrKeyNotFound is returned when the storage has no material for a key ID
var ErrKeyNotFound = stderr.New("key not found")

// ErrKeyAlreadyExists is returned when importing over an existing key path
var ErrKeyAlreadyExists = stderr.New("key already exists")

// KeyID is a key unique identifier
type KeyID struct {
	Type KeyType
	ID   string
}

// NewKMS create new KMS
func NewKMS() *KMS {
	return &KMS{registry: make(map[KeyType]KeyProvider)}
}

// RegisterKeyProvider register new key provider. It is thread unsafe
// function should be called on app initialization or under external mutex.
func (k *KMS) RegisterKeyProvider(kt KeyType, kp KeyProvider) error {
	if _, ok := k.registry[kt]; ok {
		return errors.WithStack(ErrKeyTypeConflict)
	}

	k.registry[kt] = kp
	return nil
}

// CreateKey creates new random key of specified type.
func (k *KMS) CreateKey(ctx context.Context, kt KeyType, path string) (KeyID, error) {
	kp, ok := k.registry[kt]
	if !ok {
		return KeyID{}, errors.WithStack(ErrUnknownKeyType)
	}
	return kp.New(ctx, path)
}

// ImportKey stores an existing private key
func (k *KMS) ImportKey(ctx context.Context, kt KeyType, path string, privateKeyHex string) (KeyID, error) {
	kp, ok := k.registry[kt]
	if !ok {
		return KeyID{}, errors.WithStack(ErrUnknownKeyType)
	}
	return kp.Import(ctx, path, privateKeyHex)
}

// PublicKey returns bytes representation for public key for specified key ID
func (k *KMS) PublicKey(ctx context.Context, keyID KeyID) ([]byte, error) {
	kp, ok := k.registry[keyID.Type]
	if !ok {
		return nil, errors.WithStack(ErrUnknownKeyType)
	}
	return kp.PublicKey(ctx, keyID)
}

// Sign signs digest with private key
func (k *KMS) Sign(ctx context.Context, keyID KeyID, data []byte) ([]byte, error) {
	kp, ok := k.registry[keyID.Type]
	if !ok {
		return nil, errors.WithStack(ErrUnknownKeyType)
	}

	return kp.Sign(ctx, keyID, data)
}

// Open returns an initialized KMS backed by the configured key storage
func Open(ctx context.Context, cfg config.KeyStore) (*KMS, error) {
	storage, err := NewStorageManager(ctx, cfg)
	if err != nil {
		return nil, err
	}

	keyStore := NewKMS()
	if err := keyStore.RegisterKeyProvider(KeyTypeEthereum, NewEthKeyProvider(KeyTypeEthereum, storage)); err != nil {
		return nil, fmt.Errorf("cannot register Ethereum key provider: %+v", err)
	}
	return keyStore, nil
}

// NewStorageManager builds the key material storage selected by the configuration
func NewStorageManager(ctx context.Context, cfg config.KeyStore) (StorageManager, error) {
	switch cfg.Provider {
	case config.KeyStoreProviderLocalStorage:
		return NewFileStorageManager(cfg.LocalStorageFilePath), nil
	case config.KeyStoreProviderVault:
		vaultCli, err := providers.VaultClient(ctx, providers.Config{
			Address:             cfg.Address,
			Token:               cfg.Token,
			UserPassAuthEnabled: cfg.VaultUserPassAuthEnabled,
			Pass:                cfg.VaultUserPassAuthPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("cannot initialize vault client: %w", err)
		}
		return NewVaultStorageManager(vaultCli), nil
	case config.KeyStoreProviderAWSSM:
		return NewAwsSecretStorageProvider(ctx, AwsSecretStorageProviderConfig{
			AccessKey: cfg.AWSAccessKey,
			SecretKey: cfg.AWSSecretKey,
			Region:    cfg.AWSRegion,
		})
	default:
		return nil, fmt.Errorf("unknown key store provider: %q", cfg.Provider)
	}
}
