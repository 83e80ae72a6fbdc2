package kms

import (
	"context"
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

const (
	jsonKeyType   = "key_type"
	jsonKeyData   = "private_key"
	defaultLength = 32
	ethereum      = "ethereum"
	// LocalStorageFileName is the default name of the file where the keys are stored
	LocalStorageFileName = "kms_localstorage_keys.json"
)

// StorageManager persists private key material by key path
type StorageManager interface {
	SaveKeyMaterial(ctx context.Context, keyMaterial map[string]string, id string) error
	searchPrivateKey(ctx context.Context, keyID KeyID) (string, error)
}

// keyMaterial is the serialized form shared by every storage manager
type keyMaterial struct {
	KeyType    string `json:"key_type"`
	KeyPath    string `json:"key_path"`
	PrivateKey string `json:"private_key"`
}

// convertToKeyType converts from ethereum to ETH
func convertToKeyType(keyType string) KeyType {
	if keyType == ethereum {
		return KeyTypeEthereum
	}
	return ""
}

// convertFromKeyType converts from ETH to ethereum
func convertFromKeyType(keyType KeyType) string {
	if keyType == KeyTypeEthereum {
		return ethereum
	}
	return ""
}

// decodeETHPrivateKey is a helper method to convert byte representation of
// private key to *ecdsa.PrivateKey
func decodeETHPrivateKey(key []byte) (*ecdsa.PrivateKey, error) {
	privKey, err := crypto.ToECDSA(key)
	return privKey, errors.WithStack(err)
}
