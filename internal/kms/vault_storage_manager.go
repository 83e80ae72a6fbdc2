package kms

import (
	"context"
	"strings"

	"github.com/hashicorp/vault/api"
	"github.com/pkg/errors"
)

const keysPathPrefix = "keys/"

const kvStoragePath = "secret"

type vaultStorageManager struct {
	vaultCli *api.Client
}

// NewVaultStorageManager stores key material in the Vault KV v2 engine mounted at secret/
func NewVaultStorageManager(vaultCli *api.Client) StorageManager {
	return &vaultStorageManager{vaultCli: vaultCli}
}

func (v *vaultStorageManager) SaveKeyMaterial(ctx context.Context, material map[string]string, id string) error {
	secret := map[string]interface{}{"data": map[string]string{
		jsonKeyType: convertFromKeyType(KeyType(material[jsonKeyType])),
		jsonKeyData: material[jsonKeyData],
	}}
	_, err := v.vaultCli.Logical().WriteWithContext(ctx, absVaultSecretPath(id), secret)
	return errors.WithStack(err)
}

func (v *vaultStorageManager) searchPrivateKey(ctx context.Context, keyID KeyID) (string, error) {
	secret, err := v.vaultCli.Logical().ReadWithContext(ctx, absVaultSecretPath(keyID.ID))
	if err != nil {
		return "", errors.WithStack(err)
	}
	if secret == nil {
		return "", ErrKeyNotFound
	}

	data, err := getKVv2SecretData(secret)
	if err != nil {
		return "", err
	}
	if kt, ok := data[jsonKeyType].(string); !ok || convertToKeyType(kt) != keyID.Type {
		return "", ErrIncorrectKeyType
	}
	keyHex, ok := data[jsonKeyData].(string)
	if !ok {
		return "", errors.New("key data is not a string")
	}
	return keyHex, nil
}

func absVaultSecretPath(path string) string {
	return kvStoragePath + "/data/" + keysPathPrefix + strings.TrimPrefix(path, "/")
}

// extract data map from Secret for kv v2 storage (secret.Data["data"])
func getKVv2SecretData(secret *api.Secret) (map[string]interface{}, error) {
	if secret == nil {
		return nil, errors.New("secret is nil")
	}

	if secret.Data == nil {
		return nil, errors.New("secret data is nil")
	}

	secDataI, ok := secret.Data["data"]
	if !ok {
		return nil, errors.New("secret data not found")
	}

	secData, ok := secDataI.(map[string]interface{})
	if !ok {
		return nil, errors.New("secret data has unexpected format")
	}

	return secData, nil
}
