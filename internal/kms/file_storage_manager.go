package kms

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"

	"github.com/scrolluniversity/certificate-node/internal/log"
)

type fileStorageManager struct {
	mu   sync.Mutex
	file string
}

// NewFileStorageManager creates a storage manager backed by a JSON file. A missing file is treated as empty.
func NewFileStorageManager(file string) StorageManager {
	return &fileStorageManager{file: file}
}

func (ls *fileStorageManager) SaveKeyMaterial(ctx context.Context, material map[string]string, id string) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	content, err := readContentFile(ctx, ls.file)
	if err != nil {
		return err
	}
	for _, km := range content {
		if km.KeyPath == id {
			return ErrKeyAlreadyExists
		}
	}
	content = append(content, keyMaterial{
		KeyPath:    id,
		KeyType:    convertFromKeyType(KeyType(material[jsonKeyType])),
		PrivateKey: material[jsonKeyData],
	})

	newFileContent, err := json.Marshal(content)
	if err != nil {
		log.Error(ctx, "cannot marshal file content", "err", err)
		return err
	}
	if err := os.WriteFile(ls.file, newFileContent, 0o600); err != nil {
		log.Error(ctx, "cannot write file", "err", err)
		return err
	}
	return nil
}

func (ls *fileStorageManager) searchPrivateKey(ctx context.Context, keyID KeyID) (string, error) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	content, err := readContentFile(ctx, ls.file)
	if err != nil {
		return "", err
	}
	for _, km := range content {
		if km.KeyPath == keyID.ID && convertToKeyType(km.KeyType) == keyID.Type {
			return km.PrivateKey, nil
		}
	}
	return "", ErrKeyNotFound
}

func readContentFile(ctx context.Context, file string) ([]keyMaterial, error) {
	fileContent, err := os.ReadFile(file)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		log.Error(ctx, "cannot read file", "err", err, "file", file)
		return nil, err
	}
	if len(fileContent) == 0 {
		return nil, nil
	}

	var content []keyMaterial
	if err := json.Unmarshal(fileContent, &content); err != nil {
		log.Error(ctx, "cannot unmarshal file content", "err", err)
		return nil, err
	}
	return content, nil
}
