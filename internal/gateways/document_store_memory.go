package gateways

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/mr-tron/base58"

	"github.com/scrolluniversity/certificate-node/internal/core/domain"
)

// ErrDocumentNotFound is returned when the store holds no content for a hash
var ErrDocumentNotFound = errors.New("document not found")

const (
	multihashSHA256Code = 0x12
	multihashSHA256Len  = 0x20
)

// MemoryDocumentStore is a content addressed store kept in process memory. Hashes are base58
// encoded sha2-256 multihashes, the same shape as CIDv0.
type MemoryDocumentStore struct {
	mu         sync.RWMutex
	gatewayURL string
	documents  map[string][]byte
	pinned     map[string]bool
	now        func() time.Time
}

// NewMemoryDocumentStore returns an empty store
func NewMemoryDocumentStore(gatewayURL string) *MemoryDocumentStore {
	return &MemoryDocumentStore{
		gatewayURL: gatewayURL,
		documents:  make(map[string][]byte),
		pinned:     make(map[string]bool),
		now:        time.Now,
	}
}

// Upload implements ports.DocumentStore
func (s *MemoryDocumentStore) Upload(_ context.Context, document any) (*domain.StoredDocument, error) {
	content, err := json.Marshal(document)
	if err != nil {
		return nil, err
	}
	hash := contentHash(content)

	s.mu.Lock()
	s.documents[hash] = content
	s.mu.Unlock()

	return &domain.StoredDocument{
		Hash:      hash,
		URL:       gatewayDocumentURL(s.gatewayURL, hash),
		Size:      int64(len(content)),
		Timestamp: s.now().UTC(),
	}, nil
}

// Retrieve implements ports.DocumentStore
func (s *MemoryDocumentStore) Retrieve(_ context.Context, hash string) (*domain.RetrievedDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.documents[hash]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return &domain.RetrievedDocument{Hash: hash, Content: append([]byte(nil), content...)}, nil
}

// VerifyIntegrity implements ports.DocumentStore. A missing document is not intact.
func (s *MemoryDocumentStore) VerifyIntegrity(_ context.Context, hash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.documents[hash]
	if !ok {
		return false, nil
	}
	return contentHash(content) == hash, nil
}

// Pin implements ports.DocumentStore. Pinning twice is a no-op.
func (s *MemoryDocumentStore) Pin(_ context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[hash]; !ok {
		return ErrDocumentNotFound
	}
	s.pinned[hash] = true
	return nil
}

// IsPinned tells whether the hash was pinned
func (s *MemoryDocumentStore) IsPinned(hash string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pinned[hash]
}

// Tamper replaces the content stored under hash without rehashing it, so the next VerifyIntegrity
// fails. Development and test use only: no request path reaches it and the ipfs store has no equivalent.
func (s *MemoryDocumentStore) Tamper(hash string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[hash] = content
}

func contentHash(content []byte) string {
	digest := sha256.Sum256(content)
	mh := make([]byte, 0, 2+len(digest))
	mh = append(mh, multihashSHA256Code, multihashSHA256Len)
	mh = append(mh, digest[:]...)
	return base58.Encode(mh)
}

func gatewayDocumentURL(gatewayURL, hash string) string {
	return strings.TrimSuffix(gatewayURL, "/") + "/ipfs/" + hash
}
