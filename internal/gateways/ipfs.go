package gateways

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	shell "github.com/ipfs/go-ipfs-api"
	"github.com/pkg/errors"

	"github.com/scrolluniversity/certificate-node/internal/core/domain"
	"github.com/scrolluniversity/certificate-node/internal/log"
)

const ipfsRequestTimeout = 30 * time.Second

// IPFSStore stores certificate documents on an IPFS node through its HTTP API
type IPFSStore struct {
	sh         *shell.Shell
	gatewayURL string
	now        func() time.Time
}

// NewIPFSStore connects to the IPFS API at apiURL. Document URLs are built on gatewayURL.
func NewIPFSStore(apiURL, gatewayURL string) *IPFSStore {
	sh := shell.NewShell(apiURL)
	sh.SetTimeout(ipfsRequestTimeout)
	return &IPFSStore{
		sh:         sh,
		gatewayURL: gatewayURL,
		now:        time.Now,
	}
}

// Upload adds the JSON serialization of document. The content is not pinned here.
func (s *IPFSStore) Upload(ctx context.Context, document any) (*domain.StoredDocument, error) {
	content, err := json.Marshal(document)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	hash, err := s.sh.Add(bytes.NewReader(content), shell.Pin(false))
	if err != nil {
		log.Error(ctx, "ipfs add failed", "err", err)
		return nil, errors.Wrap(err, "ipfs add")
	}
	return &domain.StoredDocument{
		Hash:      hash,
		URL:       gatewayDocumentURL(s.gatewayURL, hash),
		Size:      int64(len(content)),
		Timestamp: s.now().UTC(),
	}, nil
}

// Retrieve fetches the raw content addressed by hash
func (s *IPFSStore) Retrieve(ctx context.Context, hash string) (*domain.RetrievedDocument, error) {
	content, err := s.cat(ctx, hash)
	if err != nil {
		return nil, err
	}
	return &domain.RetrievedDocument{Hash: hash, Content: content}, nil
}

// VerifyIntegrity re-adds the fetched content in only-hash mode and compares the address
func (s *IPFSStore) VerifyIntegrity(ctx context.Context, hash string) (bool, error) {
	content, err := s.cat(ctx, hash)
	if err != nil {
		return false, err
	}
	recomputed, err := s.sh.Add(bytes.NewReader(content), shell.OnlyHash(true), shell.Pin(false))
	if err != nil {
		log.Error(ctx, "ipfs hash computation failed", "err", err, "hash", hash)
		return false, errors.Wrap(err, "ipfs add only-hash")
	}
	if recomputed != hash {
		log.Warn(ctx, "ipfs content does not match its address", "hash", hash, "recomputed", recomputed)
		return false, nil
	}
	return true, nil
}

// Pin pins the content recursively. Pinning an already pinned hash succeeds.
func (s *IPFSStore) Pin(ctx context.Context, hash string) error {
	if err := s.sh.Pin(hash); err != nil {
		log.Error(ctx, "ipfs pin failed", "err", err, "hash", hash)
		return errors.Wrap(err, "ipfs pin")
	}
	return nil
}

func (s *IPFSStore) cat(ctx context.Context, hash string) ([]byte, error) {
	rc, err := s.sh.Cat(hash)
	if err != nil {
		log.Error(ctx, "ipfs cat failed", "err", err, "hash", hash)
		return nil, errors.Wrap(err, "ipfs cat")
	}
	defer func() {
		if err := rc.Close(); err != nil {
			log.Error(ctx, "closing ipfs response", "err", err)
		}
	}()
	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return content, nil
}

// Ping asks the node for its version. It lets the store be used as a health pinger.
func (s *IPFSStore) Ping(ctx context.Context) error {
	var version struct {
		Version string
	}
	if err := s.sh.Request("version").Exec(ctx, &version); err != nil {
		return errors.Wrap(err, "ipfs version")
	}
	return nil
}
