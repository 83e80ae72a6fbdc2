package ports

import (
	"context"

	"github.com/scrolluniversity/certificate-node/internal/core/domain"
)

// DocumentStore is a content addressed store. The returned hash is derived from the uploaded bytes.
type DocumentStore interface {
	Upload(ctx context.Context, document any) (*domain.StoredDocument, error)
	Retrieve(ctx context.Context, hash string) (*domain.RetrievedDocument, error)
	VerifyIntegrity(ctx context.Context, hash string) (bool, error)
	Pin(ctx context.Context, hash string) error
}
