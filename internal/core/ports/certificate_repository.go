package ports

import (
	"context"
	"time"

	"github.com/scrolluniversity/certificate-node/internal/core/domain"
)

// CertificateRepository is the local lookup of composed certificates
type CertificateRepository interface {
	Save(ctx context.Context, cert *domain.Certificate) error
	Update(ctx context.Context, cert *domain.Certificate) error
	GetByID(ctx context.Context, certificateID string) (*domain.Certificate, error)
	GetByRecipient(ctx context.Context, recipientAddress string) ([]*domain.Certificate, error)
	GetActiveExpiringBefore(ctx context.Context, t time.Time) ([]*domain.Certificate, error)
}
