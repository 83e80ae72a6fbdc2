package ports

import (
	"context"
	"time"

	"github.com/scrolluniversity/certificate-node/internal/core/domain"
)

// IssueCertificateRequest holds the input of a certificate issuance
type IssueCertificateRequest struct {
	InstitutionID           string
	CertificateType         domain.CertificateType
	RecipientAddress        string
	CertificateData         domain.CertificateData
	ValidityPeriod          *int // months
	RequiresJointValidation bool
}

// RenewCertificateRequest holds the input of a certificate renewal
type RenewCertificateRequest struct {
	CertificateID     string
	NewValidityPeriod int // months
	RenewalReason     string
	UpdatedData       domain.CertificateData
}

// RevokeCertificateRequest holds the input of a certificate revocation
type RevokeCertificateRequest struct {
	CertificateID string
	Reason        string
	RevokedBy     string
	EffectiveDate *time.Time
}

// CertificateService is the orchestrator of the issuance and verification pipeline
type CertificateService interface {
	Issue(ctx context.Context, req *IssueCertificateRequest) (*domain.Certificate, error)
	GetByID(ctx context.Context, certificateID string) (*domain.Certificate, error)
	Verify(ctx context.Context, certificateID string) (*domain.VerificationResult, error)
	Renew(ctx context.Context, req *RenewCertificateRequest) (*domain.Certificate, error)
	Revoke(ctx context.Context, req *RevokeCertificateRequest) error
	BatchVerify(ctx context.Context, certificateIDs []string) (map[string]bool, error)
	GetForRecipient(ctx context.Context, recipientAddress string) ([]*domain.Certificate, error)
	Approve(ctx context.Context, certificateID string, party domain.ValidationParty) (*domain.Certificate, error)
	Reject(ctx context.Context, certificateID string) (*domain.Certificate, error)
	DeployAccreditationContract(ctx context.Context) (string, error)
	ExpireDue(ctx context.Context, now time.Time) (int, error)
}
