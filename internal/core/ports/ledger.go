package ports

import (
	"context"

	"github.com/scrolluniversity/certificate-node/internal/core/domain"
)

// Ledger - the interface of the credential registry. Calls are not retried by callers.
type Ledger interface {
	IsInstitutionAccredited(ctx context.Context, institutionID string) (bool, error)
	IssueCredential(ctx context.Context, params *domain.IssueCredentialParams) (*domain.LedgerCredential, error)
	VerifyCredential(ctx context.Context, blockchainHash string) (*domain.LedgerVerification, error)
	RevokeCredential(ctx context.Context, certificateID string, reason string) error
	// RecordValidation stores the joint validation progress of a credential. BOTH_APPROVED activates it.
	RecordValidation(ctx context.Context, certificateID string, status domain.ValidationStatus) error
	BatchVerifyCredentials(ctx context.Context, certificateIDs []string) ([]bool, error)
	GetStudentCredentials(ctx context.Context, recipientAddress string) ([]string, error)
	GenerateVerificationURL(certificateID string) string
}
