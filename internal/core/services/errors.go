package services

import (
	"errors"
	"fmt"

	"github.com/scrolluniversity/certificate-node/internal/core/domain"
)

var (
	// ErrInstitutionNotAccredited the issuing institution is not accredited on the ledger
	ErrInstitutionNotAccredited = errors.New("institution is not accredited")
	// ErrCertificateNotFound no certificate with the given id exists locally
	ErrCertificateNotFound = errors.New("certificate not found")
	// ErrCannotRenewInvalidCertificate the certificate failed live verification
	ErrCannotRenewInvalidCertificate = errors.New("Cannot renew invalid certificate") //nolint:stylecheck
	// ErrCertificateAlreadyRevoked the certificate is already revoked
	ErrCertificateAlreadyRevoked = errors.New("certificate is already revoked")
	// ErrInvalidRequest the request is malformed
	ErrInvalidRequest = errors.New("invalid request")
	// ErrContractAddressNotConfigured no registry contract address is configured
	ErrContractAddressNotConfigured = errors.New("contract address not configured")
	// ErrInvalidTransition the lifecycle does not allow the requested change
	ErrInvalidTransition = domain.ErrInvalidTransition
)

// Stages reported by StageError
const (
	StageIssue   = "issue"
	StageVerify  = "verify"
	StageRevoke  = "revoke"
	StageApprove = "approve"
	StageReject  = "reject"
)

// StageError wraps a collaborator failure with the operation stage it happened in
type StageError struct {
	Stage string
	Err   error
}

// Error satisfies error interface for StageError
func (e *StageError) Error() string {
	return fmt.Sprintf("Failed to %s certificate: %s", e.Stage, e.Err)
}

// Unwrap returns the underlying cause
func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage string, err error) error {
	return &StageError{Stage: stage, Err: err}
}
