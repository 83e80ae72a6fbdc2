package gateways

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scrolluniversity/certificate-node/internal/common"
	"github.com/scrolluniversity/certificate-node/internal/core/domain"
	"github.com/scrolluniversity/certificate-node/internal/log"
	"github.com/scrolluniversity/certificate-node/internal/qrlink"
)

var (
	// ErrCredentialNotFound is returned when the ledger holds no credential for the id
	ErrCredentialNotFound = errors.New("credential not found")
	// ErrCredentialAlreadyIssued is returned when minting an id twice
	ErrCredentialAlreadyIssued = errors.New("credential already issued")
	// ErrCredentialAlreadyRevoked is returned when revoking a revoked credential
	ErrCredentialAlreadyRevoked = errors.New("credential already revoked")
	// ErrCredentialNotPending is returned when recording validation on a credential that is not awaiting it
	ErrCredentialNotPending = errors.New("credential is not pending validation")
)

// MemoryLedgerSeed is the YAML document that configures the in memory ledger
type MemoryLedgerSeed struct {
	ContractAddress string   `yaml:"contractAddress"`
	Institutions    []string `yaml:"accreditedInstitutions"`
}

type memoryCredential struct {
	params    domain.IssueCredentialParams
	txHash    string
	issueDate  time.Time
	status     domain.CertificateStatus
	validation domain.ValidationStatus
}

// MemoryLedger is a process local ledger used for development and tests. It follows the registry
// contract semantics.
type MemoryLedger struct {
	mu              sync.RWMutex
	contract        string
	verificationURL string
	accredited      map[string]bool
	credentials     map[string]*memoryCredential
	byTx            map[string]string
	students        map[string][]string
	now             func() time.Time
}

// NewMemoryLedger returns an empty ledger with the given institutions accredited
func NewMemoryLedger(seed MemoryLedgerSeed, verificationBaseURL string) *MemoryLedger {
	l := &MemoryLedger{
		contract:        seed.ContractAddress,
		verificationURL: verificationBaseURL,
		accredited:      make(map[string]bool, len(seed.Institutions)),
		credentials:     make(map[string]*memoryCredential),
		byTx:            make(map[string]string),
		students:        make(map[string][]string),
		now:             time.Now,
	}
	for _, inst := range seed.Institutions {
		l.accredited[inst] = true
	}
	return l
}

// NewMemoryLedgerFromFile loads the seed from a YAML file. An empty path gives an empty ledger.
func NewMemoryLedgerFromFile(ctx context.Context, path string, verificationBaseURL string) (*MemoryLedger, error) {
	var seed MemoryLedgerSeed
	if path != "" {
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := f.Close(); err != nil {
				log.Error(ctx, "failed to close ledger seed file", "err", err)
			}
		}()
		if err := yaml.NewDecoder(f).Decode(&seed); err != nil {
			return nil, fmt.Errorf("invalid ledger seed file: %w", err)
		}
	}
	log.Info(ctx, "memory ledger loaded", "institutions", len(seed.Institutions))
	return NewMemoryLedger(seed, verificationBaseURL), nil
}

// Accredit marks the institution as accredited
func (l *MemoryLedger) Accredit(institutionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accredited[institutionID] = true
}

// IsInstitutionAccredited implements ports.Ledger
func (l *MemoryLedger) IsInstitutionAccredited(_ context.Context, institutionID string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.accredited[institutionID], nil
}

// IssueCredential implements ports.Ledger
func (l *MemoryLedger) IssueCredential(_ context.Context, params *domain.IssueCredentialParams) (*domain.LedgerCredential, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.credentials[params.CertificateID]; ok {
		return nil, ErrCredentialAlreadyIssued
	}
	now := l.now().UTC()
	status := domain.CertificateStatusActive
	if params.RequiresJointValidation {
		status = domain.CertificateStatusPendingValidation
	}
	cred := &memoryCredential{
		params:     *params,
		txHash:     common.CredentialKeyHex("issue:" + params.CertificateID),
		issueDate:  now,
		status:     status,
		validation: domain.InitialValidationStatus(params.RequiresJointValidation),
	}
	l.credentials[params.CertificateID] = cred
	l.byTx[cred.txHash] = params.CertificateID
	l.students[params.RecipientAddress] = append(l.students[params.RecipientAddress], params.CertificateID)

	return &domain.LedgerCredential{
		CredentialID:         common.CredentialKeyHex(params.CertificateID),
		BlockchainHash:       cred.txHash,
		SmartContractAddress: l.contract,
		VerificationURL:      l.GenerateVerificationURL(params.CertificateID),
		IssueDate:            now,
		Status:               status,
	}, nil
}

// VerifyCredential implements ports.Ledger
func (l *MemoryLedger) VerifyCredential(_ context.Context, blockchainHash string) (*domain.LedgerVerification, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	id, ok := l.byTx[blockchainHash]
	if !ok {
		return &domain.LedgerVerification{IsValid: false}, nil
	}
	cred := l.credentials[id]
	issueDate := cred.issueDate
	status := cred.status
	if status != domain.CertificateStatusRevoked && l.expired(cred) {
		status = domain.CertificateStatusExpired
	}
	return &domain.LedgerVerification{
		IsValid:          l.valid(cred),
		Status:           status,
		ValidationStatus: cred.validation,
		IssueDate:        &issueDate,
		InstitutionID:    cred.params.InstitutionID,
	}, nil
}

// RevokeCredential implements ports.Ledger
func (l *MemoryLedger) RevokeCredential(_ context.Context, certificateID string, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cred, ok := l.credentials[certificateID]
	if !ok {
		return ErrCredentialNotFound
	}
	if cred.status == domain.CertificateStatusRevoked {
		return ErrCredentialAlreadyRevoked
	}
	cred.status = domain.CertificateStatusRevoked
	return nil
}

// RecordValidation implements ports.Ledger. A pending credential becomes ACTIVE once both parties approved.
func (l *MemoryLedger) RecordValidation(_ context.Context, certificateID string, status domain.ValidationStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cred, ok := l.credentials[certificateID]
	if !ok {
		return ErrCredentialNotFound
	}
	if cred.status != domain.CertificateStatusPendingValidation {
		return ErrCredentialNotPending
	}
	cred.validation = status
	if status == domain.ValidationStatusBothApproved {
		cred.status = domain.CertificateStatusActive
	}
	return nil
}

// BatchVerifyCredentials implements ports.Ledger. Unknown ids are invalid.
func (l *MemoryLedger) BatchVerifyCredentials(_ context.Context, certificateIDs []string) ([]bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	valid := make([]bool, len(certificateIDs))
	for i, id := range certificateIDs {
		if cred, ok := l.credentials[id]; ok {
			valid[i] = l.valid(cred)
		}
	}
	return valid, nil
}

// GetStudentCredentials implements ports.Ledger
func (l *MemoryLedger) GetStudentCredentials(_ context.Context, recipientAddress string) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string{}, l.students[recipientAddress]...), nil
}

// GenerateVerificationURL implements ports.Ledger
func (l *MemoryLedger) GenerateVerificationURL(certificateID string) string {
	return qrlink.NewVerificationURL(l.verificationURL, certificateID)
}

func (l *MemoryLedger) valid(cred *memoryCredential) bool {
	return cred.status != domain.CertificateStatusRevoked && !l.expired(cred)
}

func (l *MemoryLedger) expired(cred *memoryCredential) bool {
	return cred.params.ExpiryDate != nil && !l.now().Before(*cred.params.ExpiryDate)
}
