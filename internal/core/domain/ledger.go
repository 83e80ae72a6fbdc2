package domain

import (
	"strconv"
	"time"
)

// IssueCredentialParams are the values minted on the ledger for a certificate
type IssueCredentialParams struct {
	CertificateID           string
	RecipientAddress        string
	InstitutionID           string
	CertificateType         CertificateType
	IPFSHash                string
	ExpiryDate              *time.Time
	RequiresJointValidation bool
}

// LedgerCredential is the result of a successful mint
type LedgerCredential struct {
	CredentialID         string
	BlockchainHash       string
	SmartContractAddress string
	VerificationURL      string
	IssueDate            time.Time
	Status               CertificateStatus
}

// LedgerVerification is the ledger view of a credential. IsValid is false for unknown, failed or
// revoked credentials.
type LedgerVerification struct {
	IsValid          bool              `json:"isValid"`
	Status           CertificateStatus `json:"status,omitempty"`
	ValidationStatus ValidationStatus  `json:"validationStatus,omitempty"`
	IssueDate        *time.Time        `json:"issueDate,omitempty"`
	InstitutionID    string            `json:"institutionId,omitempty"`
}

func itoa(i int64) string {
	return strconv.FormatInt(i, 10)
}
