package domain

import "time"

// DocumentVerification is the document store half of a verification
type DocumentVerification struct {
	IsValid bool            `json:"isValid"`
	Hash    string          `json:"hash"`
	Content CertificateData `json:"content,omitempty"`
}

// VerificationEvent is an entry of the validation history
type VerificationEvent struct {
	Source    string    `json:"source"`
	IsValid   bool      `json:"isValid"`
	Timestamp time.Time `json:"timestamp"`
}

// Verification sources
const (
	VerificationSourceLedger   = "ledger"
	VerificationSourceDocument = "document_store"
)

// VerificationResult combines the ledger and document store checks. IsValid is their conjunction.
type VerificationResult struct {
	CertificateID          string               `json:"certificateId"`
	IsValid                bool                 `json:"isValid"`
	BlockchainVerification LedgerVerification   `json:"blockchainVerification"`
	IPFSVerification       DocumentVerification `json:"ipfsVerification"`
	ValidationHistory      []VerificationEvent  `json:"validationHistory"`
	VerifiedAt             time.Time            `json:"verifiedAt"`
}
