package domain

import "time"

// RevocationRecordType is the document type of the audit records uploaded when a certificate is revoked
const RevocationRecordType = "REVOCATION_RECORD"

// StoredDocument is returned by the document store after an upload
type StoredDocument struct {
	Hash      string    `json:"hash"`
	URL       string    `json:"url"`
	Size      int64     `json:"size"`
	Timestamp time.Time `json:"timestamp"`
}

// RetrievedDocument holds the raw content fetched from the document store
type RetrievedDocument struct {
	Hash    string `json:"hash"`
	Content []byte `json:"content"`
}

// RevocationRecord is the audit document stored alongside the ledger revocation flag.
type RevocationRecord struct {
	Type          string    `json:"type"`
	ID            string    `json:"id"`
	CertificateID string    `json:"certificateId"`
	Reason        string    `json:"reason"`
	RevokedBy     string    `json:"revokedBy"`
	EffectiveDate time.Time `json:"effectiveDate"`
	RevokedAt     time.Time `json:"revokedAt"`
}

// NewRevocationRecord builds the audit record for certificateID. EffectiveDate defaults to revokedAt.
func NewRevocationRecord(certificateID, reason, revokedBy string, effectiveDate *time.Time, revokedAt time.Time) *RevocationRecord {
	effective := revokedAt
	if effectiveDate != nil {
		effective = *effectiveDate
	}
	return &RevocationRecord{
		Type:          RevocationRecordType,
		ID:            RevocationRecordID(certificateID, revokedAt),
		CertificateID: certificateID,
		Reason:        reason,
		RevokedBy:     revokedBy,
		EffectiveDate: effective,
		RevokedAt:     revokedAt,
	}
}

// RevocationRecordID returns revocation_<certificateId>_<unix seconds>
func RevocationRecordID(certificateID string, at time.Time) string {
	return "revocation_" + certificateID + "_" + itoa(at.Unix())
}
