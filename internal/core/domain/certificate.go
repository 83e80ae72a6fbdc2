package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// CertificateType defines the kind of achievement a certificate asserts
type CertificateType string

// Supported certificate types
const (
	CertificateTypeCourseCompletion           CertificateType = "COURSE_COMPLETION"
	CertificateTypeTranscript                 CertificateType = "TRANSCRIPT"
	CertificateTypeDegree                     CertificateType = "DEGREE"
	CertificateTypeInnovationAward            CertificateType = "INNOVATION_AWARD"
	CertificateTypeInstitutionalCertification CertificateType = "INSTITUTIONAL_CERTIFICATION"
)

var certificateTypeCodes = map[CertificateType]uint8{
	CertificateTypeCourseCompletion:           0,
	CertificateTypeTranscript:                 1,
	CertificateTypeDegree:                     2,
	CertificateTypeInnovationAward:            3,
	CertificateTypeInstitutionalCertification: 4,
}

// IsValid tells whether the type is one of the supported ones
func (t CertificateType) IsValid() bool {
	_, ok := certificateTypeCodes[t]
	return ok
}

// Code returns the numeric representation used on the ledger
func (t CertificateType) Code() uint8 {
	return certificateTypeCodes[t]
}

// RequiresJointValidationByDefault is true for the types that are usually approved by both the
// institution and the recipient.
func (t CertificateType) RequiresJointValidationByDefault() bool {
	return t == CertificateTypeDegree || t == CertificateTypeInstitutionalCertification
}

// CertificateStatus is the lifecycle state of a certificate
type CertificateStatus string

// Certificate lifecycle states
const (
	CertificateStatusPendingValidation CertificateStatus = "PENDING_VALIDATION"
	CertificateStatusActive            CertificateStatus = "ACTIVE"
	CertificateStatusExpired           CertificateStatus = "EXPIRED"
	CertificateStatusRevoked           CertificateStatus = "REVOKED"
)

var certificateStatusCodes = []CertificateStatus{
	CertificateStatusPendingValidation,
	CertificateStatusActive,
	CertificateStatusExpired,
	CertificateStatusRevoked,
}

// CertificateStatusFromCode maps a ledger status code to a CertificateStatus
func CertificateStatusFromCode(code uint8) (CertificateStatus, error) {
	if int(code) >= len(certificateStatusCodes) {
		return "", errors.New("unknown certificate status code")
	}
	return certificateStatusCodes[code], nil
}

// ValidationStatus is the dual party approval state
type ValidationStatus string

// Joint validation states
const (
	ValidationStatusPending             ValidationStatus = "PENDING"
	ValidationStatusInstitutionApproved ValidationStatus = "INSTITUTION_APPROVED"
	ValidationStatusRecipientApproved   ValidationStatus = "RECIPIENT_APPROVED"
	ValidationStatusBothApproved        ValidationStatus = "BOTH_APPROVED"
	ValidationStatusRejected            ValidationStatus = "REJECTED"
)

var validationStatusCodes = []ValidationStatus{
	ValidationStatusPending,
	ValidationStatusInstitutionApproved,
	ValidationStatusRecipientApproved,
	ValidationStatusBothApproved,
	ValidationStatusRejected,
}

// ValidationStatusFromCode maps a ledger validation code to a ValidationStatus
func ValidationStatusFromCode(code uint8) (ValidationStatus, error) {
	if int(code) >= len(validationStatusCodes) {
		return "", errors.New("unknown validation status code")
	}
	return validationStatusCodes[code], nil
}

// Code returns the ledger code of the validation status
func (s ValidationStatus) Code() (uint8, error) {
	for i, v := range validationStatusCodes {
		if v == s {
			return uint8(i), nil
		}
	}
	return 0, fmt.Errorf("unknown validation status %q", s)
}

// InitialValidationStatus is the validation status of a freshly minted certificate
func InitialValidationStatus(requiresJointValidation bool) ValidationStatus {
	if requiresJointValidation {
		return ValidationStatusPending
	}
	return ValidationStatusBothApproved
}

// ValidationParty identifies who approves a certificate that requires joint validation
type ValidationParty string

// Validation parties
const (
	ValidationPartyInstitution ValidationParty = "INSTITUTION"
	ValidationPartyRecipient   ValidationParty = "RECIPIENT"
)

// ErrInvalidTransition is returned when a lifecycle transition is not allowed
var ErrInvalidTransition = errors.New("invalid certificate state transition")

// CertificateData is the achievement payload. It is stored off ledger and its shape is owned by the
// issuer, so it is kept as an opaque JSON object at this layer.
type CertificateData map[string]any

// Decode maps the payload into a typed view. Unknown keys are ignored.
func (d CertificateData) Decode(out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(map[string]any(d))
}

// Merge returns a copy of d with the keys of updates applied on top.
func (d CertificateData) Merge(updates CertificateData) CertificateData {
	merged := make(CertificateData, len(d)+len(updates))
	for k, v := range d {
		merged[k] = v
	}
	for k, v := range updates {
		merged[k] = v
	}
	return merged
}

// Certificate is a verifiable record asserting an institution issued achievement for a recipient.
type Certificate struct {
	CertificateID           string            `json:"certificateId"`
	CertificateType         CertificateType   `json:"certificateType"`
	RecipientAddress        string            `json:"recipientAddress"`
	InstitutionID           string            `json:"institutionId"`
	CertificateData         CertificateData   `json:"certificateData"`
	IPFSHash                string            `json:"ipfsHash"`
	BlockchainHash          string            `json:"blockchainHash"`
	SmartContractAddress    string            `json:"smartContractAddress"`
	CredentialID            string            `json:"credentialId"`
	VerificationURL         string            `json:"verificationUrl"`
	QRCode                  string            `json:"qrCode"`
	Status                  CertificateStatus `json:"status"`
	ValidationStatus        ValidationStatus  `json:"validationStatus"`
	RequiresJointValidation bool              `json:"requiresJointValidation"`
	IssueDate               time.Time         `json:"issueDate"`
	ExpiryDate              *time.Time        `json:"expiryDate,omitempty"`
	RenewedFrom             *string           `json:"renewedFrom,omitempty"`
	RenewalReason           *string           `json:"renewalReason,omitempty"`
	RevokedAt               *time.Time        `json:"revokedAt,omitempty"`
	RevocationReason        *string           `json:"revocationReason,omitempty"`
	RevocationRecordHash    *string           `json:"revocationRecordHash,omitempty"`
	CreatedAt               time.Time         `json:"createdAt"`
	UpdatedAt               time.Time         `json:"updatedAt"`
}

// IsRevoked returns true once the certificate reached the terminal REVOKED state
func (c *Certificate) IsRevoked() bool {
	return c.Status == CertificateStatusRevoked
}

// IsExpiredAt tells whether the certificate expiry date is reached at the given time
func (c *Certificate) IsExpiredAt(now time.Time) bool {
	return c.ExpiryDate != nil && !now.Before(*c.ExpiryDate)
}

// CanTransition tells whether the lifecycle allows moving from the current status to the given one.
// REVOKED is terminal.
func (c *Certificate) CanTransition(to CertificateStatus) bool {
	switch c.Status {
	case CertificateStatusPendingValidation:
		return to == CertificateStatusActive || to == CertificateStatusRevoked
	case CertificateStatusActive:
		return to == CertificateStatusExpired || to == CertificateStatusRevoked
	case CertificateStatusExpired:
		return to == CertificateStatusRevoked
	default:
		return false
	}
}

// Approve registers the approval of one party. Once both parties approved, a pending certificate
// becomes ACTIVE.
func (c *Certificate) Approve(party ValidationParty, now time.Time) error {
	if c.Status != CertificateStatusPendingValidation {
		return ErrInvalidTransition
	}
	switch {
	case c.ValidationStatus == ValidationStatusPending && party == ValidationPartyInstitution:
		c.ValidationStatus = ValidationStatusInstitutionApproved
	case c.ValidationStatus == ValidationStatusPending && party == ValidationPartyRecipient:
		c.ValidationStatus = ValidationStatusRecipientApproved
	case c.ValidationStatus == ValidationStatusInstitutionApproved && party == ValidationPartyRecipient,
		c.ValidationStatus == ValidationStatusRecipientApproved && party == ValidationPartyInstitution:
		c.ValidationStatus = ValidationStatusBothApproved
		c.Status = CertificateStatusActive
	default:
		return ErrInvalidTransition
	}
	c.UpdatedAt = now
	return nil
}

// Reject marks a pending certificate validation as rejected. The certificate never becomes active.
func (c *Certificate) Reject(now time.Time) error {
	if c.Status != CertificateStatusPendingValidation || c.ValidationStatus == ValidationStatusRejected {
		return ErrInvalidTransition
	}
	c.ValidationStatus = ValidationStatusRejected
	c.UpdatedAt = now
	return nil
}

// Expire moves an active certificate to EXPIRED
func (c *Certificate) Expire(now time.Time) error {
	if !c.CanTransition(CertificateStatusExpired) {
		return ErrInvalidTransition
	}
	c.Status = CertificateStatusExpired
	c.UpdatedAt = now
	return nil
}

// Revoke moves the certificate to the terminal REVOKED state. Revoking twice is an error.
func (c *Certificate) Revoke(reason string, recordHash string, now time.Time) error {
	if !c.CanTransition(CertificateStatusRevoked) {
		return ErrInvalidTransition
	}
	c.Status = CertificateStatusRevoked
	c.RevokedAt = &now
	c.RevocationReason = &reason
	c.RevocationRecordHash = &recordHash
	c.UpdatedAt = now
	return nil
}

// MarshalData serializes the payload for storage
func (c *Certificate) MarshalData() ([]byte, error) {
	if c.CertificateData == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c.CertificateData)
}
