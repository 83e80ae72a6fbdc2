package api

import (
	"time"

	"github.com/scrolluniversity/certificate-node/internal/core/domain"
)

// IssueCertificateRequest defines model for IssueCertificateRequest.
type IssueCertificateRequest struct {
	InstitutionID           string                 `json:"institutionId"`
	CertificateType         string                 `json:"certificateType"`
	RecipientAddress        string                 `json:"recipientAddress"`
	CertificateData         domain.CertificateData `json:"certificateData"`
	ValidityPeriod          *int                   `json:"validityPeriod,omitempty"`
	RequiresJointValidation *bool                  `json:"requiresJointValidation,omitempty"`
}

// RenewCertificateRequest defines model for RenewCertificateRequest.
type RenewCertificateRequest struct {
	NewValidityPeriod int                    `json:"newValidityPeriod"`
	RenewalReason     string                 `json:"renewalReason"`
	UpdatedData       domain.CertificateData `json:"updatedData,omitempty"`
}

// RevokeCertificateRequest defines model for RevokeCertificateRequest.
type RevokeCertificateRequest struct {
	Reason        string     `json:"reason"`
	RevokedBy     string     `json:"revokedBy,omitempty"`
	EffectiveDate *time.Time `json:"effectiveDate,omitempty"`
}

// ApproveCertificateRequest defines model for ApproveCertificateRequest.
type ApproveCertificateRequest struct {
	Party string `json:"party"`
}

// BatchVerifyRequest defines model for BatchVerifyRequest.
type BatchVerifyRequest struct {
	CertificateIDs []string `json:"certificateIds"`
}

// BatchVerifyResponse defines model for BatchVerifyResponse.
type BatchVerifyResponse struct {
	Results map[string]bool `json:"results"`
}

// ContractResponse defines model for ContractResponse.
type ContractResponse struct {
	ContractAddress string `json:"contractAddress"`
}

// GenericMessage defines model for GenericMessage.
type GenericMessage struct {
	Message string `json:"message"`
}
