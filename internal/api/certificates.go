package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scrolluniversity/certificate-node/internal/core/domain"
	"github.com/scrolluniversity/certificate-node/internal/core/ports"
	"github.com/scrolluniversity/certificate-node/internal/log"
)

// IssueCertificate issues a certificate. Joint validation defaults to what the certificate type usually needs.
func (s *Server) IssueCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req IssueCertificateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	certType := domain.CertificateType(req.CertificateType)
	joint := certType.RequiresJointValidationByDefault()
	if req.RequiresJointValidation != nil {
		joint = *req.RequiresJointValidation
	}

	cert, err := s.certificates.Issue(ctx, &ports.IssueCertificateRequest{
		InstitutionID:           req.InstitutionID,
		CertificateType:         certType,
		RecipientAddress:        req.RecipientAddress,
		CertificateData:         req.CertificateData,
		ValidityPeriod:          req.ValidityPeriod,
		RequiresJointValidation: joint,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, cert)
}

// GetCertificate returns the locally stored certificate
func (s *Server) GetCertificate(w http.ResponseWriter, r *http.Request) {
	cert, err := s.certificates.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, cert)
}

// VerifyCertificate verifies a certificate. An invalid certificate is a 200 with isValid false.
func (s *Server) VerifyCertificate(w http.ResponseWriter, r *http.Request) {
	result, err := s.certificates.Verify(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// RenewCertificate issues a renewal of a valid certificate
func (s *Server) RenewCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req RenewCertificateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	cert, err := s.certificates.Renew(ctx, &ports.RenewCertificateRequest{
		CertificateID:     chi.URLParam(r, "id"),
		NewValidityPeriod: req.NewValidityPeriod,
		RenewalReason:     req.RenewalReason,
		UpdatedData:       req.UpdatedData,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, cert)
}

// RevokeCertificate revokes a certificate
func (s *Server) RevokeCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req RevokeCertificateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	revokedBy := req.RevokedBy
	if revokedBy == "" {
		revokedBy, _, _ = r.BasicAuth()
	}
	err := s.certificates.Revoke(ctx, &ports.RevokeCertificateRequest{
		CertificateID: chi.URLParam(r, "id"),
		Reason:        req.Reason,
		RevokedBy:     revokedBy,
		EffectiveDate: req.EffectiveDate,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.Info(ctx, "certificate revocation accepted", "certificateId", chi.URLParam(r, "id"))
	writeJSON(w, r, http.StatusAccepted, GenericMessage{Message: "certificate revoked"})
}

// ApproveCertificate registers the approval of one party
func (s *Server) ApproveCertificate(w http.ResponseWriter, r *http.Request) {
	var req ApproveCertificateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	cert, err := s.certificates.Approve(r.Context(), chi.URLParam(r, "id"), domain.ValidationParty(req.Party))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, cert)
}

// RejectCertificate rejects the joint validation of a pending certificate
func (s *Server) RejectCertificate(w http.ResponseWriter, r *http.Request) {
	cert, err := s.certificates.Reject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, cert)
}

// BatchVerifyCertificates checks many certificates against the ledger in one call
func (s *Server) BatchVerifyCertificates(w http.ResponseWriter, r *http.Request) {
	var req BatchVerifyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	results, err := s.certificates.BatchVerify(r.Context(), req.CertificateIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, BatchVerifyResponse{Results: results})
}

// GetRecipientCertificates lists the certificates of a recipient
func (s *Server) GetRecipientCertificates(w http.ResponseWriter, r *http.Request) {
	certs, err := s.certificates.GetForRecipient(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, certs)
}

// GetContract returns the registry contract address
func (s *Server) GetContract(w http.ResponseWriter, r *http.Request) {
	address, err := s.certificates.DeployAccreditationContract(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, ContractResponse{ContractAddress: address})
}
