package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/scrolluniversity/certificate-node/internal/core/domain"
	"github.com/scrolluniversity/certificate-node/internal/core/event"
	"github.com/scrolluniversity/certificate-node/internal/core/ports"
	"github.com/scrolluniversity/certificate-node/internal/log"
	"github.com/scrolluniversity/certificate-node/internal/qrlink"
	"github.com/scrolluniversity/certificate-node/internal/repositories"
	"github.com/scrolluniversity/certificate-node/pkg/pubsub"
	"github.com/scrolluniversity/certificate-node/pkg/rand"
)

const (
	certificateIDPrefix = "CERT_"
	certificateIDBytes  = 8
	renewedIDFormat     = "%s_renewed_%d"
)

// CertificateConfig holds the settings the certificate service needs
type CertificateConfig struct {
	ContractAddress     string
	VerificationBaseURL string
	QRCodeBaseURL       string
}

// Certificate orchestrates the ledger and the document store into one certificate state
type Certificate struct {
	repo      ports.CertificateRepository
	ledger    ports.Ledger
	store     ports.DocumentStore
	publisher pubsub.Publisher
	cfg       CertificateConfig
	now       func() time.Time
	newID     func() (string, error)
}

// NewCertificate returns a certificate service. publisher can be nil, in that case no lifecycle events are sent.
func NewCertificate(repo ports.CertificateRepository, ledger ports.Ledger, store ports.DocumentStore, publisher pubsub.Publisher, cfg CertificateConfig) *Certificate {
	return &Certificate{
		repo:      repo,
		ledger:    ledger,
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
		newID: func() (string, error) {
			return rand.HexID(certificateIDPrefix, certificateIDBytes)
		},
	}
}

// issueParams carries what differs between a fresh issuance and a renewal
type issueParams struct {
	certificateID string
	renewedFrom   *string
	renewalReason *string
	eventTopic    string
}

// Issue issues a new certificate. Nothing is uploaded nor minted if the institution is not accredited.
func (c *Certificate) Issue(ctx context.Context, req *ports.IssueCertificateRequest) (*domain.Certificate, error) {
	if err := validateIssueRequest(req); err != nil {
		return nil, err
	}
	id, err := c.newID()
	if err != nil {
		log.Error(ctx, "generating certificate id", "err", err)
		return nil, stageErr(StageIssue, err)
	}
	return c.issue(ctx, req, issueParams{certificateID: id, eventTopic: event.CertificateIssuedEvent})
}

func (c *Certificate) issue(ctx context.Context, req *ports.IssueCertificateRequest, params issueParams) (*domain.Certificate, error) {
	ctx = log.With(ctx, "certificateId", params.certificateID, "institutionId", req.InstitutionID)

	accredited, err := c.ledger.IsInstitutionAccredited(ctx, req.InstitutionID)
	if err != nil {
		log.Error(ctx, "checking institution accreditation", "err", err)
		return nil, stageErr(StageIssue, err)
	}
	if !accredited {
		log.Warn(ctx, "issuance refused, institution not accredited")
		return nil, stageErr(StageIssue, ErrInstitutionNotAccredited)
	}

	data := req.CertificateData
	if data == nil {
		data = domain.CertificateData{}
	}
	stored, err := c.store.Upload(ctx, data)
	if err != nil {
		log.Error(ctx, "uploading certificate data", "err", err)
		return nil, stageErr(StageIssue, err)
	}
	if err := c.store.Pin(ctx, stored.Hash); err != nil {
		log.Error(ctx, "pinning certificate data", "err", err, "hash", stored.Hash)
		return nil, stageErr(StageIssue, err)
	}

	now := c.now().UTC()
	var expiry *time.Time
	if req.ValidityPeriod != nil {
		e := now.AddDate(0, *req.ValidityPeriod, 0)
		expiry = &e
	}

	credential, err := c.ledger.IssueCredential(ctx, &domain.IssueCredentialParams{
		CertificateID:           params.certificateID,
		RecipientAddress:        req.RecipientAddress,
		InstitutionID:           req.InstitutionID,
		CertificateType:         req.CertificateType,
		IPFSHash:                stored.Hash,
		ExpiryDate:              expiry,
		RequiresJointValidation: req.RequiresJointValidation,
	})
	if err != nil {
		// the uploaded document stays orphaned, a retry with the same data reuses its address
		log.Error(ctx, "minting credential", "err", err, "hash", stored.Hash)
		return nil, stageErr(StageIssue, err)
	}

	cert := &domain.Certificate{
		CertificateID:           params.certificateID,
		CertificateType:         req.CertificateType,
		RecipientAddress:        req.RecipientAddress,
		InstitutionID:           req.InstitutionID,
		CertificateData:         data,
		IPFSHash:                stored.Hash,
		BlockchainHash:          credential.BlockchainHash,
		SmartContractAddress:    credential.SmartContractAddress,
		CredentialID:            credential.CredentialID,
		VerificationURL:         qrlink.NewVerificationURL(c.cfg.VerificationBaseURL, params.certificateID),
		QRCode:                  qrlink.NewQRCode(c.cfg.QRCodeBaseURL, c.cfg.VerificationBaseURL, params.certificateID),
		Status:                  domain.CertificateStatusActive,
		ValidationStatus:        domain.InitialValidationStatus(req.RequiresJointValidation),
		RequiresJointValidation: req.RequiresJointValidation,
		IssueDate:               credential.IssueDate,
		ExpiryDate:              expiry,
		RenewedFrom:             params.renewedFrom,
		RenewalReason:           params.renewalReason,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	if cert.IssueDate.IsZero() {
		cert.IssueDate = now
	}
	if req.RequiresJointValidation {
		cert.Status = domain.CertificateStatusPendingValidation
	}

	if err := c.repo.Save(ctx, cert); err != nil {
		log.Error(ctx, "saving certificate", "err", err)
		return nil, stageErr(StageIssue, err)
	}

	log.Info(ctx, "certificate issued", "status", cert.Status, "blockchainHash", cert.BlockchainHash, "ipfsHash", cert.IPFSHash)
	c.publish(ctx, params.eventTopic, cert, "")
	return cert, nil
}

// GetByID returns the locally stored certificate
func (c *Certificate) GetByID(ctx context.Context, certificateID string) (*domain.Certificate, error) {
	cert, err := c.repo.GetByID(ctx, certificateID)
	if errors.Is(err, repositories.ErrCertificateDoesNotExist) {
		return nil, ErrCertificateNotFound
	}
	if err != nil {
		log.Error(ctx, "loading certificate", "err", err, "certificateId", certificateID)
		return nil, err
	}
	return cert, nil
}

// Verify checks the certificate against the ledger and the document store. Both checks are always
// done, the locally stored status is never trusted. An invalid certificate is a result, not an error.
func (c *Certificate) Verify(ctx context.Context, certificateID string) (*domain.VerificationResult, error) {
	cert, err := c.GetByID(ctx, certificateID)
	if err != nil {
		return nil, err
	}
	ctx = log.With(ctx, "certificateId", certificateID)

	ledgerResult, err := c.ledger.VerifyCredential(ctx, cert.BlockchainHash)
	if err != nil {
		log.Error(ctx, "verifying credential on ledger", "err", err, "blockchainHash", cert.BlockchainHash)
		return nil, stageErr(StageVerify, err)
	}
	ledgerCheckedAt := c.now().UTC()

	doc, err := c.store.Retrieve(ctx, cert.IPFSHash)
	if err != nil {
		log.Error(ctx, "retrieving certificate document", "err", err, "hash", cert.IPFSHash)
		return nil, stageErr(StageVerify, err)
	}
	intact, err := c.store.VerifyIntegrity(ctx, cert.IPFSHash)
	if err != nil {
		log.Error(ctx, "verifying document integrity", "err", err, "hash", cert.IPFSHash)
		return nil, stageErr(StageVerify, err)
	}
	documentCheckedAt := c.now().UTC()

	var content domain.CertificateData
	if err := json.Unmarshal(doc.Content, &content); err != nil {
		log.Warn(ctx, "certificate document is not a json object", "err", err, "hash", cert.IPFSHash)
		content = nil
	}

	result := &domain.VerificationResult{
		CertificateID:          certificateID,
		IsValid:                ledgerResult.IsValid && intact,
		BlockchainVerification: *ledgerResult,
		IPFSVerification: domain.DocumentVerification{
			IsValid: intact,
			Hash:    cert.IPFSHash,
			Content: content,
		},
		ValidationHistory: []domain.VerificationEvent{
			{Source: domain.VerificationSourceLedger, IsValid: ledgerResult.IsValid, Timestamp: ledgerCheckedAt},
			{Source: domain.VerificationSourceDocument, IsValid: intact, Timestamp: documentCheckedAt},
		},
		VerifiedAt: documentCheckedAt,
	}
	log.Info(ctx, "certificate verified", "isValid", result.IsValid, "ledgerValid", ledgerResult.IsValid, "documentValid", intact)
	return result, nil
}

// Renew issues a new certificate carrying the data of a valid existing one. The original is not modified.
func (c *Certificate) Renew(ctx context.Context, req *ports.RenewCertificateRequest) (*domain.Certificate, error) {
	if req == nil || req.CertificateID == "" || req.NewValidityPeriod <= 0 {
		return nil, fmt.Errorf("%w: certificate id and a positive validity period are required", ErrInvalidRequest)
	}
	orig, err := c.GetByID(ctx, req.CertificateID)
	if err != nil {
		return nil, err
	}

	verification, err := c.Verify(ctx, orig.CertificateID)
	if err != nil {
		return nil, err
	}
	if !verification.IsValid {
		log.Warn(ctx, "renewal refused, certificate failed verification", "certificateId", orig.CertificateID)
		return nil, ErrCannotRenewInvalidCertificate
	}

	validity := req.NewValidityPeriod
	issueReq := &ports.IssueCertificateRequest{
		InstitutionID:           orig.InstitutionID,
		CertificateType:         orig.CertificateType,
		RecipientAddress:        orig.RecipientAddress,
		CertificateData:         orig.CertificateData.Merge(req.UpdatedData),
		ValidityPeriod:          &validity,
		RequiresJointValidation: orig.RequiresJointValidation,
	}
	reason := req.RenewalReason
	return c.issue(ctx, issueReq, issueParams{
		certificateID: fmt.Sprintf(renewedIDFormat, orig.CertificateID, c.now().UnixMilli()),
		renewedFrom:   &orig.CertificateID,
		renewalReason: &reason,
		eventTopic:    event.CertificateRenewedEvent,
	})
}

// Revoke flips the ledger status and stores a revocation record in the document store.
// The revocation is not reported as done unless the ledger accepted it.
func (c *Certificate) Revoke(ctx context.Context, req *ports.RevokeCertificateRequest) error {
	if req == nil || req.CertificateID == "" || strings.TrimSpace(req.Reason) == "" {
		return fmt.Errorf("%w: certificate id and reason are required", ErrInvalidRequest)
	}
	cert, err := c.GetByID(ctx, req.CertificateID)
	if err != nil {
		return err
	}
	if cert.IsRevoked() {
		return ErrCertificateAlreadyRevoked
	}
	ctx = log.With(ctx, "certificateId", cert.CertificateID)

	if err := c.ledger.RevokeCredential(ctx, cert.CertificateID, req.Reason); err != nil {
		log.Error(ctx, "revoking credential on ledger", "err", err)
		return stageErr(StageRevoke, err)
	}

	now := c.now().UTC()
	record := domain.NewRevocationRecord(cert.CertificateID, req.Reason, req.RevokedBy, req.EffectiveDate, now)
	stored, err := c.store.Upload(ctx, record)
	if err != nil {
		log.Error(ctx, "uploading revocation record", "err", err, "recordId", record.ID)
		return stageErr(StageRevoke, err)
	}
	if err := c.store.Pin(ctx, stored.Hash); err != nil {
		log.Error(ctx, "pinning revocation record", "err", err, "hash", stored.Hash)
		return stageErr(StageRevoke, err)
	}

	if err := cert.Revoke(req.Reason, stored.Hash, now); err != nil {
		return err
	}
	if err := c.repo.Update(ctx, cert); err != nil {
		log.Error(ctx, "updating revoked certificate", "err", err)
		return stageErr(StageRevoke, err)
	}

	log.Info(ctx, "certificate revoked", "revokedBy", req.RevokedBy, "recordHash", stored.Hash)
	c.publish(ctx, event.CertificateRevokedEvent, cert, req.Reason)
	return nil
}

// BatchVerify asks the ledger about every id in one call. A ledger error fails the whole batch.
func (c *Certificate) BatchVerify(ctx context.Context, certificateIDs []string) (map[string]bool, error) {
	result := make(map[string]bool, len(certificateIDs))
	if len(certificateIDs) == 0 {
		return result, nil
	}
	valid, err := c.ledger.BatchVerifyCredentials(ctx, certificateIDs)
	if err != nil {
		log.Error(ctx, "batch verifying credentials", "err", err, "count", len(certificateIDs))
		return nil, stageErr(StageVerify, err)
	}
	if len(valid) != len(certificateIDs) {
		err := fmt.Errorf("ledger returned %d results for %d credentials", len(valid), len(certificateIDs))
		log.Error(ctx, "batch verifying credentials", "err", err)
		return nil, stageErr(StageVerify, err)
	}
	for i, id := range certificateIDs {
		result[id] = valid[i]
	}
	return result, nil
}

// GetForRecipient returns the certificates the ledger holds for the recipient, in ledger order
func (c *Certificate) GetForRecipient(ctx context.Context, recipientAddress string) ([]*domain.Certificate, error) {
	ids, err := c.ledger.GetStudentCredentials(ctx, recipientAddress)
	if err != nil {
		log.Error(ctx, "getting recipient credentials", "err", err, "recipient", recipientAddress)
		return nil, err
	}
	local, err := c.repo.GetByRecipient(ctx, recipientAddress)
	if err != nil {
		log.Error(ctx, "getting recipient certificates", "err", err, "recipient", recipientAddress)
		return nil, err
	}
	byID := make(map[string]*domain.Certificate, len(local))
	for _, cert := range local {
		byID[cert.CertificateID] = cert
	}

	// ledger order wins; ids missing from the recipient rows fall back to a lookup by id
	certs := make([]*domain.Certificate, 0, len(ids))
	for _, id := range ids {
		if cert, ok := byID[id]; ok {
			certs = append(certs, cert)
			continue
		}
		cert, err := c.GetByID(ctx, id)
		if errors.Is(err, ErrCertificateNotFound) {
			log.Warn(ctx, "ledger credential unknown locally", "certificateId", id, "recipient", recipientAddress)
			return nil, fmt.Errorf("%w: %s", ErrCertificateNotFound, id)
		}
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}
	return certs, nil
}

// Approve registers the approval of a party on a certificate that requires joint validation
func (c *Certificate) Approve(ctx context.Context, certificateID string, party domain.ValidationParty) (*domain.Certificate, error) {
	if party != domain.ValidationPartyInstitution && party != domain.ValidationPartyRecipient {
		return nil, fmt.Errorf("%w: unknown validation party %q", ErrInvalidRequest, party)
	}
	cert, err := c.GetByID(ctx, certificateID)
	if err != nil {
		return nil, err
	}
	if err := cert.Approve(party, c.now().UTC()); err != nil {
		return nil, err
	}
	if err := c.ledger.RecordValidation(ctx, cert.CertificateID, cert.ValidationStatus); err != nil {
		log.Error(ctx, "recording approval on ledger", "err", err, "certificateId", certificateID, "party", party)
		return nil, stageErr(StageApprove, err)
	}
	if err := c.repo.Update(ctx, cert); err != nil {
		log.Error(ctx, "updating certificate validation", "err", err, "certificateId", certificateID)
		return nil, err
	}
	if cert.Status == domain.CertificateStatusActive {
		c.publish(ctx, event.CertificateActivatedEvent, cert, "")
	}
	return cert, nil
}

// Reject marks the joint validation of a pending certificate as rejected
func (c *Certificate) Reject(ctx context.Context, certificateID string) (*domain.Certificate, error) {
	cert, err := c.GetByID(ctx, certificateID)
	if err != nil {
		return nil, err
	}
	if err := cert.Reject(c.now().UTC()); err != nil {
		return nil, err
	}
	if err := c.ledger.RecordValidation(ctx, cert.CertificateID, cert.ValidationStatus); err != nil {
		log.Error(ctx, "recording rejection on ledger", "err", err, "certificateId", certificateID)
		return nil, stageErr(StageReject, err)
	}
	if err := c.repo.Update(ctx, cert); err != nil {
		log.Error(ctx, "updating certificate validation", "err", err, "certificateId", certificateID)
		return nil, err
	}
	return cert, nil
}

// DeployAccreditationContract returns the address of the configured registry contract
func (c *Certificate) DeployAccreditationContract(ctx context.Context) (string, error) {
	if c.cfg.ContractAddress == "" {
		log.Error(ctx, "registry contract address is not configured")
		return "", ErrContractAddressNotConfigured
	}
	return c.cfg.ContractAddress, nil
}

func (c *Certificate) publish(ctx context.Context, topic string, cert *domain.Certificate, reason string) {
	if c.publisher == nil {
		return
	}
	ev := &event.CertificateLifecycle{
		CertificateID:    cert.CertificateID,
		InstitutionID:    cert.InstitutionID,
		RecipientAddress: cert.RecipientAddress,
		Status:           string(cert.Status),
		Reason:           reason,
		OccurredAt:       c.now().UTC(),
	}
	if cert.RenewedFrom != nil {
		ev.RenewedFrom = *cert.RenewedFrom
	}
	if err := c.publisher.Publish(ctx, topic, ev); err != nil {
		log.Error(ctx, "publishing certificate event", "err", err, "topic", topic, "certificateId", cert.CertificateID)
	}
}

func validateIssueRequest(req *ports.IssueCertificateRequest) error {
	switch {
	case req == nil:
		return fmt.Errorf("%w: empty request", ErrInvalidRequest)
	case strings.TrimSpace(req.InstitutionID) == "":
		return fmt.Errorf("%w: institution id is required", ErrInvalidRequest)
	case strings.TrimSpace(req.RecipientAddress) == "":
		return fmt.Errorf("%w: recipient address is required", ErrInvalidRequest)
	case !req.CertificateType.IsValid():
		return fmt.Errorf("%w: unknown certificate type %q", ErrInvalidRequest, req.CertificateType)
	case req.ValidityPeriod != nil && *req.ValidityPeriod <= 0:
		return fmt.Errorf("%w: validity period must be positive", ErrInvalidRequest)
	}
	return nil
}
