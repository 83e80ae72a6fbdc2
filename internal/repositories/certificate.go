package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"

	"github.com/scrolluniversity/certificate-node/internal/core/domain"
	"github.com/scrolluniversity/certificate-node/internal/db"
)

const uniqueViolation = "23505"

var (
	// ErrCertificateDoesNotExist certificate does not exist
	ErrCertificateDoesNotExist = errors.New("certificate does not exist")
	// ErrCertificateDuplication a certificate with the same id already exists
	ErrCertificateDuplication = errors.New("certificate already exists")
)

const certificateColumns = `id, certificate_type, recipient_address, institution_id, certificate_data, ipfs_hash,
	blockchain_hash, smart_contract_address, credential_id, verification_url, qr_code, status, validation_status,
	requires_joint_validation, issue_date, expiry_date, renewed_from, renewal_reason, revoked_at, revocation_reason,
	revocation_record_hash, created_at, updated_at`

type certificate struct {
	conn *db.Storage
}

// NewCertificate returns a new certificate repository backed by postgres
func NewCertificate(conn *db.Storage) *certificate {
	return &certificate{conn: conn}
}

// Save stores a new certificate
func (r *certificate) Save(ctx context.Context, cert *domain.Certificate) error {
	const insertCertificate = `INSERT INTO certificates (` + certificateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`

	data, err := toJSONB(cert.CertificateData)
	if err != nil {
		return err
	}
	_, err = r.conn.Pgx.Exec(ctx, insertCertificate,
		cert.CertificateID,
		string(cert.CertificateType),
		cert.RecipientAddress,
		cert.InstitutionID,
		data,
		cert.IPFSHash,
		cert.BlockchainHash,
		cert.SmartContractAddress,
		cert.CredentialID,
		cert.VerificationURL,
		cert.QRCode,
		string(cert.Status),
		string(cert.ValidationStatus),
		cert.RequiresJointValidation,
		cert.IssueDate,
		cert.ExpiryDate,
		cert.RenewedFrom,
		cert.RenewalReason,
		cert.RevokedAt,
		cert.RevocationReason,
		cert.RevocationRecordHash,
		cert.CreatedAt,
		cert.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrCertificateDuplication
	}
	return err
}

// Update stores the mutable part of a certificate: lifecycle, validation and revocation fields
func (r *certificate) Update(ctx context.Context, cert *domain.Certificate) error {
	const updateCertificate = `UPDATE certificates
		SET status = $2, validation_status = $3, revoked_at = $4, revocation_reason = $5,
			revocation_record_hash = $6, updated_at = $7
		WHERE id = $1`

	tag, err := r.conn.Pgx.Exec(ctx, updateCertificate,
		cert.CertificateID,
		string(cert.Status),
		string(cert.ValidationStatus),
		cert.RevokedAt,
		cert.RevocationReason,
		cert.RevocationRecordHash,
		cert.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCertificateDoesNotExist
	}
	return nil
}

// GetByID searches and returns a certificate by id
func (r *certificate) GetByID(ctx context.Context, certificateID string) (*domain.Certificate, error) {
	const byID = `SELECT ` + certificateColumns + ` FROM certificates WHERE id = $1`
	cert, err := scanCertificate(r.conn.Pgx.QueryRow(ctx, byID, certificateID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCertificateDoesNotExist
	}
	return cert, err
}

// GetByRecipient returns the certificates of a recipient, oldest first
func (r *certificate) GetByRecipient(ctx context.Context, recipientAddress string) ([]*domain.Certificate, error) {
	const byRecipient = `SELECT ` + certificateColumns + ` FROM certificates
		WHERE recipient_address = $1
		ORDER BY created_at ASC`
	return queryCertificates(ctx, r.conn.Pgx, byRecipient, recipientAddress)
}

// GetActiveExpiringBefore returns the ACTIVE certificates with an expiry date not after t
func (r *certificate) GetActiveExpiringBefore(ctx context.Context, t time.Time) ([]*domain.Certificate, error) {
	const expiring = `SELECT ` + certificateColumns + ` FROM certificates
		WHERE status = 'ACTIVE' AND expiry_date IS NOT NULL AND expiry_date <= $1
		ORDER BY expiry_date ASC`
	return queryCertificates(ctx, r.conn.Pgx, expiring, t)
}

func queryCertificates(ctx context.Context, conn db.Querier, sql string, args ...interface{}) ([]*domain.Certificate, error) {
	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	certs := make([]*domain.Certificate, 0)
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}
	return certs, rows.Err()
}

func scanCertificate(row pgx.Row) (*domain.Certificate, error) {
	var (
		cert             domain.Certificate
		certType         string
		status           string
		validationStatus string
		data             pgtype.JSONB
	)
	err := row.Scan(
		&cert.CertificateID,
		&certType,
		&cert.RecipientAddress,
		&cert.InstitutionID,
		&data,
		&cert.IPFSHash,
		&cert.BlockchainHash,
		&cert.SmartContractAddress,
		&cert.CredentialID,
		&cert.VerificationURL,
		&cert.QRCode,
		&status,
		&validationStatus,
		&cert.RequiresJointValidation,
		&cert.IssueDate,
		&cert.ExpiryDate,
		&cert.RenewedFrom,
		&cert.RenewalReason,
		&cert.RevokedAt,
		&cert.RevocationReason,
		&cert.RevocationRecordHash,
		&cert.CreatedAt,
		&cert.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	cert.CertificateType = domain.CertificateType(certType)
	cert.Status = domain.CertificateStatus(status)
	cert.ValidationStatus = domain.ValidationStatus(validationStatus)
	if data.Status == pgtype.Present {
		if err := json.Unmarshal(data.Bytes, &cert.CertificateData); err != nil {
			return nil, err
		}
	}
	return &cert, nil
}

func toJSONB(data domain.CertificateData) (pgtype.JSONB, error) {
	var jsonb pgtype.JSONB
	if data == nil {
		data = domain.CertificateData{}
	}
	if err := jsonb.Set(map[string]any(data)); err != nil {
		return jsonb, err
	}
	return jsonb, nil
}
