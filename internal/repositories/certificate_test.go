package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrolluniversity/certificate-node/internal/common"
	"github.com/scrolluniversity/certificate-node/internal/core/domain"
	"github.com/scrolluniversity/certificate-node/internal/core/ports"
	"github.com/scrolluniversity/certificate-node/pkg/cache"
)

func newTestCertificate(id string, recipient string, createdAt time.Time) *domain.Certificate {
	return &domain.Certificate{
		CertificateID:        id,
		CertificateType:      domain.CertificateTypeCourseCompletion,
		RecipientAddress:     recipient,
		InstitutionID:        "scroll-university",
		CertificateData:      domain.CertificateData{"course": "Greek I", "grade": "A"},
		IPFSHash:             "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG",
		BlockchainHash:       "0x4a8e5b3d1c2f4a8e5b3d1c2f4a8e5b3d1c2f4a8e5b3d1c2f4a8e5b3d1c2f4a8e",
		SmartContractAddress: "0x134B1BE34911E39A8397ec6289782989729807a4",
		CredentialID:         common.CredentialKeyHex(id),
		VerificationURL:      "https://verify.scrolluniversity.edu/verify/" + id,
		QRCode:               "https://qr/" + id,
		Status:               domain.CertificateStatusActive,
		ValidationStatus:     domain.ValidationStatusBothApproved,
		IssueDate:            createdAt,
		CreatedAt:            createdAt,
		UpdatedAt:            createdAt,
	}
}

func certificateRepositories(t *testing.T) map[string]ports.CertificateRepository {
	t.Helper()
	repos := map[string]ports.CertificateRepository{
		"memory": NewCertificateInMemory(),
		"cached": NewCachedCertificate(NewCertificateInMemory(), cache.NewMemoryCache(), time.Minute),
	}
	if storage != nil {
		repos["postgres"] = NewCertificate(storage)
	}
	return repos
}

func TestCertificate_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	for name, repo := range certificateRepositories(t) {
		t.Run(name, func(t *testing.T) {
			id := fmt.Sprintf("CERT_%016X", now.UnixNano())
			cert := newTestCertificate(id, "0xrecipient-"+name, now)
			cert.ExpiryDate = common.ToPointer(now.AddDate(1, 0, 0))
			require.NoError(t, repo.Save(ctx, cert))
			assert.ErrorIs(t, repo.Save(ctx, cert), ErrCertificateDuplication)

			got, err := repo.GetByID(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, cert.CertificateID, got.CertificateID)
			assert.Equal(t, cert.Status, got.Status)
			assert.Equal(t, "Greek I", got.CertificateData["course"])
			require.NotNil(t, got.ExpiryDate)
			assert.True(t, cert.ExpiryDate.Equal(*got.ExpiryDate))

			_, err = repo.GetByID(ctx, "CERT_MISSING")
			assert.ErrorIs(t, err, ErrCertificateDoesNotExist)
		})
	}
}

func TestCertificate_Update(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	for name, repo := range certificateRepositories(t) {
		t.Run(name, func(t *testing.T) {
			id := fmt.Sprintf("CERT_%016X", now.UnixNano()+1)
			cert := newTestCertificate(id, "0xrecipient-"+name, now)
			require.NoError(t, repo.Save(ctx, cert))

			// warm the cache of the decorated repository
			_, err := repo.GetByID(ctx, id)
			require.NoError(t, err)

			require.NoError(t, cert.Revoke("fraud", "QmRecord", now.Add(time.Minute)))
			require.NoError(t, repo.Update(ctx, cert))

			got, err := repo.GetByID(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, domain.CertificateStatusRevoked, got.Status)
			require.NotNil(t, got.RevocationReason)
			assert.Equal(t, "fraud", *got.RevocationReason)
			assert.Equal(t, "QmRecord", *got.RevocationRecordHash)

			missing := newTestCertificate("CERT_NOT_SAVED_"+name, "0x0", now)
			assert.ErrorIs(t, repo.Update(ctx, missing), ErrCertificateDoesNotExist)
		})
	}
}

func TestCertificate_Queries(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	for name, repo := range certificateRepositories(t) {
		t.Run(name, func(t *testing.T) {
			recipient := fmt.Sprintf("0xrecipient-%s-%d", name, now.UnixNano())
			base := now.UnixNano() + 100

			expired := newTestCertificate(fmt.Sprintf("CERT_%016X", base), recipient, now.Add(-2*time.Hour))
			expired.ExpiryDate = common.ToPointer(now.Add(-time.Hour))
			valid := newTestCertificate(fmt.Sprintf("CERT_%016X", base+1), recipient, now.Add(-time.Hour))
			valid.ExpiryDate = common.ToPointer(now.Add(time.Hour))
			pending := newTestCertificate(fmt.Sprintf("CERT_%016X", base+2), recipient, now)
			pending.Status = domain.CertificateStatusPendingValidation
			pending.ValidationStatus = domain.ValidationStatusPending
			pending.ExpiryDate = common.ToPointer(now.Add(-time.Hour))
			for _, c := range []*domain.Certificate{expired, valid, pending} {
				require.NoError(t, repo.Save(ctx, c))
			}

			byRecipient, err := repo.GetByRecipient(ctx, recipient)
			require.NoError(t, err)
			require.Len(t, byRecipient, 3)
			assert.Equal(t, expired.CertificateID, byRecipient[0].CertificateID)
			assert.Equal(t, pending.CertificateID, byRecipient[2].CertificateID)

			due, err := repo.GetActiveExpiringBefore(ctx, now)
			require.NoError(t, err)
			ids := make([]string, 0, len(due))
			for _, c := range due {
				ids = append(ids, c.CertificateID)
			}
			assert.Contains(t, ids, expired.CertificateID)
			assert.NotContains(t, ids, valid.CertificateID)
			assert.NotContains(t, ids, pending.CertificateID)
		})
	}
}

func TestCertificateInMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewCertificateInMemory()
	cert := newTestCertificate("CERT_00112233AABBCCDD", "0xabc", time.Now())
	require.NoError(t, repo.Save(ctx, cert))

	got, err := repo.GetByID(ctx, cert.CertificateID)
	require.NoError(t, err)
	got.Status = domain.CertificateStatusRevoked
	got.CertificateData["grade"] = "F"

	again, err := repo.GetByID(ctx, cert.CertificateID)
	require.NoError(t, err)
	assert.Equal(t, domain.CertificateStatusActive, again.Status)
	assert.Equal(t, "A", again.CertificateData["grade"])
}

func TestCertificatePostgres_RenewalLineage(t *testing.T) {
	s := requireStorage(t)
	ctx := context.Background()
	repo := NewCertificate(s)
	now := time.Now().UTC().Truncate(time.Millisecond)

	orig := newTestCertificate(fmt.Sprintf("CERT_%016X", now.UnixNano()+500), "0xlineage", now)
	require.NoError(t, repo.Save(ctx, orig))
	renewed := newTestCertificate(fmt.Sprintf("%s_renewed_%d", orig.CertificateID, now.UnixMilli()), "0xlineage", now)
	renewed.RenewedFrom = &orig.CertificateID
	renewed.RenewalReason = common.ToPointer("extension")
	require.NoError(t, repo.Save(ctx, renewed))

	got, err := repo.GetByID(ctx, renewed.CertificateID)
	require.NoError(t, err)
	require.NotNil(t, got.RenewedFrom)
	assert.Equal(t, orig.CertificateID, *got.RenewedFrom)
	assert.Equal(t, "extension", *got.RenewalReason)
}
