package gateways

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrolluniversity/certificate-node/internal/core/domain"
)

func TestNewMemoryLedgerFromFile(t *testing.T) {
	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "ledger.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
contractAddress: "0x134B1BE34911E39A8397ec6289782989729807a4"
accreditedInstitutions:
  - INST_1
  - INST_2
`), 0o600))

	ledger, err := NewMemoryLedgerFromFile(ctx, file, "https://verify.scrolluniversity.edu")
	require.NoError(t, err)

	for inst, expected := range map[string]bool{"INST_1": true, "INST_2": true, "INST_3": false} {
		ok, err := ledger.IsInstitutionAccredited(ctx, inst)
		require.NoError(t, err)
		assert.Equal(t, expected, ok, inst)
	}

	_, err = NewMemoryLedgerFromFile(ctx, filepath.Join(t.TempDir(), "missing.yaml"), "")
	assert.Error(t, err)
}

func TestMemoryLedger_Lifecycle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	ledger := NewMemoryLedger(MemoryLedgerSeed{ContractAddress: testContract, Institutions: []string{"INST_1"}}, "https://verify.scrolluniversity.edu")
	ledger.now = func() time.Time { return now }

	cred, err := ledger.IssueCredential(ctx, issueParams("CERT_A", false))
	require.NoError(t, err)
	assert.Equal(t, domain.CertificateStatusActive, cred.Status)
	assert.Equal(t, testContract, cred.SmartContractAddress)
	assert.Equal(t, "https://verify.scrolluniversity.edu/verify/CERT_A", cred.VerificationURL)

	_, err = ledger.IssueCredential(ctx, issueParams("CERT_A", false))
	assert.ErrorIs(t, err, ErrCredentialAlreadyIssued)

	joint, err := ledger.IssueCredential(ctx, issueParams("CERT_B", true))
	require.NoError(t, err)
	assert.Equal(t, domain.CertificateStatusPendingValidation, joint.Status)

	verification, err := ledger.VerifyCredential(ctx, cred.BlockchainHash)
	require.NoError(t, err)
	assert.True(t, verification.IsValid)
	assert.Equal(t, "INST_1", verification.InstitutionID)

	unknown, err := ledger.VerifyCredential(ctx, "0xdeadbeef")
	require.NoError(t, err)
	assert.False(t, unknown.IsValid)

	require.NoError(t, ledger.RevokeCredential(ctx, "CERT_A", "fraud"))
	assert.ErrorIs(t, ledger.RevokeCredential(ctx, "CERT_A", "fraud"), ErrCredentialAlreadyRevoked)
	assert.ErrorIs(t, ledger.RevokeCredential(ctx, "CERT_X", "fraud"), ErrCredentialNotFound)

	verification, err = ledger.VerifyCredential(ctx, cred.BlockchainHash)
	require.NoError(t, err)
	assert.False(t, verification.IsValid)
	assert.Equal(t, domain.CertificateStatusRevoked, verification.Status)

	valid, err := ledger.BatchVerifyCredentials(ctx, []string{"CERT_A", "CERT_B", "CERT_X"})
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, false}, valid)

	ids, err := ledger.GetStudentCredentials(ctx, testRecipient)
	require.NoError(t, err)
	assert.Equal(t, []string{"CERT_A", "CERT_B"}, ids)

	// expiry dates in issueParams are in 2028
	now = time.Date(2028, 1, 1, 0, 0, 0, 0, time.UTC)
	verification, err = ledger.VerifyCredential(ctx, joint.BlockchainHash)
	require.NoError(t, err)
	assert.False(t, verification.IsValid)
	assert.Equal(t, domain.CertificateStatusExpired, verification.Status)
}

func TestMemoryLedger_ValidationStatus(t *testing.T) {
	type expected struct {
		status     domain.CertificateStatus
		validation domain.ValidationStatus
		err        error
	}
	type testConfig struct {
		name     string
		joint    bool
		recorded []domain.ValidationStatus
		expected expected
	}
	for _, tc := range []testConfig{
		{
			name:     "minted without joint validation is both approved",
			expected: expected{status: domain.CertificateStatusActive, validation: domain.ValidationStatusBothApproved},
		},
		{
			name:     "minted with joint validation is pending",
			joint:    true,
			expected: expected{status: domain.CertificateStatusPendingValidation, validation: domain.ValidationStatusPending},
		},
		{
			name:     "one approval keeps it pending",
			joint:    true,
			recorded: []domain.ValidationStatus{domain.ValidationStatusInstitutionApproved},
			expected: expected{status: domain.CertificateStatusPendingValidation, validation: domain.ValidationStatusInstitutionApproved},
		},
		{
			name:     "both approvals activate it",
			joint:    true,
			recorded: []domain.ValidationStatus{domain.ValidationStatusRecipientApproved, domain.ValidationStatusBothApproved},
			expected: expected{status: domain.CertificateStatusActive, validation: domain.ValidationStatusBothApproved},
		},
		{
			name:     "rejection keeps it pending",
			joint:    true,
			recorded: []domain.ValidationStatus{domain.ValidationStatusRejected},
			expected: expected{status: domain.CertificateStatusPendingValidation, validation: domain.ValidationStatusRejected},
		},
		{
			name:     "active credential refuses validation updates",
			recorded: []domain.ValidationStatus{domain.ValidationStatusInstitutionApproved},
			expected: expected{status: domain.CertificateStatusActive, validation: domain.ValidationStatusBothApproved, err: ErrCredentialNotPending},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			ledger := NewMemoryLedger(MemoryLedgerSeed{ContractAddress: testContract, Institutions: []string{"INST_1"}}, "https://verify.scrolluniversity.edu")
			ledger.now = func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) }
			cred, err := ledger.IssueCredential(ctx, issueParams("CERT_V", tc.joint))
			require.NoError(t, err)

			var recordErr error
			for _, status := range tc.recorded {
				if err := ledger.RecordValidation(ctx, "CERT_V", status); err != nil {
					recordErr = err
				}
			}
			if tc.expected.err != nil {
				assert.ErrorIs(t, recordErr, tc.expected.err)
			} else {
				require.NoError(t, recordErr)
			}

			verification, err := ledger.VerifyCredential(ctx, cred.BlockchainHash)
			require.NoError(t, err)
			assert.Equal(t, tc.expected.status, verification.Status)
			assert.Equal(t, tc.expected.validation, verification.ValidationStatus)
		})
	}

	assert.ErrorIs(t, NewMemoryLedger(MemoryLedgerSeed{}, "").RecordValidation(context.Background(), "CERT_X", domain.ValidationStatusBothApproved), ErrCredentialNotFound)
}
