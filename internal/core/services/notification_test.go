package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/scrolluniversity/certificate-node/internal/core/domain"
	"github.com/scrolluniversity/certificate-node/internal/core/event"
)

func TestNotification_SendCertificateNotification(t *testing.T) {
	type expected struct {
		verificationURL string
		courseName      string
		err             error
	}
	type testConfig struct {
		name          string
		certificateID string
		notifyErr     error
		expected      expected
	}
	env := newTestEnv()
	cert := env.issue(t, courseRequest())

	for _, tc := range []testConfig{
		{
			name:          "known certificate",
			certificateID: cert.CertificateID,
			expected:      expected{verificationURL: cert.VerificationURL, courseName: "Distributed Systems"},
		},
		{
			name:          "certificate unknown locally is still notified",
			certificateID: "CERT_UNKNOWN",
		},
		{
			name:          "webhook fails",
			certificateID: cert.CertificateID,
			notifyErr:     errors.New("status 502"),
			expected:      expected{verificationURL: cert.VerificationURL, courseName: "Distributed Systems", err: errors.New("status 502")},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			gateway := &notificationGatewayMock{}
			gateway.On("Notify", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
				return n.Topic == event.CertificateRevokedEvent &&
					n.CertificateID == tc.certificateID &&
					n.Status == domain.CertificateStatusRevoked &&
					n.Recipient == testRecipient &&
					n.InstitutionID == testInstitution &&
					n.Reason == "fraud" &&
					n.VerificationURL == tc.expected.verificationURL &&
					n.CourseName == tc.expected.courseName
			})).Return(tc.notifyErr).Once()

			ev := &event.CertificateLifecycle{
				CertificateID:    tc.certificateID,
				InstitutionID:    testInstitution,
				RecipientAddress: testRecipient,
				Status:           string(domain.CertificateStatusRevoked),
				Reason:           "fraud",
				OccurredAt:       testNow,
			}
			payload, err := ev.Marshal()
			require.NoError(t, err)

			err = NewNotification(gateway, env.repo).SendCertificateNotification(ctx, event.CertificateRevokedEvent, payload)
			if tc.expected.err != nil {
				assert.EqualError(t, err, tc.expected.err.Error())
			} else {
				assert.NoError(t, err)
			}
			gateway.AssertExpectations(t)
		})
	}
}

func TestNotification_SendCertificateNotification_BadPayload(t *testing.T) {
	gateway := &notificationGatewayMock{}
	err := NewNotification(gateway, newTestEnv().repo).SendCertificateNotification(context.Background(), event.CertificateIssuedEvent, []byte("not json"))
	assert.Error(t, err)
	gateway.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}
