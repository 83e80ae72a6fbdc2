package gateways

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrolluniversity/certificate-node/internal/core/domain"
	pkghttp "github.com/scrolluniversity/certificate-node/pkg/http"
)

func TestWebhookClient_Notify(t *testing.T) {
	var received []domain.Notification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var n domain.Notification
		if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		received = append(received, n)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	notification := &domain.Notification{
		ID:            uuid.New(),
		Topic:         "certificate.issued",
		CertificateID: "CERT_0123456789ABCDEF",
		Status:        domain.CertificateStatusActive,
		Recipient:     testRecipient,
		InstitutionID: "INST_1",
		SentAt:        time.Now().UTC(),
	}

	client := NewWebhookNotificationClient(pkghttp.NewRetryClient(0), srv.URL)
	require.NoError(t, client.Notify(context.Background(), notification))
	require.Len(t, received, 1)
	assert.Equal(t, notification.ID, received[0].ID)
	assert.Equal(t, notification.CertificateID, received[0].CertificateID)

	disabled := NewWebhookNotificationClient(pkghttp.NewRetryClient(0), "")
	require.NoError(t, disabled.Notify(context.Background(), notification))
	assert.Len(t, received, 1)
}

func TestWebhookClient_NotifyFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewWebhookNotificationClient(pkghttp.NewRetryClient(0), srv.URL)
	assert.Error(t, client.Notify(context.Background(), &domain.Notification{Topic: "certificate.revoked"}))
}
