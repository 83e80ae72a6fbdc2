package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scrolluniversity/certificate-node/internal/config"
	"github.com/scrolluniversity/certificate-node/internal/core/domain"
	"github.com/scrolluniversity/certificate-node/internal/core/ports"
	"github.com/scrolluniversity/certificate-node/internal/core/services"
	"github.com/scrolluniversity/certificate-node/internal/gateways"
	"github.com/scrolluniversity/certificate-node/internal/health"
	"github.com/scrolluniversity/certificate-node/internal/repositories"
	"github.com/scrolluniversity/certificate-node/pkg/pubsub"
)

const (
	testInstitution = "INST_SCROLL"
	testRecipient   = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"
	testContract    = "0x134B1BE34911E39A8397ec6289782989729807a4"
)

type testServer struct {
	*Server
	handler http.Handler
	ledger  *gateways.MemoryLedger
	store   *gateways.MemoryDocumentStore
	service ports.CertificateService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	cfg := &config.Configuration{
		ServerUrl:     "https://testing.env",
		HTTPBasicAuth: config.HTTPBasicAuth{User: "user", Password: "password"},
		Certificates: config.Certificates{
			VerificationBaseURL: "https://verify.testing.env",
			QRCodeBaseURL:       "https://qr.testing.env/",
		},
	}
	ledger := gateways.NewMemoryLedger(gateways.MemoryLedgerSeed{
		ContractAddress: testContract,
		Institutions:    []string{testInstitution},
	}, cfg.Certificates.VerificationBaseURL)
	store := gateways.NewMemoryDocumentStore("https://ipfs.testing.env")
	service := services.NewCertificate(repositories.NewCertificateInMemory(), ledger, store, pubsub.NewMock(), services.CertificateConfig{
		ContractAddress:     testContract,
		VerificationBaseURL: cfg.Certificates.VerificationBaseURL,
		QRCodeBaseURL:       cfg.Certificates.QRCodeBaseURL,
	})

	server := NewServer(cfg, service, health.New())
	handler, err := server.Handler(ctx)
	require.NoError(t, err)
	return &testServer{Server: server, handler: handler, ledger: ledger, store: store, service: service}
}

func (s *testServer) do(t *testing.T, method, url string, auth func() (string, string), body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(payload))
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != nil {
		req.SetBasicAuth(auth())
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) issue(t *testing.T, certType domain.CertificateType) *domain.Certificate {
	t.Helper()
	cert, err := s.service.Issue(context.Background(), &ports.IssueCertificateRequest{
		InstitutionID:           testInstitution,
		CertificateType:         certType,
		RecipientAddress:        testRecipient,
		CertificateData:         domain.CertificateData{"courseName": "Biblical Hebrew", "grade": "A"},
		RequiresJointValidation: certType.RequiresJointValidationByDefault(),
	})
	require.NoError(t, err)
	return cert
}

func authOk() (string, string) {
	return "user", "password"
}

func authWrong() (string, string) {
	return "", ""
}
