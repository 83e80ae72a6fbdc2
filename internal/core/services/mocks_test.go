package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/scrolluniversity/certificate-node/internal/core/domain"
)

type ledgerMock struct {
	mock.Mock
}

func (m *ledgerMock) IsInstitutionAccredited(ctx context.Context, institutionID string) (bool, error) {
	args := m.Called(ctx, institutionID)
	return args.Bool(0), args.Error(1)
}

func (m *ledgerMock) IssueCredential(ctx context.Context, params *domain.IssueCredentialParams) (*domain.LedgerCredential, error) {
	args := m.Called(ctx, params)
	cred, _ := args.Get(0).(*domain.LedgerCredential)
	return cred, args.Error(1)
}

func (m *ledgerMock) VerifyCredential(ctx context.Context, blockchainHash string) (*domain.LedgerVerification, error) {
	args := m.Called(ctx, blockchainHash)
	v, _ := args.Get(0).(*domain.LedgerVerification)
	return v, args.Error(1)
}

func (m *ledgerMock) RevokeCredential(ctx context.Context, certificateID string, reason string) error {
	return m.Called(ctx, certificateID, reason).Error(0)
}

func (m *ledgerMock) RecordValidation(ctx context.Context, certificateID string, status domain.ValidationStatus) error {
	return m.Called(ctx, certificateID, status).Error(0)
}

func (m *ledgerMock) BatchVerifyCredentials(ctx context.Context, certificateIDs []string) ([]bool, error) {
	args := m.Called(ctx, certificateIDs)
	valid, _ := args.Get(0).([]bool)
	return valid, args.Error(1)
}

func (m *ledgerMock) GetStudentCredentials(ctx context.Context, recipientAddress string) ([]string, error) {
	args := m.Called(ctx, recipientAddress)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *ledgerMock) GenerateVerificationURL(certificateID string) string {
	return m.Called(certificateID).String(0)
}

type documentStoreMock struct {
	mock.Mock
}

func (m *documentStoreMock) Upload(ctx context.Context, document any) (*domain.StoredDocument, error) {
	args := m.Called(ctx, document)
	doc, _ := args.Get(0).(*domain.StoredDocument)
	return doc, args.Error(1)
}

func (m *documentStoreMock) Retrieve(ctx context.Context, hash string) (*domain.RetrievedDocument, error) {
	args := m.Called(ctx, hash)
	doc, _ := args.Get(0).(*domain.RetrievedDocument)
	return doc, args.Error(1)
}

func (m *documentStoreMock) VerifyIntegrity(ctx context.Context, hash string) (bool, error) {
	args := m.Called(ctx, hash)
	return args.Bool(0), args.Error(1)
}

func (m *documentStoreMock) Pin(ctx context.Context, hash string) error {
	return m.Called(ctx, hash).Error(0)
}

type notificationGatewayMock struct {
	mock.Mock
}

func (m *notificationGatewayMock) Notify(ctx context.Context, notification *domain.Notification) error {
	return m.Called(ctx, notification).Error(0)
}
