package gateways

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/scrolluniversity/certificate-node/internal/common"
	"github.com/scrolluniversity/certificate-node/internal/core/domain"
	"github.com/scrolluniversity/certificate-node/internal/kms"
	"github.com/scrolluniversity/certificate-node/internal/log"
	"github.com/scrolluniversity/certificate-node/internal/qrlink"
	"github.com/scrolluniversity/certificate-node/pkg/blockchain/eth"
)

// ErrInvalidRecipientAddress is returned when the recipient is not an account address
var ErrInvalidRecipientAddress = errors.New("invalid recipient address")

// registryBackend is the part of eth.Client the registry gateway needs
type registryBackend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CreateRawTx(ctx context.Context, txParams eth.TransactionParams) (*types.Transaction, error)
	SendRawTx(ctx context.Context, tx *types.Transaction) error
	WaitTransactionReceiptByID(ctx context.Context, txID string) (*types.Receipt, error)
	GetTransactionReceiptByID(ctx context.Context, txID string) (*types.Receipt, error)
	CallContract(ctx context.Context, to ethCommon.Address, payload []byte) ([]byte, error)
}

// EthLedgerConfig holds the registry gateway settings
type EthLedgerConfig struct {
	ContractAddress     string
	PublishingKeyPath   string
	VerificationBaseURL string
}

// EthLedger talks to the CertificateRegistry contract. Write calls are signed with the publishing key.
type EthLedger struct {
	rw              *sync.Mutex
	backend         registryBackend
	registry        *eth.Registry
	contract        ethCommon.Address
	kms             kms.KMSType
	publishingKeyID kms.KeyID
	verificationURL string
	now             func() time.Time
}

// NewEthLedger creates a registry gateway over an eth client
func NewEthLedger(backend registryBackend, keyStore kms.KMSType, cfg EthLedgerConfig) (*EthLedger, error) {
	if cfg.PublishingKeyPath == "" {
		return nil, errors.New("publishing key path is required")
	}
	if !ethCommon.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid registry contract address %q", cfg.ContractAddress)
	}
	registry, err := eth.NewRegistry()
	if err != nil {
		return nil, err
	}
	return &EthLedger{
		rw:       &sync.Mutex{},
		backend:  backend,
		registry: registry,
		contract: ethCommon.HexToAddress(cfg.ContractAddress),
		kms:      keyStore,
		publishingKeyID: kms.KeyID{
			Type: kms.KeyTypeEthereum,
			ID:   cfg.PublishingKeyPath,
		},
		verificationURL: cfg.VerificationBaseURL,
		now:             time.Now,
	}, nil
}

// IsInstitutionAccredited asks the registry whether the institution can issue
func (l *EthLedger) IsInstitutionAccredited(ctx context.Context, institutionID string) (bool, error) {
	out, err := l.call(ctx, eth.MethodIsInstitutionAccredited, institutionID)
	if err != nil {
		return false, err
	}
	return l.registry.UnpackBool(eth.MethodIsInstitutionAccredited, out)
}

// IssueCredential mints the credential and waits for the receipt
func (l *EthLedger) IssueCredential(ctx context.Context, params *domain.IssueCredentialParams) (*domain.LedgerCredential, error) {
	if !ethCommon.IsHexAddress(params.RecipientAddress) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRecipientAddress, params.RecipientAddress)
	}
	var expiry uint64
	if params.ExpiryDate != nil {
		expiry = uint64(params.ExpiryDate.Unix())
	}
	payload, err := l.registry.Pack(eth.MethodIssueCredential,
		common.CredentialKey(params.CertificateID),
		params.CertificateID,
		ethCommon.HexToAddress(params.RecipientAddress),
		params.InstitutionID,
		params.CertificateType.Code(),
		params.IPFSHash,
		expiry,
		params.RequiresJointValidation,
	)
	if err != nil {
		return nil, err
	}

	receipt, err := l.transact(ctx, payload)
	if err != nil {
		return nil, err
	}

	status := domain.CertificateStatusActive
	if params.RequiresJointValidation {
		status = domain.CertificateStatusPendingValidation
	}
	return &domain.LedgerCredential{
		CredentialID:         common.CredentialKeyHex(params.CertificateID),
		BlockchainHash:       receipt.TxHash.Hex(),
		SmartContractAddress: l.contract.Hex(),
		VerificationURL:      l.GenerateVerificationURL(params.CertificateID),
		IssueDate:            l.now().UTC(),
		Status:               status,
	}, nil
}

// VerifyCredential reads the credential minted by the given transaction. Unknown or failed
// transactions give an invalid result, not an error.
func (l *EthLedger) VerifyCredential(ctx context.Context, blockchainHash string) (*domain.LedgerVerification, error) {
	receipt, err := l.backend.GetTransactionReceiptByID(ctx, blockchainHash)
	if errors.Is(err, eth.ErrReceiptNotReceived) {
		return &domain.LedgerVerification{IsValid: false}, nil
	}
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		log.Warn(ctx, "credential transaction failed", "tx", blockchainHash)
		return &domain.LedgerVerification{IsValid: false}, nil
	}

	issued, err := l.registry.FindCredentialIssued(l.contract, receipt.Logs)
	if errors.Is(err, eth.ErrEventNotFound) {
		log.Warn(ctx, "transaction did not issue a credential", "tx", blockchainHash)
		return &domain.LedgerVerification{IsValid: false}, nil
	}
	if err != nil {
		return nil, err
	}

	out, err := l.call(ctx, eth.MethodGetCredential, issued.Key)
	if err != nil {
		return nil, err
	}
	cred, err := l.registry.UnpackCredential(out)
	if err != nil {
		return nil, err
	}
	if cred.CertificateId != issued.CertificateID {
		return &domain.LedgerVerification{IsValid: false}, nil
	}

	status, err := domain.CertificateStatusFromCode(cred.Status)
	if err != nil {
		return nil, err
	}
	validation, err := domain.ValidationStatusFromCode(cred.ValidationStatus)
	if err != nil {
		return nil, err
	}
	issueDate := time.Unix(int64(cred.IssueDate), 0).UTC()
	return &domain.LedgerVerification{
		IsValid:          cred.Valid && status != domain.CertificateStatusRevoked,
		Status:           status,
		ValidationStatus: validation,
		IssueDate:        &issueDate,
		InstitutionID:    cred.InstitutionId,
	}, nil
}

// RevokeCredential flips the registry status of the credential
func (l *EthLedger) RevokeCredential(ctx context.Context, certificateID string, reason string) error {
	payload, err := l.registry.Pack(eth.MethodRevokeCredential, common.CredentialKey(certificateID), reason)
	if err != nil {
		return err
	}
	_, err = l.transact(ctx, payload)
	return err
}

// RecordValidation stores the joint validation progress on the registry. The contract activates the
// credential on BOTH_APPROVED and reverts for credentials that are not pending.
func (l *EthLedger) RecordValidation(ctx context.Context, certificateID string, status domain.ValidationStatus) error {
	code, err := status.Code()
	if err != nil {
		return err
	}
	payload, err := l.registry.Pack(eth.MethodRecordValidation, common.CredentialKey(certificateID), code)
	if err != nil {
		return err
	}
	_, err = l.transact(ctx, payload)
	return err
}

// BatchVerifyCredentials checks every credential in one read call
func (l *EthLedger) BatchVerifyCredentials(ctx context.Context, certificateIDs []string) ([]bool, error) {
	keys := make([][32]byte, len(certificateIDs))
	for i, id := range certificateIDs {
		keys[i] = common.CredentialKey(id)
	}
	out, err := l.call(ctx, eth.MethodBatchVerify, keys)
	if err != nil {
		return nil, err
	}
	return l.registry.UnpackBools(eth.MethodBatchVerify, out)
}

// GetStudentCredentials lists the certificate ids held by the recipient, in registry order
func (l *EthLedger) GetStudentCredentials(ctx context.Context, recipientAddress string) ([]string, error) {
	if !ethCommon.IsHexAddress(recipientAddress) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRecipientAddress, recipientAddress)
	}
	out, err := l.call(ctx, eth.MethodGetStudentCredentials, ethCommon.HexToAddress(recipientAddress))
	if err != nil {
		return nil, err
	}
	return l.registry.UnpackStrings(eth.MethodGetStudentCredentials, out)
}

// GenerateVerificationURL returns the public verification page of the certificate
func (l *EthLedger) GenerateVerificationURL(certificateID string) string {
	return qrlink.NewVerificationURL(l.verificationURL, certificateID)
}

func (l *EthLedger) call(ctx context.Context, method string, args ...interface{}) ([]byte, error) {
	payload, err := l.registry.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	out, err := l.backend.CallContract(ctx, l.contract, payload)
	if err != nil {
		log.Error(ctx, "registry call failed", "err", err, "method", method)
		return nil, err
	}
	return out, nil
}

// transact signs and sends a registry transaction and waits for a successful receipt.
// Sends are serialized so the pending nonce is not reused.
func (l *EthLedger) transact(ctx context.Context, payload []byte) (*types.Receipt, error) {
	l.rw.Lock()
	defer l.rw.Unlock()

	fromAddress, err := l.getAddressForTxInitiator(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := l.backend.CreateRawTx(ctx, eth.TransactionParams{
		FromAddress: fromAddress,
		ToAddress:   l.contract,
		Payload:     payload,
	})
	if err != nil {
		return nil, err
	}

	cid, err := l.backend.ChainID(ctx)
	if err != nil {
		return nil, err
	}

	s := types.LatestSignerForChainID(cid)
	h := s.Hash(tx)
	sig, err := l.kms.Sign(ctx, l.publishingKeyID, h[:])
	if err != nil {
		return nil, err
	}

	signedTx, err := tx.WithSignature(s, sig)
	if err != nil {
		return nil, fmt.Errorf("failed sign transaction: %w", err)
	}

	if err := l.backend.SendRawTx(ctx, signedTx); err != nil {
		return nil, err
	}

	txID := signedTx.Hash().Hex()
	log.Debug(ctx, "registry transaction sent", "tx", txID, "tip", signedTx.GasTipCap(), "feeCap", signedTx.GasFeeCap())

	receipt, err := l.backend.WaitTransactionReceiptByID(ctx, txID)
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		log.Error(ctx, "registry transaction reverted", "tx", txID)
		return nil, eth.ErrReceiptStatusFailed
	}
	return receipt, nil
}

func (l *EthLedger) getAddressForTxInitiator(ctx context.Context) (ethCommon.Address, error) {
	bytesPubKey, err := l.kms.PublicKey(ctx, l.publishingKeyID)
	if err != nil {
		return ethCommon.Address{}, err
	}
	return kms.EthAddress(bytesPubKey)
}
