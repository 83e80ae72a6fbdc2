package eth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// RegistryABI is the interface of the CertificateRegistry contract
const RegistryABI = `[
{"type":"function","name":"isInstitutionAccredited","stateMutability":"view","inputs":[{"name":"institutionId","type":"string"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"issueCredential","stateMutability":"nonpayable","inputs":[{"name":"key","type":"bytes32"},{"name":"certificateId","type":"string"},{"name":"recipient","type":"address"},{"name":"institutionId","type":"string"},{"name":"certType","type":"uint8"},{"name":"ipfsHash","type":"string"},{"name":"expiry","type":"uint64"},{"name":"jointValidation","type":"bool"}],"outputs":[]},
{"type":"function","name":"getCredential","stateMutability":"view","inputs":[{"name":"key","type":"bytes32"}],"outputs":[{"name":"certificateId","type":"string"},{"name":"institutionId","type":"string"},{"name":"ipfsHash","type":"string"},{"name":"status","type":"uint8"},{"name":"validationStatus","type":"uint8"},{"name":"issueDate","type":"uint64"},{"name":"valid","type":"bool"}]},
{"type":"function","name":"revokeCredential","stateMutability":"nonpayable","inputs":[{"name":"key","type":"bytes32"},{"name":"reason","type":"string"}],"outputs":[]},
{"type":"function","name":"recordValidation","stateMutability":"nonpayable","inputs":[{"name":"key","type":"bytes32"},{"name":"validationStatus","type":"uint8"}],"outputs":[]},
{"type":"function","name":"batchVerify","stateMutability":"view","inputs":[{"name":"keys","type":"bytes32[]"}],"outputs":[{"name":"","type":"bool[]"}]},
{"type":"function","name":"getStudentCredentials","stateMutability":"view","inputs":[{"name":"recipient","type":"address"}],"outputs":[{"name":"","type":"string[]"}]},
{"type":"event","name":"CredentialIssued","anonymous":false,"inputs":[{"name":"key","type":"bytes32","indexed":true},{"name":"recipient","type":"address","indexed":true},{"name":"certificateId","type":"string","indexed":false}]}
]`

// Registry contract method and event names
const (
	MethodIsInstitutionAccredited = "isInstitutionAccredited"
	MethodIssueCredential         = "issueCredential"
	MethodGetCredential           = "getCredential"
	MethodRevokeCredential        = "revokeCredential"
	MethodRecordValidation        = "recordValidation"
	MethodBatchVerify             = "batchVerify"
	MethodGetStudentCredentials   = "getStudentCredentials"
	EventCredentialIssued         = "CredentialIssued"
)

// ErrEventNotFound is returned when a receipt carries no CredentialIssued log
var ErrEventNotFound = errors.New("credential issued event not found")

// RegistryCredential is the getCredential output
type RegistryCredential struct {
	CertificateId    string // nolint:revive,stylecheck
	InstitutionId    string // nolint:revive,stylecheck
	IpfsHash         string
	Status           uint8
	ValidationStatus uint8
	IssueDate        uint64
	Valid            bool
}

// CredentialIssuedLog is a decoded CredentialIssued event
type CredentialIssuedLog struct {
	Key           [32]byte
	Recipient     common.Address
	CertificateID string
}

// Registry packs calls to and unpacks results from the CertificateRegistry contract
type Registry struct {
	abi abi.ABI
}

// NewRegistry parses the registry ABI
func NewRegistry() (*Registry, error) {
	parsed, err := abi.JSON(strings.NewReader(RegistryABI))
	if err != nil {
		return nil, fmt.Errorf("cannot parse registry abi: %w", err)
	}
	return &Registry{abi: parsed}, nil
}

// ABI returns the parsed contract interface
func (r *Registry) ABI() abi.ABI {
	return r.abi
}

// Pack encodes a method call
func (r *Registry) Pack(method string, args ...interface{}) ([]byte, error) {
	return r.abi.Pack(method, args...)
}

// UnpackBool decodes a single bool output
func (r *Registry) UnpackBool(method string, data []byte) (bool, error) {
	out, err := r.abi.Unpack(method, data)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// UnpackBools decodes a single bool[] output
func (r *Registry) UnpackBools(method string, data []byte) ([]bool, error) {
	out, err := r.abi.Unpack(method, data)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]bool)).(*[]bool), nil
}

// UnpackStrings decodes a single string[] output
func (r *Registry) UnpackStrings(method string, data []byte) ([]string, error) {
	out, err := r.abi.Unpack(method, data)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]string)).(*[]string), nil
}

// UnpackCredential decodes the getCredential output
func (r *Registry) UnpackCredential(data []byte) (*RegistryCredential, error) {
	var cred RegistryCredential
	if err := r.abi.UnpackIntoInterface(&cred, MethodGetCredential, data); err != nil {
		return nil, err
	}
	return &cred, nil
}

// FindCredentialIssued returns the first CredentialIssued event emitted by the given contract
func (r *Registry) FindCredentialIssued(contract common.Address, logs []*types.Log) (*CredentialIssuedLog, error) {
	event := r.abi.Events[EventCredentialIssued]
	for _, l := range logs {
		if l == nil || l.Address != contract || len(l.Topics) != 3 || l.Topics[0] != event.ID {
			continue
		}
		var data struct {
			CertificateId string // nolint:revive,stylecheck
		}
		if err := r.abi.UnpackIntoInterface(&data, EventCredentialIssued, l.Data); err != nil {
			return nil, err
		}
		return &CredentialIssuedLog{
			Key:           l.Topics[1],
			Recipient:     common.BytesToAddress(l.Topics[2].Bytes()),
			CertificateID: data.CertificateId,
		}, nil
	}
	return nil, ErrEventNotFound
}
