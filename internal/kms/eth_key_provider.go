package kms

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/scrolluniversity/certificate-node/internal/log"
)

type ethKeyProvider struct {
	keyType KeyType
	storage StorageManager
}

// NewEthKeyProvider creates a key provider for Ethereum keys kept in the given storage
func NewEthKeyProvider(keyType KeyType, storage StorageManager) KeyProvider {
	return &ethKeyProvider{
		keyType: keyType,
		storage: storage,
	}
}

func (p *ethKeyProvider) New(ctx context.Context, path string) (KeyID, error) {
	ethPrivKey, err := crypto.GenerateKey()
	if err != nil {
		return KeyID{}, err
	}

	if path == "" {
		pubKey, ok := ethPrivKey.Public().(*ecdsa.PublicKey)
		if !ok {
			return KeyID{}, errors.New("unexpected public key type")
		}
		path = string(p.keyType) + ":" + hex.EncodeToString(crypto.CompressPubkey(pubKey))
	}
	return p.save(ctx, path, ethPrivKey)
}

func (p *ethKeyProvider) Import(ctx context.Context, path string, privateKeyHex string) (KeyID, error) {
	if path == "" {
		return KeyID{}, errors.New("key path is empty")
	}
	privKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return KeyID{}, err
	}
	return p.save(ctx, path, privKey)
}

func (p *ethKeyProvider) save(ctx context.Context, path string, privKey *ecdsa.PrivateKey) (KeyID, error) {
	material := map[string]string{
		jsonKeyType: string(p.keyType),
		jsonKeyData: hex.EncodeToString(crypto.FromECDSA(privKey)),
	}
	if err := p.storage.SaveKeyMaterial(ctx, material, path); err != nil {
		return KeyID{}, err
	}
	return KeyID{Type: p.keyType, ID: path}, nil
}

// PublicKey returns the compressed public key
func (p *ethKeyProvider) PublicKey(ctx context.Context, keyID KeyID) ([]byte, error) {
	privKey, err := p.privateKey(ctx, keyID)
	if err != nil {
		return nil, err
	}
	return crypto.CompressPubkey(&privKey.PublicKey), nil
}

func (p *ethKeyProvider) Sign(ctx context.Context, keyID KeyID, data []byte) ([]byte, error) {
	privKey, err := p.privateKey(ctx, keyID)
	if err != nil {
		return nil, err
	}
	return crypto.Sign(data, privKey)
}

func (p *ethKeyProvider) privateKey(ctx context.Context, keyID KeyID) (*ecdsa.PrivateKey, error) {
	if keyID.Type != p.keyType {
		return nil, ErrIncorrectKeyType
	}

	if keyID.ID == "" {
		return nil, errors.New("key ID is empty")
	}

	privateKey, err := p.storage.searchPrivateKey(ctx, keyID)
	if err != nil {
		log.Error(ctx, "cannot get private key", "err", err, "keyID", keyID)
		return nil, err
	}

	val, err := hex.DecodeString(privateKey)
	if err != nil {
		log.Error(ctx, "cannot decode private key", "err", err, "keyID", keyID)
		return nil, err
	}

	if len(val) != defaultLength {
		log.Error(ctx, "incorrect private key", "keyID", keyID)
		return nil, errors.New("incorrect private key")
	}

	return decodeETHPrivateKey(val)
}

// EthAddress derives the account address of a compressed or uncompressed public key
func EthAddress(pubKey []byte) (common.Address, error) {
	var (
		pk  *ecdsa.PublicKey
		err error
	)
	if len(pubKey) == 33 { // nolint:mnd
		pk, err = crypto.DecompressPubkey(pubKey)
	} else {
		pk, err = crypto.UnmarshalPubkey(pubKey)
	}
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pk), nil
}
