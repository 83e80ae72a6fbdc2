package gateways

import (
	"context"
	"fmt"

	"github.com/scrolluniversity/certificate-node/internal/config"
	"github.com/scrolluniversity/certificate-node/internal/core/ports"
	"github.com/scrolluniversity/certificate-node/internal/kms"
	"github.com/scrolluniversity/certificate-node/internal/providers/blockchain"
)

// NewLedger builds the ledger selected by cfg.Ledger.Driver. keyStore is only used by the eth driver.
func NewLedger(ctx context.Context, cfg *config.Configuration, keyStore kms.KMSType) (ports.Ledger, error) {
	switch cfg.Ledger.Driver {
	case config.DriverEthereum:
		client, err := blockchain.Open(ctx, cfg.Ethereum)
		if err != nil {
			return nil, err
		}
		return NewEthLedger(client, keyStore, EthLedgerConfig{
			ContractAddress:     cfg.Ethereum.ContractAddress,
			PublishingKeyPath:   cfg.Ethereum.PublishingKeyPath,
			VerificationBaseURL: cfg.Certificates.VerificationBaseURL,
		})
	case config.DriverMemory:
		return NewMemoryLedgerFromFile(ctx, cfg.Ledger.SeedFile, cfg.Certificates.VerificationBaseURL)
	default:
		return nil, fmt.Errorf("unknown ledger driver %q", cfg.Ledger.Driver)
	}
}

// NewDocumentStore builds the document store selected by cfg.IPFS.Driver
func NewDocumentStore(cfg *config.Configuration) (ports.DocumentStore, error) {
	switch cfg.IPFS.Driver {
	case config.DriverIPFS:
		return NewIPFSStore(cfg.IPFS.APIURL, cfg.IPFS.GatewayURL), nil
	case config.DriverMemory:
		return NewMemoryDocumentStore(cfg.IPFS.GatewayURL), nil
	default:
		return nil, fmt.Errorf("unknown document store driver %q", cfg.IPFS.Driver)
	}
}
