package blockchain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/scrolluniversity/certificate-node/internal/config"
	"github.com/scrolluniversity/certificate-node/internal/log"
	"github.com/scrolluniversity/certificate-node/pkg/blockchain/eth"
)

// Open returns an initialized eth Client with the given configuration
func Open(ctx context.Context, cfg config.Ethereum) (*eth.Client, error) {
	ethClient, err := ethclient.DialContext(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed connect to eth node %s: %w", cfg.URL, err)
	}
	log.Info(ctx, "connected to eth node", "url", cfg.URL)

	return eth.NewClient(ethClient, &eth.ClientConfig{
		ConfirmationTimeout:    cfg.ConfirmationTimeout,
		ConfirmationBlockCount: cfg.ConfirmationBlockCount,
		ReceiptTimeout:         cfg.ReceiptTimeout,
		RPCResponseTimeout:     cfg.RPCResponseTimeout,
		WaitReceiptCycleTime:   cfg.WaitReceiptCycleTime,
		WaitBlockCycleTime:     cfg.WaitBlockCycleTime,
	}), nil
}
