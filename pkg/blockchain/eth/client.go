package eth

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/consensus/misc/eip1559"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"

	"github.com/scrolluniversity/certificate-node/internal/log"
)

const feeIncrement = 1.25

var (
	// ErrReceiptStatusFailed when receiving a failed transaction
	ErrReceiptStatusFailed = errors.New("receipt status is failed")
	// ErrReceiptNotReceived when unable to retrieve a transaction
	ErrReceiptNotReceived = errors.New("receipt not available")
)

// Client is an ethereum client to call Smart Contract methods.
type Client struct {
	client *ethclient.Client
	Config *ClientConfig
}

// ClientConfig eth client config
type ClientConfig struct {
	ReceiptTimeout         time.Duration `json:"receipt_timeout"`
	ConfirmationTimeout    time.Duration `json:"confirmation_timeout"`
	ConfirmationBlockCount int64         `json:"confirmation_block_count"`
	RPCResponseTimeout     time.Duration `json:"rpc_response_time_out"`
	WaitReceiptCycleTime   time.Duration `json:"wait_receipt_cycle_time_out"`
	WaitBlockCycleTime     time.Duration `json:"wait_block_cycle_time_out"`
}

// NewClient creates a Client instance.
func NewClient(client *ethclient.Client, c *ClientConfig) *Client {
	return &Client{client: client, Config: c}
}

// CallContract executes a read only message call against the latest block
func (c *Client) CallContract(ctx context.Context, to common.Address, payload []byte) ([]byte, error) {
	_ctx, cancel := context.WithTimeout(ctx, c.Config.RPCResponseTimeout)
	defer cancel()
	return c.client.CallContract(_ctx, ethereum.CallMsg{To: &to, Data: payload}, nil)
}

func (c *Client) waitReceipt(ctx context.Context, txID common.Hash, timeout time.Duration) (*types.Receipt, error) {
	var err error
	var receipt *types.Receipt

	log.Debug(ctx, "Waiting for receipt", "tx", txID.Hex())

	start := time.Now()
	for {
		receipt, err = c.client.TransactionReceipt(ctx, txID)
		if err != nil {
			log.Debug(ctx, "get transaction receipt", "err", err)
		}

		if receipt != nil || time.Since(start) >= timeout {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.Config.WaitReceiptCycleTime):
		}
	}

	if receipt == nil {
		log.Debug(ctx, "Pending transaction / Wait receipt timeout", "tx", txID.Hex())
		return nil, ErrReceiptNotReceived
	}
	log.Debug(ctx, "Receipt received", "tx", txID.Hex())

	return receipt, nil
}

func (c *Client) waitBlock(ctx context.Context, timeout time.Duration, confirmationBlock *big.Int) error {
	start := time.Now()
	for {
		blockNumber, err := c.CurrentBlock(ctx)
		if err != nil {
			log.Error(ctx, "couldn't get the current block number", "err", err)
			return err
		}
		if blockNumber.Cmp(confirmationBlock) >= 0 {
			return nil
		}
		if time.Since(start) >= timeout {
			return errors.New("time out error during block number fetch")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.Config.WaitBlockCycleTime):
		}
	}
}

// CurrentBlock returns the current block number in the blockchain
func (c *Client) CurrentBlock(ctx context.Context) (*big.Int, error) {
	header, err := c.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, err
	}
	return header.Number, nil
}

// ChainID get chain id.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	_ctx, cancel := context.WithTimeout(ctx, c.Config.RPCResponseTimeout)
	defer cancel()
	return c.client.ChainID(_ctx)
}

// HeaderByNumber get eth block header by block number
func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	_ctx, cancel := context.WithTimeout(ctx, c.Config.RPCResponseTimeout)
	defer cancel()
	return c.client.HeaderByNumber(_ctx, number)
}

// GetTransactionReceiptByID get tx receipt by tx id
func (c *Client) GetTransactionReceiptByID(ctx context.Context, txID string) (*types.Receipt, error) {
	_ctx, cancel := context.WithTimeout(ctx, c.Config.RPCResponseTimeout)
	defer cancel()
	receipt, err := c.client.TransactionReceipt(_ctx, common.HexToHash(txID))
	if errors.Is(err, ethereum.NotFound) {
		log.Debug(ctx, "Pending transaction", "tx", txID)
		return nil, ErrReceiptNotReceived
	}
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// WaitTransactionReceiptByID waits for the transaction receipt and for the configured number of
// confirmation blocks on top of it.
func (c *Client) WaitTransactionReceiptByID(ctx context.Context, txID string) (*types.Receipt, error) {
	receipt, err := c.waitReceipt(ctx, common.HexToHash(txID), c.Config.ReceiptTimeout)
	if err != nil {
		return nil, err
	}
	if c.Config.ConfirmationBlockCount > 0 && receipt.BlockNumber != nil {
		target := new(big.Int).Add(receipt.BlockNumber, big.NewInt(c.Config.ConfirmationBlockCount))
		if err := c.waitBlock(ctx, c.Config.ConfirmationTimeout, target); err != nil {
			log.Warn(ctx, "confirmation blocks not reached", "tx", txID, "err", err)
		}
	}
	return receipt, nil
}

// TransactionParams settings for transaction.
type TransactionParams struct {
	BaseFee     *big.Int
	GasTips     *big.Int
	Nonce       *uint64
	FromAddress common.Address
	ToAddress   common.Address
	Payload     []byte
}

// CreateRawTx builds an unsigned dynamic fee transaction.
func (c *Client) CreateRawTx(ctx context.Context, txParams TransactionParams) (*types.Transaction, error) {
	if txParams.Nonce == nil {
		_ctx, cancel := context.WithTimeout(ctx, c.Config.RPCResponseTimeout)
		defer cancel()
		nonce, err := c.client.PendingNonceAt(_ctx, txParams.FromAddress)
		if err != nil {
			return nil, fmt.Errorf("failed to get nonce: %v", err)
		}
		txParams.Nonce = &nonce
	}

	_ctx2, cancel2 := context.WithTimeout(ctx, c.Config.RPCResponseTimeout)
	defer cancel2()
	gasLimit, err := c.client.EstimateGas(_ctx2, ethereum.CallMsg{
		From:  txParams.FromAddress,
		To:    &txParams.ToAddress,
		Value: big.NewInt(0),
		Data:  txParams.Payload,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to estimate gas: %v", err)
	}

	if txParams.BaseFee == nil {
		latestBlockHeader, err := c.HeaderByNumber(ctx, nil)
		if err != nil {
			return nil, err
		}
		// every supported network already runs the London fork
		baseFee := eip1559.CalcBaseFee(&params.ChainConfig{LondonBlock: big.NewInt(1)}, latestBlockHeader)

		// unused fee is refunded on dynamic fee transactions
		b := math.Round(float64(baseFee.Int64()) * feeIncrement)
		txParams.BaseFee = big.NewInt(int64(b))
	}

	if txParams.GasTips == nil {
		_ctx3, cancel3 := context.WithTimeout(ctx, c.Config.RPCResponseTimeout)
		defer cancel3()
		gasTip, err := c.client.SuggestGasTipCap(_ctx3)
		// hardhat doesn't support 'eth_maxPriorityFeePerGas'
		if err != nil && strings.Contains(err.Error(), "eth_maxPriorityFeePerGas not found") {
			log.Warn(ctx, "failed get suggest gas tip, using 0", "err", err)
			gasTip = big.NewInt(0)
		} else if err != nil {
			return nil, fmt.Errorf("failed get suggest gas tip: %v", err)
		}
		txParams.GasTips = gasTip
	}

	maxGasPricePerFee := big.NewInt(0).Add(txParams.BaseFee, txParams.GasTips)
	return types.NewTx(&types.DynamicFeeTx{
		To:        &txParams.ToAddress,
		Nonce:     *txParams.Nonce,
		Gas:       gasLimit,
		Value:     big.NewInt(0),
		Data:      txParams.Payload,
		GasTipCap: txParams.GasTips,
		GasFeeCap: maxGasPricePerFee,
	}), nil
}

// SendRawTx send raw transaction.
func (c *Client) SendRawTx(ctx context.Context, tx *types.Transaction) error {
	_ctx, cancel := context.WithTimeout(ctx, c.Config.RPCResponseTimeout)
	defer cancel()
	return c.client.SendTransaction(_ctx, tx)
}
