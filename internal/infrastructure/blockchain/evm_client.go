package blockchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"paybridge.backend/internal/domain/entities"
)

// ErrInvalidTxHash is returned for references that are not 32-byte hex hashes.
var ErrInvalidTxHash = errors.New("invalid transaction hash")

// evmBackend is the subset of ethclient.Client the payment flow reads.
type evmBackend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	Close()
}

var (
	dialEVMClient = func(rpcURL string) (evmBackend, error) {
		return ethclient.Dial(rpcURL)
	}
	getClientChainID = func(client evmBackend, ctx context.Context) (*big.Int, error) {
		return client.ChainID(ctx)
	}
)

// TxObservation is what the chain currently says about one transaction.
type TxObservation struct {
	Found         bool
	Status        entities.PaymentStatus
	BlockNumber   uint64
	Confirmations uint64
	Reason        string
}

// EVMClient reads transaction receipts from a Base RPC endpoint
type EVMClient struct {
	client           evmBackend
	chainID          *big.Int
	rpcURL           string
	minConfirmations uint64
}

// NewEVMClient dials rpcURL and reads its chain id.
func NewEVMClient(rpcURL string) (*EVMClient, error) {
	client, err := dialEVMClient(rpcURL)
	if err != nil {
		return nil, err
	}

	chainID, err := getClientChainID(client, context.Background())
	if err != nil {
		client.Close()
		return nil, err
	}

	return &EVMClient{
		client:           client,
		chainID:          chainID,
		rpcURL:           rpcURL,
		minConfirmations: 1,
	}, nil
}

// NewEVMClientWithBackend wraps an already connected backend.
func NewEVMClientWithBackend(chainID *big.Int, backend evmBackend) *EVMClient {
	if chainID == nil {
		chainID = big.NewInt(1)
	}
	return &EVMClient{client: backend, chainID: chainID, minConfirmations: 1}
}

// WithMinConfirmations sets how many blocks (including the receipt's own)
// are required before a successful receipt counts as confirmed.
func (c *EVMClient) WithMinConfirmations(n uint64) *EVMClient {
	if n == 0 {
		n = 1
	}
	c.minConfirmations = n
	return c
}

// ChainID returns the chain ID
func (c *EVMClient) ChainID() *big.Int {
	return c.chainID
}

// GetTransactionReceipt gets transaction receipt
func (c *EVMClient) GetTransactionReceipt(ctx context.Context, txHash string) (*types.Receipt, error) {
	hash, err := parseTxHash(txHash)
	if err != nil {
		return nil, err
	}
	return c.client.TransactionReceipt(ctx, hash)
}

// GetBlockNumber gets the latest block number
func (c *EVMClient) GetBlockNumber(ctx context.Context) (uint64, error) {
	return c.client.BlockNumber(ctx)
}

// ObserveTransaction maps the receipt of txHash onto the payment lifecycle.
// A missing receipt is reported as not found without error.
func (c *EVMClient) ObserveTransaction(ctx context.Context, txHash string) (TxObservation, error) {
	receipt, err := c.GetTransactionReceipt(ctx, txHash)
	if errors.Is(err, ethereum.NotFound) {
		return TxObservation{}, nil
	}
	if err != nil {
		return TxObservation{}, err
	}

	obs := TxObservation{Found: true}
	if receipt.BlockNumber != nil {
		obs.BlockNumber = receipt.BlockNumber.Uint64()
	}
	if receipt.Status == types.ReceiptStatusFailed {
		obs.Status = entities.PaymentStatusFailed
		obs.Reason = "transaction reverted"
		return obs, nil
	}

	head, err := c.client.BlockNumber(ctx)
	if err != nil {
		return TxObservation{}, err
	}
	if head >= obs.BlockNumber {
		obs.Confirmations = head - obs.BlockNumber + 1
	}
	if obs.Confirmations >= c.minConfirmations {
		obs.Status = entities.PaymentStatusConfirmed
	} else {
		obs.Status = entities.PaymentStatusConfirming
	}
	return obs, nil
}

// Close closes the client connection
func (c *EVMClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

func parseTxHash(s string) (common.Hash, error) {
	raw, err := hexutil.Decode(s)
	if err != nil || len(raw) != common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: %q", ErrInvalidTxHash, s)
	}
	return common.BytesToHash(raw), nil
}
