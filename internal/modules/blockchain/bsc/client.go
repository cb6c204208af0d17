// Package bsc wraps a read-only BSC/EVM RPC connection for the dealer's
// BSCClient wallet adapter (internal/modules/dealer/wallet/bsc_client.go).
// Trimmed to the surface that adapter actually reaches: dialing, reading
// native balance, and exposing the underlying ethclient for signed sends
// and raw eth_calls.
package bsc

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
)

// Client wraps the Ethereum/BSC RPC client.
type Client struct {
	ethClient *ethclient.Client
	rpcURL    string
	timeout   time.Duration
	chainID   *big.Int
}

// ClientConfig holds configuration for the BSC RPC client.
type ClientConfig struct {
	RPCURL  string
	ChainID *big.Int
	Timeout time.Duration
}

// NewClient creates a new BSC RPC client with the given configuration.
func NewClient(config ClientConfig) (*Client, error) {
	if config.RPCURL == "" {
		return nil, fmt.Errorf("RPC URL cannot be empty")
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	ethClient, err := ethclient.Dial(config.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to BSC RPC: %w", err)
	}

	chainID := config.ChainID
	if chainID == nil {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		chainID, err = ethClient.ChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get chain ID: %w", err)
		}
	}

	return &Client{
		ethClient: ethClient,
		rpcURL:    config.RPCURL,
		timeout:   timeout,
		chainID:   chainID,
	}, nil
}

// GetBalance retrieves the BNB balance for a given address.
func (c *Client) GetBalance(ctx context.Context, address common.Address) (decimal.Decimal, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	balance, err := c.ethClient.BalanceAt(timeoutCtx, address, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}

	weiDecimal := decimal.NewFromBigInt(balance, 0)
	bnbBalance := weiDecimal.Div(decimal.NewFromInt(1e18))

	return bnbBalance, nil
}

// GetChainID returns the chain ID this client was configured against.
func (c *Client) GetChainID() *big.Int {
	return c.chainID
}

// GetEthClient returns the underlying Ethereum client for signed
// transactions and raw eth_calls.
func (c *Client) GetEthClient() *ethclient.Client {
	return c.ethClient
}

// Close closes the underlying Ethereum client connection.
func (c *Client) Close() {
	c.ethClient.Close()
}
