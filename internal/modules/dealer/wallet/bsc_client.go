package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"

	dealerconfig "github.com/hxuan190/stable_payment_gateway/internal/config"
	bscclient "github.com/hxuan190/stable_payment_gateway/internal/modules/blockchain/bsc"
	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/domain"
	"github.com/hxuan190/stable_payment_gateway/internal/pkg/logger"
)

// BSCClient implements ports.WalletClient against a BSC (EVM) wallet,
// adapted from internal/modules/blockchain/bsc/client.go's read-only
// client plus the signing primitives the teacher's
// internal/blockchain/bsc/wallet.go establishes for key loading
// (crypto.HexToECDSA, address derivation). The teacher never implements
// transaction signing/sending for BSC ("Note: For sending transactions ...
// not needed for listener"); payOnChain below is new code this dealer adds
// to actually exercise the wallet selector's second arm.
//
// Grounding decision (see DESIGN.md): as with SolanaClient, native BNB
// balance stands in for the BTC-denominated collateral leg and a
// configured BEP20 contract stands in for the USD-denominated liability
// leg — the chain has no native "BTC" asset either.
type BSCClient struct {
	client     *bscclient.Client
	privateKey *ecdsa.PrivateKey
	address    common.Address
	usdContract string
}

// NewBSCClient loads the configured wallet and wires it as a WalletClient.
func NewBSCClient(cfg dealerconfig.BSCConfig) (*BSCClient, error) {
	client, err := bscclient.NewClient(bscclient.ClientConfig{
		RPCURL:  cfg.RPCURL,
		ChainID: big.NewInt(cfg.ChainID),
	})
	if err != nil {
		return nil, domain.NewConfigurationError(fmt.Sprintf("failed to create bsc client: %v", err))
	}

	keyHex := strings.TrimPrefix(cfg.WalletPrivateKey, "0x")
	privateKey, err := ethcrypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, domain.NewConfigurationError(fmt.Sprintf("failed to load bsc wallet private key: %v", err))
	}
	publicKeyECDSA, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, domain.NewConfigurationError("failed to derive bsc public key")
	}

	return &BSCClient{
		client:      client,
		privateKey:  privateKey,
		address:     ethcrypto.PubkeyToAddress(*publicKeyECDSA),
		usdContract: cfg.USDTContract,
	}, nil
}

// GetUsdWalletBalance reports the configured BEP20 token balance as the
// USD-denominated liability leg.
func (c *BSCClient) GetUsdWalletBalance(ctx context.Context) domain.Result[float64] {
	if c.usdContract == "" {
		return domain.Failure[float64](domain.NewConfigurationError("BSC_USDT_CONTRACT is not configured"))
	}
	balance, _, err := c.bep20Balance(ctx, common.HexToAddress(c.usdContract))
	if err != nil {
		return domain.Failure[float64](domain.NewUpstreamUnavailable("failed to read USD wallet balance", err))
	}
	f, _ := balance.Float64()
	return domain.Ok(f)
}

// GetBtcWalletBalance reports the wallet's native BNB balance as the
// BTC-denominated collateral leg.
func (c *BSCClient) GetBtcWalletBalance(ctx context.Context) domain.Result[float64] {
	balance, err := c.client.GetBalance(ctx, c.address)
	if err != nil {
		return domain.Failure[float64](domain.NewUpstreamUnavailable("failed to read BTC wallet balance", err))
	}
	f, _ := balance.Float64()
	return domain.Ok(f)
}

// DepositAddress returns the wallet's own address — EVM addresses are
// reusable.
func (c *BSCClient) DepositAddress(ctx context.Context) domain.Result[string] {
	return domain.Ok(c.address.Hex())
}

// PayOnChain sends a native BNB transfer of size sats (interpreted as wei)
// to address.
func (c *BSCClient) PayOnChain(ctx context.Context, address string, sats int64, memo string) domain.Result[struct{}] {
	if sats <= 0 {
		return domain.Failure[struct{}](domain.NewUpstreamUnavailable("pay amount must be positive", nil))
	}
	if !common.IsHexAddress(address) {
		return domain.Failure[struct{}](domain.NewUpstreamUnavailable("invalid destination address", nil))
	}

	eth := c.client.GetEthClient()
	to := common.HexToAddress(address)

	nonce, err := eth.PendingNonceAt(ctx, c.address)
	if err != nil {
		return domain.Failure[struct{}](domain.NewUpstreamUnavailable("failed to read nonce", err))
	}
	gasPrice, err := eth.SuggestGasPrice(ctx)
	if err != nil {
		return domain.Failure[struct{}](domain.NewUpstreamUnavailable("failed to suggest gas price", err))
	}

	tx := types.NewTransaction(nonce, to, big.NewInt(sats), 21000, gasPrice, nil)
	signed, err := types.SignTx(tx, types.NewEIP155Signer(c.client.GetChainID()), c.privateKey)
	if err != nil {
		return domain.Failure[struct{}](domain.NewUpstreamUnavailable("failed to sign transaction", err))
	}

	if err := eth.SendTransaction(ctx, signed); err != nil {
		return domain.Failure[struct{}](domain.NewUpstreamUnavailable("on-chain payment failed", err))
	}

	logger.LogBlockchainTransaction(ctx, "bsc", signed.Hash().Hex(), logger.Fields{
		"address":   address,
		"size_sats": sats,
		"memo":      memo,
	})
	return domain.Ok(struct{}{})
}

// bep20Balance calls balanceOf(address) on a BEP20 contract and converts
// the raw result using the contract's decimals(), mirroring the teacher's
// Wallet.GetBEP20Balance.
func (c *BSCClient) bep20Balance(ctx context.Context, tokenContract common.Address) (decimal.Decimal, uint8, error) {
	eth := c.client.GetEthClient()

	balanceOfSelector := []byte{0x70, 0xa0, 0x82, 0x31}
	data := append(balanceOfSelector, common.LeftPadBytes(c.address.Bytes(), 32)...)

	result, err := eth.CallContract(ctx, ethereum.CallMsg{To: &tokenContract, Data: data}, nil)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to call balanceOf: %w", err)
	}
	if len(result) != 32 {
		return decimal.Zero, 0, fmt.Errorf("invalid balanceOf result length: %d", len(result))
	}
	rawBalance := new(big.Int).SetBytes(result)

	decimalsSelector := []byte{0x31, 0x3c, 0xe5, 0x67}
	decResult, err := eth.CallContract(ctx, ethereum.CallMsg{To: &tokenContract, Data: decimalsSelector}, nil)
	if err != nil || len(decResult) == 0 {
		return decimal.Zero, 0, fmt.Errorf("failed to call decimals: %w", err)
	}
	decimals := decResult[len(decResult)-1]

	divisor := decimal.NewFromInt(10).Pow(decimal.NewFromInt(int64(decimals)))
	return decimal.NewFromBigInt(rawBalance, 0).Div(divisor), decimals, nil
}
