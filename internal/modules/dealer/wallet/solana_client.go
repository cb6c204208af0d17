// Package wallet holds the concrete WalletClient implementations the spec
// leaves as an external collaborator. Adapted from the teacher's
// internal/blockchain/solana/wallet.go (LoadWallet, GetSOLBalance,
// GetTokenBalance, SignAndSendTransaction, CreateTransferInstruction).
//
// Grounding decision (see DESIGN.md): the teacher's Solana wallet has no
// native concept of "BTC" — it is a chain, not an asset. This dealer wires
// it by treating the wallet's native SOL balance as the BTC-denominated
// collateral leg (payOnChain sends lamports sized by the caller's sats
// argument) and an SPL token (USDC by default) as the USD-denominated
// liability leg. This is a demonstration wiring of an out-of-scope
// collaborator, not a claim about real BTC custody.
package wallet

import (
	"context"
	"fmt"

	solanago "github.com/gagliardetto/solana-go"

	dealerconfig "github.com/hxuan190/stable_payment_gateway/internal/config"
	solanawallet "github.com/hxuan190/stable_payment_gateway/internal/blockchain/solana"
	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/domain"
	"github.com/hxuan190/stable_payment_gateway/internal/pkg/logger"
)

// SolanaClient implements ports.WalletClient against a Solana wallet.
type SolanaClient struct {
	wallet   *solanawallet.Wallet
	usdcMint string
}

// NewSolanaClient loads the configured wallet and wires it as a WalletClient.
func NewSolanaClient(cfg dealerconfig.SolanaConfig) (*SolanaClient, error) {
	w, err := solanawallet.LoadWallet(cfg.WalletPrivateKey, cfg.RPCURL)
	if err != nil {
		return nil, domain.NewConfigurationError(fmt.Sprintf("failed to load solana wallet: %v", err))
	}
	return &SolanaClient{wallet: w, usdcMint: cfg.USDCMint}, nil
}

// GetUsdWalletBalance reports the wallet's USDC balance as the
// USD-denominated liability leg.
func (c *SolanaClient) GetUsdWalletBalance(ctx context.Context) domain.Result[float64] {
	balance, err := c.wallet.GetTokenBalance(ctx, c.usdcMint)
	if err != nil {
		return domain.Failure[float64](domain.NewUpstreamUnavailable("failed to read USD wallet balance", err))
	}
	f, _ := balance.Float64()
	return domain.Ok(f)
}

// GetBtcWalletBalance reports the wallet's native SOL balance as the
// BTC-denominated collateral leg (see package doc for the grounding note).
func (c *SolanaClient) GetBtcWalletBalance(ctx context.Context) domain.Result[float64] {
	balance, err := c.wallet.GetSOLBalance(ctx)
	if err != nil {
		return domain.Failure[float64](domain.NewUpstreamUnavailable("failed to read BTC wallet balance", err))
	}
	f, _ := balance.Float64()
	return domain.Ok(f)
}

// DepositAddress returns the wallet's own address. Solana addresses are
// reusable, so there is no per-deposit address derivation here.
func (c *SolanaClient) DepositAddress(ctx context.Context) domain.Result[string] {
	addr := c.wallet.GetAddress()
	if addr == "" {
		return domain.Failure[string](domain.NewInvariantViolation("wallet address is unavailable"))
	}
	return domain.Ok(addr)
}

// PayOnChain sends a lamport transfer of size sats to address.
func (c *SolanaClient) PayOnChain(ctx context.Context, address string, sats int64, memo string) domain.Result[struct{}] {
	if sats <= 0 {
		return domain.Failure[struct{}](domain.NewUpstreamUnavailable("pay amount must be positive", nil))
	}

	to, err := solanago.PublicKeyFromBase58(address)
	if err != nil {
		return domain.Failure[struct{}](domain.NewUpstreamUnavailable("invalid destination address", err))
	}

	instr := c.wallet.CreateTransferInstruction(to, uint64(sats))
	tx, err := solanago.NewTransaction(
		[]solanago.Instruction{instr},
		solanago.Hash{},
		solanago.TransactionPayer(c.wallet.GetPublicKey()),
	)
	if err != nil {
		return domain.Failure[struct{}](domain.NewUpstreamUnavailable("failed to build transfer transaction", err))
	}

	sig, err := c.wallet.SignAndSendTransaction(ctx, tx)
	if err != nil {
		return domain.Failure[struct{}](domain.NewUpstreamUnavailable("on-chain payment failed", err))
	}

	logger.LogBlockchainTransaction(ctx, "solana", sig.String(), logger.Fields{
		"address":   address,
		"size_sats": sats,
		"memo":      memo,
	})
	return domain.Ok(struct{}{})
}
