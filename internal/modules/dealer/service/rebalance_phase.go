package service

import (
	"context"

	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/domain"
	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/ports"
	"github.com/hxuan190/stable_payment_gateway/internal/pkg/logger"
)

// RebalancePhase moves collateral between the wallet and the exchange to
// keep the exchange's margin ratio within the strategy's target band. It
// only runs when there are no outstanding in-flight transfers — a pending
// transfer represents collateral not yet visible to the strategy, and
// rebalancing against it would double-count.
type RebalancePhase struct {
	wallet    ports.WalletClient
	strategy  ports.HedgingStrategy
	callbacks *TransferCallbacks
}

// NewRebalancePhase constructs a RebalancePhase bound to a wallet, a
// strategy, and the callbacks the strategy will invoke.
func NewRebalancePhase(wallet ports.WalletClient, strategy ports.HedgingStrategy, callbacks *TransferCallbacks) *RebalancePhase {
	return &RebalancePhase{wallet: wallet, strategy: strategy, callbacks: callbacks}
}

// Run checks pendingCount and either skips (recording it for telemetry) or
// fetches a deposit address and dispatches the strategy's leverage update.
// A missing or empty deposit address aborts the entire tick with the exact
// error spec.md §4.F names — even aggregation is skipped by the caller in
// that case.
func (p *RebalancePhase) Run(ctx context.Context, usdLiability, btcPriceInUsd float64, pendingCount int) (skipped bool, result *domain.Result[domain.LeverageDelta], abortErr error) {
	if pendingCount != 0 {
		logger.LogLeverageSkipped(ctx, pendingCount)
		return true, nil, nil
	}

	addrRes := p.wallet.DepositAddress(ctx)
	if !addrRes.IsOk() || addrRes.Value() == "" {
		return false, nil, domain.NewInvariantViolation("WalletOnChainAddress is unavailable or invalid.")
	}
	address := addrRes.Value()

	res := p.strategy.UpdateLeverage(ctx, usdLiability, btcPriceInUsd, address, p.callbacks.Withdraw, p.callbacks.Deposit)
	return false, &res, nil
}
