package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/domain"
)

// TestRebalancePhase_SkippedWhenPending covers invariant 3 and S4: a
// nonzero pending count skips rebalance with no address fetch and no
// updateLeverage call.
func TestRebalancePhase_SkippedWhenPending(t *testing.T) {
	ctx := context.Background()
	wallet := new(MockWalletClient)
	strategy := new(MockHedgingStrategy)
	callbacks := NewTransferCallbacks(wallet, new(MockTransferLedger), "paper")

	phase := NewRebalancePhase(wallet, strategy, callbacks)
	skipped, result, abortErr := phase.Run(ctx, 1000, 50_000, 3)

	assert.True(t, skipped)
	assert.Nil(t, result)
	assert.NoError(t, abortErr)
	wallet.AssertNotCalled(t, "DepositAddress", ctx)
	strategy.AssertNotCalled(t, "UpdateLeverage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestRebalancePhase_RunsWhenClean covers S3: with zero pending transfers,
// the phase fetches a deposit address and invokes updateLeverage.
func TestRebalancePhase_RunsWhenClean(t *testing.T) {
	ctx := context.Background()
	wallet := new(MockWalletClient)
	strategy := new(MockHedgingStrategy)
	ledger := new(MockTransferLedger)
	callbacks := NewTransferCallbacks(wallet, ledger, "paper")

	wallet.On("DepositAddress", ctx).Return(domain.Ok("addr-1")).Once()
	strategy.On("UpdateLeverage", ctx, 1000.0, 50_000.0, "addr-1", mock.Anything, mock.Anything).
		Return(domain.Ok[domain.LeverageDelta](0.01)).Once()

	phase := NewRebalancePhase(wallet, strategy, callbacks)
	skipped, result, abortErr := phase.Run(ctx, 1000, 50_000, 0)

	require.NoError(t, abortErr)
	assert.False(t, skipped)
	require.NotNil(t, result)
	assert.True(t, result.IsOk())
	wallet.AssertExpectations(t)
	strategy.AssertExpectations(t)
}

// TestRebalancePhase_AbortsOnMissingAddress covers the exact abort message
// spec.md §4.F names for an unavailable deposit address.
func TestRebalancePhase_AbortsOnMissingAddress(t *testing.T) {
	ctx := context.Background()
	wallet := new(MockWalletClient)
	strategy := new(MockHedgingStrategy)
	callbacks := NewTransferCallbacks(wallet, new(MockTransferLedger), "paper")

	wallet.On("DepositAddress", ctx).Return(domain.Failure[string](assertErr())).Once()

	phase := NewRebalancePhase(wallet, strategy, callbacks)
	_, _, abortErr := phase.Run(ctx, 1000, 50_000, 0)

	require.Error(t, abortErr)
	assert.Contains(t, abortErr.Error(), "WalletOnChainAddress is unavailable or invalid.")
	strategy.AssertNotCalled(t, "UpdateLeverage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func assertErr() error {
	return domain.NewUpstreamUnavailable("rpc timeout", nil)
}
