package service

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/domain"
)

func emptyPending() domain.Result[map[string][]domain.Transfer] {
	return domain.Ok(map[string][]domain.Transfer{})
}

func newControlLoop(wallet *MockWalletClient, strategy *MockHedgingStrategy, ledger *MockTransferLedger, threshold float64) *ControlLoop {
	reconciler := NewTransferReconciler(ledger, strategy)
	position := NewPositionPhase(strategy, threshold)
	callbacks := NewTransferCallbacks(wallet, ledger, "paper")
	rebalance := NewRebalancePhase(wallet, strategy, callbacks)
	return NewControlLoop(reconciler, position, rebalance, ledger, strategy, wallet)
}

// TestControlLoop_S1_NoLiabilityNoPosition: wallet returns 0, threshold=5,
// position closed, rebalance proceeds, tick succeeds.
func TestControlLoop_S1_NoLiabilityNoPosition(t *testing.T) {
	ctx := context.Background()
	wallet := new(MockWalletClient)
	strategy := new(MockHedgingStrategy)
	ledger := new(MockTransferLedger)

	ledger.On("GetPendingDeposit", ctx).Return(emptyPending()).Once()
	ledger.On("GetPendingWithdraw", ctx).Return(emptyPending()).Once()
	strategy.On("Name").Return("paper")
	strategy.On("GetBtcSpotPriceInUsd", ctx).Return(domain.Ok(50_000.0)).Once()
	wallet.On("GetUsdWalletBalance", ctx).Return(domain.Ok(0.0)).Once()
	strategy.On("ClosePosition", ctx).Return(domain.Ok(struct{}{})).Once()
	ledger.On("GetPendingCount", ctx).Return(domain.Ok(0)).Once()
	wallet.On("DepositAddress", ctx).Return(domain.Ok("addr-1")).Once()
	strategy.On("UpdateLeverage", ctx, 0.0, 50_000.0, "addr-1", mock.Anything, mock.Anything).
		Return(domain.Ok[domain.LeverageDelta](0.0)).Once()

	loop := newControlLoop(wallet, strategy, ledger, 5)
	result := loop.Tick(ctx)

	require.True(t, result.IsOk(), result.Err())
	assert.True(t, result.Value().PositionSkipped)
	strategy.AssertNotCalled(t, "UpdatePosition", mock.Anything, mock.Anything, mock.Anything)
}

// TestControlLoop_S3_CleanRebalance: liability above threshold, pending=0.
func TestControlLoop_S3_CleanRebalance(t *testing.T) {
	ctx := context.Background()
	wallet := new(MockWalletClient)
	strategy := new(MockHedgingStrategy)
	ledger := new(MockTransferLedger)

	ledger.On("GetPendingDeposit", ctx).Return(emptyPending()).Once()
	ledger.On("GetPendingWithdraw", ctx).Return(emptyPending()).Once()
	strategy.On("Name").Return("paper")
	strategy.On("GetBtcSpotPriceInUsd", ctx).Return(domain.Ok(50_000.0)).Once()
	wallet.On("GetUsdWalletBalance", ctx).Return(domain.Ok(-1000.0)).Once()
	strategy.On("UpdatePosition", ctx, 1000.0, 50_000.0).
		Return(domain.Ok[domain.PositionDelta]("delta")).Once()
	ledger.On("GetPendingCount", ctx).Return(domain.Ok(0)).Once()
	wallet.On("DepositAddress", ctx).Return(domain.Ok("addr-1")).Once()
	strategy.On("UpdateLeverage", ctx, 1000.0, 50_000.0, "addr-1", mock.Anything, mock.Anything).
		Return(domain.Ok[domain.LeverageDelta](0.01)).Once()

	loop := newControlLoop(wallet, strategy, ledger, 5)
	result := loop.Tick(ctx)

	require.True(t, result.IsOk(), result.Err())
	outcome := result.Value()
	assert.False(t, outcome.PositionSkipped)
	assert.False(t, outcome.LeverageSkipped)
	wallet.AssertExpectations(t)
	strategy.AssertExpectations(t)
}

// TestControlLoop_S4_RebalanceBlockedByPending: pending deposit exists ->
// leverageSkipped = true, no address fetch, no updateLeverage call.
func TestControlLoop_S4_RebalanceBlockedByPending(t *testing.T) {
	ctx := context.Background()
	wallet := new(MockWalletClient)
	strategy := new(MockHedgingStrategy)
	ledger := new(MockTransferLedger)

	pendingDeposit := map[string][]domain.Transfer{
		"A": {{Address: "A", SizeSats: 1_000_000, Direction: domain.DepositToExchange}},
	}
	ledger.On("GetPendingDeposit", ctx).Return(domain.Ok(pendingDeposit)).Once()
	ledger.On("GetPendingWithdraw", ctx).Return(emptyPending()).Once()
	strategy.On("IsDepositCompleted", ctx, "A", int64(1_000_000)).Return(domain.Ok(false)).Once()
	strategy.On("Name").Return("paper")
	strategy.On("GetBtcSpotPriceInUsd", ctx).Return(domain.Ok(50_000.0)).Once()
	wallet.On("GetUsdWalletBalance", ctx).Return(domain.Ok(-1000.0)).Once()
	strategy.On("UpdatePosition", ctx, 1000.0, 50_000.0).
		Return(domain.Ok[domain.PositionDelta]("delta")).Once()
	ledger.On("GetPendingCount", ctx).Return(domain.Ok(1)).Once()

	loop := newControlLoop(wallet, strategy, ledger, 5)
	result := loop.Tick(ctx)

	require.True(t, result.IsOk(), result.Err())
	assert.True(t, result.Value().LeverageSkipped)
	wallet.AssertNotCalled(t, "DepositAddress", ctx)
	strategy.AssertNotCalled(t, "UpdateLeverage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestControlLoop_S7_NaNLiability covers S7 and invariant 7's failure arm:
// a NaN wallet balance aborts the tick with the exact named message and no
// strategy calls beyond the spot price.
func TestControlLoop_S7_NaNLiability(t *testing.T) {
	ctx := context.Background()
	wallet := new(MockWalletClient)
	strategy := new(MockHedgingStrategy)
	ledger := new(MockTransferLedger)

	ledger.On("GetPendingDeposit", ctx).Return(emptyPending()).Once()
	ledger.On("GetPendingWithdraw", ctx).Return(emptyPending()).Once()
	strategy.On("Name").Return("paper")
	strategy.On("GetBtcSpotPriceInUsd", ctx).Return(domain.Ok(50_000.0)).Once()
	wallet.On("GetUsdWalletBalance", ctx).Return(domain.Ok(math.NaN())).Once()

	loop := newControlLoop(wallet, strategy, ledger, 5)
	result := loop.Tick(ctx)

	require.False(t, result.IsOk())
	assert.Contains(t, result.Err().Error(), "Liabilities is unavailable or NaN.")
	strategy.AssertNotCalled(t, "UpdatePosition", mock.Anything, mock.Anything, mock.Anything)
	strategy.AssertNotCalled(t, "ClosePosition", mock.Anything)
	strategy.AssertNotCalled(t, "UpdateLeverage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestControlLoop_AggregationPrefersPositionError covers §4.H's
// aggregation rule: when both phases fail, the position error wins.
func TestControlLoop_AggregationPrefersPositionError(t *testing.T) {
	ctx := context.Background()
	wallet := new(MockWalletClient)
	strategy := new(MockHedgingStrategy)
	ledger := new(MockTransferLedger)

	ledger.On("GetPendingDeposit", ctx).Return(emptyPending()).Once()
	ledger.On("GetPendingWithdraw", ctx).Return(emptyPending()).Once()
	strategy.On("Name").Return("paper")
	strategy.On("GetBtcSpotPriceInUsd", ctx).Return(domain.Ok(50_000.0)).Once()
	wallet.On("GetUsdWalletBalance", ctx).Return(domain.Ok(-1000.0)).Once()

	positionErr := domain.NewStrategyError("position update failed", nil)
	strategy.On("UpdatePosition", ctx, 1000.0, 50_000.0).
		Return(domain.Failure[domain.PositionDelta](positionErr)).Once()
	ledger.On("GetPendingCount", ctx).Return(domain.Ok(0)).Once()
	wallet.On("DepositAddress", ctx).Return(domain.Ok("addr-1")).Once()
	leverageErr := domain.NewStrategyError("leverage update failed", nil)
	strategy.On("UpdateLeverage", ctx, 1000.0, 50_000.0, "addr-1", mock.Anything, mock.Anything).
		Return(domain.Failure[domain.LeverageDelta](leverageErr)).Once()

	loop := newControlLoop(wallet, strategy, ledger, 5)
	result := loop.Tick(ctx)

	require.False(t, result.IsOk())
	assert.Same(t, positionErr, result.Err())
}
