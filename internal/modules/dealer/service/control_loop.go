package service

import (
	"context"
	"math"

	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/domain"
	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/ports"
	"github.com/hxuan190/stable_payment_gateway/internal/pkg/logger"
)

// ControlLoop orders the reconciler, the position phase, and the rebalance
// phase into one tick, and aggregates their outcomes into a single result.
type ControlLoop struct {
	reconciler *TransferReconciler
	position   *PositionPhase
	rebalance  *RebalancePhase
	ledger     ports.TransferLedger
	strategy   ports.HedgingStrategy
	wallet     ports.WalletClient
}

// NewControlLoop wires the three phases together. All collaborators are
// shared across ticks; the loop itself holds no per-tick state.
func NewControlLoop(
	reconciler *TransferReconciler,
	position *PositionPhase,
	rebalance *RebalancePhase,
	ledger ports.TransferLedger,
	strategy ports.HedgingStrategy,
	wallet ports.WalletClient,
) *ControlLoop {
	return &ControlLoop{
		reconciler: reconciler,
		position:   position,
		rebalance:  rebalance,
		ledger:     ledger,
		strategy:   strategy,
		wallet:     wallet,
	}
}

// Tick runs one end-to-end pass: reconcile, fetch spot price and liability,
// run PositionPhase, then RebalancePhase, then aggregate. The core is
// single-writer — Tick must never be called concurrently for the same
// instance; the caller (the scheduled job) is responsible for that.
func (l *ControlLoop) Tick(ctx context.Context) domain.Result[domain.TickOutcome] {
	logger.LogTickStarted(ctx, l.strategy.Name(), "", "")

	if res := l.reconciler.Reconcile(ctx); !res.IsOk() {
		logger.LogTickCompleted(ctx, false, logger.Fields{"phase": "reconcile", "error": res.Err().Error()})
		return domain.Failure[domain.TickOutcome](res.Err())
	}

	priceRes := l.strategy.GetBtcSpotPriceInUsd(ctx)
	if !priceRes.IsOk() {
		logger.LogTickCompleted(ctx, false, logger.Fields{"phase": "spot_price", "error": priceRes.Err().Error()})
		return domain.Failure[domain.TickOutcome](priceRes.Err())
	}
	btcPriceInUsd := priceRes.Value()

	usdLiability, err := l.queryLiability(ctx)
	if err != nil {
		logger.LogTickCompleted(ctx, false, logger.Fields{"phase": "liability", "error": err.Error()})
		return domain.Failure[domain.TickOutcome](err)
	}

	positionSkipped, positionResult := l.position.Run(ctx, usdLiability, btcPriceInUsd)

	pendingRes := l.ledger.GetPendingCount(ctx)
	if !pendingRes.IsOk() {
		logger.LogTickCompleted(ctx, false, logger.Fields{"phase": "pending_count", "error": pendingRes.Err().Error()})
		return domain.Failure[domain.TickOutcome](domain.NewLedgerError("failed to read pending transfer count", pendingRes.Err()))
	}
	pendingCount := pendingRes.Value()

	leverageSkipped, leverageResult, abortErr := l.rebalance.Run(ctx, usdLiability, btcPriceInUsd, pendingCount)
	if abortErr != nil {
		logger.LogTickCompleted(ctx, false, logger.Fields{"phase": "rebalance", "error": abortErr.Error()})
		return domain.Failure[domain.TickOutcome](abortErr)
	}

	outcome := domain.TickOutcome{
		PositionSkipped: positionSkipped,
		PositionResult:  positionResult,
		LeverageSkipped: leverageSkipped,
		LeverageResult:  leverageResult,
		PendingCount:    pendingCount,
	}

	if !outcome.Succeeded() {
		fields := logger.Fields{"error": outcome.AggregateError().Error()}
		if positionResult != nil && !positionResult.IsOk() && leverageResult != nil && !leverageResult.IsOk() {
			fields["leverage_error"] = leverageResult.Err().Error()
		}
		logger.LogTickCompleted(ctx, false, fields)
		return domain.Failure[domain.TickOutcome](outcome.AggregateError())
	}

	logger.LogTickCompleted(ctx, true, logger.Fields{
		"usd_liability":    formatFloat(usdLiability),
		"btc_price_usd":    formatFloat(btcPriceInUsd),
		"position_skipped": positionSkipped,
		"leverage_skipped": leverageSkipped,
		"pending_count":    pendingCount,
	})
	return domain.Ok(outcome)
}

// queryLiability fetches the USD wallet balance, inverts its sign (the
// wallet reports negative when the user owes USD; downstream phases need a
// non-negative liability), and validates it is finite.
func (l *ControlLoop) queryLiability(ctx context.Context) (float64, error) {
	balanceRes := l.wallet.GetUsdWalletBalance(ctx)
	if !balanceRes.IsOk() {
		return 0, domain.NewUpstreamUnavailable("Liabilities is unavailable or NaN.", balanceRes.Err())
	}

	usdLiability := -balanceRes.Value()
	if math.IsNaN(usdLiability) || math.IsInf(usdLiability, 0) {
		return 0, domain.NewUpstreamUnavailable("Liabilities is unavailable or NaN.", nil)
	}
	return usdLiability, nil
}
