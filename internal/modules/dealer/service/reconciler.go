// Package service implements the control loop itself: the reconciler, the
// position and rebalance phases, the transfer callbacks, and the top-level
// tick sequencing. Grounded on the teacher's reconciliation service shape
// (internal/modules/infrastructure/service/reconciliation.go) for the
// sweep-then-mark-complete pattern, generalized here from payout
// reconciliation to on-chain transfer settlement.
package service

import (
	"context"

	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/domain"
	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/ports"
	"github.com/hxuan190/stable_payment_gateway/internal/pkg/logger"
)

// TransferReconciler sweeps pending deposits and withdrawals each tick,
// asking the strategy whether each has settled, and marks settled rows
// complete in the ledger.
type TransferReconciler struct {
	ledger   ports.TransferLedger
	strategy ports.HedgingStrategy
}

// NewTransferReconciler constructs a TransferReconciler bound to a ledger
// and a strategy.
func NewTransferReconciler(ledger ports.TransferLedger, strategy ports.HedgingStrategy) *TransferReconciler {
	return &TransferReconciler{ledger: ledger, strategy: strategy}
}

// Reconcile sweeps pending deposits, then pending withdrawals. A failed
// settlement check or ledger-write for one row never aborts the sweep — it
// is logged and the row is left for the next tick. The sweep itself only
// fails if the ledger reads fail, since without them there is nothing to
// reconcile.
func (r *TransferReconciler) Reconcile(ctx context.Context) domain.Result[struct{}] {
	if err := r.sweep(ctx, domain.DepositToExchange); err != nil {
		return domain.Failure[struct{}](err)
	}
	if err := r.sweep(ctx, domain.WithdrawFromExchange); err != nil {
		return domain.Failure[struct{}](err)
	}
	return domain.Ok(struct{}{})
}

func (r *TransferReconciler) sweep(ctx context.Context, direction domain.Direction) error {
	var pending domain.Result[map[string][]domain.Transfer]
	if direction == domain.DepositToExchange {
		pending = r.ledger.GetPendingDeposit(ctx)
	} else {
		pending = r.ledger.GetPendingWithdraw(ctx)
	}
	if !pending.IsOk() {
		return domain.NewLedgerError("failed to read pending transfers", pending.Err())
	}

	for address, rows := range pending.Value() {
		for _, row := range rows {
			r.reconcileRow(ctx, direction, address, row)
		}
	}
	return nil
}

func (r *TransferReconciler) reconcileRow(ctx context.Context, direction domain.Direction, address string, row domain.Transfer) {
	var settled domain.Result[bool]
	if direction == domain.DepositToExchange {
		settled = r.strategy.IsDepositCompleted(ctx, address, row.SizeSats)
	} else {
		settled = r.strategy.IsWithdrawalCompleted(ctx, address, row.SizeSats)
	}
	if !settled.IsOk() {
		logger.LogReconcileRowFailed(ctx, string(direction), address, settled.Err())
		return
	}
	if !settled.Value() {
		return
	}

	res := r.ledger.Completed(ctx, address)
	if !res.IsOk() {
		// A ledger write failure here is logged and tolerated: the row
		// stays pending and the next tick's sweep will retry it.
		logger.LogReconcileRowFailed(ctx, string(direction), address, res.Err())
		return
	}
	logger.LogTransferSettled(ctx, string(direction), address)
}
