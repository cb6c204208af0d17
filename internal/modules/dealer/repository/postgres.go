// Package repository is the gorm-backed TransferLedger implementation,
// adapted from the teacher's internal/modules/payout/repository/postgres.go.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/domain"
)

// TransferLedger persists in-flight on-chain transfers.
type TransferLedger struct {
	gormDB *gorm.DB
}

// NewTransferLedger creates a new ledger repository.
func NewTransferLedger(gormDB *gorm.DB) *TransferLedger {
	return &TransferLedger{gormDB: gormDB}
}

// Insert adds a new transfer row. ID is assigned here if absent. A row is
// rejected if a pending row with the same address and direction exists.
func (r *TransferLedger) Insert(ctx context.Context, t domain.Transfer) domain.Result[struct{}] {
	if t.Address == "" {
		return domain.Failure[struct{}](domain.NewLedgerError("transfer address cannot be empty", nil))
	}
	if t.SizeSats <= 0 {
		return domain.Failure[struct{}](domain.NewLedgerError("transfer sizeSats must be positive", nil))
	}
	var existing int64
	if err := r.gormDB.WithContext(ctx).Model(&domain.Transfer{}).
		Where("direction = ? AND address = ? AND completed = ?", t.Direction, t.Address, false).
		Count(&existing).Error; err != nil {
		return domain.Failure[struct{}](domain.NewLedgerError("failed to check pending transfers for address", err))
	}
	if existing > 0 {
		return domain.Failure[struct{}](domain.NewLedgerError("a pending transfer already exists for this address and direction", nil))
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}

	if err := r.gormDB.WithContext(ctx).Create(&t).Error; err != nil {
		return domain.Failure[struct{}](domain.NewLedgerError("failed to insert transfer", err))
	}
	return domain.Ok(struct{}{})
}

// GetPendingDeposit returns all pending DepositToExchange rows grouped by
// address, the shape TransferReconciler keys off of.
func (r *TransferLedger) GetPendingDeposit(ctx context.Context) domain.Result[map[string][]domain.Transfer] {
	return r.getPendingByDirection(ctx, domain.DepositToExchange)
}

// GetPendingWithdraw returns all pending WithdrawFromExchange rows grouped
// by address.
func (r *TransferLedger) GetPendingWithdraw(ctx context.Context) domain.Result[map[string][]domain.Transfer] {
	return r.getPendingByDirection(ctx, domain.WithdrawFromExchange)
}

func (r *TransferLedger) getPendingByDirection(ctx context.Context, direction domain.Direction) domain.Result[map[string][]domain.Transfer] {
	var rows []domain.Transfer
	err := r.gormDB.WithContext(ctx).
		Where("direction = ? AND completed = ?", direction, false).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return domain.Failure[map[string][]domain.Transfer](
			domain.NewLedgerError(fmt.Sprintf("failed to query pending %s transfers", direction), err))
	}

	grouped := make(map[string][]domain.Transfer, len(rows))
	for _, row := range rows {
		grouped[row.Address] = append(grouped[row.Address], row)
	}
	return domain.Ok(grouped)
}

// Completed idempotently flips a row's completed flag to true. Marking an
// already-completed row, or a row that does not exist, is a no-op success —
// the reconciler must be able to revisit a row on a later tick without
// turning a stale read into an error.
func (r *TransferLedger) Completed(ctx context.Context, address string) domain.Result[struct{}] {
	if address == "" {
		return domain.Failure[struct{}](domain.NewLedgerError("address cannot be empty", nil))
	}

	err := r.gormDB.WithContext(ctx).
		Model(&domain.Transfer{}).
		Where("address = ? AND completed = ?", address, false).
		Update("completed", true).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Failure[struct{}](domain.NewLedgerError("failed to mark transfer completed", err))
	}
	return domain.Ok(struct{}{})
}

// GetPendingCount returns the number of not-yet-completed rows across both
// directions; RebalancePhase gates on this being zero.
func (r *TransferLedger) GetPendingCount(ctx context.Context) domain.Result[int] {
	var count int64
	if err := r.gormDB.WithContext(ctx).Model(&domain.Transfer{}).Where("completed = ?", false).Count(&count).Error; err != nil {
		return domain.Failure[int](domain.NewLedgerError("failed to count pending transfers", err))
	}
	return domain.Ok(int(count))
}
