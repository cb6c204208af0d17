package domain

import "time"

// Direction is the side of an in-flight on-chain transfer.
type Direction string

const (
	// DepositToExchange moves collateral from the custodial wallet onto the exchange.
	DepositToExchange Direction = "deposit_to_exchange"
	// WithdrawFromExchange moves collateral off the exchange back to the wallet.
	WithdrawFromExchange Direction = "withdraw_from_exchange"
)

// Transfer is a single in-flight on-chain movement. Direction and SizeSats
// are immutable after insertion; only Completed is ever mutated, and only
// by the reconciler flipping it from false to true. Address is unique
// across currently-pending rows of the same Direction — the reconciler
// keys completion by address, so two pending rows sharing an address in
// the same direction would make a settlement ambiguous. Rows are never
// deleted; they are retained indefinitely for audit.
type Transfer struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	Direction Direction `gorm:"column:direction;not null" json:"direction"`
	Address   string    `gorm:"column:address;not null" json:"address"`
	SizeSats  int64     `gorm:"column:size_sats;not null" json:"size_sats"`
	Memo      string    `gorm:"column:memo" json:"memo"`
	Completed bool      `gorm:"column:completed;not null;default:false" json:"completed"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName pins the gorm table name regardless of struct name changes.
func (Transfer) TableName() string {
	return "dealer_transfers"
}

// PositionDelta is opaque to the core: supplied by the strategy, logged
// verbatim, never inspected.
type PositionDelta = any

// LeverageDelta is opaque to the core: supplied by the strategy, logged
// verbatim, never inspected.
type LeverageDelta = any

// TickOutcome is the aggregated record of one control loop tick. If
// PositionSkipped is true, PositionResult is absent; symmetrically for
// leverage. At least one of {skipped, result} is populated per phase.
type TickOutcome struct {
	PositionSkipped bool
	PositionResult  *Result[PositionDelta]
	LeverageSkipped bool
	LeverageResult  *Result[LeverageDelta]
	PendingCount    int
}

// Succeeded reports whether every non-skipped phase succeeded, per the
// control loop's aggregation rule in its tick() contract.
func (o TickOutcome) Succeeded() bool {
	if !o.PositionSkipped && o.PositionResult != nil && !o.PositionResult.IsOk() {
		return false
	}
	if !o.LeverageSkipped && o.LeverageResult != nil && !o.LeverageResult.IsOk() {
		return false
	}
	return true
}

// AggregateError selects the error the control loop surfaces when the tick
// did not succeed: the position error wins if present, otherwise the
// leverage error, otherwise ErrUnknown. When both phases failed,
// ControlLoop.Tick logs the leverage error alongside the surfaced one.
func (o TickOutcome) AggregateError() error {
	if !o.PositionSkipped && o.PositionResult != nil && !o.PositionResult.IsOk() {
		return o.PositionResult.Err()
	}
	if !o.LeverageSkipped && o.LeverageResult != nil && !o.LeverageResult.IsOk() {
		return o.LeverageResult.Err()
	}
	return ErrUnknown
}
