// Package ports names the external collaborators the control loop depends
// on. Concrete implementations live in sibling packages (wallet, strategy,
// repository); the control loop itself only ever sees these interfaces.
package ports

import (
	"context"

	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/domain"
)

// WalletClient queries and moves funds in the custodial wallet that backs
// the USD liability.
type WalletClient interface {
	GetUsdWalletBalance(ctx context.Context) domain.Result[float64]
	GetBtcWalletBalance(ctx context.Context) domain.Result[float64]
	// DepositAddress returns a fresh or reusable on-chain address to
	// receive collateral.
	DepositAddress(ctx context.Context) domain.Result[string]
	PayOnChain(ctx context.Context, address string, sats int64, memo string) domain.Result[struct{}]
}

// DepositCallback executes an on-chain deposit and records it in the
// ledger, retrying with a halved size on failure. Bound to a dealer
// instance and passed by value into HedgingStrategy.UpdateLeverage.
type DepositCallback func(ctx context.Context, address string, sizeBtc float64) domain.Result[struct{}]

// WithdrawCallback records the expectation of an exchange-initiated
// withdrawal. Bound to a dealer instance and passed by value into
// HedgingStrategy.UpdateLeverage.
type WithdrawCallback func(ctx context.Context, address string, sizeBtc float64) domain.Result[struct{}]

// HedgingStrategy owns position and leverage math against a specific
// exchange. The core never inspects its internals; it only sequences calls
// into it and logs what comes back.
type HedgingStrategy interface {
	Name() string
	GetBtcSpotPriceInUsd(ctx context.Context) domain.Result[float64]
	UpdatePosition(ctx context.Context, usdLiability, btcPriceInUsd float64) domain.Result[domain.PositionDelta]
	ClosePosition(ctx context.Context) domain.Result[struct{}]
	UpdateLeverage(
		ctx context.Context,
		usdLiability, btcPriceInUsd float64,
		depositAddress string,
		withdraw WithdrawCallback,
		deposit DepositCallback,
	) domain.Result[domain.LeverageDelta]
	IsDepositCompleted(ctx context.Context, address string, sats int64) domain.Result[bool]
	IsWithdrawalCompleted(ctx context.Context, address string, sats int64) domain.Result[bool]
}

// TransferLedger is the persistent store of in-flight on-chain transfers.
type TransferLedger interface {
	Insert(ctx context.Context, t domain.Transfer) domain.Result[struct{}]
	GetPendingDeposit(ctx context.Context) domain.Result[map[string][]domain.Transfer]
	GetPendingWithdraw(ctx context.Context) domain.Result[map[string][]domain.Transfer]
	// Completed idempotently flips a row's Completed to true.
	Completed(ctx context.Context, address string) domain.Result[struct{}]
	GetPendingCount(ctx context.Context) domain.Result[int]
}
