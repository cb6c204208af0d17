package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/domain"
	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/ports"
	"github.com/hxuan190/stable_payment_gateway/internal/pkg/logger"
)

const satsPerBTC = 100_000_000

// btcPrecision is the fixed BTC decimal precision (8 places, i.e. whole
// sats) sizes are rounded to before each halving retry, per spec.md §6's
// numeric conventions.
const btcPrecision = 8

// defaultDepositRetries is the number of halving retries TransferCallbacks
// applies when its owner does not override it via WithDepositRetries.
const defaultDepositRetries = 2

// TransferCallbacks implements the deposit and withdraw callbacks
// RebalancePhase binds and passes into HedgingStrategy.UpdateLeverage.
type TransferCallbacks struct {
	wallet  ports.WalletClient
	ledger  ports.TransferLedger
	name    string // strategy name, used to build the ledger memo
	retries int
}

// NewTransferCallbacks constructs callbacks bound to a wallet, a ledger,
// and the active strategy's name (used in the ledger memo).
func NewTransferCallbacks(wallet ports.WalletClient, ledger ports.TransferLedger, strategyName string) *TransferCallbacks {
	return &TransferCallbacks{wallet: wallet, ledger: ledger, name: strategyName, retries: defaultDepositRetries}
}

// WithDepositRetries overrides the default halving-retry budget.
func (c *TransferCallbacks) WithDepositRetries(retries int) *TransferCallbacks {
	c.retries = retries
	return c
}

// Deposit pays sizeBtc on-chain to address and records the transfer in the
// ledger. On a pay failure it halves sizeBtc and retries, up to
// c.retries+1 total pay attempts. Any unexpected panic is recovered and
// converted to a failure Result, never propagated past this boundary.
func (c *TransferCallbacks) Deposit(ctx context.Context, address string, sizeBtc float64) (result domain.Result[struct{}]) {
	defer func() {
		if r := recover(); r != nil {
			result = domain.Failure[struct{}](domain.NewUpstreamUnavailable(fmt.Sprintf("deposit callback panicked: %v", r), nil))
		}
	}()
	return c.deposit(ctx, address, sizeBtc, c.retries)
}

func (c *TransferCallbacks) deposit(ctx context.Context, address string, sizeBtc float64, retries int) domain.Result[struct{}] {
	sizeBtc = roundBTC(sizeBtc)
	sizeSats := btcToSats(sizeBtc)
	memo := fmt.Sprintf("dealer-deposit:%s", c.name)

	res := c.wallet.PayOnChain(ctx, address, sizeSats, memo)
	if !res.IsOk() {
		if retries > 0 {
			logger.LogDepositRetried(ctx, address, formatFloat(sizeBtc), retries-1, res.Err())
			return c.deposit(ctx, address, sizeBtc/2, retries-1)
		}
		return domain.Failure[struct{}](domain.NewUpstreamUnavailable("on-chain deposit payment failed", res.Err()))
	}

	insertRes := c.ledger.Insert(ctx, domain.Transfer{
		Direction: domain.DepositToExchange,
		Address:   address,
		SizeSats:  sizeSats,
		Memo:      memo,
		Completed: false,
	})
	if !insertRes.IsOk() {
		// The on-chain payment has already succeeded; failing to record it
		// is a money-safety incident, not a retryable condition — see
		// spec.md §9's open question on this gap. Logged at error and
		// surfaced as this callback's failure rather than silently
		// swallowed.
		logger.Error("deposit succeeded on-chain but ledger insert failed", insertRes.Err(), logger.Fields{
			"address":   address,
			"size_sats": sizeSats,
		})
		return domain.Failure[struct{}](domain.NewLedgerError("deposit succeeded on-chain but ledger insert failed", insertRes.Err()))
	}
	logger.LogTransferRecorded(ctx, string(domain.DepositToExchange), address, sizeSats)

	return domain.Ok(struct{}{})
}

// Withdraw records the expectation of an exchange-initiated withdrawal. No
// on-chain action is taken here.
func (c *TransferCallbacks) Withdraw(ctx context.Context, address string, sizeBtc float64) (result domain.Result[struct{}]) {
	defer func() {
		if r := recover(); r != nil {
			result = domain.Failure[struct{}](domain.NewUpstreamUnavailable(fmt.Sprintf("withdraw callback panicked: %v", r), nil))
		}
	}()

	sizeSats := btcToSats(roundBTC(sizeBtc))
	memo := fmt.Sprintf("dealer-withdraw:%s", c.name)

	res := c.ledger.Insert(ctx, domain.Transfer{
		Direction: domain.WithdrawFromExchange,
		Address:   address,
		SizeSats:  sizeSats,
		Memo:      memo,
		Completed: false,
	})
	if !res.IsOk() {
		return domain.Failure[struct{}](domain.NewLedgerError("withdraw ledger insert failed", res.Err()))
	}
	logger.LogTransferRecorded(ctx, string(domain.WithdrawFromExchange), address, sizeSats)
	return domain.Ok(struct{}{})
}

func roundBTC(sizeBtc float64) float64 {
	d := decimal.NewFromFloat(sizeBtc).Round(btcPrecision)
	f, _ := d.Float64()
	return f
}

func btcToSats(sizeBtc float64) int64 {
	return decimal.NewFromFloat(sizeBtc).Mul(decimal.NewFromInt(satsPerBTC)).IntPart()
}
