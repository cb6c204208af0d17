// Package strategy holds HedgingStrategy implementations. PaperStrategy is
// a reference implementation with no live exchange behind it — an in-memory
// book that exercises the full UpdatePosition/ClosePosition/UpdateLeverage
// contract so the control loop can be exercised end to end without a real
// venue, grounded in spirit on the teacher's in-memory test doubles
// (internal/service/payment_test.go's fakes) but shipped as a real,
// non-test strategy per SPEC_FULL.md §11.
package strategy

import (
	"context"
	"math"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/domain"
	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/ports"
	"github.com/hxuan190/stable_payment_gateway/internal/pkg/logger"
)

// satsPerBTC converts a BTC-denominated size into the satoshi units the
// WalletClient and TransferLedger operate on.
const satsPerBTC = 100_000_000

// PaperStrategy books a short BTC position against the configured spot
// price with no real exchange behind it. Position size is tracked as a
// signed BTC quantity; leverage rebalancing requests a deposit sized to the
// midpoint of [minMarginRatio, maxMarginRatio] applied to the position's
// notional value (see UpdateLeverage).
type PaperStrategy struct {
	mu sync.Mutex

	spotPriceUsd float64
	positionBtc  float64

	// pendingDeposits/pendingWithdrawals simulate the exchange's own
	// internal ledger of transfers it is expecting, keyed by address, so
	// IsDepositCompleted/IsWithdrawalCompleted have something to answer
	// against in a paper environment.
	pendingDeposits    map[string]int64
	pendingWithdrawals map[string]int64

	minMarginRatio float64
	maxMarginRatio float64
}

// NewPaperStrategy constructs a PaperStrategy seeded with a starting spot
// price. minMarginRatio/maxMarginRatio bound the leverage band that
// UpdateLeverage targets.
func NewPaperStrategy(startingSpotPriceUsd, minMarginRatio, maxMarginRatio float64) *PaperStrategy {
	return &PaperStrategy{
		spotPriceUsd:       startingSpotPriceUsd,
		pendingDeposits:    make(map[string]int64),
		pendingWithdrawals: make(map[string]int64),
		minMarginRatio:     minMarginRatio,
		maxMarginRatio:     maxMarginRatio,
	}
}

func (s *PaperStrategy) Name() string { return "paper" }

// GetBtcSpotPriceInUsd returns the strategy's tracked spot price. It fails
// with UpstreamUnavailable only when that price is non-positive or NaN.
func (s *PaperStrategy) GetBtcSpotPriceInUsd(ctx context.Context) domain.Result[float64] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spotPriceUsd <= 0 || math.IsNaN(s.spotPriceUsd) {
		return domain.Failure[float64](domain.NewUpstreamUnavailable("spot price unavailable", nil))
	}
	return domain.Ok(s.spotPriceUsd)
}

// UpdatePosition adjusts the booked short position so that its notional
// value offsets usdLiability at btcPriceInUsd, and returns the signed delta
// applied.
func (s *PaperStrategy) UpdatePosition(ctx context.Context, usdLiability, btcPriceInUsd float64) domain.Result[domain.PositionDelta] {
	if btcPriceInUsd <= 0 {
		return domain.Failure[domain.PositionDelta](domain.NewInvariantViolation("btc price must be positive"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	targetPositionBtc := -usdLiability / btcPriceInUsd
	delta := targetPositionBtc - s.positionBtc
	s.positionBtc = targetPositionBtc

	logger.LogPositionAdjusted(ctx, decimal.NewFromFloat(usdLiability).String(), decimal.NewFromFloat(btcPriceInUsd).String(), delta)
	return domain.Ok[domain.PositionDelta](delta)
}

// ClosePosition flattens the booked position entirely. Its error, if any,
// is deliberately ignored by the control loop (spec.md §4.E) — closing is
// best-effort once the liability has fallen below the configured threshold.
func (s *PaperStrategy) ClosePosition(ctx context.Context) domain.Result[struct{}] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positionBtc = 0
	return domain.Ok(struct{}{})
}

// UpdateLeverage requests collateral for the booked position: when the
// position is non-flat it calls deposit with the position's notional value
// times the midpoint of [minMarginRatio, maxMarginRatio], converted to BTC.
// It does not track or read the margin already held, so it does not compare
// the current ratio against the band, and with positive band ratios it
// never calls withdraw.
func (s *PaperStrategy) UpdateLeverage(
	ctx context.Context,
	usdLiability, btcPriceInUsd float64,
	depositAddress string,
	withdraw ports.WithdrawCallback,
	deposit ports.DepositCallback,
) domain.Result[domain.LeverageDelta] {
	if btcPriceInUsd <= 0 {
		return domain.Failure[domain.LeverageDelta](domain.NewInvariantViolation("btc price must be positive"))
	}

	s.mu.Lock()
	notionalUsd := math.Abs(s.positionBtc) * btcPriceInUsd
	s.mu.Unlock()

	if notionalUsd <= 0 {
		return domain.Ok[domain.LeverageDelta](0.0)
	}

	targetMarginUsd := notionalUsd * (s.minMarginRatio + s.maxMarginRatio) / 2
	targetMarginBtc := targetMarginUsd / btcPriceInUsd

	minMarginBtc := notionalUsd * s.minMarginRatio / btcPriceInUsd
	maxMarginBtc := notionalUsd * s.maxMarginRatio / btcPriceInUsd
	_ = minMarginBtc
	_ = maxMarginBtc

	deltaBtc := targetMarginBtc

	if deltaBtc > 0 {
		res := deposit(ctx, depositAddress, deltaBtc)
		if !res.IsOk() {
			return domain.Failure[domain.LeverageDelta](res.Err())
		}
		s.mu.Lock()
		s.pendingDeposits[depositAddress] = int64(deltaBtc * satsPerBTC)
		s.mu.Unlock()
		logger.LogLeverageRebalanced(ctx, depositAddress, deltaBtc)
		return domain.Ok[domain.LeverageDelta](deltaBtc)
	}

	res := withdraw(ctx, depositAddress, -deltaBtc)
	if !res.IsOk() {
		return domain.Failure[domain.LeverageDelta](res.Err())
	}
	s.mu.Lock()
	s.pendingWithdrawals[depositAddress] = int64(-deltaBtc * satsPerBTC)
	s.mu.Unlock()
	logger.LogLeverageRebalanced(ctx, depositAddress, deltaBtc)
	return domain.Ok[domain.LeverageDelta](deltaBtc)
}

// IsDepositCompleted reports whether the exchange has observed sats
// credited at address. In paper mode this always resolves true on the
// first check — there is no real confirmation delay to model.
func (s *PaperStrategy) IsDepositCompleted(ctx context.Context, address string, sats int64) domain.Result[bool] {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pendingDeposits, address)
	return domain.Ok(true)
}

// IsWithdrawalCompleted reports whether the exchange has released sats at
// address. Same paper-mode behavior as IsDepositCompleted.
func (s *PaperStrategy) IsWithdrawalCompleted(ctx context.Context, address string, sats int64) domain.Result[bool] {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pendingWithdrawals, address)
	return domain.Ok(true)
}

// SetSpotPriceUsd moves the paper market's tracked spot price.
func (s *PaperStrategy) SetSpotPriceUsd(price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spotPriceUsd = price
}
