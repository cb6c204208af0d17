package service

import (
	"context"

	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/domain"
	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/ports"
	"github.com/hxuan190/stable_payment_gateway/internal/pkg/logger"
)

// PositionPhase decides whether to close, skip, or resize the exchange
// position against a liability threshold.
type PositionPhase struct {
	strategy  ports.HedgingStrategy
	threshold float64
}

// NewPositionPhase constructs a PositionPhase bound to a strategy and the
// configured MinimumPositiveLiabilityUSD threshold.
func NewPositionPhase(strategy ports.HedgingStrategy, threshold float64) *PositionPhase {
	return &PositionPhase{strategy: strategy, threshold: threshold}
}

// Run applies the threshold rule: below it, the position is closed and
// skipped from further reporting; at or above it, the strategy is asked to
// resize. closePosition's own Result is never inspected — the strategy owns
// its idempotence, per spec.md's design notes.
func (p *PositionPhase) Run(ctx context.Context, usdLiability, btcPriceInUsd float64) (skipped bool, result *domain.Result[domain.PositionDelta]) {
	if usdLiability < p.threshold {
		_ = p.strategy.ClosePosition(ctx)
		logger.LogPositionClosed(ctx, formatFloat(usdLiability), formatFloat(p.threshold))
		return true, nil
	}

	res := p.strategy.UpdatePosition(ctx, usdLiability, btcPriceInUsd)
	return false, &res
}
