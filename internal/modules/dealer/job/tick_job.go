// Package job wraps the control loop in the scheduled-job shape the
// teacher's background jobs use, grounded on
// internal/jobs/otc_liquidity_monitor.go (OTCLiquidityMonitorJob's
// Name/Schedule/Run shape).
package job

import (
	"context"
	"fmt"

	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/domain"
	"github.com/hxuan190/stable_payment_gateway/internal/modules/dealer/service"
	"github.com/hxuan190/stable_payment_gateway/internal/pkg/logger"
)

// TickJobName identifies this job in the scheduler and in logs.
const TickJobName = "dealer_tick"

// TickJob runs one ControlLoop.Tick per invocation. The scheduler
// (cmd/dealer/main.go) is responsible for spacing invocations at least
// Config.Dealer.TickInterval apart and for never overlapping two runs —
// the control loop is single-writer, per spec.md §5.
type TickJob struct {
	loop *service.ControlLoop
}

// NewTickJob constructs a TickJob bound to a wired ControlLoop.
func NewTickJob(loop *service.ControlLoop) *TickJob {
	return &TickJob{loop: loop}
}

// GetName returns the job's identifier.
func (j *TickJob) GetName() string {
	return TickJobName
}

// Run executes exactly one tick and returns its outcome alongside an error
// wrapping the tick's failure, if any, so callers that only care about
// scheduler retry/backoff can treat it as a plain error, and callers that
// want tick history (cmd/dealer/main.go) can inspect what was skipped and
// how many transfers were pending. Run never panics or retries internally.
func (j *TickJob) Run(ctx context.Context) (domain.TickOutcome, error) {
	result := j.loop.Tick(ctx)
	outcome := result.Value()
	if !result.IsOk() {
		logger.Error("dealer tick failed", result.Err(), logger.Fields{"job": TickJobName})
		return outcome, fmt.Errorf("dealer tick failed: %w", result.Err())
	}
	return outcome, nil
}
