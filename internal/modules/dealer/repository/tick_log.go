package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TickLogEntry records one control loop tick for audit and operational
// visibility, mirroring the teacher's ReconciliationLog
// (internal/modules/infrastructure/service/reconciliation.go). It is purely
// additive telemetry: nothing in the control loop reads it back, so it
// cannot influence tick() semantics.
type TickLogEntry struct {
	ID              string    `gorm:"column:id;primaryKey"`
	StartedAt       time.Time `gorm:"column:started_at;not null"`
	FinishedAt      time.Time `gorm:"column:finished_at;not null"`
	Success         bool      `gorm:"column:success;not null"`
	PositionSkipped bool      `gorm:"column:position_skipped;not null"`
	LeverageSkipped bool      `gorm:"column:leverage_skipped;not null"`
	PendingCount    int       `gorm:"column:pending_count;not null"`
	ErrorMessage    string    `gorm:"column:error_message"`
}

func (TickLogEntry) TableName() string {
	return "dealer_tick_log"
}

// TickLog persists TickLogEntry rows.
type TickLog struct {
	gormDB *gorm.DB
}

// NewTickLog creates a new tick history repository.
func NewTickLog(gormDB *gorm.DB) *TickLog {
	return &TickLog{gormDB: gormDB}
}

// Record inserts one tick's history row. Failures here are logged by the
// caller and never propagate into the tick's own Result, since history is
// not part of the observable contract.
func (l *TickLog) Record(ctx context.Context, entry TickLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	return l.gormDB.WithContext(ctx).Create(&entry).Error
}

// Recent returns the most recent tick history rows, newest first.
func (l *TickLog) Recent(ctx context.Context, limit int) ([]TickLogEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []TickLogEntry
	err := l.gormDB.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}
