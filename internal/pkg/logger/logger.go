package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus.Logger with additional functionality
type Logger struct {
	*logrus.Logger
}

// Fields type for structured logging
type Fields map[string]interface{}

// ContextKey type for context values
type contextKey string

const (
	// CorrelationIDKey is the context key for correlation ID
	CorrelationIDKey contextKey = "correlation_id"
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
)

var (
	// defaultLogger is the global logger instance
	defaultLogger *Logger
)

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, text
	Output     io.Writer
	ReportCaller bool
}

// New creates a new logger instance
func New(cfg Config) *Logger {
	log := logrus.New()

	// Set log level
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	// Set output format
	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
				logrus.FieldKeyFunc:  "caller",
			},
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	}

	// Set output
	if cfg.Output != nil {
		log.SetOutput(cfg.Output)
	} else {
		log.SetOutput(os.Stdout)
	}

	// Set caller reporting
	log.SetReportCaller(cfg.ReportCaller)

	return &Logger{Logger: log}
}

// Init initializes the default logger
func Init(cfg Config) {
	defaultLogger = New(cfg)
}

// GetLogger returns the default logger instance
func GetLogger() *Logger {
	if defaultLogger == nil {
		// Initialize with default config if not set
		Init(Config{
			Level:  "info",
			Format: "json",
		})
	}
	return defaultLogger
}

// WithFields creates a new logger entry with fields
func (l *Logger) WithFields(fields Fields) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields(fields))
}

// WithContext creates a new logger entry with context values
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := l.Logger.WithContext(ctx)

	// Add correlation ID if present
	if correlationID := ctx.Value(CorrelationIDKey); correlationID != nil {
		entry = entry.WithField("correlation_id", correlationID)
	}

	// Add request ID if present
	if requestID := ctx.Value(RequestIDKey); requestID != nil {
		entry = entry.WithField("request_id", requestID)
	}

	return entry
}

// WithError creates a new logger entry with error
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}

// Helper methods for structured logging

// Debug logs a debug message
func Debug(msg string, fields ...Fields) {
	entry := logrus.NewEntry(GetLogger().Logger)
	if len(fields) > 0 {
		entry = GetLogger().WithFields(fields[0])
	}
	entry.Debug(msg)
}

// Info logs an info message
func Info(msg string, fields ...Fields) {
	entry := logrus.NewEntry(GetLogger().Logger)
	if len(fields) > 0 {
		entry = GetLogger().WithFields(fields[0])
	}
	entry.Info(msg)
}

// Warn logs a warning message
func Warn(msg string, fields ...Fields) {
	entry := logrus.NewEntry(GetLogger().Logger)
	if len(fields) > 0 {
		entry = GetLogger().WithFields(fields[0])
	}
	entry.Warn(msg)
}

// Error logs an error message
func Error(msg string, err error, fields ...Fields) {
	entry := GetLogger().WithError(err)
	if len(fields) > 0 {
		entry = entry.WithFields(logrus.Fields(fields[0]))
	}
	entry.Error(msg)
}

// Fatal logs a fatal message and exits
func Fatal(msg string, err error, fields ...Fields) {
	entry := GetLogger().WithError(err)
	if len(fields) > 0 {
		entry = entry.WithFields(logrus.Fields(fields[0]))
	}
	entry.Fatal(msg)
}

// WithContext logs with context
func WithContext(ctx context.Context) *logrus.Entry {
	return GetLogger().WithContext(ctx)
}

// WithFields logs with fields
func WithFields(fields Fields) *logrus.Entry {
	return GetLogger().WithFields(fields)
}

// Dealer control-loop logging helpers. These stand in for the tracing spans
// named app.dealer.updateInFlightTransfer and app.dealer.updatePositionAndLeverage:
// one structured entry bracketing the operation instead of a span.

// LogTickStarted logs the start of a control loop tick.
func LogTickStarted(ctx context.Context, activeStrategy string, usdLiability, btcPriceInUsd string) {
	GetLogger().WithContext(ctx).WithFields(logrus.Fields{
		"event":           "tick_started",
		"active_strategy": activeStrategy,
		"usd_liability":   usdLiability,
		"btc_price_usd":   btcPriceInUsd,
	}).Info("dealer tick started")
}

// LogTickCompleted logs the aggregated outcome of a tick.
func LogTickCompleted(ctx context.Context, success bool, fields Fields) {
	if fields == nil {
		fields = Fields{}
	}
	fields["event"] = "tick_completed"
	fields["success"] = success
	entry := GetLogger().WithContext(ctx).WithFields(logrus.Fields(fields))
	if success {
		entry.Info("dealer tick completed")
	} else {
		entry.Warn("dealer tick completed with failure")
	}
}

// LogPositionAdjusted logs a successful position update.
func LogPositionAdjusted(ctx context.Context, usdLiability, btcPriceInUsd string, delta interface{}) {
	GetLogger().WithContext(ctx).WithFields(logrus.Fields{
		"event":         "position_adjusted",
		"usd_liability": usdLiability,
		"btc_price_usd": btcPriceInUsd,
		"delta":         fmt.Sprintf("%+v", delta),
	}).Info("position updated to neutralize liability")
}

// LogPositionClosed logs that closePosition was invoked because liability fell below threshold.
func LogPositionClosed(ctx context.Context, usdLiability, threshold string) {
	GetLogger().WithContext(ctx).WithFields(logrus.Fields{
		"event":         "position_closed",
		"usd_liability": usdLiability,
		"threshold":     threshold,
	}).Info("liability below threshold, position closed")
}

// LogLeverageRebalanced logs a successful leverage rebalance.
func LogLeverageRebalanced(ctx context.Context, depositAddress string, delta interface{}) {
	GetLogger().WithContext(ctx).WithFields(logrus.Fields{
		"event":           "leverage_rebalanced",
		"deposit_address": depositAddress,
		"delta":           fmt.Sprintf("%+v", delta),
	}).Info("leverage rebalanced")
}

// LogLeverageSkipped logs that rebalance was skipped due to pending transfers.
func LogLeverageSkipped(ctx context.Context, pendingCount int) {
	GetLogger().WithContext(ctx).WithFields(logrus.Fields{
		"event":         "leverage_skipped",
		"pending_count": pendingCount,
	}).Info("rebalance skipped, transfers pending")
}

// LogTransferRecorded logs a ledger insert for a newly initiated transfer.
func LogTransferRecorded(ctx context.Context, direction, address string, sizeSats int64) {
	GetLogger().WithContext(ctx).WithFields(logrus.Fields{
		"event":     "transfer_recorded",
		"direction": direction,
		"address":   address,
		"size_sats": sizeSats,
	}).Info("transfer recorded in ledger")
}

// LogTransferSettled logs that the reconciler observed a transfer as settled.
func LogTransferSettled(ctx context.Context, direction, address string) {
	GetLogger().WithContext(ctx).WithFields(logrus.Fields{
		"event":     "transfer_settled",
		"direction": direction,
		"address":   address,
	}).Info("transfer settlement observed")
}

// LogDepositRetried logs a halving retry of the deposit callback.
func LogDepositRetried(ctx context.Context, address string, sizeBtc string, retriesRemaining int, reason error) {
	GetLogger().WithContext(ctx).WithFields(logrus.Fields{
		"event":             "deposit_retried",
		"address":           address,
		"size_btc":          sizeBtc,
		"retries_remaining": retriesRemaining,
		"reason":            reason.Error(),
	}).Warn("on-chain deposit failed, retrying with halved size")
}

// LogReconcileRowFailed logs a per-row reconciliation failure that does not abort the sweep.
func LogReconcileRowFailed(ctx context.Context, direction, address string, err error) {
	GetLogger().WithContext(ctx).WithFields(logrus.Fields{
		"event":     "reconcile_row_failed",
		"direction": direction,
		"address":   address,
	}).WithError(err).Warn("reconciliation row failed, continuing sweep")
}

// LogBlockchainTransaction logs blockchain transaction events
func LogBlockchainTransaction(ctx context.Context, chain, txHash string, fields Fields) {
	if fields == nil {
		fields = Fields{}
	}
	fields["event"] = "blockchain_transaction"
	fields["chain"] = chain
	fields["tx_hash"] = txHash
	GetLogger().WithContext(ctx).WithFields(logrus.Fields(fields)).Info("Blockchain transaction processed")
}

// SanitizeFields removes sensitive data from log fields
func SanitizeFields(fields Fields) Fields {
	sanitized := make(Fields)
	sensitiveKeys := []string{
		"password", "private_key", "secret", "token", "api_key",
		"credit_card", "ssn", "tax_id",
	}

	for k, v := range fields {
		// Check if key contains sensitive information
		isSensitive := false
		for _, sensitive := range sensitiveKeys {
			if contains(k, sensitive) {
				isSensitive = true
				break
			}
		}

		if isSensitive {
			sanitized[k] = "[REDACTED]"
		} else {
			sanitized[k] = v
		}
	}

	return sanitized
}

// contains checks if a string contains a substring (case-insensitive)
func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
