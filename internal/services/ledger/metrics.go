package ledger

import (
	"time"

	"playarena/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordOperationDuration(string, time.Duration)                     {}
func (n *NoopMetricsCollector) RecordCacheHit(string)                                             {}
func (n *NoopMetricsCollector) RecordCacheMiss(string)                                            {}
func (n *NoopMetricsCollector) RecordBalanceChange(uint, decimal.Decimal, decimal.Decimal)        {}
func (n *NoopMetricsCollector) RecordError(string, string)                                        {}
func (n *NoopMetricsCollector) RecordTransaction(models.TransactionType, string, decimal.Decimal) {}

// LogMetricsCollector writes metrics as debug log lines.
type LogMetricsCollector struct {
	log *zap.Logger
}

func NewLogMetricsCollector(log *zap.Logger) *LogMetricsCollector {
	return &LogMetricsCollector{log: log.Named("ledger.metrics")}
}

func (m *LogMetricsCollector) RecordOperationDuration(op string, d time.Duration) {
	m.log.Debug("operation duration", zap.String("op", op), zap.Duration("duration", d))
}

func (m *LogMetricsCollector) RecordCacheHit(key string) {
	m.log.Debug("cache hit", zap.String("key", key))
}

func (m *LogMetricsCollector) RecordCacheMiss(key string) {
	m.log.Debug("cache miss", zap.String("key", key))
}

func (m *LogMetricsCollector) RecordBalanceChange(userID uint, oldBalance, newBalance decimal.Decimal) {
	m.log.Debug("balance change",
		zap.Uint("user_id", userID),
		zap.String("old", oldBalance.StringFixed(2)),
		zap.String("new", newBalance.StringFixed(2)))
}

func (m *LogMetricsCollector) RecordError(op, errType string) {
	m.log.Warn("ledger error", zap.String("op", op), zap.String("type", errType))
}

func (m *LogMetricsCollector) RecordTransaction(txType models.TransactionType, category string, amount decimal.Decimal) {
	m.log.Debug("transaction",
		zap.String("type", string(txType)),
		zap.String("category", category),
		zap.String("amount", amount.StringFixed(2)))
}
