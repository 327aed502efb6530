package usecase

import (
	"time"

	"github.com/iho/walletledger/internal/domain"
)

// NopMetrics discards all measurements.
type NopMetrics struct{}

func (NopMetrics) RecordOperation(domain.OperationKind, string, time.Duration) {}
func (NopMetrics) RecordLockWait(time.Duration)                                {}
func (NopMetrics) RecordRetry()                                                {}
