package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds the critical section of a single operation,
	// including retries. It applies even when the caller has gone away.
	DefaultTransactionTimeout = 10 * time.Second

	// ReconciliationPageSize is the number of wallets fetched per page by GenerateReport.
	ReconciliationPageSize = 500
)

// Operation outcomes used as metric labels.
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
	OutcomeReplayed = "replayed"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)
