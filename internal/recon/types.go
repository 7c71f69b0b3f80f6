// Package recon implements the batch reconciliation engine: fuzzy identity
// resolution against a billpayer roster, at-most-once account creation per
// resolved identity, per-row deposit/withdrawal sequencing and an auditable
// outcome report. The remote account system is only reached through the
// AccountService interface; nothing in this package knows about pages or
// forms.
package recon

// MinimalUnit is the smallest amount the remote system accepts. Zero-value
// transactions are normalized up to it before posting.
const MinimalUnit = 0.01

// BillpayerIdentity is one canonical party from the remote roster. RemoteID
// is an opaque, vendor-assigned string; the engine never interprets it.
type BillpayerIdentity struct {
	DisplayName string
	RemoteID    string
}

// TransactionRow is one input record from the ledger export.
type TransactionRow struct {
	BeneficiaryName string
	Amount          float64
	Note            string
	Date            string
	IsReturned      bool
}

// Candidate is one scored roster entry produced by ranking.
type Candidate struct {
	Score    float64
	Identity BillpayerIdentity
}

// ResolutionResult records the outcome of resolving one distinct raw name.
// Matched is nil when the name could not be resolved; that result is
// terminal for the name for the rest of the run.
type ResolutionResult struct {
	SourceName string
	Matched    *BillpayerIdentity
	Confidence float64
}

// AccountHandle binds a resolved identity to its remote deposit account.
type AccountHandle struct {
	Identity        BillpayerIdentity
	RemoteAccountID string
}

// OperationType labels one attempted operation in the report.
type OperationType string

const (
	OpAccount    OperationType = "Account"
	OpDeposit    OperationType = "Deposit"
	OpWithdrawal OperationType = "Withdrawal"
	OpNone       OperationType = "N/A"
)

// OutcomeStatus is the per-operation result in the report.
type OutcomeStatus string

const (
	StatusOK     OutcomeStatus = "OK"
	StatusFailed OutcomeStatus = "FAILED"
)

// OutcomeRecord is one line of the audit report. Amount holds the amount
// actually posted, after zero normalization.
type OutcomeRecord struct {
	BillPayer string
	Operation OperationType
	Amount    float64
	Status    OutcomeStatus
	Detail    string
}

// RowStatus is the terminal state of one input row.
type RowStatus string

const (
	RowCompleted       RowStatus = "COMPLETED"
	RowSkipped         RowStatus = "SKIPPED"
	RowPartiallyFailed RowStatus = "PARTIALLY_FAILED"
)

// NormalizeAmount applies the remote system's non-zero constraint: amounts
// below the minimal unit post as the minimal unit.
func NormalizeAmount(amount float64) float64 {
	if amount < MinimalUnit {
		return MinimalUnit
	}
	return amount
}
