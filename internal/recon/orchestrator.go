package recon

import (
	"context"
	"errors"
)

// Orchestrator turns one input row into deposit/withdrawal submissions
// against an already-resolved account. Failures surfaced by the service
// (validation text, timeouts) become FAILED outcome records; only a dead
// session propagates as an error.
type Orchestrator struct {
	svc     AccountService
	session Session
}

// NewOrchestrator binds the orchestrator to a service and session.
func NewOrchestrator(svc AccountService, session Session) *Orchestrator {
	return &Orchestrator{svc: svc, session: session}
}

// Post submits a single transaction of the given kind.
func (o *Orchestrator) Post(ctx context.Context, account AccountHandle, kind OperationType, amount float64, note, date string) error {
	return o.svc.PostTransaction(ctx, o.session, account, kind, amount, note, date)
}

// Execute runs the operation policy for one row: always a deposit of the
// normalized amount, then a withdrawal of the same amount when the row is
// returned or was zero, but only if the deposit went through. The returned
// records reflect the amounts actually posted. A non-nil error means the
// session is invalid and the run cannot continue.
func (o *Orchestrator) Execute(ctx context.Context, account AccountHandle, row TransactionRow) ([]OutcomeRecord, error) {
	label := account.Identity.DisplayName
	amount := NormalizeAmount(row.Amount)

	var records []OutcomeRecord

	if err := o.Post(ctx, account, OpDeposit, amount, row.Note, row.Date); err != nil {
		records = append(records, OutcomeRecord{
			BillPayer: label,
			Operation: OpDeposit,
			Amount:    amount,
			Status:    StatusFailed,
			Detail:    err.Error(),
		})
		if errors.Is(err, ErrSessionInvalid) {
			return records, err
		}
		// A failed deposit short-circuits the withdrawal: there is nothing
		// to reverse.
		return records, nil
	}
	records = append(records, OutcomeRecord{
		BillPayer: label,
		Operation: OpDeposit,
		Amount:    amount,
		Status:    StatusOK,
	})

	if !row.IsReturned && row.Amount != 0 {
		return records, nil
	}

	if err := o.Post(ctx, account, OpWithdrawal, amount, row.Note, row.Date); err != nil {
		records = append(records, OutcomeRecord{
			BillPayer: label,
			Operation: OpWithdrawal,
			Amount:    amount,
			Status:    StatusFailed,
			Detail:    err.Error(),
		})
		if errors.Is(err, ErrSessionInvalid) {
			return records, err
		}
		return records, nil
	}
	records = append(records, OutcomeRecord{
		BillPayer: label,
		Operation: OpWithdrawal,
		Amount:    amount,
		Status:    StatusOK,
	})

	return records, nil
}
