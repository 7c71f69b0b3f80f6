package recon

import (
	"context"
	"errors"
	"fmt"

	"github.com/omhartigan/billpayer-recon/internal/logger"
)

// Runner drives a whole batch: resolve each row's beneficiary, ensure a
// deposit account exists, post the row's operations and collect outcome
// records. Rows are processed strictly in input order against one session;
// a failing row is recorded and never aborts the run. The only fatal
// condition is an invalid session, which stops the run and returns the
// report built so far together with the error.
type Runner struct {
	svc     AccountService
	session Session
	branch  string
	roster  []BillpayerIdentity
	policy  *Policy
	ledger  *Ledger
	orch    *Orchestrator

	report []OutcomeRecord
}

// NewRunner assembles a runner for one batch against one authenticated
// session and branch.
func NewRunner(svc AccountService, session Session, branch string, roster []BillpayerIdentity, policy *Policy) *Runner {
	return &Runner{
		svc:     svc,
		session: session,
		branch:  branch,
		roster:  roster,
		policy:  policy,
		ledger:  NewLedger(),
		orch:    NewOrchestrator(svc, session),
	}
}

// Run processes all rows and returns the full outcome report in the order
// the operations were attempted. On session failure the report covers the
// rows processed up to that point.
func (r *Runner) Run(ctx context.Context, rows []TransactionRow) ([]OutcomeRecord, error) {
	log := logger.FromContext(ctx)

	var completed, skipped, failed int
	for i, row := range rows {
		status, err := r.processRow(ctx, row)
		if err != nil {
			log.Error().Err(err).Int("row", i).Msg("Session lost, aborting run")
			return r.report, fmt.Errorf("row %d (%s): %w", i, row.BeneficiaryName, err)
		}

		switch status {
		case RowCompleted:
			completed++
		case RowSkipped:
			skipped++
		case RowPartiallyFailed:
			failed++
		}
		log.Info().
			Int("row", i).
			Str("bill_payer", row.BeneficiaryName).
			Str("status", string(status)).
			Msg("Row processed")
	}

	log.Info().
		Int("rows", len(rows)).
		Int("completed", completed).
		Int("skipped", skipped).
		Int("failed", failed).
		Int("accounts_created", r.ledger.Len()).
		Msg("Batch finished")

	return r.report, nil
}

// processRow walks one row through its state sequence. The returned error
// is non-nil only for session failure.
func (r *Runner) processRow(ctx context.Context, row TransactionRow) (RowStatus, error) {
	res := r.policy.Resolve(row.BeneficiaryName, r.roster)
	if res.Matched == nil {
		r.report = append(r.report, OutcomeRecord{
			BillPayer: row.BeneficiaryName,
			Operation: OpNone,
			Amount:    row.Amount,
			Status:    StatusFailed,
			Detail:    "Skipped",
		})
		return RowSkipped, nil
	}
	identity := *res.Matched

	created := false
	handle, err := r.ledger.GetOrCreate(identity, func(id BillpayerIdentity) (AccountHandle, error) {
		h, createErr := r.createAccount(ctx, id)
		if createErr == nil {
			created = true
		}
		return h, createErr
	})
	if err != nil {
		r.report = append(r.report, OutcomeRecord{
			BillPayer: identity.DisplayName,
			Operation: OpAccount,
			Amount:    row.Amount,
			Status:    StatusFailed,
			Detail:    "Account creation failed: " + err.Error(),
		})
		if errors.Is(err, ErrSessionInvalid) {
			return RowPartiallyFailed, err
		}
		return RowPartiallyFailed, nil
	}
	if created {
		r.report = append(r.report, OutcomeRecord{
			BillPayer: identity.DisplayName,
			Operation: OpAccount,
			Status:    StatusOK,
		})
	}

	records, err := r.orch.Execute(ctx, handle, row)
	r.report = append(r.report, records...)
	if err != nil {
		return RowPartiallyFailed, err
	}
	for _, rec := range records {
		if rec.Status == StatusFailed {
			return RowPartiallyFailed, nil
		}
	}
	return RowCompleted, nil
}

// createAccount submits the account-creation form and recovers the new
// account id when the service cannot report it from the form itself.
func (r *Runner) createAccount(ctx context.Context, identity BillpayerIdentity) (AccountHandle, error) {
	handle, err := r.svc.CreateAccount(ctx, r.session, r.branch, identity)
	if err != nil {
		return AccountHandle{}, err
	}
	if handle.RemoteAccountID != "" {
		return handle, nil
	}

	found, err := r.svc.FindExistingAccount(ctx, r.session, identity)
	if err != nil {
		return AccountHandle{}, fmt.Errorf("createAccount: recover account id: %w", err)
	}
	if found == nil {
		return AccountHandle{}, fmt.Errorf("createAccount: account for %q created but not found in index", identity.DisplayName)
	}
	return *found, nil
}
