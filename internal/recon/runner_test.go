package recon

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type postCall struct {
	AccountID string
	Kind      OperationType
	Amount    float64
}

// fakeService is an in-memory AccountService that records every call.
type fakeService struct {
	nextAccount int

	// createErrs queues one error per CreateAccount call for the given
	// identity remote id; consumed front to back.
	createErrs map[string][]error
	// postErr fails PostTransaction for the given kind+account id.
	postErr map[string]error
	// blindCreate makes CreateAccount return a handle without an account
	// id, forcing recovery through FindExistingAccount.
	blindCreate bool

	created     map[string]AccountHandle
	createCalls []string
	findCalls   []string
	postCalls   []postCall
}

func newFakeService() *fakeService {
	return &fakeService{
		createErrs: make(map[string][]error),
		postErr:    make(map[string]error),
		created:    make(map[string]AccountHandle),
	}
}

func (f *fakeService) Authenticate(ctx context.Context, email, password string) (Session, error) {
	return "session", nil
}

func (f *fakeService) ListBillpayers(ctx context.Context, s Session, branch string) ([]BillpayerIdentity, error) {
	return testRoster, nil
}

func (f *fakeService) CreateAccount(ctx context.Context, s Session, branch string, identity BillpayerIdentity) (AccountHandle, error) {
	f.createCalls = append(f.createCalls, identity.RemoteID)

	if errs := f.createErrs[identity.RemoteID]; len(errs) > 0 {
		err := errs[0]
		f.createErrs[identity.RemoteID] = errs[1:]
		return AccountHandle{}, err
	}

	f.nextAccount++
	handle := AccountHandle{
		Identity:        identity,
		RemoteAccountID: fmt.Sprintf("acct-%d", f.nextAccount),
	}
	f.created[identity.RemoteID] = handle
	if f.blindCreate {
		return AccountHandle{Identity: identity}, nil
	}
	return handle, nil
}

func (f *fakeService) FindExistingAccount(ctx context.Context, s Session, identity BillpayerIdentity) (*AccountHandle, error) {
	f.findCalls = append(f.findCalls, identity.RemoteID)
	if handle, ok := f.created[identity.RemoteID]; ok {
		return &handle, nil
	}
	return nil, nil
}

func (f *fakeService) PostTransaction(ctx context.Context, s Session, account AccountHandle, kind OperationType, amount float64, note, date string) error {
	f.postCalls = append(f.postCalls, postCall{AccountID: account.RemoteAccountID, Kind: kind, Amount: amount})
	if err := f.postErr[string(kind)+"/"+account.RemoteAccountID]; err != nil {
		return err
	}
	return nil
}

func newTestRunner(svc *fakeService) *Runner {
	return NewRunner(svc, "session", "branch-1", testRoster, NewPolicy(0.6, nil))
}

func TestRunnerIdempotentAccountCreation(t *testing.T) {
	svc := newFakeService()
	runner := newTestRunner(svc)

	// Two spellings of the same billpayer.
	rows := []TransactionRow{
		{BeneficiaryName: "Jane O'Brien", Amount: 10},
		{BeneficiaryName: "jane obrien", Amount: 20},
	}

	records, err := runner.Run(context.Background(), rows)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(svc.createCalls) != 1 {
		t.Errorf("CreateAccount called %d times, want 1", len(svc.createCalls))
	}
	if len(svc.postCalls) != 2 {
		t.Fatalf("got %d posts, want 2 deposits", len(svc.postCalls))
	}
	if svc.postCalls[0].AccountID != svc.postCalls[1].AccountID {
		t.Error("both deposits must hit the same account")
	}

	// Account OK, then one deposit per row.
	wantOps := []OperationType{OpAccount, OpDeposit, OpDeposit}
	if len(records) != len(wantOps) {
		t.Fatalf("got %d records, want %d: %+v", len(records), len(wantOps), records)
	}
	for i, op := range wantOps {
		if records[i].Operation != op || records[i].Status != StatusOK {
			t.Errorf("record %d = %+v, want %s OK", i, records[i], op)
		}
	}
}

func TestRunnerZeroAmountNormalization(t *testing.T) {
	svc := newFakeService()
	runner := newTestRunner(svc)

	rows := []TransactionRow{{BeneficiaryName: "Mary Smith", Amount: 0}}

	records, err := runner.Run(context.Background(), rows)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var deposit, withdrawal *OutcomeRecord
	for i := range records {
		switch records[i].Operation {
		case OpDeposit:
			deposit = &records[i]
		case OpWithdrawal:
			withdrawal = &records[i]
		}
	}

	if deposit == nil || deposit.Amount != MinimalUnit || deposit.Status != StatusOK {
		t.Errorf("deposit = %+v, want %v OK", deposit, MinimalUnit)
	}
	if withdrawal == nil || withdrawal.Amount != MinimalUnit || withdrawal.Status != StatusOK {
		t.Errorf("withdrawal = %+v, want matching %v OK", withdrawal, MinimalUnit)
	}
}

func TestRunnerReturnedRowSymmetry(t *testing.T) {
	svc := newFakeService()
	runner := newTestRunner(svc)

	rows := []TransactionRow{{BeneficiaryName: "Mary Smith", Amount: 42.50, IsReturned: true}}

	if _, err := runner.Run(context.Background(), rows); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(svc.postCalls) != 2 {
		t.Fatalf("got %d posts, want deposit then withdrawal", len(svc.postCalls))
	}
	if svc.postCalls[0].Kind != OpDeposit || svc.postCalls[1].Kind != OpWithdrawal {
		t.Errorf("post order = %v", svc.postCalls)
	}
	if svc.postCalls[0].Amount != 42.50 || svc.postCalls[1].Amount != 42.50 {
		t.Errorf("withdrawal amount must mirror deposit, got %v", svc.postCalls)
	}
}

func TestRunnerDepositFailureShortCircuitsWithdrawal(t *testing.T) {
	svc := newFakeService()
	svc.postErr["Deposit/acct-1"] = errors.New("value must be positive")
	runner := newTestRunner(svc)

	rows := []TransactionRow{{BeneficiaryName: "Mary Smith", Amount: 5, IsReturned: true}}

	records, err := runner.Run(context.Background(), rows)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, call := range svc.postCalls {
		if call.Kind == OpWithdrawal {
			t.Error("withdrawal must not be attempted after a failed deposit")
		}
	}

	last := records[len(records)-1]
	if last.Operation != OpDeposit || last.Status != StatusFailed {
		t.Errorf("last record = %+v, want Deposit FAILED", last)
	}
	if last.Detail == "" {
		t.Error("failed record should carry the service's rejection message")
	}
}

func TestRunnerFailureIsolation(t *testing.T) {
	svc := newFakeService()
	// First creation attempt for Mary fails; any retry succeeds.
	svc.createErrs["bp-3"] = []error{errors.New("owner field is required")}
	runner := newTestRunner(svc)

	rows := []TransactionRow{
		{BeneficiaryName: "Mary Smith", Amount: 5},
		{BeneficiaryName: "Jane O'Brien", Amount: 7},
		{BeneficiaryName: "Mary Smith", Amount: 9},
	}

	records, err := runner.Run(context.Background(), rows)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Row 0: Account FAILED. Rows 1 and 2 still processed fully, and the
	// failed identity is retried from scratch.
	if records[0].Operation != OpAccount || records[0].Status != StatusFailed {
		t.Errorf("record 0 = %+v, want Account FAILED", records[0])
	}

	createsForMary := 0
	for _, id := range svc.createCalls {
		if id == "bp-3" {
			createsForMary++
		}
	}
	if createsForMary != 2 {
		t.Errorf("Mary's account creation attempted %d times, want 2 (failure not cached)", createsForMary)
	}

	deposits := 0
	for _, call := range svc.postCalls {
		if call.Kind == OpDeposit {
			deposits++
		}
	}
	if deposits != 2 {
		t.Errorf("got %d deposits, want 2 (rows after the failure keep running)", deposits)
	}
}

func TestRunnerSkipUnmatched(t *testing.T) {
	svc := newFakeService()
	runner := newTestRunner(svc)

	rows := []TransactionRow{
		{BeneficiaryName: "complete stranger", Amount: 3, IsReturned: true},
		{BeneficiaryName: "Jane O'Brien", Amount: 4},
	}

	records, err := runner.Run(context.Background(), rows)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if records[0].Operation != OpNone || records[0].Status != StatusFailed || records[0].Detail != "Skipped" {
		t.Errorf("record 0 = %+v, want N/A FAILED Skipped", records[0])
	}

	// No withdrawal-only flow for unresolved rows, even when returned.
	for _, call := range svc.postCalls {
		if call.Kind == OpWithdrawal {
			t.Error("skipped row must not post anything")
		}
	}
	if len(svc.createCalls) != 1 {
		t.Errorf("only the matched row should create an account, got %v", svc.createCalls)
	}
}

func TestRunnerSessionFailureAborts(t *testing.T) {
	svc := newFakeService()
	svc.postErr["Deposit/acct-1"] = fmt.Errorf("redirected to login: %w", ErrSessionInvalid)
	runner := newTestRunner(svc)

	rows := []TransactionRow{
		{BeneficiaryName: "Jane O'Brien", Amount: 5},
		{BeneficiaryName: "Mary Smith", Amount: 6},
	}

	records, err := runner.Run(context.Background(), rows)
	if err == nil {
		t.Fatal("expected session failure to abort the run")
	}
	if !errors.Is(err, ErrSessionInvalid) {
		t.Errorf("error = %v, want ErrSessionInvalid", err)
	}

	// The partial report covers the rows processed so far.
	last := records[len(records)-1]
	if last.Operation != OpDeposit || last.Status != StatusFailed {
		t.Errorf("last record = %+v, want the failed deposit", last)
	}

	// The second row was never started.
	if len(svc.createCalls) != 1 {
		t.Errorf("create calls = %v, want only the first row's", svc.createCalls)
	}
}

func TestRunnerRecoversAccountIDFromIndex(t *testing.T) {
	svc := newFakeService()
	svc.blindCreate = true
	runner := newTestRunner(svc)

	rows := []TransactionRow{{BeneficiaryName: "Jane O'Brien", Amount: 5}}

	if _, err := runner.Run(context.Background(), rows); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(svc.findCalls) != 1 {
		t.Fatalf("FindExistingAccount called %d times, want 1", len(svc.findCalls))
	}
	if len(svc.postCalls) != 1 || svc.postCalls[0].AccountID == "" {
		t.Errorf("deposit must use the recovered account id, got %v", svc.postCalls)
	}
}
