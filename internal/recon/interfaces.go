package recon

import (
	"context"
	"errors"
)

// ErrSessionInvalid marks the one fatal error class: the authenticated
// session is gone and no further remote call can succeed. Implementations of
// AccountService wrap it so the runner can detect it with errors.Is; every
// other error is recovered at row level.
var ErrSessionInvalid = errors.New("account service session invalid")

// Session is an opaque authenticated session with the remote account
// system. It is produced by Authenticate and threaded explicitly through
// every call; the engine never stores ambient session state.
type Session interface{}

// AccountService is the capability surface the engine needs from the remote
// account-management system. All calls are blocking and internally bounded:
// implementations must respect ctx and surface timeouts as plain errors, not
// hang.
type AccountService interface {
	// Authenticate logs in and returns a session for subsequent calls.
	Authenticate(ctx context.Context, email, password string) (Session, error)

	// ListBillpayers returns the current billpayer roster for a branch.
	ListBillpayers(ctx context.Context, s Session, branch string) ([]BillpayerIdentity, error)

	// CreateAccount creates a deposit account for the identity in the given
	// branch. Form validation failures come back as errors carrying the
	// remote system's rejection text.
	CreateAccount(ctx context.Context, s Session, branch string, identity BillpayerIdentity) (AccountHandle, error)

	// FindExistingAccount looks up an already-created deposit account for
	// the identity. It returns nil without error when none exists.
	FindExistingAccount(ctx context.Context, s Session, identity BillpayerIdentity) (*AccountHandle, error)

	// PostTransaction submits one deposit or withdrawal against an account.
	PostTransaction(ctx context.Context, s Session, account AccountHandle, kind OperationType, amount float64, note, date string) error
}

// Prompter is the injected decision source used when resolution confidence
// is below the auto-accept threshold. Choose presents candidates for a raw
// name and returns the index picked by the operator; ok is false for an
// explicit skip.
type Prompter interface {
	Choose(name string, candidates []Candidate) (index int, ok bool)
}
