package recon

import "fmt"

// Ledger is the process-local account cache: resolved identity RemoteID to
// deposit-account handle. It guarantees at most one successful account
// creation per identity per run. The cache key is the matched identity, so
// two misspellings resolving to the same billpayer share one account.
//
// Ledger is owned by a single Runner. Account creation against the remote
// system is a multi-step form sequence with shared page state, so calls must
// stay serialized; there is deliberately no internal locking.
type Ledger struct {
	accounts map[string]AccountHandle
}

// NewLedger creates an empty account cache.
func NewLedger() *Ledger {
	return &Ledger{accounts: make(map[string]AccountHandle)}
}

// GetOrCreate returns the cached handle for identity, or invokes create
// exactly once on a miss. A creation failure is not cached: a later row for
// the same identity retries from scratch.
func (l *Ledger) GetOrCreate(identity BillpayerIdentity, create func(BillpayerIdentity) (AccountHandle, error)) (AccountHandle, error) {
	if identity.RemoteID == "" {
		return AccountHandle{}, fmt.Errorf("GetOrCreate: identity %q has no remote id", identity.DisplayName)
	}

	if handle, ok := l.accounts[identity.RemoteID]; ok {
		return handle, nil
	}

	handle, err := create(identity)
	if err != nil {
		return AccountHandle{}, err
	}
	l.accounts[identity.RemoteID] = handle
	return handle, nil
}

// Len reports how many accounts are cached, for logging.
func (l *Ledger) Len() int {
	return len(l.accounts)
}
