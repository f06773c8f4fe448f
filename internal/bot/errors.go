package bot

import "errors"

var (
	// ErrNoSession — an input arrived for a user with no active order flow.
	ErrNoSession = errors.New("no active session")
	// ErrSessionBusy — a call for this session is still in flight; the new
	// action is rejected rather than raced against the session state.
	ErrSessionBusy = errors.New("session busy")
	// ErrTransactionNotFound — no recorded transaction with that reference ID.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrTransactionExists — reference IDs are unique per transaction.
	ErrTransactionExists = errors.New("transaction already recorded")
)
