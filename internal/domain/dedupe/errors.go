package dedupe

import "errors"

// Sentinel kinds for ledger errors.
var (
	ErrLedgerLocked    = errors.New("ledger is locked by another process")
	ErrLedgerClosed    = errors.New("ledger is closed")
	ErrInvalidIdentity = errors.New("identity must not contain a newline")
)
