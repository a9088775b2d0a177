package txn

import "errors"

var (
	// ErrBeginFailed wraps driver errors from opening a transaction.
	ErrBeginFailed = errors.New("failed to begin transaction")

	// ErrCommitFailed wraps driver errors from committing a transaction.
	ErrCommitFailed = errors.New("failed to commit transaction")

	// ErrUnknownPropagation is returned for an unrecognized propagation mode.
	ErrUnknownPropagation = errors.New("unknown transaction propagation mode")
)
