package errors

import "errors"

var (
	// ErrDuplicateGUID means an item's GUID is already recorded in the ledger.
	ErrDuplicateGUID = errors.New("guid already recorded")
	// ErrLockTimeout means the ledger stayed locked past the retry budget.
	ErrLockTimeout = errors.New("ledger is locked: retry budget exhausted")
	// ErrUnrecognizedFormat means a document is not an RSS or Atom feed.
	ErrUnrecognizedFormat = errors.New("not an RSS 2.0, Atom 1.0, or RSS 1.0 feed")
)
