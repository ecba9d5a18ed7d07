package store

import "errors"

// Error classes of the write path, matched with errors.Is. Identity format
// failures surface as identity.ErrFormat from the formatter itself.
var (
	// ErrConnect covers session setup and statement preparation failures.
	// The target ends up fully disconnected whenever it is returned.
	ErrConnect = errors.New("connect failed")

	// ErrDataIntegrity reports an identifier table anomaly: a lookup
	// matching more than one row, or a NULL id. Nothing is cached in
	// either case.
	ErrDataIntegrity = errors.New("identifier table integrity")

	// ErrWrite covers statement bind/execute failures and unexpected
	// affected-row counts.
	ErrWrite = errors.New("write failed")

	// ErrTimeConversion reports a batch timestamp that cannot be
	// represented as a DATETIME value.
	ErrTimeConversion = errors.New("timestamp not representable")

	// ErrDuplicateKey reports a cache insert for a key that is already
	// mapped. The existing mapping is kept.
	ErrDuplicateKey = errors.New("key already cached")
)
