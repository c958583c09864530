package exam

import "errors"

var (
	// ErrNotFound covers both a missing record and a record owned by someone
	// else; callers must not be able to tell the two apart.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned for writes against a submitted attempt.
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid argument")

	// errStale signals a lost compare-and-swap on the attempt version while
	// the attempt is still in progress.
	errStale = errors.New("stale attempt version")
)

func isNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
