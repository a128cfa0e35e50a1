package table

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get and GetByID when nothing matches.
var ErrNotFound = errors.New("document not found")

// DocumentError ties a transform failure to the document it happened on.
type DocumentError struct {
	ID  int64
	Err error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document %d: %v", e.ID, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// Policy decides what Update does when a transform fails on a document.
type Policy int

const (
	// AbortOnError stops at the first failure; nothing is persisted.
	AbortOnError Policy = iota
	// SkipOnError leaves failing documents unpersisted, writes the rest
	// and returns every failure joined.
	SkipOnError
)

func (p Policy) String() string {
	switch p {
	case AbortOnError:
		return "abort"
	case SkipOnError:
		return "skip"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}
