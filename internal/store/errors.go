package store

import (
	"errors"
	"fmt"

	"github.com/omnichat/omni/internal/index"
)

var (
	// ErrNotFound marks an unknown id or name. Never fatal; surfaced to
	// the caller as-is.
	ErrNotFound = errors.New("not found")
	// ErrExists marks a display-name collision where uniqueness is
	// enforced (namespaces and projects).
	ErrExists = errors.New("already exists")
	// ErrAlreadyAttached rejects attaching a project that already has an
	// owning namespace; the caller must detach first.
	ErrAlreadyAttached = errors.New("project already attached to a namespace")
	// ErrInvalidTransition rejects a state-machine precondition violation,
	// e.g. summarizing an empty chat.
	ErrInvalidTransition = errors.New("invalid transition")
)

// AmbiguousNameError is returned by operations that need exactly one
// entity when a name fragment matches several. The store never guesses;
// the caller disambiguates.
type AmbiguousNameError struct {
	Fragment   string
	Candidates []index.Entry
}

func (e *AmbiguousNameError) Error() string {
	return fmt.Sprintf("name %q matches %d entities", e.Fragment, len(e.Candidates))
}
