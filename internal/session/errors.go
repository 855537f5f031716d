package session

import (
	"errors"
	"fmt"

	"github.com/gyeh/claimaudit/internal/model"
)

var (
	ErrNotFound         = errors.New("audit session not found")
	ErrInvalidState     = errors.New("invalid audit session state")
	ErrMissingDocuments = errors.New("both bill and policy documents are required")
	// ErrNotReady is returned by Manager.Result while no result exists yet.
	// It is not a failure.
	ErrNotReady = errors.New("audit result not ready")
)

// StateError reports an operation attempted in the wrong state. It matches
// ErrInvalidState with errors.Is.
type StateError struct {
	ID   string
	Op   string
	Have model.Status
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s audit %s: session is %s", e.Op, e.ID, e.Have)
}

func (e *StateError) Is(target error) bool {
	return target == ErrInvalidState
}
