package tracker

import "errors"

// Kind classifies a failure for callers at the command boundary.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindStorage    Kind = "storage"
)

// Error is a recoverable failure whose message is shown to the caller verbatim.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrTaskNotFound      = &Error{KindNotFound, "task not found"}
	ErrTaskAlreadyActive = &Error{KindValidation, "task already active"}
	ErrAnotherTaskActive = &Error{KindValidation, "only one task may run at a time"}
	ErrNoActiveSession   = &Error{KindValidation, "no active session to pause"}
	ErrTaskNotPaused     = &Error{KindValidation, "task is not paused"}
	ErrSessionExists     = &Error{KindValidation, "task already has an active session"}

	ErrNameRequired  = &Error{KindValidation, "task name is required"}
	ErrNegativeHours = &Error{KindValidation, "estimated hours must not be negative"}
	ErrInvalidDate   = &Error{KindValidation, "scheduled date must be YYYY-MM-DD"}
)

// KindOf reports the kind of err. Anything that is not an *Error is a
// storage failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}
