package services

import "errors"

// StageError records the pipeline operation that failed. Error and Unwrap
// pass through to the wrapped error so sentinel checks keep working.
type StageError struct {
	Op  string
	Err error
}

func (e *StageError) Error() string { return e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }

// FailedOperation returns the operation recorded on err, or "" when err did
// not come from a pipeline stage.
func FailedOperation(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Op
	}
	return ""
}

func stageErr(op string, err error) error {
	return &StageError{Op: op, Err: err}
}
