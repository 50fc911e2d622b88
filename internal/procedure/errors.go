package procedure

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownProcedure is returned when invoking a name with no handler.
	ErrUnknownProcedure = errors.New("procedure: unknown")

	// ErrProcedureFailed matches every *ProcedureError.
	ErrProcedureFailed = errors.New("procedure: failed")

	// ErrInvalidCall is returned when a broker message is not a Call.
	ErrInvalidCall = errors.New("procedure: invalid call")
)

// ProcedureError reports a handler failure.
//
//	var perr *procedure.ProcedureError
//	if errors.As(err, &perr) {
//	    log.Printf("%s failed: %v", perr.Procedure, perr.Err)
//	}
type ProcedureError struct {
	Procedure string
	Err       error
}

func (e *ProcedureError) Error() string {
	return fmt.Sprintf("procedure %s failed: %v", e.Procedure, e.Err)
}

func (e *ProcedureError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrProcedureFailed) true for any ProcedureError.
func (e *ProcedureError) Is(target error) bool {
	return target == ErrProcedureFailed
}
