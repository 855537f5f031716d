package audit

import (
	"errors"
	"fmt"
)

// Pipeline phases, in run order.
const (
	PhaseExtract   = "extract"
	PhaseStructure = "structure"
	PhaseRules     = "rules"
	PhaseReconcile = "reconcile"
	PhaseReport    = "report"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Message is the human-readable cause stored on a failed session.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var pe *PipelineError
	if errors.As(err, &pe) && pe.Err != nil {
		return pe.Err.Error()
	}
	return err.Error()
}
