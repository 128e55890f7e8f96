package sandbox

import (
	"errors"
	"fmt"
)

// Stage identifies where an action failed.
type Stage string

const (
	StageParse   Stage = "parse"
	StageCompile Stage = "compile"
	StageLookup  Stage = "lookup"
	StageRun     Stage = "run"
)

// ErrEmptyAction is returned when an action contains no statements.
var ErrEmptyAction = errors.New("action has no statements")

// ActionError describes a failed action.
type ActionError struct {
	Code  string
	Stage Stage
	Err   error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("action %s error: %v", e.Stage, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

func newError(code string, stage Stage, err error) *ActionError {
	return &ActionError{Code: code, Stage: stage, Err: err}
}
