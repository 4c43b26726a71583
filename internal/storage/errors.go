package storage

import (
	"errors"
	"fmt"
)

// Stage names the step of a batch insert that failed.
type Stage string

const (
	StageAcquire Stage = "acquire"
	StageBegin   Stage = "begin"
	StagePrepare Stage = "prepare"
	StageExec    Stage = "exec"
	StageCommit  Stage = "commit"
)

// StageError reports a failed InsertBatch. When Stage is StageExec, Row is
// the zero-based index of the offending row within the batch; otherwise it
// is -1. The transaction has been rolled back in every case except a failed
// commit, whose outcome the store decides.
type StageError struct {
	Stage Stage
	Row   int
	Err   error
}

func (e *StageError) Error() string {
	if e.Stage == StageExec && e.Row >= 0 {
		return fmt.Sprintf("%s row %d: %v", e.Stage, e.Row, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// NewStageError builds a StageError for a non-row stage.
func NewStageError(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Row: -1, Err: err}
}

// StageOf returns the stage recorded in err, or "" if err carries none.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
