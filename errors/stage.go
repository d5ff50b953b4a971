package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Stage names a step of a multi-call operation so failures point at the broken lookup.
type Stage string

const (
	StageResolveWorkspace Stage = "resolve-workspace"
	StageResolveItem      Stage = "resolve-item"
	StageFetchDefinition  Stage = "fetch-definition"
	StageSubmitQuery      Stage = "submit-query"
	StageFormatOutput     Stage = "format-output"
	StageCollisionCheck   Stage = "collision-check"
	StageReadSchema       Stage = "read-schema"
	StageCreateItem       Stage = "create-item"
	StageWriteOutput      Stage = "write-output"
)

type stageError struct {
	cause error
	stage Stage
}

func (e *stageError) Error() string {
	return fmt.Sprintf("%s: %s", e.stage, e.cause.Error())
}

func (e *stageError) Cause() error {
	return e.cause
}

func (e *stageError) Unwrap() error {
	return e.cause
}

// WithStage wraps err with the stage it failed in.
// The innermost stage wins when an error is tagged twice.
func WithStage(err error, stage Stage) error {
	if err == nil {
		return nil
	}
	if _, ok := GetStage(err); ok {
		return err
	}
	return &stageError{cause: err, stage: stage}
}

// GetStage returns the stage recorded on err, if any.
func GetStage(err error) (Stage, bool) {
	var se *stageError
	if errors.As(err, &se) {
		return se.stage, true
	}
	return "", false
}
