package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/plateful/platefinder/internal/resilience"
)

// Stage names a step in the orchestrator's state machine.
type Stage string

const (
	StageIntent   Stage = "intent"
	StageRetrieve Stage = "retrieve"
	StageJudge    Stage = "judge"
	StageFallback Stage = "fallback_search"
	StageJudgeWeb Stage = "judge_web"
	StageAdapt    Stage = "adapt"
	StageValidate Stage = "validate"
	StageRecord   Stage = "record"
)

// StageError reports which stage failed and whether the caller can usefully
// retry the whole run.
type StageError struct {
	Stage     Stage
	Retryable bool
	Err       error
}

func (e *StageError) Error() string {
	kind := "terminal"
	if e.Retryable {
		kind = "retryable"
	}
	return fmt.Sprintf("stage %s failed (%s): %v", e.Stage, kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// wrapStage classifies the failure for the caller. Retry exhaustion and
// stage deadlines are retryable; everything else is not.
func wrapStage(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	var exhausted *resilience.ExhaustedError
	retryable := errors.As(err, &exhausted) || errors.Is(err, context.DeadlineExceeded)
	return &StageError{Stage: stage, Retryable: retryable, Err: err}
}
