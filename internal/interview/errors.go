package interview

import (
	"errors"
	"fmt"

	"github.com/pavelanni/interviewer/internal/model"
)

// Errors surfaced to callers of Manager.
var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrNoActiveQuestion  = errors.New("no active question")
	ErrReportUnavailable = errors.New("report unavailable")
)

// ErrDuplicateQuestion is the cause of a GenerationError when the generator
// repeated an earlier question even after being told to avoid it.
var ErrDuplicateQuestion = errors.New("generator repeated an earlier question")

// errPlaceholderQuestion skips evaluation of answers to a placeholder question.
var errPlaceholderQuestion = errors.New("question was a placeholder")

// GenerationError reports a failed or malformed question generation.
type GenerationError struct {
	Phase model.Phase
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate %s question: %v", e.Phase, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// EvaluationError reports a failed or malformed answer evaluation.
type EvaluationError struct {
	Seq int
	Err error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluate turn %d: %v", e.Seq, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// ReportGenerationError reports a failed report generation. It never leaves
// the report assembler.
type ReportGenerationError struct {
	SessionID string
	Err       error
}

func (e *ReportGenerationError) Error() string {
	return fmt.Sprintf("generate report for %s: %v", e.SessionID, e.Err)
}

func (e *ReportGenerationError) Unwrap() error { return e.Err }

// PersistenceError reports a failed store write or read.
type PersistenceError struct {
	Op        string
	SessionID string
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s for %s: %v", e.Op, e.SessionID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
