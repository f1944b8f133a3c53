package services

import (
	"errors"
	"strings"

	"gamewiki/internal/queue"
)

// Classification markers. FailureStatus and Retryable inspect them with errors.Is.
var (
	ErrExternalTool  = errors.New("external service error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// StageError is a stage failure tagged with one of the markers above.
type StageError struct {
	Marker    error
	Stage     string
	Operation string
	// Detail is an operator-facing sentence describing what happens next.
	Detail string
	Err    error
}

func (e *StageError) Error() string {
	var b strings.Builder
	b.WriteString(e.marker().Error())
	b.WriteString(": ")
	wrote := false
	for _, part := range []string{e.Stage, e.Operation, e.Detail} {
		if part = strings.TrimSpace(part); part == "" {
			continue
		}
		if wrote {
			b.WriteString(": ")
		}
		b.WriteString(part)
		wrote = true
	}
	if !wrote {
		b.WriteString("service failure")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.marker()}
	}
	return []error{e.marker(), e.Err}
}

func (e *StageError) marker() error {
	if e.Marker == nil {
		return ErrTransient
	}
	return e.Marker
}

// Wrap tags err with marker and the stage context it occurred in. A nil
// marker classifies the failure as transient; err may be nil.
func Wrap(marker error, stage, operation, detail string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	return &StageError{Marker: marker, Stage: stage, Operation: operation, Detail: detail, Err: err}
}

// Hint returns the detail of the outermost StageError in err, if any.
func Hint(err error) string {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return strings.TrimSpace(stageErr.Detail)
	}
	return ""
}

// FailureStatus maps a stage error to the queue status the workflow manager
// should persist after the stage fails. Tasks that can never succeed are
// skipped; everything else is failed and eligible for retry.
func FailureStatus(err error) queue.Status {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound):
		return queue.StatusSkipped
	default:
		return queue.StatusFailed
	}
}

// Retryable reports whether a failure is worth another attempt.
func Retryable(err error) bool {
	return err != nil && FailureStatus(err) == queue.StatusFailed && !errors.Is(err, ErrConfiguration)
}
