package logging

import (
	"context"
	"log/slog"

	"gamewiki/internal/services"
)

// Structured keys shared by every component.
const (
	FieldComponent     = "component"
	FieldTaskID        = "task_id"
	FieldTaskKind      = "task_kind"
	FieldStage         = "stage"
	FieldWorker        = "worker"
	FieldCorrelationID = "correlation_id"
	FieldPage          = "page"

	// FieldEventType classifies a line for filtering, e.g. "stage_complete".
	FieldEventType = "event_type"
	// FieldErrorHint carries the operator's next step.
	FieldErrorHint = "error_hint"
	// FieldImpact says what the warning costs the sync.
	FieldImpact = "impact"
	FieldAlert  = "alert"
)

// contextFields collects the task identifiers carried by ctx.
func contextFields(ctx context.Context) []Attr {
	if ctx == nil {
		return nil
	}
	var fields []Attr
	if id, ok := services.TaskIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldTaskID, id))
	}
	for _, lookup := range []struct {
		key string
		get func(context.Context) (string, bool)
	}{
		{FieldTaskKind, services.TaskKindFromContext},
		{FieldStage, services.StageFromContext},
		{FieldWorker, services.WorkerFromContext},
		{FieldCorrelationID, services.RequestIDFromContext},
	} {
		if value, ok := lookup.get(ctx); ok {
			fields = append(fields, slog.String(lookup.key, value))
		}
	}
	return fields
}

// WithContext returns logger tagged with the task identifiers found in ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := contextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
