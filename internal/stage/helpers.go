package stage

import (
	"gamewiki/internal/queue"
	"gamewiki/internal/services"
)

// DecodePayload unmarshals the task payload into v.
// On failure it returns a services.ErrValidation suitable for stage Execute methods,
// so the task is skipped instead of retried.
func DecodePayload(name string, task *queue.Task, v any) error {
	if err := task.Decode(v); err != nil {
		return services.Wrap(
			services.ErrValidation, name, "decode payload",
			"Task payload missing or invalid; re-enqueue the page", err)
	}
	return nil
}
