package stage

import (
	"context"

	"gamewiki/internal/queue"
)

// Handler describes the contract the workflow manager needs from each task kind.
type Handler interface {
	Prepare(context.Context, *queue.Task) error
	Execute(context.Context, *queue.Task) error
	HealthCheck(context.Context) Health
}
