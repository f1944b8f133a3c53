package stage

import "errors"

// ErrNotConfigured is reported by stages built without their collaborators.
var ErrNotConfigured = errors.New("stage not configured")

// Health is the readiness of one registered stage.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Probe turns the outcome of a readiness probe into a Health record.
func Probe(name string, err error) Health {
	if err != nil {
		return Health{Name: name, Detail: err.Error()}
	}
	return Health{Name: name, Ready: true}
}
