package events

import (
	"context"

	"github.com/stakewerk/snsctl/internal/logging"
)

// Emitter records audit events for a deployment run.
type Emitter interface {
	Emit(ctx context.Context, evt Event) error
	Close() error
}

// NewEmitter creates an emitter for the run. Disabled or failing
// configurations fall back to a no-op emitter so auditing never blocks
// a deployment.
func NewEmitter(enabled bool, path, runID, network string) Emitter {
	log := logging.Component("events")

	if !enabled {
		return &noopEmitter{}
	}

	emitter, err := NewFileEmitter(path, runID, network)
	if err != nil {
		log.Warn("audit log unavailable, using no-op emitter", "path", path, "error", err)
		return &noopEmitter{}
	}
	log.Info("audit log enabled", "path", path)
	return emitter
}

// noopEmitter discards all events.
type noopEmitter struct{}

func (n *noopEmitter) Emit(_ context.Context, _ Event) error {
	return nil
}

func (n *noopEmitter) Close() error {
	return nil
}
