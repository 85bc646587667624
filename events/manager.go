package events

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/loomkit/loom/pkg/uuidx"
)

// Handler observes begin/end events after the Manager has assigned the
// correlation identifier. Handlers run in registration order on the
// caller's goroutine; a handler error aborts the remaining handlers and
// propagates to the instrumented call.
type Handler interface {
	OnStart(ctx context.Context, kind Kind, payload Payload, id uuid.UUID) error
	OnEnd(ctx context.Context, kind Kind, payload Payload, id uuid.UUID) error
}

// Manager is the standard Sink. It assigns time-ordered correlation
// identifiers and broadcasts each event to its handlers. The zero handler
// set is valid: identifiers are still assigned, nothing is observed.
type Manager struct {
	handlers []Handler
}

var _ Sink = (*Manager)(nil)

// NewManager returns a Manager fanning out to the given handlers.
func NewManager(handlers ...Handler) *Manager {
	return &Manager{handlers: handlers}
}

// Begin assigns a correlation identifier and notifies every handler.
func (m *Manager) Begin(ctx context.Context, kind Kind, payload Payload) (uuid.UUID, error) {
	id := uuidx.New()
	for _, h := range m.handlers {
		if err := h.OnStart(ctx, kind, payload, id); err != nil {
			return uuid.Nil, fmt.Errorf("event start handler: %w", err)
		}
	}
	return id, nil
}

// End notifies every handler of the completed invocation.
func (m *Manager) End(ctx context.Context, kind Kind, payload Payload, id uuid.UUID) error {
	for _, h := range m.handlers {
		if err := h.OnEnd(ctx, kind, payload, id); err != nil {
			return fmt.Errorf("event end handler: %w", err)
		}
	}
	return nil
}
