// Package natssink publishes event pairs to a NATS subject, one JSON
// envelope per begin or end event. The subject is suffixed with the
// event kind, e.g. loom.events.llm, so subscribers can filter by kind.
package natssink

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/loomkit/loom/events"
	"github.com/nats-io/nats.go"
	"github.com/tidwall/sjson"
)

// Publisher is the slice of the NATS connection the handler needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

var _ Publisher = (*nats.Conn)(nil)

var _ events.Handler = (*Handler)(nil)

// Handler forwards every event to a NATS subject.
type Handler struct {
	pub     Publisher
	subject string
}

// New returns a handler publishing under the given subject prefix.
func New(pub Publisher, subject string) *Handler {
	return &Handler{pub: pub, subject: subject}
}

func (h *Handler) OnStart(_ context.Context, kind events.Kind, payload events.Payload, id uuid.UUID) error {
	return h.publish(events.PhaseStart, kind, payload, id)
}

func (h *Handler) OnEnd(_ context.Context, kind events.Kind, payload events.Payload, id uuid.UUID) error {
	return h.publish(events.PhaseEnd, kind, payload, id)
}

func (h *Handler) publish(phase events.Phase, kind events.Kind, payload events.Payload, id uuid.UUID) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("natssink: marshaling payload: %w", err)
	}

	env, _ := sjson.Set("", "phase", string(phase))
	env, _ = sjson.Set(env, "kind", string(kind))
	env, _ = sjson.Set(env, "id", id.String())
	env, _ = sjson.Set(env, "at", strfmt.DateTime(time.Now().UTC()).String())
	env, _ = sjson.SetRaw(env, "payload", string(body))

	subject := h.subject + "." + string(kind)
	if err := h.pub.Publish(subject, []byte(env)); err != nil {
		return fmt.Errorf("natssink: publishing to %s: %w", subject, err)
	}
	return nil
}
