package events

import (
	"context"
	"fmt"
	"log/slog"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/loomkit/loom/pkg/slogx"
)

// SlogHandler writes begin/end events to a log/slog logger at debug level.
// Payloads are rendered as JSON on a best-effort basis; values that fail
// to marshal are replaced with their marshal error so a bad payload never
// breaks the instrumented call.
type SlogHandler struct {
	log *slog.Logger
}

var _ Handler = (*SlogHandler)(nil)

// NewSlogHandler returns a handler logging through log. A nil log uses
// slog.Default.
func NewSlogHandler(log *slog.Logger) *SlogHandler {
	if log == nil {
		log = slog.Default()
	}
	return &SlogHandler{log: log}
}

func (h *SlogHandler) OnStart(ctx context.Context, kind Kind, payload Payload, id uuid.UUID) error {
	h.log.DebugContext(ctx, "event start",
		slog.String("kind", string(kind)),
		slogx.Correlation(id),
		slog.String("payload", renderPayload(payload)),
	)
	return nil
}

func (h *SlogHandler) OnEnd(ctx context.Context, kind Kind, payload Payload, id uuid.UUID) error {
	h.log.DebugContext(ctx, "event end",
		slog.String("kind", string(kind)),
		slogx.Correlation(id),
		slog.String("payload", renderPayload(payload)),
	)
	return nil
}

func renderPayload(payload Payload) string {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%v", payload)
	}
	return string(data)
}
