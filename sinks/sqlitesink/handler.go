// Package sqlitesink persists event pairs to a SQLite database, one row
// per begin or end event. It doubles as a query surface so operators can
// inspect past invocations by correlation identifier.
package sqlitesink

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/loomkit/loom/events"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS llm_events (
	seq     INTEGER PRIMARY KEY AUTOINCREMENT,
	id      TEXT NOT NULL,
	phase   TEXT NOT NULL,
	kind    TEXT NOT NULL,
	at      TEXT NOT NULL,
	payload BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS llm_events_id ON llm_events (id);
`

var _ events.Handler = (*Handler)(nil)

// Handler writes every event to a SQLite table.
type Handler struct {
	db *sql.DB
}

// Open creates a handler backed by the SQLite database at path, creating
// the file and schema when missing.
func Open(path string) (*Handler, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitesink: opening %s: %w", path, err)
	}
	h, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return h, nil
}

// New wraps an existing database handle and ensures the schema exists.
func New(db *sql.DB) (*Handler, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("sqlitesink: creating schema: %w", err)
	}
	return &Handler{db: db}, nil
}

// Close releases the database handle.
func (h *Handler) Close() error {
	return h.db.Close()
}

func (h *Handler) OnStart(ctx context.Context, kind events.Kind, payload events.Payload, id uuid.UUID) error {
	return h.insert(ctx, events.PhaseStart, kind, payload, id)
}

func (h *Handler) OnEnd(ctx context.Context, kind events.Kind, payload events.Payload, id uuid.UUID) error {
	return h.insert(ctx, events.PhaseEnd, kind, payload, id)
}

func (h *Handler) insert(ctx context.Context, phase events.Phase, kind events.Kind, payload events.Payload, id uuid.UUID) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("sqlitesink: marshaling payload: %w", err)
	}
	_, err = h.db.ExecContext(ctx,
		`INSERT INTO llm_events (id, phase, kind, at, payload) VALUES (?, ?, ?, ?, ?)`,
		id.String(), string(phase), string(kind), strfmt.DateTime(time.Now().UTC()).String(), body,
	)
	if err != nil {
		return fmt.Errorf("sqlitesink: inserting %s event: %w", phase, err)
	}
	return nil
}

// Records returns the stored events for one correlation identifier, in
// insertion order. Payloads come back as decoded maps.
func (h *Handler) Records(ctx context.Context, id uuid.UUID) ([]events.Record, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, phase, kind, at, payload FROM llm_events WHERE id = ? ORDER BY seq`,
		id.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlitesink: querying events: %w", err)
	}
	defer rows.Close()

	var out []events.Record
	for rows.Next() {
		var (
			rawID, phase, kind, at string
			body                   []byte
		)
		if err := rows.Scan(&rawID, &phase, &kind, &at, &body); err != nil {
			return nil, fmt.Errorf("sqlitesink: scanning row: %w", err)
		}

		recID, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("sqlitesink: corrupt id %q: %w", rawID, err)
		}
		ts, err := strfmt.ParseDateTime(at)
		if err != nil {
			return nil, fmt.Errorf("sqlitesink: corrupt timestamp %q: %w", at, err)
		}
		var payload events.Payload
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("sqlitesink: corrupt payload: %w", err)
		}

		out = append(out, events.Record{
			Phase:   events.Phase(phase),
			Kind:    events.Kind(kind),
			Payload: payload,
			ID:      recID,
			At:      ts,
		})
	}
	return out, rows.Err()
}
