package events

import (
	"context"
	"sync"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
)

// Phase distinguishes the two halves of an event pair.
type Phase string

const (
	PhaseStart Phase = "start"
	PhaseEnd   Phase = "end"
)

// Record is one captured event.
type Record struct {
	Phase   Phase
	Kind    Kind
	Payload Payload
	ID      uuid.UUID
	At      strfmt.DateTime
}

// Recorder is an in-memory Handler that captures every event it sees.
// Safe for concurrent use. Used by the test suites and handy for
// debugging sink wiring.
type Recorder struct {
	mu      sync.Mutex
	records []Record
}

var _ Handler = (*Recorder)(nil)

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) OnStart(_ context.Context, kind Kind, payload Payload, id uuid.UUID) error {
	r.append(Record{Phase: PhaseStart, Kind: kind, Payload: payload, ID: id, At: strfmt.DateTime(time.Now())})
	return nil
}

func (r *Recorder) OnEnd(_ context.Context, kind Kind, payload Payload, id uuid.UUID) error {
	r.append(Record{Phase: PhaseEnd, Kind: kind, Payload: payload, ID: id, At: strfmt.DateTime(time.Now())})
	return nil
}

func (r *Recorder) append(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

// Records returns a copy of everything captured so far, in arrival order.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Started returns the captured start records.
func (r *Recorder) Started() []Record {
	return r.phase(PhaseStart)
}

// Ended returns the captured end records.
func (r *Recorder) Ended() []Record {
	return r.phase(PhaseEnd)
}

func (r *Recorder) phase(p Phase) []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Record
	for _, rec := range r.records {
		if rec.Phase == p {
			out = append(out, rec)
		}
	}
	return out
}

// Len reports the number of captured records.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Reset discards everything captured so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
}
