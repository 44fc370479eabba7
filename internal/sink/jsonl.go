package sink

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/austindbirch/supportflow/internal/dispatch"
)

// Envelope wraps an event for machine consumers (JSON lines and NSQ)
type Envelope struct {
	Type         dispatch.EventKind `json:"type"`
	At           string             `json:"at"`
	TraceHeaders map[string]string  `json:"trace_headers,omitempty"`
	Data         dispatch.Event     `json:"data"`
}

func newEnvelope(ev dispatch.Event) Envelope {
	return Envelope{
		Type: ev.Kind(),
		At:   time.Now().UTC().Format(time.RFC3339Nano),
		Data: ev,
	}
}

// JSONLines writes one envelope per event per line
type JSONLines struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONLines(w io.Writer) *JSONLines {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONLines{enc: enc}
}

func (j *JSONLines) Handle(_ context.Context, ev dispatch.Event) {
	j.mu.Lock()
	defer j.mu.Unlock()
	_ = j.enc.Encode(newEnvelope(ev))
}
