package delivery

import (
	"time"

	"github.com/austindbirch/supportflow/internal/ticket"
)

const FailureType = "ticket.delivery_failed"

// FailureNotice is published when a ticket could not be delivered. It carries the full
// payload so a downstream consumer can replay it by hand.
type FailureNotice struct {
	Type         string            `json:"type"`    // "ticket.delivery_failed"
	Version      string            `json:"version"` // schema version
	At           string            `json:"at"`      // RFC3339 time the notice was emitted
	RunID        string            `json:"run_id"`
	Endpoint     string            `json:"endpoint"`
	Reason       string            `json:"reason"`
	LastError    string            `json:"last_error,omitempty"`
	Payload      ticket.Payload    `json:"payload"`
	TraceHeaders map[string]string `json:"trace_headers,omitempty"`
}

func NewFailureNotice(runID, endpoint string, p ticket.Payload, out Outcome) FailureNotice {
	return FailureNotice{
		Type:      FailureType,
		Version:   "v1",
		At:        time.Now().Format(time.RFC3339Nano),
		RunID:     runID,
		Endpoint:  endpoint,
		Reason:    out.Reason,
		LastError: out.Body,
		Payload:   p,
	}
}
