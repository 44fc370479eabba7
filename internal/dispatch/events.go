package dispatch

import (
	"context"

	"github.com/austindbirch/supportflow/internal/delivery"
	"github.com/austindbirch/supportflow/internal/ticket"
)

type EventKind string

const (
	KindPayloadBuilt   EventKind = "payload_built"
	KindDeliveryResult EventKind = "delivery_result"
	KindProgress       EventKind = "progress"
	KindRunFinished    EventKind = "run_finished"
)

// Event is one of PayloadBuilt, DeliveryResult, Progress or RunFinished
type Event interface {
	Kind() EventKind
}

// PayloadBuilt is emitted before a payload is sent
type PayloadBuilt struct {
	RunID   string         `json:"run_id"`
	Index   int            `json:"index"`
	Payload ticket.Payload `json:"payload"`
}

// DeliveryResult is emitted once per record after classification. StatusCode is 0
// when the transport failed.
type DeliveryResult struct {
	RunID      string           `json:"run_id"`
	Index      int              `json:"index"`
	ExternalID string           `json:"external_id"`
	Endpoint   string           `json:"endpoint"`
	Success    bool             `json:"success"`
	StatusCode int              `json:"status_code"`
	Body       string           `json:"body"`
	Outcome    delivery.Outcome `json:"-"`
	Payload    ticket.Payload   `json:"-"`
}

// Progress is emitted after every record, Completed runs 1..Total
type Progress struct {
	RunID     string `json:"run_id"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

// RunFinished closes every run, including empty and cancelled ones
type RunFinished struct {
	Summary Summary `json:"summary"`
}

func (PayloadBuilt) Kind() EventKind   { return KindPayloadBuilt }
func (DeliveryResult) Kind() EventKind { return KindDeliveryResult }
func (Progress) Kind() EventKind       { return KindProgress }
func (RunFinished) Kind() EventKind    { return KindRunFinished }

// Sink consumes dispatch events. Handle is called synchronously from the engine's
// goroutine, in emission order.
type Sink interface {
	Handle(ctx context.Context, ev Event)
}

// SinkFunc adapts a function to a Sink
type SinkFunc func(ctx context.Context, ev Event)

func (f SinkFunc) Handle(ctx context.Context, ev Event) { f(ctx, ev) }

// MultiSink fans every event out to each sink in order
type MultiSink []Sink

func (m MultiSink) Handle(ctx context.Context, ev Event) {
	for _, s := range m {
		if s != nil {
			s.Handle(ctx, ev)
		}
	}
}

type discard struct{}

func (discard) Handle(context.Context, Event) {}
