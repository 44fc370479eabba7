package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nsqio/go-nsq"
	"go.opentelemetry.io/otel/attribute"

	"github.com/austindbirch/supportflow/internal/delivery"
	"github.com/austindbirch/supportflow/internal/dispatch"
	"github.com/austindbirch/supportflow/internal/logging"
	"github.com/austindbirch/supportflow/internal/tracing"
)

// Publisher is the subset of *nsq.Producer the sink needs
type Publisher interface {
	Publish(topic string, body []byte) error
}

// NSQ publishes every dispatch event to an events topic so remote observers can follow
// a run. Failed tickets are additionally published as FailureNotice messages on the
// failures topic when one is configured.
type NSQ struct {
	pub           Publisher
	eventsTopic   string
	failuresTopic string
	logger        *logging.Logger
}

func NewNSQ(pub Publisher, eventsTopic, failuresTopic string, logger *logging.Logger) *NSQ {
	if logger == nil {
		logger = logging.Default()
	}
	return &NSQ{pub: pub, eventsTopic: eventsTopic, failuresTopic: failuresTopic, logger: logger}
}

// NewProducer connects an NSQ producer to nsqd and verifies it is reachable
func NewProducer(nsqdAddr string) (*nsq.Producer, error) {
	prod, err := nsq.NewProducer(nsqdAddr, nsq.NewConfig())
	if err != nil {
		return nil, fmt.Errorf("nsq producer: %w", err)
	}
	prod.SetLoggerLevel(nsq.LogLevelWarning)
	if err := prod.Ping(); err != nil {
		prod.Stop()
		return nil, fmt.Errorf("nsq ping %s: %w", nsqdAddr, err)
	}
	return prod, nil
}

// Publish errors are logged and swallowed: observers must never stall or abort a run.
func (n *NSQ) Handle(ctx context.Context, ev dispatch.Event) {
	env := newEnvelope(ev)
	env.TraceHeaders = tracing.PropagateTraceToNSQ(ctx)
	n.publish(ctx, n.eventsTopic, env)

	if r, ok := ev.(dispatch.DeliveryResult); ok && !r.Success && n.failuresTopic != "" {
		notice := delivery.NewFailureNotice(r.RunID, r.Endpoint, r.Payload, r.Outcome)
		notice.TraceHeaders = env.TraceHeaders
		n.publish(ctx, n.failuresTopic, notice)
	}
}

func (n *NSQ) publish(ctx context.Context, topic string, v any) {
	if topic == "" {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		n.logger.WithContext(ctx).WithError(err).WithField("topic", topic).Error("nsq marshal failed")
		return
	}
	if err := n.pub.Publish(topic, b); err != nil {
		n.logger.WithContext(ctx).WithError(err).WithField("topic", topic).Error("nsq publish failed")
		tracing.SetSpanError(ctx, err)
		return
	}
	tracing.AddSpanEvent(ctx, "nsq.published", attribute.String("topic", topic))
}
