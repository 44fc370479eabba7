package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/austindbirch/supportflow/internal/dataset"
	"github.com/austindbirch/supportflow/internal/delivery"
	"github.com/austindbirch/supportflow/internal/logging"
	"github.com/austindbirch/supportflow/internal/metrics"
	"github.com/austindbirch/supportflow/internal/ticket"
	"github.com/austindbirch/supportflow/internal/tracing"
)

// ErrInvalidConfig is returned when the endpoint or delay bounds are unusable
var ErrInvalidConfig = errors.New("invalid dispatch config")

// Deliverer posts one payload; *delivery.Client implements it
type Deliverer interface {
	Deliver(ctx context.Context, payload ticket.Payload, endpoint string) delivery.Outcome
}

// Engine sends the records of a dataset one at a time, in row order, with a random
// pause between consecutive sends.
type Engine struct {
	deliverer    Deliverer
	delays       DelaySource
	sleep        Sleeper
	sink         Sink
	logger       *logging.Logger
	now          func() time.Time
	newRunID     func() string
	strictStatus bool
}

type Option func(*Engine)

func WithDeliverer(d Deliverer) Option { return func(e *Engine) { e.deliverer = d } }

func WithDelaySource(s DelaySource) Option { return func(e *Engine) { e.delays = s } }

func WithSleeper(s Sleeper) Option { return func(e *Engine) { e.sleep = s } }

func WithSink(s Sink) Option { return func(e *Engine) { e.sink = s } }

func WithLogger(l *logging.Logger) Option { return func(e *Engine) { e.logger = l } }

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func WithRunID(f func() string) Option { return func(e *Engine) { e.newRunID = f } }

// WithStrictStatus counts completed exchanges with a non-2xx status as failures.
// Off by default: any completed exchange is a success.
func WithStrictStatus(strict bool) Option { return func(e *Engine) { e.strictStatus = strict } }

func New(opts ...Option) *Engine {
	e := &Engine{
		deliverer: delivery.NewClient(),
		delays:    NewRandSource(time.Now().UnixNano()),
		sleep:     SleepContext,
		sink:      discard{},
		logger:    logging.Default(),
		now:       time.Now,
		newRunID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func checkConfig(endpoint string, delayMin, delayMax float64) error {
	switch {
	case endpoint == "":
		return fmt.Errorf("%w: endpoint is required", ErrInvalidConfig)
	case delayMin < 0 || delayMax < 0:
		return fmt.Errorf("%w: delays must be non-negative (min=%g max=%g)", ErrInvalidConfig, delayMin, delayMax)
	case delayMin > delayMax:
		return fmt.Errorf("%w: delay min %g exceeds max %g", ErrInvalidConfig, delayMin, delayMax)
	}
	return nil
}

// Run dispatches every record of ds to endpoint and returns the run summary.
//
// A schema or config error is returned before any delivery. Delivery failures never
// abort the run. Cancellation of ctx is only observed between records: the in-flight
// delivery always completes, after which RunFinished is emitted with Cancelled set and
// the partial summary is returned alongside ctx.Err().
func (e *Engine) Run(ctx context.Context, ds *dataset.Dataset, endpoint string, delayMin, delayMax float64) (Summary, error) {
	log := e.logger.WithContext(ctx).WithEndpoint(endpoint)

	if err := checkConfig(endpoint, delayMin, delayMax); err != nil {
		metrics.RecordRun("invalid_config")
		log.WithError(err).Error("dispatch rejected")
		return Summary{}, err
	}
	if err := dataset.Validate(ds); err != nil {
		metrics.RecordRun("schema_error")
		log.WithError(err).Error("dataset rejected")
		return Summary{}, err
	}

	records := ds.Records()
	sum := Summary{
		RunID:     e.newRunID(),
		Endpoint:  endpoint,
		Total:     len(records),
		StartedAt: e.now(),
	}

	ctx, span := tracing.StartSpan(ctx, "dispatch.run",
		attribute.String("run_id", sum.RunID),
		attribute.String("endpoint_url", endpoint),
		attribute.Int("total", sum.Total),
	)
	defer span.End()

	e.logger.WithContext(ctx).WithRun(sum.RunID).WithEndpoint(endpoint).WithFields(map[string]any{
		"total":     sum.Total,
		"delay_min": delayMin,
		"delay_max": delayMax,
	}).Info("dispatch started")
	metrics.UpdateProgress(0, sum.Total)

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return e.finish(ctx, sum, err)
		}

		e.dispatchOne(ctx, &sum, i, rec, endpoint)

		if i < len(records)-1 {
			d := e.pause(delayMin, delayMax)
			if err := e.sleep(ctx, d); err != nil {
				return e.finish(ctx, sum, err)
			}
		}
	}

	return e.finish(ctx, sum, nil)
}

// dispatchOne builds, delivers and classifies record i. The delivery runs detached
// from cancellation so a record is never left half-processed.
func (e *Engine) dispatchOne(ctx context.Context, sum *Summary, i int, rec ticket.Record, endpoint string) {
	payload := ticket.Build(rec)
	e.sink.Handle(ctx, PayloadBuilt{RunID: sum.RunID, Index: i, Payload: payload})

	out := e.deliverer.Deliver(context.WithoutCancel(ctx), payload, endpoint)

	success := out.TransportSucceeded
	if e.strictStatus && success {
		success = out.StatusCode >= 200 && out.StatusCode < 300
	}
	if out.TransportSucceeded {
		if sum.StatusCodes == nil {
			sum.StatusCodes = make(map[int]int)
		}
		sum.StatusCodes[out.StatusCode]++
	}
	if success {
		sum.SuccessCount++
	} else {
		sum.FailureCount++
	}
	metrics.RecordTicket(success)

	entry := e.logger.WithContext(ctx).WithRun(sum.RunID).WithTicket(payload.ExternalID).WithFields(map[string]any{
		"index":       i,
		"status_code": out.StatusCode,
		"reason":      out.Reason,
		"latency_ms":  out.Latency.Milliseconds(),
	})
	if success {
		entry.Debug("ticket sent")
	} else {
		entry.WithField("body", truncate(out.Body, 200)).Warn("ticket failed")
	}

	e.sink.Handle(ctx, DeliveryResult{
		RunID:      sum.RunID,
		Index:      i,
		ExternalID: payload.ExternalID,
		Endpoint:   endpoint,
		Success:    success,
		StatusCode: out.StatusCode,
		Body:       out.Body,
		Outcome:    out,
		Payload:    payload,
	})

	sum.Completed = i + 1
	metrics.UpdateProgress(sum.Completed, sum.Total)
	e.sink.Handle(ctx, Progress{RunID: sum.RunID, Completed: sum.Completed, Total: sum.Total})
}

// pause draws the next inter-record delay, clamped to [min, max]
func (e *Engine) pause(delayMin, delayMax float64) time.Duration {
	f := e.delays.Uniform(delayMin, delayMax)
	if f < delayMin {
		f = delayMin
	}
	if f > delayMax {
		f = delayMax
	}
	d := seconds(f)
	metrics.RecordPacing(d)
	return d
}

func (e *Engine) finish(ctx context.Context, sum Summary, cause error) (Summary, error) {
	sum.FinishedAt = e.now()
	result := "completed"
	if cause != nil {
		sum.Cancelled = true
		result = "cancelled"
		tracing.SetSpanError(ctx, cause)
	}
	metrics.RecordRun(result)

	tracing.AddSpanEvent(ctx, "dispatch.finished",
		attribute.Int("success_count", sum.SuccessCount),
		attribute.Int("failure_count", sum.FailureCount),
		attribute.Bool("cancelled", sum.Cancelled),
	)
	e.logger.WithContext(ctx).WithRun(sum.RunID).WithFields(map[string]any{
		"total":        sum.Total,
		"completed":    sum.Completed,
		"success":      sum.SuccessCount,
		"failure":      sum.FailureCount,
		"success_rate": sum.SuccessRate(),
		"cancelled":    sum.Cancelled,
	}).Info("dispatch finished")

	// The sink may do I/O on ctx; a cancelled run still gets its final event out.
	e.sink.Handle(context.WithoutCancel(ctx), RunFinished{Summary: sum})
	return sum, cause
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
