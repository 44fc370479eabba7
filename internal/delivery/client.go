package delivery

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/austindbirch/supportflow/internal/metrics"
	"github.com/austindbirch/supportflow/internal/ticket"
	"github.com/austindbirch/supportflow/internal/tracing"
)

// DefaultTimeout bounds a single ticket POST, connect through body read
const DefaultTimeout = 10 * time.Second

// maxBodyBytes caps how much of a response body is kept in an Outcome
const maxBodyBytes = 1 << 20

// Outcome is the result of one delivery attempt. TransportSucceeded is true whenever the
// HTTP exchange completed, whatever the status code. Body holds the response text, cut
// to the first maxBodyBytes bytes, or the transport error.
type Outcome struct {
	TransportSucceeded bool          `json:"transport_succeeded"`
	StatusCode         int           `json:"status_code"`
	Body               string        `json:"body"`
	Latency            time.Duration `json:"latency"`
	Reason             string        `json:"reason"`
}

// Client posts ticket payloads. The zero value is not usable; call NewClient.
type Client struct {
	http      *http.Client
	userAgent string
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its Timeout is left as given.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithUserAgent sets the User-Agent header on every request
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient returns a client with the fixed per-request timeout
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: DefaultTimeout},
		userAgent: "supportflow-ticketsim/dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Deliver performs exactly one POST of payload to endpoint. Transport failures come back
// as an Outcome with StatusCode 0 and the error text as Body; they are never returned as errors.
func (c *Client) Deliver(ctx context.Context, payload ticket.Payload, endpoint string) Outcome {
	ctx, span := tracing.StartSpan(ctx, "ticket.deliver",
		attribute.String("external_id", payload.ExternalID),
		attribute.String("endpoint_url", endpoint),
	)
	defer span.End()

	start := time.Now()
	out := c.post(ctx, payload, endpoint)
	out.Latency = time.Since(start)

	span.SetAttributes(
		attribute.Bool("transport_succeeded", out.TransportSucceeded),
		attribute.Int("http.status_code", out.StatusCode),
		attribute.Int64("http.latency_ms", out.Latency.Milliseconds()),
		attribute.String("delivery.reason", out.Reason),
	)
	if !out.TransportSucceeded {
		tracing.SetSpanError(ctx, errors.New(out.Body))
	}
	metrics.RecordDelivery(out.TransportSucceeded, out.Reason, out.Latency)
	return out
}

func (c *Client) post(ctx context.Context, payload ticket.Payload, endpoint string) Outcome {
	body, err := payload.JSON()
	if err != nil {
		return transportFailure(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return transportFailure(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	tracing.InjectHTTP(ctx, req.Header)

	tracing.AddSpanEvent(ctx, "http.send_ticket")
	resp, err := c.http.Do(req)
	if err != nil {
		return transportFailure(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		// The status line arrived but the body did not; the exchange never completed.
		return transportFailure(err)
	}

	return Outcome{
		TransportSucceeded: true,
		StatusCode:         resp.StatusCode,
		Body:               string(raw),
		Reason:             ClassifyReason(nil, resp.StatusCode),
	}
}

func transportFailure(err error) Outcome {
	return Outcome{
		TransportSucceeded: false,
		StatusCode:         0,
		Body:               err.Error(),
		Reason:             ClassifyReason(err, 0),
	}
}

// ClassifyReason labels an attempt for metrics and logs. It never changes how an
// attempt is counted.
func ClassifyReason(doErr error, status int) string {
	if doErr != nil {
		var netErr net.Error
		if errors.As(doErr, &netErr) && netErr.Timeout() {
			return "timeout"
		}
		var dnsErr *net.DNSError
		if errors.As(doErr, &dnsErr) {
			return "dns_error"
		}
		var certErr *tls.CertificateVerificationError
		if errors.As(doErr, &certErr) {
			return "tls"
		}
		errLower := strings.ToLower(doErr.Error())
		switch {
		case strings.Contains(errLower, "timeout"):
			return "timeout"
		case strings.Contains(errLower, "connection refused"):
			return "connection_refused"
		case strings.Contains(errLower, "no such host"):
			return "dns_error"
		case strings.Contains(errLower, "tls") || strings.Contains(errLower, "x509"):
			return "tls"
		}
		return "network"
	}
	switch {
	case status >= 500:
		return "http_5xx"
	case status == http.StatusTooManyRequests:
		return "http_429"
	case status >= 400:
		return "http_4xx"
	case status >= 200 && status < 300:
		return "http_2xx"
	}
	return "other"
}
