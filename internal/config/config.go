package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid configuration")

type Dispatch struct {
	Endpoint     string  // Ticket intake URL
	DelayMin     float64 // Minimum pause between tickets, seconds
	DelayMax     float64 // Maximum pause between tickets, seconds
	Seed         int64   // Pacing RNG seed; 0 means time-based
	StrictStatus bool    // Count non-2xx responses as failures
	ShowPayloads bool    // Print each payload before it is sent
}

type Source struct {
	DSN   string // PostgreSQL DSN; empty means CSV input
	Query string // SQL returning the ticket columns
}

type NSQ struct {
	NsqdTCPAddr   string // e.g. nsqd:4150
	EventsTopic   string // Topic receiving every dispatch event
	FailuresTopic string // Topic receiving failed-ticket notices
	PublishEvents bool   // Whether to publish at all
}

type Observability struct {
	MetricsAddr  string // Serve /metrics and /healthz during a run when set
	OTLPEndpoint string // OTLP/HTTP collector host:port; empty disables export
	LogLevel     string // debug, info, warn, error
}

type Receiver struct {
	Port            string        // Server listen address
	FailFirstN      int           // Number of requests to fail initially
	FailStatus      int           // Status returned for the failing requests
	ResponseDelayMS int           // Simulated response delay in milliseconds
	ReadTimeout     time.Duration // HTTP read timeout
	WriteTimeout    time.Duration // HTTP write timeout
	IdleTimeout     time.Duration // HTTP idle timeout
}

type Config struct {
	AppName       string
	Dispatch      Dispatch
	Source        Source
	NSQ           NSQ
	Observability Observability
	Receiver      Receiver
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// Defaults for pacing, in seconds
const (
	DefaultDelayMin = 0.5
	DefaultDelayMax = 1.5
)

func FromEnv() Config {
	return Config{
		AppName: getenv("APP_NAME", "supportflow"),
		Dispatch: Dispatch{
			Endpoint:     getenv("TICKETSIM_ENDPOINT", ""),
			DelayMin:     getenvFloat("TICKETSIM_DELAY_MIN", DefaultDelayMin),
			DelayMax:     getenvFloat("TICKETSIM_DELAY_MAX", DefaultDelayMax),
			Seed:         getenvInt64("TICKETSIM_SEED", 0),
			StrictStatus: getenvBool("TICKETSIM_STRICT_STATUS", false),
			ShowPayloads: getenvBool("TICKETSIM_SHOW_PAYLOADS", false),
		},
		Source: Source{
			DSN:   getenv("TICKETSIM_DSN", ""),
			Query: getenv("TICKETSIM_QUERY", ""),
		},
		NSQ: NSQ{
			NsqdTCPAddr:   getenv("NSQD_TCP_ADDR", "nsqd:4150"),
			EventsTopic:   getenv("NSQ_EVENTS_TOPIC", "ticket_events"),
			FailuresTopic: getenv("NSQ_FAILURES_TOPIC", "ticket_failures"),
			PublishEvents: getenvBool("PUBLISH_EVENTS", false),
		},
		Observability: Observability{
			MetricsAddr:  getenv("TICKETSIM_METRICS_ADDR", ""),
			OTLPEndpoint: getenv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			LogLevel:     getenv("LOG_LEVEL", "info"),
		},
		Receiver: Receiver{
			Port:            getenv("RECEIVER_PORT", ":8081"),
			FailFirstN:      getenvInt("FAIL_FIRST_N", 0),
			FailStatus:      getenvInt("FAIL_STATUS", 500),
			ResponseDelayMS: getenvInt("RESPONSE_DELAY_MS", 0),
			ReadTimeout:     getenvDuration("RECEIVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getenvDuration("RECEIVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:     getenvDuration("RECEIVER_IDLE_TIMEOUT", 60*time.Second),
		},
	}
}

// ValidateDispatch checks the settings a dispatch run depends on
func (c Config) ValidateDispatch() error {
	d := c.Dispatch
	if d.Endpoint == "" {
		return fmt.Errorf("%w: endpoint is required", ErrInvalid)
	}
	u, err := url.Parse(d.Endpoint)
	if err != nil {
		return fmt.Errorf("%w: endpoint: %v", ErrInvalid, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: endpoint must be an absolute http(s) URL, got %q", ErrInvalid, d.Endpoint)
	}
	if d.DelayMin < 0 || d.DelayMax < 0 {
		return fmt.Errorf("%w: delays must be non-negative", ErrInvalid)
	}
	if d.DelayMin > d.DelayMax {
		return fmt.Errorf("%w: delay-min (%g) must not exceed delay-max (%g)", ErrInvalid, d.DelayMin, d.DelayMax)
	}
	if c.NSQ.PublishEvents && c.NSQ.NsqdTCPAddr == "" {
		return fmt.Errorf("%w: publishing events requires an nsqd address", ErrInvalid)
	}
	return nil
}

// QueryOr returns the configured source query, or def when none is set
func (s Source) QueryOr(def string) string {
	if s.Query != "" {
		return s.Query
	}
	return def
}
