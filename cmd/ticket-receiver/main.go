package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tidwall/gjson"

	"github.com/austindbirch/supportflow/internal/config"
	"github.com/austindbirch/supportflow/internal/health"
	"github.com/austindbirch/supportflow/internal/logging"
	"github.com/austindbirch/supportflow/internal/metrics"
	"github.com/austindbirch/supportflow/internal/tracing"
)

// requiredPaths are the payload fields a ticket must carry to be accepted
var requiredPaths = []string{
	"external_id",
	"source_channel",
	"customer.name",
	"content.subject",
	"content.body",
	"ai_analysis.sentiment",
}

// receiver is a flaky ticket intake endpoint for demos: the first FailFirstN requests
// get FailStatus, everything after that is accepted.
type receiver struct {
	cfg    config.Receiver
	logger *logging.Logger

	mu       sync.Mutex
	reqCount int
	accepted []string
}

func newReceiver(cfg config.Receiver, logger *logging.Logger) *receiver {
	return &receiver{cfg: cfg, logger: logger}
}

func (rc *receiver) routes(reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", health.HTTPHandler(nil))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Post("/tickets", rc.handleTicket)
	r.Get("/tickets", rc.handleList)
	return r
}

func (rc *receiver) handleTicket(w http.ResponseWriter, r *http.Request) {
	ctx := tracing.ExtractHTTP(r.Context(), r.Header)
	ctx, span := tracing.StartSpan(ctx, "receiver.ticket")
	defer span.End()

	b, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
		return
	}

	rc.mu.Lock()
	rc.reqCount++
	n := rc.reqCount
	rc.mu.Unlock()

	if rc.cfg.ResponseDelayMS > 0 {
		time.Sleep(time.Duration(rc.cfg.ResponseDelayMS) * time.Millisecond)
	}

	log := rc.logger.WithContext(ctx).WithField("request", n)

	// Simulate flakiness: first N requests fail
	if n <= rc.cfg.FailFirstN {
		log.WithField("body", truncate(string(b), 160)).Warnf("failing ticket (%d/%d)", n, rc.cfg.FailFirstN)
		metrics.RecordReceived(strconv.Itoa(rc.cfg.FailStatus))
		http.Error(w, "temporary failure", rc.cfg.FailStatus)
		return
	}

	if !gjson.ValidBytes(b) {
		metrics.RecordReceived("400")
		http.Error(w, "body is not valid JSON", http.StatusBadRequest)
		return
	}
	for _, p := range requiredPaths {
		if v := gjson.GetBytes(b, p); !v.Exists() || v.Type != gjson.String {
			metrics.RecordReceived("422")
			http.Error(w, "missing or non-string field: "+p, http.StatusUnprocessableEntity)
			return
		}
	}

	id := gjson.GetBytes(b, "external_id").String()
	rc.mu.Lock()
	rc.accepted = append(rc.accepted, id)
	rc.mu.Unlock()

	log.WithTicket(id).WithFields(map[string]any{
		"channel":   gjson.GetBytes(b, "source_channel").String(),
		"sentiment": gjson.GetBytes(b, "ai_analysis.sentiment").String(),
	}).Info("ticket received")
	metrics.RecordReceived("202")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "accepted", "external_id": id})
}

// handleList returns the external IDs accepted so far, in arrival order
func (rc *receiver) handleList(w http.ResponseWriter, _ *http.Request) {
	rc.mu.Lock()
	ids := append([]string(nil), rc.accepted...)
	total := rc.reqCount
	rc.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"requests": total,
		"accepted": ids,
	})
}

func main() {
	cfg := config.FromEnv()
	logger := logging.New("supportflow-receiver")
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logging.ParseLevel(cfg.Observability.LogLevel))

	shutdown, err := tracing.InitTracing(context.Background(), "supportflow-receiver", cfg.Observability.OTLPEndpoint)
	if err != nil {
		logger.Plain().WithError(err).Fatal("Failed to initialize tracing")
	}
	defer shutdown()

	reg := prometheus.NewRegistry()
	metrics.MustRegisterReceiver(reg)

	rc := newReceiver(cfg.Receiver, logger)
	srv := &http.Server{
		Addr:         cfg.Receiver.Port,
		Handler:      rc.routes(reg),
		ReadTimeout:  cfg.Receiver.ReadTimeout,
		WriteTimeout: cfg.Receiver.WriteTimeout,
		IdleTimeout:  cfg.Receiver.IdleTimeout,
	}
	go func() {
		logger.Plain().WithFields(map[string]any{
			"addr":         srv.Addr,
			"fail_first_n": cfg.Receiver.FailFirstN,
		}).Info("ticket receiver listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Plain().WithError(err).Fatal("ticket receiver failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	logger.Plain().Info("ticket receiver stopped")
}

// truncate cuts s to n runes and adds an ellipsis if anything was dropped
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
