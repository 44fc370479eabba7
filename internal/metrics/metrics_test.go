package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMustRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustRegister(reg)
	MustRegisterReceiver(reg)

	// Touch every vector so it shows up in Gather
	RecordRun("completed")
	RecordTicket(true)
	RecordDelivery(true, "http_2xx", 10*time.Millisecond)
	RecordPacing(500 * time.Millisecond)
	UpdateProgress(1, 2)
	RecordReceived("202")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	got := map[string]bool{}
	for _, f := range families {
		got[f.GetName()] = true
	}
	for _, name := range []string{
		"supportflow_runs_total",
		"supportflow_tickets_total",
		"supportflow_deliveries_total",
		"supportflow_delivery_latency_seconds",
		"supportflow_pacing_delay_seconds",
		"supportflow_run_progress",
		"supportflow_receiver_tickets_total",
	} {
		if !got[name] {
			t.Errorf("metric %s not registered", name)
		}
	}
}

func TestMustRegisterTwicePanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustRegister(reg)
	defer func() {
		if recover() == nil {
			t.Error("second MustRegister() on the same registry should panic")
		}
	}()
	MustRegister(reg)
}

func TestRecordRun(t *testing.T) {
	for _, result := range []string{"completed", "cancelled", "schema_error", "invalid_config"} {
		t.Run(result, func(t *testing.T) {
			before := testutil.ToFloat64(RunsTotal.WithLabelValues(result))
			RecordRun(result)
			if got := testutil.ToFloat64(RunsTotal.WithLabelValues(result)) - before; got != 1 {
				t.Errorf("RunsTotal{%s} delta = %v, want 1", result, got)
			}
		})
	}
}

func TestRecordTicket(t *testing.T) {
	tests := []struct {
		name    string
		success bool
		label   string
	}{
		{name: "success", success: true, label: "success"},
		{name: "failure", success: false, label: "failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(TicketsTotal.WithLabelValues(tt.label))
			RecordTicket(tt.success)
			if got := testutil.ToFloat64(TicketsTotal.WithLabelValues(tt.label)) - before; got != 1 {
				t.Errorf("TicketsTotal{%s} delta = %v, want 1", tt.label, got)
			}
		})
	}
}

func TestRecordDelivery(t *testing.T) {
	tests := []struct {
		name        string
		transportOK bool
		reason      string
		outcome     string
	}{
		{name: "completed exchange", transportOK: true, reason: "http_5xx", outcome: "completed"},
		{name: "transport error", transportOK: false, reason: "connection_refused", outcome: "transport_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DeliveriesTotal.WithLabelValues(tt.outcome, tt.reason)
			before := testutil.ToFloat64(c)
			RecordDelivery(tt.transportOK, tt.reason, 25*time.Millisecond)
			if got := testutil.ToFloat64(c) - before; got != 1 {
				t.Errorf("DeliveriesTotal{%s,%s} delta = %v, want 1", tt.outcome, tt.reason, got)
			}
		})
	}
}

func TestUpdateProgress(t *testing.T) {
	UpdateProgress(3, 10)
	if got := testutil.ToFloat64(RunProgress.WithLabelValues("completed")); got != 3 {
		t.Errorf("completed = %v, want 3", got)
	}
	if got := testutil.ToFloat64(RunProgress.WithLabelValues("total")); got != 10 {
		t.Errorf("total = %v, want 10", got)
	}
}

func pacingSamples(t *testing.T, reg *prometheus.Registry) uint64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, f := range families {
		if f.GetName() == "supportflow_pacing_delay_seconds" {
			return f.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	return 0
}

func TestRecordPacing(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(PacingDelaySeconds)

	before := pacingSamples(t, reg)
	RecordPacing(750 * time.Millisecond)
	RecordPacing(1200 * time.Millisecond)
	if got := pacingSamples(t, reg) - before; got != 2 {
		t.Errorf("pacing samples delta = %d, want 2", got)
	}
}

func TestRecordReceived(t *testing.T) {
	before := testutil.ToFloat64(TicketsReceivedTotal.WithLabelValues("500"))
	RecordReceived("500")
	RecordReceived("500")
	if got := testutil.ToFloat64(TicketsReceivedTotal.WithLabelValues("500")) - before; got != 2 {
		t.Errorf("TicketsReceivedTotal{500} delta = %v, want 2", got)
	}
}
