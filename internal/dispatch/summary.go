package dispatch

import (
	"encoding/json"
	"time"
)

// Summary aggregates one dispatch run
type Summary struct {
	RunID        string      `json:"run_id"`
	Endpoint     string      `json:"endpoint"`
	Total        int         `json:"total"`
	Completed    int         `json:"completed"`
	SuccessCount int         `json:"success_count"`
	FailureCount int         `json:"failure_count"`
	StatusCodes  map[int]int `json:"status_codes,omitempty"`
	Cancelled    bool        `json:"cancelled,omitempty"`
	StartedAt    time.Time   `json:"started_at"`
	FinishedAt   time.Time   `json:"finished_at"`
}

// SuccessRate is SuccessCount/Total as a fraction, 0 for an empty run
func (s Summary) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.SuccessCount) / float64(s.Total)
}

func (s Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// AllSucceeded reports whether every record of a completed run was a success
func (s Summary) AllSucceeded() bool {
	return !s.Cancelled && s.SuccessCount == s.Total
}

func (s Summary) MarshalJSON() ([]byte, error) {
	type plain Summary
	return json.Marshal(struct {
		plain
		SuccessRate float64 `json:"success_rate"`
		DurationMS  int64   `json:"duration_ms"`
	}{
		plain:       plain(s),
		SuccessRate: s.SuccessRate(),
		DurationMS:  s.Duration().Milliseconds(),
	})
}
