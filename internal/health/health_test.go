package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakePinger struct {
	err   error
	delay time.Duration
	calls int
}

func (f *fakePinger) Ping(ctx context.Context) error {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func TestHTTPHandler(t *testing.T) {
	yes, no := true, false

	tests := []struct {
		name       string
		db         Pinger
		wantCode   int
		wantStatus Status
	}{
		{
			name:       "healthy without database",
			db:         nil,
			wantCode:   http.StatusOK,
			wantStatus: Status{OK: true, Message: "ok"},
		},
		{
			name:       "healthy with working database",
			db:         &fakePinger{},
			wantCode:   http.StatusOK,
			wantStatus: Status{OK: true, Message: "ok", Database: &yes},
		},
		{
			name:       "unhealthy with database ping failure",
			db:         &fakePinger{err: errors.New("connection refused")},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: Status{OK: false, Message: "db ping failed", Database: &no},
		},
		{
			name:       "ping bounded by timeout",
			db:         &fakePinger{delay: 5 * time.Second},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: Status{OK: false, Message: "db ping failed", Database: &no},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			rr := httptest.NewRecorder()

			start := time.Now()
			HTTPHandler(tt.db).ServeHTTP(rr, req)
			if time.Since(start) > 3*time.Second {
				t.Errorf("handler took %v, want ping bounded", time.Since(start))
			}

			if rr.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", rr.Code, tt.wantCode)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}

			var got Status
			if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if got.OK != tt.wantStatus.OK || got.Message != tt.wantStatus.Message {
				t.Errorf("status = %+v, want %+v", got, tt.wantStatus)
			}
			switch {
			case tt.wantStatus.Database == nil && got.Database != nil:
				t.Errorf("Database = %v, want omitted", *got.Database)
			case tt.wantStatus.Database != nil && (got.Database == nil || *got.Database != *tt.wantStatus.Database):
				t.Errorf("Database = %v, want %v", got.Database, *tt.wantStatus.Database)
			}
		})
	}
}
