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

func TestChecker_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		wantStatus string
		wantFailed []string
	}{
		{
			name:       "no checks",
			wantStatus: StatusReady,
		},
		{
			name: "all pass",
			checks: map[string]CheckFunc{
				"engine": func(context.Context) error { return nil },
				"config": func(context.Context) error { return nil },
			},
			wantStatus: StatusReady,
		},
		{
			name: "one fails",
			checks: map[string]CheckFunc{
				"engine": func(context.Context) error { return errors.New("reload failed") },
				"config": func(context.Context) error { return nil },
			},
			wantStatus: StatusUnavailable,
			wantFailed: []string{"engine"},
		},
		{
			name: "timeout",
			checks: map[string]CheckFunc{
				"slow": func(ctx context.Context) error {
					<-ctx.Done()
					return ctx.Err()
				},
			},
			wantStatus: StatusUnavailable,
			wantFailed: []string{"slow"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(20 * time.Millisecond)
			for name, check := range tt.checks {
				c.Register(name, check)
			}

			status := c.Readiness(context.Background())
			if status.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", status.Status, tt.wantStatus)
			}
			if len(status.Checks) != len(tt.checks) {
				t.Errorf("len(Checks) = %d, want %d", len(status.Checks), len(tt.checks))
			}
			for _, name := range tt.wantFailed {
				if r := status.Checks[name]; r.Status != StatusUnavailable || r.Message == "" {
					t.Errorf("check %s = %+v, want unavailable with message", name, r)
				}
			}
		})
	}
}

func TestChecker_Names(t *testing.T) {
	c := New(0)
	c.Register("b", func(context.Context) error { return nil })
	c.Register("a", func(context.Context) error { return nil })
	c.Register("b", func(context.Context) error { return nil })

	names := c.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Names() = %v, want [a b]", names)
	}
}

func TestHandlers(t *testing.T) {
	var failing error
	c := New(time.Second)
	c.Register("engine", func(context.Context) error { return failing })

	mux := http.NewServeMux()
	c.RegisterHandlers(mux)

	tests := []struct {
		name     string
		method   string
		path     string
		fail     error
		wantCode int
		wantBody string
	}{
		{name: "liveness", method: http.MethodGet, path: "/health", wantCode: http.StatusOK, wantBody: StatusOK},
		{name: "ready", method: http.MethodGet, path: "/ready", wantCode: http.StatusOK, wantBody: StatusReady},
		{name: "not ready", method: http.MethodGet, path: "/ready", fail: errors.New("closed"), wantCode: http.StatusServiceUnavailable, wantBody: StatusUnavailable},
		{name: "head", method: http.MethodHead, path: "/health", wantCode: http.StatusOK},
		{name: "post rejected", method: http.MethodPost, path: "/ready", wantCode: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failing = tt.fail
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantBody == "" {
				return
			}
			var status Status
			if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
				t.Fatalf("invalid JSON body: %v", err)
			}
			if status.Status != tt.wantBody {
				t.Errorf("status = %q, want %q", status.Status, tt.wantBody)
			}
		})
	}
}
