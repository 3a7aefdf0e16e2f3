package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mercator-hq/xacmlcore/pkg/config"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:         true,
		Namespace:       "test",
		Subsystem:       "pdp",
		DurationBuckets: []float64{0.1, 0.3, 1},
	}
}

func TestNewCollector_Defaults(t *testing.T) {
	collector := NewCollector(&config.MetricsConfig{Enabled: true}, nil)

	if collector.Registry() == nil {
		t.Fatal("expected a registry")
	}
	collector.Evaluation().RecordRequest("ok", time.Millisecond)

	count, err := testutil.GatherAndCount(collector.Registry(), "xacmlcore_pdp_requests_total")
	if err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 series, got %d", count)
	}
}

func TestEvaluationMetrics_RecordRequest(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewEvaluationMetrics(testConfig(), registry)

	m.RecordRequest("ok", 250*time.Millisecond)
	m.RecordRequest("ok", 500*time.Millisecond)
	m.RecordRequest("error", 2*time.Second)

	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("ok")); got != 2 {
		t.Errorf("ok requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("error requests = %v, want 1", got)
	}

	want := `
# HELP test_pdp_request_duration_seconds Duration of decision request evaluation in seconds
# TYPE test_pdp_request_duration_seconds histogram
test_pdp_request_duration_seconds_bucket{le="0.1"} 0
test_pdp_request_duration_seconds_bucket{le="0.3"} 1
test_pdp_request_duration_seconds_bucket{le="1"} 2
test_pdp_request_duration_seconds_bucket{le="+Inf"} 3
test_pdp_request_duration_seconds_sum 2.75
test_pdp_request_duration_seconds_count 3
`
	if err := testutil.GatherAndCompare(registry, strings.NewReader(want), "test_pdp_request_duration_seconds"); err != nil {
		t.Errorf("unexpected histogram: %v", err)
	}
}

func TestEvaluationMetrics_RecordRuleDecision(t *testing.T) {
	m := NewEvaluationMetrics(testConfig(), prometheus.NewRegistry())

	tests := []struct {
		decision string
		status   string
		label    string
	}{
		{"Permit", "", "ok"},
		{"NotApplicable", "", "ok"},
		{"Indeterminate", "missing-attribute", "missing-attribute"},
	}
	for _, tt := range tests {
		t.Run(tt.decision, func(t *testing.T) {
			m.RecordRuleDecision("records", tt.decision, tt.status)
			if got := testutil.ToFloat64(m.ruleDecisionsTotal.WithLabelValues("records", tt.decision, tt.label)); got != 1 {
				t.Errorf("counter = %v, want 1", got)
			}
		})
	}
}

func TestEvaluationMetrics_AttributeResolutions(t *testing.T) {
	m := NewEvaluationMetrics(testConfig(), prometheus.NewRegistry())

	m.RecordAttributeResolutions(3, 2)
	m.RecordAttributeResolutions(0, 1)

	if got := testutil.ToFloat64(m.attributeResolution.WithLabelValues("hit")); got != 3 {
		t.Errorf("hits = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.attributeResolution.WithLabelValues("miss")); got != 3 {
		t.Errorf("misses = %v, want 3", got)
	}
}

func TestEvaluationMetrics_RecordReload(t *testing.T) {
	m := NewEvaluationMetrics(testConfig(), prometheus.NewRegistry())

	m.RecordReload(nil, 4)
	m.RecordReload(errors.New("boom"), 0)

	if got := testutil.ToFloat64(m.reloadsTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("successful reloads = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.reloadsTotal.WithLabelValues("failure")); got != 1 {
		t.Errorf("failed reloads = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ruleSetsLoaded); got != 4 {
		t.Errorf("rule sets loaded = %v, want 4 after failed reload", got)
	}
}

func TestEvaluationMetrics_NilIsNoop(t *testing.T) {
	var m *EvaluationMetrics
	m.RecordRequest("ok", time.Millisecond)
	m.RecordRuleDecision("records", "Permit", "")
	m.RecordAttributeResolutions(1, 1)
	m.RecordReload(nil, 1)
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.Evaluation().RecordRuleDecision("records", "Deny", "")

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `test_pdp_rule_decisions_total{decision="Deny",rule_set="records",status="ok"} 1`) {
		t.Errorf("metric missing from exposition:\n%s", body)
	}
}
