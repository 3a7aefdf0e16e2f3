package pdp_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/goleak"

	"mercator-hq/xacmlcore/pkg/config"
	"mercator-hq/xacmlcore/pkg/pdp"
	"mercator-hq/xacmlcore/pkg/pdp/source"
	"mercator-hq/xacmlcore/pkg/telemetry/logging"
	"mercator-hq/xacmlcore/pkg/telemetry/metrics"
	"mercator-hq/xacmlcore/pkg/telemetry/tracing"
	xerrors "mercator-hq/xacmlcore/pkg/xacml/errors"
	"mercator-hq/xacmlcore/pkg/xacml/expr"
	"mercator-hq/xacmlcore/pkg/xacml/function"
	"mercator-hq/xacmlcore/pkg/xacml/parser"
	"mercator-hq/xacmlcore/pkg/xacml/value"
)

const recordsDoc = `
name: medical-records
variables:
  is-doctor:
    apply: string-is-in
    args:
      - doctor
      - designator: {category: access-subject, id: role, must_be_present: true}
  action:
    apply: string-one-and-only
    args:
      - designator: {category: action, id: action-id}
rules:
  - id: doctors-read
    effect: Permit
    condition:
      - variable: is-doctor
      - apply: string-equal
        args: [read, {variable: action}]
  - id: no-deletes
    effect: Deny
    condition:
      apply: string-equal
      args: [delete, {variable: action}]
  - id: audit-everything
    effect: Permit
    enabled: false
`

const arithmeticDoc = `
name: arithmetic
rules:
  - id: always
    effect: Permit
  - id: divide-by-zero
    effect: Deny
    condition:
      apply: integer-equal
      args: [1, {apply: integer-divide, args: [1, 0]}]
`

func newTestParser(t testing.TB) *parser.Parser {
	t.Helper()
	reg, err := function.NewStandardRegistry()
	if err != nil {
		t.Fatalf("NewStandardRegistry() failed: %v", err)
	}
	return parser.NewParser(reg)
}

func parseRuleSet(t testing.TB, doc string) *pdp.RuleSet {
	t.Helper()
	rs, err := newTestParser(t).ParseBytes([]byte(doc), "test.yaml")
	if err != nil {
		t.Fatalf("ParseBytes() failed: %v", err)
	}
	return rs
}

func newTestEngine(t testing.TB, cfg *pdp.EngineConfig, opts ...pdp.Option) *pdp.Engine {
	t.Helper()
	src := source.NewMemorySource(parseRuleSet(t, recordsDoc), parseRuleSet(t, arithmeticDoc))
	opts = append([]pdp.Option{pdp.WithLogger(logging.Discard())}, opts...)
	engine, err := pdp.NewEngine(cfg, src, opts...)
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}
	t.Cleanup(func() { engine.Close() })
	return engine
}

func recordsRequest(role, action string) *pdp.Request {
	req := &pdp.Request{ID: "req-1"}
	if role != "" {
		req.Attributes = append(req.Attributes, pdp.Attribute{Category: "access-subject", ID: "role", Values: []string{role}})
	}
	if action != "" {
		req.Attributes = append(req.Attributes, pdp.Attribute{Category: "action", ID: "action-id", Values: []string{action}})
	}
	return req
}

func TestEngine_Evaluate_Decisions(t *testing.T) {
	engine := newTestEngine(t, nil)

	tests := []struct {
		name       string
		req        *pdp.Request
		read       pdp.Decision
		deletes    pdp.Decision
		readStatus xerrors.StatusCode
	}{
		{
			name:    "doctor reads",
			req:     recordsRequest("doctor", "read"),
			read:    pdp.DecisionPermit,
			deletes: pdp.DecisionNotApplicable,
		},
		{
			name:    "doctor deletes",
			req:     recordsRequest("doctor", "delete"),
			read:    pdp.DecisionNotApplicable,
			deletes: pdp.DecisionDeny,
		},
		{
			name:    "nurse reads",
			req:     recordsRequest("nurse", "read"),
			read:    pdp.DecisionNotApplicable,
			deletes: pdp.DecisionNotApplicable,
		},
		{
			name:       "role missing",
			req:        recordsRequest("", "read"),
			read:       pdp.DecisionIndeterminate,
			deletes:    pdp.DecisionNotApplicable,
			readStatus: xerrors.StatusMissingAttribute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := engine.Evaluate(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("Evaluate() failed: %v", err)
			}
			if resp.RequestID != "req-1" {
				t.Errorf("RequestID = %q, want req-1", resp.RequestID)
			}

			read := resp.Decision("medical-records", "doctors-read")
			if read == nil {
				t.Fatal("no decision for doctors-read")
			}
			if read.Decision != tt.read {
				t.Errorf("doctors-read = %s, want %s", read.Decision, tt.read)
			}
			if tt.readStatus != "" {
				if read.Status == nil || read.Status.Code != tt.readStatus {
					t.Errorf("doctors-read status = %+v, want %s", read.Status, tt.readStatus)
				}
			} else if read.Status != nil {
				t.Errorf("doctors-read status = %+v, want none", read.Status)
			}

			deletes := resp.Decision("medical-records", "no-deletes")
			if deletes == nil || deletes.Decision != tt.deletes {
				t.Errorf("no-deletes = %+v, want %s", deletes, tt.deletes)
			}

			if resp.Decision("medical-records", "audit-everything") != nil {
				t.Error("disabled rule was evaluated")
			}
		})
	}
}

func TestEngine_Evaluate_ProcessingError(t *testing.T) {
	engine := newTestEngine(t, nil)

	resp, err := engine.Evaluate(context.Background(), recordsRequest("doctor", "read"))
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}

	if d := resp.Decision("arithmetic", "always"); d == nil || d.Decision != pdp.DecisionPermit {
		t.Errorf("always = %+v, want Permit", d)
	}
	d := resp.Decision("arithmetic", "divide-by-zero")
	if d == nil || d.Decision != pdp.DecisionIndeterminate {
		t.Fatalf("divide-by-zero = %+v, want Indeterminate", d)
	}
	if d.Status == nil || d.Status.Code != xerrors.StatusProcessingError {
		t.Fatalf("status = %+v, want processing-error", d.Status)
	}
	if d.Status.Origin != "division by zero" {
		t.Errorf("status origin = %q, want %q", d.Status.Origin, "division by zero")
	}

	if got := len(resp.Decisions); got != 4 {
		t.Errorf("len(Decisions) = %d, want 4", got)
	}
	if got := resp.Count(pdp.DecisionIndeterminate); got != 1 {
		t.Errorf("Count(Indeterminate) = %d, want 1", got)
	}
}

func TestEngine_Evaluate_DecisionOrder(t *testing.T) {
	engine := newTestEngine(t, nil)

	resp, err := engine.Evaluate(context.Background(), recordsRequest("doctor", "read"))
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}

	want := []string{
		"medical-records/doctors-read",
		"medical-records/no-deletes",
		"arithmetic/always",
		"arithmetic/divide-by-zero",
	}
	if len(resp.Decisions) != len(want) {
		t.Fatalf("len(Decisions) = %d, want %d", len(resp.Decisions), len(want))
	}
	for i, d := range resp.Decisions {
		if got := d.RuleSet + "/" + d.RuleID; got != want[i] {
			t.Errorf("Decisions[%d] = %s, want %s", i, got, want[i])
		}
	}
}

func TestEngine_Evaluate_GeneratesRequestID(t *testing.T) {
	engine := newTestEngine(t, nil)

	req := recordsRequest("doctor", "read")
	req.ID = ""
	resp, err := engine.Evaluate(context.Background(), req)
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	if resp.RequestID == "" {
		t.Error("expected a generated request ID")
	}
	if req.ID != "" {
		t.Error("Evaluate() modified the request")
	}
}

func TestEngine_Evaluate_RequestErrors(t *testing.T) {
	engine := newTestEngine(t, nil)

	tests := []struct {
		name string
		attr pdp.Attribute
	}{
		{name: "no category", attr: pdp.Attribute{ID: "role", Values: []string{"doctor"}}},
		{name: "no id", attr: pdp.Attribute{Category: "resource", Values: []string{"x"}}},
		{name: "unknown datatype", attr: pdp.Attribute{Category: "resource", ID: "size", Datatype: "decimal", Values: []string{"1"}}},
		{name: "bag datatype", attr: pdp.Attribute{Category: "resource", ID: "size", Datatype: "bag(integer)", Values: []string{"1"}}},
		{name: "invalid lexical value", attr: pdp.Attribute{Category: "resource", ID: "size", Datatype: "integer", Values: []string{"ten"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := recordsRequest("doctor", "read")
			req.Attributes = append(req.Attributes, tt.attr)

			_, err := engine.Evaluate(context.Background(), req)
			var reqErr *pdp.RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("Evaluate() error = %v, want *pdp.RequestError", err)
			}
			if reqErr.Attribute != 2 {
				t.Errorf("Attribute = %d, want 2", reqErr.Attribute)
			}
			if code := xerrors.CodeOf(err); code != xerrors.StatusSyntaxError {
				t.Errorf("CodeOf() = %s, want syntax-error", code)
			}
		})
	}

	if _, err := engine.Evaluate(context.Background(), nil); !errors.Is(err, pdp.ErrNilRequest) {
		t.Errorf("Evaluate(nil) error = %v, want ErrNilRequest", err)
	}
}

func TestEngine_Evaluate_AttributeProvider(t *testing.T) {
	var calls int
	provider := expr.AttributeProviderFunc(func(ctx context.Context, attr expr.AttributeFQN, dt *value.Datatype) (*value.Bag, error) {
		calls++
		if attr.ID == "role" {
			return value.MustBag(value.StringType, value.String("doctor")), nil
		}
		return nil, nil
	})
	engine := newTestEngine(t, nil, pdp.WithAttributeProvider(provider))

	resp, err := engine.Evaluate(context.Background(), recordsRequest("", "read"))
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	if d := resp.Decision("medical-records", "doctors-read"); d == nil || d.Decision != pdp.DecisionPermit {
		t.Errorf("doctors-read = %+v, want Permit", d)
	}
	if calls != 1 {
		t.Errorf("provider calls = %d, want 1", calls)
	}
}

func TestEngine_Evaluate_Trace(t *testing.T) {
	engine := newTestEngine(t, pdp.DefaultEngineConfig().WithTrace(true))

	resp, err := engine.Evaluate(context.Background(), recordsRequest("doctor", "read"))
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	if resp.Trace == nil {
		t.Fatal("expected a trace")
	}

	var types []string
	for _, step := range resp.Trace.Steps {
		types = append(types, step.Type)
	}
	want := "rule_set_start rule_eval rule_eval rule_set_end rule_set_start rule_eval rule_eval rule_set_end"
	if got := strings.Join(types, " "); got != want {
		t.Errorf("trace steps = %q, want %q", got, want)
	}
	if resp.Trace.TotalTime != resp.EvaluationTime {
		t.Errorf("TotalTime = %v, want %v", resp.Trace.TotalTime, resp.EvaluationTime)
	}

	plain := newTestEngine(t, nil)
	resp, err = plain.Evaluate(context.Background(), recordsRequest("doctor", "read"))
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	if resp.Trace != nil {
		t.Error("trace recorded with tracing disabled")
	}
}

func TestEngine_Evaluate_Cancelled(t *testing.T) {
	engine := newTestEngine(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Evaluate(ctx, recordsRequest("doctor", "read"))
	var timeoutErr *pdp.TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("Evaluate() error = %v, want *pdp.TimeoutError", err)
	}
	if timeoutErr.RuleSet != "medical-records" || timeoutErr.RuleID != "doctors-read" {
		t.Errorf("stopped at %s/%s, want medical-records/doctors-read", timeoutErr.RuleSet, timeoutErr.RuleID)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("errors.Is(err, context.Canceled) = false for %v", err)
	}
}

func TestEngine_Evaluate_Concurrent(t *testing.T) {
	engine := newTestEngine(t, nil)

	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		go func() {
			resp, err := engine.Evaluate(context.Background(), recordsRequest("doctor", "read"))
			if err == nil && resp.Decision("medical-records", "doctors-read").Decision != pdp.DecisionPermit {
				err = errors.New("unexpected decision")
			}
			errs <- err
		}()
	}
	for i := 0; i < 16; i++ {
		if err := <-errs; err != nil {
			t.Errorf("Evaluate() failed: %v", err)
		}
	}
}

func TestNewEngine_Errors(t *testing.T) {
	rs := parseRuleSet(t, recordsDoc)
	twin := parseRuleSet(t, recordsDoc)

	tests := []struct {
		name    string
		cfg     *pdp.EngineConfig
		source  pdp.RuleSource
		wantErr error
		wantVal bool
	}{
		{name: "invalid config", cfg: &pdp.EngineConfig{}, source: source.NewMemorySource(), wantErr: pdp.ErrInvalidConfig},
		{name: "nil source", cfg: pdp.DefaultEngineConfig()},
		{name: "too many rule sets", cfg: pdp.DefaultEngineConfig().WithMaxRuleSets(1), source: source.NewMemorySource(rs, parseRuleSet(t, arithmeticDoc)), wantVal: true},
		{name: "too many rules", cfg: pdp.DefaultEngineConfig().WithMaxRulesPerSet(2), source: source.NewMemorySource(rs), wantVal: true},
		{name: "duplicate names", cfg: pdp.DefaultEngineConfig(), source: source.NewMemorySource(rs, twin), wantVal: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := pdp.NewEngine(tt.cfg, tt.source, pdp.WithLogger(logging.Discard()))
			if err == nil {
				engine.Close()
				t.Fatal("NewEngine() expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			var verr *pdp.ValidationError
			if got := errors.As(err, &verr); got != tt.wantVal {
				t.Errorf("ValidationError = %v, want %v (%v)", got, tt.wantVal, err)
			}
		})
	}
}

type failingSource struct {
	*source.MemorySource
	fail bool
}

func (s *failingSource) Load(ctx context.Context) ([]*pdp.RuleSet, error) {
	if s.fail {
		return nil, errors.New("source unavailable")
	}
	return s.MemorySource.Load(ctx)
}

func TestEngine_Reload_KeepsRuleSetsOnFailure(t *testing.T) {
	src := &failingSource{MemorySource: source.NewMemorySource(parseRuleSet(t, recordsDoc))}
	engine, err := pdp.NewEngine(nil, src, pdp.WithLogger(logging.Discard()))
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}
	defer engine.Close()

	src.fail = true
	err = engine.Reload(context.Background())
	var reloadErr *pdp.ReloadError
	if !errors.As(err, &reloadErr) {
		t.Fatalf("Reload() error = %v, want *pdp.ReloadError", err)
	}
	if reloadErr.Source != "memory" {
		t.Errorf("Source = %q, want memory", reloadErr.Source)
	}

	if got := engine.RuleSets(); len(got) != 1 || got[0].Name != "medical-records" {
		t.Errorf("RuleSets() after failed reload = %v", got)
	}
	if err := engine.Ready(context.Background()); !errors.As(err, &reloadErr) {
		t.Errorf("Ready() after failed reload = %v, want *pdp.ReloadError", err)
	}

	src.fail = false
	src.Set(parseRuleSet(t, arithmeticDoc))
	if err := engine.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() failed: %v", err)
	}
	if got := engine.RuleSets(); len(got) != 1 || got[0].Name != "arithmetic" {
		t.Errorf("RuleSets() after reload = %v", got)
	}
	if err := engine.Ready(context.Background()); err != nil {
		t.Errorf("Ready() after reload = %v, want nil", err)
	}
}

func TestEngine_Watch_Reloads(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := source.NewMemorySource(parseRuleSet(t, recordsDoc))
	engine, err := pdp.NewEngine(pdp.DefaultEngineConfig().WithWatch(true), src, pdp.WithLogger(logging.Discard()))
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}

	src.Set(parseRuleSet(t, arithmeticDoc))

	deadline := time.Now().Add(5 * time.Second)
	for {
		got := engine.RuleSets()
		if len(got) == 1 && got[0].Name == "arithmetic" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("rule sets not reloaded: %v", got)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := engine.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
}

func TestEngine_Close(t *testing.T) {
	engine := newTestEngine(t, nil)

	if err := engine.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := engine.Close(); err != nil {
		t.Fatalf("second Close() failed: %v", err)
	}
	if _, err := engine.Evaluate(context.Background(), recordsRequest("doctor", "read")); !errors.Is(err, pdp.ErrEngineClosed) {
		t.Errorf("Evaluate() after Close error = %v, want ErrEngineClosed", err)
	}
	if err := engine.Ready(context.Background()); !errors.Is(err, pdp.ErrEngineClosed) {
		t.Errorf("Ready() after Close = %v, want ErrEngineClosed", err)
	}
}

func TestEngine_Metrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true, Namespace: "test", Subsystem: "pdp"}, registry)

	src := source.NewMemorySource(parseRuleSet(t, recordsDoc))
	engine, err := pdp.NewEngine(nil, src,
		pdp.WithLogger(logging.Discard()),
		pdp.WithMetrics(collector.Evaluation()),
	)
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}
	defer engine.Close()

	if _, err := engine.Evaluate(context.Background(), recordsRequest("doctor", "read")); err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	if _, err := engine.Evaluate(context.Background(), nil); err == nil {
		t.Fatal("Evaluate(nil) expected error")
	}

	want := `
# HELP test_pdp_rule_decisions_total Total number of rule decisions
# TYPE test_pdp_rule_decisions_total counter
test_pdp_rule_decisions_total{decision="NotApplicable",rule_set="medical-records",status="ok"} 1
test_pdp_rule_decisions_total{decision="Permit",rule_set="medical-records",status="ok"} 1
# HELP test_pdp_rule_sets_loaded Number of rule sets currently loaded
# TYPE test_pdp_rule_sets_loaded gauge
test_pdp_rule_sets_loaded 1
`
	if err := testutil.GatherAndCompare(registry, strings.NewReader(want),
		"test_pdp_rule_decisions_total", "test_pdp_rule_sets_loaded"); err != nil {
		t.Errorf("unexpected metrics:\n%v", err)
	}

	count, err := testutil.GatherAndCount(registry, "test_pdp_attribute_resolutions_total")
	if err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	}
	if count == 0 {
		t.Error("expected attribute resolution metrics")
	}
}

func TestEngine_Tracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := tracing.NewWithExporter(&config.TracingConfig{Sampler: tracing.SamplerAlways}, exporter)
	if err != nil {
		t.Fatalf("NewWithExporter() error = %v", err)
	}
	defer tracer.Shutdown(context.Background())

	engine := newTestEngine(t, nil, pdp.WithTracer(tracer))
	if _, err := engine.Evaluate(context.Background(), recordsRequest("doctor", "read")); err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	if err := tracer.ForceFlush(context.Background()); err != nil {
		t.Fatalf("ForceFlush() error = %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range spans[0].Attributes {
		attrs[kv.Key] = kv.Value
	}
	if got := attrs[attribute.Key(tracing.AttrRequestID)].AsString(); got != "req-1" {
		t.Errorf("request id attribute = %q, want req-1", got)
	}
	checks := map[string]int64{
		tracing.AttrRuleSets:      2,
		tracing.AttrRules:         4,
		tracing.AttrPermit:        2,
		tracing.AttrNotApplicable: 1,
		tracing.AttrIndeterminate: 1,
	}
	for key, want := range checks {
		if v, ok := attrs[attribute.Key(key)]; !ok || v.AsInt64() != want {
			t.Errorf("attribute %s = %v, want %d", key, v.AsInt64(), want)
		}
	}
}
