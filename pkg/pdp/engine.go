package pdp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/xacmlcore/pkg/telemetry/logging"
	"mercator-hq/xacmlcore/pkg/telemetry/metrics"
	"mercator-hq/xacmlcore/pkg/telemetry/tracing"
	xerrors "mercator-hq/xacmlcore/pkg/xacml/errors"
	"mercator-hq/xacmlcore/pkg/xacml/expr"
	"mercator-hq/xacmlcore/pkg/xacml/parser"
	"mercator-hq/xacmlcore/pkg/xacml/value"
)

// RuleSource provides rule sets to the engine.
type RuleSource interface {
	// Load loads all rule sets from the source.
	Load(ctx context.Context) ([]*RuleSet, error)

	// Watch reports source changes on the returned channel. The channel is
	// closed when ctx is cancelled.
	Watch(ctx context.Context) (<-chan SourceEvent, error)

	// String names the source in logs and errors.
	String() string
}

// SourceEvent reports a change in a rule source.
type SourceEvent struct {
	// Type is the event type.
	Type SourceEventType

	// Path is the file that changed, if any.
	Path string

	// Error is set when watching failed.
	Error error
}

// SourceEventType is the kind of a SourceEvent.
type SourceEventType string

const (
	SourceEventCreated  SourceEventType = "created"
	SourceEventModified SourceEventType = "modified"
	SourceEventDeleted  SourceEventType = "deleted"
	SourceEventError    SourceEventType = "error"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics records evaluation metrics.
func WithMetrics(m *metrics.EvaluationMetrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithTracer creates a span per request. Default: no spans.
func WithTracer(t *tracing.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithAttributeProvider sets the provider consulted for attributes a
// request does not carry.
func WithAttributeProvider(p expr.AttributeProvider) Option {
	return func(e *Engine) {
		e.provider = p
	}
}

// Engine evaluates decision requests against the rules of its loaded rule
// sets. It is safe for concurrent use; reloads swap the rule sets
// atomically and never disturb requests in flight.
type Engine struct {
	// ruleSets contains all loaded rule sets
	ruleSets []*RuleSet

	// mu protects ruleSets
	mu sync.RWMutex

	config   *EngineConfig
	source   RuleSource
	provider expr.AttributeProvider

	logger  *slog.Logger
	metrics *metrics.EvaluationMetrics
	tracer  *tracing.Tracer

	// lastErr is the error of the most recent reload, nil after a success
	lastErr error

	// cancel stops the watcher goroutine
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
	closed    bool
}

// NewEngine creates an engine and loads the initial rule sets. With
// config.Watch set, it reloads whenever source reports a change until Close
// is called.
func NewEngine(config *EngineConfig, source RuleSource, opts ...Option) (*Engine, error) {
	if config == nil {
		config = DefaultEngineConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if source == nil {
		return nil, fmt.Errorf("rule source cannot be nil")
	}

	e := &Engine{
		config: config,
		source: source,
		logger: slog.Default(),
		tracer: tracing.Noop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.Reload(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to load initial rule sets: %w", err)
	}

	if config.Watch {
		if err := e.startWatching(); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Evaluate evaluates every enabled rule of every loaded rule set against
// req. Rules whose conditions fail yield Indeterminate decisions; Evaluate
// itself fails only for a malformed request, a closed engine or an expired
// deadline.
func (e *Engine) Evaluate(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}
	start := time.Now()

	requestID := req.ID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx = logging.WithRequestID(ctx, requestID)

	ctx, span := e.tracer.Start(ctx, "pdp.Evaluate",
		trace.WithAttributes(attribute.String(tracing.AttrRequestID, requestID)))
	defer span.End()

	resp, err := e.evaluate(ctx, req, requestID)
	elapsed := time.Since(start)
	tracing.SetStatus(span, err)
	if err != nil {
		tracing.SetError(span, err)
		e.metrics.RecordRequest("error", elapsed)
		e.logger.WarnContext(ctx, "request evaluation failed",
			"error", err,
			"trace_id", tracing.TraceID(ctx),
		)
		return nil, err
	}

	resp.EvaluationTime = elapsed
	if resp.Trace != nil {
		resp.Trace.TotalTime = elapsed
	}
	e.metrics.RecordRequest("ok", elapsed)
	tracing.SetDecisionAttributes(span, tracing.DecisionCounts{
		Permit:        resp.Count(DecisionPermit),
		Deny:          resp.Count(DecisionDeny),
		NotApplicable: resp.Count(DecisionNotApplicable),
		Indeterminate: resp.Count(DecisionIndeterminate),
	})
	e.logger.DebugContext(ctx, "request evaluated",
		"rules", len(resp.Decisions),
		"duration", elapsed,
	)
	return resp, nil
}

func (e *Engine) evaluate(ctx context.Context, req *Request, requestID string) (*Response, error) {
	e.mu.RLock()
	ruleSets, closed := e.ruleSets, e.closed
	e.mu.RUnlock()
	if closed {
		return nil, ErrEngineClosed
	}

	if e.config.EvaluationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.EvaluationTimeout)
		defer cancel()
	}

	named := *req
	named.ID = requestID
	rc, err := named.NewRequestContext(ctx,
		expr.WithProvider(e.provider),
		expr.WithLogger(e.logger),
	)
	if err != nil {
		return nil, err
	}

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.Int(tracing.AttrRuleSets, len(ruleSets)))

	resp := &Response{RequestID: requestID}
	if e.config.EnableTrace {
		resp.Trace = &EvaluationTrace{}
	}

	for _, rs := range ruleSets {
		setStart := time.Now()
		scope := expr.WithVariableScope(rc, rs.Name)
		resp.Trace.addStep("rule_set_start", rs.Name, "", fmt.Sprintf("evaluating rule set %q", rs.Name), 0)

		for _, rule := range rs.EnabledRules() {
			if err := ctx.Err(); err != nil {
				return nil, &TimeoutError{
					RequestID: requestID,
					RuleSet:   rs.Name,
					RuleID:    rule.ID,
					Timeout:   e.config.EvaluationTimeout,
					Cause:     err,
				}
			}

			d := evaluateRule(scope, rule)
			d.RuleSet = rs.Name
			resp.Decisions = append(resp.Decisions, d)

			var status string
			if d.Status != nil {
				status = d.Status.Code.Short()
			}
			e.metrics.RecordRuleDecision(rs.Name, string(d.Decision), status)
			resp.Trace.addStep("rule_eval", rs.Name, rule.ID, fmt.Sprintf("decision %s", d.Decision), d.EvaluationTime)
			if d.Decision == DecisionIndeterminate {
				e.logger.DebugContext(logging.WithRuleSet(ctx, rs.Name), "rule indeterminate",
					"rule_id", rule.ID,
					"status", status,
					"message", d.Status.Message,
				)
			}
		}

		resp.Trace.addStep("rule_set_end", rs.Name, "", fmt.Sprintf("completed rule set %q", rs.Name), time.Since(setStart))
	}

	stats := rc.Stats()
	e.metrics.RecordAttributeResolutions(stats.Hits, stats.Misses)
	tracing.SetCacheAttributes(span, stats.Hits, stats.Misses)
	return resp, nil
}

// evaluateRule evaluates one rule. A rule without a condition applies
// unconditionally.
func evaluateRule(ctx expr.Context, rule *parser.Rule) *RuleDecision {
	start := time.Now()
	d := &RuleDecision{RuleID: rule.ID}

	applies := true
	if rule.Condition != nil {
		v, err := rule.Condition.Evaluate(ctx)
		if err == nil {
			var b value.Boolean
			b, err = value.As[value.Boolean](v)
			applies = bool(b)
		}
		if err != nil {
			ind := xerrors.AsIndeterminate(err)
			d.Decision = DecisionIndeterminate
			d.Status = &Status{Code: ind.Code, Message: ind.Error()}
			if chain := xerrors.Chain(err); len(chain) > 0 {
				d.Status.Origin = chain[len(chain)-1].Message
			}
			d.EvaluationTime = time.Since(start)
			return d
		}
	}

	switch {
	case !applies:
		d.Decision = DecisionNotApplicable
	case rule.Effect == parser.EffectDeny:
		d.Decision = DecisionDeny
	default:
		d.Decision = DecisionPermit
	}
	d.EvaluationTime = time.Since(start)
	return d
}

// Reload loads the rule sets from the source and swaps them in. On failure
// the current rule sets stay loaded.
func (e *Engine) Reload(ctx context.Context) error {
	ruleSets, err := e.source.Load(ctx)
	if err == nil {
		err = e.validate(ruleSets)
	}
	if err != nil {
		e.metrics.RecordReload(err, 0)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			err = &ReloadError{Source: e.source.String(), Cause: err}
		}
		e.mu.Lock()
		e.lastErr = err
		e.mu.Unlock()
		return err
	}

	totalRules := 0
	for _, rs := range ruleSets {
		totalRules += len(rs.Rules)
	}

	e.mu.Lock()
	e.ruleSets = ruleSets
	e.lastErr = nil
	e.mu.Unlock()

	e.metrics.RecordReload(nil, len(ruleSets))
	e.logger.Info("rule sets loaded",
		"source", e.source.String(),
		"rule_set_count", len(ruleSets),
		"rule_count", totalRules,
	)
	return nil
}

// validate checks loaded rule sets against the engine limits.
func (e *Engine) validate(ruleSets []*RuleSet) error {
	if len(ruleSets) > e.config.MaxRuleSets {
		return &ValidationError{
			RuleSet: "*",
			Errors:  []string{fmt.Sprintf("too many rule sets: %d (max: %d)", len(ruleSets), e.config.MaxRuleSets)},
		}
	}

	seen := make(map[string]string, len(ruleSets))
	for _, rs := range ruleSets {
		if len(rs.Rules) > e.config.MaxRulesPerSet {
			return &ValidationError{
				RuleSet: rs.Name,
				Errors:  []string{fmt.Sprintf("too many rules: %d (max: %d)", len(rs.Rules), e.config.MaxRulesPerSet)},
			}
		}
		if prev, ok := seen[rs.Name]; ok {
			return &ValidationError{
				RuleSet: rs.Name,
				Errors:  []string{fmt.Sprintf("duplicate rule set name (sources %q and %q)", prev, rs.Source)},
			}
		}
		seen[rs.Name] = rs.Source
	}
	return nil
}

// RuleSets returns the loaded rule sets.
func (e *Engine) RuleSets() []*RuleSet {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*RuleSet, len(e.ruleSets))
	copy(out, e.ruleSets)
	return out
}

// Ready reports whether the engine is open and its most recent reload
// succeeded.
func (e *Engine) Ready(ctx context.Context) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return ErrEngineClosed
	}
	return e.lastErr
}

// startWatching reloads on every source event until Close.
func (e *Engine) startWatching() error {
	ctx, cancel := context.WithCancel(context.Background())
	events, err := e.source.Watch(ctx)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to watch %s: %w", e.source.String(), err)
	}
	e.cancel = cancel

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for event := range events {
			e.handleSourceEvent(ctx, event)
		}
	}()
	return nil
}

// handleSourceEvent reloads after a source change.
func (e *Engine) handleSourceEvent(ctx context.Context, event SourceEvent) {
	if event.Error != nil {
		e.logger.Error("rule source watch error", "error", event.Error)
		return
	}

	e.logger.Info("rule source changed",
		"type", event.Type,
		"path", event.Path,
	)
	if err := e.Reload(ctx); err != nil {
		e.logger.Error("failed to reload rule sets after change",
			"error", err,
			"path", event.Path,
		)
	}
}

// Close stops watching and rejects further requests.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		if e.cancel != nil {
			e.cancel()
		}
		e.wg.Wait()

		e.mu.Lock()
		e.closed = true
		e.mu.Unlock()
	})
	return nil
}
