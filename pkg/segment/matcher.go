package segment

import (
	"fmt"
	"strings"
	"time"

	profiles "github.com/goliatone/go-profiles"
)

// Engine names accepted by WithEngine.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

// MatcherOption configures a Matcher.
type MatcherOption func(*matcherConfig)

type matcherConfig struct {
	engine    string
	evaluator Evaluator
	cache     ProgramCache
	functions *FunctionRegistry
	logger    EvaluatorLogger
	now       func() time.Time
}

// WithEngine selects the evaluator engine by name. Defaults to expr.
func WithEngine(name string) MatcherOption {
	return func(cfg *matcherConfig) {
		cfg.engine = strings.ToLower(strings.TrimSpace(name))
	}
}

// WithEvaluator uses evaluator instead of building one from the engine name.
func WithEvaluator(evaluator Evaluator) MatcherOption {
	return func(cfg *matcherConfig) {
		cfg.evaluator = evaluator
	}
}

// WithProgramCache shares compiled programs across evaluations.
func WithProgramCache(cache ProgramCache) MatcherOption {
	return func(cfg *matcherConfig) {
		cfg.cache = cache
	}
}

// WithFunctions exposes registry functions to rules. The builtins are used
// when none is given.
func WithFunctions(registry *FunctionRegistry) MatcherOption {
	return func(cfg *matcherConfig) {
		cfg.functions = registry
	}
}

// WithEvaluatorLogger records every evaluation.
func WithEvaluatorLogger(logger EvaluatorLogger) MatcherOption {
	return func(cfg *matcherConfig) {
		cfg.logger = logger
	}
}

// WithClock sets the time rules see as now.
func WithClock(now func() time.Time) MatcherOption {
	return func(cfg *matcherConfig) {
		if now != nil {
			cfg.now = now
		}
	}
}

// Matcher decides locally whether a profile satisfies a rule.
type Matcher struct {
	engine    string
	evaluator Evaluator
	logger    EvaluatorLogger
	now       func() time.Time
}

// NewMatcher builds a Matcher for the configured engine.
func NewMatcher(opts ...MatcherOption) (*Matcher, error) {
	cfg := matcherConfig{
		engine: EngineExpr,
		logger: noopEvaluatorLogger{},
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = noopEvaluatorLogger{}
	}
	if cfg.functions == nil {
		cfg.functions = BuiltinFunctions(cfg.now)
	}

	evaluator := cfg.evaluator
	if evaluator == nil {
		var err error
		evaluator, err = newEvaluator(cfg)
		if err != nil {
			return nil, err
		}
	}
	return &Matcher{
		engine:    cfg.engine,
		evaluator: evaluator,
		logger:    cfg.logger,
		now:       cfg.now,
	}, nil
}

func newEvaluator(cfg matcherConfig) (Evaluator, error) {
	opts := []EvaluatorOption{UseProgramCache(cfg.cache), UseFunctions(cfg.functions)}
	switch cfg.engine {
	case EngineExpr, "":
		return NewExprEvaluator(opts...), nil
	case EngineCEL:
		return NewCELEvaluator(opts...), nil
	case EngineJS:
		if !JSEvaluatorAvailable() {
			return nil, fmt.Errorf("segment: js engine requires the js_eval build tag")
		}
		return NewJSEvaluator(opts...), nil
	}
	return nil, fmt.Errorf("segment: unknown engine %q", cfg.engine)
}

// Engine returns the configured engine name.
func (m *Matcher) Engine() string {
	return m.engine
}

// Evaluate runs expression against the profile snapshot and returns the raw
// result.
func (m *Matcher) Evaluate(profile *profiles.Profile, expression string, args map[string]any) (any, error) {
	now := m.now()
	ctx := RuleContext{
		Snapshot: Snapshot(profile),
		Now:      &now,
		Args:     args,
	}
	if profile != nil {
		ctx.ProfileID = profile.ID()
	}
	return m.evaluator.Evaluate(ctx, expression)
}

// Match reports whether profile satisfies expression. Rules must produce a
// boolean.
func (m *Matcher) Match(profile *profiles.Profile, expression string) (bool, error) {
	start := time.Now()
	matched, err := m.match(profile, expression)
	event := EvaluatorLogEvent{
		Engine:   m.engine,
		Expr:     expression,
		Duration: time.Since(start),
		Matched:  matched,
		Err:      err,
	}
	if profile != nil {
		event.Profile = profile.ID()
	}
	m.logger.LogEvaluation(event)
	return matched, err
}

func (m *Matcher) match(profile *profiles.Profile, expression string) (bool, error) {
	result, err := m.Evaluate(profile, expression, nil)
	if err != nil {
		return false, err
	}
	matched, ok := result.(bool)
	if !ok {
		return false, wrapEvaluationError(m.engine, expression, profileID(profile),
			fmt.Errorf("rule returned %T, want bool", result))
	}
	return matched, nil
}

// MatchSegment evaluates the segment IQL against profile.
func (m *Matcher) MatchSegment(profile *profiles.Profile, segment Segment) (bool, error) {
	if !segment.IsValid() {
		return false, fmt.Errorf("%w: segment %q has no rule", ErrInvalidConfig, segment.ID)
	}
	return m.Match(profile, segment.IQL)
}

// Filter returns the profiles matching segment, preserving order.
func (m *Matcher) Filter(list []*profiles.Profile, segment Segment) ([]*profiles.Profile, error) {
	out := make([]*profiles.Profile, 0, len(list))
	for _, profile := range list {
		matched, err := m.MatchSegment(profile, segment)
		if err != nil {
			return nil, err
		}
		if matched {
			out = append(out, profile)
		}
	}
	return out, nil
}

func profileID(profile *profiles.Profile) string {
	if profile == nil {
		return ""
	}
	return profile.ID()
}
