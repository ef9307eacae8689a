package segment

import (
	"fmt"
	"time"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ruleEnv is the typed environment expr rules compile against. Field tags
// give the variable names rules use.
type ruleEnv struct {
	ID         string         `expr:"id"`
	Attributes map[string]any `expr:"attributes"`
	Sessions   []any          `expr:"sessions"`
	Now        time.Time      `expr:"now"`
	Args       map[string]any `expr:"args"`
	Metadata   map[string]any `expr:"metadata"`
}

// newRuleEnv lifts a profile snapshot into ruleEnv. Missing or mistyped
// snapshot entries become empty values.
func newRuleEnv(ctx RuleContext) ruleEnv {
	snapshot := snapshotAsMap(ctx.Snapshot)
	env := ruleEnv{
		Attributes: map[string]any{},
		Sessions:   []any{},
		Now:        ctx.timestamp(),
		Args:       ctx.Args,
		Metadata:   ctx.Metadata,
	}
	env.ID, _ = snapshot["id"].(string)
	if attributes, ok := snapshot["attributes"].(map[string]any); ok {
		env.Attributes = attributes
	}
	if sessions, ok := snapshot["sessions"].([]any); ok {
		env.Sessions = sessions
	}
	return env
}

type exprEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewExprEvaluator constructs an Evaluator backed by expr-lang/expr. Rules
// are type checked against the profile snapshot layout and the declared
// signatures of registry functions, so unknown variables and mistyped helper
// calls fail at compile time.
func NewExprEvaluator(opts ...EvaluatorOption) Evaluator {
	cfg := newEvaluatorConfig(opts)
	return &exprEvaluator{cache: cfg.cache, registry: cfg.functions}
}

func (e *exprEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *exprEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("expr", fmt.Errorf("expression must not be empty"))
	}
	program, err := e.program(expression)
	if err != nil {
		return nil, err
	}
	return &exprCompiledRule{program: program, expression: expression}, nil
}

func (e *exprEvaluator) program(expression string) (*exprvm.Program, error) {
	key := "expr:" + expression
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}

	program, err := exprlang.Compile(expression, e.compileOptions()...)
	if err != nil {
		return nil, wrapEvaluationError("expr", expression, "", err)
	}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return program, nil
}

func (e *exprEvaluator) compileOptions() []exprlang.Option {
	options := []exprlang.Option{exprlang.Env(ruleEnv{})}
	for _, name := range e.registry.Names() {
		registry := e.registry
		call := func(arguments ...any) (any, error) {
			return registry.Call(name, arguments...)
		}
		options = append(options, exprlang.Function(name, call, registry.Signatures(name)...))
	}
	return options
}

type exprCompiledRule struct {
	program    *exprvm.Program
	expression string
}

func (r *exprCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	ctx = ctx.withDefaults()
	result, err := exprlang.Run(r.program, newRuleEnv(ctx))
	if err != nil {
		return nil, wrapEvaluationError("expr", r.expression, ctx.profileLabel(), err)
	}
	return result, nil
}
