package segment

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunctionRegistryIsCaseInsensitive(t *testing.T) {
	registry := NewFunctionRegistry()
	require.NoError(t, registry.Register("Double", func(args ...any) (any, error) {
		return args[0].(int) * 2, nil
	}))
	err := registry.Register("double", func(args ...any) (any, error) { return nil, nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	got, err := registry.Call("DOUBLE", 21)
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, []string{"double"}, registry.Names())

	_, err = registry.Call("missing")
	assert.Contains(t, err.Error(), `function "missing" not registered`)
}

func TestFunctionRegistryCloneIsIndependent(t *testing.T) {
	registry := NewFunctionRegistry()
	require.NoError(t, registry.Register("a", func(...any) (any, error) { return nil, nil }))
	clone := registry.Clone()
	require.NoError(t, clone.Register("b", func(...any) (any, error) { return nil, nil }))

	assert.Equal(t, []string{"a"}, registry.Names())
	assert.Equal(t, []string{"a", "b"}, clone.Names())
}

func TestFunctionRegistrySignatures(t *testing.T) {
	registry := NewFunctionRegistry()
	noop := func(...any) (any, error) { return nil, nil }

	err := registry.Register("bad", noop, "func(string) bool")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a *func")
	assert.Empty(t, registry.Names())

	require.NoError(t, registry.Register("Has", noop, new(func(string) bool), new(func(string, string) bool)))
	sigs := registry.Signatures("HAS")
	require.Len(t, sigs, 2)
	assert.IsType(t, new(func(string) bool), sigs[0])

	sigs[0] = nil
	assert.NotNil(t, registry.Signatures("has")[0], "callers get a copy")
	assert.Nil(t, registry.Signatures("missing"))
}

func TestBuiltinsDeclareSignatures(t *testing.T) {
	registry := BuiltinFunctions(nil)
	assert.Equal(t, []string{"age", "attr", "events"}, registry.Names())
	for _, name := range registry.Names() {
		assert.Len(t, registry.Signatures(name), 1, name)
	}
}

func TestBuiltinAttrWalksNestedMaps(t *testing.T) {
	attributes := map[string]any{"app": map[string]any{"sec": map[string]any{"name": "v"}}}
	got, err := builtinAttr(attributes, "app", "sec", "name")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	got, err = builtinAttr(attributes, "app", "nope", "name")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = builtinAttr(attributes, "app")
	assert.Error(t, err)
}

func TestEvaluationErrorUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := wrapEvaluationError("expr", "a == b", "pid", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, `segment: expr evaluator expr="a == b" profile=pid: boom`, err.Error())

	again := wrapEvaluationError("cel", "", "", err)
	assert.Same(t, err, again, "existing evaluation errors are reused")
	assert.Equal(t, "expr", again.(*EvaluationError).Engine)
}
