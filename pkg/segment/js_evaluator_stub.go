//go:build !js_eval

package segment

// NewJSEvaluator is unavailable without the js_eval build tag.
func NewJSEvaluator(...EvaluatorOption) Evaluator {
	return nil
}

// JSEvaluatorAvailable reports whether the binary was built with js_eval.
func JSEvaluatorAvailable() bool {
	return false
}
