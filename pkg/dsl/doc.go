/*
Package dsl provides a fluent API for defining state machine configurations in Go code.

Example:

	cfg, err := dsl.New("toggle").
		Context(map[string]any{"count": 0}).
		State("off").Label("Off").
		On("toggle", "on").Do("context.count = (context.count ?? 0) + 1").
		State("on").
		On("toggle", "off").As("Switch off").
		Build()
*/
package dsl
