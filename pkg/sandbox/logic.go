package sandbox

import (
	"math"
	"reflect"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
)

const truthyFunc = "truthy"

// compileOptions are shared by every right-hand side.
// Wall-clock builtins are disabled so actions stay deterministic and
// contexts stay JSON-representable.
var compileOptions = []expr.Option{
	expr.AllowUndefinedVariables(),
	expr.DisableBuiltin("now"),
	expr.DisableBuiltin("date"),
	expr.Function(truthyFunc, func(params ...any) (any, error) {
		return truthy(params[0]), nil
	}, new(func(any) bool)),
	expr.Patch(logicalPatcher{}),
}

// logicalPatcher rewrites || and && into conditionals so they yield one of
// their operands, as in `context.count || 0`:
//
//	a || b  ->  truthy(a) ? a : b
//	a && b  ->  truthy(a) ? b : a
type logicalPatcher struct{}

func (logicalPatcher) Visit(node *ast.Node) {
	bin, ok := (*node).(*ast.BinaryNode)
	if !ok {
		return
	}

	cond := &ast.CallNode{
		Callee:    &ast.IdentifierNode{Value: truthyFunc},
		Arguments: []ast.Node{bin.Left},
	}
	switch bin.Operator {
	case "||", "or":
		ast.Patch(node, &ast.ConditionalNode{Cond: cond, Exp1: bin.Left, Exp2: bin.Right})
	case "&&", "and":
		ast.Patch(node, &ast.ConditionalNode{Cond: cond, Exp1: bin.Right, Exp2: bin.Left})
	}
}

// truthy reports whether v counts as true: nil, false, zero numbers, NaN and
// the empty string are false, everything else is true.
func truthy(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.Len() > 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	}
	return true
}
