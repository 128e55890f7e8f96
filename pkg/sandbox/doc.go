/*
Package sandbox executes transition actions without running arbitrary code.

An action is either the name of a Go function registered by the embedding
application, or a small statement program:

	context.count = (context.count ?? 0) + 1
	context.last = input.value; context.big = context.count > 10 ? true : false

Each statement assigns to context or to a field path below it. Right-hand
sides are expr-lang expressions compiled ahead of time; they can read only
the two bindings, context and input. The language has no loops, no I/O and
no access to the host process, so the blast radius of an action is limited
to its private copies of the two values and its own result.

Every failure, including a panic inside an expression or a registered
function, is reported as an *ActionError.
*/
package sandbox
