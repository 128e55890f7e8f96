/*
Package statelab is an embeddable interpreter for declarative finite-state machines.

A configuration describes states, the events each state accepts and the
state each event leads to. Transitions may carry an action that computes a
new context from the current one and the event input. The engine drives a
single live instance of the machine, records a history that supports undo
and scripted replay, and pushes a snapshot to every listener after each
change.

# Actions

Actions never execute arbitrary code. They are either the name of a Go
function registered by the host application:

	reg := registry.NewRegistry()
	reg.Register("charge", func(ctx context.Context, machineCtx, input any) (any, error) { ... })
	eng := statelab.New(statelab.WithRegistry(reg))

or a short program of assignments to context, with expressions over
context and input:

	context.count = (context.count ?? 0) + 1; context.last = input.by

# Usage

	eng := statelab.New(statelab.WithLogger(logger))
	if err := eng.LoadFile(ctx, "toggle.yaml"); err != nil {
		log.Fatal(err)
	}
	eng.Subscribe(func(s domain.Snapshot) { fmt.Println("now in", s.ID) })

	res, err := eng.Send(ctx, "toggle", nil)
	switch {
	case err != nil:
		// engine rejected the call (not loaded, replay in progress)
	case res.Kind == domain.ResultActionFailed:
		fmt.Println("action failed:", res.Error)
	case res.Kind == domain.ResultNoTransition:
		fmt.Println("event not accepted here")
	}

Outer surfaces live in pkg/adapters (HTTP, MCP, Redis, memory) and in the
statelab command.
*/
package statelab
