package ports

import "context"

// Sandbox executes transition actions.
type Sandbox interface {
	// Run evaluates code with private copies of the machine context and the input
	// and returns the replacement context.
	Run(ctx context.Context, code string, machineCtx any, input any) (any, error)

	// Compile reports whether code could run, without running it.
	Compile(code string) error
}
