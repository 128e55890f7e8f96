package sandbox

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aretw0/statelab/pkg/registry"
	"github.com/expr-lang/expr"
)

// Sandbox runs transition actions. Compiled programs are cached per code string.
// Safe for concurrent use.
type Sandbox struct {
	registry *registry.Registry

	mu    sync.RWMutex
	cache map[string]*program
}

// Option configures a Sandbox.
type Option func(*Sandbox)

// WithRegistry exposes named Go actions to configurations.
func WithRegistry(reg *registry.Registry) Option {
	return func(s *Sandbox) {
		s.registry = reg
	}
}

// New creates a sandbox.
func New(opts ...Option) *Sandbox {
	s := &Sandbox{
		cache: make(map[string]*program),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Compile checks that code is a registered action or a valid program.
// It is used to report broken actions when a configuration is loaded.
func (s *Sandbox) Compile(code string) error {
	name := strings.TrimSpace(code)
	if _, ok := s.registry.Lookup(name); ok {
		return nil
	}
	_, err := s.program(code)
	return err
}

// Run evaluates code against machineCtx and input and returns the resulting context.
// The caller must pass copies: the sandbox mutates machineCtx in place.
func (s *Sandbox) Run(ctx context.Context, code string, machineCtx any, input any) (result any, err error) {
	if err := ctx.Err(); err != nil {
		return nil, newError(code, StageRun, err)
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = newError(code, StageRun, fmt.Errorf("panic: %v", r))
		}
	}()

	name := strings.TrimSpace(code)
	if fn, ok := s.registry.Lookup(name); ok {
		out, err := fn(ctx, machineCtx, input)
		if err != nil {
			return nil, newError(code, StageRun, err)
		}
		return out, nil
	}

	prog, err := s.program(code)
	if err != nil {
		return nil, err
	}
	return prog.run(code, machineCtx, input)
}

func (s *Sandbox) program(code string) (*program, error) {
	s.mu.RLock()
	prog, ok := s.cache[code]
	s.mu.RUnlock()
	if ok {
		return prog, nil
	}

	name := strings.TrimSpace(code)
	if identifierPattern.MatchString(name) && !isBindingPath(name) {
		return nil, newError(code, StageLookup, fmt.Errorf("unknown action %q", name))
	}

	prog, err := compile(code)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[code] = prog
	s.mu.Unlock()
	return prog, nil
}

func (p *program) run(code string, machineCtx any, input any) (any, error) {
	env := map[string]any{
		bindingContext: machineCtx,
		bindingInput:   input,
	}
	for _, st := range p.statements {
		value, err := expr.Run(st.program, env)
		if err != nil {
			return nil, newError(code, StageRun, fmt.Errorf("%q: %w", st.source, err))
		}
		next, err := assign(env[bindingContext], st.path, value)
		if err != nil {
			return nil, newError(code, StageRun, fmt.Errorf("%q: %w", st.source, err))
		}
		env[bindingContext] = next
	}
	return env[bindingContext], nil
}

func isBindingPath(name string) bool {
	for _, b := range []string{bindingContext, bindingInput} {
		if name == b || strings.HasPrefix(name, b+".") {
			return true
		}
	}
	return false
}
