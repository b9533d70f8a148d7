// Package rules evaluates the data-driven faction trigger conditions. The
// conditions are CEL expressions over two maps, player and faction.
package rules

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// Registry owns the CEL environment and a cache of compiled programs.
type Registry struct {
	env *cel.Env

	mu       sync.Mutex
	programs map[string]cel.Program
}

// NewRegistry initializes the CEL environment with the trigger variables.
func NewRegistry() (*Registry, error) {
	env, err := cel.NewEnv(
		cel.Variable("player", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("faction", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, err
	}
	return &Registry{env: env, programs: make(map[string]cel.Program)}, nil
}

// Compile parses and checks expr, caching the program.
func (r *Registry) Compile(expr string) (cel.Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prg, ok := r.programs[expr]; ok {
		return prg, nil
	}
	ast, iss := r.env.Compile(expr)
	if iss.Err() != nil {
		return nil, iss.Err()
	}
	prg, err := r.env.Program(ast)
	if err != nil {
		return nil, err
	}
	r.programs[expr] = prg
	return prg, nil
}

// Eval executes expr against the provided context.
func (r *Registry) Eval(expr string, ctx map[string]any) (any, error) {
	prg, err := r.Compile(expr)
	if err != nil {
		return nil, err
	}
	out, _, err := prg.Eval(ctx)
	if err != nil {
		return nil, err
	}
	return out.Value(), nil
}

// Check evaluates expr as a condition. Non-boolean results are an error.
func (r *Registry) Check(expr string, ctx map[string]any) (bool, error) {
	v, err := r.Eval(expr, ctx)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q returned %T, want bool", expr, v)
	}
	return b, nil
}
