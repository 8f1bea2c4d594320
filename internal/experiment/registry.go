package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/numkit/internal/problems"
)

// Registry maps problem names to constructors. Every lookup builds a fresh
// problem, so callers may mutate what they get back.
type Registry struct {
	integrals map[string]func() problems.Integral
	odes      map[string]func() problems.ODE
	roots     map[string]func() problems.RootSystem
}

// NewRegistry returns a registry holding the built-in catalogue.
func NewRegistry() *Registry {
	r := &Registry{
		integrals: make(map[string]func() problems.Integral),
		odes:      make(map[string]func() problems.ODE),
		roots:     make(map[string]func() problems.RootSystem),
	}

	for _, p := range problems.Integrals() {
		name := p.Name
		r.integrals[name] = func() problems.Integral {
			p, _ := problems.LookupIntegral(name)
			return p
		}
	}
	for _, p := range problems.ODEs() {
		name := p.Name
		r.odes[name] = func() problems.ODE {
			p, _ := problems.LookupODE(name)
			return p
		}
	}
	for _, p := range problems.Roots() {
		name := p.Name
		r.roots[name] = func() problems.RootSystem {
			p, _ := problems.LookupRoot(name)
			return p
		}
	}
	return r
}

func (r *Registry) RegisterIntegral(name string, fn func() problems.Integral) {
	r.integrals[name] = fn
}

func (r *Registry) RegisterODE(name string, fn func() problems.ODE) {
	r.odes[name] = fn
}

func (r *Registry) RegisterRoot(name string, fn func() problems.RootSystem) {
	r.roots[name] = fn
}

func (r *Registry) GetIntegral(name string) (problems.Integral, error) {
	fn, ok := r.integrals[name]
	if !ok {
		return problems.Integral{}, fmt.Errorf("%w: integral %q", problems.ErrUnknownProblem, name)
	}
	return fn(), nil
}

func (r *Registry) GetODE(name string) (problems.ODE, error) {
	fn, ok := r.odes[name]
	if !ok {
		return problems.ODE{}, fmt.Errorf("%w: ode %q", problems.ErrUnknownProblem, name)
	}
	return fn(), nil
}

func (r *Registry) GetRoot(name string) (problems.RootSystem, error) {
	fn, ok := r.roots[name]
	if !ok {
		return problems.RootSystem{}, fmt.Errorf("%w: root system %q", problems.ErrUnknownProblem, name)
	}
	return fn(), nil
}

func (r *Registry) ListIntegrals() []string { return sortedKeys(r.integrals) }
func (r *Registry) ListODEs() []string      { return sortedKeys(r.odes) }
func (r *Registry) ListRoots() []string     { return sortedKeys(r.roots) }

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
