// Package model assembles the equilibrium equation system for one
// (scenario, year) from five blocks: production, income-expenditure, trade,
// energy-environment and market clearing/closure. Blocks register variables
// and residual equations against a shared System; the solver then drives all
// active residuals to zero.
//
// Every variable is paired with the single equation that determines it.
// Fixing a variable (a closure choice) removes it from the unknowns and
// moves its determining equation into the post-solve validation set, so the
// system stays square by construction.
package model

import (
	"fmt"
	"math"
)

// Ref is a stable index into the system's variable vector.
type Ref int

type variable struct {
	name     string
	init     float64
	lo, hi   float64
	fixed    bool
	fixedVal float64
}

// Equation is one residual: zero at equilibrium.
type Equation struct {
	Name       string
	Determines string
	Fn         func(x []float64) float64
}

// System is the variable/equation registry for one year's equilibrium.
type System struct {
	vars   []variable
	index  map[string]Ref
	eqs    []Equation
	checks []Equation

	determined map[string]string // variable name -> equation name
	finalized  bool

	free       []Ref // free variable refs in order, set by Finalize
	eqOfVar    map[string]int
	checkNames map[string]bool
}

// NewSystem returns an empty system.
func NewSystem() *System {
	return &System{
		index:      map[string]Ref{},
		determined: map[string]string{},
		eqOfVar:    map[string]int{},
		checkNames: map[string]bool{},
	}
}

// AddVar registers an endogenous variable with its initial value and bounds.
func (s *System) AddVar(name string, init, lo, hi float64) Ref {
	if _, ok := s.index[name]; ok {
		panic(fmt.Sprintf("model: variable %q registered twice", name))
	}
	r := Ref(len(s.vars))
	s.vars = append(s.vars, variable{name: name, init: init, lo: lo, hi: hi})
	s.index[name] = r
	return r
}

// AddExogenous registers a variable held constant for this solve (numeraire,
// factor supplies, predetermined capital). It carries no determining
// equation.
func (s *System) AddExogenous(name string, value float64) Ref {
	r := s.AddVar(name, value, value, value)
	s.vars[r].fixed = true
	s.vars[r].fixedVal = value
	return r
}

// AddEq registers a residual equation and the variable it determines.
func (s *System) AddEq(name, determines string, fn func(x []float64) float64) {
	if _, ok := s.index[determines]; !ok {
		panic(fmt.Sprintf("model: equation %q determines unknown variable %q", name, determines))
	}
	if prev, ok := s.determined[determines]; ok {
		panic(fmt.Sprintf("model: variable %q determined by both %q and %q", determines, prev, name))
	}
	s.determined[determines] = name
	s.eqOfVar[determines] = len(s.eqs)
	s.eqs = append(s.eqs, Equation{Name: name, Determines: determines, Fn: fn})
}

// Ref resolves a variable name registered by any block.
func (s *System) Ref(name string) Ref {
	r, ok := s.index[name]
	if !ok {
		panic(fmt.Sprintf("model: unknown variable %q", name))
	}
	return r
}

// Fix pins a variable at a value and demotes its determining equation to a
// post-solve check. Used by closure rules.
func (s *System) Fix(name string, value float64) error {
	r, ok := s.index[name]
	if !ok {
		return fmt.Errorf("model: cannot fix unknown variable %q", name)
	}
	v := &s.vars[r]
	if v.fixed {
		return fmt.Errorf("model: variable %q is already fixed", name)
	}
	v.fixed = true
	v.fixedVal = value

	if i, ok := s.eqOfVar[name]; ok {
		eq := s.eqs[i]
		s.checks = append(s.checks, eq)
		s.checkNames[eq.Name] = true
		s.eqs = append(s.eqs[:i], s.eqs[i+1:]...)
		delete(s.eqOfVar, name)
		// Reindex the equations that shifted down.
		for det, j := range s.eqOfVar {
			if j > i {
				s.eqOfVar[det] = j - 1
			}
		}
	}
	return nil
}

// Finalize checks squareness: every free variable has exactly one active
// equation and the counts agree.
func (s *System) Finalize() error {
	s.free = s.free[:0]
	for r, v := range s.vars {
		if v.fixed {
			continue
		}
		if _, ok := s.determined[v.name]; !ok {
			return fmt.Errorf("model: free variable %q has no determining equation", v.name)
		}
		if s.checkNames[s.determined[v.name]] {
			return fmt.Errorf("model: free variable %q is determined by demoted equation %q", v.name, s.determined[v.name])
		}
		s.free = append(s.free, Ref(r))
	}
	if len(s.free) != len(s.eqs) {
		return fmt.Errorf("model: system not square: %d free variables vs %d active equations", len(s.free), len(s.eqs))
	}
	s.finalized = true
	return nil
}

// Size returns (free variables, active equations, validation checks).
func (s *System) Size() (int, int, int) { return len(s.free), len(s.eqs), len(s.checks) }

// VarNames returns the names of all variables in registration order.
func (s *System) VarNames() []string {
	out := make([]string, len(s.vars))
	for i, v := range s.vars {
		out[i] = v.name
	}
	return out
}

// FreeRefs returns the free-variable refs in solver order.
func (s *System) FreeRefs() []Ref { return s.free }

// InitialPoint builds the full starting vector: fixed values for pinned
// variables, warm-start values where supplied (clipped to bounds), declared
// initials otherwise.
func (s *System) InitialPoint(warm map[string]float64) []float64 {
	x := make([]float64, len(s.vars))
	for i, v := range s.vars {
		switch {
		case v.fixed:
			x[i] = v.fixedVal
		default:
			x[i] = v.init
			if warm != nil {
				if w, ok := warm[v.name]; ok {
					x[i] = math.Max(v.lo, math.Min(v.hi, w))
				}
			}
		}
	}
	return x
}

// Bounds returns the bounds for a variable.
func (s *System) Bounds(r Ref) (lo, hi float64) { return s.vars[r].lo, s.vars[r].hi }

// SetBounds widens or narrows a variable's bounds; used by the solver's
// structural-fix stage.
func (s *System) SetBounds(r Ref, lo, hi float64) {
	s.vars[r].lo = lo
	s.vars[r].hi = hi
}

// Name returns the variable name for a ref.
func (s *System) Name(r Ref) string { return s.vars[r].name }

// IsFixed reports whether a variable is pinned.
func (s *System) IsFixed(r Ref) bool { return s.vars[r].fixed }

// Residuals evaluates the active equations at x into out (len = active
// equation count).
func (s *System) Residuals(x, out []float64) {
	for i, eq := range s.eqs {
		out[i] = eq.Fn(x)
	}
}

// Equations returns the active equations (solver order).
func (s *System) Equations() []Equation { return s.eqs }

// Checks returns the demoted validation equations.
func (s *System) Checks() []Equation { return s.checks }

// MaxCheckResidual evaluates the validation equations at x and returns the
// largest absolute residual with its equation name.
func (s *System) MaxCheckResidual(x []float64) (float64, string) {
	worst, name := 0.0, ""
	for _, eq := range s.checks {
		if r := math.Abs(eq.Fn(x)); r > worst {
			worst, name = r, eq.Name
		}
	}
	return worst, name
}

// Assignment maps every variable name to its value at x.
func (s *System) Assignment(x []float64) map[string]float64 {
	out := make(map[string]float64, len(s.vars))
	for i, v := range s.vars {
		out[v.name] = x[i]
	}
	return out
}
