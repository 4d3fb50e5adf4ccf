// Package solver drives the assembled equilibrium system to a root with a
// damped Newton iteration and a staged retry policy for years that resist
// the first attempt.
package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"italian-cge/internal/model"
)

var (
	// ErrSingular reports a Jacobian the LU factorization could not solve.
	ErrSingular = errors.New("solver: singular jacobian")
	// ErrStalled reports a step that no damping factor could make progress on.
	ErrStalled = errors.New("solver: line search stalled")
	// ErrMaxIterations reports iteration budget exhaustion.
	ErrMaxIterations = errors.New("solver: iteration limit reached")
)

// Options tune one Newton attempt.
type Options struct {
	// Tolerance is the convergence threshold on the scaled residual
	// infinity norm.
	Tolerance float64
	// MaxIterations bounds the Newton steps of a single attempt.
	MaxIterations int
	// MinDamping is the smallest step fraction the line search tries before
	// giving up.
	MinDamping float64
	// FDStep is the relative finite-difference step for the Jacobian.
	FDStep float64
	// Timeout bounds the wall-clock time of one Solve call across all of
	// its retry stages. Zero means no deadline beyond the caller's context.
	Timeout time.Duration
}

// DefaultOptions are tuned for warm-started year solves.
func DefaultOptions() Options {
	return Options{
		Tolerance:     1e-8,
		MaxIterations: 60,
		MinDamping:    1.0 / 1024,
		FDStep:        1e-7,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Tolerance <= 0 {
		o.Tolerance = d.Tolerance
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = d.MaxIterations
	}
	if o.MinDamping <= 0 {
		o.MinDamping = d.MinDamping
	}
	if o.FDStep <= 0 {
		o.FDStep = d.FDStep
	}
	return o
}

// newton runs one damped Newton attempt from x0 (a full variable vector)
// and returns the final vector, the iteration count and the achieved scaled
// residual norm.
func newton(ctx context.Context, sys *model.System, x0 []float64, opts Options) ([]float64, int, float64, error) {
	opts = opts.withDefaults()
	free := sys.FreeRefs()
	n := len(free)
	eqs := sys.Equations()
	if n != len(eqs) {
		return nil, 0, math.Inf(1), fmt.Errorf("solver: %d free variables vs %d equations", n, len(eqs))
	}

	x := append([]float64(nil), x0...)

	// Row scaling: each residual is divided by the magnitude of the variable
	// its equation determines, so tolerances mean the same thing for
	// equations in megawatt hours and equations in relative prices.
	scale := make([]float64, n)
	for i, eq := range eqs {
		scale[i] = 1 / (1 + math.Abs(x0[sys.Ref(eq.Determines)]))
	}

	raw := make([]float64, n)
	f := make([]float64, n)
	evaluate := func(xv []float64, out []float64) float64 {
		sys.Residuals(xv, raw)
		norm := 0.0
		for i := range raw {
			out[i] = raw[i] * scale[i]
			if a := math.Abs(out[i]); a > norm {
				norm = a
			}
		}
		return norm
	}

	norm := evaluate(x, f)
	jac := mat.NewDense(n, n, nil)
	fPert := make([]float64, n)
	step := mat.NewVecDense(n, nil)
	rhs := mat.NewVecDense(n, nil)
	trial := make([]float64, len(x))

	for iter := 0; iter < opts.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return x, iter, norm, err
		}
		if norm < opts.Tolerance {
			return x, iter, norm, nil
		}

		// Forward-difference Jacobian, column by column over the free
		// variables only.
		for j, ref := range free {
			h := opts.FDStep * math.Max(math.Abs(x[ref]), 1)
			saved := x[ref]
			x[ref] = saved + h
			evaluate(x, fPert)
			x[ref] = saved
			for i := 0; i < n; i++ {
				jac.Set(i, j, (fPert[i]-f[i])/h)
			}
		}

		for i := 0; i < n; i++ {
			rhs.SetVec(i, -f[i])
		}
		var lu mat.LU
		lu.Factorize(jac)
		if err := lu.SolveVecTo(step, false, rhs); err != nil {
			return x, iter, norm, ErrSingular
		}

		// Backtracking line search with bound clipping.
		improved := false
		for damp := 1.0; damp >= opts.MinDamping; damp /= 2 {
			copy(trial, x)
			for j, ref := range free {
				lo, hi := sys.Bounds(ref)
				trial[ref] = math.Max(lo, math.Min(hi, x[ref]+damp*step.AtVec(j)))
			}
			trialNorm := evaluate(trial, fPert)
			if math.IsNaN(trialNorm) || math.IsInf(trialNorm, 0) {
				continue
			}
			if trialNorm < norm*(1-1e-4*damp) || trialNorm < opts.Tolerance {
				copy(x, trial)
				copy(f, fPert)
				norm = trialNorm
				improved = true
				break
			}
		}
		if !improved {
			return x, iter, norm, ErrStalled
		}
	}
	if norm < opts.Tolerance {
		return x, opts.MaxIterations, norm, nil
	}
	return x, opts.MaxIterations, norm, ErrMaxIterations
}
