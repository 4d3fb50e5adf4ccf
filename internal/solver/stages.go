package solver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"italian-cge/internal/model"
)

// Outcome classifies how a year's solve ended.
type Outcome string

const (
	// Optimal: converged at the strict tolerance.
	Optimal Outcome = "optimal"
	// Feasible: converged only under a relaxed tolerance; results are
	// usable but flagged.
	Feasible Outcome = "feasible"
	// Failed: no stage produced an acceptable point.
	Failed Outcome = "failed"
)

// Stage names the retry ladder rungs.
type Stage string

const (
	StageStrict        Stage = "strict"
	StageStructuralFix Stage = "structural-fix"
	StageRelaxed       Stage = "relaxed"
	StageSimplified    Stage = "simplified"
)

// Attempt records one rung's result for diagnostics.
type Attempt struct {
	Stage      Stage
	Iterations int
	Residual   float64
	Err        error
}

// Result is the final outcome of a staged solve.
type Result struct {
	Outcome    Outcome
	Stage      Stage
	Iterations int
	Residual   float64
	Attempts   []Attempt
	Solution   *model.Solution
}

// relaxedTolerance marks the boundary between Optimal and Feasible: rungs
// converging only beyond it downgrade the outcome.
const relaxedTolerance = 1e-5

// Solve walks the retry ladder for one assembled model: a strict
// warm-started attempt first, then a cold restart with widened bounds, then
// progressively relaxed tolerances. The first converged rung wins.
func Solve(ctx context.Context, m *model.Model, opts Options, log *slog.Logger) (*Result, error) {
	opts = opts.withDefaults()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	sys := m.System()

	rungs := []struct {
		stage   Stage
		opts    Options
		cold    bool
		widen   float64
		outcome Outcome
	}{
		{StageStrict, opts, false, 1, Optimal},
		{StageStructuralFix, opts, true, 100, Optimal},
		{StageRelaxed, Options{
			Tolerance:     relaxedTolerance,
			MaxIterations: 2 * opts.MaxIterations,
			MinDamping:    opts.MinDamping / 8,
			FDStep:        opts.FDStep,
		}, true, 100, Feasible},
		{StageSimplified, Options{
			Tolerance:     1e-4,
			MaxIterations: 3 * opts.MaxIterations,
			MinDamping:    opts.MinDamping / 64,
			FDStep:        1e-6,
		}, true, 1000, Feasible},
	}

	res := &Result{Outcome: Failed}
	for _, rung := range rungs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if rung.widen > 1 {
			widenBounds(sys, rung.widen)
		}
		x0 := m.InitialPoint()
		if rung.cold {
			x0 = sys.InitialPoint(nil)
		}

		x, iters, residual, err := newton(ctx, sys, x0, rung.opts)
		res.Attempts = append(res.Attempts, Attempt{rung.stage, iters, residual, err})
		if log != nil {
			log.Debug("solve attempt",
				"year", m.Year(), "stage", string(rung.stage),
				"iterations", iters, "residual", residual, "err", err)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return res, err
		}
		if err == nil {
			res.Outcome = rung.outcome
			res.Stage = rung.stage
			res.Iterations = iters
			res.Residual = residual
			res.Solution = m.Solution(x)
			return res, nil
		}
	}

	last := res.Attempts[len(res.Attempts)-1]
	return res, fmt.Errorf("solver: year %d failed after %d stages (last residual %.3e): %w",
		m.Year(), len(res.Attempts), last.Residual, last.Err)
}

// widenBounds relaxes every free variable's box by the given factor around
// its current limits. Prices keep a positive floor.
func widenBounds(sys *model.System, factor float64) {
	for _, ref := range sys.FreeRefs() {
		lo, hi := sys.Bounds(ref)
		if lo > 0 {
			lo /= factor
		}
		sys.SetBounds(ref, lo, hi*factor)
	}
}
