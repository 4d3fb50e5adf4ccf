package solver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"italian-cge/internal/calibration"
	"italian-cge/internal/model"
	"italian-cge/internal/registry"
)

func circleSystem() *model.System {
	sys := model.NewSystem()
	a := sys.AddVar("a", 2, 0, 10)
	b := sys.AddVar("b", 2, 0, 10)
	sys.AddEq("circle", "a", func(x []float64) float64 { return x[a]*x[a] + x[b]*x[b] - 25 })
	sys.AddEq("line", "b", func(x []float64) float64 { return x[b] - x[a] - 1 })
	return sys
}

func TestNewtonSolvesSmallSystem(t *testing.T) {
	sys := circleSystem()
	require.NoError(t, sys.Finalize())

	x, iters, residual, err := newton(context.Background(), sys, sys.InitialPoint(nil), DefaultOptions())
	require.NoError(t, err)
	assert.Greater(t, iters, 0)
	assert.Less(t, residual, 1e-8)
	assert.InDelta(t, 3.0, x[sys.Ref("a")], 1e-6)
	assert.InDelta(t, 4.0, x[sys.Ref("b")], 1e-6)
}

func TestNewtonRespectsContext(t *testing.T) {
	sys := circleSystem()
	require.NoError(t, sys.Finalize())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, _, err := newton(ctx, sys, sys.InitialPoint(nil), DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func buildBase(t *testing.T, closure model.ClosureRule) (*registry.Definitions, *calibration.Parameters, *model.Model) {
	t.Helper()
	defs := registry.NewDefinitions()
	par, err := calibration.Synthetic(defs, calibration.Targets{
		BaseYear: 2021, GDPBillion: 1782.0, PopulationMillion: 59.13,
	})
	require.NoError(t, err)

	yc := model.BaseYearContext(defs, model.ClosureParams{
		BaseYear:      2021,
		LaborSupply:   par.LaborSupply,
		CapitalSupply: par.CapitalSupply,
	})
	yc.Closure = closure
	m, err := model.Build(defs, par, yc)
	require.NoError(t, err)
	return defs, par, m
}

func TestSolveBaseYearConvergesImmediately(t *testing.T) {
	_, _, m := buildBase(t, model.ClosureCalibration)

	res, err := Solve(context.Background(), m, DefaultOptions(), nil)
	require.NoError(t, err)
	assert.Equal(t, Optimal, res.Outcome)
	assert.Equal(t, StageStrict, res.Stage)
	assert.LessOrEqual(t, res.Iterations, 2, "the calibrated point is already an equilibrium")
	assert.Less(t, res.Residual, 1e-8)
	require.NotNil(t, res.Solution)
	assert.Less(t, res.Solution.ValidationResidual, 1.0)
}

func TestSolveHonorsTimeout(t *testing.T) {
	_, _, m := buildBase(t, model.ClosureCalibration)

	opts := DefaultOptions()
	opts.Timeout = time.Nanosecond
	_, err := Solve(context.Background(), m, opts, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSolveCarbonPriceShiftsEquilibrium(t *testing.T) {
	if testing.Short() {
		t.Skip("full-system solve")
	}
	defs, par, _ := buildBase(t, model.ClosureRecursiveDynamic)

	yc := model.BaseYearContext(defs, model.ClosureParams{
		BaseYear:      2021,
		LaborSupply:   par.LaborSupply,
		CapitalSupply: par.CapitalSupply,
	})
	yc.Closure = model.ClosureRecursiveDynamic
	yc.CarbonPriceETS1 = 5.0
	yc.FreeAllocETS1 = 0.9
	yc.CoveredETS1 = map[registry.Sector]bool{}
	for _, s := range defs.ETS1.CoveredSectors {
		yc.CoveredETS1[s] = true
	}
	m, err := model.Build(defs, par, yc)
	require.NoError(t, err)

	res, err := Solve(context.Background(), m, DefaultOptions(), nil)
	require.NoError(t, err)
	assert.NotEqual(t, Failed, res.Outcome)
	require.NotNil(t, res.Solution)

	assert.Greater(t, res.Solution.Government.ETS1Revenue, 0.0)
	assert.Less(t, res.Solution.TotalEmissions, par.TotalEmissions,
		"a positive carbon price must reduce emissions")
	for _, s := range defs.ETS1.CoveredSectors {
		assert.Greater(t, res.Solution.Sectors[s].CarbonPayment, 0.0, "sector %s", s)
	}
}

func TestNewtonReportsUnsolvableSystem(t *testing.T) {
	sys := model.NewSystem()
	a := sys.AddVar("a", 1, -10, 10)
	sys.AddEq("impossible", "a", func(x []float64) float64 { return x[a]*x[a] + 1 })
	require.NoError(t, sys.Finalize())

	_, _, residual, err := newton(context.Background(), sys, sys.InitialPoint(nil), DefaultOptions())
	assert.Error(t, err)
	assert.Greater(t, residual, 0.0)
}
