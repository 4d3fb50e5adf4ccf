package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"italian-cge/internal/calibration"
	"italian-cge/internal/registry"
)

func baseSetup(t *testing.T) (*registry.Definitions, *calibration.Parameters) {
	t.Helper()
	defs := registry.NewDefinitions()
	par, err := calibration.Synthetic(defs, calibration.Targets{
		BaseYear: 2021, GDPBillion: 1782.0, PopulationMillion: 59.13,
	})
	require.NoError(t, err)
	return defs, par
}

func baseContext(defs *registry.Definitions, par *calibration.Parameters) *YearContext {
	return BaseYearContext(defs, ClosureParams{
		BaseYear:      2021,
		LaborSupply:   par.LaborSupply,
		CapitalSupply: par.CapitalSupply,
	})
}

// residualTolerance scales with the determined variable so equations in MWh
// and equations in EUR million are held to the same relative standard.
func residualTolerance(sys *System, eq Equation, x0 []float64) float64 {
	scale := math.Abs(x0[sys.Ref(eq.Determines)])
	return 1e-7 * (1 + scale)
}

func TestBuildIsSquare(t *testing.T) {
	defs, par := baseSetup(t)

	for _, closure := range []ClosureRule{ClosureCalibration, ClosureRecursiveDynamic} {
		yc := baseContext(defs, par)
		yc.Closure = closure
		m, err := Build(defs, par, yc)
		require.NoError(t, err, "closure %s", closure)

		free, active, checks := m.System().Size()
		assert.Equal(t, free, active, "closure %s", closure)
		if closure == ClosureCalibration {
			assert.Equal(t, 4, checks, "calibration closure demotes four equations")
		} else {
			assert.Zero(t, checks)
		}
	}
}

func TestBaseYearResidualsVanish(t *testing.T) {
	defs, par := baseSetup(t)

	for _, closure := range []ClosureRule{ClosureCalibration, ClosureRecursiveDynamic} {
		yc := baseContext(defs, par)
		yc.Closure = closure
		m, err := Build(defs, par, yc)
		require.NoError(t, err)

		sys := m.System()
		x0 := m.InitialPoint()
		out := make([]float64, len(sys.Equations()))
		sys.Residuals(x0, out)
		for i, eq := range sys.Equations() {
			assert.LessOrEqual(t, math.Abs(out[i]), residualTolerance(sys, eq, x0),
				"closure %s equation %s", closure, eq.Name)
		}

		worst, name := sys.MaxCheckResidual(x0)
		if len(sys.Checks()) > 0 {
			assert.Less(t, worst, 1.0, "demoted equation %s should hold at the base point", name)
		}
	}
}

func TestSolutionReproducesBaseAccounts(t *testing.T) {
	defs, par := baseSetup(t)
	yc := baseContext(defs, par)
	m, err := Build(defs, par, yc)
	require.NoError(t, err)

	sol := m.Solution(m.InitialPoint())

	assert.InDelta(t, par.GDP(), sol.NominalGDP, 1e-3*par.GDP())
	assert.InDelta(t, par.GDP(), sol.RealGDP, 1e-3*par.GDP())
	assert.InDelta(t, 1.0, sol.PriceLevel, 1e-9)
	assert.InDelta(t, 1.0, sol.Wage, 1e-9)
	assert.InDelta(t, par.UnemploymentRate, sol.Unemployment, 1e-9)
	assert.InDelta(t, par.TotalEmissions, sol.TotalEmissions, 1e-6*par.TotalEmissions)
	assert.InDelta(t, par.Investment.Total, sol.Investment, 1e-6*par.Investment.Total)
	assert.InDelta(t, par.Government.Revenue, sol.Government.Revenue, 1e-6*par.Government.Revenue)
	assert.Zero(t, sol.Government.ETS1Revenue)
	assert.Zero(t, sol.Government.ETS2Revenue)

	for _, s := range defs.Sectors {
		sr := sol.Sectors[s]
		sp := par.Sectors[s]
		assert.InDelta(t, sp.GrossOutput, sr.Output, 1e-6*sp.GrossOutput, "sector %s", s)
		assert.InDelta(t, sp.Exports, sr.Exports, 1e-6*(1+sp.Exports), "sector %s", s)
		assert.Zero(t, sr.CarbonPayment, "no carbon cost in the base year")
		for c, mix := range sp.CarrierMix {
			if mix <= 0 {
				continue
			}
			want := mix * sp.EnergyMWh
			assert.InDelta(t, want, sr.CarrierMWh[c], 1e-6*want, "sector %s carrier %s", s, c)
		}
	}
	for _, r := range defs.Regions {
		rr := sol.Regions[r]
		hp := par.Households[r]
		assert.InDelta(t, hp.Consumption, rr.Consumption, 1e-6*hp.Consumption, "region %s", r)
		assert.InDelta(t, hp.GrossIncome, rr.GrossIncome, 1e-6*hp.GrossIncome, "region %s", r)
	}
}

func TestCarbonPricingEntersCostsAndRevenue(t *testing.T) {
	defs, par := baseSetup(t)
	yc := baseContext(defs, par)
	yc.Closure = ClosureRecursiveDynamic
	yc.CarbonPriceETS1 = defs.ETS1.BasePrice
	yc.FreeAllocETS1 = 0.5
	yc.CoveredETS1 = map[registry.Sector]bool{}
	for _, s := range defs.ETS1.CoveredSectors {
		yc.CoveredETS1[s] = true
	}

	m, err := Build(defs, par, yc)
	require.NoError(t, err)

	// At the calibrated base point, the carbon payment equations are the
	// only ones out of equilibrium: covered sectors now owe money.
	sys := m.System()
	x0 := m.InitialPoint()
	out := make([]float64, len(sys.Equations()))
	sys.Residuals(x0, out)

	nonzero := map[string]bool{}
	for i, eq := range sys.Equations() {
		if math.Abs(out[i]) > residualTolerance(sys, eq, x0) {
			nonzero[eq.Name] = true
		}
	}
	assert.NotEmpty(t, nonzero)
	for name := range nonzero {
		assert.Regexp(t, `^(carbonPayment|auctionRevenueETS1|zeroProfit)\[?`, name)
	}
}

func TestBuildRejectsBadContext(t *testing.T) {
	defs, par := baseSetup(t)

	yc := baseContext(defs, par)
	yc.Closure = "general-equilibrium-magic"
	_, err := Build(defs, par, yc)
	assert.Error(t, err)

	yc = baseContext(defs, par)
	yc.LaborSupply = 0
	_, err = Build(defs, par, yc)
	assert.Error(t, err)
}

func TestProductivityShiftsValueAddedResidual(t *testing.T) {
	defs, par := baseSetup(t)
	yc := baseContext(defs, par)
	yc.Closure = ClosureRecursiveDynamic
	yc.ProductivityFactor = 1.05

	m, err := Build(defs, par, yc)
	require.NoError(t, err)

	sys := m.System()
	x0 := m.InitialPoint()
	out := make([]float64, len(sys.Equations()))
	sys.Residuals(x0, out)
	for i, eq := range sys.Equations() {
		if eq.Name == "valueAdded[IND]" {
			assert.Greater(t, math.Abs(out[i]), 1.0,
				"a productivity shift must disturb the value-added equations")
			return
		}
	}
	t.Fatal("valueAdded[IND] not found")
}
