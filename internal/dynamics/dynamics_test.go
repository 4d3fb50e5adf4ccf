package dynamics

import (
	"context"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"italian-cge/internal/calibration"
	"italian-cge/internal/registry"
	"italian-cge/internal/solver"
)

func testSetup(t *testing.T, lastYear int) (*registry.Definitions, *calibration.Parameters, *Driver) {
	t.Helper()
	defs := registry.NewDefinitions()
	par, err := calibration.Synthetic(defs, calibration.Targets{
		BaseYear: 2021, GDPBillion: 1782.0, PopulationMillion: 59.13,
	})
	require.NoError(t, err)

	d, err := New(defs, par, lastYear, solver.DefaultOptions(), slog.Default())
	require.NoError(t, err)
	return defs, par, d
}

func TestNewRejectsBadHorizon(t *testing.T) {
	defs := registry.NewDefinitions()
	par, err := calibration.Synthetic(defs, calibration.Targets{
		BaseYear: 2021, GDPBillion: 1782.0, PopulationMillion: 59.13,
	})
	require.NoError(t, err)

	_, err = New(defs, par, 2019, solver.DefaultOptions(), nil)
	assert.Error(t, err)
	_, err = New(defs, nil, 2030, solver.DefaultOptions(), nil)
	assert.Error(t, err)
}

func TestScenarioValidation(t *testing.T) {
	assert.Error(t, Scenario{}.Validate())
	assert.Error(t, Scenario{Name: "x", CarbonPriceScale: -1}.Validate())
	assert.Error(t, Scenario{Name: "x", ETS2Enabled: true}.Validate())
	for _, sc := range DefaultScenarios() {
		assert.NoError(t, sc.Validate(), sc.Name)
	}
}

func TestDefaultScenarioSet(t *testing.T) {
	scs := DefaultScenarios()
	require.Len(t, scs, 3)
	assert.Equal(t, "BAU", scs[0].Name)
	assert.Equal(t, "ETS1", scs[1].Name)

	// The extension scenario keeps the industrial market running alongside
	// the road-and-buildings one.
	assert.Equal(t, "ETS2", scs[2].Name)
	assert.True(t, scs[2].ETS1Enabled)
	assert.True(t, scs[2].ETS2Enabled)
}

func TestBaseYearReproducesCalibration(t *testing.T) {
	_, par, d := testSetup(t, 2021)

	res := d.RunScenario(context.Background(), Scenario{Name: "BAU"})
	require.NoError(t, res.Err)
	assert.Equal(t, StateBaseYearSolved, res.State)
	require.Len(t, res.Years, 1)

	ys := res.Years[0]
	assert.Equal(t, 2021, ys.Year)
	assert.True(t, ys.Validated)
	assert.Equal(t, solver.Optimal, ys.Outcome)
	assert.Zero(t, ys.CarbonPriceETS1)
	assert.Zero(t, ys.CarbonPriceETS2)
	assert.InDelta(t, par.GDP(), ys.Solution.NominalGDP, 1e-3*par.GDP())
	assert.InDelta(t, par.TotalEmissions, ys.Solution.TotalEmissions, 1.0)
	assert.Equal(t, par.CapitalStock, ys.CapitalStock)
}

func TestCapitalAccumulationAcrossYears(t *testing.T) {
	if testing.Short() {
		t.Skip("multi-year solve")
	}
	_, _, d := testSetup(t, 2023)

	res := d.RunScenario(context.Background(), Scenario{Name: "BAU"})
	require.NoError(t, res.Err)
	assert.Equal(t, StateYearSolved, res.State)
	require.Len(t, res.Years, 3)

	for i := 1; i < len(res.Years); i++ {
		prev, cur := res.Years[i-1], res.Years[i]
		want := prev.CapitalStock*(1-depreciationRate) + prev.Solution.Investment
		assert.InDelta(t, want, cur.CapitalStock, 1e-6*want, "year %d", cur.Year)
		assert.Less(t, cur.LaborSupply, prev.LaborSupply, "labor force shrinks")
		assert.Less(t, cur.Population, prev.Population, "population shrinks")
		for r, rs := range cur.Regional {
			assert.Greater(t, rs.CumulativeCapacityGW, prev.Regional[r].CumulativeCapacityGW,
				"capacity stock grows in %s", r)
		}
	}
}

func TestScenariosRunConcurrentlyAndIndependently(t *testing.T) {
	_, _, d := testSetup(t, 2021)

	results, err := d.RunAll(context.Background(), []Scenario{
		{Name: "B-second"},
		{Name: "A-first"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "A-first", results[0].Scenario.Name)
	assert.Equal(t, "B-second", results[1].Scenario.Name)

	// Shared parameters, separate solution state.
	assert.NotSame(t, results[0].Years[0].Solution, results[1].Years[0].Solution)
	assert.InDelta(t, results[0].Years[0].Solution.RealGDP, results[1].Years[0].Solution.RealGDP, 1e-6)
}

func TestScenarioRunsLeaveParametersUntouched(t *testing.T) {
	if testing.Short() {
		t.Skip("multi-year solve")
	}
	defs, par, d := testSetup(t, 2022)

	snapshot := func() map[string]float64 {
		snap := map[string]float64{
			"gdp":            par.GDP(),
			"labor_supply":   par.LaborSupply,
			"capital_stock":  par.CapitalStock,
			"emissions":      par.TotalEmissions,
			"gov_revenue":    par.Government.Revenue,
			"investment":     par.Investment.Total,
			"trade_balance":  par.TradeBalance,
			"savings_gap":    par.SavingsInvGap,
			"unemployment":   par.UnemploymentRate,
			"population":     par.TargetPopulation,
			"ets1_ref_price": d.defs.ETS1.CarbonPrice(2030),
		}
		for _, s := range defs.Sectors {
			sp := par.Sectors[s]
			snap["output:"+string(s)] = sp.GrossOutput
			snap["energy:"+string(s)] = sp.EnergyMWh
			snap["intensity:"+string(s)] = sp.EnergyIntensity
			snap["exports:"+string(s)] = sp.Exports
		}
		for _, r := range defs.Regions {
			hp := par.Households[r]
			snap["income:"+string(r)] = hp.GrossIncome
			snap["consumption:"+string(r)] = hp.Consumption
			snap["savings_rate:"+string(r)] = hp.SavingsRate
		}
		return snap
	}

	before := snapshot()
	_, err := d.RunAll(context.Background(), []Scenario{
		{Name: "BAU"},
		{Name: "ETS1", ETS1Enabled: true},
		{Name: "ETS2", ETS1Enabled: true, ETS2Enabled: true},
	})
	require.NoError(t, err)
	assert.Equal(t, before, snapshot())
}

func TestRunAllRejectsInvalidScenario(t *testing.T) {
	_, _, d := testSetup(t, 2021)
	_, err := d.RunAll(context.Background(), []Scenario{{Name: "bad", ETS2Enabled: true}})
	assert.Error(t, err)
}

func TestCancelledContextFailsScenario(t *testing.T) {
	_, _, d := testSetup(t, 2021)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := d.RunScenario(ctx, Scenario{Name: "BAU"})
	assert.Equal(t, StateFailed, res.State)
	assert.Error(t, res.Err)
	assert.Empty(t, res.Years)
}

func TestExogenousPaths(t *testing.T) {
	assert.InDelta(t, 1.0, compound(0.008, 0), 1e-12)
	assert.InDelta(t, 115.0, 100*(1-depreciationRate)+20, 1e-12)
	assert.InDelta(t, 0.99, aeeiFactor(1, 0), 1e-12)
	assert.InDelta(t, 0.985, aeeiFactor(1, 1), 1e-12)
	assert.InDelta(t, 0.99*0.985, aeeiFactor(2, 1), 1e-12)
	assert.Equal(t, maxRenewableShare, renewableShare(0.35, 0.01, 100))
	assert.InDelta(t, 0.45, renewableShare(0.35, 0.01, 10), 1e-12)
}

func TestEfficiencyAmplifierFollowsPolicyStart(t *testing.T) {
	defs, _, d := testSetup(t, 2035)
	sc := Scenario{Name: "ETS2", ETS1Enabled: true, ETS2Enabled: true}

	// Before the road-and-buildings market opens in 2027 its sectors
	// improve at the plain autonomous rate; industry is priced from the
	// first post-base year and compounds at the amplified rate throughout.
	yc := d.yearContext(sc, 2023, 0, nil)
	assert.InDelta(t, math.Pow(0.99, 2), yc.EnergyEfficiency[registry.RoadTransport], 1e-12)
	assert.InDelta(t, math.Pow(0.985, 2), yc.EnergyEfficiency[registry.Industry], 1e-12)

	// From 2027 on, only the years since the start accrue the amplified
	// rate for the late-start market.
	yc = d.yearContext(sc, 2028, 0, nil)
	assert.InDelta(t, math.Pow(0.99, 5)*math.Pow(0.985, 2), yc.EnergyEfficiency[registry.RoadTransport], 1e-12)
	assert.InDelta(t, math.Pow(0.985, 7), yc.EnergyEfficiency[registry.Industry], 1e-12)

	// Uncovered sectors never see the amplifier.
	assert.InDelta(t, math.Pow(0.99, 7), yc.EnergyEfficiency[registry.Agriculture], 1e-12)

	for _, s := range defs.Sectors {
		assert.Greater(t, yc.EnergyEfficiency[s], 0.0)
	}
}

func TestRegionalSatellitePaths(t *testing.T) {
	defs, par, d := testSetup(t, 2035)
	sc := Scenario{Name: "ETS2", ETS1Enabled: true, ETS2Enabled: true}

	base := d.regionalStates(sc, 2021, 1.0, par.UnemploymentRate)
	require.Len(t, base, len(defs.Regions))

	totalPop := 0.0
	for _, rs := range base {
		totalPop += rs.Population
	}
	assert.InDelta(t, par.TargetPopulation, totalPop, 1e-9)

	// Base year: carbon markets not yet priced, so investment sits on its
	// autonomous path.
	nw := base[registry.Northwest]
	assert.InDelta(t, regionRenewableInvestment2021[registry.Northwest], nw.RenewableInvestment, 1e-12)
	assert.InDelta(t, nw.RenewableInvestment/investmentBnPerGW, nw.CapacityAdditionsGW, 1e-12)
	assert.Less(t, nw.Employment, nw.LaborForce)

	// Once ETS2 is active the south gets the strongest investment response
	// relative to its autonomous path.
	later := d.regionalStates(sc, 2030, 1.0, par.UnemploymentRate)
	t2030 := 2030 - 2021
	southBoost := later[registry.South].RenewableInvestment /
		(regionRenewableInvestment2021[registry.South] * compound(regionRenewableGrowth[registry.South], t2030))
	nwBoost := later[registry.Northwest].RenewableInvestment /
		(regionRenewableInvestment2021[registry.Northwest] * compound(regionRenewableGrowth[registry.Northwest], t2030))
	assert.InDelta(t, 1.6, southBoost, 1e-9)
	assert.InDelta(t, 1.4, nwBoost, 1e-9)

	// The south shrinks faster than the center over the horizon.
	assert.Less(t, later[registry.South].Population/base[registry.South].Population,
		later[registry.Center].Population/base[registry.Center].Population)
}

func TestRegionalCapacityAccumulates(t *testing.T) {
	defs, _, d := testSetup(t, 2021)

	// The national 2021 stock splits by base-year investment shares.
	split := d.baseRegionalCapacity()
	total := 0.0
	for _, gw := range split {
		total += gw
	}
	assert.InDelta(t, baseRenewableCapacityGW, total, 1e-9)
	assert.Greater(t, split[registry.South], split[registry.Islands])

	res := d.RunScenario(context.Background(), Scenario{Name: "BAU"})
	require.NoError(t, res.Err)
	ys := res.Years[0]

	sum := 0.0
	for _, r := range defs.Regions {
		rs := ys.Regional[r]
		require.NotNil(t, rs)
		assert.InDelta(t, split[r]+rs.CapacityAdditionsGW, rs.CumulativeCapacityGW, 1e-9, string(r))
		sum += rs.CumulativeCapacityGW
	}
	assert.InDelta(t, sum, ys.RenewableCapacityGW, 1e-9)
}
