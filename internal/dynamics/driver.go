package dynamics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"italian-cge/internal/calibration"
	"italian-cge/internal/model"
	"italian-cge/internal/registry"
	"italian-cge/internal/solver"
)

// State tracks how far a scenario run has progressed.
type State string

const (
	StateUninitialized  State = "uninitialized"
	StateBaseYearSolved State = "base-year-solved"
	StateYearSolved     State = "year-solved"
	StateFailed         State = "failed"
)

// YearState is one solved year of one scenario, with the stocks and policy
// levels that produced it.
type YearState struct {
	Year     int
	Scenario string

	Outcome  solver.Outcome
	Stage    solver.Stage
	Solution *model.Solution

	CapitalStock   float64
	LaborSupply    float64
	Population     float64
	RenewableShare float64

	// Regional satellite indicators and the renewable build-out they imply.
	Regional            map[registry.Region]*RegionalState
	RenewableCapacityGW float64

	CarbonPriceETS1 float64
	CarbonPriceETS2 float64

	// Validated is false when a demoted closure equation drifted beyond
	// tolerance or the solve only reached a relaxed tolerance.
	Validated bool
}

// ScenarioResult is a full scenario trajectory. Years solved before a
// failure are retained.
type ScenarioResult struct {
	Scenario Scenario
	State    State
	Years    []*YearState
	Err      error
}

// validationTolerance bounds the demoted-equation residual (EUR million)
// beyond which a year is flagged.
const validationTolerance = 1.0

// Driver runs scenarios over a fixed horizon against one read-only
// calibrated parameter set.
type Driver struct {
	defs  *registry.Definitions
	par   *calibration.Parameters
	first int
	last  int
	opts  solver.Options
	log   *slog.Logger
}

// New builds a driver for the given horizon. The first year is the
// calibration base year.
func New(defs *registry.Definitions, par *calibration.Parameters, lastYear int, opts solver.Options, log *slog.Logger) (*Driver, error) {
	if par == nil {
		return nil, fmt.Errorf("dynamics: nil parameters")
	}
	if lastYear < par.BaseYear {
		return nil, fmt.Errorf("dynamics: horizon %d precedes base year %d", lastYear, par.BaseYear)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Driver{defs: defs, par: par, first: par.BaseYear, last: lastYear, opts: opts, log: log}, nil
}

// RunAll runs every scenario concurrently; the parameter set is shared
// read-only, all mutable state lives per goroutine. Results come back
// keyed and ordered by scenario name.
func (d *Driver) RunAll(ctx context.Context, scenarios []Scenario) ([]*ScenarioResult, error) {
	for _, sc := range scenarios {
		if err := sc.Validate(); err != nil {
			return nil, err
		}
	}

	results := make([]*ScenarioResult, len(scenarios))
	var wg sync.WaitGroup
	for i, sc := range scenarios {
		wg.Add(1)
		go func(i int, sc Scenario) {
			defer wg.Done()
			results[i] = d.RunScenario(ctx, sc)
		}(i, sc)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Scenario.Name < results[j].Scenario.Name })
	for _, r := range results {
		if r.Err != nil {
			return results, r.Err
		}
	}
	return results, nil
}

// RunScenario walks one scenario from the base year to the horizon,
// accumulating capital and warm-starting each year from the last.
func (d *Driver) RunScenario(ctx context.Context, sc Scenario) *ScenarioResult {
	res := &ScenarioResult{Scenario: sc, State: StateUninitialized}
	log := d.log.With("scenario", sc.Name)

	capital := d.par.CapitalStock
	capacity := d.baseRegionalCapacity()
	var warm map[string]float64

	for year := d.first; year <= d.last; year++ {
		yc := d.yearContext(sc, year, capital, warm)
		m, err := model.Build(d.defs, d.par, yc)
		if err != nil {
			res.State = StateFailed
			res.Err = fmt.Errorf("dynamics: scenario %s year %d: %w", sc.Name, year, err)
			return res
		}

		sr, err := solver.Solve(ctx, m, d.opts, log)
		if err != nil {
			res.State = StateFailed
			res.Err = fmt.Errorf("dynamics: scenario %s year %d: %w", sc.Name, year, err)
			return res
		}

		regional := d.regionalStates(sc, year, sr.Solution.RealGDP/d.par.GDP(), sr.Solution.Unemployment)
		capacityGW := 0.0
		for r, rs := range regional {
			capacity[r] += rs.CapacityAdditionsGW
			rs.CumulativeCapacityGW = capacity[r]
			capacityGW += capacity[r]
		}

		ys := &YearState{
			Year:            year,
			Scenario:        sc.Name,
			Outcome:         sr.Outcome,
			Stage:           sr.Stage,
			Solution:        sr.Solution,
			CapitalStock:    capital,
			LaborSupply:     yc.LaborSupply,
			Population:      d.population(year),
			RenewableShare:  renewableShare(d.defs.RenewableShare2021, sc.renewableGrowth(), year-d.first),
			CarbonPriceETS1: yc.CarbonPriceETS1,
			CarbonPriceETS2: yc.CarbonPriceETS2,

			Regional:            regional,
			RenewableCapacityGW: capacityGW,
			Validated:           sr.Outcome == solver.Optimal && sr.Solution.ValidationResidual < validationTolerance,
		}
		res.Years = append(res.Years, ys)
		if year == d.first {
			res.State = StateBaseYearSolved
		} else {
			res.State = StateYearSolved
		}

		log.Info("year solved",
			"year", year, "outcome", string(sr.Outcome), "stage", string(sr.Stage),
			"real_gdp", sr.Solution.RealGDP, "emissions_mt", sr.Solution.TotalEmissions,
			"unemployment", sr.Solution.Unemployment)

		capital = capital*(1-depreciationRate) + sr.Solution.Investment
		warm = sr.Solution.Assignment
	}
	return res
}

// yearContext assembles the exogenous environment for one scenario year.
func (d *Driver) yearContext(sc Scenario, year int, capital float64, warm map[string]float64) *model.YearContext {
	t := year - d.first
	share := renewableShare(d.defs.RenewableShare2021, sc.renewableGrowth(), t)

	yc := &model.YearContext{
		Year:               year,
		Closure:            model.ClosureRecursiveDynamic,
		CoveredETS1:        map[registry.Sector]bool{},
		CoveredETS2:        map[registry.Sector]bool{},
		ElectricityCO2:     d.defs.ElectricityCO2Factor(share),
		LaborSupply:        d.par.LaborSupply * compound(laborGrowthRate, t),
		CapitalSupply:      d.par.CapitalSupply * capital / d.par.CapitalStock,
		ProductivityFactor: compound(productivityGrowth, t),
		EnergyEfficiency:   map[registry.Sector]float64{},
		WarmStart:          warm,
	}
	if year == d.first {
		// The base year reproduces the accounts it was calibrated from.
		yc.Closure = model.ClosureCalibration
	}

	if sc.ETS1Enabled && year > d.first {
		yc.CarbonPriceETS1 = sc.priceScale() * d.defs.ETS1.CarbonPrice(year)
		yc.FreeAllocETS1 = d.defs.ETS1.FreeAllocationRate(year)
		for _, s := range d.defs.ETS1.CoveredSectors {
			yc.CoveredETS1[s] = true
		}
	}
	if sc.ETS2Enabled && year > d.first {
		yc.CarbonPriceETS2 = sc.priceScale() * d.defs.ETS2.CarbonPrice(year)
		yc.FreeAllocETS2 = d.defs.ETS2.FreeAllocationRate(year)
		for _, s := range d.defs.ETS2.CoveredSectors {
			yc.CoveredETS2[s] = true
		}
	}

	ampYears := map[registry.Sector]int{}
	if sc.ETS1Enabled {
		for _, s := range d.defs.ETS1.CoveredSectors {
			ampYears[s] = d.amplifiedYears(year, d.defs.ETS1.StartYear)
		}
	}
	if sc.ETS2Enabled {
		for _, s := range d.defs.ETS2.CoveredSectors {
			ampYears[s] = d.amplifiedYears(year, d.defs.ETS2.StartYear)
		}
	}
	for _, s := range d.defs.Sectors {
		yc.EnergyEfficiency[s] = aeeiFactor(t, ampYears[s])
	}
	return yc
}

// amplifiedYears counts the years the amplified efficiency rate has been
// accruing for a covered sector: from the later of the policy start and the
// first priced year (the base year itself is never priced).
func (d *Driver) amplifiedYears(year, startYear int) int {
	from := startYear
	if from <= d.first {
		from = d.first + 1
	}
	if n := year - from + 1; n > 0 {
		return n
	}
	return 0
}

// population in millions for a given year.
func (d *Driver) population(year int) float64 {
	return d.par.TargetPopulation * compound(populationGrowthRate, year-d.first)
}
