// Package report flattens solved scenario trajectories into ledger rows and
// CSV files, the primary artifact for "what happened" in a run.
package report

import (
	"sort"

	"italian-cge/internal/dynamics"
	"italian-cge/internal/registry"
)

// AnnualRow is one row of per-year macro output for one scenario.
type AnnualRow struct {
	Scenario string
	Year     int

	Outcome   string
	Stage     string
	Validated bool

	NominalGDP float64
	RealGDP    float64
	PriceLevel float64

	Unemployment float64
	Wage         float64
	CapitalRent  float64
	CapitalStock float64

	HouseholdConsumption float64
	Investment           float64
	GovernmentBalance    float64
	TradeBalance         float64

	CarbonPriceETS1 float64
	CarbonPriceETS2 float64
	ETS1Revenue     float64
	ETS2Revenue     float64

	EmissionsMt         float64
	RenewableShare      float64
	RenewableCapacityGW float64
	ElectricityTWh      float64
	GasTWh              float64
	OtherFuelsTWh       float64
	PerCapitaGDP        float64
	EmissionsPerCapT    float64 // tonnes per person
}

// SectorRow is one row of per-year sector output for one scenario.
type SectorRow struct {
	Scenario string
	Year     int
	Sector   string

	Output         float64
	ValueAdded     float64
	Exports        float64
	Imports        float64
	ProducerPrice  float64
	CompositePrice float64
	Employment     float64
	EnergyMWh      float64
	ElectricityMWh float64
	GasMWh         float64
	OtherFuelsMWh  float64
	EmissionsMt    float64
	CarbonPayment  float64
}

// RegionRow is one row of per-year regional household output.
type RegionRow struct {
	Scenario string
	Year     int
	Region   string

	DisposableIncome float64
	Consumption      float64
	Savings          float64
	EmissionsMt      float64

	Population           float64
	LaborForce           float64
	Employment           float64
	RenewableInvestment  float64 // EUR billion
	CapacityAdditionsGW  float64
	CumulativeCapacityGW float64
}

const mwhPerTWh = 1e6

// Annual flattens scenario results into macro rows ordered by scenario then
// year.
func Annual(results []*dynamics.ScenarioResult) []AnnualRow {
	var rows []AnnualRow
	for _, res := range results {
		for _, ys := range res.Years {
			sol := ys.Solution
			consumption := 0.0
			for _, rr := range sol.Regions {
				consumption += rr.Consumption
			}
			row := AnnualRow{
				Scenario:             ys.Scenario,
				Year:                 ys.Year,
				Outcome:              string(ys.Outcome),
				Stage:                string(ys.Stage),
				Validated:            ys.Validated,
				NominalGDP:           sol.NominalGDP,
				RealGDP:              sol.RealGDP,
				PriceLevel:           sol.PriceLevel,
				Unemployment:         sol.Unemployment,
				Wage:                 sol.Wage,
				CapitalRent:          sol.CapitalRent,
				CapitalStock:         ys.CapitalStock,
				HouseholdConsumption: consumption,
				Investment:           sol.Investment,
				GovernmentBalance:    sol.Government.Balance,
				TradeBalance:         sol.TradeBalance,
				CarbonPriceETS1:      ys.CarbonPriceETS1,
				CarbonPriceETS2:      ys.CarbonPriceETS2,
				ETS1Revenue:          sol.Government.ETS1Revenue,
				ETS2Revenue:          sol.Government.ETS2Revenue,
				EmissionsMt:          sol.TotalEmissions,
				RenewableShare:       ys.RenewableShare,
				RenewableCapacityGW:  ys.RenewableCapacityGW,
				ElectricityTWh:       sol.CarrierTotalsMWh[registry.CarrierElectricity] / mwhPerTWh,
				GasTWh:               sol.CarrierTotalsMWh[registry.CarrierGas] / mwhPerTWh,
				OtherFuelsTWh:        sol.CarrierTotalsMWh[registry.CarrierOtherFuels] / mwhPerTWh,
			}
			if ys.Population > 0 {
				row.PerCapitaGDP = sol.RealGDP / ys.Population
				row.EmissionsPerCapT = sol.TotalEmissions / ys.Population
			}
			rows = append(rows, row)
		}
	}
	sortRows(rows, func(a, b AnnualRow) bool {
		if a.Scenario != b.Scenario {
			return a.Scenario < b.Scenario
		}
		return a.Year < b.Year
	})
	return rows
}

// Sectors flattens scenario results into per-sector rows in registry order.
func Sectors(defs *registry.Definitions, results []*dynamics.ScenarioResult) []SectorRow {
	var rows []SectorRow
	for _, res := range results {
		for _, ys := range res.Years {
			for _, s := range defs.Sectors {
				sr := ys.Solution.Sectors[s]
				rows = append(rows, SectorRow{
					Scenario:       ys.Scenario,
					Year:           ys.Year,
					Sector:         string(s),
					Output:         sr.Output,
					ValueAdded:     sr.ValueAdded,
					Exports:        sr.Exports,
					Imports:        sr.Imports,
					ProducerPrice:  sr.ProducerPrice,
					CompositePrice: sr.CompositePrice,
					Employment:     sr.Employment,
					EnergyMWh:      sr.EnergyMWh,
					ElectricityMWh: sr.CarrierMWh[registry.CarrierElectricity],
					GasMWh:         sr.CarrierMWh[registry.CarrierGas],
					OtherFuelsMWh:  sr.CarrierMWh[registry.CarrierOtherFuels],
					EmissionsMt:    sr.Emissions,
					CarbonPayment:  sr.CarbonPayment,
				})
			}
		}
	}
	return rows
}

// Regions flattens scenario results into per-region household rows.
func Regions(defs *registry.Definitions, results []*dynamics.ScenarioResult) []RegionRow {
	var rows []RegionRow
	for _, res := range results {
		for _, ys := range res.Years {
			for _, r := range defs.Regions {
				rr := ys.Solution.Regions[r]
				row := RegionRow{
					Scenario:         ys.Scenario,
					Year:             ys.Year,
					Region:           string(r),
					DisposableIncome: rr.DisposableIncome,
					Consumption:      rr.Consumption,
					Savings:          rr.Savings,
					EmissionsMt:      rr.Emissions,
				}
				if rs := ys.Regional[r]; rs != nil {
					row.Population = rs.Population
					row.LaborForce = rs.LaborForce
					row.Employment = rs.Employment
					row.RenewableInvestment = rs.RenewableInvestment
					row.CapacityAdditionsGW = rs.CapacityAdditionsGW
					row.CumulativeCapacityGW = rs.CumulativeCapacityGW
				}
				rows = append(rows, row)
			}
		}
	}
	return rows
}

func sortRows[T any](rows []T, less func(a, b T) bool) {
	sort.Slice(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
}
