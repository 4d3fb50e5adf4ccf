package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"italian-cge/internal/dynamics"
	"italian-cge/internal/model"
	"italian-cge/internal/registry"
	"italian-cge/internal/solver"
)

func fakeResults(defs *registry.Definitions) []*dynamics.ScenarioResult {
	mkYear := func(scenario string, year int, gdp float64) *dynamics.YearState {
		sol := &model.Solution{
			Year:             year,
			NominalGDP:       gdp,
			RealGDP:          gdp,
			PriceLevel:       1,
			Sectors:          map[registry.Sector]*model.SectorResult{},
			Regions:          map[registry.Region]*model.RegionResult{},
			CarrierTotalsMWh: map[registry.Carrier]float64{},
			TotalEmissions:   450,
		}
		for i, s := range defs.Sectors {
			sol.Sectors[s] = &model.SectorResult{
				Output:        float64(100 * (i + 1)),
				ProducerPrice: 1,
				CarrierMWh: map[registry.Carrier]float64{
					registry.CarrierElectricity: 1.5e6,
					registry.CarrierGas:         0.5e6,
				},
			}
		}
		for _, r := range defs.Regions {
			sol.Regions[r] = &model.RegionResult{Consumption: 200, DisposableIncome: 250, Savings: 50}
		}
		for _, c := range defs.Carriers {
			sol.CarrierTotalsMWh[c] = 3.1e8
		}
		regional := map[registry.Region]*dynamics.RegionalState{}
		for _, r := range defs.Regions {
			regional[r] = &dynamics.RegionalState{
				Population:           59.0 * defs.PopulationShares[r],
				LaborForce:           7.0,
				Employment:           6.5,
				RenewableInvestment:  2.0,
				CapacityAdditionsGW:  2.0 / 6.7,
				CumulativeCapacityGW: 12.2 + 2.0/6.7,
			}
		}
		return &dynamics.YearState{
			Year:                year,
			Scenario:            scenario,
			Outcome:             solver.Optimal,
			Stage:               solver.StageStrict,
			Solution:            sol,
			Population:          59.0,
			Regional:            regional,
			RenewableCapacityGW: 61.0,
			Validated:           true,
		}
	}
	return []*dynamics.ScenarioResult{
		{
			Scenario: dynamics.Scenario{Name: "ETS1"},
			State:    dynamics.StateYearSolved,
			Years:    []*dynamics.YearState{mkYear("ETS1", 2021, 1.78e6), mkYear("ETS1", 2022, 1.79e6)},
		},
		{
			Scenario: dynamics.Scenario{Name: "BAU"},
			State:    dynamics.StateYearSolved,
			Years:    []*dynamics.YearState{mkYear("BAU", 2021, 1.78e6)},
		},
	}
}

func TestAnnualOrdersByScenarioThenYear(t *testing.T) {
	defs := registry.NewDefinitions()
	rows := Annual(fakeResults(defs))
	require.Len(t, rows, 3)
	assert.Equal(t, "BAU", rows[0].Scenario)
	assert.Equal(t, "ETS1", rows[1].Scenario)
	assert.Equal(t, 2021, rows[1].Year)
	assert.Equal(t, 2022, rows[2].Year)

	assert.InDelta(t, 310.0, rows[0].ElectricityTWh, 1e-9)
	assert.InDelta(t, 1.78e6/59.0, rows[0].PerCapitaGDP, 1e-6)
	assert.True(t, rows[0].Validated)
}

func TestSectorAndRegionRows(t *testing.T) {
	defs := registry.NewDefinitions()
	results := fakeResults(defs)

	srows := Sectors(defs, results)
	require.Len(t, srows, 3*len(defs.Sectors))
	assert.Equal(t, string(defs.Sectors[0]), srows[0].Sector)
	assert.InDelta(t, 1.5e6, srows[0].ElectricityMWh, 1e-9)
	assert.InDelta(t, 0.5e6, srows[0].GasMWh, 1e-9)
	assert.Zero(t, srows[0].OtherFuelsMWh)

	rrows := Regions(defs, results)
	require.Len(t, rrows, 3*len(defs.Regions))
	assert.InDelta(t, 200.0, rrows[0].Consumption, 1e-12)
	assert.InDelta(t, 2.0, rrows[0].RenewableInvestment, 1e-12)
	assert.InDelta(t, 12.2+2.0/6.7, rrows[0].CumulativeCapacityGW, 1e-12)
	assert.Greater(t, rrows[0].Population, 0.0)
}

func TestWriteCSVRoundTrip(t *testing.T) {
	defs := registry.NewDefinitions()
	results := fakeResults(defs)
	dir := t.TempDir()

	annual := filepath.Join(dir, "annual.csv")
	require.NoError(t, WriteAnnualCSV(annual, Annual(results)))
	sector := filepath.Join(dir, "sector.csv")
	require.NoError(t, WriteSectorCSV(sector, Sectors(defs, results)))
	region := filepath.Join(dir, "region.csv")
	require.NoError(t, WriteRegionCSV(region, Regions(defs, results)))

	f, err := os.Open(annual)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4, "header plus three rows")
	assert.Equal(t, "scenario", records[0][0])
	assert.Equal(t, "BAU", records[1][0])
	assert.Equal(t, "2022", records[3][1])
}
