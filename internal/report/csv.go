package report

import (
	"encoding/csv"
	"os"
	"strconv"
)

// WriteAnnualCSV writes the macro ledger to path.
func WriteAnnualCSV(path string, rows []AnnualRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"scenario",
		"year",
		"outcome",
		"stage",
		"validated",
		"nominal_gdp_meur",
		"real_gdp_meur",
		"price_level",
		"unemployment",
		"wage",
		"capital_rent",
		"capital_stock_meur",
		"household_consumption_meur",
		"investment_meur",
		"government_balance_meur",
		"trade_balance_meur",
		"carbon_price_ets1",
		"carbon_price_ets2",
		"ets1_revenue_meur",
		"ets2_revenue_meur",
		"emissions_mt",
		"renewable_share",
		"renewable_capacity_gw",
		"electricity_twh",
		"gas_twh",
		"other_fuels_twh",
		"per_capita_gdp",
		"emissions_per_capita_t",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		row := []string{
			r.Scenario,
			strconv.Itoa(r.Year),
			r.Outcome,
			r.Stage,
			strconv.FormatBool(r.Validated),
			fmtFloat(r.NominalGDP),
			fmtFloat(r.RealGDP),
			fmtFloat(r.PriceLevel),
			fmtFloat(r.Unemployment),
			fmtFloat(r.Wage),
			fmtFloat(r.CapitalRent),
			fmtFloat(r.CapitalStock),
			fmtFloat(r.HouseholdConsumption),
			fmtFloat(r.Investment),
			fmtFloat(r.GovernmentBalance),
			fmtFloat(r.TradeBalance),
			fmtFloat(r.CarbonPriceETS1),
			fmtFloat(r.CarbonPriceETS2),
			fmtFloat(r.ETS1Revenue),
			fmtFloat(r.ETS2Revenue),
			fmtFloat(r.EmissionsMt),
			fmtFloat(r.RenewableShare),
			fmtFloat(r.RenewableCapacityGW),
			fmtFloat(r.ElectricityTWh),
			fmtFloat(r.GasTWh),
			fmtFloat(r.OtherFuelsTWh),
			fmtFloat(r.PerCapitaGDP),
			fmtFloat(r.EmissionsPerCapT),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// WriteSectorCSV writes the per-sector ledger to path.
func WriteSectorCSV(path string, rows []SectorRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"scenario",
		"year",
		"sector",
		"output_meur",
		"value_added_meur",
		"exports_meur",
		"imports_meur",
		"producer_price",
		"composite_price",
		"employment_meur",
		"energy_mwh",
		"electricity_mwh",
		"gas_mwh",
		"other_fuels_mwh",
		"emissions_mt",
		"carbon_payment_meur",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		row := []string{
			r.Scenario,
			strconv.Itoa(r.Year),
			r.Sector,
			fmtFloat(r.Output),
			fmtFloat(r.ValueAdded),
			fmtFloat(r.Exports),
			fmtFloat(r.Imports),
			fmtFloat(r.ProducerPrice),
			fmtFloat(r.CompositePrice),
			fmtFloat(r.Employment),
			fmtFloat(r.EnergyMWh),
			fmtFloat(r.ElectricityMWh),
			fmtFloat(r.GasMWh),
			fmtFloat(r.OtherFuelsMWh),
			fmtFloat(r.EmissionsMt),
			fmtFloat(r.CarbonPayment),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// WriteRegionCSV writes the per-region household ledger to path.
func WriteRegionCSV(path string, rows []RegionRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"scenario",
		"year",
		"region",
		"disposable_income_meur",
		"consumption_meur",
		"savings_meur",
		"emissions_mt",
		"population_m",
		"labor_force_m",
		"employment_m",
		"renewable_investment_beur",
		"capacity_additions_gw",
		"cumulative_capacity_gw",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		row := []string{
			r.Scenario,
			strconv.Itoa(r.Year),
			r.Region,
			fmtFloat(r.DisposableIncome),
			fmtFloat(r.Consumption),
			fmtFloat(r.Savings),
			fmtFloat(r.EmissionsMt),
			fmtFloat(r.Population),
			fmtFloat(r.LaborForce),
			fmtFloat(r.Employment),
			fmtFloat(r.RenewableInvestment),
			fmtFloat(r.CapacityAdditionsGW),
			fmtFloat(r.CumulativeCapacityGW),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', 10, 64)
}
