package models

import (
	"italian-cge/internal/dynamics"
	"italian-cge/internal/registry"
	"italian-cge/internal/report"
)

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine code and a human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SimulationResponse is the response body for a completed simulation.
type SimulationResponse struct {
	BaseYear  int              `json:"base_year"`
	LastYear  int              `json:"last_year"`
	Scenarios []ScenarioResult `json:"scenarios"`
}

// ScenarioResult is one scenario's trajectory.
type ScenarioResult struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	State       string        `json:"state"`
	Years       []YearSummary `json:"years"`

	Sectors []SectorSummary `json:"sectors,omitempty"`
	Regions []RegionSummary `json:"regions,omitempty"`
}

// YearSummary is one year's macro outcome.
type YearSummary struct {
	Year      int    `json:"year"`
	Outcome   string `json:"outcome"`
	Stage     string `json:"stage"`
	Validated bool   `json:"validated"`

	NominalGDP   float64 `json:"nominal_gdp_meur"`
	RealGDP      float64 `json:"real_gdp_meur"`
	PriceLevel   float64 `json:"price_level"`
	Unemployment float64 `json:"unemployment"`
	Investment   float64 `json:"investment_meur"`
	TradeBalance float64 `json:"trade_balance_meur"`

	CarbonPriceETS1 float64 `json:"carbon_price_ets1"`
	CarbonPriceETS2 float64 `json:"carbon_price_ets2"`
	ETS1Revenue     float64 `json:"ets1_revenue_meur"`
	ETS2Revenue     float64 `json:"ets2_revenue_meur"`

	EmissionsMt         float64 `json:"emissions_mt"`
	RenewableShare      float64 `json:"renewable_share"`
	RenewableCapacityGW float64 `json:"renewable_capacity_gw"`
}

// SectorSummary is one sector-year outcome.
type SectorSummary struct {
	Year          int     `json:"year"`
	Sector        string  `json:"sector"`
	Output        float64 `json:"output_meur"`
	ValueAdded    float64 `json:"value_added_meur"`
	Exports       float64 `json:"exports_meur"`
	Imports       float64 `json:"imports_meur"`
	EnergyMWh     float64 `json:"energy_mwh"`
	EmissionsMt   float64 `json:"emissions_mt"`
	CarbonPayment float64 `json:"carbon_payment_meur"`
}

// RegionSummary is one region-year outcome.
type RegionSummary struct {
	Year             int     `json:"year"`
	Region           string  `json:"region"`
	DisposableIncome float64 `json:"disposable_income_meur"`
	Consumption      float64 `json:"consumption_meur"`
	EmissionsMt      float64 `json:"emissions_mt"`

	Population           float64 `json:"population_m"`
	RenewableInvestment  float64 `json:"renewable_investment_beur"`
	CumulativeCapacityGW float64 `json:"cumulative_capacity_gw"`
}

// FromScenarioResult flattens a solved trajectory into the wire shape.
func FromScenarioResult(defs *registry.Definitions, res *dynamics.ScenarioResult, includeSectors, includeRegions bool) ScenarioResult {
	out := ScenarioResult{
		Name:        res.Scenario.Name,
		Description: res.Scenario.Description,
		State:       string(res.State),
	}
	wrapped := []*dynamics.ScenarioResult{res}
	for _, row := range report.Annual(wrapped) {
		out.Years = append(out.Years, YearSummary{
			Year:                row.Year,
			Outcome:             row.Outcome,
			Stage:               row.Stage,
			Validated:           row.Validated,
			NominalGDP:          row.NominalGDP,
			RealGDP:             row.RealGDP,
			PriceLevel:          row.PriceLevel,
			Unemployment:        row.Unemployment,
			Investment:          row.Investment,
			TradeBalance:        row.TradeBalance,
			CarbonPriceETS1:     row.CarbonPriceETS1,
			CarbonPriceETS2:     row.CarbonPriceETS2,
			ETS1Revenue:         row.ETS1Revenue,
			ETS2Revenue:         row.ETS2Revenue,
			EmissionsMt:         row.EmissionsMt,
			RenewableShare:      row.RenewableShare,
			RenewableCapacityGW: row.RenewableCapacityGW,
		})
	}
	if includeSectors {
		for _, row := range report.Sectors(defs, wrapped) {
			out.Sectors = append(out.Sectors, SectorSummary{
				Year:          row.Year,
				Sector:        row.Sector,
				Output:        row.Output,
				ValueAdded:    row.ValueAdded,
				Exports:       row.Exports,
				Imports:       row.Imports,
				EnergyMWh:     row.EnergyMWh,
				EmissionsMt:   row.EmissionsMt,
				CarbonPayment: row.CarbonPayment,
			})
		}
	}
	if includeRegions {
		for _, row := range report.Regions(defs, wrapped) {
			out.Regions = append(out.Regions, RegionSummary{
				Year:                 row.Year,
				Region:               row.Region,
				DisposableIncome:     row.DisposableIncome,
				Consumption:          row.Consumption,
				EmissionsMt:          row.EmissionsMt,
				Population:           row.Population,
				RenewableInvestment:  row.RenewableInvestment,
				CumulativeCapacityGW: row.CumulativeCapacityGW,
			})
		}
	}
	return out
}
