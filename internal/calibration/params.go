// Package calibration converts a balanced accounting matrix (or, absent one,
// a synthetic data set tuned to the same aggregates) into the internally
// consistent parameter snapshot every equation block reads from.
//
// All money flows are in millions of EUR at base-year prices; energy volumes
// are MWh per year; emissions are MtCO2.
package calibration

import (
	"fmt"
	"math"

	"italian-cge/internal/registry"
)

// Targets are the scalar calibration targets for the base year.
type Targets struct {
	BaseYear          int
	GDPBillion        float64
	PopulationMillion float64
}

// Validate rejects malformed targets before any calibration work.
func (t Targets) Validate() error {
	if t.BaseYear < 1900 || t.BaseYear > 2200 {
		return fmt.Errorf("calibration: implausible base year %d", t.BaseYear)
	}
	if t.GDPBillion <= 0 {
		return fmt.Errorf("calibration: GDP target must be positive, got %.2f", t.GDPBillion)
	}
	if t.PopulationMillion <= 0 {
		return fmt.Errorf("calibration: population target must be positive, got %.2f", t.PopulationMillion)
	}
	return nil
}

// SectorParams holds the calibrated base-year position and behavioral
// parameters of one production sector.
type SectorParams struct {
	GrossOutput        float64 // Z0, EUR million
	ValueAdded         float64 // VA0 = factor payments
	IntermediateInputs float64 // sum of X0[i,j] over inputs i

	FactorPayments map[registry.Factor]float64 // L0, K0
	FactorShares   map[registry.Factor]float64 // shares of the KL bundle, sum to 1

	InputCoefficients map[registry.Sector]float64 // a[i,j] per unit of output

	// Energy position: annual MWh use, its split over carriers, and the
	// implied intensity coefficient e_j with EN0 = e_j * Z0 * 8760.
	EnergyMWh       float64
	CarrierMix      map[registry.Carrier]float64
	EnergyIntensity float64

	// Trade position at base prices (pd = pe = pm = 1).
	Exports       float64
	Imports       float64
	DomesticSales float64 // D0 = Z0 - E0

	ArmingtonElasticity float64
	CETElasticity       float64

	IndirectTaxRate float64
	TariffRate      float64
}

// HouseholdParams holds one regional household account.
type HouseholdParams struct {
	GrossIncome float64 // before direct tax
	NetIncome   float64
	Consumption float64 // total expenditure at base prices
	Savings     float64

	ConsumptionPattern map[registry.Sector]float64 // C0[h,j]
	BudgetShares       map[registry.Sector]float64 // LES marginal shares, sum to 1
	Subsistence        map[registry.Sector]float64 // LES gamma

	SavingsRate     float64 // marginal propensity to save out of net income
	DirectTaxRate   float64
	PopulationShare float64
	OwnershipShare  float64 // share of total factor income

	// Household energy: share of the consumption budget spent on energy,
	// its split over carriers, and MWh delivered per million EUR of
	// carrier spend. These are external calibration data, not derived.
	EnergyBudgetShare float64
	CarrierShares     map[registry.Carrier]float64
	MWhPerMillionEUR  map[registry.Carrier]float64
}

// GovernmentParams holds the calibrated public account.
type GovernmentParams struct {
	Revenue           float64
	Consumption       float64
	ConsumptionShares map[registry.Sector]float64 // sum to 1
	ConsumptionRate   float64                     // C_G0 / revenue
	Balance           float64                     // revenue - consumption (can be negative)
}

// InvestmentParams holds the capital account position.
type InvestmentParams struct {
	Total        float64
	BySector     map[registry.Sector]float64
	SectorShares map[registry.Sector]float64
}

// Parameters is the read-only calibrated snapshot shared by every scenario.
// Scenario runs never mutate it; year-specific adjustments are layered on
// top when the equation system for a year is built.
type Parameters struct {
	Source   string // "sam" or "synthetic"
	BaseYear int

	TargetGDP        float64 // EUR million
	TargetPopulation float64 // million persons
	CalibrationScale float64
	GDPDeviation     float64 // |calibrated - target| / target
	Warnings         []string

	Sectors    map[registry.Sector]*SectorParams
	Households map[registry.Region]*HouseholdParams
	Government GovernmentParams
	Investment InvestmentParams

	TradeBalance     float64 // exports - imports at base prices
	SavingsInvGap    float64 // base-year gap fixed under calibration closure
	LaborSupply      float64 // FS_L0 at base
	CapitalSupply    float64 // FS_K0, capital services at base
	CapitalStock     float64 // wealth stock behind CapitalSupply
	UnemploymentRate float64 // base-year rate, 8%

	TotalEmissions float64 // MtCO2 at base
}

// GDPIdentityTolerance is the relative tolerance for the per-sector
// output identity checked by Verify.
const GDPIdentityTolerance = 1e-6

// Verify checks the calibration invariants: the per-sector output identity,
// LES adding-up per household, and ownership shares summing to one. It does
// not check the GDP target (that is a recorded warning, not a failure).
func (p *Parameters) Verify(defs *registry.Definitions) error {
	for _, s := range defs.Sectors {
		sp, ok := p.Sectors[s]
		if !ok {
			return fmt.Errorf("calibration: sector %s missing from parameters", s)
		}
		if sp.GrossOutput <= 0 {
			return fmt.Errorf("calibration: sector %s has non-positive output", s)
		}
		gap := math.Abs(sp.ValueAdded+sp.IntermediateInputs-sp.GrossOutput) / sp.GrossOutput
		if gap > GDPIdentityTolerance {
			return fmt.Errorf("calibration: sector %s violates VA + intermediates = output (relative gap %.3g)", s, gap)
		}
	}

	ownSum := 0.0
	for _, r := range defs.Regions {
		hp, ok := p.Households[r]
		if !ok {
			return fmt.Errorf("calibration: region %s missing from parameters", r)
		}
		betaSum := 0.0
		for _, s := range defs.Sectors {
			betaSum += hp.BudgetShares[s]
		}
		if math.Abs(betaSum-1.0) > 1e-9 {
			return fmt.Errorf("calibration: region %s budget shares sum to %.12f", r, betaSum)
		}
		ownSum += hp.OwnershipShare
	}
	if math.Abs(ownSum-1.0) > 1e-9 {
		return fmt.Errorf("calibration: ownership shares sum to %.12f", ownSum)
	}
	return nil
}

// FactorIncome returns total base-year payments to factor f across sectors.
func (p *Parameters) FactorIncome(f registry.Factor) float64 {
	sum := 0.0
	for _, sp := range p.Sectors {
		sum += sp.FactorPayments[f]
	}
	return sum
}

// GDP returns base-year GDP as total factor income.
func (p *Parameters) GDP() float64 {
	sum := 0.0
	for _, sp := range p.Sectors {
		sum += sp.ValueAdded
	}
	return sum
}
