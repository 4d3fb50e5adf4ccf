package model

import (
	"fmt"

	"italian-cge/internal/registry"
)

// ClosureRule selects which macro aggregates are pinned during a solve.
type ClosureRule string

const (
	// ClosureCalibration pins investment, the government balance, the trade
	// balance and the unemployment rate at their calibrated values so the
	// base year reproduces the accounts exactly.
	ClosureCalibration ClosureRule = "calibration"

	// ClosureRecursiveDynamic pins factor supplies and predetermined capital
	// and lets investment, the fiscal balance and the trade balance adjust.
	ClosureRecursiveDynamic ClosureRule = "recursive-dynamic"
)

// Valid reports whether the closure rule is one of the known rules.
func (c ClosureRule) Valid() bool {
	return c == ClosureCalibration || c == ClosureRecursiveDynamic
}

// YearContext carries everything that varies across years and scenarios:
// policy prices, exogenous supplies, cumulative technology factors and the
// warm-start point. The calibrated Parameters stay read-only; all
// year-to-year state flows through here.
type YearContext struct {
	Year    int
	Closure ClosureRule

	// Carbon policy, already evaluated for this year.
	CarbonPriceETS1 float64
	CarbonPriceETS2 float64
	FreeAllocETS1   float64
	FreeAllocETS2   float64
	CoveredETS1     map[registry.Sector]bool
	CoveredETS2     map[registry.Sector]bool

	// ElectricityCO2 is this year's grid emission factor in kg per MWh.
	ElectricityCO2 float64

	// Exogenous supplies and predetermined stocks.
	LaborSupply   float64
	CapitalSupply float64

	// Cumulative technology multipliers relative to the base year.
	ProductivityFactor float64
	// EnergyEfficiency maps each sector to its cumulative autonomous
	// efficiency improvement factor (1.0 in the base year, falling).
	EnergyEfficiency map[registry.Sector]float64

	// WarmStart seeds the solver from a previous year's assignment.
	WarmStart map[string]float64
}

// Validate checks the context is complete enough to build a system from.
func (yc *YearContext) Validate() error {
	if !yc.Closure.Valid() {
		return fmt.Errorf("model: unknown closure rule %q", yc.Closure)
	}
	if yc.LaborSupply <= 0 {
		return fmt.Errorf("model: labor supply must be positive, got %g", yc.LaborSupply)
	}
	if yc.CapitalSupply <= 0 {
		return fmt.Errorf("model: capital supply must be positive, got %g", yc.CapitalSupply)
	}
	if yc.ProductivityFactor <= 0 {
		return fmt.Errorf("model: productivity factor must be positive, got %g", yc.ProductivityFactor)
	}
	if yc.ElectricityCO2 < 0 {
		return fmt.Errorf("model: electricity CO2 factor must be non-negative, got %g", yc.ElectricityCO2)
	}
	if yc.CarbonPriceETS1 < 0 || yc.CarbonPriceETS2 < 0 {
		return fmt.Errorf("model: carbon prices must be non-negative")
	}
	return nil
}

// BaseYearContext builds the context that reproduces the calibrated base
// point: unit technology factors, calibrated supplies, no carbon pricing
// unless the policies already bind in the base year.
func BaseYearContext(defs *registry.Definitions, p ClosureParams) *YearContext {
	eff := make(map[registry.Sector]float64, len(defs.Sectors))
	for _, s := range defs.Sectors {
		eff[s] = 1.0
	}
	return &YearContext{
		Year:               p.BaseYear,
		Closure:            ClosureCalibration,
		CoveredETS1:        map[registry.Sector]bool{},
		CoveredETS2:        map[registry.Sector]bool{},
		ElectricityCO2:     defs.ElectricityCO2Factor(defs.RenewableShare2021),
		LaborSupply:        p.LaborSupply,
		CapitalSupply:      p.CapitalSupply,
		ProductivityFactor: 1.0,
		EnergyEfficiency:   eff,
	}
}

// ClosureParams is the slice of calibrated aggregates the closure rules pin
// or seed. Kept small so dynamics can rebuild contexts without dragging the
// whole parameter set around.
type ClosureParams struct {
	BaseYear      int
	LaborSupply   float64
	CapitalSupply float64
}
