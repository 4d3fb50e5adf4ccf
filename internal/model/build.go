package model

import (
	"fmt"

	"italian-cge/internal/calibration"
	"italian-cge/internal/registry"
)

// Variable bound conventions. Prices move within two orders of magnitude of
// the base; quantities within four; pure value aggregates are unrestricted
// in sign.
const (
	priceLo = 1e-3
	priceHi = 1e3
	valueHi = 1e15
)

// Model is one year's assembled equilibrium system together with the ref
// tables the reporting layer reads results through.
type Model struct {
	defs *registry.Definitions
	par  *calibration.Parameters
	yc   *YearContext
	sys  *System

	prod   productionRefs
	inc    incomeRefs
	trade  tradeRefs
	energy energyRefs
	clo    closureRefs
}

// Build assembles the full system for a year context against a read-only
// calibrated parameter set. Registration happens in two phases so every
// block can reference every other block's variables.
func Build(defs *registry.Definitions, par *calibration.Parameters, yc *YearContext) (*Model, error) {
	if err := yc.Validate(); err != nil {
		return nil, err
	}
	m := &Model{defs: defs, par: par, yc: yc, sys: NewSystem()}

	m.registerProductionVars()
	m.registerTradeVars()
	m.registerIncomeVars()
	m.registerEnergyVars()
	m.registerClosureVars()

	m.registerProductionEqs()
	m.registerTradeEqs()
	m.registerIncomeEqs()
	m.registerEnergyEqs()
	m.registerClosureEqs()

	if err := m.applyClosure(); err != nil {
		return nil, err
	}
	if err := m.sys.Finalize(); err != nil {
		return nil, fmt.Errorf("model: year %d assembly: %w", yc.Year, err)
	}
	return m, nil
}

// System exposes the assembled equation system for the solver.
func (m *Model) System() *System { return m.sys }

// Year returns the model year.
func (m *Model) Year() int { return m.yc.Year }

// InitialPoint seeds the solve from the calibrated base point, overlaid
// with the warm start carried in the year context.
func (m *Model) InitialPoint() []float64 {
	return m.sys.InitialPoint(m.yc.WarmStart)
}

// addQuantity registers a positive quantity variable with bounds scaled to
// its base value. Zero-based quantities stay pinned to the non-negative
// axis.
func (m *Model) addQuantity(name string, base float64) Ref {
	if base <= 0 {
		return m.sys.AddVar(name, 0, 0, valueHi)
	}
	return m.sys.AddVar(name, base, base*1e-4, base*1e4)
}
