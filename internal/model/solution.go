package model

import "italian-cge/internal/registry"

// SectorResult is one sector's slice of a solved year.
type SectorResult struct {
	Output        float64
	ValueAdded    float64
	Exports       float64
	Imports       float64
	DomesticSales float64

	ProducerPrice  float64
	CompositePrice float64
	DomesticPrice  float64

	Employment float64
	CapitalUse float64

	EnergyMWh     float64
	CarrierMWh    map[registry.Carrier]float64
	Emissions     float64
	CarbonPayment float64
}

// RegionResult is one regional household's slice of a solved year.
type RegionResult struct {
	GrossIncome      float64
	DisposableIncome float64
	Consumption      float64
	Savings          float64
	DirectTax        float64
	Emissions        float64
	EnergyMWh        map[registry.Carrier]float64
}

// GovernmentResult summarizes the public accounts for a solved year.
type GovernmentResult struct {
	Revenue     float64
	Consumption float64
	Balance     float64
	ETS1Revenue float64
	ETS2Revenue float64
}

// Solution is the full typed view of a solved year, read off the variable
// vector through the model's ref tables.
type Solution struct {
	Year int

	NominalGDP float64
	RealGDP    float64 // value added at base-year prices

	PriceLevel   float64
	Wage         float64
	CapitalRent  float64
	Unemployment float64
	Utilization  float64

	Sectors map[registry.Sector]*SectorResult
	Regions map[registry.Region]*RegionResult

	Government   GovernmentResult
	Investment   float64
	TradeBalance float64

	CarrierTotalsMWh map[registry.Carrier]float64
	TotalEmissions   float64

	// ValidationResidual is the largest absolute residual among the demoted
	// closure equations, with the equation that produced it.
	ValidationResidual float64
	ValidationWorst    string

	// Assignment preserves the raw solution for warm-starting the next year.
	Assignment map[string]float64
}

// Solution reads a solved variable vector into the typed result view.
func (m *Model) Solution(x []float64) *Solution {
	sol := &Solution{
		Year:             m.yc.Year,
		PriceLevel:       x[m.clo.PriceLevel],
		Wage:             x[m.prod.PF[registry.Labour]],
		CapitalRent:      x[m.prod.PF[registry.Capital]],
		Unemployment:     x[m.clo.U],
		Utilization:      x[m.clo.Util],
		Sectors:          map[registry.Sector]*SectorResult{},
		Regions:          map[registry.Region]*RegionResult{},
		Investment:       x[m.inc.IT],
		TradeBalance:     x[m.trade.TB],
		CarrierTotalsMWh: map[registry.Carrier]float64{},
		TotalEmissions:   x[m.energy.EMTotal],
		Assignment:       m.sys.Assignment(x),
	}

	for _, s := range m.defs.Sectors {
		sr := &SectorResult{
			Output:         x[m.prod.Z[s]],
			ValueAdded:     x[m.prod.VA[s]],
			Exports:        x[m.trade.E[s]],
			Imports:        x[m.trade.M[s]],
			DomesticSales:  x[m.trade.D[s]],
			ProducerPrice:  x[m.trade.PZ[s]],
			CompositePrice: x[m.trade.PQ[s]],
			DomesticPrice:  x[m.trade.PD[s]],
			Employment:     x[m.prod.F[registry.Labour][s]],
			CapitalUse:     x[m.prod.F[registry.Capital][s]],
			EnergyMWh:      x[m.prod.EN[s]],
			CarrierMWh:     map[registry.Carrier]float64{},
			Emissions:      x[m.energy.EMSector[s]],
			CarbonPayment:  x[m.energy.PLC[s]],
		}
		for _, c := range m.defs.Carriers {
			if ref, ok := m.energy.EDSector[c][s]; ok {
				sr.CarrierMWh[c] = x[ref]
			}
		}
		sol.Sectors[s] = sr
		sol.NominalGDP += x[m.prod.PVA[s]] * sr.ValueAdded
		sol.RealGDP += sr.ValueAdded
	}

	for _, r := range m.defs.Regions {
		rr := &RegionResult{
			DisposableIncome: x[m.inc.Y[r]],
			Consumption:      x[m.inc.CH[r]],
			Savings:          x[m.inc.S[r]],
			DirectTax:        x[m.inc.Td[r]],
			Emissions:        x[m.energy.EMRegion[r]],
			EnergyMWh:        map[registry.Carrier]float64{},
		}
		rr.GrossIncome = rr.DisposableIncome + rr.DirectTax
		for _, c := range m.defs.Carriers {
			if ref, ok := m.energy.EDRegion[c][r]; ok {
				rr.EnergyMWh[c] = x[ref]
			}
		}
		sol.Regions[r] = rr
	}

	sol.Government = GovernmentResult{
		Revenue:     x[m.inc.YG],
		Consumption: x[m.inc.CG],
		Balance:     x[m.inc.GB],
		ETS1Revenue: x[m.energy.ETS1Revenue],
		ETS2Revenue: x[m.energy.ETS2Revenue],
	}

	for _, c := range m.defs.Carriers {
		sol.CarrierTotalsMWh[c] = x[m.energy.Total[c]]
	}

	sol.ValidationResidual, sol.ValidationWorst = m.sys.MaxCheckResidual(x)
	return sol
}
