package model

import (
	"fmt"
	"math"

	"italian-cge/internal/registry"
)

// hoursPerYear converts annual output to the energy-intensity basis used
// during calibration.
const hoursPerYear = 8760

// productionRefs indexes the production block's variables.
type productionRefs struct {
	Z   map[registry.Sector]Ref // gross output
	VA  map[registry.Sector]Ref // value added
	KL  map[registry.Sector]Ref // capital-labor composite
	EN  map[registry.Sector]Ref // energy use, MWh
	PVA map[registry.Sector]Ref // value-added price
	F   map[registry.Factor]map[registry.Sector]Ref
	PF  map[registry.Factor]Ref
	X   map[registry.Sector]map[registry.Sector]Ref // X[input][user]
}

// sectorTech holds the per-sector technology parameters derived from the
// calibrated base point, so every production residual is exactly zero at
// unit prices and base quantities.
type sectorTech struct {
	deltaL, deltaK float64
	alphaKL        float64
	energyCoef     float64 // MWh per unit of gross output per hour basis
}

func (m *Model) deriveTech(s registry.Sector) sectorTech {
	sp := m.par.Sectors[s]
	l := sp.FactorPayments[registry.Labour]
	k := sp.FactorPayments[registry.Capital]
	t := sectorTech{
		deltaL:     l / (l + k),
		deltaK:     k / (l + k),
		energyCoef: sp.EnergyIntensity,
	}
	t.alphaKL = (l + k) / (math.Pow(l, t.deltaL) * math.Pow(k, t.deltaK))
	return t
}

func (m *Model) registerProductionVars() {
	p := &m.prod
	p.Z = map[registry.Sector]Ref{}
	p.VA = map[registry.Sector]Ref{}
	p.KL = map[registry.Sector]Ref{}
	p.EN = map[registry.Sector]Ref{}
	p.PVA = map[registry.Sector]Ref{}
	p.F = map[registry.Factor]map[registry.Sector]Ref{}
	p.X = map[registry.Sector]map[registry.Sector]Ref{}

	for _, f := range m.defs.Factors {
		p.F[f] = map[registry.Sector]Ref{}
	}
	p.PF = map[registry.Factor]Ref{
		registry.Labour:  m.sys.AddVar("pf[LAB]", 1, priceLo, priceHi),
		registry.Capital: m.sys.AddVar("pf[CAP]", 1, priceLo, priceHi),
	}

	for _, s := range m.defs.Sectors {
		sp := m.par.Sectors[s]
		p.Z[s] = m.addQuantity(fmt.Sprintf("Z[%s]", s), sp.GrossOutput)
		p.VA[s] = m.addQuantity(fmt.Sprintf("VA[%s]", s), sp.ValueAdded)
		p.KL[s] = m.addQuantity(fmt.Sprintf("KL[%s]", s), sp.ValueAdded)
		p.EN[s] = m.addQuantity(fmt.Sprintf("EN[%s]", s), sp.EnergyMWh)
		p.PVA[s] = m.sys.AddVar(fmt.Sprintf("pva[%s]", s), 1, priceLo, priceHi)
		for _, f := range m.defs.Factors {
			p.F[f][s] = m.addQuantity(fmt.Sprintf("F[%s,%s]", f, s), sp.FactorPayments[f])
		}
		p.X[s] = map[registry.Sector]Ref{}
	}
	// Intermediate demand X[i][j]: input i used by sector j. Registered only
	// for positive coefficients.
	for _, j := range m.defs.Sectors {
		sp := m.par.Sectors[j]
		for _, i := range m.defs.Sectors {
			a := sp.InputCoefficients[i]
			if a <= 0 {
				continue
			}
			m.prod.X[i][j] = m.addQuantity(fmt.Sprintf("X[%s,%s]", i, j), a*sp.GrossOutput)
		}
	}
}

func (m *Model) registerProductionEqs() {
	p := &m.prod
	tfp := m.yc.ProductivityFactor

	for _, s := range m.defs.Sectors {
		s := s
		sp := m.par.Sectors[s]
		tech := m.deriveTech(s)
		eff := m.yc.EnergyEfficiency[s]

		zRef, vaRef, klRef, enRef := p.Z[s], p.VA[s], p.KL[s], p.EN[s]
		pvaRef := p.PVA[s]
		lRef, kRef := p.F[registry.Labour][s], p.F[registry.Capital][s]
		plRef, pkRef := p.PF[registry.Labour], p.PF[registry.Capital]

		// Leontief output: gross output exhausts value added plus
		// intermediate use.
		inputs := make([]Ref, 0, len(m.defs.Sectors))
		for _, i := range m.defs.Sectors {
			if r, ok := p.X[i][s]; ok {
				inputs = append(inputs, r)
			}
		}
		m.sys.AddEq(fmt.Sprintf("output[%s]", s), m.sys.Name(zRef), func(x []float64) float64 {
			sum := x[vaRef]
			for _, r := range inputs {
				sum += x[r]
			}
			return x[zRef] - sum
		})

		m.sys.AddEq(fmt.Sprintf("klAggregate[%s]", s), m.sys.Name(klRef), func(x []float64) float64 {
			return x[klRef] - tech.alphaKL*math.Pow(x[lRef], tech.deltaL)*math.Pow(x[kRef], tech.deltaK)
		})
		m.sys.AddEq(fmt.Sprintf("valueAdded[%s]", s), m.sys.Name(vaRef), func(x []float64) float64 {
			return x[vaRef] - tfp*x[klRef]
		})
		m.sys.AddEq(fmt.Sprintf("laborDemand[%s]", s), m.sys.Name(lRef), func(x []float64) float64 {
			return x[plRef]*x[lRef] - tech.deltaL*x[pvaRef]*x[vaRef]
		})
		m.sys.AddEq(fmt.Sprintf("capitalDemand[%s]", s), m.sys.Name(kRef), func(x []float64) float64 {
			return x[pkRef]*x[kRef] - tech.deltaK*x[pvaRef]*x[vaRef]
		})
		m.sys.AddEq(fmt.Sprintf("energyDemand[%s]", s), m.sys.Name(enRef), func(x []float64) float64 {
			return x[enRef] - tech.energyCoef*hoursPerYear*x[zRef]*eff
		})

		for _, i := range m.defs.Sectors {
			i := i
			xRef, ok := p.X[i][s]
			if !ok {
				continue
			}
			a := sp.InputCoefficients[i]
			m.sys.AddEq(fmt.Sprintf("inputDemand[%s,%s]", i, s), m.sys.Name(xRef), func(x []float64) float64 {
				return x[xRef] - a*x[zRef]
			})
		}

		// Zero profit: output value covers value added, intermediate
		// purchases at composite prices, and the net carbon payment.
		pzRef := m.trade.PZ[s]
		plcRef := m.energy.PLC[s]
		priced := make([]struct{ x, pq Ref }, 0, len(inputs))
		for _, i := range m.defs.Sectors {
			if r, ok := p.X[i][s]; ok {
				priced = append(priced, struct{ x, pq Ref }{r, m.trade.PQ[i]})
			}
		}
		m.sys.AddEq(fmt.Sprintf("zeroProfit[%s]", s), m.sys.Name(pvaRef), func(x []float64) float64 {
			cost := x[pvaRef]*x[vaRef] + x[plcRef]
			for _, in := range priced {
				cost += x[in.pq] * x[in.x]
			}
			return x[pzRef]*x[zRef] - cost
		})
	}
}
