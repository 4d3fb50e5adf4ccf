package model

import (
	"fmt"
	"math"

	"italian-cge/internal/registry"
)

// tradeRefs indexes the trade block's variables.
type tradeRefs struct {
	Q  map[registry.Sector]Ref // Armington composite supply
	D  map[registry.Sector]Ref // domestic sales
	E  map[registry.Sector]Ref // exports
	M  map[registry.Sector]Ref // imports
	PZ map[registry.Sector]Ref // producer price
	PQ map[registry.Sector]Ref // composite price
	PD map[registry.Sector]Ref // domestic price
	PE map[registry.Sector]Ref // export price (domestic currency)
	PM map[registry.Sector]Ref // import price (domestic currency, tariff inclusive)
	TB Ref                     // trade balance at border prices
	ER Ref                     // nominal exchange rate, numeraire
}

// armingtonShares are the CES share and scale parameters calibrated so the
// base point satisfies both the aggregator and its first-order condition at
// unit prices.
type armingtonShares struct {
	sigma, rho     float64
	deltaD, deltaM float64
	gamma          float64
}

// cetShares mirror armingtonShares for the export transformation frontier.
type cetShares struct {
	sigma, rho     float64
	deltaD, deltaE float64
	gamma          float64
}

func deriveArmington(d0, m0, sigma float64) armingtonShares {
	a := armingtonShares{sigma: sigma, rho: (sigma - 1) / sigma}
	r := math.Pow(m0/d0, 1/sigma)
	a.deltaD = 1 / (1 + r)
	a.deltaM = r / (1 + r)
	a.gamma = (d0 + m0) / math.Pow(a.deltaD*math.Pow(d0, a.rho)+a.deltaM*math.Pow(m0, a.rho), 1/a.rho)
	return a
}

func deriveCET(d0, e0, z0, sigma float64) cetShares {
	c := cetShares{sigma: sigma, rho: (sigma + 1) / sigma}
	r := math.Pow(e0/d0, 1/sigma)
	c.deltaD = r / (1 + r)
	c.deltaE = 1 / (1 + r)
	c.gamma = z0 / math.Pow(c.deltaE*math.Pow(e0, c.rho)+c.deltaD*math.Pow(d0, c.rho), 1/c.rho)
	return c
}

func (m *Model) registerTradeVars() {
	t := &m.trade
	t.Q = map[registry.Sector]Ref{}
	t.D = map[registry.Sector]Ref{}
	t.E = map[registry.Sector]Ref{}
	t.M = map[registry.Sector]Ref{}
	t.PZ = map[registry.Sector]Ref{}
	t.PQ = map[registry.Sector]Ref{}
	t.PD = map[registry.Sector]Ref{}
	t.PE = map[registry.Sector]Ref{}
	t.PM = map[registry.Sector]Ref{}

	for _, s := range m.defs.Sectors {
		sp := m.par.Sectors[s]
		t.Q[s] = m.addQuantity(fmt.Sprintf("Q[%s]", s), sp.DomesticSales+sp.Imports)
		t.D[s] = m.addQuantity(fmt.Sprintf("D[%s]", s), sp.DomesticSales)
		t.E[s] = m.addQuantity(fmt.Sprintf("E[%s]", s), sp.Exports)
		t.M[s] = m.addQuantity(fmt.Sprintf("M[%s]", s), sp.Imports)
		t.PZ[s] = m.sys.AddVar(fmt.Sprintf("pz[%s]", s), 1, priceLo, priceHi)
		t.PQ[s] = m.sys.AddVar(fmt.Sprintf("pq[%s]", s), 1, priceLo, priceHi)
		t.PD[s] = m.sys.AddVar(fmt.Sprintf("pd[%s]", s), 1, priceLo, priceHi)
		t.PE[s] = m.sys.AddVar(fmt.Sprintf("pe[%s]", s), 1, priceLo, priceHi)
		t.PM[s] = m.sys.AddVar(fmt.Sprintf("pm[%s]", s), 1, priceLo, priceHi)
	}

	t.TB = m.sys.AddVar("TB", m.par.TradeBalance, -valueHi, valueHi)
	// The exchange rate is the numeraire: every other price is relative to it.
	t.ER = m.sys.AddExogenous("epsilon", 1)
}

// worldImportPrice is set so the tariff-inclusive domestic import price is
// one at the base point.
func (m *Model) worldImportPrice(s registry.Sector) float64 {
	return 1 / (1 + m.par.Sectors[s].TariffRate)
}

func (m *Model) registerTradeEqs() {
	t := &m.trade

	for _, s := range m.defs.Sectors {
		s := s
		sp := m.par.Sectors[s]
		arm := deriveArmington(sp.DomesticSales, sp.Imports, sp.ArmingtonElasticity)
		cet := deriveCET(sp.DomesticSales, sp.Exports, sp.GrossOutput, sp.CETElasticity)
		pwe := 1.0
		pwm := m.worldImportPrice(s)
		trm := sp.TariffRate

		qRef, dRef, eRef, mRef := t.Q[s], t.D[s], t.E[s], t.M[s]
		pzRef, pqRef, pdRef, peRef, pmRef := t.PZ[s], t.PQ[s], t.PD[s], t.PE[s], t.PM[s]
		zRef := m.prod.Z[s]
		erRef := t.ER

		m.sys.AddEq(fmt.Sprintf("armington[%s]", s), m.sys.Name(qRef), func(x []float64) float64 {
			agg := arm.deltaD*math.Pow(x[dRef], arm.rho) + arm.deltaM*math.Pow(x[mRef], arm.rho)
			return x[qRef] - arm.gamma*math.Pow(agg, 1/arm.rho)
		})
		m.sys.AddEq(fmt.Sprintf("importDemand[%s]", s), m.sys.Name(mRef), func(x []float64) float64 {
			ratio := (x[pdRef] * arm.deltaM) / (x[pmRef] * arm.deltaD)
			return x[mRef] - x[dRef]*math.Pow(ratio, arm.sigma)
		})
		m.sys.AddEq(fmt.Sprintf("cet[%s]", s), m.sys.Name(dRef), func(x []float64) float64 {
			agg := cet.deltaE*math.Pow(x[eRef], cet.rho) + cet.deltaD*math.Pow(x[dRef], cet.rho)
			return x[zRef] - cet.gamma*math.Pow(agg, 1/cet.rho)
		})
		m.sys.AddEq(fmt.Sprintf("exportSupply[%s]", s), m.sys.Name(eRef), func(x []float64) float64 {
			ratio := (x[peRef] * cet.deltaD) / (x[pdRef] * cet.deltaE)
			return x[eRef] - x[dRef]*math.Pow(ratio, cet.sigma)
		})
		m.sys.AddEq(fmt.Sprintf("exportPrice[%s]", s), m.sys.Name(peRef), func(x []float64) float64 {
			return x[peRef] - x[erRef]*pwe
		})
		m.sys.AddEq(fmt.Sprintf("importPrice[%s]", s), m.sys.Name(pmRef), func(x []float64) float64 {
			return x[pmRef] - x[erRef]*pwm*(1+trm)
		})
		m.sys.AddEq(fmt.Sprintf("compositePrice[%s]", s), m.sys.Name(pqRef), func(x []float64) float64 {
			return x[pqRef]*x[qRef] - (x[pdRef]*x[dRef] + x[pmRef]*x[mRef])
		})
		m.sys.AddEq(fmt.Sprintf("producerPrice[%s]", s), m.sys.Name(pzRef), func(x []float64) float64 {
			return x[pzRef]*x[zRef] - (x[pdRef]*x[dRef] + x[peRef]*x[eRef])
		})
	}

	// Trade balance at border prices, in foreign currency units.
	exports := make([]Ref, 0, len(m.defs.Sectors))
	imports := make([]struct {
		ref Ref
		pwm float64
	}, 0, len(m.defs.Sectors))
	for _, s := range m.defs.Sectors {
		exports = append(exports, t.E[s])
		imports = append(imports, struct {
			ref Ref
			pwm float64
		}{t.M[s], m.worldImportPrice(s)})
	}
	tbRef := t.TB
	m.sys.AddEq("tradeBalance", "TB", func(x []float64) float64 {
		bal := 0.0
		for _, r := range exports {
			bal += x[r]
		}
		for _, im := range imports {
			bal -= im.pwm * x[im.ref]
		}
		return x[tbRef] - bal
	})
}
