package model

import (
	"fmt"

	"italian-cge/internal/registry"
)

// energyRefs indexes the physical energy and emissions satellite variables.
// Energy is in MWh, emissions in MtCO2, carbon payments in millions of euro
// (one MtCO2 at one euro per tonne is one million euro).
type energyRefs struct {
	EDSector map[registry.Carrier]map[registry.Sector]Ref
	EDRegion map[registry.Carrier]map[registry.Region]Ref
	Total    map[registry.Carrier]Ref

	EMSector map[registry.Sector]Ref
	EMRegion map[registry.Region]Ref
	EMTotal  Ref

	PLC         map[registry.Sector]Ref // net carbon payment by sector
	ETS1Revenue Ref
	ETS2Revenue Ref
}

// carrierFactor returns this year's emission factor in kg per MWh; the
// electricity factor tracks the renewable share path, the fuel factors are
// physical constants.
func (m *Model) carrierFactor(c registry.Carrier) float64 {
	if c == registry.CarrierElectricity {
		return m.yc.ElectricityCO2
	}
	return m.defs.CO2Factors[c]
}

func (m *Model) registerEnergyVars() {
	en := &m.energy
	en.EDSector = map[registry.Carrier]map[registry.Sector]Ref{}
	en.EDRegion = map[registry.Carrier]map[registry.Region]Ref{}
	en.Total = map[registry.Carrier]Ref{}
	en.EMSector = map[registry.Sector]Ref{}
	en.EMRegion = map[registry.Region]Ref{}
	en.PLC = map[registry.Sector]Ref{}

	for _, c := range m.defs.Carriers {
		en.EDSector[c] = map[registry.Sector]Ref{}
		en.EDRegion[c] = map[registry.Region]Ref{}
		carrierBase := 0.0
		for _, s := range m.defs.Sectors {
			sp := m.par.Sectors[s]
			if sp.CarrierMix[c] <= 0 {
				continue
			}
			base := sp.CarrierMix[c] * sp.EnergyMWh
			en.EDSector[c][s] = m.addQuantity(fmt.Sprintf("ED[%s,%s]", c, s), base)
			carrierBase += base
		}
		for _, r := range m.defs.Regions {
			hp := m.par.Households[r]
			base := hp.Consumption * hp.EnergyBudgetShare * hp.CarrierShares[c] * hp.MWhPerMillionEUR[c]
			if base <= 0 {
				continue
			}
			en.EDRegion[c][r] = m.addQuantity(fmt.Sprintf("ED[%s,%s]", c, r), base)
			carrierBase += base
		}
		en.Total[c] = m.addQuantity(fmt.Sprintf("ENTOT[%s]", c), carrierBase)
	}

	for _, s := range m.defs.Sectors {
		sp := m.par.Sectors[s]
		kg := 0.0
		for _, c := range m.defs.Carriers {
			kg += m.carrierFactor(c) * sp.CarrierMix[c] * sp.EnergyMWh
		}
		en.EMSector[s] = m.sys.AddVar(fmt.Sprintf("EM[%s]", s), kg/1e9, 0, valueHi)
		en.PLC[s] = m.sys.AddVar(fmt.Sprintf("PLC[%s]", s), 0, 0, valueHi)
	}
	for _, r := range m.defs.Regions {
		hp := m.par.Households[r]
		kg := 0.0
		for _, c := range m.defs.Carriers {
			kg += m.carrierFactor(c) * hp.Consumption * hp.EnergyBudgetShare * hp.CarrierShares[c] * hp.MWhPerMillionEUR[c]
		}
		en.EMRegion[r] = m.sys.AddVar(fmt.Sprintf("EM[%s]", r), kg/1e9, 0, valueHi)
	}
	en.EMTotal = m.sys.AddVar("EMTOT", m.par.TotalEmissions, 0, valueHi)
	en.ETS1Revenue = m.sys.AddVar("ETS1R", 0, 0, valueHi)
	en.ETS2Revenue = m.sys.AddVar("ETS2R", 0, 0, valueHi)
}

func (m *Model) registerEnergyEqs() {
	en := &m.energy

	// Sector carrier demand follows the production energy aggregate at the
	// calibrated carrier mix; household demand follows the consumption
	// budget at the calibrated conversion factors.
	for _, c := range m.defs.Carriers {
		c := c
		for _, s := range m.defs.Sectors {
			s := s
			edRef, ok := en.EDSector[c][s]
			if !ok {
				continue
			}
			mix := m.par.Sectors[s].CarrierMix[c]
			enRef := m.prod.EN[s]
			m.sys.AddEq(fmt.Sprintf("carrierDemand[%s,%s]", c, s), m.sys.Name(edRef), func(x []float64) float64 {
				return x[edRef] - mix*x[enRef]
			})
		}
		for _, r := range m.defs.Regions {
			r := r
			edRef, ok := en.EDRegion[c][r]
			if !ok {
				continue
			}
			hp := m.par.Households[r]
			conv := hp.EnergyBudgetShare * hp.CarrierShares[c] * hp.MWhPerMillionEUR[c]
			chRef := m.inc.CH[r]
			m.sys.AddEq(fmt.Sprintf("carrierDemand[%s,%s]", c, r), m.sys.Name(edRef), func(x []float64) float64 {
				return x[edRef] - conv*x[chRef]
			})
		}

		users := make([]Ref, 0, len(en.EDSector[c])+len(en.EDRegion[c]))
		for _, s := range m.defs.Sectors {
			if ref, ok := en.EDSector[c][s]; ok {
				users = append(users, ref)
			}
		}
		for _, r := range m.defs.Regions {
			if ref, ok := en.EDRegion[c][r]; ok {
				users = append(users, ref)
			}
		}
		totRef := en.Total[c]
		m.sys.AddEq(fmt.Sprintf("carrierTotal[%s]", c), m.sys.Name(totRef), func(x []float64) float64 {
			sum := 0.0
			for _, u := range users {
				sum += x[u]
			}
			return x[totRef] - sum
		})
	}

	// Emissions accounting per user and in total.
	type emTerm struct {
		ref    Ref
		factor float64
	}
	for _, s := range m.defs.Sectors {
		s := s
		terms := make([]emTerm, 0, len(m.defs.Carriers))
		for _, c := range m.defs.Carriers {
			if ref, ok := en.EDSector[c][s]; ok {
				terms = append(terms, emTerm{ref, m.carrierFactor(c)})
			}
		}
		emRef := en.EMSector[s]
		m.sys.AddEq(fmt.Sprintf("emissions[%s]", s), m.sys.Name(emRef), func(x []float64) float64 {
			kg := 0.0
			for _, t := range terms {
				kg += t.factor * x[t.ref]
			}
			return x[emRef] - kg/1e9
		})
	}
	for _, r := range m.defs.Regions {
		r := r
		terms := make([]emTerm, 0, len(m.defs.Carriers))
		for _, c := range m.defs.Carriers {
			if ref, ok := en.EDRegion[c][r]; ok {
				terms = append(terms, emTerm{ref, m.carrierFactor(c)})
			}
		}
		emRef := en.EMRegion[r]
		m.sys.AddEq(fmt.Sprintf("emissions[%s]", r), m.sys.Name(emRef), func(x []float64) float64 {
			kg := 0.0
			for _, t := range terms {
				kg += t.factor * x[t.ref]
			}
			return x[emRef] - kg/1e9
		})
	}

	all := make([]Ref, 0, len(m.defs.Sectors)+len(m.defs.Regions))
	for _, s := range m.defs.Sectors {
		all = append(all, en.EMSector[s])
	}
	for _, r := range m.defs.Regions {
		all = append(all, en.EMRegion[r])
	}
	emtRef := en.EMTotal
	m.sys.AddEq("emissionsTotal", "EMTOT", func(x []float64) float64 {
		sum := 0.0
		for _, ref := range all {
			sum += x[ref]
		}
		return x[emtRef] - sum
	})

	// Net carbon payments: each covered sector pays the scheme price on the
	// share of its emissions not granted free allocation.
	p1, p2 := m.yc.CarbonPriceETS1, m.yc.CarbonPriceETS2
	paid1 := p1 * (1 - m.yc.FreeAllocETS1)
	paid2 := p2 * (1 - m.yc.FreeAllocETS2)
	covered1 := make([]Ref, 0, len(m.defs.Sectors))
	covered2 := make([]Ref, 0, len(m.defs.Sectors))
	for _, s := range m.defs.Sectors {
		s := s
		plcRef, emRef := en.PLC[s], en.EMSector[s]
		rate := 0.0
		if m.yc.CoveredETS1[s] {
			rate += paid1
			covered1 = append(covered1, emRef)
		}
		if m.yc.CoveredETS2[s] {
			rate += paid2
			covered2 = append(covered2, emRef)
		}
		m.sys.AddEq(fmt.Sprintf("carbonPayment[%s]", s), m.sys.Name(plcRef), func(x []float64) float64 {
			return x[plcRef] - rate*x[emRef]
		})
	}

	r1Ref, r2Ref := en.ETS1Revenue, en.ETS2Revenue
	m.sys.AddEq("auctionRevenueETS1", "ETS1R", func(x []float64) float64 {
		sum := 0.0
		for _, ref := range covered1 {
			sum += x[ref]
		}
		return x[r1Ref] - paid1*sum
	})
	m.sys.AddEq("auctionRevenueETS2", "ETS2R", func(x []float64) float64 {
		sum := 0.0
		for _, ref := range covered2 {
			sum += x[ref]
		}
		return x[r2Ref] - paid2*sum
	})
}
