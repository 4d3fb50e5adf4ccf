package model

import (
	"fmt"

	"italian-cge/internal/registry"
)

// incomeRefs indexes household, government and investment variables.
type incomeRefs struct {
	Td map[registry.Region]Ref // direct tax paid
	Y  map[registry.Region]Ref // disposable income
	S  map[registry.Region]Ref // household savings
	CH map[registry.Region]Ref // consumption expenditure
	C  map[registry.Region]map[registry.Sector]Ref

	YG Ref // government revenue
	CG Ref // government consumption expenditure
	GB Ref // government balance
	G  map[registry.Sector]Ref

	IT    Ref // investment expenditure
	I     map[registry.Sector]Ref
	SIGap Ref // structural savings-investment wedge, held at its base value
}

func (m *Model) registerIncomeVars() {
	in := &m.inc
	in.Td = map[registry.Region]Ref{}
	in.Y = map[registry.Region]Ref{}
	in.S = map[registry.Region]Ref{}
	in.CH = map[registry.Region]Ref{}
	in.C = map[registry.Region]map[registry.Sector]Ref{}

	for _, r := range m.defs.Regions {
		hp := m.par.Households[r]
		in.Td[r] = m.addQuantity(fmt.Sprintf("Td[%s]", r), hp.GrossIncome*hp.DirectTaxRate)
		in.Y[r] = m.addQuantity(fmt.Sprintf("Y[%s]", r), hp.NetIncome)
		in.S[r] = m.sys.AddVar(fmt.Sprintf("S[%s]", r), hp.Savings, -valueHi, valueHi)
		in.CH[r] = m.addQuantity(fmt.Sprintf("CH[%s]", r), hp.Consumption)
		in.C[r] = map[registry.Sector]Ref{}
		for _, s := range m.defs.Sectors {
			in.C[r][s] = m.addQuantity(fmt.Sprintf("C[%s,%s]", r, s), hp.ConsumptionPattern[s])
		}
	}

	gp := m.par.Government
	in.YG = m.addQuantity("YG", gp.Revenue)
	in.CG = m.addQuantity("CG", gp.Consumption)
	in.GB = m.sys.AddVar("GB", gp.Balance, -valueHi, valueHi)
	in.G = map[registry.Sector]Ref{}
	for _, s := range m.defs.Sectors {
		in.G[s] = m.addQuantity(fmt.Sprintf("G[%s]", s), gp.Consumption*gp.ConsumptionShares[s])
	}

	in.IT = m.addQuantity("IT", m.par.Investment.Total)
	in.I = map[registry.Sector]Ref{}
	for _, s := range m.defs.Sectors {
		in.I[s] = m.addQuantity(fmt.Sprintf("I[%s]", s), m.par.Investment.BySector[s])
	}
	in.SIGap = m.sys.AddExogenous("SIGap", m.par.SavingsInvGap)
}

// grossIncomeFn builds a closure returning a region's gross factor income:
// the ownership share applied to economy-wide factor payments.
func (m *Model) grossIncomeFn(r registry.Region) func(x []float64) float64 {
	own := m.par.Households[r].OwnershipShare
	type pair struct{ pf, f Ref }
	pairs := make([]pair, 0, len(m.defs.Factors)*len(m.defs.Sectors))
	for _, f := range m.defs.Factors {
		for _, s := range m.defs.Sectors {
			pairs = append(pairs, pair{m.prod.PF[f], m.prod.F[f][s]})
		}
	}
	return func(x []float64) float64 {
		total := 0.0
		for _, p := range pairs {
			total += x[p.pf] * x[p.f]
		}
		return own * total
	}
}

func (m *Model) registerIncomeEqs() {
	in := &m.inc

	for _, r := range m.defs.Regions {
		r := r
		hp := m.par.Households[r]
		gross := m.grossIncomeFn(r)
		tdRef, yRef, sRef, chRef := in.Td[r], in.Y[r], in.S[r], in.CH[r]

		m.sys.AddEq(fmt.Sprintf("directTax[%s]", r), m.sys.Name(tdRef), func(x []float64) float64 {
			return x[tdRef] - hp.DirectTaxRate*gross(x)
		})
		m.sys.AddEq(fmt.Sprintf("disposableIncome[%s]", r), m.sys.Name(yRef), func(x []float64) float64 {
			return x[yRef] - (gross(x) - x[tdRef])
		})
		m.sys.AddEq(fmt.Sprintf("householdSavings[%s]", r), m.sys.Name(sRef), func(x []float64) float64 {
			return x[sRef] - hp.SavingsRate*x[yRef]
		})
		m.sys.AddEq(fmt.Sprintf("householdBudget[%s]", r), m.sys.Name(chRef), func(x []float64) float64 {
			return x[chRef] - (x[yRef] - x[sRef])
		})

		// Linear expenditure system: committed quantities first, marginal
		// budget shares on the supernumerary remainder.
		type lesTerm struct {
			pq    Ref
			gamma float64
		}
		terms := make([]lesTerm, 0, len(m.defs.Sectors))
		for _, s := range m.defs.Sectors {
			terms = append(terms, lesTerm{m.trade.PQ[s], hp.Subsistence[s]})
		}
		for _, s := range m.defs.Sectors {
			s := s
			cRef, pqRef := in.C[r][s], m.trade.PQ[s]
			gamma := hp.Subsistence[s]
			beta := hp.BudgetShares[s]
			m.sys.AddEq(fmt.Sprintf("lesDemand[%s,%s]", r, s), m.sys.Name(cRef), func(x []float64) float64 {
				committed := 0.0
				for _, t := range terms {
					committed += x[t.pq] * t.gamma
				}
				return x[pqRef]*x[cRef] - (x[pqRef]*gamma + beta*(x[chRef]-committed))
			})
		}
	}

	// Government: direct taxes, production taxes, import duties and carbon
	// auction proceeds fund consumption at a fixed rate of revenue.
	gp := m.par.Government
	tdRefs := make([]Ref, 0, len(m.defs.Regions))
	for _, r := range m.defs.Regions {
		tdRefs = append(tdRefs, in.Td[r])
	}
	type taxTerm struct {
		rate float64
		p, q Ref
	}
	prodTax := make([]taxTerm, 0, len(m.defs.Sectors))
	duties := make([]taxTerm, 0, len(m.defs.Sectors))
	for _, s := range m.defs.Sectors {
		sp := m.par.Sectors[s]
		prodTax = append(prodTax, taxTerm{sp.IndirectTaxRate, m.trade.PZ[s], m.prod.Z[s]})
		duties = append(duties, taxTerm{sp.TariffRate * m.worldImportPrice(s), m.trade.ER, m.trade.M[s]})
	}
	ygRef, cgRef, gbRef := in.YG, in.CG, in.GB
	ets1Ref, ets2Ref := m.energy.ETS1Revenue, m.energy.ETS2Revenue
	m.sys.AddEq("governmentRevenue", "YG", func(x []float64) float64 {
		rev := x[ets1Ref] + x[ets2Ref]
		for _, r := range tdRefs {
			rev += x[r]
		}
		for _, t := range prodTax {
			rev += t.rate * x[t.p] * x[t.q]
		}
		for _, t := range duties {
			rev += t.rate * x[t.p] * x[t.q]
		}
		return x[ygRef] - rev
	})
	m.sys.AddEq("governmentConsumption", "CG", func(x []float64) float64 {
		return x[cgRef] - gp.ConsumptionRate*x[ygRef]
	})
	m.sys.AddEq("governmentBalance", "GB", func(x []float64) float64 {
		return x[gbRef] - (x[ygRef] - x[cgRef])
	})
	for _, s := range m.defs.Sectors {
		s := s
		gRef, pqRef := in.G[s], m.trade.PQ[s]
		share := gp.ConsumptionShares[s]
		m.sys.AddEq(fmt.Sprintf("governmentDemand[%s]", s), m.sys.Name(gRef), func(x []float64) float64 {
			return x[pqRef]*x[gRef] - share*x[cgRef]
		})
	}

	// Investment absorbs private, public and foreign savings net of the
	// structural wedge.
	itRef, tbRef, gapRef := in.IT, m.trade.TB, in.SIGap
	sRefs := make([]Ref, 0, len(m.defs.Regions))
	for _, r := range m.defs.Regions {
		sRefs = append(sRefs, in.S[r])
	}
	m.sys.AddEq("investmentTotal", "IT", func(x []float64) float64 {
		funds := x[gbRef] - x[tbRef] - x[gapRef]
		for _, r := range sRefs {
			funds += x[r]
		}
		return x[itRef] - funds
	})
	for _, s := range m.defs.Sectors {
		s := s
		iRef, pqRef := in.I[s], m.trade.PQ[s]
		share := m.par.Investment.SectorShares[s]
		m.sys.AddEq(fmt.Sprintf("investmentDemand[%s]", s), m.sys.Name(iRef), func(x []float64) float64 {
			return x[pqRef]*x[iRef] - share*x[itRef]
		})
	}
}
