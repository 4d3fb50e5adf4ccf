package model

import (
	"fmt"
	"math"

	"italian-cge/internal/registry"
)

// wageCurveElasticity governs how fast the real wage falls as unemployment
// rises above its base rate.
const wageCurveElasticity = 0.1

// closureRefs indexes the market-clearing and macro-closure variables.
type closureRefs struct {
	U          Ref // unemployment rate
	Util       Ref // capital utilization
	PriceLevel Ref // consumption-weighted composite price index
	LaborSup   Ref // exogenous labor force, efficiency units
	CapitalSup Ref // exogenous capital services supply
}

func (m *Model) registerClosureVars() {
	cl := &m.clo
	cl.U = m.sys.AddVar("u", m.par.UnemploymentRate, 0.005, 0.9)
	cl.Util = m.sys.AddVar("util", 1, 0.05, 2)
	cl.PriceLevel = m.sys.AddVar("priceLevel", 1, priceLo, priceHi)
	cl.LaborSup = m.sys.AddExogenous("FS[LAB]", m.yc.LaborSupply)
	cl.CapitalSup = m.sys.AddExogenous("FS[CAP]", m.yc.CapitalSupply)
}

func (m *Model) registerClosureEqs() {
	cl := &m.clo

	// Goods markets: composite supply equals absorption in every sector.
	for _, s := range m.defs.Sectors {
		s := s
		qRef, pdRef := m.trade.Q[s], m.trade.PD[s]
		demands := make([]Ref, 0, 2+len(m.defs.Regions)+len(m.defs.Sectors))
		for _, r := range m.defs.Regions {
			demands = append(demands, m.inc.C[r][s])
		}
		demands = append(demands, m.inc.G[s], m.inc.I[s])
		for _, j := range m.defs.Sectors {
			if ref, ok := m.prod.X[s][j]; ok {
				demands = append(demands, ref)
			}
		}
		m.sys.AddEq(fmt.Sprintf("goodsClearing[%s]", s), m.sys.Name(pdRef), func(x []float64) float64 {
			d := 0.0
			for _, ref := range demands {
				d += x[ref]
			}
			return x[qRef] - d
		})
	}

	labor := make([]Ref, 0, len(m.defs.Sectors))
	capital := make([]Ref, 0, len(m.defs.Sectors))
	for _, s := range m.defs.Sectors {
		labor = append(labor, m.prod.F[registry.Labour][s])
		capital = append(capital, m.prod.F[registry.Capital][s])
	}

	// The labor force exceeds employment by the unemployment margin; the
	// wage curve then ties the wage to labor market slack.
	uRef, fslRef := cl.U, cl.LaborSup
	m.sys.AddEq("laborClearing", "u", func(x []float64) float64 {
		emp := 0.0
		for _, ref := range labor {
			emp += x[ref]
		}
		return x[fslRef] - (1+x[uRef])*emp
	})
	u0 := m.par.UnemploymentRate
	plRef := m.prod.PF[registry.Labour]
	m.sys.AddEq("wageCurve", m.sys.Name(plRef), func(x []float64) float64 {
		return x[plRef] - math.Pow(u0/x[uRef], wageCurveElasticity)
	})

	// Capital services: the rental rate clears demand against the
	// predetermined stock; utilization is the reported ratio.
	pkRef, fskRef, utilRef := m.prod.PF[registry.Capital], cl.CapitalSup, cl.Util
	m.sys.AddEq("capitalClearing", m.sys.Name(pkRef), func(x []float64) float64 {
		dem := 0.0
		for _, ref := range capital {
			dem += x[ref]
		}
		return x[fskRef] - dem
	})
	m.sys.AddEq("capitalUtilization", "util", func(x []float64) float64 {
		dem := 0.0
		for _, ref := range capital {
			dem += x[ref]
		}
		return x[utilRef] - dem/x[fskRef]
	})

	// Consumption-weighted price index, one at the base point.
	weights := make([]struct {
		pq Ref
		w  float64
	}, 0, len(m.defs.Sectors))
	totalC := 0.0
	for _, s := range m.defs.Sectors {
		for _, r := range m.defs.Regions {
			totalC += m.par.Households[r].ConsumptionPattern[s]
		}
	}
	for _, s := range m.defs.Sectors {
		cs := 0.0
		for _, r := range m.defs.Regions {
			cs += m.par.Households[r].ConsumptionPattern[s]
		}
		weights = append(weights, struct {
			pq Ref
			w  float64
		}{m.trade.PQ[s], cs / totalC})
	}
	plvRef := cl.PriceLevel
	m.sys.AddEq("priceLevel", "priceLevel", func(x []float64) float64 {
		idx := 0.0
		for _, t := range weights {
			idx += t.w * x[t.pq]
		}
		return x[plvRef] - idx
	})
}

// applyClosure pins the macro aggregates the closure rule holds fixed; the
// demoted equations become post-solve validation checks.
func (m *Model) applyClosure() error {
	if m.yc.Closure != ClosureCalibration {
		return nil
	}
	fixes := []struct {
		name  string
		value float64
	}{
		{"u", m.par.UnemploymentRate},
		{"TB", m.par.TradeBalance},
		{"GB", m.par.Government.Balance},
		{"IT", m.par.Investment.Total},
	}
	for _, f := range fixes {
		if err := m.sys.Fix(f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}
