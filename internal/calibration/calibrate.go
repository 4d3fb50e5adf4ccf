package calibration

import (
	"fmt"
	"log/slog"

	"italian-cge/internal/registry"
	"italian-cge/internal/sam"
)

// SAM account names outside the sector/factor/household blocks.
const (
	accountGovernment = "Government"
	accountCapital    = "Capital Account"
	accountROW        = "Rest of World"
	accountTaxes      = "Taxes on products and imports"
)

// maxIntermediateShare caps the intermediate-input share of any sector's
// output; raw matrices occasionally imply shares near or above one, which
// no production structure can support.
const maxIntermediateShare = 0.75

// Load builds the parameter snapshot: from the accounting matrix at samPath
// when one is given, otherwise from the synthetic fallback. The matrix is
// balance-validated (RAS-repaired if needed) before calibration.
func Load(defs *registry.Definitions, samPath string, targets Targets, log *slog.Logger) (*Parameters, error) {
	if log == nil {
		log = slog.Default()
	}
	if samPath == "" {
		log.Info("no accounting matrix supplied, using synthetic calibration",
			"base_year", targets.BaseYear, "gdp_target_bn", targets.GDPBillion)
		return Synthetic(defs, targets)
	}

	m, err := sam.LoadCSV(samPath)
	if err != nil {
		return nil, err
	}
	worst, _ := m.MaxImbalance()
	if err := m.Validate(sam.DefaultTolerance); err != nil {
		return nil, err
	}
	log.Info("accounting matrix loaded", "path", samPath, "accounts", m.Size(), "initial_imbalance", worst)
	return Calibrate(defs, m, targets)
}

// Calibrate derives the full parameter snapshot from a balanced accounting
// matrix and the scalar targets. Flows are rescaled so total factor income
// hits the GDP target, identities are enforced exactly (with renormalization
// warnings where the raw data was implausible), and the same account-closing
// path as the synthetic calibration finishes the job.
func Calibrate(defs *registry.Definitions, m *sam.Matrix, targets Targets) (*Parameters, error) {
	if err := targets.Validate(); err != nil {
		return nil, err
	}
	for _, f := range defs.Factors {
		if !m.Has(defs.FactorName(f)) {
			return nil, fmt.Errorf("calibration: matrix is missing factor account %q", defs.FactorName(f))
		}
	}

	gdpTarget := targets.GDPBillion * 1000

	// Scale so factor income matches the GDP target.
	factorIncome := 0.0
	for _, f := range defs.Factors {
		for _, s := range defs.Sectors {
			factorIncome += m.At(defs.FactorName(f), defs.SectorName(s))
		}
	}
	if factorIncome <= 0 {
		return nil, fmt.Errorf("calibration: matrix carries no factor payments")
	}
	scale := gdpTarget / factorIncome

	p := &Parameters{
		Source:           "sam",
		BaseYear:         targets.BaseYear,
		TargetGDP:        gdpTarget,
		TargetPopulation: targets.PopulationMillion,
		CalibrationScale: scale,
		Sectors:          map[registry.Sector]*SectorParams{},
		Households:       map[registry.Region]*HouseholdParams{},
		UnemploymentRate: baseUnemploymentRate,
	}

	// Production side.
	for _, s := range defs.Sectors {
		name := defs.SectorName(s)
		lab := m.At(defs.FactorName(registry.Labour), name) * scale
		cap := m.At(defs.FactorName(registry.Capital), name) * scale
		va := lab + cap
		if va <= 0 {
			return nil, fmt.Errorf("calibration: sector %s has no factor payments", s)
		}

		inter := 0.0
		flows := map[registry.Sector]float64{}
		for _, i := range defs.Sectors {
			flow := m.At(defs.SectorName(i), name) * scale
			if i == s {
				flow = 0 // no self-supply
			}
			flows[i] = flow
			inter += flow
		}
		// Renormalize implausibly input-heavy columns.
		if share := inter / (inter + va); share > maxIntermediateShare {
			target := va * maxIntermediateShare / (1 - maxIntermediateShare)
			ratio := target / inter
			for i := range flows {
				flows[i] *= ratio
			}
			inter = target
			p.Warnings = append(p.Warnings,
				fmt.Sprintf("sector %s intermediate share %.2f renormalized to %.2f", s, share, maxIntermediateShare))
		}

		z := va + inter
		sp := &SectorParams{
			GrossOutput:        z,
			ValueAdded:         va,
			IntermediateInputs: inter,
			FactorPayments: map[registry.Factor]float64{
				registry.Labour:  lab,
				registry.Capital: cap,
			},
			FactorShares: map[registry.Factor]float64{
				registry.Labour:  lab / va,
				registry.Capital: cap / va,
			},
			InputCoefficients:   map[registry.Sector]float64{},
			ArmingtonElasticity: armingtonElasticity(defs, s),
			CETElasticity:       cetElasticity,
			TariffRate:          syntheticTariffRate,
			IndirectTaxRate:     syntheticIndirectRate,
		}
		for i, flow := range flows {
			sp.InputCoefficients[i] = flow / z
		}
		if m.Has(accountTaxes) {
			if tax := m.At(accountTaxes, name) * scale; tax > 0 {
				sp.IndirectTaxRate = tax / z
			}
		}
		p.Sectors[s] = sp
	}

	// Household side: pattern, savings and direct tax from the matrix,
	// then rescale gross incomes so they exhaust factor income exactly.
	grossTotal := 0.0
	for _, r := range defs.Regions {
		account := defs.RegionAccount(r)
		if !m.Has(account) {
			return nil, fmt.Errorf("calibration: matrix is missing household account %q", account)
		}
		pattern := map[registry.Sector]float64{}
		consumption := 0.0
		for _, s := range defs.Sectors {
			c := m.At(defs.SectorName(s), account) * scale
			pattern[s] = c
			consumption += c
		}
		if consumption <= 0 {
			return nil, fmt.Errorf("calibration: household %s has no consumption", r)
		}
		savings := m.At(accountCapital, account) * scale
		tax := m.At(accountGovernment, account) * scale
		gross := consumption + savings + tax

		hp := &HouseholdParams{
			GrossIncome:        gross,
			Consumption:        consumption,
			Savings:            savings,
			ConsumptionPattern: pattern,
			PopulationShare:    defs.PopulationShares[r],
		}
		p.Households[r] = hp
		grossTotal += gross
	}
	adjust := gdpTarget / grossTotal
	for _, r := range defs.Regions {
		hp := p.Households[r]
		hp.GrossIncome *= adjust
		hp.Consumption *= adjust
		hp.Savings *= adjust
		for s := range hp.ConsumptionPattern {
			hp.ConsumptionPattern[s] *= adjust
		}
		tax := hp.GrossIncome - hp.Consumption - hp.Savings
		if tax < 0 {
			tax = 0
		}
		hp.DirectTaxRate = clamp(tax/hp.GrossIncome, 0.05, 0.45)
		hp.NetIncome = hp.GrossIncome * (1 - hp.DirectTaxRate)
		hp.SavingsRate = clamp(hp.Savings/hp.NetIncome, 0.01, 0.50)
		hp.Savings = hp.SavingsRate * hp.NetIncome
		hp.Consumption = hp.NetIncome - hp.Savings
		ratio := hp.Consumption / sum(hp.ConsumptionPattern)
		for s := range hp.ConsumptionPattern {
			hp.ConsumptionPattern[s] *= ratio
		}
		hp.OwnershipShare = hp.GrossIncome / gdpTarget
	}
	deriveLES(defs, p)

	// Government, investment and export structure from the matrix.
	govShares, err := columnShares(defs, m, accountGovernment, scale)
	if err != nil {
		return nil, err
	}
	invShares, err := columnShares(defs, m, accountCapital, scale)
	if err != nil {
		return nil, err
	}
	invTotal := 0.0
	for _, s := range defs.Sectors {
		invTotal += m.At(defs.SectorName(s), accountCapital) * scale
	}
	p.Investment.Total = invTotal

	expShares := map[registry.Sector]float64{}
	for _, s := range defs.Sectors {
		e := m.At(defs.SectorName(s), accountROW) * scale
		expShares[s] = clamp(e/p.Sectors[s].GrossOutput, 0, 0.8)
	}

	if err := finishAccounts(defs, p, govShares, invShares, expShares); err != nil {
		return nil, err
	}
	if err := p.Verify(defs); err != nil {
		return nil, fmt.Errorf("calibration from matrix inconsistent: %w", err)
	}
	return p, nil
}

// columnShares normalizes a SAM column over the sector rows.
func columnShares(defs *registry.Definitions, m *sam.Matrix, account string, scale float64) (map[registry.Sector]float64, error) {
	if !m.Has(account) {
		return nil, fmt.Errorf("calibration: matrix is missing account %q", account)
	}
	total := 0.0
	for _, s := range defs.Sectors {
		total += m.At(defs.SectorName(s), account) * scale
	}
	if total <= 0 {
		return nil, fmt.Errorf("calibration: account %q buys nothing from sectors", account)
	}
	out := map[registry.Sector]float64{}
	for _, s := range defs.Sectors {
		out[s] = m.At(defs.SectorName(s), account) * scale / total
	}
	return out, nil
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func sum(m map[registry.Sector]float64) float64 {
	s := 0.0
	for _, v := range m {
		s += v
	}
	return s
}
