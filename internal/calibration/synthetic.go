package calibration

import (
	"fmt"

	"italian-cge/internal/registry"
)

// Hand-tuned base-year structure used when no accounting matrix is
// available. Shares reflect the 2021 Italian economy at the model's
// sector granularity and reproduce the same calibration targets as the
// SAM-driven path.

var valueAddedShares = map[registry.Sector]float64{
	registry.Agriculture:    0.020,
	registry.Industry:       0.240,
	registry.Electricity:    0.020,
	registry.Gas:            0.010,
	registry.OtherEnergy:    0.020,
	registry.RoadTransport:  0.040,
	registry.RailTransport:  0.005,
	registry.AirTransport:   0.005,
	registry.WaterTransport: 0.005,
	registry.OtherTransport: 0.015,
	registry.Services:       0.620,
}

var intermediateShares = map[registry.Sector]float64{
	registry.Agriculture:    0.45,
	registry.Industry:       0.60,
	registry.Electricity:    0.55,
	registry.Gas:            0.50,
	registry.OtherEnergy:    0.60,
	registry.RoadTransport:  0.50,
	registry.RailTransport:  0.50,
	registry.AirTransport:   0.50,
	registry.WaterTransport: 0.50,
	registry.OtherTransport: 0.50,
	registry.Services:       0.35,
}

var labourShares = map[registry.Sector]float64{
	registry.Agriculture:    0.45,
	registry.Industry:       0.60,
	registry.Electricity:    0.40,
	registry.Gas:            0.40,
	registry.OtherEnergy:    0.40,
	registry.RoadTransport:  0.55,
	registry.RailTransport:  0.55,
	registry.AirTransport:   0.55,
	registry.WaterTransport: 0.55,
	registry.OtherTransport: 0.55,
	registry.Services:       0.65,
}

var householdBudgetShares = map[registry.Sector]float64{
	registry.Agriculture:    0.140,
	registry.Industry:       0.240,
	registry.Electricity:    0.040,
	registry.Gas:            0.040,
	registry.OtherEnergy:    0.050,
	registry.RoadTransport:  0.060,
	registry.RailTransport:  0.010,
	registry.AirTransport:   0.010,
	registry.WaterTransport: 0.003,
	registry.OtherTransport: 0.017,
	registry.Services:       0.390,
}

var governmentShares = map[registry.Sector]float64{
	registry.Agriculture:    0.010,
	registry.Industry:       0.100,
	registry.Electricity:    0.010,
	registry.Gas:            0.005,
	registry.OtherEnergy:    0.005,
	registry.RoadTransport:  0.020,
	registry.RailTransport:  0.020,
	registry.AirTransport:   0.005,
	registry.WaterTransport: 0.005,
	registry.OtherTransport: 0.010,
	registry.Services:       0.810,
}

var investmentShares = map[registry.Sector]float64{
	registry.Agriculture:    0.01,
	registry.Industry:       0.35,
	registry.Electricity:    0.12,
	registry.Gas:            0.08,
	registry.OtherEnergy:    0.04,
	registry.RoadTransport:  0.04,
	registry.RailTransport:  0.03,
	registry.AirTransport:   0.01,
	registry.WaterTransport: 0.01,
	registry.OtherTransport: 0.01,
	registry.Services:       0.30,
}

var exportShares = map[registry.Sector]float64{
	registry.Agriculture:    0.10,
	registry.Industry:       0.30,
	registry.Electricity:    0.02,
	registry.Gas:            0.01,
	registry.OtherEnergy:    0.10,
	registry.RoadTransport:  0.05,
	registry.RailTransport:  0.02,
	registry.AirTransport:   0.25,
	registry.WaterTransport: 0.30,
	registry.OtherTransport: 0.10,
	registry.Services:       0.08,
}

// Regional income index relative to the national mean; combined with
// population shares it fixes the household income distribution.
var regionalIncomeIndex = map[registry.Region]float64{
	registry.Northwest: 1.15,
	registry.Northeast: 1.10,
	registry.Center:    1.05,
	registry.South:     0.80,
	registry.Islands:   0.75,
}

var regionalSavingsRates = map[registry.Region]float64{
	registry.Northwest: 0.10,
	registry.Northeast: 0.10,
	registry.Center:    0.09,
	registry.South:     0.07,
	registry.Islands:   0.06,
}

const (
	syntheticDirectTaxRate  = 0.18
	syntheticIndirectRate   = 0.09
	syntheticTariffRate     = 0.02
	syntheticInvestmentRate = 0.20 // of GDP
	syntheticDeficitRate    = 0.02 // government spends revenue * (1 + rate)

	// LES subsistence is half of observed base consumption; the other
	// half is allocated by marginal shares.
	lesSubsistenceFraction = 0.5

	baseUnemploymentRate = 0.08
	capitalOutputRatio   = 3.0
)

// armingtonElasticity follows the literature ordering: high substitutability
// for agriculture and services, low for energy.
func armingtonElasticity(defs *registry.Definitions, s registry.Sector) float64 {
	switch {
	case s == registry.Agriculture, s == registry.Services:
		return 2.5
	case defs.IsEnergySector(s):
		return 1.5
	default:
		return 2.0
	}
}

const cetElasticity = 2.0

// Synthetic builds a fully consistent parameter set from the hand-tuned
// structure above, calibrated to the given targets. It is the fallback used
// when no accounting matrix is supplied.
func Synthetic(defs *registry.Definitions, targets Targets) (*Parameters, error) {
	if err := targets.Validate(); err != nil {
		return nil, err
	}
	gdp := targets.GDPBillion * 1000 // EUR million

	p := &Parameters{
		Source:           "synthetic",
		BaseYear:         targets.BaseYear,
		TargetGDP:        gdp,
		TargetPopulation: targets.PopulationMillion,
		CalibrationScale: 1.0,
		Sectors:          map[registry.Sector]*SectorParams{},
		Households:       map[registry.Region]*HouseholdParams{},
		UnemploymentRate: baseUnemploymentRate,
	}

	// Production side: value added by share, output from the intermediate
	// share, intermediates allocated over supplying sectors by size.
	for _, s := range defs.Sectors {
		va := gdp * valueAddedShares[s]
		z := va / (1 - intermediateShares[s])
		lab := va * labourShares[s]
		p.Sectors[s] = &SectorParams{
			GrossOutput:        z,
			ValueAdded:         va,
			IntermediateInputs: z - va,
			FactorPayments: map[registry.Factor]float64{
				registry.Labour:  lab,
				registry.Capital: va - lab,
			},
			FactorShares: map[registry.Factor]float64{
				registry.Labour:  lab / va,
				registry.Capital: (va - lab) / va,
			},
			ArmingtonElasticity: armingtonElasticity(defs, s),
			CETElasticity:       cetElasticity,
			IndirectTaxRate:     syntheticIndirectRate,
			TariffRate:          syntheticTariffRate,
		}
	}
	fillInputCoefficients(defs, p)

	// Household side: income follows population weighted by the regional
	// income index; taxes, savings and the consumption pattern follow.
	weightSum := 0.0
	for _, r := range defs.Regions {
		weightSum += defs.PopulationShares[r] * regionalIncomeIndex[r]
	}
	for _, r := range defs.Regions {
		share := defs.PopulationShares[r] * regionalIncomeIndex[r] / weightSum
		gross := gdp * share
		tax := gross * syntheticDirectTaxRate
		net := gross - tax
		savings := net * regionalSavingsRates[r]
		consumption := net - savings

		hp := &HouseholdParams{
			GrossIncome:        gross,
			NetIncome:          net,
			Consumption:        consumption,
			Savings:            savings,
			SavingsRate:        regionalSavingsRates[r],
			DirectTaxRate:      syntheticDirectTaxRate,
			PopulationShare:    defs.PopulationShares[r],
			OwnershipShare:     share,
			ConsumptionPattern: map[registry.Sector]float64{},
		}
		for _, s := range defs.Sectors {
			hp.ConsumptionPattern[s] = consumption * householdBudgetShares[s]
		}
		p.Households[r] = hp
	}
	deriveLES(defs, p)

	if err := finishAccounts(defs, p, governmentShares, investmentShares, exportShares); err != nil {
		return nil, err
	}

	if err := p.Verify(defs); err != nil {
		return nil, fmt.Errorf("synthetic calibration inconsistent: %w", err)
	}
	return p, nil
}

// fillInputCoefficients distributes each sector's intermediate total over
// supplying sectors in proportion to supplier size, with no self-supply,
// so the column coefficients sum exactly to the intermediate share.
func fillInputCoefficients(defs *registry.Definitions, p *Parameters) {
	for _, j := range defs.Sectors {
		sp := p.Sectors[j]
		sp.InputCoefficients = map[registry.Sector]float64{}
		weightSum := 0.0
		for _, i := range defs.Sectors {
			if i == j {
				continue
			}
			weightSum += p.Sectors[i].GrossOutput
		}
		for _, i := range defs.Sectors {
			if i == j {
				sp.InputCoefficients[i] = 0
				continue
			}
			flow := sp.IntermediateInputs * p.Sectors[i].GrossOutput / weightSum
			sp.InputCoefficients[i] = flow / sp.GrossOutput
		}
	}
}

// deriveLES sets the subsistence quantities and marginal budget shares from
// the observed consumption pattern, so the demand system reproduces the base
// point exactly and marginal shares sum to one.
func deriveLES(defs *registry.Definitions, p *Parameters) {
	for _, r := range defs.Regions {
		hp := p.Households[r]
		hp.Subsistence = map[registry.Sector]float64{}
		hp.BudgetShares = map[registry.Sector]float64{}
		supernumerary := 0.0
		for _, s := range defs.Sectors {
			hp.Subsistence[s] = hp.ConsumptionPattern[s] * lesSubsistenceFraction
			supernumerary += hp.ConsumptionPattern[s] - hp.Subsistence[s]
		}
		for _, s := range defs.Sectors {
			hp.BudgetShares[s] = (hp.ConsumptionPattern[s] - hp.Subsistence[s]) / supernumerary
		}
	}
}

// finishAccounts closes the accounting loop shared by both calibration
// paths: government revenue and spending (a small fixed point, since tariff
// revenue depends on imports which depend on government demand), investment
// allocation, trade residuals per sector, factor supplies and the base-year
// savings-investment gap. After this the goods market clears exactly in
// every sector at base prices.
func finishAccounts(defs *registry.Definitions, p *Parameters, govShares, invShares, expShares map[registry.Sector]float64) error {
	gdp := p.GDP()

	directTax := 0.0
	totalSavings := 0.0
	for _, r := range defs.Regions {
		directTax += p.Households[r].GrossIncome * p.Households[r].DirectTaxRate
		totalSavings += p.Households[r].Savings
	}
	indirectTax := 0.0
	for _, s := range defs.Sectors {
		indirectTax += p.Sectors[s].IndirectTaxRate * p.Sectors[s].GrossOutput
	}

	invTotal := gdp * syntheticInvestmentRate
	if p.Investment.Total > 0 {
		invTotal = p.Investment.Total
	}
	p.Investment = InvestmentParams{
		Total:        invTotal,
		BySector:     map[registry.Sector]float64{},
		SectorShares: map[registry.Sector]float64{},
	}
	for _, s := range defs.Sectors {
		p.Investment.SectorShares[s] = invShares[s]
		p.Investment.BySector[s] = invTotal * invShares[s]
	}

	// Fixed point over imports -> tariff revenue -> government demand.
	imports := map[registry.Sector]float64{}
	exports := map[registry.Sector]float64{}
	for _, s := range defs.Sectors {
		imports[s] = 0.25 * p.Sectors[s].GrossOutput
	}
	var revenue, gov float64
	for iter := 0; iter < 50; iter++ {
		tariff := 0.0
		for _, s := range defs.Sectors {
			// Imports are valued tariff-inclusive at domestic prices, so the
			// duty is the rate applied to the border value.
			trm := p.Sectors[s].TariffRate
			tariff += trm / (1 + trm) * imports[s]
		}
		revenue = directTax + indirectTax + tariff
		gov = revenue * (1 + syntheticDeficitRate)

		maxShift := 0.0
		for _, s := range defs.Sectors {
			sp := p.Sectors[s]
			demand := gov*govShares[s] + p.Investment.BySector[s]
			for _, r := range defs.Regions {
				demand += p.Households[r].ConsumptionPattern[s]
			}
			for _, j := range defs.Sectors {
				demand += p.Sectors[j].InputCoefficients[s] * p.Sectors[j].GrossOutput
			}

			e := expShares[s] * sp.GrossOutput
			m := demand - sp.GrossOutput + e
			if min := 0.01 * sp.GrossOutput; m < min {
				// Supply exceeds absorption: export the surplus.
				e += min - m
				m = min
			}
			if shift := abs(m - imports[s]); shift > maxShift {
				maxShift = shift
			}
			imports[s] = m
			exports[s] = e
		}
		if maxShift < 1e-9 {
			break
		}
	}

	totalExports, totalImports := 0.0, 0.0
	for _, s := range defs.Sectors {
		sp := p.Sectors[s]
		sp.Exports = exports[s]
		sp.Imports = imports[s]
		sp.DomesticSales = sp.GrossOutput - sp.Exports
		if sp.DomesticSales <= 0 {
			return fmt.Errorf("calibration: sector %s exports exceed output", s)
		}
		totalExports += sp.Exports
		totalImports += sp.Imports / (1 + sp.TariffRate)
	}
	// Border-price valuation: export and import values net of duties.
	p.TradeBalance = totalExports - totalImports

	p.Government = GovernmentParams{
		Revenue:           revenue,
		Consumption:       gov,
		ConsumptionShares: map[registry.Sector]float64{},
		ConsumptionRate:   gov / revenue,
		Balance:           revenue - gov,
	}
	for _, s := range defs.Sectors {
		p.Government.ConsumptionShares[s] = govShares[s]
	}

	// Factor supplies and capital wealth.
	p.LaborSupply = (1 + p.UnemploymentRate) * p.FactorIncome(registry.Labour)
	p.CapitalSupply = p.FactorIncome(registry.Capital)
	p.CapitalStock = capitalOutputRatio * gdp

	foreignSavings := -p.TradeBalance
	p.SavingsInvGap = totalSavings + p.Government.Balance + foreignSavings - p.Investment.Total

	allocateEnergy(defs, p)

	p.GDPDeviation = abs(gdp-p.TargetGDP) / p.TargetGDP
	if p.GDPDeviation > 0.05 {
		p.Warnings = append(p.Warnings,
			fmt.Sprintf("calibrated GDP deviates from target by %.1f%%", p.GDPDeviation*100))
	}
	return nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
