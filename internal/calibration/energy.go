package calibration

import "italian-cge/internal/registry"

// Base-year energy calibration targets (Italy 2021, fuel-combustion view).
// Carrier totals in TWh; OtherFuels counts fossil volumes only (oil plus
// coal), so emissions line up with the 466 MtCO2 national total. These are
// external calibration data: swap them, do not derive them.
var carrierTotalsTWh = map[registry.Carrier]float64{
	registry.CarrierElectricity: 310.0,
	registry.CarrierGas:         720.0,
	registry.CarrierOtherFuels:  640.0,
}

// Share of each carrier's national total consumed by households; the rest
// is attributed to production sectors.
var householdCarrierPortion = map[registry.Carrier]float64{
	registry.CarrierElectricity: 0.35,
	registry.CarrierGas:         0.40,
	registry.CarrierOtherFuels:  0.20,
}

// householdEnergyBudgetShare is the share of a household's consumption
// budget spent on energy.
const householdEnergyBudgetShare = 0.15

// householdCarrierShares splits a region's energy budget over carriers.
// Northern regions heat with gas; the south leans on other fuels.
func householdCarrierShares(r registry.Region) map[registry.Carrier]float64 {
	gas := 0.25
	switch r {
	case registry.Northwest, registry.Northeast:
		gas = 0.45
	case registry.Center:
		gas = 0.35
	}
	return map[registry.Carrier]float64{
		registry.CarrierElectricity: 0.40,
		registry.CarrierGas:         gas,
		registry.CarrierOtherFuels:  1.0 - 0.40 - gas,
	}
}

// sectorCarrierWeights are relative energy intensities (per EUR of output)
// used to allocate the sector portion of each carrier's total. Industry is
// electricity- and gas-heavy; transport burns oil products.
func sectorCarrierWeights(defs *registry.Definitions, c registry.Carrier, s registry.Sector) float64 {
	switch c {
	case registry.CarrierElectricity:
		switch {
		case s == registry.Industry:
			return 3.0
		case defs.IsEnergySector(s):
			return 2.0
		case defs.IsTransportSector(s):
			return 0.5
		default:
			return 1.0
		}
	case registry.CarrierGas:
		switch {
		case s == registry.Industry:
			return 3.0
		case s == registry.Electricity:
			return 2.0 // gas-fired generation
		case defs.IsEnergySector(s):
			return 1.0
		case defs.IsTransportSector(s):
			return 0.2
		default:
			return 0.5
		}
	default: // other fuels
		switch {
		case defs.IsTransportSector(s):
			return 4.0
		case s == registry.Agriculture, s == registry.Industry:
			return 1.5
		default:
			return 0.3
		}
	}
}

const twh = 1e6 // MWh per TWh

// allocateEnergy fills in the energy side of the parameter set: sector MWh
// use with carrier mixes and intensity coefficients, household carrier
// shares and spend-to-MWh conversion factors, and the implied base-year
// emissions total.
func allocateEnergy(defs *registry.Definitions, p *Parameters) {
	// Household side first: regional MWh per carrier follows population.
	householdMWh := map[registry.Region]map[registry.Carrier]float64{}
	for _, r := range defs.Regions {
		householdMWh[r] = map[registry.Carrier]float64{}
	}
	for _, c := range defs.Carriers {
		total := carrierTotalsTWh[c] * twh * householdCarrierPortion[c]
		for _, r := range defs.Regions {
			householdMWh[r][c] = total * p.Households[r].PopulationShare
		}
	}
	for _, r := range defs.Regions {
		hp := p.Households[r]
		hp.EnergyBudgetShare = householdEnergyBudgetShare
		hp.CarrierShares = householdCarrierShares(r)
		hp.MWhPerMillionEUR = map[registry.Carrier]float64{}
		budget := hp.Consumption * hp.EnergyBudgetShare
		for _, c := range defs.Carriers {
			spend := budget * hp.CarrierShares[c]
			if spend > 0 {
				hp.MWhPerMillionEUR[c] = householdMWh[r][c] / spend
			}
		}
	}

	// Sector side: distribute the remainder of each carrier over sectors
	// by output-weighted intensity.
	sectorMWh := map[registry.Sector]map[registry.Carrier]float64{}
	for _, s := range defs.Sectors {
		sectorMWh[s] = map[registry.Carrier]float64{}
	}
	for _, c := range defs.Carriers {
		total := carrierTotalsTWh[c] * twh * (1 - householdCarrierPortion[c])
		weightSum := 0.0
		for _, s := range defs.Sectors {
			weightSum += sectorCarrierWeights(defs, c, s) * p.Sectors[s].GrossOutput
		}
		for _, s := range defs.Sectors {
			w := sectorCarrierWeights(defs, c, s) * p.Sectors[s].GrossOutput
			sectorMWh[s][c] = total * w / weightSum
		}
	}
	for _, s := range defs.Sectors {
		sp := p.Sectors[s]
		sp.CarrierMix = map[registry.Carrier]float64{}
		sp.EnergyMWh = 0
		for _, c := range defs.Carriers {
			sp.EnergyMWh += sectorMWh[s][c]
		}
		for _, c := range defs.Carriers {
			sp.CarrierMix[c] = sectorMWh[s][c] / sp.EnergyMWh
		}
		sp.EnergyIntensity = sp.EnergyMWh / (sp.GrossOutput * 8760)
	}

	// Implied national emissions at base-year factors.
	total := 0.0
	for _, c := range defs.Carriers {
		total += carrierTotalsTWh[c] * twh * defs.CO2Factors[c]
	}
	p.TotalEmissions = total / 1e9 // kg -> Mt
}
