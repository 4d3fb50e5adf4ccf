package dynamics

import "italian-cge/internal/registry"

// RegionalState carries the per-region demographic and energy-transition
// indicators for one scenario year. These are satellite paths layered on
// the national solve: population and participation follow regional trends,
// renewable investment responds to the active carbon market.
type RegionalState struct {
	Population float64 // million persons
	LaborForce float64 // million persons
	Employment float64 // million persons

	RenewableInvestment  float64 // EUR billion in the year
	CapacityAdditionsGW  float64
	CumulativeCapacityGW float64
}

// Regional trends, 2021 onward. The south loses population to emigration
// while the center grows slightly; participation moves the other way as
// southern labor markets formalize.
var (
	regionPopulationTrend = map[registry.Region]float64{
		registry.Northwest: -0.001,
		registry.Northeast: -0.002,
		registry.Center:    0.002,
		registry.South:     -0.005,
		registry.Islands:   -0.003,
	}
	regionParticipationTrend = map[registry.Region]float64{
		registry.Northwest: -0.002,
		registry.Northeast: -0.001,
		registry.Center:    0.001,
		registry.South:     0.003,
		registry.Islands:   0.002,
	}
	// Labor force as a share of regional population in the base year.
	regionParticipation2021 = map[registry.Region]float64{
		registry.Northwest: 0.49,
		registry.Northeast: 0.54,
		registry.Center:    0.42,
		registry.South:     0.37,
		registry.Islands:   0.26,
	}

	// Renewable investment, EUR billion in the base year, and its
	// autonomous growth rate.
	regionRenewableInvestment2021 = map[registry.Region]float64{
		registry.Northwest: 2.8,
		registry.Northeast: 2.1,
		registry.Center:    1.9,
		registry.South:     3.5,
		registry.Islands:   1.2,
	}
	regionRenewableGrowth = map[registry.Region]float64{
		registry.Northwest: 0.08,
		registry.Northeast: 0.07,
		registry.Center:    0.09,
		registry.South:     0.12,
		registry.Islands:   0.15,
	}
)

const (
	// Italy's 2021 renewable generation stock and the investment cost of
	// adding to it.
	baseRenewableCapacityGW = 60.0
	investmentBnPerGW       = 6.7

	// Green-jobs effects once the ETS2 extension is active: slightly less
	// emigration from the high-potential south, slightly higher
	// participation everywhere.
	ets2PopulationRetention    = 1.002
	ets2ParticipationExpansion = 1.001
)

// carbonAcceleration scales renewable investment with the carbon price
// signal: the industrial market alone raises fossil generation costs
// moderately, the buildings-and-transport extension adds an economy-wide
// signal with an extra kick where solar and wind potential is highest.
func carbonAcceleration(r registry.Region, ets1Active, ets2Active bool) float64 {
	switch {
	case ets2Active:
		if r == registry.South || r == registry.Islands {
			return 1.6
		}
		return 1.4
	case ets1Active:
		return 1.2
	default:
		return 1.0
	}
}

// baseRegionalCapacity splits the national 2021 renewable stock across
// regions in proportion to their base-year investment.
func (d *Driver) baseRegionalCapacity() map[registry.Region]float64 {
	total := 0.0
	for _, r := range d.defs.Regions {
		total += regionRenewableInvestment2021[r]
	}
	out := make(map[registry.Region]float64, len(d.defs.Regions))
	for _, r := range d.defs.Regions {
		out[r] = baseRenewableCapacityGW * regionRenewableInvestment2021[r] / total
	}
	return out
}

// regionalStates computes the satellite indicators for one scenario year.
// gdpFactor is real GDP relative to the base year; unemployment is the
// solved national rate.
func (d *Driver) regionalStates(sc Scenario, year int, gdpFactor, unemployment float64) map[registry.Region]*RegionalState {
	t := year - d.first
	ets1Active := sc.ETS1Enabled && year > d.first
	ets2Active := sc.ETS2Enabled && year >= d.defs.ETS2.StartYear

	out := make(map[registry.Region]*RegionalState, len(d.defs.Regions))
	for _, r := range d.defs.Regions {
		pop := d.par.TargetPopulation * d.defs.PopulationShares[r] * compound(regionPopulationTrend[r], t)
		if ets2Active && (r == registry.South || r == registry.Islands) {
			pop *= ets2PopulationRetention
		}

		lf := pop * regionParticipation2021[r] * compound(regionParticipationTrend[r], t)
		if ets2Active {
			lf *= ets2ParticipationExpansion
		}

		inv := regionRenewableInvestment2021[r] *
			compound(regionRenewableGrowth[r], t) *
			carbonAcceleration(r, ets1Active, ets2Active) *
			gdpFactor

		out[r] = &RegionalState{
			Population:          pop,
			LaborForce:          lf,
			Employment:          lf * (1 - unemployment),
			RenewableInvestment: inv,
			CapacityAdditionsGW: inv / investmentBnPerGW,
		}
	}
	return out
}
