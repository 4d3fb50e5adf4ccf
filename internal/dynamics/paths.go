// Package dynamics steps the calibrated economy through time: each year's
// equilibrium feeds capital accumulation and the exogenous paths that shape
// the next year's system.
package dynamics

import "math"

// Exogenous annual rates for Italy's recursive-dynamic path. Demographics
// shrink slowly; productivity and autonomous energy efficiency improve.
const (
	laborGrowthRate      = -0.002
	populationGrowthRate = -0.001
	productivityGrowth   = 0.008
	aeeiRate             = 0.01
	// Sectors facing a carbon price improve efficiency faster.
	aeeiCoveredAmplifier = 1.5

	depreciationRate = 0.05

	baseRenewableGrowth = 0.01
	maxRenewableShare   = 0.80
)

// compound returns (1+rate)^years.
func compound(rate float64, years int) float64 {
	return math.Pow(1+rate, float64(years))
}

// aeeiFactor is the cumulative autonomous efficiency factor after the given
// number of years. The carbon-priced amplifier accrues only over the
// trailing ampYears, so a sector whose market opens mid-horizon improves at
// the plain rate until then.
func aeeiFactor(years, ampYears int) float64 {
	if ampYears > years {
		ampYears = years
	}
	if ampYears < 0 {
		ampYears = 0
	}
	plain := math.Pow(1-aeeiRate, float64(years-ampYears))
	amplified := math.Pow(1-aeeiRate*aeeiCoveredAmplifier, float64(ampYears))
	return plain * amplified
}

// renewableShare is the electricity renewable share after the given number
// of years at the scenario's growth rate, capped at the feasible maximum.
func renewableShare(base float64, growth float64, years int) float64 {
	return math.Min(maxRenewableShare, base+growth*float64(years))
}
