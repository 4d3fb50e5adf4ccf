package registry

import (
	"errors"
	"math"
)

// ETSPolicy describes one carbon-pricing regime: its covered sectors, price
// schedule and free-allocation rule. Immutable once constructed.
type ETSPolicy struct {
	Name      string
	StartYear int

	// BasePrice is the carbon price (EUR/tCO2e) in the start year.
	BasePrice  float64
	GrowthRate float64

	// PriceFloor and PriceCeiling bound the price when HasPSM is set
	// (ETS2 price stability mechanism). StabilityCap is the soft upper
	// bound applied when HasMSR is set (ETS1 market stability reserve:
	// no formal ceiling, but prices are bounded for numerical sanity).
	PriceFloor   float64
	PriceCeiling float64
	StabilityCap float64
	HasMSR       bool
	HasPSM       bool

	CoveredSectors []Sector

	// FreeAllocation is the initial share of allowances handed out for
	// free; it declines by FreeAllocationDecline per year down to
	// FreeAllocationFloor.
	FreeAllocation        float64
	FreeAllocationDecline float64
	FreeAllocationFloor   float64
}

func defaultETS1() ETSPolicy {
	return ETSPolicy{
		Name:       "ETS1",
		StartYear:  2021,
		BasePrice:  53.90,
		GrowthRate: 0.04,
		// EU ETS Phase 4 has no formal ceiling; the MSR keeps prices
		// from running away, modeled here as a practical cap.
		StabilityCap:          300.0,
		HasMSR:                true,
		CoveredSectors:        []Sector{Industry, Gas, OtherEnergy, AirTransport, WaterTransport},
		FreeAllocation:        0.80,
		FreeAllocationDecline: 0.02,
		FreeAllocationFloor:   0.10,
	}
}

func defaultETS2() ETSPolicy {
	return ETSPolicy{
		Name:                  "ETS2",
		StartYear:             2027,
		BasePrice:             45.0,
		GrowthRate:            0.025,
		PriceFloor:            22.0,
		PriceCeiling:          45.0,
		HasPSM:                true,
		CoveredSectors:        []Sector{RoadTransport, OtherTransport, Services},
		FreeAllocation:        0.60,
		FreeAllocationDecline: 0.03,
		FreeAllocationFloor:   0.05,
	}
}

// Validate checks the policy for malformed configuration. Called at
// scenario construction; a failure here is fatal before any solve.
func (p ETSPolicy) Validate() error {
	if p.Name == "" {
		return errors.New("policy name is required")
	}
	if p.BasePrice < 0 {
		return errors.New("base carbon price must be >= 0")
	}
	if p.HasPSM && p.PriceFloor > p.PriceCeiling {
		return errors.New("price floor exceeds price ceiling")
	}
	if p.FreeAllocation < 0 || p.FreeAllocation > 1 {
		return errors.New("free allocation rate must be in [0,1]")
	}
	if p.FreeAllocationFloor < 0 || p.FreeAllocationFloor > p.FreeAllocation {
		return errors.New("free allocation floor must be in [0, initial rate]")
	}
	if len(p.CoveredSectors) == 0 && p.BasePrice > 0 {
		return errors.New("carbon-priced policy covers no sectors")
	}
	return nil
}

// CarbonPrice returns the EUR/tCO2e price for the given year: zero before the
// start year, then geometric growth bounded by the policy's price mechanism.
func (p ETSPolicy) CarbonPrice(year int) float64 {
	if year < p.StartYear {
		return 0
	}
	elapsed := float64(year - p.StartYear)
	price := p.BasePrice * math.Pow(1+p.GrowthRate, elapsed)
	if p.HasMSR {
		return math.Min(price, p.StabilityCap)
	}
	if p.HasPSM {
		return math.Max(p.PriceFloor, math.Min(price, p.PriceCeiling))
	}
	return price
}

// FreeAllocationRate returns the share of allowances allocated for free in
// the given year. Before the start year the whole allocation is free.
func (p ETSPolicy) FreeAllocationRate(year int) float64 {
	if year < p.StartYear {
		return 1.0
	}
	elapsed := float64(year - p.StartYear)
	rate := p.FreeAllocation - p.FreeAllocationDecline*elapsed
	return math.Max(p.FreeAllocationFloor, rate)
}

// Covers reports whether sector s is covered by the policy in the given year.
func (p ETSPolicy) Covers(s Sector, year int) bool {
	if year < p.StartYear {
		return false
	}
	for _, c := range p.CoveredSectors {
		if c == s {
			return true
		}
	}
	return false
}

// CoverageByYear returns the union of sectors covered by the active ETS
// regimes in the given year.
func (d *Definitions) CoverageByYear(year int) []Sector {
	var out []Sector
	seen := map[Sector]bool{}
	for _, p := range []ETSPolicy{d.ETS1, d.ETS2} {
		if year < p.StartYear {
			continue
		}
		for _, s := range p.CoveredSectors {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}
