package dynamics

import "fmt"

// Scenario selects which carbon market instruments are active and how fast
// the power sector decarbonizes.
type Scenario struct {
	Name        string
	Description string

	ETS1Enabled bool
	ETS2Enabled bool

	// CarbonPriceScale multiplies the policy price paths; 1 is the
	// legislated path. Zero means "use 1".
	CarbonPriceScale float64

	// RenewableGrowth is the annual increase of the electricity renewable
	// share. Zero means the baseline rate.
	RenewableGrowth float64
}

// Validate rejects unusable scenario definitions.
func (s Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("dynamics: scenario needs a name")
	}
	if s.CarbonPriceScale < 0 {
		return fmt.Errorf("dynamics: scenario %s: carbon price scale must be non-negative", s.Name)
	}
	if s.RenewableGrowth < 0 {
		return fmt.Errorf("dynamics: scenario %s: renewable growth must be non-negative", s.Name)
	}
	if s.ETS2Enabled && !s.ETS1Enabled {
		return fmt.Errorf("dynamics: scenario %s: ETS2 extends ETS1 and cannot run alone", s.Name)
	}
	return nil
}

func (s Scenario) priceScale() float64 {
	if s.CarbonPriceScale == 0 {
		return 1
	}
	return s.CarbonPriceScale
}

func (s Scenario) renewableGrowth() float64 {
	if s.RenewableGrowth == 0 {
		return baseRenewableGrowth
	}
	return s.RenewableGrowth
}

// DefaultScenarios are the three policy worlds the model compares: no
// carbon pricing, the existing ETS alone, and the existing ETS plus the
// buildings-and-transport extension.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{
			Name:        "BAU",
			Description: "no carbon pricing, baseline technology trends",
		},
		{
			Name:        "ETS1",
			Description: "industrial carbon market on its legislated price path",
			ETS1Enabled: true,
		},
		{
			Name:            "ETS2",
			Description:     "industrial market plus road transport and buildings extension",
			ETS1Enabled:     true,
			ETS2Enabled:     true,
			RenewableGrowth: baseRenewableGrowth * 1.5,
		},
	}
}
