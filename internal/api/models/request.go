package models

// SimulationRequest is the request body for running a scenario simulation.
type SimulationRequest struct {
	// LastYear is the simulation horizon; the base year comes from the
	// server's calibration.
	LastYear int `json:"last_year" binding:"required"`

	// Scenarios to run; empty means the server's default set.
	Scenarios []ScenarioSpec `json:"scenarios,omitempty"`

	Solver  SolverSpec        `json:"solver,omitempty"`
	Options SimulationOptions `json:"options,omitempty"`
}

// ScenarioSpec defines one policy world.
type ScenarioSpec struct {
	Name             string  `json:"name" binding:"required"`
	Description      string  `json:"description,omitempty"`
	ETS1             bool    `json:"ets1,omitempty"`
	ETS2             bool    `json:"ets2,omitempty"`
	CarbonPriceScale float64 `json:"carbon_price_scale,omitempty"`
	RenewableGrowth  float64 `json:"renewable_growth,omitempty"`
}

// SolverSpec overrides solver defaults per request.
type SolverSpec struct {
	Tolerance     float64 `json:"tolerance,omitempty"`
	MaxIterations int     `json:"max_iterations,omitempty"`
}

// SimulationOptions contains optional simulation parameters.
type SimulationOptions struct {
	IncludeSectors bool `json:"include_sectors,omitempty"` // default: false
	IncludeRegions bool `json:"include_regions,omitempty"` // default: false
	TimeoutSeconds int  `json:"timeout_seconds,omitempty"` // 0 = server default
}
