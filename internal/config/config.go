// Package config loads the on-disk run configuration (YAML) and maps it to
// the typed options of the calibration, solver and dynamics layers.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"italian-cge/internal/calibration"
	"italian-cge/internal/dynamics"
	"italian-cge/internal/solver"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// SAMFile points at a balanced social accounting matrix CSV. Empty means
	// the built-in synthetic calibration.
	SAMFile string `yaml:"sam_file"`

	BaseYear          int     `yaml:"base_year"`
	LastYear          int     `yaml:"last_year"`
	GDPBillion        float64 `yaml:"gdp_billion"`
	PopulationMillion float64 `yaml:"population_million"`

	Solver SolverConfig `yaml:"solver"`

	// Optional: load scenarios from a separate YAML. Inline scenarios are
	// appended after the file's.
	ScenariosFile string           `yaml:"scenarios_file"`
	Scenarios     []ScenarioConfig `yaml:"scenarios"`

	Output OutputConfig `yaml:"output"`
}

type SolverConfig struct {
	Tolerance     float64 `yaml:"tolerance"`
	MaxIterations int     `yaml:"max_iterations"`
	MinDamping    float64 `yaml:"min_damping"`
	// TimeoutSeconds bounds the wall clock of one year's solve, retries
	// included. Zero means no per-solve deadline.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

type ScenarioConfig struct {
	Name             string  `yaml:"name"`
	Description      string  `yaml:"description"`
	ETS1             bool    `yaml:"ets1"`
	ETS2             bool    `yaml:"ets2"`
	CarbonPriceScale float64 `yaml:"carbon_price_scale"`
	RenewableGrowth  float64 `yaml:"renewable_growth"`
}

type OutputConfig struct {
	AnnualCSV string `yaml:"annual_csv"`
	SectorCSV string `yaml:"sector_csv"`
	RegionCSV string `yaml:"region_csv"`
}

// Load reads, merges, defaults and validates a run configuration.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it. Useful
// for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	if c.ScenariosFile != "" {
		scPath := c.ScenariosFile
		if !filepath.IsAbs(scPath) {
			// Relative paths resolve against the config file directory first,
			// the working directory second.
			cand := filepath.Join(filepath.Dir(path), scPath)
			if _, err := os.Stat(cand); err == nil {
				scPath = cand
			}
		}
		loaded, err := loadScenariosFile(scPath)
		if err != nil {
			return nil, err
		}
		c.Scenarios = append(loaded, c.Scenarios...)
	}
	return &c, nil
}

// Default is the built-in Italy 2021 run: synthetic calibration, a 2050
// horizon and the standard scenario set.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.BaseYear == 0 {
		c.BaseYear = 2021
	}
	if c.LastYear == 0 {
		c.LastYear = 2050
	}
	if c.GDPBillion == 0 {
		c.GDPBillion = 1782.0
	}
	if c.PopulationMillion == 0 {
		c.PopulationMillion = 59.13
	}
	if len(c.Scenarios) == 0 {
		for _, sc := range dynamics.DefaultScenarios() {
			c.Scenarios = append(c.Scenarios, ScenarioConfig{
				Name:             sc.Name,
				Description:      sc.Description,
				ETS1:             sc.ETS1Enabled,
				ETS2:             sc.ETS2Enabled,
				CarbonPriceScale: sc.CarbonPriceScale,
				RenewableGrowth:  sc.RenewableGrowth,
			})
		}
	}
	if c.Output.AnnualCSV == "" {
		c.Output.AnnualCSV = "annual.csv"
	}
	if c.Output.SectorCSV == "" {
		c.Output.SectorCSV = "sectors.csv"
	}
	if c.Output.RegionCSV == "" {
		c.Output.RegionCSV = "regions.csv"
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := c.Targets().Validate(); err != nil {
		return err
	}
	if c.LastYear < c.BaseYear {
		return fmt.Errorf("last_year %d precedes base_year %d", c.LastYear, c.BaseYear)
	}
	if len(c.Scenarios) == 0 {
		return errors.New("at least one scenario is required")
	}
	seen := map[string]bool{}
	for _, sc := range c.ToScenarios() {
		if err := sc.Validate(); err != nil {
			return err
		}
		if seen[sc.Name] {
			return fmt.Errorf("duplicate scenario name %q", sc.Name)
		}
		seen[sc.Name] = true
	}
	if c.SAMFile != "" {
		if _, err := os.Stat(c.SAMFile); err != nil {
			return fmt.Errorf("sam_file: %w", err)
		}
	}
	return nil
}

// Targets maps the config to calibration targets.
func (c *Config) Targets() calibration.Targets {
	return calibration.Targets{
		BaseYear:          c.BaseYear,
		GDPBillion:        c.GDPBillion,
		PopulationMillion: c.PopulationMillion,
	}
}

// SolverOptions maps the config to solver options, defaulting unset fields.
func (c *Config) SolverOptions() solver.Options {
	opts := solver.DefaultOptions()
	if c.Solver.Tolerance > 0 {
		opts.Tolerance = c.Solver.Tolerance
	}
	if c.Solver.MaxIterations > 0 {
		opts.MaxIterations = c.Solver.MaxIterations
	}
	if c.Solver.MinDamping > 0 {
		opts.MinDamping = c.Solver.MinDamping
	}
	if c.Solver.TimeoutSeconds > 0 {
		opts.Timeout = time.Duration(c.Solver.TimeoutSeconds) * time.Second
	}
	return opts
}

// ToScenarios maps the configured scenarios to the dynamics layer.
func (c *Config) ToScenarios() []dynamics.Scenario {
	out := make([]dynamics.Scenario, 0, len(c.Scenarios))
	for _, sc := range c.Scenarios {
		out = append(out, dynamics.Scenario{
			Name:             sc.Name,
			Description:      sc.Description,
			ETS1Enabled:      sc.ETS1,
			ETS2Enabled:      sc.ETS2,
			CarbonPriceScale: sc.CarbonPriceScale,
			RenewableGrowth:  sc.RenewableGrowth,
		})
	}
	return out
}

type scenariosFileWrapper struct {
	Scenarios []ScenarioConfig `yaml:"scenarios"`
}

func loadScenariosFile(path string) ([]ScenarioConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var w scenariosFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return w.Scenarios, nil
}
