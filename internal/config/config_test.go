package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "run.yaml", "last_year: 2030\n")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2021, c.BaseYear)
	assert.Equal(t, 2030, c.LastYear)
	assert.Equal(t, 1782.0, c.GDPBillion)
	assert.Len(t, c.Scenarios, 3, "default scenario set")
	assert.Equal(t, "annual.csv", c.Output.AnnualCSV)
}

func TestLoadInlineScenarios(t *testing.T) {
	path := writeFile(t, t.TempDir(), "run.yaml", `
last_year: 2025
scenarios:
  - name: carbon-high
    ets1: true
    ets2: true
    carbon_price_scale: 2.0
`)

	c, err := Load(path)
	require.NoError(t, err)
	require.Len(t, c.Scenarios, 1)

	scs := c.ToScenarios()
	assert.Equal(t, "carbon-high", scs[0].Name)
	assert.True(t, scs[0].ETS1Enabled)
	assert.True(t, scs[0].ETS2Enabled)
	assert.Equal(t, 2.0, scs[0].CarbonPriceScale)
}

func TestLoadScenariosFileRelativeToConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "scenarios.yaml", `
scenarios:
  - name: from-file
    ets1: true
`)
	path := writeFile(t, dir, "run.yaml", `
scenarios_file: scenarios.yaml
scenarios:
  - name: inline
`)

	c, err := Load(path)
	require.NoError(t, err)
	require.Len(t, c.Scenarios, 2)
	assert.Equal(t, "from-file", c.Scenarios[0].Name)
	assert.Equal(t, "inline", c.Scenarios[1].Name)
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]string{
		"horizon before base": "base_year: 2030\nlast_year: 2025\n",
		"duplicate scenarios": "scenarios:\n  - name: a\n  - name: a\n",
		"ets2 without ets1":   "scenarios:\n  - name: a\n    ets2: true\n",
		"missing sam file":    "sam_file: /nonexistent/sam.csv\n",
	}
	for name, content := range cases {
		path := writeFile(t, dir, "bad.yaml", content)
		_, err := Load(path)
		assert.Error(t, err, name)
	}
}

func TestSolverOptionsOverride(t *testing.T) {
	path := writeFile(t, t.TempDir(), "run.yaml", `
solver:
  tolerance: 1e-6
  max_iterations: 200
  timeout_seconds: 90
`)

	c, err := Load(path)
	require.NoError(t, err)
	opts := c.SolverOptions()
	assert.Equal(t, 1e-6, opts.Tolerance)
	assert.Equal(t, 200, opts.MaxIterations)
	assert.Equal(t, 90*time.Second, opts.Timeout)
	assert.Greater(t, opts.MinDamping, 0.0, "unset fields keep defaults")

	assert.Zero(t, Default().SolverOptions().Timeout, "no deadline unless configured")
}

func TestDefaultConfigValidates(t *testing.T) {
	assert.NoError(t, Default().Validate())
}
