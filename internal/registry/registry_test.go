package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinitionsCardinality(t *testing.T) {
	d := NewDefinitions()
	assert.Len(t, d.Sectors, 11)
	assert.Len(t, d.Factors, 2)
	assert.Len(t, d.Regions, 5)
	assert.Len(t, d.Carriers, 3)
}

func TestPopulationSharesSumToOne(t *testing.T) {
	d := NewDefinitions()
	sum := 0.0
	for _, r := range d.Regions {
		sum += d.PopulationShares[r]
	}
	assert.InDelta(t, 1.0, sum, 1e-3)
}

func TestSectorNameRoundTrip(t *testing.T) {
	d := NewDefinitions()
	for _, s := range d.Sectors {
		name := d.SectorName(s)
		require.NotEmpty(t, name)
		got, err := d.SectorByName(name)
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := d.SectorByName("Buildings")
	assert.Error(t, err)
}

func TestETS1PriceSchedule(t *testing.T) {
	d := NewDefinitions()
	p := d.ETS1

	assert.Zero(t, p.CarbonPrice(2020))
	assert.InDelta(t, 53.90, p.CarbonPrice(2021), 1e-9)

	// Non-decreasing and never above the stability cap.
	prev := 0.0
	for year := 2021; year <= 2060; year++ {
		price := p.CarbonPrice(year)
		assert.GreaterOrEqual(t, price, prev, "year %d", year)
		assert.LessOrEqual(t, price, p.StabilityCap, "year %d", year)
		prev = price
	}
}

func TestETS2PriceBounds(t *testing.T) {
	d := NewDefinitions()
	p := d.ETS2

	assert.Zero(t, p.CarbonPrice(2026))
	for year := 2027; year <= 2060; year++ {
		price := p.CarbonPrice(year)
		assert.GreaterOrEqual(t, price, p.PriceFloor, "year %d", year)
		assert.LessOrEqual(t, price, p.PriceCeiling, "year %d", year)
	}
}

func TestFreeAllocationDecline(t *testing.T) {
	d := NewDefinitions()

	assert.Equal(t, 1.0, d.ETS1.FreeAllocationRate(2019))
	assert.InDelta(t, 0.80, d.ETS1.FreeAllocationRate(2021), 1e-9)
	assert.InDelta(t, 0.70, d.ETS1.FreeAllocationRate(2026), 1e-9)
	// Floors at 10% no matter how far out.
	assert.InDelta(t, 0.10, d.ETS1.FreeAllocationRate(2100), 1e-9)

	assert.InDelta(t, 0.60, d.ETS2.FreeAllocationRate(2027), 1e-9)
	assert.InDelta(t, 0.05, d.ETS2.FreeAllocationRate(2100), 1e-9)
}

func TestCoverageByYear(t *testing.T) {
	d := NewDefinitions()

	pre := d.CoverageByYear(2024)
	assert.ElementsMatch(t, d.ETS1.CoveredSectors, pre)

	post := d.CoverageByYear(2027)
	assert.Len(t, post, len(d.ETS1.CoveredSectors)+len(d.ETS2.CoveredSectors))
	assert.Contains(t, post, RoadTransport)
	assert.Contains(t, post, Industry)
}

func TestElectricityCO2FactorDeclines(t *testing.T) {
	d := NewDefinitions()

	base := d.ElectricityCO2Factor(d.RenewableShare2021)
	assert.InDelta(t, 312.0, base, 1e-9)
	assert.Less(t, d.ElectricityCO2Factor(0.55), base)
	assert.Zero(t, d.ElectricityCO2Factor(1.0))
}

func TestPolicyValidate(t *testing.T) {
	d := NewDefinitions()
	require.NoError(t, d.ETS1.Validate())
	require.NoError(t, d.ETS2.Validate())

	bad := d.ETS2
	bad.PriceFloor = 50
	assert.Error(t, bad.Validate())

	bad = d.ETS1
	bad.CoveredSectors = nil
	assert.Error(t, bad.Validate())
}
