// Package registry holds the model's fixed entity sets: production sectors,
// factors, household regions and energy carriers, plus the EU ETS policy
// schedules. Everything here is immutable after construction.
package registry

import "fmt"

// Sector is a production sector code.
type Sector string

const (
	Agriculture    Sector = "AGR"
	Industry       Sector = "IND"
	Electricity    Sector = "ELEC"
	Gas            Sector = "GAS"
	OtherEnergy    Sector = "OENERGY"
	RoadTransport  Sector = "ROAD"
	RailTransport  Sector = "RAIL"
	AirTransport   Sector = "AIR"
	WaterTransport Sector = "WATER"
	OtherTransport Sector = "OTRANS"
	Services       Sector = "SERVICES"
)

// Factor is a primary production factor.
type Factor string

const (
	Labour  Factor = "LAB"
	Capital Factor = "CAP"
)

// Region is one of the five Italian macro-regions used for household
// disaggregation.
type Region string

const (
	Northwest Region = "NW"
	Northeast Region = "NE"
	Center    Region = "CENTER"
	South     Region = "SOUTH"
	Islands   Region = "ISLANDS"
)

// Carrier is an energy carrier consumed by sectors and households.
type Carrier string

const (
	CarrierElectricity Carrier = "ELECTRICITY"
	CarrierGas         Carrier = "GAS"
	CarrierOtherFuels  Carrier = "OTHER_ENERGY"
)

// Definitions is the canonical, read-only set of model entities. Construct it
// once with NewDefinitions and pass it by pointer; nothing here is mutated
// after construction.
type Definitions struct {
	Sectors  []Sector
	Factors  []Factor
	Regions  []Region
	Carriers []Carrier

	sectorNames map[Sector]string
	nameSectors map[string]Sector
	factorNames map[Factor]string
	regionNames map[Region]string

	// Regional population shares for 2021 (ISTAT).
	PopulationShares map[Region]float64

	EnergySectors    []Sector
	TransportSectors []Sector

	// CO2 emission factors per carrier, kg CO2 per MWh of fuel combustion
	// (ISPRA/GSE/Eurostat, 2021). The electricity factor is the grid-mix
	// value at the 2021 renewable share; see ElectricityCO2Factor.
	CO2Factors map[Carrier]float64

	// RenewableShare2021 is the renewable share of grid electricity in the
	// base year; the electricity CO2 factor scales down as it grows.
	RenewableShare2021 float64

	ETS1 ETSPolicy
	ETS2 ETSPolicy
}

// NewDefinitions builds the fixed Italian model structure: 11 sectors,
// 2 factors, 5 household regions and 3 energy carriers.
func NewDefinitions() *Definitions {
	d := &Definitions{
		Sectors: []Sector{
			Agriculture, Industry, Electricity, Gas, OtherEnergy,
			RoadTransport, RailTransport, AirTransport, WaterTransport,
			OtherTransport, Services,
		},
		Factors:  []Factor{Labour, Capital},
		Regions:  []Region{Northwest, Northeast, Center, South, Islands},
		Carriers: []Carrier{CarrierElectricity, CarrierGas, CarrierOtherFuels},

		sectorNames: map[Sector]string{
			Agriculture:    "Agriculture",
			Industry:       "Industry",
			Electricity:    "Electricity",
			Gas:            "Gas",
			OtherEnergy:    "Other Energy",
			RoadTransport:  "Road Transport",
			RailTransport:  "Rail Transport",
			AirTransport:   "Air Transport",
			WaterTransport: "Water Transport",
			OtherTransport: "Other Transport",
			Services:       "other Sectors (14)",
		},
		factorNames: map[Factor]string{
			Labour:  "Labour",
			Capital: "Capital",
		},
		regionNames: map[Region]string{
			Northwest: "Households(NW)",
			Northeast: "Households(NE)",
			Center:    "Households(Centre)",
			South:     "Households(South)",
			Islands:   "Households(Islands)",
		},
		PopulationShares: map[Region]float64{
			Northwest: 0.269,
			Northeast: 0.191,
			Center:    0.199,
			South:     0.233,
			Islands:   0.108,
		},
		EnergySectors:    []Sector{Electricity, Gas, OtherEnergy},
		TransportSectors: []Sector{RoadTransport, RailTransport, AirTransport, WaterTransport, OtherTransport},
		CO2Factors: map[Carrier]float64{
			CarrierElectricity: 312.0,
			CarrierGas:         202.0,
			CarrierOtherFuels:  350.0,
		},
		RenewableShare2021: 0.35,
		ETS1:               defaultETS1(),
		ETS2:               defaultETS2(),
	}

	d.nameSectors = make(map[string]Sector, len(d.sectorNames))
	for s, n := range d.sectorNames {
		d.nameSectors[n] = s
	}
	return d
}

// SectorName returns the SAM account name for a sector code.
func (d *Definitions) SectorName(s Sector) string { return d.sectorNames[s] }

// SectorByName resolves a SAM account name to its sector code.
func (d *Definitions) SectorByName(name string) (Sector, error) {
	s, ok := d.nameSectors[name]
	if !ok {
		return "", fmt.Errorf("unknown sector account %q", name)
	}
	return s, nil
}

// FactorName returns the SAM account name for a factor.
func (d *Definitions) FactorName(f Factor) string { return d.factorNames[f] }

// RegionAccount returns the SAM household account name for a region.
func (d *Definitions) RegionAccount(r Region) string { return d.regionNames[r] }

// IsEnergySector reports whether s is one of the energy supply sectors.
func (d *Definitions) IsEnergySector(s Sector) bool {
	for _, e := range d.EnergySectors {
		if e == s {
			return true
		}
	}
	return false
}

// IsTransportSector reports whether s is a transport sector.
func (d *Definitions) IsTransportSector(s Sector) bool {
	for _, e := range d.TransportSectors {
		if e == s {
			return true
		}
	}
	return false
}

// ElectricityCO2Factor returns the grid-mix electricity emission factor
// (kg CO2/MWh) for a given renewable share. The fossil residual of the grid
// carries the entire factor, so at 100% renewables the factor is zero.
func (d *Definitions) ElectricityCO2Factor(renewableShare float64) float64 {
	if renewableShare < 0 {
		renewableShare = 0
	}
	if renewableShare > 1 {
		renewableShare = 1
	}
	base := d.CO2Factors[CarrierElectricity] / (1 - d.RenewableShare2021)
	return base * (1 - renewableShare)
}
