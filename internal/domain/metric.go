package domain

import "time"

// ElectricityFactors holds the emission factor table for grid
// electricity. Default is a pointer so an absent factor is
// distinguishable from a legitimate zero.
type ElectricityFactors struct {
	Default *float64 `json:"default,omitempty" yaml:"default,omitempty"`
}

// FactorTable maps a lookup key (heating fuel, district source, or
// occupancy bracket) to an emission factor. A missing key means the
// factor is not published for that country snapshot.
type FactorTable map[string]float64

// Lookup returns the factor for key and whether it exists.
func (t FactorTable) Lookup(key string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	v, ok := t[key]
	return v, ok
}

// CountryMetric is one immutable, time-versioned snapshot of a
// country's emission factors. Snapshots are append-only; the applicable
// one for a consumption is the latest whose ValidFrom precedes the
// consumption's reference date.
type CountryMetric struct {
	ID        string    `json:"id"        yaml:"id"`
	CountryID string    `json:"countryId" yaml:"countryId"`
	ValidFrom time.Time `json:"validFrom" yaml:"validFrom"`

	Electricity ElectricityFactors `json:"electricity" yaml:"electricity"`

	// Heating maps heating fuels and district heating sources to
	// kgCO2e per kWh.
	Heating FactorTable `json:"heating" yaml:"heating"`

	// Transportation maps vehicle type, then occupancy bracket, to the
	// carbon factor (kgCO2e per km, or a constant per-capita figure for
	// planes). TransportationEnergy has the same shape for kWh per km.
	Transportation       map[VehicleType]FactorTable `json:"transportation"       yaml:"transportation"`
	TransportationEnergy map[VehicleType]FactorTable `json:"transportationEnergy" yaml:"transportationEnergy"`
}

// TransportFactor returns the carbon factor for a vehicle type and
// occupancy bracket.
func (m *CountryMetric) TransportFactor(vt VehicleType, bracket string) (float64, bool) {
	return m.Transportation[vt].Lookup(bracket)
}

// TransportEnergyFactor returns the energy factor for a vehicle type
// and occupancy bracket.
func (m *CountryMetric) TransportEnergyFactor(vt VehicleType, bracket string) (float64, bool) {
	return m.TransportationEnergy[vt].Lookup(bracket)
}

// ElectricityDefault returns the grid electricity factor.
func (m *CountryMetric) ElectricityDefault() (float64, bool) {
	if m.Electricity.Default == nil {
		return 0, false
	}
	return *m.Electricity.Default, true
}

// User carries the user's country and the two independent accounting
// version stamps: ConsumptionMeta gates raw emission recomputation,
// SummaryMeta gates incremental-vs-rebuild summary maintenance. The two
// counters are deliberately separate and must not be conflated.
type User struct {
	ID        string `json:"id"        yaml:"id"`
	CountryID string `json:"countryId" yaml:"countryId"`

	ConsumptionMeta VersionStamp `json:"consumptionMeta" yaml:"consumptionMeta"`
	SummaryMeta     VersionStamp `json:"summaryMeta"     yaml:"summaryMeta"`
}

// VersionStamp pairs an engine version with the time of the last full
// recalculation it performed.
type VersionStamp struct {
	Version           string    `json:"version,omitempty"           yaml:"version,omitempty"`
	LastRecalculation time.Time `json:"lastRecalculation,omitempty" yaml:"lastRecalculation,omitempty"`
}
