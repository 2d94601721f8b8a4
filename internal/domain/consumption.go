// Package domain defines the data model of the carbon and energy
// accounting engine: consumption records, time-versioned country
// emission factors, yearly consumption summaries, and label threshold
// tables.
package domain

import "time"

// Category identifies the kind of resource a consumption tracks.
type Category string

// The closed set of consumption categories.
const (
	CategoryElectricity    Category = "electricity"
	CategoryHeating        Category = "heating"
	CategoryTransportation Category = "transportation"
)

// Categories lists every consumption category in stable order.
func Categories() []Category {
	return []Category{CategoryElectricity, CategoryHeating, CategoryTransportation}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryElectricity, CategoryHeating, CategoryTransportation:
		return true
	}
	return false
}

// HeatingFuel identifies the energy carrier of a heating consumption.
type HeatingFuel string

// Known heating fuels. FuelDistrict and FuelElectric are dispatched
// specially by the calculator; the rest resolve directly against the
// country metric's heating factor table.
const (
	FuelOil                    HeatingFuel = "oil"
	FuelNaturalGas             HeatingFuel = "naturalGas"
	FuelLiquifiedPetroGas      HeatingFuel = "liquifiedPetroGas"
	FuelBiomass                HeatingFuel = "biomass"
	FuelLocallyProducedBiomass HeatingFuel = "locallyProducedBiomass"
	FuelGeothermal             HeatingFuel = "geothermal"
	FuelSolarThermal           HeatingFuel = "solarThermal"
	FuelDistrict               HeatingFuel = "district"
	FuelElectric               HeatingFuel = "electric"
)

// DistrictHeatingSource identifies the primary energy source of a
// district heating network.
type DistrictHeatingSource string

// Known district heating sources.
const (
	DistrictCoal           DistrictHeatingSource = "coal"
	DistrictNaturalGas     DistrictHeatingSource = "naturalGas"
	DistrictOil            DistrictHeatingSource = "oil"
	DistrictElectric       DistrictHeatingSource = "electric"
	DistrictSolarThermal   DistrictHeatingSource = "solarThermal"
	DistrictGeothermal     DistrictHeatingSource = "geothermal"
	DistrictBiomass        DistrictHeatingSource = "biomass"
	DistrictWasteTreatment DistrictHeatingSource = "wasteTreatment"
	DistrictDefault        DistrictHeatingSource = "default"
)

// VehicleType identifies the mode of a transportation consumption.
type VehicleType string

// Known vehicle types.
const (
	VehicleFuelCar            VehicleType = "fuelCar"
	VehicleElectricCar        VehicleType = "electricCar"
	VehicleHybridCar          VehicleType = "hybridCar"
	VehicleMotorcycle         VehicleType = "motorcycle"
	VehicleElectricMotorcycle VehicleType = "electricMotorcycle"
	VehicleBus                VehicleType = "bus"
	VehicleElectricBus        VehicleType = "electricBus"
	VehicleMetro              VehicleType = "metro"
	VehicleTram               VehicleType = "tram"
	VehicleTrain              VehicleType = "train"
	VehicleElectricTrain      VehicleType = "electricTrain"
	VehicleHighSpeedTrain     VehicleType = "highSpeedTrain"
	VehiclePlane              VehicleType = "plane"
	VehicleFerry              VehicleType = "ferry"
	VehicleScooter            VehicleType = "scooter"
	VehicleElectricScooter    VehicleType = "electricScooter"
	VehicleElectricBike       VehicleType = "electricBike"
	VehicleBike               VehicleType = "bike"
	VehicleWalking            VehicleType = "walking"
	VehicleCustomFuel         VehicleType = "customFuel"
	VehicleCustomElectric     VehicleType = "customElectric"
)

// IsMotorcycleClass reports whether the vehicle type belongs to the
// two-seat class whose private occupancy is capped at 2.
func (v VehicleType) IsMotorcycleClass() bool {
	switch v {
	case VehicleMotorcycle, VehicleElectricMotorcycle, VehicleScooter, VehicleElectricScooter:
		return true
	}
	return false
}

// PublicVehicleOccupancy is the qualitative fill level of a public
// transport vehicle.
type PublicVehicleOccupancy string

// Known public vehicle occupancy levels.
const (
	OccupancyAlmostEmpty PublicVehicleOccupancy = "almostEmpty"
	OccupancyMedium      PublicVehicleOccupancy = "medium"
	OccupancyNearlyFull  PublicVehicleOccupancy = "nearlyFull"
)

// ElectricityPayload is the electricity-specific part of a consumption.
type ElectricityPayload struct {
	StartDate     time.Time `json:"startDate"`
	EndDate       time.Time `json:"endDate"`
	HouseholdSize int       `json:"householdSize,omitempty"`
}

// HeatingPayload is the heating-specific part of a consumption.
type HeatingPayload struct {
	StartDate     time.Time   `json:"startDate"`
	EndDate       time.Time   `json:"endDate"`
	HouseholdSize int         `json:"householdSize,omitempty"`
	Fuel          HeatingFuel `json:"heatingFuel"`
	// DistrictHeatingSource is only meaningful when Fuel is "district".
	DistrictHeatingSource DistrictHeatingSource `json:"districtHeatingSource,omitempty"`
}

// TransportationPayload is the transportation-specific part of a
// consumption. DateOfTravel doubles as both start and end of the
// covered range.
type TransportationPayload struct {
	DateOfTravel time.Time   `json:"dateOfTravel"`
	Type         VehicleType `json:"transportationType"`
	// PrivateVehicleOccupancy is the occupant count of a private vehicle.
	// Zero means not provided and defaults to 1.
	PrivateVehicleOccupancy int `json:"privateVehicleOccupancy,omitempty"`
	// PublicVehicleOccupancy, when set, selects the public transport
	// occupancy bracket instead of private occupant counts.
	PublicVehicleOccupancy *PublicVehicleOccupancy `json:"publicVehicleOccupancy,omitempty"`
}

// Consumption is one user activity record. Exactly one of the
// sub-payloads matching Category is present. CarbonEmissions and
// EnergyExpended stay nil until the engine computes them; a computed
// zero is legitimate and distinct from "not yet computed".
type Consumption struct {
	ID       string   `json:"id"`
	UserID   string   `json:"userId"`
	Category Category `json:"category"`

	Electricity    *ElectricityPayload    `json:"electricity,omitempty"`
	Heating        *HeatingPayload        `json:"heating,omitempty"`
	Transportation *TransportationPayload `json:"transportation,omitempty"`

	// Value is the user-entered magnitude: kWh for electricity and
	// heating, kilometers for transportation.
	Value float64 `json:"value"`

	CarbonEmissions *float64 `json:"carbonEmissions,omitempty"`
	EnergyExpended  *float64 `json:"energyExpended,omitempty"`

	// Version is the engine version that last computed the emission
	// fields.
	Version string `json:"version,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Computed reports whether both emission fields have been written back.
func (c *Consumption) Computed() bool {
	return c != nil && c.CarbonEmissions != nil && c.EnergyExpended != nil
}

// DateRange returns the inclusive calendar range the consumption
// covers: the payload's start/end dates for periodic categories, the
// travel date (as both ends) for transportation. Returns ErrValidation
// when the matching sub-payload or its dates are missing.
func (c *Consumption) DateRange() (start, end time.Time, err error) {
	switch c.Category {
	case CategoryElectricity:
		if c.Electricity == nil {
			return time.Time{}, time.Time{}, Validationf("electricity consumption %s has no electricity payload", c.ID)
		}
		start, end = c.Electricity.StartDate, c.Electricity.EndDate
	case CategoryHeating:
		if c.Heating == nil {
			return time.Time{}, time.Time{}, Validationf("heating consumption %s has no heating payload", c.ID)
		}
		start, end = c.Heating.StartDate, c.Heating.EndDate
	case CategoryTransportation:
		if c.Transportation == nil {
			return time.Time{}, time.Time{}, Validationf("transportation consumption %s has no transportation payload", c.ID)
		}
		start, end = c.Transportation.DateOfTravel, c.Transportation.DateOfTravel
	default:
		return time.Time{}, time.Time{}, Validationf("consumption %s has unknown category %q", c.ID, c.Category)
	}
	if start.IsZero() || end.IsZero() {
		return time.Time{}, time.Time{}, Validationf("consumption %s is missing its reference date", c.ID)
	}
	return start, end, nil
}

// ReferenceDate returns the date used for country metric resolution:
// the range start for periodic categories, the travel date for
// transportation.
func (c *Consumption) ReferenceDate() (time.Time, error) {
	start, _, err := c.DateRange()
	return start, err
}
