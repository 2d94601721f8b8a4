package engine

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/verdantio/carbonledger/internal/domain"
)

// Occupancy clamp limits for private vehicles. Counts of 3-5 on
// non-motorcycle types are looked up as entered.
const (
	maxMotorcycleOccupancy = 2
	maxPrivateOccupancy    = 5
)

// Result is a computed emission pair for one consumption.
type Result struct {
	// CarbonEmission is in kgCO2e.
	CarbonEmission float64
	// EnergyExpended is in kWh.
	EnergyExpended float64
}

// Calculator evaluates the per-category emission formulas against the
// country metric applicable on the consumption's reference date.
type Calculator struct {
	resolver *FactorResolver
}

// NewCalculator builds a calculator over the given resolver.
func NewCalculator(resolver *FactorResolver) *Calculator {
	return &Calculator{resolver: resolver}
}

// Calculate evaluates one consumption for the given user. Any of the
// engine's error categories may come back: ErrValidation for a missing
// sub-payload or date, ErrNotFound when no metric snapshot applies, and
// ErrComputation for a missing factor or non-finite result.
func (c *Calculator) Calculate(ctx context.Context, cons *domain.Consumption, user domain.User) (Result, error) {
	refDate, err := cons.ReferenceDate()
	if err != nil {
		return Result{}, err
	}

	metric, err := c.resolver.Resolve(ctx, user.CountryID, refDate)
	if errors.Is(err, domain.ErrNotFound) {
		// A country without any applicable snapshot falls back
		// wholesale; NotFound only stands once the fallback country has
		// no snapshot either.
		metric, err = c.resolver.ResolveFallback(ctx, refDate)
	}
	if err != nil {
		return Result{}, err
	}

	var res Result
	switch cons.Category {
	case domain.CategoryElectricity:
		res, err = c.calculateElectricity(ctx, cons, metric, refDate)
	case domain.CategoryHeating:
		res, err = c.calculateHeating(ctx, cons, metric, refDate)
	case domain.CategoryTransportation:
		res, err = c.calculateTransportation(ctx, cons, metric, refDate)
	default:
		return Result{}, domain.Validationf("consumption %s has unknown category %q", cons.ID, cons.Category)
	}
	if err != nil {
		return Result{}, err
	}

	if !isFinite(res.CarbonEmission) || !isFinite(res.EnergyExpended) {
		return Result{}, domain.Computationf("non-finite result for consumption %s", cons.ID)
	}
	return res, nil
}

func (c *Calculator) calculateElectricity(ctx context.Context, cons *domain.Consumption, metric domain.CountryMetric, refDate time.Time) (Result, error) {
	factor, err := c.factor(ctx, metric, refDate, "electricity default",
		func(m *domain.CountryMetric) (float64, bool) { return m.ElectricityDefault() })
	if err != nil {
		return Result{}, err
	}
	return perHousehold(cons.Value, cons.Electricity.HouseholdSize, factor), nil
}

func (c *Calculator) calculateHeating(ctx context.Context, cons *domain.Consumption, metric domain.CountryMetric, refDate time.Time) (Result, error) {
	payload := cons.Heating

	var (
		what string
		get  func(*domain.CountryMetric) (float64, bool)
	)
	switch {
	case payload.Fuel == domain.FuelElectric:
		what = "electricity default"
		get = func(m *domain.CountryMetric) (float64, bool) { return m.ElectricityDefault() }
	case payload.Fuel == domain.FuelDistrict && payload.DistrictHeatingSource == domain.DistrictElectric:
		what = "electricity default"
		get = func(m *domain.CountryMetric) (float64, bool) { return m.ElectricityDefault() }
	case payload.Fuel == domain.FuelDistrict:
		what = "district heating " + string(payload.DistrictHeatingSource)
		get = func(m *domain.CountryMetric) (float64, bool) {
			return m.Heating.Lookup(string(payload.DistrictHeatingSource))
		}
	default:
		what = "heating fuel " + string(payload.Fuel)
		get = func(m *domain.CountryMetric) (float64, bool) {
			return m.Heating.Lookup(string(payload.Fuel))
		}
	}

	factor, err := c.factor(ctx, metric, refDate, what, get)
	if err != nil {
		return Result{}, err
	}
	return perHousehold(cons.Value, payload.HouseholdSize, factor), nil
}

func (c *Calculator) calculateTransportation(ctx context.Context, cons *domain.Consumption, metric domain.CountryMetric, refDate time.Time) (Result, error) {
	payload := cons.Transportation
	vt := payload.Type

	// Public transport brackets apply only when the resolved metric
	// publishes both factor tables for them; anything else is treated
	// as a private vehicle.
	if payload.PublicVehicleOccupancy != nil {
		bracket := string(*payload.PublicVehicleOccupancy)
		carbonF, okC := metric.TransportFactor(vt, bracket)
		energyF, okE := metric.TransportEnergyFactor(vt, bracket)
		if okC && okE {
			return transportResult(vt, cons.Value, carbonF, energyF), nil
		}
	}

	bracket := strconv.Itoa(privateOccupancy(vt, payload.PrivateVehicleOccupancy))
	carbonF, err := c.factor(ctx, metric, refDate, "transportation "+string(vt)+" carbon",
		func(m *domain.CountryMetric) (float64, bool) { return m.TransportFactor(vt, bracket) })
	if err != nil {
		return Result{}, err
	}
	energyF, err := c.factor(ctx, metric, refDate, "transportation "+string(vt)+" energy",
		func(m *domain.CountryMetric) (float64, bool) { return m.TransportEnergyFactor(vt, bracket) })
	if err != nil {
		return Result{}, err
	}
	return transportResult(vt, cons.Value, carbonF, energyF), nil
}

// privateOccupancy applies the private vehicle occupancy rules: default
// 1, motorcycle-class capped at 2, anything above 5 capped at 5.
// Intermediate counts of 3-5 on non-motorcycle types stay as entered.
func privateOccupancy(vt domain.VehicleType, occupancy int) int {
	if occupancy <= 0 {
		return 1
	}
	if vt.IsMotorcycleClass() && occupancy > maxMotorcycleOccupancy {
		return maxMotorcycleOccupancy
	}
	if occupancy > maxPrivateOccupancy {
		return maxPrivateOccupancy
	}
	return occupancy
}

// transportResult multiplies the factors by distance, except for
// planes, whose factors are already a constant per-capita contribution.
func transportResult(vt domain.VehicleType, value, carbonF, energyF float64) Result {
	if vt == domain.VehiclePlane {
		return Result{CarbonEmission: carbonF, EnergyExpended: energyF}
	}
	return Result{CarbonEmission: carbonF * value, EnergyExpended: energyF * value}
}

// perHousehold evaluates the shared heating/electricity formula. A
// missing household size defaults to 1.
func perHousehold(value float64, householdSize int, factor float64) Result {
	if householdSize <= 0 {
		householdSize = 1
	}
	energy := value / float64(householdSize)
	return Result{CarbonEmission: energy * factor, EnergyExpended: energy}
}

// factor looks a nested factor up on the primary metric, retrying the
// engine-wide fallback country once before giving up with
// ErrComputation.
func (c *Calculator) factor(
	ctx context.Context,
	primary domain.CountryMetric,
	date time.Time,
	what string,
	get func(*domain.CountryMetric) (float64, bool),
) (float64, error) {
	if v, ok := get(&primary); ok {
		return validFactor(v, what, primary.CountryID)
	}

	fallback, err := c.resolver.ResolveFallback(ctx, date)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.Computationf("%s factor unavailable: no fallback metric", what)
		}
		return 0, err
	}
	if v, ok := get(&fallback); ok {
		return validFactor(v, what, fallback.CountryID)
	}
	return 0, domain.Computationf("%s factor missing from %s and fallback country metrics", what, primary.CountryID)
}

func validFactor(v float64, what, countryID string) (float64, error) {
	if !isFinite(v) {
		return 0, domain.Computationf("%s factor for country %s is not a finite number", what, countryID)
	}
	return v, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
