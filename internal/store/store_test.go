package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantio/carbonledger/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TestUserRoundTrip verifies users persist with both version stamps.
func TestUserRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u := domain.User{
		ID:        "u1",
		CountryID: "de",
		ConsumptionMeta: domain.VersionStamp{
			Version:           "1.2.0",
			LastRecalculation: day(2023, time.May, 1),
		},
		SummaryMeta: domain.VersionStamp{
			Version:           "2.0.0",
			LastRecalculation: day(2023, time.May, 2),
		},
	}
	require.NoError(t, s.PutUser(ctx, u))

	got, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, u, got)

	// Updating overwrites in place.
	u.SummaryMeta.Version = "2.1.0"
	require.NoError(t, s.PutUser(ctx, u))
	got, err = s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "2.1.0", got.SummaryMeta.Version)

	_, err = s.GetUser(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

// TestConsumptionRoundTrip verifies consumption documents survive the
// JSON column intact, including computed fields.
func TestConsumptionRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	carbon, energy := 30.0, 150.0
	c := &domain.Consumption{
		ID:       "c1",
		UserID:   "u1",
		Category: domain.CategoryHeating,
		Heating: &domain.HeatingPayload{
			StartDate:     day(2023, time.January, 1),
			EndDate:       day(2023, time.January, 31),
			HouseholdSize: 2,
			Fuel:          domain.FuelNaturalGas,
		},
		Value:           300,
		CarbonEmissions: &carbon,
		EnergyExpended:  &energy,
		Version:         "1.2.0",
		CreatedAt:       day(2023, time.January, 31),
		UpdatedAt:       day(2023, time.February, 1),
	}
	require.NoError(t, s.PutConsumption(ctx, c))

	got, err := s.GetConsumption(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, c, got)

	list, err := s.ListConsumptions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, s.DeleteConsumption(ctx, "c1"))
	_, err = s.GetConsumption(ctx, "c1")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

// TestConsumptionUnstampedRoundTrip verifies a fresh snapshot persists
// before the engine's write-back sets UpdatedAt.
func TestConsumptionUnstampedRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c := &domain.Consumption{
		ID:       "c1",
		UserID:   "u1",
		Category: domain.CategoryHeating,
		Heating: &domain.HeatingPayload{
			StartDate:     day(2023, time.January, 1),
			EndDate:       day(2023, time.January, 31),
			HouseholdSize: 2,
			Fuel:          domain.FuelNaturalGas,
		},
		Value: 300,
	}
	require.NoError(t, s.PutConsumption(ctx, c))

	got, err := s.GetConsumption(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, c, got)
	assert.True(t, got.UpdatedAt.IsZero())
}

// TestCountryMetricListing verifies snapshots come back newest first
// and get ids assigned when missing.
func TestCountryMetricListing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	factor := 0.5
	for _, from := range []time.Time{day(2019, time.January, 1), day(2022, time.January, 1)} {
		require.NoError(t, s.PutCountryMetric(ctx, domain.CountryMetric{
			CountryID:   "de",
			ValidFrom:   from,
			Electricity: domain.ElectricityFactors{Default: &factor},
			Heating:     domain.FactorTable{"naturalGas": 0.2},
		}))
	}

	metrics, err := s.ListCountryMetrics(ctx, "de")
	require.NoError(t, err)
	require.Len(t, metrics, 2)
	assert.Equal(t, day(2022, time.January, 1), metrics[0].ValidFrom)
	assert.NotEmpty(t, metrics[0].ID)

	other, err := s.ListCountryMetrics(ctx, "fr")
	require.NoError(t, err)
	assert.Empty(t, other)
}

// TestLabelStructureRoundTrip verifies threshold tables persist.
func TestLabelStructureRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ls := domain.LabelStructure{
		CountryID: "de",
		CarbonEmission: map[domain.Category]domain.LabelTable{
			domain.CategoryHeating: {
				{Minimum: 0, Maximum: 100, Label: "A"},
				{Minimum: 100, Maximum: 300, Label: "B"},
			},
		},
	}
	require.NoError(t, s.PutLabelStructure(ctx, ls))

	got, err := s.GetLabelStructure(ctx, "de")
	require.NoError(t, err)
	assert.Equal(t, ls, got)

	_, err = s.GetLabelStructure(ctx, "fr")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

// TestSummaryRoundTrip verifies yearly summaries persist per
// (user, year) and delete cleanly.
func TestSummaryRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	label := "B"
	sum := &domain.ConsumptionSummary{
		UserID:          "u1",
		Year:            2023,
		Version:         "2.0.0",
		DateLastUpdated: day(2023, time.June, 1),
		CarbonEmission:  domain.Totals{Total: 30, Label: &label},
		EnergyExpended:  domain.Totals{Total: 150},
	}
	entry := sum.CategoryEntry(domain.CategoryHeating)
	entry.CarbonEmission = domain.CategoryTotals{Total: 30, Percentage: 1}
	entry.ConsumptionDays = map[int]int{60: 1, 61: 1}
	sum.MonthEntry(time.March).CarbonEmission.Total = 30
	require.NoError(t, s.PutSummary(ctx, sum))

	list, err := s.ListSummaries(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, sum, list[0])

	require.NoError(t, s.DeleteSummary(ctx, "u1", 2023))
	list, err = s.ListSummaries(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}
