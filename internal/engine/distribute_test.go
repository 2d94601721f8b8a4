package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantio/carbonledger/internal/domain"
)

const floatEps = 1e-9

// TestDistributeSingleDay verifies a one-day range carries the full
// value in its month.
func TestDistributeSingleDay(t *testing.T) {
	dist, err := Distribute(date(2023, time.March, 15), date(2023, time.March, 15), 42)
	require.NoError(t, err)

	require.Len(t, dist, 1)
	require.Len(t, dist[2023], 1)
	assert.InDelta(t, 42, dist[2023][time.March], floatEps)
}

// TestDistributeTwoMonths verifies the day-weighted split of a range
// spanning Jan 20 to Feb 10: 12 January days and 10 February days.
func TestDistributeTwoMonths(t *testing.T) {
	dist, err := Distribute(date(2023, time.January, 20), date(2023, time.February, 10), 62)
	require.NoError(t, err)

	require.Len(t, dist[2023], 2)
	assert.InDelta(t, 62*12.0/22.0, dist[2023][time.January], floatEps)
	assert.InDelta(t, 62*10.0/22.0, dist[2023][time.February], floatEps)
}

// TestDistributeAcrossYears verifies a range crossing a year boundary
// lands in both years.
func TestDistributeAcrossYears(t *testing.T) {
	// Dec 30 2022 .. Jan 2 2023: 2 days each side.
	dist, err := Distribute(date(2022, time.December, 30), date(2023, time.January, 2), 10)
	require.NoError(t, err)

	assert.InDelta(t, 5, dist[2022][time.December], floatEps)
	assert.InDelta(t, 5, dist[2023][time.January], floatEps)
}

// TestDistributeConservation verifies the portions always sum to the
// input value.
func TestDistributeConservation(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		value float64
	}{
		{"single day", date(2023, time.June, 1), date(2023, time.June, 1), 17.5},
		{"full month", date(2023, time.February, 1), date(2023, time.February, 28), 99.9},
		{"quarter", date(2023, time.January, 10), date(2023, time.April, 2), 301.25},
		{"full year", date(2024, time.January, 1), date(2024, time.December, 31), 1234.56},
		{"two years", date(2022, time.November, 11), date(2024, time.March, 3), 0.001},
		{"leap february", date(2024, time.February, 1), date(2024, time.March, 1), 60},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dist, err := Distribute(tc.start, tc.end, tc.value)
			require.NoError(t, err)
			assert.InDelta(t, tc.value, dist.Total(), 1e-9)
		})
	}
}

// TestDistributeInvertedRange verifies an inverted range is rejected as
// a validation error.
func TestDistributeInvertedRange(t *testing.T) {
	_, err := Distribute(date(2023, time.March, 10), date(2023, time.March, 1), 5)
	require.ErrorIs(t, err, domain.ErrValidation)
}

// TestDistributeNormalizesTime verifies wall-clock times and zones do
// not change day attribution.
func TestDistributeNormalizesTime(t *testing.T) {
	loc := time.FixedZone("east", 5*3600)
	start := time.Date(2023, time.January, 31, 23, 30, 0, 0, time.UTC)
	end := time.Date(2023, time.February, 1, 1, 0, 0, 0, loc)

	dist, err := Distribute(start, end, 2)
	require.NoError(t, err)
	// Jan 31 and Jan 31 (east zone Feb 1 01:00 is Jan 31 20:00 UTC).
	assert.InDelta(t, 2, dist[2023][time.January], floatEps)
}
