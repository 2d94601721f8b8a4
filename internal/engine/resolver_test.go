package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantio/carbonledger/internal/domain"
)

// TestResolvePicksLatestApplicable verifies the latest snapshot whose
// validity precedes the reference date wins.
func TestResolvePicksLatestApplicable(t *testing.T) {
	st := newMemStore()
	st.metrics["de"] = []domain.CountryMetric{
		testMetric("de", date(2019, time.January, 1)),
		testMetric("de", date(2021, time.January, 1)),
		testMetric("de", date(2024, time.January, 1)),
	}
	r := NewFactorResolver(st, fallbackCountry)

	m, err := r.Resolve(context.Background(), "de", date(2023, time.June, 15))
	require.NoError(t, err)
	assert.Equal(t, date(2021, time.January, 1), m.ValidFrom)
}

// TestResolveStrictlyBefore verifies a snapshot valid exactly on the
// reference date is not applicable yet.
func TestResolveStrictlyBefore(t *testing.T) {
	st := newMemStore()
	st.metrics["de"] = []domain.CountryMetric{
		testMetric("de", date(2020, time.January, 1)),
		testMetric("de", date(2023, time.June, 15)),
	}
	r := NewFactorResolver(st, fallbackCountry)

	m, err := r.Resolve(context.Background(), "de", date(2023, time.June, 15))
	require.NoError(t, err)
	assert.Equal(t, date(2020, time.January, 1), m.ValidFrom)
}

// TestResolveNotFound verifies the NotFound category when no snapshot
// applies.
func TestResolveNotFound(t *testing.T) {
	st := newMemStore()
	r := NewFactorResolver(st, fallbackCountry)

	_, err := r.Resolve(context.Background(), "de", date(2023, time.June, 15))
	require.ErrorIs(t, err, domain.ErrNotFound)
}
