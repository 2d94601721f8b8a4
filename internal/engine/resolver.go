package engine

import (
	"context"
	"time"

	"github.com/verdantio/carbonledger/internal/domain"
	"github.com/verdantio/carbonledger/internal/logging"
)

// MetricSource lists the country metric snapshots of one country. The
// SQLite store satisfies this; tests use fixtures.
type MetricSource interface {
	ListCountryMetrics(ctx context.Context, countryID string) ([]domain.CountryMetric, error)
}

// FactorResolver resolves the applicable, time-versioned emission
// factor snapshot for a country and date. When a caller finds a needed
// nested factor absent from the resolved metric, it retries against the
// engine-wide fallback country exactly once; there is no further
// fallback, which keeps resolution from recursing.
type FactorResolver struct {
	source          MetricSource
	fallbackCountry string
}

// NewFactorResolver builds a resolver over source with the given
// fallback country id.
func NewFactorResolver(source MetricSource, fallbackCountry string) *FactorResolver {
	return &FactorResolver{source: source, fallbackCountry: fallbackCountry}
}

// Resolve returns the latest snapshot for countryID whose ValidFrom
// precedes date, or ErrNotFound when the country has no applicable
// snapshot.
func (r *FactorResolver) Resolve(ctx context.Context, countryID string, date time.Time) (domain.CountryMetric, error) {
	metrics, err := r.source.ListCountryMetrics(ctx, countryID)
	if err != nil {
		return domain.CountryMetric{}, err
	}

	var (
		best  domain.CountryMetric
		found bool
	)
	for _, m := range metrics {
		if !m.ValidFrom.Before(date) {
			continue
		}
		if !found || m.ValidFrom.After(best.ValidFrom) {
			best = m
			found = true
		}
	}
	if !found {
		return domain.CountryMetric{}, domain.NotFoundf("no country metric for %s valid before %s", countryID, date.Format(time.DateOnly))
	}
	return best, nil
}

// ResolveFallback resolves the fallback country's snapshot for the same
// date. Callers use it when a nested factor is absent from the primary
// metric; a factor still absent in the fallback is a ComputationError
// at the call site.
func (r *FactorResolver) ResolveFallback(ctx context.Context, date time.Time) (domain.CountryMetric, error) {
	logger := logging.FromContext(ctx)
	logger.Debug().
		Str("component", "resolver").
		Str("fallback_country", r.fallbackCountry).
		Msg("falling back to engine-wide country metric")
	return r.Resolve(ctx, r.fallbackCountry, date)
}
