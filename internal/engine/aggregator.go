package engine

import (
	"context"
	"errors"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/verdantio/carbonledger/internal/domain"
	"github.com/verdantio/carbonledger/internal/engine/batch"
	"github.com/verdantio/carbonledger/internal/logging"
)

// Storage is everything the engine needs from the document store.
// *store.Store satisfies it; tests use in-memory fakes.
type Storage interface {
	MetricSource

	GetUser(ctx context.Context, id string) (domain.User, error)
	PutUser(ctx context.Context, u domain.User) error

	PutConsumption(ctx context.Context, c *domain.Consumption) error
	ListConsumptions(ctx context.Context, userID string) ([]*domain.Consumption, error)

	GetLabelStructure(ctx context.Context, countryID string) (domain.LabelStructure, error)

	ListSummaries(ctx context.Context, userID string) ([]*domain.ConsumptionSummary, error)
	PutSummary(ctx context.Context, s *domain.ConsumptionSummary) error
	DeleteSummary(ctx context.Context, userID string, year int) error
}

// Aggregator maintains the per-year consumption summaries. It decides
// between folding a single consumption's delta into the existing
// summaries and rebuilding the whole set from every consumption of the
// user.
type Aggregator struct {
	store Storage
	calc  *Calculator

	consumptionVersion string
	summaryVersion     string
	freshness          time.Duration
	concurrency        int

	now func() time.Time
}

// NewAggregator builds an aggregator. consumptionVersion and
// summaryVersion are the engine's two independent version counters;
// freshness bounds how old the last full recalculation may be for the
// incremental path.
func NewAggregator(store Storage, calc *Calculator, consumptionVersion, summaryVersion string, freshness time.Duration, concurrency int) *Aggregator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Aggregator{
		store:              store,
		calc:               calc,
		consumptionVersion: consumptionVersion,
		summaryVersion:     summaryVersion,
		freshness:          freshness,
		concurrency:        concurrency,
		now:                time.Now,
	}
}

// UpdateSummary folds cons (or its negation when isDelete) into the
// user's summaries, or rebuilds them from scratch when the incremental
// path is not eligible: summary version stamp mismatch, no existing
// summaries, no single consumption supplied, or the last full
// recalculation aged out of the freshness window.
func (a *Aggregator) UpdateSummary(ctx context.Context, user domain.User, cons *domain.Consumption, isDelete bool) error {
	existing, err := a.store.ListSummaries(ctx, user.ID)
	if err != nil {
		return err
	}

	if a.incrementalEligible(user, existing, cons) {
		return a.incremental(ctx, user, existing, cons, isDelete)
	}
	return a.Rebuild(ctx, user)
}

func (a *Aggregator) incrementalEligible(user domain.User, existing []*domain.ConsumptionSummary, cons *domain.Consumption) bool {
	if cons == nil || len(existing) == 0 {
		return false
	}
	if !versionEqual(user.SummaryMeta.Version, a.summaryVersion) {
		return false
	}
	return a.now().Sub(user.SummaryMeta.LastRecalculation) <= a.freshness
}

// incremental folds exactly one consumption's contribution into the
// already persisted summaries and writes back only the touched years.
func (a *Aggregator) incremental(ctx context.Context, user domain.User, existing []*domain.ConsumptionSummary, cons *domain.Consumption, isDelete bool) error {
	logger := logging.ComponentLogger(logging.FromContext(ctx), "aggregator")

	byYear := make(map[int]*domain.ConsumptionSummary, len(existing))
	persisted := make(map[int]bool, len(existing))
	for _, s := range existing {
		byYear[s.Year] = s
		persisted[s.Year] = true
	}

	touched, err := foldConsumption(cons, isDelete, byYear, user.ID)
	if err != nil {
		return err
	}
	for _, year := range touched {
		recalcPercentages(byYear[year])
	}

	if err := a.classify(ctx, user, byYear); err != nil {
		return err
	}

	now := a.now()
	for _, year := range touched {
		s, ok := byYear[year]
		if !ok {
			return domain.Consistencyf("summary for year %d vanished after fold", year)
		}
		// A delete can empty a year out entirely, or touch a year that
		// was never summarized; neither leaves a document behind.
		if s.Empty() {
			if !persisted[year] {
				continue
			}
			if err := a.store.DeleteSummary(ctx, user.ID, year); err != nil {
				return err
			}
			continue
		}
		if isDelete && !persisted[year] {
			continue
		}
		stampSummary(s, a.summaryVersion, now)
		if err := a.store.PutSummary(ctx, s); err != nil {
			return err
		}
	}

	logger.Debug().
		Str("user_id", user.ID).
		Str("consumption_id", cons.ID).
		Bool("delete", isDelete).
		Ints("years", touched).
		Msg("summary updated incrementally")
	return nil
}

// Rebuild discards the persisted summaries and recomputes the whole set
// from every consumption of the user. Per-consumption failures are
// logged and skipped so one malformed historical record cannot block
// the user's summaries; the resulting partial rebuild self-heals on the
// next trigger.
func (a *Aggregator) Rebuild(ctx context.Context, user domain.User) error {
	logger := logging.ComponentLogger(logging.FromContext(ctx), "aggregator")

	consumptions, err := a.store.ListConsumptions(ctx, user.ID)
	if err != nil {
		return err
	}
	existing, err := a.store.ListSummaries(ctx, user.ID)
	if err != nil {
		return err
	}

	// A consumption-version mismatch forces recomputation of every
	// consumption's emission fields, not just the missing ones.
	recomputeAll := !versionEqual(user.ConsumptionMeta.Version, a.consumptionVersion)

	prepared, failures, err := batch.MapTolerant(ctx, consumptions, a.concurrency,
		func(ctx context.Context, c *domain.Consumption) (*domain.Consumption, error) {
			return a.prepare(ctx, user, c, recomputeAll)
		})
	if err != nil {
		return err
	}
	for _, f := range failures {
		logger.Warn().
			Str("user_id", user.ID).
			Str("consumption_id", consumptions[f.Index].ID).
			Err(f.Err).
			Msg("consumption skipped during summary rebuild")
	}

	rebuilt := make(map[int]*domain.ConsumptionSummary)
	for _, c := range prepared {
		if c == nil {
			continue
		}
		if _, err := foldConsumption(c, false, rebuilt, user.ID); err != nil {
			logger.Warn().
				Str("user_id", user.ID).
				Str("consumption_id", c.ID).
				Err(err).
				Msg("consumption fold failed during summary rebuild")
		}
	}
	for year, s := range rebuilt {
		recalcPercentages(s)
		if s.Empty() {
			delete(rebuilt, year)
		}
	}

	if err := a.classify(ctx, user, rebuilt); err != nil {
		return err
	}

	now := a.now()
	for _, s := range rebuilt {
		stampSummary(s, a.summaryVersion, now)
		if err := a.store.PutSummary(ctx, s); err != nil {
			return err
		}
	}
	// Years with no remaining contribution lose their summary document.
	for _, s := range existing {
		if _, ok := rebuilt[s.Year]; !ok {
			if err := a.store.DeleteSummary(ctx, user.ID, s.Year); err != nil {
				return err
			}
		}
	}

	user.SummaryMeta = domain.VersionStamp{Version: a.summaryVersion, LastRecalculation: now}
	if recomputeAll {
		user.ConsumptionMeta = domain.VersionStamp{Version: a.consumptionVersion, LastRecalculation: now}
	}
	if err := a.store.PutUser(ctx, user); err != nil {
		return err
	}

	logger.Info().
		Str("user_id", user.ID).
		Int("consumptions", len(consumptions)).
		Int("skipped", len(failures)).
		Int("years", len(rebuilt)).
		Bool("recomputed_emissions", recomputeAll).
		Msg("summaries rebuilt")
	return nil
}

// prepare returns the consumption with emission fields guaranteed
// computed, writing freshly computed fields back onto the record.
func (a *Aggregator) prepare(ctx context.Context, user domain.User, c *domain.Consumption, recomputeAll bool) (*domain.Consumption, error) {
	if c.Computed() && !recomputeAll {
		return c, nil
	}
	res, err := a.calc.Calculate(ctx, c, user)
	if err != nil {
		return nil, err
	}
	c.CarbonEmissions = &res.CarbonEmission
	c.EnergyExpended = &res.EnergyExpended
	c.Version = a.consumptionVersion
	c.UpdatedAt = a.now()
	if err := a.store.PutConsumption(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// classify runs the label pass over the summaries. A country without a
// label structure leaves the summaries unlabeled.
func (a *Aggregator) classify(ctx context.Context, user domain.User, summaries map[int]*domain.ConsumptionSummary) error {
	ls, err := a.store.GetLabelStructure(ctx, user.CountryID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log := logging.FromContext(ctx)
			log.Debug().
				Str("component", "aggregator").
				Str("country_id", user.CountryID).
				Msg("no label structure, summaries stay unlabeled")
			return nil
		}
		return err
	}
	ClassifyLabels(ls, summaries)
	return nil
}

// versionEqual reports whether two engine version stamps denote the
// same semver version. Unparseable stamps never match, which forces the
// conservative (rebuild / recompute) path.
func versionEqual(stamp, current string) bool {
	sv, err := semver.NewVersion(stamp)
	if err != nil {
		return false
	}
	cv, err := semver.NewVersion(current)
	if err != nil {
		return false
	}
	return sv.Equal(cv)
}
