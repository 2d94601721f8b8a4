// Package engine implements the carbon and energy accounting core:
// change classification, emission factor resolution, per-category
// emission formulas, day-weighted monthly distribution, summary
// aggregation, and threshold-based labeling.
//
// The engine is invoked once per logical consumption change with the
// before and after snapshots; the hosting entry points (CLI commands,
// schedulers) stay thin.
package engine

import (
	"context"
	"time"

	"github.com/verdantio/carbonledger/internal/domain"
	"github.com/verdantio/carbonledger/internal/logging"
)

// Options carries the engine tunables, usually taken from
// config.EngineConfig.
type Options struct {
	// ConsumptionVersion gates raw emission recomputation.
	ConsumptionVersion string
	// SummaryVersion gates incremental-vs-rebuild summary maintenance.
	SummaryVersion string
	// FallbackCountry is consulted for nested factors absent from the
	// user's own country metric.
	FallbackCountry string
	// FreshnessWindow bounds incremental-path eligibility.
	FreshnessWindow time.Duration
	// RebuildConcurrency bounds the rebuild fan-out.
	RebuildConcurrency int
}

// Engine wires the pipeline together: classifier gates entry, resolver
// and calculator produce the computed fields written back onto the
// consumption, and the aggregator folds the contribution into the
// yearly summaries with the label classifier as the final pass.
type Engine struct {
	store Storage
	calc  *Calculator
	agg   *Aggregator

	consumptionVersion string
	now                func() time.Time
}

// New builds an engine over the given storage.
func New(store Storage, opts Options) *Engine {
	resolver := NewFactorResolver(store, opts.FallbackCountry)
	calc := NewCalculator(resolver)
	return &Engine{
		store: store,
		calc:  calc,
		agg: NewAggregator(store, calc,
			opts.ConsumptionVersion, opts.SummaryVersion,
			opts.FreshnessWindow, opts.RebuildConcurrency),
		consumptionVersion: opts.ConsumptionVersion,
		now:                time.Now,
	}
}

// HandleChange processes one consumption change event: the previous and
// current snapshots (either may be nil) plus the path parameters. This
// is the engine's single entry point, invoked once per create, update,
// or delete of a user's consumption record.
//
// A reinvocation (the engine's own write-back re-firing the trigger)
// short-circuits with no reads or writes at all.
func (e *Engine) HandleChange(ctx context.Context, prev, curr *domain.Consumption, userID, consumptionID string) error {
	logger := logging.ComponentLogger(logging.FromContext(ctx), "engine").With().
		Str("user_id", userID).
		Str("consumption_id", consumptionID).
		Logger()

	kind := Classify(prev, curr)
	logger.Debug().Str("change", string(kind)).Msg("consumption change classified")

	switch kind {
	case ChangeNone:
		return nil
	case ChangeReinvocation:
		// Our own write-back of computed fields; acting on it again
		// would loop forever.
		return nil
	case ChangeDeleted:
		user, err := e.store.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		return e.agg.UpdateSummary(ctx, user, prev, true)
	case ChangeCreated, ChangeEdited, ChangeUpdated:
		user, err := e.store.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if err := e.computeAndWriteBack(ctx, curr, user); err != nil {
			return err
		}
		return e.agg.UpdateSummary(ctx, user, curr, false)
	}
	return domain.Consistencyf("unhandled change kind %q", kind)
}

// Recalculate forces the full-rebuild path for a user, regardless of
// summary freshness. Scheduled jobs and operators use this.
func (e *Engine) Recalculate(ctx context.Context, userID string) error {
	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	return e.agg.Rebuild(ctx, user)
}

// computeAndWriteBack evaluates the emission formulas and persists the
// computed fields onto the triggering consumption record. The follow-up
// trigger this write causes is classified as a reinvocation and
// suppressed.
func (e *Engine) computeAndWriteBack(ctx context.Context, cons *domain.Consumption, user domain.User) error {
	res, err := e.calc.Calculate(ctx, cons, user)
	if err != nil {
		return err
	}
	cons.CarbonEmissions = &res.CarbonEmission
	cons.EnergyExpended = &res.EnergyExpended
	cons.Version = e.consumptionVersion
	cons.UpdatedAt = e.now()
	return e.store.PutConsumption(ctx, cons)
}
