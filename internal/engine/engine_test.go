package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantio/carbonledger/internal/domain"
)

func newTestEngine(st *memStore) *Engine {
	return New(st, Options{
		ConsumptionVersion: testConsumptionVersion,
		SummaryVersion:     testSummaryVersion,
		FallbackCountry:    fallbackCountry,
		FreshnessWindow:    testFreshness,
		RebuildConcurrency: 2,
	})
}

// TestHandleChangeCreate verifies the full pipeline for a new
// consumption: computed fields written back and the year summary
// created.
func TestHandleChangeCreate(t *testing.T) {
	st, _ := seededStore()
	eng := newTestEngine(st)

	cons := heatingConsumption(300)
	require.NoError(t, st.PutConsumption(context.Background(), cons))

	require.NoError(t, eng.HandleChange(context.Background(), nil, cons, "u1", cons.ID))

	stored := st.consumptions[cons.ID]
	require.NotNil(t, stored.CarbonEmissions)
	assert.InDelta(t, 30, *stored.CarbonEmissions, floatEps)
	assert.InDelta(t, 150, *stored.EnergyExpended, floatEps)
	assert.Equal(t, testConsumptionVersion, stored.Version)

	s := st.summaries["u1"][2023]
	require.NotNil(t, s)
	assert.InDelta(t, 30, s.CarbonEmission.Total, floatEps)
}

// TestHandleChangeReinvocationIsNoOp verifies the idempotence property:
// the trigger caused by the engine's own write-back performs zero
// reads and zero writes.
func TestHandleChangeReinvocationIsNoOp(t *testing.T) {
	st, _ := seededStore()
	eng := newTestEngine(st)

	before := heatingConsumption(300)
	current := heatingConsumption(300)
	require.NoError(t, st.PutConsumption(context.Background(), current))
	require.NoError(t, eng.HandleChange(context.Background(), nil, current, "u1", current.ID))

	// The write-back re-fires the trigger with the computed snapshot.
	writesBefore := st.writes()
	require.NoError(t, eng.HandleChange(context.Background(), before, st.consumptions[current.ID], "u1", current.ID))
	assert.Equal(t, writesBefore, st.writes())
}

// TestHandleChangeDelete verifies a delete folds the negated
// contribution into the summary.
func TestHandleChangeDelete(t *testing.T) {
	st, _ := seededStore()
	eng := newTestEngine(st)

	keep := heatingConsumption(300)
	keep.ID = "keep"
	require.NoError(t, st.PutConsumption(context.Background(), keep))
	require.NoError(t, eng.HandleChange(context.Background(), nil, keep, "u1", keep.ID))

	gone := heatingConsumption(300)
	gone.ID = "gone"
	gone.Heating.StartDate = date(2023, time.June, 1)
	gone.Heating.EndDate = date(2023, time.June, 30)
	require.NoError(t, st.PutConsumption(context.Background(), gone))
	require.NoError(t, eng.HandleChange(context.Background(), nil, gone, "u1", gone.ID))

	snapshot := st.consumptions["gone"]
	delete(st.consumptions, "gone")
	require.NoError(t, eng.HandleChange(context.Background(), snapshot, nil, "u1", "gone"))

	s := st.summaries["u1"][2023]
	require.NotNil(t, s)
	assert.InDelta(t, 30, s.CarbonEmission.Total, 1e-6)
	for _, m := range s.Months {
		if m.Month == time.June {
			assert.InDelta(t, 0, m.CarbonEmission.Total, 1e-6)
		}
	}
}

// TestHandleChangeEditRecomputes verifies an edit to the value
// recomputes the emission fields.
func TestHandleChangeEditRecomputes(t *testing.T) {
	st, _ := seededStore()
	eng := newTestEngine(st)

	cons := heatingConsumption(300)
	require.NoError(t, st.PutConsumption(context.Background(), cons))
	require.NoError(t, eng.HandleChange(context.Background(), nil, cons, "u1", cons.ID))

	prev := st.consumptions[cons.ID]
	edited := deepCopy(prev)
	edited.Value = 600
	require.NoError(t, st.PutConsumption(context.Background(), edited))
	require.NoError(t, eng.HandleChange(context.Background(), prev, edited, "u1", cons.ID))

	stored := st.consumptions[cons.ID]
	require.NotNil(t, stored.CarbonEmissions)
	assert.InDelta(t, 60, *stored.CarbonEmissions, floatEps)
}

// TestHandleChangeUnknownUser verifies the error propagates uncaught,
// leaving retries to the hosting platform.
func TestHandleChangeUnknownUser(t *testing.T) {
	st := newMemStore()
	st.metrics = defaultMetrics()
	eng := newTestEngine(st)

	cons := heatingConsumption(300)
	err := eng.HandleChange(context.Background(), nil, cons, "nobody", cons.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
