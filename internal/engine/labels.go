package engine

import (
	"github.com/verdantio/carbonledger/internal/domain"
)

// transportReferenceDays is the coverage reference for transportation:
// five distinct travel days count as full coverage. Periodic categories
// use the ratio of present days to tracked days instead.
const transportReferenceDays = 5

// ClassifyLabels assigns qualitative grades to the summaries' annual
// totals from the country's threshold tables, prorated by data
// coverage. It mutates labels in place; totals are never changed.
//
// Band containment is inclusive at both bounds; the first matching band
// wins.
func ClassifyLabels(ls domain.LabelStructure, summaries map[int]*domain.ConsumptionSummary) {
	for _, s := range summaries {
		classifyMetric(s, ls.CarbonEmission, &s.CarbonEmission,
			func(e *domain.CategorySummary) *domain.CategoryTotals { return &e.CarbonEmission })
		classifyMetric(s, ls.EnergyExpended, &s.EnergyExpended,
			func(e *domain.CategorySummary) *domain.CategoryTotals { return &e.EnergyExpended })
	}
}

// classifyMetric grades one metric (carbon or energy) of one summary.
// Per category it value-copies the shared threshold table, scales every
// band by the category's coverage factor, and assigns the first band
// containing the category total. Scaled bands with the same label name
// are merged across categories (bounds summed) into the overall table;
// the year's overall label comes from the merged band containing the
// annual total, but only when at least one category achieved a label.
func classifyMetric(
	s *domain.ConsumptionSummary,
	tables map[domain.Category]domain.LabelTable,
	annual *domain.Totals,
	metric func(*domain.CategorySummary) *domain.CategoryTotals,
) {
	annual.Label = nil

	var (
		overallOrder []string
		overall      = make(map[string]*domain.LabelBand)
		anyLabeled   bool
	)

	for _, entry := range s.Categories {
		totals := metric(entry)
		totals.Label = nil

		bands := tables[entry.Category].Clone()
		if len(bands) == 0 {
			continue
		}

		cov := coverageFactor(entry.Category, entry.ConsumptionDays)
		days := presentDays(entry.ConsumptionDays)

		for i := range bands {
			bands[i].Minimum *= cov
			bands[i].Maximum *= cov

			merged, ok := overall[bands[i].Label]
			if !ok {
				merged = &domain.LabelBand{Label: bands[i].Label}
				overall[bands[i].Label] = merged
				overallOrder = append(overallOrder, bands[i].Label)
			}
			merged.Minimum += bands[i].Minimum
			merged.Maximum += bands[i].Maximum

			// A label is only valid when the category has any coverage.
			if totals.Label == nil && days > 0 && bandContains(bands[i], totals.Total) {
				label := bands[i].Label
				totals.Label = &label
				anyLabeled = true
			}
		}
	}

	if !anyLabeled {
		return
	}
	for _, name := range overallOrder {
		if bandContains(*overall[name], annual.Total) {
			label := name
			annual.Label = &label
			return
		}
	}
}

// coverageFactor is the fraction of the tracked period the user
// actually entered data for. Transportation measures against a fixed
// reference of five travel days; other categories against the days
// tracked in the presence map. Undefined coverage resolves to zero.
func coverageFactor(cat domain.Category, presence map[int]int) float64 {
	days := presentDays(presence)
	if cat == domain.CategoryTransportation {
		if days > transportReferenceDays {
			days = transportReferenceDays
		}
		return float64(days) / float64(transportReferenceDays)
	}
	if len(presence) == 0 {
		return 0
	}
	return float64(days) / float64(len(presence))
}

func bandContains(b domain.LabelBand, v float64) bool {
	return v >= b.Minimum && v <= b.Maximum
}
