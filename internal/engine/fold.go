package engine

import (
	"time"

	"github.com/verdantio/carbonledger/internal/domain"
)

// foldConsumption folds one computed consumption's distributed
// contribution (negated when isDelete) into the per-year summaries map.
// Missing year, month, and category sub-entries are created lazily with
// zeroed totals. Returns the years that were touched.
//
// Percentage recomputation is the caller's job via recalcPercentages;
// folding only accumulates totals and day presence.
func foldConsumption(
	cons *domain.Consumption,
	isDelete bool,
	summaries map[int]*domain.ConsumptionSummary,
	userID string,
) ([]int, error) {
	if !cons.Computed() {
		return nil, domain.Computationf("consumption %s has no computed emission fields", cons.ID)
	}

	carbon := *cons.CarbonEmissions
	energy := *cons.EnergyExpended
	delta := 1
	if isDelete {
		carbon, energy = -carbon, -energy
		delta = -1
	}

	start, end, err := cons.DateRange()
	if err != nil {
		return nil, err
	}

	carbonDist, err := Distribute(start, end, carbon)
	if err != nil {
		return nil, err
	}
	energyDist, err := Distribute(start, end, energy)
	if err != nil {
		return nil, err
	}

	touched := make(map[int]bool)
	for year, months := range carbonDist {
		s := summaryFor(summaries, userID, year)
		touched[year] = true
		for month, portion := range months {
			s.CarbonEmission.Total += portion
			m := s.MonthEntry(month)
			m.CarbonEmission.Total += portion
			m.CategoryEntry(cons.Category).CarbonEmission.Total += portion
			s.CategoryEntry(cons.Category).CarbonEmission.Total += portion
		}
	}
	for year, months := range energyDist {
		s := summaryFor(summaries, userID, year)
		touched[year] = true
		for month, portion := range months {
			s.EnergyExpended.Total += portion
			m := s.MonthEntry(month)
			m.EnergyExpended.Total += portion
			m.CategoryEntry(cons.Category).EnergyExpended.Total += portion
			s.CategoryEntry(cons.Category).EnergyExpended.Total += portion
		}
	}

	years := make([]int, 0, len(touched))
	for year := range touched {
		entry := summaries[year].CategoryEntry(cons.Category)
		entry.ConsumptionDays = MarkDays(start, end, year, entry.ConsumptionDays, delta)
		years = append(years, year)
	}
	return years, nil
}

// summaryFor returns the year's summary, creating a zeroed one on
// first touch.
func summaryFor(summaries map[int]*domain.ConsumptionSummary, userID string, year int) *domain.ConsumptionSummary {
	if s, ok := summaries[year]; ok {
		return s
	}
	s := &domain.ConsumptionSummary{UserID: userID, Year: year}
	summaries[year] = s
	return s
}

// recalcPercentages renormalizes every total of the summary and
// recomputes each category's share at monthly and annual granularity. A
// zero denominator yields a zero percentage, never NaN.
func recalcPercentages(s *domain.ConsumptionSummary) {
	s.CarbonEmission.Total = normalize(s.CarbonEmission.Total)
	s.EnergyExpended.Total = normalize(s.EnergyExpended.Total)

	for _, entry := range s.Categories {
		entry.CarbonEmission.Total = normalize(entry.CarbonEmission.Total)
		entry.EnergyExpended.Total = normalize(entry.EnergyExpended.Total)
		entry.CarbonEmission.Percentage = percentage(entry.CarbonEmission.Total, s.CarbonEmission.Total)
		entry.EnergyExpended.Percentage = percentage(entry.EnergyExpended.Total, s.EnergyExpended.Total)
	}

	for _, m := range s.Months {
		m.CarbonEmission.Total = normalize(m.CarbonEmission.Total)
		m.EnergyExpended.Total = normalize(m.EnergyExpended.Total)
		for _, entry := range m.Categories {
			entry.CarbonEmission.Total = normalize(entry.CarbonEmission.Total)
			entry.EnergyExpended.Total = normalize(entry.EnergyExpended.Total)
			entry.CarbonEmission.Percentage = percentage(entry.CarbonEmission.Total, m.CarbonEmission.Total)
			entry.EnergyExpended.Percentage = percentage(entry.EnergyExpended.Total, m.EnergyExpended.Total)
		}
	}
}

// stampSummary marks a summary as freshly computed by this engine
// version.
func stampSummary(s *domain.ConsumptionSummary, version string, now time.Time) {
	s.Version = version
	s.DateLastUpdated = now
}
