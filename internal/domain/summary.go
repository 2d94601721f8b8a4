package domain

import "time"

// Totals is an aggregate figure with an optional qualitative label.
// Labels are only assigned at annual granularity.
type Totals struct {
	Total float64 `json:"total"`
	Label *string `json:"label,omitempty"`
}

// CategoryTotals is a per-category aggregate with its share of the
// enclosing total. Percentage is clamped to [0,1] and forced to 0 when
// the denominator is 0.
type CategoryTotals struct {
	Total      float64 `json:"total"`
	Percentage float64 `json:"percentage"`
	Label      *string `json:"label,omitempty"`
}

// CategorySummary is the annual per-category breakdown of a summary.
// ConsumptionDays maps day-of-year to the number of consumptions of
// this category covering that day; it is a coverage signal for label
// proration, not a consumption total.
type CategorySummary struct {
	Category        Category       `json:"category"`
	CarbonEmission  CategoryTotals `json:"carbonEmission"`
	EnergyExpended  CategoryTotals `json:"energyExpended"`
	ConsumptionDays map[int]int    `json:"consumptionDays,omitempty"`
}

// MonthCategory is the per-category slice of one month.
type MonthCategory struct {
	Category       Category       `json:"category"`
	CarbonEmission CategoryTotals `json:"carbonEmission"`
	EnergyExpended CategoryTotals `json:"energyExpended"`
}

// MonthSummary aggregates one calendar month. The sum of the category
// totals equals the month total (within epsilon).
type MonthSummary struct {
	Month          time.Month       `json:"month"`
	CarbonEmission Totals           `json:"carbonEmission"`
	EnergyExpended Totals           `json:"energyExpended"`
	Categories     []*MonthCategory `json:"categories"`
}

// ConsumptionSummary is the per-(user, year) rollup document consumed
// by dashboards and the label classifier.
type ConsumptionSummary struct {
	UserID          string             `json:"userId"`
	Year            int                `json:"year"`
	Version         string             `json:"version"`
	DateLastUpdated time.Time          `json:"dateLastUpdated"`
	CarbonEmission  Totals             `json:"carbonEmission"`
	EnergyExpended  Totals             `json:"energyExpended"`
	Categories      []*CategorySummary `json:"categories"`
	Months          []*MonthSummary    `json:"months"`
}

// CategoryEntry returns the annual entry for cat, creating a zeroed one
// on first touch.
func (s *ConsumptionSummary) CategoryEntry(cat Category) *CategorySummary {
	for _, e := range s.Categories {
		if e.Category == cat {
			return e
		}
	}
	e := &CategorySummary{Category: cat, ConsumptionDays: map[int]int{}}
	s.Categories = append(s.Categories, e)
	return e
}

// MonthEntry returns the entry for month, creating a zeroed one on
// first touch.
func (s *ConsumptionSummary) MonthEntry(month time.Month) *MonthSummary {
	for _, m := range s.Months {
		if m.Month == month {
			return m
		}
	}
	m := &MonthSummary{Month: month}
	s.Months = append(s.Months, m)
	return m
}

// CategoryEntry returns the per-category entry of the month, creating a
// zeroed one on first touch.
func (m *MonthSummary) CategoryEntry(cat Category) *MonthCategory {
	for _, e := range m.Categories {
		if e.Category == cat {
			return e
		}
	}
	e := &MonthCategory{Category: cat}
	m.Categories = append(m.Categories, e)
	return e
}

// Empty reports whether the summary carries no contribution at all.
func (s *ConsumptionSummary) Empty() bool {
	if s.CarbonEmission.Total != 0 || s.EnergyExpended.Total != 0 {
		return false
	}
	for _, m := range s.Months {
		if m.CarbonEmission.Total != 0 || m.EnergyExpended.Total != 0 {
			return false
		}
	}
	return true
}
