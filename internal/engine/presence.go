package engine

import "time"

// MarkDays folds a consumption's covered days into a day-of-year
// presence map, restricted to the requested year. delta is +1 for an
// added or edited consumption and -1 for a deleted one. Counts never go
// below zero: the map is a coverage signal and a negative count has no
// meaning.
//
// Boundaries are normalized to UTC midnight, so a range touching a day
// in any timezone representation counts that whole day.
func MarkDays(start, end time.Time, year int, existing map[int]int, delta int) map[int]int {
	updated := make(map[int]int, len(existing))
	for k, v := range existing {
		updated[k] = v
	}

	start = utcMidnight(start)
	end = utcMidnight(end)
	if end.Before(start) {
		return updated
	}

	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	if start.Before(yearStart) {
		start = yearStart
	}
	if end.After(yearEnd) {
		end = yearEnd
	}

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		doy := d.YearDay()
		n := updated[doy] + delta
		if n < 0 {
			n = 0
		}
		updated[doy] = n
	}
	return updated
}

// presentDays counts map entries with at least one active consumption.
func presentDays(presence map[int]int) int {
	var n int
	for _, v := range presence {
		if v > 0 {
			n++
		}
	}
	return n
}
