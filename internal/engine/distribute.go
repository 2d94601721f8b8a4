package engine

import (
	"time"

	"github.com/verdantio/carbonledger/internal/domain"
)

// Distribution maps year, then month, to the portion of a value
// attributed to that month.
type Distribution map[int]map[time.Month]float64

// Total returns the sum of every portion.
func (d Distribution) Total() float64 {
	var sum float64
	for _, months := range d {
		for _, v := range months {
			sum += v
		}
	}
	return sum
}

// Distribute spreads value over the calendar months touched by the
// inclusive range [start, end], weighted by the number of range days
// falling in each month. The portions sum to value; a single-day range
// yields one month carrying the full value.
func Distribute(start, end time.Time, value float64) (Distribution, error) {
	start = utcMidnight(start)
	end = utcMidnight(end)
	if end.Before(start) {
		return nil, domain.Validationf("distribution range ends %s before it starts %s",
			end.Format(time.DateOnly), start.Format(time.DateOnly))
	}

	type slot struct {
		year  int
		month time.Month
		days  int
	}

	var (
		slots     []slot
		totalDays int
	)
	for cur := firstOfMonth(start); !cur.After(end); cur = cur.AddDate(0, 1, 0) {
		monthStart := cur
		if monthStart.Before(start) {
			monthStart = start
		}
		monthEnd := lastOfMonth(cur)
		if monthEnd.After(end) {
			monthEnd = end
		}
		days := daysBetween(monthStart, monthEnd) + 1
		slots = append(slots, slot{year: cur.Year(), month: cur.Month(), days: days})
		totalDays += days
	}

	dist := make(Distribution)
	for _, s := range slots {
		months, ok := dist[s.year]
		if !ok {
			months = make(map[time.Month]float64)
			dist[s.year] = months
		}
		months[s.month] = value * float64(s.days) / float64(totalDays)
	}
	return dist, nil
}

// utcMidnight normalizes t to 00:00 UTC of its calendar day.
func utcMidnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func lastOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}

// daysBetween counts whole days from a to b, both UTC midnights.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
