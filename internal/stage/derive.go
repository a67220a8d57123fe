package stage

import (
	"math"
	"time"
)

// ProcessingDays is the calendar-day span between start and end, ignoring
// time of day. Same-day turnaround is 0. Returns nil while end is unset so
// open records report no duration rather than a growing one.
func ProcessingDays(start time.Time, end *time.Time) *int {
	if end == nil {
		return nil
	}
	days := int(midnight(*end).Sub(midnight(start)).Hours() / 24)
	return &days
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Fee prices a copy job: pages times the per-page rate, rounded to two
// decimals so stored amounts match what the receipt shows.
func Fee(pages int, perPageRate float64) float64 {
	return math.Round(float64(pages)*perPageRate*100) / 100
}
