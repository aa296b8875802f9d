package review

import (
	"fmt"
	"time"
)

const (
	Q1 = "Q1"
	Q2 = "Q2"
	Q3 = "Q3"
	Q4 = "Q4"
)

var quarterStartMonth = map[string]time.Month{
	Q1: time.January,
	Q2: time.April,
	Q3: time.July,
	Q4: time.October,
}

// ValidQuarter reports whether label is one of Q1..Q4.
func ValidQuarter(label string) bool {
	_, ok := quarterStartMonth[label]
	return ok
}

// QuarterRange returns the inclusive calendar date range for a quarter. The
// end date is computed as the first day of the following month minus one day,
// so month lengths are always exact.
func QuarterRange(year int, quarter string) (time.Time, time.Time, error) {
	startMonth, ok := quarterStartMonth[quarter]
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid quarter %q", quarter)
	}
	start := time.Date(year, startMonth, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 3, 0).AddDate(0, 0, -1)
	return start, end, nil
}

// CurrentQuarter maps a date onto its calendar quarter.
func CurrentQuarter(at time.Time) (int, string) {
	switch {
	case at.Month() <= time.March:
		return at.Year(), Q1
	case at.Month() <= time.June:
		return at.Year(), Q2
	case at.Month() <= time.September:
		return at.Year(), Q3
	default:
		return at.Year(), Q4
	}
}
