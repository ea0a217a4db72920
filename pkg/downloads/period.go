package downloads

import (
	"time"

	"github.com/matzehuels/pkgtrend/pkg/errors"
)

// Period is a named trailing window of days.
type Period string

const (
	LastWeek    Period = "last-week"
	LastMonth   Period = "last-month"
	LastQuarter Period = "last-quarter"
	LastYear    Period = "last-year"

	DefaultPeriod = LastMonth
)

var periodDays = map[Period]int{
	LastWeek:    7,
	LastMonth:   30,
	LastQuarter: 90,
	LastYear:    365,
}

// Periods lists the supported periods from shortest to longest.
func Periods() []Period {
	return []Period{LastWeek, LastMonth, LastQuarter, LastYear}
}

// ParsePeriod parses a period name. The empty string selects DefaultPeriod.
func ParsePeriod(s string) (Period, error) {
	if s == "" {
		return DefaultPeriod, nil
	}
	p := Period(s)
	if _, ok := periodDays[p]; !ok {
		return "", errors.New(errors.ErrCodeInvalidPeriod,
			"unknown period %q (want last-week, last-month, last-quarter or last-year)", s)
	}
	return p, nil
}

// Days returns the length of the period, or 0 for an unknown period.
func (p Period) Days() int { return periodDays[p] }

func (p Period) String() string { return string(p) }

// Range returns the first and last day of the period ending the day before
// now. Registries publish a day's counts only after it has ended.
func (p Period) Range(now time.Time) (start, end time.Time) {
	end = truncateDay(now).AddDate(0, 0, -1)
	start = end.AddDate(0, 0, -(max(p.Days(), 1) - 1))
	return start, end
}
