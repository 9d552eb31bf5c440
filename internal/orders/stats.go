package orders

import (
	"errors"
	"time"
)

type Period string

const (
	PeriodToday     Period = "today"
	PeriodYesterday Period = "yesterday"
	PeriodThisMonth Period = "this_month"
	PeriodLastMonth Period = "last_month"
	PeriodThisYear  Period = "this_year"
	PeriodLastYear  Period = "last_year"
	PeriodTotal     Period = "total"
)

var Periods = []Period{PeriodToday, PeriodYesterday, PeriodThisMonth, PeriodLastMonth, PeriodThisYear, PeriodLastYear, PeriodTotal}

var ErrUnknownPeriod = errors.New("unknown stats period")

// Range returns the half-open [from, to) window of p in now's location.
// PeriodTotal yields two zero times.
func Range(p Period, now time.Time) (from, to time.Time, err error) {
	loc := now.Location()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	year := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc)

	switch p {
	case PeriodToday:
		return day, day.AddDate(0, 0, 1), nil
	case PeriodYesterday:
		return day.AddDate(0, 0, -1), day, nil
	case PeriodThisMonth:
		return month, month.AddDate(0, 1, 0), nil
	case PeriodLastMonth:
		return month.AddDate(0, -1, 0), month, nil
	case PeriodThisYear:
		return year, year.AddDate(1, 0, 0), nil
	case PeriodLastYear:
		return year.AddDate(-1, 0, 0), year, nil
	case PeriodTotal:
		return time.Time{}, time.Time{}, nil
	}
	return time.Time{}, time.Time{}, ErrUnknownPeriod
}
