package report

import (
	"fmt"
	"strings"
	"time"

	"spendtrack/internal/core"
)

// Period selects the reporting window and its bucket granularity.
type Period string

const (
	// PeriodDaily covers the last 7 days with one bucket per day.
	PeriodDaily Period = "daily"
	// PeriodWeekly covers the last 3 months with calendar-week buckets.
	PeriodWeekly Period = "weekly"
	// PeriodMonthly covers the last 12 months with calendar-month buckets.
	PeriodMonthly Period = "monthly"
	// PeriodYearly covers the last 5 years. Buckets are calendar months
	// filtered to January only, one point per year labeled by year: the
	// yearly series totals January spending, not the whole year. Annual
	// sums must be recomputed from the full in-window set.
	PeriodYearly Period = "yearly"
)

// Periods lists all selectable periods in display order.
var Periods = []Period{PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly}

func (p Period) String() string { return string(p) }

func (p Period) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

// Label returns the period's human-readable name.
func (p Period) Label() string {
	switch p {
	case PeriodDaily:
		return "Last 7 Days"
	case PeriodWeekly:
		return "Last 3 Months (Weekly)"
	case PeriodMonthly:
		return "Last 12 Months"
	case PeriodYearly:
		return "Last 5 Years"
	}
	return string(p)
}

// ParsePeriod parses a period selector, defaulting to monthly for the empty
// string and rejecting unknown values.
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return PeriodMonthly, nil
	}
	p := Period(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown period %q", s)
	}
	return p, nil
}

// windowStart returns the first day of the period's window, anchored to today.
func (p Period) windowStart(today core.Date) core.Date {
	switch p {
	case PeriodDaily:
		return core.DateOf(today.AddDate(0, 0, -7))
	case PeriodWeekly:
		return core.DateOf(today.AddDate(0, -3, 0))
	case PeriodYearly:
		return core.DateOf(today.AddDate(-5, 0, 0))
	default:
		return core.DateOf(today.AddDate(0, -12, 0))
	}
}

// buckets returns the ordered bucket boundaries covering [start, today],
// oldest first. Boundaries are calendar-aligned, so the first bucket may
// begin before start and the last may end after today; membership is always
// taken from the window-filtered record set.
func (p Period) buckets(start, today core.Date) []Bucket {
	var out []Bucket
	switch p {
	case PeriodDaily:
		for d := start; !d.After(today); d = core.DateOf(d.AddDate(0, 0, 1)) {
			out = append(out, Bucket{
				Label: d.Format("Jan 2"),
				Start: d,
				End:   d,
			})
		}
	case PeriodWeekly:
		for ws := startOfWeek(start); !ws.After(today); ws = core.DateOf(ws.AddDate(0, 0, 7)) {
			out = append(out, Bucket{
				Label: fmt.Sprintf("W%d %s", sundayWeek(ws), ws.Format("Jan")),
				Start: ws,
				End:   core.DateOf(ws.AddDate(0, 0, 6)),
			})
		}
	case PeriodYearly:
		for ms := startOfMonth(start); !ms.After(today); ms = core.DateOf(ms.AddDate(0, 1, 0)) {
			if ms.Month() != time.January {
				continue
			}
			out = append(out, Bucket{
				Label: ms.Format("2006"),
				Start: ms,
				End:   endOfMonth(ms),
			})
		}
	default: // PeriodMonthly
		for ms := startOfMonth(start); !ms.After(today); ms = core.DateOf(ms.AddDate(0, 1, 0)) {
			out = append(out, Bucket{
				Label: ms.Format("Jan 2006"),
				Start: ms,
				End:   endOfMonth(ms),
			})
		}
	}
	return out
}

// sundayWeek returns the week-of-year number with weeks starting on Sunday
// and the week containing January 1 counted as week 1. ISO numbering does
// not apply here: buckets start on Sunday, ISO weeks on Monday.
func sundayWeek(d core.Date) int {
	jan1 := core.NewDate(d.Year(), time.January, 1)
	return (d.YearDay()-1+int(jan1.Weekday()))/7 + 1
}

// startOfWeek returns the Sunday on or before d.
func startOfWeek(d core.Date) core.Date {
	return core.DateOf(d.AddDate(0, 0, -int(d.Weekday())))
}

func startOfMonth(d core.Date) core.Date {
	return core.NewDate(d.Year(), d.Month(), 1)
}

func endOfMonth(d core.Date) core.Date {
	return core.DateOf(core.NewDate(d.Year(), d.Month(), 1).AddDate(0, 1, -1))
}
