package report

import "spendtrack/internal/core"

// Stats is the dashboard summary: all-time total plus the current calendar
// month's total and average transaction.
type Stats struct {
	Total        core.Money
	MonthTotal   core.Money
	MonthCount   int
	MonthAverage core.Money
	MonthLabel   string
}

// ComputeStats summarizes the full expense list relative to today.
func ComputeStats(expenses []core.Expense, today core.Date) Stats {
	monthStart := startOfMonth(today)
	monthEnd := endOfMonth(today)

	s := Stats{MonthLabel: today.Format("January 2006")}
	for _, e := range expenses {
		s.Total = s.Total.Add(e.Amount)
		if e.Date.Within(monthStart, monthEnd) {
			s.MonthTotal = s.MonthTotal.Add(e.Amount)
			s.MonthCount++
		}
	}
	if s.MonthCount > 0 {
		s.MonthAverage = core.Money{Cents: (s.MonthTotal.Cents + int64(s.MonthCount)/2) / int64(s.MonthCount)}
	}
	return s
}
