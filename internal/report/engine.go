// Package report computes bucketed time series, summary statistics, and
// per-category totals over an in-memory expense list. Everything here is a
// pure function of its inputs; the empty list is a defined state, not an
// error.
package report

import (
	"sort"

	"spendtrack/internal/core"
)

// Bucket is one contiguous date interval of the series: its label, inclusive
// bounds, total, and member records. Buckets never overlap, so every
// in-window record lands in at most one bucket.
type Bucket struct {
	Label    string
	Start    core.Date
	End      core.Date
	Total    core.Money
	Expenses []core.Expense
}

// Report is the aggregation over one period window.
type Report struct {
	Period Period
	Start  core.Date
	End    core.Date

	// Series holds the bucketed totals, oldest bucket first.
	Series []Bucket

	// InWindow is the full window-filtered record set, used by the export;
	// under the yearly period it is a superset of the bucket members.
	InWindow []core.Expense

	// Total, Count and Average cover the union of bucket members.
	Total   core.Money
	Count   int
	Average core.Money

	// ByCategory sums bucket members per category, in no particular order.
	ByCategory []core.CategoryAmount
}

// Build computes the report for the given period, anchored to today. The
// input order does not matter; records outside the window are ignored.
func Build(expenses []core.Expense, period Period, today core.Date) Report {
	start := period.windowStart(today)

	r := Report{
		Period: period,
		Start:  start,
		End:    today,
		Series: period.buckets(start, today),
	}

	for _, e := range expenses {
		if e.Date.Within(start, today) {
			r.InWindow = append(r.InWindow, e)
		}
	}

	byCategory := make(map[core.Category]int64)
	for i := range r.Series {
		b := &r.Series[i]
		for _, e := range r.InWindow {
			if e.Date.Within(b.Start, b.End) {
				b.Expenses = append(b.Expenses, e)
				b.Total = b.Total.Add(e.Amount)
			}
		}
		r.Total = r.Total.Add(b.Total)
		r.Count += len(b.Expenses)
		for _, e := range b.Expenses {
			byCategory[e.Category] += e.Amount.Cents
		}
	}

	if r.Count > 0 {
		// Half-up rounding to the cent.
		r.Average = core.Money{Cents: (r.Total.Cents + int64(r.Count)/2) / int64(r.Count)}
	}

	for cat, cents := range byCategory {
		r.ByCategory = append(r.ByCategory, core.CategoryAmount{
			Category: cat,
			Amount:   core.Money{Cents: cents},
		})
	}

	return r
}

// CategoriesDesc returns the category totals sorted by amount descending,
// ties broken by label, for presentation.
func (r Report) CategoriesDesc() []core.CategoryAmount {
	out := make([]core.CategoryAmount, len(r.ByCategory))
	copy(out, r.ByCategory)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// Transactions returns the union of bucket members sorted newest first.
func (r Report) Transactions() []core.Expense {
	var out []core.Expense
	for _, b := range r.Series {
		out = append(out, b.Expenses...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Empty reports whether the window contains no records at all.
func (r Report) Empty() bool {
	return len(r.InWindow) == 0
}
