package report

import (
	"testing"
	"time"

	"spendtrack/internal/core"
)

func exp(id string, cents int64, cat core.Category, date core.Date) core.Expense {
	return core.Expense{
		ID:       id,
		Amount:   core.Money{Cents: cents},
		Category: cat,
		Date:     date,
		UserID:   "u1",
	}
}

func TestParsePeriod(t *testing.T) {
	cases := []struct {
		in   string
		want Period
		ok   bool
	}{
		{"", PeriodMonthly, true},
		{"daily", PeriodDaily, true},
		{"WEEKLY", PeriodWeekly, true},
		{" monthly ", PeriodMonthly, true},
		{"yearly", PeriodYearly, true},
		{"quarterly", "", false},
	}
	for _, tc := range cases {
		got, err := ParsePeriod(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Errorf("ParsePeriod(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
			}
		} else if err == nil {
			t.Errorf("ParsePeriod(%q) expected error", tc.in)
		}
	}
}

func TestBuildDailyScenario(t *testing.T) {
	today := core.NewDate(2026, time.August, 30)
	expenses := []core.Expense{
		exp("a", 5000, core.Food, core.DateOf(today.AddDate(0, 0, -10))),
		exp("b", 2000, core.Food, today),
	}

	r := Build(expenses, PeriodDaily, today)

	if len(r.InWindow) != 1 || r.InWindow[0].ID != "b" {
		t.Fatalf("expected only the today record in window, got %d records", len(r.InWindow))
	}
	if r.Total.Cents != 2000 {
		t.Errorf("total = %d cents, want 2000", r.Total.Cents)
	}
	if r.Count != 1 {
		t.Errorf("count = %d, want 1", r.Count)
	}
	if r.Average.Cents != 2000 {
		t.Errorf("average = %d cents, want 2000", r.Average.Cents)
	}

	// 7-day window anchored to today yields 8 daily buckets, today last.
	if len(r.Series) != 8 {
		t.Fatalf("expected 8 daily buckets, got %d", len(r.Series))
	}
	last := r.Series[len(r.Series)-1]
	if !last.Start.Equal(today.Time) || last.Total.Cents != 2000 || len(last.Expenses) != 1 {
		t.Errorf("today bucket = %+v, want the 20.00 record", last)
	}
	for _, b := range r.Series[:len(r.Series)-1] {
		if len(b.Expenses) != 0 {
			t.Errorf("bucket %s should be empty", b.Label)
		}
	}

	cats := r.CategoriesDesc()
	if len(cats) != 1 || cats[0].Category != core.Food || cats[0].Amount.Cents != 2000 {
		t.Errorf("category totals = %+v, want Food 20.00", cats)
	}
}

func TestBuildEmptyInput(t *testing.T) {
	today := core.NewDate(2026, time.August, 30)
	for _, p := range Periods {
		r := Build(nil, p, today)
		if !r.Empty() {
			t.Errorf("%s: empty input should report Empty()", p)
		}
		if r.Total.Cents != 0 || r.Count != 0 || r.Average.Cents != 0 {
			t.Errorf("%s: totals should be zero, got %+v", p, r)
		}
		if len(r.ByCategory) != 0 {
			t.Errorf("%s: category totals should be empty", p)
		}
		for _, b := range r.Series {
			if len(b.Expenses) != 0 || b.Total.Cents != 0 {
				t.Errorf("%s: bucket %s should be empty", p, b.Label)
			}
		}
	}
}

func TestBuildAverage(t *testing.T) {
	today := core.NewDate(2026, time.August, 30)
	expenses := []core.Expense{
		exp("a", 1000, core.Food, today),
		exp("b", 1001, core.Shopping, today),
	}
	r := Build(expenses, PeriodDaily, today)
	if r.Average.Cents != 1001 { // 2001/2 rounded half up
		t.Errorf("average = %d, want 1001", r.Average.Cents)
	}
}

func TestBuildMonthlyCoverage(t *testing.T) {
	today := core.NewDate(2026, time.August, 30)
	window := PeriodMonthly.windowStart(today)
	expenses := []core.Expense{
		exp("edge-start", 100, core.Housing, window),
		exp("mid", 200, core.Food, core.NewDate(2026, time.January, 15)),
		exp("edge-end", 300, core.Utilities, today),
		exp("before", 400, core.Food, core.DateOf(window.AddDate(0, 0, -1))),
	}

	r := Build(expenses, PeriodMonthly, today)

	if len(r.InWindow) != 3 {
		t.Fatalf("in-window = %d records, want 3", len(r.InWindow))
	}

	// Union of bucket members must equal the in-window set, no duplicates.
	seen := map[string]int{}
	for _, b := range r.Series {
		for _, e := range b.Expenses {
			seen[e.ID]++
		}
	}
	for _, e := range r.InWindow {
		if seen[e.ID] != 1 {
			t.Errorf("record %s appears in %d buckets, want 1", e.ID, seen[e.ID])
		}
	}
	if r.Total.Cents != 600 {
		t.Errorf("total = %d, want 600", r.Total.Cents)
	}

	// Buckets are ordered oldest first and never overlap.
	for i := 1; i < len(r.Series); i++ {
		if !r.Series[i].Start.After(r.Series[i-1].End) {
			t.Errorf("bucket %d overlaps or precedes bucket %d", i, i-1)
		}
	}
}

func TestBuildYearlyJanuaryOnly(t *testing.T) {
	today := core.NewDate(2026, time.August, 30)
	expenses := []core.Expense{
		exp("jan24", 1000, core.Food, core.NewDate(2024, time.January, 15)),
		exp("jul24", 2000, core.Food, core.NewDate(2024, time.July, 4)),
		exp("jan26", 3000, core.Other, core.NewDate(2026, time.January, 1)),
	}

	r := Build(expenses, PeriodYearly, today)

	// One bucket per year in the window, labeled by year.
	if len(r.Series) != 5 {
		t.Fatalf("expected 5 January buckets, got %d", len(r.Series))
	}
	for _, b := range r.Series {
		if b.Start.Month() != time.January {
			t.Errorf("bucket %s does not start in January", b.Label)
		}
	}

	// The July record is in the window but in no bucket: the yearly series
	// totals January only.
	if len(r.InWindow) != 3 {
		t.Errorf("in-window = %d, want 3", len(r.InWindow))
	}
	if r.Count != 2 {
		t.Errorf("bucket member count = %d, want 2", r.Count)
	}
	if r.Total.Cents != 4000 {
		t.Errorf("series total = %d, want 4000 (January sums only)", r.Total.Cents)
	}
}

func TestBuildWeeklyBucketsStartSunday(t *testing.T) {
	today := core.NewDate(2026, time.August, 30)
	r := Build(nil, PeriodWeekly, today)
	if len(r.Series) == 0 {
		t.Fatal("expected weekly buckets")
	}
	for _, b := range r.Series {
		if b.Start.Weekday() != time.Sunday {
			t.Errorf("bucket %s starts on %s, want Sunday", b.Label, b.Start.Weekday())
		}
		if got := b.End.Sub(b.Start.Time); got != 6*24*time.Hour {
			t.Errorf("bucket %s spans %v, want 6 days", b.Label, got)
		}
	}
	// Full coverage: first bucket must start on or before the window start.
	if r.Series[0].Start.After(r.Start) {
		t.Errorf("first bucket starts %s, after window start %s", r.Series[0].Start.ISO(), r.Start.ISO())
	}
}

func TestSundayWeekNumbering(t *testing.T) {
	tests := []struct {
		date core.Date
		want int
	}{
		{core.NewDate(2023, time.January, 1), 1},  // Jan 1 on a Sunday
		{core.NewDate(2023, time.January, 8), 2},  // second Sunday
		{core.NewDate(2026, time.January, 3), 1},  // Saturday of the partial first week
		{core.NewDate(2026, time.January, 4), 2},  // first Sunday after a Thursday Jan 1
		{core.NewDate(2026, time.August, 30), 36}, // a Sunday, where ISO numbering says 35
	}
	for _, tt := range tests {
		if got := sundayWeek(tt.date); got != tt.want {
			t.Errorf("sundayWeek(%s) = %d, want %d", tt.date.ISO(), got, tt.want)
		}
	}
}

func TestWeeklyLabelsUseSundayWeeks(t *testing.T) {
	// 2026-08-30 is itself a Sunday, so it starts the final bucket.
	today := core.NewDate(2026, time.August, 30)
	r := Build(nil, PeriodWeekly, today)
	if len(r.Series) == 0 {
		t.Fatal("expected weekly buckets")
	}
	last := r.Series[len(r.Series)-1]
	if last.Label != "W36 Aug" {
		t.Errorf("last bucket label = %q, want %q", last.Label, "W36 Aug")
	}
}

func TestCategoriesDescOrdering(t *testing.T) {
	today := core.NewDate(2026, time.August, 30)
	expenses := []core.Expense{
		exp("a", 100, core.Food, today),
		exp("b", 900, core.Housing, today),
		exp("c", 400, core.Shopping, today),
		exp("d", 400, core.Entertainment, today),
	}
	r := Build(expenses, PeriodDaily, today)
	cats := r.CategoriesDesc()
	if len(cats) != 4 {
		t.Fatalf("got %d categories, want 4", len(cats))
	}
	if cats[0].Category != core.Housing {
		t.Errorf("first category = %s, want Housing", cats[0].Category)
	}
	// Equal totals break ties by label.
	if cats[1].Category != core.Entertainment || cats[2].Category != core.Shopping {
		t.Errorf("tie-break order = %s, %s", cats[1].Category, cats[2].Category)
	}
	if cats[3].Category != core.Food {
		t.Errorf("last category = %s, want Food", cats[3].Category)
	}
}

func TestTransactionsNewestFirst(t *testing.T) {
	today := core.NewDate(2026, time.August, 30)
	expenses := []core.Expense{
		exp("old", 100, core.Food, core.DateOf(today.AddDate(0, 0, -3))),
		exp("new", 200, core.Food, today),
		exp("mid", 300, core.Food, core.DateOf(today.AddDate(0, 0, -1))),
	}
	r := Build(expenses, PeriodDaily, today)
	txs := r.Transactions()
	if len(txs) != 3 {
		t.Fatalf("got %d transactions, want 3", len(txs))
	}
	if txs[0].ID != "new" || txs[1].ID != "mid" || txs[2].ID != "old" {
		t.Errorf("order = %s, %s, %s", txs[0].ID, txs[1].ID, txs[2].ID)
	}
}

func TestComputeStats(t *testing.T) {
	today := core.NewDate(2026, time.August, 30)
	expenses := []core.Expense{
		exp("this-month-1", 1000, core.Food, core.NewDate(2026, time.August, 2)),
		exp("this-month-2", 2001, core.Food, core.NewDate(2026, time.August, 20)),
		exp("last-month", 5000, core.Housing, core.NewDate(2026, time.July, 31)),
	}

	s := ComputeStats(expenses, today)
	if s.Total.Cents != 8001 {
		t.Errorf("all-time total = %d, want 8001", s.Total.Cents)
	}
	if s.MonthTotal.Cents != 3001 {
		t.Errorf("month total = %d, want 3001", s.MonthTotal.Cents)
	}
	if s.MonthCount != 2 {
		t.Errorf("month count = %d, want 2", s.MonthCount)
	}
	if s.MonthAverage.Cents != 1501 {
		t.Errorf("month average = %d, want 1501", s.MonthAverage.Cents)
	}
	if s.MonthLabel != "August 2026" {
		t.Errorf("month label = %q", s.MonthLabel)
	}

	empty := ComputeStats(nil, today)
	if empty.Total.Cents != 0 || empty.MonthAverage.Cents != 0 {
		t.Errorf("empty stats = %+v, want zeros", empty)
	}
}
