// Package chart renders report data as PNG images.
package chart

import (
	"errors"
	"fmt"

	"github.com/go-analyze/charts"

	"spendtrack/internal/report"
)

// ErrNoData is returned when the report holds nothing to draw.
var ErrNoData = errors.New("no data to chart")

const (
	trendWidth  = 810
	trendHeight = 400
)

// Trend renders the report's bucketed series as a bar chart PNG, one bar per
// bucket, values in whole currency units.
func Trend(r report.Report) ([]byte, error) {
	if r.Empty() {
		return nil, ErrNoData
	}

	values := make([]float64, 0, len(r.Series))
	labels := make([]string, 0, len(r.Series))
	for _, b := range r.Series {
		values = append(values, float64(b.Total.Cents)/100)
		labels = append(labels, b.Label)
	}

	opt := charts.NewBarChartOptionWithData([][]float64{values})
	opt.Title.Text = fmt.Sprintf("Spending Trend - %s", r.Period.Label())
	opt.XAxis.Labels = labels

	p := charts.NewPainter(charts.PainterOptions{
		OutputFormat: charts.ChartOutputPNG,
		Width:        trendWidth,
		Height:       trendHeight,
	})
	if err := p.BarChart(opt); err != nil {
		return nil, fmt.Errorf("render trend chart: %w", err)
	}
	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encode trend chart: %w", err)
	}
	return buf, nil
}

// Categories renders the report's per-category totals as a pie chart PNG.
func Categories(r report.Report) ([]byte, error) {
	cats := r.CategoriesDesc()
	if len(cats) == 0 {
		return nil, ErrNoData
	}

	values := make([]float64, 0, len(cats))
	names := make([]string, 0, len(cats))
	for _, ca := range cats {
		values = append(values, float64(ca.Amount.Cents)/100)
		names = append(names, string(ca.Category))
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{
			Text: fmt.Sprintf("Expense Breakdown - %s", r.Period.Label()),
		}),
		charts.LegendLabelsOptionFunc(names),
	)
	if err != nil {
		return nil, fmt.Errorf("render category chart: %w", err)
	}
	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encode category chart: %w", err)
	}
	return buf, nil
}
