package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"spendtrack/internal/chart"
	"spendtrack/internal/core"
	"spendtrack/internal/export"
	"spendtrack/internal/report"
)

// dateGroup is one calendar day of the expense list, newest day first.
type dateGroup struct {
	Date     core.Date
	Expenses []core.Expense
	Total    core.Money
}

func (s *Server) handleExpenseList(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.svc.ListExpenses(r.Context(), userID(r))
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to list expenses", "error", err)
		InternalServerError("Error loading expenses").Write(w)
		return
	}

	data := struct {
		Groups []dateGroup
		Count  int
	}{
		Groups: groupByDate(expenses),
		Count:  len(expenses),
	}
	s.renderPartial(w, r, "expense_list.html", data)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.svc.ListExpenses(r.Context(), userID(r))
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to list expenses", "error", err)
		InternalServerError("Error loading stats").Write(w)
		return
	}
	s.renderPartial(w, r, "stats.html", report.ComputeStats(expenses, core.Today()))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	period, ok := s.reportPeriod(w, r)
	if !ok {
		return
	}

	expenses, err := s.svc.ListExpenses(r.Context(), userID(r))
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to list expenses", "error", err)
		InternalServerError("Error loading report").Write(w)
		return
	}

	rep := report.Build(expenses, period, core.Today())
	data := struct {
		Report     report.Report
		Periods    []report.Period
		Categories []core.CategoryAmount
	}{
		Report:     rep,
		Periods:    report.Periods,
		Categories: rep.CategoriesDesc(),
	}
	s.renderPartial(w, r, "report.html", data)
}

func (s *Server) handleReportChart(w http.ResponseWriter, r *http.Request) {
	period, ok := s.reportPeriod(w, r)
	if !ok {
		return
	}

	kind := strings.TrimSpace(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = "trend"
	}
	if kind != "trend" && kind != "category" {
		BadRequestError("Unknown chart kind").Write(w)
		return
	}

	uid := userID(r)
	cacheKey := fmt.Sprintf("%s|%s|%s", uid, period, kind)
	if png, ok := s.chartCache.Get(cacheKey); ok {
		writePNG(w, png)
		return
	}

	expenses, err := s.svc.ListExpenses(r.Context(), uid)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to list expenses", "error", err)
		InternalServerError("Error loading chart").Write(w)
		return
	}

	rep := report.Build(expenses, period, core.Today())

	var png []byte
	switch kind {
	case "category":
		png, err = chart.Categories(rep)
	default:
		png, err = chart.Trend(rep)
	}
	if err != nil {
		if errors.Is(err, chart.ErrNoData) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		s.logger.ErrorContext(r.Context(), "chart rendering failed",
			"error", err, "period", period, "kind", kind)
		InternalServerError("Error rendering chart").Write(w)
		return
	}

	s.chartCache.Set(cacheKey, png)
	writePNG(w, png)
}

func (s *Server) handleReportExport(w http.ResponseWriter, r *http.Request) {
	period, ok := s.reportPeriod(w, r)
	if !ok {
		return
	}

	expenses, err := s.svc.ListExpenses(r.Context(), userID(r))
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to list expenses", "error", err)
		InternalServerError("Error exporting report").Write(w)
		return
	}

	today := core.Today()
	rep := report.Build(expenses, period, today)

	var buf bytes.Buffer
	n, err := export.WriteXLSX(&buf, rep)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "xlsx export failed", "error", err, "period", period)
		InternalServerError("Error exporting report").Write(w)
		return
	}
	if n == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(period, today)))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buf.Len()))
	_, _ = w.Write(buf.Bytes())
}

// reportPeriod parses the period query parameter, defaulting to monthly.
func (s *Server) reportPeriod(w http.ResponseWriter, r *http.Request) (report.Period, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("period"))
	if raw == "" {
		return report.PeriodMonthly, true
	}
	period, err := report.ParsePeriod(raw)
	if err != nil {
		BadRequestError("Unknown report period").Write(w)
		return "", false
	}
	return period, true
}

func (s *Server) renderPartial(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "partial template execution failed",
			"error", err, "template", name)
		InternalServerError("Error rendering page").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func writePNG(w http.ResponseWriter, png []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

// groupByDate splits a date-descending expense list into per-day groups,
// preserving order.
func groupByDate(expenses []core.Expense) []dateGroup {
	var groups []dateGroup
	for _, e := range expenses {
		if n := len(groups); n > 0 && groups[n-1].Date.Equal(e.Date.Time) {
			groups[n-1].Expenses = append(groups[n-1].Expenses, e)
			groups[n-1].Total = groups[n-1].Total.Add(e.Amount)
			continue
		}
		groups = append(groups, dateGroup{
			Date:     e.Date,
			Expenses: []core.Expense{e},
			Total:    e.Amount,
		})
	}
	return groups
}
