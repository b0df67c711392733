package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strings"

	"spendtrack/internal/core"
	"spendtrack/internal/store"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFoundError("page not found").Write(w)
		return
	}
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	data := struct {
		Categories []core.Category
		Today      string
	}{
		Categories: core.Categories,
		Today:      core.Today().ISO(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "index template execution failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.logger.ErrorContext(r.Context(), "parse form error", "error", err, "url", r.URL.Path)
		BadRequestError("Invalid request format").Write(w)
		return
	}

	amountStr := strings.TrimSpace(r.Form.Get("amount"))
	category := sanitizeInput(r.Form.Get("category"))
	desc := sanitizeInput(r.Form.Get("description"))
	dateStr := strings.TrimSpace(r.Form.Get("date"))

	cents, err := core.ParseDecimalToCents(amountStr)
	if err != nil {
		UnprocessableEntityError("Invalid amount").Write(w)
		return
	}

	date := core.Today()
	if dateStr != "" {
		if date, err = core.ParseDate(dateStr); err != nil {
			UnprocessableEntityError("Invalid date").Write(w)
			return
		}
	}

	exp := core.Expense{
		Amount:      core.Money{Cents: cents},
		Category:    core.Category(category),
		Description: desc,
		Date:        date,
		UserID:      userID(r),
	}

	if err := exp.Validate(); err != nil {
		UnprocessableEntityError("Invalid data: " + err.Error()).Write(w)
		return
	}

	id, err := s.svc.CreateExpense(r.Context(), exp)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to save expense",
			"error", err, "amount_cents", exp.Amount.Cents, "category", category)
		InternalServerError("Error saving expense").Write(w)
		return
	}

	s.invalidateCharts(exp.UserID)

	successMsg := fmt.Sprintf("Expense recorded: %s %s",
		template.HTMLEscapeString(formatAmount(exp.Amount)),
		template.HTMLEscapeString(string(exp.Category)))

	NewHTMXResponse().
		TriggerExpenseCreated(id).
		TriggerFormReset().
		TriggerReportRefresh().
		TriggerSuccessNotification(successMsg).
		Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete && r.Method != http.MethodPost {
		MethodNotAllowedError("DELETE, POST").Write(w)
		return
	}

	expenseID, ok := s.parseDeleteID(w, r)
	if !ok {
		return
	}
	if expenseID == "" {
		BadRequestError("Missing expense ID").Write(w)
		return
	}

	uid := userID(r)
	if err := s.svc.DeleteExpense(r.Context(), uid, expenseID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFoundError("Expense not found").Write(w)
			return
		}
		s.logger.ErrorContext(r.Context(), "failed to delete expense",
			"error", err, "expense_id", expenseID)
		InternalServerError("Error deleting expense").Write(w)
		return
	}

	s.invalidateCharts(uid)

	NewHTMXResponse().
		TriggerExpenseDeleted(expenseID).
		TriggerReportRefresh().
		TriggerSuccessNotification("Expense deleted").
		Write(w)
}

// parseDeleteID extracts the expense ID from a JSON body, a form body, or
// regular form values, in that order. HTMX sends DELETE bodies in all three
// shapes depending on configuration.
func (s *Server) parseDeleteID(w http.ResponseWriter, r *http.Request) (string, bool) {
	contentType := r.Header.Get("Content-Type")

	if strings.Contains(contentType, "application/json") || r.Method == http.MethodDelete {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			s.logger.ErrorContext(r.Context(), "read body error", "error", err, "url", r.URL.Path)
			BadRequestError("Error reading request").Write(w)
			return "", false
		}

		if len(body) > 0 && (body[0] == '{' || body[0] == '[') {
			var requestBody map[string]interface{}
			if err := json.Unmarshal(body, &requestBody); err != nil {
				BadRequestError("Invalid JSON body").Write(w)
				return "", false
			}
			if id, ok := requestBody["id"]; ok {
				return sanitizeInput(fmt.Sprintf("%v", id)), true
			}
			return "", true
		}

		formData, err := url.ParseQuery(string(body))
		if err != nil {
			BadRequestError("Invalid form body").Write(w)
			return "", false
		}
		return sanitizeInput(formData.Get("id")), true
	}

	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return "", false
	}
	return sanitizeInput(r.Form.Get("id")), true
}

func (s *Server) invalidateCharts(uid string) {
	s.chartCache.DeletePrefix(uid + "|")
}
