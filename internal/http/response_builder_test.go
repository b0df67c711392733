package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTMXResponseBuilderBasic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusOK).
		BodyString("test").
		Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "test" {
		t.Errorf("Body = %q, want %q", w.Body.String(), "test")
	}
}

func TestHTMXResponseBuilderTriggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerExpenseCreated("exp-1").
		TriggerFormReset().
		TriggerReportRefresh().
		TriggerSuccessNotification("Test message").
		Write(w)

	trigger := w.Header().Get("HX-Trigger")
	if trigger == "" {
		t.Fatal("HX-Trigger header not set")
	}

	expectedParts := []string{
		`"expense:created"`,
		`"id":"exp-1"`,
		`"form:reset"`,
		`"report:refresh"`,
		`"show-notification"`,
		`"type":"success"`,
		`"message":"Test message"`,
	}
	for _, part := range expectedParts {
		if !strings.Contains(trigger, part) {
			t.Errorf("HX-Trigger missing %q: %s", part, trigger)
		}
	}
}

func TestHTMXResponseBuilderNoTriggerHeaderWhenEmpty(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().BodyString("plain").Write(w)

	if got := w.Header().Get("HX-Trigger"); got != "" {
		t.Errorf("HX-Trigger = %q, want unset", got)
	}
}

func TestErrorResponseEscapesHTML(t *testing.T) {
	w := httptest.NewRecorder()

	BadRequestError(`<script>alert("x")</script>`).Write(w)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status code = %d, want 400", w.Code)
	}
	body := w.Body.String()
	if strings.Contains(body, "<script>") {
		t.Errorf("error body not escaped: %s", body)
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Errorf("expected escaped markup in body: %s", body)
	}
}

func TestMethodNotAllowedSetsAllowHeader(t *testing.T) {
	w := httptest.NewRecorder()

	MethodNotAllowedError("GET, POST").Write(w)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Status code = %d, want 405", w.Code)
	}
	if got := w.Header().Get("Allow"); got != "GET, POST" {
		t.Errorf("Allow = %q, want %q", got, "GET, POST")
	}
}

func TestSanitizeInput(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  hello  ", "hello"},
		{"line1\nline2", "line1\nline2"},
		{"null\x00byte", "nullbyte"},
		{"bell\x07char", "bellchar"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := sanitizeInput(tc.in); got != tc.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
