package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"strings"
	"time"

	"spendtrack/internal/core"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	userIDKey    contextKey = "user_id"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// formatAmount formats cents as a dollar string (e.g., "$12.34").
func formatAmount(m core.Money) string {
	return "$" + m.String()
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"amount": formatAmount,
		"dateLabel": func(d core.Date) string {
			return d.Format("Monday, January 2, 2006")
		},
		"dateISO": func(d core.Date) string {
			return d.ISO()
		},
	}
}
