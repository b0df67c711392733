package http

import (
	"context"
	"errors"
	"net/http"

	"spendtrack/internal/auth"
	"spendtrack/internal/log"
	"spendtrack/internal/store"
)

const sessionCookieName = "session_token"

var dummyPasswordHash, _ = auth.HashPassword("timing-equalization-only")

// requireAuth resolves the session cookie to a user and rejects requests
// without a live session. Browser navigation is redirected to the login
// page; partials and API-ish requests get a plain 401.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err == nil {
			sess, err := s.sessions.GetSession(r.Context(), cookie.Value)
			if err == nil {
				ctx := context.WithValue(r.Context(), userIDKey, sess.UserID)
				next(w, r.WithContext(ctx))
				return
			}
			if !errors.Is(err, store.ErrNotFound) {
				s.logger.ErrorContext(r.Context(), "session lookup failed", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			s.clearSessionCookie(w)
		}

		if r.Method == http.MethodGet && r.Header.Get("HX-Request") == "" && r.Header.Get("Accept") != "text/event-stream" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		http.Error(w, "authentication required", http.StatusUnauthorized)
	}
}

// userID returns the authenticated user's ID from the request context. It is
// only valid behind requireAuth.
func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderLogin(w, r, "")
	case http.MethodPost:
		s.handleLoginSubmit(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) renderLogin(w http.ResponseWriter, r *http.Request, errMsg string) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct{ Error string }{Error: errMsg}
	if err := s.templates.ExecuteTemplate(w, "login.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "login template execution failed", "error", err)
	}
}

func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderLogin(w, r, "Invalid request")
		return
	}

	email := sanitizeInput(r.Form.Get("email"))
	password := r.Form.Get("password")

	user, err := s.users.GetUserByEmail(r.Context(), email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.ErrorContext(r.Context(), "user lookup failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		// Burn a comparison so a missing account costs the same as a wrong
		// password.
		_ = auth.CheckPassword(dummyPasswordHash, password)
		s.renderLogin(w, r, "Invalid email or password")
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		s.logger.WarnContext(r.Context(), "failed login attempt",
			log.FieldOperation, log.OpLogin, "email", email)
		s.renderLogin(w, r, "Invalid email or password")
		return
	}

	sess := auth.NewSession(user.ID, s.sessionDuration)
	if err := s.sessions.CreateSession(r.Context(), sess); err != nil {
		s.logger.ErrorContext(r.Context(), "session creation failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	s.logger.InfoContext(r.Context(), "user logged in",
		log.FieldOperation, log.OpLogin, log.FieldUserID, user.ID)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}

	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if err := s.sessions.DeleteSession(r.Context(), cookie.Value); err != nil {
			s.logger.ErrorContext(r.Context(), "session deletion failed",
				log.FieldOperation, log.OpLogout, "error", err)
		}
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
