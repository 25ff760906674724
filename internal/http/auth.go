package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

const SessionCookieName = "fintrack_session"

type contextKey string

const userContextKey contextKey = "user"

// currentUser returns the account resolved by requireAuth.
func currentUser(ctx context.Context) core.User {
	u, _ := ctx.Value(userContextKey).(core.User)
	return u
}

func userIDFrom(ctx context.Context) int64 {
	return currentUser(ctx).ID
}

// sessionToken reads the session cookie, falling back to a bearer token.
func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	return ""
}

// requireAuth rejects requests without a live session with 401.
func (s *Server) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			UnauthorizedError("Authentication required").Write(w)
			return
		}
		u, err := s.svc.Sessions.Resolve(r.Context(), token)
		if err != nil {
			if errors.Is(err, core.ErrInvalidCredentials) {
				s.clearSessionCookie(w)
				UnauthorizedError("Authentication required").Write(w)
				return
			}
			writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, u)
		ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldUserID, u.ID))
		next(w, r.WithContext(ctx))
	})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) authLog(ctx context.Context) *log.StructuredLogger {
	return log.NewStructuredLogger(log.FromContext(ctx).WithComponent(log.ComponentAuth))
}

// startSession issues a session for u and writes it as cookie and body.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, u core.User, status int) {
	token, expires, err := s.svc.Sessions.Create(r.Context(), u.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.setSessionCookie(w, token, expires)
	NewResponse().Status(status).JSON(sessionJSON{Token: token, ExpiresAt: expires, User: toUser(u)}).Write(w)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	p, err := ParseBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.svc.Users.Register(r.Context(), p.Get("username"), p.Get("email"), p.Raw("password"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.authLog(r.Context()).LogAuthEvent(r.Context(), "register", u.ID, true)
	s.startSession(w, r, u, http.StatusCreated)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p, err := ParseBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.svc.Users.Authenticate(r.Context(), p.Get("email"), p.Raw("password"))
	if err != nil {
		s.authLog(r.Context()).LogAuthEvent(r.Context(), "login", 0, false)
		writeError(w, r, err)
		return
	}
	s.authLog(r.Context()).LogAuthEvent(r.Context(), "login", u.ID, true)
	s.startSession(w, r, u, http.StatusOK)
}

// handleLogout always succeeds; an unknown token is simply dropped.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		if err := s.svc.Sessions.Revoke(r.Context(), token); err != nil {
			writeError(w, r, err)
			return
		}
	}
	s.clearSessionCookie(w)
	NoContent().Write(w)
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	p, err := ParseBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	email := p.Get("email")
	if email == "" {
		FieldErrorResponse(http.StatusUnprocessableEntity, "email", "Email is required").Write(w)
		return
	}
	if err := s.svc.Resets.Request(r.Context(), email); err != nil {
		writeError(w, r, err)
		return
	}
	Message(http.StatusAccepted, "If an account exists for that email, a password reset link has been sent.").Write(w)
}

func (s *Server) handleValidateReset(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.Resets.Validate(r.Context(), r.PathValue("token"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(map[string]any{"valid": true, "email": u.Email}).Write(w)
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	p, err := ParseBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Resets.Reset(r.Context(), r.PathValue("token"), p.Raw("password"), p.Raw("confirm_password")); err != nil {
		writeError(w, r, err)
		return
	}
	s.clearSessionCookie(w)
	Message(http.StatusOK, "Your password has been reset. Please log in.").Write(w)
}
