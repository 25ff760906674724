package http

import (
	"bytes"
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(toUser(currentUser(r.Context()))).Write(w)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	p, err := ParseBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.svc.Users.UpdateProfile(r.Context(), userIDFrom(r.Context()), p.Get("username"), p.Get("email"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(toUser(u)).Write(w)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	p, err := ParseBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id := userIDFrom(r.Context())
	err = s.svc.Users.ChangePassword(r.Context(), id, p.Raw("current_password"), p.Raw("new_password"), p.Raw("confirm_password"))
	s.authLog(r.Context()).LogAuthEvent(r.Context(), "password_change", id, err == nil)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleProfileStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Users.Stats(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(toStats(stats)).Write(w)
}

func (s *Server) handleExportAccount(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.svc.Users.ExportAccount(r.Context(), userIDFrom(r.Context()), &buf); err != nil {
		writeError(w, r, err)
		return
	}
	name := "fintrack-account-" + core.DateOf(s.now()).String() + ".csv"
	NewResponse().Attachment(name, "text/csv; charset=utf-8", buf.Bytes()).Write(w)
}

// handleDeleteProfile removes the account and everything it owns, sessions
// included.
func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	id := userIDFrom(r.Context())
	if err := s.svc.Users.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.authLog(r.Context()).LogAuthEvent(r.Context(), "account_delete", id, true)
	s.clearSessionCookie(w)
	NoContent().Write(w)
}
