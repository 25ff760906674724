package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
)

const DefaultSessionTTL = 24 * time.Hour

// SessionService issues opaque bearer tokens. Only their sha256 digest is stored.
type SessionService struct {
	sessions SessionStore
	users    UserStore
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionService(sessions SessionStore, users UserStore, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionService{
		sessions: sessions,
		users:    users,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create starts a session for userID and returns the plain token once.
func (s *SessionService) Create(ctx context.Context, userID int64) (string, time.Time, error) {
	token, hash, err := newToken()
	if err != nil {
		return "", time.Time{}, err
	}
	now := s.now().UTC()
	sess := core.Session{
		TokenHash: hash,
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		return "", time.Time{}, fmt.Errorf("create session: %w", err)
	}
	return token, sess.ExpiresAt, nil
}

// Resolve returns the user behind token. Unknown and expired tokens yield
// core.ErrInvalidCredentials.
func (s *SessionService) Resolve(ctx context.Context, token string) (core.User, error) {
	if token == "" {
		return core.User{}, core.ErrInvalidCredentials
	}
	sess, err := s.sessions.GetSession(ctx, hashToken(token))
	if err != nil {
		if core.IsNotFound(err) {
			return core.User{}, core.ErrInvalidCredentials
		}
		return core.User{}, fmt.Errorf("load session: %w", err)
	}
	if sess.Expired(s.now()) {
		return core.User{}, core.ErrInvalidCredentials
	}
	u, err := s.users.GetUser(ctx, sess.UserID)
	if err != nil {
		if core.IsNotFound(err) {
			return core.User{}, core.ErrInvalidCredentials
		}
		return core.User{}, fmt.Errorf("load session user: %w", err)
	}
	return u, nil
}

// Revoke ends the session of token. Unknown tokens are ignored.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, hashToken(token)); err != nil && !core.IsNotFound(err) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// RevokeAll ends every session of userID.
func (s *SessionService) RevokeAll(ctx context.Context, userID int64) error {
	if err := s.sessions.DeleteUserSessions(ctx, userID); err != nil {
		return fmt.Errorf("delete sessions of user %d: %w", userID, err)
	}
	return nil
}

func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.sessions.PurgeExpiredSessions(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Expired sessions purged", "count", n)
	}
	return n, nil
}
