package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/core"
)

const DefaultResetTokenTTL = time.Hour

const invalidResetMessage = "Password reset link is invalid or has expired"

// PasswordResetService issues single-use reset links and applies them.
type PasswordResetService struct {
	users    UserStore
	sessions SessionStore
	notifier ResetNotifier
	hasher   PasswordHasher
	baseURL  string
	ttl      time.Duration
	now      func() time.Time
}

func NewPasswordResetService(users UserStore, sessions SessionStore, notifier ResetNotifier, hasher PasswordHasher, baseURL string, ttl time.Duration) *PasswordResetService {
	if ttl <= 0 {
		ttl = DefaultResetTokenTTL
	}
	return &PasswordResetService{
		users:    users,
		sessions: sessions,
		notifier: notifier,
		hasher:   hasher,
		baseURL:  strings.TrimRight(baseURL, "/"),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Request stores a reset token for the account of email and publishes the
// link. Unknown emails succeed silently so callers cannot enumerate accounts.
// A failed publish is logged and not returned.
func (s *PasswordResetService) Request(ctx context.Context, email string) error {
	u, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if core.IsNotFound(err) {
			slog.InfoContext(ctx, "Password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("load user: %w", err)
	}

	token, hash, err := newToken()
	if err != nil {
		return err
	}
	expires := s.now().UTC().Add(s.ttl)
	if err := s.users.SetResetToken(ctx, u.ID, hash, expires); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	link := s.ResetURL(token)
	if s.notifier == nil {
		slog.WarnContext(ctx, "No reset notifier configured, link not delivered", "user_id", u.ID)
		return nil
	}
	if err := s.notifier.PublishPasswordReset(ctx, u.Email, u.Username, link, expires); err != nil {
		slog.ErrorContext(ctx, "Failed to publish password reset", "user_id", u.ID, "error", err)
		return nil
	}
	slog.InfoContext(ctx, "Password reset published", "user_id", u.ID)
	return nil
}

// ResetURL builds the link a user follows to pick a new password.
func (s *PasswordResetService) ResetURL(token string) string {
	return s.baseURL + "/api/auth/password/reset/" + token
}

// Validate returns the user owning a pending, unexpired token.
func (s *PasswordResetService) Validate(ctx context.Context, token string) (core.User, error) {
	if token == "" {
		return core.User{}, core.NewValidationError("token", invalidResetMessage)
	}
	u, err := s.users.GetUserByResetToken(ctx, hashToken(token))
	if err != nil {
		if core.IsNotFound(err) {
			return core.User{}, core.NewValidationError("token", invalidResetMessage)
		}
		return core.User{}, fmt.Errorf("load reset token: %w", err)
	}
	if !u.HasResetToken(s.now()) {
		return core.User{}, core.NewValidationError("token", invalidResetMessage)
	}
	return u, nil
}

// Reset sets a new password, consumes the token and signs out every session.
func (s *PasswordResetService) Reset(ctx context.Context, token, password, confirm string) error {
	u, err := s.Validate(ctx, token)
	if err != nil {
		return err
	}
	if password != confirm {
		return core.NewValidationError("confirm_password", "Passwords do not match")
	}
	if err := validatePassword(password); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, u.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.users.ClearResetToken(ctx, u.ID); err != nil {
		return fmt.Errorf("clear reset token: %w", err)
	}
	if err := s.sessions.DeleteUserSessions(ctx, u.ID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	slog.InfoContext(ctx, "Password reset completed", "user_id", u.ID)
	return nil
}

func (s *PasswordResetService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.users.PurgeExpiredResetTokens(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("purge reset tokens: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Expired reset tokens purged", "count", n)
	}
	return n, nil
}
