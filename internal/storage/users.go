package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fintrack/internal/core"
)

const userColumns = `id, username, email, password_hash, reset_token_hash, reset_expires, created_at`

func scanUser(row scanner) (core.User, error) {
	var (
		u          core.User
		resetHash  sql.NullString
		resetUntil sql.NullString
		created    string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &resetHash, &resetUntil, &created); err != nil {
		return core.User{}, err
	}
	u.ResetTokenHash = resetHash.String
	if resetUntil.Valid && resetUntil.String != "" {
		t, err := parseTime(resetUntil.String)
		if err != nil {
			return core.User{}, err
		}
		u.ResetExpires = t
	}
	t, err := parseTime(created)
	if err != nil {
		return core.User{}, err
	}
	u.CreatedAt = t
	return u, nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, r.timestamp())
	if err != nil {
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("last insert id: %w", err)
	}
	return r.GetUser(ctx, id)
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (core.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return core.User{}, notFound(err)
	}
	return u, nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		return core.User{}, notFound(err)
	}
	return u, nil
}

func (r *SQLiteRepository) UpdateProfile(ctx context.Context, id int64, username, email string) (core.User, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET username = ?, email = ? WHERE id = ?`, username, email, id)
	if err != nil {
		return core.User{}, fmt.Errorf("update profile: %w", err)
	}
	if err := affected(res); err != nil {
		return core.User{}, err
	}
	return r.GetUser(ctx, id)
}

func (r *SQLiteRepository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, hash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return affected(res)
}

// DeleteUser relies on ON DELETE CASCADE for everything the user owns.
func (r *SQLiteRepository) DeleteUser(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return affected(res)
}

func (r *SQLiteRepository) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ? AND id <> ?`, email, excludeID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) SetResetToken(ctx context.Context, id int64, tokenHash string, expires time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET reset_token_hash = ?, reset_expires = ? WHERE id = ?`, tokenHash, formatTime(expires), id)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	return affected(res)
}

func (r *SQLiteRepository) GetUserByResetToken(ctx context.Context, tokenHash string) (core.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE reset_token_hash = ?`, tokenHash))
	if err != nil {
		return core.User{}, notFound(err)
	}
	return u, nil
}

func (r *SQLiteRepository) ClearResetToken(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET reset_token_hash = NULL, reset_expires = NULL WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("clear reset token: %w", err)
	}
	return affected(res)
}

func (r *SQLiteRepository) PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET reset_token_hash = NULL, reset_expires = NULL
		WHERE reset_token_hash IS NOT NULL AND reset_expires <= ?`, formatTime(now))
	if err != nil {
		return 0, fmt.Errorf("purge reset tokens: %w", err)
	}
	return res.RowsAffected()
}
