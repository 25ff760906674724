package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const savingColumns = `id, user_id, goal_name, goal_amount_cents, saved_amount_cents, target_date, created_at`

func scanSaving(row scanner) (core.Saving, error) {
	var (
		s       core.Saving
		goal    int64
		saved   int64
		target  sql.NullString
		created string
	)
	if err := row.Scan(&s.ID, &s.UserID, &s.GoalName, &goal, &saved, &target, &created); err != nil {
		return core.Saving{}, err
	}
	s.GoalAmount = core.FromCents(goal)
	s.SavedAmount = core.FromCents(saved)
	if target.Valid && target.String != "" {
		d, err := core.ParseDate(target.String)
		if err != nil {
			return core.Saving{}, fmt.Errorf("saving %d: %w", s.ID, err)
		}
		s.TargetDate = &d
	}
	t, err := parseTime(created)
	if err != nil {
		return core.Saving{}, err
	}
	s.CreatedAt = t
	return s, nil
}

func (r *SQLiteRepository) CreateSaving(ctx context.Context, s core.Saving) (core.Saving, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO savings
		(user_id, goal_name, goal_amount_cents, saved_amount_cents, target_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.UserID, s.GoalName, core.ToCents(s.GoalAmount), core.ToCents(s.SavedAmount), nullDate(s.TargetDate), r.timestamp())
	if err != nil {
		return core.Saving{}, fmt.Errorf("insert saving: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Saving{}, fmt.Errorf("last insert id: %w", err)
	}
	return r.GetSaving(ctx, s.UserID, id)
}

func (r *SQLiteRepository) UpdateSaving(ctx context.Context, s core.Saving) (core.Saving, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE savings
		SET goal_name = ?, goal_amount_cents = ?, saved_amount_cents = ?, target_date = ?
		WHERE id = ? AND user_id = ?`,
		s.GoalName, core.ToCents(s.GoalAmount), core.ToCents(s.SavedAmount), nullDate(s.TargetDate), s.ID, s.UserID)
	if err != nil {
		return core.Saving{}, fmt.Errorf("update saving: %w", err)
	}
	if err := affected(res); err != nil {
		return core.Saving{}, err
	}
	return r.GetSaving(ctx, s.UserID, s.ID)
}

func (r *SQLiteRepository) DeleteSaving(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM savings WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete saving: %w", err)
	}
	return affected(res)
}

func (r *SQLiteRepository) GetSaving(ctx context.Context, userID, id int64) (core.Saving, error) {
	s, err := scanSaving(r.db.QueryRowContext(ctx,
		`SELECT `+savingColumns+` FROM savings WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return core.Saving{}, notFound(err)
	}
	return s, nil
}

func (r *SQLiteRepository) ListSavings(ctx context.Context, userID int64) ([]core.Saving, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+savingColumns+` FROM savings WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query savings: %w", err)
	}
	defer rows.Close()

	out := make([]core.Saving, 0)
	for rows.Next() {
		s, err := scanSaving(rows)
		if err != nil {
			return nil, fmt.Errorf("scan saving: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SavingNameTaken(ctx context.Context, userID int64, name string, excludeID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM savings WHERE user_id = ? AND goal_name = ? AND id <> ?`,
		userID, name, excludeID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check goal name: %w", err)
	}
	return n > 0, nil
}

// AddToSaved adds amount only while the new total stays within the goal.
// When no row is updated a follow-up lookup tells a missing goal apart
// from a rejected addition.
func (r *SQLiteRepository) AddToSaved(ctx context.Context, userID, id int64, amount decimal.Decimal) (core.Saving, error) {
	cents := core.ToCents(amount)
	s, err := scanSaving(r.db.QueryRowContext(ctx, `UPDATE savings
		SET saved_amount_cents = saved_amount_cents + ?
		WHERE id = ? AND user_id = ? AND saved_amount_cents + ? <= goal_amount_cents
		RETURNING `+savingColumns, cents, id, userID, cents))
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return core.Saving{}, fmt.Errorf("add to saving: %w", err)
	}
	if _, err := r.GetSaving(ctx, userID, id); err != nil {
		return core.Saving{}, err
	}
	return core.Saving{}, core.ErrGoalExceeded
}
