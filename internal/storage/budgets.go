package storage

import (
	"context"
	"fmt"

	"fintrack/internal/core"
)

const budgetColumns = `id, user_id, name, total_amount_cents, month_year, created_at`

func scanBudget(row scanner) (core.Budget, error) {
	var (
		b       core.Budget
		cents   int64
		month   string
		created string
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.Name, &cents, &month, &created); err != nil {
		return core.Budget{}, err
	}
	b.TotalAmount = core.FromCents(cents)
	m, err := core.ParseMonthYear(month)
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget %d: %w", b.ID, err)
	}
	b.MonthYear = m
	if b.CreatedAt, err = parseTime(created); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (user_id, name, total_amount_cents, month_year, created_at) VALUES (?, ?, ?, ?, ?)`,
		b.UserID, b.Name, core.ToCents(b.TotalAmount), b.MonthYear.String(), r.timestamp())
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Budget{}, fmt.Errorf("last insert id: %w", err)
	}
	return r.GetBudget(ctx, b.UserID, id)
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET name = ?, total_amount_cents = ?, month_year = ? WHERE id = ? AND user_id = ?`,
		b.Name, core.ToCents(b.TotalAmount), b.MonthYear.String(), b.ID, b.UserID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	if err := affected(res); err != nil {
		return core.Budget{}, err
	}
	return r.GetBudget(ctx, b.UserID, b.ID)
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return affected(res)
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, userID, id int64) (core.Budget, error) {
	b, err := scanBudget(r.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return core.Budget{}, notFound(err)
	}
	return b, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = ? ORDER BY month_year DESC, name, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	out := make([]core.Budget, 0)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) BudgetNameTaken(ctx context.Context, userID int64, name string, month core.MonthYear, excludeID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM budgets WHERE user_id = ? AND name = ? AND month_year = ? AND id <> ?`,
		userID, name, month.String(), excludeID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check budget name: %w", err)
	}
	return n > 0, nil
}
