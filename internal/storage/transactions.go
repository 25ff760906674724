package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/finance"
)

const transactionColumns = `t.id, t.user_id, t.amount_cents, t.type, t.category_id, COALESCE(c.name, ''),
	t.transaction_date, t.description, t.created_at`

const transactionFrom = ` FROM transactions t LEFT JOIN categories c ON c.id = t.category_id`

func scanTransaction(row scanner) (core.Transaction, error) {
	var (
		t          core.Transaction
		cents      int64
		typ        string
		categoryID sql.NullInt64
		date       string
		created    string
	)
	if err := row.Scan(&t.ID, &t.UserID, &cents, &typ, &categoryID, &t.CategoryName, &date, &t.Description, &created); err != nil {
		return core.Transaction{}, err
	}
	t.Amount = core.FromCents(cents)
	t.Type = core.TransactionType(typ)
	if categoryID.Valid {
		id := categoryID.Int64
		t.CategoryID = &id
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", t.ID, err)
	}
	t.Date = d
	if t.CreatedAt, err = parseTime(created); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO transactions
		(user_id, amount_cents, type, category_id, transaction_date, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, core.ToCents(t.Amount), string(t.Type), nullInt(t.CategoryID), t.Date.String(), t.Description, r.timestamp())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("last insert id: %w", err)
	}
	return r.GetTransaction(ctx, t.UserID, id)
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE transactions
		SET amount_cents = ?, type = ?, category_id = ?, transaction_date = ?, description = ?
		WHERE id = ? AND user_id = ?`,
		core.ToCents(t.Amount), string(t.Type), nullInt(t.CategoryID), t.Date.String(), t.Description, t.ID, t.UserID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if err := affected(res); err != nil {
		return core.Transaction{}, err
	}
	return r.GetTransaction(ctx, t.UserID, t.ID)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return affected(res)
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+transactionFrom+
		` WHERE t.id = ? AND t.user_id = ?`, id, userID)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, notFound(err)
	}
	return t, nil
}

// ListTransactions pushes every filter criterion into the query.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64, f finance.Filter) ([]core.Transaction, error) {
	var q strings.Builder
	q.WriteString(`SELECT ` + transactionColumns + transactionFrom + ` WHERE t.user_id = ?`)
	args := []any{userID}
	if !f.Range.Start.IsZero() {
		q.WriteString(` AND t.transaction_date >= ?`)
		args = append(args, f.Range.Start.String())
	}
	if !f.Range.End.IsZero() {
		q.WriteString(` AND t.transaction_date <= ?`)
		args = append(args, f.Range.End.String())
	}
	if f.Type != "" {
		q.WriteString(` AND t.type = ?`)
		args = append(args, string(f.Type))
	}
	if f.CategoryID != nil {
		q.WriteString(` AND t.category_id = ?`)
		args = append(args, *f.CategoryID)
	}
	q.WriteString(` ORDER BY t.transaction_date DESC, t.id DESC`)

	rows, err := r.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CountTransactionsByCategory(ctx context.Context, userID, categoryID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE user_id = ? AND category_id = ?`, userID, categoryID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}
