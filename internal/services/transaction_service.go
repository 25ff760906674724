package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/finance"
)

// TransactionService validates and persists transactions and exports them.
type TransactionService struct {
	transactions TransactionStore
	categories   CategoryStore
}

func NewTransactionService(transactions TransactionStore, categories CategoryStore) *TransactionService {
	return &TransactionService{
		transactions: transactions,
		categories:   categories,
	}
}

// Create stores t for userID after validating it and its category.
func (s *TransactionService) Create(ctx context.Context, userID int64, t core.Transaction) (core.Transaction, error) {
	t.UserID = userID
	t.Description = strings.TrimSpace(t.Description)
	if err := s.check(ctx, t); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.transactions.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", created.ID,
		"user_id", userID,
		"type", created.Type,
		"amount", core.FormatMoney(created.Amount),
		"date", created.Date.String())
	return created, nil
}

// Update replaces the mutable fields of an owned transaction.
func (s *TransactionService) Update(ctx context.Context, userID int64, t core.Transaction) (core.Transaction, error) {
	t.UserID = userID
	t.Description = strings.TrimSpace(t.Description)
	if _, err := s.transactions.GetTransaction(ctx, userID, t.ID); err != nil {
		return core.Transaction{}, err
	}
	if err := s.check(ctx, t); err != nil {
		return core.Transaction{}, err
	}

	updated, err := s.transactions.UpdateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", t.ID, err)
	}

	slog.InfoContext(ctx, "Transaction updated", "id", updated.ID, "user_id", userID)
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.transactions.DeleteTransaction(ctx, userID, id); err != nil {
		if core.IsNotFound(err) {
			return err
		}
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id, "user_id", userID)
	return nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id int64) (core.Transaction, error) {
	return s.transactions.GetTransaction(ctx, userID, id)
}

// List returns the user's transactions matching f, newest first.
func (s *TransactionService) List(ctx context.Context, userID int64, f finance.Filter) ([]core.Transaction, error) {
	txs, err := s.transactions.ListTransactions(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// ExportCSV writes the matching transactions as
// Date,Type,Amount,Category,Description rows.
func (s *TransactionService) ExportCSV(ctx context.Context, userID int64, f finance.Filter, w io.Writer) error {
	txs, err := s.List(ctx, userID, f)
	if err != nil {
		return err
	}
	return WriteTransactionsCSV(w, txs)
}

// WriteTransactionsCSV renders txs in export order.
func WriteTransactionsCSV(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "Type", "Amount", "Category", "Description"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range txs {
		record := []string{
			t.Date.String(),
			string(t.Type),
			core.FormatMoney(t.Amount),
			finance.CategoryLabel(t),
			t.Description,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *TransactionService) check(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.CategoryID == nil {
		return nil
	}
	if _, err := s.categories.GetCategory(ctx, t.UserID, *t.CategoryID); err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError("category_id", "Invalid category selected")
		}
		return fmt.Errorf("check category %d: %w", *t.CategoryID, err)
	}
	return nil
}
