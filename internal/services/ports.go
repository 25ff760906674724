package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/finance"
)

// Ports implemented by the storage backends. Every lookup is scoped to the
// owning user: a record owned by someone else is reported as core.ErrNotFound.
type (
	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, userID, id int64) error
		GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error)
		// ListTransactions returns matching transactions newest first.
		ListTransactions(ctx context.Context, userID int64, f finance.Filter) ([]core.Transaction, error)
		CountTransactionsByCategory(ctx context.Context, userID, categoryID int64) (int, error)
	}

	CategoryStore interface {
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
		UpdateCategory(ctx context.Context, c core.Category) (core.Category, error)
		DeleteCategory(ctx context.Context, userID, id int64) error
		GetCategory(ctx context.Context, userID, id int64) (core.Category, error)
		// ListCategories returns categories ordered by name.
		ListCategories(ctx context.Context, userID int64) ([]core.Category, error)
		// CategoryNameTaken compares names case-insensitively, ignoring excludeID.
		CategoryNameTaken(ctx context.Context, userID int64, name string, excludeID int64) (bool, error)
	}

	BudgetStore interface {
		CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		DeleteBudget(ctx context.Context, userID, id int64) error
		GetBudget(ctx context.Context, userID, id int64) (core.Budget, error)
		// ListBudgets returns budgets by month descending, then name.
		ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error)
		BudgetNameTaken(ctx context.Context, userID int64, name string, month core.MonthYear, excludeID int64) (bool, error)
	}

	SavingStore interface {
		CreateSaving(ctx context.Context, s core.Saving) (core.Saving, error)
		UpdateSaving(ctx context.Context, s core.Saving) (core.Saving, error)
		DeleteSaving(ctx context.Context, userID, id int64) error
		GetSaving(ctx context.Context, userID, id int64) (core.Saving, error)
		// ListSavings returns goals in creation order.
		ListSavings(ctx context.Context, userID int64) ([]core.Saving, error)
		SavingNameTaken(ctx context.Context, userID int64, name string, excludeID int64) (bool, error)
		// AddToSaved increments the saved amount in one compare-and-write step.
		// It returns core.ErrGoalExceeded, leaving the row unchanged, when the
		// new total would pass the goal.
		AddToSaved(ctx context.Context, userID, id int64, amount decimal.Decimal) (core.Saving, error)
	}

	UserStore interface {
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		GetUser(ctx context.Context, id int64) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		UpdateProfile(ctx context.Context, id int64, username, email string) (core.User, error)
		UpdatePasswordHash(ctx context.Context, id int64, hash string) error
		DeleteUser(ctx context.Context, id int64) error
		// EmailTaken compares emails case-insensitively, ignoring excludeID.
		EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)

		SetResetToken(ctx context.Context, id int64, tokenHash string, expires time.Time) error
		GetUserByResetToken(ctx context.Context, tokenHash string) (core.User, error)
		ClearResetToken(ctx context.Context, id int64) error
		PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
	}

	SessionStore interface {
		CreateSession(ctx context.Context, s core.Session) error
		GetSession(ctx context.Context, tokenHash string) (core.Session, error)
		DeleteSession(ctx context.Context, tokenHash string) error
		DeleteUserSessions(ctx context.Context, userID int64) error
		PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error)
	}

	// ResetNotifier hands a password reset link to the mail pipeline.
	ResetNotifier interface {
		PublishPasswordReset(ctx context.Context, email, username, resetURL string, expires time.Time) error
	}
)
