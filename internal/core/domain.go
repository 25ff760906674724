package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	maxDescriptionLength  = 500
	maxCategoryNameLength = 100
	maxBudgetNameLength   = 100
	maxGoalNameLength     = 100
)

type (
	TransactionType string

	Transaction struct {
		ID           int64
		UserID       int64
		Amount       decimal.Decimal
		Type         TransactionType
		CategoryID   *int64
		CategoryName string // resolved on read, empty when uncategorized
		Date         Date
		Description  string
		CreatedAt    time.Time
	}

	Category struct {
		ID        int64
		UserID    int64
		Name      string
		CreatedAt time.Time
	}

	Budget struct {
		ID          int64
		UserID      int64
		Name        string
		TotalAmount decimal.Decimal
		MonthYear   MonthYear
		CreatedAt   time.Time
	}

	Saving struct {
		ID          int64
		UserID      int64
		GoalName    string
		GoalAmount  decimal.Decimal
		SavedAmount decimal.Decimal
		TargetDate  *Date
		CreatedAt   time.Time
	}

	User struct {
		ID             int64
		Username       string
		Email          string
		PasswordHash   string
		ResetTokenHash string
		ResetExpires   time.Time
		CreatedAt      time.Time
	}
)

// IsValid reports whether t is one of the known transaction types.
func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

// ParseTransactionType accepts "income" or "expense" in any case.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", NewValidationError("type", "Type must be income or expense")
	}
	return t, nil
}

const msgAmountTooLarge = "Amount is too large (max 999999999999.99)"

func (t Transaction) Validate() error {
	if !t.Amount.IsPositive() {
		return NewValidationError("amount", "Amount must be greater than 0")
	}
	if t.Amount.GreaterThan(MaxAmount) {
		return NewValidationError("amount", msgAmountTooLarge)
	}
	if !t.Type.IsValid() {
		return NewValidationError("type", "Type must be income or expense")
	}
	if t.Date.IsZero() {
		return NewValidationError("transaction_date", "Date is required")
	}
	if len(t.Description) > maxDescriptionLength {
		return NewValidationError("description", "Description is too long (max 500 characters)")
	}
	return nil
}

// Categorized reports whether the transaction references a category.
func (t Transaction) Categorized() bool {
	return t.CategoryID != nil
}

func (c Category) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return NewValidationError("name", "Category name is required")
	}
	if len(name) > maxCategoryNameLength {
		return NewValidationError("name", "Category name is too long (max 100 characters)")
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return NewValidationError("name", "Budget name is required")
	}
	if len(b.Name) > maxBudgetNameLength {
		return NewValidationError("name", "Budget name is too long (max 100 characters)")
	}
	if !b.TotalAmount.IsPositive() {
		return NewValidationError("total_amount", "Total amount must be greater than 0")
	}
	if b.TotalAmount.GreaterThan(MaxAmount) {
		return NewValidationError("total_amount", msgAmountTooLarge)
	}
	if b.MonthYear.IsZero() {
		return NewValidationError("month_year", "Month is required")
	}
	return nil
}

// Validate checks the amount invariants of a goal. Target dates in the past
// are rejected by the service on create, not here, so that stored goals can
// become overdue.
func (s Saving) Validate() error {
	if strings.TrimSpace(s.GoalName) == "" {
		return NewValidationError("goal_name", "Goal name is required")
	}
	if len(s.GoalName) > maxGoalNameLength {
		return NewValidationError("goal_name", "Goal name is too long (max 100 characters)")
	}
	if !s.GoalAmount.IsPositive() {
		return NewValidationError("goal_amount", "Goal amount must be greater than 0")
	}
	if s.GoalAmount.GreaterThan(MaxAmount) {
		return NewValidationError("goal_amount", msgAmountTooLarge)
	}
	if s.SavedAmount.IsNegative() {
		return NewValidationError("saved_amount", "Saved amount cannot be negative")
	}
	if s.SavedAmount.GreaterThan(s.GoalAmount) {
		return NewValidationError("saved_amount", "Saved amount cannot exceed goal amount")
	}
	return nil
}

// HasResetToken reports whether a password reset is pending and unexpired at now.
func (u User) HasResetToken(now time.Time) bool {
	return u.ResetTokenHash != "" && now.Before(u.ResetExpires)
}

// Session is a login kept server side. Only the token hash is stored.
type Session struct {
	TokenHash string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
