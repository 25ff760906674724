package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/finance"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 50
	minPasswordLength = 6
)

// UserStores groups the stores the account service reads for statistics,
// export and deletion.
type UserStores struct {
	Users        UserStore
	Transactions TransactionStore
	Categories   CategoryStore
	Budgets      BudgetStore
	Savings      SavingStore
}

type UserService struct {
	stores UserStores
	hasher PasswordHasher
	now    func() time.Time
}

func NewUserService(stores UserStores, hasher PasswordHasher) *UserService {
	return &UserService{
		stores: stores,
		hasher: hasher,
		now:    time.Now,
	}
}

type ProfileStats struct {
	TransactionCount int
	CategoryCount    int
	BudgetCount      int
	SavingCount      int
	CurrentBalance   decimal.Decimal // all-time income minus expenses
	TotalSaved       decimal.Decimal
	MonthlyExpenses  decimal.Decimal // current calendar month
}

// Register creates an account with a bcrypt password hash.
func (s *UserService) Register(ctx context.Context, username, email, password string) (core.User, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	if err := validateProfile(username, email); err != nil {
		return core.User{}, err
	}
	if err := validatePassword(password); err != nil {
		return core.User{}, err
	}
	if err := s.ensureEmailFree(ctx, email, 0); err != nil {
		return core.User{}, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return core.User{}, err
	}
	u, err := s.stores.Users.CreateUser(ctx, core.User{Username: username, Email: email, PasswordHash: hash})
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	slog.InfoContext(ctx, "User registered", "user_id", u.ID)
	return u, nil
}

// Authenticate checks email and password. Unknown email and wrong password
// both yield core.ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (core.User, error) {
	u, err := s.stores.Users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if core.IsNotFound(err) {
			return core.User{}, core.ErrInvalidCredentials
		}
		return core.User{}, fmt.Errorf("load user: %w", err)
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		slog.WarnContext(ctx, "Failed login attempt", "user_id", u.ID)
		return core.User{}, core.ErrInvalidCredentials
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (core.User, error) {
	return s.stores.Users.GetUser(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, id int64, username, email string) (core.User, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	if err := validateProfile(username, email); err != nil {
		return core.User{}, err
	}
	if err := s.ensureEmailFree(ctx, email, id); err != nil {
		return core.User{}, err
	}

	u, err := s.stores.Users.UpdateProfile(ctx, id, username, email)
	if err != nil {
		if core.IsNotFound(err) {
			return core.User{}, err
		}
		return core.User{}, fmt.Errorf("update profile: %w", err)
	}
	slog.InfoContext(ctx, "Profile updated", "user_id", id)
	return u, nil
}

func (s *UserService) ChangePassword(ctx context.Context, id int64, current, next, confirm string) error {
	if next != confirm {
		return core.NewValidationError("confirm_password", "New passwords do not match")
	}
	if err := validatePassword(next); err != nil {
		return err
	}
	u, err := s.stores.Users.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(u.PasswordHash, current) {
		return core.NewValidationError("current_password", "Current password is incorrect")
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	if err := s.stores.Users.UpdatePasswordHash(ctx, id, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	slog.InfoContext(ctx, "Password changed", "user_id", id)
	return nil
}

// SetPassword replaces the password of the account registered under email
// without checking the current one. It returns the affected user.
func (s *UserService) SetPassword(ctx context.Context, email, password string) (core.User, error) {
	if err := validatePassword(password); err != nil {
		return core.User{}, err
	}
	u, err := s.stores.Users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return core.User{}, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return core.User{}, err
	}
	if err := s.stores.Users.UpdatePasswordHash(ctx, u.ID, hash); err != nil {
		return core.User{}, fmt.Errorf("update password: %w", err)
	}
	slog.InfoContext(ctx, "Password set by administrator", "user_id", u.ID)
	return u, nil
}

// Stats counts the user's records and derives balance and monthly spend.
func (s *UserService) Stats(ctx context.Context, id int64) (ProfileStats, error) {
	txs, err := s.stores.Transactions.ListTransactions(ctx, id, finance.Filter{})
	if err != nil {
		return ProfileStats{}, fmt.Errorf("load transactions: %w", err)
	}
	cats, err := s.stores.Categories.ListCategories(ctx, id)
	if err != nil {
		return ProfileStats{}, fmt.Errorf("load categories: %w", err)
	}
	budgets, err := s.stores.Budgets.ListBudgets(ctx, id)
	if err != nil {
		return ProfileStats{}, fmt.Errorf("load budgets: %w", err)
	}
	savings, err := s.stores.Savings.ListSavings(ctx, id)
	if err != nil {
		return ProfileStats{}, fmt.Errorf("load savings: %w", err)
	}

	all := finance.Aggregate(txs, finance.Filter{})
	month := finance.Aggregate(txs, finance.Filter{
		Range: finance.Resolve(finance.PeriodMonth, s.now()),
		Type:  core.Expense,
	})
	summary := finance.SummarizeSavings(savings, core.DateOf(s.now()))

	return ProfileStats{
		TransactionCount: len(txs),
		CategoryCount:    len(cats),
		BudgetCount:      len(budgets),
		SavingCount:      len(savings),
		CurrentBalance:   all.Balance,
		TotalSaved:       summary.TotalSavedAmount,
		MonthlyExpenses:  month.Expenses,
	}, nil
}

// ExportAccount writes every record the user owns as one CSV document, one
// titled section per entity.
func (s *UserService) ExportAccount(ctx context.Context, id int64, w io.Writer) error {
	u, err := s.stores.Users.GetUser(ctx, id)
	if err != nil {
		return err
	}
	txs, err := s.stores.Transactions.ListTransactions(ctx, id, finance.Filter{})
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	cats, err := s.stores.Categories.ListCategories(ctx, id)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	budgets, err := s.stores.Budgets.ListBudgets(ctx, id)
	if err != nil {
		return fmt.Errorf("load budgets: %w", err)
	}
	savings, err := s.stores.Savings.ListSavings(ctx, id)
	if err != nil {
		return fmt.Errorf("load savings: %w", err)
	}
	today := core.DateOf(s.now())

	cw := csv.NewWriter(w)
	rows := [][]string{
		{"Account"},
		{"Username", "Email", "Member Since"},
		{u.Username, u.Email, core.DateOf(u.CreatedAt).String()},
		{"Transactions"},
		{"Date", "Type", "Amount", "Category", "Description"},
	}
	for _, t := range txs {
		rows = append(rows, []string{t.Date.String(), string(t.Type), core.FormatMoney(t.Amount), finance.CategoryLabel(t), t.Description})
	}
	rows = append(rows, []string{"Categories"}, []string{"Name"})
	for _, c := range cats {
		rows = append(rows, []string{c.Name})
	}
	rows = append(rows, []string{"Budgets"}, []string{"Name", "Month", "Total", "Spent", "Remaining", "Percentage Used"})
	for _, b := range budgets {
		ev := finance.EvaluateBudget(b, txs)
		rows = append(rows, []string{
			b.Name, b.MonthYear.String(), core.FormatMoney(b.TotalAmount),
			core.FormatMoney(ev.Spent), core.FormatMoney(ev.Remaining), core.FormatPercent(ev.PercentageUsed),
		})
	}
	rows = append(rows, []string{"Savings"}, []string{"Goal", "Goal Amount", "Saved Amount", "Target Date", "Status"})
	for _, sv := range savings {
		target := ""
		if sv.TargetDate != nil {
			target = sv.TargetDate.String()
		}
		ev := finance.EvaluateSaving(sv, today)
		rows = append(rows, []string{sv.GoalName, core.FormatMoney(sv.GoalAmount), core.FormatMoney(sv.SavedAmount), target, string(ev.Status)})
	}

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write account export: %w", err)
	}
	return nil
}

// Delete removes the account and, through cascading deletes, everything it owns.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.stores.Users.DeleteUser(ctx, id); err != nil {
		if core.IsNotFound(err) {
			return err
		}
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Account deleted", "user_id", id)
	return nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email string, excludeID int64) error {
	taken, err := s.stores.Users.EmailTaken(ctx, email, excludeID)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		return core.NewValidationError("email", "An account with this email already exists")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateProfile(username, email string) error {
	if n := len(username); n < minUsernameLength || n > maxUsernameLength {
		return core.NewValidationError("username", "Username must be between 3 and 50 characters")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t") {
		return core.NewValidationError("email", "Please enter a valid email address")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return core.NewValidationError("password", "Password must be at least 6 characters")
	}
	return nil
}
