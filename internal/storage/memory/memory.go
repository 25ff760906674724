// Package memory is a process-local store used for development and tests.
// It mirrors the behavior of the SQLite backend: amounts are kept to the
// cent, lookups are scoped to the owning user and deleting a user removes
// everything it owns.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/finance"
)

type Store struct {
	mu sync.Mutex

	nextID       int64
	users        map[int64]core.User
	transactions map[int64]core.Transaction
	categories   map[int64]core.Category
	budgets      map[int64]core.Budget
	savings      map[int64]core.Saving
	sessions     map[string]core.Session

	now func() time.Time
}

func New() *Store {
	return &Store{
		users:        make(map[int64]core.User),
		transactions: make(map[int64]core.Transaction),
		categories:   make(map[int64]core.Category),
		budgets:      make(map[int64]core.Budget),
		savings:      make(map[int64]core.Saving),
		sessions:     make(map[string]core.Session),
		now:          time.Now,
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func cents(d decimal.Decimal) decimal.Decimal {
	return core.FromCents(core.ToCents(d))
}

// Transactions

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkCategory(t.UserID, t.CategoryID); err != nil {
		return core.Transaction{}, err
	}
	t.ID = s.id()
	t.Amount = cents(t.Amount)
	t.CreatedAt = s.now().UTC()
	t.CategoryName = ""
	s.transactions[t.ID] = t
	return s.withCategory(t), nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.transactions[t.ID]
	if !ok || old.UserID != t.UserID {
		return core.Transaction{}, core.ErrNotFound
	}
	if err := s.checkCategory(t.UserID, t.CategoryID); err != nil {
		return core.Transaction{}, err
	}
	t.Amount = cents(t.Amount)
	t.CreatedAt = old.CreatedAt
	t.CategoryName = ""
	s.transactions[t.ID] = t
	return s.withCategory(t), nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return core.ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

func (s *Store) GetTransaction(_ context.Context, userID, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return core.Transaction{}, core.ErrNotFound
	}
	return s.withCategory(t), nil
}

func (s *Store) ListTransactions(_ context.Context, userID int64, f finance.Filter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0)
	for _, t := range s.transactions {
		if t.UserID == userID && f.Match(t) {
			out = append(out, s.withCategory(t))
		}
	}
	finance.SortNewestFirst(out)
	return out, nil
}

func (s *Store) CountTransactionsByCategory(_ context.Context, userID, categoryID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.transactions {
		if t.UserID == userID && t.CategoryID != nil && *t.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (s *Store) checkCategory(userID int64, id *int64) error {
	if id == nil {
		return nil
	}
	c, ok := s.categories[*id]
	if !ok || c.UserID != userID {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) withCategory(t core.Transaction) core.Transaction {
	if t.CategoryID != nil {
		if c, ok := s.categories[*t.CategoryID]; ok {
			t.CategoryName = c.Name
		}
	}
	return t
}

// Categories

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	c.CreatedAt = s.now().UTC()
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.categories[c.ID]
	if !ok || old.UserID != c.UserID {
		return core.Category{}, core.ErrNotFound
	}
	old.Name = c.Name
	s.categories[c.ID] = old
	return old, nil
}

func (s *Store) DeleteCategory(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return core.ErrNotFound
	}
	for _, t := range s.transactions {
		if t.UserID == userID && t.CategoryID != nil && *t.CategoryID == id {
			return core.ErrCategoryInUse
		}
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) GetCategory(_ context.Context, userID, id int64) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return core.Category{}, core.ErrNotFound
	}
	return c, nil
}

func (s *Store) ListCategories(_ context.Context, userID int64) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, 0)
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b core.Category) int {
		return cmp.Or(cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *Store) CategoryNameTaken(_ context.Context, userID int64, name string, excludeID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.UserID == userID && c.ID != excludeID && strings.EqualFold(c.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

// Budgets

func (s *Store) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.id()
	b.TotalAmount = cents(b.TotalAmount)
	b.CreatedAt = s.now().UTC()
	s.budgets[b.ID] = b
	return b, nil
}

func (s *Store) UpdateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.budgets[b.ID]
	if !ok || old.UserID != b.UserID {
		return core.Budget{}, core.ErrNotFound
	}
	b.TotalAmount = cents(b.TotalAmount)
	b.CreatedAt = old.CreatedAt
	s.budgets[b.ID] = b
	return b, nil
}

func (s *Store) DeleteBudget(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return core.ErrNotFound
	}
	delete(s.budgets, id)
	return nil
}

func (s *Store) GetBudget(_ context.Context, userID, id int64) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return core.Budget{}, core.ErrNotFound
	}
	return b, nil
}

func (s *Store) ListBudgets(_ context.Context, userID int64) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Budget, 0)
	for _, b := range s.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b core.Budget) int {
		return cmp.Or(b.MonthYear.Compare(a.MonthYear), cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *Store) BudgetNameTaken(_ context.Context, userID int64, name string, month core.MonthYear, excludeID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.budgets {
		if b.UserID == userID && b.ID != excludeID && b.MonthYear == month && strings.EqualFold(b.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

// Savings

func (s *Store) CreateSaving(_ context.Context, sv core.Saving) (core.Saving, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sv.ID = s.id()
	sv.GoalAmount = cents(sv.GoalAmount)
	sv.SavedAmount = cents(sv.SavedAmount)
	sv.CreatedAt = s.now().UTC()
	s.savings[sv.ID] = sv
	return sv, nil
}

func (s *Store) UpdateSaving(_ context.Context, sv core.Saving) (core.Saving, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.savings[sv.ID]
	if !ok || old.UserID != sv.UserID {
		return core.Saving{}, core.ErrNotFound
	}
	sv.GoalAmount = cents(sv.GoalAmount)
	sv.SavedAmount = cents(sv.SavedAmount)
	sv.CreatedAt = old.CreatedAt
	s.savings[sv.ID] = sv
	return sv, nil
}

func (s *Store) DeleteSaving(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sv, ok := s.savings[id]
	if !ok || sv.UserID != userID {
		return core.ErrNotFound
	}
	delete(s.savings, id)
	return nil
}

func (s *Store) GetSaving(_ context.Context, userID, id int64) (core.Saving, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sv, ok := s.savings[id]
	if !ok || sv.UserID != userID {
		return core.Saving{}, core.ErrNotFound
	}
	return sv, nil
}

func (s *Store) ListSavings(_ context.Context, userID int64) ([]core.Saving, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Saving, 0)
	for _, sv := range s.savings {
		if sv.UserID == userID {
			out = append(out, sv)
		}
	}
	slices.SortFunc(out, func(a, b core.Saving) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *Store) SavingNameTaken(_ context.Context, userID int64, name string, excludeID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sv := range s.savings {
		if sv.UserID == userID && sv.ID != excludeID && strings.EqualFold(sv.GoalName, name) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) AddToSaved(_ context.Context, userID, id int64, amount decimal.Decimal) (core.Saving, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sv, ok := s.savings[id]
	if !ok || sv.UserID != userID {
		return core.Saving{}, core.ErrNotFound
	}
	next := sv.SavedAmount.Add(cents(amount))
	if next.GreaterThan(sv.GoalAmount) {
		return core.Saving{}, core.ErrGoalExceeded
	}
	sv.SavedAmount = next
	s.savings[id] = sv
	return sv, nil
}

// Users

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.id()
	u.CreatedAt = s.now().UTC()
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return core.User{}, core.ErrNotFound
}

func (s *Store) UpdateProfile(_ context.Context, id int64, username, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	u.Username = username
	u.Email = email
	s.users[id] = u
	return u, nil
}

func (s *Store) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.PasswordHash = hash
	s.users[id] = u
	return nil
}

// DeleteUser removes the user together with its records and sessions.
func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.users, id)
	for k, t := range s.transactions {
		if t.UserID == id {
			delete(s.transactions, k)
		}
	}
	for k, c := range s.categories {
		if c.UserID == id {
			delete(s.categories, k)
		}
	}
	for k, b := range s.budgets {
		if b.UserID == id {
			delete(s.budgets, k)
		}
	}
	for k, sv := range s.savings {
		if sv.UserID == id {
			delete(s.savings, k)
		}
	}
	for k, sess := range s.sessions {
		if sess.UserID == id {
			delete(s.sessions, k)
		}
	}
	return nil
}

func (s *Store) EmailTaken(_ context.Context, email string, excludeID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID != excludeID && strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) SetResetToken(_ context.Context, id int64, tokenHash string, expires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.ResetTokenHash = tokenHash
	u.ResetExpires = expires
	s.users[id] = u
	return nil
}

func (s *Store) GetUserByResetToken(_ context.Context, tokenHash string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tokenHash == "" {
		return core.User{}, core.ErrNotFound
	}
	for _, u := range s.users {
		if u.ResetTokenHash == tokenHash {
			return u, nil
		}
	}
	return core.User{}, core.ErrNotFound
}

func (s *Store) ClearResetToken(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.ResetTokenHash = ""
	u.ResetExpires = time.Time{}
	s.users[id] = u
	return nil
}

func (s *Store) PurgeExpiredResetTokens(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, u := range s.users {
		if u.ResetTokenHash != "" && !now.Before(u.ResetExpires) {
			u.ResetTokenHash = ""
			u.ResetExpires = time.Time{}
			s.users[id] = u
			n++
		}
	}
	return n, nil
}

// Sessions

func (s *Store) CreateSession(_ context.Context, sess core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[sess.UserID]; !ok {
		return core.ErrNotFound
	}
	s.sessions[sess.TokenHash] = sess
	return nil
}

func (s *Store) GetSession(_ context.Context, tokenHash string) (core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[tokenHash]
	if !ok {
		return core.Session{}, core.ErrNotFound
	}
	return sess, nil
}

func (s *Store) DeleteSession(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[tokenHash]; !ok {
		return core.ErrNotFound
	}
	delete(s.sessions, tokenHash)
	return nil
}

func (s *Store) DeleteUserSessions(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, k)
		}
	}
	return nil
}

func (s *Store) PurgeExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, k)
			n++
		}
	}
	return n, nil
}
