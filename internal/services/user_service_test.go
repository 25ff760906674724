package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
	"fintrack/internal/storage/memory"
)

func newUserService(store *memory.Store) *UserService {
	return NewUserService(UserStores{
		Users:        store,
		Transactions: store,
		Categories:   store,
		Budgets:      store,
		Savings:      store,
	}, NewPasswordHasher(bcrypt.MinCost))
}

func TestUserServiceRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newUserService(store)

	u, err := svc.Register(ctx, " alice ", "Alice@Example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEqual(t, "secret1", u.PasswordHash)

	_, err = svc.Register(ctx, "other", "ALICE@example.com", "secret2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "An account with this email already exists")

	got, err := svc.Authenticate(ctx, "alice@EXAMPLE.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)
}

func TestUserServiceRegisterValidation(t *testing.T) {
	svc := newUserService(memory.New())
	tests := []struct {
		name, username, email, password, field string
	}{
		{"short username", "ab", "a@example.com", "secret1", "username"},
		{"long username", strings.Repeat("x", 51), "a@example.com", "secret1", "username"},
		{"missing at", "alice", "example.com", "secret1", "email"},
		{"empty local part", "alice", "@example.com", "secret1", "email"},
		{"short password", "alice", "a@example.com", "12345", "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.username, tt.email, tt.password)
			ve, ok := core.AsValidation(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestUserServiceChangePassword(t *testing.T) {
	ctx := context.Background()
	svc := newUserService(memory.New())
	u, err := svc.Register(ctx, "alice", "a@example.com", "secret1")
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, u.ID, "nope", "newpass", "newpass")
	ve, ok := core.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "current_password", ve.Field)

	err = svc.ChangePassword(ctx, u.ID, "secret1", "newpass", "other")
	assert.True(t, core.IsValidation(err))

	require.NoError(t, svc.ChangePassword(ctx, u.ID, "secret1", "newpass", "newpass"))
	_, err = svc.Authenticate(ctx, "a@example.com", "newpass")
	assert.NoError(t, err)
}

func TestUserServiceStatsExportDelete(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newUserService(store)
	svc.now = fixedClock(time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC))
	u, err := svc.Register(ctx, "alice", "a@example.com", "secret1")
	require.NoError(t, err)

	txs := NewTransactionService(store, store)
	cats := NewCategoryService(store, store)
	food, err := cats.Create(ctx, u.ID, "Food")
	require.NoError(t, err)
	addTx(t, txs, u.ID, core.Income, "1000", core.NewDate(2024, time.February, 1), nil)
	addTx(t, txs, u.ID, core.Expense, "25", core.NewDate(2024, time.March, 3), &food)
	addTx(t, txs, u.ID, core.Expense, "75", core.NewDate(2024, time.February, 3), &food)
	_, err = store.CreateSaving(ctx, core.Saving{UserID: u.ID, GoalName: "Trip", GoalAmount: amount("500"), SavedAmount: amount("120")})
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TransactionCount)
	assert.Equal(t, 1, stats.CategoryCount)
	assert.Equal(t, 1, stats.SavingCount)
	assert.Equal(t, "900.00", stats.CurrentBalance.StringFixed(2))
	assert.Equal(t, "120.00", stats.TotalSaved.StringFixed(2))
	assert.Equal(t, "25.00", stats.MonthlyExpenses.StringFixed(2))

	var buf bytes.Buffer
	require.NoError(t, svc.ExportAccount(ctx, u.ID, &buf))
	out := buf.String()
	assert.Contains(t, out, "alice,a@example.com,")
	assert.Contains(t, out, "2024-03-03,expense,25.00,Food,\n")
	assert.Contains(t, out, "Trip,500.00,120.00,,in-progress\n")

	require.NoError(t, svc.Delete(ctx, u.ID))
	_, err = svc.Get(ctx, u.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	cs, err := store.ListCategories(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, cs)
}

func TestSessionService(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	u := newUser(t, store, "a@example.com")
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	svc := NewSessionService(store, store, time.Hour)
	svc.now = fixedClock(now)

	token, expires, err := svc.Create(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.Equal(t, now.Add(time.Hour), expires)

	_, err = store.GetSession(ctx, token)
	assert.ErrorIs(t, err, core.ErrNotFound, "plain token must not be stored")

	got, err := svc.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	svc.now = fixedClock(now.Add(time.Hour))
	_, err = svc.Resolve(ctx, token)
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)

	n, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	svc.now = fixedClock(now)
	token, _, err = svc.Create(ctx, u.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(ctx, token))
	_, err = svc.Resolve(ctx, token)
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)
	assert.NoError(t, svc.Revoke(ctx, token))
}

type recordingNotifier struct {
	mu    sync.Mutex
	links []string
	err   error
}

func (r *recordingNotifier) PublishPasswordReset(_ context.Context, _, _, resetURL string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links = append(r.links, resetURL)
	return r.err
}

func TestPasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	users := newUserService(store)
	u, err := users.Register(ctx, "alice", "a@example.com", "secret1")
	require.NoError(t, err)

	sessions := NewSessionService(store, store, time.Hour)
	token, _, err := sessions.Create(ctx, u.ID)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	svc := NewPasswordResetService(store, store, notifier, NewPasswordHasher(bcrypt.MinCost), "https://fin.example.com/", time.Hour)

	require.NoError(t, svc.Request(ctx, "nobody@example.com"))
	assert.Empty(t, notifier.links)

	require.NoError(t, svc.Request(ctx, "A@example.com"))
	require.Len(t, notifier.links, 1)
	prefix := "https://fin.example.com/api/auth/password/reset/"
	require.True(t, strings.HasPrefix(notifier.links[0], prefix))
	resetToken := strings.TrimPrefix(notifier.links[0], prefix)

	_, err = svc.Validate(ctx, resetToken)
	require.NoError(t, err)
	assert.True(t, core.IsValidation(svc.Reset(ctx, resetToken, "newpass", "mismatch")))

	require.NoError(t, svc.Reset(ctx, resetToken, "newpass", "newpass"))
	_, err = users.Authenticate(ctx, "a@example.com", "newpass")
	assert.NoError(t, err)
	_, err = sessions.Resolve(ctx, token)
	assert.ErrorIs(t, err, core.ErrInvalidCredentials, "reset must sign out existing sessions")

	err = svc.Reset(ctx, resetToken, "again12", "again12")
	assert.True(t, core.IsValidation(err), "token is single use")
}

func TestPasswordResetPublishFailureIsNotReturned(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	u := newUser(t, store, "a@example.com")
	notifier := &recordingNotifier{err: errors.New("broker down")}
	svc := NewPasswordResetService(store, store, notifier, NewPasswordHasher(bcrypt.MinCost), "http://localhost:8080", time.Hour)

	require.NoError(t, svc.Request(ctx, u.Email))
	got, err := store.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, got.ResetTokenHash)
}

func TestPasswordResetExpiredToken(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	u := newUser(t, store, "a@example.com")
	notifier := &recordingNotifier{}
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	svc := NewPasswordResetService(store, store, notifier, NewPasswordHasher(bcrypt.MinCost), "", 30*time.Minute)
	svc.now = fixedClock(now)

	require.NoError(t, svc.Request(ctx, u.Email))
	require.Len(t, notifier.links, 1)
	resetToken := strings.TrimPrefix(notifier.links[0], "/api/auth/password/reset/")

	svc.now = fixedClock(now.Add(31 * time.Minute))
	_, err := svc.Validate(ctx, resetToken)
	assert.True(t, core.IsValidation(err))

	n, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestUserServiceSetPassword(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newUserService(store)

	u, err := svc.Register(ctx, "alice", "alice@example.com", "secret1")
	require.NoError(t, err)

	got, err := svc.SetPassword(ctx, " ALICE@example.com ", "brandnew")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, "alice@example.com", "secret1")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "alice@example.com", "brandnew")
	assert.NoError(t, err)

	_, err = svc.SetPassword(ctx, "alice@example.com", "abc")
	assert.True(t, core.IsValidation(err))
	_, err = svc.SetPassword(ctx, "nobody@example.com", "brandnew")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
