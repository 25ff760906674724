package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/finance"
	"fintrack/internal/storage/memory"
)

func newSavingService(store *memory.Store, now time.Time) *SavingService {
	s := NewSavingService(store, nil)
	s.now = fixedClock(now)
	return s
}

func TestSavingServiceCreateRejectsPastTarget(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	u := newUser(t, store, "a@example.com")
	svc := newSavingService(store, time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC))

	past := core.NewDate(2024, time.March, 9)
	_, err := svc.Create(ctx, u.ID, core.Saving{GoalName: "Trip", GoalAmount: amount("100"), TargetDate: &past})
	ve, ok := core.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "target_date", ve.Field)

	today := core.NewDate(2024, time.March, 10)
	ev, err := svc.Create(ctx, u.ID, core.Saving{GoalName: "Trip", GoalAmount: amount("100"), TargetDate: &today})
	require.NoError(t, err)
	require.NotNil(t, ev.DaysUntilTarget)
	assert.Equal(t, 0, *ev.DaysUntilTarget)
	assert.Equal(t, finance.StatusInProgress, ev.Status)

	_, err = svc.Create(ctx, u.ID, core.Saving{GoalName: "trip", GoalAmount: amount("5")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Another savings goal with this name already exists")
}

func TestSavingServiceAddMoney(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	u := newUser(t, store, "a@example.com")
	svc := newSavingService(store, time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC))

	ev, err := svc.Create(ctx, u.ID, core.Saving{GoalName: "Laptop", GoalAmount: amount("1000"), SavedAmount: amount("400")})
	require.NoError(t, err)
	id := ev.Saving.ID

	ev, err = svc.AddMoney(ctx, u.ID, id, amount("250"))
	require.NoError(t, err)
	assert.Equal(t, "650.00", core.FormatMoney(ev.Saving.SavedAmount))
	assert.Equal(t, "65.0", core.FormatPercent(ev.ProgressPercentage))

	_, err = svc.AddMoney(ctx, u.ID, id, amount("400"))
	ve, ok := core.AsValidation(err)
	require.True(t, ok, "expected validation error, got %v", err)
	assert.Equal(t, "Adding this amount would exceed your goal. Consider updating your goal amount first.", ve.Message)

	_, err = svc.AddMoney(ctx, u.ID, id, amount("0"))
	assert.True(t, core.IsValidation(err))

	ev, err = svc.AddMoney(ctx, u.ID, id, amount("350"))
	require.NoError(t, err)
	assert.Equal(t, finance.StatusCompleted, ev.Status)

	_, err = svc.AddMoney(ctx, u.ID+100, id, amount("1"))
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSavingServiceConcurrentAdditionsNeverPassGoal(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	u := newUser(t, store, "a@example.com")
	svc := newSavingService(store, time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC))

	ev, err := svc.Create(ctx, u.ID, core.Saving{GoalName: "Fund", GoalAmount: amount("100")})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.AddMoney(ctx, u.ID, ev.Saving.ID, amount("10"))
		}()
	}
	wg.Wait()

	got, err := svc.Evaluate(ctx, u.ID, ev.Saving.ID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", core.FormatMoney(got.Saving.SavedAmount))
}

func TestSavingServiceListOrdersByTargetDate(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	u := newUser(t, store, "a@example.com")
	svc := newSavingService(store, time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC))

	late := core.NewDate(2024, time.December, 1)
	soon := core.NewDate(2024, time.April, 1)
	for _, g := range []core.Saving{
		{GoalName: "None", GoalAmount: amount("10")},
		{GoalName: "Late", GoalAmount: amount("10"), TargetDate: &late},
		{GoalName: "Soon", GoalAmount: amount("10"), TargetDate: &soon},
	} {
		_, err := svc.Create(ctx, u.ID, g)
		require.NoError(t, err)
	}

	evs, err := svc.List(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, evs, 3)
	assert.Equal(t, []string{"Soon", "Late", "None"}, []string{evs[0].Saving.GoalName, evs[1].Saving.GoalName, evs[2].Saving.GoalName})

	summary, err := svc.Summary(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalGoals)
	assert.Equal(t, "30.00", core.FormatMoney(summary.TotalGoalAmount))
}
