package finance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func saving(id int64, goal, saved string, target *core.Date) core.Saving {
	return core.Saving{
		ID:          id,
		UserID:      1,
		GoalName:    "Goal",
		GoalAmount:  decimal.RequireFromString(goal),
		SavedAmount: decimal.RequireFromString(saved),
		TargetDate:  target,
		CreatedAt:   time.Date(2024, time.January, int(id), 0, 0, 0, 0, time.UTC),
	}
}

func TestEvaluateSaving(t *testing.T) {
	today := march(15)

	ev := EvaluateSaving(saving(1, "1000.00", "250.00", ptr(march(25))), today)
	assert.Equal(t, "25.0", core.FormatPercent(ev.ProgressPercentage))
	assert.Equal(t, "750.00", core.FormatMoney(ev.RemainingAmount))
	require.NotNil(t, ev.DaysUntilTarget)
	assert.Equal(t, 10, *ev.DaysUntilTarget)
	assert.Equal(t, StatusInProgress, ev.Status)

	ev = EvaluateSaving(saving(2, "1000.00", "250.00", nil), today)
	assert.Nil(t, ev.DaysUntilTarget)
	assert.Equal(t, StatusInProgress, ev.Status)
}

func TestEvaluateSavingCorruptGoal(t *testing.T) {
	ev := EvaluateSaving(saving(1, "0", "0", nil), march(1))
	assert.True(t, ev.ProgressPercentage.IsZero())
	assert.Equal(t, StatusCompleted, ev.Status)
}

func TestEvaluateSavingRemainingClampedAtZero(t *testing.T) {
	ev := EvaluateSaving(saving(1, "100.00", "120.00", nil), march(1))
	assert.True(t, ev.RemainingAmount.IsZero())
	assert.Equal(t, StatusCompleted, ev.Status)
}

func TestClassifySaving(t *testing.T) {
	d := func(n int) *int { return &n }
	cases := []struct {
		saved, goal string
		days        *int
		want        SavingStatus
	}{
		{"1000", "1000", nil, StatusCompleted},
		{"1000", "1000", d(-5), StatusCompleted},
		{"999.99", "1000", d(-1), StatusOverdue},
		{"999.99", "1000", d(0), StatusInProgress},
		{"0", "1000", d(30), StatusInProgress},
		{"0", "1000", nil, StatusInProgress},
	}
	for i, tc := range cases {
		got := ClassifySaving(decimal.RequireFromString(tc.saved), decimal.RequireFromString(tc.goal), tc.days)
		assert.Equal(t, tc.want, got, "case %d", i)
	}
}

func TestValidateAdditionExample(t *testing.T) {
	s := saving(1, "1000.00", "950.00", nil)

	err := ValidateAddition(s, decimal.NewFromInt(100))
	v, ok := core.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Message, "exceed your goal")
	assert.Equal(t, "950.00", core.FormatMoney(s.SavedAmount))

	require.NoError(t, ValidateAddition(s, decimal.NewFromInt(50)))
	s.SavedAmount = s.SavedAmount.Add(decimal.NewFromInt(50))
	ev := EvaluateSaving(s, march(1))
	assert.Equal(t, "1000.00", core.FormatMoney(s.SavedAmount))
	assert.Equal(t, StatusCompleted, ev.Status)
	assert.Equal(t, "100.0", core.FormatPercent(ev.ProgressPercentage))
}

func TestValidateAdditionRejectsNonPositive(t *testing.T) {
	s := saving(1, "1000.00", "0", nil)
	for _, amount := range []string{"0", "-10"} {
		err := ValidateAddition(s, decimal.RequireFromString(amount))
		v, ok := core.AsValidation(err)
		require.True(t, ok, amount)
		assert.Equal(t, "Amount must be greater than 0", v.Message)
	}
}

func TestSummarizeSavings(t *testing.T) {
	today := march(1)
	savings := []core.Saving{
		saving(1, "1000", "1000", ptr(march(10))),                       // completed, upcoming
		saving(2, "500", "100", ptr(core.NewDate(2024, time.March, 31))), // upcoming, boundary
		saving(3, "200", "50", ptr(core.NewDate(2024, time.April, 1))),   // 31 days away
		saving(4, "300", "0", ptr(core.NewDate(2024, time.February, 1))), // overdue
		saving(5, "0.01", "0", ptr(today)),                               // due today
	}

	summary := SummarizeSavings(savings, today)

	assert.Equal(t, 5, summary.TotalGoals)
	assert.Equal(t, 1, summary.CompletedGoals)
	assert.Equal(t, "2000.01", core.FormatMoney(summary.TotalGoalAmount))
	assert.Equal(t, "1150.00", core.FormatMoney(summary.TotalSavedAmount))
	assert.Equal(t, "57.5", core.FormatPercent(summary.OverallProgress))

	var upcoming []int64
	for _, ev := range summary.UpcomingDeadlines {
		upcoming = append(upcoming, ev.Saving.ID)
	}
	assert.Equal(t, []int64{5, 1, 2}, upcoming)

	var recent []int64
	for _, ev := range summary.RecentGoals {
		recent = append(recent, ev.Saving.ID)
	}
	assert.Equal(t, []int64{3, 4, 5}, recent)
}

func TestSummarizeSavingsEmpty(t *testing.T) {
	summary := SummarizeSavings(nil, march(1))
	assert.Zero(t, summary.TotalGoals)
	assert.True(t, summary.OverallProgress.IsZero())
	assert.Empty(t, summary.UpcomingDeadlines)
	assert.Empty(t, summary.RecentGoals)
}
