package finance

import (
	"sort"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

type SavingStatus string

const (
	StatusCompleted  SavingStatus = "completed"
	StatusOverdue    SavingStatus = "overdue"
	StatusInProgress SavingStatus = "in-progress"
)

const (
	UpcomingWindowDays = 30
	RecentGoalsLimit   = 3
)

const (
	msgAmountNotPositive = "Amount must be greater than 0"
	msgExceedsGoal       = "Adding this amount would exceed your goal. Consider updating your goal amount first."
)

type SavingEvaluation struct {
	Saving             core.Saving
	ProgressPercentage decimal.Decimal
	RemainingAmount    decimal.Decimal
	DaysUntilTarget    *int
	Status             SavingStatus
}

// EvaluateSaving derives progress and status of s as of today.
func EvaluateSaving(s core.Saving, today core.Date) SavingEvaluation {
	var days *int
	if s.TargetDate != nil && !s.TargetDate.IsZero() {
		n := today.DaysUntil(*s.TargetDate)
		days = &n
	}
	return SavingEvaluation{
		Saving:             s,
		ProgressPercentage: core.Percentage(s.SavedAmount, s.GoalAmount),
		RemainingAmount:    decimal.Max(decimal.Zero, s.GoalAmount.Sub(s.SavedAmount)),
		DaysUntilTarget:    days,
		Status:             ClassifySaving(s.SavedAmount, s.GoalAmount, days),
	}
}

// ClassifySaving is completed once saved reaches goal, overdue when the
// target day has passed, otherwise in progress.
func ClassifySaving(saved, goal decimal.Decimal, daysUntilTarget *int) SavingStatus {
	switch {
	case saved.GreaterThanOrEqual(goal):
		return StatusCompleted
	case daysUntilTarget != nil && *daysUntilTarget < 0:
		return StatusOverdue
	default:
		return StatusInProgress
	}
}

// ValidateAddition checks that amount can be added to s without passing its
// goal. It never mutates s.
func ValidateAddition(s core.Saving, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return core.NewValidationError("amount", msgAmountNotPositive)
	}
	if s.SavedAmount.Add(amount).GreaterThan(s.GoalAmount) {
		return ExceedsGoalError()
	}
	return nil
}

// ExceedsGoalError is the rejection for additions that would pass the goal.
func ExceedsGoalError() error {
	return core.NewValidationError("amount", msgExceedsGoal)
}

type SavingsSummary struct {
	TotalGoals        int
	CompletedGoals    int
	TotalGoalAmount   decimal.Decimal
	TotalSavedAmount  decimal.Decimal
	OverallProgress   decimal.Decimal
	UpcomingDeadlines []SavingEvaluation // target within today..today+30, soonest first
	RecentGoals       []SavingEvaluation // last RecentGoalsLimit created, oldest first
}

// SummarizeSavings aggregates every goal of one user.
func SummarizeSavings(savings []core.Saving, today core.Date) SavingsSummary {
	summary := SavingsSummary{
		TotalGoalAmount:  decimal.Zero,
		TotalSavedAmount: decimal.Zero,
	}
	horizon := today.AddDays(UpcomingWindowDays)

	evaluated := make([]SavingEvaluation, 0, len(savings))
	for _, s := range savings {
		ev := EvaluateSaving(s, today)
		evaluated = append(evaluated, ev)

		summary.TotalGoals++
		if ev.Status == StatusCompleted {
			summary.CompletedGoals++
		}
		summary.TotalGoalAmount = summary.TotalGoalAmount.Add(s.GoalAmount)
		summary.TotalSavedAmount = summary.TotalSavedAmount.Add(s.SavedAmount)

		if s.TargetDate != nil && !s.TargetDate.IsZero() &&
			!s.TargetDate.Before(today) && !s.TargetDate.After(horizon) {
			summary.UpcomingDeadlines = append(summary.UpcomingDeadlines, ev)
		}
	}
	summary.OverallProgress = core.Percentage(summary.TotalSavedAmount, summary.TotalGoalAmount)

	sort.SliceStable(summary.UpcomingDeadlines, func(i, j int) bool {
		return summary.UpcomingDeadlines[i].Saving.TargetDate.Before(*summary.UpcomingDeadlines[j].Saving.TargetDate)
	})

	sort.SliceStable(evaluated, func(i, j int) bool {
		a, b := evaluated[i].Saving, evaluated[j].Saving
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	if len(evaluated) > RecentGoalsLimit {
		evaluated = evaluated[len(evaluated)-RecentGoalsLimit:]
	}
	summary.RecentGoals = evaluated
	return summary
}
