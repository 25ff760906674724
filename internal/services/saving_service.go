package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/finance"
	"fintrack/internal/metrics"
)

// SavingService manages savings goals. Status and progress are derived on
// every read from the stored amounts and today's date.
type SavingService struct {
	savings SavingStore
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewSavingService(savings SavingStore, m *metrics.Metrics) *SavingService {
	return &SavingService{
		savings: savings,
		metrics: m,
		now:     time.Now,
	}
}

func (s *SavingService) today() core.Date {
	return core.DateOf(s.now())
}

func (s *SavingService) Create(ctx context.Context, userID int64, goal core.Saving) (finance.SavingEvaluation, error) {
	goal.UserID = userID
	goal.ID = 0
	goal.GoalName = strings.TrimSpace(goal.GoalName)
	if err := s.check(ctx, goal); err != nil {
		return finance.SavingEvaluation{}, err
	}
	if goal.TargetDate != nil && goal.TargetDate.Before(s.today()) {
		return finance.SavingEvaluation{}, core.NewValidationError("target_date", "Target date cannot be in the past")
	}

	created, err := s.savings.CreateSaving(ctx, goal)
	if err != nil {
		return finance.SavingEvaluation{}, fmt.Errorf("create saving: %w", err)
	}
	slog.InfoContext(ctx, "Savings goal created",
		"id", created.ID,
		"user_id", userID,
		"goal", core.FormatMoney(created.GoalAmount),
		"saved", core.FormatMoney(created.SavedAmount))
	return finance.EvaluateSaving(created, s.today()), nil
}

// Update replaces name, amounts and target date. A past target date is kept
// so an overdue goal can still be edited.
func (s *SavingService) Update(ctx context.Context, userID int64, goal core.Saving) (finance.SavingEvaluation, error) {
	goal.UserID = userID
	goal.GoalName = strings.TrimSpace(goal.GoalName)
	if _, err := s.savings.GetSaving(ctx, userID, goal.ID); err != nil {
		return finance.SavingEvaluation{}, err
	}
	if err := s.check(ctx, goal); err != nil {
		return finance.SavingEvaluation{}, err
	}

	updated, err := s.savings.UpdateSaving(ctx, goal)
	if err != nil {
		return finance.SavingEvaluation{}, fmt.Errorf("update saving %d: %w", goal.ID, err)
	}
	slog.InfoContext(ctx, "Savings goal updated", "id", updated.ID, "user_id", userID)
	return finance.EvaluateSaving(updated, s.today()), nil
}

func (s *SavingService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.savings.DeleteSaving(ctx, userID, id); err != nil {
		if core.IsNotFound(err) {
			return err
		}
		return fmt.Errorf("delete saving %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Savings goal deleted", "id", id, "user_id", userID)
	return nil
}

// Evaluate returns progress, remaining amount, days to target and status.
func (s *SavingService) Evaluate(ctx context.Context, userID, id int64) (finance.SavingEvaluation, error) {
	goal, err := s.savings.GetSaving(ctx, userID, id)
	if err != nil {
		return finance.SavingEvaluation{}, err
	}
	return finance.EvaluateSaving(goal, s.today()), nil
}

// List evaluates every goal of the user, soonest target first and goals
// without a target last.
func (s *SavingService) List(ctx context.Context, userID int64) ([]finance.SavingEvaluation, error) {
	goals, err := s.savings.ListSavings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list savings: %w", err)
	}
	today := s.today()
	out := make([]finance.SavingEvaluation, 0, len(goals))
	for _, g := range goals {
		out = append(out, finance.EvaluateSaving(g, today))
	}
	sortByTargetDate(out)
	return out, nil
}

func (s *SavingService) Summary(ctx context.Context, userID int64) (finance.SavingsSummary, error) {
	goals, err := s.savings.ListSavings(ctx, userID)
	if err != nil {
		return finance.SavingsSummary{}, fmt.Errorf("list savings: %w", err)
	}
	return finance.SummarizeSavings(goals, s.today()), nil
}

// AddMoney adds amount to the goal's saved amount. The check against the
// goal and the write happen in one storage step, so concurrent additions
// cannot together pass the goal.
func (s *SavingService) AddMoney(ctx context.Context, userID, id int64, amount decimal.Decimal) (finance.SavingEvaluation, error) {
	goal, err := s.savings.GetSaving(ctx, userID, id)
	if err != nil {
		return finance.SavingEvaluation{}, err
	}
	if err := finance.ValidateAddition(goal, amount); err != nil {
		s.metrics.SavingAddition("rejected")
		return finance.SavingEvaluation{}, err
	}

	updated, err := s.savings.AddToSaved(ctx, userID, id, amount)
	switch {
	case errors.Is(err, core.ErrGoalExceeded):
		s.metrics.SavingAddition("rejected")
		slog.WarnContext(ctx, "Concurrent saving addition rejected", "id", id, "user_id", userID)
		return finance.SavingEvaluation{}, finance.ExceedsGoalError()
	case core.IsNotFound(err):
		return finance.SavingEvaluation{}, err
	case err != nil:
		s.metrics.SavingAddition("error")
		return finance.SavingEvaluation{}, fmt.Errorf("add to saving %d: %w", id, err)
	}

	s.metrics.SavingAddition("accepted")
	slog.InfoContext(ctx, "Money added to savings goal",
		"id", id,
		"user_id", userID,
		"amount", core.FormatMoney(amount),
		"saved", core.FormatMoney(updated.SavedAmount))
	return finance.EvaluateSaving(updated, s.today()), nil
}

func (s *SavingService) check(ctx context.Context, goal core.Saving) error {
	if err := goal.Validate(); err != nil {
		return err
	}
	taken, err := s.savings.SavingNameTaken(ctx, goal.UserID, goal.GoalName, goal.ID)
	if err != nil {
		return fmt.Errorf("check goal name: %w", err)
	}
	if taken {
		return core.NewValidationError("goal_name", "Another savings goal with this name already exists")
	}
	return nil
}

func sortByTargetDate(evs []finance.SavingEvaluation) {
	less := func(a, b finance.SavingEvaluation) bool {
		ta, tb := a.Saving.TargetDate, b.Saving.TargetDate
		switch {
		case ta == nil && tb == nil:
			return a.Saving.ID < b.Saving.ID
		case ta == nil:
			return false
		case tb == nil:
			return true
		case !ta.Equal(tb.Time):
			return ta.Before(*tb)
		default:
			return a.Saving.ID < b.Saving.ID
		}
	}
	sort.SliceStable(evs, func(i, j int) bool { return less(evs[i], evs[j]) })
}
