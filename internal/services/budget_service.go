package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/finance"
)

// BudgetService stores budgets and evaluates them against live transactions.
// Spent figures are recomputed on every call.
type BudgetService struct {
	budgets      BudgetStore
	transactions TransactionStore
}

func NewBudgetService(budgets BudgetStore, transactions TransactionStore) *BudgetService {
	return &BudgetService{
		budgets:      budgets,
		transactions: transactions,
	}
}

func (s *BudgetService) Create(ctx context.Context, userID int64, b core.Budget) (finance.BudgetEvaluation, error) {
	b.UserID = userID
	b.ID = 0
	b.Name = strings.TrimSpace(b.Name)
	if err := s.check(ctx, b); err != nil {
		return finance.BudgetEvaluation{}, err
	}

	created, err := s.budgets.CreateBudget(ctx, b)
	if err != nil {
		return finance.BudgetEvaluation{}, fmt.Errorf("create budget: %w", err)
	}
	slog.InfoContext(ctx, "Budget created",
		"id", created.ID,
		"user_id", userID,
		"month_year", created.MonthYear.String(),
		"total", core.FormatMoney(created.TotalAmount))
	return s.evaluate(ctx, created)
}

func (s *BudgetService) Update(ctx context.Context, userID int64, b core.Budget) (finance.BudgetEvaluation, error) {
	b.UserID = userID
	b.Name = strings.TrimSpace(b.Name)
	if _, err := s.budgets.GetBudget(ctx, userID, b.ID); err != nil {
		return finance.BudgetEvaluation{}, err
	}
	if err := s.check(ctx, b); err != nil {
		return finance.BudgetEvaluation{}, err
	}

	updated, err := s.budgets.UpdateBudget(ctx, b)
	if err != nil {
		return finance.BudgetEvaluation{}, fmt.Errorf("update budget %d: %w", b.ID, err)
	}
	slog.InfoContext(ctx, "Budget updated", "id", updated.ID, "user_id", userID)
	return s.evaluate(ctx, updated)
}

func (s *BudgetService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.budgets.DeleteBudget(ctx, userID, id); err != nil {
		if core.IsNotFound(err) {
			return err
		}
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Budget deleted", "id", id, "user_id", userID)
	return nil
}

// Evaluate loads one owned budget with its spent, remaining and percentage.
func (s *BudgetService) Evaluate(ctx context.Context, userID, id int64) (finance.BudgetEvaluation, error) {
	b, err := s.budgets.GetBudget(ctx, userID, id)
	if err != nil {
		return finance.BudgetEvaluation{}, err
	}
	return s.evaluate(ctx, b)
}

// List evaluates every budget of the user, most recent month first.
func (s *BudgetService) List(ctx context.Context, userID int64) ([]finance.BudgetEvaluation, error) {
	budgets, err := s.budgets.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return s.evaluateAll(ctx, userID, budgets)
}

// Overview evaluates the budgets of current, falling back to the most recent
// ones when current has none.
func (s *BudgetService) Overview(ctx context.Context, userID int64, current core.MonthYear) ([]finance.BudgetEvaluation, error) {
	budgets, err := s.budgets.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return s.evaluateAll(ctx, userID, finance.SelectOverviewBudgets(budgets, current))
}

func (s *BudgetService) evaluate(ctx context.Context, b core.Budget) (finance.BudgetEvaluation, error) {
	txs, err := s.transactions.ListTransactions(ctx, b.UserID, finance.Filter{
		Range: finance.MonthRange(b.MonthYear),
		Type:  core.Expense,
	})
	if err != nil {
		return finance.BudgetEvaluation{}, fmt.Errorf("load expenses for budget %d: %w", b.ID, err)
	}
	return finance.EvaluateBudget(b, txs), nil
}

func (s *BudgetService) evaluateAll(ctx context.Context, userID int64, budgets []core.Budget) ([]finance.BudgetEvaluation, error) {
	out := make([]finance.BudgetEvaluation, 0, len(budgets))
	if len(budgets) == 0 {
		return out, nil
	}
	// One load covering every budget month.
	span := finance.Range{Start: budgets[0].MonthYear.First(), End: budgets[0].MonthYear.Last()}
	for _, b := range budgets[1:] {
		if first := b.MonthYear.First(); first.Before(span.Start) {
			span.Start = first
		}
		if last := b.MonthYear.Last(); last.After(span.End) {
			span.End = last
		}
	}
	txs, err := s.transactions.ListTransactions(ctx, userID, finance.Filter{Range: span, Type: core.Expense})
	if err != nil {
		return nil, fmt.Errorf("load expenses for budgets: %w", err)
	}
	for _, b := range budgets {
		out = append(out, finance.EvaluateBudget(b, txs))
	}
	return out, nil
}

func (s *BudgetService) check(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	taken, err := s.budgets.BudgetNameTaken(ctx, b.UserID, b.Name, b.MonthYear, b.ID)
	if err != nil {
		return fmt.Errorf("check budget name: %w", err)
	}
	if taken {
		return core.NewValidationError("name", "A budget with this name already exists for this month")
	}
	return nil
}
