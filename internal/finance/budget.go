package finance

import (
	"sort"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// OverviewFallback is how many recent budgets the overview shows when the
// current month has none.
const OverviewFallback = 3

type BudgetEvaluation struct {
	Budget         core.Budget
	Spent          decimal.Decimal
	Remaining      decimal.Decimal // negative when over budget
	PercentageUsed decimal.Decimal // rounded to one place, may exceed 100
}

// OverBudget reports whether spending passed the declared total.
func (e BudgetEvaluation) OverBudget() bool {
	return e.Remaining.IsNegative()
}

// EvaluateBudget sums the expenses dated within the budget's month.
// txs may contain any of the owner's transactions.
func EvaluateBudget(b core.Budget, txs []core.Transaction) BudgetEvaluation {
	totals := Aggregate(txs, Filter{
		Range: MonthRange(b.MonthYear),
		Type:  core.Expense,
	})
	return BudgetEvaluation{
		Budget:         b,
		Spent:          totals.Expenses,
		Remaining:      b.TotalAmount.Sub(totals.Expenses),
		PercentageUsed: core.Percentage(totals.Expenses, b.TotalAmount),
	}
}

// SelectOverviewBudgets returns the budgets of current ordered by name, or
// when there are none the OverviewFallback most recent budgets by month
// descending.
func SelectOverviewBudgets(budgets []core.Budget, current core.MonthYear) []core.Budget {
	var selected []core.Budget
	for _, b := range budgets {
		if b.MonthYear == current {
			selected = append(selected, b)
		}
	}
	if len(selected) > 0 {
		sort.SliceStable(selected, func(i, j int) bool {
			return selected[i].Name < selected[j].Name
		})
		return selected
	}

	recent := append([]core.Budget(nil), budgets...)
	sort.SliceStable(recent, func(i, j int) bool {
		if c := recent[i].MonthYear.Compare(recent[j].MonthYear); c != 0 {
			return c > 0
		}
		if !recent[i].CreatedAt.Equal(recent[j].CreatedAt) {
			return recent[i].CreatedAt.After(recent[j].CreatedAt)
		}
		return recent[i].ID > recent[j].ID
	})
	if len(recent) > OverviewFallback {
		recent = recent[:OverviewFallback]
	}
	return recent
}

// EvaluateBudgetOverview evaluates the budgets the dashboard should show.
func EvaluateBudgetOverview(budgets []core.Budget, txs []core.Transaction, current core.MonthYear) []BudgetEvaluation {
	selected := SelectOverviewBudgets(budgets, current)
	out := make([]BudgetEvaluation, 0, len(selected))
	for _, b := range selected {
		out = append(out, EvaluateBudget(b, txs))
	}
	return out
}
