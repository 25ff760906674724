package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/storage/memory"
)

func TestBudgetServiceEvaluatesLiveExpenses(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	u := newUser(t, store, "a@example.com")
	budgets := NewBudgetService(store, store)
	txs := NewTransactionService(store, store)
	march := core.MonthYear{Year: 2024, Month: time.March}

	b, err := budgets.Create(ctx, u.ID, core.Budget{Name: "Groceries", TotalAmount: amount("500"), MonthYear: march})
	require.NoError(t, err)
	assert.True(t, b.Spent.IsZero())

	addTx(t, txs, u.ID, core.Expense, "120.50", core.NewDate(2024, time.March, 3), nil)
	addTx(t, txs, u.ID, core.Expense, "80", core.NewDate(2024, time.March, 20), nil)
	addTx(t, txs, u.ID, core.Income, "1000", core.NewDate(2024, time.March, 1), nil)
	addTx(t, txs, u.ID, core.Expense, "50", core.NewDate(2024, time.April, 1), nil)

	ev, err := budgets.Evaluate(ctx, u.ID, b.Budget.ID)
	require.NoError(t, err)
	assert.Equal(t, "200.50", core.FormatMoney(ev.Spent))
	assert.Equal(t, "299.50", core.FormatMoney(ev.Remaining))
	assert.Equal(t, "40.1", core.FormatPercent(ev.PercentageUsed))
}

func TestBudgetServiceDuplicateNamePerMonth(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	u := newUser(t, store, "a@example.com")
	budgets := NewBudgetService(store, store)
	march := core.MonthYear{Year: 2024, Month: time.March}

	_, err := budgets.Create(ctx, u.ID, core.Budget{Name: "Food", TotalAmount: amount("100"), MonthYear: march})
	require.NoError(t, err)
	_, err = budgets.Create(ctx, u.ID, core.Budget{Name: "food", TotalAmount: amount("50"), MonthYear: march})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "A budget with this name already exists for this month")

	_, err = budgets.Create(ctx, u.ID, core.Budget{Name: "Food", TotalAmount: amount("100"), MonthYear: march.AddMonths(1)})
	assert.NoError(t, err)
}

func TestBudgetServiceOverviewFallsBack(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	u := newUser(t, store, "a@example.com")
	budgets := NewBudgetService(store, store)

	for _, m := range []time.Month{time.January, time.February, time.March, time.April} {
		_, err := budgets.Create(ctx, u.ID, core.Budget{Name: "Monthly", TotalAmount: amount("100"), MonthYear: core.MonthYear{Year: 2023, Month: m}})
		require.NoError(t, err)
	}

	current := core.MonthYear{Year: 2024, Month: time.June}
	evs, err := budgets.Overview(ctx, u.ID, current)
	require.NoError(t, err)
	require.Len(t, evs, 3)
	assert.Equal(t, time.April, evs[0].Budget.MonthYear.Month)
	assert.Equal(t, time.February, evs[2].Budget.MonthYear.Month)

	_, err = budgets.Create(ctx, u.ID, core.Budget{Name: "Rent", TotalAmount: amount("900"), MonthYear: current})
	require.NoError(t, err)
	evs, err = budgets.Overview(ctx, u.ID, current)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, "Rent", evs[0].Budget.Name)
}
