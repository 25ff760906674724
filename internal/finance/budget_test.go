package finance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func budget(id int64, name, total string, year int, month time.Month) core.Budget {
	return core.Budget{
		ID:          id,
		UserID:      1,
		Name:        name,
		TotalAmount: decimal.RequireFromString(total),
		MonthYear:   core.MonthYear{Year: year, Month: month},
	}
}

func TestEvaluateBudgetExample(t *testing.T) {
	b := budget(1, "Monthly", "500.00", 2024, time.March)
	txs := []core.Transaction{
		tx(1, core.Expense, "300.00", march(1), nil),
		tx(2, core.Expense, "42.50", march(31), nil),
		tx(3, core.Income, "1000.00", march(15), nil),                        // income ignored
		tx(4, core.Expense, "75.00", core.NewDate(2024, time.April, 1), nil), // other month
		tx(5, core.Expense, "20.00", core.NewDate(2024, time.February, 29), nil),
	}

	ev := EvaluateBudget(b, txs)

	assert.Equal(t, "342.50", core.FormatMoney(ev.Spent))
	assert.Equal(t, "157.50", core.FormatMoney(ev.Remaining))
	assert.Equal(t, "68.5", core.FormatPercent(ev.PercentageUsed))
	assert.False(t, ev.OverBudget())
}

func TestEvaluateBudgetOverspent(t *testing.T) {
	b := budget(1, "Fun", "100.00", 2024, time.March)
	txs := []core.Transaction{tx(1, core.Expense, "150.00", march(5), nil)}

	ev := EvaluateBudget(b, txs)

	assert.Equal(t, "-50.00", core.FormatMoney(ev.Remaining))
	assert.Equal(t, "150.0", core.FormatPercent(ev.PercentageUsed))
	assert.True(t, ev.OverBudget())
}

func TestEvaluateBudgetCorruptTotal(t *testing.T) {
	b := budget(1, "Broken", "0", 2024, time.March)
	txs := []core.Transaction{tx(1, core.Expense, "10.00", march(5), nil)}

	ev := EvaluateBudget(b, txs)

	assert.True(t, ev.PercentageUsed.IsZero())
	assert.Equal(t, "-10.00", core.FormatMoney(ev.Remaining))
}

func TestEvaluateBudgetProperties(t *testing.T) {
	totals := []string{"1", "33.33", "500", "1234.56"}
	spends := [][]string{{}, {"0.01"}, {"10", "20.05"}, {"999.99", "0.01", "600"}}
	for _, total := range totals {
		for _, amounts := range spends {
			var txs []core.Transaction
			for i, a := range amounts {
				txs = append(txs, tx(int64(i), core.Expense, a, march(i+1), nil))
			}
			b := budget(1, "B", total, 2024, time.March)
			ev := EvaluateBudget(b, txs)
			assert.True(t, ev.Remaining.Equal(b.TotalAmount.Sub(ev.Spent)))
			want := ev.Spent.Div(b.TotalAmount).Mul(decimal.NewFromInt(100)).Round(1)
			assert.True(t, ev.PercentageUsed.Equal(want), "total %s spent %s", total, ev.Spent)
		}
	}
}

func TestSelectOverviewBudgetsCurrentMonth(t *testing.T) {
	current := core.MonthYear{Year: 2024, Month: time.March}
	budgets := []core.Budget{
		budget(1, "Travel", "100", 2024, time.March),
		budget(2, "Food", "100", 2024, time.March),
		budget(3, "Old", "100", 2024, time.February),
	}

	got := SelectOverviewBudgets(budgets, current)

	require.Len(t, got, 2)
	assert.Equal(t, "Food", got[0].Name)
	assert.Equal(t, "Travel", got[1].Name)
}

func TestSelectOverviewBudgetsFallback(t *testing.T) {
	current := core.MonthYear{Year: 2024, Month: time.July}
	budgets := []core.Budget{
		budget(1, "A", "100", 2023, time.December),
		budget(2, "B", "100", 2024, time.May),
		budget(3, "C", "100", 2024, time.January),
		budget(4, "D", "100", 2024, time.May),
		budget(5, "E", "100", 2022, time.June),
	}

	got := SelectOverviewBudgets(budgets, current)

	require.Len(t, got, 3)
	assert.Equal(t, []int64{4, 2, 3}, []int64{got[0].ID, got[1].ID, got[2].ID})
}

func TestEvaluateBudgetOverview(t *testing.T) {
	current := core.MonthYear{Year: 2024, Month: time.April}
	budgets := []core.Budget{budget(1, "March", "200", 2024, time.March)}
	txs := []core.Transaction{tx(1, core.Expense, "50", march(2), nil)}

	got := EvaluateBudgetOverview(budgets, txs, current)

	require.Len(t, got, 1)
	assert.Equal(t, "50.00", core.FormatMoney(got[0].Spent))
	assert.Equal(t, "25.0", core.FormatPercent(got[0].PercentageUsed))

	assert.Empty(t, EvaluateBudgetOverview(nil, txs, current))
}
