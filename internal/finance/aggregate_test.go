package finance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"fintrack/internal/core"
)

func ptr[T any](v T) *T { return &v }

func tx(id int64, typ core.TransactionType, amount string, date core.Date, category *core.Category) core.Transaction {
	t := core.Transaction{
		ID:     id,
		UserID: 1,
		Amount: decimal.RequireFromString(amount),
		Type:   typ,
		Date:   date,
	}
	if category != nil {
		t.CategoryID = ptr(category.ID)
		t.CategoryName = category.Name
	}
	return t
}

func march(day int) core.Date { return core.NewDate(2024, time.March, day) }

func TestAggregateEmpty(t *testing.T) {
	totals := Aggregate(nil, Filter{})
	assert.True(t, totals.Income.IsZero())
	assert.True(t, totals.Expenses.IsZero())
	assert.True(t, totals.Balance.IsZero())
	assert.Empty(t, totals.ExpensesByCategory)
	assert.Equal(t, 0, totals.Count)
}

func TestAggregateTotalsAndCategories(t *testing.T) {
	food := &core.Category{ID: 1, Name: "Food"}
	rent := &core.Category{ID: 2, Name: "Rent"}
	txs := []core.Transaction{
		tx(1, core.Income, "2500.00", march(1), nil),
		tx(2, core.Expense, "800.00", march(2), rent),
		tx(3, core.Expense, "42.10", march(3), food),
		tx(4, core.Expense, "17.90", march(4), food),
		tx(5, core.Expense, "5.00", march(5), nil),
		tx(6, core.Expense, "99.00", core.NewDate(2024, time.April, 1), food),
	}

	totals := Aggregate(txs, Filter{Range: MonthRange(core.MonthYear{Year: 2024, Month: time.March})})

	assert.Equal(t, "2500.00", core.FormatMoney(totals.Income))
	assert.Equal(t, "865.00", core.FormatMoney(totals.Expenses))
	assert.Equal(t, "1635.00", core.FormatMoney(totals.Balance))
	assert.Equal(t, 5, totals.Count)
	assert.Equal(t, "60.00", core.FormatMoney(totals.ExpensesByCategory["Food"]))
	assert.Equal(t, "800.00", core.FormatMoney(totals.ExpensesByCategory["Rent"]))
	assert.Equal(t, "5.00", core.FormatMoney(totals.ExpensesByCategory[Uncategorized]))
}

func TestAggregateIsExact(t *testing.T) {
	// 0.1 added a thousand times drifts in float64.
	txs := make([]core.Transaction, 1000)
	for i := range txs {
		txs[i] = tx(int64(i), core.Expense, "0.10", march(1), nil)
	}
	totals := Aggregate(txs, Filter{})
	assert.True(t, totals.Expenses.Equal(decimal.NewFromInt(100)), totals.Expenses.String())
}

func TestAggregateBalanceIdentity(t *testing.T) {
	sets := [][]core.Transaction{
		{},
		{tx(1, core.Income, "10.01", march(1), nil)},
		{tx(1, core.Expense, "10.01", march(1), nil)},
		{
			tx(1, core.Income, "1.11", march(1), nil),
			tx(2, core.Income, "2.22", march(2), nil),
			tx(3, core.Expense, "3.34", march(3), nil),
			tx(4, core.Expense, "0.01", march(4), nil),
		},
	}
	for i, set := range sets {
		totals := Aggregate(set, Filter{})
		assert.True(t, totals.Income.Sub(totals.Expenses).Equal(totals.Balance), "set %d", i)
	}
}

func TestFilterMatch(t *testing.T) {
	food := &core.Category{ID: 7, Name: "Food"}
	categorized := tx(1, core.Expense, "1", march(10), food)
	plain := tx(2, core.Income, "1", march(10), nil)

	assert.True(t, Filter{}.Match(categorized))
	assert.True(t, Filter{Type: core.Expense}.Match(categorized))
	assert.False(t, Filter{Type: core.Expense}.Match(plain))
	assert.True(t, Filter{CategoryID: ptr(int64(7))}.Match(categorized))
	assert.False(t, Filter{CategoryID: ptr(int64(7))}.Match(plain))
	assert.False(t, Filter{CategoryID: ptr(int64(8))}.Match(categorized))
	assert.False(t, Filter{Range: Explicit(march(11), march(20))}.Match(categorized))
}

func TestSelectKeepsOrder(t *testing.T) {
	txs := []core.Transaction{
		tx(3, core.Expense, "1", march(3), nil),
		tx(1, core.Income, "1", march(1), nil),
		tx(2, core.Expense, "1", march(2), nil),
	}
	got := Select(txs, Filter{Type: core.Expense})
	if assert.Len(t, got, 2) {
		assert.Equal(t, int64(3), got[0].ID)
		assert.Equal(t, int64(2), got[1].ID)
	}
}
