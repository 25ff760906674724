package finance

import (
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Uncategorized is the bucket for transactions without a category.
const Uncategorized = "Uncategorized"

// Filter restricts which transactions are aggregated. Zero values match
// everything.
type Filter struct {
	Range      Range
	Type       core.TransactionType
	CategoryID *int64
}

// Match reports whether t passes every set criterion.
func (f Filter) Match(t core.Transaction) bool {
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *f.CategoryID) {
		return false
	}
	return f.Range.Contains(t.Date)
}

// Totals holds exact unrounded sums for a set of transactions.
type Totals struct {
	Income             decimal.Decimal
	Expenses           decimal.Decimal
	Balance            decimal.Decimal
	ExpensesByCategory map[string]decimal.Decimal
	Count              int
}

// Aggregate sums the matching transactions by type and groups expenses by
// category name.
func Aggregate(txs []core.Transaction, f Filter) Totals {
	totals := Totals{
		Income:             decimal.Zero,
		Expenses:           decimal.Zero,
		ExpensesByCategory: make(map[string]decimal.Decimal),
	}
	for _, t := range txs {
		if !f.Match(t) {
			continue
		}
		totals.Count++
		switch t.Type {
		case core.Income:
			totals.Income = totals.Income.Add(t.Amount)
		case core.Expense:
			totals.Expenses = totals.Expenses.Add(t.Amount)
			name := CategoryLabel(t)
			totals.ExpensesByCategory[name] = totals.ExpensesByCategory[name].Add(t.Amount)
		}
	}
	totals.Balance = totals.Income.Sub(totals.Expenses)
	return totals
}

// Select returns the matching transactions in their original order.
func Select(txs []core.Transaction, f Filter) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// CategoryLabel is the display name used for grouping t.
func CategoryLabel(t core.Transaction) string {
	if !t.Categorized() || t.CategoryName == "" {
		return Uncategorized
	}
	return t.CategoryName
}
