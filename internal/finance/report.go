package finance

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// RecentLimit is how many transactions a summary lists.
const RecentLimit = 5

// WindowLoader fetches one user's transactions dated within r.
type WindowLoader func(ctx context.Context, r Range) ([]core.Transaction, error)

// ErrorHandler receives the failure of a single report entry. The entry
// itself is reported as zero.
type ErrorHandler func(month core.MonthYear, err error)

type MonthPoint struct {
	Month    core.MonthYear
	Label    string
	Income   decimal.Decimal
	Expenses decimal.Decimal
}

type TrendPoint struct {
	Month  core.MonthYear
	Label  string
	Amount decimal.Decimal
}

// MonthlySeries returns income and expense totals for the n months ending
// with ref, oldest first. Each month is loaded and summed independently.
func MonthlySeries(ctx context.Context, load WindowLoader, ref core.MonthYear, n int, onErr ErrorHandler) []MonthPoint {
	months := TrailingMonths(ref, n)
	points := make([]MonthPoint, 0, len(months))
	for _, m := range months {
		point := MonthPoint{Month: m, Label: m.Label(), Income: decimal.Zero, Expenses: decimal.Zero}
		txs, err := load(ctx, MonthRange(m))
		if err != nil {
			if onErr != nil {
				onErr(m, err)
			}
			points = append(points, point)
			continue
		}
		totals := Aggregate(txs, Filter{Range: MonthRange(m)})
		point.Income = totals.Income
		point.Expenses = totals.Expenses
		points = append(points, point)
	}
	return points
}

// SpendingTrend returns expense totals for the n months ending with ref,
// oldest first.
func SpendingTrend(ctx context.Context, load WindowLoader, ref core.MonthYear, n int, onErr ErrorHandler) []TrendPoint {
	months := TrailingMonths(ref, n)
	points := make([]TrendPoint, 0, len(months))
	for _, m := range months {
		point := TrendPoint{Month: m, Label: m.Label(), Amount: decimal.Zero}
		txs, err := load(ctx, MonthRange(m))
		if err != nil {
			if onErr != nil {
				onErr(m, err)
			}
			points = append(points, point)
			continue
		}
		point.Amount = Aggregate(txs, Filter{Range: MonthRange(m), Type: core.Expense}).Expenses
		points = append(points, point)
	}
	return points
}

type CategoryAnalysis struct {
	CategoryID       int64
	Category         string
	Expenses         decimal.Decimal
	Income           decimal.Decimal
	Net              decimal.Decimal
	TransactionCount int
}

// AnalyzeCategories reports every category, used or not, with its totals in
// r. Rows are ordered by expenses descending, then by name.
func AnalyzeCategories(categories []core.Category, txs []core.Transaction, r Range) []CategoryAnalysis {
	rows := make([]CategoryAnalysis, 0, len(categories))
	index := make(map[int64]int, len(categories))
	for _, c := range categories {
		index[c.ID] = len(rows)
		rows = append(rows, CategoryAnalysis{
			CategoryID: c.ID,
			Category:   c.Name,
			Expenses:   decimal.Zero,
			Income:     decimal.Zero,
		})
	}

	for _, t := range txs {
		if !t.Categorized() || !r.Contains(t.Date) {
			continue
		}
		i, ok := index[*t.CategoryID]
		if !ok {
			continue
		}
		row := &rows[i]
		row.TransactionCount++
		switch t.Type {
		case core.Income:
			row.Income = row.Income.Add(t.Amount)
		case core.Expense:
			row.Expenses = row.Expenses.Add(t.Amount)
		}
	}

	for i := range rows {
		rows[i].Net = rows[i].Income.Sub(rows[i].Expenses)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if c := rows[i].Expenses.Cmp(rows[j].Expenses); c != 0 {
			return c > 0
		}
		return strings.ToLower(rows[i].Category) < strings.ToLower(rows[j].Category)
	})
	return rows
}

type Summary struct {
	Totals
	Recent []core.Transaction
}

// Summarize bundles the totals for r with the RecentLimit most recent
// transactions in r.
func Summarize(txs []core.Transaction, r Range) Summary {
	f := Filter{Range: r}
	matched := Select(txs, f)
	SortNewestFirst(matched)
	if len(matched) > RecentLimit {
		matched = matched[:RecentLimit]
	}
	return Summary{
		Totals: Aggregate(txs, f),
		Recent: matched,
	}
}

// SortNewestFirst orders by transaction date, then by id, both descending.
func SortNewestFirst(txs []core.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date.Time) {
			return txs[i].Date.After(txs[j].Date)
		}
		return txs[i].ID > txs[j].ID
	})
}
