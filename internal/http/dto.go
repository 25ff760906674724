package http

import (
	"encoding/json"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/finance"
	"fintrack/internal/services"
)

// Money is rendered as a string with two decimals, percentages with one.

type userJSON struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func toUser(u core.User) userJSON {
	return userJSON{ID: u.ID, Username: u.Username, Email: u.Email, CreatedAt: u.CreatedAt}
}

type sessionJSON struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      userJSON  `json:"user"`
}

type statsJSON struct {
	TransactionCount int    `json:"transaction_count"`
	CategoryCount    int    `json:"category_count"`
	BudgetCount      int    `json:"budget_count"`
	SavingCount      int    `json:"saving_count"`
	CurrentBalance   string `json:"current_balance"`
	TotalSaved       string `json:"total_saved"`
	MonthlyExpenses  string `json:"monthly_expenses"`
}

func toStats(s services.ProfileStats) statsJSON {
	return statsJSON{
		TransactionCount: s.TransactionCount,
		CategoryCount:    s.CategoryCount,
		BudgetCount:      s.BudgetCount,
		SavingCount:      s.SavingCount,
		CurrentBalance:   core.FormatMoney(s.CurrentBalance),
		TotalSaved:       core.FormatMoney(s.TotalSaved),
		MonthlyExpenses:  core.FormatMoney(s.MonthlyExpenses),
	}
}

type transactionJSON struct {
	ID           int64     `json:"id"`
	Amount       string    `json:"amount"`
	Type         string    `json:"type"`
	CategoryID   *int64    `json:"category_id"`
	CategoryName string    `json:"category_name"`
	Date         string    `json:"transaction_date"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
}

func toTransaction(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:           t.ID,
		Amount:       core.FormatMoney(t.Amount),
		Type:         string(t.Type),
		CategoryID:   t.CategoryID,
		CategoryName: finance.CategoryLabel(t),
		Date:         t.Date.String(),
		Description:  t.Description,
		CreatedAt:    t.CreatedAt,
	}
}

func toTransactions(txs []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransaction(t))
	}
	return out
}

type categoryJSON struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func toCategory(c core.Category) categoryJSON {
	return categoryJSON{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
}

type budgetJSON struct {
	ID             int64       `json:"id"`
	Name           string      `json:"name"`
	TotalAmount    string      `json:"total_amount"`
	MonthYear      string      `json:"month_year"`
	MonthLabel     string      `json:"month_label"`
	Spent          string      `json:"spent"`
	Remaining      string      `json:"remaining"`
	PercentageUsed json.Number `json:"percentage_used"`
	OverBudget     bool        `json:"over_budget"`
}

func toBudget(e finance.BudgetEvaluation) budgetJSON {
	return budgetJSON{
		ID:             e.Budget.ID,
		Name:           e.Budget.Name,
		TotalAmount:    core.FormatMoney(e.Budget.TotalAmount),
		MonthYear:      e.Budget.MonthYear.String(),
		MonthLabel:     e.Budget.MonthYear.Label(),
		Spent:          core.FormatMoney(e.Spent),
		Remaining:      core.FormatMoney(e.Remaining),
		PercentageUsed: json.Number(core.FormatPercent(e.PercentageUsed)),
		OverBudget:     e.OverBudget(),
	}
}

func toBudgets(es []finance.BudgetEvaluation) []budgetJSON {
	out := make([]budgetJSON, 0, len(es))
	for _, e := range es {
		out = append(out, toBudget(e))
	}
	return out
}

type savingJSON struct {
	ID                 int64       `json:"id"`
	GoalName           string      `json:"goal_name"`
	GoalAmount         string      `json:"goal_amount"`
	SavedAmount        string      `json:"saved_amount"`
	TargetDate         *string     `json:"target_date"`
	ProgressPercentage json.Number `json:"progress_percentage"`
	RemainingAmount    string      `json:"remaining_amount"`
	DaysUntilTarget    *int        `json:"days_until_target"`
	Status             string      `json:"status"`
	CreatedAt          time.Time   `json:"created_at"`
}

func toSaving(e finance.SavingEvaluation) savingJSON {
	var target *string
	if e.Saving.TargetDate != nil && !e.Saving.TargetDate.IsZero() {
		s := e.Saving.TargetDate.String()
		target = &s
	}
	return savingJSON{
		ID:                 e.Saving.ID,
		GoalName:           e.Saving.GoalName,
		GoalAmount:         core.FormatMoney(e.Saving.GoalAmount),
		SavedAmount:        core.FormatMoney(e.Saving.SavedAmount),
		TargetDate:         target,
		ProgressPercentage: json.Number(core.FormatPercent(e.ProgressPercentage)),
		RemainingAmount:    core.FormatMoney(e.RemainingAmount),
		DaysUntilTarget:    e.DaysUntilTarget,
		Status:             string(e.Status),
		CreatedAt:          e.Saving.CreatedAt,
	}
}

func toSavings(es []finance.SavingEvaluation) []savingJSON {
	out := make([]savingJSON, 0, len(es))
	for _, e := range es {
		out = append(out, toSaving(e))
	}
	return out
}

type savingsSummaryJSON struct {
	TotalGoals        int          `json:"total_goals"`
	CompletedGoals    int          `json:"completed_goals"`
	TotalGoalAmount   string       `json:"total_goal_amount"`
	TotalSavedAmount  string       `json:"total_saved_amount"`
	OverallProgress   json.Number  `json:"overall_progress"`
	UpcomingDeadlines []savingJSON `json:"upcoming_deadlines"`
	RecentGoals       []savingJSON `json:"recent_goals"`
}

func toSavingsSummary(s finance.SavingsSummary) savingsSummaryJSON {
	return savingsSummaryJSON{
		TotalGoals:        s.TotalGoals,
		CompletedGoals:    s.CompletedGoals,
		TotalGoalAmount:   core.FormatMoney(s.TotalGoalAmount),
		TotalSavedAmount:  core.FormatMoney(s.TotalSavedAmount),
		OverallProgress:   json.Number(core.FormatPercent(s.OverallProgress)),
		UpcomingDeadlines: toSavings(s.UpcomingDeadlines),
		RecentGoals:       toSavings(s.RecentGoals),
	}
}

type summaryJSON struct {
	StartDate          *string           `json:"start_date"`
	EndDate            *string           `json:"end_date"`
	TotalIncome        string            `json:"total_income"`
	TotalExpenses      string            `json:"total_expenses"`
	Balance            string            `json:"balance"`
	TransactionCount   int               `json:"transaction_count"`
	ExpensesByCategory map[string]string `json:"expenses_by_category"`
	Recent             []transactionJSON `json:"recent_transactions"`
}

func optionalDate(d core.Date) *string {
	if d.IsZero() {
		return nil
	}
	s := d.String()
	return &s
}

func toSummary(s finance.Summary, r finance.Range) summaryJSON {
	byCategory := make(map[string]string, len(s.ExpensesByCategory))
	for name, amount := range s.ExpensesByCategory {
		byCategory[name] = core.FormatMoney(amount)
	}
	return summaryJSON{
		StartDate:          optionalDate(r.Start),
		EndDate:            optionalDate(r.End),
		TotalIncome:        core.FormatMoney(s.Income),
		TotalExpenses:      core.FormatMoney(s.Expenses),
		Balance:            core.FormatMoney(s.Balance),
		TransactionCount:   s.Count,
		ExpensesByCategory: byCategory,
		Recent:             toTransactions(s.Recent),
	}
}

type monthPointJSON struct {
	Month    string `json:"month"`
	Label    string `json:"label"`
	Income   string `json:"income"`
	Expenses string `json:"expenses"`
}

func toMonthPoints(points []finance.MonthPoint) []monthPointJSON {
	out := make([]monthPointJSON, 0, len(points))
	for _, p := range points {
		out = append(out, monthPointJSON{
			Month:    p.Month.String(),
			Label:    p.Label,
			Income:   core.FormatMoney(p.Income),
			Expenses: core.FormatMoney(p.Expenses),
		})
	}
	return out
}

type trendPointJSON struct {
	Month  string `json:"month"`
	Label  string `json:"label"`
	Amount string `json:"amount"`
}

func toTrendPoints(points []finance.TrendPoint) []trendPointJSON {
	out := make([]trendPointJSON, 0, len(points))
	for _, p := range points {
		out = append(out, trendPointJSON{Month: p.Month.String(), Label: p.Label, Amount: core.FormatMoney(p.Amount)})
	}
	return out
}

type categoryAnalysisJSON struct {
	CategoryID       int64  `json:"category_id"`
	Category         string `json:"category"`
	Expenses         string `json:"expenses"`
	Income           string `json:"income"`
	Net              string `json:"net"`
	TransactionCount int    `json:"transaction_count"`
}

func toCategoryAnalysis(rows []finance.CategoryAnalysis) []categoryAnalysisJSON {
	out := make([]categoryAnalysisJSON, 0, len(rows))
	for _, r := range rows {
		out = append(out, categoryAnalysisJSON{
			CategoryID:       r.CategoryID,
			Category:         r.Category,
			Expenses:         core.FormatMoney(r.Expenses),
			Income:           core.FormatMoney(r.Income),
			Net:              core.FormatMoney(r.Net),
			TransactionCount: r.TransactionCount,
		})
	}
	return out
}
