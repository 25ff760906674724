package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/finance"
	"fintrack/internal/metrics"
)

const (
	DefaultSeriesMonths = 6
	DefaultTrendMonths  = 12
	MaxSeriesMonths     = 36
)

// ReportService builds the dashboard payloads from live transactions.
type ReportService struct {
	transactions TransactionStore
	categories   CategoryStore
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewReportService(transactions TransactionStore, categories CategoryStore, m *metrics.Metrics) *ReportService {
	return &ReportService{
		transactions: transactions,
		categories:   categories,
		metrics:      m,
		now:          time.Now,
	}
}

// Summary returns totals, expenses per category and the most recent
// transactions within r.
func (s *ReportService) Summary(ctx context.Context, userID int64, r finance.Range) (finance.Summary, error) {
	txs, err := s.transactions.ListTransactions(ctx, userID, finance.Filter{Range: r})
	if err != nil {
		return finance.Summary{}, fmt.Errorf("load transactions for summary: %w", err)
	}
	return finance.Summarize(txs, r), nil
}

// MonthlySeries returns income and expenses for the trailing months ending
// with the current one. A month that fails to load is reported as zero.
func (s *ReportService) MonthlySeries(ctx context.Context, userID int64, months int) []finance.MonthPoint {
	return finance.MonthlySeries(ctx, s.loader(userID), core.MonthOf(s.now()), clampMonths(months, DefaultSeriesMonths), s.onError(ctx, userID, "monthly_series"))
}

// SpendingTrend returns expense totals for the trailing months ending with
// the current one.
func (s *ReportService) SpendingTrend(ctx context.Context, userID int64, months int) []finance.TrendPoint {
	return finance.SpendingTrend(ctx, s.loader(userID), core.MonthOf(s.now()), clampMonths(months, DefaultTrendMonths), s.onError(ctx, userID, "spending_trend"))
}

// CategoryAnalysis ranks every category of the user by expenses within r.
func (s *ReportService) CategoryAnalysis(ctx context.Context, userID int64, r finance.Range) ([]finance.CategoryAnalysis, error) {
	cats, err := s.categories.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories for analysis: %w", err)
	}
	txs, err := s.transactions.ListTransactions(ctx, userID, finance.Filter{Range: r})
	if err != nil {
		return nil, fmt.Errorf("load transactions for analysis: %w", err)
	}
	return finance.AnalyzeCategories(cats, txs, r), nil
}

// Resolve exposes the period resolver with the service clock.
func (s *ReportService) Resolve(kind finance.PeriodKind) finance.Range {
	return finance.Resolve(kind, s.now())
}

func (s *ReportService) loader(userID int64) finance.WindowLoader {
	return func(ctx context.Context, r finance.Range) ([]core.Transaction, error) {
		return s.transactions.ListTransactions(ctx, userID, finance.Filter{Range: r})
	}
}

func (s *ReportService) onError(ctx context.Context, userID int64, report string) finance.ErrorHandler {
	return func(m core.MonthYear, err error) {
		s.metrics.ReportFailure(report)
		slog.ErrorContext(ctx, "Report entry degraded to zero",
			"report", report,
			"user_id", userID,
			"month", m.String(),
			"error", err)
	}
}

func clampMonths(n, fallback int) int {
	if n <= 0 {
		return fallback
	}
	if n > MaxSeriesMonths {
		return MaxSeriesMonths
	}
	return n
}
