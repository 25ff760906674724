package http

import (
	"net/http"

	"fintrack/internal/finance"
)

func (s *Server) handleMonthlyChart(w http.ResponseWriter, r *http.Request) {
	points := s.svc.Reports.MonthlySeries(r.Context(), userIDFrom(r.Context()), monthsParam(r.URL.Query()))
	NewResponse().JSON(toMonthPoints(points)).Write(w)
}

func (s *Server) handleTrendChart(w http.ResponseWriter, r *http.Request) {
	points := s.svc.Reports.SpendingTrend(r.Context(), userIDFrom(r.Context()), monthsParam(r.URL.Query()))
	NewResponse().JSON(toTrendPoints(points)).Write(w)
}

func (s *Server) handleCategoryAnalysis(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r.URL.Query(), finance.PeriodMonth, s.svc.Reports.Resolve)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := s.svc.Reports.CategoryAnalysis(r.Context(), userIDFrom(r.Context()), rng)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(toCategoryAnalysis(rows)).Write(w)
}
