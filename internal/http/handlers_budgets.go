package http

import (
	"net/http"

	"fintrack/internal/core"
)

// budgetFromBody reads name, total_amount and month_year (YYYY-MM).
func budgetFromBody(p *RequestBodyParser) (core.Budget, error) {
	total, err := p.Amount("total_amount")
	if err != nil {
		return core.Budget{}, err
	}
	var month core.MonthYear
	if v := p.Get("month_year"); v != "" {
		if month, err = core.ParseMonthYear(v); err != nil {
			return core.Budget{}, core.NewValidationError("month_year", "Month must be in YYYY-MM format")
		}
	}
	return core.Budget{
		Name:        p.Get("name"),
		TotalAmount: total,
		MonthYear:   month,
	}, nil
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	evals, err := s.svc.Budgets.List(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(toBudgets(evals)).Write(w)
}

func (s *Server) handleBudgetOverview(w http.ResponseWriter, r *http.Request) {
	evals, err := s.svc.Budgets.Overview(r.Context(), userIDFrom(r.Context()), core.MonthOf(s.now()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(toBudgets(evals)).Write(w)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	p, err := ParseBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := budgetFromBody(p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	eval, err := s.svc.Budgets.Create(r.Context(), userIDFrom(r.Context()), b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(toBudget(eval)).Write(w)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	eval, err := s.svc.Budgets.Evaluate(r.Context(), userIDFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(toBudget(eval)).Write(w)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := ParseBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := budgetFromBody(p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b.ID = id
	eval, err := s.svc.Budgets.Update(r.Context(), userIDFrom(r.Context()), b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(toBudget(eval)).Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Budgets.Delete(r.Context(), userIDFrom(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	NoContent().Write(w)
}
