package http

import (
	"net/http"

	"fintrack/internal/core"
)

// savingFromBody reads goal_name, goal_amount, saved_amount and target_date.
// An absent saved_amount keeps current, which is zero for new goals.
func savingFromBody(p *RequestBodyParser, current core.Saving) (core.Saving, error) {
	goal, err := p.Amount("goal_amount")
	if err != nil {
		return core.Saving{}, err
	}
	saved := current.SavedAmount
	if p.Has("saved_amount") {
		if saved, err = p.OptionalAmount("saved_amount"); err != nil {
			return core.Saving{}, err
		}
	}
	target, err := p.OptionalDate("target_date")
	if err != nil {
		return core.Saving{}, err
	}
	return core.Saving{
		ID:          current.ID,
		GoalName:    p.Get("goal_name"),
		GoalAmount:  goal,
		SavedAmount: saved,
		TargetDate:  target,
	}, nil
}

func (s *Server) handleListSavings(w http.ResponseWriter, r *http.Request) {
	evals, err := s.svc.Savings.List(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(toSavings(evals)).Write(w)
}

func (s *Server) handleSavingsSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.Savings.Summary(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(toSavingsSummary(summary)).Write(w)
}

func (s *Server) handleCreateSaving(w http.ResponseWriter, r *http.Request) {
	p, err := ParseBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	goal, err := savingFromBody(p, core.Saving{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	eval, err := s.svc.Savings.Create(r.Context(), userIDFrom(r.Context()), goal)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(toSaving(eval)).Write(w)
}

func (s *Server) handleGetSaving(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	eval, err := s.svc.Savings.Evaluate(r.Context(), userIDFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(toSaving(eval)).Write(w)
}

func (s *Server) handleUpdateSaving(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID := userIDFrom(r.Context())
	existing, err := s.svc.Savings.Evaluate(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := ParseBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	goal, err := savingFromBody(p, existing.Saving)
	if err != nil {
		writeError(w, r, err)
		return
	}
	eval, err := s.svc.Savings.Update(r.Context(), userID, goal)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(toSaving(eval)).Write(w)
}

func (s *Server) handleDeleteSaving(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Savings.Delete(r.Context(), userIDFrom(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	NoContent().Write(w)
}

// handleAddToSaving rejects with 422, leaving the goal unchanged, when the
// amount would pass the goal.
func (s *Server) handleAddToSaving(w http.ResponseWriter, r *http.Request) {
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
	amount, err := p.Amount("amount")
	if err != nil {
		writeError(w, r, err)
		return
	}
	eval, err := s.svc.Savings.AddMoney(r.Context(), userIDFrom(r.Context()), id, amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(toSaving(eval)).Write(w)
}
