package http

import (
	"bytes"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/finance"
)

// transactionFromBody reads amount, type, category_id, transaction_date and
// description. A missing date means today.
func (s *Server) transactionFromBody(p *RequestBodyParser) (core.Transaction, error) {
	amount, err := p.Amount("amount")
	if err != nil {
		return core.Transaction{}, err
	}
	typ, err := core.ParseTransactionType(p.Get("type"))
	if err != nil {
		return core.Transaction{}, err
	}
	categoryID, err := p.OptionalID("category_id")
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := p.OptionalDate("transaction_date")
	if err != nil {
		return core.Transaction{}, err
	}
	if date == nil {
		today := core.DateOf(s.now())
		date = &today
	}
	return core.Transaction{
		Amount:      amount,
		Type:        typ,
		CategoryID:  categoryID,
		Date:        *date,
		Description: p.Get("description"),
	}, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query(), s.svc.Reports.Resolve)
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, err := s.svc.Transactions.List(r.Context(), userIDFrom(r.Context()), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(toTransactions(txs)).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p, err := ParseBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.transactionFromBody(p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.svc.Transactions.Create(r.Context(), userIDFrom(r.Context()), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(toTransaction(created)).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.svc.Transactions.Get(r.Context(), userIDFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(toTransaction(t)).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
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
	t, err := s.transactionFromBody(p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t.ID = id
	updated, err := s.svc.Transactions.Update(r.Context(), userIDFrom(r.Context()), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(toTransaction(updated)).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Transactions.Delete(r.Context(), userIDFrom(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleExportTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query(), s.svc.Reports.Resolve)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := s.svc.Transactions.ExportCSV(r.Context(), userIDFrom(r.Context()), f, &buf); err != nil {
		writeError(w, r, err)
		return
	}
	name := "transactions-" + core.DateOf(s.now()).String() + ".csv"
	NewResponse().Attachment(name, "text/csv; charset=utf-8", buf.Bytes()).Write(w)
}

// handleSummary defaults to the current month.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r.URL.Query(), finance.PeriodMonth, s.svc.Reports.Resolve)
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := s.svc.Reports.Summary(r.Context(), userIDFrom(r.Context()), rng)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(toSummary(summary, rng)).Write(w)
}
