// This file implements utilities for parsing request bodies and query
// parameters into domain values.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/finance"
)

const (
	maxBodyBytes          = 1 << 20
	amountTooLargeMessage = "Amount is too large (max 999999999999.99)"
)

// errBadRequest marks malformed input that is not a field-level rejection.
var errBadRequest = errors.New("malformed request")

// RequestBodyParser reads a JSON object or a form-encoded body once and
// serves its fields as trimmed strings.
type RequestBodyParser struct {
	jsonData map[string]any
	formData url.Values
}

// ParseBody reads and decodes the request body. JSON numbers are kept
// exact so amounts are never routed through float64.
func ParseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}

	p := &RequestBodyParser{}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return p, nil
	}

	if trimmed[0] == '{' || strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&p.jsonData); err != nil {
			return nil, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return p, nil
	}

	p.formData, err = url.ParseQuery(string(trimmed))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return p, nil
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	return sanitizeInput(p.formData.Get(key))
}

// Has reports whether key was sent, even with an empty value.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	_, ok := p.formData[key]
	return ok
}

// Raw returns a value without control-character stripping or trimming.
// Passwords are taken verbatim.
func (p *RequestBodyParser) Raw(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return stringValue(val)
		}
		return ""
	}
	return p.formData.Get(key)
}

func (p *RequestBodyParser) Amount(key string) (decimal.Decimal, error) {
	d, err := core.ParseAmount(p.Get(key))
	if errors.Is(err, core.ErrAmountTooLarge) {
		return decimal.Zero, core.NewValidationError(key, amountTooLargeMessage)
	}
	if err != nil {
		return decimal.Zero, core.NewValidationError(key, "Amount must be greater than 0")
	}
	return d, nil
}

// OptionalAmount parses a non-negative amount; an absent value is zero.
func (p *RequestBodyParser) OptionalAmount(key string) (decimal.Decimal, error) {
	d, err := core.ParseNonNegativeAmount(p.Get(key))
	if errors.Is(err, core.ErrAmountTooLarge) {
		return decimal.Zero, core.NewValidationError(key, amountTooLargeMessage)
	}
	if err != nil {
		return decimal.Zero, core.NewValidationError(key, "Amount cannot be negative")
	}
	return d, nil
}

// OptionalDate returns nil for an empty value.
func (p *RequestBodyParser) OptionalDate(key string) (*core.Date, error) {
	v := p.Get(key)
	if v == "" {
		return nil, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return nil, core.NewValidationError(key, "Date must be in YYYY-MM-DD format")
	}
	return &d, nil
}

// OptionalID returns nil for an empty or null value.
func (p *RequestBodyParser) OptionalID(key string) (*int64, error) {
	v := p.Get(key)
	if v == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return nil, core.NewValidationError(key, "Invalid id")
	}
	return &id, nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput drops control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}

// pathID reads a positive integer path value.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.ErrNotFound
	}
	return id, nil
}

// parseRange reads start_date/end_date, either of which may be omitted, or
// else the period keyword. fallback applies when neither is given.
func parseRange(q url.Values, fallback finance.PeriodKind, resolve func(finance.PeriodKind) finance.Range) (finance.Range, error) {
	startRaw, endRaw := strings.TrimSpace(q.Get("start_date")), strings.TrimSpace(q.Get("end_date"))
	if startRaw != "" || endRaw != "" {
		var r finance.Range
		var err error
		if startRaw != "" {
			if r.Start, err = core.ParseDate(startRaw); err != nil {
				return finance.Range{}, core.NewValidationError("start_date", "Date must be in YYYY-MM-DD format")
			}
		}
		if endRaw != "" {
			if r.End, err = core.ParseDate(endRaw); err != nil {
				return finance.Range{}, core.NewValidationError("end_date", "Date must be in YYYY-MM-DD format")
			}
		}
		return r, nil
	}

	if q.Get("period") == "" {
		return resolve(fallback), nil
	}
	kind, err := finance.ParsePeriodKind(q.Get("period"))
	if err != nil {
		return finance.Range{}, err
	}
	return resolve(kind), nil
}

// parseFilter builds a transaction filter from list query parameters.
// Without dates or a period every transaction matches.
func parseFilter(q url.Values, resolve func(finance.PeriodKind) finance.Range) (finance.Filter, error) {
	r, err := parseRange(q, finance.PeriodAll, resolve)
	if err != nil {
		return finance.Filter{}, err
	}
	f := finance.Filter{Range: r}

	if v := strings.TrimSpace(q.Get("type")); v != "" {
		if f.Type, err = core.ParseTransactionType(v); err != nil {
			return finance.Filter{}, err
		}
	}
	if v := strings.TrimSpace(q.Get("category_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return finance.Filter{}, core.NewValidationError("category_id", "Invalid id")
		}
		f.CategoryID = &id
	}
	return f, nil
}

// monthsParam reads ?months=; zero means use the service default.
func monthsParam(q url.Values) int {
	n, err := strconv.Atoi(strings.TrimSpace(q.Get("months")))
	if err != nil {
		return 0
	}
	return n
}
