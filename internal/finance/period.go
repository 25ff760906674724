// Package finance derives budget, savings and report figures from raw
// transactions. Every function is pure: callers load the records and pass
// them in, nothing here touches storage or caches results.
package finance

import (
	"strings"
	"time"

	"fintrack/internal/core"
)

type PeriodKind string

const (
	PeriodMonth  PeriodKind = "month"
	PeriodYear   PeriodKind = "year"
	PeriodAll    PeriodKind = "all"
	PeriodCustom PeriodKind = "custom"
)

// ParsePeriodKind maps a query keyword to a PeriodKind. An empty keyword
// means the current month.
func ParsePeriodKind(s string) (PeriodKind, error) {
	switch k := PeriodKind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return PeriodMonth, nil
	case PeriodMonth, PeriodYear, PeriodAll, PeriodCustom:
		return k, nil
	default:
		return "", core.NewValidationError("period", "Period must be month, year or all")
	}
}

// Range is an inclusive date range. A zero Start or End leaves that side open.
type Range struct {
	Start core.Date
	End   core.Date
}

// Unbounded matches every date.
func Unbounded() Range {
	return Range{}
}

// Resolve turns a period keyword into a date range relative to now.
// Kinds without a calendar meaning resolve to Unbounded.
func Resolve(kind PeriodKind, now time.Time) Range {
	switch kind {
	case PeriodMonth:
		return MonthRange(core.MonthOf(now))
	case PeriodYear:
		return Range{
			Start: core.NewDate(now.Year(), time.January, 1),
			End:   core.NewDate(now.Year(), time.December, 31),
		}
	default:
		return Unbounded()
	}
}

// Explicit uses the caller's bounds verbatim. start after end is allowed and
// simply matches nothing.
func Explicit(start, end core.Date) Range {
	return Range{Start: start, End: end}
}

// MonthRange spans the first through the last day of m.
func MonthRange(m core.MonthYear) Range {
	return Range{Start: m.First(), End: m.Last()}
}

func (r Range) IsUnbounded() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Contains reports whether d falls within r, bounds included.
func (r Range) Contains(d core.Date) bool {
	if !r.Start.IsZero() && d.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && d.After(r.End) {
		return false
	}
	return true
}

// TrailingMonths returns the n months ending with ref, oldest first.
func TrailingMonths(ref core.MonthYear, n int) []core.MonthYear {
	if n <= 0 {
		return nil
	}
	months := make([]core.MonthYear, n)
	for i := 0; i < n; i++ {
		months[i] = ref.AddMonths(i - n + 1)
	}
	return months
}
