package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout      = "2006-01-02"
	MonthYearLayout = "2006-01"
)

// Date is a calendar date stored as UTC midnight.
type Date struct {
	time.Time
}

// MonthYear identifies a calendar month, serialized as "YYYY-MM".
type MonthYear struct {
	Year  int
	Month time.Month
}

// NewDate creates a new Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the clock part of t, keeping the calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysUntil returns the whole number of calendar days from d to other,
// negative when other lies in the past.
func (d Date) DaysUntil(other Date) int {
	return int(other.Sub(d.Time).Hours() / 24)
}

func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool  { return d.Time.After(other.Time) }

// MonthYear returns the calendar month containing d.
func (d Date) MonthYear() MonthYear {
	return MonthYear{Year: d.Year(), Month: d.Month()}
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) MonthYear {
	return MonthYear{Year: t.Year(), Month: t.Month()}
}

// ParseMonthYear parses a "YYYY-MM" token.
func ParseMonthYear(s string) (MonthYear, error) {
	t, err := time.Parse(MonthYearLayout, strings.TrimSpace(s))
	if err != nil {
		return MonthYear{}, ErrInvalidMonthYear
	}
	return MonthYear{Year: t.Year(), Month: t.Month()}, nil
}

func (m MonthYear) String() string {
	if m.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m MonthYear) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// First returns the first calendar day of the month.
func (m MonthYear) First() Date {
	return NewDate(m.Year, m.Month, 1)
}

// Last returns the last calendar day of the month.
func (m MonthYear) Last() Date {
	return NewDate(m.Year, m.Month+1, 0)
}

// AddMonths moves n months forward (or back when n is negative).
func (m MonthYear) AddMonths(n int) MonthYear {
	return MonthOf(m.First().Time.AddDate(0, n, 0))
}

// Compare returns -1, 0 or +1 ordering m against o chronologically.
func (m MonthYear) Compare(o MonthYear) int {
	switch {
	case m.Year < o.Year, m.Year == o.Year && m.Month < o.Month:
		return -1
	case m == o:
		return 0
	default:
		return 1
	}
}

// Label renders the short chart label, e.g. "Feb 24".
func (m MonthYear) Label() string {
	return m.First().Format("Jan 06")
}
