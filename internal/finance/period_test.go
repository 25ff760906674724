package finance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestResolve(t *testing.T) {
	now := time.Date(2024, time.February, 17, 15, 30, 0, 0, time.UTC)

	month := Resolve(PeriodMonth, now)
	assert.Equal(t, core.NewDate(2024, time.February, 1), month.Start)
	assert.Equal(t, core.NewDate(2024, time.February, 29), month.End)

	year := Resolve(PeriodYear, now)
	assert.Equal(t, core.NewDate(2024, time.January, 1), year.Start)
	assert.Equal(t, core.NewDate(2024, time.December, 31), year.End)

	assert.True(t, Resolve(PeriodAll, now).IsUnbounded())
}

func TestRangeContains(t *testing.T) {
	r := MonthRange(core.MonthYear{Year: 2024, Month: time.March})
	cases := []struct {
		d    core.Date
		want bool
	}{
		{core.NewDate(2024, time.March, 1), true},
		{core.NewDate(2024, time.March, 31), true},
		{core.NewDate(2024, time.February, 29), false},
		{core.NewDate(2024, time.April, 1), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, r.Contains(tc.d), tc.d.String())
	}

	assert.True(t, Unbounded().Contains(core.NewDate(1999, time.January, 1)))

	openEnd := Explicit(core.NewDate(2024, time.March, 10), core.Date{})
	assert.True(t, openEnd.Contains(core.NewDate(2030, time.January, 1)))
	assert.False(t, openEnd.Contains(core.NewDate(2024, time.March, 9)))
}

func TestExplicitOutOfOrderMatchesNothing(t *testing.T) {
	r := Explicit(core.NewDate(2024, time.March, 31), core.NewDate(2024, time.March, 1))
	for day := 1; day <= 31; day++ {
		assert.False(t, r.Contains(core.NewDate(2024, time.March, day)))
	}
}

func TestTrailingMonths(t *testing.T) {
	ref := core.MonthYear{Year: 2024, Month: time.February}
	months := TrailingMonths(ref, 4)
	require.Len(t, months, 4)
	assert.Equal(t, []core.MonthYear{
		{Year: 2023, Month: time.November},
		{Year: 2023, Month: time.December},
		{Year: 2024, Month: time.January},
		{Year: 2024, Month: time.February},
	}, months)

	assert.Nil(t, TrailingMonths(ref, 0))
}

func TestParsePeriodKind(t *testing.T) {
	k, err := ParsePeriodKind("")
	require.NoError(t, err)
	assert.Equal(t, PeriodMonth, k)

	k, err = ParsePeriodKind("YEAR")
	require.NoError(t, err)
	assert.Equal(t, PeriodYear, k)

	_, err = ParsePeriodKind("week")
	assert.True(t, core.IsValidation(err))
}
