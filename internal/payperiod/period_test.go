package payperiod

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestParse_Boundaries(t *testing.T) {
	p, err := Parse("01/06/24")
	require.NoError(t, err)

	assert.Equal(t, date(2024, 1, 6, 0, 0), p.StartOfWeek1)
	assert.Equal(t, date(2024, 1, 12, 23, 59), p.EndOfWeek1)
	assert.Equal(t, date(2024, 1, 13, 0, 0), p.StartOfWeek2)
	assert.Equal(t, date(2024, 1, 19, 23, 59), p.EndOfWeek2)
	assert.True(t, p.EndOfWeek1.Before(p.StartOfWeek2))
	assert.Equal(t, time.Saturday, p.StartOfWeek1.Weekday())
	assert.Equal(t, "01/06/24", p.Start())

	short, err := Parse("1/6/24")
	require.NoError(t, err)
	assert.Equal(t, p, short)
}

func TestParse_BadDates(t *testing.T) {
	for _, in := range []string{"", "2024-01-06", "13/01/24", "02/30/24", "01/06/2024", "ab/cd/ef"} {
		_, err := Parse(in)
		require.Error(t, err, in)
		var dfe *DateFormatError
		assert.True(t, errors.As(err, &dfe), in)
		assert.Equal(t, in, dfe.Input)
	}
}

func TestWithinPeriod_Inclusive(t *testing.T) {
	p, err := Parse("01/06/24")
	require.NoError(t, err)

	assert.True(t, p.WithinPeriod(p.StartOfWeek1))
	assert.True(t, p.WithinPeriod(p.EndOfWeek2))
	assert.False(t, p.WithinPeriod(p.StartOfWeek1.Add(-time.Second)))
	assert.False(t, p.WithinPeriod(p.EndOfWeek2.Add(time.Second)))
}

func TestWithinFirstWeek_Strict(t *testing.T) {
	p, err := Parse("01/06/24")
	require.NoError(t, err)

	assert.False(t, p.WithinFirstWeek(p.StartOfWeek1))
	assert.False(t, p.WithinFirstWeek(p.EndOfWeek1))
	assert.True(t, p.WithinFirstWeek(p.StartOfWeek1.Add(time.Second)))
	assert.True(t, p.WithinFirstWeek(p.EndOfWeek1.Add(-time.Second)))
}

func TestWeek(t *testing.T) {
	p, err := Parse("01/06/24")
	require.NoError(t, err)

	assert.Equal(t, 1, p.Week(date(2024, 1, 8, 9, 0)))
	assert.Equal(t, 2, p.Week(p.StartOfWeek1), "start instant fails the strict first-week test")
	assert.Equal(t, 2, p.Week(p.EndOfWeek1))
	assert.Equal(t, 2, p.Week(date(2024, 1, 15, 9, 0)))
	assert.Equal(t, 0, p.Week(date(2024, 1, 20, 0, 0)))
	assert.Equal(t, 0, p.Week(date(2024, 1, 5, 23, 0)))
}

func TestParseInLocation(t *testing.T) {
	denver, err := time.LoadLocation("America/Denver")
	if err != nil {
		t.Skipf("no zoneinfo: %v", err)
	}
	p, err := ParseInLocation("01/06/24", denver)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 1, 6, 7, 0), p.StartOfWeek1.UTC())
}

func TestParseInLocation_DaylightSaving(t *testing.T) {
	denver, err := time.LoadLocation("America/Denver")
	if err != nil {
		t.Skipf("no zoneinfo: %v", err)
	}
	local := func(d, hh, mm int) time.Time {
		return time.Date(2024, time.March, d, hh, mm, 0, 0, denver)
	}

	// Clocks spring forward on 03/10/24.
	p, err := ParseInLocation("03/09/24", denver)
	require.NoError(t, err)
	assert.True(t, local(15, 23, 59).Equal(p.EndOfWeek1), p.EndOfWeek1.String())
	assert.True(t, local(16, 0, 0).Equal(p.StartOfWeek2), p.StartOfWeek2.String())
	assert.True(t, local(22, 23, 59).Equal(p.EndOfWeek2), p.EndOfWeek2.String())
	assert.True(t, p.EndOfWeek2.Before(p.Next().StartOfWeek1), "periods must not overlap")
	assert.Equal(t, 2, p.Week(local(16, 0, 30)))
	assert.Equal(t, 0, p.Week(local(23, 0, 30)))

	// And fall back on 11/03/24.
	fall, err := ParseInLocation("10/26/24", denver)
	require.NoError(t, err)
	assert.Equal(t, 0, fall.StartOfWeek2.Hour())
	assert.Equal(t, 23, fall.EndOfWeek2.Hour())
	assert.True(t, fall.EndOfWeek2.Before(fall.Next().StartOfWeek1))
}

func TestPreviousNext(t *testing.T) {
	p, _ := Parse("01/20/24")
	assert.Equal(t, "01/06/24", p.Previous().Start())
	assert.Equal(t, "02/03/24", p.Next().Start())
}

func TestCurrent(t *testing.T) {
	anchor, _ := Parse("01/06/24")

	tests := []struct {
		now  time.Time
		want string
	}{
		{date(2024, 1, 6, 0, 0), "01/06/24"},
		{date(2024, 1, 19, 23, 59), "01/06/24"},
		{date(2024, 1, 20, 0, 0), "01/20/24"},
		{date(2024, 3, 1, 12, 0), "02/17/24"},
		{date(2024, 1, 5, 12, 0), "12/23/23"},
		{date(2023, 12, 23, 0, 0), "12/23/23"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Current(anchor, tt.now).Start(), tt.now.String())
	}
}
