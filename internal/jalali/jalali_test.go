package jalali

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gdate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestToJalali(t *testing.T) {
	tests := []struct {
		name     string
		in       time.Time
		expected string
	}{
		{"spring 2023", gdate(2023, time.June, 6), "1402/03/16"},
		{"nowruz 1402", gdate(2023, time.March, 21), "1402/01/01"},
		{"nowruz 1403", gdate(2024, time.March, 20), "1403/01/01"},
		{"nowruz 1404", gdate(2025, time.March, 21), "1404/01/01"},
		{"leap day 1403", gdate(2025, time.March, 20), "1403/12/30"},
		{"leap day 1399", gdate(2021, time.March, 20), "1399/12/30"},
		{"bahman 1357", gdate(1979, time.February, 11), "1357/11/22"},
		{"unix epoch", gdate(1970, time.January, 1), "1348/10/11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToJalali(tt.in).String())
		})
	}
}

func TestToJalali_UsesCivilDateOfLocation(t *testing.T) {
	tehran := time.FixedZone("IRST", 3*3600+1800)
	// 22:00 UTC on June 5 is already June 6 in Tehran.
	instant := time.Date(2023, time.June, 5, 22, 0, 0, 0, time.UTC).In(tehran)
	assert.Equal(t, "1402/03/16", Format(instant))
}

func TestToGregorian(t *testing.T) {
	g, err := ToGregorian(MustNew(1402, 3, 16))
	require.NoError(t, err)
	assert.Equal(t, gdate(2023, time.June, 6), g)

	_, err = ToGregorian(Date{year: 1402, month: 12, day: 30})
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = ToGregorian(Date{year: 1402, month: 13, day: 1})
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = ToGregorian(Date{year: MaxYear + 1, month: 1, day: 1})
	assert.ErrorIs(t, err, ErrConversionOverflow)
}

func TestToGregorianIn(t *testing.T) {
	loc := time.FixedZone("IRST", 3*3600+1800)
	g, err := ToGregorianIn(MustNew(1404, 1, 1), loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 21, 0, 0, 0, 0, loc), g)
}

func TestRoundTrip(t *testing.T) {
	start := gdate(1800, time.January, 1)
	end := gdate(2300, time.December, 31)
	prev := ToJalali(start)

	for g := start; !g.After(end); g = g.AddDate(0, 0, 1) {
		j := ToJalali(g)
		back, err := ToGregorian(j)
		require.NoError(t, err, "date %s", g)
		require.True(t, back.Equal(g), "round trip %s -> %s -> %s", g, j, back)

		if g.After(start) {
			next, err := AddDays(prev, 1)
			require.NoError(t, err)
			require.True(t, next.Equal(j), "consecutive day %s after %s", j, prev)
		}
		prev = j
	}
}

func TestIsLeap(t *testing.T) {
	leap := []int{1375, 1379, 1383, 1387, 1391, 1395, 1399, 1403, 1408, 1412}
	common := []int{1400, 1401, 1402, 1404, 1405, 1406, 1407, 1409}

	for _, y := range leap {
		assert.True(t, IsLeap(y), "year %d", y)
	}
	for _, y := range common {
		assert.False(t, IsLeap(y), "year %d", y)
	}
}

func TestLeapConsistency(t *testing.T) {
	for y := MinYear; y <= MaxYear; y++ {
		require.Equal(t, IsLeap(y), DaysInMonth(y, 12) == 30, "year %d", y)
	}
}

func TestLeapCycleHasEightLeapYears(t *testing.T) {
	for start := 1; start < 400; start += 33 {
		count := 0
		for y := start; y < start+33; y++ {
			if IsLeap(y) {
				count++
			}
		}
		assert.Equal(t, 8, count, "cycle starting %d", start)
	}
}

func TestDaysInMonth(t *testing.T) {
	for m := 1; m <= 6; m++ {
		assert.Equal(t, 31, DaysInMonth(1402, m))
	}
	for m := 7; m <= 11; m++ {
		assert.Equal(t, 30, DaysInMonth(1402, m))
	}
	assert.Equal(t, 29, DaysInMonth(1402, 12))
	assert.Equal(t, 30, DaysInMonth(1403, 12))
	assert.Equal(t, 0, DaysInMonth(1403, 13))
}

func TestWeekday(t *testing.T) {
	// 2023-06-06 was a Tuesday; Saturday is 0.
	assert.Equal(t, 3, Weekday(MustNew(1402, 3, 16)))
	// 2025-03-21 was a Friday.
	assert.Equal(t, 6, Weekday(MustNew(1404, 1, 1)))
	// 2024-03-23 was a Saturday.
	assert.Equal(t, 0, Weekday(MustNew(1403, 1, 4)))
}

func TestWeekdayMatchesGregorian(t *testing.T) {
	for g := gdate(2020, time.January, 1); g.Year() < 2030; g = g.AddDate(0, 0, 1) {
		want := (int(g.Weekday()) + 1) % 7
		require.Equal(t, want, Weekday(ToJalali(g)), "date %s", g)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		y, m, d int
		wantErr error
	}{
		{"valid", 1402, 3, 16, nil},
		{"esfand 30 leap", 1403, 12, 30, nil},
		{"esfand 30 common", 1402, 12, 30, ErrInvalidDate},
		{"mehr 31", 1402, 7, 31, ErrInvalidDate},
		{"month zero", 1402, 0, 1, ErrInvalidDate},
		{"month 13", 1402, 13, 1, ErrInvalidDate},
		{"day zero", 1402, 1, 0, ErrInvalidDate},
		{"year zero", 0, 1, 1, ErrConversionOverflow},
		{"year too large", MaxYear + 1, 1, 1, ErrConversionOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New(tt.y, tt.m, tt.d)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				var de *DateError
				assert.True(t, errors.As(err, &de))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.y, d.Year())
			assert.Equal(t, tt.m, d.Month())
			assert.Equal(t, tt.d, d.Day())
		})
	}
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name     string
		from     Date
		n        int
		expected string
	}{
		{"simple", MustNew(1402, 3, 16), 1, "1402/04/16"},
		{"31 into 30 day month clamps", MustNew(1402, 6, 31), 1, "1402/07/30"},
		{"year rollover", MustNew(1402, 12, 15), 1, "1403/01/15"},
		{"backwards across year", MustNew(1403, 1, 31), -1, "1402/12/29"},
		{"into leap esfand", MustNew(1403, 11, 30), 1, "1403/12/30"},
		{"31 into common esfand", MustNew(1402, 1, 31), 11, "1402/12/29"},
		{"many years", MustNew(1402, 5, 10), 60, "1407/05/10"},
		{"zero", MustNew(1402, 5, 10), 0, "1402/05/10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AddMonths(tt.from, tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got.String())
		})
	}

	_, err := AddMonths(MustNew(MaxYear, 12, 1), 1)
	assert.ErrorIs(t, err, ErrConversionOverflow)
}

func TestAddDays(t *testing.T) {
	got, err := AddDays(MustNew(1402, 12, 29), 1)
	require.NoError(t, err)
	assert.Equal(t, "1403/01/01", got.String())

	got, err = AddDays(MustNew(1403, 12, 29), 1)
	require.NoError(t, err)
	assert.Equal(t, "1403/12/30", got.String())

	got, err = AddDays(MustNew(1403, 1, 1), -1)
	require.NoError(t, err)
	assert.Equal(t, "1402/12/29", got.String())

	_, err = AddDays(MustNew(MinYear, 1, 1), -1)
	assert.ErrorIs(t, err, ErrConversionOverflow)
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 366, DaysBetween(MustNew(1403, 1, 1), MustNew(1404, 1, 1)))
	assert.Equal(t, -365, DaysBetween(MustNew(1403, 1, 1), MustNew(1402, 1, 1)))
}

func TestParse(t *testing.T) {
	d, err := Parse("1402/03/16")
	require.NoError(t, err)
	assert.True(t, d.Equal(MustNew(1402, 3, 16)))

	d, err = Parse(" 1402-3-6 ")
	require.NoError(t, err)
	assert.Equal(t, "1402/03/06", d.String())

	for _, bad := range []string{"", "1402/03", "1402/xx/01", "1402/12/30"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, bad)
	}
}

func TestCompare(t *testing.T) {
	a := MustNew(1402, 3, 16)
	b := MustNew(1402, 4, 1)
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Equal(t, 0, a.Compare(MustNew(1402, 3, 16)))
}

func TestNames(t *testing.T) {
	assert.Equal(t, "فروردین", MonthName(1))
	assert.Equal(t, "اسفند", MonthName(12))
	assert.Equal(t, "", MonthName(13))
	assert.Equal(t, "شنبه", WeekdayName(0))
	assert.Equal(t, "جمعه", WeekdayName(6))
	assert.Equal(t, "", WeekdayName(7))
}
