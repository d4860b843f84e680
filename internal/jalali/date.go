// Package jalali implements Solar Hijri (Jalali) calendar arithmetic and the
// conversion to and from the proleptic Gregorian calendar.
//
// Leap years follow the 33-year arithmetic cycle: a year is leap when
// year mod 33 is one of 1, 5, 9, 13, 17, 22, 26 or 30. The same rule drives
// month lengths, day numbering and weekdays, so every derived value agrees.
package jalali

import (
	"fmt"
	"strconv"
	"strings"
)

// Supported year range. Dates outside it fail with ErrConversionOverflow.
const (
	MinYear = 1
	MaxYear = 3000
)

// Date is an immutable Jalali calendar date.
type Date struct {
	year  int
	month int
	day   int
}

// New validates and builds a Date.
func New(year, month, day int) (Date, error) {
	if year < MinYear || year > MaxYear {
		return Date{}, &DateError{Year: year, Month: month, Day: day, Err: ErrConversionOverflow}
	}
	if month < 1 || month > 12 || day < 1 || day > DaysInMonth(year, month) {
		return Date{}, &DateError{Year: year, Month: month, Day: day, Err: ErrInvalidDate}
	}
	return Date{year: year, month: month, day: day}, nil
}

// MustNew is like New but panics on invalid input. Intended for tests and
// package-level constants.
func MustNew(year, month, day int) Date {
	d, err := New(year, month, day)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) Year() int  { return d.year }
func (d Date) Month() int { return d.month }
func (d Date) Day() int   { return d.day }

// IsZero reports whether d is the zero Date (never a valid calendar date).
func (d Date) IsZero() bool { return d.year == 0 && d.month == 0 && d.day == 0 }

// String formats the date as YYYY/MM/DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d/%02d/%02d", d.year, d.month, d.day)
}

// Compare returns -1, 0 or 1.
func (d Date) Compare(o Date) int {
	switch {
	case d.year != o.year:
		return sign(d.year - o.year)
	case d.month != o.month:
		return sign(d.month - o.month)
	default:
		return sign(d.day - o.day)
	}
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }
func (d Date) Equal(o Date) bool  { return d.Compare(o) == 0 }

// Parse reads a YYYY/MM/DD string (a dash separator is accepted as well).
func Parse(s string) (Date, error) {
	s = strings.TrimSpace(s)
	sep := "/"
	if !strings.Contains(s, sep) {
		sep = "-"
	}
	parts := strings.Split(s, sep)
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("parse %q: %w", s, ErrInvalidDate)
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Date{}, fmt.Errorf("parse %q: %w", s, ErrInvalidDate)
		}
		nums[i] = n
	}
	return New(nums[0], nums[1], nums[2])
}

var monthNames = [12]string{
	"فروردین", "اردیبهشت", "خرداد",
	"تیر", "مرداد", "شهریور",
	"مهر", "آبان", "آذر",
	"دی", "بهمن", "اسفند",
}

var weekdayNames = [7]string{
	"شنبه", "یکشنبه", "دوشنبه", "سه‌شنبه", "چهارشنبه", "پنج‌شنبه", "جمعه",
}

// MonthName returns the Persian name of month m, or "" when out of range.
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return monthNames[m-1]
}

// WeekdayName returns the Persian name for a Saturday-based weekday index.
func WeekdayName(w int) string {
	if w < 0 || w > 6 {
		return ""
	}
	return weekdayNames[w]
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
