package jalali

import "time"

const (
	secondsPerDay = 24 * 60 * 60

	// daysPerCycle is the length of one 33-year cycle (33*365 + 8 leap days).
	daysPerCycle = 12053

	// epochUnixDay is the Unix day number of 1 Farvardin 1.
	epochUnixDay = -492268

	// unixEpochWeekday is the Saturday-based weekday of 1970-01-01 (Thursday).
	unixEpochWeekday = 5
)

// leapResidues are the positions of leap years within a 33-year cycle.
var leapResidues = [...]int{1, 5, 9, 13, 17, 22, 26, 30}

// IsLeap reports whether Esfand has 30 days in year.
func IsLeap(year int) bool {
	r := floorMod(year, 33)
	for _, lr := range leapResidues {
		if r == lr {
			return true
		}
	}
	return false
}

// DaysInMonth returns the length of month in year. Months outside 1..12
// return 0.
func DaysInMonth(year, month int) int {
	switch {
	case month >= 1 && month <= 6:
		return 31
	case month >= 7 && month <= 11:
		return 30
	case month == 12:
		if IsLeap(year) {
			return 30
		}
		return 29
	}
	return 0
}

// DaysInYear returns 366 for leap years and 365 otherwise.
func DaysInYear(year int) int {
	if IsLeap(year) {
		return 366
	}
	return 365
}

// ToJalali converts the civil date of t, in t's own location, to a Jalali date.
func ToJalali(t time.Time) Date {
	y, m, d := t.Date()
	unixDay := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
	return fromDayNumber(unixDay - epochUnixDay)
}

// ToGregorian returns midnight UTC of the Gregorian day matching d.
func ToGregorian(d Date) (time.Time, error) {
	if _, err := New(d.year, d.month, d.day); err != nil {
		return time.Time{}, err
	}
	return time.Unix((dayNumber(d)+epochUnixDay)*secondsPerDay, 0).UTC(), nil
}

// ToGregorianIn is like ToGregorian but returns midnight in loc.
func ToGregorianIn(d Date, loc *time.Location) (time.Time, error) {
	t, err := ToGregorian(d)
	if err != nil {
		return time.Time{}, err
	}
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, loc), nil
}

// Format renders the Jalali date of t as YYYY/MM/DD.
func Format(t time.Time) string {
	return ToJalali(t).String()
}

// Today returns the current Jalali date in loc.
func Today(loc *time.Location) Date {
	return ToJalali(time.Now().In(loc))
}

// Weekday returns 0 for Saturday through 6 for Friday.
func Weekday(d Date) int {
	return int(floorMod(dayNumber(d)+epochUnixDay+unixEpochWeekday, 7))
}

// AddDays moves d by n days.
func AddDays(d Date, n int) (Date, error) {
	out := fromDayNumber(dayNumber(d) + int64(n))
	if out.year < MinYear || out.year > MaxYear {
		return Date{}, &DateError{Year: out.year, Month: out.month, Day: out.day, Err: ErrConversionOverflow}
	}
	return out, nil
}

// AddMonths moves d by n months. The year rolls over and the day is clamped
// to the length of the destination month.
func AddMonths(d Date, n int) (Date, error) {
	total := d.year*12 + (d.month - 1) + n
	year := int(floorDiv(int64(total), 12))
	month := total - year*12 + 1
	if year < MinYear || year > MaxYear {
		return Date{}, &DateError{Year: year, Month: month, Day: d.day, Err: ErrConversionOverflow}
	}
	day := d.day
	if last := DaysInMonth(year, month); day > last {
		day = last
	}
	return New(year, month, day)
}

// DaysBetween returns the signed number of days from a to b.
func DaysBetween(a, b Date) int {
	return int(dayNumber(b) - dayNumber(a))
}

// dayNumber counts days since 1 Farvardin 1 (day 0).
func dayNumber(d Date) int64 {
	return daysBeforeYear(d.year) + int64(daysBeforeMonth(d.month)) + int64(d.day-1)
}

func daysBeforeYear(year int) int64 {
	prev := int64(year - 1)
	return 365*prev + leapsUpTo(prev)
}

func daysBeforeMonth(month int) int {
	if month <= 7 {
		return 31 * (month - 1)
	}
	return 186 + 30*(month-7)
}

// leapsUpTo counts leap years in [1, n]. It is consistent for negative n as
// well, which keeps ToJalali total.
func leapsUpTo(n int64) int64 {
	cycles := floorDiv(n, 33)
	r := int(n - cycles*33)
	count := cycles * int64(len(leapResidues))
	for _, lr := range leapResidues {
		if lr <= r {
			count++
		}
	}
	return count
}

func fromDayNumber(n int64) Date {
	cycles := floorDiv(n, daysPerCycle)
	rem := n - cycles*daysPerCycle
	year := int(cycles*33) + 1
	for {
		length := int64(DaysInYear(year))
		if rem < length {
			break
		}
		rem -= length
		year++
	}

	doy := int(rem)
	if doy < 186 {
		return Date{year: year, month: doy/31 + 1, day: doy%31 + 1}
	}
	doy -= 186
	return Date{year: year, month: doy/30 + 7, day: doy%30 + 1}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod[T int | int64](a, b T) T {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
