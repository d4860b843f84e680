package jalali

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDate is returned when a month or day is out of range for its year.
	ErrInvalidDate = errors.New("invalid jalali date")

	// ErrConversionOverflow is returned when a year falls outside [MinYear, MaxYear].
	ErrConversionOverflow = errors.New("jalali year out of supported range")
)

// DateError carries the offending components.
type DateError struct {
	Year, Month, Day int
	Err              error
}

func (e *DateError) Error() string {
	return fmt.Sprintf("%v: %04d/%02d/%02d", e.Err, e.Year, e.Month, e.Day)
}

func (e *DateError) Unwrap() error {
	return e.Err
}
