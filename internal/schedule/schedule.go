// Package schedule turns a financed amount into a list of dated installments.
//
// Rounding policy: every installment is total/count truncated to the currency
// minor unit (Generator.Places). The remainder left by truncation is added to
// the final installment, so the amounts always sum to the total exactly.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/installment-engine/internal/jalali"
)

// ErrInvalidSchedule is returned for a non-positive count, amount or
// interval, or an amount finer than the currency minor unit.
var ErrInvalidSchedule = errors.New("invalid schedule")

// Entry is one scheduled installment.
type Entry struct {
	Sequence int             `json:"sequence"`
	DueDate  time.Time       `json:"due_date"`
	Amount   decimal.Decimal `json:"amount"`
}

type Schedule []Entry

// Total sums the entry amounts.
func (s Schedule) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, e := range s {
		sum = sum.Add(e.Amount)
	}
	return sum
}

// Generator holds the rounding precision. The zero value rounds to whole
// units, which is what Rial amounts use.
type Generator struct {
	Places int32
}

// Generate spreads total over count installments due every intervalDays
// calendar days starting at firstDue.
func (g Generator) Generate(total decimal.Decimal, count int, firstDue time.Time, intervalDays int) (Schedule, error) {
	switch {
	case count < 1:
		return nil, fmt.Errorf("%w: installment count %d must be at least 1", ErrInvalidSchedule, count)
	case !total.IsPositive():
		return nil, fmt.Errorf("%w: amount %s must be positive", ErrInvalidSchedule, total)
	case intervalDays <= 0:
		return nil, fmt.Errorf("%w: interval %d days must be positive", ErrInvalidSchedule, intervalDays)
	case firstDue.IsZero():
		return nil, fmt.Errorf("%w: first due date is required", ErrInvalidSchedule)
	case !total.Equal(total.Truncate(g.Places)):
		return nil, fmt.Errorf("%w: amount %s has more than %d decimal places", ErrInvalidSchedule, total, g.Places)
	}

	n := decimal.NewFromInt(int64(count))
	base, remainder := total.QuoRem(n, g.Places)

	entries := make(Schedule, count)
	for i := range entries {
		entries[i] = Entry{
			Sequence: i + 1,
			DueDate:  firstDue.AddDate(0, 0, i*intervalDays),
			Amount:   base,
		}
	}
	entries[count-1].Amount = base.Add(remainder)

	return entries, nil
}

// Generate uses the default Rial generator.
func Generate(total decimal.Decimal, count int, firstDue time.Time, intervalDays int) (Schedule, error) {
	return Generator{}.Generate(total, count, firstDue, intervalDays)
}

// FirstDue returns the date months Jalali months after start, clamped to the
// end of a shorter month. The time of day of start is dropped.
func FirstDue(start time.Time, months int) (time.Time, error) {
	d, err := jalali.AddMonths(jalali.ToJalali(start), months)
	if err != nil {
		return time.Time{}, err
	}
	return jalali.ToGregorianIn(d, start.Location())
}

// Financed returns principal minus down payment. The result must be positive
// for a schedule to exist.
func Financed(total, downPayment decimal.Decimal) (decimal.Decimal, error) {
	if downPayment.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: down payment %s is negative", ErrInvalidSchedule, downPayment)
	}
	financed := total.Sub(downPayment)
	if !financed.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: nothing left to finance (total %s, down payment %s)", ErrInvalidSchedule, total, downPayment)
	}
	return financed, nil
}
