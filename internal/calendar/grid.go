// Package calendar lays out a Jalali month as a 6x7 grid of day cells.
//
// Rows start on Saturday. Cells before the first day and after the last day
// of the month are disabled placeholders, so a rendered month always has the
// same shape.
package calendar

import (
	"fmt"
	"time"

	"github.com/segyhp/installment-engine/internal/jalali"
)

const (
	Columns = 7
	Rows    = 6
	Size    = Columns * Rows
)

// Cell is one slot of a Grid. Day is 0 and Date is zero for placeholders.
type Cell struct {
	Day     int       `json:"day"`
	Date    time.Time `json:"date"`
	Enabled bool      `json:"enabled"`
}

// Grid is the 42-cell layout of one Jalali month.
type Grid struct {
	Year   int        `json:"year"`
	Month  int        `json:"month"`
	Offset int        `json:"offset"`
	Cells  [Size]Cell `json:"cells"`
}

// Build lays out (year, month). Out-of-range input is rejected, never clamped.
func Build(year, month int) (Grid, error) {
	first, err := jalali.New(year, month, 1)
	if err != nil {
		return Grid{}, fmt.Errorf("build calendar %d/%d: %w", year, month, err)
	}

	g := Grid{
		Year:   year,
		Month:  month,
		Offset: jalali.Weekday(first),
	}

	start, err := jalali.ToGregorian(first)
	if err != nil {
		return Grid{}, fmt.Errorf("build calendar %d/%d: %w", year, month, err)
	}

	n := jalali.DaysInMonth(year, month)
	for day := 1; day <= n; day++ {
		g.Cells[g.Offset+day-1] = Cell{
			Day:     day,
			Date:    start.AddDate(0, 0, day-1),
			Enabled: true,
		}
	}

	return g, nil
}

// EnabledCount returns the number of populated cells.
func (g Grid) EnabledCount() int {
	count := 0
	for _, c := range g.Cells {
		if c.Enabled {
			count++
		}
	}
	return count
}

// Cell returns the cell holding day, or false when day is not in the month.
func (g Grid) Cell(day int) (Cell, bool) {
	if day < 1 || day > jalali.DaysInMonth(g.Year, g.Month) {
		return Cell{}, false
	}
	return g.Cells[g.Offset+day-1], true
}

// Week returns row r (0..5) of the grid.
func (g Grid) Week(r int) []Cell {
	if r < 0 || r >= Rows {
		return nil
	}
	return g.Cells[r*Columns : (r+1)*Columns]
}

// Title renders the month heading, e.g. "خرداد 1402".
func (g Grid) Title() string {
	return fmt.Sprintf("%s %d", jalali.MonthName(g.Month), g.Year)
}
