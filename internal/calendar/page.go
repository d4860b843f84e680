package calendar

import (
	"fmt"
	"time"

	"github.com/segyhp/installment-engine/internal/jalali"
)

// Page identifies a displayed month and moves one month at a time.
type Page struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// PageOf returns the page containing the civil date of t.
func PageOf(t time.Time) Page {
	d := jalali.ToJalali(t)
	return Page{Year: d.Year(), Month: d.Month()}
}

// Next moves forward one month, rolling Esfand into Farvardin of the next year.
func (p Page) Next() Page {
	if p.Month == 12 {
		return Page{Year: p.Year + 1, Month: 1}
	}
	return Page{Year: p.Year, Month: p.Month + 1}
}

// Prev moves back one month, rolling Farvardin into Esfand of the previous year.
func (p Page) Prev() Page {
	if p.Month == 1 {
		return Page{Year: p.Year - 1, Month: 12}
	}
	return Page{Year: p.Year, Month: p.Month - 1}
}

func (p Page) Build() (Grid, error) {
	return Build(p.Year, p.Month)
}

func (p Page) String() string {
	return fmt.Sprintf("%04d/%02d", p.Year, p.Month)
}
