package calendar

import (
	"github.com/segyhp/installment-engine/internal/domain"
	"github.com/segyhp/installment-engine/internal/jalali"
)

// Mark summarizes the installments due on one day of a grid.
type Mark struct {
	Day     int                      `json:"day"`
	Status  domain.InstallmentStatus `json:"status"`
	Pending int                      `json:"pending"`
	Overdue int                      `json:"overdue"`
	Paid    int                      `json:"paid"`
	Total   int                      `json:"total"`
}

// Annotate groups installments by the grid day they fall due. Each mark takes
// the most urgent status present: overdue, then pending, then paid. Cancelled
// installments and those outside the month are ignored.
func Annotate(g Grid, installments []*domain.Installment) map[int]*Mark {
	marks := make(map[int]*Mark)

	for _, inst := range installments {
		if inst == nil || inst.DueDate.IsZero() || inst.Status == domain.InstallmentCancelled {
			continue
		}
		d := jalali.ToJalali(inst.DueDate)
		if d.Year() != g.Year || d.Month() != g.Month {
			continue
		}

		m, ok := marks[d.Day()]
		if !ok {
			m = &Mark{Day: d.Day()}
			marks[d.Day()] = m
		}
		switch inst.Status {
		case domain.InstallmentOverdue:
			m.Overdue++
		case domain.InstallmentPending:
			m.Pending++
		case domain.InstallmentPaid:
			m.Paid++
		}
		m.Total++
	}

	for _, m := range marks {
		switch {
		case m.Overdue > 0:
			m.Status = domain.InstallmentOverdue
		case m.Pending > 0:
			m.Status = domain.InstallmentPending
		default:
			m.Status = domain.InstallmentPaid
		}
	}

	return marks
}
