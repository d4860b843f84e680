package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/installment-engine/internal/calendar"
	"github.com/segyhp/installment-engine/internal/domain"
	"github.com/segyhp/installment-engine/internal/jalali"
	"github.com/segyhp/installment-engine/internal/status"
	customError "github.com/segyhp/installment-engine/pkg/errors"
	"github.com/segyhp/installment-engine/pkg/utils"
)

// Overdue views.
const (
	ViewImmediate = "immediate"
	ViewDashboard = "dashboard"
)

var allStatuses = []domain.InstallmentStatus{
	domain.InstallmentPending,
	domain.InstallmentOverdue,
	domain.InstallmentPaid,
	domain.InstallmentCancelled,
}

// Overdue lists overdue installments grouped by policy, most overdue policy
// first. The immediate view uses the grace period; the dashboard view uses
// its own, longer threshold.
func (s *InstallmentService) Overdue(ctx context.Context, view string) (*domain.OverdueResponse, error) {
	var threshold int
	switch view {
	case "", ViewImmediate:
		view, threshold = ViewImmediate, s.cfg.OverdueGraceDays
	case ViewDashboard:
		threshold = s.cfg.DashboardOverdueDays
	default:
		return nil, customError.WrapValidation(fmt.Errorf("unknown overdue view %q", view))
	}

	items, err := s.store.Installments().ListByStatus(ctx, domain.InstallmentPending, domain.InstallmentOverdue)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	now := s.now()
	overdue := status.Overdue(now, items, threshold)

	resp := &domain.OverdueResponse{
		View:          view,
		ThresholdDays: threshold,
		Groups:        []*domain.OverdueGroup{},
		TotalDue:      decimal.Zero,
	}
	if len(overdue) == 0 {
		return resp, nil
	}

	groups := make(map[uuid.UUID]*domain.OverdueGroup)
	var ids []uuid.UUID
	for _, inst := range overdue {
		g, ok := groups[inst.PolicyID]
		if !ok {
			g = &domain.OverdueGroup{PolicyID: inst.PolicyID, TotalDue: decimal.Zero}
			groups[inst.PolicyID] = g
			ids = append(ids, inst.PolicyID)
			resp.Groups = append(resp.Groups, g)
		}

		inst.Status = s.engine.Classify(inst, now)
		days := status.DaysOverdue(inst, now)
		g.Installments = append(g.Installments, &domain.OverdueInstallment{
			Installment:   inst,
			DueDateJalali: jalali.Format(inst.DueDate),
			DaysOverdue:   days,
		})
		g.TotalDue = g.TotalDue.Add(inst.Amount)
		if days > g.MaxDays {
			g.MaxDays = days
		}

		resp.Count++
		resp.TotalDue = resp.TotalDue.Add(inst.Amount)
	}

	policies, err := s.store.Policies().ListByIDs(ctx, ids)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	for _, p := range policies {
		if g, ok := groups[p.ID]; ok {
			g.PolicyNumber = p.PolicyNumber
			g.HolderName = p.HolderName
		}
	}

	sort.SliceStable(resp.Groups, func(i, j int) bool {
		return resp.Groups[i].MaxDays > resp.Groups[j].MaxDays
	})

	return resp, nil
}

// Upcoming lists open installments falling due within the next days days,
// today included, that are not yet overdue. days <= 0 uses the configured
// default.
func (s *InstallmentService) Upcoming(ctx context.Context, days int) ([]*domain.UpcomingInstallment, error) {
	if days <= 0 {
		days = s.cfg.UpcomingDays
	}

	today := s.today()
	items, err := s.store.Installments().ListDueBetween(ctx, today, today.AddDate(0, 0, days+1))
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	now := s.now()
	out := []*domain.UpcomingInstallment{}
	for _, inst := range items {
		if !inst.Status.Open() || s.engine.Classify(inst, now) != domain.InstallmentPending {
			continue
		}
		inst.Status = domain.InstallmentPending
		out = append(out, &domain.UpcomingInstallment{
			Installment:   inst,
			DueDateJalali: jalali.Format(inst.DueDate),
			DaysUntilDue:  utils.CalendarDaysBetween(now, inst.DueDate, time.UTC),
		})
	}
	return out, nil
}

// Statistics counts installments and sums their amounts by derived status.
func (s *InstallmentService) Statistics(ctx context.Context) (*domain.Statistics, error) {
	items, err := s.store.Installments().ListByStatus(ctx, allStatuses...)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	stats := &domain.Statistics{
		PaidAmount:    decimal.Zero,
		PendingAmount: decimal.Zero,
		OverdueAmount: decimal.Zero,
	}

	now := s.now()
	for _, inst := range items {
		stats.Total++
		switch s.engine.Classify(inst, now) {
		case domain.InstallmentPaid:
			stats.Paid++
			stats.PaidAmount = stats.PaidAmount.Add(inst.Amount)
		case domain.InstallmentPending:
			stats.Pending++
			stats.PendingAmount = stats.PendingAmount.Add(inst.Amount)
		case domain.InstallmentOverdue:
			stats.Overdue++
			stats.OverdueAmount = stats.OverdueAmount.Add(inst.Amount)
		case domain.InstallmentCancelled:
			stats.Cancelled++
		}
	}

	stats.ActivePolicies, err = s.store.Policies().CountByStatus(ctx, domain.PolicyStatusActive)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return stats, nil
}

// CalendarMonth is a month grid with the installments due on each day.
type CalendarMonth struct {
	Title string                 `json:"title"`
	Page  calendar.Page          `json:"page"`
	Prev  calendar.Page          `json:"prev"`
	Next  calendar.Page          `json:"next"`
	Grid  calendar.Grid          `json:"grid"`
	Marks map[int]*calendar.Mark `json:"marks"`
}

func (s *InstallmentService) CalendarMonth(ctx context.Context, year, month int) (*CalendarMonth, error) {
	page := calendar.Page{Year: year, Month: month}
	g, err := page.Build()
	if err != nil {
		return nil, wrapError(err)
	}

	from := g.Cells[g.Offset].Date
	to := from.AddDate(0, 0, g.EnabledCount())
	items, err := s.store.Installments().ListDueBetween(ctx, from, to)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.engine.Evaluate(s.now(), items)

	return &CalendarMonth{
		Title: g.Title(),
		Page:  page,
		Prev:  page.Prev(),
		Next:  page.Next(),
		Grid:  g,
		Marks: calendar.Annotate(g, items),
	}, nil
}

// Conversion describes one day in both calendars.
type Conversion struct {
	Gregorian string `json:"gregorian"`
	Jalali    string `json:"jalali"`
	Weekday   string `json:"weekday"`
	MonthName string `json:"month_name"`
	LeapYear  bool   `json:"leap_year"`
}

func (s *InstallmentService) Convert(input string) (*Conversion, error) {
	return ConvertDate(input)
}

// ConvertDate accepts a Gregorian YYYY-MM-DD date or a Jalali YYYY/MM/DD
// date. A dash-separated date is read as Gregorian when its year is 1700 or
// later.
func ConvertDate(input string) (*Conversion, error) {
	input = strings.TrimSpace(input)

	var d jalali.Date
	if t, err := time.Parse("2006-01-02", input); err == nil && t.Year() >= 1700 {
		d = jalali.ToJalali(t)
	} else {
		parsed, err := jalali.Parse(input)
		if err != nil {
			return nil, dateError(input, err)
		}
		d = parsed
	}

	g, err := jalali.ToGregorian(d)
	if err != nil {
		return nil, dateError(input, err)
	}

	return &Conversion{
		Gregorian: g.Format("2006-01-02"),
		Jalali:    d.String(),
		Weekday:   jalali.WeekdayName(jalali.Weekday(d)),
		MonthName: jalali.MonthName(d.Month()),
		LeapYear:  jalali.IsLeap(d.Year()),
	}, nil
}
