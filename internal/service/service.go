package service

import (
	"errors"
	"time"

	"github.com/segyhp/installment-engine/internal/config"
	"github.com/segyhp/installment-engine/internal/jalali"
	"github.com/segyhp/installment-engine/internal/lock"
	"github.com/segyhp/installment-engine/internal/logger"
	"github.com/segyhp/installment-engine/internal/notify"
	"github.com/segyhp/installment-engine/internal/repository"
	"github.com/segyhp/installment-engine/internal/schedule"
	"github.com/segyhp/installment-engine/internal/status"
	customError "github.com/segyhp/installment-engine/pkg/errors"
	"github.com/segyhp/installment-engine/pkg/utils"
)

// InstallmentService runs the policy, payment, status and reminder use cases.
//
// Dates are stored as civil dates at midnight UTC. The service reads the
// wall clock in the business timezone and relabels it as UTC, so comparisons
// against stored dates happen on the civil calendar of that timezone.
type InstallmentService struct {
	store     repository.Store
	locker    lock.Locker
	notifier  notify.Notifier
	engine    *status.Engine
	generator schedule.Generator
	cfg       config.BusinessConfig
	loc       *time.Location
	clock     func() time.Time
	log       *logger.Logger
}

func NewInstallmentService(
	store repository.Store,
	locker lock.Locker,
	notifier notify.Notifier,
	cfg *config.Config,
	log *logger.Logger,
) *InstallmentService {
	if log == nil {
		log = logger.NewNop()
	}
	return &InstallmentService{
		store:     store,
		locker:    locker,
		notifier:  notifier,
		engine:    status.NewEngine(cfg.Business.OverdueGraceDays, log),
		generator: schedule.Generator{Places: cfg.Business.CurrencyPlaces},
		cfg:       cfg.Business,
		loc:       cfg.Location(),
		clock:     time.Now,
		log:       log.WithComponent("service"),
	}
}

// now is the current wall-clock time in the business timezone, labelled UTC.
func (s *InstallmentService) now() time.Time {
	t := s.clock().In(s.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func (s *InstallmentService) today() time.Time {
	return utils.StartOfDay(s.now())
}

// parseJalali reads a YYYY/MM/DD Jalali date as a stored civil date.
func parseJalali(value string) (time.Time, error) {
	d, err := jalali.Parse(value)
	if err != nil {
		return time.Time{}, dateError(value, err)
	}
	t, err := jalali.ToGregorian(d)
	if err != nil {
		return time.Time{}, dateError(value, err)
	}
	return t, nil
}

func dateError(value string, err error) error {
	if errors.Is(err, jalali.ErrConversionOverflow) {
		return customError.WrapConversionOverflow(err)
	}
	return customError.WrapInvalidDate(value, err)
}

// wrapError gives err a business code. Errors that already carry one pass
// through unchanged.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var be *customError.BusinessError
	switch {
	case errors.As(err, &be):
		return err
	case errors.Is(err, jalali.ErrConversionOverflow):
		return customError.WrapConversionOverflow(err)
	case errors.Is(err, jalali.ErrInvalidDate):
		return customError.WrapInvalidDate("", err)
	case errors.Is(err, schedule.ErrInvalidSchedule):
		return customError.WrapInvalidSchedule(err)
	case errors.Is(err, status.ErrInvalidTransition), errors.Is(err, status.ErrAlreadyDelivered):
		return customError.WrapInvalidTransition(err)
	case errors.Is(err, lock.ErrNotAcquired):
		return customError.WrapLockError("", err)
	default:
		return customError.WrapDatabaseError(err)
	}
}
