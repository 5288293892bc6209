package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/autoteile-schmidt/service-portal-api/logger"
	"github.com/autoteile-schmidt/service-portal-api/models"
	"github.com/autoteile-schmidt/service-portal-api/store"
)

var (
	ErrInvalidDate         = errors.New("invalid appointment date")
	ErrDateTaken           = errors.New("appointment date already booked")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// AppointmentService books one appointment per weekday.
type AppointmentService struct {
	repo store.Repository[models.Appointment]
	loc  *time.Location
	log  logger.Logger

	// Now is the clock used for the "in the future" rule.
	Now func() time.Time
}

func NewAppointmentService(repo store.Repository[models.Appointment], loc *time.Location, log logger.Logger) *AppointmentService {
	if loc == nil {
		loc = time.UTC
	}
	return &AppointmentService{repo: repo, loc: loc, log: log, Now: time.Now}
}

// CheckDate accepts YYYY-MM-DD dates after today that fall on Monday to Friday.
func (s *AppointmentService) CheckDate(date string) error {
	day, err := time.ParseInLocation(models.AppointmentDateLayout, date, s.loc)
	if err != nil {
		return ErrInvalidDate
	}
	if !day.After(s.today()) {
		return ErrInvalidDate
	}
	if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return ErrInvalidDate
	}
	return nil
}

// Book stores the appointment. The availability check only saves a write;
// the unique index on date decides concurrent bookings.
func (s *AppointmentService) Book(ctx context.Context, a *models.Appointment) error {
	if err := s.CheckDate(a.Date); err != nil {
		return err
	}

	taken, err := s.repo.Count(ctx, store.Filter{Where: map[string]interface{}{"date": a.Date}})
	if err != nil {
		return err
	}
	if taken > 0 {
		return ErrDateTaken
	}

	a.Confirmed = false
	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			s.log.Info("appointments", "concurrent booking rejected", map[string]interface{}{"date": a.Date})
			return ErrDateTaken
		}
		return err
	}
	s.log.Info("appointments", "appointment booked", map[string]interface{}{"id": a.ID, "date": a.Date})
	return nil
}

// Confirm marks the appointment matching date, name and email as confirmed.
// Name and email compare case-insensitively.
func (s *AppointmentService) Confirm(ctx context.Context, date, name, email string) (*models.Appointment, error) {
	candidates, err := s.repo.List(ctx, store.Filter{Where: map[string]interface{}{"date": date}})
	if err != nil {
		return nil, err
	}

	for _, a := range candidates {
		if !strings.EqualFold(a.Name, name) || !strings.EqualFold(a.Email, email) {
			continue
		}
		if a.Confirmed {
			return &a, nil
		}
		now := s.Now()
		updated, err := s.repo.Update(ctx, a.ID, store.Patch{"confirmed": true, "confirmed_at": now})
		if err != nil {
			return nil, err
		}
		s.log.Info("appointments", "appointment confirmed", map[string]interface{}{"id": a.ID, "date": a.Date})
		return updated, nil
	}
	return nil, ErrAppointmentNotFound
}

// BookedDates lists occupied dates from tomorrow on, ascending.
func (s *AppointmentService) BookedDates(ctx context.Context) ([]string, error) {
	all, err := s.repo.List(ctx, store.Filter{})
	if err != nil {
		return nil, err
	}
	today := s.today().Format(models.AppointmentDateLayout)
	dates := make([]string, 0, len(all))
	for _, a := range all {
		if a.Date > today {
			dates = append(dates, a.Date)
		}
	}
	sort.Strings(dates)
	return dates, nil
}

// List returns every appointment, newest booking first.
func (s *AppointmentService) List(ctx context.Context) ([]models.Appointment, error) {
	return s.repo.List(ctx, store.Filter{})
}

// Cancel deletes the appointment and frees its date.
func (s *AppointmentService) Cancel(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("appointments", "appointment cancelled", map[string]interface{}{"id": id})
	return nil
}

func (s *AppointmentService) today() time.Time {
	now := s.Now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
}
