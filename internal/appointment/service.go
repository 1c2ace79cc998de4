package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/gym-appointment-scheduling/internal/availability"
	"github.com/hackgods/gym-appointment-scheduling/internal/config"
	redisclient "github.com/hackgods/gym-appointment-scheduling/internal/redis"
)

const (
	EventAppointmentCreated   = "APPOINTMENT_CREATED"
	EventAppointmentConfirmed = "APPOINTMENT_CONFIRMED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
	EventAppointmentCompleted = "APPOINTMENT_COMPLETED"
	EventAppointmentReverted  = "APPOINTMENT_REVERTED"
	EventAppointmentReopened  = "APPOINTMENT_REOPENED"
)

var (
	ErrSlotBeingBooked         = errors.New("trainer schedule is currently being booked, please retry")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrUnknownAction           = errors.New("unknown appointment action")
	ErrTrainerInactive         = errors.New("trainer is not active")
	ErrServiceInactive         = errors.New("service is not active")
)

// bookAttempts bounds the validate-then-commit loop when storage reports an overlap.
const bookAttempts = 2

type Service struct {
	repo   Repository
	locker redisclient.Locker
	engine *availability.Engine
	cfg    config.Config
	logger *zap.Logger
}

func NewService(repo Repository, locker redisclient.Locker, engine *availability.Engine, cfg config.Config, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		engine: engine,
		cfg:    cfg,
		logger: logger,
	}
}

type BookRequest struct {
	MemberID  uuid.UUID
	TrainerID uuid.UUID
	ServiceID uuid.UUID
	Date      time.Time
	Start     availability.TimeOfDay
	Notes     *string
}

// BookAppointment validates a request against the trainer calendar and the
// bookings already stored for that day, then stores it as pending.
// Bookings for one trainer/day are serialized through the locker; the storage
// exclusion constraint remains the final authority.
func (s *Service) BookAppointment(ctx context.Context, req BookRequest) (*Appointment, error) {
	if req.Date.Before(s.engine.Today()) {
		return nil, fmt.Errorf("%w: %s", availability.ErrPastDate, req.Date.Format(time.DateOnly))
	}

	svc, err := s.repo.GetServiceByID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load service: %w", err)
	}
	if !svc.IsActive {
		return nil, ErrServiceInactive
	}

	trainer, err := s.repo.GetTrainerByID(ctx, req.TrainerID)
	if err != nil {
		if errors.Is(err, ErrTrainerNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load trainer: %w", err)
	}
	if !trainer.IsActive {
		return nil, ErrTrainerInactive
	}

	offered, err := s.repo.TrainerOffersService(ctx, trainer.ID, svc.ID)
	if err != nil {
		return nil, fmt.Errorf("check trainer services: %w", err)
	}
	if !offered {
		return nil, availability.ErrServiceNotOffered
	}

	workingDays, unknown := availability.WorkingDaysFromLabel(trainer.WorkingDays)
	if len(unknown) > 0 {
		s.logger.Warn("ignoring unknown weekdays in trainer working days",
			zap.String("trainer_id", trainer.ID.String()),
			zap.String("working_days", trainer.WorkingDays),
			zap.Strings("unknown", unknown),
		)
		// A label that names no recognisable day is not "every day".
		if workingDays.IsEmpty() {
			return nil, fmt.Errorf("%w: trainer %s has no recognisable working days", availability.ErrNotAWorkingDay, trainer.ID)
		}
	}

	var created *Appointment
	for attempt := 1; attempt <= bookAttempts; attempt++ {
		created, err = s.bookOnce(ctx, req, svc, workingDays)
		if !errors.Is(err, ErrOverlap) {
			break
		}
		s.logger.Warn("booking rejected by storage, retrying with fresh snapshot",
			zap.String("trainer_id", req.TrainerID.String()),
			zap.String("date", req.Date.Format(time.DateOnly)),
			zap.Int("attempt", attempt),
		)
	}

	if err != nil {
		switch {
		case errors.Is(err, redisclient.ErrLockNotAcquired):
			return nil, ErrSlotBeingBooked
		case errors.Is(err, ErrOverlap):
			return nil, fmt.Errorf("%w: %v", availability.ErrTimeConflict, err)
		}
		return nil, err
	}

	s.logger.Info("appointment booked",
		zap.String("appointment_id", created.ID.String()),
		zap.String("member_id", created.MemberID.String()),
		zap.String("trainer_id", created.TrainerID.String()),
		zap.String("service", svc.Name),
		zap.String("date", created.Date.Format(time.DateOnly)),
		zap.Stringer("start", created.StartTime),
		zap.Stringer("end", created.EndTime),
	)

	return created, nil
}

func (s *Service) bookOnce(ctx context.Context, req BookRequest, svc *GymService, workingDays availability.WorkingDays) (*Appointment, error) {
	var created *Appointment

	err := s.locker.WithTrainerDayLock(ctx, req.TrainerID, req.Date, func(lockCtx context.Context) error {
		// Inside the critical section take a fresh snapshot of calendar and bookings
		calendar, bookings, err := s.snapshot(lockCtx, req.TrainerID, req.Date)
		if err != nil {
			return err
		}

		decision, err := s.engine.ValidateAppointment(availability.AppointmentRequest{
			TrainerID:       req.TrainerID,
			ServiceID:       req.ServiceID,
			Date:            req.Date,
			Start:           req.Start,
			DurationMinutes: svc.DurationMinutes,
			Calendar:        calendar,
			WorkingDays:     workingDays,
			Bookings:        bookings,
		})
		if err != nil {
			return err
		}

		ev := s.newEvent(EventAppointmentCreated, map[string]any{
			"member_id":  req.MemberID.String(),
			"trainer_id": req.TrainerID.String(),
			"service_id": req.ServiceID.String(),
			"date":       decision.Date.Format(time.DateOnly),
			"start_time": decision.Start.String(),
			"end_time":   decision.End.String(),
			"price":      svc.Price,
		})

		appt, err := s.repo.CreateAppointment(lockCtx, Appointment{
			MemberID:   req.MemberID,
			TrainerID:  req.TrainerID,
			ServiceID:  req.ServiceID,
			Date:       decision.Date,
			StartTime:  decision.Start,
			EndTime:    decision.End,
			Status:     StatusPending,
			TotalPrice: svc.Price,
			Notes:      req.Notes,
		}, ev)
		if err != nil {
			if errors.Is(err, ErrOverlap) {
				return err
			}
			return fmt.Errorf("create appointment: %w", err)
		}

		created = appt
		return nil
	})

	return created, err
}

func (s *Service) snapshot(ctx context.Context, trainerID uuid.UUID, date time.Time) (availability.Calendar, []availability.Booking, error) {
	rows, err := s.repo.ListAvailability(ctx, trainerID)
	if err != nil {
		return nil, nil, fmt.Errorf("load trainer calendar: %w", err)
	}
	calendar := make(availability.Calendar, 0, len(rows))
	for _, row := range rows {
		calendar = append(calendar, row.Window())
	}

	appts, err := s.repo.ListActiveAppointmentsForTrainerDay(ctx, trainerID, date)
	if err != nil {
		return nil, nil, fmt.Errorf("load trainer bookings: %w", err)
	}
	bookings := make([]availability.Booking, 0, len(appts))
	for _, a := range appts {
		bookings = append(bookings, a.Booking())
	}

	return calendar, bookings, nil
}

// AvailableSlots lists the slot candidates of a trainer for one service and date.
func (s *Service) AvailableSlots(ctx context.Context, trainerID, serviceID uuid.UUID, date time.Time) (*DaySlots, error) {
	svc, err := s.repo.GetServiceByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load service: %w", err)
	}

	if _, err := s.repo.GetTrainerByID(ctx, trainerID); err != nil {
		if errors.Is(err, ErrTrainerNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load trainer: %w", err)
	}

	calendar, bookings, err := s.snapshot(ctx, trainerID, date)
	if err != nil {
		return nil, err
	}

	window := calendar.ForDay(date.Weekday())
	seq, err := s.engine.GenerateSlots(window, svc.DurationMinutes, bookings, date, s.cfg.SlotStepMinutes)
	if err != nil {
		return nil, err
	}

	return &DaySlots{
		Date:    date,
		Weekday: date.Weekday(),
		DayOff:  window == nil,
		Slots:   slices.Collect(seq),
	}, nil
}

// AvailableTrainers lists active trainers working on the date's weekday,
// optionally restricted to those offering serviceID.
func (s *Service) AvailableTrainers(ctx context.Context, date time.Time, serviceID *uuid.UUID) ([]TrainerDay, error) {
	trainers, err := s.repo.ListActiveTrainersForWeekday(ctx, date.Weekday(), serviceID)
	if err != nil {
		return nil, fmt.Errorf("list available trainers: %w", err)
	}
	return trainers, nil
}

func (s *Service) TrainerServices(ctx context.Context, trainerID uuid.UUID) ([]GymService, error) {
	if _, err := s.repo.GetTrainerByID(ctx, trainerID); err != nil {
		if errors.Is(err, ErrTrainerNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load trainer: %w", err)
	}

	services, err := s.repo.ListTrainerServices(ctx, trainerID)
	if err != nil {
		return nil, fmt.Errorf("list trainer services: %w", err)
	}
	return services, nil
}

// newEvent builds the outbox row written alongside an appointment change.
// The repository fills in AppointmentID.
func (s *Service) newEvent(eventType string, payload map[string]any) EventLog {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to marshal event payload", zap.String("event_type", eventType), zap.Error(err))
		data = nil
	}

	return EventLog{
		EventType: eventType,
		Payload:   data,
		CreatedAt: time.Now(),
	}
}

// GetAppointment retrieves a fully hydrated appointment by ID
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	detail, err := s.repo.GetAppointmentDetail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return detail, nil
}

// ListAppointmentsByMember retrieves appointments for a specific member, newest first
func (s *Service) ListAppointmentsByMember(ctx context.Context, memberID uuid.UUID, limit, offset int) ([]AppointmentDetail, error) {
	if limit <= 0 {
		limit = 20 // default
	}
	if limit > 100 {
		limit = 100 // max
	}
	if offset < 0 {
		offset = 0
	}

	appointments, err := s.repo.ListAppointmentsByMember(ctx, memberID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list appointments by member: %w", err)
	}
	return appointments, nil
}

// ListAppointmentsByTrainer retrieves every appointment of a trainer on a date
func (s *Service) ListAppointmentsByTrainer(ctx context.Context, trainerID uuid.UUID, date time.Time) ([]Appointment, error) {
	appointments, err := s.repo.ListAppointmentsByTrainer(ctx, trainerID, date)
	if err != nil {
		return nil, fmt.Errorf("list appointments by trainer: %w", err)
	}
	return appointments, nil
}
