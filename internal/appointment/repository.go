package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTrainerNotFound     = errors.New("trainer not found")
	ErrServiceNotFound     = errors.New("service not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	// ErrOverlap is returned by the repository when the storage exclusion
	// constraint rejects an overlapping booking.
	ErrOverlap = errors.New("overlapping appointment rejected by storage")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetTrainerByID(ctx context.Context, id uuid.UUID) (*Trainer, error)
	GetServiceByID(ctx context.Context, id uuid.UUID) (*GymService, error)
	TrainerOffersService(ctx context.Context, trainerID, serviceID uuid.UUID) (bool, error)
	ListTrainerServices(ctx context.Context, trainerID uuid.UUID) ([]GymService, error)

	// Calendar snapshot
	ListAvailability(ctx context.Context, trainerID uuid.UUID) ([]Availability, error)
	ListActiveTrainersForWeekday(ctx context.Context, day time.Weekday, serviceID *uuid.UUID) ([]TrainerDay, error)

	// For conflict checks
	ListActiveAppointmentsForTrainerDay(ctx context.Context, trainerID uuid.UUID, date time.Time) ([]Appointment, error)

	// Reads
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error)
	ListAppointmentsByMember(ctx context.Context, memberID uuid.UUID, limit, offset int) ([]AppointmentDetail, error)
	ListAppointmentsByTrainer(ctx context.Context, trainerID uuid.UUID, date time.Time) ([]Appointment, error)

	// Creation and updates. The event is written to the outbox in the same
	// transaction as the appointment row, with AppointmentID filled in.
	CreateAppointment(ctx context.Context, appt Appointment, ev EventLog) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus, ev EventLog) (*Appointment, error)

	// Sweeper
	FindStale(ctx context.Context, status AppointmentStatus, now time.Time) ([]Appointment, error)
}
