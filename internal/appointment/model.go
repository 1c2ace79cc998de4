package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/gym-appointment-scheduling/internal/availability"
)

type AppointmentStatus = availability.BookingStatus

const (
	StatusPending   = availability.BookingPending
	StatusConfirmed = availability.BookingConfirmed
	StatusCancelled = availability.BookingCancelled
	StatusCompleted = availability.BookingCompleted
)

type Trainer struct {
	ID          uuid.UUID
	GymID       uuid.UUID
	FirstName   string
	LastName    string
	WorkingDays string // comma separated weekday label, may be empty
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (t Trainer) FullName() string {
	return t.FirstName + " " + t.LastName
}

// GymService is a bookable service offered by a gym, e.g. a personal training session.
type GymService struct {
	ID              uuid.UUID
	GymID           uuid.UUID
	Name            string
	Category        *string
	DurationMinutes int
	Price           string // numeric(10,2) rendered as text
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Availability is one stored row of a trainer's weekly calendar.
type Availability struct {
	ID          uuid.UUID
	TrainerID   uuid.UUID
	DayOfWeek   time.Weekday
	StartTime   availability.TimeOfDay
	EndTime     availability.TimeOfDay
	IsAvailable bool
}

func (a Availability) Window() availability.WorkingWindow {
	return availability.WorkingWindow{
		Weekday:   a.DayOfWeek,
		Start:     a.StartTime,
		End:       a.EndTime,
		Available: a.IsAvailable,
	}
}

type Appointment struct {
	ID         uuid.UUID
	MemberID   uuid.UUID
	TrainerID  uuid.UUID
	ServiceID  uuid.UUID
	Date       time.Time
	StartTime  availability.TimeOfDay
	EndTime    availability.TimeOfDay
	Status     AppointmentStatus
	TotalPrice string
	Notes      *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (a Appointment) Booking() availability.Booking {
	return availability.Booking{
		TrainerID: a.TrainerID,
		Date:      a.Date,
		Start:     a.StartTime,
		End:       a.EndTime,
		Status:    a.Status,
	}
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

type AppointmentDetail struct {
	Appointment
	Trainer *Trainer
	Service *GymService
}

// TrainerDay is a trainer working on a given weekday together with that day's window.
type TrainerDay struct {
	Trainer  Trainer
	Window   availability.WorkingWindow
	Services []GymService
}

// DaySlots is the slot listing for one trainer, service and date.
type DaySlots struct {
	Date    time.Time
	Weekday time.Weekday
	DayOff  bool
	Slots   []availability.SlotCandidate
}
