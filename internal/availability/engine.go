package availability

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// Booking is an existing appointment as seen by the conflict check.
// A zero TrainerID or Date matches any trainer or date.
type Booking struct {
	TrainerID uuid.UUID
	Date      time.Time
	Start     TimeOfDay
	End       TimeOfDay
	Status    BookingStatus
}

func (b Booking) blocks(trainerID uuid.UUID, date time.Time) bool {
	if b.Status == BookingCancelled {
		return false
	}
	if b.TrainerID != uuid.Nil && trainerID != uuid.Nil && b.TrainerID != trainerID {
		return false
	}
	if !b.Date.IsZero() && !date.IsZero() && !civilDate(b.Date).Equal(civilDate(date)) {
		return false
	}
	return true
}

type AppointmentRequest struct {
	TrainerID       uuid.UUID
	ServiceID       uuid.UUID
	Date            time.Time
	Start           TimeOfDay
	DurationMinutes int
	Calendar        Calendar
	WorkingDays     WorkingDays
	Bookings        []Booking
}

// Decision is the accepted form of a request.
type Decision struct {
	Date    time.Time
	Weekday time.Weekday
	Start   TimeOfDay
	End     TimeOfDay
}

// Engine answers "is this appointment valid?" and "which slots are free?".
// It reads the clock but never mutates anything.
type Engine struct {
	now func() time.Time
	loc *time.Location
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		now: time.Now,
		loc: time.Local,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Location() *time.Location {
	return e.loc
}

// Now is the engine clock reading in the engine location.
func (e *Engine) Now() time.Time {
	return e.now().In(e.loc)
}

// Today returns the current calendar date in the engine location.
func (e *Engine) Today() time.Time {
	return civilDate(e.now().In(e.loc))
}

func (e *Engine) nowTimeOfDay() TimeOfDay {
	return TimeOfDayOf(e.now().In(e.loc))
}

// ValidateAppointment runs the admission checks in a fixed order and reports
// the first failure only. Persisting the accepted booking is the caller's job.
func (e *Engine) ValidateAppointment(req AppointmentRequest) (Decision, error) {
	date := civilDate(req.Date)
	if date.Before(e.Today()) {
		return Decision{}, fmt.Errorf("%w: %s", ErrPastDate, date.Format(time.DateOnly))
	}

	if req.DurationMinutes <= 0 {
		return Decision{}, fmt.Errorf("%w: duration must be positive, got %d", ErrInvalidParameters, req.DurationMinutes)
	}
	if req.DurationMinutes > MaxMinutes {
		return Decision{}, fmt.Errorf("%w: duration %d exceeds a day", ErrInvalidParameters, req.DurationMinutes)
	}
	if !req.Start.Valid() {
		return Decision{}, fmt.Errorf("%w: start %s out of range", ErrInvalidParameters, req.Start)
	}
	end := req.Start.AddMinutes(req.DurationMinutes)
	if end > EndOfDay {
		return Decision{}, fmt.Errorf("%w: %s plus %d minutes runs past midnight", ErrInvalidParameters, req.Start, req.DurationMinutes)
	}

	weekday := date.Weekday()
	if !req.WorkingDays.IsEmpty() && !req.WorkingDays.Has(weekday) {
		return Decision{}, fmt.Errorf("%w: %s", ErrNotAWorkingDay, weekday)
	}

	for _, b := range req.Bookings {
		if !b.blocks(req.TrainerID, date) {
			continue
		}
		if overlaps(req.Start, end, b.Start, b.End) {
			return Decision{}, fmt.Errorf("%w: %s-%s overlaps %s-%s", ErrTimeConflict, req.Start, end, b.Start, b.End)
		}
	}

	// An unpopulated calendar is permissive; once any row exists the day must be covered.
	if len(req.Calendar) > 0 && !req.Calendar.Covers(weekday, req.Start, end) {
		return Decision{}, fmt.Errorf("%w: %s %s-%s", ErrOutsideWorkingHours, weekday, req.Start, end)
	}

	return Decision{
		Date:    date,
		Weekday: weekday,
		Start:   req.Start,
		End:     end,
	}, nil
}

// civilDate strips the clock and zone, keeping the calendar date as written.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
