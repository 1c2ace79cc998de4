package availability

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
)

// 2026-03-10 is a Tuesday.
var testNow = time.Date(2026, 3, 10, 11, 10, 0, 0, time.UTC)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(
		WithClock(func() time.Time { return testNow }),
		WithLocation(time.UTC),
	)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestValidateAppointment_HalfOpenBoundary(t *testing.T) {
	e := newTestEngine(t)
	date := day(2026, 3, 12)

	dec, err := e.ValidateAppointment(AppointmentRequest{
		Date:            date,
		Start:           Clock(10, 0),
		DurationMinutes: 30,
		Bookings: []Booking{
			{Date: date, Start: Clock(9, 0), End: Clock(10, 0), Status: BookingConfirmed},
		},
	})
	if err != nil {
		t.Fatalf("expected accepted, got %v", err)
	}
	if dec.End != Clock(10, 30) {
		t.Fatalf("expected end 10:30, got %s", dec.End)
	}
	if dec.Weekday != time.Thursday {
		t.Fatalf("expected Thursday, got %s", dec.Weekday)
	}
}

func TestValidateAppointment_Conflict(t *testing.T) {
	e := newTestEngine(t)
	date := day(2026, 3, 12)

	_, err := e.ValidateAppointment(AppointmentRequest{
		Date:            date,
		Start:           Clock(9, 30),
		DurationMinutes: 30,
		Bookings: []Booking{
			{Date: date, Start: Clock(9, 0), End: Clock(10, 0), Status: BookingPending},
		},
	})
	if !errors.Is(err, ErrTimeConflict) {
		t.Fatalf("expected ErrTimeConflict, got %v", err)
	}
}

func TestValidateAppointment_ConflictWhenRequestEnclosesBooking(t *testing.T) {
	e := newTestEngine(t)
	date := day(2026, 3, 12)

	_, err := e.ValidateAppointment(AppointmentRequest{
		Date:            date,
		Start:           Clock(8, 0),
		DurationMinutes: 180,
		Bookings: []Booking{
			{Start: Clock(9, 0), End: Clock(9, 30), Status: BookingConfirmed},
		},
	})
	if !errors.Is(err, ErrTimeConflict) {
		t.Fatalf("expected ErrTimeConflict, got %v", err)
	}
}

func TestValidateAppointment_IgnoresCancelledAndForeignBookings(t *testing.T) {
	e := newTestEngine(t)
	date := day(2026, 3, 12)
	trainer := uuid.New()

	_, err := e.ValidateAppointment(AppointmentRequest{
		TrainerID:       trainer,
		Date:            date,
		Start:           Clock(9, 0),
		DurationMinutes: 60,
		Bookings: []Booking{
			{TrainerID: trainer, Date: date, Start: Clock(9, 0), End: Clock(10, 0), Status: BookingCancelled},
			{TrainerID: uuid.New(), Date: date, Start: Clock(9, 0), End: Clock(10, 0), Status: BookingConfirmed},
			{TrainerID: trainer, Date: date.AddDate(0, 0, 1), Start: Clock(9, 0), End: Clock(10, 0), Status: BookingConfirmed},
		},
	})
	if err != nil {
		t.Fatalf("expected accepted, got %v", err)
	}
}

func TestValidateAppointment_OutsideWorkingHours(t *testing.T) {
	e := newTestEngine(t)
	// 2026-03-17 is a Tuesday.
	cal := Calendar{{Weekday: time.Tuesday, Start: Clock(8, 0), End: Clock(16, 0), Available: true}}

	_, err := e.ValidateAppointment(AppointmentRequest{
		Date:            day(2026, 3, 17),
		Start:           Clock(16, 0),
		DurationMinutes: 30,
		Calendar:        cal,
	})
	if !errors.Is(err, ErrOutsideWorkingHours) {
		t.Fatalf("expected ErrOutsideWorkingHours, got %v", err)
	}

	_, err = e.ValidateAppointment(AppointmentRequest{
		Date:            day(2026, 3, 17),
		Start:           Clock(15, 30),
		DurationMinutes: 30,
		Calendar:        cal,
	})
	if err != nil {
		t.Fatalf("slot ending at window end should be accepted, got %v", err)
	}
}

func TestValidateAppointment_CalendarCoverage(t *testing.T) {
	e := newTestEngine(t)
	date := day(2026, 3, 17) // Tuesday

	cases := []struct {
		name string
		cal  Calendar
		want error
	}{
		{name: "empty calendar is permissive", cal: nil, want: nil},
		{
			name: "only other days populated",
			cal:  Calendar{{Weekday: time.Monday, Start: Clock(8, 0), End: Clock(16, 0), Available: true}},
			want: ErrOutsideWorkingHours,
		},
		{
			name: "covering entry marked unavailable",
			cal:  Calendar{{Weekday: time.Tuesday, Start: Clock(8, 0), End: Clock(16, 0), Available: false}},
			want: ErrOutsideWorkingHours,
		},
		{
			name: "second entry covers",
			cal: Calendar{
				{Weekday: time.Tuesday, Start: Clock(8, 0), End: Clock(10, 0), Available: true},
				{Weekday: time.Tuesday, Start: Clock(12, 0), End: Clock(18, 0), Available: true},
			},
			want: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.ValidateAppointment(AppointmentRequest{
				Date:            date,
				Start:           Clock(13, 0),
				DurationMinutes: 60,
				Calendar:        tc.cal,
			})
			if tc.want == nil && err != nil {
				t.Fatalf("expected accepted, got %v", err)
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestValidateAppointment_PastDateWins(t *testing.T) {
	e := newTestEngine(t)
	yesterday := day(2026, 3, 9)

	_, err := e.ValidateAppointment(AppointmentRequest{
		Date:            yesterday,
		Start:           Clock(23, 0),
		DurationMinutes: -5,
		WorkingDays:     NewWorkingDays(time.Sunday),
		Bookings:        []Booking{{Start: Clock(0, 0), End: EndOfDay, Status: BookingConfirmed}},
	})
	if !errors.Is(err, ErrPastDate) {
		t.Fatalf("expected ErrPastDate, got %v", err)
	}
}

func TestValidateAppointment_TodayIsNotPast(t *testing.T) {
	e := newTestEngine(t)

	if _, err := e.ValidateAppointment(AppointmentRequest{
		Date:            time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC),
		Start:           Clock(18, 0),
		DurationMinutes: 60,
	}); err != nil {
		t.Fatalf("expected accepted, got %v", err)
	}
}

func TestValidateAppointment_WorkingDaysCheckedBeforeConflicts(t *testing.T) {
	e := newTestEngine(t)
	date := day(2026, 3, 17) // Tuesday

	_, err := e.ValidateAppointment(AppointmentRequest{
		Date:            date,
		Start:           Clock(9, 0),
		DurationMinutes: 60,
		WorkingDays:     NewWorkingDays(time.Monday, time.Wednesday),
		Bookings:        []Booking{{Start: Clock(9, 0), End: Clock(10, 0), Status: BookingPending}},
	})
	if !errors.Is(err, ErrNotAWorkingDay) {
		t.Fatalf("expected ErrNotAWorkingDay, got %v", err)
	}
}

func TestValidateAppointment_ConflictCheckedBeforeWorkingHours(t *testing.T) {
	e := newTestEngine(t)
	date := day(2026, 3, 17)

	_, err := e.ValidateAppointment(AppointmentRequest{
		Date:            date,
		Start:           Clock(20, 0),
		DurationMinutes: 60,
		Calendar:        Calendar{{Weekday: time.Tuesday, Start: Clock(8, 0), End: Clock(16, 0), Available: true}},
		Bookings:        []Booking{{Start: Clock(20, 30), End: Clock(21, 0), Status: BookingPending}},
	})
	if !errors.Is(err, ErrTimeConflict) {
		t.Fatalf("expected ErrTimeConflict, got %v", err)
	}
}

func TestValidateAppointment_InvalidParameters(t *testing.T) {
	e := newTestEngine(t)
	date := day(2026, 3, 17)

	for _, tc := range []struct {
		name     string
		start    TimeOfDay
		duration int
	}{
		{name: "zero duration", start: Clock(9, 0), duration: 0},
		{name: "negative duration", start: Clock(9, 0), duration: -30},
		{name: "past midnight", start: Clock(23, 30), duration: 45},
		{name: "longer than a day", start: Clock(0, 0), duration: MaxMinutes + 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.ValidateAppointment(AppointmentRequest{Date: date, Start: tc.start, DurationMinutes: tc.duration})
			if !errors.Is(err, ErrInvalidParameters) {
				t.Fatalf("expected ErrInvalidParameters, got %v", err)
			}
		})
	}
}

// A duration large enough to wrap minute arithmetic must not slip past the
// end-of-day, conflict or coverage checks.
func TestValidateAppointment_HugeDurationRejected(t *testing.T) {
	e := newTestEngine(t)
	date := day(2026, 3, 17)
	huge := int(math.MaxInt64/int64(time.Minute)) + 1

	_, err := e.ValidateAppointment(AppointmentRequest{
		Date:            date,
		Start:           Clock(10, 0),
		DurationMinutes: huge,
		Calendar:        Calendar{{Weekday: time.Tuesday, Start: Clock(8, 0), End: Clock(16, 0), Available: true}},
		Bookings:        []Booking{{Date: date, Start: Clock(10, 0), End: Clock(11, 0), Status: BookingConfirmed}},
	})
	if !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters, got %v", err)
	}
}

// Accepting requests one by one and feeding each accepted booking back in
// must never produce two overlapping bookings.
func TestValidateAppointment_AcceptedBookingsNeverOverlap(t *testing.T) {
	e := newTestEngine(t)
	date := day(2026, 3, 17)
	cal := Calendar{{Weekday: time.Tuesday, Start: Clock(8, 0), End: Clock(18, 0), Available: true}}

	var accepted []Booking
	for start := Clock(7, 0); start < Clock(19, 0); start = start.AddMinutes(15) {
		for _, dur := range []int{30, 45, 60} {
			dec, err := e.ValidateAppointment(AppointmentRequest{
				Date:            date,
				Start:           start,
				DurationMinutes: dur,
				Calendar:        cal,
				Bookings:        accepted,
			})
			if err != nil {
				continue
			}
			if !cal.Covers(time.Tuesday, dec.Start, dec.End) {
				t.Fatalf("accepted %s-%s outside the calendar", dec.Start, dec.End)
			}
			accepted = append(accepted, Booking{Date: date, Start: dec.Start, End: dec.End, Status: BookingPending})
		}
	}

	if len(accepted) == 0 {
		t.Fatal("expected some accepted bookings")
	}
	for i := range accepted {
		for j := i + 1; j < len(accepted); j++ {
			a, b := accepted[i], accepted[j]
			if !(a.End <= b.Start || b.End <= a.Start) {
				t.Fatalf("bookings overlap: %s-%s and %s-%s", a.Start, a.End, b.Start, b.End)
			}
		}
	}
}

func TestReasonCode(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.ValidateAppointment(AppointmentRequest{Date: day(2020, 1, 1), Start: Clock(9, 0), DurationMinutes: 30})
	if got := ReasonCode(err); got != "past_date" {
		t.Fatalf("expected past_date, got %q", got)
	}
	if got := ReasonCode(errors.New("boom")); got != "" {
		t.Fatalf("expected empty code, got %q", got)
	}
}
