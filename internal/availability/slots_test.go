package availability

import (
	"errors"
	"math"
	"slices"
	"testing"
	"time"
)

func TestGenerateSlots_RemainderNotOffered(t *testing.T) {
	e := newTestEngine(t)
	w := &WorkingWindow{Weekday: time.Thursday, Start: Clock(8, 0), End: Clock(9, 0), Available: true}

	seq, err := e.GenerateSlots(w, 45, nil, day(2026, 3, 12), DefaultStepMinutes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	slots := slices.Collect(seq)
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if slots[0].Start != Clock(8, 0) || slots[0].End != Clock(8, 45) {
		t.Fatalf("expected 08:00-08:45, got %s-%s", slots[0].Start, slots[0].End)
	}
	if !slots[0].Available {
		t.Fatal("expected slot to be available")
	}
}

func TestGenerateSlots_MarksBookedSlots(t *testing.T) {
	e := newTestEngine(t)
	date := day(2026, 3, 12)
	w := &WorkingWindow{Weekday: time.Thursday, Start: Clock(9, 0), End: Clock(11, 0), Available: true}
	bookings := []Booking{
		{Date: date, Start: Clock(9, 30), End: Clock(10, 0), Status: BookingConfirmed},
		{Date: date, Start: Clock(10, 0), End: Clock(11, 0), Status: BookingCancelled},
	}

	seq, err := e.GenerateSlots(w, 60, bookings, date, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := slices.Collect(seq)
	want := []SlotCandidate{
		{Start: Clock(9, 0), End: Clock(10, 0), Available: false},
		{Start: Clock(9, 30), End: Clock(10, 30), Available: false},
		{Start: Clock(10, 0), End: Clock(11, 0), Available: true},
	}
	if !slices.Equal(got, want) {
		t.Fatalf("unexpected slots:\n got  %v\n want %v", got, want)
	}
}

func TestGenerateSlots_PastSlotsTodayFlagged(t *testing.T) {
	e := newTestEngine(t) // now is 11:10 on 2026-03-10
	w := &WorkingWindow{Weekday: time.Tuesday, Start: Clock(10, 0), End: Clock(13, 0), Available: true}

	seq, err := e.GenerateSlots(w, 30, nil, day(2026, 3, 10), 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	slots := slices.Collect(seq)
	if len(slots) != 6 {
		t.Fatalf("expected 6 slots, got %d", len(slots))
	}
	for _, s := range slots {
		wantAvailable := s.Start >= Clock(11, 10)
		if s.Available != wantAvailable {
			t.Fatalf("slot %s: expected available=%v", s.Start, wantAvailable)
		}
	}
}

func TestGenerateSlots_FutureDayIgnoresClock(t *testing.T) {
	e := newTestEngine(t)
	w := &WorkingWindow{Weekday: time.Wednesday, Start: Clock(6, 0), End: Clock(8, 0), Available: true}

	seq, err := e.GenerateSlots(w, 60, nil, day(2026, 3, 11), 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for s := range seq {
		if !s.Available {
			t.Fatalf("slot %s should be available on a future day", s.Start)
		}
	}
}

func TestGenerateSlots_DayOff(t *testing.T) {
	e := newTestEngine(t)

	seq, err := e.GenerateSlots(nil, 60, nil, day(2026, 3, 12), 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(slices.Collect(seq)); n != 0 {
		t.Fatalf("expected no slots, got %d", n)
	}
}

func TestGenerateSlots_InvalidParameters(t *testing.T) {
	e := newTestEngine(t)
	w := &WorkingWindow{Start: Clock(8, 0), End: Clock(9, 0), Available: true}

	if _, err := e.GenerateSlots(w, 0, nil, day(2026, 3, 12), 30); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters for zero duration, got %v", err)
	}
	if _, err := e.GenerateSlots(w, 30, nil, day(2026, 3, 12), -1); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters for negative step, got %v", err)
	}
	if _, err := e.GenerateSlots(w, MaxMinutes+1, nil, day(2026, 3, 12), 30); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters for duration over a day, got %v", err)
	}
	if _, err := e.GenerateSlots(w, 30, nil, day(2026, 3, 12), MaxMinutes+1); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters for step over a day, got %v", err)
	}
}

// A step large enough to wrap minute arithmetic would otherwise loop forever.
func TestGenerateSlots_HugeStepRejected(t *testing.T) {
	e := newTestEngine(t)
	w := &WorkingWindow{Start: Clock(8, 0), End: Clock(9, 0), Available: true}
	huge := int(math.MaxInt64/int64(time.Minute)) + 1

	if _, err := e.GenerateSlots(w, 30, nil, day(2026, 3, 12), huge); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters, got %v", err)
	}
	if _, err := e.GenerateSlots(w, huge, nil, day(2026, 3, 12), 30); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters, got %v", err)
	}
}

// Past-slot flags come from the clock reading taken when the sequence was
// built, so ranging twice gives the same answer even if time moves on.
func TestGenerateSlots_ClockReadOnce(t *testing.T) {
	clock := testNow
	e := NewEngine(
		WithClock(func() time.Time {
			now := clock
			clock = clock.Add(30 * time.Minute)
			return now
		}),
		WithLocation(time.UTC),
	)
	date := day(2026, 3, 10)
	w := &WorkingWindow{Weekday: time.Tuesday, Start: Clock(8, 0), End: Clock(16, 0), Available: true}

	seq, err := e.GenerateSlots(w, 30, nil, date, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if !slices.Equal(first, second) {
		t.Fatalf("expected identical sequences, got %v and %v", first, second)
	}
	if first[0].Available || !first[len(first)-1].Available {
		t.Fatalf("expected morning slots taken and afternoon slots free, got %v", first)
	}
}

func TestGenerateSlots_Restartable(t *testing.T) {
	e := newTestEngine(t)
	date := day(2026, 3, 12)
	w := &WorkingWindow{Weekday: time.Thursday, Start: Clock(7, 0), End: Clock(21, 0), Available: true}
	bookings := []Booking{{Date: date, Start: Clock(12, 0), End: Clock(13, 30), Status: BookingPending}}

	seq, err := e.GenerateSlots(w, 50, bookings, date, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if len(first) == 0 || !slices.Equal(first, second) {
		t.Fatalf("expected identical non-empty sequences, got %d and %d slots", len(first), len(second))
	}

	again, _ := e.GenerateSlots(w, 50, bookings, date, 20)
	if !slices.Equal(first, slices.Collect(again)) {
		t.Fatal("expected identical output from a second call")
	}
}

func TestGenerateSlots_StopsWhenConsumerStops(t *testing.T) {
	e := newTestEngine(t)
	w := &WorkingWindow{Start: Clock(0, 0), End: EndOfDay, Available: true}

	seq, err := e.GenerateSlots(w, 30, nil, day(2026, 3, 12), 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n := 0
	for range seq {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Fatalf("expected to stop after 3 slots, got %d", n)
	}
}
