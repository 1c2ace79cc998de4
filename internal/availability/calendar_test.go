package availability

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseWorkingDays(t *testing.T) {
	wd, err := ParseWorkingDays("Monday, wed,FRI,,6")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, d := range []time.Weekday{time.Monday, time.Wednesday, time.Friday, time.Saturday} {
		if !wd.Has(d) {
			t.Fatalf("expected %s to be a working day", d)
		}
	}
	if wd.Has(time.Sunday) || wd.Has(time.Tuesday) {
		t.Fatal("unexpected working day")
	}
	if got := wd.String(); got != "Monday,Wednesday,Friday,Saturday" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestParseWorkingDays_EmptyAndInvalid(t *testing.T) {
	wd, err := ParseWorkingDays(" , ")
	if err != nil || !wd.IsEmpty() {
		t.Fatalf("expected empty set, got %v (%v)", wd, err)
	}
	if _, err := ParseWorkingDays("Monday,Funday"); err == nil {
		t.Fatal("expected error for unknown weekday")
	}
}

func TestWorkingDaysFromLabel(t *testing.T) {
	wd, unknown := WorkingDaysFromLabel("Monday, Wednesday,Pazartesi,,Funday")
	if !wd.Has(time.Monday) || !wd.Has(time.Wednesday) || wd.Has(time.Thursday) {
		t.Fatalf("unexpected working days %s", wd)
	}
	if len(unknown) != 2 || unknown[0] != "Pazartesi" || unknown[1] != "Funday" {
		t.Fatalf("unexpected unknown tokens %v", unknown)
	}

	wd, unknown = WorkingDaysFromLabel("Monday,Friday")
	if len(unknown) != 0 || wd.String() != "Monday,Friday" {
		t.Fatalf("expected clean parse, got %s %v", wd, unknown)
	}
}

func TestCalendarForDay(t *testing.T) {
	cal := Calendar{
		{Weekday: time.Monday, Start: Clock(6, 0), End: Clock(9, 0), Available: false},
		{Weekday: time.Monday, Start: Clock(10, 0), End: Clock(14, 0), Available: true},
		{Weekday: time.Monday, Start: Clock(15, 0), End: Clock(18, 0), Available: true},
	}
	w := cal.ForDay(time.Monday)
	if w == nil || w.Start != Clock(10, 0) {
		t.Fatalf("expected first available Monday window, got %+v", w)
	}
	if cal.ForDay(time.Sunday) != nil {
		t.Fatal("expected nil window on a day off")
	}
}

func TestWorkingWindowValidate(t *testing.T) {
	bad := WorkingWindow{Weekday: time.Friday, Start: Clock(16, 0), End: Clock(8, 0), Available: true}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters, got %v", err)
	}
	off := WorkingWindow{Weekday: time.Friday, Available: false}
	if err := off.Validate(); err != nil {
		t.Fatalf("unavailable window should validate, got %v", err)
	}
}

func TestTimeOfDayParseAndFormat(t *testing.T) {
	for in, want := range map[string]TimeOfDay{
		"08:00":    Clock(8, 0),
		"16:45:00": Clock(16, 45),
		"00:05":    Clock(0, 5),
	} {
		got, err := ParseTimeOfDay(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("parse %q: expected %s, got %s", in, want, got)
		}
	}
	if _, err := ParseTimeOfDay("25:00"); err == nil {
		t.Fatal("expected error for 25:00")
	}
	if EndOfDay.String() != "24:00" {
		t.Fatalf("unexpected end of day %s", EndOfDay)
	}

	b, err := json.Marshal(SlotCandidate{Start: Clock(9, 0), End: Clock(9, 30), Available: true})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"start":"09:00","end":"09:30","is_available":true}` {
		t.Fatalf("unexpected json %s", b)
	}
}
