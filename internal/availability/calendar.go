package availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// WorkingWindow is one row of a trainer's weekly calendar.
type WorkingWindow struct {
	Weekday   time.Weekday
	Start     TimeOfDay
	End       TimeOfDay
	Available bool
}

// Contains reports whether [start,end) lies fully inside the window.
func (w WorkingWindow) Contains(start, end TimeOfDay) bool {
	return w.Start <= start && w.End >= end
}

func (w WorkingWindow) Validate() error {
	if !w.Start.Valid() || !w.End.Valid() {
		return fmt.Errorf("%w: window %s-%s out of range", ErrInvalidParameters, w.Start, w.End)
	}
	if w.Available && w.Start >= w.End {
		return fmt.Errorf("%w: window on %s starts at %s but ends at %s", ErrInvalidParameters, w.Weekday, w.Start, w.End)
	}
	return nil
}

// Calendar holds all working windows of a single trainer.
type Calendar []WorkingWindow

// ForDay returns the first available window for the weekday, or nil on a day off.
func (c Calendar) ForDay(day time.Weekday) *WorkingWindow {
	for i := range c {
		if c[i].Weekday == day && c[i].Available {
			w := c[i]
			return &w
		}
	}
	return nil
}

// Covers reports whether any available window on day contains [start,end).
func (c Calendar) Covers(day time.Weekday, start, end TimeOfDay) bool {
	for _, w := range c {
		if w.Weekday == day && w.Available && w.Contains(start, end) {
			return true
		}
	}
	return false
}

// WorkingDays is the coarse weekday filter kept on the trainer profile.
// The zero value places no restriction.
type WorkingDays uint8

func NewWorkingDays(days ...time.Weekday) WorkingDays {
	var wd WorkingDays
	for _, d := range days {
		wd |= 1 << uint(d)
	}
	return wd
}

// ParseWorkingDays parses a comma separated label such as "Monday,Wednesday,Fri".
// Empty tokens are skipped; unknown tokens are an error.
func ParseWorkingDays(label string) (WorkingDays, error) {
	wd, unknown := WorkingDaysFromLabel(label)
	if len(unknown) > 0 {
		return 0, fmt.Errorf("parse working days %q: unknown weekday %q", label, unknown[0])
	}
	return wd, nil
}

// WorkingDaysFromLabel is the lenient form of ParseWorkingDays used on stored
// labels: recognised days are kept and unknown tokens are returned to the caller.
func WorkingDaysFromLabel(label string) (WorkingDays, []string) {
	var (
		wd      WorkingDays
		unknown []string
	)
	for _, tok := range strings.Split(label, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		d, ok := parseWeekday(tok)
		if !ok {
			unknown = append(unknown, tok)
			continue
		}
		wd |= 1 << uint(d)
	}
	return wd, unknown
}

func (wd WorkingDays) IsEmpty() bool {
	return wd == 0
}

func (wd WorkingDays) Has(day time.Weekday) bool {
	return wd&(1<<uint(day)) != 0
}

func (wd WorkingDays) Days() []time.Weekday {
	var days []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if wd.Has(d) {
			days = append(days, d)
		}
	}
	return days
}

func (wd WorkingDays) String() string {
	days := wd.Days()
	names := make([]string, 0, len(days))
	for _, d := range days {
		names = append(names, d.String())
	}
	return strings.Join(names, ",")
}

// parseWeekday accepts full names, short names and digits (0 = Sunday, 7 = Sunday).
func parseWeekday(s string) (time.Weekday, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		switch {
		case n >= 0 && n <= 6:
			return time.Weekday(n), true
		case n == 7:
			return time.Sunday, true
		}
		return 0, false
	}

	switch s {
	case "sun", "sunday":
		return time.Sunday, true
	case "mon", "monday":
		return time.Monday, true
	case "tue", "tues", "tuesday":
		return time.Tuesday, true
	case "wed", "wednesday":
		return time.Wednesday, true
	case "thu", "thur", "thursday":
		return time.Thursday, true
	case "fri", "friday":
		return time.Friday, true
	case "sat", "saturday":
		return time.Saturday, true
	default:
		return 0, false
	}
}
