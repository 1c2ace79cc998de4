package availability

import (
	"fmt"
	"time"
)

// TimeOfDay is an offset from midnight. Valid values lie in [0, 24h].
type TimeOfDay time.Duration

const (
	Midnight  TimeOfDay = 0
	EndOfDay  TimeOfDay = TimeOfDay(24 * time.Hour)
	timeShort           = "15:04"
	timeLong            = "15:04:05"
)

// MaxMinutes bounds durations and steps so minute arithmetic never overflows.
const MaxMinutes = 24 * 60

// Clock builds a TimeOfDay from an hour and minute.
func Clock(hour, minute int) TimeOfDay {
	return TimeOfDay(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// ParseTimeOfDay accepts "15:04" and "15:04:05".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{timeShort, timeLong} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDayOf(t), nil
		}
	}
	return 0, fmt.Errorf("parse time of day %q: expected HH:MM or HH:MM:SS", s)
}

// TimeOfDayOf returns the wall-clock offset of t in its own location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay(time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond()))
}

func (t TimeOfDay) AddMinutes(minutes int) TimeOfDay {
	return t + TimeOfDay(time.Duration(minutes)*time.Minute)
}

func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t)
}

func (t TimeOfDay) Valid() bool {
	return t >= Midnight && t <= EndOfDay
}

// On places t on the calendar date of day, in loc.
func (t TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc).Add(time.Duration(t))
}

func (t TimeOfDay) String() string {
	d := time.Duration(t)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	return fmt.Sprintf("%02d:%02d", h, m)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	v, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// overlaps reports whether [s1,e1) and [s2,e2) intersect.
func overlaps(s1, e1, s2, e2 TimeOfDay) bool {
	return s1 < e2 && s2 < e1
}
