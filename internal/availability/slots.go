package availability

import (
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
)

const DefaultStepMinutes = 30

type SlotCandidate struct {
	Start     TimeOfDay `json:"start"`
	End       TimeOfDay `json:"end"`
	Available bool      `json:"is_available"`
}

// GenerateSlots walks the working window in steps of stepMinutes and yields
// every full-length slot that fits. A nil window is a day off and yields nothing.
// Slots overlapping an active booking, or already started today, are yielded
// with Available set to false.
func (e *Engine) GenerateSlots(window *WorkingWindow, durationMinutes int, bookings []Booking, date time.Time, stepMinutes int) (iter.Seq[SlotCandidate], error) {
	if durationMinutes <= 0 || stepMinutes <= 0 || durationMinutes > MaxMinutes || stepMinutes > MaxMinutes {
		return nil, fmt.Errorf("%w: duration=%d step=%d", ErrInvalidParameters, durationMinutes, stepMinutes)
	}
	if window == nil {
		return func(func(SlotCandidate) bool) {}, nil
	}

	w := *window
	day := civilDate(date)
	active := make([]Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.blocks(uuid.Nil, day) {
			active = append(active, b)
		}
	}

	// The clock is read once so every range over the sequence agrees.
	isToday := day.Equal(e.Today())
	now := e.nowTimeOfDay()

	return func(yield func(SlotCandidate) bool) {
		for cursor := w.Start; cursor.AddMinutes(durationMinutes) <= w.End; cursor = cursor.AddMinutes(stepMinutes) {
			end := cursor.AddMinutes(durationMinutes)
			slot := SlotCandidate{Start: cursor, End: end, Available: true}
			if isToday && cursor < now {
				slot.Available = false
			}
			for _, b := range active {
				if overlaps(cursor, end, b.Start, b.End) {
					slot.Available = false
					break
				}
			}
			if !yield(slot) {
				return
			}
		}
	}, nil
}
