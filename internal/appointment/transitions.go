package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/gym-appointment-scheduling/internal/availability"
)

type Action string

const (
	ActionConfirm           Action = "confirm"
	ActionCancel            Action = "cancel"
	ActionComplete          Action = "complete"
	ActionRevertToPending   Action = "revert-to-pending"
	ActionRevertToConfirmed Action = "revert-to-confirmed"
	ActionReopen            Action = "reopen"
)

type transition struct {
	from  []AppointmentStatus
	to    AppointmentStatus
	event string
}

var transitions = map[Action]transition{
	ActionConfirm:           {from: []AppointmentStatus{StatusPending}, to: StatusConfirmed, event: EventAppointmentConfirmed},
	ActionCancel:            {from: []AppointmentStatus{StatusPending, StatusConfirmed}, to: StatusCancelled, event: EventAppointmentCancelled},
	ActionComplete:          {from: []AppointmentStatus{StatusConfirmed}, to: StatusCompleted, event: EventAppointmentCompleted},
	ActionRevertToPending:   {from: []AppointmentStatus{StatusConfirmed}, to: StatusPending, event: EventAppointmentReverted},
	ActionRevertToConfirmed: {from: []AppointmentStatus{StatusCompleted}, to: StatusConfirmed, event: EventAppointmentReverted},
	ActionReopen:            {from: []AppointmentStatus{StatusCancelled}, to: StatusPending, event: EventAppointmentReopened},
}

// ParseAction accepts both dashed and underscored spellings.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	if _, ok := transitions[a]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
	return a, nil
}

func (t transition) allows(status AppointmentStatus) bool {
	for _, s := range t.from {
		if s == status {
			return true
		}
	}
	return false
}

// Transition applies an administrative status change to an appointment.
// The update is conditional on the status read beforehand, so a concurrent
// change surfaces as ErrInvalidStatusTransition instead of being overwritten.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, action Action) (*Appointment, error) {
	t, ok := transitions[action]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	current, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if !t.allows(current.Status) {
		return nil, fmt.Errorf("%w: cannot %s an appointment that is %s", ErrInvalidStatusTransition, action, current.Status)
	}

	ev := s.newEvent(t.event, map[string]any{
		"action":      string(action),
		"from_status": string(current.Status),
		"to_status":   string(t.to),
	})

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, current.Status, t.to, ev)
	if err != nil {
		switch {
		case errors.Is(err, ErrOverlap):
			// only reopen can put a booking back on the schedule
			return nil, fmt.Errorf("%w: slot was taken while the appointment was cancelled", availability.ErrTimeConflict)
		case errors.Is(err, ErrAppointmentNotFound):
			return nil, fmt.Errorf("%w: status changed concurrently", ErrInvalidStatusTransition)
		}
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	s.logger.Info("appointment status changed",
		zap.String("appointment_id", updated.ID.String()),
		zap.String("action", string(action)),
		zap.String("from", string(current.Status)),
		zap.String("to", string(updated.Status)),
	)

	return updated, nil
}

type SweepResult struct {
	Cancelled int
	Completed int
}

// SweepStale cancels pending appointments whose start has passed and
// completes confirmed appointments whose end has passed.
func (s *Service) SweepStale(ctx context.Context, now time.Time) (SweepResult, error) {
	var res SweepResult

	cancelled, err := s.sweep(ctx, StatusPending, StatusCancelled, EventAppointmentCancelled, now)
	res.Cancelled = cancelled
	if err != nil {
		return res, err
	}

	completed, err := s.sweep(ctx, StatusConfirmed, StatusCompleted, EventAppointmentCompleted, now)
	res.Completed = completed
	if err != nil {
		return res, err
	}

	return res, nil
}

func (s *Service) sweep(ctx context.Context, from, to AppointmentStatus, eventType string, now time.Time) (int, error) {
	stale, err := s.repo.FindStale(ctx, from, now)
	if err != nil {
		return 0, fmt.Errorf("find stale %s appointments: %w", from, err)
	}

	n := 0
	for _, a := range stale {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		ev := s.newEvent(eventType, map[string]any{
			"reason":      "sweeper",
			"from_status": string(from),
			"to_status":   string(to),
		})

		if _, err := s.repo.UpdateAppointmentStatus(ctx, a.ID, from, to, ev); err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				// moved on since FindStale
				continue
			}
			s.logger.Error("failed to sweep appointment",
				zap.String("appointment_id", a.ID.String()),
				zap.String("to", string(to)),
				zap.Error(err),
			)
			continue
		}

		n++
	}

	return n, nil
}
