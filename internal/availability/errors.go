package availability

import "errors"

var (
	ErrPastDate            = errors.New("appointment date is in the past")
	ErrNotAWorkingDay      = errors.New("trainer does not work on this day")
	ErrTimeConflict        = errors.New("trainer already has an appointment in this time range")
	ErrOutsideWorkingHours = errors.New("requested time is outside the trainer's working hours")
	ErrInvalidParameters   = errors.New("invalid scheduling parameters")
	ErrServiceNotOffered   = errors.New("trainer does not offer this service")
)

// ReasonCode maps a rejection to the stable code reported to clients.
// It returns "" for errors outside the scheduling taxonomy.
func ReasonCode(err error) string {
	switch {
	case errors.Is(err, ErrPastDate):
		return "past_date"
	case errors.Is(err, ErrNotAWorkingDay):
		return "not_a_working_day"
	case errors.Is(err, ErrTimeConflict):
		return "time_conflict"
	case errors.Is(err, ErrOutsideWorkingHours):
		return "outside_working_hours"
	case errors.Is(err, ErrInvalidParameters):
		return "invalid_parameters"
	case errors.Is(err, ErrServiceNotOffered):
		return "service_not_offered"
	default:
		return ""
	}
}
