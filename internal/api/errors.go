package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hackgods/gym-appointment-scheduling/internal/appointment"
	"github.com/hackgods/gym-appointment-scheduling/internal/availability"
)

func (h *handlers) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, r, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrTrainerNotFound):
		writeError(w, r, http.StatusNotFound, "trainer_not_found", err.Error())
	case errors.Is(err, appointment.ErrServiceNotFound):
		writeError(w, r, http.StatusNotFound, "service_not_found", err.Error())

	case errors.Is(err, availability.ErrTimeConflict):
		writeError(w, r, http.StatusConflict, availability.ReasonCode(err), err.Error())
	case errors.Is(err, appointment.ErrSlotBeingBooked):
		writeError(w, r, http.StatusConflict, "slot_being_booked", err.Error())
	case errors.Is(err, appointment.ErrInvalidStatusTransition):
		writeError(w, r, http.StatusConflict, "invalid_status_transition", err.Error())

	case availability.ReasonCode(err) != "":
		writeError(w, r, http.StatusUnprocessableEntity, availability.ReasonCode(err), err.Error())
	case errors.Is(err, appointment.ErrTrainerInactive):
		writeError(w, r, http.StatusUnprocessableEntity, "trainer_inactive", err.Error())
	case errors.Is(err, appointment.ErrServiceInactive):
		writeError(w, r, http.StatusUnprocessableEntity, "service_inactive", err.Error())
	case errors.Is(err, appointment.ErrUnknownAction):
		writeError(w, r, http.StatusBadRequest, "unknown_action", err.Error())

	default:
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Error(err),
		)
		writeError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
