package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/gym-appointment-scheduling/internal/appointment"
	"github.com/hackgods/gym-appointment-scheduling/internal/availability"
)

type handlers struct {
	svc    BookingService
	logger *zap.Logger
}

func (h *handlers) bookAppointment(w http.ResponseWriter, r *http.Request) {
	var req BookAppointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	memberID, err := uuid.Parse(req.MemberID)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_member_id", "member_id must be a valid UUID")
		return
	}

	trainerID, err := uuid.Parse(req.TrainerID)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_trainer_id", "trainer_id must be a valid UUID")
		return
	}

	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_service_id", "service_id must be a valid UUID")
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_date", "date must be formatted as YYYY-MM-DD")
		return
	}

	start, err := availability.ParseTimeOfDay(req.StartTime)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_start_time", "start_time must be formatted as HH:MM")
		return
	}

	appt, err := h.svc.BookAppointment(r.Context(), appointment.BookRequest{
		MemberID:  memberID,
		TrainerID: trainerID,
		ServiceID: serviceID,
		Date:      date,
		Start:     start,
		Notes:     req.Notes,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, toAppointmentResponse(*appt))
}

func (h *handlers) getAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id", "invalid_appointment_id")
	if !ok {
		return
	}

	detail, err := h.svc.GetAppointment(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toAppointmentDetailResponse(*detail))
}

func (h *handlers) listAppointments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	memberID, err := uuid.Parse(q.Get("member_id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_member_id", "member_id query parameter must be a valid UUID")
		return
	}

	limit, err := queryInt(q.Get("limit"), 20)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
		return
	}
	offset, err := queryInt(q.Get("offset"), 0)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_offset", "offset must be an integer")
		return
	}

	details, err := h.svc.ListAppointmentsByMember(r.Context(), memberID, limit, offset)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	resp := AppointmentListResponse{
		Appointments: make([]AppointmentResponse, 0, len(details)),
		Limit:        limit,
		Offset:       offset,
	}
	for _, d := range details {
		resp.Appointments = append(resp.Appointments, toAppointmentDetailResponse(d))
	}

	writeJSON(w, r, http.StatusOK, resp)
}

func (h *handlers) transitionAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id", "invalid_appointment_id")
	if !ok {
		return
	}

	action, err := appointment.ParseAction(chi.URLParam(r, "action"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "unknown_action", err.Error())
		return
	}

	appt, err := h.svc.Transition(r.Context(), id, action)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toAppointmentResponse(*appt))
}

func (h *handlers) availableTrainers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	date, err := parseDate(q.Get("date"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_date", "date query parameter must be formatted as YYYY-MM-DD")
		return
	}

	var serviceID *uuid.UUID
	if raw := q.Get("service_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid_service_id", "service_id must be a valid UUID")
			return
		}
		serviceID = &id
	}

	trainers, err := h.svc.AvailableTrainers(r.Context(), date, serviceID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	resp := AvailableTrainersResponse{
		Date:     date.Format(time.DateOnly),
		Weekday:  date.Weekday().String(),
		Trainers: make([]AvailableTrainerResponse, 0, len(trainers)),
	}
	for _, td := range trainers {
		resp.Trainers = append(resp.Trainers, AvailableTrainerResponse{
			TrainerSummary: toTrainerSummary(td.Trainer),
			WorkingDays:    td.Trainer.WorkingDays,
			Start:          td.Window.Start,
			End:            td.Window.End,
			Services:       toServiceResponses(td.Services),
		})
	}

	writeJSON(w, r, http.StatusOK, resp)
}

func (h *handlers) trainerServices(w http.ResponseWriter, r *http.Request) {
	trainerID, ok := urlUUID(w, r, "id", "invalid_trainer_id")
	if !ok {
		return
	}

	services, err := h.svc.TrainerServices(r.Context(), trainerID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toServiceResponses(services))
}

func (h *handlers) trainerAppointments(w http.ResponseWriter, r *http.Request) {
	trainerID, ok := urlUUID(w, r, "id", "invalid_trainer_id")
	if !ok {
		return
	}

	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_date", "date query parameter must be formatted as YYYY-MM-DD")
		return
	}

	appts, err := h.svc.ListAppointmentsByTrainer(r.Context(), trainerID, date)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	resp := make([]AppointmentResponse, 0, len(appts))
	for _, a := range appts {
		resp = append(resp, toAppointmentResponse(a))
	}

	writeJSON(w, r, http.StatusOK, resp)
}

// trainerSlots answers with the bare slot list; a day off is an empty list.
func (h *handlers) trainerSlots(w http.ResponseWriter, r *http.Request) {
	trainerID, ok := urlUUID(w, r, "id", "invalid_trainer_id")
	if !ok {
		return
	}

	q := r.URL.Query()

	serviceID, err := uuid.Parse(q.Get("service_id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_service_id", "service_id query parameter must be a valid UUID")
		return
	}

	date, err := parseDate(q.Get("date"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_date", "date query parameter must be formatted as YYYY-MM-DD")
		return
	}

	day, err := h.svc.AvailableSlots(r.Context(), trainerID, serviceID, date)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	slots := day.Slots
	if slots == nil {
		slots = []availability.SlotCandidate{}
	}

	writeJSON(w, r, http.StatusOK, slots)
}

func urlUUID(w http.ResponseWriter, r *http.Request, param, code string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, code, param+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// parseDate reads a calendar date; the result is midnight UTC.
func parseDate(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}

func queryInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
