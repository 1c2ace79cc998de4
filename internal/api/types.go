package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/gym-appointment-scheduling/internal/appointment"
	"github.com/hackgods/gym-appointment-scheduling/internal/availability"
)

type BookAppointmentRequest struct {
	MemberID  string  `json:"member_id"`
	TrainerID string  `json:"trainer_id"`
	ServiceID string  `json:"service_id"`
	Date      string  `json:"date"`       // YYYY-MM-DD
	StartTime string  `json:"start_time"` // HH:MM
	Notes     *string `json:"notes,omitempty"`
}

type TrainerSummary struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	FullName  string    `json:"full_name"`
}

type ServiceResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Category        *string   `json:"category,omitempty"`
	DurationMinutes int       `json:"duration_minutes"`
	Price           string    `json:"price"`
}

type AppointmentResponse struct {
	ID         uuid.UUID              `json:"id"`
	MemberID   uuid.UUID              `json:"member_id"`
	TrainerID  uuid.UUID              `json:"trainer_id"`
	ServiceID  uuid.UUID              `json:"service_id"`
	Date       string                 `json:"date"`
	StartTime  availability.TimeOfDay `json:"start_time"`
	EndTime    availability.TimeOfDay `json:"end_time"`
	Status     string                 `json:"status"`
	TotalPrice string                 `json:"total_price"`
	Notes      *string                `json:"notes,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
	Trainer    *TrainerSummary        `json:"trainer,omitempty"`
	Service    *ServiceResponse       `json:"service,omitempty"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

type AvailableTrainerResponse struct {
	TrainerSummary
	WorkingDays string                 `json:"working_days,omitempty"`
	Start       availability.TimeOfDay `json:"start"`
	End         availability.TimeOfDay `json:"end"`
	Services    []ServiceResponse      `json:"services"`
}

type AvailableTrainersResponse struct {
	Date     string                     `json:"date"`
	Weekday  string                     `json:"weekday"`
	Trainers []AvailableTrainerResponse `json:"trainers"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toTrainerSummary(t appointment.Trainer) TrainerSummary {
	return TrainerSummary{
		ID:        t.ID,
		FirstName: t.FirstName,
		LastName:  t.LastName,
		FullName:  t.FullName(),
	}
}

func toServiceResponse(s appointment.GymService) ServiceResponse {
	return ServiceResponse{
		ID:              s.ID,
		Name:            s.Name,
		Category:        s.Category,
		DurationMinutes: s.DurationMinutes,
		Price:           s.Price,
	}
}

func toServiceResponses(services []appointment.GymService) []ServiceResponse {
	out := make([]ServiceResponse, 0, len(services))
	for _, s := range services {
		out = append(out, toServiceResponse(s))
	}
	return out
}

func toAppointmentResponse(a appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:         a.ID,
		MemberID:   a.MemberID,
		TrainerID:  a.TrainerID,
		ServiceID:  a.ServiceID,
		Date:       a.Date.Format(time.DateOnly),
		StartTime:  a.StartTime,
		EndTime:    a.EndTime,
		Status:     string(a.Status),
		TotalPrice: a.TotalPrice,
		Notes:      a.Notes,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func toAppointmentDetailResponse(d appointment.AppointmentDetail) AppointmentResponse {
	resp := toAppointmentResponse(d.Appointment)
	if d.Trainer != nil {
		t := toTrainerSummary(*d.Trainer)
		resp.Trainer = &t
	}
	if d.Service != nil {
		s := toServiceResponse(*d.Service)
		resp.Service = &s
	}
	return resp
}
