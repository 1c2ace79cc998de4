package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/gym-appointment-scheduling/internal/appointment"
)

// BookingService is what the handlers need from appointment.Service.
type BookingService interface {
	BookAppointment(ctx context.Context, req appointment.BookRequest) (*appointment.Appointment, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*appointment.AppointmentDetail, error)
	ListAppointmentsByMember(ctx context.Context, memberID uuid.UUID, limit, offset int) ([]appointment.AppointmentDetail, error)
	ListAppointmentsByTrainer(ctx context.Context, trainerID uuid.UUID, date time.Time) ([]appointment.Appointment, error)
	Transition(ctx context.Context, id uuid.UUID, action appointment.Action) (*appointment.Appointment, error)
	AvailableSlots(ctx context.Context, trainerID, serviceID uuid.UUID, date time.Time) (*appointment.DaySlots, error)
	AvailableTrainers(ctx context.Context, date time.Time, serviceID *uuid.UUID) ([]appointment.TrainerDay, error)
	TrainerServices(ctx context.Context, trainerID uuid.UUID) ([]appointment.GymService, error)
}

type RouterConfig struct {
	Service BookingService
	Health  *HealthHandler
	Logger  *zap.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(middleware.Recoverer)

	if cfg.Health != nil {
		r.Get("/health/live", cfg.Health.Liveness)
		r.Get("/health/ready", cfg.Health.Readiness)
	}

	h := &handlers{svc: cfg.Service, logger: cfg.Logger}

	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", h.bookAppointment)
		r.Get("/", h.listAppointments)
		r.Get("/{id}", h.getAppointment)
		r.Post("/{id}/{action}", h.transitionAppointment)
	})

	r.Route("/trainers", func(r chi.Router) {
		r.Get("/available", h.availableTrainers)
		r.Get("/{id}/services", h.trainerServices)
		r.Get("/{id}/appointments", h.trainerAppointments)
		r.Get("/{id}/slots", h.trainerSlots)
	})

	return r
}
