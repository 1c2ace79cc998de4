package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/gym-appointment-scheduling/internal/availability"
)

// exclusion_violation, raised by appointments_no_overlap
const pgExclusionViolation = "23P01"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

const trainerColumns = `t.id, t.gym_id, t.first_name, t.last_name, t.working_days, t.is_active, t.created_at, t.updated_at`

const serviceColumns = `s.id, s.gym_id, s.name, s.category, s.duration_minutes, s.price::text, s.is_active, s.created_at, s.updated_at`

const appointmentColumns = `a.id, a.member_id, a.trainer_id, a.service_id, a.appointment_date, a.start_time, a.end_time,
		a.status, a.total_price::text, a.notes, a.created_at, a.updated_at`

func scanTrainer(row pgx.Row) (*Trainer, error) {
	var t Trainer

	err := row.Scan(
		&t.ID,
		&t.GymID,
		&t.FirstName,
		&t.LastName,
		&t.WorkingDays,
		&t.IsActive,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}

	return &t, nil
}

func scanService(row pgx.Row) (*GymService, error) {
	var s GymService
	var category *string

	err := row.Scan(
		&s.ID,
		&s.GymID,
		&s.Name,
		&category,
		&s.DurationMinutes,
		&s.Price,
		&s.IsActive,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}

	s.Category = category
	return &s, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var start, end pgtype.Time
	var notes *string

	err := row.Scan(
		&a.ID,
		&a.MemberID,
		&a.TrainerID,
		&a.ServiceID,
		&a.Date,
		&start,
		&end,
		&a.Status,
		&a.TotalPrice,
		&notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.StartTime = fromPgTime(start)
	a.EndTime = fromPgTime(end)
	a.Notes = notes
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func toPgTime(t availability.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: t.Duration().Microseconds(), Valid: true}
}

func fromPgTime(t pgtype.Time) availability.TimeOfDay {
	return availability.TimeOfDay(time.Duration(t.Microseconds) * time.Microsecond)
}

func toPgDate(d time.Time) pgtype.Date {
	y, m, day := d.Date()
	return pgtype.Date{Time: time.Date(y, m, day, 0, 0, 0, 0, time.UTC), Valid: true}
}

func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation
}

// Interface methods

func (r *PgRepository) GetTrainerByID(ctx context.Context, id uuid.UUID) (*Trainer, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+trainerColumns+`
		FROM trainers t
		WHERE t.id = $1
	`, id)
	return scanTrainer(row)
}

func (r *PgRepository) GetServiceByID(ctx context.Context, id uuid.UUID) (*GymService, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+serviceColumns+`
		FROM services s
		WHERE s.id = $1
	`, id)
	return scanService(row)
}

func (r *PgRepository) TrainerOffersService(ctx context.Context, trainerID, serviceID uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM trainer_services
			WHERE trainer_id = $1 AND service_id = $2
		)
	`, trainerID, serviceID).Scan(&ok)
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (r *PgRepository) ListTrainerServices(ctx context.Context, trainerID uuid.UUID) ([]GymService, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+serviceColumns+`
		FROM services s
		JOIN trainer_services ts ON ts.service_id = s.id
		WHERE ts.trainer_id = $1 AND s.is_active
		ORDER BY s.name
	`, trainerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []GymService
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	return result, rows.Err()
}

func (r *PgRepository) ListAvailability(ctx context.Context, trainerID uuid.UUID) ([]Availability, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, trainer_id, day_of_week, start_time, end_time, is_available
		FROM trainer_availability
		WHERE trainer_id = $1
		ORDER BY day_of_week, start_time, id
	`, trainerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Availability
	for rows.Next() {
		var a Availability
		var day int16
		var start, end pgtype.Time
		if err := rows.Scan(&a.ID, &a.TrainerID, &day, &start, &end, &a.IsAvailable); err != nil {
			return nil, err
		}
		a.DayOfWeek = time.Weekday(day)
		a.StartTime = fromPgTime(start)
		a.EndTime = fromPgTime(end)
		result = append(result, a)
	}

	return result, rows.Err()
}

func (r *PgRepository) ListActiveTrainersForWeekday(ctx context.Context, day time.Weekday, serviceID *uuid.UUID) ([]TrainerDay, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (t.id) `+trainerColumns+`, ta.start_time, ta.end_time
		FROM trainers t
		JOIN trainer_availability ta ON ta.trainer_id = t.id
		WHERE t.is_active
		  AND ta.day_of_week = $1
		  AND ta.is_available
		  AND ($2::uuid IS NULL OR EXISTS (
			SELECT 1 FROM trainer_services ts
			WHERE ts.trainer_id = t.id AND ts.service_id = $2
		  ))
		ORDER BY t.id, ta.start_time
	`, int16(day), serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TrainerDay
	for rows.Next() {
		var td TrainerDay
		var start, end pgtype.Time
		err := rows.Scan(
			&td.Trainer.ID,
			&td.Trainer.GymID,
			&td.Trainer.FirstName,
			&td.Trainer.LastName,
			&td.Trainer.WorkingDays,
			&td.Trainer.IsActive,
			&td.Trainer.CreatedAt,
			&td.Trainer.UpdatedAt,
			&start,
			&end,
		)
		if err != nil {
			return nil, err
		}
		td.Window = availability.WorkingWindow{
			Weekday:   day,
			Start:     fromPgTime(start),
			End:       fromPgTime(end),
			Available: true,
		}
		result = append(result, td)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		services, err := r.ListTrainerServices(ctx, result[i].Trainer.ID)
		if err != nil {
			return nil, fmt.Errorf("list services for trainer %s: %w", result[i].Trainer.ID, err)
		}
		result[i].Services = services
	}

	return result, nil
}

func (r *PgRepository) ListActiveAppointmentsForTrainerDay(ctx context.Context, trainerID uuid.UUID, date time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		WHERE a.trainer_id = $1
		  AND a.appointment_date = $2
		  AND a.status <> 'cancelled'
		ORDER BY a.start_time
	`, trainerID, toPgDate(date))
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		WHERE a.id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	appt, err := r.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.hydrate(ctx, *appt)
}

func (r *PgRepository) ListAppointmentsByMember(ctx context.Context, memberID uuid.UUID, limit, offset int) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		WHERE a.member_id = $1
		ORDER BY a.appointment_date DESC, a.start_time DESC
		LIMIT $2 OFFSET $3
	`, memberID, limit, offset)
	if err != nil {
		return nil, err
	}
	appts, err := collectAppointments(rows)
	if err != nil {
		return nil, err
	}

	result := make([]AppointmentDetail, 0, len(appts))
	for _, a := range appts {
		d, err := r.hydrate(ctx, a)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, nil
}

func (r *PgRepository) ListAppointmentsByTrainer(ctx context.Context, trainerID uuid.UUID, date time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		WHERE a.trainer_id = $1
		  AND a.appointment_date = $2
		ORDER BY a.start_time
	`, trainerID, toPgDate(date))
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) CreateAppointment(ctx context.Context, appt Appointment, ev EventLog) (*Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	id := uuid.New()
	row := tx.QueryRow(ctx, `
		INSERT INTO appointments AS a
			(id, member_id, trainer_id, service_id, appointment_date, start_time, end_time,
			 status, total_price, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::numeric, $10, now(), now())
		RETURNING `+appointmentColumns+`
	`, id, appt.MemberID, appt.TrainerID, appt.ServiceID, toPgDate(appt.Date),
		toPgTime(appt.StartTime), toPgTime(appt.EndTime), appt.Status, appt.TotalPrice, appt.Notes)

	created, err := scanAppointment(row)
	if err != nil {
		if isExclusionViolation(err) {
			return nil, ErrOverlap
		}
		return nil, err
	}

	if err := insertEvent(ctx, tx, created.ID, ev); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return created, nil
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus, ev EventLog) (*Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE appointments AS a
		SET status = $2,
		    updated_at = now()
		WHERE a.id = $1
		  AND a.status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)

	updated, err := scanAppointment(row)
	if err != nil {
		if isExclusionViolation(err) {
			return nil, ErrOverlap
		}
		return nil, err
	}

	if err := insertEvent(ctx, tx, updated.ID, ev); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return updated, nil
}

// FindStale returns appointments in status whose boundary lies before now:
// the start for pending appointments, the end for everything else.
func (r *PgRepository) FindStale(ctx context.Context, status AppointmentStatus, now time.Time) ([]Appointment, error) {
	column := "a.end_time"
	if status == StatusPending {
		column = "a.start_time"
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		WHERE a.status = $1
		  AND (a.appointment_date < $2 OR (a.appointment_date = $2 AND `+column+` <= $3))
	`, status, toPgDate(now), toPgTime(availability.TimeOfDayOf(now)))
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func insertEvent(ctx context.Context, tx pgx.Tx, appointmentID uuid.UUID, ev EventLog) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, appointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func (r *PgRepository) hydrate(ctx context.Context, a Appointment) (*AppointmentDetail, error) {
	d := &AppointmentDetail{Appointment: a}

	trainer, err := r.GetTrainerByID(ctx, a.TrainerID)
	if err != nil && !errors.Is(err, ErrTrainerNotFound) {
		return nil, err
	}
	d.Trainer = trainer

	service, err := r.GetServiceByID(ctx, a.ServiceID)
	if err != nil && !errors.Is(err, ErrServiceNotFound) {
		return nil, err
	}
	d.Service = service

	return d, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
