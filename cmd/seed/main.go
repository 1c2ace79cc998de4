package main

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hackgods/gym-appointment-scheduling/internal/availability"
	"github.com/hackgods/gym-appointment-scheduling/internal/config"
	"github.com/hackgods/gym-appointment-scheduling/internal/db"
	"github.com/hackgods/gym-appointment-scheduling/internal/logger"
)

type seedConfig struct {
	Gyms             int `env:"SEED_GYMS" env-default:"3"`
	TrainersPerGym   int `env:"SEED_TRAINERS_PER_GYM" env-default:"8"`
	ServicesPerTrain int `env:"SEED_SERVICES_PER_TRAINER" env-default:"3"`
}

type serviceTemplate struct {
	name     string
	category string
	minutes  int
}

var catalog = []serviceTemplate{
	{"Personal Training", "Strength", 60},
	{"Strength Assessment", "Strength", 45},
	{"HIIT Session", "Cardio", 30},
	{"Spin Coaching", "Cardio", 45},
	{"Yoga Flow", "Mobility", 60},
	{"Mobility Clinic", "Mobility", 30},
	{"Boxing Pads", "Combat", 45},
	{"Nutrition Consult", "Wellness", 30},
	{"Pilates Reformer", "Mobility", 50},
	{"Marathon Prep", "Cardio", 90},
}

// shift templates trainers are drawn from
var shifts = []availability.WorkingWindow{
	{Start: availability.Clock(6, 0), End: availability.Clock(14, 0)},
	{Start: availability.Clock(9, 0), End: availability.Clock(17, 0)},
	{Start: availability.Clock(12, 0), End: availability.Clock(20, 0)},
	{Start: availability.Clock(8, 30), End: availability.Clock(12, 30)},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load error: " + err.Error())
	}

	log := logger.Must(cfg.Env).Named("seed")
	defer func() { _ = log.Sync() }()

	var sc seedConfig
	if err := cleanenv.ReadEnv(&sc); err != nil {
		log.Fatal("seed config", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		m, err := db.NewMigrator(pool, log)
		if err != nil {
			log.Fatal("migrator", zap.Error(err))
		}
		if err := m.Up(ctx); err != nil {
			log.Fatal("migrate", zap.Error(err))
		}
		_ = m.Close()
	}

	gofakeit.Seed(time.Now().UnixNano())

	for g := 0; g < sc.Gyms; g++ {
		if err := seedGym(ctx, pool, sc, log); err != nil {
			log.Fatal("seed gym", zap.Error(err))
		}
	}

	log.Info("seed complete", zap.Int("gyms", sc.Gyms), zap.Int("trainers", sc.Gyms*sc.TrainersPerGym))
}

func seedGym(ctx context.Context, pool *pgxpool.Pool, sc seedConfig, log *zap.Logger) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	gymID := uuid.New()
	gymName := gofakeit.Company() + " Fitness"
	_, err = tx.Exec(ctx, `
		INSERT INTO gyms (id, name, address, phone)
		VALUES ($1, $2, $3, $4)
	`, gymID, gymName, gofakeit.Street()+", "+gofakeit.City(), gofakeit.Phone())
	if err != nil {
		return fmt.Errorf("insert gym: %w", err)
	}

	serviceIDs := make([]uuid.UUID, 0, len(catalog))
	for _, tpl := range catalog {
		id := uuid.New()
		price := fmt.Sprintf("%.2f", gofakeit.Price(15, 120))
		_, err := tx.Exec(ctx, `
			INSERT INTO services (id, gym_id, name, category, duration_minutes, price, is_active)
			VALUES ($1, $2, $3, $4, $5, $6::numeric, $7)
		`, id, gymID, tpl.name, tpl.category, tpl.minutes, price, gofakeit.Number(1, 10) > 1)
		if err != nil {
			return fmt.Errorf("insert service: %w", err)
		}
		serviceIDs = append(serviceIDs, id)
	}

	for i := 0; i < sc.TrainersPerGym; i++ {
		if err := seedTrainer(ctx, tx, gymID, serviceIDs, sc.ServicesPerTrain); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Info("gym seeded", zap.String("gym", gymName), zap.Int("trainers", sc.TrainersPerGym))
	return nil
}

func seedTrainer(ctx context.Context, tx pgx.Tx, gymID uuid.UUID, serviceIDs []uuid.UUID, servicesPerTrainer int) error {
	trainerID := uuid.New()
	days := randomWorkingDays()

	_, err := tx.Exec(ctx, `
		INSERT INTO trainers (id, gym_id, first_name, last_name, working_days, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, trainerID, gymID, gofakeit.FirstName(), gofakeit.LastName(), days.String(), gofakeit.Number(1, 10) > 1)
	if err != nil {
		return fmt.Errorf("insert trainer: %w", err)
	}

	picked := map[uuid.UUID]bool{}
	for len(picked) < min(servicesPerTrainer, len(serviceIDs)) {
		picked[serviceIDs[gofakeit.Number(0, len(serviceIDs)-1)]] = true
	}
	for serviceID := range picked {
		_, err := tx.Exec(ctx, `
			INSERT INTO trainer_services (trainer_id, service_id) VALUES ($1, $2)
		`, trainerID, serviceID)
		if err != nil {
			return fmt.Errorf("insert trainer service: %w", err)
		}
	}

	// the calendar mirrors the working-days label, one shift per working day
	shift := shifts[gofakeit.Number(0, len(shifts)-1)]
	for _, day := range days.Days() {
		_, err := tx.Exec(ctx, `
			INSERT INTO trainer_availability (trainer_id, day_of_week, start_time, end_time, is_available)
			VALUES ($1, $2, $3::time, $4::time, true)
		`, trainerID, int16(day), shift.Start.String(), shift.End.String())
		if err != nil {
			return fmt.Errorf("insert availability: %w", err)
		}
	}

	return nil
}

func randomWorkingDays() availability.WorkingDays {
	var days []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		weekend := d == time.Saturday || d == time.Sunday
		if (weekend && gofakeit.Number(1, 4) == 1) || (!weekend && gofakeit.Number(1, 6) > 1) {
			days = append(days, d)
		}
	}
	if len(days) == 0 {
		days = append(days, time.Monday)
	}
	return availability.NewWorkingDays(days...)
}
