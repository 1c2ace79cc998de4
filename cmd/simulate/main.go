package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hackgods/gym-appointment-scheduling/internal/availability"
	"github.com/hackgods/gym-appointment-scheduling/internal/config"
	"github.com/hackgods/gym-appointment-scheduling/internal/db"
	"github.com/hackgods/gym-appointment-scheduling/internal/logger"
)

type SimConfig struct {
	APIBaseURL   string        `env:"SIM_API_BASE_URL" env-default:"http://localhost:8080"`
	Duration     time.Duration `env:"SIM_DURATION" env-default:"30s"`
	Workers      int           `env:"SIM_WORKERS" env-default:"10"`
	BookingRatio float64       `env:"SIM_BOOKING_RATIO" env-default:"0.6"`
	ConfirmRatio float64       `env:"SIM_CONFIRM_RATIO" env-default:"0.15"`
	ReadRatio    float64       `env:"SIM_READ_RATIO" env-default:"0.25"`
	DaysAhead    int           `env:"SIM_DAYS_AHEAD" env-default:"3"`
	Members      int           `env:"SIM_MEMBERS" env-default:"200"`
}

// pairing is a trainer together with one service they offer.
type pairing struct {
	TrainerID uuid.UUID
	ServiceID uuid.UUID
}

type DataPool struct {
	Pairings []pairing
	Members  []uuid.UUID

	mu           sync.RWMutex
	appointments []uuid.UUID
}

func (dp *DataPool) AddAppointment(id uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, id)
}

func (dp *DataPool) RandomAppointment(rng *rand.Rand) (uuid.UUID, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return uuid.Nil, false
	}
	return dp.appointments[rng.Intn(len(dp.appointments))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Rejected  int64
	Error     int64
	mu        sync.Mutex
	latencies []time.Duration
}

// Record counts one call; rejected means a 409/422 answer.
func (om *OperationMetrics) Record(latency time.Duration, status int, err error) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case err != nil || status >= http.StatusInternalServerError:
		atomic.AddInt64(&om.Error, 1)
	case status == http.StatusConflict || status == http.StatusUnprocessableEntity:
		atomic.AddInt64(&om.Rejected, 1)
	case status < http.StatusBadRequest:
		atomic.AddInt64(&om.Success, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.latencies = append(om.latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Percentiles() (p50, p95, maxLatency time.Duration) {
	om.mu.Lock()
	latencies := slices.Clone(om.latencies)
	om.mu.Unlock()

	if len(latencies) == 0 {
		return 0, 0, 0
	}
	slices.Sort(latencies)
	at := func(p int) time.Duration {
		return latencies[min(len(latencies)*p/100, len(latencies)-1)]
	}
	return at(50), at(95), latencies[len(latencies)-1]
}

type Simulator struct {
	cfg    SimConfig
	pool   *DataPool
	client *http.Client
	log    *zap.Logger

	slots    OperationMetrics
	booking  OperationMetrics
	confirm  OperationMetrics
	readByID OperationMetrics
}

func main() {
	baseCfg, err := config.Load()
	if err != nil {
		panic("config load error: " + err.Error())
	}

	log := logger.Must(baseCfg.Env).Named("simulate")
	defer func() { _ = log.Sync() }()

	var cfg SimConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatal("simulate config", zap.Error(err))
	}
	if cfg.Workers <= 0 || cfg.Duration <= 0 || cfg.DaysAhead <= 0 {
		log.Fatal("SIM_WORKERS, SIM_DURATION and SIM_DAYS_AHEAD must be > 0")
	}
	normalize(&cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, baseCfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("connect postgres", zap.Error(err))
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		log.Fatal("load data pool", zap.Error(err))
	}
	log.Info("data pool loaded", zap.Int("pairings", len(dataPool.Pairings)), zap.Int("members", len(dataPool.Members)))

	sim := &Simulator{
		cfg:    cfg,
		pool:   dataPool,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}

	sim.Run()

	overlaps, err := countOverlaps(context.Background(), pgPool)
	if err != nil {
		log.Fatal("verify overlaps", zap.Error(err))
	}

	sim.PrintReport(overlaps)
}

func normalize(cfg *SimConfig) {
	total := cfg.BookingRatio + cfg.ConfirmRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.ConfirmRatio /= total
		cfg.ReadRatio /= total
	}
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	rows, err := pool.Query(ctx, `
		SELECT ts.trainer_id, ts.service_id
		FROM trainer_services ts
		JOIN trainers t ON t.id = ts.trainer_id
		JOIN services s ON s.id = ts.service_id
		WHERE t.is_active AND s.is_active
	`)
	if err != nil {
		return nil, fmt.Errorf("load trainer services: %w", err)
	}
	defer rows.Close()

	dp := &DataPool{}
	for rows.Next() {
		var p pairing
		if err := rows.Scan(&p.TrainerID, &p.ServiceID); err != nil {
			return nil, err
		}
		dp.Pairings = append(dp.Pairings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(dp.Pairings) == 0 {
		return nil, fmt.Errorf("no active trainer/service pairings, run cmd/seed first")
	}

	// members are not stored locally; any id will do
	for i := 0; i < cfg.Members; i++ {
		dp.Members = append(dp.Members, uuid.New())
	}

	return dp, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Duration)
	defer cancel()

	s.log.Info("starting simulation", zap.Duration("duration", s.cfg.Duration), zap.Int("workers", s.cfg.Workers))

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}
	wg.Wait()

	s.log.Info("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for ctx.Err() == nil {
		r := rng.Float64()
		switch {
		case r < s.cfg.BookingRatio:
			s.doBooking(ctx, rng)
		case r < s.cfg.BookingRatio+s.cfg.ConfirmRatio:
			s.doConfirm(ctx, rng)
		default:
			s.doReadByID(ctx, rng)
		}
	}
}

// doBooking lists a trainer's slots and books one. A quarter of the time it
// deliberately picks a taken slot so the conflict path is exercised.
func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	p := s.pool.Pairings[rng.Intn(len(s.pool.Pairings))]
	date := time.Now().AddDate(0, 0, 1+rng.Intn(s.cfg.DaysAhead)).Format(time.DateOnly)

	var slots []availability.SlotCandidate
	status, err := s.call(ctx, &s.slots, http.MethodGet,
		fmt.Sprintf("/trainers/%s/slots?service_id=%s&date=%s", p.TrainerID, p.ServiceID, date), nil, &slots)
	if err != nil || status != http.StatusOK || len(slots) == 0 {
		return
	}

	pick := slots[rng.Intn(len(slots))]
	if rng.Intn(4) != 0 {
		free := slices.DeleteFunc(slices.Clone(slots), func(c availability.SlotCandidate) bool { return !c.Available })
		if len(free) > 0 {
			pick = free[rng.Intn(len(free))]
		}
	}

	body := map[string]string{
		"member_id":  s.pool.Members[rng.Intn(len(s.pool.Members))].String(),
		"trainer_id": p.TrainerID.String(),
		"service_id": p.ServiceID.String(),
		"date":       date,
		"start_time": pick.Start.String(),
	}

	var created struct {
		ID uuid.UUID `json:"id"`
	}
	status, err = s.call(ctx, &s.booking, http.MethodPost, "/appointments", body, &created)
	if err == nil && status == http.StatusCreated && created.ID != uuid.Nil {
		s.pool.AddAppointment(created.ID)
	}
}

func (s *Simulator) doConfirm(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.RandomAppointment(rng)
	if !ok {
		return
	}
	action := "confirm"
	if rng.Intn(5) == 0 {
		action = "cancel"
	}
	_, _ = s.call(ctx, &s.confirm, http.MethodPost, fmt.Sprintf("/appointments/%s/%s", id, action), nil, nil)
}

func (s *Simulator) doReadByID(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.RandomAppointment(rng)
	if !ok {
		return
	}
	_, _ = s.call(ctx, &s.readByID, http.MethodGet, "/appointments/"+id.String(), nil, nil)
}

func (s *Simulator) call(ctx context.Context, om *OperationMetrics, method, path string, body, out any) (int, error) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.cfg.APIBaseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		// the run deadline cancels in-flight calls; those are not failures
		if ctx.Err() == nil {
			om.Record(time.Since(start), 0, err)
		}
		return 0, err
	}
	defer resp.Body.Close()

	om.Record(time.Since(start), resp.StatusCode, nil)

	if out != nil && resp.StatusCode < http.StatusBadRequest {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

// countOverlaps finds live appointment pairs of one trainer that overlap on a day.
func countOverlaps(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	var n int
	err := pool.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments a
		JOIN appointments b
		  ON a.trainer_id = b.trainer_id
		 AND a.appointment_date = b.appointment_date
		 AND a.id < b.id
		 AND a.start_time < b.end_time
		 AND b.start_time < a.end_time
		WHERE a.status <> 'cancelled' AND b.status <> 'cancelled'
	`).Scan(&n)
	return n, err
}

func (s *Simulator) PrintReport(overlaps int) {
	header := color.New(color.FgCyan, color.Bold)
	good := color.New(color.FgGreen).SprintFunc()
	warn := color.New(color.FgYellow).SprintFunc()
	bad := color.New(color.FgRed, color.Bold).SprintFunc()

	fmt.Println()
	header.Println("SIMULATION REPORT")
	fmt.Printf("Duration: %s  Workers: %d\n\n", s.cfg.Duration, s.cfg.Workers)

	for _, op := range []struct {
		name string
		om   *OperationMetrics
	}{
		{"List slots", &s.slots},
		{"Booking", &s.booking},
		{"Confirm/Cancel", &s.confirm},
		{"Read by ID", &s.readByID},
	} {
		total := atomic.LoadInt64(&op.om.Total)
		if total == 0 {
			continue
		}
		p50, p95, maxLatency := op.om.Percentiles()
		fmt.Printf("%-15s total=%d ok=%s rejected=%s errors=%s p50=%s p95=%s max=%s\n",
			op.name, total,
			good(atomic.LoadInt64(&op.om.Success)),
			warn(atomic.LoadInt64(&op.om.Rejected)),
			bad(atomic.LoadInt64(&op.om.Error)),
			p50.Round(time.Millisecond), p95.Round(time.Millisecond), maxLatency.Round(time.Millisecond),
		)
	}

	fmt.Println()
	if overlaps == 0 {
		fmt.Println(good("no overlapping live appointments found"))
		return
	}
	fmt.Println(bad(fmt.Sprintf("%d overlapping live appointment pairs found", overlaps)))
}
