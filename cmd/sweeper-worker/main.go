package main

import (
	"context"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/gym-appointment-scheduling/internal/appointment"
	"github.com/hackgods/gym-appointment-scheduling/internal/availability"
	"github.com/hackgods/gym-appointment-scheduling/internal/config"
	"github.com/hackgods/gym-appointment-scheduling/internal/db"
	"github.com/hackgods/gym-appointment-scheduling/internal/events"
	"github.com/hackgods/gym-appointment-scheduling/internal/logger"
	redisclient "github.com/hackgods/gym-appointment-scheduling/internal/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load error: " + err.Error())
	}

	log := logger.Must(cfg.Env).Named("sweeper")
	defer func() { _ = log.Sync() }()

	log.Info("sweeper-worker starting up",
		zap.String("env", cfg.Env),
		zap.Duration("interval", cfg.WorkerInterval),
	)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal("timezone error", zap.Error(err))
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, log)
	cancelPg()
	if err != nil {
		log.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()

	repo := appointment.NewPgRepository(pgPool)
	engine := availability.NewEngine(availability.WithLocation(loc))
	// the sweeper never books, so it needs no trainer/day lock
	svc := appointment.NewService(repo, redisclient.NopLocker{}, engine, cfg, log)

	var wg sync.WaitGroup

	brokers := events.SplitBrokers(cfg.KafkaBrokers)
	if len(brokers) == 0 {
		log.Warn("event relay disabled (no kafka brokers configured)")
	} else {
		writer := events.NewKafkaWriter(brokers)
		defer func() {
			if err := writer.Close(); err != nil {
				log.Warn("error closing kafka writer", zap.Error(err))
			}
		}()

		relay := events.NewRelay(events.NewPgStore(pgPool), writer, events.RelayConfig{
			TopicPrefix: cfg.KafkaTopicPrefix,
			BatchSize:   cfg.RelayBatchSize,
		}, log.Named("relay"))

		wg.Add(1)
		go func() {
			defer wg.Done()
			relay.Run(rootCtx)
		}()
	}

	// Run once at startup
	runOnce(rootCtx, svc, engine, log)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info("shutdown signal received, stopping sweeper")
			wg.Wait()
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, engine, log)
		}
	}
}

func runOnce(ctx context.Context, svc *appointment.Service, engine *availability.Engine, log *zap.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	res, err := svc.SweepStale(runCtx, engine.Now())
	if err != nil {
		log.Error("sweep run error", zap.Error(err))
		return
	}
	log.Info("sweep run complete",
		zap.Int("cancelled", res.Cancelled),
		zap.Int("completed", res.Completed),
		zap.Duration("took", time.Since(start)),
	)
}
