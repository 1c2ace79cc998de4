package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hackgods/gym-appointment-scheduling/internal/db"
)

func migrate(ctx context.Context, pool *pgxpool.Pool, log *zap.Logger) error {
	m, err := db.NewMigrator(pool, log)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	return m.Up(ctx)
}
