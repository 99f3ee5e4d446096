package db

import (
	"context"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func InitDB(dbURL string, logger zerolog.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database is not responding: %w", err)
	}

	logger.Info().Msg("Connected to database")
	return db, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS user_points (
		user_id BIGINT PRIMARY KEY,
		point BIGINT NOT NULL DEFAULT 0,
		updated_at DATETIME(3) NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS point_histories (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		amount BIGINT NOT NULL,
		type VARCHAR(16) NOT NULL,
		created_at DATETIME(3) NOT NULL,
		INDEX idx_user_id (user_id)
	);`,
}

func RunMigrations(db *sqlx.DB, logger zerolog.Logger) error {
	for _, q := range migrations {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("migration error: %w", err)
		}
	}
	logger.Info().Int("statements", len(migrations)).Msg("Migrations completed")
	return nil
}

func InitRedis(ctx context.Context, addr string, logger zerolog.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis is not responding: %w", err)
	}

	logger.Info().Str("addr", addr).Msg("Connected to redis")
	return rdb, nil
}
