package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go-points/internal/models"

	"github.com/jmoiron/sqlx"
)

type MySQLBalanceStore struct {
	db  *sqlx.DB
	now Clock
}

func NewMySQLBalanceStore(db *sqlx.DB) *MySQLBalanceStore {
	return &MySQLBalanceStore{db: db, now: systemClock}
}

func (s *MySQLBalanceStore) WithClock(now Clock) *MySQLBalanceStore {
	s.now = now
	return s
}

func (s *MySQLBalanceStore) Get(ctx context.Context, userID int64) (models.UserPoint, error) {
	var p models.UserPoint
	err := s.db.GetContext(ctx, &p,
		"SELECT user_id, point, updated_at FROM user_points WHERE user_id = ?",
		userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserPoint{}, ErrNotFound
	}
	if err != nil {
		return models.UserPoint{}, fmt.Errorf("database error: %w", err)
	}
	return p, nil
}

func (s *MySQLBalanceStore) Upsert(ctx context.Context, userID int64, amount int64) (models.UserPoint, error) {
	now := s.now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_points (user_id, point, updated_at) VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE point = VALUES(point), updated_at = VALUES(updated_at)`,
		userID, amount, now,
	)
	if err != nil {
		return models.UserPoint{}, fmt.Errorf("failed to upsert point: %w", err)
	}

	return models.UserPoint{
		UserID:    userID,
		Point:     amount,
		UpdatedAt: now,
	}, nil
}

type MySQLHistoryStore struct {
	db *sqlx.DB
}

func NewMySQLHistoryStore(db *sqlx.DB) *MySQLHistoryStore {
	return &MySQLHistoryStore{db: db}
}

func (s *MySQLHistoryStore) Append(ctx context.Context, userID int64, amount int64, txType models.TransactionType, at time.Time) (models.PointHistory, error) {
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO point_histories (user_id, amount, type, created_at) VALUES (?, ?, ?, ?)",
		userID, amount, string(txType), at,
	)
	if err != nil {
		return models.PointHistory{}, fmt.Errorf("failed to insert point history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return models.PointHistory{}, fmt.Errorf("failed to get point history ID: %w", err)
	}

	return models.PointHistory{
		ID:        id,
		UserID:    userID,
		Amount:    amount,
		Type:      txType,
		CreatedAt: at,
	}, nil
}

func (s *MySQLHistoryStore) ListByUser(ctx context.Context, userID int64) ([]models.PointHistory, error) {
	history := make([]models.PointHistory, 0)
	err := s.db.SelectContext(ctx, &history, `
		SELECT id, user_id, amount, type, created_at
		FROM point_histories
		WHERE user_id = ?
		ORDER BY id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return history, nil
}
