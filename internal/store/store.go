package store

import (
	"context"
	"errors"
	"time"

	"go-points/internal/models"
)

var ErrNotFound = errors.New("point record not found")

// BalanceStore keeps the current point balance per user. Get and Upsert are
// each atomic for a single user id; callers serialize read-modify-write.
type BalanceStore interface {
	Get(ctx context.Context, userID int64) (models.UserPoint, error)
	Upsert(ctx context.Context, userID int64, amount int64) (models.UserPoint, error)
}

// HistoryStore is an append-only log of point transactions.
type HistoryStore interface {
	Append(ctx context.Context, userID int64, amount int64, txType models.TransactionType, at time.Time) (models.PointHistory, error)
	ListByUser(ctx context.Context, userID int64) ([]models.PointHistory, error)
}

type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

var (
	_ BalanceStore = (*MemoryBalanceStore)(nil)
	_ BalanceStore = (*MySQLBalanceStore)(nil)
	_ BalanceStore = (*RedisBalanceStore)(nil)
	_ HistoryStore = (*MemoryHistoryStore)(nil)
	_ HistoryStore = (*MySQLHistoryStore)(nil)
	_ HistoryStore = (*RedisHistoryStore)(nil)
)
