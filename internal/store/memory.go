package store

import (
	"context"
	"sync"
	"time"

	"go-points/internal/models"
)

type MemoryBalanceStore struct {
	mu     sync.RWMutex
	points map[int64]models.UserPoint
	now    Clock
}

func NewMemoryBalanceStore() *MemoryBalanceStore {
	return &MemoryBalanceStore{
		points: make(map[int64]models.UserPoint),
		now:    systemClock,
	}
}

func (s *MemoryBalanceStore) WithClock(now Clock) *MemoryBalanceStore {
	s.now = now
	return s
}

func (s *MemoryBalanceStore) Get(ctx context.Context, userID int64) (models.UserPoint, error) {
	if err := ctx.Err(); err != nil {
		return models.UserPoint{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.points[userID]
	if !ok {
		return models.UserPoint{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryBalanceStore) Upsert(ctx context.Context, userID int64, amount int64) (models.UserPoint, error) {
	if err := ctx.Err(); err != nil {
		return models.UserPoint{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := models.UserPoint{
		UserID:    userID,
		Point:     amount,
		UpdatedAt: s.now(),
	}
	s.points[userID] = p
	return p, nil
}

type MemoryHistoryStore struct {
	mu      sync.RWMutex
	seq     int64
	entries []models.PointHistory
}

func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{}
}

func (s *MemoryHistoryStore) Append(ctx context.Context, userID int64, amount int64, txType models.TransactionType, at time.Time) (models.PointHistory, error) {
	if err := ctx.Err(); err != nil {
		return models.PointHistory{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	h := models.PointHistory{
		ID:        s.seq,
		UserID:    userID,
		Amount:    amount,
		Type:      txType,
		CreatedAt: at,
	}
	s.entries = append(s.entries, h)
	return h, nil
}

func (s *MemoryHistoryStore) ListByUser(ctx context.Context, userID int64) ([]models.PointHistory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make([]models.PointHistory, 0)
	for _, h := range s.entries {
		if h.UserID == userID {
			history = append(history, h)
		}
	}
	return history, nil
}
