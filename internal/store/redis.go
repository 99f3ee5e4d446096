package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go-points/internal/models"

	"github.com/redis/go-redis/v9"
)

const historySeqKey = "point:history:seq"

func balanceKey(userID int64) string {
	return fmt.Sprintf("point:balance:%d", userID)
}

func historyKey(userID int64) string {
	return fmt.Sprintf("point:history:%d", userID)
}

// RedisBalanceStore keeps one hash per user with the point and the
// update time in unix milliseconds.
type RedisBalanceStore struct {
	rdb *redis.Client
	now Clock
}

func NewRedisBalanceStore(rdb *redis.Client) *RedisBalanceStore {
	return &RedisBalanceStore{rdb: rdb, now: systemClock}
}

func (s *RedisBalanceStore) WithClock(now Clock) *RedisBalanceStore {
	s.now = now
	return s
}

func (s *RedisBalanceStore) Get(ctx context.Context, userID int64) (models.UserPoint, error) {
	fields, err := s.rdb.HGetAll(ctx, balanceKey(userID)).Result()
	if err != nil {
		return models.UserPoint{}, fmt.Errorf("redis error: %w", err)
	}
	if len(fields) == 0 {
		return models.UserPoint{}, ErrNotFound
	}

	point, err := strconv.ParseInt(fields["point"], 10, 64)
	if err != nil {
		return models.UserPoint{}, fmt.Errorf("corrupt point for user %d: %w", userID, err)
	}
	updatedAt, err := strconv.ParseInt(fields["updated_at"], 10, 64)
	if err != nil {
		return models.UserPoint{}, fmt.Errorf("corrupt updated_at for user %d: %w", userID, err)
	}

	return models.UserPoint{
		UserID:    userID,
		Point:     point,
		UpdatedAt: time.UnixMilli(updatedAt).UTC(),
	}, nil
}

func (s *RedisBalanceStore) Upsert(ctx context.Context, userID int64, amount int64) (models.UserPoint, error) {
	now := s.now()
	err := s.rdb.HSet(ctx, balanceKey(userID), "point", amount, "updated_at", now.UnixMilli()).Err()
	if err != nil {
		return models.UserPoint{}, fmt.Errorf("failed to save point to redis: %w", err)
	}

	return models.UserPoint{
		UserID:    userID,
		Point:     amount,
		UpdatedAt: now,
	}, nil
}

// RedisHistoryStore draws ids from a global INCR sequence and keeps one
// list per user in append order.
type RedisHistoryStore struct {
	rdb *redis.Client
}

func NewRedisHistoryStore(rdb *redis.Client) *RedisHistoryStore {
	return &RedisHistoryStore{rdb: rdb}
}

func (s *RedisHistoryStore) Append(ctx context.Context, userID int64, amount int64, txType models.TransactionType, at time.Time) (models.PointHistory, error) {
	id, err := s.rdb.Incr(ctx, historySeqKey).Result()
	if err != nil {
		return models.PointHistory{}, fmt.Errorf("failed to allocate history id: %w", err)
	}

	h := models.PointHistory{
		ID:        id,
		UserID:    userID,
		Amount:    amount,
		Type:      txType,
		CreatedAt: at,
	}
	data, err := json.Marshal(h)
	if err != nil {
		return models.PointHistory{}, fmt.Errorf("failed to encode point history: %w", err)
	}

	if err := s.rdb.RPush(ctx, historyKey(userID), string(data)).Err(); err != nil {
		return models.PointHistory{}, fmt.Errorf("failed to append point history: %w", err)
	}
	return h, nil
}

func (s *RedisHistoryStore) ListByUser(ctx context.Context, userID int64) ([]models.PointHistory, error) {
	raw, err := s.rdb.LRange(ctx, historyKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}

	history := make([]models.PointHistory, 0, len(raw))
	for _, item := range raw {
		var h models.PointHistory
		if err := json.Unmarshal([]byte(item), &h); err != nil {
			return nil, fmt.Errorf("error decoding point history: %w", err)
		}
		history = append(history, h)
	}
	return history, nil
}
