package services

import (
	"context"
	"errors"
	"fmt"

	"go-points/internal/events"
	"go-points/internal/metrics"
	"go-points/internal/models"
	"go-points/internal/store"

	"github.com/rs/zerolog"
)

type PointService struct {
	balances  store.BalanceStore
	histories store.HistoryStore
	publisher events.Publisher
	locks     *userLocks
	logger    zerolog.Logger
}

func NewPointService(balances store.BalanceStore, histories store.HistoryStore, publisher events.Publisher, logger zerolog.Logger) *PointService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &PointService{
		balances:  balances,
		histories: histories,
		publisher: publisher,
		locks:     newUserLocks(),
		logger:    logger,
	}
}

func (s *PointService) GetPoint(ctx context.Context, userID int64) (*models.UserPoint, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	unlock := s.locks.RLock(userID)
	defer unlock()

	point, err := s.balances.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidUser
	}
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Error fetching point")
		return nil, fmt.Errorf("failed to fetch point: %w", err)
	}

	return &point, nil
}

func (s *PointService) GetHistories(ctx context.Context, userID int64) ([]models.PointHistory, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	unlock := s.locks.RLock(userID)
	defer unlock()

	if _, err := s.balances.Get(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidUser
		}
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Error fetching point")
		return nil, fmt.Errorf("failed to fetch point: %w", err)
	}

	history, err := s.histories.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Error fetching point histories")
		return nil, fmt.Errorf("failed to fetch point histories: %w", err)
	}

	return history, nil
}

func (s *PointService) Charge(ctx context.Context, userID, amount int64) (*models.UserPoint, error) {
	return s.apply(ctx, userID, amount, models.TransactionTypeCharge)
}

func (s *PointService) Use(ctx context.Context, userID, amount int64) (*models.UserPoint, error) {
	return s.apply(ctx, userID, amount, models.TransactionTypeUse)
}

func (s *PointService) apply(ctx context.Context, userID, amount int64, txType models.TransactionType) (*models.UserPoint, error) {
	operation := operationName(txType)

	point, history, err := s.mutate(ctx, userID, amount, txType)
	metrics.RecordPointOperation(operation, resultLabel(err))
	if err != nil {
		if isRejection(err) {
			s.logger.Debug().
				Err(err).
				Str("operation", operation).
				Int64("user_id", userID).
				Int64("amount", amount).
				Msg("Point operation rejected")
		}
		return nil, err
	}

	metrics.RecordPointAmount(string(txType), amount)

	s.logger.Info().
		Str("operation", operation).
		Int64("user_id", userID).
		Int64("amount", amount).
		Int64("point", point.Point).
		Int64("history_id", history.ID).
		Msg("Point updated successfully")

	event := models.PointEvent{
		HistoryID: history.ID,
		UserID:    userID,
		Amount:    amount,
		Balance:   point.Point,
		Type:      txType,
		CreatedAt: history.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Int64("history_id", history.ID).Msg("Failed to publish point event (non-critical)")
	}

	return &point, nil
}

// mutate runs read, validate, upsert and append for one user under that
// user's exclusive lock. Nothing is written when validation fails.
func (s *PointService) mutate(ctx context.Context, userID, amount int64, txType models.TransactionType) (models.UserPoint, models.PointHistory, error) {
	if err := validateUserID(userID); err != nil {
		return models.UserPoint{}, models.PointHistory{}, err
	}
	if err := validateAmount(amount); err != nil {
		return models.UserPoint{}, models.PointHistory{}, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	current, err := s.currentPoint(ctx, userID)
	if err != nil {
		return models.UserPoint{}, models.PointHistory{}, err
	}

	var next int64
	switch txType {
	case models.TransactionTypeCharge:
		if err := validateCharge(current, amount); err != nil {
			return models.UserPoint{}, models.PointHistory{}, err
		}
		next = current + amount
	case models.TransactionTypeUse:
		if err := validateUse(current, amount); err != nil {
			return models.UserPoint{}, models.PointHistory{}, err
		}
		next = current - amount
	default:
		return models.UserPoint{}, models.PointHistory{}, fmt.Errorf("unknown transaction type %q", txType)
	}

	updated, err := s.balances.Upsert(ctx, userID, next)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Error updating point")
		return models.UserPoint{}, models.PointHistory{}, fmt.Errorf("failed to update point: %w", err)
	}

	history, err := s.histories.Append(ctx, userID, amount, txType, updated.UpdatedAt)
	if err != nil {
		// the balance is already written; there is no compensation step
		s.logger.Error().
			Err(err).
			Int64("user_id", userID).
			Int64("amount", amount).
			Int64("point", updated.Point).
			Str("type", string(txType)).
			Msg("Point updated but history append failed")
		return models.UserPoint{}, models.PointHistory{}, fmt.Errorf("failed to record point history: %w", err)
	}

	return updated, history, nil
}

// currentPoint treats a user without a record as holding zero points.
func (s *PointService) currentPoint(ctx context.Context, userID int64) (int64, error) {
	point, err := s.balances.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Error fetching point")
		return 0, fmt.Errorf("failed to fetch point: %w", err)
	}
	return point.Point, nil
}

func operationName(txType models.TransactionType) string {
	if txType == models.TransactionTypeUse {
		return "use"
	}
	return "charge"
}
