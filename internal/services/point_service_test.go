package services

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go-points/internal/models"
	"go-points/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingBalanceStore struct {
	*store.MemoryBalanceStore
	upserts   atomic.Int64
	upsertErr error
}

func (s *countingBalanceStore) Upsert(ctx context.Context, userID int64, amount int64) (models.UserPoint, error) {
	if s.upsertErr != nil {
		return models.UserPoint{}, s.upsertErr
	}
	s.upserts.Add(1)
	return s.MemoryBalanceStore.Upsert(ctx, userID, amount)
}

type countingHistoryStore struct {
	*store.MemoryHistoryStore
	appends   atomic.Int64
	appendErr error
}

func (s *countingHistoryStore) Append(ctx context.Context, userID int64, amount int64, txType models.TransactionType, at time.Time) (models.PointHistory, error) {
	if s.appendErr != nil {
		return models.PointHistory{}, s.appendErr
	}
	s.appends.Add(1)
	return s.MemoryHistoryStore.Append(ctx, userID, amount, txType, at)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.PointEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event models.PointEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

type fixture struct {
	svc       *PointService
	balances  *countingBalanceStore
	histories *countingHistoryStore
	publisher *recordingPublisher
}

func newFixture() *fixture {
	f := &fixture{
		balances:  &countingBalanceStore{MemoryBalanceStore: store.NewMemoryBalanceStore()},
		histories: &countingHistoryStore{MemoryHistoryStore: store.NewMemoryHistoryStore()},
		publisher: &recordingPublisher{},
	}
	f.svc = NewPointService(f.balances, f.histories, f.publisher, zerolog.Nop())
	return f
}

func (f *fixture) mutations() int64 {
	return f.balances.upserts.Load() + f.histories.appends.Load()
}

func TestGetPoint_UnknownUser(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GetPoint(context.Background(), 1)
	require.ErrorIs(t, err, ErrInvalidUser)
}

func TestGetPoint_NegativeUserID(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GetPoint(context.Background(), -1)
	require.ErrorIs(t, err, ErrInvalidUser)

	_, err = f.svc.Charge(context.Background(), -1, 100)
	require.ErrorIs(t, err, ErrInvalidUser)
	assert.Zero(t, f.mutations())
}

func TestGetHistories_UnknownUser(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GetHistories(context.Background(), 1)
	require.ErrorIs(t, err, ErrInvalidUser)
}

func TestCharge_NonPositiveAmount(t *testing.T) {
	for _, amount := range []int64{0, -1, -5000, math.MinInt64} {
		f := newFixture()

		_, err := f.svc.Charge(context.Background(), 1, amount)
		require.ErrorIs(t, err, ErrInvalidAmount, "amount %d", amount)
		assert.Zero(t, f.mutations())
	}
}

func TestUse_NonPositiveAmount(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.Charge(ctx, 1, 1000)
	require.NoError(t, err)
	before := f.mutations()

	for _, amount := range []int64{0, -1, -1000} {
		_, err := f.svc.Use(ctx, 1, amount)
		require.ErrorIs(t, err, ErrInvalidAmount, "amount %d", amount)
	}
	assert.Equal(t, before, f.mutations())

	point, err := f.svc.GetPoint(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), point.Point)
}

func TestUse_InsufficientBalance(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.Charge(ctx, 1, 1000)
	require.NoError(t, err)

	_, err = f.svc.Use(ctx, 1, 2000)
	require.ErrorIs(t, err, ErrInsufficientBalance)

	point, err := f.svc.GetPoint(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), point.Point)

	history, err := f.svc.GetHistories(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestUse_UnknownUserHasNothingToSpend(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Use(context.Background(), 1, 1)
	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Zero(t, f.mutations())
}

func TestCharge_BalanceCapExceeded(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.Charge(ctx, 1, 9000)
	require.NoError(t, err)

	_, err = f.svc.Charge(ctx, 1, 1001)
	require.ErrorIs(t, err, ErrBalanceCapExceeded)

	point, err := f.svc.GetPoint(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(9000), point.Point)

	point, err = f.svc.Charge(ctx, 1, 1000)
	require.NoError(t, err)
	assert.Equal(t, MaxBalance, point.Point)
}

func TestCharge_HugeAmountDoesNotOverflow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.Charge(ctx, 1, 10)
	require.NoError(t, err)

	_, err = f.svc.Charge(ctx, 1, math.MaxInt64)
	require.ErrorIs(t, err, ErrBalanceCapExceeded)
}

func TestGetPoint_Idempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.Charge(ctx, 1, 300)
	require.NoError(t, err)

	first, err := f.svc.GetPoint(ctx, 1)
	require.NoError(t, err)
	second, err := f.svc.GetPoint(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCharge_RoundTrip(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	charged, err := f.svc.Charge(ctx, 1, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), charged.Point)

	point, err := f.svc.GetPoint(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), point.Point)

	history, err := f.svc.GetHistories(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.TransactionTypeCharge, history[0].Type)
	assert.Equal(t, int64(1000), history[0].Amount)
	assert.Equal(t, charged.UpdatedAt, history[0].CreatedAt)
}

func TestChargeThenUse_Sequencing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Charge(ctx, 1, 1000)
	require.NoError(t, err)
	used, err := f.svc.Use(ctx, 1, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(500), used.Point)

	point, err := f.svc.GetPoint(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(500), point.Point)

	history, err := f.svc.GetHistories(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.TransactionTypeCharge, history[0].Type)
	assert.Equal(t, models.TransactionTypeUse, history[1].Type)
	assert.Equal(t, int64(500), history[1].Amount)
	assert.Less(t, history[0].ID, history[1].ID)
}

func TestUse_ReturnsNewBalanceNotDelta(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.Charge(ctx, 1, 5000)
	require.NoError(t, err)

	used, err := f.svc.Use(ctx, 1, 1200)
	require.NoError(t, err)
	assert.Equal(t, int64(3800), used.Point)
	assert.Equal(t, int64(1), used.UserID)
}

func TestConcurrentUse_NoDoubleSpend(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.Charge(ctx, 1, 10000)
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		successes atomic.Int64
		rejected  atomic.Int64
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Use(ctx, 1, 2000)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, ErrInsufficientBalance):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	point, err := f.svc.GetPoint(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10000)-2000*successes.Load(), point.Point)
	assert.Equal(t, int64(5), successes.Load())
	assert.Equal(t, int64(95), rejected.Load())
	assert.Zero(t, point.Point)

	history, err := f.svc.GetHistories(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, history, 1+int(successes.Load()))
}

func TestConcurrentCharge_RespectsCap(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		successes atomic.Int64
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Charge(ctx, 1, 2000)
			if err == nil {
				successes.Add(1)
				return
			}
			if !errors.Is(err, ErrBalanceCapExceeded) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	point, err := f.svc.GetPoint(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2000*successes.Load(), point.Point)
	assert.Equal(t, MaxBalance, point.Point)

	history, err := f.svc.GetHistories(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, history, int(successes.Load()))
}

func TestConcurrentMixed_BalanceMatchesHistory(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = f.svc.Charge(ctx, 1, 700)
			} else {
				_, _ = f.svc.Use(ctx, 1, 300)
			}
		}(i)
	}
	wg.Wait()

	point, err := f.svc.GetPoint(ctx, 1)
	require.NoError(t, err)
	history, err := f.svc.GetHistories(ctx, 1)
	require.NoError(t, err)

	var sum int64
	for _, h := range history {
		if h.Type == models.TransactionTypeCharge {
			sum += h.Amount
		} else {
			sum -= h.Amount
		}
		require.GreaterOrEqual(t, sum, int64(0))
		require.LessOrEqual(t, sum, MaxBalance)
	}
	assert.Equal(t, sum, point.Point)
}

func TestConcurrentUsers_AreIndependent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	var wg sync.WaitGroup
	for user := int64(1); user <= 10; user++ {
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(user int64) {
				defer wg.Done()
				_, err := f.svc.Charge(ctx, user, 100)
				assert.NoError(t, err)
			}(user)
		}
	}
	wg.Wait()

	for user := int64(1); user <= 10; user++ {
		point, err := f.svc.GetPoint(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), point.Point)
	}
	assert.Zero(t, f.svc.locks.size())
}

func TestCharge_UpsertFailureSkipsHistory(t *testing.T) {
	f := newFixture()
	boom := errors.New("store unavailable")
	f.balances.upsertErr = boom

	_, err := f.svc.Charge(context.Background(), 1, 100)
	require.ErrorIs(t, err, boom)
	assert.Zero(t, f.histories.appends.Load())
	assert.Empty(t, f.publisher.events)
}

func TestCharge_HistoryFailureIsReturned(t *testing.T) {
	f := newFixture()
	boom := errors.New("history unavailable")
	f.histories.appendErr = boom

	_, err := f.svc.Charge(context.Background(), 1, 100)
	require.ErrorIs(t, err, boom)
	assert.Empty(t, f.publisher.events)
}

func TestCharge_PublishesEvent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	charged, err := f.svc.Charge(ctx, 4, 800)
	require.NoError(t, err)
	_, err = f.svc.Use(ctx, 4, 300)
	require.NoError(t, err)

	require.Len(t, f.publisher.events, 2)
	first := f.publisher.events[0]
	assert.Equal(t, int64(4), first.UserID)
	assert.Equal(t, int64(800), first.Amount)
	assert.Equal(t, int64(800), first.Balance)
	assert.Equal(t, models.TransactionTypeCharge, first.Type)
	assert.Equal(t, charged.UpdatedAt, first.CreatedAt)

	second := f.publisher.events[1]
	assert.Equal(t, models.TransactionTypeUse, second.Type)
	assert.Equal(t, int64(500), second.Balance)
}

func TestCharge_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.publisher.err = errors.New("nats down")

	point, err := f.svc.Charge(context.Background(), 1, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), point.Point)
}

func TestNewPointService_NilPublisher(t *testing.T) {
	svc := NewPointService(store.NewMemoryBalanceStore(), store.NewMemoryHistoryStore(), nil, zerolog.Nop())

	_, err := svc.Charge(context.Background(), 1, 100)
	require.NoError(t, err)
}
