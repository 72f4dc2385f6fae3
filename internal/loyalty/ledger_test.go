package loyalty

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkdir-username/etlon-coffee/internal/domain/models"
	"github.com/mkdir-username/etlon-coffee/internal/xpkg/logger"
)

// memoryStore implements Store and Tx over maps. The mutex stands in for
// the row lock the Postgres store takes with FOR UPDATE.
type memoryStore struct {
	mu       sync.Mutex
	accounts map[int64]models.LoyaltyAccount
	history  []models.PointsHistoryEntry
	nextID   int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{accounts: make(map[int64]models.LoyaltyAccount), nextID: 1}
}

func (s *memoryStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshotAccounts := make(map[int64]models.LoyaltyAccount, len(s.accounts))
	for k, v := range s.accounts {
		snapshotAccounts[k] = v
	}
	snapshotHistory := make([]models.PointsHistoryEntry, len(s.history))
	copy(snapshotHistory, s.history)

	if err := fn(s); err != nil {
		s.accounts = snapshotAccounts
		s.history = snapshotHistory
		return err
	}
	return nil
}

func (s *memoryStore) History(ctx context.Context, userID int64, limit int) ([]models.PointsHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.PointsHistoryEntry
	for i := len(s.history) - 1; i >= 0 && len(out) < limit; i-- {
		if s.history[i].UserID == userID {
			out = append(out, s.history[i])
		}
	}
	return out, nil
}

func (s *memoryStore) Account(ctx context.Context, userID int64) (models.LoyaltyAccount, bool, error) {
	acc, ok := s.accounts[userID]
	return acc, ok, nil
}

func (s *memoryStore) CreateAccount(ctx context.Context, userID int64) (models.LoyaltyAccount, error) {
	// upsert semantics: a concurrently inserted row wins and comes back live
	if acc, ok := s.accounts[userID]; ok {
		return acc, nil
	}
	acc := models.LoyaltyAccount{UserID: userID}
	s.accounts[userID] = acc
	return acc, nil
}

func (s *memoryStore) SaveAccount(ctx context.Context, acc models.LoyaltyAccount) error {
	s.accounts[acc.UserID] = acc
	return nil
}

func (s *memoryStore) AppendHistory(ctx context.Context, entry models.PointsHistoryEntry) error {
	entry.ID = s.nextID
	s.nextID++
	entry.CreatedAt = time.Now()
	s.history = append(s.history, entry)
	return nil
}

func (s *memoryStore) UnrefundedRedemption(ctx context.Context, userID, orderID int64) (models.PointsHistoryEntry, bool, error) {
	for i := len(s.history) - 1; i >= 0; i-- {
		e := s.history[i]
		if e.UserID == userID && e.OrderID == orderID && e.Operation == models.OpRedemption && !e.Refunded {
			return e, true, nil
		}
	}
	return models.PointsHistoryEntry{}, false, nil
}

func (s *memoryStore) MarkRefunded(ctx context.Context, entryID int64) error {
	for i := range s.history {
		if s.history[i].ID == entryID {
			s.history[i].Refunded = true
		}
	}
	return nil
}

func newTestLedger() (*Ledger, *memoryStore) {
	store := newMemoryStore()
	return NewLedger(store, logger.New("loyalty-test", "error")), store
}

func TestGetOrCreate(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger()

	acc, err := ledger.GetOrCreate(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), acc.UserID)
	assert.Zero(t, acc.Points)
	assert.Zero(t, acc.Stamps)

	// second call returns the same row
	again, err := ledger.GetOrCreate(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, acc, again)
}

func TestAccrue(t *testing.T) {
	ctx := context.Background()
	ledger, store := newTestLedger()

	earned, err := ledger.Accrue(ctx, 42, 560, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(25), earned)

	acc, _ := ledger.GetOrCreate(ctx, 42)
	assert.Equal(t, int64(25), acc.Points)
	assert.Equal(t, int64(1), acc.TotalOrders)
	assert.Equal(t, int64(560), acc.TotalSpent)

	history, err := ledger.History(ctx, 42, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.OpAccrual, history[0].Operation)
	assert.Equal(t, int64(25), history[0].Amount)
	assert.Equal(t, int64(1), history[0].OrderID)

	_ = store
}

func TestAccrueBelowHundredIsNoOp(t *testing.T) {
	ctx := context.Background()
	ledger, store := newTestLedger()

	earned, err := ledger.Accrue(ctx, 42, 99, 1)
	require.NoError(t, err)
	assert.Zero(t, earned)

	// no account row, no history noise
	assert.Empty(t, store.accounts)
	assert.Empty(t, store.history)
}

// staleReadStore reports the first Account lookup as a miss, simulating the
// window where another transaction inserts the row between our read and our
// insert. CreateAccount must then come back with the winner's balances, not
// a zero-value account.
type staleReadStore struct {
	*memoryStore
	missed bool
}

func (s *staleReadStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.memoryStore.InTx(ctx, func(Tx) error { return fn(s) })
}

func (s *staleReadStore) Account(ctx context.Context, userID int64) (models.LoyaltyAccount, bool, error) {
	if !s.missed {
		s.missed = true
		return models.LoyaltyAccount{}, false, nil
	}
	return s.memoryStore.Account(ctx, userID)
}

func TestAccrueAfterLostInsertRace(t *testing.T) {
	ctx := context.Background()
	store := &staleReadStore{memoryStore: newMemoryStore()}
	store.accounts[42] = models.LoyaltyAccount{UserID: 42, Points: 25, TotalOrders: 1, TotalSpent: 500}
	ledger := NewLedger(store, logger.New("loyalty-test", "error"))

	earned, err := ledger.Accrue(ctx, 42, 560, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(25), earned)

	acc := store.accounts[42]
	assert.Equal(t, int64(50), acc.Points, "existing balance must survive the insert conflict")
	assert.Equal(t, int64(2), acc.TotalOrders)
	assert.Equal(t, int64(1060), acc.TotalSpent)
}

func TestIncrementStampThreshold(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger()

	for i := 1; i <= 5; i++ {
		count, free, err := ledger.IncrementStamp(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, i, count)
		assert.False(t, free, "free drink must not trigger before the 6th stamp")
	}

	count, free, err := ledger.IncrementStamp(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 6, count)
	assert.True(t, free)

	// not auto-reset
	count, free, err = ledger.IncrementStamp(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 7, count)
	assert.True(t, free)
}

func TestUseFreeDrink(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger()

	ok, err := ledger.UseFreeDrink(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok, "no stamps yet")

	for i := 0; i < 6; i++ {
		_, _, err := ledger.IncrementStamp(ctx, 42)
		require.NoError(t, err)
	}

	ok, err = ledger.UseFreeDrink(ctx, 42)
	require.NoError(t, err)
	assert.True(t, ok)

	acc, _ := ledger.GetOrCreate(ctx, 42)
	assert.Zero(t, acc.Stamps, "stamps reset after free drink")

	ok, err = ledger.UseFreeDrink(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok, "counter already spent")
}

func TestRedeem(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger()

	// balance 25
	_, err := ledger.Accrue(ctx, 42, 560, 1)
	require.NoError(t, err)

	ok, err := ledger.Redeem(ctx, 42, 0, 2)
	require.NoError(t, err)
	assert.False(t, ok, "non-positive amount")

	ok, err = ledger.Redeem(ctx, 42, 100, 2)
	require.NoError(t, err)
	assert.False(t, ok, "insufficient balance")

	acc, _ := ledger.GetOrCreate(ctx, 42)
	assert.Equal(t, int64(25), acc.Points, "failed redeem must not mutate")

	ok, err = ledger.Redeem(ctx, 42, 20, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	acc, _ = ledger.GetOrCreate(ctx, 42)
	assert.Equal(t, int64(5), acc.Points)

	history, _ := ledger.History(ctx, 42, 1)
	require.Len(t, history, 1)
	assert.Equal(t, models.OpRedemption, history[0].Operation)
	assert.Equal(t, int64(-20), history[0].Amount)
	assert.Equal(t, int64(2), history[0].OrderID)
}

func TestRedeemRefundRoundTrip(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger()

	_, err := ledger.Accrue(ctx, 42, 2000, 1) // 100 points
	require.NoError(t, err)

	ok, err := ledger.Redeem(ctx, 42, 60, 2)
	require.NoError(t, err)
	require.True(t, ok)

	refunded, err := ledger.Refund(ctx, 42, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(60), refunded)

	acc, _ := ledger.GetOrCreate(ctx, 42)
	assert.Equal(t, int64(100), acc.Points, "balance back to pre-redeem value")

	history, _ := ledger.History(ctx, 42, 1)
	require.Len(t, history, 1)
	assert.Equal(t, models.OpRefund, history[0].Operation)
	assert.Equal(t, int64(60), history[0].Amount)
}

func TestRefundWithoutRedemptionIsNoOp(t *testing.T) {
	ctx := context.Background()
	ledger, store := newTestLedger()

	refunded, err := ledger.Refund(ctx, 42, 7)
	require.NoError(t, err)
	assert.Zero(t, refunded)
	assert.Empty(t, store.history)
}

func TestRefundIsIdempotentPerOrder(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger()

	_, err := ledger.Accrue(ctx, 42, 2000, 1)
	require.NoError(t, err)
	ok, err := ledger.Redeem(ctx, 42, 60, 2)
	require.NoError(t, err)
	require.True(t, ok)

	first, err := ledger.Refund(ctx, 42, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(60), first)

	second, err := ledger.Refund(ctx, 42, 2)
	require.NoError(t, err)
	assert.Zero(t, second, "redemption already marked refunded")

	acc, _ := ledger.GetOrCreate(ctx, 42)
	assert.Equal(t, int64(100), acc.Points, "no double refund")
}

func TestEndToEndLedgerScenario(t *testing.T) {
	// user with balance 200 places a 560 order and redeems 100:
	// 200 - 100 + floor(560/100)*5 = 125
	ctx := context.Background()
	ledger, store := newTestLedger()

	_, err := ledger.GetOrCreate(ctx, 42)
	require.NoError(t, err)
	acc := store.accounts[42]
	acc.Points = 200
	store.accounts[42] = acc

	ok, err := ledger.Redeem(ctx, 42, 100, 9)
	require.NoError(t, err)
	require.True(t, ok)

	earned, err := ledger.Accrue(ctx, 42, 560, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(25), earned)

	stamps, _, err := ledger.IncrementStamp(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 1, stamps)

	final, _ := ledger.GetOrCreate(ctx, 42)
	assert.Equal(t, int64(125), final.Points)
}
