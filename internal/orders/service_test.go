package orders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkdir-username/etlon-coffee/internal/domain/models"
	xerrors "github.com/mkdir-username/etlon-coffee/internal/xpkg/errors"
	"github.com/mkdir-username/etlon-coffee/internal/xpkg/logger"
)

type fakeStore struct {
	orders map[int64]models.Order
}

func newFakeStore(orders ...models.Order) *fakeStore {
	s := &fakeStore{orders: make(map[int64]models.Order)}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	return s
}

func (s *fakeStore) Get(ctx context.Context, orderID int64) (models.Order, error) {
	o, ok := s.orders[orderID]
	if !ok {
		return models.Order{}, xerrors.ErrOrderNotFound
	}
	return o, nil
}

func (s *fakeStore) UpdateStatus(ctx context.Context, orderID int64, status models.OrderStatus) (models.Order, error) {
	o, ok := s.orders[orderID]
	if !ok {
		return models.Order{}, xerrors.ErrOrderNotFound
	}
	o.Status = status
	s.orders[orderID] = o
	return o, nil
}

func (s *fakeStore) CancelByClient(ctx context.Context, orderID, userID int64) error {
	o, ok := s.orders[orderID]
	if !ok {
		return xerrors.ErrOrderNotFound
	}
	if err := cancelGuard(o.UserID, userID, o.Status); err != nil {
		return err
	}
	o.Status = models.StatusCancelled
	s.orders[orderID] = o
	return nil
}

type fakeLedger struct {
	refunds map[int64]int64 // orderID -> amount
	calls   []int64
}

func (l *fakeLedger) Refund(ctx context.Context, userID, orderID int64) (int64, error) {
	l.calls = append(l.calls, orderID)
	return l.refunds[orderID], nil
}

type fakeNotifier struct {
	userMsgs  map[int64][]string
	staffMsgs []string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{userMsgs: make(map[int64][]string)}
}

func (n *fakeNotifier) NotifyUser(ctx context.Context, userID int64, text string) {
	n.userMsgs[userID] = append(n.userMsgs[userID], text)
}

func (n *fakeNotifier) NotifyStaff(ctx context.Context, text string) {
	n.staffMsgs = append(n.staffMsgs, text)
}

func newTestService(store *fakeStore) (*Service, *fakeLedger, *fakeNotifier) {
	ledger := &fakeLedger{refunds: make(map[int64]int64)}
	notifier := newFakeNotifier()
	return NewService(store, ledger, notifier, logger.New("orders-test", "error")), ledger, notifier
}

func TestAdvanceStatusLegalChain(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(models.Order{ID: 1, UserID: 10, Status: models.StatusConfirmed})
	svc, _, _ := newTestService(store)

	for _, next := range []models.OrderStatus{
		models.StatusPreparing, models.StatusReady, models.StatusCompleted,
	} {
		updated, err := svc.AdvanceStatus(ctx, 1, next)
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
	}
}

func TestAdvanceStatusRejectsIllegalJump(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(models.Order{ID: 1, UserID: 10, Status: models.StatusConfirmed})
	svc, _, _ := newTestService(store)

	_, err := svc.AdvanceStatus(ctx, 1, models.StatusCompleted)
	assert.ErrorIs(t, err, xerrors.ErrIllegalStatus)
	assert.Equal(t, models.StatusConfirmed, store.orders[1].Status, "status must not mutate")

	_, err = svc.AdvanceStatus(ctx, 1, models.OrderStatus("bogus"))
	assert.ErrorIs(t, err, xerrors.ErrIllegalStatus)
}

func TestAdvanceStatusNotifiesOnReady(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(models.Order{ID: 1, UserID: 10, Status: models.StatusPreparing})
	svc, _, notifier := newTestService(store)

	_, err := svc.AdvanceStatus(ctx, 1, models.StatusReady)
	require.NoError(t, err)
	require.Len(t, notifier.userMsgs[10], 1)
	assert.Contains(t, notifier.userMsgs[10][0], "готов")
}

func TestAdvanceStatusRefundsOnCancellation(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(models.Order{ID: 1, UserID: 10, Status: models.StatusConfirmed})
	svc, ledger, notifier := newTestService(store)
	ledger.refunds[1] = 90

	updated, err := svc.AdvanceStatus(ctx, 1, models.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, updated.Status)
	assert.Equal(t, []int64{1}, ledger.calls, "staff cancellation must reverse the redemption")
	require.Len(t, notifier.userMsgs[10], 1)
	assert.Contains(t, notifier.userMsgs[10][0], "отменён")
}

func TestCancelByClientHappyPath(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(models.Order{ID: 1, UserID: 10, Status: models.StatusConfirmed})
	svc, ledger, notifier := newTestService(store)
	ledger.refunds[1] = 60

	refunded, err := svc.CancelByClient(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(60), refunded)
	assert.Equal(t, models.StatusCancelled, store.orders[1].Status)
	assert.Equal(t, []int64{1}, ledger.calls)
	require.Len(t, notifier.staffMsgs, 1)
	assert.Contains(t, notifier.staffMsgs[0], "отменён")
}

func TestCancelByClientGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown order", func(t *testing.T) {
		svc, ledger, _ := newTestService(newFakeStore())
		_, err := svc.CancelByClient(ctx, 99, 10)
		assert.ErrorIs(t, err, xerrors.ErrOrderNotFound)
		assert.Empty(t, ledger.calls, "failed cancel must not refund")
	})

	t.Run("wrong owner reports not found", func(t *testing.T) {
		store := newFakeStore(models.Order{ID: 1, UserID: 10, Status: models.StatusConfirmed})
		svc, _, _ := newTestService(store)
		_, err := svc.CancelByClient(ctx, 1, 11)
		assert.ErrorIs(t, err, xerrors.ErrOrderNotFound)
		assert.Equal(t, models.StatusConfirmed, store.orders[1].Status)
	})

	t.Run("already in progress", func(t *testing.T) {
		store := newFakeStore(models.Order{ID: 1, UserID: 10, Status: models.StatusPreparing})
		svc, ledger, _ := newTestService(store)
		_, err := svc.CancelByClient(ctx, 1, 10)
		assert.ErrorIs(t, err, xerrors.ErrOrderInProgress)
		assert.Equal(t, models.StatusPreparing, store.orders[1].Status)
		assert.Empty(t, ledger.calls)
	})
}
