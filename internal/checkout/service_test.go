package checkout

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkdir-username/etlon-coffee/internal/domain/models"
	"github.com/mkdir-username/etlon-coffee/internal/session"
	xerrors "github.com/mkdir-username/etlon-coffee/internal/xpkg/errors"
	"github.com/mkdir-username/etlon-coffee/internal/xpkg/logger"
)

type fakeCatalog struct {
	items     map[int64]models.MenuItem
	sizes     map[int64][]models.SizeOption
	modifiers map[int64][]models.Modifier
}

func (c *fakeCatalog) GetItem(_ context.Context, id int64) (models.MenuItem, error) {
	item, ok := c.items[id]
	if !ok {
		return models.MenuItem{}, xerrors.ErrMenuItemNotFound
	}
	return item, nil
}

func (c *fakeCatalog) SizesFor(_ context.Context, id int64) ([]models.SizeOption, error) {
	return c.sizes[id], nil
}

func (c *fakeCatalog) ModifiersFor(_ context.Context, id int64) ([]models.Modifier, error) {
	return c.modifiers[id], nil
}

func (c *fakeCatalog) ModifiersByIDs(_ context.Context, ids []int64) ([]models.Modifier, error) {
	var out []models.Modifier
	for _, mods := range c.modifiers {
		for _, m := range mods {
			for _, id := range ids {
				if m.ID == id {
					out = append(out, m)
				}
			}
		}
	}
	return out, nil
}

type fakeOrders struct {
	nextID  int64
	created []models.Order
	fail    bool
}

func (o *fakeOrders) Create(_ context.Context, userID int64, userName string, items []models.OrderItem, pickupTime string) (models.Order, error) {
	if o.fail {
		return models.Order{}, errors.New("db down")
	}
	o.nextID++
	var total int64
	for _, it := range items {
		total += it.Price * int64(it.Quantity)
	}
	order := models.Order{
		ID:         o.nextID,
		UserID:     userID,
		UserName:   userName,
		Items:      items,
		Total:      total,
		PickupTime: pickupTime,
		Status:     models.StatusConfirmed,
	}
	o.created = append(o.created, order)
	return order, nil
}

type fakeLedger struct {
	points     int64
	stamps     int
	redeemed   []int64
	accrued    []int64
	redeemFail bool
}

func (l *fakeLedger) GetOrCreate(_ context.Context, userID int64) (models.LoyaltyAccount, error) {
	return models.LoyaltyAccount{UserID: userID, Points: l.points, Stamps: l.stamps}, nil
}

func (l *fakeLedger) Accrue(_ context.Context, _, orderTotal, _ int64) (int64, error) {
	earned := orderTotal / 100 * 5
	l.points += earned
	l.accrued = append(l.accrued, earned)
	return earned, nil
}

func (l *fakeLedger) IncrementStamp(_ context.Context, _ int64) (int, bool, error) {
	l.stamps++
	return l.stamps, l.stamps >= 6, nil
}

func (l *fakeLedger) Redeem(_ context.Context, _, amount, _ int64) (bool, error) {
	if l.redeemFail {
		return false, errors.New("conflict")
	}
	if amount <= 0 || amount > l.points {
		return false, nil
	}
	l.points -= amount
	l.redeemed = append(l.redeemed, amount)
	return true, nil
}

type fakeNotifier struct {
	staff []string
}

func (n *fakeNotifier) NotifyStaff(_ context.Context, text string) {
	n.staff = append(n.staff, text)
}

func newTestService(t *testing.T) (*Service, *fakeCatalog, *fakeOrders, *fakeLedger, *fakeNotifier) {
	t.Helper()
	catalog := &fakeCatalog{
		items: map[int64]models.MenuItem{
			1: {ID: 1, Name: "Капучино", Price: 220, Available: true},
			2: {ID: 2, Name: "Эспрессо", Price: 150, Available: true},
			3: {ID: 3, Name: "Раф", Price: 280, Available: false},
		},
		sizes: map[int64][]models.SizeOption{
			1: {
				{ID: 1, MenuItemID: 1, Size: "s", SizeName: "Маленький", PriceDiff: 0},
				{ID: 2, MenuItemID: 1, Size: "m", SizeName: "Средний", PriceDiff: 40},
				{ID: 3, MenuItemID: 1, Size: "l", SizeName: "Большой", PriceDiff: 80},
			},
		},
		modifiers: map[int64][]models.Modifier{
			1: {
				{ID: 10, Name: "Сироп ваниль", Price: 50, Available: true},
				{ID: 11, Name: "Овсяное молоко", Price: 60, Available: true},
			},
		},
	}
	orders := &fakeOrders{}
	ledger := &fakeLedger{}
	notifier := &fakeNotifier{}
	svc := NewService(session.NewMemoryStore(), catalog, orders, ledger, notifier,
		logger.New("checkout-test", "error"))
	return svc, catalog, orders, ledger, notifier
}

func testKey() session.Key { return session.Key{UserID: 42, ChatID: 42} }

// addConfigured walks item 1 through size M and vanilla syrup into the cart.
func addConfigured(t *testing.T, svc *Service, key session.Key) {
	t.Helper()
	ctx := context.Background()

	sel, err := svc.SelectItem(ctx, key, 1)
	require.NoError(t, err)
	require.Equal(t, StageSize, sel.Stage)

	sel, err = svc.ChooseSize(ctx, key, "m")
	require.NoError(t, err)
	require.Equal(t, StageModifiers, sel.Stage)

	_, err = svc.ToggleModifier(ctx, key, 10)
	require.NoError(t, err)

	sel, err = svc.FinishModifiers(ctx, key)
	require.NoError(t, err)
	require.Equal(t, StageAdded, sel.Stage)
}

func TestSelectItemUnavailable(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	ctx := context.Background()
	key := testKey()

	_, err := svc.SelectItem(ctx, key, 3)
	assert.ErrorIs(t, err, xerrors.ErrItemUnavailable)

	_, err = svc.SelectItem(ctx, key, 999)
	assert.ErrorIs(t, err, xerrors.ErrItemUnavailable)

	sess, err := svc.Session(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, session.StateBrowsing, sess.State)
	assert.Empty(t, sess.Cart)
}

func TestConfiguredLinePrice(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	key := testKey()

	addConfigured(t, svc, key)

	sess, err := svc.Session(context.Background(), key)
	require.NoError(t, err)
	require.Len(t, sess.Cart, 1)
	line := sess.Cart[0]
	assert.Equal(t, int64(310), line.Price) // 220 base + 40 size + 50 syrup
	assert.Equal(t, "Средний", line.SizeName)
	assert.Equal(t, []int64{10}, line.ModifierIDs)
	assert.Equal(t, 1, line.Quantity)
}

func TestCartMergesIdenticalConfigurations(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	key := testKey()

	addConfigured(t, svc, key)
	addConfigured(t, svc, key)

	sess, err := svc.Session(context.Background(), key)
	require.NoError(t, err)
	require.Len(t, sess.Cart, 1)
	assert.Equal(t, 2, sess.Cart[0].Quantity)
	assert.Equal(t, int64(620), models.CartTotal(sess.Cart))
}

func TestDifferentSizesStaySeparate(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	ctx := context.Background()
	key := testKey()

	addConfigured(t, svc, key)

	_, err := svc.SelectItem(ctx, key, 1)
	require.NoError(t, err)
	_, err = svc.ChooseSize(ctx, key, "l")
	require.NoError(t, err)
	_, err = svc.ToggleModifier(ctx, key, 10)
	require.NoError(t, err)
	_, err = svc.FinishModifiers(ctx, key)
	require.NoError(t, err)

	sess, err := svc.Session(ctx, key)
	require.NoError(t, err)
	assert.Len(t, sess.Cart, 2)
}

func TestToggleModifierRecomputesRunningTotal(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	ctx := context.Background()
	key := testKey()

	_, err := svc.SelectItem(ctx, key, 1)
	require.NoError(t, err)
	_, err = svc.ChooseSize(ctx, key, "m")
	require.NoError(t, err)

	sel, err := svc.ToggleModifier(ctx, key, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(310), sel.RunningTotal)

	sel, err = svc.ToggleModifier(ctx, key, 11)
	require.NoError(t, err)
	assert.Equal(t, int64(370), sel.RunningTotal)

	// toggling off again
	sel, err = svc.ToggleModifier(ctx, key, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(320), sel.RunningTotal)

	_, err = svc.ToggleModifier(ctx, key, 999)
	assert.ErrorIs(t, err, xerrors.ErrModifierNotOffered)
}

func TestChooseSizeRejectsUnknown(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	ctx := context.Background()
	key := testKey()

	_, err := svc.SelectItem(ctx, key, 1)
	require.NoError(t, err)
	_, err = svc.ChooseSize(ctx, key, "xxl")
	assert.ErrorIs(t, err, xerrors.ErrSizeUnavailable)

	sess, err := svc.Session(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, session.StateSelectingSize, sess.State)
}

func TestPlainItemGoesStraightToCart(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	ctx := context.Background()
	key := testKey()

	sel, err := svc.SelectItem(ctx, key, 2)
	require.NoError(t, err)
	assert.Equal(t, StageAdded, sel.Stage)
	require.Len(t, sel.Session.Cart, 1)
	assert.Equal(t, int64(150), sel.Session.Cart[0].Price)
	assert.Equal(t, session.StateBrowsing, sel.Session.State)
}

func TestWrongStateGuards(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	ctx := context.Background()
	key := testKey()

	// browsing session: size/modifier/bonus/confirm steps are all illegal
	_, err := svc.ChooseSize(ctx, key, "m")
	assert.ErrorIs(t, err, xerrors.ErrWrongState)
	_, err = svc.ToggleModifier(ctx, key, 10)
	assert.ErrorIs(t, err, xerrors.ErrWrongState)
	_, err = svc.FinishModifiers(ctx, key)
	assert.ErrorIs(t, err, xerrors.ErrWrongState)
	_, err = svc.ChoosePickupTime(ctx, key, "через 15 мин")
	assert.ErrorIs(t, err, xerrors.ErrWrongState)
	_, err = svc.ApplyBonus(ctx, key, 10)
	assert.ErrorIs(t, err, xerrors.ErrWrongState)
	_, err = svc.Confirm(ctx, key, "user")
	assert.ErrorIs(t, err, xerrors.ErrWrongState)
	_, err = svc.SetComment(ctx, key, "hot")
	assert.ErrorIs(t, err, xerrors.ErrWrongState)
}

func TestBeginCheckoutEmptyCart(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	_, err := svc.BeginCheckout(context.Background(), testKey())
	assert.ErrorIs(t, err, xerrors.ErrCartEmpty)
}

func TestBackNavigation(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	ctx := context.Background()
	key := testKey()

	// size screen -> browsing, pending dropped
	_, err := svc.SelectItem(ctx, key, 1)
	require.NoError(t, err)
	sess, err := svc.Back(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, session.StateBrowsing, sess.State)
	assert.Nil(t, sess.Pending)

	// modifiers screen of a sized item -> back to size selection
	_, err = svc.SelectItem(ctx, key, 1)
	require.NoError(t, err)
	_, err = svc.ChooseSize(ctx, key, "m")
	require.NoError(t, err)
	sess, err = svc.Back(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, session.StateSelectingSize, sess.State)
	require.NotNil(t, sess.Pending)

	// back in browsing is illegal
	_, err = svc.Back(ctx, key)
	require.NoError(t, err)
	_, err = svc.Back(ctx, key)
	assert.ErrorIs(t, err, xerrors.ErrWrongState)
}

func TestPickupTimeSkipsBonusWhenBroke(t *testing.T) {
	svc, _, _, ledger, _ := newTestService(t)
	ctx := context.Background()
	key := testKey()
	ledger.points = 0

	addConfigured(t, svc, key)
	_, err := svc.BeginCheckout(ctx, key)
	require.NoError(t, err)

	offer, err := svc.ChoosePickupTime(ctx, key, "через 15 мин")
	require.NoError(t, err)
	assert.False(t, offer.Offered)
	assert.Equal(t, session.StateConfirming, offer.Session.State)
	assert.Zero(t, offer.Session.Bonus)
}

func TestPickupTimeOffersBonusWithinCap(t *testing.T) {
	svc, _, _, ledger, _ := newTestService(t)
	ctx := context.Background()
	key := testKey()
	ledger.points = 500

	addConfigured(t, svc, key) // cart total 310, 30% cap = 93
	_, err := svc.BeginCheckout(ctx, key)
	require.NoError(t, err)

	offer, err := svc.ChoosePickupTime(ctx, key, "через 30 мин")
	require.NoError(t, err)
	assert.True(t, offer.Offered)
	assert.Equal(t, int64(93), offer.Max)
	assert.Equal(t, int64(500), offer.Balance)
	assert.Equal(t, session.StateApplyingBonus, offer.Session.State)
}

func TestApplyBonusOverCap(t *testing.T) {
	svc, _, _, ledger, _ := newTestService(t)
	ctx := context.Background()
	key := testKey()
	ledger.points = 500

	addConfigured(t, svc, key)
	_, err := svc.BeginCheckout(ctx, key)
	require.NoError(t, err)
	_, err = svc.ChoosePickupTime(ctx, key, "через 15 мин")
	require.NoError(t, err)

	_, err = svc.ApplyBonus(ctx, key, 94)
	assert.ErrorIs(t, err, xerrors.ErrBonusTooLarge)

	sess, err := svc.ApplyBonus(ctx, key, 93)
	require.NoError(t, err)
	assert.Equal(t, int64(93), sess.Bonus)
	assert.Equal(t, session.StateConfirming, sess.State)
}

func TestApplyMaxBonus(t *testing.T) {
	svc, _, _, ledger, _ := newTestService(t)
	ctx := context.Background()
	key := testKey()
	ledger.points = 50 // below the 30% cap

	addConfigured(t, svc, key)
	_, err := svc.BeginCheckout(ctx, key)
	require.NoError(t, err)
	_, err = svc.ChoosePickupTime(ctx, key, "через 15 мин")
	require.NoError(t, err)

	sess, err := svc.ApplyMaxBonus(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(50), sess.Bonus)
}

func TestConfirmHappyPath(t *testing.T) {
	svc, _, orders, ledger, notifier := newTestService(t)
	ctx := context.Background()
	key := testKey()
	ledger.points = 500

	addConfigured(t, svc, key)
	_, err := svc.BeginCheckout(ctx, key)
	require.NoError(t, err)
	_, err = svc.ChoosePickupTime(ctx, key, "через 30 мин")
	require.NoError(t, err)
	_, err = svc.ApplyBonus(ctx, key, 90)
	require.NoError(t, err)

	conf, err := svc.Confirm(ctx, key, "Иван")
	require.NoError(t, err)

	require.Len(t, orders.created, 1)
	assert.Equal(t, int64(310), conf.Order.Total)
	assert.Equal(t, int64(90), conf.BonusApplied)
	assert.Equal(t, int64(15), conf.PointsEarned) // floor(310/100)*5
	assert.Equal(t, 1, conf.Stamps)
	assert.False(t, conf.FreeDrink)
	assert.Equal(t, []int64{90}, ledger.redeemed)

	require.Len(t, notifier.staff, 1)
	assert.Contains(t, notifier.staff[0], "Новый заказ #1")
	assert.Contains(t, notifier.staff[0], "Иван")

	// session cleared back to fresh browsing
	sess, err := svc.Session(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, sess.Cart)
	assert.Equal(t, session.StateBrowsing, sess.State)
}

func TestConfirmRedemptionFailureKeepsOrder(t *testing.T) {
	svc, _, orders, ledger, _ := newTestService(t)
	ctx := context.Background()
	key := testKey()
	ledger.points = 500
	ledger.redeemFail = true

	addConfigured(t, svc, key)
	_, err := svc.BeginCheckout(ctx, key)
	require.NoError(t, err)
	_, err = svc.ChoosePickupTime(ctx, key, "через 15 мин")
	require.NoError(t, err)
	_, err = svc.ApplyBonus(ctx, key, 90)
	require.NoError(t, err)

	conf, err := svc.Confirm(ctx, key, "Иван")
	require.NoError(t, err)
	assert.Len(t, orders.created, 1)
	assert.Zero(t, conf.BonusApplied)
	assert.Empty(t, ledger.redeemed)
}

func TestConfirmOrderCreateFailure(t *testing.T) {
	svc, _, orders, ledger, notifier := newTestService(t)
	ctx := context.Background()
	key := testKey()
	orders.fail = true

	addConfigured(t, svc, key)
	_, err := svc.BeginCheckout(ctx, key)
	require.NoError(t, err)
	_, err = svc.ChoosePickupTime(ctx, key, "через 15 мин")
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, key, "Иван")
	require.Error(t, err)
	assert.Empty(t, ledger.accrued)
	assert.Empty(t, notifier.staff)

	// cart survives for a retry
	sess, err := svc.Session(ctx, key)
	require.NoError(t, err)
	assert.Len(t, sess.Cart, 1)
	assert.Equal(t, session.StateConfirming, sess.State)
}

func TestEditOrderDropsBonus(t *testing.T) {
	svc, _, _, ledger, _ := newTestService(t)
	ctx := context.Background()
	key := testKey()
	ledger.points = 500

	addConfigured(t, svc, key)
	_, err := svc.BeginCheckout(ctx, key)
	require.NoError(t, err)
	_, err = svc.ChoosePickupTime(ctx, key, "через 15 мин")
	require.NoError(t, err)
	_, err = svc.ApplyBonus(ctx, key, 50)
	require.NoError(t, err)

	sess, err := svc.EditOrder(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, session.StateBrowsing, sess.State)
	assert.Zero(t, sess.Bonus)
	assert.Len(t, sess.Cart, 1)
}

func TestLineComments(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	ctx := context.Background()
	key := testKey()

	addConfigured(t, svc, key)
	sess, err := svc.Session(ctx, key)
	require.NoError(t, err)
	lineKey := sess.Cart[0].Key()

	_, err = svc.StartComment(ctx, key, "no-such-line")
	assert.ErrorIs(t, err, xerrors.ErrLineNotFound)

	_, err = svc.StartComment(ctx, key, lineKey)
	require.NoError(t, err)

	_, err = svc.SetComment(ctx, key, strings.Repeat("п", MaxCommentLen+1))
	assert.ErrorIs(t, err, xerrors.ErrCommentTooLong)

	sess, err = svc.SetComment(ctx, key, "  погорячее  ")
	require.NoError(t, err)
	assert.Equal(t, "погорячее", sess.Cart[0].Comment)
	assert.Equal(t, session.StateBrowsing, sess.State)
}

func TestCancelComment(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	ctx := context.Background()
	key := testKey()

	addConfigured(t, svc, key)
	sess, err := svc.Session(ctx, key)
	require.NoError(t, err)

	_, err = svc.StartComment(ctx, key, sess.Cart[0].Key())
	require.NoError(t, err)
	sess, err = svc.CancelComment(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, session.StateBrowsing, sess.State)
	assert.Empty(t, sess.Cart[0].Comment)
}

func TestAddRepeatItems(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	ctx := context.Background()
	key := testKey()

	items := []models.RepeatItem{
		{OrderItem: models.OrderItem{MenuItemID: 1, Name: "Капучино", Price: 310, Quantity: 2,
			Size: "m", SizeName: "Средний", ModifierIDs: []int64{10}}, IsAvailable: true},
		{OrderItem: models.OrderItem{MenuItemID: 3, Name: "Раф", Price: 280, Quantity: 1}, IsAvailable: false},
	}

	added, skipped, err := svc.AddRepeatItems(ctx, key, items)
	require.NoError(t, err)
	assert.Equal(t, []string{"Капучино"}, added)
	assert.Equal(t, []string{"Раф"}, skipped)

	sess, err := svc.Session(ctx, key)
	require.NoError(t, err)
	require.Len(t, sess.Cart, 1)
	assert.Equal(t, 2, sess.Cart[0].Quantity)
	assert.Equal(t, int64(310), sess.Cart[0].Price)

	// repeating merges with an identical line already in the cart
	addConfigured(t, svc, key)
	sess, err = svc.Session(ctx, key)
	require.NoError(t, err)
	require.Len(t, sess.Cart, 1)
	assert.Equal(t, 3, sess.Cart[0].Quantity)
}

func TestIncrementDecrementLine(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	ctx := context.Background()
	key := testKey()

	addConfigured(t, svc, key)
	sess, err := svc.Session(ctx, key)
	require.NoError(t, err)
	lineKey := sess.Cart[0].Key()

	sess, err = svc.IncrementLine(ctx, key, lineKey)
	require.NoError(t, err)
	assert.Equal(t, 2, sess.Cart[0].Quantity)

	sess, err = svc.DecrementLine(ctx, key, lineKey)
	require.NoError(t, err)
	assert.Equal(t, 1, sess.Cart[0].Quantity)

	sess, err = svc.DecrementLine(ctx, key, lineKey)
	require.NoError(t, err)
	assert.Empty(t, sess.Cart)

	// unknown keys are absorbed
	sess, err = svc.IncrementLine(ctx, key, "bogus")
	require.NoError(t, err)
	assert.Empty(t, sess.Cart)
}
