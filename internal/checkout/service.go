package checkout

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mkdir-username/etlon-coffee/internal/domain/models"
	"github.com/mkdir-username/etlon-coffee/internal/loyalty"
	"github.com/mkdir-username/etlon-coffee/internal/session"
	xerrors "github.com/mkdir-username/etlon-coffee/internal/xpkg/errors"
	"github.com/mkdir-username/etlon-coffee/internal/xpkg/logger"
)

// Stage tells the transport what to render after an item selection step.
type Stage int

const (
	// StageAdded: the item went straight into the cart.
	StageAdded Stage = iota
	// StageSize: the user must pick a size next.
	StageSize
	// StageModifiers: the user is toggling modifiers.
	StageModifiers
)

// Selection is the outcome of select/size/modifier steps.
type Selection struct {
	Stage        Stage
	Item         models.MenuItem
	Sizes        []models.SizeOption
	Modifiers    []models.Modifier
	Selected     map[int64]bool
	RunningTotal int64
	Session      *session.Session
}

// BonusOffer is the outcome of pickup-time selection. When Offered is
// false the flow skipped straight to confirmation with bonus=0.
type BonusOffer struct {
	Offered bool
	Max     int64
	Balance int64
	Session *session.Session
}

// Confirmation is the result of a successful order confirmation.
type Confirmation struct {
	Order        models.Order
	BonusApplied int64
	PointsEarned int64
	Stamps       int
	FreeDrink    bool
}

// Service drives the per-user checkout state machine. All session state is
// scoped to a (user, chat) key; the durable stores serialize their own
// conflicting writes.
type Service struct {
	sessions session.Store
	catalog  Catalog
	orders   OrderCreator
	ledger   Ledger
	notifier Notifier
	log      logger.Logger
}

func NewService(sessions session.Store, catalog Catalog, orders OrderCreator,
	ledger Ledger, notifier Notifier, log logger.Logger,
) *Service {
	return &Service{
		sessions: sessions,
		catalog:  catalog,
		orders:   orders,
		ledger:   ledger,
		notifier: notifier,
		log:      log,
	}
}

// Start resets the session to fresh browsing with an empty cart.
func (s *Service) Start(ctx context.Context, key session.Key) (*session.Session, error) {
	sess := session.New()
	if err := s.sessions.Put(ctx, key, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Session returns the current session for rendering.
func (s *Service) Session(ctx context.Context, key session.Key) (*session.Session, error) {
	return s.sessions.Get(ctx, key)
}

// SelectItem begins composing a drink. Items with sizes go through size
// selection, items with modifiers through modifier selection; plain items
// merge into the cart immediately.
func (s *Service) SelectItem(ctx context.Context, key session.Key, itemID int64) (Selection, error) {
	sess, err := s.sessions.Get(ctx, key)
	if err != nil {
		return Selection{}, err
	}
	if sess.State != session.StateBrowsing {
		return Selection{}, xerrors.ErrWrongState
	}

	item, err := s.catalog.GetItem(ctx, itemID)
	if err != nil {
		return Selection{}, xerrors.ErrItemUnavailable
	}
	if !item.Available {
		return Selection{}, xerrors.ErrItemUnavailable
	}

	sizes, err := s.catalog.SizesFor(ctx, itemID)
	if err != nil {
		return Selection{}, err
	}
	mods, err := s.catalog.ModifiersFor(ctx, itemID)
	if err != nil {
		return Selection{}, err
	}

	if len(sizes) > 0 {
		sess.Pending = &session.Pending{
			ItemID:    item.ID,
			Name:      item.Name,
			BasePrice: item.Price,
			HasSizes:  true,
			Selected:  map[int64]bool{},
		}
		sess.State = session.StateSelectingSize
		if err := s.sessions.Put(ctx, key, sess); err != nil {
			return Selection{}, err
		}
		return Selection{Stage: StageSize, Item: item, Sizes: sizes, Session: sess}, nil
	}

	if len(mods) > 0 {
		sess.Pending = &session.Pending{
			ItemID:    item.ID,
			Name:      item.Name,
			BasePrice: item.Price,
			Selected:  map[int64]bool{},
		}
		sess.State = session.StateSelectingModifiers
		if err := s.sessions.Put(ctx, key, sess); err != nil {
			return Selection{}, err
		}
		return Selection{
			Stage: StageModifiers, Item: item, Modifiers: mods,
			Selected: map[int64]bool{}, RunningTotal: item.Price, Session: sess,
		}, nil
	}

	// no configuration to resolve: merge right away
	sess.Cart = mergeLine(sess.Cart, models.CartLine{
		MenuItemID: item.ID,
		Name:       item.Name,
		Price:      item.Price,
		Quantity:   1,
	})
	if err := s.sessions.Put(ctx, key, sess); err != nil {
		return Selection{}, err
	}
	return Selection{Stage: StageAdded, Item: item, Session: sess}, nil
}

// ChooseSize resolves the size and moves on to modifiers, or merges the
// line when the item has none.
func (s *Service) ChooseSize(ctx context.Context, key session.Key, sizeCode string) (Selection, error) {
	sess, err := s.sessions.Get(ctx, key)
	if err != nil {
		return Selection{}, err
	}
	if sess.State != session.StateSelectingSize || sess.Pending == nil {
		return Selection{}, xerrors.ErrWrongState
	}

	sizes, err := s.catalog.SizesFor(ctx, sess.Pending.ItemID)
	if err != nil {
		return Selection{}, err
	}
	var chosen *models.SizeOption
	for i := range sizes {
		if sizes[i].Size == sizeCode {
			chosen = &sizes[i]
			break
		}
	}
	if chosen == nil {
		return Selection{}, xerrors.ErrSizeUnavailable
	}

	sess.Pending.Size = chosen.Size
	sess.Pending.SizeName = chosen.SizeName
	sess.Pending.SizeDiff = chosen.PriceDiff

	mods, err := s.catalog.ModifiersFor(ctx, sess.Pending.ItemID)
	if err != nil {
		return Selection{}, err
	}
	if len(mods) > 0 {
		sess.State = session.StateSelectingModifiers
		if err := s.sessions.Put(ctx, key, sess); err != nil {
			return Selection{}, err
		}
		return Selection{
			Stage:        StageModifiers,
			Modifiers:    mods,
			Selected:     sess.Pending.Selected,
			RunningTotal: sess.Pending.BasePrice + sess.Pending.SizeDiff,
			Session:      sess,
		}, nil
	}

	return s.mergePending(ctx, key, sess, nil)
}

// ToggleModifier flips one modifier in the pending selection and reports
// the running total.
func (s *Service) ToggleModifier(ctx context.Context, key session.Key, modifierID int64) (Selection, error) {
	sess, err := s.sessions.Get(ctx, key)
	if err != nil {
		return Selection{}, err
	}
	if sess.State != session.StateSelectingModifiers || sess.Pending == nil {
		return Selection{}, xerrors.ErrWrongState
	}

	mods, err := s.catalog.ModifiersFor(ctx, sess.Pending.ItemID)
	if err != nil {
		return Selection{}, err
	}
	offered := false
	for _, m := range mods {
		if m.ID == modifierID {
			offered = true
			break
		}
	}
	if !offered {
		return Selection{}, xerrors.ErrModifierNotOffered
	}

	if sess.Pending.Selected == nil {
		sess.Pending.Selected = map[int64]bool{}
	}
	if sess.Pending.Selected[modifierID] {
		delete(sess.Pending.Selected, modifierID)
	} else {
		sess.Pending.Selected[modifierID] = true
	}

	running := sess.Pending.BasePrice + sess.Pending.SizeDiff
	for _, m := range mods {
		if sess.Pending.Selected[m.ID] {
			running += m.Price
		}
	}

	if err := s.sessions.Put(ctx, key, sess); err != nil {
		return Selection{}, err
	}
	return Selection{
		Stage:        StageModifiers,
		Modifiers:    mods,
		Selected:     sess.Pending.Selected,
		RunningTotal: running,
		Session:      sess,
	}, nil
}

// FinishModifiers resolves the full configuration, computes the final
// price and merges the line into the cart by identity key.
func (s *Service) FinishModifiers(ctx context.Context, key session.Key) (Selection, error) {
	sess, err := s.sessions.Get(ctx, key)
	if err != nil {
		return Selection{}, err
	}
	if sess.State != session.StateSelectingModifiers || sess.Pending == nil {
		return Selection{}, xerrors.ErrWrongState
	}

	selected, err := s.catalog.ModifiersByIDs(ctx, sess.Pending.SelectedIDs())
	if err != nil {
		return Selection{}, err
	}
	return s.mergePending(ctx, key, sess, selected)
}

// mergePending builds the cart line from the fully resolved pending
// selection and returns to browsing. The identity key is derived from the
// final (item, size, modifiers) triple only here.
func (s *Service) mergePending(ctx context.Context, key session.Key, sess *session.Session, selected []models.Modifier) (Selection, error) {
	p := sess.Pending

	sort.Slice(selected, func(i, j int) bool { return selected[i].ID < selected[j].ID })
	ids := make([]int64, 0, len(selected))
	names := make([]string, 0, len(selected))
	var modsPrice int64
	for _, m := range selected {
		ids = append(ids, m.ID)
		names = append(names, m.Name)
		modsPrice += m.Price
	}

	line := models.CartLine{
		MenuItemID:     p.ItemID,
		Name:           p.Name,
		Price:          p.BasePrice + p.SizeDiff + modsPrice,
		Quantity:       1,
		Size:           p.Size,
		SizeName:       p.SizeName,
		ModifierIDs:    ids,
		ModifierNames:  names,
		ModifiersPrice: modsPrice,
	}

	sess.Cart = mergeLine(sess.Cart, line)
	sess.Pending = nil
	sess.State = session.StateBrowsing
	if err := s.sessions.Put(ctx, key, sess); err != nil {
		return Selection{}, err
	}
	return Selection{Stage: StageAdded, Session: sess}, nil
}

// Back steps one screen backwards without losing the cart.
func (s *Service) Back(ctx context.Context, key session.Key) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	switch sess.State {
	case session.StateSelectingSize:
		sess.Pending = nil
		sess.State = session.StateBrowsing
	case session.StateSelectingModifiers:
		if sess.Pending != nil && sess.Pending.HasSizes {
			sess.State = session.StateSelectingSize
		} else {
			sess.Pending = nil
			sess.State = session.StateBrowsing
		}
	case session.StateSelectingTime:
		sess.State = session.StateBrowsing
	case session.StateApplyingBonus:
		sess.State = session.StateSelectingTime
	default:
		return nil, xerrors.ErrWrongState
	}

	if err := s.sessions.Put(ctx, key, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// IncrementLine bumps a cart line's quantity. Unknown keys are absorbed.
func (s *Service) IncrementLine(ctx context.Context, key session.Key, lineKey string) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if sess.State != session.StateBrowsing {
		return nil, xerrors.ErrWrongState
	}
	if i := findLine(sess.Cart, lineKey); i >= 0 {
		sess.Cart[i].Quantity++
		if err := s.sessions.Put(ctx, key, sess); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

// DecrementLine lowers quantity; reaching zero removes the line entirely.
func (s *Service) DecrementLine(ctx context.Context, key session.Key, lineKey string) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if sess.State != session.StateBrowsing {
		return nil, xerrors.ErrWrongState
	}
	if i := findLine(sess.Cart, lineKey); i >= 0 {
		sess.Cart[i].Quantity--
		if sess.Cart[i].Quantity <= 0 {
			sess.Cart = removeLine(sess.Cart, i)
		}
		if err := s.sessions.Put(ctx, key, sess); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

// BeginCheckout moves to pickup-time selection; an empty cart is rejected.
func (s *Service) BeginCheckout(ctx context.Context, key session.Key) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if sess.State != session.StateBrowsing {
		return nil, xerrors.ErrWrongState
	}
	if len(sess.Cart) == 0 {
		return nil, xerrors.ErrCartEmpty
	}
	sess.State = session.StateSelectingTime
	if err := s.sessions.Put(ctx, key, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// ChoosePickupTime records the label and offers bonus redemption when the
// balance allows a non-zero amount on the current total.
func (s *Service) ChoosePickupTime(ctx context.Context, key session.Key, label string) (BonusOffer, error) {
	sess, err := s.sessions.Get(ctx, key)
	if err != nil {
		return BonusOffer{}, err
	}
	if sess.State != session.StateSelectingTime {
		return BonusOffer{}, xerrors.ErrWrongState
	}

	sess.PickupTime = label

	acc, err := s.ledger.GetOrCreate(ctx, key.UserID)
	if err != nil {
		return BonusOffer{}, err
	}
	maxRedeem := loyalty.CalculateMaxRedeemable(models.CartTotal(sess.Cart), acc.Points)

	if maxRedeem > 0 {
		sess.State = session.StateApplyingBonus
		if err := s.sessions.Put(ctx, key, sess); err != nil {
			return BonusOffer{}, err
		}
		return BonusOffer{Offered: true, Max: maxRedeem, Balance: acc.Points, Session: sess}, nil
	}

	sess.Bonus = 0
	sess.State = session.StateConfirming
	if err := s.sessions.Put(ctx, key, sess); err != nil {
		return BonusOffer{}, err
	}
	return BonusOffer{Offered: false, Session: sess}, nil
}

// ApplyBonus records the chosen redemption amount (0 = skip) and moves to
// confirmation. The cap is re-checked against the current cart and balance.
func (s *Service) ApplyBonus(ctx context.Context, key session.Key, amount int64) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if sess.State != session.StateApplyingBonus {
		return nil, xerrors.ErrWrongState
	}
	if amount < 0 {
		return nil, xerrors.ErrBonusTooLarge
	}
	if amount > 0 {
		acc, err := s.ledger.GetOrCreate(ctx, key.UserID)
		if err != nil {
			return nil, err
		}
		if amount > loyalty.CalculateMaxRedeemable(models.CartTotal(sess.Cart), acc.Points) {
			return nil, xerrors.ErrBonusTooLarge
		}
	}

	sess.Bonus = amount
	sess.State = session.StateConfirming
	if err := s.sessions.Put(ctx, key, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// ApplyMaxBonus applies the largest redemption currently allowed.
func (s *Service) ApplyMaxBonus(ctx context.Context, key session.Key) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if sess.State != session.StateApplyingBonus {
		return nil, xerrors.ErrWrongState
	}
	acc, err := s.ledger.GetOrCreate(ctx, key.UserID)
	if err != nil {
		return nil, err
	}
	sess.Bonus = loyalty.CalculateMaxRedeemable(models.CartTotal(sess.Cart), acc.Points)
	sess.State = session.StateConfirming
	if err := s.sessions.Put(ctx, key, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// EditOrder returns from confirmation to the cart. The bonus selection is
// discarded; re-entering time selection re-evaluates eligibility.
func (s *Service) EditOrder(ctx context.Context, key session.Key) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if sess.State != session.StateConfirming {
		return nil, xerrors.ErrWrongState
	}
	sess.Bonus = 0
	sess.State = session.StateBrowsing
	if err := s.sessions.Put(ctx, key, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Confirm creates the order. The order itself is the only step that can
// fail the confirmation: a failed redemption degrades to bonus=0, accrual
// and stamps are logged on failure, the staff notification is fire-and-
// forget. The session is cleared on success.
func (s *Service) Confirm(ctx context.Context, key session.Key, userName string) (Confirmation, error) {
	sess, err := s.sessions.Get(ctx, key)
	if err != nil {
		return Confirmation{}, err
	}
	if sess.State != session.StateConfirming {
		return Confirmation{}, xerrors.ErrWrongState
	}
	if len(sess.Cart) == 0 {
		return Confirmation{}, xerrors.ErrCartEmpty
	}

	items := make([]models.OrderItem, 0, len(sess.Cart))
	for _, line := range sess.Cart {
		items = append(items, line.Frozen())
	}

	pickup := sess.PickupTime
	if pickup == "" {
		pickup = "через 15 мин"
	}

	order, err := s.orders.Create(ctx, key.UserID, userName, items, pickup)
	if err != nil {
		s.log.Action("order_create_failed").Error("failed to create order", err, "user_id", key.UserID)
		return Confirmation{}, err
	}

	log := s.log.Action("order_confirmed").With("order_id", order.ID, "user_id", key.UserID)

	bonusApplied := int64(0)
	if sess.Bonus > 0 {
		ok, err := s.ledger.Redeem(ctx, key.UserID, sess.Bonus, order.ID)
		if err != nil || !ok {
			// the order is already durable; degrade to bonus=0
			log.Warn("bonus redemption failed, order kept without discount", "requested", sess.Bonus)
		} else {
			bonusApplied = sess.Bonus
		}
	}

	earned, err := s.ledger.Accrue(ctx, key.UserID, order.Total, order.ID)
	if err != nil {
		log.Error("points accrual failed", err)
	}

	stamps, freeDrink, err := s.ledger.IncrementStamp(ctx, key.UserID)
	if err != nil {
		log.Error("stamp increment failed", err)
	}

	s.notifier.NotifyStaff(ctx, staffOrderSummary(order, bonusApplied))

	if err := s.sessions.Clear(ctx, key); err != nil {
		log.Error("failed to clear session", err)
	}

	log.Info("order confirmed", "total", order.Total, "bonus", bonusApplied, "points_earned", earned)
	return Confirmation{
		Order:        order,
		BonusApplied: bonusApplied,
		PointsEarned: earned,
		Stamps:       stamps,
		FreeDrink:    freeDrink,
	}, nil
}

// AddRepeatItems merges a past order's lines back into the cart at their
// frozen prices. Lines whose menu item has since gone unavailable are
// skipped and reported by name.
func (s *Service) AddRepeatItems(ctx context.Context, key session.Key, items []models.RepeatItem) (added, skipped []string, err error) {
	sess, err := s.sessions.Get(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	if sess.State != session.StateBrowsing {
		return nil, nil, xerrors.ErrWrongState
	}

	for _, item := range items {
		if !item.IsAvailable {
			skipped = append(skipped, item.Name)
			continue
		}
		sess.Cart = mergeLine(sess.Cart, models.CartLine{
			MenuItemID:     item.MenuItemID,
			Name:           item.Name,
			Price:          item.Price,
			Quantity:       item.Quantity,
			Size:           item.Size,
			SizeName:       item.SizeName,
			ModifierIDs:    append([]int64(nil), item.ModifierIDs...),
			ModifierNames:  append([]string(nil), item.ModifierNames...),
			ModifiersPrice: item.ModifiersPrice,
			Comment:        item.Comment,
		})
		added = append(added, item.Name)
	}

	if err := s.sessions.Put(ctx, key, sess); err != nil {
		return nil, nil, err
	}
	return added, skipped, nil
}

// StartComment captures which cart line is being annotated.
func (s *Service) StartComment(ctx context.Context, key session.Key, lineKey string) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if sess.State != session.StateBrowsing {
		return nil, xerrors.ErrWrongState
	}
	if findLine(sess.Cart, lineKey) < 0 {
		return nil, xerrors.ErrLineNotFound
	}
	sess.CommentKey = lineKey
	sess.State = session.StateEnteringComment
	if err := s.sessions.Put(ctx, key, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// SetComment writes the comment onto the captured line and returns to
// browsing. An over-long comment keeps the state so the user can retry.
func (s *Service) SetComment(ctx context.Context, key session.Key, text string) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if sess.State != session.StateEnteringComment {
		return nil, xerrors.ErrWrongState
	}
	if utf8.RuneCountInString(text) > MaxCommentLen {
		return nil, xerrors.ErrCommentTooLong
	}

	if i := findLine(sess.Cart, sess.CommentKey); i >= 0 {
		sess.Cart[i].Comment = strings.TrimSpace(text)
	}
	sess.CommentKey = ""
	sess.State = session.StateBrowsing
	if err := s.sessions.Put(ctx, key, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// CancelComment aborts comment entry, leaving the line unchanged.
func (s *Service) CancelComment(ctx context.Context, key session.Key) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if sess.State != session.StateEnteringComment {
		return nil, xerrors.ErrWrongState
	}
	sess.CommentKey = ""
	sess.State = session.StateBrowsing
	if err := s.sessions.Put(ctx, key, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func staffOrderSummary(order models.Order, bonus int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Новый заказ #%d\n", order.ID)
	fmt.Fprintf(&b, "Клиент: %s\n", order.UserName)
	fmt.Fprintf(&b, "Забор: %s\n\n", order.PickupTime)
	for _, item := range order.Items {
		fmt.Fprintf(&b, "• %s", item.Name)
		if item.SizeName != "" {
			fmt.Fprintf(&b, " (%s)", item.SizeName)
		}
		fmt.Fprintf(&b, " x%d = %dр\n", item.Quantity, item.Price*int64(item.Quantity))
		if len(item.ModifierNames) > 0 {
			fmt.Fprintf(&b, "  + %s\n", strings.Join(item.ModifierNames, ", "))
		}
		if item.Comment != "" {
			fmt.Fprintf(&b, "  «%s»\n", item.Comment)
		}
	}
	fmt.Fprintf(&b, "\nИтого: %dр", order.Total)
	if bonus > 0 {
		fmt.Fprintf(&b, " (баллами: %d)", bonus)
	}
	return b.String()
}
