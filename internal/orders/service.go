package orders

import (
	"context"
	"fmt"

	"github.com/mkdir-username/etlon-coffee/internal/domain/models"
	xerrors "github.com/mkdir-username/etlon-coffee/internal/xpkg/errors"
	"github.com/mkdir-username/etlon-coffee/internal/xpkg/logger"
)

type Store interface {
	Get(ctx context.Context, orderID int64) (models.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status models.OrderStatus) (models.Order, error)
	CancelByClient(ctx context.Context, orderID, userID int64) error
}

type RefundLedger interface {
	Refund(ctx context.Context, userID, orderID int64) (int64, error)
}

// Notifier delivery is best-effort; implementations swallow and log errors.
type Notifier interface {
	NotifyUser(ctx context.Context, userID int64, text string)
	NotifyStaff(ctx context.Context, text string)
}

// Service couples status transitions with their side effects: the READY
// notification and the cancellation refund.
type Service struct {
	store    Store
	ledger   RefundLedger
	notifier Notifier
	log      logger.Logger
}

func NewService(store Store, ledger RefundLedger, notifier Notifier, log logger.Logger) *Service {
	return &Service{store: store, ledger: ledger, notifier: notifier, log: log}
}

// AdvanceStatus moves an order along its lifecycle. The adjacency table is
// enforced here, not left to the staff UI.
func (s *Service) AdvanceStatus(ctx context.Context, orderID int64, next models.OrderStatus) (models.Order, error) {
	if !next.Valid() {
		return models.Order{}, xerrors.ErrIllegalStatus
	}

	order, err := s.store.Get(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if !order.Status.CanTransitionTo(next) {
		s.log.Action("status_transition_rejected").Warn("illegal status transition",
			"order_id", orderID, "from", order.Status, "to", next)
		return models.Order{}, xerrors.ErrIllegalStatus
	}

	updated, err := s.store.UpdateStatus(ctx, orderID, next)
	if err != nil {
		return models.Order{}, err
	}

	switch next {
	case models.StatusReady:
		s.notifier.NotifyUser(ctx, updated.UserID,
			fmt.Sprintf("Заказ #%d готов!\n\nМожно забирать", updated.ID))
	case models.StatusCancelled:
		// staff cancellation reverses the redemption too, same as the
		// client path
		if _, err := s.ledger.Refund(ctx, updated.UserID, orderID); err != nil {
			s.log.Action("cancel_refund_failed").Error("refund after cancellation failed", err,
				"order_id", orderID, "user_id", updated.UserID)
		}
		s.notifier.NotifyUser(ctx, updated.UserID,
			fmt.Sprintf("Заказ #%d отменён", updated.ID))
	}

	s.log.Action("order_status_changed").Info("status updated",
		"order_id", orderID, "from", order.Status, "to", next)
	return updated, nil
}

// CancelByClient cancels the order, then refunds any redeemed points and
// tells the staff. The refund and the notification run outside the
// cancellation transaction and never fail it.
func (s *Service) CancelByClient(ctx context.Context, orderID, userID int64) (int64, error) {
	if err := s.store.CancelByClient(ctx, orderID, userID); err != nil {
		return 0, err
	}

	refunded, err := s.ledger.Refund(ctx, userID, orderID)
	if err != nil {
		s.log.Action("cancel_refund_failed").Error("refund after cancellation failed", err,
			"order_id", orderID, "user_id", userID)
		refunded = 0
	}

	s.notifier.NotifyStaff(ctx,
		fmt.Sprintf("Заказ #%d отменён клиентом", orderID))

	return refunded, nil
}
