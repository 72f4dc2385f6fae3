package loyalty

import (
	"context"
	"fmt"

	"github.com/mkdir-username/etlon-coffee/internal/domain/models"
	"github.com/mkdir-username/etlon-coffee/internal/xpkg/logger"
)

// Tx is one exclusive-write transaction over a single loyalty account.
// Account acquires the row lock before reading so concurrent mutations on
// the same user serialize instead of losing updates.
type Tx interface {
	Account(ctx context.Context, userID int64) (models.LoyaltyAccount, bool, error)
	CreateAccount(ctx context.Context, userID int64) (models.LoyaltyAccount, error)
	SaveAccount(ctx context.Context, acc models.LoyaltyAccount) error
	AppendHistory(ctx context.Context, entry models.PointsHistoryEntry) error
	UnrefundedRedemption(ctx context.Context, userID, orderID int64) (models.PointsHistoryEntry, bool, error)
	MarkRefunded(ctx context.Context, entryID int64) error
}

// Store runs ledger transactions. A mid-transaction failure rolls back both
// the account mutation and its history append.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	History(ctx context.Context, userID int64, limit int) ([]models.PointsHistoryEntry, error)
}

type Ledger struct {
	store Store
	log   logger.Logger
}

func NewLedger(store Store, log logger.Logger) *Ledger {
	return &Ledger{store: store, log: log}
}

// GetOrCreate returns the account, creating a zero-balance row on first touch.
func (l *Ledger) GetOrCreate(ctx context.Context, userID int64) (models.LoyaltyAccount, error) {
	var acc models.LoyaltyAccount
	err := l.store.InTx(ctx, func(tx Tx) error {
		existing, ok, err := tx.Account(ctx, userID)
		if err != nil {
			return err
		}
		if ok {
			acc = existing
			return nil
		}
		created, err := tx.CreateAccount(ctx, userID)
		if err != nil {
			return err
		}
		l.log.Action("loyalty_created").Debug("loyalty account created", "user_id", userID)
		acc = created
		return nil
	})
	return acc, err
}

// Accrue grants points for a confirmed order based on its full pre-discount
// total. A zero accrual is a complete no-op: no account mutation, no
// history entry.
func (l *Ledger) Accrue(ctx context.Context, userID, orderTotal, orderID int64) (int64, error) {
	earned := CalculatePoints(orderTotal)
	if earned <= 0 {
		return 0, nil
	}

	err := l.store.InTx(ctx, func(tx Tx) error {
		acc, ok, err := tx.Account(ctx, userID)
		if err != nil {
			return err
		}
		if !ok {
			if acc, err = tx.CreateAccount(ctx, userID); err != nil {
				return err
			}
		}

		acc.Points += earned
		acc.TotalOrders++
		acc.TotalSpent += orderTotal
		if err := tx.SaveAccount(ctx, acc); err != nil {
			return err
		}

		return tx.AppendHistory(ctx, models.PointsHistoryEntry{
			UserID:      userID,
			Amount:      earned,
			Operation:   models.OpAccrual,
			OrderID:     orderID,
			Description: fmt.Sprintf("Начисление за заказ #%d", orderID),
		})
	})
	if err != nil {
		l.log.Action("accrue_points_failed").Error("failed to accrue points", err,
			"user_id", userID, "order_id", orderID)
		return 0, err
	}

	l.log.Action("points_accrued").Debug("points accrued",
		"user_id", userID, "points", earned, "order_id", orderID)
	return earned, nil
}

// IncrementStamp adds one stamp. The counter is not auto-reset on reaching
// the threshold; only UseFreeDrink resets it.
func (l *Ledger) IncrementStamp(ctx context.Context, userID int64) (int, bool, error) {
	var newStamps int
	err := l.store.InTx(ctx, func(tx Tx) error {
		acc, ok, err := tx.Account(ctx, userID)
		if err != nil {
			return err
		}
		if !ok {
			if acc, err = tx.CreateAccount(ctx, userID); err != nil {
				return err
			}
		}
		acc.Stamps++
		newStamps = acc.Stamps
		return tx.SaveAccount(ctx, acc)
	})
	if err != nil {
		l.log.Action("increment_stamps_failed").Error("failed to increment stamps", err, "user_id", userID)
		return 0, false, err
	}

	earnedFreeDrink := newStamps >= StampsForFreeDrink
	l.log.Action("stamps_updated").Debug("stamp added",
		"user_id", userID, "stamps", newStamps, "earned_free_drink", earnedFreeDrink)
	return newStamps, earnedFreeDrink, nil
}

// Redeem spends points against an order. Returns false without mutation
// when the amount is non-positive or the balance is short.
func (l *Ledger) Redeem(ctx context.Context, userID, amount, orderID int64) (bool, error) {
	if amount <= 0 {
		return false, nil
	}

	redeemed := false
	err := l.store.InTx(ctx, func(tx Tx) error {
		acc, ok, err := tx.Account(ctx, userID)
		if err != nil {
			return err
		}
		if !ok || acc.Points < amount {
			l.log.Action("redeem_insufficient_points").Warn("not enough points",
				"user_id", userID, "requested", amount, "available", acc.Points)
			return nil
		}

		acc.Points -= amount
		if err := tx.SaveAccount(ctx, acc); err != nil {
			return err
		}
		if err := tx.AppendHistory(ctx, models.PointsHistoryEntry{
			UserID:      userID,
			Amount:      -amount,
			Operation:   models.OpRedemption,
			OrderID:     orderID,
			Description: fmt.Sprintf("Списание за заказ #%d", orderID),
		}); err != nil {
			return err
		}
		redeemed = true
		return nil
	})
	if err != nil {
		l.log.Action("redeem_points_failed").Error("failed to redeem points", err,
			"user_id", userID, "order_id", orderID)
		return false, err
	}

	if redeemed {
		l.log.Action("points_redeemed").Debug("points redeemed",
			"user_id", userID, "amount", amount, "order_id", orderID)
	}
	return redeemed, nil
}

// Refund restores the points redeemed against an order. The redemption
// history entry is the source of truth for the amount; it is marked
// refunded inside the same transaction, so a second call finds nothing and
// returns 0.
func (l *Ledger) Refund(ctx context.Context, userID, orderID int64) (int64, error) {
	var refunded int64
	err := l.store.InTx(ctx, func(tx Tx) error {
		entry, ok, err := tx.UnrefundedRedemption(ctx, userID, orderID)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		amount := entry.Amount
		if amount < 0 {
			amount = -amount
		}
		if amount == 0 {
			return nil
		}

		acc, ok, err := tx.Account(ctx, userID)
		if err != nil {
			return err
		}
		if !ok {
			if acc, err = tx.CreateAccount(ctx, userID); err != nil {
				return err
			}
		}
		acc.Points += amount
		if err := tx.SaveAccount(ctx, acc); err != nil {
			return err
		}
		if err := tx.MarkRefunded(ctx, entry.ID); err != nil {
			return err
		}
		if err := tx.AppendHistory(ctx, models.PointsHistoryEntry{
			UserID:      userID,
			Amount:      amount,
			Operation:   models.OpRefund,
			OrderID:     orderID,
			Description: fmt.Sprintf("Возврат за отмену заказа #%d", orderID),
		}); err != nil {
			return err
		}
		refunded = amount
		return nil
	})
	if err != nil {
		l.log.Action("refund_points_failed").Error("failed to refund points", err,
			"user_id", userID, "order_id", orderID)
		return 0, err
	}

	if refunded > 0 {
		l.log.Action("points_refunded").Debug("points refunded",
			"user_id", userID, "amount", refunded, "order_id", orderID)
	}
	return refunded, nil
}

// UseFreeDrink resets the stamp counter when the threshold is reached.
// Points are untouched.
func (l *Ledger) UseFreeDrink(ctx context.Context, userID int64) (bool, error) {
	used := false
	err := l.store.InTx(ctx, func(tx Tx) error {
		acc, ok, err := tx.Account(ctx, userID)
		if err != nil {
			return err
		}
		if !ok || acc.Stamps < StampsForFreeDrink {
			l.log.Action("use_free_drink_insufficient_stamps").Warn("not enough stamps",
				"user_id", userID, "stamps", acc.Stamps)
			return nil
		}
		acc.Stamps = 0
		if err := tx.SaveAccount(ctx, acc); err != nil {
			return err
		}
		used = true
		return nil
	})
	if err != nil {
		l.log.Action("use_free_drink_failed").Error("failed to use free drink", err, "user_id", userID)
		return false, err
	}

	if used {
		l.log.Action("free_drink_used").Debug("stamps reset", "user_id", userID)
	}
	return used, nil
}

// History returns the most recent ledger entries for the user.
func (l *Ledger) History(ctx context.Context, userID int64, limit int) ([]models.PointsHistoryEntry, error) {
	return l.store.History(ctx, userID, limit)
}
