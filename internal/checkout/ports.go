package checkout

import (
	"context"

	"github.com/mkdir-username/etlon-coffee/internal/domain/models"
)

// Catalog is the read side of the menu consumed while composing a drink.
type Catalog interface {
	GetItem(ctx context.Context, itemID int64) (models.MenuItem, error)
	SizesFor(ctx context.Context, itemID int64) ([]models.SizeOption, error)
	ModifiersFor(ctx context.Context, itemID int64) ([]models.Modifier, error)
	ModifiersByIDs(ctx context.Context, ids []int64) ([]models.Modifier, error)
}

// OrderCreator persists a confirmed order with frozen line items.
type OrderCreator interface {
	Create(ctx context.Context, userID int64, userName string, items []models.OrderItem, pickupTime string) (models.Order, error)
}

// Ledger is the slice of the loyalty ledger the checkout flow needs.
type Ledger interface {
	GetOrCreate(ctx context.Context, userID int64) (models.LoyaltyAccount, error)
	Accrue(ctx context.Context, userID, orderTotal, orderID int64) (int64, error)
	IncrementStamp(ctx context.Context, userID int64) (int, bool, error)
	Redeem(ctx context.Context, userID, amount, orderID int64) (bool, error)
}

// Notifier delivery is best-effort and never fails the checkout.
type Notifier interface {
	NotifyStaff(ctx context.Context, text string)
}
