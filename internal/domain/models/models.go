package models

import (
	"time"
)

type MenuItem struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"` // minor currency units
	Available bool   `json:"available"`
}

type SizeOption struct {
	ID         int64  `json:"id"`
	MenuItemID int64  `json:"menu_item_id"`
	Size       string `json:"size"`
	SizeName   string `json:"size_name"`
	PriceDiff  int64  `json:"price_diff"`
	Available  bool   `json:"available"`
}

type Modifier struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Price     int64  `json:"price"`
	Available bool   `json:"is_available"`
	SortOrder int    `json:"sort_order"`
}

// OrderItem is a frozen snapshot of a cart line; price never recomputes
// after order creation.
type OrderItem struct {
	MenuItemID     int64    `json:"menu_item_id"`
	Name           string   `json:"name"`
	Price          int64    `json:"price"`
	Quantity       int      `json:"quantity"`
	Size           string   `json:"size,omitempty"`
	SizeName       string   `json:"size_name,omitempty"`
	ModifierIDs    []int64  `json:"modifier_ids,omitempty"`
	ModifierNames  []string `json:"modifier_names,omitempty"`
	ModifiersPrice int64    `json:"modifiers_price,omitempty"`
	Comment        string   `json:"comment,omitempty"`
}

type Order struct {
	ID         int64       `json:"id"`
	UserID     int64       `json:"user_id"`
	UserName   string      `json:"user_name"`
	Items      []OrderItem `json:"items"`
	Total      int64       `json:"total"`
	PickupTime string      `json:"pickup_time"` // free-text label, not a timestamp
	Status     OrderStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
}

type LoyaltyAccount struct {
	UserID      int64 `json:"user_id"`
	Points      int64 `json:"points"`
	Stamps      int   `json:"stamps"`
	TotalOrders int64 `json:"total_orders"`
	TotalSpent  int64 `json:"total_spent"`
}

// Ledger operation kinds for points_history.
const (
	OpAccrual    = "accrual"
	OpRedemption = "redemption"
	OpRefund     = "refund"
)

type PointsHistoryEntry struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Amount      int64     `json:"amount"` // positive accrual/refund, negative redemption
	Operation   string    `json:"operation"`
	OrderID     int64     `json:"order_id,omitempty"`
	Description string    `json:"description,omitempty"`
	Refunded    bool      `json:"refunded,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RepeatItem is an order line joined with current menu availability,
// used by the repeat-order flow.
type RepeatItem struct {
	OrderItem
	IsAvailable bool `json:"is_available"`
}
