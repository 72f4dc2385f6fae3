package models

import (
	"fmt"
	"sort"
	"strings"
)

// CartLine is one resolved configuration of a menu item pending checkout.
// Price is snapshotted at add time: base + size delta + modifier prices.
type CartLine struct {
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

// CartKey builds the identity key that decides whether two additions merge:
// same item, same size, same modifier set. The modifier list is sorted so
// selection order never splits a line. Comment is deliberately excluded.
func CartKey(menuItemID int64, size string, modifierIDs []int64) string {
	ids := make([]int64, len(modifierIDs))
	copy(ids, modifierIDs)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf("%d|%s|%s", menuItemID, size, strings.Join(parts, ","))
}

// Key returns the line's identity key.
func (l CartLine) Key() string {
	return CartKey(l.MenuItemID, l.Size, l.ModifierIDs)
}

// LineTotal is price times quantity.
func (l CartLine) LineTotal() int64 {
	return l.Price * int64(l.Quantity)
}

// Frozen copies the line into an order item snapshot.
func (l CartLine) Frozen() OrderItem {
	ids := make([]int64, len(l.ModifierIDs))
	copy(ids, l.ModifierIDs)
	names := make([]string, len(l.ModifierNames))
	copy(names, l.ModifierNames)

	return OrderItem{
		MenuItemID:     l.MenuItemID,
		Name:           l.Name,
		Price:          l.Price,
		Quantity:       l.Quantity,
		Size:           l.Size,
		SizeName:       l.SizeName,
		ModifierIDs:    ids,
		ModifierNames:  names,
		ModifiersPrice: l.ModifiersPrice,
		Comment:        l.Comment,
	}
}

// CartTotal sums line totals over the whole cart.
func CartTotal(cart []CartLine) int64 {
	var total int64
	for _, l := range cart {
		total += l.LineTotal()
	}
	return total
}
