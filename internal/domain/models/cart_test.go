package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCartKeyModifierOrder(t *testing.T) {
	a := CartKey(7, "M", []int64{3, 1, 2})
	b := CartKey(7, "M", []int64{1, 2, 3})
	assert.Equal(t, a, b, "modifier selection order must not split lines")
}

func TestCartKeyDistinguishesConfigurations(t *testing.T) {
	base := CartKey(7, "M", []int64{1})

	assert.NotEqual(t, base, CartKey(7, "L", []int64{1}), "size changes the key")
	assert.NotEqual(t, base, CartKey(7, "M", []int64{1, 2}), "modifier set changes the key")
	assert.NotEqual(t, base, CartKey(8, "M", []int64{1}), "item changes the key")
	assert.NotEqual(t, base, CartKey(7, "", []int64{1}), "no-size differs from sized")
}

func TestCartKeyIgnoresComment(t *testing.T) {
	l1 := CartLine{MenuItemID: 7, Size: "M", ModifierIDs: []int64{1}, Comment: "hot"}
	l2 := CartLine{MenuItemID: 7, Size: "M", ModifierIDs: []int64{1}}
	assert.Equal(t, l1.Key(), l2.Key())
}

func TestCartTotal(t *testing.T) {
	cart := []CartLine{
		{Price: 310, Quantity: 2},
		{Price: 220, Quantity: 1},
	}
	assert.Equal(t, int64(840), CartTotal(cart))
	assert.Equal(t, int64(0), CartTotal(nil))
}

func TestFrozenCopiesSlices(t *testing.T) {
	line := CartLine{
		MenuItemID:    7,
		Name:          "Латте",
		Price:         310,
		Quantity:      2,
		ModifierIDs:   []int64{1},
		ModifierNames: []string{"Ванильный сироп"},
	}
	item := line.Frozen()

	line.ModifierIDs[0] = 99
	assert.Equal(t, int64(1), item.ModifierIDs[0], "frozen item must not alias the cart line")
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, int64(310), item.Price)
}
