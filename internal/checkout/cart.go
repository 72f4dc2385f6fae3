package checkout

import (
	"github.com/mkdir-username/etlon-coffee/internal/domain/models"
)

// MaxCommentLen bounds a per-line comment, in runes.
const MaxCommentLen = 200

// mergeLine adds a line to the cart, merging by identity key: a second
// addition of the same configuration increments quantity instead of
// creating a duplicate line. The existing line's comment is kept.
func mergeLine(cart []models.CartLine, line models.CartLine) []models.CartLine {
	key := line.Key()
	for i := range cart {
		if cart[i].Key() == key {
			cart[i].Quantity += line.Quantity
			return cart
		}
	}
	return append(cart, line)
}

// findLine returns the index of the line with the given identity key, or -1.
func findLine(cart []models.CartLine, key string) int {
	for i := range cart {
		if cart[i].Key() == key {
			return i
		}
	}
	return -1
}

// removeLine drops the line at index i.
func removeLine(cart []models.CartLine, i int) []models.CartLine {
	return append(cart[:i], cart[i+1:]...)
}
