package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMenuFile(t *testing.T) {
	data := []byte(`{"items": [
		{"name": "Эспрессо", "price": 150},
		{"name": "Латте", "price": 220}
	]}`)

	items, err := parseMenuFile(data)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Латте", items[1].Name)
	assert.Equal(t, int64(220), items[1].Price)
}

func TestParseMenuFileBadJSON(t *testing.T) {
	_, err := parseMenuFile([]byte(`{"items": [`))
	assert.Error(t, err)
}

func TestParseModifiersFile(t *testing.T) {
	data := []byte(`{
		"sizes": {"default": [
			{"size": "S", "size_name": "Маленький 250мл", "price_diff": 0},
			{"size": "M", "size_name": "Средний 350мл", "price_diff": 40}
		]},
		"modifiers": [
			{"name": "Ванильный сироп", "category": "syrup", "price": 50}
		]
	}`)

	sizes, modifiers, err := parseModifiersFile(data)
	require.NoError(t, err)
	require.Len(t, sizes, 2)
	assert.Equal(t, "M", sizes[1].Size)
	assert.Equal(t, int64(40), sizes[1].PriceDiff)
	require.Len(t, modifiers, 1)
	assert.Equal(t, "syrup", modifiers[0].Category)
}

func TestParseModifiersFileEmpty(t *testing.T) {
	sizes, modifiers, err := parseModifiersFile([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, sizes)
	assert.Empty(t, modifiers)
}
