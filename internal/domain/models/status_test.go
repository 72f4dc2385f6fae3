package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		legal    bool
	}{
		{StatusConfirmed, StatusPreparing, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusPreparing, StatusReady, true},
		{StatusReady, StatusCompleted, true},

		{StatusPending, StatusConfirmed, false},
		{StatusPending, StatusCancelled, false},
		{StatusPreparing, StatusCancelled, false},
		{StatusReady, StatusCancelled, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCompleted, StatusConfirmed, false},
		{StatusConfirmed, StatusReady, false},
		{StatusConfirmed, StatusCompleted, false},
		{StatusReady, StatusPreparing, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.legal, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusConfirmed.Terminal())
	assert.False(t, StatusPending.Terminal(), "pending has no successors but the order is not finished")
	assert.False(t, OrderStatus("bogus").Terminal())
}

func TestStatusDisplayName(t *testing.T) {
	assert.Equal(t, "Готов", StatusReady.DisplayName())
	assert.Equal(t, "bogus", OrderStatus("bogus").DisplayName())
}
