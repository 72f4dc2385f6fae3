package errors

import "errors"

var (
	ErrParseCmd       = errors.New("cannot parse arguments")
	ErrModeFlag       = errors.New("mode flag is required")
	ErrUnknownService = errors.New("unknown service, write --help command to see valid services")

	ErrDBConn  = errors.New("db connection failure")
	ErrRMQConn = errors.New("rabbitmq connection failure")

	ErrMBConn = errors.New("message broker connection failure")
	ErrMBCh   = errors.New("message broker channel failure")

	// checkout guard failures, surfaced to the user as short corrective messages
	ErrCartEmpty          = errors.New("cart is empty")
	ErrWrongState         = errors.New("action not allowed in current state")
	ErrItemUnavailable    = errors.New("menu item is unavailable")
	ErrSizeUnavailable    = errors.New("size is unavailable")
	ErrModifierNotOffered = errors.New("modifier is not offered for this item")
	ErrLineNotFound       = errors.New("cart line not found")
	ErrCommentTooLong     = errors.New("comment is too long")
	ErrBonusTooLarge      = errors.New("bonus exceeds the allowed maximum")

	// order store failures; not-found deliberately covers "exists but not yours"
	ErrOrderNotFound   = errors.New("order not found")
	ErrOrderInProgress = errors.New("order is already in progress and cannot be cancelled")
	ErrIllegalStatus   = errors.New("illegal status transition")

	ErrInsufficientPoints = errors.New("insufficient points")
	ErrInsufficientStamps = errors.New("insufficient stamps")

	ErrMenuItemNotFound = errors.New("menu item not found")
)
