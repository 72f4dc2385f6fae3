package orders

import (
	"github.com/mkdir-username/etlon-coffee/internal/domain/models"
	xerrors "github.com/mkdir-username/etlon-coffee/internal/xpkg/errors"
)

// cancelGuard decides whether a client may cancel an order. A wrong owner
// reports not-found, same as a missing order, so existence of other users'
// orders never leaks.
func cancelGuard(ownerID, requesterID int64, status models.OrderStatus) error {
	if ownerID != requesterID {
		return xerrors.ErrOrderNotFound
	}
	if status != models.StatusConfirmed {
		return xerrors.ErrOrderInProgress
	}
	return nil
}
