package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mkdir-username/etlon-coffee/internal/xpkg/logger"
)

const publishTimeout = 5 * time.Second

// Broker is the slice of the message broker the dispatcher publishes to.
type Broker interface {
	Publish(ctx context.Context, body []byte) error
}

// Dispatcher fans notifications out through the broker. Delivery is
// best-effort: a broker failure is logged, never surfaced to the caller,
// so checkout and status flows stay unaffected by broker hiccups.
type Dispatcher struct {
	broker Broker
	log    logger.Logger
}

func NewDispatcher(broker Broker, log logger.Logger) *Dispatcher {
	return &Dispatcher{broker: broker, log: log}
}

func (d *Dispatcher) NotifyUser(ctx context.Context, userID int64, text string) {
	d.publish(ctx, newUserMessage(userID, text))
}

func (d *Dispatcher) NotifyStaff(ctx context.Context, text string) {
	d.publish(ctx, newStaffMessage(text))
}

func (d *Dispatcher) publish(ctx context.Context, msg Message) {
	body, err := json.Marshal(msg)
	if err != nil {
		d.log.Action("notification_marshal_failed").Error("failed to marshal notification", err, "message_id", msg.ID)
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := d.broker.Publish(pubCtx, body); err != nil {
		d.log.Action("notification_publish_failed").Error("failed to publish notification", err,
			"message_id", msg.ID, "kind", msg.Kind)
	}
}
