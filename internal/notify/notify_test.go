package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkdir-username/etlon-coffee/internal/xpkg/logger"
)

type capturingBroker struct {
	published [][]byte
	fail      bool
}

func (b *capturingBroker) Publish(_ context.Context, body []byte) error {
	if b.fail {
		return errors.New("broker down")
	}
	b.published = append(b.published, body)
	return nil
}

type recordingDeliverer struct {
	users map[int64]string
	staff []string
	fail  bool
}

func (d *recordingDeliverer) DeliverUser(_ context.Context, userID int64, text string) error {
	if d.fail {
		return errors.New("telegram down")
	}
	if d.users == nil {
		d.users = map[int64]string{}
	}
	d.users[userID] = text
	return nil
}

func (d *recordingDeliverer) DeliverStaff(_ context.Context, text string) error {
	if d.fail {
		return errors.New("telegram down")
	}
	d.staff = append(d.staff, text)
	return nil
}

func TestDispatcherPublishesUserMessage(t *testing.T) {
	broker := &capturingBroker{}
	d := NewDispatcher(broker, logger.New("notify-test", "error"))

	d.NotifyUser(context.Background(), 42, "Заказ #7 готов!")

	require.Len(t, broker.published, 1)
	var msg Message
	require.NoError(t, json.Unmarshal(broker.published[0], &msg))
	assert.Equal(t, KindUser, msg.Kind)
	assert.Equal(t, int64(42), msg.UserID)
	assert.Equal(t, "Заказ #7 готов!", msg.Text)
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.CreatedAt.IsZero())
}

func TestDispatcherPublishesStaffMessage(t *testing.T) {
	broker := &capturingBroker{}
	d := NewDispatcher(broker, logger.New("notify-test", "error"))

	d.NotifyStaff(context.Background(), "Новый заказ #8")

	require.Len(t, broker.published, 1)
	var msg Message
	require.NoError(t, json.Unmarshal(broker.published[0], &msg))
	assert.Equal(t, KindStaff, msg.Kind)
	assert.Zero(t, msg.UserID)
}

func TestDispatcherSwallowsBrokerFailure(t *testing.T) {
	broker := &capturingBroker{fail: true}
	d := NewDispatcher(broker, logger.New("notify-test", "error"))

	// must not panic or surface the error
	d.NotifyStaff(context.Background(), "Новый заказ #9")
	assert.Empty(t, broker.published)
}

func TestSubscriberRoutesByKind(t *testing.T) {
	deliverer := &recordingDeliverer{}
	s := NewSubscriber(nil, deliverer, logger.New("notify-test", "error"))

	require.NoError(t, s.deliver(context.Background(), newUserMessage(7, "готов")))
	require.NoError(t, s.deliver(context.Background(), newStaffMessage("отменён")))

	assert.Equal(t, "готов", deliverer.users[7])
	assert.Equal(t, []string{"отменён"}, deliverer.staff)

	err := s.deliver(context.Background(), Message{Kind: "broadcast"})
	assert.Error(t, err)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := decode([]byte("{"))
	assert.Error(t, err)

	_, err = decode([]byte(`{"text":"no kind"}`))
	assert.Error(t, err)

	msg, err := decode([]byte(`{"id":"a","kind":"user","user_id":1,"text":"hi"}`))
	require.NoError(t, err)
	assert.Equal(t, KindUser, msg.Kind)
}
