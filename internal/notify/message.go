package notify

import (
	"time"

	"github.com/google/uuid"
)

const (
	// KindUser targets one client by Telegram user id.
	KindUser = "user"
	// KindStaff targets the shared staff chat.
	KindStaff = "staff"
)

// Message is the wire format on the notifications exchange.
type Message struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	UserID    int64     `json:"user_id,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserMessage(userID int64, text string) Message {
	return Message{
		ID:        uuid.NewString(),
		Kind:      KindUser,
		UserID:    userID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
}

func newStaffMessage(text string) Message {
	return Message{
		ID:        uuid.NewString(),
		Kind:      KindStaff,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
}
