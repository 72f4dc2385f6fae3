package session

import (
	"context"
	"fmt"

	"github.com/mkdir-username/etlon-coffee/internal/domain/models"
)

// State names the checkout step a session is in.
type State string

const (
	StateBrowsing           State = "browsing"
	StateSelectingSize      State = "selecting_size"
	StateSelectingModifiers State = "selecting_modifiers"
	StateSelectingTime      State = "selecting_time"
	StateApplyingBonus      State = "applying_bonus"
	StateConfirming         State = "confirming"
	StateEnteringComment    State = "entering_comment"
)

// Key scopes a session to one (user, chat) pair; there is no cross-user
// sharing and therefore no locking inside the session itself.
type Key struct {
	UserID int64
	ChatID int64
}

func (k Key) String() string {
	return fmt.Sprintf("%d:%d", k.UserID, k.ChatID)
}

// Pending holds the drink being composed before it is merged into the
// cart. The identity key is computed only after the whole selection is
// resolved, so unrelated configurations never collide.
type Pending struct {
	ItemID    int64          `json:"item_id"`
	Name      string         `json:"name"`
	BasePrice int64          `json:"base_price"`
	HasSizes  bool           `json:"has_sizes"`
	Size      string         `json:"size,omitempty"`
	SizeName  string         `json:"size_name,omitempty"`
	SizeDiff  int64          `json:"size_diff,omitempty"`
	Selected  map[int64]bool `json:"selected,omitempty"` // toggled modifier ids
}

// SelectedIDs returns the toggled modifier ids; order is irrelevant, the
// cart key sorts.
func (p *Pending) SelectedIDs() []int64 {
	ids := make([]int64, 0, len(p.Selected))
	for id, on := range p.Selected {
		if on {
			ids = append(ids, id)
		}
	}
	return ids
}

// Session is the per-user checkout blob: FSM state, cart, and the
// transient fields of the current step.
type Session struct {
	State      State             `json:"state"`
	Cart       []models.CartLine `json:"cart"`
	Pending    *Pending          `json:"pending,omitempty"`
	PickupTime string            `json:"pickup_time,omitempty"`
	Bonus      int64             `json:"bonus,omitempty"`
	CommentKey string            `json:"comment_key,omitempty"` // cart line being annotated
}

func New() *Session {
	return &Session{State: StateBrowsing, Cart: []models.CartLine{}}
}

// Store keeps sessions between updates. Get returns a fresh browsing
// session when none exists; nothing survives beyond what the backend
// guarantees (memory: process lifetime, redis: TTL).
type Store interface {
	Get(ctx context.Context, key Key) (*Session, error)
	Put(ctx context.Context, key Key, s *Session) error
	Clear(ctx context.Context, key Key) error
}
