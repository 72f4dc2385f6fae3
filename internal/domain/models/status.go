package models

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

var statusDisplayNames = map[OrderStatus]string{
	StatusPending:   "Ожидает",
	StatusConfirmed: "Подтверждён",
	StatusPreparing: "Готовится",
	StatusReady:     "Готов",
	StatusCompleted: "Выдан",
	StatusCancelled: "Отменён",
}

// statusSuccessors is the only source of legal transitions; the update
// operation enforces it rather than trusting callers.
// Orders are created CONFIRMED; PENDING survives only for rows imported
// from before auto-confirmation and gets no successors.
var statusSuccessors = map[OrderStatus][]OrderStatus{
	StatusPending:   {},
	StatusConfirmed: {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady},
	StatusReady:     {StatusCompleted},
	StatusCompleted: {},
	StatusCancelled: {},
}

func (s OrderStatus) DisplayName() string {
	if name, ok := statusDisplayNames[s]; ok {
		return name
	}
	return string(s)
}

func (s OrderStatus) Valid() bool {
	_, ok := statusDisplayNames[s]
	return ok
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, succ := range statusSuccessors[s] {
		if succ == next {
			return true
		}
	}
	return false
}

// Successors returns the legal next statuses, in staff-panel order.
func (s OrderStatus) Successors() []OrderStatus {
	return statusSuccessors[s]
}

// Terminal reports whether the order reached the end of its lifecycle.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}
