package entities

import "errors"

var ErrInvalidTransition = errors.New("invalid status transition")

type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusConfirmed OrderStatus = "Confirmed"
	StatusDelivered OrderStatus = "Delivered"
	StatusCancelled OrderStatus = "Cancelled"
)

// ParseStatus accepts only the four known states, anything else is
// rejected instead of being stored as a free-form string.
func ParseStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case StatusPending, StatusConfirmed, StatusDelivered, StatusCancelled:
		return st, nil
	}
	return "", ErrInvalidTransition
}

// rank places states on the forward path Pending -> Confirmed -> Delivered.
func (s OrderStatus) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusConfirmed:
		return 1
	case StatusDelivered:
		return 2
	}
	return -1
}

// CanTransition reports whether an order in state s may move to next.
// Cancelled is terminal. Every other state may be cancelled. Same-state
// writes and forward moves (including skips) are allowed, backward moves
// are not.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if s == next {
		return true
	}
	if s == StatusCancelled {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	return next.rank() > s.rank()
}
