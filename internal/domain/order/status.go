package order

import "github.com/go-faster/errors"

// Status is the order lifecycle state. Transitions are append-only: there
// is no path back to pending and no way out of cancelled.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusShipped   Status = "shipped"
)

// PaymentStatus mirrors the payment sub-record state onto the order.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// ShipmentStatus is the shipment sub-record state.
type ShipmentStatus string

const (
	ShipmentPending   ShipmentStatus = "pending"
	ShipmentShipped   ShipmentStatus = "shipped"
	ShipmentDelivered ShipmentStatus = "delivered"
	ShipmentCancelled ShipmentStatus = "cancelled"
)

var (
	// ErrInvalidStatus is returned when a status string is not one of the
	// defined enum values.
	ErrInvalidStatus = errors.New("invalid order status")
	// ErrTerminalState is returned when transitioning out of a state with
	// no outgoing transitions.
	ErrTerminalState = errors.New("order is in a terminal state")
	// ErrCannotCancelCompleted is returned when cancelling a completed
	// order.
	ErrCannotCancelCompleted = errors.New("completed orders cannot be cancelled")
)

// ParseStatus maps a raw string to a Status, rejecting unknown values with
// ErrInvalidStatus.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusCompleted, StatusCancelled, StatusShipped:
		return st, nil
	default:
		return "", ErrInvalidStatus
	}
}

// transitions is the order state machine. Shipped orders may still complete
// (delivery confirmation closes them); completed and cancelled have no
// outgoing edges.
var transitions = map[Status][]Status{
	StatusPending: {StatusCompleted, StatusCancelled, StatusShipped},
	StatusShipped: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether from → to is a permitted transition.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// checkTransition maps a forbidden transition to the most specific error.
// Setting the current status again is a no-op, never a terminal-state
// violation.
func checkTransition(from, to Status) error {
	if from == to || CanTransition(from, to) {
		return nil
	}
	if from == StatusCompleted && to == StatusCancelled {
		return ErrCannotCancelCompleted
	}
	return ErrTerminalState
}
