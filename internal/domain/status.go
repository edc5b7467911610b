package domain

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// transitions lists the allowed next states for each status.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted},
	StatusCompleted: nil,
	StatusCancelled: nil,
}

func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether the regular workflow allows from -> to.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanForce is the admin override: edges may be skipped, but a terminal
// order stays terminal and nothing returns to pending.
func CanForce(from, to OrderStatus) bool {
	if !from.Valid() || !to.Valid() || from == to {
		return false
	}
	return !from.Terminal() && to != StatusPending
}

func (p PaymentStatus) Valid() bool {
	return p == PaymentPending || p == PaymentPaid
}

// CanPay reports whether payment status may move from -> to. Paid is final.
func CanPay(from, to PaymentStatus) bool {
	if !to.Valid() {
		return false
	}
	return from == to || (from == PaymentPending && to == PaymentPaid)
}

func (m PaymentMethod) Valid() bool {
	return m == PaymentCOD || m == PaymentGPay
}
