package domain

import (
	"errors"
	"fmt"
	"time"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

var ErrOrderNotFound = errors.New("order not found")

// TransitionError reports a rejected status change and echoes the status
// the order actually had at the time of the attempt.
type TransitionError struct {
	Current Status
	Target  Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal transition %s -> %s", e.Current, e.Target)
}

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped},
	StatusShipped:    {StatusDelivered},
}

// CanTransition reports whether from -> to is a legal edge. DELIVERED and
// CANCELLED are terminal: nothing leaves them.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

type Order struct {
	ID              int64
	Code            string
	UserID          *int64 // nil for guest checkout
	Email           string
	Items           []OrderItem
	SubtotalVND     int64
	DiscountVND     int64
	DiscountCode    string // snapshot of the applied code, not a live reference
	TotalVND        int64
	ShippingAddress string
	Phone           string
	PaymentMethod   string
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem carries the unit price at time of purchase so historical orders
// stay immutable against later price edits.
type OrderItem struct {
	ProductID    int64
	Size         string
	Quantity     int
	UnitPriceVND int64
}

func NewOrder(code string, userID *int64, email string, items []OrderItem, discountCode string, discountVND int64) Order {
	var subtotal int64
	for _, item := range items {
		subtotal += int64(item.Quantity) * item.UnitPriceVND
	}
	if discountVND > subtotal {
		discountVND = subtotal
	}
	now := time.Now().UTC()
	return Order{
		Code:         code,
		UserID:       userID,
		Email:        email,
		Items:        items,
		SubtotalVND:  subtotal,
		DiscountVND:  discountVND,
		DiscountCode: discountCode,
		TotalVND:     subtotal - discountVND,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
