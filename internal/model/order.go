package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderReturned   OrderStatus = "returned"
)

// ReturnWindow is how long after delivery a return may be opened.
const ReturnWindow = 7 * 24 * time.Hour

var ErrIllegalTransition = errors.New("illegal order status transition")

var transitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderConfirmed, OrderCancelled},
	OrderConfirmed:  {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderShipped, OrderCancelled},
	OrderShipped:    {OrderDelivered},
	OrderDelivered:  {OrderReturned},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderProcessing, OrderShipped,
		OrderDelivered, OrderCancelled, OrderReturned:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type Payment struct {
	Method        string        `json:"method"`
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transactionId,omitempty"`
	PaidAt        *time.Time    `json:"paidAt,omitempty"`
}

type Shipping struct {
	Address        Address    `json:"address"`
	Method         string     `json:"method,omitempty"`
	Carrier        string     `json:"carrier,omitempty"`
	TrackingNumber string     `json:"trackingNumber,omitempty"`
	ShippedAt      *time.Time `json:"shippedAt,omitempty"`
	DeliveredAt    *time.Time `json:"deliveredAt,omitempty"`
}

type StatusEvent struct {
	Status OrderStatus `json:"status"`
	Note   string      `json:"note,omitempty"`
	At     time.Time   `json:"timestamp"`
}

// Order items are frozen at checkout. After creation only status, payment
// and shipping change.
type Order struct {
	BaseModel
	OrderNumber  string          `json:"orderNumber"`
	UserID       string          `json:"userId"`
	Items        []CartLine      `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	Tax          decimal.Decimal `json:"tax"`
	Discount     decimal.Decimal `json:"discount"`
	Total        decimal.Decimal `json:"total"`
	Status       OrderStatus     `json:"status"`
	Payment      Payment         `json:"payment"`
	Shipping     Shipping        `json:"shipping"`
	History      []StatusEvent   `json:"statusHistory"`
}

// ComputeTotals sets Subtotal from the items and
// Total = Subtotal + ShippingCost + Tax - Discount, floored at zero.
func (o *Order) ComputeTotals() {
	subtotal := decimal.Zero
	for _, it := range o.Items {
		subtotal = subtotal.Add(it.LineTotal())
	}
	o.Subtotal = subtotal

	total := subtotal.Add(o.ShippingCost).Add(o.Tax).Sub(o.Discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	o.Total = total
}

// CanTransition reports whether o may move to status to at instant now.
func (o Order) CanTransition(to OrderStatus, now time.Time) error {
	allowed := false
	for _, next := range transitions[o.Status] {
		if next == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, o.Status, to)
	}

	if to == OrderReturned {
		delivered := o.Shipping.DeliveredAt
		if delivered == nil {
			delivered = o.lastEntered(OrderDelivered)
		}
		if delivered == nil || !now.Before(delivered.Add(ReturnWindow)) {
			return fmt.Errorf("%w: return window closed", ErrIllegalTransition)
		}
	}
	return nil
}

// Transition validates and applies a status change, recording it in the
// history.
func (o *Order) Transition(to OrderStatus, note string, now time.Time) error {
	if err := o.CanTransition(to, now); err != nil {
		return err
	}

	switch to {
	case OrderShipped:
		o.Shipping.ShippedAt = &now
	case OrderDelivered:
		o.Shipping.DeliveredAt = &now
	case OrderReturned:
		if o.Payment.Status == PaymentPaid {
			o.Payment.Status = PaymentRefunded
		}
	}

	o.Status = to
	o.UpdatedAt = now
	o.History = append(o.History, StatusEvent{Status: to, Note: note, At: now})
	return nil
}

func (o Order) lastEntered(s OrderStatus) *time.Time {
	for i := len(o.History) - 1; i >= 0; i-- {
		if o.History[i].Status == s {
			at := o.History[i].At
			return &at
		}
	}
	return nil
}
