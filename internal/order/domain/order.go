package domain

import (
	"errors"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusServed    Status = "served"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// OpenStatuses are the statuses of orders still being worked on.
var OpenStatuses = []Status{StatusPending, StatusPreparing, StatusReady, StatusServed}

// KitchenStatuses are the statuses shown on the kitchen queue.
var KitchenStatuses = []Status{StatusPending, StatusPreparing, StatusReady}

var transitions = map[Status][]Status{
	StatusPending:   {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCancelled},
	StatusReady:     {StatusServed, StatusPreparing},
	StatusServed:    {StatusPaid},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusServed, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// Closed reports whether no further changes are allowed.
func (s Status) Closed() bool { return s == StatusPaid || s == StatusCancelled }

// CanTransition reports whether an order may move from s to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Payable reports whether an order in s may be paid.
func (s Status) Payable() bool { return s == StatusServed || s == StatusReady }

type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "cash"
	PaymentCard  PaymentMethod = "card"
	PaymentOther PaymentMethod = "other"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentCard || m == PaymentOther
}

const (
	MinQuantity = 1
	MaxQuantity = 99
)

var (
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidQuantity   = errors.New("quantity must be between 1 and 99")
	ErrInvalidPayment    = errors.New("payment method must be cash, card or other")
	ErrNoItems           = errors.New("order must contain at least one item")
)

// Order is a ticket for one table (or take-away when TableID is nil).
type Order struct {
	ID            string        `json:"id"`
	TableID       *string       `json:"tableId"`
	WaiterID      string        `json:"waiterId"`
	Status        Status        `json:"status"`
	Note          string        `json:"note"`
	PaymentMethod PaymentMethod `json:"paymentMethod,omitempty"`
	SubtotalCents int64         `json:"subtotalCents"`
	TaxCents      int64         `json:"taxCents"`
	TotalCents    int64         `json:"totalCents"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
	PaidAt        *time.Time    `json:"paidAt,omitempty"`
	Items         []Item        `json:"items,omitempty"`
}

// Item is an order line. Name and UnitPriceCents are copied from the menu item when the line is added.
type Item struct {
	ID             string    `json:"id"`
	OrderID        string    `json:"orderId"`
	MenuItemID     string    `json:"menuItemId"`
	Name           string    `json:"name"`
	UnitPriceCents int64     `json:"unitPriceCents"`
	Quantity       int       `json:"quantity"`
	Note           string    `json:"note"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (i Item) LineTotalCents() int64 { return i.UnitPriceCents * int64(i.Quantity) }

// Totals sets SubtotalCents, TaxCents and TotalCents from o.Items and a tax rate in basis points.
// Tax is rounded half-up to the cent.
func (o *Order) Totals(taxRateBps int) {
	var sub int64
	for _, it := range o.Items {
		sub += it.LineTotalCents()
	}
	o.SubtotalCents = sub
	o.TaxCents = TaxCents(sub, taxRateBps)
	o.TotalCents = sub + o.TaxCents
}

// TaxCents returns subtotal * bps / 10000 rounded half-up.
func TaxCents(subtotal int64, bps int) int64 {
	if subtotal <= 0 || bps <= 0 {
		return 0
	}
	return (subtotal*int64(bps) + 5000) / 10000
}

// ListFilter narrows order listings. Zero values match everything.
type ListFilter struct {
	Status  Status
	TableID string
}
