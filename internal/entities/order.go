package entities

import (
	"bytes"
	"encoding/gob"
	"errors"
	"time"
)

var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInvalidQuantity      = errors.New("invalid item quantity")
	ErrOrderNotFound        = errors.New("order not found")
	ErrVerificationMismatch = errors.New("verification details do not match")
)

// Purchaser is fixed at order creation and never changes afterwards.
// UserID is set for registered customers, empty for guests.
type Purchaser struct {
	UserID string
	Name   string
	Email  string
	Phone  string
}

func (p Purchaser) Registered() bool {
	return p.UserID != ""
}

type Address struct {
	Street     string
	City       string
	PostalCode string
	Country    string
}

// Item is a snapshot of the product at order time, so later catalog
// edits never alter historical orders.
type Item struct {
	ProductID string
	Name      string
	Price     int64
	Image     string
	Qty       int
}

type Order struct {
	ID            string
	Purchaser     Purchaser
	Shipping      Address
	PaymentMethod string

	ItemsPrice    int64
	TaxPrice      int64
	ShippingPrice int64
	TotalPrice    int64

	Status      OrderStatus
	IsPaid      bool
	PaidAt      *time.Time
	IsDelivered bool
	DeliveredAt *time.Time
	Payment     *PaymentResult

	CreatedAt time.Time
	UpdatedAt time.Time

	Items []Item
}

func (o *Order) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (o *Order) Unmarshal(data []byte) error {
	buf := bytes.NewBuffer(data)
	dec := gob.NewDecoder(buf)
	return dec.Decode(o)
}

func init() {
	gob.Register(Order{})
	gob.Register(Purchaser{})
	gob.Register(Address{})
	gob.Register(PaymentResult{})
	gob.Register(Item{})
}
