package handler

import (
	"time"

	"github.com/retailcore/order-service/internal/entities"
	"github.com/retailcore/order-service/internal/service"
)

type CartLine struct {
	ProductID string `json:"product_id" validate:"required"`
	Qty       int    `json:"qty" validate:"required,gte=1"`
}

type Address struct {
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

// PlaceOrderRequest carries the cart plus caller-computed totals. The
// contact fields are required for guests, for authenticated customers
// only the phone is read.
type PlaceOrderRequest struct {
	Items         []CartLine `json:"items" validate:"required,min=1,dive"`
	Shipping      Address    `json:"shipping_address" validate:"required"`
	PaymentMethod string     `json:"payment_method" validate:"required"`

	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone"`

	ItemsPrice    int64 `json:"items_price" validate:"gte=0"`
	TaxPrice      int64 `json:"tax_price" validate:"gte=0"`
	ShippingPrice int64 `json:"shipping_price" validate:"gte=0"`
	TotalPrice    int64 `json:"total_price" validate:"gte=0"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type PayRequest struct {
	ID     string `json:"id" validate:"required"`
	Status string `json:"status"`
	Time   int64  `json:"time"`
	Email  string `json:"email" validate:"omitempty,email"`
}

type TrackRequest struct {
	OrderID string `json:"order_id" validate:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone"`
}

type Item struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Image     string `json:"image,omitempty"`
	Qty       int    `json:"qty"`
}

type PaymentResult struct {
	ID     string    `json:"id"`
	Status string    `json:"status,omitempty"`
	Time   time.Time `json:"time"`
	Email  string    `json:"email,omitempty"`
}

type Order struct {
	ID            string         `json:"order_id"`
	UserID        string         `json:"user_id,omitempty"`
	Name          string         `json:"name"`
	Email         string         `json:"email"`
	Phone         string         `json:"phone,omitempty"`
	Shipping      Address        `json:"shipping_address"`
	PaymentMethod string         `json:"payment_method"`
	Items         []Item         `json:"items"`
	ItemsPrice    int64          `json:"items_price"`
	TaxPrice      int64          `json:"tax_price"`
	ShippingPrice int64          `json:"shipping_price"`
	TotalPrice    int64          `json:"total_price"`
	Status        string         `json:"status"`
	IsPaid        bool           `json:"is_paid"`
	PaidAt        *time.Time     `json:"paid_at,omitempty"`
	IsDelivered   bool           `json:"is_delivered"`
	DeliveredAt   *time.Time     `json:"delivered_at,omitempty"`
	Payment       *PaymentResult `json:"payment_result,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func PlaceOrderRequestToInput(req PlaceOrderRequest, claims *entities.AuthClaims) service.PlaceOrderInput {
	lines := make([]service.CartLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, service.CartLine{ProductID: it.ProductID, Qty: it.Qty})
	}

	return service.PlaceOrderInput{
		Claims: claims,
		Guest: service.GuestDetails{
			Name:  req.Name,
			Email: req.Email,
			Phone: req.Phone,
		},
		Lines: lines,
		Shipping: entities.Address{
			Street:     req.Shipping.Street,
			City:       req.Shipping.City,
			PostalCode: req.Shipping.PostalCode,
			Country:    req.Shipping.Country,
		},
		PaymentMethod: req.PaymentMethod,
		ItemsPrice:    req.ItemsPrice,
		TaxPrice:      req.TaxPrice,
		ShippingPrice: req.ShippingPrice,
		TotalPrice:    req.TotalPrice,
	}
}

func PayRequestToEntity(req PayRequest) entities.PaymentResult {
	return entities.PaymentResult{
		ID:     req.ID,
		Status: req.Status,
		Time:   time.Unix(req.Time, 0),
		Email:  req.Email,
	}
}

func ItemEntityToJSON(i entities.Item) Item {
	return Item{
		ProductID: i.ProductID,
		Name:      i.Name,
		Price:     i.Price,
		Image:     i.Image,
		Qty:       i.Qty,
	}
}

func OrderEntityToJSON(o entities.Order) Order {
	items := make([]Item, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ItemEntityToJSON(it))
	}

	order := Order{
		ID:     o.ID,
		UserID: o.Purchaser.UserID,
		Name:   o.Purchaser.Name,
		Email:  o.Purchaser.Email,
		Phone:  o.Purchaser.Phone,
		Shipping: Address{
			Street:     o.Shipping.Street,
			City:       o.Shipping.City,
			PostalCode: o.Shipping.PostalCode,
			Country:    o.Shipping.Country,
		},
		PaymentMethod: o.PaymentMethod,
		Items:         items,
		ItemsPrice:    o.ItemsPrice,
		TaxPrice:      o.TaxPrice,
		ShippingPrice: o.ShippingPrice,
		TotalPrice:    o.TotalPrice,
		Status:        string(o.Status),
		IsPaid:        o.IsPaid,
		PaidAt:        o.PaidAt,
		IsDelivered:   o.IsDelivered,
		DeliveredAt:   o.DeliveredAt,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}

	if o.Payment != nil {
		order.Payment = &PaymentResult{
			ID:     o.Payment.ID,
			Status: o.Payment.Status,
			Time:   o.Payment.Time,
			Email:  o.Payment.Email,
		}
	}

	return order
}

func OrdersEntityToJSON(orders []entities.Order) []Order {
	result := make([]Order, 0, len(orders))
	for _, o := range orders {
		result = append(result, OrderEntityToJSON(o))
	}
	return result
}
