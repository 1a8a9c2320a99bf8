package repo

import (
	"database/sql"
	"time"

	"github.com/retailcore/order-service/internal/entities"
)

type Order struct {
	OrderID       string         `db:"order_id"`
	UserID        sql.NullString `db:"user_id"`
	Name          string         `db:"name"`
	Email         string         `db:"email"`
	Phone         sql.NullString `db:"phone"`
	Street        string         `db:"street"`
	City          string         `db:"city"`
	PostalCode    string         `db:"postal_code"`
	Country       string         `db:"country"`
	PaymentMethod string         `db:"payment_method"`
	ItemsPrice    int64          `db:"items_price"`
	TaxPrice      int64          `db:"tax_price"`
	ShippingPrice int64          `db:"shipping_price"`
	TotalPrice    int64          `db:"total_price"`
	Status        string         `db:"status"`
	IsPaid        bool           `db:"is_paid"`
	PaidAt        sql.NullTime   `db:"paid_at"`
	IsDelivered   bool           `db:"is_delivered"`
	DeliveredAt   sql.NullTime   `db:"delivered_at"`
	PaymentID     sql.NullString `db:"payment_id"`
	PaymentStatus sql.NullString `db:"payment_status"`
	PaymentTime   sql.NullTime   `db:"payment_time"`
	PaymentEmail  sql.NullString `db:"payment_email"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

type Item struct {
	OrderID   string         `db:"order_id"`
	Position  int            `db:"position"`
	ProductID string         `db:"product_id"`
	Name      string         `db:"name"`
	Price     int64          `db:"price"`
	Image     sql.NullString `db:"image"`
	Qty       int            `db:"qty"`
}

type Product struct {
	ProductID    string         `db:"product_id"`
	Name         string         `db:"name"`
	Price        int64          `db:"price"`
	Image        sql.NullString `db:"image"`
	CountInStock int            `db:"count_in_stock"`
}

func ProductToEntity(p Product) entities.Product {
	return entities.Product{
		ID:           p.ProductID,
		Name:         p.Name,
		Price:        p.Price,
		Image:        nullStringToString(p.Image),
		CountInStock: p.CountInStock,
	}
}

func ItemToEntity(i Item) entities.Item {
	return entities.Item{
		ProductID: i.ProductID,
		Name:      i.Name,
		Price:     i.Price,
		Image:     nullStringToString(i.Image),
		Qty:       i.Qty,
	}
}

func OrderToEntity(o Order, items []Item) entities.Order {
	order := entities.Order{
		ID: o.OrderID,
		Purchaser: entities.Purchaser{
			UserID: nullStringToString(o.UserID),
			Name:   o.Name,
			Email:  o.Email,
			Phone:  nullStringToString(o.Phone),
		},
		Shipping: entities.Address{
			Street:     o.Street,
			City:       o.City,
			PostalCode: o.PostalCode,
			Country:    o.Country,
		},
		PaymentMethod: o.PaymentMethod,
		ItemsPrice:    o.ItemsPrice,
		TaxPrice:      o.TaxPrice,
		ShippingPrice: o.ShippingPrice,
		TotalPrice:    o.TotalPrice,
		Status:        entities.OrderStatus(o.Status),
		IsPaid:        o.IsPaid,
		PaidAt:        nullTimeToPtr(o.PaidAt),
		IsDelivered:   o.IsDelivered,
		DeliveredAt:   nullTimeToPtr(o.DeliveredAt),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}

	if o.PaymentID.Valid {
		order.Payment = &entities.PaymentResult{
			ID:     o.PaymentID.String,
			Status: nullStringToString(o.PaymentStatus),
			Time:   o.PaymentTime.Time,
			Email:  nullStringToString(o.PaymentEmail),
		}
	}

	if len(items) > 0 {
		order.Items = make([]entities.Item, 0, len(items))
		for _, it := range items {
			order.Items = append(order.Items, ItemToEntity(it))
		}
	}

	return order
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullStringToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func nullTimeToPtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		t := nt.Time
		return &t
	}
	return nil
}
