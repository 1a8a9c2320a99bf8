package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/retailcore/order-service/internal/entities"
	"github.com/retailcore/order-service/pkg/trm"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

type postgresRepo struct {
	db *sqlx.DB
	qb sq.StatementBuilderType
}

func NewPostgresRepo(db *sqlx.DB) *postgresRepo {
	return &postgresRepo{
		db: db,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *postgresRepo) GetProduct(ctx context.Context, productID string) (entities.Product, error) {
	query, args := r.qb.Select("product_id", "name", "price", "image", "count_in_stock").
		From("products").
		Where(sq.Eq{"product_id": productID}).
		MustSql()

	var product Product
	err := r.getContext(ctx, &product, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Product{}, entities.ErrProductNotFound
	}
	if err != nil {
		return entities.Product{}, fmt.Errorf("failed to get product: %w", err)
	}
	return ProductToEntity(product), nil
}

// ReserveStock decrements available stock with a single conditional
// update, so two concurrent reservations can never both take the last
// unit.
func (r *postgresRepo) ReserveStock(ctx context.Context, productID string, qty int) error {
	query, args := r.qb.Update("products").
		Set("count_in_stock", sq.Expr("count_in_stock - ?", qty)).
		Where(sq.Eq{"product_id": productID}).
		Where(sq.GtOrEq{"count_in_stock": qty}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to reserve stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to reserve stock: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// No row updated: either the product is missing or stock is short.
	if _, err := r.GetProduct(ctx, productID); err != nil {
		return err
	}
	return entities.ErrInsufficientStock
}

// ReleaseStock undoes a prior successful reservation.
func (r *postgresRepo) ReleaseStock(ctx context.Context, productID string, qty int) error {
	query, args := r.qb.Update("products").
		Set("count_in_stock", sq.Expr("count_in_stock + ?", qty)).
		Where(sq.Eq{"product_id": productID}).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to release stock: %w", err)
	}
	return nil
}

func (r *postgresRepo) SaveOrder(ctx context.Context, o entities.Order) error {
	query, args := r.qb.Insert("orders").
		Columns(
			"order_id", "user_id", "name", "email", "phone",
			"street", "city", "postal_code", "country",
			"payment_method", "items_price", "tax_price", "shipping_price", "total_price",
			"status", "is_paid", "paid_at", "is_delivered", "delivered_at",
			"created_at", "updated_at",
		).
		Values(
			o.ID, nullString(o.Purchaser.UserID), o.Purchaser.Name, o.Purchaser.Email, nullString(o.Purchaser.Phone),
			o.Shipping.Street, o.Shipping.City, o.Shipping.PostalCode, o.Shipping.Country,
			o.PaymentMethod, o.ItemsPrice, o.TaxPrice, o.ShippingPrice, o.TotalPrice,
			string(o.Status), o.IsPaid, nullTime(o.PaidAt), o.IsDelivered, nullTime(o.DeliveredAt),
			o.CreatedAt, o.UpdatedAt,
		).
		Suffix("ON CONFLICT (order_id) DO NOTHING").
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

func (r *postgresRepo) SaveItems(ctx context.Context, orderID string, items []entities.Item) error {
	if len(items) == 0 {
		return nil
	}

	q := r.qb.Insert("order_items").
		Columns("order_id", "position", "product_id", "name", "price", "image", "qty").
		Suffix("ON CONFLICT (order_id, position) DO NOTHING")

	for i, it := range items {
		q = q.Values(orderID, i, it.ProductID, it.Name, it.Price, nullString(it.Image), it.Qty)
	}

	query, args := q.MustSql()
	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save items: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetOrderByID(ctx context.Context, orderID string) (entities.Order, error) {
	return r.getOrder(ctx, orderID, false)
}

// GetOrderForUpdate locks the order row for the duration of the
// surrounding transaction, serializing status and payment writes per
// order.
func (r *postgresRepo) GetOrderForUpdate(ctx context.Context, orderID string) (entities.Order, error) {
	return r.getOrder(ctx, orderID, true)
}

func (r *postgresRepo) getOrder(ctx context.Context, orderID string, forUpdate bool) (entities.Order, error) {
	q := r.qb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"order_id": orderID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	query, args := q.MustSql()

	var order Order
	err := r.getContext(ctx, &order, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	query, args = r.qb.Select(itemColumns...).
		From("order_items").
		Where(sq.Eq{"order_id": orderID}).
		OrderBy("position").
		MustSql()

	var items []Item
	if err := r.selectContext(ctx, &items, query, args...); err != nil {
		return entities.Order{}, fmt.Errorf("failed to get items: %w", err)
	}

	return OrderToEntity(order, items), nil
}

// ListOrdersForPurchaser returns orders bound to the registered user id
// plus guest orders placed under the same email, newest first.
func (r *postgresRepo) ListOrdersForPurchaser(ctx context.Context, userID, email string) ([]entities.Order, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		Where(sq.Or{
			sq.Eq{"user_id": userID},
			sq.And{
				sq.Eq{"user_id": nil},
				sq.Expr("lower(email) = lower(?)", email),
			},
		}).
		OrderBy("created_at DESC").
		MustSql()

	return r.listOrders(ctx, query, args)
}

func (r *postgresRepo) ListOrders(ctx context.Context) ([]entities.Order, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		OrderBy("created_at DESC").
		MustSql()

	return r.listOrders(ctx, query, args)
}

func (r *postgresRepo) listOrders(ctx context.Context, query string, args []any) ([]entities.Order, error) {
	var orders []Order
	if err := r.selectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select orders: %w", err)
	}

	if len(orders) == 0 {
		return []entities.Order{}, nil
	}

	ids := make([]string, len(orders))
	for i, order := range orders {
		ids[i] = order.OrderID
	}

	query, itemArgs := r.qb.Select(itemColumns...).
		From("order_items").
		Where(sq.Eq{"order_id": ids}).
		OrderBy("order_id", "position").
		MustSql()

	var items []Item
	if err := r.selectContext(ctx, &items, query, itemArgs...); err != nil {
		return nil, fmt.Errorf("failed to select items: %w", err)
	}
	itemsMap := make(map[string][]Item, len(ids))
	for _, item := range items {
		itemsMap[item.OrderID] = append(itemsMap[item.OrderID], item)
	}

	result := make([]entities.Order, 0, len(orders))
	for _, order := range orders {
		result = append(result, OrderToEntity(order, itemsMap[order.OrderID]))
	}
	return result, nil
}

func (r *postgresRepo) UpdateOrderStatus(ctx context.Context, o entities.Order) error {
	query, args := r.qb.Update("orders").
		Set("status", string(o.Status)).
		Set("is_delivered", o.IsDelivered).
		Set("delivered_at", nullTime(o.DeliveredAt)).
		Set("updated_at", o.UpdatedAt).
		Where(sq.Eq{"order_id": o.ID}).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return nil
}

func (r *postgresRepo) UpdateOrderPayment(ctx context.Context, o entities.Order) error {
	q := r.qb.Update("orders").
		Set("is_paid", o.IsPaid).
		Set("paid_at", nullTime(o.PaidAt)).
		Set("updated_at", o.UpdatedAt).
		Where(sq.Eq{"order_id": o.ID})

	if o.Payment != nil {
		q = q.Set("payment_id", o.Payment.ID).
			Set("payment_status", nullString(o.Payment.Status)).
			Set("payment_time", o.Payment.Time).
			Set("payment_email", nullString(o.Payment.Email))
	}

	query, args := q.MustSql()
	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update order payment: %w", err)
	}
	return nil
}

var orderColumns = []string{
	"order_id", "user_id", "name", "email", "phone",
	"street", "city", "postal_code", "country",
	"payment_method", "items_price", "tax_price", "shipping_price", "total_price",
	"status", "is_paid", "paid_at", "is_delivered", "delivered_at",
	"payment_id", "payment_status", "payment_time", "payment_email",
	"created_at", "updated_at",
}

var itemColumns = []string{"order_id", "position", "product_id", "name", "price", "image", "qty"}

func (r *postgresRepo) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.ExecContext(ctx, query, args...)
	}
	return r.db.ExecContext(ctx, query, args...)
}

func (r *postgresRepo) getContext(ctx context.Context, dest any, query string, args ...any) error {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.GetContext(ctx, dest, query, args...)
	}
	return r.db.GetContext(ctx, dest, query, args...)
}

func (r *postgresRepo) selectContext(ctx context.Context, dest any, query string, args ...any) error {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.SelectContext(ctx, dest, query, args...)
	}
	return r.db.SelectContext(ctx, dest, query, args...)
}
