package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/retailcore/order-service/internal/entities"
	"github.com/retailcore/order-service/pkg/trm"
	"github.com/retailcore/order-service/pkg/utils"

	"github.com/google/uuid"
)

type OrderRepo interface {
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
	GetOrderForUpdate(ctx context.Context, orderID string) (entities.Order, error)
	ListOrdersForPurchaser(ctx context.Context, userID, email string) ([]entities.Order, error)
	ListOrders(ctx context.Context) ([]entities.Order, error)

	// Save operations are idempotent (ON CONFLICT DO NOTHING), safe to retry.
	SaveOrder(ctx context.Context, o entities.Order) error
	SaveItems(ctx context.Context, orderID string, items []entities.Item) error
	UpdateOrderStatus(ctx context.Context, o entities.Order) error
	UpdateOrderPayment(ctx context.Context, o entities.Order) error
}

// Inventory is the only mutator of stock counts on the order path.
type Inventory interface {
	GetProduct(ctx context.Context, productID string) (entities.Product, error)
	ReserveStock(ctx context.Context, productID string, qty int) error
	ReleaseStock(ctx context.Context, productID string, qty int) error
}

// Notifier failures must never fail the operation that triggered them.
type Notifier interface {
	OrderCreated(ctx context.Context, order entities.Order) error
	StatusChanged(ctx context.Context, order entities.Order) error
}

type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}

type orderService struct {
	logger    *slog.Logger
	txManager trm.Manager
	repo      OrderRepo
	inventory Inventory
	notifier  Notifier
	cache     Cache
}

func NewOrderService(logger *slog.Logger, txManager trm.Manager, repo OrderRepo, inventory Inventory, notifier Notifier, cache Cache) *orderService {
	return &orderService{
		logger:    logger.With(slog.String("service", "order")),
		txManager: txManager,
		repo:      repo,
		inventory: inventory,
		notifier:  notifier,
		cache:     cache,
	}
}

type CartLine struct {
	ProductID string
	Qty       int
}

type PlaceOrderInput struct {
	Claims *entities.AuthClaims
	Guest  GuestDetails

	Lines         []CartLine
	Shipping      entities.Address
	PaymentMethod string

	// Totals are supplied by the caller and stored verbatim.
	ItemsPrice    int64
	TaxPrice      int64
	ShippingPrice int64
	TotalPrice    int64
}

// PlaceOrder reserves stock for the whole cart, persists the order and
// notifies downstream. The call is all-or-nothing: any failure releases
// every reservation made so far and leaves the ledger untouched.
func (s *orderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (entities.Order, error) {
	if len(in.Lines) == 0 {
		return entities.Order{}, entities.ErrEmptyCart
	}

	purchaser, err := ResolvePurchaser(in.Claims, in.Guest)
	if err != nil {
		return entities.Order{}, err
	}

	// Reservations happen in submitted order. Items collected so far
	// double as the release list on failure.
	items := make([]entities.Item, 0, len(in.Lines))
	for _, line := range in.Lines {
		if line.Qty < 1 {
			s.releaseAll(ctx, items)
			return entities.Order{}, fmt.Errorf("%w: product %s", entities.ErrInvalidQuantity, line.ProductID)
		}

		product, err := s.inventory.GetProduct(ctx, line.ProductID)
		if err != nil {
			s.releaseAll(ctx, items)
			return entities.Order{}, err
		}

		if err := s.inventory.ReserveStock(ctx, line.ProductID, line.Qty); err != nil {
			s.releaseAll(ctx, items)
			return entities.Order{}, err
		}

		items = append(items, entities.Item{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Image:     product.Image,
			Qty:       line.Qty,
		})
	}

	now := time.Now()
	order := entities.Order{
		ID:            uuid.NewString(),
		Purchaser:     purchaser,
		Shipping:      in.Shipping,
		PaymentMethod: in.PaymentMethod,
		ItemsPrice:    in.ItemsPrice,
		TaxPrice:      in.TaxPrice,
		ShippingPrice: in.ShippingPrice,
		TotalPrice:    in.TotalPrice,
		Status:        entities.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
		Items:         items,
	}

	persist := func() error {
		return s.txManager.Do(ctx, func(ctx context.Context) error {
			if err := s.repo.SaveOrder(ctx, order); err != nil {
				return fmt.Errorf("failed to save order: %w", err)
			}
			if err := s.repo.SaveItems(ctx, order.ID, order.Items); err != nil {
				return fmt.Errorf("failed to save items: %w", err)
			}
			return nil
		})
	}

	if err := utils.Retry(persistRetryConfig, persist); err != nil {
		// Stock must never stay decremented for an order that does
		// not exist.
		s.releaseAll(ctx, items)
		return entities.Order{}, fmt.Errorf("failed to persist order: %w", err)
	}

	s.logger.Debug("order placed", slog.String("order_id", order.ID))
	s.cacheOrder(order)
	s.notify("order created", order.ID, func(ctx context.Context) error {
		return s.notifier.OrderCreated(ctx, order)
	})

	return order, nil
}

func (s *orderService) GetOrderByID(ctx context.Context, orderID string) (entities.Order, error) {
	if data, ok := s.cache.Get(orderID); ok {
		var order entities.Order
		if err := order.Unmarshal(data); err != nil {
			s.logger.Error("failed to unmarshal cached order", slog.String("order_id", orderID), slog.Any("error", err))
			return entities.Order{}, err
		}
		return order, nil
	}

	var order entities.Order
	fn := func() error {
		var err error
		order, err = s.repo.GetOrderByID(ctx, orderID)
		return err
	}
	if err := utils.Retry(persistRetryConfig, fn, entities.ErrOrderNotFound); err != nil {
		return entities.Order{}, err
	}

	s.cacheOrder(order)
	return order, nil
}

// ListMyOrders returns orders bound to the registered user plus guest
// orders placed earlier under the same email, newest first.
func (s *orderService) ListMyOrders(ctx context.Context, claims entities.AuthClaims) ([]entities.Order, error) {
	return s.repo.ListOrdersForPurchaser(ctx, claims.ID, claims.Email)
}

func (s *orderService) ListOrders(ctx context.Context) ([]entities.Order, error) {
	return s.repo.ListOrders(ctx)
}

var persistRetryConfig = utils.RetryConfig{
	InitialDelay: 100 * time.Millisecond,
	MaxAttempts:  5,
	Multiplier:   2,
}

const notifyTimeout = 3 * time.Second

// notify performs a single best-effort call, detached from the request
// context since the order is already durable.
func (s *orderService) notify(event, orderID string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		s.logger.Error("notification failed",
			slog.String("event", event),
			slog.String("order_id", orderID),
			slog.Any("error", err),
		)
	}
}

func (s *orderService) releaseAll(ctx context.Context, items []entities.Item) {
	for _, it := range items {
		if err := s.inventory.ReleaseStock(ctx, it.ProductID, it.Qty); err != nil {
			s.logger.Error("failed to release stock",
				slog.String("product_id", it.ProductID),
				slog.Int("qty", it.Qty),
				slog.Any("error", err),
			)
		}
	}
}

func (s *orderService) cacheOrder(order entities.Order) {
	data, err := order.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal order", slog.String("order_id", order.ID), slog.Any("error", err))
		return
	}
	s.cache.Set(order.ID, data)
}
