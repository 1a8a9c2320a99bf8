package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/retailcore/order-service/internal/entities"
	"github.com/retailcore/order-service/internal/service"
	"github.com/retailcore/order-service/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newTestService(t *testing.T, repo *fakeRepo, inventory *fakeInventory, notifier *fakeNotifier) orderAPI {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return service.NewOrderService(logger, stubTxManager{}, repo, inventory, notifier, cache.NewLRUCache(100, time.Minute))
}

func guestInput(lines ...service.CartLine) service.PlaceOrderInput {
	return service.PlaceOrderInput{
		Guest: service.GuestDetails{
			Name:  "Jane Doe",
			Email: "jane@example.com",
			Phone: "+923001234567",
		},
		Lines: lines,
		Shipping: entities.Address{
			Street:     "1 Main St",
			City:       "Karachi",
			PostalCode: "74000",
			Country:    "PK",
		},
		PaymentMethod: "Cash on Delivery",
		ItemsPrice:    2000,
		TaxPrice:      200,
		ShippingPrice: 500,
		TotalPrice:    2700,
	}
}

func TestOrderService_PlaceOrder(t *testing.T) {
	t.Run("success decrements stock and snapshots items", func(t *testing.T) {
		inventory := newFakeInventory(entities.Product{ID: "p1", Name: "Headphones", Price: 1000, Image: "p1.jpg", CountInStock: 2})
		repo := newFakeRepo()
		notifier := &fakeNotifier{}
		svc := newTestService(t, repo, inventory, notifier)

		order, err := svc.PlaceOrder(context.Background(), guestInput(service.CartLine{ProductID: "p1", Qty: 2}))
		require.NoError(t, err)

		assert.NotEmpty(t, order.ID)
		assert.Equal(t, entities.StatusPending, order.Status)
		assert.False(t, order.IsPaid)
		assert.False(t, order.IsDelivered)
		require.Len(t, order.Items, 1)
		assert.Equal(t, entities.Item{ProductID: "p1", Name: "Headphones", Price: 1000, Image: "p1.jpg", Qty: 2}, order.Items[0])
		assert.Equal(t, 0, inventory.stock("p1"))
		assert.Equal(t, []string{order.ID}, notifier.created)

		stored, err := repo.GetOrderByID(context.Background(), order.ID)
		require.NoError(t, err)
		assert.Equal(t, order.ID, stored.ID)
	})

	t.Run("empty cart", func(t *testing.T) {
		inventory := newFakeInventory()
		svc := newTestService(t, newFakeRepo(), inventory, &fakeNotifier{})

		_, err := svc.PlaceOrder(context.Background(), guestInput())
		assert.ErrorIs(t, err, entities.ErrEmptyCart)
	})

	t.Run("unknown product", func(t *testing.T) {
		inventory := newFakeInventory()
		svc := newTestService(t, newFakeRepo(), inventory, &fakeNotifier{})

		_, err := svc.PlaceOrder(context.Background(), guestInput(service.CartLine{ProductID: "ghost", Qty: 1}))
		assert.ErrorIs(t, err, entities.ErrProductNotFound)
	})

	t.Run("insufficient stock leaves ledger untouched", func(t *testing.T) {
		inventory := newFakeInventory(entities.Product{ID: "p1", Name: "Headphones", Price: 1000, CountInStock: 2})
		svc := newTestService(t, newFakeRepo(), inventory, &fakeNotifier{})

		_, err := svc.PlaceOrder(context.Background(), guestInput(service.CartLine{ProductID: "p1", Qty: 3}))
		assert.ErrorIs(t, err, entities.ErrInsufficientStock)
		assert.Equal(t, 2, inventory.stock("p1"))
	})

	t.Run("failure mid-cart rolls back earlier reservations", func(t *testing.T) {
		inventory := newFakeInventory(
			entities.Product{ID: "p1", Name: "Headphones", Price: 1000, CountInStock: 1},
			entities.Product{ID: "p2", Name: "Speaker", Price: 3000, CountInStock: 0},
		)
		repo := newFakeRepo()
		svc := newTestService(t, repo, inventory, &fakeNotifier{})

		_, err := svc.PlaceOrder(context.Background(), guestInput(
			service.CartLine{ProductID: "p1", Qty: 1},
			service.CartLine{ProductID: "p2", Qty: 1},
		))
		assert.ErrorIs(t, err, entities.ErrInsufficientStock)
		assert.Equal(t, 1, inventory.stock("p1"))
		assert.Equal(t, 0, inventory.stock("p2"))
		orders, _ := repo.ListOrders(context.Background())
		assert.Empty(t, orders)
	})

	t.Run("persistence failure releases all reservations", func(t *testing.T) {
		inventory := newFakeInventory(entities.Product{ID: "p1", Name: "Headphones", Price: 1000, CountInStock: 5})
		repo := newFakeRepo()
		repo.saveOrderErr = errors.New("db down")
		svc := newTestService(t, repo, inventory, &fakeNotifier{})

		_, err := svc.PlaceOrder(context.Background(), guestInput(service.CartLine{ProductID: "p1", Qty: 2}))
		require.Error(t, err)
		assert.Equal(t, 5, inventory.stock("p1"))
	})

	t.Run("notifier failure does not fail the order", func(t *testing.T) {
		inventory := newFakeInventory(entities.Product{ID: "p1", Name: "Headphones", Price: 1000, CountInStock: 2})
		notifier := &fakeNotifier{err: errors.New("broker down")}
		svc := newTestService(t, newFakeRepo(), inventory, notifier)

		order, err := svc.PlaceOrder(context.Background(), guestInput(service.CartLine{ProductID: "p1", Qty: 1}))
		require.NoError(t, err)
		assert.NotEmpty(t, order.ID)
		assert.Equal(t, 1, inventory.stock("p1"))
	})

	t.Run("registered purchaser from claims", func(t *testing.T) {
		inventory := newFakeInventory(entities.Product{ID: "p1", Name: "Headphones", Price: 1000, CountInStock: 1})
		svc := newTestService(t, newFakeRepo(), inventory, &fakeNotifier{})

		in := guestInput(service.CartLine{ProductID: "p1", Qty: 1})
		in.Claims = &entities.AuthClaims{ID: "u1", Name: "John", Email: "john@example.com"}

		order, err := svc.PlaceOrder(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, "u1", order.Purchaser.UserID)
		assert.Equal(t, "john@example.com", order.Purchaser.Email)
		assert.Equal(t, "+923001234567", order.Purchaser.Phone)
	})
}

// Concurrent placements against one product must never reserve more
// units than were in stock, regardless of interleaving.
func TestOrderService_PlaceOrder_NoOversell(t *testing.T) {
	const stock = 5
	const attempts = 20

	inventory := newFakeInventory(entities.Product{ID: "p1", Name: "Headphones", Price: 1000, CountInStock: stock})
	svc := newTestService(t, newFakeRepo(), inventory, &fakeNotifier{})

	var placed, rejected atomic.Int64
	g := new(errgroup.Group)
	for i := 0; i < attempts; i++ {
		g.Go(func() error {
			_, err := svc.PlaceOrder(context.Background(), guestInput(service.CartLine{ProductID: "p1", Qty: 1}))
			switch {
			case err == nil:
				placed.Add(1)
			case errors.Is(err, entities.ErrInsufficientStock):
				rejected.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(stock), placed.Load())
	assert.Equal(t, int64(attempts-stock), rejected.Load())
	assert.Equal(t, 0, inventory.stock("p1"))
}

func TestOrderService_GetOrderByID(t *testing.T) {
	repo := newFakeRepo()
	now := time.Now()
	repo.seed(entities.Order{ID: "o1", Status: entities.StatusPending, CreatedAt: now, UpdatedAt: now})
	svc := newTestService(t, repo, newFakeInventory(), &fakeNotifier{})

	order, err := svc.GetOrderByID(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, "o1", order.ID)

	_, err = svc.GetOrderByID(context.Background(), "missing")
	assert.ErrorIs(t, err, entities.ErrOrderNotFound)
}

func TestOrderService_ListMyOrders(t *testing.T) {
	repo := newFakeRepo()
	now := time.Now()

	// Guest checkout first, registration with the same email later:
	// both orders must surface.
	repo.seed(entities.Order{
		ID:        "guest-order",
		Purchaser: entities.Purchaser{Name: "Jane", Email: "Jane@Example.com", Phone: "+1"},
		CreatedAt: now.Add(-time.Hour),
	})
	repo.seed(entities.Order{
		ID:        "user-order",
		Purchaser: entities.Purchaser{UserID: "u1", Name: "Jane", Email: "jane@example.com"},
		CreatedAt: now,
	})
	repo.seed(entities.Order{
		ID:        "other-order",
		Purchaser: entities.Purchaser{UserID: "u2", Name: "Bob", Email: "bob@example.com"},
		CreatedAt: now,
	})

	svc := newTestService(t, repo, newFakeInventory(), &fakeNotifier{})

	orders, err := svc.ListMyOrders(context.Background(), entities.AuthClaims{ID: "u1", Email: "jane@example.com"})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "user-order", orders[0].ID)
	assert.Equal(t, "guest-order", orders[1].ID)
}
