package service_test

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/retailcore/order-service/internal/entities"
	"github.com/retailcore/order-service/internal/service"
	"github.com/retailcore/order-service/pkg/trm"
)

type orderAPI interface {
	PlaceOrder(ctx context.Context, in service.PlaceOrderInput) (entities.Order, error)
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
	ListMyOrders(ctx context.Context, claims entities.AuthClaims) ([]entities.Order, error)
	ListOrders(ctx context.Context) ([]entities.Order, error)
	SetStatus(ctx context.Context, orderID string, status entities.OrderStatus) (entities.Order, error)
	MarkPaid(ctx context.Context, orderID string, result entities.PaymentResult) (entities.Order, error)
	TrackOrder(ctx context.Context, orderID, email, phone string) (entities.Order, error)
}

// Hand-written fakes: the inventory fake performs the same atomic
// check-and-decrement the real ledger does, under a mutex.

type fakeInventory struct {
	mu       sync.Mutex
	products map[string]entities.Product
}

func newFakeInventory(products ...entities.Product) *fakeInventory {
	m := make(map[string]entities.Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return &fakeInventory{products: m}
}

func (f *fakeInventory) GetProduct(_ context.Context, productID string) (entities.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.products[productID]
	if !ok {
		return entities.Product{}, entities.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeInventory) ReserveStock(_ context.Context, productID string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.products[productID]
	if !ok {
		return entities.ErrProductNotFound
	}
	if p.CountInStock < qty {
		return entities.ErrInsufficientStock
	}
	p.CountInStock -= qty
	f.products[productID] = p
	return nil
}

func (f *fakeInventory) ReleaseStock(_ context.Context, productID string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.products[productID]
	if !ok {
		return entities.ErrProductNotFound
	}
	p.CountInStock += qty
	f.products[productID] = p
	return nil
}

func (f *fakeInventory) stock(productID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[productID].CountInStock
}

type fakeRepo struct {
	mu     sync.Mutex
	orders map[string]entities.Order

	saveOrderErr error
	saveItemsErr error
	getErr       error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: make(map[string]entities.Order)}
}

func (f *fakeRepo) SaveOrder(_ context.Context, o entities.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saveOrderErr != nil {
		return f.saveOrderErr
	}
	if _, ok := f.orders[o.ID]; !ok {
		f.orders[o.ID] = o
	}
	return nil
}

func (f *fakeRepo) SaveItems(_ context.Context, orderID string, items []entities.Item) error {
	if f.saveItemsErr != nil {
		return f.saveItemsErr
	}
	return nil
}

func (f *fakeRepo) GetOrderByID(_ context.Context, orderID string) (entities.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return entities.Order{}, f.getErr
	}
	o, ok := f.orders[orderID]
	if !ok {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeRepo) GetOrderForUpdate(ctx context.Context, orderID string) (entities.Order, error) {
	return f.GetOrderByID(ctx, orderID)
}

func (f *fakeRepo) ListOrdersForPurchaser(_ context.Context, userID, email string) ([]entities.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []entities.Order
	for _, o := range f.orders {
		if (userID != "" && o.Purchaser.UserID == userID) ||
			(!o.Purchaser.Registered() && strings.EqualFold(o.Purchaser.Email, email)) {
			result = append(result, o)
		}
	}
	sortNewestFirst(result)
	return result, nil
}

func (f *fakeRepo) ListOrders(_ context.Context) ([]entities.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := make([]entities.Order, 0, len(f.orders))
	for _, o := range f.orders {
		result = append(result, o)
	}
	sortNewestFirst(result)
	return result, nil
}

func (f *fakeRepo) UpdateOrderStatus(_ context.Context, o entities.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[o.ID] = o
	return nil
}

func (f *fakeRepo) UpdateOrderPayment(_ context.Context, o entities.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[o.ID] = o
	return nil
}

func (f *fakeRepo) seed(o entities.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[o.ID] = o
}

func sortNewestFirst(orders []entities.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

type fakeNotifier struct {
	mu            sync.Mutex
	created       []string
	statusChanged []string
	err           error
}

func (f *fakeNotifier) OrderCreated(_ context.Context, order entities.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, order.ID)
	return nil
}

func (f *fakeNotifier) StatusChanged(_ context.Context, order entities.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.statusChanged = append(f.statusChanged, order.ID)
	return nil
}

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

type stubTxManager struct{}

func (stubTxManager) BeginTx(ctx context.Context) (context.Context, trm.Transaction, error) {
	return ctx, stubTx{}, nil
}

func (stubTxManager) Do(ctx context.Context, callback func(ctx context.Context) error) error {
	return callback(ctx)
}
