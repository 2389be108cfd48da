package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/example/grocer/internal/models"
	"github.com/example/grocer/internal/repository"
)

// memCartStore is an in-memory CartStore with version checks.
type memCartStore struct {
	mu       sync.RWMutex
	carts    map[uuid.UUID]models.Cart
	clearErr error
	saveErr  error
}

func newMemCartStore() *memCartStore {
	return &memCartStore{carts: make(map[uuid.UUID]models.Cart)}
}

func (m *memCartStore) Load(_ context.Context, userID uuid.UUID) (*models.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cart, ok := m.carts[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cart.Items = append([]models.CartItem(nil), cart.Items...)
	return &cart, nil
}

func (m *memCartStore) Save(_ context.Context, cart *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}
	stored, ok := m.carts[cart.UserID]
	if ok && stored.Version != cart.Version {
		return repository.ErrStaleCart
	}
	if !ok && cart.Version != 0 {
		return repository.ErrStaleCart
	}
	cart.Version++
	copied := *cart
	copied.Items = append([]models.CartItem(nil), cart.Items...)
	m.carts[cart.UserID] = copied
	return nil
}

func (m *memCartStore) Clear(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.clearErr != nil {
		return m.clearErr
	}
	if cart, ok := m.carts[userID]; ok {
		cart.Items = nil
		cart.Version++
		m.carts[userID] = cart
	}
	return nil
}

// memProductStore serves a fixed product set.
type memProductStore struct {
	products map[uuid.UUID]models.Product
}

func newMemProductStore(products ...models.Product) *memProductStore {
	m := &memProductStore{products: make(map[uuid.UUID]models.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *memProductStore) FindWithVariants(_ context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (m *memProductStore) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockOfferStore struct {
	mock.Mock
}

func (m *mockOfferStore) FindByCode(ctx context.Context, code string) (*models.Offer, error) {
	args := m.Called(ctx, code)
	offer, _ := args.Get(0).(*models.Offer)
	return offer, args.Error(1)
}

func (m *mockOfferStore) IncrementUsage(ctx context.Context, id uuid.UUID, withinLimit bool) error {
	return m.Called(ctx, id, withinLimit).Error(0)
}

type mockOrderStore struct {
	mock.Mock
}

func (m *mockOrderStore) Create(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return args.Error(0)
}

// passthroughTx runs callbacks directly; rollback is simulated by the
// stores under test.
type passthroughTx struct {
	calls int
}

func (t *passthroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

// chanObserver forwards placed orders to a channel.
type chanObserver struct {
	ch chan *models.Order
}

func (o chanObserver) OrderPlaced(_ context.Context, order *models.Order) error {
	o.ch <- order
	return nil
}
