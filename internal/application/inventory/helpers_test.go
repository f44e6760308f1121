package inventory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/gpms/backend/internal/domain/catalog"
	"github.com/gpms/backend/internal/domain/inventory"
	"github.com/gpms/backend/internal/domain/shared"
)

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context) ([]catalog.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) List(ctx context.Context, filter shared.Filter) ([]catalog.Product, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return m.Called(ctx, product).Error(0)
}

type MockProductUnitRepository struct {
	mock.Mock
}

func (m *MockProductUnitRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.ProductUnit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ProductUnit), args.Error(1)
}

func (m *MockProductUnitRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.ProductUnit, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]catalog.ProductUnit), args.Error(1)
}

func (m *MockProductUnitRepository) FindByProductID(ctx context.Context, productID uuid.UUID) ([]catalog.ProductUnit, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]catalog.ProductUnit), args.Error(1)
}

func (m *MockProductUnitRepository) FindAll(ctx context.Context) ([]catalog.ProductUnit, error) {
	args := m.Called(ctx)
	return args.Get(0).([]catalog.ProductUnit), args.Error(1)
}

func (m *MockProductUnitRepository) FindExistingSerials(ctx context.Context, serials []string) ([]string, error) {
	args := m.Called(ctx, serials)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockProductUnitRepository) Save(ctx context.Context, unit *catalog.ProductUnit) error {
	return m.Called(ctx, unit).Error(0)
}

func (m *MockProductUnitRepository) SaveBatch(ctx context.Context, units []*catalog.ProductUnit) error {
	return m.Called(ctx, units).Error(0)
}

// recordingCache is a map-backed ViewCache that remembers invalidations.
type recordingCache struct {
	mu            sync.Mutex
	views         map[uuid.UUID]*inventory.ProductView
	invalidated   []uuid.UUID
	invalidateAll int
	failGet       bool
}

func newRecordingCache() *recordingCache {
	return &recordingCache{views: map[uuid.UUID]*inventory.ProductView{}}
}

func (c *recordingCache) Get(_ context.Context, id uuid.UUID) (*inventory.ProductView, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return nil, false, errors.New("cache down")
	}
	v, ok := c.views[id]
	return v, ok, nil
}

func (c *recordingCache) Set(_ context.Context, v *inventory.ProductView) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.views[v.ProductID] = v
	return nil
}

func (c *recordingCache) Invalidate(_ context.Context, ids ...uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.views, id)
		c.invalidated = append(c.invalidated, id)
	}
	return nil
}

func (c *recordingCache) InvalidateAll(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.views = map[uuid.UUID]*inventory.ProductView{}
	c.invalidateAll++
	return nil
}
