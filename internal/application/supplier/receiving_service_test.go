package supplier

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gpms/backend/internal/domain/catalog"
	"github.com/gpms/backend/internal/domain/coordination"
	"github.com/gpms/backend/internal/domain/shared"
)

type MockProductStock struct {
	mock.Mock
}

func (m *MockProductStock) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductStock) ReceiveUnits(ctx context.Context, productID uuid.UUID, units []*catalog.ProductUnit) (int, error) {
	args := m.Called(ctx, productID, units)
	return args.Int(0), args.Error(1)
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
	args := m.Called(ctx, unit)
	return args.Error(0)
}

func (m *MockProductUnitRepository) SaveBatch(ctx context.Context, units []*catalog.ProductUnit) error {
	args := m.Called(ctx, units)
	return args.Error(0)
}

// stubGenerator issues sequential barcodes, skipping serials listed in fail.
type stubGenerator struct {
	fail     map[string]bool
	next     int
	metadata map[uuid.UUID]map[string]any
}

func (g *stubGenerator) GenerateBulkUnitBarcodesWithMetadata(_ context.Context, ids []uuid.UUID, metadata map[uuid.UUID]map[string]any) map[uuid.UUID]string {
	g.metadata = metadata
	out := map[uuid.UUID]string{}
	for _, id := range ids {
		if serial, _ := metadata[id][coordination.MetaSerialNumber].(string); g.fail[serial] {
			continue
		}
		out[id] = []string{"GPMSU001000", "GPMSU001001", "GPMSU001002"}[g.next]
		g.next++
	}
	return out
}

type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) countOf(eventType string) int {
	n := 0
	for _, e := range p.events {
		if e.EventType() == eventType {
			n++
		}
	}
	return n
}

type fixture struct {
	products  *MockProductStock
	units     *MockProductUnitRepository
	generator *stubGenerator
	publisher *recordingPublisher
	svc       *ReceivingService
}

func newFixture() *fixture {
	f := &fixture{
		products:  new(MockProductStock),
		units:     new(MockProductUnitRepository),
		generator: &stubGenerator{fail: map[string]bool{}},
		publisher: &recordingPublisher{},
	}
	f.svc = NewReceivingService(f.products, f.units, f.generator, f.publisher, zap.NewNop())
	return f
}

func testProduct(t *testing.T) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct("IP15", "iPhone 15", "phones", decimal.NewFromInt(799))
	require.NoError(t, err)
	return p
}

func TestReceiveShipment_Success(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	product := testProduct(t)

	f.products.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	f.units.On("FindExistingSerials", mock.Anything, []string{"SN-1", "SN-2"}).Return([]string{}, nil)
	f.products.On("ReceiveUnits", mock.Anything, product.ID, mock.MatchedBy(func(units []*catalog.ProductUnit) bool {
		return len(units) == 2 && units[0].SerialNumber == "SN-1" && units[1].SerialNumber == "SN-2"
	})).Return(2, nil)
	f.units.On("SaveBatch", mock.Anything, mock.Anything).Return(nil)

	result, err := f.svc.ReceiveShipment(ctx, ReceiveShipmentRequest{
		ProductID: product.ID,
		Reference: "PO-77",
		Items: []ShipmentItem{
			{SerialNumber: " SN-1 ", Color: "black", Storage: "128GB"},
			{SerialNumber: "SN-2"},
		},
	})
	require.NoError(t, err)

	require.Len(t, result.Units, 2)
	assert.Equal(t, "SN-1", result.Units[0].SerialNumber)
	assert.Equal(t, "GPMSU001000", result.Units[0].Barcode)
	assert.Equal(t, "GPMSU001001", result.Units[1].Barcode)
	assert.Empty(t, result.PendingBarcodes)
	assert.Equal(t, 2, result.StockQuantity)

	meta := f.generator.metadata[result.Units[0].ID]
	assert.Equal(t, product.ID.String(), meta[coordination.MetaProductID])
	assert.Equal(t, "black", meta["color"])

	assert.Equal(t, 2, f.publisher.countOf(coordination.EventTypeUnitCreated))
	assert.Equal(t, 1, f.publisher.countOf(coordination.EventTypeStockUpdated))
	assert.Equal(t, 1, f.publisher.countOf(coordination.EventTypeProductUpdated))

	created := f.publisher.events[0].(*coordination.Event)
	pid, ok := created.ProductID()
	require.True(t, ok)
	assert.Equal(t, product.ID, pid)
	assert.Equal(t, coordination.SourceSupplier, created.Source)

	// only the barcode write goes through the unit repository
	f.units.AssertNumberOfCalls(t, "SaveBatch", 1)
	f.products.AssertExpectations(t)
}

func TestReceiveShipment_PendingBarcodes(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	product := testProduct(t)
	f.generator.fail["SN-2"] = true

	f.products.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	f.units.On("FindExistingSerials", mock.Anything, mock.Anything).Return([]string{}, nil)
	f.products.On("ReceiveUnits", mock.Anything, product.ID, mock.Anything).Return(3, nil)
	f.units.On("SaveBatch", mock.Anything, mock.Anything).Return(nil)

	result, err := f.svc.ReceiveShipment(ctx, ReceiveShipmentRequest{
		ProductID: product.ID,
		Items:     []ShipmentItem{{SerialNumber: "SN-1"}, {SerialNumber: "SN-2"}, {SerialNumber: "SN-3"}},
	})
	require.NoError(t, err)

	require.Len(t, result.PendingBarcodes, 1)
	assert.Equal(t, result.Units[1].ID, result.PendingBarcodes[0])
	assert.Empty(t, result.Units[1].Barcode)
	assert.Equal(t, 3, result.StockQuantity)
}

func TestReceiveShipment_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown product", func(t *testing.T) {
		f := newFixture()
		id := uuid.New()
		f.products.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		_, err := f.svc.ReceiveShipment(ctx, ReceiveShipmentRequest{ProductID: id, Items: []ShipmentItem{{SerialNumber: "SN-1"}}})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "NOT_FOUND", de.Code)
	})

	t.Run("empty shipment", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.ReceiveShipment(ctx, ReceiveShipmentRequest{ProductID: uuid.New()})
		require.Error(t, err)
		f.products.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("blank serial", func(t *testing.T) {
		f := newFixture()
		product := testProduct(t)
		f.products.On("FindByID", mock.Anything, product.ID).Return(product, nil)

		_, err := f.svc.ReceiveShipment(ctx, ReceiveShipmentRequest{ProductID: product.ID, Items: []ShipmentItem{{SerialNumber: "  "}}})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_SERIAL", de.Code)
	})

	t.Run("serial repeated in shipment", func(t *testing.T) {
		f := newFixture()
		product := testProduct(t)
		f.products.On("FindByID", mock.Anything, product.ID).Return(product, nil)

		_, err := f.svc.ReceiveShipment(ctx, ReceiveShipmentRequest{
			ProductID: product.ID,
			Items:     []ShipmentItem{{SerialNumber: "SN-1"}, {SerialNumber: "SN-1"}},
		})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, ErrDuplicateSerial.Code, de.Code)
		f.units.AssertNotCalled(t, "SaveBatch", mock.Anything, mock.Anything)
	})

	t.Run("serial already stored", func(t *testing.T) {
		f := newFixture()
		product := testProduct(t)
		f.products.On("FindByID", mock.Anything, product.ID).Return(product, nil)
		f.units.On("FindExistingSerials", mock.Anything, []string{"SN-1"}).Return([]string{"SN-1"}, nil)

		_, err := f.svc.ReceiveShipment(ctx, ReceiveShipmentRequest{ProductID: product.ID, Items: []ShipmentItem{{SerialNumber: "SN-1"}}})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, ErrDuplicateSerial.Code, de.Code)
		assert.Empty(t, f.publisher.events)
	})

	t.Run("unit storage failure", func(t *testing.T) {
		f := newFixture()
		product := testProduct(t)
		f.products.On("FindByID", mock.Anything, product.ID).Return(product, nil)
		f.units.On("FindExistingSerials", mock.Anything, mock.Anything).Return([]string{}, nil)
		f.products.On("ReceiveUnits", mock.Anything, product.ID, mock.Anything).Return(0, errors.New("disk full"))

		_, err := f.svc.ReceiveShipment(ctx, ReceiveShipmentRequest{ProductID: product.ID, Items: []ShipmentItem{{SerialNumber: "SN-1"}}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		assert.Empty(t, f.publisher.events)
		assert.Zero(t, f.generator.next)
		f.units.AssertNotCalled(t, "SaveBatch", mock.Anything, mock.Anything)
	})

	t.Run("product removed before booking", func(t *testing.T) {
		f := newFixture()
		product := testProduct(t)
		f.products.On("FindByID", mock.Anything, product.ID).Return(product, nil)
		f.units.On("FindExistingSerials", mock.Anything, mock.Anything).Return([]string{}, nil)
		f.products.On("ReceiveUnits", mock.Anything, product.ID, mock.Anything).Return(0, shared.ErrNotFound)

		_, err := f.svc.ReceiveShipment(ctx, ReceiveShipmentRequest{ProductID: product.ID, Items: []ShipmentItem{{SerialNumber: "SN-1"}}})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "NOT_FOUND", de.Code)
	})
}
