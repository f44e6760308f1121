package integrity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gpms/backend/internal/domain/barcode"
	"github.com/gpms/backend/internal/domain/catalog"
	"github.com/gpms/backend/internal/domain/coordination"
)

type fixture struct {
	products  *memProducts
	units     *memUnits
	registry  *memRegistry
	publisher *recordingPublisher
	svc       *Service
}

func newFixture(products []*catalog.Product, units []*catalog.ProductUnit) *fixture {
	f := &fixture{
		products:  newMemProducts(products...),
		units:     newMemUnits(units...),
		registry:  newMemRegistry(),
		publisher: &recordingPublisher{},
	}
	f.svc = NewService(f.products, f.units, f.registry, f.registry, f.publisher, nil, zap.NewNop())
	return f
}

func newProduct(t *testing.T, code string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(code, "Product "+code, "phones", decimal.NewFromInt(499))
	require.NoError(t, err)
	return p
}

func newUnit(t *testing.T, productID uuid.UUID, serial string) *catalog.ProductUnit {
	t.Helper()
	u, err := catalog.NewProductUnit(productID, serial, "black", "128GB")
	require.NoError(t, err)
	return u
}

func TestValidateProductIntegrity_Healthy(t *testing.T) {
	p := newProduct(t, "IP15")
	p.SetHasSerial(true)
	_ = p.SetStockQuantity(1)
	u := newUnit(t, p.ID, "SN-1")

	f := newFixture([]*catalog.Product{p}, []*catalog.ProductUnit{u})
	f.registry.register(p.ID, "GPMSP001000")
	f.registry.register(u.ID, "GPMSU001000")

	report, err := f.svc.ValidateProductIntegrity(context.Background())
	require.NoError(t, err)

	assert.True(t, report.IsHealthy)
	assert.Empty(t, report.MissingBarcodes)
	assert.Empty(t, report.OrphanedUnits)
	assert.Empty(t, report.DuplicateSerials)
	assert.Empty(t, report.InconsistentFlags)
	assert.Nil(t, report.LastSyncTime)
}

func TestValidateProductIntegrity_SerialFlagWithoutUnits(t *testing.T) {
	p := newProduct(t, "IP15")
	p.SetHasSerial(true)

	f := newFixture([]*catalog.Product{p}, nil)
	f.registry.register(p.ID, "GPMSP001000")

	report, err := f.svc.ValidateProductIntegrity(context.Background())
	require.NoError(t, err)

	assert.False(t, report.IsHealthy)
	require.Len(t, report.InconsistentFlags, 1)
	assert.Equal(t, p.ID, report.InconsistentFlags[0].ProductID)
	assert.True(t, report.InconsistentFlags[0].HasSerial)
	assert.Equal(t, 0, report.InconsistentFlags[0].UnitCount)
}

func TestValidateProductIntegrity_DetectsEveryKind(t *testing.T) {
	withUnits := newProduct(t, "IP15")
	noFlag := newProduct(t, "PIX8") // has units but HasSerial is false
	withUnits.SetHasSerial(true)

	ghost := uuid.New()
	u1 := newUnit(t, withUnits.ID, "SN-DUP")
	u2 := newUnit(t, noFlag.ID, "SN-DUP")
	orphan := newUnit(t, ghost, "SN-ORPHAN")

	f := newFixture([]*catalog.Product{withUnits, noFlag}, []*catalog.ProductUnit{u1, u2, orphan})
	f.registry.register(withUnits.ID, "GPMSP001000")
	f.registry.register(u1.ID, "GPMSU001000")

	report, err := f.svc.ValidateProductIntegrity(context.Background())
	require.NoError(t, err)
	assert.False(t, report.IsHealthy)

	assert.ElementsMatch(t, []MissingBarcode{
		{EntityType: barcode.EntityTypeProduct, EntityID: noFlag.ID},
		{EntityType: barcode.EntityTypeProductUnit, EntityID: u2.ID},
	}, report.MissingBarcodes)

	require.Len(t, report.OrphanedUnits, 1)
	assert.Equal(t, OrphanedUnit{UnitID: orphan.ID, ProductID: ghost}, report.OrphanedUnits[0])

	require.Len(t, report.DuplicateSerials, 1)
	assert.Equal(t, "SN-DUP", report.DuplicateSerials[0].SerialNumber)
	assert.ElementsMatch(t, []uuid.UUID{u1.ID, u2.ID}, report.DuplicateSerials[0].UnitIDs)

	require.Len(t, report.InconsistentFlags, 1)
	assert.Equal(t, noFlag.ID, report.InconsistentFlags[0].ProductID)
	assert.Equal(t, 1, report.InconsistentFlags[0].UnitCount)
}

func TestFixProductIntegrityIssues_MissingBarcodeThenValidate(t *testing.T) {
	ctx := context.Background()
	p := newProduct(t, "CASE01")

	f := newFixture([]*catalog.Product{p}, nil)

	before, err := f.svc.ValidateProductIntegrity(ctx)
	require.NoError(t, err)
	require.Len(t, before.MissingBarcodes, 1)

	result, err := f.svc.FixProductIntegrityIssues(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.FixedBarcodes)
	assert.Equal(t, 0, result.FixedFlags)
	assert.Equal(t, 0, result.FixedUnits)

	after, err := f.svc.ValidateProductIntegrity(ctx)
	require.NoError(t, err)
	assert.Empty(t, after.MissingBarcodes)
	assert.True(t, after.IsHealthy)

	assert.Equal(t, "GPMSP001000", f.products.get(p.ID).Barcode)
	assert.Equal(t, []string{coordination.EventTypeProductUpdated}, f.publisher.types())
}

func TestFixProductIntegrityIssues_FlagsAndCounts(t *testing.T) {
	ctx := context.Background()

	flagged := newProduct(t, "IP15") // HasSerial but no units
	flagged.SetHasSerial(true)
	unflagged := newProduct(t, "PIX8") // units but no flag, stock 0
	u1 := newUnit(t, unflagged.ID, "SN-1")
	u2 := newUnit(t, unflagged.ID, "SN-2")
	require.NoError(t, u2.SetStatus(catalog.UnitStatusSold))

	f := newFixture([]*catalog.Product{flagged, unflagged}, []*catalog.ProductUnit{u1, u2})
	for _, id := range []uuid.UUID{flagged.ID, unflagged.ID, u1.ID, u2.ID} {
		f.registry.register(id, "X")
	}
	// registry holds records, so the denormalised column stays as is

	result, err := f.svc.FixProductIntegrityIssues(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.FixedBarcodes)
	assert.Equal(t, 2, result.FixedFlags)
	assert.Equal(t, 1, result.FixedUnits)

	assert.False(t, f.products.get(flagged.ID).HasSerial)
	got := f.products.get(unflagged.ID)
	assert.True(t, got.HasSerial)
	assert.Equal(t, 1, got.StockQuantity)

	report, err := f.svc.ValidateProductIntegrity(ctx)
	require.NoError(t, err)
	assert.True(t, report.IsHealthy)
}

func TestFixProductIntegrityIssues_PartialFailure(t *testing.T) {
	ctx := context.Background()
	ok := newProduct(t, "OK01")
	broken := newProduct(t, "BAD01")
	unit := newUnit(t, ok.ID, "SN-9")
	ok.SetHasSerial(true)
	_ = ok.SetStockQuantity(1)

	f := newFixture([]*catalog.Product{ok, broken}, []*catalog.ProductUnit{unit})
	f.registry.fail[broken.ID] = true

	result, err := f.svc.FixProductIntegrityIssues(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.FixedBarcodes) // ok product and its unit

	assert.NotEmpty(t, f.units.get(unit.ID).Barcode)
	assert.Empty(t, f.products.get(broken.ID).Barcode)

	report, err := f.svc.ValidateProductIntegrity(ctx)
	require.NoError(t, err)
	require.Len(t, report.MissingBarcodes, 1)
	assert.Equal(t, broken.ID, report.MissingBarcodes[0].EntityID)

	types := f.publisher.types()
	assert.Contains(t, types, coordination.EventTypeProductUpdated)
	assert.Contains(t, types, coordination.EventTypeUnitUpdated)
}

func TestRequestSync(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil, nil)

	require.NoError(t, f.svc.RequestSync(ctx, "drift suspected"))

	require.Len(t, f.publisher.events, 1)
	event := f.publisher.events[0].(*coordination.Event)
	assert.Equal(t, coordination.EventTypeSyncRequested, event.EventType())
	assert.Equal(t, coordination.SourceIntegrity, event.Source)
	assert.Equal(t, "drift suspected", event.Metadata[coordination.MetaReason])

	report, err := f.svc.ValidateProductIntegrity(ctx)
	require.NoError(t, err)
	require.NotNil(t, report.LastSyncTime)
	assert.WithinDuration(t, event.OccurredAt(), *report.LastSyncTime, time.Second)
	assert.True(t, report.IsHealthy)
}
