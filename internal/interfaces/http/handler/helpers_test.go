package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	catalogapp "github.com/gpms/backend/internal/application/catalog"
	"github.com/gpms/backend/internal/application/integrity"
	"github.com/gpms/backend/internal/application/supplier"
	"github.com/gpms/backend/internal/domain/barcode"
	"github.com/gpms/backend/internal/domain/inventory"
	"github.com/gpms/backend/internal/domain/shared"
	"github.com/gpms/backend/internal/interfaces/http/dto"
	"github.com/gpms/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type routeRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

func newTestEngine(h routeRegistrar) *gin.Engine {
	engine := gin.New()
	h.RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func performRequest(engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

// envelope mirrors dto.Response with a raw payload for typed decoding
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	env := decodeEnvelope(t, w)
	require.True(t, env.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func requireError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	env := decodeEnvelope(t, w)
	require.False(t, env.Success)
	require.NotNil(t, env.Error)
	require.Equal(t, code, env.Error.Code)
}


// MockBarcodeService is a mock implementation of BarcodeService
type MockBarcodeService struct {
	mock.Mock
}

func (m *MockBarcodeService) GenerateUniqueBarcode(ctx context.Context, entityType barcode.EntityType, entityID uuid.UUID, barcodeType barcode.BarcodeType) (string, error) {
	args := m.Called(ctx, entityType, entityID, barcodeType)
	return args.String(0), args.Error(1)
}

func (m *MockBarcodeService) RegisterBarcode(ctx context.Context, code string, barcodeType barcode.BarcodeType, entityType barcode.EntityType, entityID uuid.UUID, metadata map[string]any) (*barcode.BarcodeRecord, error) {
	args := m.Called(ctx, code, barcodeType, entityType, entityID, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*barcode.BarcodeRecord), args.Error(1)
}

func (m *MockBarcodeService) GetBarcodeByEntity(ctx context.Context, entityType barcode.EntityType, entityID uuid.UUID) (*barcode.BarcodeRecord, error) {
	args := m.Called(ctx, entityType, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*barcode.BarcodeRecord), args.Error(1)
}

func (m *MockBarcodeService) ValidateBarcodeUniqueness(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockBarcodeService) GetBarcodeHistory(ctx context.Context, entityID uuid.UUID) ([]barcode.BarcodeRecord, error) {
	args := m.Called(ctx, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]barcode.BarcodeRecord), args.Error(1)
}

func (m *MockBarcodeService) GenerateBulkUnitBarcodes(ctx context.Context, unitIDs []uuid.UUID) map[uuid.UUID]string {
	args := m.Called(ctx, unitIDs)
	return args.Get(0).(map[uuid.UUID]string)
}

func (m *MockBarcodeService) ValidateBarcode(code string) barcode.ValidationResult {
	args := m.Called(code)
	return args.Get(0).(barcode.ValidationResult)
}

func (m *MockBarcodeService) ParseBarcode(code string) barcode.Info {
	args := m.Called(code)
	return args.Get(0).(barcode.Info)
}

func (m *MockBarcodeService) CurrentConfig(ctx context.Context) *barcode.Config {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*barcode.Config)
}

// MockIntegrityService is a mock implementation of IntegrityService
type MockIntegrityService struct {
	mock.Mock
}

func (m *MockIntegrityService) ValidateProductIntegrity(ctx context.Context) (*integrity.Report, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integrity.Report), args.Error(1)
}

func (m *MockIntegrityService) FixProductIntegrityIssues(ctx context.Context) (*integrity.FixResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integrity.FixResult), args.Error(1)
}

func (m *MockIntegrityService) RequestSync(ctx context.Context, reason string) error {
	args := m.Called(ctx, reason)
	return args.Error(0)
}

// MockProductService is a mock implementation of ProductService
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) Create(ctx context.Context, req catalogapp.CreateProductRequest) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ProductResponse), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, productID uuid.UUID) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ProductResponse), args.Error(1)
}

func (m *MockProductService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[catalogapp.ProductResponse], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[catalogapp.ProductResponse]), args.Error(1)
}

// MockReceivingService is a mock implementation of ReceivingService
type MockReceivingService struct {
	mock.Mock
}

func (m *MockReceivingService) ReceiveShipment(ctx context.Context, req supplier.ReceiveShipmentRequest) (*supplier.ReceiveShipmentResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*supplier.ReceiveShipmentResult), args.Error(1)
}

// MockProductViewService is a mock implementation of ProductViewService
type MockProductViewService struct {
	mock.Mock
}

func (m *MockProductViewService) GetProductView(ctx context.Context, productID uuid.UUID) (*inventory.ProductView, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.ProductView), args.Error(1)
}
