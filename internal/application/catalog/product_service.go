// Package catalog is the application service for maintaining products.
package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gpms/backend/internal/domain/barcode"
	"github.com/gpms/backend/internal/domain/catalog"
	"github.com/gpms/backend/internal/domain/coordination"
	"github.com/gpms/backend/internal/domain/shared"
	"github.com/gpms/backend/internal/infrastructure/logger"
)

// BarcodeIssuer is the part of the barcode service products need.
type BarcodeIssuer interface {
	EnsureBarcode(ctx context.Context, entityType barcode.EntityType, entityID uuid.UUID, barcodeType barcode.BarcodeType) (string, error)
	RegisterBarcode(ctx context.Context, code string, barcodeType barcode.BarcodeType, entityType barcode.EntityType, entityID uuid.UUID, metadata map[string]any) (*barcode.BarcodeRecord, error)
	ReleaseBarcode(ctx context.Context, code string, entityID uuid.UUID) error
}

// ProductService handles product-related business operations
type ProductService struct {
	productRepo catalog.ProductRepository
	barcodes    BarcodeIssuer
	publisher   shared.EventPublisher
	logger      *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(
	productRepo catalog.ProductRepository,
	barcodes BarcodeIssuer,
	publisher shared.EventPublisher,
	log *zap.Logger,
) *ProductService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProductService{
		productRepo: productRepo,
		barcodes:    barcodes,
		publisher:   publisher,
		logger:      log,
	}
}

// Create stores a new product and gives it a barcode. A barcode failure
// leaves the product without one for the integrity fix to issue later. When
// the product cannot be stored, an external barcode registered for it is
// released again so the request can be retried.
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	product, err := catalog.NewProduct(req.Code, req.Name, req.Category, req.Price)
	if err != nil {
		return nil, err
	}

	exists, err := s.productRepo.ExistsByCode(ctx, product.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Product with this code already exists")
	}

	// An external barcode must be claimable before anything is stored.
	if req.Barcode != "" {
		if _, err := s.barcodes.RegisterBarcode(ctx, req.Barcode, barcode.BarcodeTypeProduct, barcode.EntityTypeProduct, product.ID,
			map[string]any{"code": product.Code, "source": "manufacturer"}); err != nil {
			return nil, err
		}
		product.AssignBarcode(req.Barcode)
	}

	log := logger.For(ctx, s.logger)
	if err := s.productRepo.Save(ctx, product); err != nil {
		if req.Barcode != "" {
			// the registration must not outlive a product that was never stored
			if relErr := s.barcodes.ReleaseBarcode(context.WithoutCancel(ctx), req.Barcode, product.ID); relErr != nil {
				log.Error("Failed to release barcode of unsaved product",
					zap.String("barcode", req.Barcode),
					zap.String("product_id", product.ID.String()),
					zap.Error(relErr),
				)
			}
		}
		return nil, fmt.Errorf("save product: %w", err)
	}

	if product.Barcode == "" {
		code, err := s.barcodes.EnsureBarcode(ctx, barcode.EntityTypeProduct, product.ID, barcode.BarcodeTypeProduct)
		if err != nil {
			log.Error("Failed to issue product barcode",
				zap.String("product_id", product.ID.String()),
				zap.Error(err),
			)
		} else {
			product.AssignBarcode(code)
			if err := s.productRepo.Save(ctx, product); err != nil {
				log.Error("Failed to store product barcode", zap.String("product_id", product.ID.String()), zap.Error(err))
			}
		}
	}

	if s.publisher != nil {
		event := coordination.NewEvent(coordination.EventTypeProductCreated, coordination.SourceInventory, product.ID,
			map[string]any{coordination.MetaBarcode: product.Barcode})
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.Warn("Failed to publish product event", zap.Error(err))
		}
	}

	response := ToProductResponse(product)
	return &response, nil
}

// GetByID retrieves a product by its ID
func (s *ProductService) GetByID(ctx context.Context, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// List returns one page of products ordered by code.
func (s *ProductService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[ProductResponse], error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = shared.DefaultFilter().PageSize
	}

	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &shared.Paginated[ProductResponse]{
		Items:    ToProductResponses(products),
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}
