package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gpms/backend/internal/domain/catalog"
	"github.com/gpms/backend/internal/domain/shared"
	"github.com/gpms/backend/internal/infrastructure/persistence/models"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the products that exist among ids
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return productsToDomain(rows), nil
}

// FindAll returns every product ordered by code
func (r *GormProductRepository) FindAll(ctx context.Context) ([]catalog.Product, error) {
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).Order("code").Find(&rows).Error; err != nil {
		return nil, err
	}
	return productsToDomain(rows), nil
}

// List returns one page of products, optionally filtered by code or name
func (r *GormProductRepository) List(ctx context.Context, filter shared.Filter) ([]catalog.Product, int64, error) {
	search := func(db *gorm.DB) *gorm.DB {
		s := strings.TrimSpace(filter.Search)
		if s == "" {
			return db
		}
		like := "%" + strings.ToLower(s) + "%"
		return db.Where("LOWER(code) LIKE ? OR LOWER(name) LIKE ?", like, like)
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.ProductModel{}).Scopes(search).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.WithContext(ctx).Scopes(search).Order("code")
	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize).Offset(filter.Offset())
	}
	var rows []models.ProductModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return productsToDomain(rows), total, nil
}

// ExistsByCode checks whether a product code is taken
func (r *GormProductRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("code = ?", strings.ToUpper(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	if err := r.db.WithContext(ctx).Save(models.ProductModelFromDomain(product)).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// ReceiveUnits increments stock in the database rather than writing back a
// value read earlier, so overlapping receipts for one product all count.
// The row lock taken by the UPDATE serializes them on postgres.
func (r *GormProductRepository) ReceiveUnits(ctx context.Context, productID uuid.UUID, units []*catalog.ProductUnit) (int, error) {
	if len(units) == 0 {
		return 0, shared.NewDomainError("INVALID_INPUT", "No units to receive")
	}
	rows := make([]*models.ProductUnitModel, len(units))
	for i, u := range units {
		rows[i] = models.ProductUnitModelFromDomain(u)
	}

	var stock int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ProductModel{}).
			Where("id = ?", productID).
			Updates(map[string]any{
				"stock_quantity": gorm.Expr("stock_quantity + ?", len(units)),
				"has_serial":     true,
				"updated_at":     time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}

		if err := tx.Create(rows).Error; err != nil {
			return err
		}

		return tx.Model(&models.ProductModel{}).
			Select("stock_quantity").
			Where("id = ?", productID).
			Row().
			Scan(&stock)
	})
	if err != nil {
		return 0, err
	}
	return stock, nil
}

func productsToDomain(rows []models.ProductModel) []catalog.Product {
	products := make([]catalog.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products
}

var (
	_ catalog.ProductRepository = (*GormProductRepository)(nil)
	_ catalog.StockReceiver     = (*GormProductRepository)(nil)
)
