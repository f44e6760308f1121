package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gpms/backend/internal/domain/catalog"
	"github.com/gpms/backend/internal/domain/shared"
	"github.com/gpms/backend/internal/infrastructure/persistence/models"
)

// GormProductUnitRepository implements catalog.ProductUnitRepository using GORM
type GormProductUnitRepository struct {
	db *gorm.DB
}

// NewGormProductUnitRepository creates a new GormProductUnitRepository
func NewGormProductUnitRepository(db *gorm.DB) *GormProductUnitRepository {
	return &GormProductUnitRepository{db: db}
}

// FindByID finds a product unit by its ID
func (r *GormProductUnitRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.ProductUnit, error) {
	var model models.ProductUnitModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the units that exist among ids
func (r *GormProductUnitRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.ProductUnit, error) {
	if len(ids) == 0 {
		return []catalog.ProductUnit{}, nil
	}
	var rows []models.ProductUnitModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return unitsToDomain(rows), nil
}

// FindByProductID returns all units of a product, oldest first
func (r *GormProductUnitRepository) FindByProductID(ctx context.Context, productID uuid.UUID) ([]catalog.ProductUnit, error) {
	var rows []models.ProductUnitModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at, serial_number").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return unitsToDomain(rows), nil
}

// FindAll returns every unit
func (r *GormProductUnitRepository) FindAll(ctx context.Context) ([]catalog.ProductUnit, error) {
	var rows []models.ProductUnitModel
	if err := r.db.WithContext(ctx).Order("product_id, created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	return unitsToDomain(rows), nil
}

// FindExistingSerials returns the subset of serials already used by a unit
func (r *GormProductUnitRepository) FindExistingSerials(ctx context.Context, serials []string) ([]string, error) {
	if len(serials) == 0 {
		return []string{}, nil
	}
	var found []string
	if err := r.db.WithContext(ctx).Model(&models.ProductUnitModel{}).
		Where("serial_number IN ?", serials).
		Distinct().
		Pluck("serial_number", &found).Error; err != nil {
		return nil, err
	}
	return found, nil
}

// Save creates or updates a product unit
func (r *GormProductUnitRepository) Save(ctx context.Context, unit *catalog.ProductUnit) error {
	return r.db.WithContext(ctx).Save(models.ProductUnitModelFromDomain(unit)).Error
}

// SaveBatch creates or updates multiple units in one transaction
func (r *GormProductUnitRepository) SaveBatch(ctx context.Context, units []*catalog.ProductUnit) error {
	if len(units) == 0 {
		return nil
	}
	rows := make([]*models.ProductUnitModel, len(units))
	for i, u := range units {
		rows[i] = models.ProductUnitModelFromDomain(u)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Save(rows).Error
	})
}

func unitsToDomain(rows []models.ProductUnitModel) []catalog.ProductUnit {
	units := make([]catalog.ProductUnit, len(rows))
	for i := range rows {
		units[i] = *rows[i].ToDomain()
	}
	return units
}

var _ catalog.ProductUnitRepository = (*GormProductUnitRepository)(nil)
