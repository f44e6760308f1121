package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gpms/backend/internal/domain/barcode"
	"github.com/gpms/backend/internal/domain/shared"
	"github.com/gpms/backend/internal/infrastructure/persistence/models"
)

// GormBarcodeRepository is the barcode registry store. It also implements
// barcode.Allocator: the counter row and the registry row are written in
// the same transaction.
type GormBarcodeRepository struct {
	db *gorm.DB
}

// NewGormBarcodeRepository creates a new GormBarcodeRepository
func NewGormBarcodeRepository(db *gorm.DB) *GormBarcodeRepository {
	return &GormBarcodeRepository{db: db}
}

// Create inserts a registry record
func (r *GormBarcodeRepository) Create(ctx context.Context, record *barcode.BarcodeRecord) error {
	if err := r.db.WithContext(ctx).Create(models.BarcodeRecordModelFromDomain(record)).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", barcode.ErrDuplicateBarcode, record.Barcode)
		}
		return err
	}
	return nil
}

// FindByBarcode looks up a record by its barcode string
func (r *GormBarcodeRepository) FindByBarcode(ctx context.Context, code string) (*barcode.BarcodeRecord, error) {
	var model models.BarcodeRecordModel
	if err := r.db.WithContext(ctx).Where("barcode = ?", code).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByEntity returns the newest record for the entity
func (r *GormBarcodeRepository) FindByEntity(ctx context.Context, entityType barcode.EntityType, entityID uuid.UUID) (*barcode.BarcodeRecord, error) {
	var model models.BarcodeRecordModel
	if err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindHistoryByEntityID returns every record for the entity, newest first
func (r *GormBarcodeRepository) FindHistoryByEntityID(ctx context.Context, entityID uuid.UUID) ([]barcode.BarcodeRecord, error) {
	var rows []models.BarcodeRecordModel
	if err := r.db.WithContext(ctx).
		Where("entity_id = ?", entityID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]barcode.BarcodeRecord, len(rows))
	for i := range rows {
		records[i] = *rows[i].ToDomain()
	}
	return records, nil
}

// ExistsByBarcode reports whether the barcode is registered
func (r *GormBarcodeRepository) ExistsByBarcode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.BarcodeRecordModel{}).
		Where("barcode = ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindRegisteredEntityIDs returns which of ids have at least one record
func (r *GormBarcodeRepository) FindRegisteredEntityIDs(ctx context.Context, entityType barcode.EntityType, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	found := make(map[uuid.UUID]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	var registered []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.BarcodeRecordModel{}).
		Where("entity_type = ? AND entity_id IN ?", entityType, ids).
		Distinct().
		Pluck("entity_id", &registered).Error; err != nil {
		return nil, err
	}
	for _, id := range registered {
		found[id] = true
	}
	return found, nil
}

// DeleteForEntity removes a registration that is still owned by entityID
func (r *GormBarcodeRepository) DeleteForEntity(ctx context.Context, code string, entityID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("barcode = ? AND entity_id = ?", code, entityID).
		Delete(&models.BarcodeRecordModel{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Allocate takes the next counter value for req.BarcodeType, composes the
// barcode and registers it, all in one transaction. Any failure, including
// a duplicate barcode, rolls back the counter increment.
func (r *GormBarcodeRepository) Allocate(ctx context.Context, req barcode.AllocationRequest) (*barcode.BarcodeRecord, error) {
	if !req.BarcodeType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "unknown barcode type: "+string(req.BarcodeType))
	}
	now := req.At
	if now.IsZero() {
		now = time.Now()
	}

	var record *barcode.BarcodeRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := models.BarcodeCounterModel{BarcodeType: req.BarcodeType, NextValue: req.Seed, UpdatedAt: now}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return fmt.Errorf("seed %s counter: %w", req.BarcodeType, err)
		}

		// the row lock taken here serialises concurrent allocators until commit
		res := tx.Model(&models.BarcodeCounterModel{}).
			Where("barcode_type = ?", req.BarcodeType).
			Updates(map[string]any{
				"next_value": gorm.Expr("next_value + 1"),
				"updated_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("increment %s counter: %w", req.BarcodeType, res.Error)
		}
		if res.RowsAffected != 1 {
			return fmt.Errorf("increment %s counter: %w", req.BarcodeType, shared.ErrConcurrencyConflict)
		}

		var counter models.BarcodeCounterModel
		if err := tx.Where("barcode_type = ?", req.BarcodeType).First(&counter).Error; err != nil {
			return fmt.Errorf("read %s counter: %w", req.BarcodeType, err)
		}

		code, err := barcode.Compose(req.Prefix, req.BarcodeType, counter.NextValue-1)
		if err != nil {
			return err
		}

		rec, err := barcode.NewBarcodeRecord(code, req.BarcodeType, req.EntityType, req.EntityID, req.Metadata)
		if err != nil {
			return err
		}
		rec.CreatedAt, rec.UpdatedAt = now, now

		if err := tx.Create(models.BarcodeRecordModelFromDomain(rec)).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", barcode.ErrDuplicateBarcode, code)
			}
			return err
		}
		record = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

var (
	_ barcode.Repository = (*GormBarcodeRepository)(nil)
	_ barcode.Allocator  = (*GormBarcodeRepository)(nil)
)
