package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gpms/backend/internal/domain/barcode"
	"github.com/gpms/backend/internal/infrastructure/persistence/models"
)

// GormBarcodeConfigRepository reads the generator settings row and the
// per-type counters.
type GormBarcodeConfigRepository struct {
	db *gorm.DB
}

// NewGormBarcodeConfigRepository creates a new GormBarcodeConfigRepository
func NewGormBarcodeConfigRepository(db *gorm.DB) *GormBarcodeConfigRepository {
	return &GormBarcodeConfigRepository{db: db}
}

// Load returns the stored configuration. A missing settings row or any
// read error is reported as barcode.ErrConfigUnavailable.
func (r *GormBarcodeConfigRepository) Load(ctx context.Context) (*barcode.Config, error) {
	var settings models.BarcodeSettingsModel
	if err := r.db.WithContext(ctx).First(&settings, "id = ?", models.BarcodeSettingsSingletonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: settings not initialized", barcode.ErrConfigUnavailable)
		}
		return nil, fmt.Errorf("%w: %v", barcode.ErrConfigUnavailable, err)
	}

	var counters []models.BarcodeCounterModel
	if err := r.db.WithContext(ctx).Find(&counters).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", barcode.ErrConfigUnavailable, err)
	}

	cfg := &barcode.Config{
		Prefix:   settings.Prefix,
		Format:   settings.Format,
		Counters: make(map[barcode.BarcodeType]int64, len(counters)),
	}
	for _, c := range counters {
		cfg.Counters[c.BarcodeType] = c.NextValue
	}
	return cfg, nil
}

// Initialize writes cfg where nothing is stored yet; existing settings and
// counters are left untouched.
func (r *GormBarcodeConfigRepository) Initialize(ctx context.Context, cfg *barcode.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	now := time.Now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		settings := models.BarcodeSettingsModel{
			ID:        models.BarcodeSettingsSingletonID,
			Prefix:    cfg.Prefix,
			Format:    cfg.Format,
			UpdatedAt: now,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&settings).Error; err != nil {
			return fmt.Errorf("initialize barcode settings: %w", err)
		}
		for t, v := range cfg.Counters {
			counter := models.BarcodeCounterModel{BarcodeType: t, NextValue: v, UpdatedAt: now}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&counter).Error; err != nil {
				return fmt.Errorf("initialize %s counter: %w", t, err)
			}
		}
		return nil
	})
}

var _ barcode.ConfigRepository = (*GormBarcodeConfigRepository)(nil)
