package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/gpms/backend/internal/domain/barcode"
)

// BarcodeRecordModel is a row of the barcode registry.
type BarcodeRecordModel struct {
	BaseModel
	Barcode     string              `gorm:"type:varchar(25);not null;uniqueIndex:idx_barcode_registry_barcode"`
	BarcodeType barcode.BarcodeType `gorm:"type:varchar(10);not null"`
	EntityType  barcode.EntityType  `gorm:"type:varchar(20);not null;index:idx_barcode_registry_entity,priority:1"`
	EntityID    uuid.UUID           `gorm:"type:uuid;not null;index:idx_barcode_registry_entity,priority:2"`
	Format      string              `gorm:"type:varchar(10);not null;default:'CODE128'"`
	Metadata    datatypes.JSONMap
}

// TableName returns the table name for GORM
func (BarcodeRecordModel) TableName() string {
	return "barcode_registry"
}

// ToDomain converts the persistence model to a domain BarcodeRecord
func (m *BarcodeRecordModel) ToDomain() *barcode.BarcodeRecord {
	meta := make(map[string]any, len(m.Metadata))
	for k, v := range m.Metadata {
		meta[k] = v
	}
	return &barcode.BarcodeRecord{
		BaseEntity:  m.BaseModel.ToDomain(),
		Barcode:     m.Barcode,
		BarcodeType: m.BarcodeType,
		EntityType:  m.EntityType,
		EntityID:    m.EntityID,
		Format:      m.Format,
		Metadata:    meta,
	}
}

// BarcodeRecordModelFromDomain creates a new persistence model from a domain record
func BarcodeRecordModelFromDomain(r *barcode.BarcodeRecord) *BarcodeRecordModel {
	m := &BarcodeRecordModel{
		Barcode:     r.Barcode,
		BarcodeType: r.BarcodeType,
		EntityType:  r.EntityType,
		EntityID:    r.EntityID,
		Format:      r.Format,
		Metadata:    datatypes.JSONMap(r.Metadata),
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m
}

// BarcodeSettingsSingletonID is the key of the only settings row.
const BarcodeSettingsSingletonID = "default"

// BarcodeSettingsModel stores the generator prefix and format.
type BarcodeSettingsModel struct {
	ID        string    `gorm:"type:varchar(20);primaryKey"`
	Prefix    string    `gorm:"type:varchar(17);not null"`
	Format    string    `gorm:"type:varchar(10);not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BarcodeSettingsModel) TableName() string {
	return "barcode_settings"
}

// BarcodeCounterModel holds the next-available value for one barcode type.
type BarcodeCounterModel struct {
	BarcodeType barcode.BarcodeType `gorm:"type:varchar(10);primaryKey"`
	NextValue   int64               `gorm:"not null"`
	UpdatedAt   time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BarcodeCounterModel) TableName() string {
	return "barcode_counters"
}
