package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gpms/backend/internal/domain/catalog"
)

// ProductModel is the persistence model for catalog.Product.
type ProductModel struct {
	BaseModel
	Code          string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_products_code"`
	Name          string                `gorm:"type:varchar(200);not null"`
	Category      string                `gorm:"type:varchar(100)"`
	Price         decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	Barcode       string                `gorm:"type:varchar(25);index"`
	HasSerial     bool                  `gorm:"not null;default:false"`
	StockQuantity int                   `gorm:"not null;default:0"`
	Status        catalog.ProductStatus `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseEntity:    m.BaseModel.ToDomain(),
		Code:          m.Code,
		Name:          m.Name,
		Category:      m.Category,
		Price:         m.Price,
		Barcode:       m.Barcode,
		HasSerial:     m.HasSerial,
		StockQuantity: m.StockQuantity,
		Status:        m.Status,
	}
}

// FromDomain populates the persistence model from a domain Product
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.Code = p.Code
	m.Name = p.Name
	m.Category = p.Category
	m.Price = p.Price
	m.Barcode = p.Barcode
	m.HasSerial = p.HasSerial
	m.StockQuantity = p.StockQuantity
	m.Status = p.Status
}

// ProductModelFromDomain creates a new persistence model from a domain Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// ProductUnitModel is the persistence model for catalog.ProductUnit.
// Serial numbers are indexed but not unique so that drift can be detected
// rather than rejected.
type ProductUnitModel struct {
	BaseModel
	ProductID    uuid.UUID          `gorm:"type:uuid;not null;index"`
	SerialNumber string             `gorm:"type:varchar(100);not null;index"`
	Color        string             `gorm:"type:varchar(50)"`
	Storage      string             `gorm:"type:varchar(50)"`
	Barcode      string             `gorm:"type:varchar(25);index"`
	Status       catalog.UnitStatus `gorm:"type:varchar(20);not null;default:'in_stock'"`
}

// TableName returns the table name for GORM
func (ProductUnitModel) TableName() string {
	return "product_units"
}

// ToDomain converts the persistence model to a domain ProductUnit
func (m *ProductUnitModel) ToDomain() *catalog.ProductUnit {
	return &catalog.ProductUnit{
		BaseEntity:   m.BaseModel.ToDomain(),
		ProductID:    m.ProductID,
		SerialNumber: m.SerialNumber,
		Color:        m.Color,
		Storage:      m.Storage,
		Barcode:      m.Barcode,
		Status:       m.Status,
	}
}

// FromDomain populates the persistence model from a domain ProductUnit
func (m *ProductUnitModel) FromDomain(u *catalog.ProductUnit) {
	m.FromDomainBaseEntity(u.BaseEntity)
	m.ProductID = u.ProductID
	m.SerialNumber = u.SerialNumber
	m.Color = u.Color
	m.Storage = u.Storage
	m.Barcode = u.Barcode
	m.Status = u.Status
}

// ProductUnitModelFromDomain creates a new persistence model from a domain ProductUnit
func ProductUnitModelFromDomain(u *catalog.ProductUnit) *ProductUnitModel {
	m := &ProductUnitModel{}
	m.FromDomain(u)
	return m
}
