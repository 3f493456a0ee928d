package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/channelsync/backend/internal/domain/catalog"
)

// CatalogModel is the persistence model for the Catalog domain entity.
type CatalogModel struct {
	BaseModel
	ShopID              uuid.UUID           `gorm:"type:uuid;not null;index"`
	Name                string              `gorm:"type:varchar(255);not null"`
	Description         string              `gorm:"type:text"`
	CatalogType         catalog.CatalogType `gorm:"type:varchar(20);not null"`
	FiltersJSON         string              `gorm:"type:jsonb;column:filters"`
	PricingStrategyJSON string              `gorm:"type:jsonb;column:pricing_strategy"`
	IsActive            bool                `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (CatalogModel) TableName() string {
	return "catalogs"
}

// ToDomain converts the persistence model to a domain Catalog entity.
func (m *CatalogModel) ToDomain() *catalog.Catalog {
	c := &catalog.Catalog{
		BaseEntity:      m.BaseModel.ToDomain(),
		ShopID:          m.ShopID,
		Name:            m.Name,
		Description:     m.Description,
		CatalogType:     m.CatalogType,
		PricingStrategy: catalog.DefaultPricingStrategy(),
		IsActive:        m.IsActive,
	}
	if m.FiltersJSON != "" {
		var filters catalog.Filters
		if err := json.Unmarshal([]byte(m.FiltersJSON), &filters); err == nil {
			c.Filters = filters
		}
	}
	if m.PricingStrategyJSON != "" {
		var strategy catalog.PricingStrategy
		if err := json.Unmarshal([]byte(m.PricingStrategyJSON), &strategy); err == nil {
			c.PricingStrategy = strategy
		}
	}
	return c
}

// FromDomain populates the persistence model from a domain Catalog entity.
func (m *CatalogModel) FromDomain(c *catalog.Catalog) {
	m.BaseModel.FromDomain(c.BaseEntity)
	m.ShopID = c.ShopID
	m.Name = c.Name
	m.Description = c.Description
	m.CatalogType = c.CatalogType
	m.IsActive = c.IsActive
	if data, err := json.Marshal(c.Filters); err == nil {
		m.FiltersJSON = string(data)
	}
	if data, err := json.Marshal(c.PricingStrategy); err == nil {
		m.PricingStrategyJSON = string(data)
	}
}

// SourceProductModel is the persistence model for the cached SourceProduct.
type SourceProductModel struct {
	BaseModel
	ShopID          uuid.UUID        `gorm:"type:uuid;not null;index;uniqueIndex:idx_source_product_identity,priority:1"`
	SourceProductID string           `gorm:"type:varchar(100);not null;uniqueIndex:idx_source_product_identity,priority:2"`
	SourceVariantID string           `gorm:"type:varchar(100);uniqueIndex:idx_source_product_identity,priority:3"`
	Title           string           `gorm:"type:varchar(255)"`
	Description     string           `gorm:"type:text"`
	Handle          string           `gorm:"type:varchar(255);index"`
	Vendor          string           `gorm:"type:varchar(255);index"`
	ProductType     string           `gorm:"type:varchar(255);index"`
	TagsJSON        string           `gorm:"type:jsonb;column:tags"`
	CollectionsJSON string           `gorm:"type:jsonb;column:collections"`
	SKU             string           `gorm:"type:varchar(100);index"`
	Price           decimal.Decimal  `gorm:"type:numeric(12,2)"`
	CompareAtPrice  *decimal.Decimal `gorm:"type:numeric(12,2)"`
	Currency        string           `gorm:"type:varchar(3)"`
	Inventory       int              `gorm:"not null;default:0"`
	ImageURLsJSON   string           `gorm:"type:jsonb;column:image_urls"`
	SyncedAt        time.Time        `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (SourceProductModel) TableName() string {
	return "source_products"
}

// ToDomain converts the persistence model to a domain SourceProduct.
func (m *SourceProductModel) ToDomain() *catalog.SourceProduct {
	p := &catalog.SourceProduct{
		BaseEntity:      m.BaseModel.ToDomain(),
		ShopID:          m.ShopID,
		SourceProductID: m.SourceProductID,
		SourceVariantID: m.SourceVariantID,
		Title:           m.Title,
		Description:     m.Description,
		Handle:          m.Handle,
		Vendor:          m.Vendor,
		ProductType:     m.ProductType,
		SKU:             m.SKU,
		Price:           m.Price,
		CompareAtPrice:  m.CompareAtPrice,
		Currency:        m.Currency,
		Inventory:       m.Inventory,
		SyncedAt:        m.SyncedAt,
	}
	if m.TagsJSON != "" {
		var tags []string
		if err := json.Unmarshal([]byte(m.TagsJSON), &tags); err == nil {
			p.Tags = tags
		}
	}
	if m.CollectionsJSON != "" {
		var collections []string
		if err := json.Unmarshal([]byte(m.CollectionsJSON), &collections); err == nil {
			p.Collections = collections
		}
	}
	if m.ImageURLsJSON != "" {
		var urls []string
		if err := json.Unmarshal([]byte(m.ImageURLsJSON), &urls); err == nil {
			p.ImageURLs = urls
		}
	}
	return p
}

// FromDomain populates the persistence model from a domain SourceProduct.
func (m *SourceProductModel) FromDomain(p *catalog.SourceProduct) {
	m.BaseModel.FromDomain(p.BaseEntity)
	m.ShopID = p.ShopID
	m.SourceProductID = p.SourceProductID
	m.SourceVariantID = p.SourceVariantID
	m.Title = p.Title
	m.Description = p.Description
	m.Handle = p.Handle
	m.Vendor = p.Vendor
	m.ProductType = p.ProductType
	m.SKU = p.SKU
	m.Price = p.Price
	m.CompareAtPrice = p.CompareAtPrice
	m.Currency = p.Currency
	m.Inventory = p.Inventory
	m.SyncedAt = p.SyncedAt
	if data, err := json.Marshal(p.Tags); err == nil {
		m.TagsJSON = string(data)
	}
	if data, err := json.Marshal(p.Collections); err == nil {
		m.CollectionsJSON = string(data)
	}
	if data, err := json.Marshal(p.ImageURLs); err == nil {
		m.ImageURLsJSON = string(data)
	}
}
