package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/channelsync/backend/internal/domain/marketplace"
)

// ConnectionModel is the persistence model for the Connection domain entity.
type ConnectionModel struct {
	BaseModel
	ShopID               uuid.UUID                    `gorm:"type:uuid;not null;index;index:idx_connection_tuple,unique,priority:1,where:is_active"`
	Marketplace          marketplace.Marketplace      `gorm:"type:varchar(20);not null;index:idx_connection_tuple,unique,priority:2"`
	MarketplaceAccountID string                       `gorm:"type:varchar(100);not null;index:idx_connection_tuple,unique,priority:3"`
	CredentialsJSON      string                       `gorm:"type:jsonb;column:credentials"`
	SettingsJSON         string                       `gorm:"type:jsonb;column:settings"`
	Status               marketplace.ConnectionStatus `gorm:"type:varchar(20);not null"`
	LastSyncAt           *time.Time                   `gorm:"index"`
	ErrorMessage         string                       `gorm:"type:text"`
	SalesChannelID       *uuid.UUID                   `gorm:"type:uuid;index"`
	ConsecutiveFailures  int                          `gorm:"not null;default:0"`
	IsActive             bool                         `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ConnectionModel) TableName() string {
	return "marketplace_connections"
}

// ToDomain converts the persistence model to a domain Connection entity.
func (m *ConnectionModel) ToDomain() *marketplace.Connection {
	conn := &marketplace.Connection{
		BaseEntity:           m.BaseModel.ToDomain(),
		ShopID:               m.ShopID,
		Marketplace:          m.Marketplace,
		MarketplaceAccountID: m.MarketplaceAccountID,
		Settings:             marketplace.DefaultSettings(),
		Status:               m.Status,
		LastSyncAt:           m.LastSyncAt,
		ErrorMessage:         m.ErrorMessage,
		SalesChannelID:       m.SalesChannelID,
		ConsecutiveFailures:  m.ConsecutiveFailures,
		IsActive:             m.IsActive,
	}
	if m.CredentialsJSON != "" {
		var creds marketplace.Credentials
		if err := json.Unmarshal([]byte(m.CredentialsJSON), &creds); err == nil {
			conn.Credentials = creds
		}
	}
	if m.SettingsJSON != "" {
		var settings marketplace.Settings
		if err := json.Unmarshal([]byte(m.SettingsJSON), &settings); err == nil {
			conn.Settings = settings
		}
	}
	return conn
}

// FromDomain populates the persistence model from a domain Connection entity.
func (m *ConnectionModel) FromDomain(conn *marketplace.Connection) {
	m.BaseModel.FromDomain(conn.BaseEntity)
	m.ShopID = conn.ShopID
	m.Marketplace = conn.Marketplace
	m.MarketplaceAccountID = conn.MarketplaceAccountID
	m.Status = conn.Status
	m.LastSyncAt = conn.LastSyncAt
	m.ErrorMessage = conn.ErrorMessage
	m.SalesChannelID = conn.SalesChannelID
	m.ConsecutiveFailures = conn.ConsecutiveFailures
	m.IsActive = conn.IsActive
	if data, err := json.Marshal(conn.Credentials); err == nil {
		m.CredentialsJSON = string(data)
	}
	if data, err := json.Marshal(conn.Settings); err == nil {
		m.SettingsJSON = string(data)
	}
}

// ListingModel is the persistence model for the Listing domain entity.
type ListingModel struct {
	BaseModel
	ShopID               uuid.UUID                 `gorm:"type:uuid;not null;index"`
	ConnectionID         uuid.UUID                 `gorm:"type:uuid;not null;index;uniqueIndex:idx_listing_connection_product,priority:1;index:idx_listing_connection_remote,unique,priority:1,where:marketplace_listing_id <> ''"`
	SourceProductID      string                    `gorm:"type:varchar(100);not null;index;uniqueIndex:idx_listing_connection_product,priority:2"`
	SourceVariantID      string                    `gorm:"type:varchar(100)"`
	MarketplaceListingID string                    `gorm:"type:varchar(100);index;index:idx_listing_connection_remote,unique,priority:2"`
	MarketplaceSKU       string                    `gorm:"type:varchar(100)"`
	Title                string                    `gorm:"type:varchar(255)"`
	Price                decimal.Decimal           `gorm:"type:numeric(12,2)"`
	CompareAtPrice       decimal.Decimal           `gorm:"type:numeric(12,2)"`
	Inventory            int                       `gorm:"not null;default:0"`
	Status               marketplace.ListingStatus `gorm:"type:varchar(20);not null"`
	SyncStatus           marketplace.SyncStatus    `gorm:"type:varchar(20);not null;index"`
	LastSyncAt           *time.Time                `gorm:"index"`
	ErrorMessage         string                    `gorm:"type:text"`
	MetadataJSON         string                    `gorm:"type:jsonb;column:metadata"`
	RetryCount           int                       `gorm:"not null;default:0"`
	NextRetryAt          *time.Time                `gorm:"index"`
}

// TableName returns the table name for GORM
func (ListingModel) TableName() string {
	return "marketplace_listings"
}

// ToDomain converts the persistence model to a domain Listing entity.
func (m *ListingModel) ToDomain() *marketplace.Listing {
	listing := &marketplace.Listing{
		BaseEntity:           m.BaseModel.ToDomain(),
		ShopID:               m.ShopID,
		ConnectionID:         m.ConnectionID,
		SourceProductID:      m.SourceProductID,
		SourceVariantID:      m.SourceVariantID,
		MarketplaceListingID: m.MarketplaceListingID,
		MarketplaceSKU:       m.MarketplaceSKU,
		Title:                m.Title,
		Price:                m.Price,
		CompareAtPrice:       m.CompareAtPrice,
		Inventory:            m.Inventory,
		Status:               m.Status,
		SyncStatus:           m.SyncStatus,
		LastSyncAt:           m.LastSyncAt,
		ErrorMessage:         m.ErrorMessage,
		Metadata:             make(map[string]any),
		RetryCount:           m.RetryCount,
		NextRetryAt:          m.NextRetryAt,
	}
	if m.MetadataJSON != "" {
		var metadata map[string]any
		if err := json.Unmarshal([]byte(m.MetadataJSON), &metadata); err == nil {
			listing.Metadata = metadata
		}
	}
	return listing
}

// FromDomain populates the persistence model from a domain Listing entity.
func (m *ListingModel) FromDomain(l *marketplace.Listing) {
	m.BaseModel.FromDomain(l.BaseEntity)
	m.ShopID = l.ShopID
	m.ConnectionID = l.ConnectionID
	m.SourceProductID = l.SourceProductID
	m.SourceVariantID = l.SourceVariantID
	m.MarketplaceListingID = l.MarketplaceListingID
	m.MarketplaceSKU = l.MarketplaceSKU
	m.Title = l.Title
	m.Price = l.Price
	m.CompareAtPrice = l.CompareAtPrice
	m.Inventory = l.Inventory
	m.Status = l.Status
	m.SyncStatus = l.SyncStatus
	m.LastSyncAt = l.LastSyncAt
	m.ErrorMessage = l.ErrorMessage
	m.RetryCount = l.RetryCount
	m.NextRetryAt = l.NextRetryAt
	if len(l.Metadata) > 0 {
		if data, err := json.Marshal(l.Metadata); err == nil {
			m.MetadataJSON = string(data)
		}
	} else {
		m.MetadataJSON = ""
	}
}
