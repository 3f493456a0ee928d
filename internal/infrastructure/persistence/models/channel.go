package models

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/channelsync/backend/internal/domain/channel"
)

// SalesChannelModel is the persistence model for the SalesChannel entity.
type SalesChannelModel struct {
	BaseModel
	ShopID            uuid.UUID           `gorm:"type:uuid;not null;index"`
	Name              string              `gorm:"type:varchar(255);not null"`
	Description       string              `gorm:"type:text"`
	ChannelType       channel.ChannelType `gorm:"type:varchar(20);not null"`
	Priority          int                 `gorm:"not null;default:0"`
	ConfigurationJSON string              `gorm:"type:jsonb;column:configuration"`
	IsActive          bool                `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (SalesChannelModel) TableName() string {
	return "sales_channels"
}

// ToDomain converts the persistence model to a domain SalesChannel entity.
func (m *SalesChannelModel) ToDomain() *channel.SalesChannel {
	ch := &channel.SalesChannel{
		BaseEntity:  m.BaseModel.ToDomain(),
		ShopID:      m.ShopID,
		Name:        m.Name,
		Description: m.Description,
		ChannelType: m.ChannelType,
		Priority:    m.Priority,
		IsActive:    m.IsActive,
	}
	if m.ConfigurationJSON != "" {
		var cfg channel.Configuration
		if err := json.Unmarshal([]byte(m.ConfigurationJSON), &cfg); err == nil {
			ch.Configuration = cfg
		}
	}
	return ch
}

// FromDomain populates the persistence model from a domain SalesChannel.
func (m *SalesChannelModel) FromDomain(ch *channel.SalesChannel) {
	m.BaseModel.FromDomain(ch.BaseEntity)
	m.ShopID = ch.ShopID
	m.Name = ch.Name
	m.Description = ch.Description
	m.ChannelType = ch.ChannelType
	m.Priority = ch.Priority
	m.IsActive = ch.IsActive
	if data, err := json.Marshal(ch.Configuration); err == nil {
		m.ConfigurationJSON = string(data)
	}
}

// CatalogLinkModel is the persistence model for the CatalogLink entity.
type CatalogLinkModel struct {
	BaseModel
	ChannelID            uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_channel_catalog,priority:1"`
	CatalogID            uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_channel_catalog,priority:2"`
	Priority             int       `gorm:"not null;default:0"`
	StrategyOverrideJSON string    `gorm:"type:jsonb;column:strategy_override"`
	IsActive             bool      `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (CatalogLinkModel) TableName() string {
	return "channel_catalog_links"
}

// ToDomain converts the persistence model to a domain CatalogLink entity.
func (m *CatalogLinkModel) ToDomain() *channel.CatalogLink {
	link := &channel.CatalogLink{
		BaseEntity: m.BaseModel.ToDomain(),
		ChannelID:  m.ChannelID,
		CatalogID:  m.CatalogID,
		Priority:   m.Priority,
		IsActive:   m.IsActive,
	}
	if m.StrategyOverrideJSON != "" {
		var override channel.StrategyOverride
		if err := json.Unmarshal([]byte(m.StrategyOverrideJSON), &override); err == nil {
			link.StrategyOverride = &override
		}
	}
	return link
}

// FromDomain populates the persistence model from a domain CatalogLink.
func (m *CatalogLinkModel) FromDomain(link *channel.CatalogLink) {
	m.BaseModel.FromDomain(link.BaseEntity)
	m.ChannelID = link.ChannelID
	m.CatalogID = link.CatalogID
	m.Priority = link.Priority
	m.IsActive = link.IsActive
	m.StrategyOverrideJSON = ""
	if link.StrategyOverride != nil {
		if data, err := json.Marshal(link.StrategyOverride); err == nil {
			m.StrategyOverrideJSON = string(data)
		}
	}
}

// TenantLinkModel is the persistence model for the TenantLink entity.
type TenantLinkModel struct {
	BaseModel
	ShopID          uuid.UUID    `gorm:"type:uuid;not null;index;uniqueIndex:idx_tenant_channel,priority:1"`
	ChannelID       uuid.UUID    `gorm:"type:uuid;not null;index;uniqueIndex:idx_tenant_channel,priority:2"`
	Role            channel.Role `gorm:"type:varchar(20);not null"`
	PermissionsJSON string       `gorm:"type:jsonb;column:permissions"`
	IsActive        bool         `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (TenantLinkModel) TableName() string {
	return "channel_tenant_links"
}

// ToDomain converts the persistence model to a domain TenantLink entity.
func (m *TenantLinkModel) ToDomain() *channel.TenantLink {
	link := &channel.TenantLink{
		BaseEntity: m.BaseModel.ToDomain(),
		ShopID:     m.ShopID,
		ChannelID:  m.ChannelID,
		Role:       m.Role,
		IsActive:   m.IsActive,
	}
	if m.PermissionsJSON != "" {
		var perms channel.PermissionsPatch
		if err := json.Unmarshal([]byte(m.PermissionsJSON), &perms); err == nil {
			link.Permissions = &perms
		}
	}
	return link
}

// FromDomain populates the persistence model from a domain TenantLink.
func (m *TenantLinkModel) FromDomain(link *channel.TenantLink) {
	m.BaseModel.FromDomain(link.BaseEntity)
	m.ShopID = link.ShopID
	m.ChannelID = link.ChannelID
	m.Role = link.Role
	m.IsActive = link.IsActive
	m.PermissionsJSON = ""
	if link.Permissions != nil {
		if data, err := json.Marshal(link.Permissions); err == nil {
			m.PermissionsJSON = string(data)
		}
	}
}
