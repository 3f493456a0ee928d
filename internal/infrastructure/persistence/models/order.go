package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/channelsync/backend/internal/domain/order"
)

// OrderModel is the persistence model for the Order domain entity.
type OrderModel struct {
	BaseModel
	ShopID              uuid.UUID        `gorm:"type:uuid;not null;index"`
	ConnectionID        *uuid.UUID       `gorm:"type:uuid;index;uniqueIndex:idx_order_marketplace,priority:1"`
	SourceOrderID       string           `gorm:"type:varchar(100);index"`
	MarketplaceOrderID  string           `gorm:"type:varchar(100);uniqueIndex:idx_order_marketplace,priority:2"`
	OrderNumber         string           `gorm:"type:varchar(100)"`
	Source              order.Source     `gorm:"type:varchar(20);not null;index"`
	Status              order.Status     `gorm:"type:varchar(20);not null;index"`
	FinancialStatus     string           `gorm:"type:varchar(50)"`
	FulfillmentStatus   string           `gorm:"type:varchar(50)"`
	Currency            string           `gorm:"type:varchar(3)"`
	Subtotal            decimal.Decimal  `gorm:"type:numeric(12,2)"`
	TotalTax            decimal.Decimal  `gorm:"type:numeric(12,2)"`
	TotalShipping       decimal.Decimal  `gorm:"type:numeric(12,2)"`
	TotalDiscount       decimal.Decimal  `gorm:"type:numeric(12,2)"`
	Total               decimal.Decimal  `gorm:"type:numeric(12,2)"`
	CustomerEmail       string           `gorm:"type:varchar(255)"`
	CustomerName        string           `gorm:"type:varchar(255)"`
	ShippingAddressJSON string           `gorm:"type:jsonb;column:shipping_address"`
	BillingAddressJSON  string           `gorm:"type:jsonb;column:billing_address"`
	LineItemsJSON       string           `gorm:"type:jsonb;column:line_items"`
	TrackingJSON        string           `gorm:"type:jsonb;column:tracking"`
	SyncStatus          order.SyncStatus `gorm:"type:varchar(20);not null"`
	LastSyncAt          *time.Time       `gorm:"index"`
	ErrorMessage        string           `gorm:"type:text"`
	OrderedAt           *time.Time       `gorm:"index"`
	LastEventAt         *time.Time
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order entity.
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		BaseEntity:         m.BaseModel.ToDomain(),
		ShopID:             m.ShopID,
		ConnectionID:       m.ConnectionID,
		SourceOrderID:      m.SourceOrderID,
		MarketplaceOrderID: m.MarketplaceOrderID,
		OrderNumber:        m.OrderNumber,
		Source:             m.Source,
		Status:             m.Status,
		FinancialStatus:    m.FinancialStatus,
		FulfillmentStatus:  m.FulfillmentStatus,
		Currency:           m.Currency,
		Subtotal:           m.Subtotal,
		TotalTax:           m.TotalTax,
		TotalShipping:      m.TotalShipping,
		TotalDiscount:      m.TotalDiscount,
		Total:              m.Total,
		CustomerEmail:      m.CustomerEmail,
		CustomerName:       m.CustomerName,
		LineItems:          make([]order.LineItem, 0),
		SyncStatus:         m.SyncStatus,
		LastSyncAt:         m.LastSyncAt,
		ErrorMessage:       m.ErrorMessage,
		OrderedAt:          m.OrderedAt,
		LastEventAt:        m.LastEventAt,
	}
	if m.ShippingAddressJSON != "" {
		var addr order.Address
		if err := json.Unmarshal([]byte(m.ShippingAddressJSON), &addr); err == nil {
			o.ShippingAddress = &addr
		}
	}
	if m.BillingAddressJSON != "" {
		var addr order.Address
		if err := json.Unmarshal([]byte(m.BillingAddressJSON), &addr); err == nil {
			o.BillingAddress = &addr
		}
	}
	if m.LineItemsJSON != "" {
		var items []order.LineItem
		if err := json.Unmarshal([]byte(m.LineItemsJSON), &items); err == nil {
			o.LineItems = items
		}
	}
	if m.TrackingJSON != "" {
		var tracking order.TrackingInfo
		if err := json.Unmarshal([]byte(m.TrackingJSON), &tracking); err == nil {
			o.Tracking = &tracking
		}
	}
	return o
}

// FromDomain populates the persistence model from a domain Order entity.
func (m *OrderModel) FromDomain(o *order.Order) {
	m.BaseModel.FromDomain(o.BaseEntity)
	m.ShopID = o.ShopID
	m.ConnectionID = o.ConnectionID
	m.SourceOrderID = o.SourceOrderID
	m.MarketplaceOrderID = o.MarketplaceOrderID
	m.OrderNumber = o.OrderNumber
	m.Source = o.Source
	m.Status = o.Status
	m.FinancialStatus = o.FinancialStatus
	m.FulfillmentStatus = o.FulfillmentStatus
	m.Currency = o.Currency
	m.Subtotal = o.Subtotal
	m.TotalTax = o.TotalTax
	m.TotalShipping = o.TotalShipping
	m.TotalDiscount = o.TotalDiscount
	m.Total = o.Total
	m.CustomerEmail = o.CustomerEmail
	m.CustomerName = o.CustomerName
	m.SyncStatus = o.SyncStatus
	m.LastSyncAt = o.LastSyncAt
	m.ErrorMessage = o.ErrorMessage
	m.OrderedAt = o.OrderedAt
	m.LastEventAt = o.LastEventAt

	m.ShippingAddressJSON = ""
	if o.ShippingAddress != nil {
		if data, err := json.Marshal(o.ShippingAddress); err == nil {
			m.ShippingAddressJSON = string(data)
		}
	}
	m.BillingAddressJSON = ""
	if o.BillingAddress != nil {
		if data, err := json.Marshal(o.BillingAddress); err == nil {
			m.BillingAddressJSON = string(data)
		}
	}
	if data, err := json.Marshal(o.LineItems); err == nil {
		m.LineItemsJSON = string(data)
	}
	m.TrackingJSON = ""
	if o.Tracking != nil {
		if data, err := json.Marshal(o.Tracking); err == nil {
			m.TrackingJSON = string(data)
		}
	}
}
