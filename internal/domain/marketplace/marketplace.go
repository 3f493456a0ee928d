package marketplace

// ---------------------------------------------------------------------------
// Marketplace represents an external marketplace
// ---------------------------------------------------------------------------

// Marketplace identifies an external marketplace
type Marketplace string

const (
	// MarketplaceAmazon represents Amazon Seller Central (SP-API)
	MarketplaceAmazon Marketplace = "amazon"
	// MarketplaceEbay represents eBay
	MarketplaceEbay Marketplace = "ebay"
	// MarketplaceWalmart represents Walmart Marketplace
	MarketplaceWalmart Marketplace = "walmart"
	// MarketplaceTarget represents Target Plus
	MarketplaceTarget Marketplace = "target"
	// MarketplaceEtsy represents Etsy
	MarketplaceEtsy Marketplace = "etsy"
	// MarketplaceOther represents any marketplace without a dedicated adapter
	MarketplaceOther Marketplace = "other"
)

// IsValid returns true if the marketplace is valid
func (m Marketplace) IsValid() bool {
	switch m {
	case MarketplaceAmazon, MarketplaceEbay, MarketplaceWalmart,
		MarketplaceTarget, MarketplaceEtsy, MarketplaceOther:
		return true
	default:
		return false
	}
}

// String returns the string representation of Marketplace
func (m Marketplace) String() string {
	return string(m)
}

// DisplayName returns a human-readable name for the marketplace
func (m Marketplace) DisplayName() string {
	switch m {
	case MarketplaceAmazon:
		return "Amazon"
	case MarketplaceEbay:
		return "eBay"
	case MarketplaceWalmart:
		return "Walmart"
	case MarketplaceTarget:
		return "Target Plus"
	case MarketplaceEtsy:
		return "Etsy"
	default:
		return string(m)
	}
}

// ---------------------------------------------------------------------------
// ConnectionStatus represents the status of a marketplace connection
// ---------------------------------------------------------------------------

// ConnectionStatus represents the status of a marketplace connection
type ConnectionStatus string

const (
	// ConnectionStatusPending indicates the connection was created but not yet tested
	ConnectionStatusPending ConnectionStatus = "pending"
	// ConnectionStatusActive indicates a successful connectivity test
	ConnectionStatusActive ConnectionStatus = "active"
	// ConnectionStatusInactive indicates the connection was deactivated by the operator
	ConnectionStatusInactive ConnectionStatus = "inactive"
	// ConnectionStatusError indicates repeated sync failures or a failed credential check
	ConnectionStatusError ConnectionStatus = "error"
)

// IsValid returns true if the status is valid
func (s ConnectionStatus) IsValid() bool {
	switch s {
	case ConnectionStatusPending, ConnectionStatusActive, ConnectionStatusInactive, ConnectionStatusError:
		return true
	default:
		return false
	}
}

// String returns the string representation of ConnectionStatus
func (s ConnectionStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// ListingStatus represents the marketplace-side state of a listing
// ---------------------------------------------------------------------------

// ListingStatus represents the marketplace-side state of a listing
type ListingStatus string

const (
	// ListingStatusDraft indicates the listing exists locally only
	ListingStatusDraft ListingStatus = "draft"
	// ListingStatusPending indicates the listing is queued for remote creation
	ListingStatusPending ListingStatus = "pending"
	// ListingStatusActive indicates the listing is live on the marketplace
	ListingStatusActive ListingStatus = "active"
	// ListingStatusInactive indicates the listing was withdrawn
	ListingStatusInactive ListingStatus = "inactive"
	// ListingStatusError indicates the marketplace rejected the listing
	ListingStatusError ListingStatus = "error"
)

// IsValid returns true if the status is valid
func (s ListingStatus) IsValid() bool {
	switch s {
	case ListingStatusDraft, ListingStatusPending, ListingStatusActive,
		ListingStatusInactive, ListingStatusError:
		return true
	default:
		return false
	}
}

// String returns the string representation of ListingStatus
func (s ListingStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// SyncStatus represents the synchronization status of a listing or order
// ---------------------------------------------------------------------------

// SyncStatus tracks whether local and remote data agree
type SyncStatus string

const (
	// SyncStatusNotSynced indicates no sync has been attempted yet
	SyncStatusNotSynced SyncStatus = "not_synced"
	// SyncStatusPending indicates a sync is queued or in flight
	SyncStatusPending SyncStatus = "pending"
	// SyncStatusSynced indicates the last sync succeeded
	SyncStatusSynced SyncStatus = "synced"
	// SyncStatusError indicates the last sync failed
	SyncStatusError SyncStatus = "error"
)

// IsValid returns true if the status is valid
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusNotSynced, SyncStatusPending, SyncStatusSynced, SyncStatusError:
		return true
	default:
		return false
	}
}

// String returns the string representation of SyncStatus
func (s SyncStatus) String() string {
	return string(s)
}
