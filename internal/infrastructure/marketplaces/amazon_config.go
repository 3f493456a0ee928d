// Package marketplaces contains the concrete marketplace adapters behind the
// marketplace.Adapter port, plus the registry that binds a connection to its
// adapter. Each adapter instance carries one connection's credentials.
package marketplaces

import (
	"errors"

	"github.com/channelsync/backend/internal/domain/marketplace"
)

// AmazonConfig holds the SP-API credentials and endpoints for one seller
type AmazonConfig struct {
	// SellerID is the Amazon merchant identifier
	SellerID string
	// MarketplaceID scopes calls to one Amazon marketplace (e.g. ATVPDKIKX0DER for US)
	MarketplaceID string
	// ClientID / ClientSecret / RefreshToken are the LWA app credentials
	ClientID     string
	ClientSecret string
	RefreshToken string
	// Endpoint is the SP-API base URL (production or sandbox)
	Endpoint string
	// AuthEndpoint is the LWA token URL
	AuthEndpoint string
	// Sandbox selects the sandbox endpoint when Endpoint is unset
	Sandbox bool
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

const (
	// AmazonProductionEndpoint is the North America SP-API endpoint
	AmazonProductionEndpoint = "https://sellingpartnerapi-na.amazon.com"
	// AmazonSandboxEndpoint is the SP-API sandbox endpoint
	AmazonSandboxEndpoint = "https://sandbox.sellingpartnerapi-na.amazon.com"
	// AmazonAuthEndpoint is the LWA token endpoint
	AmazonAuthEndpoint = "https://api.amazon.com/auth/o2/token"
)

// Errors for Amazon configuration
var (
	ErrAmazonConfigMissingSellerID      = errors.New("amazon: seller ID is required")
	ErrAmazonConfigMissingMarketplaceID = errors.New("amazon: marketplace ID is required")
	ErrAmazonConfigMissingClientID      = errors.New("amazon: LWA client ID is required")
	ErrAmazonConfigMissingClientSecret  = errors.New("amazon: LWA client secret is required")
	ErrAmazonConfigMissingRefreshToken  = errors.New("amazon: LWA refresh token is required")
)

// NewAmazonConfig builds an AmazonConfig from a connection's credential bundle
func NewAmazonConfig(creds marketplace.Credentials) *AmazonConfig {
	return &AmazonConfig{
		SellerID:       creds.SellerID,
		MarketplaceID:  creds.MarketplaceID,
		ClientID:       creds.ClientID,
		ClientSecret:   creds.ClientSecret,
		RefreshToken:   creds.RefreshToken,
		Sandbox:        creds.Sandbox,
		TimeoutSeconds: 30,
	}
}

// Validate validates the Amazon configuration and fills endpoint defaults
func (c *AmazonConfig) Validate() error {
	if c.SellerID == "" {
		return ErrAmazonConfigMissingSellerID
	}
	if c.MarketplaceID == "" {
		return ErrAmazonConfigMissingMarketplaceID
	}
	if c.ClientID == "" {
		return ErrAmazonConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrAmazonConfigMissingClientSecret
	}
	if c.RefreshToken == "" {
		return ErrAmazonConfigMissingRefreshToken
	}
	if c.Endpoint == "" {
		if c.Sandbox {
			c.Endpoint = AmazonSandboxEndpoint
		} else {
			c.Endpoint = AmazonProductionEndpoint
		}
	}
	if c.AuthEndpoint == "" {
		c.AuthEndpoint = AmazonAuthEndpoint
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
