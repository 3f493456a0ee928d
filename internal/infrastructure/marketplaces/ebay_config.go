package marketplaces

import (
	"errors"

	"github.com/channelsync/backend/internal/domain/marketplace"
)

// EbayConfig holds the OAuth credentials, endpoints and business policies
// for one eBay seller account.
type EbayConfig struct {
	// ClientID / ClientSecret / RefreshToken are the OAuth app credentials
	ClientID     string
	ClientSecret string
	RefreshToken string
	// FulfillmentPolicyID / PaymentPolicyID / ReturnPolicyID are the business
	// policies required when creating an offer
	FulfillmentPolicyID string
	PaymentPolicyID     string
	ReturnPolicyID      string
	// EbayMarketplaceID scopes offers to one eBay site
	EbayMarketplaceID string
	// Endpoint is the eBay API base URL (production or sandbox)
	Endpoint string
	// AuthEndpoint is the OAuth token URL
	AuthEndpoint string
	// Sandbox selects the sandbox endpoints when Endpoint is unset
	Sandbox bool
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

const (
	// EbayProductionEndpoint is the production API endpoint
	EbayProductionEndpoint = "https://api.ebay.com"
	// EbaySandboxEndpoint is the sandbox API endpoint
	EbaySandboxEndpoint = "https://api.sandbox.ebay.com"
	// EbayProductionAuthEndpoint is the production OAuth token endpoint
	EbayProductionAuthEndpoint = "https://api.ebay.com/identity/v1/oauth2/token"
	// EbaySandboxAuthEndpoint is the sandbox OAuth token endpoint
	EbaySandboxAuthEndpoint = "https://api.sandbox.ebay.com/identity/v1/oauth2/token"
	// defaultEbayMarketplaceID is the US site
	defaultEbayMarketplaceID = "EBAY_US"
)

// Errors for eBay configuration
var (
	ErrEbayConfigMissingClientID     = errors.New("ebay: client ID is required")
	ErrEbayConfigMissingClientSecret = errors.New("ebay: client secret is required")
	ErrEbayConfigMissingRefreshToken = errors.New("ebay: refresh token is required")
)

// NewEbayConfig builds an EbayConfig from a connection's credential bundle
func NewEbayConfig(creds marketplace.Credentials) *EbayConfig {
	return &EbayConfig{
		ClientID:            creds.ClientID,
		ClientSecret:        creds.ClientSecret,
		RefreshToken:        creds.RefreshToken,
		FulfillmentPolicyID: creds.FulfillmentPolicyID,
		PaymentPolicyID:     creds.PaymentPolicyID,
		ReturnPolicyID:      creds.ReturnPolicyID,
		Sandbox:             creds.Sandbox,
		TimeoutSeconds:      30,
	}
}

// Validate validates the eBay configuration and fills endpoint defaults
func (c *EbayConfig) Validate() error {
	if c.ClientID == "" {
		return ErrEbayConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrEbayConfigMissingClientSecret
	}
	if c.RefreshToken == "" {
		return ErrEbayConfigMissingRefreshToken
	}
	if c.Endpoint == "" {
		if c.Sandbox {
			c.Endpoint = EbaySandboxEndpoint
		} else {
			c.Endpoint = EbayProductionEndpoint
		}
	}
	if c.AuthEndpoint == "" {
		if c.Sandbox {
			c.AuthEndpoint = EbaySandboxAuthEndpoint
		} else {
			c.AuthEndpoint = EbayProductionAuthEndpoint
		}
	}
	if c.EbayMarketplaceID == "" {
		c.EbayMarketplaceID = defaultEbayMarketplaceID
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
