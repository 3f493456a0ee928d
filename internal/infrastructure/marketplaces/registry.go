package marketplaces

import (
	"sort"

	"github.com/channelsync/backend/internal/domain/marketplace"
)

// AdapterFactory builds an adapter bound to one connection's credentials
type AdapterFactory func(creds marketplace.Credentials) (marketplace.Adapter, error)

// AdapterRegistry implements marketplace.Registry. Adapters are constructed
// per connection so each carries its own credentials, token cache and rate
// limiter. Marketplaces without a registered factory (walmart, target, etsy)
// resolve to ErrMarketplaceNotSupported.
type AdapterRegistry struct {
	factories map[marketplace.Marketplace]AdapterFactory
}

// NewAdapterRegistry creates a registry with the built-in adapters registered
func NewAdapterRegistry() *AdapterRegistry {
	r := &AdapterRegistry{
		factories: make(map[marketplace.Marketplace]AdapterFactory),
	}
	r.Register(marketplace.MarketplaceAmazon, func(creds marketplace.Credentials) (marketplace.Adapter, error) {
		return NewAmazonAdapter(NewAmazonConfig(creds))
	})
	r.Register(marketplace.MarketplaceEbay, func(creds marketplace.Credentials) (marketplace.Adapter, error) {
		return NewEbayAdapter(NewEbayConfig(creds))
	})
	return r
}

// Register adds or replaces the factory for a marketplace
func (r *AdapterRegistry) Register(m marketplace.Marketplace, factory AdapterFactory) {
	r.factories[m] = factory
}

// ForConnection returns an adapter bound to the connection's credentials
func (r *AdapterRegistry) ForConnection(conn *marketplace.Connection) (marketplace.Adapter, error) {
	factory, ok := r.factories[conn.Marketplace]
	if !ok {
		return nil, marketplace.ErrMarketplaceNotSupported
	}
	return factory(conn.Credentials)
}

// Supported returns the marketplaces with a registered adapter, sorted
func (r *AdapterRegistry) Supported() []marketplace.Marketplace {
	supported := make([]marketplace.Marketplace, 0, len(r.factories))
	for m := range r.factories {
		supported = append(supported, m)
	}
	sort.Slice(supported, func(i, j int) bool { return supported[i] < supported[j] })
	return supported
}

// Ensure AdapterRegistry implements the registry port
var _ marketplace.Registry = (*AdapterRegistry)(nil)
