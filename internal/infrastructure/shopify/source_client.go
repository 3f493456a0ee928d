// Package shopify implements the catalog.SourceClient port against the
// Shopify Admin API. One client is bound to one shop's domain and token.
package shopify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	goshopify "github.com/bold-commerce/go-shopify/v4"

	"github.com/channelsync/backend/internal/domain/catalog"
)

// defaultPageSize is used when the caller does not set a limit; 250 is the
// Shopify REST maximum.
const defaultPageSize = 250

// Errors for Shopify configuration
var (
	ErrShopifyConfigMissingDomain = errors.New("shopify: shop domain is required")
	ErrShopifyConfigMissingToken  = errors.New("shopify: access token is required")
)

// Config holds the Admin API credentials for one shop
type Config struct {
	// ShopDomain is the myshopify domain, e.g. acme.myshopify.com
	ShopDomain string
	// APIKey / APISecret are the app credentials
	APIKey    string
	APISecret string
	// AccessToken is the shop's offline access token
	AccessToken string
}

// Validate validates the Shopify configuration
func (c *Config) Validate() error {
	if c.ShopDomain == "" {
		return ErrShopifyConfigMissingDomain
	}
	if c.AccessToken == "" {
		return ErrShopifyConfigMissingToken
	}
	return nil
}

// SourceClient fetches products from the Shopify Admin API. Pagination uses
// since_id: the opaque cursor carries the last seen product ID.
type SourceClient struct {
	shopDomain string
	client     *goshopify.Client
}

// NewSourceClient creates a source client bound to one shop
func NewSourceClient(config Config) (*SourceClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	app := goshopify.App{
		ApiKey:    config.APIKey,
		ApiSecret: config.APISecret,
	}
	client, err := goshopify.NewClient(app, config.ShopDomain, config.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("shopify: failed to create client: %w", err)
	}
	return &SourceClient{
		shopDomain: config.ShopDomain,
		client:     client,
	}, nil
}

// FetchProducts retrieves one page of products. An empty returned cursor
// means the last page was reached. Each variant becomes its own snapshot so
// catalogs can price per variant.
func (c *SourceClient) FetchProducts(ctx context.Context, cursor string, limit int) ([]catalog.SourceProduct, string, error) {
	if limit <= 0 || limit > defaultPageSize {
		limit = defaultPageSize
	}
	sinceID, err := decodeSinceCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	products, err := c.client.Product.List(ctx, goshopify.ListOptions{
		SinceId: &sinceID,
		Limit:   limit,
	})
	if err != nil {
		return nil, "", fmt.Errorf("shopify: failed to list products: %w", err)
	}

	snapshots := make([]catalog.SourceProduct, 0, len(products))
	for _, p := range products {
		snapshots = append(snapshots, ProductSnapshots(p)...)
	}

	next := ""
	if len(products) == limit {
		next = strconv.FormatUint(products[len(products)-1].Id, 10)
	}
	return snapshots, next, nil
}

// ProductSnapshots converts one Shopify product into per-variant snapshots
func ProductSnapshots(p goshopify.Product) []catalog.SourceProduct {
	base := catalog.SourceProduct{
		SourceProductID: strconv.FormatUint(p.Id, 10),
		Title:           p.Title,
		Description:     p.BodyHTML,
		Handle:          p.Handle,
		Vendor:          p.Vendor,
		ProductType:     p.ProductType,
		Tags:            splitTags(p.Tags),
		Currency:        "USD",
	}
	for _, image := range p.Images {
		base.ImageURLs = append(base.ImageURLs, image.Src)
	}

	if len(p.Variants) == 0 {
		return []catalog.SourceProduct{base}
	}

	snapshots := make([]catalog.SourceProduct, 0, len(p.Variants))
	for _, v := range p.Variants {
		snapshot := base
		snapshot.SourceVariantID = strconv.FormatUint(v.Id, 10)
		snapshot.SKU = v.Sku
		snapshot.Inventory = v.InventoryQuantity
		if v.Price != nil {
			snapshot.Price = *v.Price
		}
		if v.CompareAtPrice != nil {
			compareAt := *v.CompareAtPrice
			snapshot.CompareAtPrice = &compareAt
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots
}

// splitTags splits the Shopify comma-separated tag string
func splitTags(tags string) []string {
	if tags == "" {
		return nil
	}
	parts := strings.Split(tags, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// decodeSinceCursor parses a since_id cursor, empty meaning the first page
func decodeSinceCursor(cursor string) (uint64, error) {
	if cursor == "" {
		return 0, nil
	}
	sinceID, err := strconv.ParseUint(cursor, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("shopify: invalid page cursor %q", cursor)
	}
	return sinceID, nil
}

// Ensure SourceClient implements the source port
var _ catalog.SourceClient = (*SourceClient)(nil)
