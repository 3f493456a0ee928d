package catalog

import "context"

// SourceClient is the port to the source commerce platform the shop lives
// on. It feeds the local product cache; catalog resolution itself never
// touches it.
type SourceClient interface {
	// FetchProducts returns one page of products and the cursor for the next
	// page. An empty returned cursor means the last page.
	FetchProducts(ctx context.Context, cursor string, limit int) ([]SourceProduct, string, error)
}
