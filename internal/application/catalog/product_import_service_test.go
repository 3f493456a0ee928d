package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/channelsync/backend/internal/domain/catalog"
)

// MockSourceClient is a mock implementation of catalog.SourceClient
type MockSourceClient struct {
	mock.Mock
}

func (m *MockSourceClient) FetchProducts(ctx context.Context, cursor string, limit int) ([]catalog.SourceProduct, string, error) {
	args := m.Called(ctx, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]catalog.SourceProduct), args.String(1), args.Error(2)
}

func TestImportProductsPaginatesAndUpserts(t *testing.T) {
	productRepo := new(MockProductRepository)
	source := new(MockSourceClient)
	svc := NewProductImportService(productRepo, source, zap.NewNop())
	shopID := uuid.New()

	fresh := catalog.SourceProduct{SourceProductID: "p1", Title: "Widget", Price: decimal.NewFromInt(10)}
	known := catalog.SourceProduct{SourceProductID: "p2", Title: "Widget v2", Price: decimal.NewFromInt(12)}

	source.On("FetchProducts", mock.Anything, "", mock.Anything).
		Return([]catalog.SourceProduct{fresh}, "cursor-2", nil)
	source.On("FetchProducts", mock.Anything, "cursor-2", mock.Anything).
		Return([]catalog.SourceProduct{known}, "", nil)

	cached, _ := catalog.NewSourceProduct(shopID, "p2")
	cached.Title = "Widget v1"

	productRepo.On("FindBySourceProductID", mock.Anything, shopID, "p1").
		Return(nil, catalog.ErrProductNotFound)
	productRepo.On("FindBySourceProductID", mock.Anything, shopID, "p2").Return(cached, nil)
	productRepo.On("Save", mock.Anything, mock.AnythingOfType("*catalog.SourceProduct")).Return(nil)

	result, err := svc.ImportProducts(context.Background(), shopID)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Updated)
	assert.Zero(t, result.Failed)
	// the cached snapshot picked up the new attributes
	assert.Equal(t, "Widget v2", cached.Title)
}

func TestImportProductsContinuesPastItemFailure(t *testing.T) {
	productRepo := new(MockProductRepository)
	source := new(MockSourceClient)
	svc := NewProductImportService(productRepo, source, zap.NewNop())
	shopID := uuid.New()

	products := []catalog.SourceProduct{
		{SourceProductID: "bad", Title: "Broken"},
		{SourceProductID: "good", Title: "Fine"},
	}

	source.On("FetchProducts", mock.Anything, "", mock.Anything).Return(products, "", nil)
	productRepo.On("FindBySourceProductID", mock.Anything, shopID, "bad").
		Return(nil, assert.AnError)
	productRepo.On("FindBySourceProductID", mock.Anything, shopID, "good").
		Return(nil, catalog.ErrProductNotFound)
	productRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.ImportProducts(context.Background(), shopID)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Created)
}
