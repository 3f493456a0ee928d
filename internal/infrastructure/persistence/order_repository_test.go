package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/channelsync/backend/internal/domain/order"
)

// newMockOrderRepository creates a GormOrderRepository with a mocked SQL connection
func newMockOrderRepository(t *testing.T) (*GormOrderRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormOrderRepository(gormDB), mock, mockDB
}

func TestGormOrderRepository_FindByMarketplaceOrder(t *testing.T) {
	t.Run("finds existing order and decodes line items", func(t *testing.T) {
		repo, mock, mockDB := newMockOrderRepository(t)
		defer mockDB.Close()

		orderID := uuid.New()
		connectionID := uuid.New()

		rows := sqlmock.NewRows([]string{
			"id", "shop_id", "connection_id", "marketplace_order_id",
			"source", "status", "sync_status", "line_items", "shipping_address",
		}).AddRow(
			orderID, uuid.New(), connectionID, "111-222",
			"amazon", "processing", "synced",
			`[{"title":"Canvas Tote","quantity":2,"sku":"TOTE-NAT","price":"19.99"}]`,
			`{"name":"Jordan Baker","city":"Chicago","country":"US"}`,
		)

		mock.ExpectQuery(`SELECT \* FROM "orders" WHERE connection_id = \$1 AND marketplace_order_id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(connectionID, "111-222", 1).
			WillReturnRows(rows)

		o, err := repo.FindByMarketplaceOrder(context.Background(), connectionID, "111-222")

		require.NoError(t, err)
		assert.Equal(t, orderID, o.ID)
		assert.Equal(t, order.SourceAmazon, o.Source)
		require.Len(t, o.LineItems, 1)
		assert.Equal(t, "Canvas Tote", o.LineItems[0].Title)
		assert.Equal(t, 2, o.LineItems[0].Quantity)
		require.NotNil(t, o.ShippingAddress)
		assert.Equal(t, "Chicago", o.ShippingAddress.City)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns domain error for missing order", func(t *testing.T) {
		repo, mock, mockDB := newMockOrderRepository(t)
		defer mockDB.Close()

		connectionID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "orders" WHERE connection_id = \$1 AND marketplace_order_id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(connectionID, "missing", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		o, err := repo.FindByMarketplaceOrder(context.Background(), connectionID, "missing")

		assert.Nil(t, o)
		assert.ErrorIs(t, err, order.ErrOrderNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormOrderRepository_DetachConnection(t *testing.T) {
	repo, mock, mockDB := newMockOrderRepository(t)
	defer mockDB.Close()

	connectionID := uuid.New()

	mock.ExpectExec(`UPDATE "orders" SET "connection_id"=\$1,"updated_at"=\$2 WHERE connection_id = \$3`).
		WithArgs(nil, sqlmock.AnyArg(), connectionID).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.DetachConnection(context.Background(), connectionID)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
