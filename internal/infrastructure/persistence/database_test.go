package persistence

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type listingRow struct {
	ID     uint `gorm:"primarykey"`
	ShopID string
	SKU    string
	Title  string
}

func (listingRow) TableName() string { return "marketplace_listings" }

// newMockDatabase builds a Database backed by sqlmock so queries can be
// asserted without a running Postgres.
func newMockDatabase(t *testing.T, expect ...func(sqlmock.Sqlmock)) (*Database, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	// gorm.Open pings once on connect.
	mock.ExpectPing()
	for _, fn := range expect {
		fn(mock)
	}

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return &Database{DB: gormDB}, mock
}

func TestConnectionStats(t *testing.T) {
	stats := ConnectionStats{
		MaxOpenConnections: 25,
		OpenConnections:    8,
		InUse:              3,
		Idle:               5,
		WaitCount:          12,
		WaitDuration:       40 * time.Millisecond,
		MaxIdleClosed:      2,
		MaxIdleTimeClosed:  1,
		MaxLifetimeClosed:  4,
	}

	assert.Equal(t, 25, stats.MaxOpenConnections)
	assert.Equal(t, 8, stats.OpenConnections)
	assert.Equal(t, 3, stats.InUse)
	assert.Equal(t, 5, stats.Idle)
	assert.Equal(t, int64(12), stats.WaitCount)
	assert.Equal(t, 40*time.Millisecond, stats.WaitDuration)

	var zero ConnectionStats
	assert.Zero(t, zero.OpenConnections)
	assert.Zero(t, zero.WaitDuration)
}

func TestDatabase_Stats(t *testing.T) {
	db, mock := newMockDatabase(t)

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.OpenConnections, 0)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Ping(t *testing.T) {
	db, mock := newMockDatabase(t, func(m sqlmock.Sqlmock) {
		m.ExpectPing()
	})

	assert.NoError(t, db.Ping())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Close(t *testing.T) {
	db, mock := newMockDatabase(t, func(m sqlmock.Sqlmock) {
		m.ExpectClose()
	})

	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_WithShop(t *testing.T) {
	t.Run("scopes queries to the shop", func(t *testing.T) {
		db, mock := newMockDatabase(t)

		mock.ExpectQuery(`SELECT \* FROM "marketplace_listings" WHERE shop_id = \$1`).
			WithArgs("shop-42").
			WillReturnRows(sqlmock.NewRows([]string{"id", "shop_id", "sku", "title"}).
				AddRow(1, "shop-42", "SKU-RED-M", "Red Shirt M"))

		var listings []listingRow
		require.NoError(t, db.WithShop("shop-42").Find(&listings).Error)
		require.Len(t, listings, 1)
		assert.Equal(t, "shop-42", listings[0].ShopID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("does not mutate the base handle", func(t *testing.T) {
		db, _ := newMockDatabase(t)

		scoped := db.WithShop("shop-42")
		assert.NotSame(t, db.DB, scoped)
	})

	t.Run("panics on empty shop ID", func(t *testing.T) {
		db, _ := newMockDatabase(t)

		assert.Panics(t, func() { db.WithShop("") })
	})

	t.Run("shop ID goes through a bind parameter", func(t *testing.T) {
		db, mock := newMockDatabase(t)

		hostile := `shop-1' OR '1'='1`
		mock.ExpectQuery(`SELECT \* FROM "marketplace_listings" WHERE shop_id = \$1`).
			WithArgs(hostile).
			WillReturnRows(sqlmock.NewRows([]string{"id", "shop_id", "sku", "title"}))

		var listings []listingRow
		require.NoError(t, db.WithShop(hostile).Find(&listings).Error)
		assert.Empty(t, listings)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDatabase_WithShop_ChainedClauses(t *testing.T) {
	db, mock := newMockDatabase(t)

	mock.ExpectQuery(`SELECT \* FROM "marketplace_listings" WHERE shop_id = \$1 AND sku LIKE \$2 ORDER BY id desc LIMIT \$3 OFFSET \$4`).
		WithArgs("shop-42", "SKU-%", 10, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "shop_id", "sku", "title"}))

	var listings []listingRow
	err := db.WithShop("shop-42").
		Where("sku LIKE ?", "SKU-%").
		Order("id desc").
		Limit(10).
		Offset(20).
		Find(&listings).Error
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_WithShop_Isolation(t *testing.T) {
	db, mock := newMockDatabase(t)

	mock.ExpectQuery(`SELECT \* FROM "marketplace_listings" WHERE shop_id = \$1`).
		WithArgs("shop-a").
		WillReturnRows(sqlmock.NewRows([]string{"id", "shop_id", "sku", "title"}).
			AddRow(1, "shop-a", "SKU-A", "Alpha"))
	mock.ExpectQuery(`SELECT \* FROM "marketplace_listings" WHERE shop_id = \$1`).
		WithArgs("shop-b").
		WillReturnRows(sqlmock.NewRows([]string{"id", "shop_id", "sku", "title"}))

	var a, b []listingRow
	require.NoError(t, db.WithShop("shop-a").Find(&a).Error)
	require.NoError(t, db.WithShop("shop-b").Find(&b).Error)

	assert.Len(t, a, 1)
	assert.Empty(t, b)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Transaction(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		db, mock := newMockDatabase(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "marketplace_listings"`).
			WithArgs("shop-42", "SKU-NEW", "New Listing").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
		mock.ExpectCommit()

		err := db.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&listingRow{ShopID: "shop-42", SKU: "SKU-NEW", Title: "New Listing"}).Error
		})
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock := newMockDatabase(t)

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := db.Transaction(func(tx *gorm.DB) error {
			return assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
