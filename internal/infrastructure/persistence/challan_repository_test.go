package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormChallanRepository_ListNumbersBySite(t *testing.T) {
	t.Run("returns numbers for the site", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormChallanRepository(gormDB)

		siteID := uuid.New()

		mock.ExpectQuery(`SELECT "challan_number" FROM "delivery_challans" WHERE site_id = \$1`).
			WithArgs(siteID).
			WillReturnRows(sqlmock.NewRows([]string{"challan_number"}).
				AddRow("0001-0001").
				AddRow("0001-0002"))

		numbers, err := repo.ListNumbersBySite(context.Background(), siteID)

		require.NoError(t, err)
		assert.Equal(t, []string{"0001-0001", "0001-0002"}, numbers)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormChallanRepository_ExistsByNumber(t *testing.T) {
	t.Run("scopes the probe to the site", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormChallanRepository(gormDB)

		siteID := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "delivery_challans" WHERE site_id = \$1 AND challan_number = \$2`).
			WithArgs(siteID, "0001-0003").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		exists, err := repo.ExistsByNumber(context.Background(), siteID, "0001-0003")

		require.NoError(t, err)
		assert.False(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormChallanRepository_SumLineQuantities(t *testing.T) {
	t.Run("folds line quantities per item", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormChallanRepository(gormDB)

		siteID := uuid.New()
		itemA := uuid.New()
		itemB := uuid.New()

		mock.ExpectQuery(`SELECT challan_lines.item_id as item_id, COALESCE\(SUM\(challan_lines.receiving_qty\), 0\) as total FROM "challan_lines" JOIN delivery_challans ON delivery_challans.id = challan_lines.challan_id WHERE delivery_challans.site_id = \$1 AND challan_lines.item_id IN \(\$2,\$3\) GROUP BY challan_lines.item_id`).
			WithArgs(siteID, itemA, itemB).
			WillReturnRows(sqlmock.NewRows([]string{"item_id", "total"}).
				AddRow(itemA, decimal.NewFromInt(60)))

		totals, err := repo.SumLineQuantities(context.Background(), siteID, []uuid.UUID{itemA, itemB})

		require.NoError(t, err)
		assert.True(t, totals[itemA].Equal(decimal.NewFromInt(60)))
		_, ok := totals[itemB]
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("short-circuits on empty item list", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormChallanRepository(gormDB)

		totals, err := repo.SumLineQuantities(context.Background(), uuid.New(), nil)

		require.NoError(t, err)
		assert.Empty(t, totals)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
