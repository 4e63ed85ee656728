package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/siteworks/backend/internal/domain/procurement"
	"github.com/siteworks/backend/internal/domain/shared"
)

func setupIndentTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&procurement.Indent{}, &procurement.IndentLine{})
	require.NoError(t, err)

	return db
}

func newTestIndent(t *testing.T, number string, siteID uuid.UUID) *procurement.Indent {
	indent, err := procurement.NewIndent(number, siteID, uuid.New(), time.Now())
	require.NoError(t, err)
	_, err = indent.AddLine(uuid.New(), decimal.NewFromInt(50), "cement bags")
	require.NoError(t, err)
	return indent
}

func TestGormIndentRepository_SaveAndFind(t *testing.T) {
	db := setupIndentTestDB(t)
	repo := NewGormIndentRepository(db)
	ctx := context.Background()

	siteID := uuid.New()
	indent := newTestIndent(t, "IND-0001", siteID)

	require.NoError(t, repo.Save(ctx, indent))

	found, err := repo.FindByID(ctx, indent.ID)
	require.NoError(t, err)
	assert.Equal(t, indent.ID, found.ID)
	assert.Equal(t, "IND-0001", found.IndentNumber)
	assert.Equal(t, siteID, found.SiteID)
	require.Len(t, found.Lines, 1)
	assert.True(t, found.Lines[0].Quantity.Equal(decimal.NewFromInt(50)))
}

func TestGormIndentRepository_FindByID_NotFound(t *testing.T) {
	db := setupIndentTestDB(t)
	repo := NewGormIndentRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormIndentRepository_ExistsByNumber(t *testing.T) {
	db := setupIndentTestDB(t)
	repo := NewGormIndentRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, newTestIndent(t, "IND-0002", uuid.New())))

	exists, err := repo.ExistsByNumber(ctx, "IND-0002")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByNumber(ctx, "IND-9999")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGormIndentRepository_ListNumbers(t *testing.T) {
	db := setupIndentTestDB(t)
	repo := NewGormIndentRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, newTestIndent(t, "IND-0001", uuid.New())))
	require.NoError(t, repo.Save(ctx, newTestIndent(t, "IND-0002", uuid.New())))

	numbers, err := repo.ListNumbers(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"IND-0001", "IND-0002"}, numbers)
}

func TestGormIndentRepository_FindBySite(t *testing.T) {
	db := setupIndentTestDB(t)
	repo := NewGormIndentRepository(db)
	ctx := context.Background()

	siteID := uuid.New()
	require.NoError(t, repo.Save(ctx, newTestIndent(t, "IND-0001", siteID)))
	require.NoError(t, repo.Save(ctx, newTestIndent(t, "IND-0002", siteID)))
	require.NoError(t, repo.Save(ctx, newTestIndent(t, "IND-0003", uuid.New())))

	page, err := repo.FindBySite(ctx, siteID, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 1, page.TotalPages)

	filter := shared.DefaultFilter()
	filter.PageSize = 1
	filter.Page = 2
	page, err = repo.FindBySite(ctx, siteID, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.TotalPages)
}

func TestGormIndentRepository_Delete(t *testing.T) {
	db := setupIndentTestDB(t)
	repo := NewGormIndentRepository(db)
	ctx := context.Background()

	indent := newTestIndent(t, "IND-0001", uuid.New())
	require.NoError(t, repo.Save(ctx, indent))

	require.NoError(t, repo.Delete(ctx, indent.ID))

	_, err := repo.FindByID(ctx, indent.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	var lineCount int64
	require.NoError(t, db.Model(&procurement.IndentLine{}).Count(&lineCount).Error)
	assert.Equal(t, int64(0), lineCount)

	assert.ErrorIs(t, repo.Delete(ctx, uuid.New()), shared.ErrNotFound)
}
