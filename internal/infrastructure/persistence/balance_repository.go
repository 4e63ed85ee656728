package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/siteworks/backend/internal/domain/inventory"
	"github.com/siteworks/backend/internal/domain/shared"
)

// GormBalanceRepository implements BalanceRepository using GORM
type GormBalanceRepository struct {
	db *gorm.DB
}

// NewGormBalanceRepository creates a new GormBalanceRepository
func NewGormBalanceRepository(db *gorm.DB) *GormBalanceRepository {
	return &GormBalanceRepository{db: db}
}

// Find returns the balance row for a site-item
func (r *GormBalanceRepository) Find(ctx context.Context, siteID, itemID uuid.UUID) (*inventory.SiteItemBalance, error) {
	var balance inventory.SiteItemBalance
	if err := r.db.WithContext(ctx).
		Where("site_id = ? AND item_id = ?", siteID, itemID).
		First(&balance).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &balance, nil
}

// FindForUpdate returns the balance row with a row-level lock
func (r *GormBalanceRepository) FindForUpdate(ctx context.Context, siteID, itemID uuid.UUID) (*inventory.SiteItemBalance, error) {
	var balance inventory.SiteItemBalance
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("site_id = ? AND item_id = ?", siteID, itemID).
		First(&balance).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &balance, nil
}

// FindByItems returns balance rows for a site restricted to the given items
func (r *GormBalanceRepository) FindByItems(ctx context.Context, siteID uuid.UUID, itemIDs []uuid.UUID) ([]inventory.SiteItemBalance, error) {
	if len(itemIDs) == 0 {
		return []inventory.SiteItemBalance{}, nil
	}
	var balances []inventory.SiteItemBalance
	if err := r.db.WithContext(ctx).
		Where("site_id = ? AND item_id IN ?", siteID, itemIDs).
		Find(&balances).Error; err != nil {
		return nil, err
	}
	return balances, nil
}

// Save inserts or updates a balance row
func (r *GormBalanceRepository) Save(ctx context.Context, balance *inventory.SiteItemBalance) error {
	return r.db.WithContext(ctx).Save(balance).Error
}

// FindBatch returns the batch balance row for a site-item batch
func (r *GormBalanceRepository) FindBatch(ctx context.Context, siteID, itemID uuid.UUID, batchNumber string) (*inventory.SiteItemBatchBalance, error) {
	var balance inventory.SiteItemBatchBalance
	if err := r.db.WithContext(ctx).
		Where("site_id = ? AND item_id = ? AND batch_number = ?", siteID, itemID, batchNumber).
		First(&balance).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &balance, nil
}

// FindBatchForUpdate returns the batch balance row with a row-level lock
func (r *GormBalanceRepository) FindBatchForUpdate(ctx context.Context, siteID, itemID uuid.UUID, batchNumber string) (*inventory.SiteItemBatchBalance, error) {
	var balance inventory.SiteItemBatchBalance
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("site_id = ? AND item_id = ? AND batch_number = ?", siteID, itemID, batchNumber).
		First(&balance).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &balance, nil
}

// FindBatchesByItem returns all batch balance rows for a site-item
func (r *GormBalanceRepository) FindBatchesByItem(ctx context.Context, siteID, itemID uuid.UUID) ([]inventory.SiteItemBatchBalance, error) {
	var balances []inventory.SiteItemBatchBalance
	if err := r.db.WithContext(ctx).
		Where("site_id = ? AND item_id = ?", siteID, itemID).
		Order("batch_number ASC").
		Find(&balances).Error; err != nil {
		return nil, err
	}
	return balances, nil
}

// SaveBatch inserts or updates a batch balance row
func (r *GormBalanceRepository) SaveBatch(ctx context.Context, balance *inventory.SiteItemBatchBalance) error {
	return r.db.WithContext(ctx).Save(balance).Error
}

var _ inventory.BalanceRepository = (*GormBalanceRepository)(nil)
