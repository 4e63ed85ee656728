package inventory

import (
	"context"

	"github.com/google/uuid"
)

// BalanceRepository persists site-item running balances.
// FindForUpdate variants take row locks so concurrent receipts against the
// same item serialize inside the enclosing transaction.
type BalanceRepository interface {
	// Find returns the balance row for a site-item, or shared.ErrNotFound
	Find(ctx context.Context, siteID, itemID uuid.UUID) (*SiteItemBalance, error)
	// FindForUpdate returns the balance row with a row-level lock
	FindForUpdate(ctx context.Context, siteID, itemID uuid.UUID) (*SiteItemBalance, error)
	// FindByItems returns balance rows for a site restricted to the given items
	FindByItems(ctx context.Context, siteID uuid.UUID, itemIDs []uuid.UUID) ([]SiteItemBalance, error)
	// Save inserts or updates a balance row
	Save(ctx context.Context, balance *SiteItemBalance) error

	// FindBatch returns the batch balance row, or shared.ErrNotFound
	FindBatch(ctx context.Context, siteID, itemID uuid.UUID, batchNumber string) (*SiteItemBatchBalance, error)
	// FindBatchForUpdate returns the batch balance row with a row-level lock
	FindBatchForUpdate(ctx context.Context, siteID, itemID uuid.UUID, batchNumber string) (*SiteItemBatchBalance, error)
	// FindBatchesByItem returns all batch balance rows for a site-item
	FindBatchesByItem(ctx context.Context, siteID, itemID uuid.UUID) ([]SiteItemBatchBalance, error)
	// SaveBatch inserts or updates a batch balance row
	SaveBatch(ctx context.Context, balance *SiteItemBatchBalance) error
}
