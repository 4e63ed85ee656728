package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/siteworks/backend/internal/domain/procurement"
	"github.com/siteworks/backend/internal/domain/shared"
)

// GormChallanRepository implements ChallanRepository using GORM
type GormChallanRepository struct {
	db *gorm.DB
}

// NewGormChallanRepository creates a new GormChallanRepository
func NewGormChallanRepository(db *gorm.DB) *GormChallanRepository {
	return &GormChallanRepository{db: db}
}

// FindByID finds a delivery challan by its ID with lines and batch splits preloaded
func (r *GormChallanRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.DeliveryChallan, error) {
	var challan procurement.DeliveryChallan
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Lines.Batches").
		First(&challan, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &challan, nil
}

// FindBySite returns a page of delivery challans for a site
func (r *GormChallanRepository) FindBySite(ctx context.Context, siteID uuid.UUID, filter shared.Filter) (*shared.Paginated[procurement.DeliveryChallan], error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&procurement.DeliveryChallan{}).
		Where("site_id = ?", siteID).
		Count(&total).Error; err != nil {
		return nil, err
	}

	var challans []procurement.DeliveryChallan
	query := applyListFilter(
		r.db.WithContext(ctx).
			Preload("Lines").
			Preload("Lines.Batches").
			Where("site_id = ?", siteID),
		filter,
	)
	if err := query.Find(&challans).Error; err != nil {
		return nil, err
	}

	page, pageSize := pageOf(filter)
	result := shared.NewPaginated(challans, total, page, pageSize)
	return &result, nil
}

// FindByOrder returns all delivery challans recorded against a purchase order
func (r *GormChallanRepository) FindByOrder(ctx context.Context, purchaseOrderID uuid.UUID) ([]procurement.DeliveryChallan, error) {
	var challans []procurement.DeliveryChallan
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Lines.Batches").
		Where("purchase_order_id = ?", purchaseOrderID).
		Order("challan_date ASC").
		Find(&challans).Error; err != nil {
		return nil, err
	}
	return challans, nil
}

// ListNumbersBySite returns all challan numbers already used at a site
func (r *GormChallanRepository) ListNumbersBySite(ctx context.Context, siteID uuid.UUID) ([]string, error) {
	var numbers []string
	if err := r.db.WithContext(ctx).Model(&procurement.DeliveryChallan{}).
		Where("site_id = ?", siteID).
		Pluck("challan_number", &numbers).Error; err != nil {
		return nil, err
	}
	return numbers, nil
}

// ExistsByNumber checks if a challan number is already taken at a site
func (r *GormChallanRepository) ExistsByNumber(ctx context.Context, siteID uuid.UUID, challanNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&procurement.DeliveryChallan{}).
		Where("site_id = ? AND challan_number = ?", siteID, challanNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a delivery challan with its lines and batch splits
func (r *GormChallanRepository) Save(ctx context.Context, challan *procurement.DeliveryChallan) error {
	return r.db.WithContext(ctx).Save(challan).Error
}

// DeleteLines removes the challan's line and batch rows ahead of a
// reconciliation re-apply
func (r *GormChallanRepository) DeleteLines(ctx context.Context, challanID uuid.UUID) error {
	lineIDs := r.db.Model(&procurement.ChallanLine{}).
		Select("id").
		Where("challan_id = ?", challanID)
	if err := r.db.WithContext(ctx).
		Where("line_id IN (?)", lineIDs).
		Delete(&procurement.ChallanLineBatch{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Delete(&procurement.ChallanLine{}, "challan_id = ?", challanID).Error
}

// Delete deletes a delivery challan after its lines have been removed
func (r *GormChallanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.DeleteLines(ctx, id); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&procurement.DeliveryChallan{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SumLineQuantities folds challan line quantities per item across a site
func (r *GormChallanRepository) SumLineQuantities(ctx context.Context, siteID uuid.UUID, itemIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	totals := make(map[uuid.UUID]decimal.Decimal, len(itemIDs))
	if len(itemIDs) == 0 {
		return totals, nil
	}

	var rows []struct {
		ItemID uuid.UUID
		Total  decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&procurement.ChallanLine{}).
		Select("challan_lines.item_id as item_id, COALESCE(SUM(challan_lines.receiving_qty), 0) as total").
		Joins("JOIN delivery_challans ON delivery_challans.id = challan_lines.challan_id").
		Where("delivery_challans.site_id = ? AND challan_lines.item_id IN ?", siteID, itemIDs).
		Group("challan_lines.item_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		totals[row.ItemID] = row.Total
	}
	return totals, nil
}

var _ procurement.ChallanRepository = (*GormChallanRepository)(nil)
