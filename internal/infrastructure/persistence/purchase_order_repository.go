package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/siteworks/backend/internal/domain/procurement"
	"github.com/siteworks/backend/internal/domain/shared"
)

// GormPurchaseOrderRepository implements PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// FindByID finds a purchase order by its ID with lines preloaded
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.PurchaseOrder, error) {
	var order procurement.PurchaseOrder
	if err := r.db.WithContext(ctx).Preload("Lines").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByIDForUpdate locks the order header row for the enclosing transaction
// so concurrent goods receipts against the same order serialize
func (r *GormPurchaseOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*procurement.PurchaseOrder, error) {
	var order procurement.PurchaseOrder
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Lines").
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindBySite returns a page of purchase orders for a site
func (r *GormPurchaseOrderRepository) FindBySite(ctx context.Context, siteID uuid.UUID, filter shared.Filter) (*shared.Paginated[procurement.PurchaseOrder], error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&procurement.PurchaseOrder{}).
		Where("site_id = ?", siteID).
		Count(&total).Error; err != nil {
		return nil, err
	}

	var orders []procurement.PurchaseOrder
	query := applyListFilter(
		r.db.WithContext(ctx).Preload("Lines").Where("site_id = ?", siteID),
		filter,
	)
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}

	page, pageSize := pageOf(filter)
	result := shared.NewPaginated(orders, total, page, pageSize)
	return &result, nil
}

// ListNumbers returns all order numbers already issued
func (r *GormPurchaseOrderRepository) ListNumbers(ctx context.Context) ([]string, error) {
	var numbers []string
	if err := r.db.WithContext(ctx).Model(&procurement.PurchaseOrder{}).
		Pluck("order_number", &numbers).Error; err != nil {
		return nil, err
	}
	return numbers, nil
}

// ExistsByNumber checks if an order number is already taken
func (r *GormPurchaseOrderRepository) ExistsByNumber(ctx context.Context, orderNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&procurement.PurchaseOrder{}).
		Where("order_number = ?", orderNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a purchase order and its lines
func (r *GormPurchaseOrderRepository) Save(ctx context.Context, order *procurement.PurchaseOrder) error {
	return r.db.WithContext(ctx).Save(order).Error
}

// Delete deletes a purchase order and its lines
func (r *GormPurchaseOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Delete(&procurement.PurchaseOrderLine{}, "order_id = ?", id).Error; err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&procurement.PurchaseOrder{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ procurement.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
