package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/siteworks/backend/internal/domain/approval"
	"github.com/siteworks/backend/internal/domain/cashbook"
	"github.com/siteworks/backend/internal/domain/shared"
)

// GormVoucherRepository implements VoucherRepository using GORM
type GormVoucherRepository struct {
	db *gorm.DB
}

// NewGormVoucherRepository creates a new GormVoucherRepository
func NewGormVoucherRepository(db *gorm.DB) *GormVoucherRepository {
	return &GormVoucherRepository{db: db}
}

// FindByID finds a cash voucher by its ID
func (r *GormVoucherRepository) FindByID(ctx context.Context, id uuid.UUID) (*cashbook.CashVoucher, error) {
	var voucher cashbook.CashVoucher
	if err := r.db.WithContext(ctx).First(&voucher, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &voucher, nil
}

// FindBySite returns a page of cash vouchers for a site
func (r *GormVoucherRepository) FindBySite(ctx context.Context, siteID uuid.UUID, filter shared.Filter) (*shared.Paginated[cashbook.CashVoucher], error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&cashbook.CashVoucher{}).
		Where("site_id = ?", siteID).
		Count(&total).Error; err != nil {
		return nil, err
	}

	var vouchers []cashbook.CashVoucher
	query := applyListFilter(
		r.db.WithContext(ctx).Where("site_id = ?", siteID),
		filter,
	)
	if err := query.Find(&vouchers).Error; err != nil {
		return nil, err
	}

	page, pageSize := pageOf(filter)
	result := shared.NewPaginated(vouchers, total, page, pageSize)
	return &result, nil
}

// SumApprovedByChallan totals approved payment voucher amounts against a
// challan. Suspended vouchers carry the SUSPENDED status so the status
// filter alone excludes them.
func (r *GormVoucherRepository) SumApprovedByChallan(ctx context.Context, challanID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&cashbook.CashVoucher{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("challan_id = ? AND voucher_type = ? AND status = ?",
			challanID, cashbook.VoucherTypePayment, approval.StatusApprovedLevel1).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// ExistsByNumber checks if a voucher number is already taken
func (r *GormVoucherRepository) ExistsByNumber(ctx context.Context, voucherNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&cashbook.CashVoucher{}).
		Where("voucher_number = ?", voucherNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a cash voucher
func (r *GormVoucherRepository) Save(ctx context.Context, voucher *cashbook.CashVoucher) error {
	return r.db.WithContext(ctx).Save(voucher).Error
}

// Delete deletes a cash voucher
func (r *GormVoucherRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&cashbook.CashVoucher{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ cashbook.VoucherRepository = (*GormVoucherRepository)(nil)
