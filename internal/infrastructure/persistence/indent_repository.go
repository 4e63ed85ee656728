package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/siteworks/backend/internal/domain/procurement"
	"github.com/siteworks/backend/internal/domain/shared"
)

// GormIndentRepository implements IndentRepository using GORM
type GormIndentRepository struct {
	db *gorm.DB
}

// NewGormIndentRepository creates a new GormIndentRepository
func NewGormIndentRepository(db *gorm.DB) *GormIndentRepository {
	return &GormIndentRepository{db: db}
}

// FindByID finds an indent by its ID with lines preloaded
func (r *GormIndentRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.Indent, error) {
	var indent procurement.Indent
	if err := r.db.WithContext(ctx).Preload("Lines").First(&indent, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &indent, nil
}

// FindBySite returns a page of indents for a site
func (r *GormIndentRepository) FindBySite(ctx context.Context, siteID uuid.UUID, filter shared.Filter) (*shared.Paginated[procurement.Indent], error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&procurement.Indent{}).
		Where("site_id = ?", siteID).
		Count(&total).Error; err != nil {
		return nil, err
	}

	var indents []procurement.Indent
	query := applyListFilter(
		r.db.WithContext(ctx).Preload("Lines").Where("site_id = ?", siteID),
		filter,
	)
	if err := query.Find(&indents).Error; err != nil {
		return nil, err
	}

	page, pageSize := pageOf(filter)
	result := shared.NewPaginated(indents, total, page, pageSize)
	return &result, nil
}

// ListNumbers returns all indent numbers already issued
func (r *GormIndentRepository) ListNumbers(ctx context.Context) ([]string, error) {
	var numbers []string
	if err := r.db.WithContext(ctx).Model(&procurement.Indent{}).
		Pluck("indent_number", &numbers).Error; err != nil {
		return nil, err
	}
	return numbers, nil
}

// ExistsByNumber checks if an indent number is already taken
func (r *GormIndentRepository) ExistsByNumber(ctx context.Context, indentNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&procurement.Indent{}).
		Where("indent_number = ?", indentNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates an indent and its lines
func (r *GormIndentRepository) Save(ctx context.Context, indent *procurement.Indent) error {
	return r.db.WithContext(ctx).Save(indent).Error
}

// Delete deletes an indent and its lines
func (r *GormIndentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Delete(&procurement.IndentLine{}, "indent_id = ?", id).Error; err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&procurement.Indent{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ procurement.IndentRepository = (*GormIndentRepository)(nil)
