package persistence

import (
	"strings"

	"gorm.io/gorm"

	"github.com/siteworks/backend/internal/domain/shared"
)

// orderableColumns whitelists the columns list endpoints may sort by,
// preventing injection through the order_by query parameter.
var orderableColumns = map[string]bool{
	"created_at":     true,
	"updated_at":     true,
	"indent_number":  true,
	"order_number":   true,
	"challan_number": true,
	"voucher_number": true,
	"indent_date":    true,
	"order_date":     true,
	"challan_date":   true,
	"voucher_date":   true,
	"status":         true,
	"total_amount":   true,
	"amount":         true,
}

// applyListFilter applies ordering and pagination from a filter
func applyListFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	orderBy := "created_at"
	if filter.OrderBy != "" && orderableColumns[filter.OrderBy] {
		orderBy = filter.OrderBy
	}
	orderDir := "DESC"
	if strings.ToLower(filter.OrderDir) == "asc" {
		orderDir = "ASC"
	}
	query = query.Order(orderBy + " " + orderDir)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	return query
}

// pageOf normalizes the page and page size used to build the paginated result
func pageOf(filter shared.Filter) (int, int) {
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	return page, pageSize
}
