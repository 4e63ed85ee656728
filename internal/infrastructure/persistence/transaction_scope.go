package persistence

import (
	"context"

	"gorm.io/gorm"

	appcashbook "github.com/siteworks/backend/internal/application/cashbook"
	appprocurement "github.com/siteworks/backend/internal/application/procurement"
	"github.com/siteworks/backend/internal/domain/cashbook"
	"github.com/siteworks/backend/internal/domain/inventory"
	"github.com/siteworks/backend/internal/domain/procurement"
)

// GormProcurementTransactionScope implements the procurement transaction
// scope using GORM transactions
type GormProcurementTransactionScope struct {
	db *gorm.DB
}

// NewGormProcurementTransactionScope creates a transaction scope backed by the given database
func NewGormProcurementTransactionScope(db *gorm.DB) *GormProcurementTransactionScope {
	return &GormProcurementTransactionScope{db: db}
}

// Execute runs the given function within a database transaction
func (s *GormProcurementTransactionScope) Execute(ctx context.Context, fn func(repos appprocurement.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormProcurementRepositories{tx: tx})
	})
}

// gormProcurementRepositories provides repositories bound to a transaction
type gormProcurementRepositories struct {
	tx *gorm.DB
}

func (r *gormProcurementRepositories) IndentRepo() procurement.IndentRepository {
	return NewGormIndentRepository(r.tx)
}

func (r *gormProcurementRepositories) OrderRepo() procurement.PurchaseOrderRepository {
	return NewGormPurchaseOrderRepository(r.tx)
}

func (r *gormProcurementRepositories) ChallanRepo() procurement.ChallanRepository {
	return NewGormChallanRepository(r.tx)
}

func (r *gormProcurementRepositories) BalanceRepo() inventory.BalanceRepository {
	return NewGormBalanceRepository(r.tx)
}

// GormCashbookTransactionScope implements the cashbook transaction scope
// using GORM transactions
type GormCashbookTransactionScope struct {
	db *gorm.DB
}

// NewGormCashbookTransactionScope creates a transaction scope backed by the given database
func NewGormCashbookTransactionScope(db *gorm.DB) *GormCashbookTransactionScope {
	return &GormCashbookTransactionScope{db: db}
}

// Execute runs the given function within a database transaction
func (s *GormCashbookTransactionScope) Execute(ctx context.Context, fn func(repos appcashbook.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormCashbookRepositories{tx: tx})
	})
}

// gormCashbookRepositories provides repositories bound to a transaction
type gormCashbookRepositories struct {
	tx *gorm.DB
}

func (r *gormCashbookRepositories) VoucherRepo() cashbook.VoucherRepository {
	return NewGormVoucherRepository(r.tx)
}

func (r *gormCashbookRepositories) ChallanRepo() procurement.ChallanRepository {
	return NewGormChallanRepository(r.tx)
}

var _ appprocurement.TransactionScope = (*GormProcurementTransactionScope)(nil)
var _ appprocurement.TransactionalRepositories = (*gormProcurementRepositories)(nil)
var _ appcashbook.TransactionScope = (*GormCashbookTransactionScope)(nil)
var _ appcashbook.TransactionalRepositories = (*gormCashbookRepositories)(nil)
