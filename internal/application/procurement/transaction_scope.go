package procurement

import (
	"context"

	"github.com/siteworks/backend/internal/domain/inventory"
	"github.com/siteworks/backend/internal/domain/procurement"
)

// TransactionScope provides transactional access to procurement repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories a receipt
// reconciliation touches. All repositories returned share the same underlying
// database transaction: a challan's lines, the purchase order's received
// quantities, and the site balance rows must never commit separately.
type TransactionalRepositories interface {
	// IndentRepo returns the indent repository scoped to the current transaction
	IndentRepo() procurement.IndentRepository
	// OrderRepo returns the purchase order repository scoped to the current transaction
	OrderRepo() procurement.PurchaseOrderRepository
	// ChallanRepo returns the challan repository scoped to the current transaction
	ChallanRepo() procurement.ChallanRepository
	// BalanceRepo returns the balance repository scoped to the current transaction
	BalanceRepo() inventory.BalanceRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for tests.
type NoOpTransactionScope struct {
	indentRepo  procurement.IndentRepository
	orderRepo   procurement.PurchaseOrderRepository
	challanRepo procurement.ChallanRepository
	balanceRepo inventory.BalanceRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	indentRepo procurement.IndentRepository,
	orderRepo procurement.PurchaseOrderRepository,
	challanRepo procurement.ChallanRepository,
	balanceRepo inventory.BalanceRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		indentRepo:  indentRepo,
		orderRepo:   orderRepo,
		challanRepo: challanRepo,
		balanceRepo: balanceRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// IndentRepo returns the indent repository.
func (s *NoOpTransactionScope) IndentRepo() procurement.IndentRepository { return s.indentRepo }

// OrderRepo returns the purchase order repository.
func (s *NoOpTransactionScope) OrderRepo() procurement.PurchaseOrderRepository { return s.orderRepo }

// ChallanRepo returns the challan repository.
func (s *NoOpTransactionScope) ChallanRepo() procurement.ChallanRepository { return s.challanRepo }

// BalanceRepo returns the balance repository.
func (s *NoOpTransactionScope) BalanceRepo() inventory.BalanceRepository { return s.balanceRepo }

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
