package cashbook

import (
	"context"

	"github.com/siteworks/backend/internal/domain/cashbook"
	"github.com/siteworks/backend/internal/domain/procurement"
)

// TransactionScope provides transactional access to cashbook repositories.
// Voucher approval and the linked challan's payment recompute must commit
// atomically.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories a voucher operation
// touches within one transaction
type TransactionalRepositories interface {
	// VoucherRepo returns the voucher repository scoped to the current transaction
	VoucherRepo() cashbook.VoucherRepository
	// ChallanRepo returns the challan repository scoped to the current transaction
	ChallanRepo() procurement.ChallanRepository
}

// NoOpTransactionScope is a transaction scope without real transactions,
// for tests
type NoOpTransactionScope struct {
	voucherRepo cashbook.VoucherRepository
	challanRepo procurement.ChallanRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(voucherRepo cashbook.VoucherRepository, challanRepo procurement.ChallanRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		voucherRepo: voucherRepo,
		challanRepo: challanRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// VoucherRepo returns the voucher repository.
func (s *NoOpTransactionScope) VoucherRepo() cashbook.VoucherRepository { return s.voucherRepo }

// ChallanRepo returns the challan repository.
func (s *NoOpTransactionScope) ChallanRepo() procurement.ChallanRepository { return s.challanRepo }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
