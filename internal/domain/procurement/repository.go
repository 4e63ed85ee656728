package procurement

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/siteworks/backend/internal/domain/shared"
)

// IndentRepository persists material indents
type IndentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Indent, error)
	FindBySite(ctx context.Context, siteID uuid.UUID, filter shared.Filter) (*shared.Paginated[Indent], error)
	// ListNumbers returns all indent numbers already issued, legacy formats included
	ListNumbers(ctx context.Context) ([]string, error)
	ExistsByNumber(ctx context.Context, indentNumber string) (bool, error)
	Save(ctx context.Context, indent *Indent) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PurchaseOrderRepository persists purchase orders
type PurchaseOrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)
	// FindByIDForUpdate locks the order header so concurrent receipts against
	// the same order serialize inside the enclosing transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)
	FindBySite(ctx context.Context, siteID uuid.UUID, filter shared.Filter) (*shared.Paginated[PurchaseOrder], error)
	// ListNumbers returns all order numbers already issued, legacy formats included
	ListNumbers(ctx context.Context) ([]string, error)
	ExistsByNumber(ctx context.Context, orderNumber string) (bool, error)
	Save(ctx context.Context, order *PurchaseOrder) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ChallanRepository persists delivery challans
type ChallanRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*DeliveryChallan, error)
	FindBySite(ctx context.Context, siteID uuid.UUID, filter shared.Filter) (*shared.Paginated[DeliveryChallan], error)
	FindByOrder(ctx context.Context, purchaseOrderID uuid.UUID) ([]DeliveryChallan, error)
	// ListNumbersBySite returns all challan numbers already used at a site,
	// legacy formats included
	ListNumbersBySite(ctx context.Context, siteID uuid.UUID) ([]string, error)
	ExistsByNumber(ctx context.Context, siteID uuid.UUID, challanNumber string) (bool, error)
	Save(ctx context.Context, challan *DeliveryChallan) error
	// DeleteLines removes the challan's line and batch rows ahead of a
	// reconciliation re-apply
	DeleteLines(ctx context.Context, challanID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	// SumLineQuantities folds challan line quantities per item across a site,
	// the derived counterpart of the stored balance rows
	SumLineQuantities(ctx context.Context, siteID uuid.UUID, itemIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
}
