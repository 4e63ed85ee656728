package procurement

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/siteworks/backend/internal/domain/approval"
	"github.com/siteworks/backend/internal/domain/docnum"
	"github.com/siteworks/backend/internal/domain/procurement"
	"github.com/siteworks/backend/internal/domain/shared"
)

// EscalationPolicy decides when a level-1 approval on a purchase order is
// escalated to level 2 in the same transaction
type EscalationPolicy struct {
	// AutoEscalateBelow escalates orders whose total amount is under this
	// threshold; zero disables the threshold
	AutoEscalateBelow decimal.Decimal
	// ElevatedCapability escalates regardless of amount when the approver
	// holds this capability together with the level-2 capability
	ElevatedCapability string
}

// ShouldEscalate reports whether a just-approved order qualifies for
// automatic level-2 approval by the same actor
func (p EscalationPolicy) ShouldEscalate(order *procurement.PurchaseOrder, actorID uuid.UUID, checker approval.CapabilityChecker) bool {
	if p.AutoEscalateBelow.IsPositive() && order.TotalAmount.LessThan(p.AutoEscalateBelow) {
		return true
	}
	if p.ElevatedCapability == "" || checker == nil {
		return false
	}
	return checker.HasCapability(actorID, p.ElevatedCapability) &&
		checker.HasCapability(actorID, procurement.PurchaseOrderCapabilities.Approve2)
}

// PurchaseOrderService handles purchase order operations
type PurchaseOrderService struct {
	scope      TransactionScope
	checker    approval.CapabilityChecker
	escalation EscalationPolicy
	logger     *zap.Logger
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(scope TransactionScope, checker approval.CapabilityChecker, escalation EscalationPolicy, logger *zap.Logger) *PurchaseOrderService {
	return &PurchaseOrderService{
		scope:      scope,
		checker:    checker,
		escalation: escalation,
		logger:     logger,
	}
}

// Create creates a new purchase order in draft. When raised from an indent,
// the indent must have cleared both approval levels.
func (s *PurchaseOrderService) Create(ctx context.Context, actorID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error) {
	if len(req.Lines) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Purchase order needs at least one line")
	}

	var response OrderResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if req.IndentID != nil {
			indent, err := repos.IndentRepo().FindByID(ctx, *req.IndentID)
			if err != nil {
				return err
			}
			if !indent.IsActionable() {
				return shared.NewDomainError("INVALID_STATE", "Indent is not fully approved")
			}
		}

		number, err := nextOrderNumber(ctx, repos.OrderRepo())
		if err != nil {
			return err
		}

		order, err := procurement.NewPurchaseOrder(number, req.SiteID, req.VendorID, actorID, req.OrderDate)
		if err != nil {
			return err
		}
		order.IndentID = req.IndentID
		order.Remark = req.Remark

		for _, line := range req.Lines {
			if _, err := order.AddLine(line.ItemID, line.Quantity, line.Rate, line.Remark); err != nil {
				return err
			}
		}

		if err := repos.OrderRepo().Save(ctx, order); err != nil {
			return err
		}
		response = ToOrderResponse(order)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase order created",
		zap.String("order_number", response.OrderNumber),
		zap.String("site_id", req.SiteID.String()),
		zap.String("total_amount", response.TotalAmount.String()))
	return &response, nil
}

// GetByID retrieves a purchase order by ID
func (s *PurchaseOrderService) GetByID(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	var response OrderResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.OrderRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		response = ToOrderResponse(order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// List retrieves purchase orders for a site with pagination
func (s *PurchaseOrderService) List(ctx context.Context, siteID uuid.UUID, filter shared.Filter) (*shared.Paginated[OrderResponse], error) {
	var page *shared.Paginated[procurement.PurchaseOrder]
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		page, err = repos.OrderRepo().FindBySite(ctx, siteID, filter)
		return err
	})
	if err != nil {
		return nil, err
	}

	items := make([]OrderResponse, 0, len(page.Items))
	for idx := range page.Items {
		items = append(items, ToOrderResponse(&page.Items[idx]))
	}
	result := shared.NewPaginated(items, page.Total, page.Page, page.PageSize)
	return &result, nil
}

// Act applies a status action and any submitted line edits in one
// transaction. A successful approve1 is escalated to level 2 in the same
// transaction when the escalation policy allows it.
func (s *PurchaseOrderService) Act(ctx context.Context, actorID, orderID uuid.UUID, req StatusActionRequest) (*OrderResponse, error) {
	action := approval.Action(req.StatusAction)

	var response OrderResponse
	var escalated bool
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.OrderRepo().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := order.Act(action, actorID, s.checker, toLineEdits(req.LineEdits)); err != nil {
			return err
		}

		escalated = false
		if action == approval.ActionApprove1 && s.escalation.ShouldEscalate(order, actorID, s.checker) {
			if err := order.AutoEscalate(actorID); err != nil {
				return err
			}
			escalated = true
		}

		if err := repos.OrderRepo().Save(ctx, order); err != nil {
			return err
		}
		response = ToOrderResponse(order)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase order action applied",
		zap.String("order_id", orderID.String()),
		zap.String("action", req.StatusAction),
		zap.String("status", response.Approval.Status),
		zap.Bool("auto_escalated", escalated))
	return &response, nil
}

// Delete removes a draft purchase order
func (s *PurchaseOrderService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.OrderRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if order.Approval.Status != approval.StatusDraft {
			return shared.NewDomainError("INVALID_STATE", "Only draft orders can be deleted")
		}
		return repos.OrderRepo().Delete(ctx, id)
	})
}

// nextOrderNumber generates the next order number, backstopped by the unique
// index and a bounded exists-probe retry
func nextOrderNumber(ctx context.Context, repo procurement.PurchaseOrderRepository) (string, error) {
	numbers, err := repo.ListNumbers(ctx)
	if err != nil {
		return "", err
	}
	candidate := docnum.Next(numbers)
	for attempt := 0; attempt < numberRetries; attempt++ {
		exists, err := repo.ExistsByNumber(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		if candidate, err = docnum.Increment(candidate); err != nil {
			return "", err
		}
	}
	return "", shared.ErrConcurrencyConflict
}
