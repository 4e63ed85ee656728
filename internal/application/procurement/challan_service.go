package procurement

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/siteworks/backend/internal/domain/docnum"
	"github.com/siteworks/backend/internal/domain/inventory"
	"github.com/siteworks/backend/internal/domain/procurement"
	"github.com/siteworks/backend/internal/domain/shared"
)

// ChallanService is the receipt reconciliation engine. Every mutation runs
// the full sequence inside one transaction: challan lines, purchase order
// received quantities, and site balance rows commit or roll back together.
type ChallanService struct {
	scope  TransactionScope
	logger *zap.Logger
}

// NewChallanService creates a new ChallanService
func NewChallanService(scope TransactionScope, logger *zap.Logger) *ChallanService {
	return &ChallanService{
		scope:  scope,
		logger: logger,
	}
}

// Create validates the incoming lines against remaining orderable
// quantities, persists the challan, increments purchase order received
// quantities and applies the receipt to the site balances
func (s *ChallanService) Create(ctx context.Context, actorID uuid.UUID, req CreateChallanRequest) (*ChallanResponse, error) {
	var response ChallanResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.OrderRepo().FindByIDForUpdate(ctx, req.PurchaseOrderID)
		if err != nil {
			return err
		}
		if !order.CanReceiveGoods() {
			return shared.NewDomainError("INVALID_STATE", "Purchase order is not approved for receiving")
		}

		number, err := nextChallanNumber(ctx, repos.ChallanRepo(), req.SiteID)
		if err != nil {
			return err
		}

		challan, err := procurement.NewDeliveryChallan(number, req.SiteID, req.VendorID, req.PurchaseOrderID, actorID, req.ChallanDate)
		if err != nil {
			return err
		}
		challan.Remark = req.Remark

		lines, err := buildChallanLines(challan.ID, order, req.Lines)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return shared.NewDomainError("INVALID_INPUT", "Challan needs at least one line with a positive quantity")
		}
		challan.SetLines(lines)

		if err := receiveOnOrder(order, challan); err != nil {
			return err
		}
		if err := repos.OrderRepo().Save(ctx, order); err != nil {
			return err
		}
		if err := s.applyBalances(ctx, repos, challan, 1); err != nil {
			return err
		}
		if err := repos.ChallanRepo().Save(ctx, challan); err != nil {
			return err
		}
		response = ToChallanResponse(challan)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("challan created",
		zap.String("challan_number", response.ChallanNumber),
		zap.String("site_id", req.SiteID.String()),
		zap.String("purchase_order_id", req.PurchaseOrderID.String()))
	return &response, nil
}

// Update replaces a challan's lines. The previous version's effect is fully
// reversed before the new version is validated and applied, so the ledger
// reflects only the submitted state; batch reversals run before anything new
// lands because a line may keep the same batch number with a different
// quantity.
func (s *ChallanService) Update(ctx context.Context, challanID uuid.UUID, req UpdateChallanRequest) (*ChallanResponse, error) {
	var response ChallanResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		challan, err := repos.ChallanRepo().FindByID(ctx, challanID)
		if err != nil {
			return err
		}
		order, err := repos.OrderRepo().FindByIDForUpdate(ctx, challan.PurchaseOrderID)
		if err != nil {
			return err
		}

		// reverse the persisted version
		if err := s.applyBalances(ctx, repos, challan, -1); err != nil {
			return err
		}
		if err := repos.ChallanRepo().DeleteLines(ctx, challanID); err != nil {
			return err
		}
		unreceiveOnOrder(order, challan)

		// apply the submitted version
		if req.ChallanDate != nil {
			challan.ChallanDate = *req.ChallanDate
		}
		if req.Remark != nil {
			challan.Remark = *req.Remark
		}
		lines, err := buildChallanLines(challan.ID, order, req.Lines)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return shared.NewDomainError("INVALID_INPUT", "Challan needs at least one line with a positive quantity")
		}
		challan.SetLines(lines)

		if err := receiveOnOrder(order, challan); err != nil {
			return err
		}
		if err := repos.OrderRepo().Save(ctx, order); err != nil {
			return err
		}
		if err := s.applyBalances(ctx, repos, challan, 1); err != nil {
			return err
		}
		if err := repos.ChallanRepo().Save(ctx, challan); err != nil {
			return err
		}
		response = ToChallanResponse(challan)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("challan updated",
		zap.String("challan_id", challanID.String()),
		zap.String("challan_number", response.ChallanNumber))
	return &response, nil
}

// Delete removes a challan by reversing its full effect on the order and the
// site balances before deleting its rows
func (s *ChallanService) Delete(ctx context.Context, challanID uuid.UUID) error {
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		challan, err := repos.ChallanRepo().FindByID(ctx, challanID)
		if err != nil {
			return err
		}
		order, err := repos.OrderRepo().FindByIDForUpdate(ctx, challan.PurchaseOrderID)
		if err != nil {
			return err
		}

		if err := s.applyBalances(ctx, repos, challan, -1); err != nil {
			return err
		}
		if err := repos.ChallanRepo().DeleteLines(ctx, challanID); err != nil {
			return err
		}
		unreceiveOnOrder(order, challan)
		if err := repos.OrderRepo().Save(ctx, order); err != nil {
			return err
		}
		return repos.ChallanRepo().Delete(ctx, challanID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("challan deleted", zap.String("challan_id", challanID.String()))
	return nil
}

// GetByID retrieves a challan with the closing-stock projection for the
// items its lines reference
func (s *ChallanService) GetByID(ctx context.Context, challanID uuid.UUID) (*ChallanResponse, error) {
	var response ChallanResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		challan, err := repos.ChallanRepo().FindByID(ctx, challanID)
		if err != nil {
			return err
		}
		response = ToChallanResponse(challan)

		stock, err := closingStock(ctx, repos.BalanceRepo(), challan.SiteID, challan.ItemIDs())
		if err != nil {
			return err
		}
		response.ClosingStockByItemID = stock
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// List retrieves challans for a site with pagination
func (s *ChallanService) List(ctx context.Context, siteID uuid.UUID, filter shared.Filter) (*shared.Paginated[ChallanResponse], error) {
	var page *shared.Paginated[procurement.DeliveryChallan]
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		page, err = repos.ChallanRepo().FindBySite(ctx, siteID, filter)
		return err
	})
	if err != nil {
		return nil, err
	}

	items := make([]ChallanResponse, 0, len(page.Items))
	for idx := range page.Items {
		items = append(items, ToChallanResponse(&page.Items[idx]))
	}
	result := shared.NewPaginated(items, page.Total, page.Page, page.PageSize)
	return &result, nil
}

// UpdateBill records the vendor bill on a challan and recomputes its payment
// sub-status
func (s *ChallanService) UpdateBill(ctx context.Context, challanID uuid.UUID, req UpdateBillRequest) (*ChallanResponse, error) {
	var response ChallanResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		challan, err := repos.ChallanRepo().FindByID(ctx, challanID)
		if err != nil {
			return err
		}
		if err := challan.SetBill(req.BillNo, req.BillDate, req.BillAmount, req.DueDays); err != nil {
			return err
		}
		if err := repos.ChallanRepo().Save(ctx, challan); err != nil {
			return err
		}
		response = ToChallanResponse(challan)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// buildChallanLines converts incoming line requests into challan lines.
// Zero-quantity lines are dropped. Every line must reference an existing
// order line; the rate and amount come from that line's valuation.
func buildChallanLines(challanID uuid.UUID, order *procurement.PurchaseOrder, reqs []ChallanLineRequest) ([]procurement.ChallanLine, error) {
	lines := make([]procurement.ChallanLine, 0, len(reqs))
	for _, lr := range reqs {
		if lr.ReceivingQty.LessThanOrEqual(decimal.Zero) {
			continue
		}
		poLine := order.GetLine(lr.POLineID)
		if poLine == nil {
			return nil, shared.NewDomainError("NOT_FOUND", "Purchase order line "+lr.POLineID.String()+" not found")
		}
		splits := make([]procurement.BatchSplit, 0, len(lr.Batches))
		for _, br := range lr.Batches {
			splits = append(splits, procurement.BatchSplit{
				BatchNumber: br.BatchNumber,
				ExpiryMonth: br.ExpiryMonth,
				Qty:         br.ReceivingQty,
			})
		}
		line, err := procurement.NewChallanLine(challanID, poLine, lr.ReceivingQty, splits)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *line)
	}
	return lines, nil
}

// receiveOnOrder increments each referenced order line's received quantity
// by the challan's aggregated line quantities
func receiveOnOrder(order *procurement.PurchaseOrder, challan *procurement.DeliveryChallan) error {
	for poLineID, qty := range challan.LineQtyByPOLine() {
		line := order.GetLine(poLineID)
		if line == nil {
			return shared.NewDomainError("NOT_FOUND", "Purchase order line "+poLineID.String()+" not found")
		}
		if err := line.AddReceived(qty); err != nil {
			return err
		}
	}
	return nil
}

// unreceiveOnOrder reverses the challan's contribution to each referenced
// order line's received quantity
func unreceiveOnOrder(order *procurement.PurchaseOrder, challan *procurement.DeliveryChallan) {
	for poLineID, qty := range challan.LineQtyByPOLine() {
		if line := order.GetLine(poLineID); line != nil {
			line.RemoveReceived(qty)
		}
	}
}

// applyBalances applies the challan's lines to the site balance rows with
// the given sign. Expiry-tracked lines (those carrying batch splits) mutate
// batch balance rows; all other lines mutate the item balance row. Batch
// rows are processed before item rows so reversals always undo batches
// first. Reversal of a row that no longer exists is skipped; the row's
// ApplyDelta clamps at zero.
func (s *ChallanService) applyBalances(ctx context.Context, repos TransactionalRepositories, challan *procurement.DeliveryChallan, sign int64) error {
	factor := decimal.NewFromInt(sign)
	balances := repos.BalanceRepo()

	for lineIdx := range challan.Lines {
		line := &challan.Lines[lineIdx]
		for _, batch := range line.Batches {
			bb, err := balances.FindBatchForUpdate(ctx, challan.SiteID, line.ItemID, batch.BatchNumber)
			if err != nil {
				if !notFound(err) {
					return err
				}
				if sign < 0 {
					continue
				}
				bb, err = inventory.NewSiteItemBatchBalance(challan.SiteID, line.ItemID, batch.BatchNumber, batch.ExpiryMonth)
				if err != nil {
					return err
				}
			} else if sign > 0 {
				if err := bb.CheckExpiry(batch.ExpiryMonth); err != nil {
					return err
				}
			}
			bb.ApplyDelta(batch.Qty.Mul(factor), batch.Amount.Mul(factor))
			if err := balances.SaveBatch(ctx, bb); err != nil {
				return err
			}
		}
	}

	type delta struct{ qty, value decimal.Decimal }
	deltas := make(map[uuid.UUID]*delta)
	itemOrder := make([]uuid.UUID, 0)
	for _, line := range challan.Lines {
		if len(line.Batches) > 0 {
			continue
		}
		d, ok := deltas[line.ItemID]
		if !ok {
			d = &delta{qty: decimal.Zero, value: decimal.Zero}
			deltas[line.ItemID] = d
			itemOrder = append(itemOrder, line.ItemID)
		}
		d.qty = d.qty.Add(line.ReceivingQty)
		d.value = d.value.Add(line.Amount)
	}

	for _, itemID := range itemOrder {
		d := deltas[itemID]
		balance, err := balances.FindForUpdate(ctx, challan.SiteID, itemID)
		if err != nil {
			if !notFound(err) {
				return err
			}
			if sign < 0 {
				continue
			}
			balance, err = inventory.NewSiteItemBalance(challan.SiteID, itemID)
			if err != nil {
				return err
			}
		}
		balance.ApplyDelta(d.qty.Mul(factor), d.value.Mul(factor))
		if err := balances.Save(ctx, balance); err != nil {
			return err
		}
	}
	return nil
}

// closingStock builds the closing quantity per item from the balance rows,
// folding batch rows into their item's total
func closingStock(ctx context.Context, balances inventory.BalanceRepository, siteID uuid.UUID, itemIDs []uuid.UUID) (map[string]decimal.Decimal, error) {
	stock := make(map[string]decimal.Decimal, len(itemIDs))
	rows, err := balances.FindByItems(ctx, siteID, itemIDs)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		stock[row.ItemID.String()] = row.ClosingQty
	}
	for _, itemID := range itemIDs {
		batches, err := balances.FindBatchesByItem(ctx, siteID, itemID)
		if err != nil {
			return nil, err
		}
		total := stock[itemID.String()]
		for _, batch := range batches {
			total = total.Add(batch.ClosingQty)
		}
		stock[itemID.String()] = total
	}
	return stock, nil
}

// nextChallanNumber generates the next challan number for a site from the
// highest existing one, backstopped by the unique (site, number) index and a
// bounded exists-probe retry
func nextChallanNumber(ctx context.Context, repo procurement.ChallanRepository, siteID uuid.UUID) (string, error) {
	numbers, err := repo.ListNumbersBySite(ctx, siteID)
	if err != nil {
		return "", err
	}
	candidate := docnum.Next(numbers)
	for attempt := 0; attempt < numberRetries; attempt++ {
		exists, err := repo.ExistsByNumber(ctx, siteID, candidate)
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
