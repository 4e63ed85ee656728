package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/siteworks/backend/internal/domain/inventory"
	"github.com/siteworks/backend/internal/domain/procurement"
)

// ItemStock is one item's closing position at a site
type ItemStock struct {
	ItemID       uuid.UUID       `json:"item_id"`
	ClosingQty   decimal.Decimal `json:"closing_qty"`
	ClosingValue decimal.Decimal `json:"closing_value"`
	UnitRate     decimal.Decimal `json:"unit_rate"`
}

// BatchStock is one expiry batch's closing position at a site
type BatchStock struct {
	ItemID      uuid.UUID       `json:"item_id"`
	BatchNumber string          `json:"batch_number"`
	ExpiryMonth string          `json:"expiry_month"`
	ClosingQty  decimal.Decimal `json:"closing_qty"`
	UnitRate    decimal.Decimal `json:"unit_rate"`
}

// StockService answers closing-stock queries. Two read paths exist: the
// pre-aggregated balance rows, and a fold over live challan lines. Both
// answer the same question and are interchangeable from the caller's
// perspective.
type StockService struct {
	balances inventory.BalanceRepository
	challans procurement.ChallanRepository
}

// NewStockService creates a new StockService
func NewStockService(balances inventory.BalanceRepository, challans procurement.ChallanRepository) *StockService {
	return &StockService{
		balances: balances,
		challans: challans,
	}
}

// ClosingStock returns each item's closing position from the balance rows,
// folding batch rows into their item's total
func (s *StockService) ClosingStock(ctx context.Context, siteID uuid.UUID, itemIDs []uuid.UUID) ([]ItemStock, error) {
	rows, err := s.balances.FindByItems(ctx, siteID, itemIDs)
	if err != nil {
		return nil, err
	}
	byItem := make(map[uuid.UUID]*ItemStock, len(itemIDs))
	order := make([]uuid.UUID, 0, len(itemIDs))
	for _, itemID := range itemIDs {
		byItem[itemID] = &ItemStock{
			ItemID:       itemID,
			ClosingQty:   decimal.Zero,
			ClosingValue: decimal.Zero,
			UnitRate:     decimal.Zero,
		}
		order = append(order, itemID)
	}
	for _, row := range rows {
		if stock, ok := byItem[row.ItemID]; ok {
			stock.ClosingQty = stock.ClosingQty.Add(row.ClosingQty)
			stock.ClosingValue = stock.ClosingValue.Add(row.ClosingValue)
		}
	}
	for _, itemID := range order {
		batches, err := s.balances.FindBatchesByItem(ctx, siteID, itemID)
		if err != nil {
			return nil, err
		}
		stock := byItem[itemID]
		for _, batch := range batches {
			stock.ClosingQty = stock.ClosingQty.Add(batch.ClosingQty)
			stock.ClosingValue = stock.ClosingValue.Add(batch.ClosingValue)
		}
		if !stock.ClosingQty.IsZero() {
			stock.UnitRate = stock.ClosingValue.Div(stock.ClosingQty).Round(4)
		}
	}

	out := make([]ItemStock, 0, len(order))
	for _, itemID := range order {
		out = append(out, *byItem[itemID])
	}
	return out, nil
}

// ClosingStockDerived answers the same query by folding live challan line
// quantities instead of reading the balance rows
func (s *StockService) ClosingStockDerived(ctx context.Context, siteID uuid.UUID, itemIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	totals, err := s.challans.SumLineQuantities(ctx, siteID, itemIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]decimal.Decimal, len(itemIDs))
	for _, itemID := range itemIDs {
		out[itemID] = totals[itemID]
	}
	return out, nil
}

// BatchStock returns the closing position of each expiry batch of an item
func (s *StockService) BatchStock(ctx context.Context, siteID, itemID uuid.UUID) ([]BatchStock, error) {
	rows, err := s.balances.FindBatchesByItem(ctx, siteID, itemID)
	if err != nil {
		return nil, err
	}
	out := make([]BatchStock, 0, len(rows))
	for _, row := range rows {
		out = append(out, BatchStock{
			ItemID:      row.ItemID,
			BatchNumber: row.BatchNumber,
			ExpiryMonth: row.ExpiryMonth,
			ClosingQty:  row.ClosingQty,
			UnitRate:    row.UnitRate(),
		})
	}
	return out, nil
}
