package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	inventoryapp "github.com/siteworks/backend/internal/application/inventory"
)

// StockHandler handles closing stock query endpoints
type StockHandler struct {
	BaseHandler
	stock *inventoryapp.StockService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stock *inventoryapp.StockService) *StockHandler {
	return &StockHandler{stock: stock}
}

// RegisterRoutes registers stock routes on the given group
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/stock")
	group.GET("/closing", h.ClosingStock)
	group.GET("/batches", h.BatchStock)
}

// queryItemIDs parses the comma-separated item_ids query parameter
func queryItemIDs(c *gin.Context) ([]uuid.UUID, error) {
	raw := c.Query("item_ids")
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, p := range parts {
		id, err := uuid.Parse(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ClosingStock returns the closing quantity, value and derived unit rate per
// item at a site
func (h *StockHandler) ClosingStock(c *gin.Context) {
	siteID, err := querySiteID(c)
	if err != nil {
		h.BadRequest(c, "site_id is required")
		return
	}
	itemIDs, err := queryItemIDs(c)
	if err != nil {
		h.BadRequest(c, "item_ids must be a comma-separated list of UUIDs")
		return
	}

	// source=challans answers from the challan lines instead of the
	// balance rows; both yield the same quantities
	if c.Query("source") == "challans" {
		totals, err := h.stock.ClosingStockDerived(c.Request.Context(), siteID, itemIDs)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		out := make(map[string]interface{}, len(totals))
		for id, qty := range totals {
			out[id.String()] = qty
		}
		h.Success(c, out)
		return
	}

	stocks, err := h.stock.ClosingStock(c.Request.Context(), siteID, itemIDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stocks)
}

// BatchStock returns the per-batch closing stock for one item at a site
func (h *StockHandler) BatchStock(c *gin.Context) {
	siteID, err := querySiteID(c)
	if err != nil {
		h.BadRequest(c, "site_id is required")
		return
	}
	itemID, err := uuid.Parse(c.Query("item_id"))
	if err != nil {
		h.BadRequest(c, "item_id is required")
		return
	}

	stocks, err := h.stock.BatchStock(c.Request.Context(), siteID, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stocks)
}
