package handler

import (
	"github.com/gin-gonic/gin"

	procurementapp "github.com/siteworks/backend/internal/application/procurement"
)

// PurchaseOrderHandler handles purchase order endpoints
type PurchaseOrderHandler struct {
	BaseHandler
	orders *procurementapp.PurchaseOrderService
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(orders *procurementapp.PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{orders: orders}
}

// RegisterRoutes registers purchase order routes on the given group
func (h *PurchaseOrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/purchase-orders")
	group.POST("", h.Create)
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.PATCH("/:id/status", h.Act)
	group.DELETE("/:id", h.Delete)
}

// Create creates a purchase order in draft, optionally raised from an indent
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req procurementapp.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.orders.Create(c.Request.Context(), actorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List returns a page of purchase orders for a site
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	siteID, err := querySiteID(c)
	if err != nil {
		h.BadRequest(c, "site_id is required")
		return
	}
	filter, err := listFilter(c)
	if err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.orders.List(c.Request.Context(), siteID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	SuccessPage(c, page)
}

// Get returns a single purchase order
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.BadRequest(c, "invalid purchase order id")
		return
	}

	resp, err := h.orders.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Act applies a workflow action. Approvers may edit line quantities in the
// same request; approval below the configured threshold escalates to level 2
// automatically.
func (h *PurchaseOrderHandler) Act(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.BadRequest(c, "invalid purchase order id")
		return
	}

	var req procurementapp.StatusActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.orders.Act(c.Request.Context(), actorID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete removes a draft purchase order
func (h *PurchaseOrderHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.BadRequest(c, "invalid purchase order id")
		return
	}

	if err := h.orders.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
