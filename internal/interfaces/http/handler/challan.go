package handler

import (
	"github.com/gin-gonic/gin"

	procurementapp "github.com/siteworks/backend/internal/application/procurement"
)

// ChallanHandler handles inward delivery challan endpoints
type ChallanHandler struct {
	BaseHandler
	challans *procurementapp.ChallanService
}

// NewChallanHandler creates a new ChallanHandler
func NewChallanHandler(challans *procurementapp.ChallanService) *ChallanHandler {
	return &ChallanHandler{challans: challans}
}

// RegisterRoutes registers challan routes on the given group
func (h *ChallanHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/challans")
	group.POST("", h.Create)
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.PATCH("/:id/bill", h.UpdateBill)
	group.DELETE("/:id", h.Delete)
}

// Create records goods received against an approved purchase order and
// applies the quantities to the site stock ledger
func (h *ChallanHandler) Create(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req procurementapp.CreateChallanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.challans.Create(c.Request.Context(), actorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List returns a page of challans for a site
func (h *ChallanHandler) List(c *gin.Context) {
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

	page, err := h.challans.List(c.Request.Context(), siteID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	SuccessPage(c, page)
}

// Get returns a single challan with the closing stock of its items
func (h *ChallanHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.BadRequest(c, "invalid challan id")
		return
	}

	resp, err := h.challans.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update replaces the challan's lines; prior quantities are reversed and the
// submitted version reapplied atomically
func (h *ChallanHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.BadRequest(c, "invalid challan id")
		return
	}

	var req procurementapp.UpdateChallanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.challans.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateBill records the vendor bill on a challan
func (h *ChallanHandler) UpdateBill(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.BadRequest(c, "invalid challan id")
		return
	}

	var req procurementapp.UpdateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.challans.UpdateBill(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete removes a challan and reverses its stock and received quantities
func (h *ChallanHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.BadRequest(c, "invalid challan id")
		return
	}

	if err := h.challans.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
