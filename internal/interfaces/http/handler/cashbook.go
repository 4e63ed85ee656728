package handler

import (
	"github.com/gin-gonic/gin"

	cashbookapp "github.com/siteworks/backend/internal/application/cashbook"
)

// CashbookHandler handles cash voucher endpoints
type CashbookHandler struct {
	BaseHandler
	vouchers *cashbookapp.CashbookService
}

// NewCashbookHandler creates a new CashbookHandler
func NewCashbookHandler(vouchers *cashbookapp.CashbookService) *CashbookHandler {
	return &CashbookHandler{vouchers: vouchers}
}

// RegisterRoutes registers cash voucher routes on the given group
func (h *CashbookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/vouchers")
	group.POST("", h.Create)
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.PATCH("/:id/status", h.Act)
}

// Create creates a cash voucher in draft, optionally linked to a challan bill
func (h *CashbookHandler) Create(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req cashbookapp.CreateVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.vouchers.Create(c.Request.Context(), actorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List returns a page of vouchers for a site
func (h *CashbookHandler) List(c *gin.Context) {
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

	page, err := h.vouchers.List(c.Request.Context(), siteID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	SuccessPage(c, page)
}

// Get returns a single voucher
func (h *CashbookHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.BadRequest(c, "invalid voucher id")
		return
	}

	resp, err := h.vouchers.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Act applies a workflow action. Approving or suspending a payment voucher
// linked to a challan recomputes the bill's paid amount.
func (h *CashbookHandler) Act(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.BadRequest(c, "invalid voucher id")
		return
	}

	var req cashbookapp.StatusActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.vouchers.Act(c.Request.Context(), actorID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
