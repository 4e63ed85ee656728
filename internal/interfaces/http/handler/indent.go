package handler

import (
	"github.com/gin-gonic/gin"

	procurementapp "github.com/siteworks/backend/internal/application/procurement"
)

// IndentHandler handles material indent endpoints
type IndentHandler struct {
	BaseHandler
	indents *procurementapp.IndentService
}

// NewIndentHandler creates a new IndentHandler
func NewIndentHandler(indents *procurementapp.IndentService) *IndentHandler {
	return &IndentHandler{indents: indents}
}

// RegisterRoutes registers indent routes on the given group
func (h *IndentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/indents")
	group.POST("", h.Create)
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.PATCH("/:id/status", h.Act)
	group.DELETE("/:id", h.Delete)
}

// Create creates a material indent in draft
func (h *IndentHandler) Create(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req procurementapp.CreateIndentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.indents.Create(c.Request.Context(), actorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List returns a page of indents for a site
func (h *IndentHandler) List(c *gin.Context) {
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

	page, err := h.indents.List(c.Request.Context(), siteID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	SuccessPage(c, page)
}

// Get returns a single indent
func (h *IndentHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.BadRequest(c, "invalid indent id")
		return
	}

	resp, err := h.indents.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Act applies a workflow action, optionally editing lines in the same request
func (h *IndentHandler) Act(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	id, err := pathID(c)
	if err != nil {
		h.BadRequest(c, "invalid indent id")
		return
	}

	var req procurementapp.StatusActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.indents.Act(c.Request.Context(), actorID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete removes a draft indent
func (h *IndentHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.BadRequest(c, "invalid indent id")
		return
	}

	if err := h.indents.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
