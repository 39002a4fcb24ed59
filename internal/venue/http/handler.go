package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/polideportivo-booking/internal/pkg/request"
	"github.com/nekogravitycat/polideportivo-booking/internal/pkg/response"
	"github.com/nekogravitycat/polideportivo-booking/internal/venue"
)

type VenueHandler struct {
	service venue.Service
}

func NewHandler(service venue.Service) *VenueHandler {
	return &VenueHandler{service: service}
}

// List retrieves a paginated list of venues with optional name filtering.
func (h *VenueHandler) List(c *gin.Context) {
	var req ListVenuesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	filter := venue.Filter{
		Name:      req.Name,
		Page:      req.Page,
		PageSize:  req.PageSize,
		SortBy:    req.SortBy,
		SortOrder: strings.ToUpper(req.SortOrder),
	}

	venues, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]VenueResponse, len(venues))
	for i, v := range venues {
		items[i] = NewVenueResponse(v)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

// Create adds a new venue. Admin only.
func (h *VenueHandler) Create(c *gin.Context) {
	var body CreateVenueRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	v, err := h.service.Create(c.Request.Context(), venue.CreateRequest{
		Name:    body.Name,
		Address: body.Address,
		Phone:   body.Phone,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewVenueResponse(v))
}

// Get retrieves venue details.
func (h *VenueHandler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	v, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewVenueResponse(v))
}

// Update modifies specific attributes of a venue. Admin only.
func (h *VenueHandler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var body UpdateVenueRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	v, err := h.service.Update(c.Request.Context(), uri.ID, venue.UpdateRequest{
		Name:    body.Name,
		Address: body.Address,
		Phone:   body.Phone,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewVenueResponse(v))
}

// Delete removes a venue that has no courts. Admin only.
func (h *VenueHandler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), uri.ID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
