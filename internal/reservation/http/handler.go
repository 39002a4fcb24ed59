package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nekogravitycat/polideportivo-booking/internal/auth"
	"github.com/nekogravitycat/polideportivo-booking/internal/pkg/request"
	"github.com/nekogravitycat/polideportivo-booking/internal/pkg/response"
	"github.com/nekogravitycat/polideportivo-booking/internal/reservation"
	"github.com/nekogravitycat/polideportivo-booking/internal/user"
)

type Handler struct {
	service reservation.Service
	users   user.Service
}

func NewHandler(service reservation.Service, users user.Service) *Handler {
	return &Handler{service: service, users: users}
}

// callerID returns the authenticated user's ID, writing an error response
// when it is missing or malformed.
func callerID(c *gin.Context) (string, bool) {
	userID := auth.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	// Validate UUID format
	if _, err := uuid.Parse(userID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return "", false
	}
	return userID, true
}

func (h *Handler) render(r *reservation.Reservation) ReservationResponse {
	return NewReservationResponse(r, h.service.EffectiveStatus(r))
}

func (h *Handler) renderAll(rs []*reservation.Reservation) []ReservationResponse {
	items := make([]ReservationResponse, len(rs))
	for i, r := range rs {
		items[i] = h.render(r)
	}
	return items
}

// Estimate prices a window without booking it.
func (h *Handler) Estimate(c *gin.Context) {
	var body EstimateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	start, end, err := body.Times()
	if err != nil {
		response.Error(c, err)
		return
	}

	price, err := h.service.Estimate(c.Request.Context(), reservation.EstimateRequest{
		CourtID: body.CourtID,
		Start:   start,
		End:     end,
		AddOns:  body.AddOns,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, EstimateResponse{PriceCents: price})
}

// Create books a window for the caller.
func (h *Handler) Create(c *gin.Context) {
	var body CreateReservationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	start, end, err := body.Times()
	if err != nil {
		response.Error(c, err)
		return
	}
	date, err := reservation.ParseDate(body.Date)
	if err != nil {
		response.Error(c, reservation.ErrInvalidWindow.WithMessage("date must be YYYY-MM-DD"))
		return
	}

	userID, ok := callerID(c)
	if !ok {
		return
	}
	caller, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			err = user.ErrInactiveUser
		}
		response.Error(c, err)
		return
	}
	// Tokens outlive deactivation.
	if !caller.IsActive {
		response.Error(c, user.ErrInactiveUser)
		return
	}

	r, err := h.service.Create(c.Request.Context(), reservation.CreateRequest{
		UserID:         caller.ID,
		UserName:       caller.DisplayName,
		UserNationalID: caller.NationalID,
		CourtID:        body.CourtID,
		Date:           date,
		Start:          start,
		End:            end,
		AddOns:         body.AddOns,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.render(r))
}

// Me lists the caller's reservations split into active and history.
func (h *Handler) Me(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	mine, err := h.service.ListForUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, MyReservationsResponse{
		Active:  h.renderAll(mine.Active),
		History: h.renderAll(mine.History),
	})
}

// List retrieves a paginated list of all reservations. Admin only.
func (h *Handler) List(c *gin.Context) {
	var req ListReservationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}
	filter, err := req.Filter()
	if err != nil {
		response.Error(c, err)
		return
	}
	filter.SortOrder = strings.ToUpper(req.SortOrder)

	rs, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.NewPageResponse(h.renderAll(rs), req.Page, req.PageSize, total))
}

// Get retrieves a reservation owned by the caller, or any reservation for admins.
func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	r, err := h.service.GetByID(c.Request.Context(), uri.ID, auth.GetCaller(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, h.render(r))
}

func (h *Handler) Cancel(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	r, err := h.service.Cancel(c.Request.Context(), uri.ID, auth.GetCaller(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, h.render(r))
}

func (h *Handler) Pay(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	r, err := h.service.Pay(c.Request.Context(), uri.ID, auth.GetCaller(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, h.render(r))
}

// Delete removes a reservation outright. Admin only.
func (h *Handler) Delete(c *gin.Context) {
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

// Availability lists the bookable hours of a court on a date.
func (h *Handler) Availability(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}
	var req AvailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}
	date, err := reservation.ParseDate(req.Date)
	if err != nil {
		response.Error(c, reservation.ErrInvalidWindow.WithMessage("date must be YYYY-MM-DD"))
		return
	}

	slots, err := h.service.Availability(c.Request.Context(), uri.ID, date)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]TimeSlotResponse, len(slots))
	for i, s := range slots {
		items[i] = TimeSlotResponse{StartTime: s.Start.String(), EndTime: s.End.String()}
	}
	c.JSON(http.StatusOK, AvailabilityResponse{
		CourtID: uri.ID,
		Date:    reservation.FormatDate(date),
		Slots:   items,
	})
}
