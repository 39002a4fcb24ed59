package http

import (
	"time"

	courtHttp "github.com/nekogravitycat/polideportivo-booking/internal/court/http"
	"github.com/nekogravitycat/polideportivo-booking/internal/pkg/request"
	"github.com/nekogravitycat/polideportivo-booking/internal/reservation"
	userHttp "github.com/nekogravitycat/polideportivo-booking/internal/user/http"
)

// ListReservationsRequest defines query parameters for the admin listing.
type ListReservationsRequest struct {
	request.ListParams
	UserID   string `form:"user_id" binding:"omitempty,uuid"`
	CourtID  string `form:"court_id" binding:"omitempty,uuid"`
	VenueID  string `form:"venue_id" binding:"omitempty,uuid"`
	Status   string `form:"status" binding:"omitempty,oneof=pending confirmed paid cancelled"`
	DateFrom string `form:"date_from" binding:"omitempty,datetime=2006-01-02"`
	DateTo   string `form:"date_to" binding:"omitempty,datetime=2006-01-02"`
	SortBy   string `form:"sort_by" binding:"omitempty,oneof=date created_at price_cents status"`
}

// Filter converts the query into a reservation.Filter.
func (r *ListReservationsRequest) Filter() (reservation.Filter, error) {
	f := reservation.Filter{
		UserID:   r.UserID,
		CourtID:  r.CourtID,
		VenueID:  r.VenueID,
		Status:   reservation.Status(r.Status),
		Page:     r.Page,
		PageSize: r.PageSize,
		SortBy:   r.SortBy,
	}
	if r.DateFrom != "" {
		d, err := reservation.ParseDate(r.DateFrom)
		if err != nil {
			return f, err
		}
		f.DateFrom = &d
	}
	if r.DateTo != "" {
		d, err := reservation.ParseDate(r.DateTo)
		if err != nil {
			return f, err
		}
		f.DateTo = &d
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		return f, reservation.ErrInvalidWindow.WithMessage("date_from must not be after date_to")
	}
	return f, nil
}

type ReservationResponse struct {
	ID              string             `json:"id"`
	Court           courtHttp.CourtTag `json:"court"`
	VenueID         string             `json:"venue_id"`
	User            userHttp.UserTag   `json:"user"`
	Date            string             `json:"date"`
	StartTime       string             `json:"start_time"`
	EndTime         string             `json:"end_time"`
	AddOns          []string           `json:"add_ons"`
	PriceCents      int64              `json:"price_cents"`
	Status          string             `json:"status"`
	EffectiveStatus string             `json:"effective_status"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// NewReservationResponse renders r with its effective status as computed by the service.
func NewReservationResponse(r *reservation.Reservation, effective string) ReservationResponse {
	addOns := r.AddOns
	if addOns == nil {
		addOns = []string{}
	}
	return ReservationResponse{
		ID:              r.ID,
		Court:           courtHttp.CourtTag{ID: r.CourtID, Name: r.CourtName},
		VenueID:         r.VenueID,
		User:            userHttp.UserTag{ID: r.UserID, Name: r.UserName, NationalID: r.UserNationalID},
		Date:            reservation.FormatDate(r.Date),
		StartTime:       r.Start.String(),
		EndTime:         r.End.String(),
		AddOns:          addOns,
		PriceCents:      r.PriceCents,
		Status:          string(r.Status),
		EffectiveStatus: effective,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// MyReservationsResponse groups the caller's reservations.
type MyReservationsResponse struct {
	Active  []ReservationResponse `json:"active"`
	History []ReservationResponse `json:"history"`
}

// WindowRequest is the court and time window shared by estimate and create.
type WindowRequest struct {
	CourtID   string   `json:"court_id" binding:"required,uuid"`
	StartTime string   `json:"start_time" binding:"required"`
	EndTime   string   `json:"end_time" binding:"required"`
	AddOns    []string `json:"add_ons" binding:"omitempty,max=8,dive,max=32"`
}

// Times parses the "HH:MM" start and end.
func (r *WindowRequest) Times() (reservation.TimeOfDay, reservation.TimeOfDay, error) {
	start, err := reservation.ParseTimeOfDay(r.StartTime)
	if err != nil {
		return 0, 0, reservation.ErrInvalidWindow.WithMessage(err.Error())
	}
	end, err := reservation.ParseTimeOfDay(r.EndTime)
	if err != nil {
		return 0, 0, reservation.ErrInvalidWindow.WithMessage(err.Error())
	}
	return start, end, nil
}

type EstimateRequest struct {
	WindowRequest
}

type EstimateResponse struct {
	PriceCents int64 `json:"price_cents"`
}

type CreateReservationRequest struct {
	WindowRequest
	Date string `json:"date" binding:"required,datetime=2006-01-02"`
}

// AvailabilityRequest selects the day to inspect.
type AvailabilityRequest struct {
	Date string `form:"date" binding:"required,datetime=2006-01-02"`
}

type TimeSlotResponse struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type AvailabilityResponse struct {
	CourtID string             `json:"court_id"`
	Date    string             `json:"date"`
	Slots   []TimeSlotResponse `json:"slots"`
}
