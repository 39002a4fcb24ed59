package http

import (
	"time"

	"github.com/nekogravitycat/polideportivo-booking/internal/court"
	"github.com/nekogravitycat/polideportivo-booking/internal/pkg/request"
	venueHttp "github.com/nekogravitycat/polideportivo-booking/internal/venue/http"
)

// ListCourtsRequest defines query parameters for listing courts.
type ListCourtsRequest struct {
	request.ListParams
	VenueID          string `form:"venue_id" binding:"omitempty,uuid"`
	Type             string `form:"type" binding:"omitempty,oneof=soccer basketball tennis padel volleyball futsal"`
	UnderMaintenance *bool  `form:"under_maintenance"`
	SortBy           string `form:"sort_by" binding:"omitempty,oneof=name type hourly_price_cents created_at"`
}

type CourtResponse struct {
	ID               string             `json:"id"`
	Venue            venueHttp.VenueTag `json:"venue"`
	Name             string             `json:"name"`
	Type             string             `json:"type"`
	HourlyPriceCents int64              `json:"hourly_price_cents"`
	UnderMaintenance bool               `json:"under_maintenance"`
	CreatedAt        time.Time          `json:"created_at"`
}

// CourtTag is a brief representation of a court.
type CourtTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func NewCourtResponse(c *court.Court) CourtResponse {
	return CourtResponse{
		ID:               c.ID,
		Venue:            venueHttp.VenueTag{ID: c.VenueID, Name: c.VenueName},
		Name:             c.Name,
		Type:             string(c.Type),
		HourlyPriceCents: c.HourlyPriceCents,
		UnderMaintenance: c.UnderMaintenance,
		CreatedAt:        c.CreatedAt,
	}
}

type CreateCourtRequest struct {
	VenueID          string `json:"venue_id" binding:"required,uuid"`
	Name             string `json:"name" binding:"required,max=120"`
	Type             string `json:"type" binding:"required,oneof=soccer basketball tennis padel volleyball futsal"`
	HourlyPriceCents int64  `json:"hourly_price_cents" binding:"required,gt=0"`
	UnderMaintenance bool   `json:"under_maintenance"`
}

type UpdateCourtRequest struct {
	Name             *string `json:"name" binding:"omitempty,max=120"`
	Type             *string `json:"type" binding:"omitempty,oneof=soccer basketball tennis padel volleyball futsal"`
	HourlyPriceCents *int64  `json:"hourly_price_cents" binding:"omitempty,gt=0"`
}

type SetMaintenanceRequest struct {
	UnderMaintenance *bool `json:"under_maintenance" binding:"required"`
}
