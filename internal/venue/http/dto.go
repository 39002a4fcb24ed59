package http

import (
	"time"

	"github.com/nekogravitycat/polideportivo-booking/internal/pkg/request"
	"github.com/nekogravitycat/polideportivo-booking/internal/venue"
)

// ListVenuesRequest defines query parameters for listing venues.
type ListVenuesRequest struct {
	request.ListParams
	Name   string `form:"name"`
	SortBy string `form:"sort_by" binding:"omitempty,oneof=name created_at"`
}

type VenueResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Phone     *string   `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// VenueTag is a brief representation of a venue.
type VenueTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func NewVenueResponse(v *venue.Venue) VenueResponse {
	return VenueResponse{
		ID:        v.ID,
		Name:      v.Name,
		Address:   v.Address,
		Phone:     v.Phone,
		CreatedAt: v.CreatedAt,
	}
}

type CreateVenueRequest struct {
	Name    string  `json:"name" binding:"required,max=120"`
	Address string  `json:"address" binding:"required"`
	Phone   *string `json:"phone" binding:"omitempty,max=32"`
}

type UpdateVenueRequest struct {
	Name    *string `json:"name" binding:"omitempty,max=120"`
	Address *string `json:"address"`
	Phone   *string `json:"phone" binding:"omitempty,max=32"`
}
