package court

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/polideportivo-booking/internal/pkg/apperror"
)

var (
	ErrNotFound      = apperror.New(http.StatusNotFound, "court not found")
	ErrNameRequired  = apperror.New(http.StatusBadRequest, "name cannot be empty")
	ErrInvalidVenue  = apperror.New(http.StatusBadRequest, "invalid venue_id")
	ErrInvalidType   = apperror.New(http.StatusBadRequest, "invalid court type")
	ErrInvalidPrice  = apperror.New(http.StatusBadRequest, "hourly price must be positive")
	ErrDuplicateName = apperror.New(http.StatusConflict, "a court with this name already exists in the venue")
	ErrHasDependents = apperror.New(http.StatusConflict, "court has upcoming reservations; cancel them first")
)

// Type is the sport a court is built for.
type Type string

const (
	TypeSoccer     Type = "soccer"
	TypeBasketball Type = "basketball"
	TypeTennis     Type = "tennis"
	TypePadel      Type = "padel"
	TypeVolleyball Type = "volleyball"
	TypeFutsal     Type = "futsal"
)

// ValidTypes lists every court type, in display order.
var ValidTypes = []Type{TypeSoccer, TypeBasketball, TypeTennis, TypePadel, TypeVolleyball, TypeFutsal}

// Valid reports whether t is a known court type.
func (t Type) Valid() bool {
	for _, v := range ValidTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Court is a bookable unit inside a venue.
type Court struct {
	ID               string
	VenueID          string
	VenueName        string
	Name             string
	Type             Type
	HourlyPriceCents int64
	UnderMaintenance bool
	CreatedAt        time.Time
}

// Filter defines parameters for listing courts.
type Filter struct {
	VenueID          string
	Type             Type
	UnderMaintenance *bool
	Page             int
	PageSize         int
	SortBy           string
	SortOrder        string
}
