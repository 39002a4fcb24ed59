package venue

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/polideportivo-booking/internal/pkg/apperror"
)

var (
	ErrNotFound        = apperror.New(http.StatusNotFound, "venue not found")
	ErrNameRequired    = apperror.New(http.StatusBadRequest, "name is required")
	ErrAddressRequired = apperror.New(http.StatusBadRequest, "address is required")
	ErrDuplicateName   = apperror.New(http.StatusConflict, "a venue with this name already exists")
	ErrHasDependents   = apperror.New(http.StatusConflict, "venue still has courts; delete them first")
)

// Venue is a sports facility owning zero or more courts.
type Venue struct {
	ID        string
	Name      string
	Address   string
	Phone     *string
	CreatedAt time.Time
}

// Filter defines parameters for listing venues.
type Filter struct {
	Name      string // Substring match, case-insensitive
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
