package court

import (
	"context"
	"errors"
	"strings"

	"github.com/nekogravitycat/polideportivo-booking/internal/venue"
)

type CreateRequest struct {
	VenueID          string
	Name             string
	Type             Type
	HourlyPriceCents int64
	UnderMaintenance bool
}

type UpdateRequest struct {
	Name             *string
	Type             *Type
	HourlyPriceCents *int64
}

// UpcomingReservationCounter reports how many active reservations on a court
// have not started yet.
type UpcomingReservationCounter interface {
	CountUpcoming(ctx context.Context, courtID string) (int, error)
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Court, error)
	GetByID(ctx context.Context, id string) (*Court, error)
	List(ctx context.Context, filter Filter) ([]*Court, int, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Court, error)
	SetMaintenance(ctx context.Context, id string, underMaintenance bool) (*Court, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo         Repository
	venues       venue.Service
	reservations UpcomingReservationCounter
	cache        Invalidator
}

// NewService creates a court Service. cache may be nil when no catalog cache is configured.
func NewService(repo Repository, venues venue.Service, reservations UpcomingReservationCounter, cache Invalidator) Service {
	return &service{
		repo:         repo,
		venues:       venues,
		reservations: reservations,
		cache:        cache,
	}
}

func validateCourt(c *Court) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return ErrNameRequired
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	if c.HourlyPriceCents <= 0 {
		return ErrInvalidPrice
	}
	return nil
}

func (s *service) invalidate(ctx context.Context, id string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Court, error) {
	c := &Court{
		VenueID:          req.VenueID,
		Name:             req.Name,
		Type:             req.Type,
		HourlyPriceCents: req.HourlyPriceCents,
		UnderMaintenance: req.UnderMaintenance,
	}
	if err := validateCourt(c); err != nil {
		return nil, err
	}
	if c.VenueID == "" {
		return nil, ErrInvalidVenue
	}

	// Validation: Check if Venue exists
	v, err := s.venues.GetByID(ctx, c.VenueID)
	if err != nil {
		if errors.Is(err, venue.ErrNotFound) {
			return nil, ErrInvalidVenue
		}
		return nil, err
	}
	c.VenueName = v.Name

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Court, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Court, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Court, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Type != nil {
		c.Type = *req.Type
	}
	if req.HourlyPriceCents != nil {
		c.HourlyPriceCents = *req.HourlyPriceCents
	}
	if err := validateCourt(c); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return c, nil
}

// SetMaintenance toggles the maintenance flag. Existing reservations are left untouched;
// new ones are refused while the flag is set.
func (s *service) SetMaintenance(ctx context.Context, id string, underMaintenance bool) (*Court, error) {
	if err := s.repo.SetMaintenance(ctx, id, underMaintenance); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return s.repo.GetByID(ctx, id)
}

// Delete removes a court that has no upcoming reservations.
func (s *service) Delete(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id, func(ctx context.Context) error {
		n, err := s.reservations.CountUpcoming(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrHasDependents
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}
