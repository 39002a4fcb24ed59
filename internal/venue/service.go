package venue

import (
	"context"
	"strings"
)

// CreateRequest carries data to create a venue.
type CreateRequest struct {
	Name    string
	Address string
	Phone   *string
}

// UpdateRequest carries data for partial updates.
type UpdateRequest struct {
	Name    *string
	Address *string
	Phone   *string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Venue, error)
	GetByID(ctx context.Context, id string) (*Venue, error)
	List(ctx context.Context, filter Filter) ([]*Venue, int, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Venue, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// validateVenue checks the logical rules for a Venue struct.
// Names are compared exactly, so only surrounding whitespace is trimmed.
func validateVenue(v *Venue) error {
	v.Name = strings.TrimSpace(v.Name)
	v.Address = strings.TrimSpace(v.Address)
	if v.Name == "" {
		return ErrNameRequired
	}
	if v.Address == "" {
		return ErrAddressRequired
	}
	if v.Phone != nil {
		p := strings.TrimSpace(*v.Phone)
		if p == "" {
			v.Phone = nil
		} else {
			v.Phone = &p
		}
	}
	return nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Venue, error) {
	v := &Venue{
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
	}
	if err := validateVenue(v); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Venue, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Venue, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Venue, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Apply non-nil fields
	if req.Name != nil {
		v.Name = *req.Name
	}
	if req.Address != nil {
		v.Address = *req.Address
	}
	if req.Phone != nil {
		v.Phone = req.Phone
	}

	if err := validateVenue(v); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Delete removes a venue that owns no courts.
func (s *service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	n, err := s.repo.CountCourts(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrHasDependents
	}

	return s.repo.Delete(ctx, id)
}
