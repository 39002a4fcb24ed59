package court

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/polideportivo-booking/internal/venue"
)

type fakeRepository struct {
	mu     sync.Mutex
	courts map[string]*Court
	nextID int

	// duringDelete runs while Delete holds the lock, before the guard.
	duringDelete func()
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{courts: map[string]*Court{}}
}

func (r *fakeRepository) Create(_ context.Context, c *Court) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.courts {
		if existing.VenueID == c.VenueID && existing.Name == c.Name {
			return ErrDuplicateName
		}
	}
	r.nextID++
	c.ID = fmt.Sprintf("court-%d", r.nextID)
	c.CreatedAt = time.Now()
	cp := *c
	r.courts[c.ID] = &cp
	return nil
}

func (r *fakeRepository) GetByID(_ context.Context, id string) (*Court, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeRepository) List(_ context.Context, filter Filter) ([]*Court, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Court
	for _, c := range r.courts {
		if filter.VenueID != "" && c.VenueID != filter.VenueID {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (r *fakeRepository) Update(_ context.Context, c *Court) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courts[c.ID]; !ok {
		return ErrNotFound
	}
	for id, existing := range r.courts {
		if id != c.ID && existing.VenueID == c.VenueID && existing.Name == c.Name {
			return ErrDuplicateName
		}
	}
	cp := *c
	r.courts[c.ID] = &cp
	return nil
}

func (r *fakeRepository) SetMaintenance(_ context.Context, id string, underMaintenance bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courts[id]
	if !ok {
		return ErrNotFound
	}
	c.UnderMaintenance = underMaintenance
	return nil
}

func (r *fakeRepository) Delete(ctx context.Context, id string, guard func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courts[id]; !ok {
		return ErrNotFound
	}
	if r.duringDelete != nil {
		r.duringDelete()
	}
	if err := guard(ctx); err != nil {
		return err
	}
	delete(r.courts, id)
	return nil
}

type fakeVenues struct {
	venue.Service
	known map[string]string
}

func (f *fakeVenues) GetByID(_ context.Context, id string) (*venue.Venue, error) {
	name, ok := f.known[id]
	if !ok {
		return nil, venue.ErrNotFound
	}
	return &venue.Venue{ID: id, Name: name}, nil
}

type fakeCounter map[string]int

func (f fakeCounter) CountUpcoming(_ context.Context, courtID string) (int, error) {
	return f[courtID], nil
}

type recordingInvalidator struct {
	ids []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, courtID string) {
	r.ids = append(r.ids, courtID)
}

type fixture struct {
	svc      Service
	repo     *fakeRepository
	upcoming fakeCounter
	cache    *recordingInvalidator
}

func newFixture() fixture {
	f := fixture{
		repo:     newFakeRepository(),
		upcoming: fakeCounter{},
		cache:    &recordingInvalidator{},
	}
	venues := &fakeVenues{known: map[string]string{"venue-1": "Norte"}}
	f.svc = NewService(f.repo, venues, f.upcoming, f.cache)
	return f
}

func validCreate() CreateRequest {
	return CreateRequest{VenueID: "venue-1", Name: "Pista 1", Type: TypePadel, HourlyPriceCents: 1000}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newFixture()
		c, err := f.svc.Create(ctx, validCreate())
		require.NoError(t, err)
		assert.NotEmpty(t, c.ID)
		assert.Equal(t, "Norte", c.VenueName)
		assert.False(t, c.UnderMaintenance)
	})

	t.Run("Name unique per venue", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Create(ctx, validCreate())
		require.NoError(t, err)

		_, err = f.svc.Create(ctx, validCreate())
		assert.ErrorIs(t, err, ErrDuplicateName)
	})

	tests := []struct {
		name   string
		mutate func(*CreateRequest)
		want   error
	}{
		{"Blank name", func(r *CreateRequest) { r.Name = "  " }, ErrNameRequired},
		{"Unknown type", func(r *CreateRequest) { r.Type = "cricket" }, ErrInvalidType},
		{"Zero price", func(r *CreateRequest) { r.HourlyPriceCents = 0 }, ErrInvalidPrice},
		{"Unknown venue", func(r *CreateRequest) { r.VenueID = "venue-9" }, ErrInvalidVenue},
		{"Missing venue", func(r *CreateRequest) { r.VenueID = "" }, ErrInvalidVenue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			req := validCreate()
			tt.mutate(&req)

			_, err := f.svc.Create(ctx, req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestService_UpdateInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c, err := f.svc.Create(ctx, validCreate())
	require.NoError(t, err)

	price := int64(1500)
	updated, err := f.svc.Update(ctx, c.ID, UpdateRequest{HourlyPriceCents: &price})
	require.NoError(t, err)
	assert.Equal(t, int64(1500), updated.HourlyPriceCents)
	assert.Equal(t, []string{c.ID}, f.cache.ids)

	bad := Type("chess")
	_, err = f.svc.Update(ctx, c.ID, UpdateRequest{Type: &bad})
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestService_SetMaintenance(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c, err := f.svc.Create(ctx, validCreate())
	require.NoError(t, err)

	got, err := f.svc.SetMaintenance(ctx, c.ID, true)
	require.NoError(t, err)
	assert.True(t, got.UnderMaintenance)

	got, err = f.svc.SetMaintenance(ctx, c.ID, false)
	require.NoError(t, err)
	assert.False(t, got.UnderMaintenance)
	assert.Equal(t, []string{c.ID, c.ID}, f.cache.ids)

	_, err = f.svc.SetMaintenance(ctx, "court-404", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c, err := f.svc.Create(ctx, validCreate())
	require.NoError(t, err)

	f.upcoming[c.ID] = 1
	assert.ErrorIs(t, f.svc.Delete(ctx, c.ID), ErrHasDependents)
	assert.Empty(t, f.cache.ids)

	f.upcoming[c.ID] = 0
	require.NoError(t, f.svc.Delete(ctx, c.ID))
	assert.Equal(t, []string{c.ID}, f.cache.ids)

	assert.ErrorIs(t, f.svc.Delete(ctx, c.ID), ErrNotFound)
}

func TestService_Delete_GuardRunsUnderLock(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c, err := f.svc.Create(ctx, validCreate())
	require.NoError(t, err)

	// A reservation committed after the court row is locked but before the
	// count must still block the delete.
	f.repo.duringDelete = func() { f.upcoming[c.ID] = 1 }

	assert.ErrorIs(t, f.svc.Delete(ctx, c.ID), ErrHasDependents)
	assert.Empty(t, f.cache.ids)

	got, err := f.svc.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
}
