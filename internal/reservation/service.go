package reservation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nekogravitycat/polideportivo-booking/internal/auth"
	"github.com/nekogravitycat/polideportivo-booking/internal/clock"
	"github.com/nekogravitycat/polideportivo-booking/internal/court"
	"github.com/nekogravitycat/polideportivo-booking/internal/notification"
	"github.com/nekogravitycat/polideportivo-booking/internal/pkg/apperror"
	"github.com/nekogravitycat/polideportivo-booking/internal/pkg/metrics"
)

// EstimateRequest prices a window without booking it.
type EstimateRequest struct {
	CourtID string
	Start   TimeOfDay
	End     TimeOfDay
	AddOns  []string
}

type CreateRequest struct {
	UserID         string
	UserName       string
	UserNationalID string
	CourtID        string
	Date           time.Time
	Start          TimeOfDay
	End            TimeOfDay
	AddOns         []string
}

// UserReservations splits a user's reservations by effective status.
// Active is soonest first, History most recent first.
type UserReservations struct {
	Active  []*Reservation
	History []*Reservation
}

type Service interface {
	Estimate(ctx context.Context, req EstimateRequest) (int64, error)
	Create(ctx context.Context, req CreateRequest) (*Reservation, error)
	GetByID(ctx context.Context, id string, caller auth.Caller) (*Reservation, error)
	ListForUser(ctx context.Context, userID string) (*UserReservations, error)
	List(ctx context.Context, filter Filter) ([]*Reservation, int, error)
	Cancel(ctx context.Context, id string, caller auth.Caller) (*Reservation, error)
	Pay(ctx context.Context, id string, caller auth.Caller) (*Reservation, error)
	Delete(ctx context.Context, id string) error
	// Availability lists the free whole-hour slots of a court on date that
	// can still be booked.
	Availability(ctx context.Context, courtID string, date time.Time) ([]TimeSlot, error)
	// EffectiveStatus is the display status of r at the current time.
	EffectiveStatus(r *Reservation) string
}

// maxCASAttempts bounds the reload-and-retry loop of Cancel and Pay.
const maxCASAttempts = 3

type service struct {
	repo      Repository
	catalog   court.Catalog
	conflicts *ConflictChecker
	pricing   *PricingEngine
	policy    Policy
	clock     clock.Clock
	loc       *time.Location
	events    notification.Dispatcher
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// NewService creates the reservation lifecycle. m may be nil.
func NewService(
	repo Repository,
	catalog court.Catalog,
	policy Policy,
	clk clock.Clock,
	loc *time.Location,
	events notification.Dispatcher,
	m *metrics.Metrics,
	log zerolog.Logger,
) Service {
	return &service{
		repo:      repo,
		catalog:   catalog,
		conflicts: NewConflictChecker(repo),
		pricing:   NewPricingEngine(policy.AddOns),
		policy:    policy,
		clock:     clk,
		loc:       loc,
		events:    events,
		metrics:   m,
		log:       log.With().Str("component", "reservation").Logger(),
	}
}

// retryOnce repeats fn a single time when the store reports a transient failure.
func retryOnce[T any](fn func() (T, error)) (T, error) {
	v, err := fn()
	if errors.Is(err, ErrTransientStore) {
		v, err = fn()
	}
	return v, err
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Code < 500 {
		return "rejected"
	}
	return "error"
}

func (s *service) record(op string, err error) {
	s.metrics.ReservationOp(op, resultLabel(err))
	if err != nil && resultLabel(err) == "rejected" {
		s.log.Debug().Err(err).Str("operation", op).Msg("reservation request rejected")
	}
}

// bookableCourt resolves courtID to a court that accepts reservations.
func (s *service) bookableCourt(ctx context.Context, courtID string) (*court.Court, error) {
	c, err := s.catalog.Lookup(ctx, courtID)
	if err != nil {
		if errors.Is(err, court.ErrNotFound) {
			return nil, ErrResourceUnavailable
		}
		return nil, fmt.Errorf("lookup court failed: %w", err)
	}
	if c.UnderMaintenance {
		return nil, ErrResourceUnavailable.WithMessage("court is under maintenance")
	}
	return c, nil
}

func (s *service) Estimate(ctx context.Context, req EstimateRequest) (int64, error) {
	if err := s.policy.CheckWindow(req.Start, req.End); err != nil {
		return 0, err
	}
	c, err := s.bookableCourt(ctx, req.CourtID)
	if err != nil {
		return 0, err
	}
	return s.pricing.Estimate(c, req.Start, req.End, req.AddOns)
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Reservation, error) {
	r, err := s.create(ctx, req)
	s.record("create", err)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("reservation_id", r.ID).
		Str("court_id", r.CourtID).
		Str("date", FormatDate(r.Date)).
		Stringer("start", r.Start).
		Stringer("end", r.End).
		Msg("reservation created")
	s.dispatch(ctx, notification.ReservationCreated, r)
	return r, nil
}

func (s *service) create(ctx context.Context, req CreateRequest) (*Reservation, error) {
	if err := s.policy.CheckWindow(req.Start, req.End); err != nil {
		return nil, err
	}
	date := DateOf(req.Date, time.UTC)
	if !At(date, req.Start, s.loc).After(s.clock.Now()) {
		return nil, ErrInvalidWindow.WithMessage("reservations cannot start in the past")
	}

	c, err := s.bookableCourt(ctx, req.CourtID)
	if err != nil {
		return nil, err
	}
	addOns := normalizeAddOns(req.AddOns)
	price, err := s.pricing.Estimate(c, req.Start, req.End, addOns)
	if err != nil {
		return nil, err
	}

	// Fail fast on a visible conflict; CreateIfFree re-checks atomically.
	taken, err := retryOnce(func() (bool, error) {
		return s.conflicts.HasConflict(ctx, c.ID, date, req.Start, req.End)
	})
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSlotTaken
	}

	// The id is fixed up front so a retried insert recognizes its own row.
	r := &Reservation{
		ID:             uuid.NewString(),
		UserID:         req.UserID,
		UserName:       req.UserName,
		UserNationalID: req.UserNationalID,
		CourtID:        c.ID,
		CourtName:      c.Name,
		VenueID:        c.VenueID,
		Date:           date,
		Start:          req.Start,
		End:            req.End,
		AddOns:         addOns,
		PriceCents:     price,
		Status:         StatusPending,
	}
	if _, err := retryOnce(func() (struct{}, error) {
		return struct{}{}, s.repo.CreateIfFree(ctx, r)
	}); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *service) load(ctx context.Context, id string, caller auth.Caller) (*Reservation, error) {
	r, err := retryOnce(func() (*Reservation, error) {
		return s.repo.GetByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && r.UserID != caller.UserID {
		return nil, ErrPermissionDenied
	}
	return r, nil
}

func (s *service) GetByID(ctx context.Context, id string, caller auth.Caller) (*Reservation, error) {
	return s.load(ctx, id, caller)
}

func (s *service) ListForUser(ctx context.Context, userID string) (*UserReservations, error) {
	all, err := retryOnce(func() ([]*Reservation, error) {
		return s.repo.ListByUser(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	out := &UserReservations{Active: []*Reservation{}, History: []*Reservation{}}
	for _, r := range all {
		if IsHistory(EffectiveStatus(r, now, s.loc)) {
			out.History = append(out.History, r)
		} else {
			out.Active = append(out.Active, r)
		}
	}

	byStart := func(a, b *Reservation) int {
		return a.StartsAt(s.loc).Compare(b.StartsAt(s.loc))
	}
	slices.SortStableFunc(out.Active, byStart)
	slices.SortStableFunc(out.History, func(a, b *Reservation) int { return byStart(b, a) })
	return out, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Reservation, int, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	type page struct {
		items []*Reservation
		total int
	}
	p, err := retryOnce(func() (page, error) {
		items, total, err := s.repo.List(ctx, filter)
		return page{items, total}, err
	})
	if err != nil {
		return nil, 0, err
	}
	return p.items, p.total, nil
}

func (s *service) Cancel(ctx context.Context, id string, caller auth.Caller) (*Reservation, error) {
	r, err := s.transition(ctx, id, caller, StatusCancelled, func(r *Reservation, now time.Time) error {
		return checkCancellable(r, now, s.loc, s.policy.CancelCutoff)
	})
	s.record("cancel", err)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("reservation_id", r.ID).Str("by", caller.UserID).Msg("reservation cancelled")
	s.dispatch(ctx, notification.ReservationCancelled, r)
	return r, nil
}

func (s *service) Pay(ctx context.Context, id string, caller auth.Caller) (*Reservation, error) {
	r, err := s.transition(ctx, id, caller, StatusPaid, func(r *Reservation, now time.Time) error {
		return checkPayable(r, now, s.loc)
	})
	s.record("pay", err)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("reservation_id", r.ID).Int64("price_cents", r.PriceCents).Msg("reservation paid")
	s.dispatch(ctx, notification.ReservationPaid, r)
	return r, nil
}

// transition moves a reservation to status to once check passes. A lost
// compare-and-set reloads the reservation and evaluates check again.
func (s *service) transition(
	ctx context.Context,
	id string,
	caller auth.Caller,
	to Status,
	check func(r *Reservation, now time.Time) error,
) (*Reservation, error) {
	for range maxCASAttempts {
		r, err := s.load(ctx, id, caller)
		if err != nil {
			return nil, err
		}
		now := s.clock.Now()
		if err := check(r, now); err != nil {
			return nil, err
		}

		from := r.Status
		ok, err := retryOnce(func() (bool, error) {
			return s.repo.UpdateStatus(ctx, id, from, to)
		})
		if err != nil {
			return nil, err
		}
		if ok {
			r.Status = to
			r.UpdatedAt = now
			return r, nil
		}
		s.log.Debug().Str("reservation_id", id).Str("from", string(from)).Msg("status changed concurrently, reloading")
	}
	return nil, ErrConcurrentUpdate
}

func (s *service) Delete(ctx context.Context, id string) error {
	_, err := retryOnce(func() (struct{}, error) {
		return struct{}{}, s.repo.Delete(ctx, id)
	})
	s.record("delete", err)
	return err
}

func (s *service) Availability(ctx context.Context, courtID string, date time.Time) ([]TimeSlot, error) {
	c, err := s.catalog.Lookup(ctx, courtID)
	if err != nil {
		return nil, err
	}
	if c.UnderMaintenance {
		return []TimeSlot{}, nil
	}

	date = DateOf(date, time.UTC)
	existing, err := retryOnce(func() ([]*Reservation, error) {
		return s.repo.ListActiveByCourtAndDate(ctx, courtID, date)
	})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	slots := []TimeSlot{}
	for _, free := range CalculateAvailability(s.policy.Open(), s.policy.Close(), existing) {
		for _, slot := range hourlySlots(free) {
			if slot.Start.Hour() > s.policy.LastStartHour || !At(date, slot.Start, s.loc).After(now) {
				continue
			}
			slots = append(slots, slot)
		}
	}
	return slots, nil
}

// hourlySlots splits a free window into the whole hours it contains.
func hourlySlots(free TimeSlot) []TimeSlot {
	var out []TimeSlot
	first := free.Start
	if first.Minute() != 0 {
		first = NewTimeOfDay(first.Hour()+1, 0)
	}
	for start := first; start+60 <= free.End; start += 60 {
		out = append(out, TimeSlot{Start: start, End: start + 60})
	}
	return out
}

func (s *service) EffectiveStatus(r *Reservation) string {
	return EffectiveStatus(r, s.clock.Now(), s.loc)
}

func (s *service) dispatch(ctx context.Context, typ notification.EventType, r *Reservation) {
	if s.events == nil {
		return
	}
	e := notification.Event{
		Type:          typ,
		ReservationID: r.ID,
		UserID:        r.UserID,
		CourtID:       r.CourtID,
		Date:          FormatDate(r.Date),
		StartTime:     r.Start.String(),
		EndTime:       r.End.String(),
		PriceCents:    r.PriceCents,
		Status:        string(r.Status),
		OccurredAt:    s.clock.Now(),
	}
	if err := s.events.Dispatch(ctx, e); err != nil {
		s.log.Warn().Err(err).Str("event", string(typ)).Str("reservation_id", r.ID).Msg("failed to dispatch reservation event")
	}
}
