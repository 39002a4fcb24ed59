package reservation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nekogravitycat/polideportivo-booking/internal/court"
	"github.com/nekogravitycat/polideportivo-booking/internal/notification"
)

var errConnReset = errors.New("connection reset by peer")

// memRepository is an in-memory Repository. CreateIfFree holds the mutex
// across check and insert, like the advisory lock in Postgres.
type memRepository struct {
	mu     sync.Mutex
	byID   map[string]*Reservation
	nextID int

	// failures makes the next n calls of an operation fail transiently.
	failures map[string]int
	// lostAcks makes the next n creates store the row and still report a
	// transient failure, like a commit whose acknowledgement never arrives.
	lostAcks int
	// deletedCourts are courts removed after the catalog lookup.
	deletedCourts map[string]bool
	// loseCAS makes the next n UpdateStatus calls report a lost compare-and-set.
	loseCAS int
	// beforeUpdate runs once, unlocked, ahead of the next UpdateStatus.
	beforeUpdate func()

	calls map[string]int
}

func newMemRepository() *memRepository {
	return &memRepository{
		byID:          map[string]*Reservation{},
		failures:      map[string]int{},
		calls:         map[string]int{},
		deletedCourts: map[string]bool{},
	}
}

func (m *memRepository) fail(op string) error {
	m.calls[op]++
	if m.failures[op] > 0 {
		m.failures[op]--
		return fmt.Errorf("%s failed: %w: %w", op, ErrTransientStore, errConnReset)
	}
	return nil
}

func clone(r *Reservation) *Reservation {
	cp := *r
	cp.AddOns = append([]string{}, r.AddOns...)
	return &cp
}

func (m *memRepository) activeOn(courtID string, date time.Time) []*Reservation {
	var out []*Reservation
	for _, r := range m.byID {
		if r.CourtID == courtID && r.Date.Equal(date) && r.Status.Active() {
			out = append(out, clone(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func (m *memRepository) CreateIfFree(_ context.Context, r *Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("create"); err != nil {
		return err
	}
	if r.ID != "" {
		if stored, ok := m.byID[r.ID]; ok {
			r.CreatedAt, r.UpdatedAt = stored.CreatedAt, stored.UpdatedAt
			return nil
		}
	}
	if m.deletedCourts[r.CourtID] {
		return ErrResourceUnavailable
	}
	if FindConflict(m.activeOn(r.CourtID, r.Date), r.Start, r.End) != nil {
		return ErrSlotTaken
	}
	if r.ID == "" {
		m.nextID++
		r.ID = fmt.Sprintf("res-%d", m.nextID)
	}
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	m.byID[r.ID] = clone(r)
	if m.lostAcks > 0 {
		m.lostAcks--
		return fmt.Errorf("create failed: %w: %w", ErrTransientStore, errConnReset)
	}
	return nil
}

func (m *memRepository) GetByID(_ context.Context, id string) (*Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("get"); err != nil {
		return nil, err
	}
	r, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(r), nil
}

func (m *memRepository) ListActiveByCourtAndDate(_ context.Context, courtID string, date time.Time) ([]*Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("list_day"); err != nil {
		return nil, err
	}
	return m.activeOn(courtID, date), nil
}

func (m *memRepository) ListActiveByCourtSince(_ context.Context, courtID string, from time.Time) ([]*Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Reservation
	for _, r := range m.byID {
		if r.CourtID == courtID && !r.Date.Before(from) && r.Status.Active() {
			out = append(out, clone(r))
		}
	}
	return out, nil
}

func (m *memRepository) ListByUser(_ context.Context, userID string) ([]*Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Reservation
	for _, r := range m.byID {
		if r.UserID == userID {
			out = append(out, clone(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Start < out[j].Start
	})
	return out, nil
}

func (m *memRepository) List(_ context.Context, filter Filter) ([]*Reservation, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Reservation
	for _, r := range m.byID {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.CourtID != "" && r.CourtID != filter.CourtID {
			continue
		}
		out = append(out, clone(r))
	}
	return out, len(out), nil
}

func (m *memRepository) UpdateStatus(_ context.Context, id string, from, to Status) (bool, error) {
	m.mu.Lock()
	hook := m.beforeUpdate
	m.beforeUpdate = nil
	m.mu.Unlock()
	if hook != nil {
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("update"); err != nil {
		return false, err
	}
	if m.loseCAS > 0 {
		m.loseCAS--
		return false, nil
	}
	r, ok := m.byID[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	return true, nil
}

func (m *memRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

// setStatus changes a stored status behind the service's back.
func (m *memRepository) setStatus(id string, s Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[id].Status = s
}

type fakeCatalog map[string]*court.Court

func (f fakeCatalog) Lookup(_ context.Context, id string) (*court.Court, error) {
	c, ok := f[id]
	if !ok {
		return nil, court.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []notification.Event
	err    error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, e notification.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
	return d.err
}

func (d *recordingDispatcher) types() []notification.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]notification.EventType, len(d.events))
	for i, e := range d.events {
		out[i] = e.Type
	}
	return out
}
