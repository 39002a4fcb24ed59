package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/polideportivo-booking/internal/auth"
	"github.com/nekogravitycat/polideportivo-booking/internal/reservation"
	"github.com/nekogravitycat/polideportivo-booking/internal/user"
)

const (
	reservationID = "0d6f3c1e-7a0b-4c7e-9f1d-3e2a1b0c9d8e"
	courtID       = "6a1e2b3c-4d5e-4f60-8a9b-0c1d2e3f4a5b"
	userID        = "9f8e7d6c-5b4a-4392-8170-6f5e4d3c2b1a"
)

type stubService struct {
	created   reservation.CreateRequest
	cancelErr error
}

func sample() *reservation.Reservation {
	return &reservation.Reservation{
		ID:             reservationID,
		UserID:         userID,
		UserName:       "Ana",
		UserNationalID: "12345678Z",
		CourtID:        courtID,
		CourtName:      "Pista 1",
		VenueID:        "venue-1",
		Date:           time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC),
		Start:          reservation.NewTimeOfDay(10, 0),
		End:            reservation.NewTimeOfDay(13, 0),
		AddOns:         []string{"childcare"},
		PriceCents:     3500,
		Status:         reservation.StatusPending,
	}
}

func (s *stubService) Estimate(_ context.Context, req reservation.EstimateRequest) (int64, error) {
	return int64(req.End.Hour()-req.Start.Hour()) * 1000, nil
}

func (s *stubService) Create(_ context.Context, req reservation.CreateRequest) (*reservation.Reservation, error) {
	s.created = req
	if req.Start == reservation.NewTimeOfDay(18, 0) {
		return nil, reservation.ErrSlotTaken
	}
	return sample(), nil
}

func (s *stubService) GetByID(_ context.Context, id string, caller auth.Caller) (*reservation.Reservation, error) {
	if id != reservationID {
		return nil, reservation.ErrNotFound
	}
	if caller.UserID != userID && !caller.IsAdmin() {
		return nil, reservation.ErrPermissionDenied
	}
	return sample(), nil
}

func (s *stubService) ListForUser(_ context.Context, _ string) (*reservation.UserReservations, error) {
	past := sample()
	past.Status = reservation.StatusCancelled
	return &reservation.UserReservations{
		Active:  []*reservation.Reservation{sample()},
		History: []*reservation.Reservation{past},
	}, nil
}

func (s *stubService) List(_ context.Context, _ reservation.Filter) ([]*reservation.Reservation, int, error) {
	return []*reservation.Reservation{sample()}, 1, nil
}

func (s *stubService) Cancel(_ context.Context, _ string, _ auth.Caller) (*reservation.Reservation, error) {
	if s.cancelErr != nil {
		return nil, s.cancelErr
	}
	r := sample()
	r.Status = reservation.StatusCancelled
	return r, nil
}

func (s *stubService) Pay(_ context.Context, _ string, _ auth.Caller) (*reservation.Reservation, error) {
	return nil, reservation.ErrNotPayable
}

func (s *stubService) Delete(_ context.Context, _ string) error {
	return nil
}

func (s *stubService) Availability(_ context.Context, id string, _ time.Time) ([]reservation.TimeSlot, error) {
	return []reservation.TimeSlot{{Start: reservation.NewTimeOfDay(8, 0), End: reservation.NewTimeOfDay(9, 0)}}, nil
}

func (s *stubService) EffectiveStatus(r *reservation.Reservation) string {
	if r.Status == reservation.StatusCancelled {
		return reservation.EffectiveCancelled
	}
	return reservation.EffectivePending
}

type stubUsers struct {
	user.Service
	inactive bool
	missing  bool
}

func (s stubUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	if s.missing {
		return nil, user.ErrNotFound
	}
	return &user.User{ID: id, DisplayName: "Ana", NationalID: "12345678Z", Role: auth.RoleUser, IsActive: !s.inactive}, nil
}

func setupRouter(svc reservation.Service, caller auth.Caller) *gin.Engine {
	return setupRouterWithUsers(svc, stubUsers{}, caller)
}

func setupRouterWithUsers(svc reservation.Service, users user.Service, caller auth.Caller) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	authenticate := func(c *gin.Context) {
		auth.SetCaller(c, caller)
		c.Next()
	}
	admin := func(c *gin.Context) {
		if !caller.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
	RegisterRoutes(r.Group("/v1"), NewHandler(svc, users), authenticate, admin)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

var (
	owner     = auth.Caller{UserID: userID, Role: auth.RoleUser}
	stranger  = auth.Caller{UserID: "1c2d3e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f", Role: auth.RoleUser}
	adminUser = auth.Caller{UserID: "2c2d3e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f", Role: auth.RoleAdmin}
)

func TestReservationHandler_Routes(t *testing.T) {
	tests := []struct {
		name   string
		caller auth.Caller
		svc    *stubService
		method string
		path   string
		body   string
		want   int
	}{
		{"Estimate", owner, &stubService{}, http.MethodPost, "/v1/reservations/estimate", `{"court_id":"` + courtID + `","start_time":"10:00","end_time":"13:00"}`, http.StatusOK},
		{"Estimate bad time", owner, &stubService{}, http.MethodPost, "/v1/reservations/estimate", `{"court_id":"` + courtID + `","start_time":"10h","end_time":"13:00"}`, http.StatusBadRequest},
		{"Create missing date", owner, &stubService{}, http.MethodPost, "/v1/reservations", `{"court_id":"` + courtID + `","start_time":"10:00","end_time":"13:00"}`, http.StatusBadRequest},
		{"Create slot taken", owner, &stubService{}, http.MethodPost, "/v1/reservations", `{"court_id":"` + courtID + `","date":"2026-05-05","start_time":"18:00","end_time":"19:00"}`, http.StatusConflict},
		{"Get as owner", owner, &stubService{}, http.MethodGet, "/v1/reservations/" + reservationID, "", http.StatusOK},
		{"Get as stranger", stranger, &stubService{}, http.MethodGet, "/v1/reservations/" + reservationID, "", http.StatusForbidden},
		{"Get invalid id", owner, &stubService{}, http.MethodGet, "/v1/reservations/abc", "", http.StatusBadRequest},
		{"Pay not payable", owner, &stubService{}, http.MethodPost, "/v1/reservations/" + reservationID + "/pay", "", http.StatusConflict},
		{"Cancel already cancelled", owner, &stubService{cancelErr: reservation.ErrAlreadyCancelled}, http.MethodPost, "/v1/reservations/" + reservationID + "/cancel", "", http.StatusConflict},
		{"Cancel already past", owner, &stubService{cancelErr: reservation.ErrAlreadyPast}, http.MethodPost, "/v1/reservations/" + reservationID + "/cancel", "", http.StatusForbidden},
		{"List requires admin", owner, &stubService{}, http.MethodGet, "/v1/reservations", "", http.StatusForbidden},
		{"List", adminUser, &stubService{}, http.MethodGet, "/v1/reservations?status=paid&date_from=2026-05-01&date_to=2026-05-31", "", http.StatusOK},
		{"List inverted dates", adminUser, &stubService{}, http.MethodGet, "/v1/reservations?date_from=2026-06-01&date_to=2026-05-31", "", http.StatusBadRequest},
		{"List unknown status", adminUser, &stubService{}, http.MethodGet, "/v1/reservations?status=archived", "", http.StatusBadRequest},
		{"Delete requires admin", owner, &stubService{}, http.MethodDelete, "/v1/reservations/" + reservationID, "", http.StatusForbidden},
		{"Delete", adminUser, &stubService{}, http.MethodDelete, "/v1/reservations/" + reservationID, "", http.StatusNoContent},
		{"Availability requires date", owner, &stubService{}, http.MethodGet, "/v1/courts/" + courtID + "/availability", "", http.StatusBadRequest},
		{"Availability", owner, &stubService{}, http.MethodGet, "/v1/courts/" + courtID + "/availability?date=2026-05-05", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(setupRouter(tt.svc, tt.caller), tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestReservationHandler_Create(t *testing.T) {
	svc := &stubService{}
	w := do(setupRouter(svc, owner), http.MethodPost, "/v1/reservations",
		`{"court_id":"`+courtID+`","date":"2026-05-05","start_time":"10:00","end_time":"13:00","add_ons":["childcare"]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	assert.Equal(t, userID, svc.created.UserID)
	assert.Equal(t, "Ana", svc.created.UserName)
	assert.Equal(t, "12345678Z", svc.created.UserNationalID)
	assert.Equal(t, reservation.NewTimeOfDay(10, 0), svc.created.Start)
	assert.Equal(t, []string{"childcare"}, svc.created.AddOns)

	var body ReservationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, reservationID, body.ID)
	assert.Equal(t, "2026-05-05", body.Date)
	assert.Equal(t, "10:00", body.StartTime)
	assert.Equal(t, "13:00", body.EndTime)
	assert.Equal(t, int64(3500), body.PriceCents)
	assert.Equal(t, "pending", body.Status)
	assert.Equal(t, "Pending", body.EffectiveStatus)
	assert.Equal(t, "Pista 1", body.Court.Name)
}

func TestReservationHandler_CreateRequiresActiveUser(t *testing.T) {
	body := `{"court_id":"` + courtID + `","date":"2026-05-05","start_time":"10:00","end_time":"11:00"}`

	tests := []struct {
		name  string
		users stubUsers
	}{
		{"Deactivated user", stubUsers{inactive: true}},
		{"Deleted user", stubUsers{missing: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{}
			w := do(setupRouterWithUsers(svc, tt.users, owner), http.MethodPost, "/v1/reservations", body)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Empty(t, svc.created.UserID)
		})
	}
}

func TestReservationHandler_CancelTooClose(t *testing.T) {
	svc := &stubService{cancelErr: reservation.ErrTooCloseToStart.WithMessage(
		"reservations can only be cancelled up to 1 hour before start; 42 minutes remain")}
	w := do(setupRouter(svc, owner), http.MethodPost, "/v1/reservations/"+reservationID+"/cancel", "")

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"reservations can only be cancelled up to 1 hour before start; 42 minutes remain"}`, w.Body.String())
}

func TestReservationHandler_Me(t *testing.T) {
	w := do(setupRouter(&stubService{}, owner), http.MethodGet, "/v1/reservations/me", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body MyReservationsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Active, 1)
	require.Len(t, body.History, 1)
	assert.Equal(t, "Pending", body.Active[0].EffectiveStatus)
	assert.Equal(t, "Cancelled", body.History[0].EffectiveStatus)
}

func TestReservationHandler_Availability(t *testing.T) {
	w := do(setupRouter(&stubService{}, owner), http.MethodGet, "/v1/courts/"+courtID+"/availability?date=2026-05-05", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"court_id":"`+courtID+`","date":"2026-05-05","slots":[{"start_time":"08:00","end_time":"09:00"}]}`,
		w.Body.String())
}

func TestReservationHandler_MalformedCaller(t *testing.T) {
	r := setupRouter(&stubService{}, auth.Caller{UserID: "not-a-uuid", Role: auth.RoleUser})

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/v1/reservations/me", "").Code)
	w := do(r, http.MethodPost, "/v1/reservations",
		`{"court_id":"`+courtID+`","date":"2026-05-05","start_time":"10:00","end_time":"11:00"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
