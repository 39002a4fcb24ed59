package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/polideportivo-booking/internal/auth"
	"github.com/nekogravitycat/polideportivo-booking/internal/user"
)

type stubService struct {
	users map[string]*user.User
	pass  map[string]string
}

func (s *stubService) Register(_ context.Context, req user.RegisterRequest) (*user.User, error) {
	for _, u := range s.users {
		if u.Email == req.Email {
			return nil, user.ErrEmailAlreadyUsed
		}
	}
	u := &user.User{ID: "u-new", Email: req.Email, DisplayName: req.DisplayName, NationalID: req.NationalID, Role: auth.RoleUser, IsActive: true}
	s.users[u.ID] = u
	return u, nil
}

func (s *stubService) Login(_ context.Context, email, password string) (*user.User, error) {
	for id, u := range s.users {
		if u.Email == email {
			if !u.IsActive {
				return nil, user.ErrInactiveUser
			}
			if s.pass[id] != password {
				return nil, user.ErrInvalidCredentials
			}
			return u, nil
		}
	}
	return nil, user.ErrInvalidCredentials
}

func (s *stubService) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func setupRouter(t *testing.T) (*gin.Engine, *auth.JWTManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := &stubService{
		users: map[string]*user.User{
			"u-1": {ID: "u-1", Email: "admin@example.com", DisplayName: "Admin", NationalID: "X1", Role: auth.RoleAdmin, IsActive: true, CreatedAt: time.Now()},
			"u-2": {ID: "u-2", Email: "gone@example.com", DisplayName: "Gone", NationalID: "X2", Role: auth.RoleUser, IsActive: false},
		},
		pass: map[string]string{"u-1": "password1", "u-2": "password2"},
	}
	jwtManager := auth.NewJWTManager("test-secret", time.Minute)

	r := gin.New()
	RegisterRoutes(r.Group("/v1"), NewHandler(svc, jwtManager), auth.AuthRequired(jwtManager))
	return r, jwtManager
}

func doJSON(r *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegister(t *testing.T) {
	r, _ := setupRouter(t)

	t.Run("Created", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/v1/auth/register", gin.H{
			"email": "new@example.com", "password": "longenough", "display_name": "New", "national_id": "Y9",
		}, "")
		require.Equal(t, http.StatusCreated, w.Code)

		var resp MeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "new@example.com", resp.User.Email)
		assert.Equal(t, "user", resp.User.Role)
	})

	t.Run("Duplicate email is a conflict", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/v1/auth/register", gin.H{
			"email": "admin@example.com", "password": "longenough", "display_name": "Dup", "national_id": "Y9",
		}, "")
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Missing national id", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/v1/auth/register", gin.H{
			"email": "x@example.com", "password": "longenough", "display_name": "X",
		}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLoginAndMe(t *testing.T) {
	r, jwtManager := setupRouter(t)

	w := doJSON(r, http.MethodPost, "/v1/auth/login", gin.H{"email": "admin@example.com", "password": "password1"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var login LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	claims, err := jwtManager.ParseAndValidate(login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, auth.RoleAdmin, claims.Role)

	w = doJSON(r, http.MethodGet, "/v1/me", nil, login.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"national_id":"X1"`)

	t.Run("Inactive user looks like bad credentials", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/v1/auth/login", gin.H{"email": "gone@example.com", "password": "password2"}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"invalid email or password"}`, w.Body.String())
	})

	t.Run("Me without token", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/v1/me", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
