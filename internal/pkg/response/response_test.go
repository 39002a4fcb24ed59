package response

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/nekogravitycat/polideportivo-booking/internal/pkg/apperror"
)

func TestError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"App error", apperror.New(http.StatusConflict, "time slot already booked"), http.StatusConflict, `{"error":"time slot already booked"}`},
		{"Wrapped app error", fmt.Errorf("create: %w", apperror.New(http.StatusNotFound, "not found")), http.StatusNotFound, `{"error":"not found"}`},
		{"Server app error", apperror.New(http.StatusServiceUnavailable, "storage temporarily unavailable"), http.StatusServiceUnavailable, `{"error":"storage temporarily unavailable"}`},
		{"Plain error", errors.New("pq: relation does not exist"), http.StatusInternalServerError, `{"error":"internal server error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			Error(c, tt.err)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestPage(t *testing.T) {
	p := NewPageResponse[int](nil, 0, 0, 0)
	assert.Equal(t, []int{}, p.Items)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, defaultPageSize, p.PageSize)

	assert.Equal(t, uint64(0), Offset(1, 20))
	assert.Equal(t, uint64(40), Offset(3, 20))
	assert.Equal(t, uint64(0), Offset(-1, 0))
}
