package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name                         string
		total                        int64
		page, limit                  int
		wantPages                    int
		wantHasNext, wantHasPrev     bool
	}{
		{"no items", 0, 1, 10, 0, false, false},
		{"exact multiple", 20, 1, 10, 2, true, false},
		{"remainder rounds up", 21, 3, 10, 3, false, true},
		{"single partial page", 3, 1, 10, 1, false, false},
		{"defaults for bad input", 5, 0, 0, 1, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.total, tt.page, tt.limit)
			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.Equal(t, tt.wantHasNext, p.HasNext)
			assert.Equal(t, tt.wantHasPrev, p.HasPrev)
		})
	}
}

func TestPagination_PageBounds(t *testing.T) {
	p := NewPagination(25, 3, 10)
	start, end := p.PageBounds(25)
	assert.Equal(t, 20, start)
	assert.Equal(t, 25, end)

	p = NewPagination(25, 9, 10)
	start, end = p.PageBounds(25)
	assert.Equal(t, start, end)
}

func TestGetPaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		query     string
		wantPage  int
		wantLimit int
	}{
		{"", 1, 10},
		{"?page=3&limit=20", 3, 20},
		{"?page=-1&limit=abc", 1, 10},
		{"?limit=1000", 1, 100},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
		page, limit := GetPaginationParams(c)
		assert.Equal(t, tt.wantPage, page, tt.query)
		assert.Equal(t, tt.wantLimit, limit, tt.query)
	}
}

func TestRespondWithError_Envelope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	RespondWithError(c, fmt.Errorf("wrapped: %w", ErrNotFound.WithDetails("Property not found.")))

	assert.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "NOT_FOUND", body["error"])
	assert.Equal(t, "Property not found.", body["details"])

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	RespondWithError(c, errors.New("db exploded"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body = map[string]interface{}{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_SERVER_ERROR", body["error"])
	assert.Nil(t, body["details"], "internal details are hidden outside debug mode")
}

func TestWithDetailsDoesNotMutateShared(t *testing.T) {
	_ = ErrBadRequest.WithDetails("x")
	assert.Nil(t, ErrBadRequest.Details)
}

func TestValidateStruct(t *testing.T) {
	type req struct {
		Rating  int    `json:"rating" binding:"required,min=1,max=5"`
		Comment string `json:"comment" binding:"required,min=10"`
	}

	err := ValidateStruct(req{Rating: 6, Comment: "short"})
	apiErr, ok := IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	details := apiErr.Details.(map[string]string)
	assert.Contains(t, details, "rating")
	assert.Contains(t, details, "comment")

	assert.NoError(t, ValidateStruct(req{Rating: 5, Comment: "Lovely place to live"}))
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("correct horse", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestGetTokenFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := map[string]string{
		"":                  "",
		"Bearer":            "",
		"Basic abc":         "",
		"Bearer abc.def":    "abc.def",
		"bearer  abc.def  ": "abc.def",
	}
	for header, want := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			c.Request.Header.Set(AuthorizationHeader, header)
		}
		assert.Equal(t, want, GetTokenFromContext(c), "header %q", header)
	}
}

func TestIsAdmin(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.False(t, IsAdmin(c))
	assert.Empty(t, GetUserIDFromContext(c))

	c.Set(UserIDKey, "u1")
	c.Set(UserRoleKey, RoleAdmin)
	assert.True(t, IsAdmin(c))
	assert.Equal(t, "u1", GetUserIDFromContext(c))
}
