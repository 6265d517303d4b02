package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"realestate_backend/internal/common"
	"realestate_backend/internal/middleware"
	"realestate_backend/internal/otp"
	"realestate_backend/internal/platform/cache"
	"realestate_backend/internal/platform/database"
	"realestate_backend/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRouter(t *testing.T) (*gin.Engine, *codeCatcher) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	common.ConfigureBindingValidator()

	db, err := database.NewSQLiteInMemory()
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&user.User{}))
	users := user.NewGORMRepository(db)
	kv := cache.NewMemoryKV(time.Minute)
	codes := &codeCatcher{codes: map[string]string{}}
	tokens := NewJWTService(testConfig(), zap.NewNop())

	svc := NewService(users, user.NewService(users, nil, zap.NewNop()), tokens,
		NewKVBlocklistService(kv), otp.NewStore(kv, zap.NewNop()), codes, nil, zap.NewNop())

	r := gin.New()
	NewHandler(svc, zap.NewNop()).RegisterRoutes(r.Group("/api"), middleware.AuthMiddleware(tokens, zap.NewNop()))
	return r, codes
}

func post(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type authEnvelope struct {
	Success bool       `json:"success"`
	Data    AuthResult `json:"data"`
}

func TestHandler_RegisterMeLogout(t *testing.T) {
	r, codes := setupRouter(t)

	w := post(r, http.MethodPost, "/api/auth/register", "", `{"firstName":"Ivy","email":"ivy@example.com","password":"short"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = post(r, http.MethodPost, "/api/auth/register", "", `{"firstName":"Ivy","email":"ivy@example.com","password":"long-enough"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var reg authEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reg))
	assert.NotContains(t, w.Body.String(), "passwordHash")

	w = post(r, http.MethodGet, "/api/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post(r, http.MethodGet, "/api/auth/me", reg.Data.Token.AccessToken, "")
	assert.Equal(t, http.StatusOK, w.Code)

	code := codes.code("ivy@example.com", otp.PurposeEmailVerification)
	w = post(r, http.MethodPost, "/api/auth/verify-email", "", `{"email":"ivy@example.com","otp":"`+code+`"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	body := `{"refreshToken":"` + reg.Data.Token.RefreshToken + `"}`
	w = post(r, http.MethodPost, "/api/auth/logout", reg.Data.Token.AccessToken, body)
	require.Equal(t, http.StatusOK, w.Code)

	w = post(r, http.MethodPost, "/api/auth/refresh-token", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_FirebaseDisabled(t *testing.T) {
	r, _ := setupRouter(t)
	w := post(r, http.MethodPost, "/api/auth/firebase", "", `{"idToken":"abc"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandler_ForgotPasswordUnknownEmail(t *testing.T) {
	r, _ := setupRouter(t)
	w := post(r, http.MethodPost, "/api/auth/forgot-password", "", `{"email":"ghost@example.com"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
