package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"realestate_backend/internal/admin"
	"realestate_backend/internal/auth"
	"realestate_backend/internal/config"
	"realestate_backend/internal/image"
	"realestate_backend/internal/inquiry"
	"realestate_backend/internal/notification"
	"realestate_backend/internal/otp"
	"realestate_backend/internal/platform/cache"
	"realestate_backend/internal/platform/database"
	"realestate_backend/internal/platform/messaging"
	"realestate_backend/internal/property"
	"realestate_backend/internal/review"
	"realestate_backend/internal/settings"
	"realestate_backend/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type discardSender struct{}

func (discardSender) Send(context.Context, notification.Message) error { return nil }

// newTestRouter assembles the application on in-memory sqlite and the memory KV.
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	cfg := &config.Config{
		GinMode:               gin.TestMode,
		JWTSecretKey:          "test-secret",
		JWTAccessTokenExpiry:  15 * time.Minute,
		JWTRefreshTokenExpiry: 24 * time.Hour,
		ResetTokenExpiry:      15 * time.Minute,
		OTPTTL:                10 * time.Minute,
		OTPMaxAttempts:        3,
		PropertyCacheTTL:      time.Minute,
		ImageStorageDriver:    config.ImageDriverLocal,
		ImageStoragePath:      t.TempDir(),
	}

	db, err := database.NewSQLiteInMemory()
	require.NoError(t, err)
	require.NoError(t, Migrate(db, logger))

	kv := cache.NewMemoryKV(time.Minute)
	readCache := cache.NewReadCache(cfg, kv, logger)
	t.Cleanup(func() {
		readCache.Stop()
		_ = kv.Close()
		database.Close(db, logger)
	})

	images, err := image.NewLocalStore(cfg.ImageStoragePath, "", 5<<20, logger)
	require.NoError(t, err)
	notifier := notification.NewService(discardSender{}, logger)

	propertyRepo := property.NewGORMRepository(db)
	indexer := property.NewIndexer(nil, cfg, logger)
	syncer := property.NewIndexSyncer(propertyRepo, indexer, logger)
	properties := property.NewService(propertyRepo, readCache, messaging.NewDirectPublisher(syncer.Handle), indexer, images, logger)

	userRepo := user.NewGORMRepository(db)
	users := user.NewService(userRepo, properties, logger)
	site := settings.NewService(settings.NewGORMRepository(db), readCache, cfg, logger)
	reviews := review.NewService(review.NewGORMRepository(db), properties, users, logger)
	inquiries := inquiry.NewService(inquiry.NewGORMRepository(db), properties, users, site, notifier, logger)

	tokens := auth.NewJWTService(cfg, logger)
	authService := auth.NewService(userRepo, users, tokens, auth.NewKVBlocklistService(kv),
		otp.NewStoreFromConfig(cfg, kv, logger), notifier, nil, logger)

	handlers := Handlers{
		Auth:     auth.NewHandler(authService, logger),
		User:     user.NewHandler(users, logger),
		Property: property.NewHandler(properties, logger),
		Review:   review.NewHandler(reviews, logger),
		Inquiry:  inquiry.NewHandler(inquiries, logger),
		Settings: settings.NewHandler(site, logger),
		Admin:    admin.NewHandler(admin.NewService(properties, inquiries, reviews, users, logger), logger),
		Image:    image.NewHandler(images, logger),
	}
	return NewRouter(cfg, logger, handlers, tokens)
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
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

func TestHealth(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"UP"}`, w.Body.String())
}

func TestUnknownRouteAndMethod(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)

	w = doJSON(t, r, http.MethodPut, "/health", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, w.Body.String(), "METHOD_NOT_ALLOWED")
}

func TestRegisterLoginAndAuthorize(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", map[string]string{
		"firstName": "Sam",
		"email":     "sam@example.com",
		"password":  "correct-horse",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "SAM@example.com",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var login struct {
		Data auth.AuthResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	token := login.Data.Token.AccessToken
	require.NotEmpty(t, token)

	w = doJSON(t, r, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sam@example.com")

	w = doJSON(t, r, http.MethodGet, "/api/admin/dashboard", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/admin/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPublicEndpoints(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/settings", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/properties", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pagination"`)

	w = doJSON(t, r, http.MethodGet, "/api/properties/reviews/public", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
