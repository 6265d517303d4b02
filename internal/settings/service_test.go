package settings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"realestate_backend/internal/common"
	"realestate_backend/internal/config"
	"realestate_backend/internal/platform/cache"
	"realestate_backend/internal/platform/database"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, fallback string) *ServiceImplementation {
	t.Helper()
	db, err := database.NewSQLiteInMemory()
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Settings{}))

	readCache := cache.NewTiered(cache.NewMemoryKV(time.Minute), time.Minute, time.Second, 100, zap.NewNop())
	t.Cleanup(readCache.Stop)
	return NewService(NewGORMRepository(db), readCache, &config.Config{AdminNotificationEmail: fallback}, zap.NewNop())
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool     { return &b }

func TestGet_ReturnsDefaultsBeforeFirstSave(t *testing.T) {
	svc := newTestService(t, "")
	st, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Real Estate", st.SiteName)
	assert.True(t, st.Notifications.NewInquiry)
	assert.Equal(t, "Closed", st.BusinessHours["sunday"])
}

func TestUpdate_MergesPartially(t *testing.T) {
	svc := newTestService(t, "")
	ctx := context.Background()

	_, err := svc.Update(ctx, UpdateSettingsRequest{
		SiteName: strPtr("Harbour Homes"),
		Social:   &SocialLinksInput{Instagram: strPtr("https://instagram.com/harbour")},
	})
	require.NoError(t, err)

	// cached read must see the write
	_, err = svc.Get(ctx)
	require.NoError(t, err)

	st, err := svc.Update(ctx, UpdateSettingsRequest{
		ContactEmail:  strPtr("office@harbour.test"),
		BusinessHours: map[string]string{"sunday": "", "saturday": "10:00 - 16:00"},
		Notifications: &NotificationsInput{NewReview: boolPtr(false)},
	})
	require.NoError(t, err)
	assert.Equal(t, "Harbour Homes", st.SiteName)

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Harbour Homes", got.SiteName)
	assert.Equal(t, "office@harbour.test", got.ContactEmail)
	assert.Equal(t, "https://instagram.com/harbour", got.Social.Instagram)
	assert.Equal(t, "10:00 - 16:00", got.BusinessHours["saturday"])
	assert.NotContains(t, got.BusinessHours, "sunday")
	assert.False(t, got.Notifications.NewReview)
	assert.True(t, got.Notifications.NewInquiry)

	pub, err := svc.GetPublic(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Harbour Homes", pub.SiteName)
}

func TestInquiryAlertRecipient(t *testing.T) {
	svc := newTestService(t, "fallback@example.com")
	ctx := context.Background()

	assert.Equal(t, "fallback@example.com", svc.InquiryAlertRecipient(ctx))

	_, err := svc.Update(ctx, UpdateSettingsRequest{ContactEmail: strPtr("desk@example.com")})
	require.NoError(t, err)
	assert.Equal(t, "desk@example.com", svc.InquiryAlertRecipient(ctx))

	_, err = svc.Update(ctx, UpdateSettingsRequest{Notifications: &NotificationsInput{NewInquiry: boolPtr(false)}})
	require.NoError(t, err)
	assert.Empty(t, svc.InquiryAlertRecipient(ctx))
}

func TestHandler_PublicAndAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	common.ConfigureBindingValidator()
	svc := newTestService(t, "")

	adminOnly := func(c *gin.Context) {
		if c.GetHeader("X-Test-Role") != common.RoleAdmin {
			common.RespondWithError(c, common.ErrForbidden)
			return
		}
		c.Next()
	}
	r := gin.New()
	NewHandler(svc, zap.NewNop()).RegisterRoutes(r.Group("/api"), func(c *gin.Context) { c.Next() }, adminOnly)

	do := func(method, path, role, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", role)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := do(http.MethodPut, "/api/admin/settings", common.RoleUser, `{"siteName":"Nope"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(http.MethodPut, "/api/admin/settings", common.RoleAdmin, `{"contactEmail":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(http.MethodPut, "/api/admin/settings", common.RoleAdmin, `{"siteName":"Open House","notifications":{"newUser":false}}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(http.MethodGet, "/api/settings", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Open House", body.Data["siteName"])
	assert.NotContains(t, body.Data, "notifications")
}
