package inquiry

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"realestate_backend/internal/common"
	"realestate_backend/internal/platform/database"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testAuth(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Test-User")
		if id == "" {
			if required {
				common.RespondWithError(c, common.ErrUnauthorized)
				return
			}
			c.Next()
			return
		}
		c.Set(common.UserIDKey, id)
		c.Set(common.UserRoleKey, c.GetHeader("X-Test-Role"))
		c.Next()
	}
}

func testAdminOnly(c *gin.Context) {
	if !common.IsAdmin(c) {
		common.RespondWithError(c, common.ErrForbidden)
		return
	}
	c.Next()
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	common.ConfigureBindingValidator()

	db, err := database.NewSQLiteInMemory()
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Inquiry{}))

	properties := new(MockPropertyLookup)
	properties.On("ResolvePropertyID", mock.Anything, mock.Anything).Return("prop-1", nil)
	properties.On("GetPropertyTitle", mock.Anything, "prop-1").Return("Corner House", nil)
	notifier := new(MockNotifier)
	notifier.On("SendInquiryReply", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()

	svc := NewService(NewGORMRepository(db), properties, stubUsers{}, staticRecipient(""), notifier, zap.NewNop())
	r := gin.New()
	NewHandler(svc, zap.NewNop()).RegisterRoutes(r.Group("/api"), testAuth(true), testAuth(false), testAdminOnly)
	return r
}

func do(r *gin.Engine, method, path, userID, role, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-Test-User", userID)
		req.Header.Set("X-Test-Role", role)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_InquiryLifecycle(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodPost, "/api/inquiries", "", "", `{"propertyId":"PROP-00001","name":"A","email":"bad"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/inquiries", "u1", common.RoleUser,
		`{"propertyId":"PROP-00001","name":"Alex Kim","email":"alex@example.com","message":"Is parking included?"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Data InquiryResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "u1", created.Data.UserID)
	id := created.Data.ID

	w = do(r, http.MethodGet, "/api/inquiries", "u1", common.RoleUser, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodGet, "/api/inquiries/my", "u1", common.RoleUser, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/api/inquiries/"+id+"/respond", "admin-1", common.RoleAdmin, `{"message":"Yes, one space."}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPatch, "/api/inquiries/"+id+"/status", "admin-1", common.RoleAdmin, `{"status":"archived"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPatch, "/api/inquiries/"+id+"/status", "admin-1", common.RoleAdmin, `{"status":"closed"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/api/inquiries/"+id+"/reply", "u1", common.RoleUser, `{"message":"Thanks!"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/inquiries/"+id, "u2", common.RoleUser, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodDelete, "/api/inquiries/"+id, "admin-1", common.RoleAdmin, "")
	assert.Equal(t, http.StatusOK, w.Code)
}
