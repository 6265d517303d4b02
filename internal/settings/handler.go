package settings

import (
	"realestate_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts the public GET /settings and the admin /admin/settings.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, adminRoleMW gin.HandlerFunc) {
	router.GET("/settings", h.getPublic)

	admin := router.Group("/admin/settings", authMW, adminRoleMW)
	{
		admin.GET("", h.get)
		admin.PUT("", h.update)
	}
}

func (h *Handler) getPublic(c *gin.Context) {
	st, err := h.service.GetPublic(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Settings retrieved successfully.", st)
}

func (h *Handler) get(c *gin.Context) {
	st, err := h.service.Get(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Settings retrieved successfully.", st)
}

func (h *Handler) update(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	st, err := h.service.Update(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	h.logger.Info("Settings updated by admin", zap.String("adminID", common.GetUserIDFromContext(c)))
	common.RespondOK(c, "Settings updated successfully.", st)
}
