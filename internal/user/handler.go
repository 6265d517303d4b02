package user

import (
	"realestate_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for user handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new user handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes mounts the self-service routes under /users and user
// management under /admin/users.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, adminRoleMW gin.HandlerFunc) {
	users := router.Group("/users", authMW)
	{
		users.GET("/profile", h.getProfile)
		users.PUT("/profile", h.updateProfile)
		users.DELETE("/profile", h.deleteAccount)
		users.PUT("/preferences", h.updatePreferences)
		users.GET("/saved", h.listSaved)
		users.POST("/saved/:propertyId", h.saveProperty)
		users.DELETE("/saved/:propertyId", h.unsaveProperty)
	}

	admin := router.Group("/admin/users", authMW, adminRoleMW)
	{
		admin.GET("", h.listUsers)
		admin.GET("/:id", h.getUser)
		admin.PATCH("/:id", h.adminUpdateUser)
		admin.DELETE("/:id", h.deleteUser)
	}
}

func (h *Handler) getProfile(c *gin.Context) {
	usr, err := h.service.GetUserByID(c.Request.Context(), common.GetUserIDFromContext(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "User profile retrieved successfully.", ToUserResponse(usr))
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	usr, err := h.service.UpdateProfile(c.Request.Context(), common.GetUserIDFromContext(c), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Profile updated successfully.", ToUserResponse(usr))
}

func (h *Handler) updatePreferences(c *gin.Context) {
	var req UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	usr, err := h.service.UpdatePreferences(c.Request.Context(), common.GetUserIDFromContext(c), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Preferences updated successfully.", usr.Preferences)
}

func (h *Handler) deleteAccount(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	if err := h.service.DeleteAccount(c.Request.Context(), userID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	h.logger.Info("User deleted own account", zap.String("userID", userID))
	common.RespondOK(c, "Account deleted successfully.", nil)
}

func (h *Handler) listSaved(c *gin.Context) {
	props, err := h.service.ListSaved(c.Request.Context(), common.GetUserIDFromContext(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Saved properties retrieved successfully.", props)
}

func (h *Handler) saveProperty(c *gin.Context) {
	saved, err := h.service.SaveProperty(c.Request.Context(), common.GetUserIDFromContext(c), c.Param("propertyId"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Property saved.", gin.H{"savedProperties": saved})
}

func (h *Handler) unsaveProperty(c *gin.Context) {
	saved, err := h.service.UnsaveProperty(c.Request.Context(), common.GetUserIDFromContext(c), c.Param("propertyId"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Property removed from saved list.", gin.H{"savedProperties": saved})
}

func (h *Handler) listUsers(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	f := q.Filter()
	users, pagination, err := h.service.ListUsers(c.Request.Context(), f)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Users retrieved successfully.", ToUserResponses(users), pagination)
}

func (h *Handler) getUser(c *gin.Context) {
	usr, err := h.service.GetUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "User retrieved successfully.", ToUserResponse(usr))
}

func (h *Handler) adminUpdateUser(c *gin.Context) {
	var req AdminUpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	usr, err := h.service.AdminUpdateUser(c.Request.Context(), c.Param("id"), common.GetUserIDFromContext(c), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "User updated successfully.", ToUserResponse(usr))
}

func (h *Handler) deleteUser(c *gin.Context) {
	if err := h.service.DeleteUser(c.Request.Context(), c.Param("id"), common.GetUserIDFromContext(c)); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "User deleted successfully.", nil)
}
