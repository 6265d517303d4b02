package property

import (
	"strconv"

	"realestate_backend/internal/common"
	"realestate_backend/internal/image"

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

// RegisterRoutes mounts /properties. optionalAuthMW identifies admins on public routes.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, optionalAuthMW, adminRoleMW gin.HandlerFunc) {
	properties := router.Group("/properties")
	{
		properties.GET("", optionalAuthMW, h.listProperties)
		properties.GET("/featured", h.getFeatured)
		properties.GET("/:id", optionalAuthMW, h.getPropertyByID)

		admin := properties.Group("", authMW, adminRoleMW)
		{
			admin.GET("/stats", h.getStats)
			admin.POST("", h.createProperty)
			admin.PUT("/:id", h.updateProperty)
			admin.PATCH("/:id/status", h.updateStatus)
			admin.DELETE("/:id", h.deleteProperty)
			admin.POST("/:id/images", h.uploadImages)
			admin.DELETE("/:id/images", h.removeImage)
		}
	}
}

func (h *Handler) listProperties(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	f := q.Filter()
	if !common.IsAdmin(c) && (q.Status == "" || q.Status == "all") {
		f.Status = StatusActive
	}

	items, pagination, err := h.service.ListProperties(c.Request.Context(), f)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Properties retrieved successfully.", items, pagination)
}

func (h *Handler) getFeatured(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "6"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("limit must be a number."))
		return
	}
	items, err := h.service.GetFeatured(c.Request.Context(), limit)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Featured properties retrieved successfully.", items)
}

func (h *Handler) getPropertyByID(c *gin.Context) {
	// admins browsing the dashboard do not inflate view counts
	countView := !common.IsAdmin(c)
	p, err := h.service.GetPropertyByID(c.Request.Context(), c.Param("id"), countView)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Property retrieved successfully.", p)
}

func (h *Handler) createProperty(c *gin.Context) {
	var req CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Create property: invalid request body", zap.Error(err))
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	p, err := h.service.CreateProperty(c.Request.Context(), req, common.GetUserIDFromContext(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Property created successfully.", p)
}

func (h *Handler) updateProperty(c *gin.Context) {
	var req UpdatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	p, err := h.service.UpdateProperty(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Property updated successfully.", p)
}

func (h *Handler) updateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	p, err := h.service.UpdatePropertyStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Property status updated successfully.", p)
}

func (h *Handler) deleteProperty(c *gin.Context) {
	if err := h.service.DeleteProperty(c.Request.Context(), c.Param("id")); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Property deleted successfully.", nil)
}

func (h *Handler) uploadImages(c *gin.Context) {
	files, err := image.FormFiles(c, "images", "image")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	p, err := h.service.AddImages(c.Request.Context(), c.Param("id"), files)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Images uploaded successfully.", p)
}

func (h *Handler) removeImage(c *gin.Context) {
	var req RemoveImageRequest
	req.PublicID = c.Query("publicId")
	if req.PublicID == "" {
		if err := c.ShouldBindJSON(&req); err != nil {
			common.RespondWithError(c, common.BindingError(err))
			return
		}
	}
	p, err := h.service.RemoveImage(c.Request.Context(), c.Param("id"), req.PublicID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Image removed successfully.", p)
}

func (h *Handler) getStats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Property statistics retrieved successfully.", stats)
}
