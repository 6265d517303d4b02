package review

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

// RegisterRoutes mounts public review listings under /properties, the
// reviewer's own routes under /users/reviews and moderation under /admin/reviews.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, adminRoleMW gin.HandlerFunc) {
	router.GET("/properties/reviews/public", h.listApproved)
	router.GET("/properties/:id/reviews", h.listForProperty)

	mine := router.Group("/users/reviews", authMW)
	{
		mine.POST("", h.createReview)
		mine.GET("", h.listMine)
		mine.DELETE("/:id", h.deleteMine)
	}

	admin := router.Group("/admin/reviews", authMW, adminRoleMW)
	{
		admin.GET("", h.adminList)
		admin.PATCH("/:id/status", h.updateStatus)
		admin.DELETE("/:id", h.adminDelete)
	}
}

func (h *Handler) createReview(c *gin.Context) {
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	rv, err := h.service.CreateReview(c.Request.Context(), common.GetUserIDFromContext(c), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Review submitted and awaiting moderation.", rv)
}

func (h *Handler) listApproved(c *gin.Context) {
	page, limit := common.GetPaginationParams(c)
	items, pagination, err := h.service.ListApproved(c.Request.Context(), page, limit)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Reviews retrieved successfully.", items, pagination)
}

func (h *Handler) listForProperty(c *gin.Context) {
	page, limit := common.GetPaginationParams(c)
	items, pagination, err := h.service.ListForProperty(c.Request.Context(), c.Param("id"), page, limit)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Property reviews retrieved successfully.", items, pagination)
}

func (h *Handler) listMine(c *gin.Context) {
	page, limit := common.GetPaginationParams(c)
	items, pagination, err := h.service.ListMine(c.Request.Context(), common.GetUserIDFromContext(c), page, limit)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Your reviews retrieved successfully.", items, pagination)
}

func (h *Handler) deleteMine(c *gin.Context) {
	if err := h.service.DeleteMine(c.Request.Context(), c.Param("id"), common.GetUserIDFromContext(c)); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Review deleted successfully.", nil)
}

func (h *Handler) adminList(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	f := q.Filter()
	items, pagination, err := h.service.AdminList(c.Request.Context(), f)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Reviews retrieved successfully.", items, pagination)
}

func (h *Handler) updateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	rv, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	h.logger.Info("Review status changed by admin",
		zap.String("reviewID", rv.ID),
		zap.String("status", rv.Status),
		zap.String("adminID", common.GetUserIDFromContext(c)))
	common.RespondOK(c, "Review status updated successfully.", rv)
}

func (h *Handler) adminDelete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Review deleted successfully.", nil)
}
