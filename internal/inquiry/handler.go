package inquiry

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

// RegisterRoutes mounts /inquiries. Anyone may create an inquiry; a signed-in
// caller gets it attached to their account.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, optionalAuthMW, adminRoleMW gin.HandlerFunc) {
	inquiries := router.Group("/inquiries")
	{
		inquiries.POST("", optionalAuthMW, h.createInquiry)
		inquiries.GET("/my", authMW, h.getMyInquiries)
		inquiries.GET("/:id", authMW, h.getInquiry)
		inquiries.POST("/:id/reply", authMW, h.userReply)

		admin := inquiries.Group("", authMW, adminRoleMW)
		{
			admin.GET("", h.listInquiries)
			admin.POST("/:id/respond", h.adminReply)
			admin.PATCH("/:id/status", h.updateStatus)
			admin.DELETE("/:id", h.deleteInquiry)
		}
	}
}

func (h *Handler) createInquiry(c *gin.Context) {
	var req CreateInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	inq, err := h.service.CreateInquiry(c.Request.Context(), common.GetUserIDFromContext(c), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Inquiry sent successfully.", inq)
}

func (h *Handler) getMyInquiries(c *gin.Context) {
	page, limit := common.GetPaginationParams(c)
	items, pagination, err := h.service.GetMyInquiries(c.Request.Context(), common.GetUserIDFromContext(c), page, limit)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Inquiries retrieved successfully.", items, pagination)
}

func (h *Handler) getInquiry(c *gin.Context) {
	inq, err := h.service.GetInquiry(c.Request.Context(), c.Param("id"), common.GetUserIDFromContext(c), common.IsAdmin(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Inquiry retrieved successfully.", inq)
}

func (h *Handler) userReply(c *gin.Context) {
	var req ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	inq, err := h.service.UserReply(c.Request.Context(), c.Param("id"), common.GetUserIDFromContext(c), req.Message)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Reply sent successfully.", inq)
}

func (h *Handler) listInquiries(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	items, pagination, err := h.service.ListInquiries(c.Request.Context(), q.Filter())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Inquiries retrieved successfully.", items, pagination)
}

func (h *Handler) adminReply(c *gin.Context) {
	var req ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	inq, err := h.service.AdminReply(c.Request.Context(), c.Param("id"), common.GetUserIDFromContext(c), req.Message)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Response sent successfully.", inq)
}

func (h *Handler) updateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	inq, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Inquiry status updated successfully.", inq)
}

func (h *Handler) deleteInquiry(c *gin.Context) {
	if err := h.service.DeleteInquiry(c.Request.Context(), c.Param("id")); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Inquiry deleted successfully.", nil)
}
