package image

import (
	"mime/multipart"
	"strings"

	"realestate_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	store  Store
	logger *zap.Logger
}

func NewHandler(store Store, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// RegisterRoutes mounts the admin image endpoints under /images.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, adminRoleMW gin.HandlerFunc) {
	images := router.Group("/images", authMW, adminRoleMW)
	{
		images.POST("/upload", h.upload)
		images.DELETE("/*publicId", h.delete)
	}
}

// FormFiles returns the files posted under any of the given multipart field names.
func FormFiles(c *gin.Context, fields ...string) ([]*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, common.ErrBadRequest.WithDetails("Request must be multipart/form-data.")
	}
	var files []*multipart.FileHeader
	for _, f := range fields {
		files = append(files, form.File[f]...)
	}
	if len(files) == 0 {
		return nil, common.ErrBadRequest.WithDetails("No image files were provided.")
	}
	return files, nil
}

func (h *Handler) upload(c *gin.Context) {
	files, err := FormFiles(c, "image", "images")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	folder := c.PostForm("folder")
	uploaded := make([]*Uploaded, 0, len(files))
	for _, fh := range files {
		u, err := h.store.Upload(c.Request.Context(), fh, folder)
		if err != nil {
			for _, done := range uploaded {
				if delErr := h.store.Delete(c.Request.Context(), done.PublicID); delErr != nil {
					h.logger.Warn("Failed to roll back uploaded image", zap.Error(delErr), zap.String("public_id", done.PublicID))
				}
			}
			common.RespondWithError(c, err)
			return
		}
		uploaded = append(uploaded, u)
	}
	common.RespondCreated(c, "Images uploaded successfully.", uploaded)
}

func (h *Handler) delete(c *gin.Context) {
	publicID := strings.TrimPrefix(c.Param("publicId"), "/")
	if publicID == "" {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("publicId is required."))
		return
	}
	if err := h.store.Delete(c.Request.Context(), publicID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Image deleted successfully.", gin.H{"publicId": publicID})
}
