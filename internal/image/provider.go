package image

import (
	"realestate_backend/internal/config"

	"go.uber.org/zap"
)

// NewStore builds the image store selected by IMAGE_STORAGE_DRIVER.
func NewStore(cfg *config.Config, logger *zap.Logger) (Store, error) {
	logger = logger.Named("image_store")
	maxBytes := int64(cfg.MaxUploadSizeMB) << 20
	if cfg.ImageStorageDriver == config.ImageDriverCloudinary {
		return NewCloudinaryStore(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder, maxBytes, logger)
	}
	return NewLocalStore(cfg.ImageStoragePath, cfg.ImagePublicBaseURL, maxBytes, logger)
}
