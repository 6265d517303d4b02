package image

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
)

// CloudinaryStore uploads images to a Cloudinary account.
type CloudinaryStore struct {
	cld        *cloudinary.Cloudinary
	baseFolder string
	maxBytes   int64
	logger     *zap.Logger
}

func NewCloudinaryStore(cloudName, apiKey, apiSecret, baseFolder string, maxBytes int64, logger *zap.Logger) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	return &CloudinaryStore{cld: cld, baseFolder: baseFolder, maxBytes: maxBytes, logger: logger}, nil
}

func (s *CloudinaryStore) Upload(ctx context.Context, fileHeader *multipart.FileHeader, folder string) (*Uploaded, error) {
	if _, err := sniff(fileHeader, s.maxBytes); err != nil {
		return nil, err
	}
	folder, err := cleanFolder(folder)
	if err != nil {
		return nil, err
	}
	if s.baseFolder != "" {
		if folder == "" {
			folder = s.baseFolder
		} else {
			folder = s.baseFolder + "/" + folder
		}
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	res, err := s.cld.Upload.Upload(ctx, src, uploader.UploadParams{
		Folder:       folder,
		ResourceType: "image",
	})
	if err != nil {
		s.logger.Error("Cloudinary upload failed", zap.Error(err), zap.String("file", fileHeader.Filename))
		return nil, fmt.Errorf("cloudinary upload failed: %w", err)
	}
	if res.Error.Message != "" {
		s.logger.Error("Cloudinary rejected upload", zap.String("reason", res.Error.Message), zap.String("file", fileHeader.Filename))
		return nil, fmt.Errorf("cloudinary upload rejected: %s", res.Error.Message)
	}
	return &Uploaded{URL: res.SecureURL, PublicID: res.PublicID}, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, publicID string) error {
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		s.logger.Error("Cloudinary destroy failed", zap.Error(err), zap.String("public_id", publicID))
		return fmt.Errorf("cloudinary destroy failed: %w", err)
	}
	switch res.Result {
	case "ok", "not found":
		return nil
	}
	return fmt.Errorf("cloudinary destroy %s returned %q", publicID, res.Result)
}
