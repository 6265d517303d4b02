package image

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"realestate_backend/internal/common"
)

// LocalStore writes images below a directory that the server exposes under baseURL.
type LocalStore struct {
	storagePath string
	baseURL     string
	maxBytes    int64
	logger      *zap.Logger
}

// NewLocalStore creates the storage directory if needed.
func NewLocalStore(storagePath, baseURL string, maxBytes int64, logger *zap.Logger) (*LocalStore, error) {
	if storagePath == "" {
		return nil, fmt.Errorf("storage path cannot be empty")
	}
	if err := os.MkdirAll(storagePath, os.ModePerm); err != nil {
		logger.Error("Failed to create storage path directory", zap.String("path", storagePath), zap.Error(err))
		return nil, fmt.Errorf("failed to create storage path %s: %w", storagePath, err)
	}
	logger.Info("Local image store initialized", zap.String("storagePath", storagePath))
	return &LocalStore{
		storagePath: storagePath,
		baseURL:     strings.TrimRight(baseURL, "/"),
		maxBytes:    maxBytes,
		logger:      logger,
	}, nil
}

// Upload saves the file under folder with a generated name. The public id is
// the slash-separated path relative to the storage root.
func (s *LocalStore) Upload(_ context.Context, fileHeader *multipart.FileHeader, folder string) (*Uploaded, error) {
	ext, err := sniff(fileHeader, s.maxBytes)
	if err != nil {
		return nil, err
	}
	folder, err = cleanFolder(folder)
	if err != nil {
		return nil, err
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	destinationDir := filepath.Join(s.storagePath, filepath.FromSlash(folder))
	if err := os.MkdirAll(destinationDir, os.ModePerm); err != nil {
		s.logger.Error("Failed to create folder for image", zap.String("path", destinationDir), zap.Error(err))
		return nil, fmt.Errorf("failed to create directory %s: %w", destinationDir, err)
	}

	filename := uuid.NewString() + ext
	destinationPath := filepath.Join(destinationDir, filename)
	dst, err := os.Create(destinationPath)
	if err != nil {
		s.logger.Error("Failed to create destination file", zap.String("path", destinationPath), zap.Error(err))
		return nil, fmt.Errorf("failed to create file %s: %w", destinationPath, err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		s.logger.Error("Failed to copy uploaded file", zap.String("path", destinationPath), zap.Error(err))
		os.Remove(destinationPath)
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	publicID := filename
	if folder != "" {
		publicID = folder + "/" + filename
	}
	s.logger.Info("Image saved", zap.String("public_id", publicID))
	return &Uploaded{URL: s.baseURL + "/" + publicID, PublicID: publicID}, nil
}

// Delete removes the file for publicID. Missing files are not an error.
func (s *LocalStore) Delete(_ context.Context, publicID string) error {
	if publicID == "" {
		return common.ErrBadRequest.WithDetails("publicId is required.")
	}
	clean := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(publicID, "/")))
	if clean == "." || strings.HasPrefix(clean, "..") {
		s.logger.Warn("Rejected image delete with path traversal", zap.String("public_id", publicID))
		return common.ErrBadRequest.WithDetails("Invalid image id.")
	}

	fullPath := filepath.Join(s.storagePath, clean)
	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("Image already gone", zap.String("path", fullPath))
			return nil
		}
		s.logger.Error("Failed to delete image", zap.String("path", fullPath), zap.Error(err))
		return fmt.Errorf("failed to delete file %s: %w", fullPath, err)
	}
	return nil
}
