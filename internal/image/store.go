// Package image stores uploaded property photos in Cloudinary or on local disk.
package image

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"realestate_backend/internal/common"
)

// Uploaded is a stored image.
type Uploaded struct {
	URL      string `json:"url" firestore:"url"`
	PublicID string `json:"publicId" firestore:"publicId"`
}

// Store persists images.
type Store interface {
	Upload(ctx context.Context, fileHeader *multipart.FileHeader, folder string) (*Uploaded, error)
	Delete(ctx context.Context, publicID string) error
}

var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// sniff checks the size and the detected content type of an upload and
// returns the file extension to store it with.
func sniff(fileHeader *multipart.FileHeader, maxBytes int64) (string, error) {
	if fileHeader == nil {
		return "", common.ErrBadRequest.WithDetails("No file was provided.")
	}
	if maxBytes > 0 && fileHeader.Size > maxBytes {
		return "", common.ErrBadRequest.WithDetails(fmt.Sprintf("%s exceeds the maximum upload size of %d MB.", fileHeader.Filename, maxBytes>>20))
	}

	f, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("failed to read uploaded file: %w", err)
	}
	contentType := http.DetectContentType(head[:n])
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return "", common.ErrBadRequest.WithDetails(fmt.Sprintf("%s has unsupported type %s; allowed types are jpeg, png, gif and webp.", fileHeader.Filename, contentType))
	}
	return ext, nil
}

// cleanFolder keeps folder names relative and free of traversal segments.
func cleanFolder(folder string) (string, error) {
	folder = strings.Trim(path.Clean("/"+strings.TrimSpace(folder)), "/")
	if strings.Contains(folder, "..") {
		return "", common.ErrBadRequest.WithDetails("Invalid folder name.")
	}
	return folder, nil
}
