// Package upload persists multipart image submissions to the content
// directory and hands back public reference paths.
package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yingshengwanyue/zhouzhou/internal/models"
)

// Only these image formats are accepted. Extension and declared content
// type are checked independently so a spoofed extension alone never passes.
var (
	allowedExtensions = map[string]struct{}{
		".jpeg": {}, ".jpg": {}, ".png": {}, ".gif": {},
	}
	allowedContentTypes = map[string]struct{}{
		"image/jpeg": {}, "image/png": {}, "image/gif": {},
	}
)

// Saver writes accepted files to the content directory.
type Saver struct {
	dir          string
	publicPrefix string
	maxFiles     int
	maxFileSize  int64
}

// NewSaver configures a saver for the given content directory and limits.
func NewSaver(dir, publicPrefix string, maxFiles int, maxFileSize int64) *Saver {
	return &Saver{
		dir:          dir,
		publicPrefix: strings.TrimSuffix(publicPrefix, "/"),
		maxFiles:     maxFiles,
		maxFileSize:  maxFileSize,
	}
}

// SaveAll validates and persists every submitted file, returning public
// reference paths in submission order. The batch is atomic: any rejection
// or write failure removes files already written for this call, so a
// failed request never leaves partial uploads behind.
func (s *Saver) SaveAll(files []*multipart.FileHeader) ([]string, error) {
	if len(files) > s.maxFiles {
		return nil, models.ErrTooManyFiles
	}

	refs := []string{}
	for _, fh := range files {
		if err := s.validate(fh); err != nil {
			s.Remove(refs)
			return nil, err
		}
		ref, err := s.save(fh)
		if err != nil {
			s.Remove(refs)
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// Remove deletes previously saved files by public reference. Used to roll
// back a batch when the owning record cannot be committed.
func (s *Saver) Remove(refs []string) {
	for _, ref := range refs {
		// Only the basename is trusted; refs never escape the content dir.
		os.Remove(filepath.Join(s.dir, filepath.Base(ref)))
	}
}

func (s *Saver) validate(fh *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return models.ErrUnsupportedMedia
	}
	contentType := fh.Header.Get("Content-Type")
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	if _, ok := allowedContentTypes[strings.ToLower(contentType)]; !ok {
		return models.ErrUnsupportedMedia
	}
	if fh.Size > s.maxFileSize {
		return models.ErrPayloadTooLarge
	}
	return nil
}

func (s *Saver) save(fh *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	// Collision-resistant storage name; the original filename is never
	// trusted beyond its extension.
	name := fmt.Sprintf("%d-%s%s",
		time.Now().UnixMilli(),
		uuid.NewString(),
		strings.ToLower(filepath.Ext(fh.Filename)),
	)

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	// Re-check the size while copying; the header value is declared, not
	// enforced.
	written, err := io.CopyN(dst, src, s.maxFileSize+1)
	if err != nil && err != io.EOF {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if written > s.maxFileSize {
		os.Remove(dst.Name())
		return "", models.ErrPayloadTooLarge
	}

	return s.publicPrefix + "/" + name, nil
}
