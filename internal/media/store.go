package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/service-desk/internal/domain"
)

const jpegQuality = 85

// Store persists uploaded media under a local root. Videos are written
// verbatim, images are normalized (EXIF rotation, resize, JPEG). Layout:
//
//	<root>/videos/<request-id>/<uuid><ext>
//	<root>/images/<request-id>/<uuid>.jpg
type Store struct {
	root   string
	logger *zap.Logger
}

// NewStore prepares the media root directories.
func NewStore(root string, logger *zap.Logger) (*Store, error) {
	for _, sub := range []string{"videos", "images"} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			return nil, fmt.Errorf("prepare media root: %w", err)
		}
	}
	return &Store{root: root, logger: logger}, nil
}

// SaveVideo streams the upload to disk under a fresh name, preserving
// the extension. Returns the relative URL for the metadata row.
func (s *Store) SaveVideo(requestID, filename string, src io.Reader) (string, error) {
	ext := filepath.Ext(filename)
	rel := filepath.Join(requestID, uuid.NewString()+ext)

	path := filepath.Join(s.root, "videos", rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// SaveImage normalizes and stores one uploaded image.
func (s *Store) SaveImage(requestID string, data []byte) (string, error) {
	img, err := processImage(data)
	if err != nil {
		return "", fmt.Errorf("process image: %w", err)
	}

	rel := filepath.Join(requestID, uuid.NewString()+".jpg")
	path := filepath.Join(s.root, "images", rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := imaging.Encode(dst, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		dst.Close()
		os.Remove(path)
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// Remove deletes the stored file behind a metadata row. A file already
// missing from disk is not an error.
func (s *Store) Remove(fileType domain.FileType, rel string) error {
	err := os.Remove(s.Path(fileType, rel))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// RemoveAll best-effort deletes a batch, logging failures instead of
// propagating them. Used after the owning rows are already gone.
func (s *Store) RemoveAll(files []domain.MediaFile) {
	for _, file := range files {
		if err := s.Remove(file.FileType, file.URL); err != nil {
			s.logger.Warn("failed to remove media file",
				zap.String("media_id", file.ID),
				zap.String("url", file.URL),
				zap.Error(err),
			)
		}
	}
}

// Open returns the file and its stat for streaming.
func (s *Store) Open(fileType domain.FileType, rel string) (*os.File, os.FileInfo, error) {
	file, err := os.Open(s.Path(fileType, rel))
	if err != nil {
		return nil, nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, err
	}
	return file, info, nil
}

// Path resolves a relative URL to the on-disk location.
func (s *Store) Path(fileType domain.FileType, rel string) string {
	sub := "images"
	if fileType == domain.FileTypeVideo {
		sub = "videos"
	}
	return filepath.Join(s.root, sub, filepath.FromSlash(rel))
}
