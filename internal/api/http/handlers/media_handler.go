package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/service-desk/internal/domain"
	"github.com/spec-kit/service-desk/internal/media"
	"github.com/spec-kit/service-desk/internal/repository"
	"github.com/spec-kit/service-desk/pkg/apperrors"
)

// MediaHandler streams stored attachments by metadata key.
type MediaHandler struct {
	files repository.MediaFileRepository
	store *media.Store
}

// NewMediaHandler constructs handler.
func NewMediaHandler(files repository.MediaFileRepository, store *media.Store) *MediaHandler {
	return &MediaHandler{files: files, store: store}
}

// GetVideo GET /media/video/:key. Honors single-range requests with a
// 206 response so players can seek.
func (h *MediaHandler) GetVideo(c *fiber.Ctx) error {
	file, info, err := h.open(c, domain.FileTypeVideo)
	if err != nil {
		return err
	}
	defer file.Close()

	size := info.Size()
	c.Set(fiber.HeaderAcceptRanges, "bytes")
	c.Set(fiber.HeaderContentType, "video/mp4")

	start, end, ok := parseRange(c.Get(fiber.HeaderRange), size)
	if !ok {
		c.Set(fiber.HeaderContentLength, strconv.FormatInt(size, 10))
		return c.SendStream(file, int(size))
	}

	if _, err := file.Seek(start, io.SeekStart); err != nil {
		return apperrors.NewInternalError(err)
	}
	length := end - start + 1
	c.Set(fiber.HeaderContentRange, fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	c.Set(fiber.HeaderContentLength, strconv.FormatInt(length, 10))
	c.Status(http.StatusPartialContent)
	return c.SendStream(io.LimitReader(file, length), int(length))
}

// GetImage GET /media/image/:key.
func (h *MediaHandler) GetImage(c *fiber.Ctx) error {
	file, info, err := h.open(c, domain.FileTypeImage)
	if err != nil {
		return err
	}
	defer file.Close()

	c.Set(fiber.HeaderContentType, "image/jpeg")
	c.Set(fiber.HeaderContentLength, strconv.FormatInt(info.Size(), 10))
	return c.SendStream(file, int(info.Size()))
}

// open resolves the metadata row and the file behind it. A row whose
// file is gone from disk reads as not found.
func (h *MediaHandler) open(c *fiber.Ctx, fileType domain.FileType) (*os.File, os.FileInfo, error) {
	key := c.Params("key")
	record, err := h.files.GetByID(c.UserContext(), key, fileType)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil, apperrors.NewNotFound("media file", map[string]any{"key": key})
		}
		return nil, nil, err
	}

	file, info, err := h.store.Open(record.FileType, record.URL)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, apperrors.NewNotFound("media file", map[string]any{"key": key})
		}
		return nil, nil, apperrors.NewStorageFailure("opening media file", err)
	}
	return file, info, nil
}

// parseRange handles "bytes=start-end" with either bound optional. A
// missing, multi-part or unsatisfiable header falls back to a full
// response.
func parseRange(header string, size int64) (start, end int64, ok bool) {
	if size <= 0 || !strings.HasPrefix(header, "bytes=") {
		return 0, 0, false
	}
	spec := strings.TrimPrefix(header, "bytes=")
	if strings.Contains(spec, ",") {
		return 0, 0, false
	}
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}

	if parts[0] == "" {
		// suffix form: last N bytes
		n, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || n <= 0 {
			return 0, 0, false
		}
		if n > size {
			n = size
		}
		return size - n, size - 1, true
	}

	start, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || start < 0 || start >= size {
		return 0, 0, false
	}
	end = size - 1
	if parts[1] != "" {
		end, err = strconv.ParseInt(parts[1], 10, 64)
		if err != nil || end < start {
			return 0, 0, false
		}
		if end >= size {
			end = size - 1
		}
	}
	return start, end, true
}
