// Package blobstore stores uploaded medication photos. It defines the
// PhotoStore interface, a disk-backed implementation, an in-memory
// implementation for testing, and the Echo HTTP handler for multipart upload.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var (
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("only image files are allowed")
)

// MaxFileSize is the maximum allowed photo size in bytes (5 MB).
const MaxFileSize = 5 * 1024 * 1024

// PhotoStore defines the contract for photo storage backends.
type PhotoStore interface {
	Save(ctx context.Context, originalName, contentType string, content io.Reader) (url string, err error)
}

// DiskStore stores photos as files under a base directory, served at the
// /uploads URL prefix.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the base directory if needed and returns a DiskStore.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the base directory photos are stored in.
func (s *DiskStore) Dir() string { return s.dir }

// Save validates size and content type, writes the photo to disk under a
// generated name, and returns its public URL path.
func (s *DiskStore) Save(_ context.Context, originalName, contentType string, content io.Reader) (string, error) {
	name, data, err := prepare(originalName, contentType, content)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write photo: %w", err)
	}
	return "/uploads/" + name, nil
}

// MemoryStore is a thread-safe, in-memory PhotoStore for testing.
type MemoryStore struct {
	mu     sync.RWMutex
	photos map[string][]byte
}

// NewMemoryStore returns a ready-to-use MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{photos: make(map[string][]byte)}
}

// Save validates and stores the photo in memory.
func (s *MemoryStore) Save(_ context.Context, originalName, contentType string, content io.Reader) (string, error) {
	name, data, err := prepare(originalName, contentType, content)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.photos[name] = data
	s.mu.Unlock()
	return "/uploads/" + name, nil
}

// Get returns a stored photo's bytes by its generated file name.
func (s *MemoryStore) Get(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.photos[name]
	return data, ok
}

// Count returns the number of stored photos.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.photos)
}

// prepare validates the upload and produces the generated file name and the
// photo bytes.
func prepare(originalName, contentType string, content io.Reader) (string, []byte, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return "", nil, ErrInvalidContentType
	}

	data, err := io.ReadAll(io.LimitReader(content, MaxFileSize+1))
	if err != nil {
		return "", nil, fmt.Errorf("read photo: %w", err)
	}
	if int64(len(data)) > MaxFileSize {
		return "", nil, ErrFileTooLarge
	}

	ext := filepath.Ext(originalName)
	return "photo-" + uuid.New().String() + ext, data, nil
}

// Handler provides the Echo HTTP handler for photo uploads.
type Handler struct {
	store PhotoStore
}

// NewHandler creates a new upload Handler.
func NewHandler(store PhotoStore) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes mounts the upload route on the supplied Echo group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/uploads/medication-photo", h.handleUpload)
}

func (h *Handler) handleUpload(c echo.Context) error {
	file, err := c.FormFile("photo")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No file uploaded")
	}

	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to open uploaded file")
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = sniffContentType(src)
	}

	url, err := h.store.Save(c.Request().Context(), file.Filename, contentType, src)
	if err != nil {
		switch {
		case errors.Is(err, ErrFileTooLarge):
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, ErrFileTooLarge.Error())
		case errors.Is(err, ErrInvalidContentType):
			return echo.NewHTTPError(http.StatusBadRequest, ErrInvalidContentType.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to store photo")
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message":  "Photo uploaded successfully",
		"photoUrl": url,
		"filename": path.Base(url),
	})
}

// sniffContentType detects the MIME type from the first bytes of the reader.
// It only works when the reader supports seeking back to the start.
func sniffContentType(src io.ReadSeeker) string {
	buf := make([]byte, 512)
	n, _ := src.Read(buf)
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return ""
	}
	return http.DetectContentType(buf[:n])
}
