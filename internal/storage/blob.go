// Package storage keeps uploaded images (inventory and profile photos) and
// hands back the URL they are served from.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// MaxUploadSize caps a single image upload.
const MaxUploadSize = 5 << 20

var (
	ErrTooLarge        = errors.New("upload exceeds maximum size")
	ErrUnsupportedType = errors.New("unsupported content type")
	ErrInvalidKey      = errors.New("invalid blob key")
	ErrForeignURL      = errors.New("url does not belong to this store")
	ErrInvalidBaseURL  = errors.New("blob base URL needs a path such as /blobs")
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader) (string, error)
	Delete(ctx context.Context, blobURL string) error
}

// FileStore writes blobs under Root. BaseURL is the prefix handed to
// clients and may be absolute (https://cdn.example.com/blobs); the router
// serves the files at its path component.
type FileStore struct {
	Root    string
	BaseURL string
}

func NewFileStore(root, baseURL string) (*FileStore, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	if _, err := MountPath(baseURL); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob root %s: %w", root, err)
	}
	return &FileStore{Root: root, BaseURL: baseURL}, nil
}

// MountPath is the request path blobs are served under for baseURL.
func MountPath(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	p := strings.TrimRight(u.Path, "/")
	if !strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("%w: got %q", ErrInvalidBaseURL, baseURL)
	}
	return p, nil
}

// MountPath is the request path the store's Handler expects to be mounted at.
func (s *FileStore) MountPath() string {
	p, err := MountPath(s.BaseURL)
	if err != nil {
		return ""
	}
	return p
}

// Put stores the image read from r under key. The content type is sniffed
// from the first bytes; the matching extension is appended to key.
func (s *FileStore) Put(ctx context.Context, key string, r io.Reader) (string, error) {
	clean, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > MaxUploadSize {
		return "", ErrTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedTypes[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	if !strings.HasSuffix(clean, ext) {
		clean += ext
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(s.Root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create blob dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob %s: %w", clean, err)
	}

	log.Debug().Str("key", clean).Int("bytes", len(data)).Msg("storage: blob stored")
	return s.BaseURL + "/" + clean, nil
}

// Delete removes the blob behind blobURL. A missing blob is not an error.
func (s *FileStore) Delete(ctx context.Context, blobURL string) error {
	if blobURL == "" {
		return nil
	}
	prefix := s.BaseURL + "/"
	if !strings.HasPrefix(blobURL, prefix) {
		return ErrForeignURL
	}
	clean, err := cleanKey(strings.TrimPrefix(blobURL, prefix))
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err = os.Remove(filepath.Join(s.Root, filepath.FromSlash(clean)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete blob %s: %w", clean, err)
	}
	return nil
}

// Handler serves stored blobs; mount it at MountPath.
func (s *FileStore) Handler() http.Handler {
	return http.StripPrefix(s.MountPath(), http.FileServer(http.Dir(s.Root)))
}

func cleanKey(key string) (string, error) {
	key = strings.TrimLeft(filepath.ToSlash(key), "/")
	if key == "" {
		return "", ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return key, nil
}

var _ BlobStore = (*FileStore)(nil)
