// Package localfs keeps uploaded potato images on the local filesystem,
// partitioned by upload date. Classification records hold only the relative
// reference returned by Save.
package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/images"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

// Save writes the image under <base>/<yyyy>/<mm>/<dd>/<key> and returns the
// date-partitioned reference. The key must already be sanitized by the caller.
func (s *Storage) Save(_ context.Context, key string, data io.Reader) (string, error) {
	if strings.ContainsAny(key, "/\\") || key == "" {
		return "", fmt.Errorf("invalid image key %q", key)
	}

	now := time.Now().UTC()
	ref := filepath.ToSlash(filepath.Join(now.Format("2006/01/02"), key))
	path := filepath.Join(s.basePath, filepath.FromSlash(ref))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create image partition: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return "", fmt.Errorf("write image file: %w", err)
	}
	return ref, nil
}

func (s *Storage) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	clean := filepath.Clean(filepath.FromSlash(ref))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return nil, fmt.Errorf("invalid image reference %q", ref)
	}
	f, err := os.Open(filepath.Join(s.basePath, clean))
	if err != nil {
		return nil, fmt.Errorf("open image file: %w", err)
	}
	return f, nil
}
