// Package blob stores reservation photos and hands back URLs the API can
// serve. The interface keeps the services unaware of where bytes live.
package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Uploader persists an uploaded blob and returns a URL for it.
type Uploader interface {
	Upload(ctx context.Context, name string, contentType string, body io.Reader) (string, error)
}

// LocalUploader writes blobs under a directory on the local filesystem. The
// returned URL joins the configured base URL with the stored file name.
type LocalUploader struct {
	dir     string
	baseURL string
}

// NewLocalUploader creates the storage directory if needed.
func NewLocalUploader(dir, baseURL string) (*LocalUploader, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("blob: directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("blob: create directory %s: %w", dir, err)
	}
	return &LocalUploader{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Upload writes the blob to disk under a sanitized name. The extension comes
// from the name when present, otherwise from the content type.
func (u *LocalUploader) Upload(ctx context.Context, name string, contentType string, body io.Reader) (string, error) {
	if u == nil {
		return "", fmt.Errorf("blob: uploader not configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fileName := sanitizeName(name, contentType)
	target := filepath.Join(u.dir, fileName)

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("blob: create %s: %w", fileName, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("blob: write %s: %w", fileName, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("blob: close %s: %w", fileName, err)
	}

	return u.baseURL + "/" + fileName, nil
}

func sanitizeName(name, contentType string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload"
	}

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	cleaned := strings.Trim(b.String(), ".")
	if cleaned == "" {
		cleaned = "upload"
	}

	if path.Ext(cleaned) == "" {
		switch contentType {
		case "image/jpeg":
			cleaned += ".jpg"
		case "image/png":
			cleaned += ".png"
		case "image/webp":
			cleaned += ".webp"
		}
	}
	return cleaned
}
