package blob

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalUploader_Upload(t *testing.T) {
	dir := t.TempDir()
	uploader, err := NewLocalUploader(dir, "/photos/")
	if err != nil {
		t.Fatalf("NewLocalUploader: %v", err)
	}

	t.Run("writes the blob and returns its URL", func(t *testing.T) {
		url, err := uploader.Upload(context.Background(), "res-1.jpg", "image/jpeg", strings.NewReader("jpeg-bytes"))
		if err != nil {
			t.Fatalf("Upload: %v", err)
		}
		if url != "/photos/res-1.jpg" {
			t.Fatalf("unexpected URL %q", url)
		}

		data, err := os.ReadFile(filepath.Join(dir, "res-1.jpg"))
		if err != nil {
			t.Fatalf("read stored blob: %v", err)
		}
		if string(data) != "jpeg-bytes" {
			t.Fatalf("unexpected contents %q", data)
		}
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		if _, err := uploader.Upload(context.Background(), "res-1.jpg", "image/jpeg", strings.NewReader("again")); err == nil {
			t.Fatal("expected error for duplicate name")
		}
	})

	t.Run("sanitizes path traversal", func(t *testing.T) {
		url, err := uploader.Upload(context.Background(), "../../etc/passwd", "", strings.NewReader("x"))
		if err != nil {
			t.Fatalf("Upload: %v", err)
		}
		if url != "/photos/passwd" {
			t.Fatalf("unexpected URL %q", url)
		}
		if _, err := os.Stat(filepath.Join(dir, "passwd")); err != nil {
			t.Fatalf("expected sanitized file in storage dir: %v", err)
		}
	})

	t.Run("derives an extension from the content type", func(t *testing.T) {
		url, err := uploader.Upload(context.Background(), "snapshot", "image/png", strings.NewReader("png"))
		if err != nil {
			t.Fatalf("Upload: %v", err)
		}
		if url != "/photos/snapshot.png" {
			t.Fatalf("unexpected URL %q", url)
		}
	})
}
