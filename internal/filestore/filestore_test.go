package filestore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AnujPatil110377/job-pilot/internal/apperror"
)

func TestDiskSave(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDisk(dir, "/uploads/")
	if err != nil {
		t.Fatalf("NewDisk() error = %v", err)
	}

	url, err := store.Save(context.Background(), "resume.pdf", strings.NewReader("pdf bytes"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if !strings.HasPrefix(url, "/uploads/") {
		t.Errorf("url = %q, want /uploads/ prefix", url)
	}
	if !strings.HasSuffix(url, "-resume.pdf") {
		t.Errorf("url = %q, want the sanitized original name as suffix", url)
	}

	// The file must exist on disk with the uploaded content.
	name := strings.TrimPrefix(url, "/uploads/")
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	if string(data) != "pdf bytes" {
		t.Errorf("content = %q, want %q", data, "pdf bytes")
	}
}

func TestDiskSave_UniqueNames(t *testing.T) {
	store, err := NewDisk(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("NewDisk() error = %v", err)
	}

	url1, err := store.Save(context.Background(), "logo.png", strings.NewReader("a"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	url2, err := store.Save(context.Background(), "logo.png", strings.NewReader("b"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if url1 == url2 {
		t.Errorf("two uploads of the same filename produced the same URL: %q", url1)
	}
}

func TestDiskSave_SanitizesFilename(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDisk(dir, "/uploads")
	if err != nil {
		t.Fatalf("NewDisk() error = %v", err)
	}

	// A hostile filename must not escape the upload directory.
	url, err := store.Save(context.Background(), "../../etc/passwd", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if strings.Contains(url, "..") || strings.Contains(strings.TrimPrefix(url, "/uploads/"), "/") {
		t.Errorf("url = %q contains path traversal", url)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading upload dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("upload dir has %d entries, want 1", len(entries))
	}
}

func TestDiskSave_RejectsOversizedFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDisk(dir, "/uploads")
	if err != nil {
		t.Fatalf("NewDisk() error = %v", err)
	}

	// One byte over the limit: the upload must fail outright, not be stored
	// truncated with a success URL.
	oversized := io.LimitReader(neverEnding('x'), MaxUploadSize+1)
	if _, err := store.Save(context.Background(), "huge.pdf", oversized); err == nil {
		t.Fatal("Save() accepted an upload larger than MaxUploadSize")
	} else if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Save() error = %v, want a validation error", err)
	}

	// Nothing may be left on disk.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading upload dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("upload dir has %d entries after a rejected upload, want 0", len(entries))
	}
}

func TestDiskSave_AcceptsFileAtLimit(t *testing.T) {
	store, err := NewDisk(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("NewDisk() error = %v", err)
	}

	exact := io.LimitReader(neverEnding('x'), MaxUploadSize)
	if _, err := store.Save(context.Background(), "exact.pdf", exact); err != nil {
		t.Fatalf("Save() rejected a file of exactly MaxUploadSize: %v", err)
	}
}

// neverEnding is an io.Reader producing an endless stream of one byte value.
type neverEnding byte

func (b neverEnding) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(b)
	}
	return len(p), nil
}

func TestDiskSave_CancelledContext(t *testing.T) {
	store, err := NewDisk(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("NewDisk() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Save(ctx, "f.txt", strings.NewReader("x")); err == nil {
		t.Fatal("Save() with cancelled context should fail")
	}
}
