// Package filestore hides blob storage behind a narrow interface.
//
// Handlers deal in uploaded streams and public URLs; where the bytes
// actually live (local disk today, object storage later) is this package's
// concern alone. The entities only ever store the returned URL.
package filestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/xid"

	"github.com/AnujPatil110377/job-pilot/internal/apperror"
)

// MaxUploadSize bounds a single uploaded file (logos, resumes).
const MaxUploadSize = 10 << 20 // 10 MiB

// Store saves an uploaded blob and returns the public URL to reach it.
type Store interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Disk is a Store that writes to a local directory served as static files.
type Disk struct {
	dir     string
	baseURL string // URL prefix the dir is served under, e.g. "/uploads"
}

// NewDisk creates the upload directory if needed and returns a Disk store.
func NewDisk(dir, baseURL string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: creating upload dir: %w", err)
	}
	return &Disk{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Save writes the blob under a unique name derived from the original
// filename and returns its URL.
//
// The xid prefix makes collisions impossible and doubles as an
// unguessable-enough path component; the sanitized original name is kept as
// a suffix so downloads keep a meaningful filename.
func (d *Disk) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := xid.New().String() + "-" + sanitize(filename)
	path := filepath.Join(d.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("filestore: creating %s: %w", name, err)
	}
	defer f.Close()

	// Read one byte past the limit: landing there means the upload is too
	// big and must be rejected, never stored truncated.
	n, err := io.Copy(f, io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("filestore: writing %s: %w", name, err)
	}
	if n > MaxUploadSize {
		os.Remove(path)
		return "", apperror.ValidationFailed("file",
			fmt.Sprintf("file exceeds the maximum upload size of %d bytes", MaxUploadSize))
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("filestore: closing %s: %w", name, err)
	}

	return d.baseURL + "/" + name, nil
}

// sanitize strips path separators and anything else that could break out of
// the upload directory, keeping only a conservative character set.
func sanitize(filename string) string {
	base := filepath.Base(filename)
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
	s := strings.Trim(b.String(), ".")
	if s == "" {
		s = "file"
	}
	return s
}
