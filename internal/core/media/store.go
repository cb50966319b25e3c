package media

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrOutsidePrefix is returned for a reference that does not point below the public prefix.
var ErrOutsidePrefix = errors.New("media reference outside upload prefix")

// Object is one stored blob as seen by the reconciliation sweep.
type Object struct {
	URL     string    `json:"url"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

// Store persists uploaded images and hands back public-relative URLs
// of the form {prefix}/{token}_{name}. Delete is best-effort: failures are
// logged by the store and returned only for callers that keep counts.
type Store interface {
	Prepare(ctx context.Context) error
	Save(ctx context.Context, r io.Reader, size int64, originalName string) (string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, url string) error
	List(ctx context.Context) ([]Object, error)
	Prefix() string
}

const maxNameLen = 100

// UniqueName builds a collision-free object name from an untrusted file name.
func UniqueName(originalName string) string {
	return uuid.NewString() + "_" + SanitizeName(originalName)
}

// SanitizeName drops any directory part and every character outside [A-Za-z0-9._-].
func SanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if out == "" {
		out = "file"
	}
	if len(out) > maxNameLen {
		ext := filepath.Ext(out)
		if len(ext) > 10 {
			ext = ""
		}
		out = out[:maxNameLen-len(ext)] + ext
	}
	return out
}

// objectName resolves a stored URL to the flat object name under prefix.
func objectName(prefix, url string) (string, error) {
	p := strings.TrimRight(prefix, "/") + "/"
	if !strings.HasPrefix(url, p) {
		return "", ErrOutsidePrefix
	}
	return checkName(strings.TrimPrefix(url, p))
}

func checkName(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\\") {
		return "", ErrOutsidePrefix
	}
	return name, nil
}

func join(prefix, name string) string { return strings.TrimRight(prefix, "/") + "/" + name }
