package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Local keeps uploads as flat files under a single root directory.
type Local struct {
	root   string
	prefix string
	log    *zap.Logger
}

func NewLocal(root, prefix string, l *zap.Logger) *Local {
	return &Local{root: filepath.Clean(root), prefix: prefix, log: l}
}

func (s *Local) Prefix() string { return s.prefix }

func (s *Local) Prepare(context.Context) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		s.log.Error("create upload dir failed", zap.String("root", s.root), zap.Error(err))
		return fmt.Errorf("create upload dir: %w", err)
	}
	return nil
}

func (s *Local) Save(ctx context.Context, r io.Reader, _ int64, originalName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := UniqueName(originalName)
	path := filepath.Join(s.root, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	s.log.Debug("media saved", zap.String("path", path))
	return join(s.prefix, name), nil
}

func (s *Local) Open(_ context.Context, name string) (io.ReadCloser, int64, error) {
	name, err := checkName(name)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(filepath.Join(s.root, name))
	if err != nil {
		return nil, 0, err
	}
	st, err := f.Stat()
	if err != nil || st.IsDir() {
		_ = f.Close()
		return nil, 0, fs.ErrNotExist
	}
	return f, st.Size(), nil
}

func (s *Local) Delete(_ context.Context, url string) error {
	name, err := objectName(s.prefix, url)
	if err != nil {
		s.log.Warn("refusing to delete media outside upload prefix", zap.String("url", url))
		return err
	}
	path := filepath.Join(s.root, name)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("media file not found for deletion", zap.String("path", path))
		} else {
			s.log.Error("media delete failed", zap.String("path", path), zap.Error(err))
		}
		return err
	}
	s.log.Info("media deleted", zap.String("path", path))
	return nil
}

func (s *Local) List(context.Context) ([]Object, error) {
	entries, err := os.ReadDir(s.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]Object, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Object{URL: join(s.prefix, e.Name()), Size: info.Size(), ModTime: info.ModTime()})
	}
	return out, nil
}
