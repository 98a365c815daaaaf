package staging

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"socialhub/infrastructure/logger"
)

type IStaging interface {
	// Save copies r into a fresh file and returns its path and size.
	Save(r io.Reader, originalName string) (string, int64, error)
	Remove(path string) error
}

// Area is a directory of uploaded media waiting to be fanned out.
type Area struct {
	dir string
}

func NewArea(dir string) (*Area, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &Area{dir: dir}, nil
}

func (a *Area) Dir() string { return a.dir }

func (a *Area) Save(r io.Reader, originalName string) (string, int64, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	path := filepath.Join(a.dir, uuid.NewString()+ext)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while creating staged file")
		return "", 0, err
	}
	n, err := io.Copy(file, r)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("stage upload: %w", err)
	}
	return path, n, nil
}

// Remove deletes a staged file. A file that is already gone is not an error.
func (a *Area) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.GetLogger().WithField("path", path).WithField("error", err).Error("Error while removing staged file")
		return err
	}
	return nil
}

// Sweep removes regular files last modified before now-maxAge.
func (a *Area) Sweep(maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < maxAge {
			continue
		}
		if err := a.Remove(filepath.Join(a.dir, e.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}
