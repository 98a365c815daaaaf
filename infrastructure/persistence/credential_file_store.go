package persistence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"socialhub/domain/model"
	"socialhub/domain/repository"
	"socialhub/infrastructure/logger"
)

// FileCredentialStore writes one file per (user, platform) as
// <dir>/<platform>_<user>.json.
type FileCredentialStore struct {
	dir   string
	codec CredentialCodec
}

func NewFileCredentialStore(dir string, codec CredentialCodec) (repository.ICredentialStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create token dir: %w", err)
	}
	return &FileCredentialStore{dir: dir, codec: codec}, nil
}

func credentialFileName(platform, userID string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(userID)
	return fmt.Sprintf("%s_%s.json", platform, safe)
}

func (s *FileCredentialStore) path(userID, platform string) string {
	return filepath.Join(s.dir, credentialFileName(platform, userID))
}

func (s *FileCredentialStore) Save(_ context.Context, userID string, creds model.PlatformCredentials) error {
	payload, err := s.codec.Encode(creds)
	if err != nil {
		return err
	}
	target := s.path(userID, creds.Platform())
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, target)
}

func (s *FileCredentialStore) Load(_ context.Context, userID, platform string) (model.PlatformCredentials, error) {
	payload, err := os.ReadFile(s.path(userID, platform))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.codec.Decode(payload)
}

func (s *FileCredentialStore) Delete(_ context.Context, userID, platform string) error {
	err := os.Remove(s.path(userID, platform))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileCredentialStore) Platforms(_ context.Context, userID string) ([]string, error) {
	out := []string{}
	for _, p := range model.SupportedPlatforms {
		if _, err := os.Stat(s.path(userID, p)); err == nil {
			out = append(out, p)
		} else if !errors.Is(err, fs.ErrNotExist) {
			logger.GetLogger().WithField("platform", p).WithField("error", err).Warn("stat credential file failed")
		}
	}
	return out, nil
}
