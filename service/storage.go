package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/AnTengye/formrelay/config"
	"github.com/AnTengye/formrelay/model"
)

// FileStorage persists accepted uploads.
type FileStorage interface {
	Store(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (model.StoredFile, error)
	Delete(ctx context.Context, file model.StoredFile) error
}

// LocalStorage writes uploads below a directory served at PublicURL.
type LocalStorage struct {
	dir       string
	publicURL string
}

func NewLocalStorage(cfg *config.LocalStorageConfig) (*LocalStorage, error) {
	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalStorage{
		dir:       dir,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}, nil
}

// Dir returns the absolute upload directory.
func (s *LocalStorage) Dir() string {
	return s.dir
}

func (s *LocalStorage) Store(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (model.StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return model.StoredFile{}, err
	}

	full := filepath.Join(s.dir, filepath.FromSlash(objectName))
	if !strings.HasPrefix(full, s.dir+string(os.PathSeparator)) {
		return model.StoredFile{}, fmt.Errorf("object name %q escapes upload dir", objectName)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return model.StoredFile{}, fmt.Errorf("failed to create dir: %w", err)
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return model.StoredFile{}, fmt.Errorf("failed to create file: %w", err)
	}
	written, err := io.Copy(f, reader)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(full)
		return model.StoredFile{}, fmt.Errorf("failed to write file: %w", err)
	}

	return model.StoredFile{
		URL:         s.publicURL + "/" + objectName,
		Path:        objectName,
		LocalPath:   full,
		ContentType: contentType,
		Size:        written,
	}, nil
}

func (s *LocalStorage) Delete(ctx context.Context, file model.StoredFile) error {
	if file.LocalPath == "" {
		return nil
	}
	if err := os.Remove(file.LocalPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
