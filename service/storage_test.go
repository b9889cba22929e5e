package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AnTengye/formrelay/config"
	"github.com/AnTengye/formrelay/model"
)

func newTestLocalStorage(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(&config.LocalStorageConfig{Dir: t.TempDir(), PublicURL: "/uploads/"})
	if err != nil {
		t.Fatalf("Failed to create local storage: %v", err)
	}
	return s
}

func TestLocalStorageStore(t *testing.T) {
	s := newTestLocalStorage(t)

	stored, err := s.Store(context.Background(), "career/2024/03/abc.pdf", strings.NewReader("%PDF-1.4"), 8, "application/pdf")
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	if stored.URL != "/uploads/career/2024/03/abc.pdf" {
		t.Errorf("Unexpected URL %s", stored.URL)
	}
	if stored.Size != 8 {
		t.Errorf("Expected size 8, got %d", stored.Size)
	}
	if stored.LocalPath != filepath.Join(s.Dir(), "career", "2024", "03", "abc.pdf") {
		t.Errorf("Unexpected local path %s", stored.LocalPath)
	}
	data, err := os.ReadFile(stored.LocalPath)
	if err != nil {
		t.Fatalf("Failed to read stored file: %v", err)
	}
	if string(data) != "%PDF-1.4" {
		t.Errorf("Unexpected content %q", data)
	}
}

func TestLocalStorageRefusesOverwrite(t *testing.T) {
	s := newTestLocalStorage(t)
	ctx := context.Background()

	if _, err := s.Store(ctx, "a/b.pdf", strings.NewReader("one"), 3, "application/pdf"); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if _, err := s.Store(ctx, "a/b.pdf", strings.NewReader("two"), 3, "application/pdf"); err == nil {
		t.Error("Expected error when object exists")
	}
}

func TestLocalStorageRejectsEscape(t *testing.T) {
	s := newTestLocalStorage(t)

	if _, err := s.Store(context.Background(), "../outside.pdf", strings.NewReader("x"), 1, "application/pdf"); err == nil {
		t.Error("Expected error for path outside upload dir")
	}
}

func TestLocalStorageDelete(t *testing.T) {
	s := newTestLocalStorage(t)
	ctx := context.Background()

	stored, err := s.Store(ctx, "x/y.png", strings.NewReader("png"), 3, "image/png")
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if err := s.Delete(ctx, stored); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(stored.LocalPath); !os.IsNotExist(err) {
		t.Error("Expected file to be removed")
	}
	// Deleting twice is not an error
	if err := s.Delete(ctx, stored); err != nil {
		t.Errorf("Expected idempotent delete, got %v", err)
	}
	if err := s.Delete(ctx, model.StoredFile{}); err != nil {
		t.Errorf("Expected no-op for remote file, got %v", err)
	}
}

func TestLocalStorageCancelledContext(t *testing.T) {
	s := newTestLocalStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Store(ctx, "a.pdf", strings.NewReader("x"), 1, "application/pdf"); err == nil {
		t.Error("Expected error for cancelled context")
	}
}
