package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/AnTengye/formrelay/model"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fakeLeadStore struct {
	mu    sync.Mutex
	leads []*model.Lead
	err   error
}

func (s *fakeLeadStore) SaveLead(ctx context.Context, lead *model.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.leads = append(s.leads, lead)
	return nil
}

// memStorage is a FileStorage that keeps objects in memory.
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    bool
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte)}
}

func (s *memStorage) Store(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (model.StoredFile, error) {
	if s.fail {
		return model.StoredFile{}, errors.New("disk full")
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return model.StoredFile{}, err
	}
	s.mu.Lock()
	s.objects[objectName] = data
	s.mu.Unlock()
	return model.StoredFile{
		URL:         "https://files.example.com/" + objectName,
		Path:        objectName,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

func (s *memStorage) Delete(ctx context.Context, file model.StoredFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, file.Path)
	return nil
}

func (s *memStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

func filePart(name, contentType, content string) *model.FilePart {
	return &model.FilePart{
		Filename:    name,
		ContentType: contentType,
		Size:        int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}
