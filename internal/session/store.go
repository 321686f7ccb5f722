// internal/session/store.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jason-s-yu/rummy/internal/models"
)

// DescriptorStore persists the one session descriptor a client keeps between runs.
// Load returns nil and no error when nothing is stored.
type DescriptorStore interface {
	Load(ctx context.Context) (*models.Descriptor, error)
	Save(ctx context.Context, d models.Descriptor) error
	Clear(ctx context.Context) error
}

// FileStore keeps the descriptor as a JSON file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(_ context.Context) (*models.Descriptor, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read descriptor: %w", err)
	}
	var d models.Descriptor
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("decode descriptor: %w", err)
	}
	if d.RoomID == "" {
		return nil, nil
	}
	return &d, nil
}

// Save writes through a temp file so a crash never leaves a torn descriptor.
func (s *FileStore) Save(_ context.Context, d models.Descriptor) error {
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode descriptor: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create descriptor dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write descriptor: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace descriptor: %w", err)
	}
	return nil
}

func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove descriptor: %w", err)
	}
	return nil
}
