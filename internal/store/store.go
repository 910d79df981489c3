// Package store keeps accepted prompts for the submission flow.
// It supports an in-memory view for fast corpus windows and a JSON file on
// disk that survives restarts.
//
// The Store interface allows us to swap implementations for testing.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/bad33ndj3/mcp-prompt-dedup/internal/domain"
)

// FileName is the name of the store file inside the data directory.
const FileName = "prompts.json"

// ErrNotFound is returned when a requested prompt doesn't exist.
var ErrNotFound = errors.New("prompt not found")

// ErrDuplicate is returned when the exact same content is already stored.
var ErrDuplicate = errors.New("prompt already submitted")

// ErrVersionMismatch is returned when the store file has an unknown format.
var ErrVersionMismatch = errors.New("store version mismatch (move prompts.json aside to start fresh)")

// Store defines how prompts are saved and retrieved.
type Store interface {
	// Add stores a new prompt, assigning its ID and CreatedAt.
	// Returns ErrDuplicate if the content is already stored.
	Add(p domain.Prompt) (domain.Prompt, error)

	// Get returns a prompt by ID, or ErrNotFound.
	Get(id string) (domain.Prompt, error)

	// List returns all prompts, newest first.
	List() []domain.Prompt

	// Recent returns the content of the n newest prompts, newest first.
	// n <= 0 returns every prompt.
	Recent(n int) []string
}

// fileFormat is the on-disk layout of prompts.json.
type fileFormat struct {
	Version int             `json:"version"`
	Prompts []domain.Prompt `json:"prompts"`
}

// FileStore implements Store using a JSON file on disk.
// Prompts are kept in insertion order, which is also CreatedAt order.
type FileStore struct {
	path      string
	mu        sync.RWMutex
	prompts   []domain.Prompt
	byContent map[string]int // content -> index in prompts
	clock     domain.Clock
	newID     func() string
	logger    *slog.Logger
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithClock sets the clock used for CreatedAt.
func WithClock(c domain.Clock) Option {
	return func(s *FileStore) { s.clock = c }
}

// WithLogger sets the logger used by Watch.
func WithLogger(l *slog.Logger) Option {
	return func(s *FileStore) { s.logger = l }
}

// WithIDGenerator overrides UUID generation.
func WithIDGenerator(f func() string) Option {
	return func(s *FileStore) { s.newID = f }
}

// NewFileStore opens the store in dir, creating the directory if needed and
// loading any existing prompts.json.
func NewFileStore(dir string, opts ...Option) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	s := &FileStore{
		path:      filepath.Join(dir, FileName),
		byContent: make(map[string]int),
		clock:     domain.RealClock{},
		newID:     uuid.NewString,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the store file path.
func (s *FileStore) Path() string { return s.path }

// Reload replaces the in-memory prompts with the file contents.
// A missing file is an empty store.
func (s *FileStore) Reload() error {
	prompts, err := readFile(s.path)
	if err != nil {
		return err
	}

	byContent := make(map[string]int, len(prompts))
	for i, p := range prompts {
		byContent[p.Content] = i
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = prompts
	s.byContent = byContent
	return nil
}

func readFile(path string) ([]domain.Prompt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read store file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse store file: %w", err)
	}
	if f.Version != domain.StoreVersion {
		return nil, ErrVersionMismatch
	}
	return f.Prompts, nil
}

// Add implements Store.
func (s *FileStore) Add(p domain.Prompt) (domain.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byContent[p.Content]; exists {
		return domain.Prompt{}, ErrDuplicate
	}

	p.ID = s.newID()
	p.CreatedAt = s.clock.Now()

	next := append(s.prompts[:len(s.prompts):len(s.prompts)], p)
	if err := writeFile(s.path, next); err != nil {
		return domain.Prompt{}, err
	}

	s.prompts = next
	s.byContent[p.Content] = len(next) - 1
	return p, nil
}

// writeFile saves prompts atomically via a temp file and rename.
func writeFile(path string, prompts []domain.Prompt) error {
	data, err := json.MarshalIndent(fileFormat{Version: domain.StoreVersion, Prompts: prompts}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *FileStore) Get(id string) (domain.Prompt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.prompts {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Prompt{}, ErrNotFound
}

// List implements Store.
func (s *FileStore) List() []domain.Prompt {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Prompt, 0, len(s.prompts))
	for i := len(s.prompts) - 1; i >= 0; i-- {
		out = append(out, s.prompts[i])
	}
	return out
}

// Recent implements Store.
func (s *FileStore) Recent(n int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || n > len(s.prompts) {
		n = len(s.prompts)
	}
	out := make([]string, 0, n)
	for i := len(s.prompts) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.prompts[i].Content)
	}
	return out
}

// Len returns the number of stored prompts.
func (s *FileStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.prompts)
}
