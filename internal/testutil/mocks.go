// Package testutil provides shared test helpers and mock implementations.
// This avoids duplicating mock code across test files.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bad33ndj3/mcp-prompt-dedup/internal/domain"
)

// ErrNotFound is returned by mocks when a resource doesn't exist.
var ErrNotFound = errors.New("not found")

// ErrProvider is the error returned by a failing MockEmbedder.
var ErrProvider = errors.New("provider unavailable")

// MockEmbedder returns fixed vectors per text.
// Texts missing from Vectors get Default. If Err is set every call fails.
type MockEmbedder struct {
	Vectors map[string][]float32
	Default []float32
	Err     error

	calls atomic.Int32
}

// NewMockEmbedder creates a MockEmbedder with an initialized vector map.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		Vectors: make(map[string][]float32),
		Default: []float32{0, 0, 1},
	}
}

// Calls returns how many Embed/EmbedBatch calls were made.
func (m *MockEmbedder) Calls() int { return int(m.calls.Load()) }

func (m *MockEmbedder) vector(text string) []float32 {
	if v, ok := m.Vectors[text]; ok {
		return v
	}
	return m.Default
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.vector(text), nil
}

func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *MockEmbedder) Available(ctx context.Context) bool { return m.Err == nil }

// ShortBatchEmbedder answers EmbedBatch with one vector fewer than asked.
type ShortBatchEmbedder struct{}

func (ShortBatchEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (ShortBatchEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, 0, len(texts))
	for range texts[1:] {
		out = append(out, []float32{1, 0})
	}
	return out, nil
}

func (ShortBatchEmbedder) Available(ctx context.Context) bool { return true }

// BlockingEmbedder blocks every call until its context is done.
type BlockingEmbedder struct{}

func (BlockingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (BlockingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (BlockingEmbedder) Available(ctx context.Context) bool { return true }

// MockStore is an in-memory prompt store for testing.
type MockStore struct {
	mu      sync.Mutex
	Prompts []domain.Prompt
	AddErr  error
	nextID  int
	clock   MockClock
}

// NewMockStore creates an empty MockStore.
func NewMockStore() *MockStore {
	return &MockStore{clock: NewMockClock(time.Time{})}
}

// Seed appends prompts as if they had been added in order, oldest first.
func (m *MockStore) Seed(contents ...string) {
	for _, c := range contents {
		_, _ = m.Add(domain.Prompt{Content: c})
	}
}

func (m *MockStore) Add(p domain.Prompt) (domain.Prompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AddErr != nil {
		return domain.Prompt{}, m.AddErr
	}
	m.nextID++
	p.ID = fmt.Sprintf("mock-%d", m.nextID)
	p.CreatedAt = m.clock.Time.Add(time.Duration(m.nextID) * time.Minute)
	m.Prompts = append(m.Prompts, p)
	return p, nil
}

func (m *MockStore) Get(id string) (domain.Prompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.Prompts {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Prompt{}, ErrNotFound
}

func (m *MockStore) List() []domain.Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Prompt, len(m.Prompts))
	copy(out, m.Prompts)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (m *MockStore) Recent(n int) []string {
	list := m.List()
	if n > 0 && len(list) > n {
		list = list[:n]
	}
	out := make([]string, len(list))
	for i, p := range list {
		out[i] = p.Content
	}
	return out
}

// MockClock returns a fixed time for reproducible tests.
type MockClock struct {
	Time time.Time
}

// NewMockClock creates a clock fixed at the given time.
// If t is zero, uses 2024-01-01 00:00:00 UTC.
func NewMockClock(t time.Time) MockClock {
	if t.IsZero() {
		t = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return MockClock{Time: t}
}

func (m MockClock) Now() time.Time { return m.Time }
