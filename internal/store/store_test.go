package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bad33ndj3/mcp-prompt-dedup/internal/domain"
)

// stepClock advances one minute per call.
type stepClock struct {
	t time.Time
}

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

func newTestStore(t *testing.T, dir string) *FileStore {
	t.Helper()
	n := 0
	s, err := NewFileStore(dir,
		WithClock(&stepClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return s
}

// TestFileStore_AddGet verifies in-memory round-trip storage.
func TestFileStore_AddGet(t *testing.T) {
	s := newTestStore(t, t.TempDir())

	if _, err := s.Get("id-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get before Add: expected ErrNotFound, got %v", err)
	}

	added, err := s.Add(domain.Prompt{Content: "Summarize the article", Team: "news", Owner: "kim"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if added.ID != "id-1" {
		t.Errorf("ID = %q, want id-1", added.ID)
	}
	if added.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	got, err := s.Get("id-1")
	if err != nil {
		t.Fatalf("Get after Add: %v", err)
	}
	if got.Content != added.Content || got.Team != "news" || got.Owner != "kim" {
		t.Errorf("Get returned wrong prompt: got %+v, want %+v", got, added)
	}
}

func TestFileStore_RejectsDuplicateContent(t *testing.T) {
	s := newTestStore(t, t.TempDir())

	if _, err := s.Add(domain.Prompt{Content: "same"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := s.Add(domain.Prompt{Content: "same"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestFileStore_RecentAndList(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	for _, c := range []string{"first", "second", "third", "fourth"} {
		if _, err := s.Add(domain.Prompt{Content: c}); err != nil {
			t.Fatalf("Add(%q): %v", c, err)
		}
	}

	tests := []struct {
		n    int
		want []string
	}{
		{n: 2, want: []string{"fourth", "third"}},
		{n: 10, want: []string{"fourth", "third", "second", "first"}},
		{n: 0, want: []string{"fourth", "third", "second", "first"}},
	}
	for _, tc := range tests {
		got := s.Recent(tc.n)
		if len(got) != len(tc.want) {
			t.Fatalf("Recent(%d) = %v, want %v", tc.n, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("Recent(%d)[%d] = %q, want %q", tc.n, i, got[i], tc.want[i])
			}
		}
	}

	list := s.List()
	if len(list) != 4 || list[0].Content != "fourth" || list[3].Content != "first" {
		t.Errorf("List() not newest first: %+v", list)
	}
}

// TestFileStore_PersistsAcrossReopen verifies saving to and loading from disk.
func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, dir)
	if _, err := s.Add(domain.Prompt{Content: "keep me", SimilarityScore: 0.42}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	reopened, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	list := reopened.List()
	if len(list) != 1 {
		t.Fatalf("reopened store has %d prompts, want 1", len(list))
	}
	if list[0].Content != "keep me" || list[0].SimilarityScore != 0.42 {
		t.Errorf("reopened prompt = %+v", list[0])
	}
	if _, err := reopened.Add(domain.Prompt{Content: "keep me"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate check lost after reopen: %v", err)
	}
}

func TestFileStore_VersionMismatch(t *testing.T) {
	dir := t.TempDir()
	data := []byte(`{"version": 999, "prompts": []}`)
	if err := os.WriteFile(filepath.Join(dir, FileName), data, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileStore(dir); !errors.Is(err, ErrVersionMismatch) {
		t.Errorf("expected ErrVersionMismatch, got %v", err)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileStore(dir); err == nil {
		t.Error("expected error for corrupt store file")
	}
}

func TestFileStore_EmptyFileIsEmptyStore(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestFileStore_WatchReloadsExternalWrites(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Watch(ctx); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	// Another process writes the store.
	other := newTestStore(t, dir)
	if _, err := other.Add(domain.Prompt{Content: "from elsewhere"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if s.Len() == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("store did not reload: Len = %d, want 1", s.Len())
}
