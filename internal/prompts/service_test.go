package prompts

import (
	"context"
	"errors"
	"math"
	"regexp"
	"testing"

	"github.com/bad33ndj3/mcp-prompt-dedup/internal/dedup"
	"github.com/bad33ndj3/mcp-prompt-dedup/internal/domain"
	"github.com/bad33ndj3/mcp-prompt-dedup/internal/store"
	"github.com/bad33ndj3/mcp-prompt-dedup/internal/testutil"
)

func localScorer(threshold float64) *dedup.Scorer {
	cfg := dedup.DefaultConfig()
	cfg.EmbeddingEnabled = false
	cfg.Threshold = threshold
	return dedup.New(cfg)
}

// recordingScorer captures the corpus it was given.
type recordingScorer struct {
	corpus []string
	out    domain.Outcome
}

func (r *recordingScorer) Score(ctx context.Context, query string, corpus []string) domain.Outcome {
	r.corpus = corpus
	return r.out
}

func TestSubmit_SavesWhenBelowThreshold(t *testing.T) {
	st := testutil.NewMockStore()
	st.Seed("translate this paragraph to french")
	svc := New(st, localScorer(0.8))

	res, err := svc.Submit(context.Background(), SubmitRequest{
		Content: "write unit tests for the tokenizer",
		Team:    "platform",
		Owner:   "lee",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !res.Saved || res.Warning {
		t.Fatalf("expected saved without warning, got %+v", res)
	}
	if res.Prompt == nil || res.Prompt.Team != "platform" || res.Prompt.Owner != "lee" {
		t.Errorf("saved prompt = %+v", res.Prompt)
	}
	if res.Prompt.SimilarityScore != res.MaxScore {
		t.Errorf("SimilarityScore = %f, want MaxScore %f", res.Prompt.SimilarityScore, res.MaxScore)
	}
	if len(st.List()) != 2 {
		t.Errorf("store has %d prompts, want 2", len(st.List()))
	}
}

func TestSubmit_RejectsLikelyDuplicate(t *testing.T) {
	st := testutil.NewMockStore()
	st.Seed("Summarize the article")
	svc := New(st, localScorer(0.8))

	res, err := svc.Submit(context.Background(), SubmitRequest{Content: "Summarize the article!"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Saved || !res.Warning {
		t.Fatalf("expected rejection with warning, got %+v", res)
	}
	if res.MaxScore < 0.8 {
		t.Errorf("MaxScore = %f, want >= 0.8", res.MaxScore)
	}
	if len(st.List()) != 1 {
		t.Errorf("duplicate was stored")
	}
}

func TestSubmit_EmptyContent(t *testing.T) {
	svc := New(testutil.NewMockStore(), localScorer(0.8))
	for _, c := range []string{"", "   \n\t"} {
		if _, err := svc.Submit(context.Background(), SubmitRequest{Content: c}); !errors.Is(err, ErrEmptyContent) {
			t.Errorf("Submit(%q): expected ErrEmptyContent, got %v", c, err)
		}
	}
}

func TestSubmit_StoreErrorPropagates(t *testing.T) {
	st := testutil.NewMockStore()
	st.AddErr = store.ErrDuplicate
	svc := New(st, localScorer(0.8))

	_, err := svc.Submit(context.Background(), SubmitRequest{Content: "fresh prompt"})
	if !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("expected wrapped ErrDuplicate, got %v", err)
	}
}

func TestSubmit_FirstPromptIsAlwaysSaved(t *testing.T) {
	st := testutil.NewMockStore()
	svc := New(st, localScorer(0))

	res, err := svc.Submit(context.Background(), SubmitRequest{Content: "anything"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !res.Saved || res.Warning || res.MaxScore != 0 {
		t.Errorf("empty store should accept, got %+v", res)
	}
}

func TestCheck_UsesRecencyWindow(t *testing.T) {
	st := testutil.NewMockStore()
	st.Seed("one", "two", "three", "four")
	rec := &recordingScorer{}
	svc := New(st, rec, WithWindow(2))

	if _, err := svc.Check(context.Background(), "five"); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(rec.corpus) != 2 || rec.corpus[0] != "four" || rec.corpus[1] != "three" {
		t.Errorf("corpus = %v, want [four three]", rec.corpus)
	}
	if svc.Window() != 2 {
		t.Errorf("Window() = %d, want 2", svc.Window())
	}
}

func TestCheck_ReportsClosestAndDiff(t *testing.T) {
	st := testutil.NewMockStore()
	st.Seed("write a poem about the sea", "test")
	svc := New(st, localScorer(0.75))

	res, err := svc.Check(context.Background(), "tost")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Closest == nil || res.Closest.Text != "test" {
		t.Fatalf("Closest = %+v, want test", res.Closest)
	}
	if math.Abs(res.MaxScore-0.75) > 1e-9 || !res.Warning {
		t.Errorf("MaxScore=%f Warning=%v, want 0.75/true", res.MaxScore, res.Warning)
	}
	if res.Diff == "" || res.Diff == "tost" {
		t.Errorf("Diff = %q, want edit markers", res.Diff)
	}
	if res.CorpusSize != 2 {
		t.Errorf("CorpusSize = %d, want 2", res.CorpusSize)
	}
	if len(st.List()) != 2 {
		t.Error("Check must not store anything")
	}
}

func TestCheck_EmptyStore(t *testing.T) {
	svc := New(testutil.NewMockStore(), localScorer(0.8))
	res, err := svc.Check(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Closest != nil || res.Diff != "" || res.Warning {
		t.Errorf("unexpected result for empty store: %+v", res)
	}
}

func TestScore_BypassesStore(t *testing.T) {
	st := testutil.NewMockStore()
	st.Seed("stored prompt")
	svc := New(st, localScorer(0.8))

	out := svc.Score(context.Background(), "hello world", []string{"hello world"})
	if len(out.Results) != 1 || out.Results[0].Text != "hello world" {
		t.Errorf("Score used the wrong corpus: %+v", out.Results)
	}
}

var (
	insertRe = regexp.MustCompile(`\{\+(.*?)\+\}`)
	deleteRe = regexp.MustCompile(`\[-(.*?)-\]`)
)

func TestDiff(t *testing.T) {
	tests := []struct {
		from, to string
	}{
		{"hello world", "hello world"},
		{"test", "tost"},
		{"Summarize the article", "Summarize the long article!"},
		{"", "new text"},
		{"old text", ""},
	}

	for _, tc := range tests {
		got := Diff(tc.from, tc.to)

		// Dropping deletions and unwrapping insertions yields the target.
		to := insertRe.ReplaceAllString(deleteRe.ReplaceAllString(got, ""), "$1")
		if to != tc.to {
			t.Errorf("Diff(%q, %q) = %q does not reconstruct target (%q)", tc.from, tc.to, got, to)
		}
		from := deleteRe.ReplaceAllString(insertRe.ReplaceAllString(got, ""), "$1")
		if from != tc.from {
			t.Errorf("Diff(%q, %q) = %q does not reconstruct source (%q)", tc.from, tc.to, got, from)
		}
	}

	if got := Diff("same", "same"); got != "same" {
		t.Errorf("Diff of identical strings = %q, want %q", got, "same")
	}
}
