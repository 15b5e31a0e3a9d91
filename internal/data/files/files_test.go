package files

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yungbote/versegraph/internal/domain"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadCorpus(t *testing.T) {
	path := writeTemp(t, "corpus.json", `{
  "books": [
    {"name": "Genesis", "chapters": [
      {"chapter": 1, "verses": [
        {"verse": 1, "text": "In the beginning..."},
        {"verse": 2, "text": "And the earth..."}
      ]}
    ]}
  ]
}`)

	corpus, err := LoadCorpus(path)
	if err != nil {
		t.Fatalf("LoadCorpus: %v", err)
	}
	if corpus.VerseCount() != 2 {
		t.Fatalf("verse count = %d, want 2", corpus.VerseCount())
	}
	if corpus.Books[0].Name != "Genesis" {
		t.Fatalf("book = %q", corpus.Books[0].Name)
	}
}

func TestLoadCorpusRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":        `{"books": [`,
		"no books":        `{"books": []}`,
		"empty book name": `{"books": [{"name": " ", "chapters": []}]}`,
		"bad chapter":     `{"books": [{"name": "Genesis", "chapters": [{"chapter": 0, "verses": []}]}]}`,
		"bad verse":       `{"books": [{"name": "Genesis", "chapters": [{"chapter": 1, "verses": [{"verse": 0, "text": "x"}]}]}]}`,
	}
	for name, content := range cases {
		path := writeTemp(t, "corpus.json", content)
		_, err := LoadCorpus(path)
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("%s: expected ParseError, got %v", name, err)
		}
	}
}

func TestLoadEmbeddingsDimensionMismatch(t *testing.T) {
	path := writeTemp(t, "emb.json", `{
  "Genesis 1:1": {"text": "a", "embedding": [1, 2, 3]},
  "Genesis 1:2": {"text": "b", "embedding": [1, 2]}
}`)
	_, err := LoadEmbeddings(path)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestEmbeddingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emb.json")
	set := domain.EmbeddingSet{
		"Genesis 1:1": {Text: "In the beginning...", Embedding: []float32{0.5, -0.25}},
	}
	if err := SaveEmbeddings(path, set); err != nil {
		t.Fatalf("SaveEmbeddings: %v", err)
	}
	got, err := LoadEmbeddings(path)
	if err != nil {
		t.Fatalf("LoadEmbeddings: %v", err)
	}
	rec := got["Genesis 1:1"]
	if rec.Text != "In the beginning..." || len(rec.Embedding) != 2 {
		t.Fatalf("round trip wrong: %+v", rec)
	}
}

func TestLoadEntitiesValidatesIDs(t *testing.T) {
	path := writeTemp(t, "ent.json", `[{"id": "bogus", "people": [], "places": []}]`)
	_, err := LoadEntities(path)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}

	path = writeTemp(t, "ent2.json", `[{"id": "Genesis 1:1", "people": [{"name": " God ", "aliases": ["Elohim"]}], "places": []}]`)
	entries, err := LoadEntities(path)
	if err != nil {
		t.Fatalf("LoadEntities: %v", err)
	}
	if len(entries) != 1 || entries[0].People[0].Name != "God" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestSaveClusters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clusters.json")
	in := domain.ClusterAssignments{"Genesis 1:1": 0, "Genesis 1:2": domain.NoiseLabel}
	if err := SaveClusters(path, in); err != nil {
		t.Fatalf("SaveClusters: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var out map[string]int
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("written file is not a flat id->label object: %v", err)
	}
	if out["Genesis 1:1"] != 0 || out["Genesis 1:2"] != domain.NoiseLabel {
		t.Fatalf("assignments = %v", out)
	}
}
