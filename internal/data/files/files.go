// Package files is the JSON file boundary of the pipeline. Every loader
// validates shape before anything reaches the graph writers; malformed input
// surfaces as a typed parse error, never as a half-applied write.
package files

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/yungbote/versegraph/internal/domain"
)

// ParseError marks input that was readable but structurally invalid.
type ParseError struct {
	Path   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.Path, e.Reason)
}

func LoadCorpus(path string) (*domain.Corpus, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}

	var corpus domain.Corpus
	if err := json.Unmarshal(raw, &corpus); err != nil {
		return nil, &ParseError{Path: path, Reason: err.Error()}
	}
	if len(corpus.Books) == 0 {
		return nil, &ParseError{Path: path, Reason: "no books"}
	}
	for _, b := range corpus.Books {
		if strings.TrimSpace(b.Name) == "" {
			return nil, &ParseError{Path: path, Reason: "book with empty name"}
		}
		for _, ch := range b.Chapters {
			if ch.Number <= 0 {
				return nil, &ParseError{Path: path, Reason: fmt.Sprintf("book %q: non-positive chapter number", b.Name)}
			}
			for _, v := range ch.Verses {
				if v.Number <= 0 {
					return nil, &ParseError{Path: path, Reason: fmt.Sprintf("book %q chapter %d: non-positive verse number", b.Name, ch.Number)}
				}
			}
		}
	}
	return &corpus, nil
}

func LoadEmbeddings(path string) (domain.EmbeddingSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read embeddings: %w", err)
	}

	var set domain.EmbeddingSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, &ParseError{Path: path, Reason: err.Error()}
	}
	if len(set) == 0 {
		return nil, &ParseError{Path: path, Reason: "no embeddings"}
	}

	dim := 0
	for id, rec := range set {
		if len(rec.Embedding) == 0 {
			return nil, &ParseError{Path: path, Reason: fmt.Sprintf("verse %q: empty embedding", id)}
		}
		if dim == 0 {
			dim = len(rec.Embedding)
		} else if len(rec.Embedding) != dim {
			return nil, &ParseError{Path: path, Reason: fmt.Sprintf("verse %q: dimension %d, expected %d", id, len(rec.Embedding), dim)}
		}
	}
	return set, nil
}

func SaveEmbeddings(path string, set domain.EmbeddingSet) error {
	return writeJSON(path, set)
}

func LoadEntities(path string) ([]domain.VerseEntities, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read entities: %w", err)
	}

	var entries []domain.VerseEntities
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, &ParseError{Path: path, Reason: err.Error()}
	}
	for i := range entries {
		if err := entries[i].Validate(); err != nil {
			return nil, &ParseError{Path: path, Reason: fmt.Sprintf("entry %d: %v", i, err)}
		}
		entries[i].Normalize()
	}
	return entries, nil
}

func SaveEntities(path string, entries []domain.VerseEntities) error {
	return writeJSON(path, entries)
}

// SaveClusters writes the assignment file. It is a terminal export for
// downstream tooling; no pipeline stage reads it back.
func SaveClusters(path string, assignments domain.ClusterAssignments) error {
	return writeJSON(path, assignments)
}

func writeJSON(path string, v any) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
