package steps

import (
	"context"
	"fmt"

	"github.com/yungbote/versegraph/internal/data/graph"
	"github.com/yungbote/versegraph/internal/domain"
	"github.com/yungbote/versegraph/internal/platform/logger"
)

// RepairGraph is the slice of the graph layer the repair step uses.
type RepairGraph interface {
	FetchVerses(ctx context.Context) ([]graph.GraphVerse, error)
	RestoreIdentities(ctx context.Context, rows []map[string]any) error
	EnsureStructure(ctx context.Context, rows []map[string]any) error
}

type RepairDeps struct {
	Log   *logger.Logger
	Store RepairGraph
}

type RepairOutput struct {
	NodesExamined  int
	TextMatches    int
	AmbiguousTexts int
	UnknownTexts   int
	StructureRows  int
	StructureFails int
}

const repairBatchSize = 200

// RepairVerseIdentity recovers Verse nodes whose verseId is blank or stale
// and backfills missing containment edges. Two passes, both idempotent.
//
// Text-join pass: verse text is the fallback join key between the corpus and
// the existing nodes. When several corpus verses carry identical text the
// expected id is ambiguous; the last one in reading order wins and the
// ambiguity is logged as a known precision loss. When several graph nodes
// carry the same text, all of them receive the matched id.
//
// Structural pass: every corpus triple gets its Chapter-Book and
// Verse-Chapter edges re-asserted, tolerating individual batch failures.
func RepairVerseIdentity(ctx context.Context, deps RepairDeps, corpus *domain.Corpus) (RepairOutput, error) {
	var out RepairOutput
	if corpus == nil || len(corpus.Books) == 0 {
		return out, fmt.Errorf("repair: empty corpus")
	}

	expected := expectedIDByText(corpus, deps.Log, &out)

	existing, err := deps.Store.FetchVerses(ctx)
	if err != nil {
		return out, fmt.Errorf("repair: %w", err)
	}
	out.NodesExamined = len(existing)

	byID := corpus.ByID()

	// One restore row per distinct text seen in the graph; duplicate graph
	// nodes with the same text are handled inside the single write.
	textSeen := make(map[string]int, len(existing))
	for _, node := range existing {
		textSeen[node.Text]++
	}

	var restoreRows []map[string]any
	for text, nodeCount := range textSeen {
		id, ok := expected[text]
		if !ok {
			out.UnknownTexts++
			continue
		}
		if nodeCount > 1 {
			deps.Log.Warn("ambiguous text join, applying to all matches",
				"verse_id", id, "matching_nodes", nodeCount)
		}
		ref := byID[id]
		restoreRows = append(restoreRows, map[string]any{
			"book":         ref.Book,
			"chapter":      int64(ref.Chapter),
			"chapter_name": domain.ChapterName(ref.Book, ref.Chapter),
			"verse_id":     id,
			"text":         text,
		})
		out.TextMatches += nodeCount
	}

	for start := 0; start < len(restoreRows); start += repairBatchSize {
		end := start + repairBatchSize
		if end > len(restoreRows) {
			end = len(restoreRows)
		}
		if err := deps.Store.RestoreIdentities(ctx, restoreRows[start:end]); err != nil {
			deps.Log.Error("restore batch failed", "offset", start, "error", err)
		}
	}

	// Structural pass, one batch per book so a bad book cannot sink the rest.
	for i := range corpus.Books {
		book := &corpus.Books[i]
		var rows []map[string]any
		for _, ch := range book.Chapters {
			for _, v := range ch.Verses {
				rows = append(rows, map[string]any{
					"book":         book.Name,
					"chapter":      int64(ch.Number),
					"chapter_name": domain.ChapterName(book.Name, ch.Number),
					"verse_id":     domain.VerseID(book.Name, ch.Number, v.Number),
				})
			}
		}
		if err := deps.Store.EnsureStructure(ctx, rows); err != nil {
			out.StructureFails++
			deps.Log.Error("structure pass failed for book", "book", book.Name, "error", err)
			continue
		}
		out.StructureRows += len(rows)
	}

	return out, nil
}

// expectedIDByText maps verse text to its expected composite id. Corpus-side
// duplicates resolve to the last occurrence in reading order.
func expectedIDByText(corpus *domain.Corpus, log *logger.Logger, out *RepairOutput) map[string]string {
	index := corpus.TextIndex()
	expected := make(map[string]string, len(index))
	for text, ids := range index {
		if len(ids) > 1 {
			out.AmbiguousTexts++
			log.Warn("duplicate verse text in corpus, last id wins",
				"ids", ids)
		}
		expected[text] = ids[len(ids)-1]
	}
	return expected
}
