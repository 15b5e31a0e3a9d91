package steps

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/versegraph/internal/config"
	"github.com/yungbote/versegraph/internal/data/graph"
	"github.com/yungbote/versegraph/internal/domain"
	"github.com/yungbote/versegraph/internal/platform/logger"
)

// EntityGraph merges entity nodes and their mention edges.
type EntityGraph interface {
	UpsertMentions(ctx context.Context, label string, rows []map[string]any) (int64, error)
}

type LinkDeps struct {
	Log   *logger.Logger
	Store EntityGraph
	Cfg   config.EntitiesConfig
}

type LinkOutput struct {
	PersonRows    int
	PlaceRows     int
	Linked        int64
	DroppedVerses int
	FailedBatches int64
}

// LinkEntities merges every extracted person and place into the graph and
// links each to the verse, chapter, and book mentioning it. Mentions whose
// verse id is not part of the corpus are dropped up front and logged; the
// remaining rows are idempotent commutative merges, so batches run
// concurrently under a bounded group. The NEXT_VERSE chain is untouched here,
// which is what makes the parallelism safe.
func LinkEntities(ctx context.Context, deps LinkDeps, corpus *domain.Corpus, entries []domain.VerseEntities) (LinkOutput, error) {
	var out LinkOutput
	if len(entries) == 0 {
		return out, nil
	}

	known := corpus.ByID()

	personRows := make([]map[string]any, 0, len(entries))
	placeRows := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		if _, ok := known[entry.ID]; !ok {
			out.DroppedVerses++
			deps.Log.Warn("mention dropped, verse not in corpus", "verse_id", entry.ID)
			continue
		}
		for _, m := range entry.People {
			personRows = append(personRows, mentionRow(entry.ID, m))
		}
		for _, m := range entry.Places {
			placeRows = append(placeRows, mentionRow(entry.ID, m))
		}
	}
	out.PersonRows = len(personRows)
	out.PlaceRows = len(placeRows)

	var linked, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(deps.Cfg.Parallelism)

	runBatches := func(label string, rows []map[string]any) {
		for start := 0; start < len(rows); start += deps.Cfg.BatchSize {
			end := start + deps.Cfg.BatchSize
			if end > len(rows) {
				end = len(rows)
			}
			batch := rows[start:end]
			g.Go(func() error {
				n, err := deps.Store.UpsertMentions(gctx, label, batch)
				if err != nil {
					failed.Add(1)
					deps.Log.Error("mention batch failed",
						"label", label, "size", len(batch), "error", err)
					return nil
				}
				if n < int64(len(batch)) {
					deps.Log.Warn("some mentions did not link (verse missing in graph)",
						"label", label, "sent", len(batch), "linked", n)
				}
				linked.Add(n)
				return nil
			})
		}
	}

	runBatches(graph.LabelPerson, personRows)
	runBatches(graph.LabelPlace, placeRows)

	if err := g.Wait(); err != nil {
		return out, fmt.Errorf("link entities: %w", err)
	}

	out.Linked = linked.Load()
	out.FailedBatches = failed.Load()
	return out, nil
}

func mentionRow(verseID string, m domain.EntityMention) map[string]any {
	aliases := make([]any, len(m.Aliases))
	for i, a := range m.Aliases {
		aliases[i] = a
	}
	return map[string]any{
		"name":     m.Name,
		"aliases":  aliases,
		"verse_id": verseID,
	}
}
