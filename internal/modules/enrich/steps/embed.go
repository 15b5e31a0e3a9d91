package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/versegraph/internal/config"
	"github.com/yungbote/versegraph/internal/domain"
	"github.com/yungbote/versegraph/internal/platform/logger"
	"github.com/yungbote/versegraph/internal/platform/openai"
)

// EmbeddingGraph stores vectors on existing Verse nodes.
type EmbeddingGraph interface {
	SetVerseEmbeddings(ctx context.Context, rows []map[string]any) (int64, error)
}

type EmbedDeps struct {
	Log   *logger.Logger
	AI    openai.Client
	Store EmbeddingGraph
	Cfg   config.EmbedConfig
}

type EmbedOutput struct {
	Verses        int
	Embedded      int
	NodesUpdated  int64
	FailedBatches int
}

// EmbedVerses embeds every corpus verse in fixed-size batches, stores each
// batch on the graph immediately, and returns the accumulated embedding set
// for the local backup file. A failed batch is skipped and logged; the
// cooldown between batches respects the provider's rate limits.
func EmbedVerses(ctx context.Context, deps EmbedDeps, corpus *domain.Corpus) (domain.EmbeddingSet, EmbedOutput, error) {
	var out EmbedOutput

	walk := corpus.Walk()
	out.Verses = len(walk)
	if len(walk) == 0 {
		return nil, out, fmt.Errorf("embed: empty corpus")
	}

	set := make(domain.EmbeddingSet, len(walk))
	batchSize := deps.Cfg.BatchSize

	for start := 0; start < len(walk); start += batchSize {
		if err := ctx.Err(); err != nil {
			return set, out, err
		}

		end := start + batchSize
		if end > len(walk) {
			end = len(walk)
		}
		batch := walk[start:end]

		texts := make([]string, len(batch))
		for i, v := range batch {
			texts[i] = v.Text
		}

		vecs, err := deps.AI.Embed(ctx, texts)
		if err != nil {
			out.FailedBatches++
			deps.Log.Error("embedding batch failed",
				"first_id", batch[0].ID, "size", len(batch), "error", err)
			sleep(ctx, deps.Cfg.Cooldown)
			continue
		}

		rows := make([]map[string]any, len(batch))
		for i, v := range batch {
			set[v.ID] = domain.EmbeddingRecord{Text: v.Text, Embedding: vecs[i]}
			rows[i] = map[string]any{
				"verse_id":  v.ID,
				"embedding": toFloat64(vecs[i]),
			}
			out.Embedded++
		}

		updated, err := deps.Store.SetVerseEmbeddings(ctx, rows)
		if err != nil {
			deps.Log.Error("embedding upload failed",
				"first_id", batch[0].ID, "size", len(batch), "error", err)
		} else {
			out.NodesUpdated += updated
		}

		sleep(ctx, deps.Cfg.Cooldown)
	}

	return set, out, nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
