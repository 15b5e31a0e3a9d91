package steps

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/yungbote/versegraph/internal/config"
	"github.com/yungbote/versegraph/internal/domain"
	"github.com/yungbote/versegraph/internal/platform/logger"
	"github.com/yungbote/versegraph/internal/platform/openai"
)

// ThemeGraph writes Theme nodes and HAS_THEME edges.
type ThemeGraph interface {
	CreateThemes(ctx context.Context, labels []string) error
	LinkThemes(ctx context.Context, links []domain.ThemeLink) (int64, error)
}

type ThemePipelineDeps struct {
	Log   *logger.Logger
	AI    openai.Client
	Store ThemeGraph
	Cfg   config.ThemesConfig
}

type ThemePipelineOutput struct {
	Verses        int
	Clusters      int
	Noise         int
	Themes        int
	LinkCands     int
	Linked        int64
	FailedBatches int
}

// RunThemePipeline clusters the embedding set, labels each cluster, computes
// threshold-gated verse->theme links, and writes Theme nodes plus batched
// HAS_THEME edges. Assumes verse nodes already exist; links against absent
// verses silently drop inside the idempotent merge.
func RunThemePipeline(ctx context.Context, deps ThemePipelineDeps, set domain.EmbeddingSet) (ThemePipelineOutput, error) {
	var out ThemePipelineOutput
	if len(set) == 0 {
		return out, fmt.Errorf("theme pipeline: no embeddings")
	}

	ids, texts, vectors := Flatten(set, deps.Cfg.Shuffle)
	out.Verses = len(ids)

	labels := ClusterEmbeddings(vectors, deps.Cfg.MinClusterSize, 0)
	for _, l := range labels {
		if l == domain.NoiseLabel {
			out.Noise++
		}
	}

	clusters := BuildClusters(vectors, labels)
	out.Clusters = len(clusters)
	deps.Log.Info("clustering done",
		"verses", out.Verses, "clusters", out.Clusters, "noise", out.Noise)

	names := LabelClusters(ctx, LabelDeps{
		Log:        deps.Log,
		AI:         deps.AI,
		SampleSize: deps.Cfg.SampleSize,
	}, clusters, ids, texts, vectors)

	links := ThemeLinks(ids, vectors, labels, clusters, names, deps.Cfg.SimilarityThreshold)
	out.LinkCands = len(links)
	deps.Log.Info("similarity links computed", "candidates", len(links))

	themeNames := make([]string, 0, len(names))
	for _, name := range names {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)
	out.Themes = len(themeNames)

	if err := deps.Store.CreateThemes(ctx, themeNames); err != nil {
		return out, fmt.Errorf("theme pipeline: %w", err)
	}

	for start := 0; start < len(links); start += deps.Cfg.LinkBatchSize {
		end := start + deps.Cfg.LinkBatchSize
		if end > len(links) {
			end = len(links)
		}
		n, err := deps.Store.LinkThemes(ctx, links[start:end])
		if err != nil {
			out.FailedBatches++
			deps.Log.Error("theme link batch failed", "offset", start, "error", err)
			continue
		}
		out.Linked += n
	}

	return out, nil
}

// Flatten turns the embedding set into parallel id/text/vector slices. Order
// is sorted by id for reproducibility, then optionally shuffled: density
// clustering is order-invariant, but the shuffle randomizes which verses land
// in the representative samples.
func Flatten(set domain.EmbeddingSet, shuffle bool) (ids []string, texts []string, vectors [][]float32) {
	ids = make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if shuffle {
		rand.Shuffle(len(ids), func(i, j int) {
			ids[i], ids[j] = ids[j], ids[i]
		})
	}

	texts = make([]string, len(ids))
	vectors = make([][]float32, len(ids))
	for i, id := range ids {
		rec := set[id]
		texts[i] = rec.Text
		vectors[i] = rec.Embedding
	}
	return ids, texts, vectors
}

// Assignments pairs the flattened ids with their labels for the cluster
// artifact file.
func Assignments(ids []string, labels []int) domain.ClusterAssignments {
	out := make(domain.ClusterAssignments, len(ids))
	for i, id := range ids {
		out[id] = labels[i]
	}
	return out
}
