package steps

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/yungbote/versegraph/internal/domain"
	"github.com/yungbote/versegraph/internal/platform/logger"
	"github.com/yungbote/versegraph/internal/platform/openai"
)

// Cluster is one non-noise cluster with its member rows and centroid.
type Cluster struct {
	ID       int
	Members  []int
	Centroid []float32
}

// BuildClusters groups row indices by label and computes each cluster's
// centroid. Noise rows are excluded. Output is ordered by cluster id.
func BuildClusters(vectors [][]float32, labels []int) []Cluster {
	byID := make(map[int][]int)
	for i, c := range labels {
		if c == domain.NoiseLabel {
			continue
		}
		byID[c] = append(byID[c], i)
	}

	ids := make([]int, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]Cluster, 0, len(ids))
	for _, id := range ids {
		members := byID[id]
		out = append(out, Cluster{
			ID:       id,
			Members:  members,
			Centroid: meanVector(vectors, members),
		})
	}
	return out
}

// RepresentativeIndices ranks a cluster's members by the projection of their
// vector onto the centroid, descending, and returns the top k: the verses
// closest to the cluster's semantic center.
func RepresentativeIndices(c Cluster, vectors [][]float32, k int) []int {
	ranked := append([]int(nil), c.Members...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return dot(vectors[ranked[i]], c.Centroid) > dot(vectors[ranked[j]], c.Centroid)
	})
	if k > len(ranked) {
		k = len(ranked)
	}
	return ranked[:k]
}

type LabelDeps struct {
	Log        *logger.Logger
	AI         openai.Client
	SampleSize int
}

const labelSystemPrompt = "You are labeling clusters of scripture verses to identify recurring themes. " +
	"Each cluster contains verses that share a common theme or message."

// LabelClusters asks the model for a short label per cluster, feeding it the
// representative verse texts. A failed call degrades to a synthetic label
// derived from the cluster id; the pipeline never aborts on labeling.
func LabelClusters(ctx context.Context, deps LabelDeps, clusters []Cluster, ids []string, texts []string, vectors [][]float32) map[int]string {
	labels := make(map[int]string, len(clusters))

	for _, cl := range clusters {
		deps.Log.Debug("cluster book distribution",
			"cluster", cl.ID, "books", bookDistribution(cl, ids))

		reps := RepresentativeIndices(cl, vectors, deps.SampleSize)
		sample := make([]string, len(reps))
		for i, idx := range reps {
			sample[i] = texts[idx]
		}

		label, err := generateLabel(ctx, deps, sample)
		if err != nil {
			label = FallbackLabel(cl.ID)
			deps.Log.Warn("labeling failed, using fallback",
				"cluster", cl.ID, "label", label, "error", err)
		}
		labels[cl.ID] = label
	}
	return labels
}

// FallbackLabel is the synthetic label used when the labeling capability
// fails for a cluster.
func FallbackLabel(clusterID int) string {
	return fmt.Sprintf("Cluster_%d", clusterID)
}

func generateLabel(ctx context.Context, deps LabelDeps, sample []string) (string, error) {
	var b strings.Builder
	b.WriteString("Return a single, meaningful word or phrase that summarizes the central message of the cluster ")
	b.WriteString("(e.g. 'Redemption', 'Law', 'Prophecy', 'Faith', 'Covenant', 'Exile', 'Temple Worship', 'Promise').\n\n")
	for _, t := range sample {
		fmt.Fprintf(&b, "- %s\n", t)
	}
	b.WriteString("\nTheme:")

	label, err := deps.AI.GenerateText(ctx, labelSystemPrompt, b.String())
	if err != nil {
		return "", err
	}
	label = strings.Trim(strings.TrimSpace(label), `"'`)
	if label == "" {
		return "", fmt.Errorf("empty label")
	}
	return label, nil
}

func bookDistribution(c Cluster, ids []string) map[string]int {
	dist := make(map[string]int)
	for _, idx := range c.Members {
		book, _, _, err := domain.ParseVerseID(ids[idx])
		if err != nil {
			continue
		}
		dist[book]++
	}
	return dist
}
