package steps

import (
	"github.com/yungbote/versegraph/internal/domain"
)

// ThemeLinks computes the multi-label verse->theme candidates: every verse
// with a non-noise assignment is scored by cosine similarity against every
// cluster centroid, and every score meeting the threshold (inclusive) emits a
// link. A verse may link to themes outside its own cluster and is not
// guaranteed a link to its own cluster's theme.
func ThemeLinks(ids []string, vectors [][]float32, labels []int, clusters []Cluster, names map[int]string, threshold float64) []domain.ThemeLink {
	var links []domain.ThemeLink
	for i := range ids {
		if labels[i] == domain.NoiseLabel {
			continue
		}
		for _, cl := range clusters {
			name, ok := names[cl.ID]
			if !ok || name == "" {
				continue
			}
			if cosine(vectors[i], cl.Centroid) >= threshold {
				links = append(links, domain.ThemeLink{VerseID: ids[i], Theme: name})
			}
		}
	}
	return links
}
