package steps

import (
	"math"
	"reflect"
	"testing"

	"github.com/yungbote/versegraph/internal/domain"
)

// Two tight groups far apart plus one outlier.
func clusteredVectors() [][]float32 {
	return [][]float32{
		{0, 0}, {0.1, 0}, {0, 0.1}, {0.1, 0.1}, {0.05, 0.05},
		{10, 10}, {10.1, 10}, {10, 10.1}, {10.1, 10.1}, {10.05, 10.05},
		{50, 50},
	}
}

func TestClusterEmbeddingsTwoGroupsAndNoise(t *testing.T) {
	labels := ClusterEmbeddings(clusteredVectors(), 4, 1.0)

	if len(labels) != 11 {
		t.Fatalf("labels = %d, want 11", len(labels))
	}
	for i := 1; i < 5; i++ {
		if labels[i] != labels[0] {
			t.Fatalf("group A split: %v", labels)
		}
	}
	for i := 6; i < 10; i++ {
		if labels[i] != labels[5] {
			t.Fatalf("group B split: %v", labels)
		}
	}
	if labels[0] == labels[5] {
		t.Fatalf("groups merged: %v", labels)
	}
	if labels[10] != domain.NoiseLabel {
		t.Fatalf("outlier label = %d, want noise", labels[10])
	}
	if labels[0] != 0 || labels[5] != 1 {
		t.Fatalf("labels not densely numbered in discovery order: %v", labels)
	}
}

func TestClusterEmbeddingsEveryPointLabeled(t *testing.T) {
	labels := ClusterEmbeddings(clusteredVectors(), 4, 1.0)
	for i, l := range labels {
		if l != domain.NoiseLabel && l < 0 {
			t.Fatalf("point %d has invalid label %d", i, l)
		}
	}
}

func TestClusterEmbeddingsTooFewPoints(t *testing.T) {
	labels := ClusterEmbeddings([][]float32{{0, 0}, {1, 1}}, 5, 1.0)
	for i, l := range labels {
		if l != domain.NoiseLabel {
			t.Fatalf("point %d = %d, want noise when n < min cluster size", i, l)
		}
	}
}

func TestClusterEmbeddingsAutoEpsilon(t *testing.T) {
	// eps <= 0 estimates from the k-NN distance distribution; the groups are
	// tight enough that the estimate separates them from the outlier.
	labels := ClusterEmbeddings(clusteredVectors(), 4, 0)
	if labels[10] != domain.NoiseLabel {
		t.Fatalf("outlier survived auto-eps: %v", labels)
	}
	if labels[0] == domain.NoiseLabel || labels[5] == domain.NoiseLabel {
		t.Fatalf("dense groups lost under auto-eps: %v", labels)
	}
}

func TestClusterEmbeddingsDeterministic(t *testing.T) {
	a := ClusterEmbeddings(clusteredVectors(), 4, 1.0)
	b := ClusterEmbeddings(clusteredVectors(), 4, 1.0)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same input diverged: %v vs %v", a, b)
	}
}

func TestCosine(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0.5, 0.5}

	if got, want := cosine(a, a), 1.0; math.Abs(got-want) > 1e-9 {
		t.Fatalf("cosine(a,a) = %v, want 1", got)
	}
	if math.Abs(cosine(a, b)-cosine(b, a)) > 1e-12 {
		t.Fatal("cosine not symmetric")
	}
	// Normalized by both vector norms: scaling either side is a no-op.
	scaled := []float32{5, 5}
	if math.Abs(cosine(a, b)-cosine(a, scaled)) > 1e-9 {
		t.Fatal("cosine not scale-invariant")
	}
	if cosine([]float32{0, 0}, a) != 0 {
		t.Fatal("zero vector should score 0")
	}
}

func TestMeanVector(t *testing.T) {
	vectors := [][]float32{{0, 0}, {2, 4}, {4, 2}}
	got := meanVector(vectors, []int{0, 1, 2})
	want := []float32{2, 2}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("meanVector = %v, want %v", got, want)
	}
}
