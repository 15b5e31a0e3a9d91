package steps

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/yungbote/versegraph/internal/domain"
	"github.com/yungbote/versegraph/internal/platform/logger"
)

type fakeAI struct {
	responses []string
	errs      []error
	prompts   []string
	calls     int
}

func (f *fakeAI) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (f *fakeAI) GenerateText(_ context.Context, _, user string) (string, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, user)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "Faith", nil
}

func TestBuildClusters(t *testing.T) {
	vectors := [][]float32{{0, 0}, {2, 4}, {10, 0}, {99, 99}}
	labels := []int{0, 0, 1, domain.NoiseLabel}

	clusters := BuildClusters(vectors, labels)
	if len(clusters) != 2 {
		t.Fatalf("clusters = %d, want 2", len(clusters))
	}
	if clusters[0].ID != 0 || clusters[1].ID != 1 {
		t.Fatalf("cluster order = %d,%d, want 0,1", clusters[0].ID, clusters[1].ID)
	}
	if !reflect.DeepEqual(clusters[0].Members, []int{0, 1}) {
		t.Fatalf("cluster 0 members = %v", clusters[0].Members)
	}
	if !reflect.DeepEqual(clusters[0].Centroid, []float32{1, 2}) {
		t.Fatalf("cluster 0 centroid = %v, want [1 2]", clusters[0].Centroid)
	}
	for _, cl := range clusters {
		for _, m := range cl.Members {
			if m == 3 {
				t.Fatal("noise row included in a cluster")
			}
		}
	}
}

func TestRepresentativeIndices(t *testing.T) {
	// Centroid points along x; members rank by their x component.
	vectors := [][]float32{{1, 0}, {5, 0}, {3, 0}}
	cl := Cluster{ID: 0, Members: []int{0, 1, 2}, Centroid: []float32{1, 0}}

	got := RepresentativeIndices(cl, vectors, 2)
	if !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("top 2 = %v, want [1 2]", got)
	}
	if got := RepresentativeIndices(cl, vectors, 10); len(got) != 3 {
		t.Fatalf("k beyond member count returned %d rows", len(got))
	}
}

func TestLabelClusters(t *testing.T) {
	vectors := [][]float32{{1, 0}, {2, 0}}
	clusters := BuildClusters(vectors, []int{0, 0})
	ids := []string{"Genesis 1:1", "Genesis 1:2"}
	texts := []string{"In the beginning", "And the earth"}

	ai := &fakeAI{responses: []string{` "Creation" `}}
	deps := LabelDeps{Log: logger.NewNop(), AI: ai, SampleSize: 1}

	names := LabelClusters(context.Background(), deps, clusters, ids, texts, vectors)
	if names[0] != "Creation" {
		t.Fatalf("label = %q, want quotes and whitespace trimmed", names[0])
	}
	if ai.calls != 1 {
		t.Fatalf("model calls = %d, want 1", ai.calls)
	}
	// Sample size 1 feeds only the member closest to the centroid.
	if !strings.Contains(ai.prompts[0], "And the earth") {
		t.Fatalf("prompt missing representative text: %q", ai.prompts[0])
	}
	if strings.Contains(ai.prompts[0], "In the beginning") {
		t.Fatalf("prompt includes non-representative text: %q", ai.prompts[0])
	}
}

func TestLabelClustersFallback(t *testing.T) {
	vectors := [][]float32{{1, 0}, {0, 1}}
	clusters := BuildClusters(vectors, []int{0, 1})
	ids := []string{"Genesis 1:1", "Genesis 1:2"}
	texts := []string{"a", "b"}

	ai := &fakeAI{
		errs:      []error{fmt.Errorf("model down"), nil},
		responses: []string{"", "   "},
	}
	deps := LabelDeps{Log: logger.NewNop(), AI: ai, SampleSize: 1}

	names := LabelClusters(context.Background(), deps, clusters, ids, texts, vectors)
	if names[0] != "Cluster_0" {
		t.Fatalf("failed call label = %q, want Cluster_0", names[0])
	}
	if names[1] != "Cluster_1" {
		t.Fatalf("blank response label = %q, want Cluster_1", names[1])
	}
}
