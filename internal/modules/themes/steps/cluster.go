package steps

import (
	"sort"

	"github.com/yungbote/versegraph/internal/domain"
)

// ClusterEmbeddings groups vectors by density (DBSCAN over Euclidean
// distance) and returns one label per input row: 0..k-1 for cluster members,
// domain.NoiseLabel for unassigned points. minClusterSize doubles as the
// core-point neighborhood threshold, so no cluster count is chosen up front.
// When eps <= 0 it is estimated from the k-nearest-neighbor distance
// distribution. Deterministic given the same ordering and parameters.
func ClusterEmbeddings(vectors [][]float32, minClusterSize int, eps float64) []int {
	n := len(vectors)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = domain.NoiseLabel
	}
	if n == 0 || minClusterSize < 2 || n < minClusterSize {
		return labels
	}

	if eps <= 0 {
		eps = estimateEpsilon(vectors, minClusterSize-1)
		if eps <= 0 {
			return labels
		}
	}

	neighbors := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if euclidean(vectors[i], vectors[j]) <= eps {
				neighbors[i] = append(neighbors[i], j)
				neighbors[j] = append(neighbors[j], i)
			}
		}
	}

	// A point is core when its eps-neighborhood (itself included) reaches
	// minClusterSize.
	core := make([]bool, n)
	for i := 0; i < n; i++ {
		core[i] = len(neighbors[i])+1 >= minClusterSize
	}

	const unvisited = -2
	assign := make([]int, n)
	for i := range assign {
		assign[i] = unvisited
	}

	next := 0
	for i := 0; i < n; i++ {
		if assign[i] != unvisited || !core[i] {
			continue
		}

		// Expand a new cluster from this core point.
		cluster := next
		next++
		assign[i] = cluster
		queue := append([]int(nil), neighbors[i]...)
		for len(queue) > 0 {
			p := queue[0]
			queue = queue[1:]
			if assign[p] != unvisited {
				continue
			}
			assign[p] = cluster // border points join the first cluster to reach them
			if core[p] {
				queue = append(queue, neighbors[p]...)
			}
		}
	}
	for i := range assign {
		if assign[i] == unvisited {
			assign[i] = domain.NoiseLabel
		}
	}

	// Demote clusters that ended up under the minimum size and relabel the
	// rest densely in order of first appearance.
	sizes := make(map[int]int)
	for _, c := range assign {
		if c != domain.NoiseLabel {
			sizes[c]++
		}
	}
	remap := make(map[int]int)
	nextID := 0
	for i, c := range assign {
		if c == domain.NoiseLabel {
			continue
		}
		if sizes[c] < minClusterSize {
			labels[i] = domain.NoiseLabel
			continue
		}
		id, ok := remap[c]
		if !ok {
			id = nextID
			nextID++
			remap[c] = id
		}
		labels[i] = id
	}
	return labels
}

// estimateEpsilon takes the median distance to the k-th nearest neighbor.
// The median keeps the estimate stable against outliers, which instead fall
// out as noise during clustering.
func estimateEpsilon(vectors [][]float32, k int) float64 {
	n := len(vectors)
	if n <= k || k < 1 {
		return 0
	}

	kDists := make([]float64, 0, n)
	dists := make([]float64, 0, n-1)
	for i := 0; i < n; i++ {
		dists = dists[:0]
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			dists = append(dists, euclidean(vectors[i], vectors[j]))
		}
		sort.Float64s(dists)
		kDists = append(kDists, dists[k-1])
	}
	sort.Float64s(kDists)
	return kDists[len(kDists)/2]
}
