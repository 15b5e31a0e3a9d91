package steps

import "math"

func dot(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(a []float32) float64 {
	var sum float64
	for _, x := range a {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	na := norm(a)
	nb := norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return dot(a, b) / (na * nb)
}

func euclidean(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// meanVector is the centroid of the given member rows.
func meanVector(vectors [][]float32, members []int) []float32 {
	if len(members) == 0 || len(vectors) == 0 {
		return nil
	}
	dim := len(vectors[members[0]])
	acc := make([]float64, dim)
	for _, idx := range members {
		v := vectors[idx]
		for j := 0; j < dim && j < len(v); j++ {
			acc[j] += float64(v[j])
		}
	}
	out := make([]float32, dim)
	inv := 1.0 / float64(len(members))
	for j := range acc {
		out[j] = float32(acc[j] * inv)
	}
	return out
}
