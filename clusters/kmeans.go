/*
Package clusters provides the k-means routine used to place initial
inducing points on a training set.
*/
package clusters

import (
	"math"
	"math/rand"

	"go-ml.dev/pkg/zorros"
	"gonum.org/v1/gonum/floats"
)

/*
KMeans clusters points into k centers with Lloyd iterations after
k-means++ seeding. Deterministic for a fixed seed. When k exceeds the
number of distinct points the surplus centers collapse onto existing
ones, which is acceptable for inducing initialization (the layer adds
jitter downstream).
*/
func KMeans(points [][]float64, k, iters int, seed int64) ([][]float64, error) {
	if len(points) == 0 {
		return nil, zorros.Errorf("kmeans requires a non-empty point set")
	}
	if k < 1 {
		return nil, zorros.Errorf("kmeans requires at least one center, got %d", k)
	}
	if k > len(points) {
		k = len(points)
	}
	dim := len(points[0])
	for i, p := range points {
		if len(p) != dim {
			return nil, zorros.Errorf("point %d has dimension %d, expected %d", i, len(p), dim)
		}
	}
	rng := rand.New(rand.NewSource(seed))
	centers := seedPlusPlus(points, k, rng)

	assign := make([]int, len(points))
	counts := make([]int, k)
	for it := 0; it < iters; it++ {
		changed := false
		for i, p := range points {
			best, bd := 0, math.Inf(1)
			for c := range centers {
				if d := floats.Distance(p, centers[c], 2); d < bd {
					best, bd = c, d
				}
			}
			if assign[i] != best || it == 0 {
				assign[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}
		for c := range centers {
			for j := range centers[c] {
				centers[c][j] = 0
			}
			counts[c] = 0
		}
		for i, p := range points {
			c := assign[i]
			floats.Add(centers[c], p)
			counts[c]++
		}
		for c := range centers {
			if counts[c] == 0 {
				// restart an empty cluster on a random point
				copy(centers[c], points[rng.Intn(len(points))])
				continue
			}
			floats.Scale(1/float64(counts[c]), centers[c])
		}
	}
	return centers, nil
}

func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centers := make([][]float64, 0, k)
	first := points[rng.Intn(len(points))]
	centers = append(centers, append([]float64{}, first...))
	d2 := make([]float64, len(points))
	for len(centers) < k {
		sum := 0.0
		for i, p := range points {
			bd := math.Inf(1)
			for _, c := range centers {
				if d := floats.Distance(p, c, 2); d < bd {
					bd = d
				}
			}
			d2[i] = bd * bd
			sum += d2[i]
		}
		var next int
		if sum == 0 {
			next = rng.Intn(len(points))
		} else {
			r := rng.Float64() * sum
			for i, d := range d2 {
				r -= d
				if r <= 0 {
					next = i
					break
				}
			}
		}
		centers = append(centers, append([]float64{}, points[next]...))
	}
	return centers
}
