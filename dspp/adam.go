package dspp

import (
	"math"

	"go-ml.dev/pkg/zorros"
)

// adam is the Adam update rule over a flat parameter vector.
type adam struct {
	rate, beta1, beta2, eps float64
	m, v                    []float64
	t                       int
}

func newAdam(rate float64, n int) (*adam, error) {
	if rate <= 0 {
		return nil, zorros.Errorf("learning rate must be positive, got %v", rate)
	}
	return &adam{
		rate:  rate,
		beta1: 0.9,
		beta2: 0.999,
		eps:   1e-8,
		m:     make([]float64, n),
		v:     make([]float64, n),
	}, nil
}

// Step applies one bias-corrected Adam update to p in place.
func (a *adam) Step(p, g []float64) {
	a.t++
	c1 := 1 - math.Pow(a.beta1, float64(a.t))
	c2 := 1 - math.Pow(a.beta2, float64(a.t))
	for i := range p {
		a.m[i] = a.beta1*a.m[i] + (1-a.beta1)*g[i]
		a.v[i] = a.beta2*a.v[i] + (1-a.beta2)*g[i]*g[i]
		p[i] -= a.rate * (a.m[i] / c1) / (math.Sqrt(a.v[i]/c2) + a.eps)
	}
}
