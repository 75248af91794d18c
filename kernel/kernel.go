/*
Package kernel implements the covariance functions used by GP layers.

Hyper-parameters are exposed as a flat log-space vector so a generic
optimizer can drive them without caring which kernel it is tuning.
*/
package kernel

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

/*
Kernel is a positive-definite covariance function over feature vectors.
*/
type Kernel interface {
	// Eval computes k(x, y).
	Eval(x, y []float64) float64
	// Diag computes k(x, x) without the cross-term work.
	Diag(x []float64) float64
	// NumHyper is the number of tunable hyper-parameters.
	NumHyper() int
	// Hyper appends the current hyper-parameters to dst.
	Hyper(dst []float64) []float64
	// SetHyper replaces the hyper-parameters; len(h) must be NumHyper().
	SetHyper(h []float64)
}

/*
RBF is the squared exponential covariance

	k(x,y) = exp(2*LogVariance) * exp(-||x-y||^2 / (2*exp(2*LogScale)))

parameterized in log space to keep scale and variance positive.
*/
type RBF struct {
	LogScale    float64 // log of the lengthscale
	LogVariance float64 // log of the output scale (not squared)
}

/*
NewRBF returns an RBF kernel with unit lengthscale and output scale.
*/
func NewRBF() *RBF {
	return &RBF{LogScale: 0, LogVariance: 0}
}

func (k *RBF) Eval(x, y []float64) float64 {
	d := floats.Distance(x, y, 2)
	ell := math.Exp(k.LogScale)
	return math.Exp(2*k.LogVariance) * math.Exp(-d*d/(2*ell*ell))
}

func (k *RBF) Diag(x []float64) float64 {
	return math.Exp(2 * k.LogVariance)
}

func (k *RBF) NumHyper() int { return 2 }

func (k *RBF) Hyper(dst []float64) []float64 {
	return append(dst, k.LogScale, k.LogVariance)
}

func (k *RBF) SetHyper(h []float64) {
	if len(h) != 2 {
		panic("rbf: hyper length mismatch")
	}
	k.LogScale, k.LogVariance = h[0], h[1]
}
