/*
Package likelihood implements the Gaussian observation model attached to
the output of a GP stack. It turns latent site distributions into full
predictive distributions and computes per-site marginal log-densities of
observed targets.
*/
package likelihood

import (
	"math"

	"go-ml.dev/pkg/zorros"
	"gonum.org/v1/gonum/stat/distuv"
)

/*
Gaussian is a homoscedastic Gaussian likelihood with a learned noise
level, parameterized in log space.
*/
type Gaussian struct {
	LogNoise float64 // log of the noise standard deviation
}

/*
NewGaussian returns a Gaussian likelihood with a moderate initial noise
level.
*/
func NewGaussian() *Gaussian {
	return &Gaussian{LogNoise: math.Log(0.5)}
}

/*
NoiseVar returns the observation noise variance.
*/
func (g *Gaussian) NoiseVar() float64 {
	return math.Exp(2 * g.LogNoise)
}

/*
WithNoise adds the observation noise to latent site variances, turning
latent distributions into full predictive ones. Means pass through
unchanged; the inputs are not modified.
*/
func (g *Gaussian) WithNoise(means, vars [][]float64) (pm, pv [][]float64) {
	nv := g.NoiseVar()
	pm = make([][]float64, len(means))
	pv = make([][]float64, len(vars))
	for q := range vars {
		pm[q] = append([]float64{}, means[q]...)
		pv[q] = make([]float64, len(vars[q]))
		for n, v := range vars[q] {
			pv[q][n] = v + nv
		}
	}
	return pm, pv
}

/*
LogMarginal computes log p(y_n | mean_{q,n}, var_{q,n}) for every site q
and example n under a Gaussian marginal. The variances must already
include observation noise.
*/
func (g *Gaussian) LogMarginal(targets []float64, means, vars [][]float64) ([][]float64, error) {
	ll := make([][]float64, len(means))
	for q := range means {
		if len(means[q]) != len(targets) || len(vars[q]) != len(targets) {
			return nil, zorros.Errorf("site %d carries %d/%d values for %d targets",
				q, len(means[q]), len(vars[q]), len(targets))
		}
		ll[q] = make([]float64, len(targets))
		for n, y := range targets {
			d := distuv.Normal{Mu: means[q][n], Sigma: math.Sqrt(vars[q][n])}
			ll[q][n] = d.LogProb(y)
		}
	}
	return ll, nil
}

/*
NumParams returns the number of tunable likelihood parameters.
*/
func (g *Gaussian) NumParams() int { return 1 }

/*
Params appends the likelihood parameters to dst.
*/
func (g *Gaussian) Params(dst []float64) []float64 {
	return append(dst, g.LogNoise)
}

/*
SetParams replaces the likelihood parameters.
*/
func (g *Gaussian) SetParams(p []float64) error {
	if len(p) != 1 {
		return zorros.Errorf("gaussian likelihood has 1 parameter, got %d", len(p))
	}
	g.LogNoise = p[0]
	return nil
}
