/*
Package quad provides the fixed Gauss-Hermite quadrature rule used to
expand a latent Gaussian into a finite set of sigma-point sites.

The rule is the probabilists' form: for X ~ N(0,1),

	E[f(X)] ~= sum_q exp(LogWeights[q]) * f(Sites[q])

so the exponentiated log-weights always sum to one.
*/
package quad

import (
	"math"

	"go-ml.dev/pkg/zorros"
	"gonum.org/v1/gonum/floats"
)

/*
Rule is an immutable set of quadrature sites with log-weights.
*/
type Rule struct {
	sites      []float64
	logWeights []float64
}

/*
Hermite computes the q-point Gauss-Hermite rule.
*/
func Hermite(q int) (*Rule, error) {
	if q < 1 {
		return nil, zorros.Errorf("quadrature needs at least one site, got %d", q)
	}
	x, w := gauher(q)
	r := &Rule{
		sites:      make([]float64, q),
		logWeights: make([]float64, q),
	}
	for i := 0; i < q; i++ {
		// physicists' nodes/weights -> probabilists': scale nodes by
		// sqrt(2), divide weights by sqrt(pi)
		r.sites[i] = x[i] * math.Sqrt2
		r.logWeights[i] = math.Log(w[i]) - 0.5*math.Log(math.Pi)
	}
	// exact normalization in log space
	z := floats.LogSumExp(r.logWeights)
	for i := range r.logWeights {
		r.logWeights[i] -= z
	}
	return r, nil
}

func LuckyHermite(q int) *Rule {
	r, err := Hermite(q)
	if err != nil {
		panic(zorros.Panic(err))
	}
	return r
}

/*
Len returns the number of sites Q.
*/
func (r *Rule) Len() int { return len(r.sites) }

/*
Sites returns a copy of the site locations.
*/
func (r *Rule) Sites() []float64 {
	return append([]float64{}, r.sites...)
}

/*
LogWeights returns a copy of the site log-weights.
*/
func (r *Rule) LogWeights() []float64 {
	return append([]float64{}, r.logWeights...)
}

func (r *Rule) Site(i int) float64      { return r.sites[i] }
func (r *Rule) LogWeight(i int) float64 { return r.logWeights[i] }

// gauher computes nodes and weights of the n-point physicists'
// Gauss-Hermite rule by Newton iteration on the normalized Hermite
// recurrence. Weights sum to sqrt(pi).
func gauher(n int) (x, w []float64) {
	const eps = 3e-14
	const maxit = 64
	x = make([]float64, n)
	w = make([]float64, n)
	m := (n + 1) / 2
	var z float64
	for i := 0; i < m; i++ {
		switch i {
		case 0:
			z = math.Sqrt(float64(2*n+1)) - 1.85575*math.Pow(float64(2*n+1), -1.0/6.0)
		case 1:
			z -= 1.14 * math.Pow(float64(n), 0.426) / z
		case 2:
			z = 1.86*z - 0.86*x[0]
		case 3:
			z = 1.91*z - 0.91*x[1]
		default:
			z = 2*z - x[i-2]
		}
		var pp float64
		for it := 0; it < maxit; it++ {
			p1 := 1.0 / math.Pow(math.Pi, 0.25)
			p2 := 0.0
			for j := 0; j < n; j++ {
				p3 := p2
				p2 = p1
				p1 = z*math.Sqrt(2.0/float64(j+1))*p2 - math.Sqrt(float64(j)/float64(j+1))*p3
			}
			pp = math.Sqrt(2*float64(n)) * p2
			z1 := z
			z = z1 - p1/pp
			if math.Abs(z-z1) <= eps {
				break
			}
		}
		x[i] = z
		x[n-1-i] = -z
		w[i] = 2.0 / (pp * pp)
		w[n-1-i] = w[i]
	}
	return x, w
}
