package mixture

import (
	"errors"
	"math"
	"testing"

	"gotest.tools/assert"
)

func halves() *Evaluator {
	e, err := New([]float64{math.Log(0.5), math.Log(0.5)})
	if err != nil {
		panic(err)
	}
	return e
}

func Test_RejectsUnnormalizedWeights(t *testing.T) {
	_, err := New([]float64{math.Log(0.5), math.Log(0.7)})
	assert.Assert(t, errors.Is(err, ErrUnnormalizedWeights))

	_, err = New(nil)
	assert.Assert(t, errors.Is(err, ErrShapeMismatch))
}

func Test_WeightSnapshotImmutable(t *testing.T) {
	lw := []float64{math.Log(0.5), math.Log(0.5)}
	e, err := New(lw)
	assert.NilError(t, err)
	lw[0] = 99
	assert.Assert(t, e.LogWeights()[0] == math.Log(0.5))
}

func Test_LogSumExpStability(t *testing.T) {
	// extreme per-site log-probabilities must not overflow
	e := halves()
	ll, err := e.LogProbs([][]float64{{-1e6, 800}, {-1e6, 820}})
	assert.NilError(t, err)
	assert.Assert(t, !math.IsInf(ll[0], 0) && !math.IsNaN(ll[0]))
	assert.Assert(t, !math.IsInf(ll[1], 0) && !math.IsNaN(ll[1]))

	// logsumexp >= max component + log-weight
	assert.Assert(t, ll[1] >= 820+math.Log(0.5))

	// and matches the max-subtraction identity
	a := math.Log(0.5) - 1e6
	want := a + math.Log(2) // both terms equal
	assert.Assert(t, math.Abs(ll[0]-want) < 1e-9)
}

func Test_DegenerateSingleSite(t *testing.T) {
	e, err := New([]float64{0})
	assert.NilError(t, err)
	site := []float64{-1.3, 0.2, 4.5}
	ll, err := e.LogProbs([][]float64{site})
	assert.NilError(t, err)
	assert.DeepEqual(t, ll, site)

	mean, err := e.CollapseMean([][]float64{{7, 8}})
	assert.NilError(t, err)
	assert.DeepEqual(t, mean, []float64{7, 8})
}

func Test_LiteralScenario(t *testing.T) {
	// Q=2, equal weights, site means 1 and 3, unit predictive
	// variances, target y=2
	e := halves()

	mean, err := e.CollapseMean([][]float64{{1}, {3}})
	assert.NilError(t, err)
	assert.Assert(t, math.Abs(mean[0]-2) < 1e-12)

	logN := func(y, mu, v float64) float64 {
		return -0.5*math.Log(2*math.Pi*v) - (y-mu)*(y-mu)/(2*v)
	}
	ll, err := e.LogProbs([][]float64{
		{logN(2, 1, 1)},
		{logN(2, 3, 1)},
	})
	assert.NilError(t, err)
	// both sites are one standard deviation away, so the mixture
	// log-likelihood equals the common per-site value
	want := logN(2, 1, 1)
	assert.Assert(t, math.Abs(ll[0]-want) < 1e-12)
}

func Test_CollapseVariance(t *testing.T) {
	e := halves()
	// components N(1,1) and N(3,1): total variance = 1 + 1 = 2
	v, err := e.CollapseVariance([][]float64{{1}, {3}}, [][]float64{{1}, {1}})
	assert.NilError(t, err)
	assert.Assert(t, math.Abs(v[0]-2) < 1e-12)

	// identical components leave the variance unchanged
	v, err = e.CollapseVariance([][]float64{{2}, {2}}, [][]float64{{0.5}, {0.5}})
	assert.NilError(t, err)
	assert.Assert(t, math.Abs(v[0]-0.5) < 1e-12)
}

func Test_ShapeErrors(t *testing.T) {
	e := halves()
	_, err := e.LogProbs([][]float64{{1}})
	assert.Assert(t, errors.Is(err, ErrShapeMismatch))

	_, err = e.LogProbs(nil)
	assert.Assert(t, errors.Is(err, ErrShapeMismatch))

	_, err = e.LogProbs([][]float64{{1, 2}, {3}})
	assert.Assert(t, errors.Is(err, ErrShapeMismatch))

	_, err = e.CollapseMean([][]float64{{1}, {2, 3}})
	assert.Assert(t, errors.Is(err, ErrShapeMismatch))
}

func Test_NonPositiveVariance(t *testing.T) {
	e := halves()
	err := e.CheckVariances([][]float64{{1}, {0}})
	assert.Assert(t, errors.Is(err, ErrNonPositiveVariance))

	err = e.CheckVariances([][]float64{{1}, {math.NaN()}})
	assert.Assert(t, errors.Is(err, ErrNonPositiveVariance))

	assert.NilError(t, e.CheckVariances([][]float64{{1}, {1e-12}}))
}
