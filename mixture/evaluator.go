/*
Package mixture implements the quadrature-weighted predictive mixture:
the output of a deep sigma-point stack is a finite mixture of Q
Gaussians with fixed log-weights, and this package collapses the site
dimension into per-example log-likelihoods and point predictions.

The evaluator is a pure function over batches; the only retained state
is the immutable log-weight snapshot taken at construction.
*/
package mixture

import (
	"errors"
	"math"

	"golang.org/x/xerrors"
	"gonum.org/v1/gonum/floats"
)

var (
	// ErrShapeMismatch reports inputs whose site or example counts
	// disagree with the evaluator's weight vector.
	ErrShapeMismatch = errors.New("mixture: shape mismatch")
	// ErrNonPositiveVariance reports a site distribution whose
	// variance is not strictly positive.
	ErrNonPositiveVariance = errors.New("mixture: non-positive variance")
	// ErrUnnormalizedWeights reports a weight vector whose
	// exponentiated entries do not sum to one.
	ErrUnnormalizedWeights = errors.New("mixture: unnormalized weights")
)

const weightTol = 1e-6

/*
Evaluator collapses per-site Gaussian results under fixed mixture
log-weights.
*/
type Evaluator struct {
	logw []float64
}

/*
New constructs an evaluator from Q log-weights. The exponentiated
weights must sum to one within tolerance; the slice is copied so later
mutation by the caller cannot leak in.
*/
func New(logWeights []float64) (*Evaluator, error) {
	if len(logWeights) == 0 {
		return nil, xerrors.Errorf("empty weight vector: %w", ErrShapeMismatch)
	}
	sum := 0.0
	for _, lw := range logWeights {
		sum += math.Exp(lw)
	}
	if math.Abs(sum-1) > weightTol {
		return nil, xerrors.Errorf("weights sum to %v, want 1: %w", sum, ErrUnnormalizedWeights)
	}
	return &Evaluator{logw: append([]float64{}, logWeights...)}, nil
}

/*
Sites returns Q, the number of mixture components.
*/
func (e *Evaluator) Sites() int { return len(e.logw) }

/*
LogWeights returns a copy of the fixed log-weight vector.
*/
func (e *Evaluator) LogWeights() []float64 {
	return append([]float64{}, e.logw...)
}

func (e *Evaluator) checkSites(rows [][]float64, n int) error {
	if len(rows) != len(e.logw) {
		return xerrors.Errorf("got %d sites, evaluator has %d weights: %w",
			len(rows), len(e.logw), ErrShapeMismatch)
	}
	for q := range rows {
		if len(rows[q]) != n {
			return xerrors.Errorf("site %d carries %d examples, want %d: %w",
				q, len(rows[q]), n, ErrShapeMismatch)
		}
	}
	return nil
}

/*
LogProbs collapses per-site marginal log-probabilities into per-example
mixture log-likelihoods:

	log p(y_n) = logsumexp_q(logw_q + ll_{q,n})

The log-sum-exp uses max subtraction, so extreme per-site values neither
overflow nor underflow.
*/
func (e *Evaluator) LogProbs(siteLogProbs [][]float64) ([]float64, error) {
	n := 0
	if len(siteLogProbs) > 0 {
		n = len(siteLogProbs[0])
	}
	if err := e.checkSites(siteLogProbs, n); err != nil {
		return nil, err
	}
	out := make([]float64, n)
	w := make([]float64, len(e.logw))
	for i := 0; i < n; i++ {
		for q := range e.logw {
			w[q] = e.logw[q] + siteLogProbs[q][i]
		}
		out[i] = floats.LogSumExp(w)
	}
	return out, nil
}

/*
CheckVariances verifies the Gaussian-parameter invariant: every site
variance must be strictly positive. A violation is fatal for the batch.
*/
func (e *Evaluator) CheckVariances(siteVars [][]float64) error {
	for q := range siteVars {
		for n, v := range siteVars[q] {
			if !(v > 0) {
				return xerrors.Errorf("site %d example %d has variance %v: %w",
					q, n, v, ErrNonPositiveVariance)
			}
		}
	}
	return nil
}

/*
CollapseMean combines per-site means into the mixture mean per example:

	mean_n = sum_q exp(logw_q) * mean_{q,n}
*/
func (e *Evaluator) CollapseMean(siteMeans [][]float64) ([]float64, error) {
	if len(siteMeans) == 0 {
		return nil, xerrors.Errorf("no sites: %w", ErrShapeMismatch)
	}
	n := len(siteMeans[0])
	if err := e.checkSites(siteMeans, n); err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for q := range e.logw {
		w := math.Exp(e.logw[q])
		for i := 0; i < n; i++ {
			out[i] += w * siteMeans[q][i]
		}
	}
	return out, nil
}

/*
CollapseVariance combines per-site moments into the mixture variance per
example by the law of total variance:

	var_n = sum_q w_q*(var_{q,n} + mean_{q,n}^2) - mean_n^2
*/
func (e *Evaluator) CollapseVariance(siteMeans, siteVars [][]float64) ([]float64, error) {
	mean, err := e.CollapseMean(siteMeans)
	if err != nil {
		return nil, err
	}
	if err := e.checkSites(siteVars, len(mean)); err != nil {
		return nil, err
	}
	if err := e.CheckVariances(siteVars); err != nil {
		return nil, err
	}
	out := make([]float64, len(mean))
	for q := range e.logw {
		w := math.Exp(e.logw[q])
		for i := range out {
			m := siteMeans[q][i]
			out[i] += w * (siteVars[q][i] + m*m)
		}
	}
	for i := range out {
		out[i] -= mean[i] * mean[i]
	}
	return out, nil
}
