package dspp

import (
	"go-ml.dev/pkg/dspp/dataset"
	"go-ml.dev/pkg/dspp/fu"
)

/*
Result is the aggregate of one full evaluation pass. The per-example
slices are aligned with the dataset order; a failed pass yields no
Result at all.
*/
type Result struct {
	Means    []float64 // mixture point predictions
	Vars     []float64 // mixture variances (law of total variance)
	LogProbs []float64 // per-example mixture log-likelihoods
	RMSE     float64
	LogLik   float64 // mean per-example log-likelihood
}

/*
Evaluate runs an exact, order-preserving pass over ds in batches of
batchSize. The layers' approximate-variance mode is forced off for the
duration of the pass and restored on every exit path.
*/
func (m *Model) Evaluate(ds *dataset.Dataset, batchSize int) (*Result, error) {
	prev := m.setApprox(false)
	defer m.setApprox(prev)

	loader, err := dataset.NewLoader(ds, batchSize, false, 0)
	if err != nil {
		return nil, err
	}
	r := &Result{}
	for {
		b, ok := loader.Next()
		if !ok {
			break
		}
		pm, pv, err := m.Predictive(b.Features)
		if err != nil {
			return nil, err
		}
		if err := m.eval.CheckVariances(pv); err != nil {
			return nil, err
		}
		ll, err := m.like.LogMarginal(b.Labels, pm, pv)
		if err != nil {
			return nil, err
		}
		logp, err := m.eval.LogProbs(ll)
		if err != nil {
			return nil, err
		}
		mean, err := m.eval.CollapseMean(pm)
		if err != nil {
			return nil, err
		}
		vr, err := m.eval.CollapseVariance(pm, pv)
		if err != nil {
			return nil, err
		}
		r.Means = append(r.Means, mean...)
		r.Vars = append(r.Vars, vr...)
		r.LogProbs = append(r.LogProbs, logp...)
	}
	r.RMSE = fu.Rmse(r.Means, ds.Labels)
	r.LogLik = fu.Mean(r.LogProbs)
	return r, nil
}
