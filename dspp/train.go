package dspp

import (
	"math"

	"go-ml.dev/pkg/dspp/clusters"
	"go-ml.dev/pkg/dspp/dataset"
	"go-ml.dev/pkg/dspp/fu"
	"go-ml.dev/pkg/dspp/layer"
	"go-ml.dev/pkg/dspp/model"
	"go-ml.dev/pkg/zorros"
	"gonum.org/v1/gonum/diff/fd"
)

/*
DSPP is the hungry two-layer deep sigma-point process regressor. Zero
fields fall back to defaults on Feed.
*/
type DSPP struct {
	Hidden       int     // hidden layer width
	Sites        int     // quadrature sites Q
	Inducing     int     // inducing points per hidden unit
	LearningRate float64 // Adam step size
	LinearMean   int     // nonzero selects a linear hidden mean
	Seed         int64
}

const (
	defaultHidden       = 3
	defaultSites        = 8
	defaultInducing     = 32
	defaultLearningRate = 0.01
	defaultBatchSize    = 128
	kmeansIters         = 25
)

/*
Feed binds the regressor to a dataset, producing the training function.
Inducing points are initialized on cluster centers of the training
inputs.
*/
func (e DSPP) Feed(d model.Dataset) model.FatModel {
	return func(w model.Workout) (*model.Report, error) {
		hidden := fu.Fnzi(e.Hidden, defaultHidden)
		sites := fu.Fnzi(e.Sites, defaultSites)
		inducing := fu.Fnzi(e.Inducing, defaultInducing)
		batch := fu.Fnzi(d.BatchSize, defaultBatchSize)
		rate := e.LearningRate
		if rate == 0 {
			rate = defaultLearningRate
		}
		if d.Train == nil || d.Train.Len() == 0 {
			return nil, zorros.Errorf("training dataset is empty")
		}
		test := d.Test
		if test == nil {
			test = d.Train
		}
		mean := layer.ConstantMean
		if e.LinearMean != 0 {
			mean = layer.LinearMean
		}

		centers, err := clusters.KMeans(d.Train.Features, inducing, kmeansIters, e.Seed)
		if err != nil {
			return nil, err
		}
		m, err := New(Config{
			InputDim:   d.Train.Dim(),
			HiddenDim:  hidden,
			NumSites:   sites,
			Inducing:   centers,
			HiddenMean: mean,
			Seed:       e.Seed,
		})
		if err != nil {
			return nil, err
		}
		loader, err := dataset.NewLoader(d.Train, batch, true, d.Seed)
		if err != nil {
			return nil, err
		}

		params := m.Params(nil)
		opt, err := newAdam(rate, len(params))
		if err != nil {
			return nil, err
		}
		grad := make([]float64, len(params))
		// the loss closure mutates shared model state, so the
		// gradient must stay single-threaded
		settings := &fd.Settings{Formula: fd.Central}

		for {
			if err := m.trainEpoch(loader, params, grad, opt, settings); err != nil {
				return nil, err
			}
			trLine, _, err := m.score(d.Train, batch, w.TrainMetrics())
			if err != nil {
				return nil, err
			}
			teLine, metricsDone, err := m.score(test, batch, w.TestMetrics())
			if err != nil {
				return nil, err
			}
			report, done, err := w.Complete(params, trLine, teLine, metricsDone)
			if err != nil || done {
				return report, err
			}
			w = w.Next()
		}
	}
}

// trainEpoch runs one shuffled pass of minibatch Adam in the cheap
// approximate-variance mode, restoring the prior mode on all exits.
func (m *Model) trainEpoch(loader *dataset.Loader, params, grad []float64, opt *adam, settings *fd.Settings) (err error) {
	prev := m.setApprox(true)
	defer m.setApprox(prev)

	loader.Reset()
	for {
		b, ok := loader.Next()
		if !ok {
			return nil
		}
		var lossErr error
		loss := func(p []float64) float64 {
			v, e := m.minibatchLoss(p, b)
			if e != nil {
				lossErr = e
				return math.Inf(1)
			}
			return v
		}
		fd.Gradient(grad, loss, params, settings)
		if lossErr != nil {
			return lossErr
		}
		opt.Step(params, grad)
		if err = m.SetParams(params); err != nil {
			return err
		}
	}
}

// minibatchLoss is the negative mean mixture log-likelihood of one
// batch under parameters p.
func (m *Model) minibatchLoss(p []float64, b dataset.Batch) (float64, error) {
	if err := m.SetParams(p); err != nil {
		return 0, err
	}
	pm, pv, err := m.Predictive(b.Features)
	if err != nil {
		return 0, err
	}
	ll, err := m.like.LogMarginal(b.Labels, pm, pv)
	if err != nil {
		return 0, err
	}
	logp, err := m.eval.LogProbs(ll)
	if err != nil {
		return 0, err
	}
	return -fu.Mean(logp), nil
}

// score evaluates one subset and feeds the metrics updater.
func (m *Model) score(ds *dataset.Dataset, batch int, u model.MetricsUpdater) (model.Line, bool, error) {
	res, err := m.Evaluate(ds, batch)
	if err != nil {
		return model.Line{}, false, err
	}
	for i := range res.Means {
		u.Update(res.Means[i], ds.Labels[i], res.LogProbs[i])
	}
	line, done := u.Complete()
	return line, done, nil
}
