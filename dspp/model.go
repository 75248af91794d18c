/*
Package dspp composes sparse GP layers into a two-layer deep sigma-point
process for scalar regression and provides its training and evaluation
entry points.

The stack is explicit rather than inheritance-based: a hidden
multi-output layer feeds a scalar output layer, both expanded over one
shared set of quadrature sites, and the result is read through a
Gaussian likelihood as a Q-component predictive mixture.
*/
package dspp

import (
	"go-ml.dev/pkg/dspp/layer"
	"go-ml.dev/pkg/dspp/likelihood"
	"go-ml.dev/pkg/dspp/mixture"
	"go-ml.dev/pkg/dspp/quad"
	"go-ml.dev/pkg/zorros"
)

/*
Config describes a two-layer DSPP stack before construction.
*/
type Config struct {
	InputDim  int
	HiddenDim int
	// NumSites is Q, the quadrature expansion size shared by both
	// layers.
	NumSites int
	// Inducing is the template inducing set for the hidden layer,
	// typically cluster centers of the training inputs. Optional if
	// NumInducing is set.
	Inducing    [][]float64
	NumInducing int
	// HiddenMean selects the hidden layer mean function; the output
	// layer always uses a constant mean.
	HiddenMean layer.MeanKind
	Seed       int64
}

/*
Model is a constructed two-layer DSPP.
*/
type Model struct {
	hidden *layer.Layer
	out    *layer.Layer
	like   *likelihood.Gaussian
	rule   *quad.Rule
	eval   *mixture.Evaluator
}

/*
New builds the stack. Deterministic for a fixed cfg.Seed.
*/
func New(cfg Config) (*Model, error) {
	if cfg.HiddenDim < 1 {
		return nil, zorros.Errorf("model requires a positive hidden width, got %d", cfg.HiddenDim)
	}
	if cfg.NumSites < 1 {
		return nil, zorros.Errorf("model requires at least one quadrature site, got %d", cfg.NumSites)
	}
	rule, err := quad.Hermite(cfg.NumSites)
	if err != nil {
		return nil, err
	}
	eval, err := mixture.New(rule.LogWeights())
	if err != nil {
		return nil, err
	}
	hidden, err := layer.New(layer.Config{
		InputDim:    cfg.InputDim,
		OutputDims:  cfg.HiddenDim,
		Inducing:    cfg.Inducing,
		NumInducing: cfg.NumInducing,
		Mean:        cfg.HiddenMean,
		Seed:        cfg.Seed,
	})
	if err != nil {
		return nil, err
	}
	// the output layer works in the hidden space; its inducing set is
	// seeded randomly there
	ni := cfg.NumInducing
	if ni == 0 {
		ni = len(cfg.Inducing)
	}
	out, err := layer.New(layer.Config{
		InputDim:    cfg.HiddenDim,
		NumInducing: ni,
		Mean:        layer.ConstantMean,
		Seed:        cfg.Seed + 1,
	})
	if err != nil {
		return nil, err
	}
	return &Model{
		hidden: hidden,
		out:    out,
		like:   likelihood.NewGaussian(),
		rule:   rule,
		eval:   eval,
	}, nil
}

/*
Sites returns Q.
*/
func (m *Model) Sites() int { return m.rule.Len() }

/*
LogWeights returns a copy of the fixed quadrature log-weights shared by
both layers.
*/
func (m *Model) LogWeights() []float64 { return m.rule.LogWeights() }

/*
Mixture returns the predictive mixture evaluator bound to the model's
log-weights.
*/
func (m *Model) Mixture() *mixture.Evaluator { return m.eval }

/*
Likelihood returns the observation model.
*/
func (m *Model) Likelihood() *likelihood.Gaussian { return m.like }

/*
NumParams returns the length of the flat trainable parameter vector.
*/
func (m *Model) NumParams() int {
	return m.hidden.NumParams() + m.out.NumParams() + m.like.NumParams()
}

/*
Params appends all trainable parameters: hidden layer, output layer,
likelihood.
*/
func (m *Model) Params(dst []float64) []float64 {
	dst = m.hidden.Params(dst)
	dst = m.out.Params(dst)
	dst = m.like.Params(dst)
	return dst
}

/*
SetParams replaces all trainable parameters from Params order.
*/
func (m *Model) SetParams(p []float64) error {
	if len(p) != m.NumParams() {
		return zorros.Errorf("model has %d parameters, got %d", m.NumParams(), len(p))
	}
	nh := m.hidden.NumParams()
	no := m.out.NumParams()
	if err := m.hidden.SetParams(p[:nh]); err != nil {
		return err
	}
	if err := m.out.SetParams(p[nh : nh+no]); err != nil {
		return err
	}
	return m.like.SetParams(p[nh+no:])
}

// setApprox switches both layers between exact and approximate
// predictive variances, returning the previous setting.
func (m *Model) setApprox(on bool) bool {
	prev := m.hidden.SetApprox(on)
	m.out.SetApprox(on)
	return prev
}
