/*
Package layer implements a sparse Gaussian-process layer: a node mapping
a batch of feature vectors to one Gaussian (mean, variance) per output
unit per example.

A layer with W output units holds W independent parameter sets (inducing
inputs, inducing values, kernel hyper-parameters, mean function). There
is no implicit broadcasting across units; every unit is materialized
explicitly.
*/
package layer

import (
	"math/rand"

	"go-ml.dev/pkg/dspp/kernel"
	"go-ml.dev/pkg/zorros"
	"gonum.org/v1/gonum/mat"
)

/*
MeanKind selects the parametric mean function of a layer.
*/
type MeanKind int

const (
	// ConstantMean is a learned constant per output unit.
	ConstantMean MeanKind = iota
	// LinearMean is a learned affine function of the input per unit.
	LinearMean
)

const (
	jitter = 1e-6
	minVar = 1e-10
	// scale of the symmetry-breaking noise added to replicated
	// inducing sets
	broadcastJitter = 1e-2
)

/*
Config describes a layer before construction.
*/
type Config struct {
	InputDim   int
	OutputDims int // 0 means a single scalar-output process
	// Inducing is an explicit M x InputDim inducing set shared as a
	// template by all units. Optional if NumInducing is set.
	Inducing [][]float64
	// NumInducing is the inducing-point count when no explicit set is
	// given; locations are then drawn from N(0,1).
	NumInducing int
	Mean        MeanKind
	Seed        int64
}

type unit struct {
	z    [][]float64 // M x D inducing inputs
	u    []float64   // M inducing values
	kern *kernel.RBF

	meanConst float64
	meanW     []float64 // LinearMean only, len D

	// cached predictive state, rebuilt after SetParams
	chol  *mat.Cholesky
	alpha *mat.VecDense
	stale bool
}

/*
Layer is a constructed GP layer.
*/
type Layer struct {
	cfg    Config
	units  []*unit
	approx bool
}

/*
New builds a layer from cfg. Construction is deterministic for a fixed
cfg.Seed: inducing replicas and initial inducing values depend only on
the seed.
*/
func New(cfg Config) (*Layer, error) {
	if cfg.InputDim < 1 {
		return nil, zorros.Errorf("layer requires a positive input dimension, got %d", cfg.InputDim)
	}
	width := cfg.OutputDims
	if width == 0 {
		width = 1
	}
	if width < 0 {
		return nil, zorros.Errorf("layer output width cannot be negative, got %d", cfg.OutputDims)
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	template := cfg.Inducing
	if template == nil {
		if cfg.NumInducing < 1 {
			return nil, zorros.Errorf("layer requires inducing points or a positive inducing count")
		}
		template = make([][]float64, cfg.NumInducing)
		for i := range template {
			row := make([]float64, cfg.InputDim)
			for j := range row {
				row[j] = rng.NormFloat64()
			}
			template[i] = row
		}
	}
	if len(template) == 0 {
		return nil, zorros.Errorf("layer requires a non-empty inducing set")
	}
	for i, row := range template {
		if len(row) != cfg.InputDim {
			return nil, zorros.Errorf("inducing point %d has dimension %d, layer input dimension is %d",
				i, len(row), cfg.InputDim)
		}
	}
	l := &Layer{cfg: cfg}
	for d := 0; d < width; d++ {
		un := &unit{
			z:     make([][]float64, len(template)),
			u:     make([]float64, len(template)),
			kern:  kernel.NewRBF(),
			stale: true,
		}
		for i, row := range template {
			z := append([]float64{}, row...)
			if d > 0 {
				// replicated units get jittered copies to break
				// symmetry between otherwise identical GPs
				for j := range z {
					z[j] += broadcastJitter * rng.NormFloat64()
				}
			}
			un.z[i] = z
			un.u[i] = 0.1 * rng.NormFloat64()
		}
		if cfg.Mean == LinearMean {
			un.meanW = make([]float64, cfg.InputDim)
		}
		l.units = append(l.units, un)
	}
	return l, nil
}

/*
Width returns the number of output units (1 for a scalar-output layer).
*/
func (l *Layer) Width() int { return len(l.units) }

/*
InputDim returns the expected feature dimensionality.
*/
func (l *Layer) InputDim() int { return l.cfg.InputDim }

/*
SetApprox switches the layer between the exact predictive variance and
the cheap diagonal approximation. Returns the previous setting so a
caller can scope the change.
*/
func (l *Layer) SetApprox(on bool) (prev bool) {
	prev = l.approx
	l.approx = on
	return prev
}

func (u *unit) mean(x []float64) float64 {
	m := u.meanConst
	for j, w := range u.meanW {
		m += w * x[j]
	}
	return m
}

func (u *unit) refresh() error {
	m := len(u.z)
	sym := mat.NewSymDense(m, nil)
	for i := 0; i < m; i++ {
		for j := i; j < m; j++ {
			v := u.kern.Eval(u.z[i], u.z[j])
			if i == j {
				v += jitter
			}
			sym.SetSym(i, j, v)
		}
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return zorros.Errorf("inducing covariance is not positive definite")
	}
	resid := mat.NewVecDense(m, nil)
	for i := 0; i < m; i++ {
		resid.SetVec(i, u.u[i]-u.mean(u.z[i]))
	}
	alpha := mat.NewVecDense(m, nil)
	if err := chol.SolveVecTo(alpha, resid); err != nil {
		return zorros.Wrapf(err, "inducing solve failed: %v", err)
	}
	u.chol = &chol
	u.alpha = alpha
	u.stale = false
	return nil
}

/*
Eval maps a batch of N feature vectors to per-unit Gaussian outputs.
The result slices are indexed [unit][example].
*/
func (l *Layer) Eval(batch [][]float64) (means, vars [][]float64, err error) {
	for i, x := range batch {
		if len(x) != l.cfg.InputDim {
			return nil, nil, zorros.Errorf("batch row %d has dimension %d, layer input dimension is %d",
				i, len(x), l.cfg.InputDim)
		}
	}
	means = make([][]float64, len(l.units))
	vars = make([][]float64, len(l.units))
	for d, u := range l.units {
		if u.stale {
			if err = u.refresh(); err != nil {
				return nil, nil, err
			}
		}
		m := len(u.z)
		kx := mat.NewVecDense(m, nil)
		sol := mat.NewVecDense(m, nil)
		mu := make([]float64, len(batch))
		s2 := make([]float64, len(batch))
		for n, x := range batch {
			for i := 0; i < m; i++ {
				kx.SetVec(i, u.kern.Eval(u.z[i], x))
			}
			mu[n] = u.mean(x) + mat.Dot(kx, u.alpha)
			if l.approx {
				s2[n] = u.kern.Diag(x) + jitter
				continue
			}
			if err = u.chol.SolveVecTo(sol, kx); err != nil {
				return nil, nil, zorros.Wrapf(err, "predictive solve failed: %v", err)
			}
			v := u.kern.Diag(x) + jitter - mat.Dot(kx, sol)
			if v < minVar {
				v = minVar
			}
			s2[n] = v
		}
		means[d] = mu
		vars[d] = s2
	}
	return means, vars, nil
}
