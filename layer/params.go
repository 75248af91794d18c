package layer

import (
	"go-ml.dev/pkg/zorros"
)

// Inducing locations stay where the initializer put them; only kernel
// hypers, mean parameters, and inducing values are trained.

func (u *unit) numParams() int {
	n := u.kern.NumHyper() + 1 + len(u.meanW) + len(u.u)
	return n
}

/*
NumParams returns the length of the layer's flat parameter vector.
*/
func (l *Layer) NumParams() int {
	n := 0
	for _, u := range l.units {
		n += u.numParams()
	}
	return n
}

/*
Params appends the layer parameters to dst in a fixed order:
per unit, kernel hypers then mean parameters then inducing values.
*/
func (l *Layer) Params(dst []float64) []float64 {
	for _, u := range l.units {
		dst = u.kern.Hyper(dst)
		dst = append(dst, u.meanConst)
		dst = append(dst, u.meanW...)
		dst = append(dst, u.u...)
	}
	return dst
}

/*
SetParams replaces the layer parameters from a flat vector produced in
Params order. The cached predictive state is rebuilt lazily on the next
Eval.
*/
func (l *Layer) SetParams(p []float64) error {
	if len(p) != l.NumParams() {
		return zorros.Errorf("layer has %d parameters, got %d", l.NumParams(), len(p))
	}
	i := 0
	for _, u := range l.units {
		nh := u.kern.NumHyper()
		u.kern.SetHyper(p[i : i+nh])
		i += nh
		u.meanConst = p[i]
		i++
		copy(u.meanW, p[i:i+len(u.meanW)])
		i += len(u.meanW)
		copy(u.u, p[i:i+len(u.u)])
		i += len(u.u)
		u.stale = true
	}
	return nil
}
