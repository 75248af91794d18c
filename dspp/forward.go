package dspp

import (
	"math"
)

/*
Forward evaluates the stack on a batch of N feature vectors and returns
the latent output distribution per quadrature site, indexed
[site][example]. Site q of the hidden expansion is site q of the output
expansion: the hidden Gaussian is collapsed onto its q-th sigma point

	h_q = mean + sqrt(var) * site_q

before the output layer sees it.
*/
func (m *Model) Forward(batch [][]float64) (siteMeans, siteVars [][]float64, err error) {
	hm, hv, err := m.hidden.Eval(batch)
	if err != nil {
		return nil, nil, err
	}
	q := m.rule.Len()
	width := m.hidden.Width()
	siteMeans = make([][]float64, q)
	siteVars = make([][]float64, q)
	h := make([][]float64, len(batch))
	for i := range h {
		h[i] = make([]float64, width)
	}
	for s := 0; s < q; s++ {
		xi := m.rule.Site(s)
		for n := range batch {
			for d := 0; d < width; d++ {
				h[n][d] = hm[d][n] + math.Sqrt(hv[d][n])*xi
			}
		}
		om, ov, err := m.out.Eval(h)
		if err != nil {
			return nil, nil, err
		}
		siteMeans[s] = om[0]
		siteVars[s] = ov[0]
	}
	return siteMeans, siteVars, nil
}

/*
Predictive evaluates the stack and adds observation noise, producing the
full per-site predictive distributions consumed by the mixture
evaluator.
*/
func (m *Model) Predictive(batch [][]float64) (siteMeans, siteVars [][]float64, err error) {
	lm, lv, err := m.Forward(batch)
	if err != nil {
		return nil, nil, err
	}
	siteMeans, siteVars = m.like.WithNoise(lm, lv)
	return siteMeans, siteVars, nil
}
