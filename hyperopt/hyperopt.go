/*
Package hyperopt implements hyper-parameter search for DSPP models over
declarative parameter spaces. The sampler is a seeded random search;
the Space/Params surface is sampler-agnostic, so a smarter optimizer
can slot in without touching callers.
*/
package hyperopt

import (
	"math"
	"math/rand"

	"go-ml.dev/pkg/dspp/model"
	"go-ml.dev/pkg/zorros"
)

/*
Range is a open float range specified by min and max values (min,max).
*/
type Range [2]float64

/*
LogRange is a open float logarithmic range specified by min and max
values (min,max).
*/
type LogRange [2]float64

/*
IntRange is a close integer range specified by min and max values
[min,max].
*/
type IntRange [2]int

/*
List is a list of possible parameter values.
*/
type List []float64

/*
Value is a single value parameter.
*/
type Value float64

// type limitation interface
type distribution interface {
	sample(*rand.Rand) float64
}

func (r Range) sample(rng *rand.Rand) float64 {
	return r[0] + rng.Float64()*(r[1]-r[0])
}

func (r LogRange) sample(rng *rand.Rand) float64 {
	lo, hi := math.Log(r[0]), math.Log(r[1])
	return math.Exp(lo + rng.Float64()*(hi-lo))
}

func (r IntRange) sample(rng *rand.Rand) float64 {
	return float64(r[0] + rng.Intn(r[1]-r[0]+1))
}

func (l List) sample(rng *rand.Rand) float64 {
	return l[rng.Intn(len(l))]
}

func (v Value) sample(*rand.Rand) float64 {
	return float64(v)
}

/*
Variance is a space of hyper-parameters used in *Search functions.
*/
type Variance map[string]distribution

/*
Report is a result of Hyper-parameters Optimization.
*/
type Report struct {
	model.Params
	Score float64
	Best  *model.Report
}

/*
Space is a definition of hyper-parameters optimization space.
*/
type Space struct {
	Data         model.Dataset // dataset the candidates train on
	Iterations   int           // model fitting iterations
	Metrics      model.Metrics // model evaluation metrics
	Score        model.Score   // function to calculate score of train/test metrics
	ScoreHistory int
	Seed         int64

	// the model generation function
	ModelFunc func(model.Params) model.HungryModel

	// hyper-parameters variance
	Variance Variance
}

/*
RandomSearch draws trials parameter sets from the space, trains a model
on each, and returns the best-scoring one.
*/
func (s Space) RandomSearch(trials int) (Report, error) {
	if trials < 1 {
		return Report{}, zorros.Errorf("search requires at least one trial, got %d", trials)
	}
	if s.ModelFunc == nil {
		return Report{}, zorros.Errorf("search requires a model generation function")
	}
	rng := rand.New(rand.NewSource(s.Seed))
	best := Report{Score: math.Inf(-1)}
	for i := 0; i < trials; i++ {
		params := model.Params{}
		for name, d := range s.Variance {
			params[name] = d.sample(rng)
		}
		report, err := s.ModelFunc(params).Feed(s.Data).Train(model.Training{
			Iterations:   s.Iterations,
			Metrics:      s.Metrics,
			Score:        s.Score,
			ScoreHistory: s.ScoreHistory,
		})
		if err != nil {
			return Report{}, zorros.Wrapf(err, "trial %d failed: %v", i, err)
		}
		if report.Score > best.Score {
			best = Report{Params: params, Score: report.Score, Best: report}
		}
	}
	return best, nil
}

/*
LuckyRandomSearch is RandomSearch throwing errors as a panic.
*/
func (s Space) LuckyRandomSearch(trials int) Report {
	r, err := s.RandomSearch(trials)
	if err != nil {
		panic(zorros.Panic(err))
	}
	return r
}
