/*
Package model defines the training abstractions shared by DSPP models:
a hungry model is fattened by data into a training function, which is
driven iteration by iteration through a Workout.
*/
package model

import (
	"io"
	"reflect"

	"go-ml.dev/pkg/dspp/dataset"
	"go-ml.dev/pkg/zorros"
)

/*
Dataset binds the data a model trains and validates on.
*/
type Dataset struct {
	Train     *dataset.Dataset
	Test      *dataset.Dataset
	BatchSize int
	Seed      int64
}

/*
HungryModel is an ML algorithm grows from a data to predict something.
Needs to be fattened by Feed method to fit.
*/
type HungryModel interface {
	Feed(Dataset) FatModel
}

/*
Line is one row of training history: the metrics of one subset at one
iteration.
*/
type Line struct {
	Iteration int
	Subset    string
	RMSE      float64
	LogLik    float64 // mean per-example log-likelihood
	Count     int
}

/*
Report is an ML training report.
*/
type Report struct {
	History     []Line  // all iterations history, train/test interleaved
	TheBest     int     // the best iteration
	Test, Train Line    // the best iteration metrics
	Score       float64 // the best score
	Params      []float64
}

/*
MetricsUpdater accumulates per-example evaluation results.
*/
type MetricsUpdater interface {
	// Update accumulates one example: mixture point prediction,
	// ground truth, and mixture log-probability.
	Update(predicted, label, logp float64)
	// Complete finalizes the line; done reports metrics convergence.
	Complete() (line Line, done bool)
}

/*
Metrics produces subset updaters for every iteration.
*/
type Metrics interface {
	New(iteration int, subset string) MetricsUpdater
	Names() []string
}

const (
	TrainSubset = "train"
	TestSubset  = "test"
)

/*
Score maps an iteration's train/test lines to a scalar to maximize.
*/
type Score func(train, test Line) float64

/*
Workout is a training iteration abstraction.
*/
type Workout interface {
	Iteration() int
	TrainMetrics() MetricsUpdater
	TestMetrics() MetricsUpdater
	Complete(params []float64, train, test Line, metricsDone bool) (*Report, bool, error)
	Next() Workout
	Verbose(string)
}

/*
UnifiedTraining is an interface allowing to write any logging/staging
backend for ML training.
*/
type UnifiedTraining interface {
	// Workout returns the first iteration workout
	Workout() Workout
}

/*
FatModel is fattened model (a training function of model instance
bounded to a dataset).
*/
type FatModel func(workout Workout) (*Report, error)

/*
Train a fattened (Fat) model.
*/
func (f FatModel) Train(training UnifiedTraining) (*Report, error) {
	w := training.Workout()
	if c, ok := w.(io.Closer); ok {
		defer c.Close()
	}
	return f(w)
}

/*
LuckyTrain trains fattened (Fat) model and trows any occurred errors as
a panic.
*/
func (f FatModel) LuckyTrain(training UnifiedTraining) *Report {
	m, err := f.Train(training)
	if err != nil {
		panic(zorros.Panic(err))
	}
	return m
}

/*
Params is a set of hyper-parameters used by hyper-parameter optimization
to generate new model.
*/
type Params map[string]float64

/*
Get value of the parameter by name if exists and dflt value otherwise.
*/
func (p Params) Get(name string, dflt float64) float64 {
	if v, ok := p[name]; ok {
		return v
	}
	return dflt
}

/*
Apply sets named float64/int fields of a model description from the
parameter set.
*/
func (p Params) Apply(m map[string]reflect.Value) {
	for k, v := range p {
		ref, ok := m[k]
		if !ok {
			panic(zorros.Panic(zorros.Errorf("model does not have field `%v`", k)))
		}
		field := ref.Elem()
		switch field.Kind() {
		case reflect.Float64, reflect.Float32:
			field.SetFloat(v)
		case reflect.Int, reflect.Int32, reflect.Int64:
			field.SetInt(int64(v))
		default:
			panic(zorros.Panic(zorros.Errorf("field `%v` has unsupported kind %v", k, field.Kind())))
		}
	}
}
