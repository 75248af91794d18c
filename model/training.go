package model

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"reflect"

	"go-ml.dev/pkg/dspp/fu"
	"go-ml.dev/pkg/zorros"
	"go-ml.dev/pkg/zorros/zlog"
)

/*
Training is the default implementation of unified training interface.
*/
type Training struct {
	Iterations   int         // maximum iterations
	Metrics      Metrics     // evaluating metrics
	Score        Score       // score function
	ScoreHistory int         // possible count of forehead training with lower score
	ModelFile    string      // file to store final model parameters
	Verbose      interface{} // print function func(string)
}

type training struct {
	Training
	snapshots map[int][]float64
	done      bool
}

type workout struct {
	iteration int
	training  *training
	perflog   [][2]Line
	scorlog   []float64
}

const DefaultScoreHistory = 3

func (t Training) Workout() Workout {
	if t.Metrics == nil {
		t.Metrics = RegressionMetrics{}
	}
	if t.Score == nil {
		t.Score = LogLikScore
	}
	x := &training{
		Training:  t,
		snapshots: map[int][]float64{},
	}
	return &workout{iteration: 0, training: x}
}

func (w *workout) Iteration() int {
	return w.iteration
}

func (w *workout) TrainMetrics() MetricsUpdater {
	return w.training.Metrics.New(w.iteration, TrainSubset)
}

func (w *workout) TestMetrics() MetricsUpdater {
	return w.training.Metrics.New(w.iteration, TestSubset)
}

func (w *workout) report(j int) (report *Report, err error) {
	report = &Report{}
	histlen := fu.Fnzi(w.training.ScoreHistory, DefaultScoreHistory)
	if len(w.perflog) > 0 {
		for _, pair := range w.perflog {
			report.History = append(report.History, pair[0], pair[1])
		}
		if j == 0 {
			l := fu.Mini(len(w.scorlog), histlen)
			lj := len(w.scorlog) - l
			j = fu.Indmaxd(w.scorlog[lj:]) + lj
		}
		report.TheBest = j
		report.Train = w.perflog[j][0]
		report.Test = w.perflog[j][1]
		report.Score = w.scorlog[j]
		report.Params = w.training.snapshots[j]
		if w.training.ModelFile != "" {
			data, e := json.Marshal(report.Params)
			if e != nil {
				err = zorros.Trace(e)
				return
			}
			if e = ioutil.WriteFile(w.training.ModelFile, data, 0644); e != nil {
				err = zorros.Trace(e)
				return
			}
		}
	}
	return
}

func (w *workout) Complete(params []float64, train, test Line, metricsDone bool) (report *Report, done bool, err error) {
	histlen := fu.Fnzi(w.training.ScoreHistory, DefaultScoreHistory)
	maxiter := fu.Maxi(w.training.Iterations, 1)
	score := w.training.Score(train, test)
	w.scorlog = append(w.scorlog, score)
	w.perflog = append(w.perflog, [2]Line{train, test})
	w.training.snapshots[w.iteration] = append([]float64{}, params...)
	if metricsDone {
		w.training.done = true
		done = true
		report, err = w.report(w.iteration)
	} else if w.iteration == maxiter-1 || (w.iteration > histlen && fu.Indmaxd(w.scorlog[len(w.scorlog)-histlen:]) == 0) {
		w.training.done = true
		done = true
		report, err = w.report(0)
	}
	if w.training.Verbose != nil {
		w.Verbose(fmt.Sprintf(
			"[%3d] rmse: %.5f/%.5f, loglik: %.5f/%.5f, score: %.5f",
			w.Iteration(), train.RMSE, test.RMSE, train.LogLik, test.LogLik, score))
	}
	return
}

func (w *workout) Verbose(s string) {
	if w.training.Verbose != nil {
		vf := reflect.ValueOf(w.training.Verbose)
		vf.Call([]reflect.Value{reflect.ValueOf(s)})
	}
}

func (w *workout) Next() Workout {
	if w.training.done {
		zlog.Warning("training is already done")
		return nil
	}
	return &workout{
		iteration: w.iteration + 1,
		training:  w.training,
		scorlog:   w.scorlog,
		perflog:   w.perflog,
	}
}
