package model

import "math"

/*
RegressionMetrics accumulates RMSE and mean log-likelihood. A positive
Threshold marks the metrics as done once the test RMSE drops below it.
*/
type RegressionMetrics struct {
	Threshold float64
}

func (m RegressionMetrics) Names() []string {
	return []string{"Iteration", "Subset", "RMSE", "LogLik", "Count"}
}

func (m RegressionMetrics) New(iteration int, subset string) MetricsUpdater {
	return &regressionUpdater{metrics: m, line: Line{Iteration: iteration, Subset: subset}}
}

type regressionUpdater struct {
	metrics RegressionMetrics
	line    Line
	sqerr   float64
	loglik  float64
}

func (u *regressionUpdater) Update(predicted, label, logp float64) {
	d := predicted - label
	u.sqerr += d * d
	u.loglik += logp
	u.line.Count++
}

func (u *regressionUpdater) Complete() (Line, bool) {
	if u.line.Count > 0 {
		u.line.RMSE = math.Sqrt(u.sqerr / float64(u.line.Count))
		u.line.LogLik = u.loglik / float64(u.line.Count)
	}
	done := u.metrics.Threshold > 0 &&
		u.line.Subset == TestSubset &&
		u.line.RMSE <= u.metrics.Threshold
	return u.line, done
}

/*
LogLikScore scores an iteration by its test mean log-likelihood.
*/
func LogLikScore(train, test Line) float64 {
	return test.LogLik
}

/*
RmseScore scores an iteration by negated test RMSE.
*/
func RmseScore(train, test Line) float64 {
	return -test.RMSE
}
