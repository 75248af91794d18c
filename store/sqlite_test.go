package store

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/assert"
)

func tempStore(t *testing.T) (*Runs, func()) {
	dir, err := ioutil.TempDir("", "dspp-store")
	assert.NilError(t, err)
	r, err := Open(filepath.Join(dir, "runs.db"))
	assert.NilError(t, err)
	return r, func() {
		r.Close()
		os.RemoveAll(dir)
	}
}

func Test_SaveAndList(t *testing.T) {
	r, done := tempStore(t)
	defer done()

	id, err := r.Save(Run{Dataset: "elevators", Config: `{"hidden":3}`, Iterations: 10, RMSE: 0.4, LogLik: -0.6})
	assert.NilError(t, err)
	assert.Assert(t, id > 0)

	id2, err := r.Save(Run{Dataset: "elevators", Config: `{"hidden":5}`, Iterations: 20, RMSE: 0.3, LogLik: -0.4})
	assert.NilError(t, err)
	assert.Assert(t, id2 > id)

	runs, err := r.List(10)
	assert.NilError(t, err)
	assert.Assert(t, len(runs) == 2)
	// newest first
	assert.Assert(t, runs[0].ID == id2)
	assert.Assert(t, runs[0].RMSE == 0.3)
	assert.Assert(t, runs[1].Config == `{"hidden":3}`)
	assert.Assert(t, !runs[0].Created.IsZero())
}

func Test_BestByLogLik(t *testing.T) {
	r, done := tempStore(t)
	defer done()

	_, err := r.Save(Run{Dataset: "a", LogLik: -2})
	assert.NilError(t, err)
	_, err = r.Save(Run{Dataset: "a", LogLik: -1})
	assert.NilError(t, err)
	_, err = r.Save(Run{Dataset: "b", LogLik: 0})
	assert.NilError(t, err)

	best, ok, err := r.BestByLogLik("a")
	assert.NilError(t, err)
	assert.Assert(t, ok)
	assert.Assert(t, best.LogLik == -1)

	_, ok, err = r.BestByLogLik("missing")
	assert.NilError(t, err)
	assert.Assert(t, !ok)
}

func Test_OpenValidates(t *testing.T) {
	_, err := Open("")
	assert.Assert(t, err != nil)
}
