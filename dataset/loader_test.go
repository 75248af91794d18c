package dataset

import (
	"testing"

	"gotest.tools/assert"
)

func sequential(n int) *Dataset {
	d := &Dataset{Names: []string{"x"}}
	for i := 0; i < n; i++ {
		d.Features = append(d.Features, []float64{float64(i)})
		d.Labels = append(d.Labels, float64(i))
	}
	return d
}

func collect(l *Loader) (feats []float64, labels []float64) {
	for {
		b, ok := l.Next()
		if !ok {
			break
		}
		for i := range b.Labels {
			feats = append(feats, b.Features[i][0])
			labels = append(labels, b.Labels[i])
		}
	}
	return feats, labels
}

func Test_StableOrderAllBatchSizes(t *testing.T) {
	// concatenated batches must reproduce dataset order whether or not
	// the batch size divides the dataset evenly
	d := sequential(10)
	for _, bs := range []int{1, 2, 3, 4, 7, 10, 16} {
		l, err := NewLoader(d, bs, false, 0)
		assert.NilError(t, err)
		feats, labels := collect(l)
		assert.Assert(t, len(labels) == 10, "bs=%d", bs)
		for i := 0; i < 10; i++ {
			assert.Assert(t, labels[i] == float64(i), "bs=%d i=%d", bs, i)
			assert.Assert(t, feats[i] == float64(i))
		}
	}
}

func Test_ShortFinalBatch(t *testing.T) {
	l, err := NewLoader(sequential(10), 4, false, 0)
	assert.NilError(t, err)
	assert.Assert(t, l.Batches() == 3)
	sizes := []int{}
	for {
		b, ok := l.Next()
		if !ok {
			break
		}
		sizes = append(sizes, len(b.Labels))
	}
	assert.DeepEqual(t, sizes, []int{4, 4, 2})
}

func Test_Restartable(t *testing.T) {
	l, err := NewLoader(sequential(5), 2, false, 0)
	assert.NilError(t, err)
	_, a := collect(l)
	_, ok := l.Next()
	assert.Assert(t, !ok)
	l.Reset()
	_, b := collect(l)
	assert.DeepEqual(t, a, b)
}

func Test_ShuffleCoversAllExamples(t *testing.T) {
	l, err := NewLoader(sequential(8), 3, true, 99)
	assert.NilError(t, err)
	_, labels := collect(l)
	seen := map[float64]bool{}
	for _, y := range labels {
		seen[y] = true
	}
	assert.Assert(t, len(seen) == 8)

	// a reshuffling pass still covers every example
	l.Reset()
	_, labels = collect(l)
	seen = map[float64]bool{}
	for _, y := range labels {
		seen[y] = true
	}
	assert.Assert(t, len(seen) == 8)
}

func Test_LoaderRejectsBadInput(t *testing.T) {
	_, err := NewLoader(&Dataset{}, 2, false, 0)
	assert.Assert(t, err != nil)
	_, err = NewLoader(sequential(3), 0, false, 0)
	assert.Assert(t, err != nil)
}
