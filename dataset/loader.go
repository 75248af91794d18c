package dataset

import (
	"math/rand"

	"go-ml.dev/pkg/zorros"
)

/*
Batch is one minibatch of aligned features and labels.
*/
type Batch struct {
	Features [][]float64
	Labels   []float64
}

/*
Loader yields a dataset in fixed-size batches. A shuffled loader draws a
fresh permutation on every Reset; a stable loader always yields examples
in dataset order, which evaluation relies on to keep aggregated results
aligned with the source.
*/
type Loader struct {
	ds      *Dataset
	batch   int
	shuffle bool
	rng     *rand.Rand
	order   []int
	pos     int
}

/*
NewLoader builds a loader over ds.
*/
func NewLoader(ds *Dataset, batchSize int, shuffle bool, seed int64) (*Loader, error) {
	if ds.Len() == 0 {
		return nil, zorros.Errorf("cannot iterate an empty dataset")
	}
	if batchSize < 1 {
		return nil, zorros.Errorf("batch size must be positive, got %d", batchSize)
	}
	l := &Loader{
		ds:      ds,
		batch:   batchSize,
		shuffle: shuffle,
		rng:     rand.New(rand.NewSource(seed)),
	}
	l.Reset()
	return l, nil
}

/*
Reset rewinds the loader for another full pass.
*/
func (l *Loader) Reset() {
	l.pos = 0
	if l.shuffle {
		l.order = l.rng.Perm(l.ds.Len())
	} else if l.order == nil {
		l.order = make([]int, l.ds.Len())
		for i := range l.order {
			l.order[i] = i
		}
	}
}

/*
Next returns the next batch; ok is false when the pass is exhausted.
The final batch may be short when the batch size does not divide the
dataset evenly.
*/
func (l *Loader) Next() (b Batch, ok bool) {
	if l.pos >= len(l.order) {
		return Batch{}, false
	}
	end := l.pos + l.batch
	if end > len(l.order) {
		end = len(l.order)
	}
	idx := l.order[l.pos:end]
	b.Features = make([][]float64, len(idx))
	b.Labels = make([]float64, len(idx))
	for i, j := range idx {
		b.Features[i] = l.ds.Features[j]
		b.Labels[i] = l.ds.Labels[j]
	}
	l.pos = end
	return b, true
}

/*
Batches returns the number of batches in one full pass.
*/
func (l *Loader) Batches() int {
	return (l.ds.Len() + l.batch - 1) / l.batch
}
