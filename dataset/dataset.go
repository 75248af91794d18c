/*
Package dataset provides the tabular data source feeding DSPP models:
CSV loading (optionally xz-compressed), train/test splitting,
standardization, and an order-stable minibatch loader.
*/
package dataset

import (
	"encoding/csv"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/ulikunitz/xz"
	"golang.org/x/xerrors"
	"gonum.org/v1/gonum/stat"
)

/*
Dataset is an in-memory tabular dataset: N feature rows with one scalar
label per row.
*/
type Dataset struct {
	Names    []string    // feature column names
	Features [][]float64 // N x D
	Labels   []float64   // N
}

/*
Len returns the number of examples.
*/
func (d *Dataset) Len() int { return len(d.Features) }

/*
Dim returns the feature dimensionality.
*/
func (d *Dataset) Dim() int {
	if len(d.Features) == 0 {
		return len(d.Names)
	}
	return len(d.Features[0])
}

/*
LoadCSV reads a headed CSV file into a Dataset. Files ending in .xz are
decompressed transparently. The label column is selected by name; an
empty name selects the last column.
*/
func LoadCSV(path, label string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	var r io.Reader = f
	if strings.HasSuffix(path, ".xz") {
		if r, err = xz.NewReader(f); err != nil {
			return nil, xerrors.Errorf("open xz stream: %w", err)
		}
	}
	return ReadCSV(r, label)
}

/*
ReadCSV parses CSV content with a header row into a Dataset.
*/
func ReadCSV(r io.Reader, label string) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, xerrors.Errorf("read csv header: %w", err)
	}
	labelCol := len(header) - 1
	if label != "" {
		labelCol = -1
		for i, name := range header {
			if name == label {
				labelCol = i
				break
			}
		}
		if labelCol < 0 {
			return nil, xerrors.Errorf("label column %q not present in header", label)
		}
	}
	d := &Dataset{}
	for i, name := range header {
		if i != labelCol {
			d.Names = append(d.Names, name)
		}
	}
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, xerrors.Errorf("read csv: %w", err)
		}
		line++
		if len(rec) != len(header) {
			return nil, xerrors.Errorf("line %d has %d fields, header has %d", line, len(rec), len(header))
		}
		row := make([]float64, 0, len(header)-1)
		for i, s := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, xerrors.Errorf("line %d column %q: %w", line, header[i], err)
			}
			if i == labelCol {
				d.Labels = append(d.Labels, v)
			} else {
				row = append(row, v)
			}
		}
		d.Features = append(d.Features, row)
	}
	if len(d.Features) == 0 {
		return nil, xerrors.New("dataset is empty")
	}
	return d, nil
}

/*
Split partitions the dataset into train and test subsets by a seeded
shuffle. testFraction is clamped to leave at least one example on each
side.
*/
func (d *Dataset) Split(testFraction float64, seed int64) (train, test *Dataset) {
	n := d.Len()
	nt := int(float64(n) * testFraction)
	if nt < 1 {
		nt = 1
	}
	if nt > n-1 {
		nt = n - 1
	}
	order := rand.New(rand.NewSource(seed)).Perm(n)
	train = &Dataset{Names: d.Names}
	test = &Dataset{Names: d.Names}
	for i, j := range order {
		if i < nt {
			test.Features = append(test.Features, d.Features[j])
			test.Labels = append(test.Labels, d.Labels[j])
		} else {
			train.Features = append(train.Features, d.Features[j])
			train.Labels = append(train.Labels, d.Labels[j])
		}
	}
	return train, test
}

/*
Scaler standardizes features and labels to zero mean and unit variance
using statistics of the dataset it was fitted on.
*/
type Scaler struct {
	Mean, Std           []float64
	LabelMean, LabelStd float64
}

/*
Fit computes standardization statistics from d.
*/
func Fit(d *Dataset) *Scaler {
	dim := d.Dim()
	s := &Scaler{Mean: make([]float64, dim), Std: make([]float64, dim)}
	col := make([]float64, d.Len())
	for j := 0; j < dim; j++ {
		for i, row := range d.Features {
			col[i] = row[j]
		}
		s.Mean[j] = stat.Mean(col, nil)
		s.Std[j] = stat.StdDev(col, nil)
		if !(s.Std[j] > 0) {
			s.Std[j] = 1
		}
	}
	s.LabelMean = stat.Mean(d.Labels, nil)
	s.LabelStd = stat.StdDev(d.Labels, nil)
	if !(s.LabelStd > 0) {
		s.LabelStd = 1
	}
	return s
}

/*
Apply returns a standardized copy of d.
*/
func (s *Scaler) Apply(d *Dataset) *Dataset {
	out := &Dataset{
		Names:    d.Names,
		Features: make([][]float64, d.Len()),
		Labels:   make([]float64, d.Len()),
	}
	for i, row := range d.Features {
		r := make([]float64, len(row))
		for j, v := range row {
			r[j] = (v - s.Mean[j]) / s.Std[j]
		}
		out.Features[i] = r
		out.Labels[i] = (d.Labels[i] - s.LabelMean) / s.LabelStd
	}
	return out
}
