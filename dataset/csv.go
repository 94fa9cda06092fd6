// Package dataset provides tabular data loading and splitting utilities:
// CSV ingestion into gonum matrices, shuffled and stratified train/test
// splits, and k-fold cross-validation.
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/classigo/pkg/errors"
)

type csvConfig struct {
	hasHeader bool
	labelCol  int
	labelName string
	skipCols  map[int]bool
}

// CSVOption configures LoadCSV / ReadCSV.
type CSVOption func(*csvConfig)

// WithLabelColumn selects the label column by index (default: last column).
func WithLabelColumn(idx int) CSVOption {
	return func(c *csvConfig) { c.labelCol = idx }
}

// WithLabelName selects the label column by header name.
// Requires a header row.
func WithLabelName(name string) CSVOption {
	return func(c *csvConfig) { c.labelName = name }
}

// WithoutHeader treats the first row as data instead of column names.
func WithoutHeader() CSVOption {
	return func(c *csvConfig) { c.hasHeader = false }
}

// WithSkipColumns drops the given column indices (for example row ids)
// before assembling the feature matrix.
func WithSkipColumns(indices ...int) CSVOption {
	return func(c *csvConfig) {
		for _, idx := range indices {
			c.skipCols[idx] = true
		}
	}
}

// LoadCSV reads a CSV file into a feature matrix X and a label vector y.
// All cells must parse as float64; encode categorical columns first
// (see preprocessing.LabelEncoder and preprocessing.OneHotEncoder).
func LoadCSV(path string, opts ...CSVOption) (*mat.Dense, *mat.VecDense, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "dataset: failed to open %s", path)
	}
	defer file.Close()

	return ReadCSV(file, opts...)
}

// ReadCSV is LoadCSV over an io.Reader.
func ReadCSV(r io.Reader, opts ...CSVOption) (*mat.Dense, *mat.VecDense, error) {
	cfg := &csvConfig{
		hasHeader: true,
		labelCol:  -1,
		skipCols:  make(map[int]bool),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, errors.Wrap(err, "dataset: failed to parse CSV")
	}

	rowOffset := 0
	if cfg.hasHeader {
		if len(records) == 0 {
			return nil, nil, errors.NewModelError("dataset.ReadCSV", "empty data", errors.ErrEmptyData)
		}
		if cfg.labelName != "" {
			found := -1
			for j, name := range records[0] {
				if name == cfg.labelName {
					found = j
					break
				}
			}
			if found < 0 {
				return nil, nil, errors.NewValidationError("label", "column not found in header", cfg.labelName)
			}
			cfg.labelCol = found
		}
		records = records[1:]
		rowOffset = 1
	} else if cfg.labelName != "" {
		return nil, nil, errors.NewValidationError("label", "label name requires a header row", cfg.labelName)
	}

	if len(records) == 0 {
		return nil, nil, errors.NewModelError("dataset.ReadCSV", "empty data", errors.ErrEmptyData)
	}

	nCols := len(records[0])
	if cfg.labelCol < 0 {
		cfg.labelCol = nCols - 1
	}
	if cfg.labelCol >= nCols {
		return nil, nil, errors.NewValidationError("label", "column index out of range", cfg.labelCol)
	}

	nFeatures := 0
	for j := 0; j < nCols; j++ {
		if j != cfg.labelCol && !cfg.skipCols[j] {
			nFeatures++
		}
	}
	if nFeatures == 0 {
		return nil, nil, errors.NewValueError("dataset.ReadCSV", "no feature columns remain")
	}

	nSamples := len(records)
	X := mat.NewDense(nSamples, nFeatures, nil)
	y := mat.NewVecDense(nSamples, nil)

	for i, rec := range records {
		if len(rec) != nCols {
			return nil, nil, errors.NewDimensionError("dataset.ReadCSV", nCols, len(rec), 1)
		}
		col := 0
		for j, cell := range rec {
			if cfg.skipCols[j] && j != cfg.labelCol {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, errors.Newf("dataset: row %d, column %d: cannot parse %q as float64", i+rowOffset+1, j+1, cell)
			}
			if j == cfg.labelCol {
				y.SetVec(i, v)
				continue
			}
			X.Set(i, col, v)
			col++
		}
	}

	return X, y, nil
}

// LoadCSVStrings reads a CSV file as raw strings, returning the header
// (nil when absent) and the data rows. Use this for tables with
// categorical columns that still need encoding.
func LoadCSVStrings(path string, hasHeader bool) (header []string, rows [][]string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "dataset: failed to open %s", path)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, errors.Wrap(err, "dataset: failed to parse CSV")
	}
	if len(records) == 0 {
		return nil, nil, errors.NewModelError("dataset.LoadCSVStrings", "empty data", errors.ErrEmptyData)
	}

	if hasHeader {
		return records[0], records[1:], nil
	}
	return nil, records, nil
}
