package dataset

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/classigo/pkg/errors"
)

// Split holds the result of a train/test partition.
type Split struct {
	XTrain, XTest *mat.Dense
	YTrain, YTest *mat.VecDense
}

// TrainTestSplit shuffles the samples with the given seed and partitions
// them into train and test sets. testSize is the test fraction in (0, 1).
func TrainTestSplit(X mat.Matrix, y *mat.VecDense, testSize float64, seed int64) (*Split, error) {
	nSamples, _ := X.Dims()
	if err := validateSplitInputs(X, y, testSize); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	indices := rng.Perm(nSamples)

	nTest := int(float64(nSamples) * testSize)
	if nTest == 0 {
		nTest = 1
	}
	if nTest >= nSamples {
		return nil, errors.NewValidationError("testSize", "leaves no training samples", testSize)
	}

	return subsetSplit(X, y, indices[:nTest], indices[nTest:]), nil
}

// StratifiedTrainTestSplit partitions samples like TrainTestSplit while
// preserving the per-class label proportions in both sets.
func StratifiedTrainTestSplit(X mat.Matrix, y *mat.VecDense, testSize float64, seed int64) (*Split, error) {
	nSamples, _ := X.Dims()
	if err := validateSplitInputs(X, y, testSize); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))

	// Group sample indices by class, shuffling within each class.
	classIndices := make(map[float64][]int)
	var classOrder []float64
	for i := 0; i < nSamples; i++ {
		label := y.AtVec(i)
		if _, ok := classIndices[label]; !ok {
			classOrder = append(classOrder, label)
		}
		classIndices[label] = append(classIndices[label], i)
	}
	for _, label := range classOrder {
		idx := classIndices[label]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	}

	var testIdx, trainIdx []int
	for _, label := range classOrder {
		idx := classIndices[label]
		nTest := int(float64(len(idx)) * testSize)
		if nTest == 0 && len(idx) > 1 {
			nTest = 1
		}
		testIdx = append(testIdx, idx[:nTest]...)
		trainIdx = append(trainIdx, idx[nTest:]...)
	}

	if len(trainIdx) == 0 || len(testIdx) == 0 {
		return nil, errors.NewValidationError("testSize", "produces an empty partition", testSize)
	}

	// Shuffle across classes so folds are not class-ordered.
	rng.Shuffle(len(testIdx), func(i, j int) { testIdx[i], testIdx[j] = testIdx[j], testIdx[i] })
	rng.Shuffle(len(trainIdx), func(i, j int) { trainIdx[i], trainIdx[j] = trainIdx[j], trainIdx[i] })

	return subsetSplit(X, y, testIdx, trainIdx), nil
}

func validateSplitInputs(X mat.Matrix, y *mat.VecDense, testSize float64) error {
	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("dataset.TrainTestSplit", "empty data", errors.ErrEmptyData)
	}
	if y.Len() != nSamples {
		return errors.NewDimensionError("dataset.TrainTestSplit", nSamples, y.Len(), 0)
	}
	if testSize <= 0 || testSize >= 1 {
		return errors.NewValidationError("testSize", "must be in (0, 1)", testSize)
	}
	return nil
}

func subsetSplit(X mat.Matrix, y *mat.VecDense, testIdx, trainIdx []int) *Split {
	return &Split{
		XTrain: SelectRows(X, trainIdx),
		XTest:  SelectRows(X, testIdx),
		YTrain: SelectVec(y, trainIdx),
		YTest:  SelectVec(y, testIdx),
	}
}

// SelectRows copies the given rows of X into a new matrix, in index order.
func SelectRows(X mat.Matrix, indices []int) *mat.Dense {
	_, c := X.Dims()
	out := mat.NewDense(len(indices), c, nil)
	for i, idx := range indices {
		for j := 0; j < c; j++ {
			out.Set(i, j, X.At(idx, j))
		}
	}
	return out
}

// SelectVec copies the given elements of y into a new vector, in index order.
func SelectVec(y *mat.VecDense, indices []int) *mat.VecDense {
	out := mat.NewVecDense(len(indices), nil)
	for i, idx := range indices {
		out.SetVec(i, y.AtVec(idx))
	}
	return out
}
