package dataset

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/classigo/core/model"
	"github.com/YuminosukeSato/classigo/pkg/errors"
)

// KFoldSplitter defines the interface for cross-validation splitters.
type KFoldSplitter interface {
	Split(X mat.Matrix, y *mat.VecDense) []CVFold
	GetNSplits() int
}

// CVFold represents a single fold in cross-validation.
type CVFold struct {
	TrainIndices []int
	TestIndices  []int
}

// KFold implements k-fold cross-validation splitting.
type KFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int
}

// NewKFold creates a new k-fold splitter. nSplits below 2 falls back to 5.
func NewKFold(nSplits int, shuffle bool, randomSeed int) *KFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &KFold{
		NSplits:    nSplits,
		Shuffle:    shuffle,
		RandomSeed: randomSeed,
	}
}

// GetNSplits returns the number of splits.
func (kf *KFold) GetNSplits() int {
	return kf.NSplits
}

// Split generates train/test indices for each fold.
func (kf *KFold) Split(X mat.Matrix, _ *mat.VecDense) []CVFold {
	nSamples, _ := X.Dims()

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}

	if kf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(kf.RandomSeed), uint64(kf.RandomSeed)))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	folds := make([]CVFold, kf.NSplits)
	foldSize := nSamples / kf.NSplits
	remainder := nSamples % kf.NSplits

	currentIdx := 0
	for i := 0; i < kf.NSplits; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}

		testIndices := make([]int, testSize)
		copy(testIndices, indices[currentIdx:currentIdx+testSize])

		trainIndices := make([]int, 0, nSamples-testSize)
		trainIndices = append(trainIndices, indices[:currentIdx]...)
		trainIndices = append(trainIndices, indices[currentIdx+testSize:]...)

		folds[i] = CVFold{
			TrainIndices: trainIndices,
			TestIndices:  testIndices,
		}

		currentIdx += testSize
	}

	return folds
}

// StratifiedKFold implements stratified k-fold cross-validation: each fold
// preserves the class proportions of the full label vector.
type StratifiedKFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int
}

// NewStratifiedKFold creates a new stratified k-fold splitter.
func NewStratifiedKFold(nSplits int, shuffle bool, randomSeed int) *StratifiedKFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &StratifiedKFold{
		NSplits:    nSplits,
		Shuffle:    shuffle,
		RandomSeed: randomSeed,
	}
}

// GetNSplits returns the number of splits.
func (skf *StratifiedKFold) GetNSplits() int {
	return skf.NSplits
}

// Split generates stratified train/test indices for each fold.
func (skf *StratifiedKFold) Split(X mat.Matrix, y *mat.VecDense) []CVFold {
	nSamples, _ := X.Dims()

	classIndices := make(map[float64][]int)
	for i := 0; i < nSamples; i++ {
		label := y.AtVec(i)
		classIndices[label] = append(classIndices[label], i)
	}

	if skf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(skf.RandomSeed), uint64(skf.RandomSeed)))
		for label := range classIndices {
			indices := classIndices[label]
			r.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}
	}

	folds := make([]CVFold, skf.NSplits)

	// Distribute each class across folds.
	for _, indices := range classIndices {
		nClass := len(indices)
		foldSize := nClass / skf.NSplits
		remainder := nClass % skf.NSplits

		currentIdx := 0
		for i := 0; i < skf.NSplits; i++ {
			testSize := foldSize
			if i < remainder {
				testSize++
			}
			for j := 0; j < testSize && currentIdx < nClass; j++ {
				folds[i].TestIndices = append(folds[i].TestIndices, indices[currentIdx])
				currentIdx++
			}
		}
	}

	// Build train sets (all samples not in the fold's test set).
	for i := 0; i < skf.NSplits; i++ {
		testSet := make(map[int]bool, len(folds[i].TestIndices))
		for _, idx := range folds[i].TestIndices {
			testSet[idx] = true
		}
		for j := 0; j < nSamples; j++ {
			if !testSet[j] {
				folds[i].TrainIndices = append(folds[i].TrainIndices, j)
			}
		}
	}

	return folds
}

// CVResult stores cross-validation scores, one entry per fold.
type CVResult struct {
	TestScores []float64
}

// GetMeanScore returns the mean test score.
func (cv *CVResult) GetMeanScore() float64 {
	if len(cv.TestScores) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, score := range cv.TestScores {
		sum += score
	}
	return sum / float64(len(cv.TestScores))
}

// GetStdScore returns the sample standard deviation of the test scores.
func (cv *CVResult) GetStdScore() float64 {
	if len(cv.TestScores) <= 1 {
		return 0.0
	}

	mean := cv.GetMeanScore()
	sumSq := 0.0
	for _, score := range cv.TestScores {
		diff := score - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(cv.TestScores)-1))
}

// CrossValidate fits a fresh classifier per fold and scores it on the held
// out fold. newClf must return an unfitted estimator; folds come from the
// splitter (use StratifiedKFold for imbalanced labels).
func CrossValidate(newClf func() model.Classifier, X mat.Matrix, y *mat.VecDense, splitter KFoldSplitter) (*CVResult, error) {
	folds := splitter.Split(X, y)
	if len(folds) == 0 {
		return nil, errors.NewValueError("dataset.CrossValidate", "splitter produced no folds")
	}

	result := &CVResult{
		TestScores: make([]float64, len(folds)),
	}

	for i, fold := range folds {
		if len(fold.TrainIndices) == 0 || len(fold.TestIndices) == 0 {
			return nil, errors.Newf("dataset: fold %d has an empty partition; use fewer splits", i)
		}

		trainX := SelectRows(X, fold.TrainIndices)
		trainY := SelectVec(y, fold.TrainIndices)
		testX := SelectRows(X, fold.TestIndices)
		testY := SelectVec(y, fold.TestIndices)

		clf := newClf()
		if err := clf.Fit(trainX, trainY); err != nil {
			return nil, errors.Wrapf(err, "dataset: fold %d training failed", i)
		}

		score, err := clf.Score(testX, testY)
		if err != nil {
			return nil, errors.Wrapf(err, "dataset: fold %d scoring failed", i)
		}
		result.TestScores[i] = score
	}

	return result, nil
}
