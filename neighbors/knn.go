// Package neighbors provides nearest-neighbor classification models.
package neighbors

import (
	"encoding/gob"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/classigo/core/model"
	"github.com/YuminosukeSato/classigo/core/parallel"
	"github.com/YuminosukeSato/classigo/pkg/errors"
)

func init() {
	gob.Register(&KNeighborsClassifier{})
}

// Queries below this row count are answered sequentially; the goroutine
// overhead outweighs the distance computations for tiny batches.
const parallelQueryThreshold = 64

// KNeighborsClassifier implements k-nearest neighbors classification with
// Euclidean distance, compatible with scikit-learn's KNeighborsClassifier.
// Fit stores the training data; prediction searches it per query row,
// parallelized across CPU cores for larger batches.
//
// The exported fields hold the fitted state so the model survives gob
// persistence; treat them as read-only.
type KNeighborsClassifier struct {
	model.BaseEstimator

	// NNeighbors is the number of neighbors consulted per query.
	NNeighbors int

	// VoteWeights is "uniform" (majority vote) or "distance"
	// (votes weighted by inverse distance).
	VoteWeights string

	// XTrain holds the training features after Fit.
	XTrain *mat.Dense

	// YTrain holds the integer training labels after Fit.
	YTrain []int

	// ClassLabels holds the sorted unique labels after Fit.
	ClassLabels []int

	// NFeatures is the feature count seen during Fit.
	NFeatures int
}

// KNNOption is a functional option for KNeighborsClassifier.
type KNNOption func(*KNeighborsClassifier)

// NewKNeighborsClassifier creates a classifier with k neighbors. k below 1
// falls back to the scikit-learn default of 5.
func NewKNeighborsClassifier(k int, opts ...KNNOption) *KNeighborsClassifier {
	if k < 1 {
		k = 5
	}
	knn := &KNeighborsClassifier{
		NNeighbors:  k,
		VoteWeights: "uniform",
	}
	for _, opt := range opts {
		opt(knn)
	}
	return knn
}

// WithKNNWeights sets the voting scheme: "uniform" or "distance".
func WithKNNWeights(weights string) KNNOption {
	return func(knn *KNeighborsClassifier) {
		knn.VoteWeights = weights
	}
}

// Fit stores the training data. Labels must be integer-valued.
func (knn *KNeighborsClassifier) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "KNeighborsClassifier.Fit")

	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("KNeighborsClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("KNeighborsClassifier.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("KNeighborsClassifier.Fit", 1, yCols, 1)
	}
	if knn.VoteWeights != "uniform" && knn.VoteWeights != "distance" {
		return errors.NewValidationError("weights", `must be "uniform" or "distance"`, knn.VoteWeights)
	}
	if knn.NNeighbors > nSamples {
		return errors.NewValidationError("n_neighbors",
			"must not exceed the number of training samples", knn.NNeighbors)
	}

	knn.XTrain = mat.DenseCopyOf(X)
	knn.YTrain = make([]int, nSamples)
	classMap := make(map[int]bool)
	for i := 0; i < nSamples; i++ {
		label := int(y.At(i, 0))
		knn.YTrain[i] = label
		classMap[label] = true
	}

	knn.ClassLabels = make([]int, 0, len(classMap))
	for label := range classMap {
		knn.ClassLabels = append(knn.ClassLabels, label)
	}
	sort.Ints(knn.ClassLabels)

	knn.NFeatures = nFeatures
	knn.SetFitted()
	return nil
}

// neighbor pairs a training row index with its distance to the query.
type neighbor struct {
	index    int
	distance float64
}

// nearest returns the k training points closest to query row i of X.
func (knn *KNeighborsClassifier) nearest(X mat.Matrix, i int) []neighbor {
	nTrain, _ := knn.XTrain.Dims()
	distances := make([]neighbor, nTrain)

	for t := 0; t < nTrain; t++ {
		sum := 0.0
		for j := 0; j < knn.NFeatures; j++ {
			diff := X.At(i, j) - knn.XTrain.At(t, j)
			sum += diff * diff
		}
		distances[t] = neighbor{index: t, distance: math.Sqrt(sum)}
	}

	sort.Slice(distances, func(a, b int) bool {
		return distances[a].distance < distances[b].distance
	})
	return distances[:knn.NNeighbors]
}

// vote accumulates per-class voting weight for the given neighbors.
func (knn *KNeighborsClassifier) vote(neighbors []neighbor) map[int]float64 {
	votes := make(map[int]float64, len(knn.ClassLabels))
	for _, nb := range neighbors {
		w := 1.0
		if knn.VoteWeights == "distance" {
			// An exact match dominates the vote.
			if nb.distance < 1e-10 {
				w = 1e10
			} else {
				w = 1.0 / nb.distance
			}
		}
		votes[knn.YTrain[nb.index]] += w
	}
	return votes
}

func (knn *KNeighborsClassifier) checkQuery(X mat.Matrix, op string) error {
	if !knn.IsFitted() {
		return errors.NewNotFittedError("KNeighborsClassifier", op)
	}
	_, nFeatures := X.Dims()
	if nFeatures != knn.NFeatures {
		return errors.NewDimensionError("KNeighborsClassifier."+op, knn.NFeatures, nFeatures, 1)
	}
	return nil
}

// Predict returns the predicted class label for each row of X.
func (knn *KNeighborsClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := knn.checkQuery(X, "Predict"); err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)

	parallel.ParallelizeWithThreshold(nSamples, parallelQueryThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			votes := knn.vote(knn.nearest(X, i))

			best := knn.ClassLabels[0]
			bestWeight := math.Inf(-1)
			for _, label := range knn.ClassLabels {
				if w := votes[label]; w > bestWeight {
					bestWeight = w
					best = label
				}
			}
			predictions.Set(i, 0, float64(best))
		}
	})

	return predictions, nil
}

// PredictProba returns the voting weight fraction per class, one column
// per class in the order of Classes().
func (knn *KNeighborsClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := knn.checkQuery(X, "PredictProba"); err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	probas := mat.NewDense(nSamples, len(knn.ClassLabels), nil)

	parallel.ParallelizeWithThreshold(nSamples, parallelQueryThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			votes := knn.vote(knn.nearest(X, i))

			total := 0.0
			for _, w := range votes {
				total += w
			}
			for k, label := range knn.ClassLabels {
				probas.Set(i, k, votes[label]/total)
			}
		}
	})

	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels.
func (knn *KNeighborsClassifier) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := knn.Predict(X)
	if err != nil {
		return 0, err
	}

	nSamples, _ := X.Dims()
	yRows, _ := y.Dims()
	if nSamples != yRows {
		return 0, errors.NewDimensionError("KNeighborsClassifier.Score", nSamples, yRows, 0)
	}

	correct := 0
	for i := 0; i < nSamples; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(nSamples), nil
}

// Classes returns a copy of the sorted class labels seen during fitting.
func (knn *KNeighborsClassifier) Classes() []int {
	out := make([]int, len(knn.ClassLabels))
	copy(out, knn.ClassLabels)
	return out
}

// GetParams returns the model hyperparameters.
func (knn *KNeighborsClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_neighbors": knn.NNeighbors,
		"weights":     knn.VoteWeights,
	}
}

// SetParams sets the model hyperparameters.
func (knn *KNeighborsClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "n_neighbors":
			knn.NNeighbors = value.(int)
		case "weights":
			knn.VoteWeights = value.(string)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
	}
	return nil
}

// Save persists the fitted model, training data included, to path.
func (knn *KNeighborsClassifier) Save(path string) error {
	if !knn.IsFitted() {
		return errors.NewNotFittedError("KNeighborsClassifier", "Save")
	}
	return model.SaveModel(knn, path)
}

// Load restores a model previously written with Save.
func (knn *KNeighborsClassifier) Load(path string) error {
	return model.LoadModel(knn, path)
}
