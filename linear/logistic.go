// Package linear provides linear classification models.
package linear

import (
	"bytes"
	"encoding/gob"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/classigo/core/model"
	"github.com/YuminosukeSato/classigo/pkg/errors"
)

func init() {
	gob.Register(&LogisticRegression{})
}

// LogisticRegression implements logistic regression for binary and
// multiclass classification, compatible with scikit-learn's
// LogisticRegression. Binary problems are solved with gradient descent;
// multiclass problems use one-vs-rest.
type LogisticRegression struct {
	state *model.StateManager // State management (composition)

	// Hyperparameters
	penalty      string  // Regularization: "l2", "none"
	c            float64 // Inverse regularization strength (1/alpha)
	fitIntercept bool    // Whether to fit intercept
	randomState  int64   // Random seed (-1 for nondeterministic)
	maxIter      int     // Maximum iterations
	multiClass   string  // Multi-class strategy: "auto", "ovr"
	tol          float64 // Tolerance for stopping

	// Model parameters
	coef_      [][]float64 // Coefficients (1 x n_features for binary, n_classes x n_features otherwise)
	intercept_ []float64   // Intercept terms
	classes_   []int       // Unique class labels, sorted ascending
	nClasses_  int         // Number of classes
	nFeatures_ int         // Number of features
	nIter_     []int       // Actual iterations per fitted weight vector

	rand *rand.Rand
}

// LogisticRegressionOption is a functional option for LogisticRegression.
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier.
//
// 使用例:
//
//	clf := linear.NewLogisticRegression(
//	    linear.WithLRMaxIter(200),
//	    linear.WithLRRandomState(42),
//	)
//	err := clf.Fit(XTrain, yTrain)
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		penalty:      "l2",
		c:            1.0,
		fitIntercept: true,
		randomState:  -1,
		maxIter:      100,
		multiClass:   "auto",
		tol:          1e-4,
	}

	for _, opt := range opts {
		opt(lr)
	}

	if lr.rand == nil {
		if lr.randomState >= 0 {
			lr.rand = rand.New(rand.NewSource(lr.randomState))
		} else {
			lr.rand = rand.New(rand.NewSource(rand.Int63()))
		}
	}

	return lr
}

// WithLRPenalty sets the regularization type ("l2" or "none").
func WithLRPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.penalty = penalty
	}
}

// WithLRC sets the inverse regularization strength.
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.c = c
	}
}

// WithLRFitIntercept sets whether to fit an intercept term.
func WithLRFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithLRMaxIter sets the maximum number of gradient descent iterations.
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRTol sets the tolerance for the stopping criterion.
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// WithLRRandomState sets the random seed for weight initialization.
func WithLRRandomState(seed int64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.randomState = seed
		if seed >= 0 {
			lr.rand = rand.New(rand.NewSource(seed))
		}
	}
}

// Fit trains the logistic regression model on X (n_samples x n_features)
// and y (n_samples x 1). Labels must be integer-valued; at least two
// distinct classes are required.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "LogisticRegression.Fit")

	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("LogisticRegression.Fit", 1, yCols, 1)
	}

	lr.extractClasses(y)
	if lr.nClasses_ < 2 {
		return errors.NewValueError("LogisticRegression.Fit",
			"training data contains a single class; need at least two")
	}

	lr.nFeatures_ = nFeatures
	lr.initializeWeights(nFeatures)

	if lr.nClasses_ == 2 {
		yBinary := binaryTargets(y, lr.classes_[1])
		lr.runGradientDescent(X, yBinary, 0)
	} else {
		// One-vs-rest: one weight vector per class.
		for classIdx, class := range lr.classes_ {
			yBinary := binaryTargets(y, class)
			lr.runGradientDescent(X, yBinary, classIdx)
		}
	}

	lr.checkConvergence()
	lr.state.SetDimensions(nFeatures, nSamples)
	lr.state.SetFitted()
	return nil
}

// extractClasses identifies the sorted unique class labels in y.
func (lr *LogisticRegression) extractClasses(y mat.Matrix) {
	rows, _ := y.Dims()
	classMap := make(map[int]bool)

	for i := 0; i < rows; i++ {
		classMap[int(y.At(i, 0))] = true
	}

	lr.classes_ = make([]int, 0, len(classMap))
	for class := range classMap {
		lr.classes_ = append(lr.classes_, class)
	}
	sort.Ints(lr.classes_)
	lr.nClasses_ = len(lr.classes_)
}

// initializeWeights initializes model weights with small random values.
func (lr *LogisticRegression) initializeWeights(nFeatures int) {
	nVectors := 1
	if lr.nClasses_ > 2 {
		nVectors = lr.nClasses_
	}

	lr.coef_ = make([][]float64, nVectors)
	for i := range lr.coef_ {
		lr.coef_[i] = make([]float64, nFeatures)
		for j := range lr.coef_[i] {
			lr.coef_[i][j] = lr.rand.NormFloat64() * 0.01
		}
	}
	lr.intercept_ = make([]float64, nVectors)
	lr.nIter_ = make([]int, nVectors)
}

// binaryTargets builds a 0/1 target vector where positive is 1.
func binaryTargets(y mat.Matrix, positive int) *mat.VecDense {
	rows, _ := y.Dims()
	out := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		if int(y.At(i, 0)) == positive {
			out.SetVec(i, 1.0)
		}
	}
	return out
}

// runGradientDescent fits the weight vector at classIdx against the 0/1
// targets using full-batch gradient descent with a decaying learning rate.
func (lr *LogisticRegression) runGradientDescent(X mat.Matrix, yBinary *mat.VecDense, classIdx int) {
	nSamples, nFeatures := X.Dims()
	weights := lr.coef_[classIdx]
	intercept := &lr.intercept_[classIdx]

	baseLearningRate := 1.0

	for iter := 0; iter < lr.maxIter; iter++ {
		gradWeights := make([]float64, nFeatures)
		gradIntercept := 0.0

		for i := 0; i < nSamples; i++ {
			z := *intercept
			for j := 0; j < nFeatures; j++ {
				z += X.At(i, j) * weights[j]
			}
			residual := sigmoid(z) - yBinary.AtVec(i)
			gradIntercept += residual
			for j := 0; j < nFeatures; j++ {
				gradWeights[j] += residual * X.At(i, j)
			}
		}

		for j := range gradWeights {
			gradWeights[j] /= float64(nSamples)
		}
		gradIntercept /= float64(nSamples)

		if lr.penalty == "l2" {
			lambda := 1.0 / lr.c
			for j := range weights {
				gradWeights[j] += lambda * weights[j] / float64(nSamples)
			}
		}

		learningRate := baseLearningRate / (1.0 + 0.1*float64(iter))

		for j := range weights {
			weights[j] -= learningRate * gradWeights[j]
		}
		if lr.fitIntercept {
			*intercept -= learningRate * gradIntercept
		}

		lr.nIter_[classIdx] = iter + 1

		maxGrad := math.Abs(gradIntercept)
		for _, g := range gradWeights {
			if math.Abs(g) > maxGrad {
				maxGrad = math.Abs(g)
			}
		}
		if maxGrad < lr.tol {
			break
		}
	}
}

// checkConvergence emits a ConvergenceWarning for any weight vector that
// used every allowed iteration without reaching the tolerance.
func (lr *LogisticRegression) checkConvergence() {
	for _, iters := range lr.nIter_ {
		if iters >= lr.maxIter {
			errors.Warn(errors.NewConvergenceWarning("LogisticRegression", iters,
				"gradient descent reached max_iter before the tolerance; consider increasing max_iter or scaling the features"))
			return
		}
	}
}

// DecisionFunction returns the raw scores X*w + b, one column per weight
// vector (a single column for binary models).
func (lr *LogisticRegression) DecisionFunction(X mat.Matrix) (*mat.Dense, error) {
	if !lr.state.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "DecisionFunction")
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != lr.nFeatures_ {
		return nil, errors.NewDimensionError("LogisticRegression.DecisionFunction", lr.nFeatures_, nFeatures, 1)
	}

	scores := mat.NewDense(nSamples, len(lr.coef_), nil)
	for i := 0; i < nSamples; i++ {
		for k := range lr.coef_ {
			z := lr.intercept_[k]
			for j := 0; j < nFeatures; j++ {
				z += X.At(i, j) * lr.coef_[k][j]
			}
			scores.Set(i, k, z)
		}
	}
	return scores, nil
}

// Predict returns the predicted class label for each row of X.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	scores, err := lr.DecisionFunction(X)
	if err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)

	if lr.nClasses_ == 2 {
		for i := 0; i < nSamples; i++ {
			if sigmoid(scores.At(i, 0)) >= 0.5 {
				predictions.Set(i, 0, float64(lr.classes_[1]))
			} else {
				predictions.Set(i, 0, float64(lr.classes_[0]))
			}
		}
	} else {
		for i := 0; i < nSamples; i++ {
			best := 0
			for k := 1; k < lr.nClasses_; k++ {
				if scores.At(i, k) > scores.At(i, best) {
					best = k
				}
			}
			predictions.Set(i, 0, float64(lr.classes_[best]))
		}
	}

	return predictions, nil
}

// PredictProba returns class probability estimates, one column per class
// in the order of Classes(). Binary models use the sigmoid; multiclass
// models apply a softmax over the per-class scores.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	scores, err := lr.DecisionFunction(X)
	if err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	probas := mat.NewDense(nSamples, lr.nClasses_, nil)

	if lr.nClasses_ == 2 {
		for i := 0; i < nSamples; i++ {
			p := sigmoid(scores.At(i, 0))
			probas.Set(i, 0, 1.0-p)
			probas.Set(i, 1, p)
		}
	} else {
		row := make([]float64, lr.nClasses_)
		for i := 0; i < nSamples; i++ {
			for k := 0; k < lr.nClasses_; k++ {
				row[k] = scores.At(i, k)
			}
			// softmax(z)_k = exp(z_k - logsumexp(z))
			lse := errors.LogSumExp(row)
			for k := 0; k < lr.nClasses_; k++ {
				probas.Set(i, k, errors.StabilizeExp(row[k]-lse))
			}
		}
	}

	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels.
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}

	nSamples, _ := X.Dims()
	yRows, _ := y.Dims()
	if nSamples != yRows {
		return 0, errors.NewDimensionError("LogisticRegression.Score", nSamples, yRows, 0)
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
func (lr *LogisticRegression) Classes() []int {
	out := make([]int, len(lr.classes_))
	copy(out, lr.classes_)
	return out
}

// Coef returns the fitted coefficient matrix, one row per weight vector.
func (lr *LogisticRegression) Coef() [][]float64 {
	return lr.coef_
}

// Intercept returns the fitted intercepts.
func (lr *LogisticRegression) Intercept() []float64 {
	return lr.intercept_
}

// NIter returns the iterations used per fitted weight vector.
func (lr *LogisticRegression) NIter() []int {
	return lr.nIter_
}

// IsFitted reports whether the model has been fitted.
func (lr *LogisticRegression) IsFitted() bool {
	return lr.state.IsFitted()
}

// GetParams returns the model hyperparameters.
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":       lr.penalty,
		"C":             lr.c,
		"fit_intercept": lr.fitIntercept,
		"random_state":  lr.randomState,
		"max_iter":      lr.maxIter,
		"multi_class":   lr.multiClass,
		"tol":           lr.tol,
	}
}

// SetParams sets the model hyperparameters.
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "penalty":
			lr.penalty = value.(string)
		case "C":
			lr.c = value.(float64)
		case "fit_intercept":
			lr.fitIntercept = value.(bool)
		case "random_state":
			lr.randomState = value.(int64)
			if lr.randomState >= 0 {
				lr.rand = rand.New(rand.NewSource(lr.randomState))
			}
		case "max_iter":
			lr.maxIter = value.(int)
		case "multi_class":
			lr.multiClass = value.(string)
		case "tol":
			lr.tol = value.(float64)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
	}
	return nil
}

// ExportWeights returns a JSON-serializable snapshot of the fitted model.
func (lr *LogisticRegression) ExportWeights() (*model.ModelWeights, error) {
	if !lr.state.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "ExportWeights")
	}

	flat := make([]float64, 0, len(lr.coef_)*lr.nFeatures_)
	for _, row := range lr.coef_ {
		flat = append(flat, row...)
	}

	return &model.ModelWeights{
		ModelType:       "LogisticRegression",
		Version:         "1.0",
		Coefficients:    flat,
		Intercepts:      append([]float64(nil), lr.intercept_...),
		Classes:         lr.Classes(),
		Hyperparameters: lr.GetParams(),
		IsFitted:        true,
	}, nil
}

// logisticRegressionState is the gob wire form of LogisticRegression.
type logisticRegressionState struct {
	Penalty      string
	C            float64
	FitIntercept bool
	RandomState  int64
	MaxIter      int
	MultiClass   string
	Tol          float64

	Coef      [][]float64
	Intercept []float64
	Classes   []int
	NFeatures int
	NIter     []int
	Fitted    bool
}

// GobEncode implements gob.GobEncoder.
func (lr *LogisticRegression) GobEncode() ([]byte, error) {
	state := logisticRegressionState{
		Penalty:      lr.penalty,
		C:            lr.c,
		FitIntercept: lr.fitIntercept,
		RandomState:  lr.randomState,
		MaxIter:      lr.maxIter,
		MultiClass:   lr.multiClass,
		Tol:          lr.tol,
		Coef:         lr.coef_,
		Intercept:    lr.intercept_,
		Classes:      lr.classes_,
		NFeatures:    lr.nFeatures_,
		NIter:        lr.nIter_,
		Fitted:       lr.state.IsFitted(),
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return nil, errors.Wrap(err, "linear: failed to encode LogisticRegression")
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (lr *LogisticRegression) GobDecode(data []byte) error {
	var state logisticRegressionState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return errors.Wrap(err, "linear: failed to decode LogisticRegression")
	}

	lr.penalty = state.Penalty
	lr.c = state.C
	lr.fitIntercept = state.FitIntercept
	lr.randomState = state.RandomState
	lr.maxIter = state.MaxIter
	lr.multiClass = state.MultiClass
	lr.tol = state.Tol
	lr.coef_ = state.Coef
	lr.intercept_ = state.Intercept
	lr.classes_ = state.Classes
	lr.nClasses_ = len(state.Classes)
	lr.nFeatures_ = state.NFeatures
	lr.nIter_ = state.NIter

	lr.state = model.NewStateManager()
	if state.Fitted {
		lr.state.SetFitted()
	}
	if lr.rand == nil {
		if lr.randomState >= 0 {
			lr.rand = rand.New(rand.NewSource(lr.randomState))
		} else {
			lr.rand = rand.New(rand.NewSource(rand.Int63()))
		}
	}
	return nil
}

// Save persists the fitted model to path in gob format.
func (lr *LogisticRegression) Save(path string) error {
	if !lr.state.IsFitted() {
		return errors.NewNotFittedError("LogisticRegression", "Save")
	}
	return model.SaveModel(lr, path)
}

// Load restores a model previously written with Save.
func (lr *LogisticRegression) Load(path string) error {
	return model.LoadModel(lr, path)
}

// sigmoid computes the logistic function.
func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + errors.StabilizeExp(-z))
}
