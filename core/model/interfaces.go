// Package model provides the estimator foundations shared by every
// classifier and transformer in classigo: fitted-state tracking, the
// Fit/Predict/Transform interface contracts, and model persistence.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter is the interface for models that learn from labelled data.
type Fitter interface {
	// Fit trains the model on X (n_samples x n_features) and y (n_samples x 1).
	Fit(X, y mat.Matrix) error
}

// Predictor is the interface for models that predict labels.
type Predictor interface {
	// Predict returns predicted labels as an n_samples x 1 matrix.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer is the interface for models that can compute a score on held-out data.
// For classifiers the score is mean accuracy.
type Scorer interface {
	Score(X, y mat.Matrix) (float64, error)
}

// Classifier combines the interfaces every classification model satisfies.
type Classifier interface {
	Fitter
	Predictor
	Scorer

	// PredictProba returns an n_samples x n_classes matrix of class
	// probability estimates, columns ordered as Classes().
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the sorted unique class labels seen during fitting.
	Classes() []int
}

// Transformer is the interface for data transformations such as scalers
// and encoders.
type Transformer interface {
	// Fit learns the transformation parameters from X.
	Fit(X mat.Matrix) error

	// Transform applies the learned transformation.
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform fits on X and returns the transformed X.
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// InverseTransformer is a Transformer whose mapping can be undone.
type InverseTransformer interface {
	Transformer

	InverseTransform(X mat.Matrix) (mat.Matrix, error)
}

// ParameterGetter is the interface for models that expose their hyperparameters.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// ParameterSetter is the interface for models that allow parameter modification.
type ParameterSetter interface {
	SetParams(params map[string]interface{}) error
}

// Persistable is the interface for models that can be saved and loaded.
type Persistable interface {
	// Save saves the model to a file.
	Save(path string) error

	// Load loads the model from a file.
	Load(path string) error
}
