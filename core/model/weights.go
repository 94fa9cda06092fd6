package model

import (
	"encoding/json"
	"fmt"
)

// ModelWeights is a JSON-serializable snapshot of a fitted linear model,
// intended for inspection and interop rather than exact persistence
// (use SaveModel/LoadModel for that).
type ModelWeights struct {
	// ModelType names the estimator, e.g. "LogisticRegression".
	ModelType string `json:"model_type"`

	// Version guards format compatibility.
	Version string `json:"version"`

	// Coefficients holds the flattened weight matrix, row per class for
	// multiclass models.
	Coefficients []float64 `json:"coefficients"`

	// Intercepts holds one intercept per class (a single entry for binary).
	Intercepts []float64 `json:"intercepts"`

	// Classes lists the class labels in column order of PredictProba.
	Classes []int `json:"classes,omitempty"`

	// Hyperparameters mirrors GetParams() at export time.
	Hyperparameters map[string]interface{} `json:"hyperparameters,omitempty"`

	IsFitted bool `json:"is_fitted"`
}

// ToJSON serializes the weights with indentation.
func (mw *ModelWeights) ToJSON() ([]byte, error) {
	return json.MarshalIndent(mw, "", "  ")
}

// FromJSON deserializes weights previously produced by ToJSON.
func (mw *ModelWeights) FromJSON(data []byte) error {
	return json.Unmarshal(data, mw)
}

// Clone はModelWeightsのディープコピーを作成
func (mw *ModelWeights) Clone() *ModelWeights {
	clone := &ModelWeights{
		ModelType:       mw.ModelType,
		Version:         mw.Version,
		IsFitted:        mw.IsFitted,
		Coefficients:    make([]float64, len(mw.Coefficients)),
		Intercepts:      make([]float64, len(mw.Intercepts)),
		Classes:         make([]int, len(mw.Classes)),
		Hyperparameters: make(map[string]interface{}),
	}

	copy(clone.Coefficients, mw.Coefficients)
	copy(clone.Intercepts, mw.Intercepts)
	copy(clone.Classes, mw.Classes)

	for k, v := range mw.Hyperparameters {
		clone.Hyperparameters[k] = v
	}

	return clone
}

// Validate checks internal consistency of the snapshot.
func (mw *ModelWeights) Validate() error {
	if mw.ModelType == "" {
		return fmt.Errorf("model_type is required")
	}

	if mw.Version == "" {
		return fmt.Errorf("version is required")
	}

	if !mw.IsFitted && len(mw.Coefficients) > 0 {
		return fmt.Errorf("unfitted model should not have coefficients")
	}

	if mw.IsFitted && len(mw.Coefficients) == 0 {
		return fmt.Errorf("fitted model must have coefficients")
	}

	return nil
}
