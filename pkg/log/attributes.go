// Package log defines standard attribute keys for machine learning operations.
//
// Using these keys consistently across packages enables structured log
// analysis and filtering of classification workflows. The keys follow a
// hierarchical naming convention ("model.name", "data.samples").
package log

// Model and operation context.
const (
	// ModelNameKey identifies the type of machine learning model.
	// Examples: "LogisticRegression", "KNeighborsClassifier", "Pipeline"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "fit_transform", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "linear", "preprocessing", "metrics", "dataset"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the model lifecycle.
	// Examples: "training", "inference", "validation", "preprocessing"
	PhaseKey = "ml.phase"
)

// Data shape and characteristics.
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// ClassesKey indicates the number of distinct class labels.
	ClassesKey = "data.classes"

	// SourceKey names the data source, typically a CSV path.
	SourceKey = "data.source"
)

// Performance metrics.
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records classification accuracy, in [0, 1].
	AccuracyKey = "metrics.accuracy"

	// F1Key records the F1 score for evaluation operations.
	F1Key = "metrics.f1"

	// AUCKey records the area under the ROC curve.
	AUCKey = "metrics.auc"

	// LossKey records loss value during training or evaluation.
	LossKey = "metrics.loss"

	// IterationKey records the current iteration during iterative fitting.
	IterationKey = "training.iteration"
)

// Standard attribute value constants for common operations.
const (
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
	OperationScore        = "score"

	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseTesting       = "testing"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"
)
