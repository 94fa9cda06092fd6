// Package pipeline chains preprocessing transformers with a final
// classifier so the whole workflow can be fitted, applied, and persisted
// as a single estimator.
package pipeline

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/classigo/core/model"
	"github.com/YuminosukeSato/classigo/pkg/errors"
)

// Step is a named transformation stage in a Pipeline.
type Step struct {
	Name        string
	Transformer model.Transformer
}

// NamedStep is a convenience constructor for Step.
func NamedStep(name string, t model.Transformer) Step {
	return Step{Name: name, Transformer: t}
}

// Pipeline applies its steps in order and delegates prediction to the
// final estimator. It satisfies model.Classifier, so a fitted pipeline
// can be used anywhere a plain classifier can, including cross-validation
// and gob persistence.
//
// Custom transformer or estimator types used in a persisted pipeline must
// be registered with encoding/gob; the types in preprocessing, linear and
// neighbors register themselves.
type Pipeline struct {
	model.BaseEstimator

	Steps     []Step
	Estimator model.Classifier
}

// New creates a pipeline ending in estimator, with the given transformer
// steps applied in order before it.
func New(estimator model.Classifier, steps ...Step) *Pipeline {
	return &Pipeline{
		Steps:     steps,
		Estimator: estimator,
	}
}

func (p *Pipeline) validate() error {
	if p.Estimator == nil {
		return errors.NewValueError("Pipeline", "final estimator is nil")
	}
	seen := make(map[string]bool, len(p.Steps))
	for i, step := range p.Steps {
		if step.Transformer == nil {
			return errors.NewValueError("Pipeline",
				fmt.Sprintf("step %d (%q) has a nil transformer", i, step.Name))
		}
		if step.Name == "" {
			return errors.NewValueError("Pipeline", fmt.Sprintf("step %d has no name", i))
		}
		if seen[step.Name] {
			return errors.NewValueError("Pipeline",
				fmt.Sprintf("duplicate step name %q", step.Name))
		}
		seen[step.Name] = true
	}
	return nil
}

// Fit fits each step on the (progressively transformed) training data and
// then fits the final estimator.
func (p *Pipeline) Fit(X, y mat.Matrix) error {
	if err := p.validate(); err != nil {
		return err
	}

	current := X
	for _, step := range p.Steps {
		var transformed mat.Matrix
		// Transformers may hit gonum shape panics on malformed input;
		// surface those as errors instead of crashing the pipeline.
		err := errors.SafeExecute("Pipeline.Fit", func() error {
			var ferr error
			transformed, ferr = step.Transformer.FitTransform(current)
			return ferr
		})
		if err != nil {
			return errors.Wrapf(err, "pipeline: step %q failed to fit", step.Name)
		}
		current = transformed
	}

	if err := errors.SafeExecute("Pipeline.Fit", func() error {
		return p.Estimator.Fit(current, y)
	}); err != nil {
		return errors.Wrap(err, "pipeline: final estimator failed to fit")
	}

	p.SetFitted()
	return nil
}

// transform runs X through the fitted steps without refitting them.
func (p *Pipeline) transform(X mat.Matrix) (mat.Matrix, error) {
	current := X
	for _, step := range p.Steps {
		transformed, err := step.Transformer.Transform(current)
		if err != nil {
			return nil, errors.Wrapf(err, "pipeline: step %q failed to transform", step.Name)
		}
		current = transformed
	}
	return current, nil
}

// Predict transforms X through the steps and predicts with the estimator.
func (p *Pipeline) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("Pipeline", "Predict")
	}
	transformed, err := p.transform(X)
	if err != nil {
		return nil, err
	}
	return p.Estimator.Predict(transformed)
}

// PredictProba transforms X and returns the estimator's class probabilities.
func (p *Pipeline) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("Pipeline", "PredictProba")
	}
	transformed, err := p.transform(X)
	if err != nil {
		return nil, err
	}
	return p.Estimator.PredictProba(transformed)
}

// Score transforms X and returns the estimator's score on (X, y).
func (p *Pipeline) Score(X, y mat.Matrix) (float64, error) {
	if !p.IsFitted() {
		return 0, errors.NewNotFittedError("Pipeline", "Score")
	}
	transformed, err := p.transform(X)
	if err != nil {
		return 0, err
	}
	return p.Estimator.Score(transformed, y)
}

// Classes returns the class labels of the final estimator.
func (p *Pipeline) Classes() []int {
	return p.Estimator.Classes()
}

// GetStep returns the transformer registered under name.
func (p *Pipeline) GetStep(name string) (model.Transformer, bool) {
	for _, step := range p.Steps {
		if step.Name == name {
			return step.Transformer, true
		}
	}
	return nil, false
}

// Save persists the fitted pipeline, steps and estimator included, to path.
func (p *Pipeline) Save(path string) error {
	if !p.IsFitted() {
		return errors.NewNotFittedError("Pipeline", "Save")
	}
	return model.SaveModel(p, path)
}

// Load restores a pipeline previously written with Save.
func (p *Pipeline) Load(path string) error {
	return model.LoadModel(p, path)
}

// String lists the pipeline's steps and final estimator.
func (p *Pipeline) String() string {
	var b strings.Builder
	b.WriteString("Pipeline(")
	for _, step := range p.Steps {
		fmt.Fprintf(&b, "%s -> ", step.Name)
	}
	fmt.Fprintf(&b, "%v)", p.Estimator)
	return b.String()
}
