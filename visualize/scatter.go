package visualize

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/classigo/pkg/errors"
)

// ScatterPlot draws two feature columns of X against each other, one
// colored point set per class label in y, and saves the figure to path.
// Useful for a first look at class separability.
func ScatterPlot(X mat.Matrix, y *mat.VecDense, xFeature, yFeature int, title, path string) error {
	nSamples, nFeatures := X.Dims()
	if nSamples == 0 {
		return errors.NewValueError("visualize.ScatterPlot", "empty matrix")
	}
	if y == nil || y.Len() != nSamples {
		return errors.NewDimensionError("visualize.ScatterPlot", nSamples, vecLen(y), 0)
	}
	if xFeature < 0 || xFeature >= nFeatures || yFeature < 0 || yFeature >= nFeatures {
		return errors.NewValueError("visualize.ScatterPlot",
			fmt.Sprintf("feature indices (%d, %d) out of range for %d features", xFeature, yFeature, nFeatures))
	}

	// Group points by class, preserving first-seen order of labels.
	groups := make(map[float64]plotter.XYs)
	var order []float64
	for i := 0; i < nSamples; i++ {
		label := y.AtVec(i)
		if _, seen := groups[label]; !seen {
			order = append(order, label)
		}
		groups[label] = append(groups[label], plotter.XY{
			X: X.At(i, xFeature),
			Y: X.At(i, yFeature),
		})
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = fmt.Sprintf("feature %d", xFeature)
	p.Y.Label.Text = fmt.Sprintf("feature %d", yFeature)
	p.Add(plotter.NewGrid())

	for i, label := range order {
		s, err := plotter.NewScatter(groups[label])
		if err != nil {
			return errors.Wrap(err, "visualize: failed to build scatter")
		}
		s.GlyphStyle.Color = plotutil.Color(i)
		s.GlyphStyle.Shape = plotutil.Shape(i)
		p.Add(s)
		p.Legend.Add(fmt.Sprintf("class %v", label), s)
	}

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "visualize: failed to save scatter plot to %s", path)
	}
	return nil
}

func vecLen(v *mat.VecDense) int {
	if v == nil {
		return 0
	}
	return v.Len()
}
