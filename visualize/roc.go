// Package visualize renders evaluation plots (ROC curves, feature
// scatter plots, confusion matrix heatmaps) to image files.
package visualize

import (
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/classigo/metrics"
	"github.com/YuminosukeSato/classigo/pkg/errors"
)

// ROCPlot computes the ROC curve for binary labels and scores and saves
// it to path (the extension selects the format, e.g. .png or .svg). The
// chance diagonal is drawn dashed, and the AUC appears in the title.
func ROCPlot(yTrue, scores *mat.VecDense, path string) error {
	fpr, tpr, _, err := metrics.ROCCurve(yTrue, scores)
	if err != nil {
		return errors.Wrap(err, "visualize: failed to compute ROC curve")
	}

	auc, err := metrics.AUC(yTrue, scores)
	if err != nil {
		return errors.Wrap(err, "visualize: failed to compute AUC")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("ROC curve (AUC = %.3f)", auc)
	p.X.Label.Text = "False positive rate"
	p.Y.Label.Text = "True positive rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(fpr))
	for i := range fpr {
		pts[i].X = fpr[i]
		pts[i].Y = tpr[i]
	}
	curve, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrap(err, "visualize: failed to build ROC line")
	}
	curve.LineStyle.Width = vg.Points(1.5)
	curve.LineStyle.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}

	diagonal, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return errors.Wrap(err, "visualize: failed to build reference line")
	}
	diagonal.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	diagonal.LineStyle.Color = color.Gray{Y: 128}

	p.Add(curve, diagonal)
	p.Legend.Add("model", curve)
	p.Legend.Add("chance", diagonal)
	p.Legend.Top = false
	p.Legend.Left = false

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "visualize: failed to save ROC plot to %s", path)
	}
	return nil
}
