package visualize

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/classigo/pkg/errors"
)

// confusionGrid adapts a confusion matrix to plotter.GridXYZ. Row 0 of
// the matrix (the first true label) is drawn at the top of the heatmap.
type confusionGrid struct {
	cm *mat.Dense
}

func (g confusionGrid) Dims() (c, r int) {
	rows, cols := g.cm.Dims()
	return cols, rows
}

func (g confusionGrid) Z(c, r int) float64 {
	rows, _ := g.cm.Dims()
	return g.cm.At(rows-1-r, c)
}

func (g confusionGrid) X(c int) float64 { return float64(c) }
func (g confusionGrid) Y(r int) float64 { return float64(r) }

// ConfusionMatrixHeatmap renders a confusion matrix (as produced by
// metrics.ConfusionMatrix) as a heatmap with class labels on both axes
// and saves it to path.
func ConfusionMatrixHeatmap(cm *mat.Dense, labels []float64, path string) error {
	if cm == nil {
		return errors.NewValueError("visualize.ConfusionMatrixHeatmap", "nil matrix")
	}
	rows, cols := cm.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewValueError("visualize.ConfusionMatrixHeatmap", "empty matrix")
	}
	if rows != cols {
		return errors.NewDimensionError("visualize.ConfusionMatrixHeatmap", rows, cols, 1)
	}
	if len(labels) != rows {
		return errors.NewDimensionError("visualize.ConfusionMatrixHeatmap", rows, len(labels), 0)
	}

	heatmap := plotter.NewHeatMap(confusionGrid{cm: cm}, palette.Heat(12, 1))

	p := plot.New()
	p.Title.Text = "Confusion matrix"
	p.X.Label.Text = "Predicted label"
	p.Y.Label.Text = "True label"

	// One tick per class on both axes. The Y axis is flipped to match the
	// conventional top-to-bottom reading order of confusion matrices.
	xTicks := make([]plot.Tick, rows)
	yTicks := make([]plot.Tick, rows)
	for i := 0; i < rows; i++ {
		name := fmt.Sprintf("%v", labels[i])
		xTicks[i] = plot.Tick{Value: float64(i), Label: name}
		yTicks[i] = plot.Tick{Value: float64(rows - 1 - i), Label: name}
	}
	p.X.Tick.Marker = plot.ConstantTicks(xTicks)
	p.Y.Tick.Marker = plot.ConstantTicks(yTicks)

	p.Add(heatmap)

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "visualize: failed to save heatmap to %s", path)
	}
	return nil
}
