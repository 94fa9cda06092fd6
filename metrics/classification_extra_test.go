package metrics

import (
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/classigo/pkg/errors"
)

func TestAccuracyMatrix(t *testing.T) {
	yTrue := mat.NewDense(5, 1, []float64{0, 1, 2, 1, 0})
	yPred := mat.NewDense(5, 1, []float64{0, 1, 1, 1, 0})

	got, err := AccuracyMatrix(yTrue, yPred)
	if err != nil {
		t.Fatalf("AccuracyMatrix() unexpected error: %v", err)
	}
	if math.Abs(got-0.8) > 1e-9 {
		t.Errorf("AccuracyMatrix() = %v, want 0.8", got)
	}

	if _, err := AccuracyMatrix(nil, yPred); err == nil {
		t.Error("AccuracyMatrix() with a nil matrix should fail")
	}
}

func TestPrecisionRecallF1(t *testing.T) {
	// pos=1: tp=2, fp=1, fn=1.
	yTrue := mat.NewVecDense(5, []float64{0, 0, 1, 1, 1})
	yPred := mat.NewVecDense(5, []float64{0, 1, 1, 1, 0})

	tests := []struct {
		name string
		fn   func(yTrue, yPred *mat.VecDense, posLabel float64) (float64, error)
		want float64
	}{
		{name: "precision", fn: Precision, want: 2.0 / 3.0},
		{name: "recall", fn: Recall, want: 2.0 / 3.0},
		{name: "f1", fn: F1Score, want: 2.0 / 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(yTrue, yPred, 1)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPrecisionZeroDivisionWarns(t *testing.T) {
	var captured error
	errors.SetWarningHandler(func(w error) { captured = w })
	defer errors.SetWarningHandler(func(w error) {})

	// Class 1 is never predicted, so precision for it is undefined.
	yTrue := mat.NewVecDense(3, []float64{1, 1, 0})
	yPred := mat.NewVecDense(3, []float64{0, 0, 0})

	got, err := Precision(yTrue, yPred, 1)
	if err != nil {
		t.Fatalf("Precision() unexpected error: %v", err)
	}
	if got != 0 {
		t.Errorf("Precision() = %v, want 0 for an undefined metric", got)
	}

	var warning *errors.UndefinedMetricWarning
	if !errors.As(captured, &warning) {
		t.Errorf("expected an UndefinedMetricWarning, got %v", captured)
	}
}

func TestMulticlassAverages(t *testing.T) {
	// Per class: 0 -> p=2/3 r=1; 1 -> p=0 r=0; 2 -> p=1/2 r=1/2.
	yTrue := mat.NewVecDense(6, []float64{0, 1, 2, 0, 1, 2})
	yPred := mat.NewVecDense(6, []float64{0, 2, 1, 0, 0, 2})

	errors.SetWarningHandler(func(w error) {})
	defer errors.SetWarningHandler(func(w error) {})

	tests := []struct {
		name    string
		fn      func(yTrue, yPred *mat.VecDense, average string) (float64, error)
		average string
		want    float64
		wantErr bool
	}{
		{name: "macro precision", fn: PrecisionScore, average: "macro", want: 7.0 / 18.0},
		{name: "micro precision equals accuracy", fn: PrecisionScore, average: "micro", want: 0.5},
		{name: "weighted precision", fn: PrecisionScore, average: "weighted", want: 7.0 / 18.0},
		{name: "macro recall", fn: RecallScore, average: "macro", want: 0.5},
		{name: "micro f1", fn: F1ScoreMulticlass, average: "micro", want: 0.5},
		{name: "invalid average", fn: PrecisionScore, average: "samples", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(yTrue, yPred, tt.average)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfusionMatrix(t *testing.T) {
	yTrue := mat.NewVecDense(5, []float64{0, 0, 1, 1, 2})
	yPred := mat.NewVecDense(5, []float64{0, 1, 1, 1, 2})

	cm, labels, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		t.Fatalf("ConfusionMatrix() unexpected error: %v", err)
	}

	wantLabels := []float64{0, 1, 2}
	if len(labels) != 3 {
		t.Fatalf("labels = %v, want %v", labels, wantLabels)
	}
	for i, want := range wantLabels {
		if labels[i] != want {
			t.Errorf("labels[%d] = %v, want %v", i, labels[i], want)
		}
	}

	want := mat.NewDense(3, 3, []float64{
		1, 1, 0,
		0, 2, 0,
		0, 0, 1,
	})
	if !mat.Equal(cm, want) {
		t.Errorf("ConfusionMatrix() = %v, want %v", mat.Formatted(cm), mat.Formatted(want))
	}

	// Rows sum to the per-class support.
	for i := 0; i < 3; i++ {
		sum := 0.0
		for j := 0; j < 3; j++ {
			sum += cm.At(i, j)
		}
		wantSupport := []float64{2, 2, 1}[i]
		if sum != wantSupport {
			t.Errorf("row %d sums to %v, want %v", i, sum, wantSupport)
		}
	}
}

func TestROCCurve(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{0, 0, 1, 1})
	scores := mat.NewVecDense(4, []float64{0.1, 0.4, 0.35, 0.8})

	fpr, tpr, thresholds, err := ROCCurve(yTrue, scores)
	if err != nil {
		t.Fatalf("ROCCurve() unexpected error: %v", err)
	}

	wantFPR := []float64{0, 0, 0.5, 0.5, 1}
	wantTPR := []float64{0, 0.5, 0.5, 1, 1}

	if len(fpr) != len(wantFPR) || len(tpr) != len(wantTPR) || len(thresholds) != len(wantFPR) {
		t.Fatalf("ROCCurve() produced %d points, want %d", len(fpr), len(wantFPR))
	}
	if !math.IsInf(thresholds[0], 1) {
		t.Errorf("first threshold = %v, want +Inf", thresholds[0])
	}
	for i := range wantFPR {
		if math.Abs(fpr[i]-wantFPR[i]) > 1e-9 {
			t.Errorf("fpr[%d] = %v, want %v", i, fpr[i], wantFPR[i])
		}
		if math.Abs(tpr[i]-wantTPR[i]) > 1e-9 {
			t.Errorf("tpr[%d] = %v, want %v", i, tpr[i], wantTPR[i])
		}
	}

	// The curve starts at (0,0) and ends at (1,1).
	if fpr[0] != 0 || tpr[0] != 0 {
		t.Error("ROC curve should start at (0, 0)")
	}
	if fpr[len(fpr)-1] != 1 || tpr[len(tpr)-1] != 1 {
		t.Error("ROC curve should end at (1, 1)")
	}
}

func TestROCCurveMatchesAUC(t *testing.T) {
	yTrue := mat.NewVecDense(6, []float64{0, 0, 0, 1, 1, 1})
	scores := mat.NewVecDense(6, []float64{0.2, 0.4, 0.6, 0.3, 0.7, 0.9})

	fpr, tpr, _, err := ROCCurve(yTrue, scores)
	if err != nil {
		t.Fatal(err)
	}

	// Trapezoidal integral of the curve equals the rank-based AUC.
	area := 0.0
	for i := 1; i < len(fpr); i++ {
		area += (fpr[i] - fpr[i-1]) * (tpr[i] + tpr[i-1]) / 2
	}

	auc, err := AUC(yTrue, scores)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(area-auc) > 1e-9 {
		t.Errorf("ROC curve area = %v, AUC = %v; expected them to match", area, auc)
	}
}

func TestClassificationReport(t *testing.T) {
	yTrue := mat.NewVecDense(5, []float64{0, 0, 1, 1, 2})
	yPred := mat.NewVecDense(5, []float64{0, 1, 1, 1, 2})

	report, err := ClassificationReport(yTrue, yPred)
	if err != nil {
		t.Fatalf("ClassificationReport() unexpected error: %v", err)
	}

	for _, want := range []string{"precision", "recall", "f1-score", "support", "accuracy", "macro avg", "weighted avg"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}

	if _, err := ClassificationReport(nil, yPred); err == nil {
		t.Error("ClassificationReport() with nil input should fail")
	}
}

func TestAUCSingleClassWarns(t *testing.T) {
	var captured error
	errors.SetWarningHandler(func(w error) { captured = w })
	defer errors.SetWarningHandler(func(w error) {})

	yTrue := mat.NewVecDense(3, []float64{1, 1, 1})
	scores := mat.NewVecDense(3, []float64{0.2, 0.5, 0.8})

	got, err := AUC(yTrue, scores)
	if err != nil {
		t.Fatalf("AUC() unexpected error: %v", err)
	}
	if got != 0.5 {
		t.Errorf("AUC() = %v, want 0.5 for a single-class input", got)
	}

	var warning *errors.UndefinedMetricWarning
	if !errors.As(captured, &warning) {
		t.Errorf("expected an UndefinedMetricWarning, got %v", captured)
	}
}
