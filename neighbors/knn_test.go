package neighbors

import (
	"math"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func clusteredData() (*mat.Dense, *mat.Dense) {
	// Class 0 around (1, 1), class 1 around (5, 5), class 2 around (9, 1).
	X := mat.NewDense(9, 2, []float64{
		1.0, 1.0,
		1.2, 0.8,
		0.8, 1.2,
		5.0, 5.0,
		5.2, 4.8,
		4.8, 5.2,
		9.0, 1.0,
		9.2, 0.8,
		8.8, 1.2,
	})
	y := mat.NewDense(9, 1, []float64{
		0, 0, 0,
		1, 1, 1,
		2, 2, 2,
	})
	return X, y
}

func TestKNeighborsClassifier_FitPredict(t *testing.T) {
	X, y := clusteredData()

	knn := NewKNeighborsClassifier(3)
	if err := knn.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	predictions, err := knn.Predict(X)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}

	for i := 0; i < 9; i++ {
		if predictions.At(i, 0) != y.At(i, 0) {
			t.Errorf("Sample %d: expected %v, got %v", i, y.At(i, 0), predictions.At(i, 0))
		}
	}

	XTest := mat.NewDense(3, 2, []float64{
		1.1, 1.1, // near class 0
		5.1, 5.1, // near class 1
		9.1, 1.1, // near class 2
	})
	testPreds, err := knn.Predict(XTest)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []float64{0, 1, 2} {
		if testPreds.At(i, 0) != want {
			t.Errorf("Test point %d: expected class %v, got %v", i, want, testPreds.At(i, 0))
		}
	}
}

func TestKNeighborsClassifier_PredictProba(t *testing.T) {
	X, y := clusteredData()

	knn := NewKNeighborsClassifier(3)
	if err := knn.Fit(X, y); err != nil {
		t.Fatal(err)
	}

	probas, err := knn.PredictProba(X)
	if err != nil {
		t.Fatalf("Failed to predict probabilities: %v", err)
	}

	rows, cols := probas.Dims()
	if rows != 9 || cols != 3 {
		t.Fatalf("Expected probas shape (9, 3), got (%d, %d)", rows, cols)
	}

	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			prob := probas.At(i, j)
			if prob < 0 || prob > 1 {
				t.Errorf("Invalid probability at (%d, %d): %v", i, j, prob)
			}
			sum += prob
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("Probabilities for sample %d don't sum to 1: %v", i, sum)
		}
	}

	// Every training point's own cluster supplies all 3 nearest neighbors,
	// so its class probability is 1.
	for i := 0; i < rows; i++ {
		trueClass := int(y.At(i, 0))
		if probas.At(i, trueClass) != 1.0 {
			t.Errorf("Sample %d: expected probability 1 for class %d, got %v",
				i, trueClass, probas.At(i, trueClass))
		}
	}
}

func TestKNeighborsClassifier_DistanceWeights(t *testing.T) {
	// 3 votes for class 0 at distance ~4, 2 votes for class 1 adjacent to
	// the query. Uniform voting picks class 0; distance weighting picks 1.
	X := mat.NewDense(5, 1, []float64{4.0, 4.2, 4.4, 0.1, 0.2})
	y := mat.NewDense(5, 1, []float64{0, 0, 0, 1, 1})
	query := mat.NewDense(1, 1, []float64{0.0})

	uniform := NewKNeighborsClassifier(5)
	if err := uniform.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	pred, err := uniform.Predict(query)
	if err != nil {
		t.Fatal(err)
	}
	if pred.At(0, 0) != 0 {
		t.Errorf("Uniform voting: expected class 0, got %v", pred.At(0, 0))
	}

	weighted := NewKNeighborsClassifier(5, WithKNNWeights("distance"))
	if err := weighted.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	pred, err = weighted.Predict(query)
	if err != nil {
		t.Fatal(err)
	}
	if pred.At(0, 0) != 1 {
		t.Errorf("Distance voting: expected class 1, got %v", pred.At(0, 0))
	}
}

func TestKNeighborsClassifier_Score(t *testing.T) {
	X, y := clusteredData()

	knn := NewKNeighborsClassifier(3)
	if err := knn.Fit(X, y); err != nil {
		t.Fatal(err)
	}

	score, err := knn.Score(X, y)
	if err != nil {
		t.Fatalf("Failed to score: %v", err)
	}
	if score != 1.0 {
		t.Errorf("Expected perfect score on well separated clusters, got %v", score)
	}
}

func TestKNeighborsClassifier_Errors(t *testing.T) {
	X, y := clusteredData()

	tests := []struct {
		name string
		knn  *KNeighborsClassifier
	}{
		{name: "k larger than training set", knn: NewKNeighborsClassifier(100)},
		{name: "invalid weights", knn: NewKNeighborsClassifier(3, WithKNNWeights("gaussian"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.knn.Fit(X, y); err == nil {
				t.Error("Fit() should fail")
			}
		})
	}

	unfitted := NewKNeighborsClassifier(3)
	if _, err := unfitted.Predict(X); err == nil {
		t.Error("Predict() before Fit should fail")
	}

	fitted := NewKNeighborsClassifier(3)
	if err := fitted.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	if _, err := fitted.Predict(mat.NewDense(1, 5, nil)); err == nil {
		t.Error("Predict() with a feature count mismatch should fail")
	}
}

func TestKNeighborsClassifier_SaveLoad(t *testing.T) {
	X, y := clusteredData()

	knn := NewKNeighborsClassifier(3)
	if err := knn.Fit(X, y); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "knn.gob")
	if err := knn.Save(path); err != nil {
		t.Fatalf("Failed to save model: %v", err)
	}

	restored := NewKNeighborsClassifier(1)
	if err := restored.Load(path); err != nil {
		t.Fatalf("Failed to load model: %v", err)
	}

	if restored.NNeighbors != 3 {
		t.Errorf("Loaded model has n_neighbors=%d, want 3", restored.NNeighbors)
	}

	origPreds, err := knn.Predict(X)
	if err != nil {
		t.Fatal(err)
	}
	loadedPreds, err := restored.Predict(X)
	if err != nil {
		t.Fatalf("Loaded model failed to predict: %v", err)
	}
	if !mat.Equal(origPreds, loadedPreds) {
		t.Error("Loaded model predictions differ from the original")
	}
}
