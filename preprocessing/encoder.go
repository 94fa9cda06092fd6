package preprocessing

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/classigo/core/model"
	"github.com/YuminosukeSato/classigo/pkg/errors"
)

// LabelEncoder maps string class labels to integer codes 0..k-1 and back.
// Codes are assigned in lexicographic order of the distinct labels, so the
// encoding is stable across runs for the same label set.
type LabelEncoder struct {
	model.BaseEstimator

	// Classes holds the distinct labels in encoding order; Classes[i]
	// decodes code i.
	Classes []string

	// codes is a lookup cache rebuilt from Classes on demand, so an
	// encoder restored from gob stays usable.
	codes map[string]int
}

func (le *LabelEncoder) code(label string) (int, bool) {
	if le.codes == nil && len(le.Classes) > 0 {
		le.codes = make(map[string]int, len(le.Classes))
		for i, c := range le.Classes {
			le.codes[c] = i
		}
	}
	code, ok := le.codes[label]
	return code, ok
}

// NewLabelEncoder creates an unfitted LabelEncoder.
func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{}
}

// Fit learns the distinct labels from y.
func (le *LabelEncoder) Fit(y []string) error {
	if len(y) == 0 {
		return errors.NewModelError("LabelEncoder.Fit", "empty labels", errors.ErrEmptyData)
	}

	seen := make(map[string]bool)
	for _, label := range y {
		seen[label] = true
	}

	le.Classes = make([]string, 0, len(seen))
	for label := range seen {
		le.Classes = append(le.Classes, label)
	}
	sort.Strings(le.Classes)

	le.codes = make(map[string]int, len(le.Classes))
	for i, label := range le.Classes {
		le.codes[label] = i
	}

	le.SetFitted()
	return nil
}

// Transform encodes y into a numeric label vector. A label not seen during
// Fit is an error.
func (le *LabelEncoder) Transform(y []string) (*mat.VecDense, error) {
	if !le.IsFitted() {
		return nil, errors.NewNotFittedError("LabelEncoder", "Transform")
	}
	if len(y) == 0 {
		return nil, errors.NewModelError("LabelEncoder.Transform", "empty labels", errors.ErrEmptyData)
	}

	encoded := make([]float64, len(y))
	for i, label := range y {
		code, ok := le.code(label)
		if !ok {
			return nil, errors.NewValueError("LabelEncoder.Transform",
				fmt.Sprintf("unknown label %q at index %d", label, i))
		}
		encoded[i] = float64(code)
	}

	return mat.NewVecDense(len(encoded), encoded), nil
}

// FitTransform fits on y and returns its encoding.
func (le *LabelEncoder) FitTransform(y []string) (*mat.VecDense, error) {
	if err := le.Fit(y); err != nil {
		return nil, err
	}
	return le.Transform(y)
}

// InverseTransform decodes a numeric label vector back to the original
// string labels.
func (le *LabelEncoder) InverseTransform(y *mat.VecDense) ([]string, error) {
	if !le.IsFitted() {
		return nil, errors.NewNotFittedError("LabelEncoder", "InverseTransform")
	}

	labels := make([]string, y.Len())
	for i := 0; i < y.Len(); i++ {
		code := int(y.AtVec(i))
		if code < 0 || code >= len(le.Classes) || float64(code) != y.AtVec(i) {
			return nil, errors.NewValueError("LabelEncoder.InverseTransform",
				fmt.Sprintf("code %v at index %d is not a known class code", y.AtVec(i), i))
		}
		labels[i] = le.Classes[code]
	}

	return labels, nil
}

// String returns a printable representation of the encoder.
func (le *LabelEncoder) String() string {
	if !le.IsFitted() {
		return "LabelEncoder()"
	}
	return fmt.Sprintf("LabelEncoder(n_classes=%d)", len(le.Classes))
}

// OneHotEncoder expands a numeric label vector into an indicator matrix
// with one column per distinct class.
type OneHotEncoder struct {
	model.BaseEstimator

	// Classes holds the distinct label values in column order.
	Classes []float64

	// HandleUnknown controls behavior for labels unseen during Fit:
	// "error" (default) rejects them, "ignore" emits an all-zero row.
	HandleUnknown string

	// columns is a lookup cache rebuilt from Classes on demand.
	columns map[float64]int
}

func (ohe *OneHotEncoder) column(label float64) (int, bool) {
	if ohe.columns == nil && len(ohe.Classes) > 0 {
		ohe.columns = make(map[float64]int, len(ohe.Classes))
		for i, c := range ohe.Classes {
			ohe.columns[c] = i
		}
	}
	col, ok := ohe.columns[label]
	return col, ok
}

// NewOneHotEncoder creates an encoder that rejects unknown labels.
func NewOneHotEncoder() *OneHotEncoder {
	return &OneHotEncoder{HandleUnknown: "error"}
}

// NewOneHotEncoderIgnoreUnknown creates an encoder that maps unknown labels
// to an all-zero row instead of failing.
func NewOneHotEncoderIgnoreUnknown() *OneHotEncoder {
	return &OneHotEncoder{HandleUnknown: "ignore"}
}

// Fit learns the distinct label values from y.
func (ohe *OneHotEncoder) Fit(y *mat.VecDense) error {
	if y == nil || y.Len() == 0 {
		return errors.NewModelError("OneHotEncoder.Fit", "empty labels", errors.ErrEmptyData)
	}

	seen := make(map[float64]bool)
	for i := 0; i < y.Len(); i++ {
		seen[y.AtVec(i)] = true
	}

	ohe.Classes = make([]float64, 0, len(seen))
	for label := range seen {
		ohe.Classes = append(ohe.Classes, label)
	}
	sort.Float64s(ohe.Classes)

	ohe.columns = make(map[float64]int, len(ohe.Classes))
	for i, label := range ohe.Classes {
		ohe.columns[label] = i
	}

	ohe.SetFitted()
	return nil
}

// Transform encodes y into an n×k indicator matrix.
func (ohe *OneHotEncoder) Transform(y *mat.VecDense) (*mat.Dense, error) {
	if !ohe.IsFitted() {
		return nil, errors.NewNotFittedError("OneHotEncoder", "Transform")
	}
	if y == nil || y.Len() == 0 {
		return nil, errors.NewModelError("OneHotEncoder.Transform", "empty labels", errors.ErrEmptyData)
	}

	result := mat.NewDense(y.Len(), len(ohe.Classes), nil)
	for i := 0; i < y.Len(); i++ {
		col, ok := ohe.column(y.AtVec(i))
		if !ok {
			if ohe.HandleUnknown == "ignore" {
				continue
			}
			return nil, errors.NewValueError("OneHotEncoder.Transform",
				fmt.Sprintf("unknown label %v at index %d", y.AtVec(i), i))
		}
		result.Set(i, col, 1)
	}

	return result, nil
}

// FitTransform fits on y and returns its encoding.
func (ohe *OneHotEncoder) FitTransform(y *mat.VecDense) (*mat.Dense, error) {
	if err := ohe.Fit(y); err != nil {
		return nil, err
	}
	return ohe.Transform(y)
}

// InverseTransform recovers the label vector from an indicator matrix by
// taking the argmax of each row.
func (ohe *OneHotEncoder) InverseTransform(X mat.Matrix) (*mat.VecDense, error) {
	if !ohe.IsFitted() {
		return nil, errors.NewNotFittedError("OneHotEncoder", "InverseTransform")
	}

	r, c := X.Dims()
	if c != len(ohe.Classes) {
		return nil, errors.NewDimensionError("OneHotEncoder.InverseTransform", len(ohe.Classes), c, 1)
	}

	labels := make([]float64, r)
	for i := 0; i < r; i++ {
		best := 0
		for j := 1; j < c; j++ {
			if X.At(i, j) > X.At(i, best) {
				best = j
			}
		}
		labels[i] = ohe.Classes[best]
	}

	return mat.NewVecDense(r, labels), nil
}

// String returns a printable representation of the encoder.
func (ohe *OneHotEncoder) String() string {
	if !ohe.IsFitted() {
		return fmt.Sprintf("OneHotEncoder(handle_unknown=%q)", ohe.HandleUnknown)
	}
	return fmt.Sprintf("OneHotEncoder(handle_unknown=%q, n_classes=%d)",
		ohe.HandleUnknown, len(ohe.Classes))
}
