package metrics

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/classigo/pkg/errors"
)

// logLossEpsilon clips probabilities away from 0 and 1 so log loss stays finite.
const logLossEpsilon = 1e-15

// validatePair checks that both vectors are non-empty and the same length.
func validatePair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yTrue.Len() == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred == nil || yPred.Len() == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yTrue.Len() != yPred.Len() {
		return 0, errors.NewDimensionError(op, yTrue.Len(), yPred.Len(), 0)
	}
	return yTrue.Len(), nil
}

// checkBinaryLabels verifies that every label is exactly 0 or 1.
func checkBinaryLabels(op string, y *mat.VecDense) error {
	for i := 0; i < y.Len(); i++ {
		v := y.AtVec(i)
		if v != 0 && v != 1 {
			return errors.NewValueError(op,
				fmt.Sprintf("labels must be binary (0 or 1), got %v at index %d", v, i))
		}
	}
	return nil
}

// firstColumn extracts column 0 of m as a vector.
func firstColumn(op string, m mat.Matrix) (*mat.VecDense, error) {
	if m == nil {
		return nil, errors.NewValueError(op, "nil matrix")
	}
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v, nil
}

// Accuracy returns the fraction of labels predicted exactly right.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := validatePair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// AccuracyMatrix computes accuracy from n×1 matrices (or the first column
// of wider matrices).
func AccuracyMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	trueVec, err := firstColumn("AccuracyMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	predVec, err := firstColumn("AccuracyMatrix", yPred)
	if err != nil {
		return 0, err
	}
	return Accuracy(trueVec, predVec)
}

// ClassificationError returns the fraction of labels predicted wrong,
// i.e. 1 - Accuracy.
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// AUC computes the area under the ROC curve for binary labels using the
// rank statistic, which handles tied scores by averaging ranks. When yTrue
// contains a single class the metric is undefined: a warning is emitted
// and 0.5 is returned.
func AUC(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := validatePair("AUC", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := checkBinaryLabels("AUC", yTrue); err != nil {
		return 0, err
	}

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = yPred.AtVec(i)
	}
	if err := errors.CheckVector("AUC", scores); err != nil {
		return 0, err
	}

	nPos := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			nPos++
		}
	}
	nNeg := n - nPos

	if nPos == 0 || nNeg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("AUC",
			"y_true contains a single class", 0.5))
		return 0.5, nil
	}

	// Sort indices by score ascending and assign average ranks to ties.
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	sort.Slice(indices, func(a, b int) bool {
		return yPred.AtVec(indices[a]) < yPred.AtVec(indices[b])
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && yPred.AtVec(indices[j]) == yPred.AtVec(indices[i]) {
			j++
		}
		// Ranks are 1-based; tied scores share the average rank.
		avgRank := float64(i+j+1) / 2.0
		for k := i; k < j; k++ {
			ranks[indices[k]] = avgRank
		}
		i = j
	}

	sumPosRanks := 0.0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			sumPosRanks += ranks[i]
		}
	}

	auc := (sumPosRanks - float64(nPos)*float64(nPos+1)/2.0) / (float64(nPos) * float64(nNeg))
	return auc, nil
}

// AUCMatrix computes AUC from n×1 matrices (or the first column of wider
// matrices).
func AUCMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	trueVec, err := firstColumn("AUCMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	predVec, err := firstColumn("AUCMatrix", yPred)
	if err != nil {
		return 0, err
	}
	return AUC(trueVec, predVec)
}

// BinaryLogLoss computes the mean negative log-likelihood of binary labels
// under the predicted probabilities. Probabilities are clipped away from 0
// and 1 so the result stays finite.
func BinaryLogLoss(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := validatePair("BinaryLogLoss", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := checkBinaryLabels("BinaryLogLoss", yTrue); err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		p := errors.ClipValue(yPred.AtVec(i), logLossEpsilon, 1-logLossEpsilon)
		if yTrue.AtVec(i) == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(n), nil
}

// classCounts holds the one-vs-rest confusion counts for a single class.
type classCounts struct {
	tp, fp, fn int
	support    int
}

// countPerClass tallies one-vs-rest counts for each distinct label in
// yTrue or yPred, keyed by label, with the sorted label list returned.
func countPerClass(yTrue, yPred *mat.VecDense) (map[float64]*classCounts, []float64) {
	counts := make(map[float64]*classCounts)
	ensure := func(label float64) *classCounts {
		if counts[label] == nil {
			counts[label] = &classCounts{}
		}
		return counts[label]
	}

	for i := 0; i < yTrue.Len(); i++ {
		t := yTrue.AtVec(i)
		p := yPred.AtVec(i)
		ensure(t).support++
		ensure(p)
		if t == p {
			counts[t].tp++
		} else {
			counts[p].fp++
			counts[t].fn++
		}
	}

	labels := make([]float64, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Float64s(labels)
	return counts, labels
}

// safeRatio computes num/den, emitting an UndefinedMetricWarning and
// returning 0 when the denominator is zero.
func safeRatio(metric string, num, den float64) float64 {
	if den == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning(metric,
			"division by zero, no samples in the denominator", 0))
		return 0
	}
	return num / den
}

// Precision returns tp / (tp + fp) for the given positive label. A
// denominator of zero yields 0 with an UndefinedMetricWarning.
func Precision(yTrue, yPred *mat.VecDense, posLabel float64) (float64, error) {
	n, err := validatePair("Precision", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	tp, fp := 0, 0
	for i := 0; i < n; i++ {
		if yPred.AtVec(i) == posLabel {
			if yTrue.AtVec(i) == posLabel {
				tp++
			} else {
				fp++
			}
		}
	}
	return safeRatio("precision", float64(tp), float64(tp+fp)), nil
}

// Recall returns tp / (tp + fn) for the given positive label. A
// denominator of zero yields 0 with an UndefinedMetricWarning.
func Recall(yTrue, yPred *mat.VecDense, posLabel float64) (float64, error) {
	n, err := validatePair("Recall", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	tp, fn := 0, 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == posLabel {
			if yPred.AtVec(i) == posLabel {
				tp++
			} else {
				fn++
			}
		}
	}
	return safeRatio("recall", float64(tp), float64(tp+fn)), nil
}

// F1Score returns the harmonic mean of precision and recall for the given
// positive label.
func F1Score(yTrue, yPred *mat.VecDense, posLabel float64) (float64, error) {
	p, err := Precision(yTrue, yPred, posLabel)
	if err != nil {
		return 0, err
	}
	r, err := Recall(yTrue, yPred, posLabel)
	if err != nil {
		return 0, err
	}
	if p+r == 0 {
		return 0, nil
	}
	return 2 * p * r / (p + r), nil
}

// averaged computes a multiclass average ("macro", "micro" or "weighted")
// of a per-class metric derived from one-vs-rest counts.
func averaged(op, average string, yTrue, yPred *mat.VecDense,
	perClass func(c *classCounts) float64,
	micro func(tp, denom int) float64) (float64, error) {
	n, err := validatePair(op, yTrue, yPred)
	if err != nil {
		return 0, err
	}

	counts, labels := countPerClass(yTrue, yPred)

	switch average {
	case "macro":
		sum := 0.0
		for _, label := range labels {
			sum += perClass(counts[label])
		}
		return sum / float64(len(labels)), nil
	case "weighted":
		sum := 0.0
		for _, label := range labels {
			sum += perClass(counts[label]) * float64(counts[label].support)
		}
		return sum / float64(n), nil
	case "micro":
		tp := 0
		for _, label := range labels {
			tp += counts[label].tp
		}
		return micro(tp, n), nil
	default:
		return 0, errors.NewValidationError("average",
			`must be "macro", "micro" or "weighted"`, average)
	}
}

// PrecisionScore computes multiclass precision with the given averaging
// strategy: "macro", "micro" or "weighted".
func PrecisionScore(yTrue, yPred *mat.VecDense, average string) (float64, error) {
	return averaged("PrecisionScore", average, yTrue, yPred,
		func(c *classCounts) float64 {
			return safeRatio("precision", float64(c.tp), float64(c.tp+c.fp))
		},
		func(tp, n int) float64 {
			// Micro precision over single-label predictions equals accuracy.
			return float64(tp) / float64(n)
		})
}

// RecallScore computes multiclass recall with the given averaging
// strategy: "macro", "micro" or "weighted".
func RecallScore(yTrue, yPred *mat.VecDense, average string) (float64, error) {
	return averaged("RecallScore", average, yTrue, yPred,
		func(c *classCounts) float64 {
			return safeRatio("recall", float64(c.tp), float64(c.tp+c.fn))
		},
		func(tp, n int) float64 {
			return float64(tp) / float64(n)
		})
}

// F1ScoreMulticlass computes the multiclass F1 score with the given
// averaging strategy: "macro", "micro" or "weighted".
func F1ScoreMulticlass(yTrue, yPred *mat.VecDense, average string) (float64, error) {
	return averaged("F1ScoreMulticlass", average, yTrue, yPred,
		func(c *classCounts) float64 {
			p := safeRatio("precision", float64(c.tp), float64(c.tp+c.fp))
			r := safeRatio("recall", float64(c.tp), float64(c.tp+c.fn))
			if p+r == 0 {
				return 0
			}
			return 2 * p * r / (p + r)
		},
		func(tp, n int) float64 {
			return float64(tp) / float64(n)
		})
}

// ConfusionMatrix returns the k×k count matrix where entry (i, j) is the
// number of samples with true label labels[i] predicted as labels[j],
// along with the sorted labels.
func ConfusionMatrix(yTrue, yPred *mat.VecDense) (*mat.Dense, []float64, error) {
	n, err := validatePair("ConfusionMatrix", yTrue, yPred)
	if err != nil {
		return nil, nil, err
	}

	_, labels := countPerClass(yTrue, yPred)
	index := make(map[float64]int, len(labels))
	for i, label := range labels {
		index[label] = i
	}

	cm := mat.NewDense(len(labels), len(labels), nil)
	for i := 0; i < n; i++ {
		r := index[yTrue.AtVec(i)]
		c := index[yPred.AtVec(i)]
		cm.Set(r, c, cm.At(r, c)+1)
	}
	return cm, labels, nil
}

// ROCCurve computes the receiver operating characteristic for binary
// labels, returning the false positive rates, true positive rates, and
// the descending score thresholds that produce them. The first point is
// (0, 0) at threshold +Inf.
func ROCCurve(yTrue, scores *mat.VecDense) (fpr, tpr, thresholds []float64, err error) {
	n, err := validatePair("ROCCurve", yTrue, scores)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := checkBinaryLabels("ROCCurve", yTrue); err != nil {
		return nil, nil, nil, err
	}

	nPos, nNeg := 0, 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			nPos++
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("ROCCurve",
			"y_true contains a single class", 0))
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	sort.Slice(indices, func(a, b int) bool {
		return scores.AtVec(indices[a]) > scores.AtVec(indices[b])
	})

	fpr = []float64{0}
	tpr = []float64{0}
	thresholds = []float64{math.Inf(1)}

	tp, fp := 0, 0
	for i := 0; i < n; {
		// Consume all samples sharing this threshold before emitting a point.
		threshold := scores.AtVec(indices[i])
		for i < n && scores.AtVec(indices[i]) == threshold {
			if yTrue.AtVec(indices[i]) == 1 {
				tp++
			} else {
				fp++
			}
			i++
		}
		fpr = append(fpr, errors.SafeDivide(float64(fp), float64(nNeg)))
		tpr = append(tpr, errors.SafeDivide(float64(tp), float64(nPos)))
		thresholds = append(thresholds, threshold)
	}

	return fpr, tpr, thresholds, nil
}

// ClassificationReport formats per-class precision, recall, F1 and support
// plus overall accuracy and macro/weighted averages, in the layout of
// scikit-learn's classification_report.
func ClassificationReport(yTrue, yPred *mat.VecDense) (string, error) {
	n, err := validatePair("ClassificationReport", yTrue, yPred)
	if err != nil {
		return "", err
	}

	counts, labels := countPerClass(yTrue, yPred)

	var b strings.Builder
	fmt.Fprintf(&b, "%12s %9s %9s %9s %9s\n", "", "precision", "recall", "f1-score", "support")
	b.WriteString("\n")

	var macroP, macroR, macroF float64
	var weightedP, weightedR, weightedF float64
	correct := 0

	for _, label := range labels {
		c := counts[label]
		p := safeRatio("precision", float64(c.tp), float64(c.tp+c.fp))
		r := safeRatio("recall", float64(c.tp), float64(c.tp+c.fn))
		f := 0.0
		if p+r > 0 {
			f = 2 * p * r / (p + r)
		}

		macroP += p
		macroR += r
		macroF += f
		weightedP += p * float64(c.support)
		weightedR += r * float64(c.support)
		weightedF += f * float64(c.support)
		correct += c.tp

		fmt.Fprintf(&b, "%12v %9.2f %9.2f %9.2f %9d\n", label, p, r, f, c.support)
	}

	k := float64(len(labels))
	accuracy := float64(correct) / float64(n)

	b.WriteString("\n")
	fmt.Fprintf(&b, "%12s %9s %9s %9.2f %9d\n", "accuracy", "", "", accuracy, n)
	fmt.Fprintf(&b, "%12s %9.2f %9.2f %9.2f %9d\n", "macro avg",
		macroP/k, macroR/k, macroF/k, n)
	fmt.Fprintf(&b, "%12s %9.2f %9.2f %9.2f %9d\n", "weighted avg",
		weightedP/float64(n), weightedR/float64(n), weightedF/float64(n), n)

	return b.String(), nil
}
