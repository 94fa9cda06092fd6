// Package classigo is a scikit-learn flavoured toolkit for supervised
// classification in Go.
//
// It covers the full tutorial workflow end to end: loading tabular data from
// CSV, train/test splitting, preprocessing (scaling and categorical
// encoding), fitting binary and multiclass classifiers, evaluating them with
// accuracy, precision, recall, F1, confusion matrices and ROC/AUC, rendering
// exploratory and evaluation plots, and persisting fitted models (and whole
// pipelines) to disk with encoding/gob.
//
// The package layout mirrors scikit-learn:
//
//   - dataset: CSV loading, train/test and k-fold splitting, cross-validation
//   - preprocessing: StandardScaler, MinMaxScaler, LabelEncoder, OneHotEncoder
//   - pipeline: transformer chains with a final estimator
//   - linear: LogisticRegression (binary and one-vs-rest multiclass)
//   - neighbors: KNeighborsClassifier
//   - metrics: classification and regression metrics
//   - visualize: ROC curves, class scatter plots, confusion matrix heatmaps
//   - tracking: SQLite-backed evaluation run history
//
// All numeric data is exchanged as gonum mat.Matrix values. Estimators follow
// the Fit/Predict/PredictProba contract and return structured errors from
// pkg/errors; calling Predict before Fit yields a NotFittedError.
//
// A minimal binary classification session:
//
//	X, y, _ := dataset.LoadCSV("iris.csv", dataset.WithLabelColumn(4))
//	split, _ := dataset.TrainTestSplit(X, y, 0.25, 42)
//	clf := linear.NewLogisticRegression(linear.WithLRMaxIter(200))
//	_ = clf.Fit(split.XTrain, split.YTrain)
//	yPred, _ := clf.Predict(split.XTest)
//	acc, _ := metrics.AccuracyMatrix(split.YTest, yPred)
package classigo
