package classifier

import (
	"errors"
	"fmt"
	"math"

	"github.com/glucorisk/backend/internal/features"
)

// Variant names, also recorded as model_used on decisions.
const (
	NameGradientBoosting = "Gradient Boosting"
	NameCatBoost         = "CatBoost"
	NameKNN              = "KNN"
)

var (
	ErrEmptyModel    = errors.New("model has no parameters")
	ErrFeatureCount  = errors.New("unexpected number of features")
	ErrMissingColumn = errors.New("missing input column")
	ErrInvalidLabel  = errors.New("invalid class label")
)

// Classifier is a trained binary model. Concrete models also implement
// VectorClassifier or TabularClassifier depending on the input they expect.
type Classifier interface {
	Name() string
}

// VectorClassifier takes features as a positional slice in features.Vector order.
type VectorClassifier interface {
	Classifier
	Predict(x []float64) (int, error)
	PredictProbability(x []float64) (float64, error)
}

// Row is one named-column input record.
type Row map[string]float64

// TabularClassifier takes features as a named-column row.
type TabularClassifier interface {
	Classifier
	Columns() []string
	PredictRow(row Row) (int, error)
	PredictRowProbability(row Row) (float64, error)
}

// RowFromVector builds a row for the given column names, which must be the
// canonical features.Columns in any order.
func RowFromVector(v features.Vector, columns []string) (Row, error) {
	named := v.Named()
	row := make(Row, len(columns))
	for _, col := range columns {
		val, ok := named[col]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, col)
		}
		row[col] = val
	}
	return row, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func labelFor(p float64) int {
	if p >= 0.5 {
		return 1
	}
	return 0
}
