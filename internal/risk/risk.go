// Package risk holds the rule-based scoring used when no classifier answers
// and the threshold rules applied on top of classifier output.
package risk

import (
	"gonum.org/v1/gonum/floats"

	"github.com/glucorisk/backend/internal/features"
)

const (
	Negative = 0
	Positive = 1
)

// Inference is a label with the probability of the positive class.
type Inference struct {
	Label       int
	Probability float64
}

// Counts summarizes the symptom indicators of a vector.
type Counts struct {
	Main      int
	Secondary int
	Other     int
	Total     int
	Age       int
}

// Symptom groups as half-open index ranges over a features.Vector.
var (
	mainRange      = [2]int{features.Polyuria, features.WeightLoss}
	secondaryRange = [2]int{features.WeightLoss, features.Itching}
	otherRange     = [2]int{features.Itching, features.Alopecia}
	totalRange     = [2]int{features.Polyuria, features.Alopecia}
)

// Count computes the symptom counts used by Fallback and Adjust.
// Alopecia and obesity are not symptoms for this purpose.
func Count(v features.Vector) Counts {
	return Counts{
		Main:      sum(v, mainRange),
		Secondary: sum(v, secondaryRange),
		Other:     sum(v, otherRange),
		Total:     sum(v, totalRange),
		Age:       v.AgeYears(),
	}
}

func sum(v features.Vector, r [2]int) int {
	return int(floats.Sum(v[r[0]:r[1]]))
}
