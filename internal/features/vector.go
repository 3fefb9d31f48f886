// Package features turns questionnaire answers into the fixed-order numeric
// vector every classifier variant is trained on.
package features

import "fmt"

// Size is the number of values in a Vector.
const Size = 16

// Positions of each value in a Vector. Classifiers depend on this order.
const (
	Age = iota
	GenderMale
	Polyuria
	Polydipsia
	WeightLoss
	Weakness
	Polyphagia
	GenitalThrush
	VisualBlurring
	Itching
	Irritability
	DelayedHealing
	PartialParesis
	MuscleStiffness
	Alopecia
	Obesity
)

// Vector holds age followed by fifteen 0/1 indicators.
type Vector [Size]float64

// Keys are the answer names in vector order.
var Keys = [Size]string{
	"age",
	"gender",
	"polyuria",
	"polydipsia",
	"weight_loss",
	"weakness",
	"polyphagia",
	"genital_thrush",
	"visual_blurring",
	"itching",
	"irritability",
	"delayed_healing",
	"partial_paresis",
	"muscle_stiffness",
	"alopecia",
	"obesity",
}

// Columns are the named columns used by classifiers that take tabular input.
var Columns = [Size]string{
	"Age",
	"Gender_Male",
	"Polyuria_Yes",
	"Polydipsia_Yes",
	"sudden weight loss_Yes",
	"weakness_Yes",
	"Polyphagia_Yes",
	"Genital thrush_Yes",
	"visual blurring_Yes",
	"Itching_Yes",
	"Irritability_Yes",
	"delayed healing_Yes",
	"partial paresis_Yes",
	"muscle stiffness_Yes",
	"Alopecia_Yes",
	"Obesity_Yes",
}

// AgeYears returns the age value as whole years.
func (v Vector) AgeYears() int {
	return int(v[Age])
}

// Slice copies the vector into a positional slice.
func (v Vector) Slice() []float64 {
	out := make([]float64, Size)
	copy(out, v[:])
	return out
}

// Named returns the vector keyed by the tabular column names.
func (v Vector) Named() map[string]float64 {
	out := make(map[string]float64, Size)
	for i, name := range Columns {
		out[name] = v[i]
	}
	return out
}

// FromSlice builds a Vector from exactly Size values.
func FromSlice(values []float64) (Vector, error) {
	var v Vector
	if len(values) != Size {
		return v, fmt.Errorf("feature vector needs %d values, got %d", Size, len(values))
	}
	copy(v[:], values)
	return v, nil
}

func (v Vector) String() string {
	return fmt.Sprint([Size]float64(v))
}
