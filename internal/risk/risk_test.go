package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glucorisk/backend/internal/features"
)

func vec(age int, present ...int) features.Vector {
	var v features.Vector
	v[features.Age] = float64(age)
	for _, i := range present {
		v[i] = 1
	}
	return v
}

// vecWithCounts sets main, secondary and other symptoms from the start of each group.
func vecWithCounts(age, main, secondary, other int) features.Vector {
	var v features.Vector
	v[features.Age] = float64(age)
	for i := 0; i < main; i++ {
		v[features.Polyuria+i] = 1
	}
	for i := 0; i < secondary; i++ {
		v[features.WeightLoss+i] = 1
	}
	for i := 0; i < other; i++ {
		v[features.Itching+i] = 1
	}
	return v
}

func TestCount(t *testing.T) {
	v := vec(52, features.GenderMale, features.Polyuria, features.Weakness, features.Itching,
		features.MuscleStiffness, features.Alopecia, features.Obesity)

	c := Count(v)

	assert.Equal(t, Counts{Main: 1, Secondary: 1, Other: 2, Total: 4, Age: 52}, c)
}

func TestCountIgnoresDemographics(t *testing.T) {
	v := vec(70, features.GenderMale, features.Alopecia, features.Obesity)

	assert.Equal(t, 0, Count(v).Total)
}

func TestFallbackScenarios(t *testing.T) {
	t.Run("both main symptoms", func(t *testing.T) {
		got := Fallback(vec(50, features.Polyuria, features.Polydipsia))
		assert.Equal(t, Positive, got.Label)
		assert.InDelta(t, 0.80, got.Probability, 1e-9)
	})

	t.Run("nothing at twenty", func(t *testing.T) {
		got := Fallback(vec(20))
		assert.Equal(t, Negative, got.Label)
		assert.InDelta(t, 0.20, got.Probability, 1e-9)
	})
}

func TestFallbackRules(t *testing.T) {
	tests := []struct {
		name      string
		v         features.Vector
		wantLabel int
		wantProb  float64
	}{
		{"main>=2 capped", vecWithCounts(30, 2, 5, 5), Positive, 0.85},
		{"main>=2 small total", vecWithCounts(30, 2, 0, 0), Positive, 0.80},
		{"main>=2 total 3", vecWithCounts(30, 2, 1, 0), Positive, 0.85},
		{"main 1 total 3", vecWithCounts(30, 1, 1, 1), Positive, 0.77},
		{"main 1 total 4 capped", vecWithCounts(30, 1, 2, 1), Positive, 0.80},
		{"main 1 total 2", vecWithCounts(30, 1, 1, 0), Negative, 0.26},
		{"older with four", vecWithCounts(46, 0, 2, 2), Positive, 0.70},
		{"exactly 45 with four", vecWithCounts(45, 0, 2, 2), Negative, 0.32},
		{"five minor", vecWithCounts(20, 0, 3, 2), Positive, 0.65},
		{"eight minor", vecWithCounts(20, 0, 5, 3), Positive, 0.65},
		{"normal three", vecWithCounts(20, 0, 2, 1), Negative, 0.29},
		{"normal four young", vecWithCounts(20, 0, 2, 2), Negative, 0.32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fallback(tt.v)
			assert.Equal(t, tt.wantLabel, got.Label)
			assert.InDelta(t, tt.wantProb, got.Probability, 1e-9)
		})
	}
}

func TestFallbackNegativeProbabilityCap(t *testing.T) {
	// A negative result is only reachable with total < 5, so the 0.45 cap
	// is never hit; the probability stays within [0.20, 0.32].
	for total := 0; total <= 4; total++ {
		got := Fallback(vecWithCounts(20, 0, min(total, 5), 0))
		if got.Label == Negative {
			assert.LessOrEqual(t, got.Probability, 0.45)
			assert.GreaterOrEqual(t, got.Probability, 0.20)
		}
	}
}

func TestFallbackIsDeterministic(t *testing.T) {
	forEachVector(func(v features.Vector) {
		require.Equal(t, Fallback(v), Fallback(v))
	})
}

func TestAdjustScenarios(t *testing.T) {
	t.Run("no main symptom downgrades", func(t *testing.T) {
		v := vecWithCounts(50, 0, 3, 0)
		got, rule := AdjustRule(Inference{Label: Positive, Probability: 0.90}, v)
		assert.Equal(t, Inference{Label: Negative, Probability: 0.90}, got)
		assert.Equal(t, RuleNoMainSymptom, rule)
	})

	t.Run("main symptoms upgrade", func(t *testing.T) {
		v := vecWithCounts(35, 2, 0, 0)
		got, rule := AdjustRule(Inference{Label: Negative, Probability: 0.70}, v)
		assert.Equal(t, Inference{Label: Positive, Probability: 0.70}, got)
		assert.Equal(t, RuleMainSymptoms, rule)
	})
}

func TestAdjustRules(t *testing.T) {
	tests := []struct {
		name     string
		raw      Inference
		v        features.Vector
		want     int
		wantRule string
	}{
		{"low probability", Inference{Positive, 0.64}, vecWithCounts(50, 2, 5, 5), Negative, RuleLowProbability},
		{"boundary probability kept", Inference{Positive, 0.65}, vecWithCounts(50, 2, 2, 0), Positive, ""},
		{"too few symptoms", Inference{Positive, 0.9}, vecWithCounts(50, 1, 1, 1), Negative, RuleTooFewSymptoms},
		{"one main two secondary passes rule two", Inference{Positive, 0.9}, vecWithCounts(50, 1, 2, 0), Positive, ""},
		{"young with three", Inference{Positive, 0.9}, vecWithCounts(25, 2, 1, 0), Negative, RuleYoungFewSymptoms},
		{"young with four kept", Inference{Positive, 0.9}, vecWithCounts(25, 2, 1, 1), Positive, ""},
		{"two mains only", Inference{Positive, 0.9}, vecWithCounts(40, 2, 0, 0), Negative, RuleAtMostTwo},
		{"no main symptom", Inference{Positive, 0.9}, vecWithCounts(40, 0, 3, 1), Negative, RuleNoMainSymptom},
		{"no main but five kept", Inference{Positive, 0.9}, vecWithCounts(40, 0, 3, 2), Positive, ""},
		{"negative low probability untouched", Inference{Negative, 0.60}, vecWithCounts(60, 2, 5, 5), Negative, ""},
		{"negative upgrade main", Inference{Negative, 0.61}, vecWithCounts(20, 2, 0, 0), Positive, RuleMainSymptoms},
		{"negative upgrade older", Inference{Negative, 0.8}, vecWithCounts(46, 1, 1, 1), Positive, RuleOlderWithSymptoms},
		{"negative 45 not older", Inference{Negative, 0.8}, vecWithCounts(45, 1, 1, 1), Negative, ""},
		{"negative older two symptoms", Inference{Negative, 0.8}, vecWithCounts(60, 1, 1, 0), Negative, ""},
		{"unknown label untouched", Inference{7, 0.99}, vecWithCounts(60, 2, 5, 5), 7, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rule := AdjustRule(tt.raw, tt.v)
			assert.Equal(t, tt.want, got.Label)
			assert.Equal(t, tt.raw.Probability, got.Probability)
			assert.Equal(t, tt.wantRule, rule)
			assert.Equal(t, got, Adjust(tt.raw, tt.v))
		})
	}
}

func TestAdjustProperties(t *testing.T) {
	probs := []float64{0, 0.3, 0.6, 0.61, 0.64, 0.65, 0.7, 0.9, 1}
	forEachVector(func(v features.Vector) {
		c := Count(v)
		for _, p := range probs {
			for _, label := range []int{Negative, Positive} {
				got := Adjust(Inference{Label: label, Probability: p}, v)

				require.Equal(t, p, got.Probability, "probability must never change")

				if label == Positive && p >= MinPositiveProbability && c.Main >= 2 && c.Total > 2 && !(c.Age < 30 && c.Total < 4) {
					require.Equal(t, Positive, got.Label, "vector %v", v)
				}
				if label == Positive && c.Total <= 2 {
					require.Equal(t, Negative, got.Label, "vector %v", v)
				}
				if label == Negative && p <= RecheckProbability {
					require.Equal(t, Negative, got.Label)
				}
			}
		}
	})
}

// forEachVector visits every combination of the twelve counted symptoms at a few ages.
func forEachVector(fn func(features.Vector)) {
	for _, age := range []int{0, 29, 30, 45, 46, 80} {
		for mask := 0; mask < 1<<12; mask++ {
			var v features.Vector
			v[features.Age] = float64(age)
			for bit := 0; bit < 12; bit++ {
				if mask&(1<<bit) != 0 {
					v[features.Polyuria+bit] = 1
				}
			}
			fn(v)
		}
	}
}
