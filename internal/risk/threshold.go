package risk

import (
	"github.com/glucorisk/backend/internal/features"
)

const (
	// MinPositiveProbability is the lowest probability a positive label may keep.
	MinPositiveProbability = 0.65
	// RecheckProbability is the probability above which a negative label is re-examined.
	RecheckProbability = 0.60
)

// Rule names reported when Adjust flips a label.
const (
	RuleLowProbability    = "low_probability"
	RuleTooFewSymptoms    = "too_few_symptoms"
	RuleYoungFewSymptoms  = "young_few_symptoms"
	RuleAtMostTwo         = "at_most_two_symptoms"
	RuleNoMainSymptom     = "no_main_symptom"
	RuleMainSymptoms      = "main_symptoms"
	RuleOlderWithSymptoms = "older_with_symptoms"
)

// Adjust applies the threshold rules to a classifier result. Only the label
// can change; the probability is passed through untouched.
func Adjust(raw Inference, v features.Vector) Inference {
	adjusted, _ := adjust(raw, Count(v))
	return adjusted
}

// AdjustRule is Adjust that also reports which rule fired, or "" if none did.
func AdjustRule(raw Inference, v features.Vector) (Inference, string) {
	return adjust(raw, Count(v))
}

func adjust(raw Inference, c Counts) (Inference, string) {
	p := raw.Probability
	down := Inference{Label: Negative, Probability: p}
	up := Inference{Label: Positive, Probability: p}

	switch {
	case raw.Label == Positive:
		if p < MinPositiveProbability {
			return down, RuleLowProbability
		}
		if c.Main < 2 && c.Main+c.Secondary < 3 && c.Total < 4 {
			return down, RuleTooFewSymptoms
		}
		if c.Age < 30 && c.Total < 4 {
			return down, RuleYoungFewSymptoms
		}
		if c.Total <= 2 {
			return down, RuleAtMostTwo
		}
		if c.Main == 0 && c.Total < 5 {
			return down, RuleNoMainSymptom
		}
	case raw.Label == Negative && p > RecheckProbability:
		if c.Main >= 2 {
			return up, RuleMainSymptoms
		}
		if c.Age > 45 && c.Total >= 3 {
			return up, RuleOlderWithSymptoms
		}
	}
	return raw, ""
}
