package classifier

import (
	"fmt"
)

// CatBoost is an ensemble of oblivious trees: every level of a tree uses the
// same split, so the leaf index is the bit pattern of split outcomes.
type CatBoost struct {
	FeatureNames []string        `json:"feature_names"`
	Bias         float64         `json:"bias"`
	Scale        float64         `json:"scale"`
	Trees        []ObliviousTree `json:"trees"`
}

type ObliviousTree struct {
	Splits     []Split   `json:"splits"`
	LeafValues []float64 `json:"leaf_values"`
}

// Split sends a row right (bit set) when row[Feature] > Border.
type Split struct {
	Feature string  `json:"feature"`
	Border  float64 `json:"border"`
}

func (m *CatBoost) Name() string { return NameCatBoost }

func (m *CatBoost) Columns() []string { return m.FeatureNames }

func (m *CatBoost) Validate() error {
	if len(m.Trees) == 0 || len(m.FeatureNames) == 0 {
		return ErrEmptyModel
	}
	known := make(map[string]bool, len(m.FeatureNames))
	for _, name := range m.FeatureNames {
		known[name] = true
	}
	for ti, t := range m.Trees {
		if len(t.LeafValues) != 1<<len(t.Splits) {
			return fmt.Errorf("tree %d: %d leaves for depth %d", ti, len(t.LeafValues), len(t.Splits))
		}
		for _, s := range t.Splits {
			if !known[s.Feature] {
				return fmt.Errorf("tree %d: split on unknown feature %q", ti, s.Feature)
			}
		}
	}
	if m.Scale == 0 {
		m.Scale = 1
	}
	return nil
}

func (m *CatBoost) PredictRow(row Row) (int, error) {
	p, err := m.PredictRowProbability(row)
	if err != nil {
		return 0, err
	}
	return labelFor(p), nil
}

func (m *CatBoost) PredictRowProbability(row Row) (float64, error) {
	for _, name := range m.FeatureNames {
		if _, ok := row[name]; !ok {
			return 0, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
	}
	raw := 0.0
	for _, t := range m.Trees {
		idx := 0
		for depth, s := range t.Splits {
			if row[s.Feature] > s.Border {
				idx |= 1 << depth
			}
		}
		raw += t.LeafValues[idx]
	}
	return sigmoid(m.Bias + m.Scale*raw), nil
}
