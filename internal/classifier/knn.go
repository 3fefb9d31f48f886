package classifier

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/glucorisk/backend/internal/features"
)

// KNN votes among the K nearest stored samples by Euclidean distance with
// uniform weights.
type KNN struct {
	K       int      `json:"k"`
	Samples []Sample `json:"samples"`
}

type Sample struct {
	Features []float64 `json:"features"`
	Label    int       `json:"label"`
}

func (m *KNN) Name() string { return NameKNN }

func (m *KNN) Validate() error {
	if len(m.Samples) == 0 {
		return ErrEmptyModel
	}
	if m.K <= 0 {
		m.K = 5
	}
	if m.K > len(m.Samples) {
		m.K = len(m.Samples)
	}
	for i, s := range m.Samples {
		if len(s.Features) != features.Size {
			return fmt.Errorf("sample %d: %w: got %d", i, ErrFeatureCount, len(s.Features))
		}
		if s.Label != 0 && s.Label != 1 {
			return fmt.Errorf("sample %d: %w: %d", i, ErrInvalidLabel, s.Label)
		}
	}
	return nil
}

// Predict returns 1 only when positives are a strict majority of the neighbours.
func (m *KNN) Predict(x []float64) (int, error) {
	p, err := m.PredictProbability(x)
	if err != nil {
		return 0, err
	}
	if p > 0.5 {
		return 1, nil
	}
	return 0, nil
}

func (m *KNN) PredictProbability(x []float64) (float64, error) {
	if len(x) != features.Size {
		return 0, fmt.Errorf("%w: got %d", ErrFeatureCount, len(x))
	}
	if m.K <= 0 || m.K > len(m.Samples) {
		return 0, ErrEmptyModel
	}

	type neighbour struct {
		dist  float64
		label int
	}
	ns := make([]neighbour, len(m.Samples))
	for i, s := range m.Samples {
		ns[i] = neighbour{dist: floats.Distance(x, s.Features, 2), label: s.Label}
	}
	sort.SliceStable(ns, func(i, j int) bool { return ns[i].dist < ns[j].dist })

	positives := 0
	for _, n := range ns[:m.K] {
		positives += n.label
	}
	return float64(positives) / float64(m.K), nil
}
