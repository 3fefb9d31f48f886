package classifier

import (
	"fmt"

	"github.com/glucorisk/backend/internal/features"
)

// GradientBoosting is an additive ensemble of binary regression trees over
// the positional feature vector, scored through the logistic function.
type GradientBoosting struct {
	InitScore    float64 `json:"init_score"`
	LearningRate float64 `json:"learning_rate"`
	Trees        []Tree  `json:"trees"`
}

type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is a split (feature <= threshold goes left) or, when Leaf is set, a value.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Leaf      bool    `json:"leaf"`
	Value     float64 `json:"value"`
}

func (m *GradientBoosting) Name() string { return NameGradientBoosting }

func (m *GradientBoosting) Validate() error {
	if len(m.Trees) == 0 {
		return ErrEmptyModel
	}
	for ti, t := range m.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d: %w", ti, ErrEmptyModel)
		}
		for ni, n := range t.Nodes {
			if n.Leaf {
				continue
			}
			if n.Feature < 0 || n.Feature >= features.Size {
				return fmt.Errorf("tree %d node %d: feature %d out of range", ti, ni, n.Feature)
			}
			if n.Left <= ni || n.Left >= len(t.Nodes) || n.Right <= ni || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d node %d: invalid child index", ti, ni)
			}
		}
	}
	return nil
}

func (m *GradientBoosting) Predict(x []float64) (int, error) {
	p, err := m.PredictProbability(x)
	if err != nil {
		return 0, err
	}
	return labelFor(p), nil
}

func (m *GradientBoosting) PredictProbability(x []float64) (float64, error) {
	if len(x) != features.Size {
		return 0, fmt.Errorf("%w: got %d", ErrFeatureCount, len(x))
	}
	score := m.InitScore
	for _, t := range m.Trees {
		score += m.LearningRate * t.eval(x)
	}
	return sigmoid(score), nil
}

// eval walks from the root; Validate guarantees children come after parents,
// so the walk terminates.
func (t Tree) eval(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}
