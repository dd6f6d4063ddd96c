package ml

import (
	"errors"
	"fmt"
)

// TreeNode is one node of a fitted tree. Leaves carry per-class sample
// counts (or fractions) in Value.
type TreeNode struct {
	FeatureIdx int       `json:"feature_idx"`
	Threshold  float64   `json:"threshold"`
	LeftChild  int       `json:"left_child"`
	RightChild int       `json:"right_child"`
	IsLeaf     bool      `json:"is_leaf"`
	Value      []float64 `json:"value,omitempty"`
}

type DecisionTree struct {
	Nodes []TreeNode `json:"nodes"`
}

// Probability walks the tree and returns the normalized class distribution
// of the reached leaf.
func (dt *DecisionTree) Probability(features []float64) ([]float64, error) {
	if len(dt.Nodes) == 0 {
		return nil, errors.New("tree has no nodes")
	}
	idx := 0
	for steps := 0; steps <= len(dt.Nodes); steps++ {
		node := dt.Nodes[idx]
		if node.IsLeaf {
			return leafDistribution(node.Value)
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return nil, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.Nodes) {
			return nil, errors.New("invalid tree state")
		}
	}
	return nil, errors.New("tree contains a cycle")
}

func leafDistribution(value []float64) ([]float64, error) {
	if len(value) != 2 {
		return nil, fmt.Errorf("leaf has %d classes, want 2", len(value))
	}
	total := value[0] + value[1]
	if value[0] < 0 || value[1] < 0 || total <= 0 {
		return nil, errors.New("leaf has no samples")
	}
	return []float64{value[0] / total, value[1] / total}, nil
}

// RandomForest averages the leaf distributions of its trees, the same way a
// fitted sklearn forest does in predict_proba.
type RandomForest struct {
	Trees       []DecisionTree `json:"trees"`
	NumFeatures int            `json:"n_features"`
}

func (rf *RandomForest) PredictProbability(features []float64) ([]float64, error) {
	if len(rf.Trees) == 0 {
		return nil, errors.New("model not trained")
	}
	if rf.NumFeatures > 0 && len(features) != rf.NumFeatures {
		return nil, fmt.Errorf("expected %d features, got %d", rf.NumFeatures, len(features))
	}
	proba := []float64{0, 0}
	for i := range rf.Trees {
		dist, err := rf.Trees[i].Probability(features)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		proba[0] += dist[0]
		proba[1] += dist[1]
	}
	n := float64(len(rf.Trees))
	proba[0] /= n
	proba[1] /= n
	return proba, nil
}

// Predict returns the argmax class; ties resolve to class 0.
func (rf *RandomForest) Predict(features []float64) (int, error) {
	proba, err := rf.PredictProbability(features)
	if err != nil {
		return 0, err
	}
	if proba[1] > proba[0] {
		return 1, nil
	}
	return 0, nil
}

func (rf *RandomForest) validate(numFeatures int) error {
	if len(rf.Trees) == 0 {
		return errors.New("random forest has no trees")
	}
	for t, tree := range rf.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d has no nodes", t)
		}
		for n, node := range tree.Nodes {
			if node.IsLeaf {
				if len(node.Value) != 2 {
					return fmt.Errorf("tree %d node %d: leaf has %d classes, want 2", t, n, len(node.Value))
				}
				continue
			}
			if node.FeatureIdx < 0 || node.FeatureIdx >= numFeatures {
				return fmt.Errorf("tree %d node %d: feature index %d out of range", t, n, node.FeatureIdx)
			}
			if node.LeftChild <= 0 || node.LeftChild >= len(tree.Nodes) ||
				node.RightChild <= 0 || node.RightChild >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d: child index out of range", t, n)
			}
		}
	}
	return nil
}
