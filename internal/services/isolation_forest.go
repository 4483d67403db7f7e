package services

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
)

const (
	isolationMaxSamples = 256
	eulerGamma          = 0.5772156649015329
)

// ErrTooFewSamples is returned when the forest is asked to score fewer points
// than it needs to build a meaningful ensemble.
var ErrTooFewSamples = errors.New("isolation forest: too few samples")

// IsolationForestConfig configures one fit of the ensemble.
type IsolationForestConfig struct {
	Estimators    int
	Contamination float64
	MinSamples    int
	Seed          int64
}

// IsolationForest is an ensemble of randomized partitioning trees. Points that
// are isolated after few splits on average are more anomalous.
type IsolationForest struct {
	config IsolationForestConfig
}

// IsolationResult holds the anomaly score of every point and the indices of
// the points flagged as outliers, most anomalous first.
type IsolationResult struct {
	Scores  []float64
	Flagged []int
}

type isolationNode struct {
	feature   int
	threshold float64
	left      *isolationNode
	right     *isolationNode
	size      int
}

// NewIsolationForest creates a forest with the given configuration.
func NewIsolationForest(config IsolationForestConfig) *IsolationForest {
	if config.Estimators <= 0 {
		config.Estimators = DefaultEstimators
	}
	if config.Contamination <= 0 || config.Contamination > 0.5 {
		config.Contamination = DefaultContamination
	}
	if config.MinSamples <= 0 {
		config.MinSamples = DefaultMinTransactions
	}
	return &IsolationForest{config: config}
}

// FitPredict builds the ensemble over points and flags the points scoring
// above the (1 - contamination) quantile. Each call draws from its own
// random source seeded from the configuration.
func (f *IsolationForest) FitPredict(points [][]float64) (*IsolationResult, error) {
	n := len(points)
	if n < f.config.MinSamples {
		return nil, fmt.Errorf("%w: got %d, need %d", ErrTooFewSamples, n, f.config.MinSamples)
	}
	for i, p := range points {
		for _, v := range p {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("isolation forest: non-finite feature at point %d", i)
			}
		}
	}

	rng := rand.New(rand.NewPCG(uint64(f.config.Seed), uint64(f.config.Seed)^0x9e3779b97f4a7c15))
	sampleSize := n
	if sampleSize > isolationMaxSamples {
		sampleSize = isolationMaxSamples
	}
	heightLimit := int(math.Ceil(math.Log2(float64(sampleSize))))

	trees := make([]*isolationNode, f.config.Estimators)
	for t := range trees {
		sample := rng.Perm(n)[:sampleSize]
		trees[t] = buildIsolationTree(points, sample, 0, heightLimit, rng)
	}

	norm := averagePathLength(sampleSize)
	scores := make([]float64, n)
	for i, p := range points {
		var total float64
		for _, tree := range trees {
			total += pathLength(tree, p, 0)
		}
		avg := total / float64(len(trees))
		if norm > 0 {
			scores[i] = math.Pow(2, -avg/norm)
		}
	}

	// Only scores strictly above the contamination quantile are outliers, so
	// tied scores at the top never get flagged and uniform data flags nothing.
	threshold := percentile(scores, 100*(1-f.config.Contamination))
	flagged := make([]int, 0, int(math.Ceil(f.config.Contamination*float64(n))))
	for i, s := range scores {
		if s > threshold {
			flagged = append(flagged, i)
		}
	}
	sort.SliceStable(flagged, func(a, b int) bool {
		return scores[flagged[a]] > scores[flagged[b]]
	})

	return &IsolationResult{Scores: scores, Flagged: flagged}, nil
}

func buildIsolationTree(points [][]float64, idx []int, depth, limit int, rng *rand.Rand) *isolationNode {
	if len(idx) <= 1 || depth >= limit {
		return &isolationNode{size: len(idx)}
	}

	dims := len(points[idx[0]])
	type bounds struct{ lo, hi float64 }
	candidates := make([]int, 0, dims)
	ranges := make([]bounds, dims)
	for d := 0; d < dims; d++ {
		lo, hi := points[idx[0]][d], points[idx[0]][d]
		for _, i := range idx[1:] {
			v := points[i][d]
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		ranges[d] = bounds{lo, hi}
		if hi > lo {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		return &isolationNode{size: len(idx)}
	}

	feature := candidates[rng.IntN(len(candidates))]
	r := ranges[feature]
	threshold := r.lo + rng.Float64()*(r.hi-r.lo)

	var left, right []int
	for _, i := range idx {
		if points[i][feature] < threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &isolationNode{
		feature:   feature,
		threshold: threshold,
		left:      buildIsolationTree(points, left, depth+1, limit, rng),
		right:     buildIsolationTree(points, right, depth+1, limit, rng),
		size:      len(idx),
	}
}

func pathLength(node *isolationNode, point []float64, depth int) float64 {
	for node.left != nil {
		if point[node.feature] < node.threshold {
			node = node.left
		} else {
			node = node.right
		}
		depth++
	}
	return float64(depth) + averagePathLength(node.size)
}

// averagePathLength is the expected path length of an unsuccessful search in
// a binary search tree of n points.
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	default:
		h := math.Log(float64(n-1)) + eulerGamma
		return 2*h - 2*float64(n-1)/float64(n)
	}
}
