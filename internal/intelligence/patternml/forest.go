package patternml

import (
	"math"
	"math/rand"
	"sort"
	"time"

	apperrors "github.com/turtacn/ChemReact-Intelligence/pkg/errors"
	rxn "github.com/turtacn/ChemReact-Intelligence/pkg/types/reaction"
)

// ArtifactVersion is the schema version written into serialized models.
// Loaders reject any other version rather than guessing at field meanings.
const ArtifactVersion = 1

// Node is one decision node in a flattened tree.  Interior nodes route on
// Feature <= Threshold; leaf nodes carry a probability distribution over the
// product vocabulary and have Left == Right == -1.
type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Probs     []float64 `json:"probs,omitempty"`
}

// Tree is a single decision tree stored as a node array rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// predictProbs walks the tree for one fingerprint and returns the leaf
// distribution.
func (t *Tree) predictProbs(features []float64) []float64 {
	idx := 0
	for {
		node := &t.Nodes[idx]
		if node.Left < 0 {
			return node.Probs
		}
		if features[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
}

// Model is a trained tree ensemble with its explicit vocabulary.  The schema
// is versioned so cross-version loading fails loudly instead of silently
// misclassifying.
type Model struct {
	Version     int       `json:"version"`
	Products    []string  `json:"products"`
	NumFeatures int       `json:"num_features"`
	Trees       []Tree    `json:"trees"`
	TrainedAt   time.Time `json:"trained_at"`
	Examples    int       `json:"examples"`
}

// Validate checks structural integrity of a loaded model.
func (m *Model) Validate() error {
	if m.Version != ArtifactVersion {
		return apperrors.New(apperrors.ErrCodeModelArtifactInvalid,
			"unsupported model artifact version")
	}
	if len(m.Products) == 0 {
		return apperrors.New(apperrors.ErrCodeModelArtifactInvalid,
			"model artifact has an empty product vocabulary")
	}
	if len(m.Trees) == 0 {
		return apperrors.New(apperrors.ErrCodeModelArtifactInvalid,
			"model artifact has no trees")
	}
	if m.NumFeatures != NumFeatures {
		return apperrors.New(apperrors.ErrCodeModelArtifactInvalid,
			"model artifact feature length does not match the fingerprint encoder")
	}
	for _, tree := range m.Trees {
		if err := tree.validate(len(m.Products), m.NumFeatures); err != nil {
			return err
		}
	}
	return nil
}

// validate checks every node of the tree so a hand-edited artifact cannot
// send predictProbs out of bounds.  Children are serialized after their
// parent, so requiring forward links also rules out cycles.
func (t *Tree) validate(numClasses, numFeatures int) error {
	if len(t.Nodes) == 0 {
		return apperrors.New(apperrors.ErrCodeModelArtifactInvalid,
			"model artifact contains an empty tree")
	}
	for i := range t.Nodes {
		node := &t.Nodes[i]
		if node.Left < 0 {
			if len(node.Probs) != numClasses {
				return apperrors.New(apperrors.ErrCodeModelArtifactInvalid,
					"model artifact leaf distribution does not match the product vocabulary")
			}
			continue
		}
		if node.Feature < 0 || node.Feature >= numFeatures {
			return apperrors.New(apperrors.ErrCodeModelArtifactInvalid,
				"model artifact node references a feature outside the fingerprint")
		}
		if node.Left <= i || node.Left >= len(t.Nodes) ||
			node.Right <= i || node.Right >= len(t.Nodes) {
			return apperrors.New(apperrors.ErrCodeModelArtifactInvalid,
				"model artifact node links are out of range")
		}
	}
	return nil
}

// PredictProbs averages the per-tree leaf distributions for one fingerprint.
func (m *Model) PredictProbs(features []float64) []float64 {
	probs := make([]float64, len(m.Products))
	for i := range m.Trees {
		leaf := m.Trees[i].predictProbs(features)
		for c, p := range leaf {
			probs[c] += p
		}
	}
	n := float64(len(m.Trees))
	for c := range probs {
		probs[c] /= n
	}
	return probs
}

// TopK returns the k most probable products in descending probability order,
// ties broken by vocabulary order.
func (m *Model) TopK(probs []float64, k int) []rxn.ProductCandidate {
	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return probs[idx[a]] > probs[idx[b]] })

	if k > len(idx) {
		k = len(idx)
	}
	out := make([]rxn.ProductCandidate, 0, k)
	for _, i := range idx[:k] {
		out = append(out, rxn.ProductCandidate{Formula: m.Products[i], Probability: probs[i]})
	}
	return out
}

// TrainOptions tunes the forest trainer.  The zero value is replaced by
// DefaultTrainOptions.
type TrainOptions struct {
	NumTrees        int
	MaxDepth        int
	MinSamplesSplit int
	Seed            int64
}

// DefaultTrainOptions mirror the reference training setup scaled down to the
// corpus sizes this engine sees in practice.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		NumTrees:        50,
		MaxDepth:        15,
		MinSamplesSplit: 2,
		Seed:            42,
	}
}

// Train fits a random forest over the records.  Each record's class label is
// its first listed product.  Training is fully deterministic for a given
// corpus and seed.
func Train(records []rxn.Record, opts TrainOptions) (*Model, error) {
	if len(records) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeReactionNotTrained,
			"cannot train on an empty corpus")
	}
	if opts.NumTrees <= 0 {
		opts = DefaultTrainOptions()
	}

	// Build the closed product vocabulary in sorted order.
	vocabSet := make(map[string]int)
	for _, rec := range records {
		if len(rec.Reactants) == 0 || len(rec.Products) == 0 {
			continue
		}
		vocabSet[rec.Products[0]] = 0
	}
	if len(vocabSet) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeReactionNotTrained,
			"corpus contains no usable labeled reactions")
	}
	products := make([]string, 0, len(vocabSet))
	for p := range vocabSet {
		products = append(products, p)
	}
	sort.Strings(products)
	for i, p := range products {
		vocabSet[p] = i
	}

	// Encode the training matrix.
	var features [][]float64
	var labels []int
	for _, rec := range records {
		if len(rec.Reactants) == 0 || len(rec.Products) == 0 {
			continue
		}
		features = append(features, Fingerprint(rec.Reactants))
		labels = append(labels, vocabSet[rec.Products[0]])
	}

	model := &Model{
		Version:     ArtifactVersion,
		Products:    products,
		NumFeatures: NumFeatures,
		Trees:       make([]Tree, opts.NumTrees),
		TrainedAt:   time.Now().UTC(),
		Examples:    len(labels),
	}

	numClasses := len(products)
	featureSubset := int(math.Ceil(math.Sqrt(float64(NumFeatures))))

	for t := 0; t < opts.NumTrees; t++ {
		rng := rand.New(rand.NewSource(opts.Seed + int64(t)))

		// Bootstrap sample.
		sample := make([]int, len(labels))
		for i := range sample {
			sample[i] = rng.Intn(len(labels))
		}

		builder := &treeBuilder{
			features:        features,
			labels:          labels,
			numClasses:      numClasses,
			maxDepth:        opts.MaxDepth,
			minSamplesSplit: opts.MinSamplesSplit,
			featureSubset:   featureSubset,
			rng:             rng,
		}
		model.Trees[t] = Tree{Nodes: builder.build(sample)}
	}

	return model, nil
}

type treeBuilder struct {
	features        [][]float64
	labels          []int
	numClasses      int
	maxDepth        int
	minSamplesSplit int
	featureSubset   int
	rng             *rand.Rand
}

func (b *treeBuilder) build(sample []int) []Node {
	var nodes []Node
	b.grow(&nodes, sample, 0)
	return nodes
}

// grow appends the subtree for sample to nodes and returns its root index.
func (b *treeBuilder) grow(nodes *[]Node, sample []int, depth int) int {
	counts := b.classCounts(sample)

	if depth >= b.maxDepth || len(sample) < b.minSamplesSplit || isPure(counts) {
		return b.appendLeaf(nodes, counts, len(sample))
	}

	feature, threshold, ok := b.bestSplit(sample, counts)
	if !ok {
		return b.appendLeaf(nodes, counts, len(sample))
	}

	var left, right []int
	for _, i := range sample {
		if b.features[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return b.appendLeaf(nodes, counts, len(sample))
	}

	idx := len(*nodes)
	*nodes = append(*nodes, Node{Feature: feature, Threshold: threshold, Left: -1, Right: -1})
	leftIdx := b.grow(nodes, left, depth+1)
	rightIdx := b.grow(nodes, right, depth+1)
	(*nodes)[idx].Left = leftIdx
	(*nodes)[idx].Right = rightIdx
	return idx
}

func (b *treeBuilder) appendLeaf(nodes *[]Node, counts []int, total int) int {
	probs := make([]float64, b.numClasses)
	if total > 0 {
		for c, n := range counts {
			probs[c] = float64(n) / float64(total)
		}
	}
	idx := len(*nodes)
	*nodes = append(*nodes, Node{Left: -1, Right: -1, Probs: probs})
	return idx
}

func (b *treeBuilder) classCounts(sample []int) []int {
	counts := make([]int, b.numClasses)
	for _, i := range sample {
		counts[b.labels[i]]++
	}
	return counts
}

func isPure(counts []int) bool {
	seen := 0
	for _, n := range counts {
		if n > 0 {
			seen++
			if seen > 1 {
				return false
			}
		}
	}
	return true
}

// bestSplit searches a random feature subset for the split minimizing
// weighted Gini impurity.  Candidate thresholds are midpoints between
// consecutive distinct values of the feature within the sample.
func (b *treeBuilder) bestSplit(sample []int, parentCounts []int) (int, float64, bool) {
	bestGini := giniImpurity(parentCounts, len(sample))
	bestFeature, bestThreshold := -1, 0.0

	candidates := b.rng.Perm(NumFeatures)[:b.featureSubset]
	sort.Ints(candidates)

	for _, feature := range candidates {
		values := make([]float64, 0, len(sample))
		for _, i := range sample {
			values = append(values, b.features[i][feature])
		}
		sort.Float64s(values)

		for v := 1; v < len(values); v++ {
			if values[v] == values[v-1] {
				continue
			}
			threshold := (values[v] + values[v-1]) / 2

			leftCounts := make([]int, b.numClasses)
			leftTotal := 0
			for _, i := range sample {
				if b.features[i][feature] <= threshold {
					leftCounts[b.labels[i]]++
					leftTotal++
				}
			}
			rightTotal := len(sample) - leftTotal
			if leftTotal == 0 || rightTotal == 0 {
				continue
			}
			rightCounts := make([]int, b.numClasses)
			for c := range rightCounts {
				rightCounts[c] = parentCounts[c] - leftCounts[c]
			}

			weighted := (float64(leftTotal)*giniImpurity(leftCounts, leftTotal) +
				float64(rightTotal)*giniImpurity(rightCounts, rightTotal)) / float64(len(sample))
			if weighted < bestGini {
				bestGini = weighted
				bestFeature = feature
				bestThreshold = threshold
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func giniImpurity(counts []int, total int) float64 {
	if total == 0 {
		return 0
	}
	sum := 0.0
	for _, n := range counts {
		p := float64(n) / float64(total)
		sum += p * p
	}
	return 1 - sum
}
