// Package exactmatch implements the first prediction tier: a dictionary from
// canonical reactant keys to frequency-weighted product distributions, built
// from a labeled reaction corpus and queried in O(1) per call.
package exactmatch

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/turtacn/ChemReact-Intelligence/internal/domain/reaction"
	"github.com/turtacn/ChemReact-Intelligence/internal/infrastructure/monitoring/logging"
	rxn "github.com/turtacn/ChemReact-Intelligence/pkg/types/reaction"
)

// TierName is the statistics label for this tier.
const TierName = "exact_match"

// frequencyTable tracks occurrence counts per product label for one canonical
// key.  Insertion order of first occurrence is preserved so that equal counts
// rank deterministically rather than by map iteration order.
type frequencyTable struct {
	counts map[string]int
	order  []string
	total  int
}

func newFrequencyTable() *frequencyTable {
	return &frequencyTable{counts: make(map[string]int)}
}

func (t *frequencyTable) add(product string) {
	if _, seen := t.counts[product]; !seen {
		t.order = append(t.order, product)
	}
	t.counts[product]++
	t.total++
}

// ranked returns the product labels in descending count order, ties broken by
// insertion order.
func (t *frequencyTable) ranked() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	sort.SliceStable(out, func(i, j int) bool {
		return t.counts[out[i]] > t.counts[out[j]]
	})
	return out
}

// Index is the Level 1 exact-match tier.  Training and lookup are both safe
// for concurrent use; lookups never mutate state.
type Index struct {
	mu             sync.RWMutex
	tables         map[string]*frequencyTable
	totalReactions int
	logger         logging.Logger
}

func NewIndex(logger logging.Logger) *Index {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Index{
		tables: make(map[string]*frequencyTable),
		logger: logger.Named("exactmatch"),
	}
}

// productLabel collapses a reaction's product list into the single label
// counted in the frequency table.  Multi-product reactions use "+" as the
// joiner, so ["OH","H"] counts as "OH+H".
func productLabel(products []string) string {
	return strings.Join(products, "+")
}

// Train folds the records into the index.  Training is additive: running
// twice with the same corpus doubles every count (and therefore preserves
// relative frequencies), running with different corpora merges them.  This
// merge behaviour is the documented contract, not an accident.
func (x *Index) Train(records []rxn.Record) {
	start := time.Now()
	x.mu.Lock()
	for _, rec := range records {
		key := reaction.Canonicalize(rec.Reactants)
		if key == reaction.EmptyKey {
			continue
		}
		table, ok := x.tables[key]
		if !ok {
			table = newFrequencyTable()
			x.tables[key] = table
		}
		table.add(productLabel(rec.Products))
		x.totalReactions++
	}
	total, unique := x.totalReactions, len(x.tables)
	x.mu.Unlock()

	x.logger.Info("index trained",
		logging.Int("reactions", total),
		logging.Int("unique_keys", unique),
		logging.Duration("elapsed", time.Since(start)))
}

// Name implements the tier contract.
func (x *Index) Name() string { return TierName }

// Predict implements the tier contract: nil result on miss, never an error.
func (x *Index) Predict(_ context.Context, reactants []string, topK int) (*rxn.PredictionResult, error) {
	result, ok := x.Lookup(reactants, topK)
	if !ok {
		return nil, nil
	}
	return result, nil
}

// Lookup queries the index directly.  On a hit it returns candidates in
// descending empirical-frequency order; each candidate's probability is its
// count divided by the key's total count, and the result confidence is the
// top candidate's share on the 0-100 scale.  The boolean reports whether the
// key was present.
//
// The per-candidate share is an empirical frequency, not a calibrated
// probability: a product seen three times out of four scores 0.75 no matter
// how unrepresentative the corpus is.
func (x *Index) Lookup(reactants []string, topK int) (*rxn.PredictionResult, bool) {
	if topK <= 0 {
		topK = 3
	}
	key := reaction.Canonicalize(reactants)
	if key == reaction.EmptyKey {
		return nil, false
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	table, ok := x.tables[key]
	if !ok {
		return nil, false
	}

	ranked := table.ranked()
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	candidates := make([]rxn.ProductCandidate, 0, len(ranked))
	for _, product := range ranked {
		candidates = append(candidates, rxn.ProductCandidate{
			Formula:     product,
			Probability: float64(table.counts[product]) / float64(table.total),
		})
	}

	return &rxn.PredictionResult{
		Products:         candidates,
		Confidence:       candidates[0].Probability * 100,
		Method:           rxn.MethodExactMatch,
		Speed:            rxn.SpeedInstant,
		Reasoning:        "seen " + key + " in training corpus",
		TrainingExamples: table.total,
	}, true
}

// Stats reports the summary counters: reactions folded in and distinct
// canonical keys.
func (x *Index) Stats() (totalReactions, uniqueKeys int) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.totalReactions, len(x.tables)
}
